package memcached

import (
	"io"

	"github.com/abkumar/batchmemcache/cache"
	"github.com/abkumar/batchmemcache/log"
)

// Config is the fully parsed, in-process configuration a Server is
// built from. cmd/memcached/config.Parse produces one of these from
// flags and an optional JSON file.
type Config struct {
	Addr           string
	LogDestination io.Writer
	LogLevel       log.Level
	Cache          cache.Config
	MaxItemSize    int64
}
