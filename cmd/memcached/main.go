package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/abkumar/batchmemcache"
	"github.com/abkumar/batchmemcache/cache"
	"github.com/abkumar/batchmemcache/cmd/memcached/config"
	"github.com/abkumar/batchmemcache/internal/tag"
	"github.com/abkumar/batchmemcache/log"
	"github.com/abkumar/batchmemcache/recycle"
)

const usage = `
Config values merge rules:
1) config file value overrides default
2) command line value overrides any
Options:
`

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s", usage)
		flag.PrintDefaults()
	}
}

func main() {
	// TODO pprof monitoring on configurable port.
	l := log.NewLogger(log.DebugLevel, os.Stderr)
	conf := buildConfig(l)

	l = log.NewLogger(conf.LogLevel, conf.LogDestination)
	pool := recycle.NewPool()
	c := cache.New(l.WithFields(log.Fields{"component": "cache"}), pool, conf.Cache)
	s := &memcached.Server{
		Addr: conf.Addr,
		Log:  l,
		ConnMeta: memcached.ConnMeta{
			Cache:       c,
			Pool:        pool,
			MaxItemSize: int(conf.MaxItemSize),
		},
	}
	l.Debugf("Config: %#v", conf)
	if tag.Debug {
		l.Warn("Using debug build. It has more runtime checks and large perfomance overhead.")
	}

	l.Infof("Serve on %s.", s.Addr)
	err := s.ListenAndServe()
	l.Fatal("Serve error: ", err)
}

// buildConfig parses command flags, reads a config file if given, and
// returns the merged, validated config.
// Merge rules: 1) config file value overrides default, 2) command line
// value overrides any.
func buildConfig(l log.Logger) memcached.Config {
	flg := parseFlags()
	fileConf := config.Default()
	if flg.ConfigPath != "" {
		data, err := ioutil.ReadFile(flg.ConfigPath)
		if err != nil {
			l.Fatal("Config file read error: ", err)
		}
		err = json.Unmarshal(data, fileConf)
		if err != nil {
			l.Fatal("Config parse error: ", err)
		}
	}
	config.Merge(fileConf, &flg.Config)
	conf, err := config.Parse(*fileConf)
	if err != nil {
		l.Fatal("Config error: ", err)
	}
	return conf
}

type Flags struct {
	ConfigPath string
	config.Config
}

// NOTE: without "only stdlib" constraint I would use
// github.com/spf13/viper, with custom github.com/mitchellh/mapstructure
// decode hooks for configuration, and github.com/spf13/cobra for CLI.
func parseFlags() Flags {
	var f Flags
	flag.StringVar(&f.ConfigPath, "config", "", "path to json config")

	def := config.Default()
	usage := func(usage string, defVal interface{}) string {
		if _, ok := defVal.(string); ok {
			usage += fmt.Sprintf(" (default %q)", defVal)
		} else {
			usage += fmt.Sprintf(" (default %v)", defVal)
		}
		return usage
	}
	flag.StringVar(&f.Host, "host", "", usage("host address to bind", def.Host))
	flag.IntVar(&f.Port, "port", 0, usage("port num", def.Port))
	flag.StringVar(&f.LogDestination, "log-destination", "", usage("log destination: stderr, stdout or file path", def.LogDestination))
	flag.StringVar(&f.LogLevel, "log-level", "", usage("log level: debug, info, warn, error, fatal", def.LogLevel))
	flag.Int64Var(&f.CacheCapacity, "cache-capacity", 0, usage("max entries the cache settles to", def.CacheCapacity))
	flag.StringVar(&f.MaxItemSize, "max-item-size", "", usage("max item size: 10m, 1024k", def.MaxItemSize))
	flag.Parse()
	return f
}

func saveDefaultConf() {
	data, err := json.Marshal(config.Default())
	if err != nil {
		panic(err)
	}
	err = ioutil.WriteFile("./config.json", data, 0666)
	if err != nil {
		panic(err)
	}
}
