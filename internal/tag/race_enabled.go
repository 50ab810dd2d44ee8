// +build race

package tag

// Race is true only in binaries built with "go test -race" or "go
// build -race" (via the "race" build tag passed through by the test
// runner).
const Race = true
