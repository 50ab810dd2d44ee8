// +build debug

package tag

// Debug is true only in binaries built with the "debug" build tag.
const Debug = true
