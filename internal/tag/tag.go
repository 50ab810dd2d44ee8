// +build !debug

// Package tag exposes build-tag controlled constants, so debug-only
// invariant checks can be compiled out of release builds.
package tag

// Debug is true only in binaries built with the "debug" build tag.
const Debug = false
