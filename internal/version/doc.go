// Package version exposes build metadata for the sleep clock binaries.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags. Short, Full and UserAgent render them for the CLI, logs and
// outgoing gRPC calls.
package version
