// Package common holds helpers shared by the sleep clock binaries.
//
// It provides a gRPC client for the sleep clock service with per-call
// timeouts, and detects the local user so that every call is tagged with
// who made it.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
