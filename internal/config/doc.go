// Package config defines the settings shared by the sleep-clock binaries and
// provides helpers to load, validate, save and watch them in YAML format.
//
// The Config type holds the gRPC address, the optional WebSocket events
// address, the monitor check schedule, logging, rate limiting and trigger
// journal settings.
package config
