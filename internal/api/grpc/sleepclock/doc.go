// Package sleepclock implements the gRPC transport for the sleep clock.
//
// The service has no generated stubs: every request and response is a
// google.protobuf.Struct and the service descriptor is declared by hand.
// The codec in this package converts those structs to domain types and back,
// and is shared by the server and the client.
package sleepclock
