// Package client runs sleepclock CLI commands against the server.
//
// Run connects once and hands the client to a command; Watch keeps a trigger
// stream open, reconnecting whenever the server goes away.
package client
