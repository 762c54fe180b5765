// Package triggers implements the journal of fired alarms.
//
// The journal is append-only and only ever read for display: alarms and
// timezones themselves live in memory and are never restored from it. Open
// picks the backend from the journal settings: a bounded in-memory buffer,
// a JSON Lines file, an SQLite database or nothing at all.
package triggers
