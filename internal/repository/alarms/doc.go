// Package alarms implements the in-memory alarm registry.
//
// The Registry owns every Alarm record. Records are kept in insertion order in
// a collection.Ring and indexed by id; callers only ever receive clones. All
// operations are serialized by a registry-wide lock so request handlers and
// the alarm monitor can use the same registry concurrently.
package alarms
