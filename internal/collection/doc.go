// Package collection provides Ring, a cyclic doubly linked container whose
// nodes live in an index-linked arena.
//
// Forward traversal starts at the anchor (the oldest element unless something
// was inserted at the front) and ends when it gets back to the anchor. Every
// insert returns a Handle that allows constant-time lookup and removal while
// the element is still in the ring.
package collection
