// Package ast defines the smart-contract source language's syntax tree
//: expressions, statements, and the script/contract/event
// declarations a hand-written parser builds from source text.
//
// Node identity for the type-check memo table is an integer NodeID assigned
// at construction time rather than mutating nodes in place to cache their
// type — the compiler owns a side table keyed by NodeID instead.
package ast

import "sync/atomic"

// NodeID identifies one AST node for the compiler's type memo table.
type NodeID int

// allocator is a process-wide, atomically-incremented NodeID source. Two
// ParseSource calls (or a parse racing loop-unrolling's own node
// construction in compiler/unroll.go) run against this same counter, so IDs
// are unique across the whole process rather than merely within one AST;
// that is a strictly stronger guarantee than "unique within one AST" and
// costs nothing since NodeID has no wraparound concern at int64 range.
// Using atomic.Int64 rather than a plain field means concurrent parses never
// race on it, so nothing about NodeID allocation constrains how many
// compile units can be in flight at once.
var allocator atomic.Int64

func nextID() NodeID { return NodeID(allocator.Add(1) - 1) }

// ResetIDs rewinds the counter to zero. It is not safe to call while any
// other parse or unroll pass may still be allocating IDs — a reset racing a
// live allocation can hand out an ID already in use by that other AST. It
// exists for callers that want small, reproducible IDs in a controlled,
// single-threaded setting (e.g. a test comparing exact ID sequences); the
// parser itself never calls it, precisely so concurrent parses stay safe.
func ResetIDs() { allocator.Store(0) }
