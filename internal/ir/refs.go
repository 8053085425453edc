// Package ir implements the opt-IR container: a
// sea-of-instructions SSA-style IR with block-level control flow, two
// orthogonal per-block orderings (definition order and control order),
// phi nodes, use-lists, and a debug-info side table. This is component B.
package ir

// InstrRef is a dense, process-stable handle for an instruction within a
// function. Once retired (dropped) it is never reused and reports
// diagnostics.NotFound on lookup.
type InstrRef uint32

// NoInstr is the "absent" sentinel — operand slots, the entry points of
// empty control/definition lists, and similar optional fields use it
// instead of a pointer so the whole container can live in flat slices and
// maps keyed by these integer handles into arena-style storage, rather
// than as ownership edges.
const NoInstr InstrRef = ^InstrRef(0)

// BlockRef is a dense handle for a basic block.
type BlockRef uint32

// NoBlock is the absent-block sentinel.
const NoBlock BlockRef = ^BlockRef(0)

// PhiRef is a handle for a phi node, owned by its block.
type PhiRef uint32

// NoPhi is the absent-phi sentinel.
const NoPhi PhiRef = ^PhiRef(0)
