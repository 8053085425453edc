package ir

import "kefir/internal/collections"

// SourceLocation is a single point in the front end's source coordinate
// space. DWARF/debug-info plumbing is an external collaborator; the
// mid-end only needs to carry enough to hand ranges back to it.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// DebugInfo is a side table associating instructions and local variables
// with source ranges, kept out of the hot Instruction struct so the common
// case (no debug info requested) costs nothing per instruction. The
// interval tree is built exactly for this: stabbing queries over "what
// source range covers this program point". localRefs is the reverse index
// from an ALLOC_LOCAL's InstrRef to every instruction that references it
// as an operand (LOCAL_LIFETIME_MARK, LOAD, STORE, ...).
type DebugInfo struct {
	instrLines *collections.IntervalTree[SourceLocation]
	localNames map[InstrRef]string
	localRefs  map[InstrRef]*collections.HashSet[InstrRef]
}

func newDebugInfo() *DebugInfo {
	return &DebugInfo{
		instrLines: collections.NewIntervalTree[SourceLocation](),
		localNames: make(map[InstrRef]string),
		localRefs:  make(map[InstrRef]*collections.HashSet[InstrRef]),
	}
}

func instrRefHash(r InstrRef) uint64 { return uint64(r) }

func (d *DebugInfo) addLocalReference(local, user InstrRef) {
	s, ok := d.localRefs[local]
	if !ok {
		s = collections.NewHashSet(instrRefHash)
		d.localRefs[local] = s
	}
	s.Add(user)
}

func (d *DebugInfo) removeLocalReference(local, user InstrRef) {
	if s, ok := d.localRefs[local]; ok {
		s.Delete(user)
	}
}

// migrate moves oldRef's per-instruction debug annotations onto newRef: the
// declared local name, if any; any single-instruction source-range
// annotation exactly covering oldRef (wider ranges spanning several
// instructions are left alone, since other instructions in the range still
// need them); and, if oldRef was itself an ALLOC_LOCAL, its set of
// referencing instructions.
func (d *DebugInfo) migrate(oldRef, newRef InstrRef) {
	if name, ok := d.localNames[oldRef]; ok {
		delete(d.localNames, oldRef)
		d.localNames[newRef] = name
	}

	iv := collections.Interval{Begin: int64(oldRef), End: int64(oldRef) + 1}
	for _, hit := range d.instrLines.Stab(int64(oldRef)) {
		if hit.Interval == iv {
			d.instrLines.Delete(iv)
			d.instrLines.Insert(collections.Interval{Begin: int64(newRef), End: int64(newRef) + 1}, hit.Value)
		}
	}

	if s, ok := d.localRefs[oldRef]; ok {
		delete(d.localRefs, oldRef)
		dst, ok := d.localRefs[newRef]
		if !ok {
			dst = collections.NewHashSet(instrRefHash)
			d.localRefs[newRef] = dst
		}
		dst.Merge(s)
	}
}

// purge discards ref's per-instruction debug annotations when ref is
// permanently dropped. Callers that need ref's annotations to survive call
// migrate first.
func (d *DebugInfo) purge(ref InstrRef) {
	delete(d.localNames, ref)
	delete(d.localRefs, ref)
	d.instrLines.Delete(collections.Interval{Begin: int64(ref), End: int64(ref) + 1})
}

// AnnotateRange attaches loc to every instruction ID in [begin, end) — the
// front end's usual pattern of marking "this whole statement came from
// this line".
func (fn *Function) AnnotateRange(begin, end InstrRef, loc SourceLocation) {
	fn.debug.instrLines.Insert(collections.Interval{Begin: int64(begin), End: int64(end)}, loc)
}

// SourceLocationsAt returns every source range annotation covering ref, in
// ascending-begin order: multiple nested statement ranges
// may legitimately cover the same instruction, e.g. a macro-expanded line
// inside a block inside a function).
func (fn *Function) SourceLocationsAt(ref InstrRef) []SourceLocation {
	hits := fn.debug.instrLines.Stab(int64(ref))
	out := make([]SourceLocation, len(hits))
	for i, h := range hits {
		out[i] = h.Value
	}
	return out
}

// SetLocalName records the front end's declared name for a local variable's
// OpAllocLocal instruction, purely for diagnostics/printing — the optimizer
// core never keys behavior off it.
func (fn *Function) SetLocalName(alloc InstrRef, name string) {
	fn.debug.localNames[alloc] = name
}

// LocalName returns the declared name for alloc, if one was recorded.
func (fn *Function) LocalName(alloc InstrRef) (string, bool) {
	name, ok := fn.debug.localNames[alloc]
	return name, ok
}

// LocalReferences returns every instruction that references local (an
// ALLOC_LOCAL instruction) as an operand — LOCAL_LIFETIME_MARK, LOAD,
// STORE, and the like. The set is maintained incrementally by
// AppendInstruction, ReplaceReferences and DropInstr; order is unspecified.
func (fn *Function) LocalReferences(local InstrRef) []InstrRef {
	s, ok := fn.debug.localRefs[local]
	if !ok {
		return nil
	}
	out := make([]InstrRef, 0, s.Len())
	s.Range(func(ref InstrRef) bool {
		out = append(out, ref)
		return true
	})
	return out
}
