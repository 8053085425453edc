// Package typetraverse implements the AST-level type-traversal utility:
// walking a (struct/union/array/scalar) type's nested layers in
// declaration order, the way a C designated-initializer or the ir_data
// object initializer needs to know which slot a bare `{ ... }` nesting
// level currently refers to. Non-core, only referenced where the opt-IR
// ingests these types.
//
// The original (original_source/source/ast/analyzer/type_traversal.c) uses
// an explicit layer stack with layer-begin/layer-end callbacks invoked by
// kefir_ast_type_traversal_next. This rewrite drops the inversion of
// control: it expresses the traversal as an iterator yielding (type,
// layer) pairs and lets the consumer pattern-match on layer kind. Go
// 1.23's range-over-func iterators are exactly that shape.
package typetraverse

import "iter"

// Kind classifies a Type for traversal purposes. The front end's real type
// system is out of scope; this is the minimal shape the traversal needs.
type Kind int

const (
	Scalar Kind = iota
	Struct
	Union
	Array
)

// Field is one member of a Struct or Union type, in declaration order.
type Field struct {
	Name     string
	Type     Type
	Bitfield bool
	// Unnamed anonymous bitfields are skipped by the traversal, matching
	// skip_unnamed_bitfields in the original.
	Unnamed bool
}

// Type is the minimal structural description typetraverse needs: enough to
// walk nested initializer layers without depending on the (out-of-scope)
// front end's full type representation.
type Type struct {
	Kind     Kind
	Fields   []Field // Struct / Union
	Element  *Type   // Array
	Length   int     // Array; <0 means unbounded (flexible array member)
}

// LayerKind mirrors KEFIR_AST_TYPE_TRAVERSAL_{STRUCTURE,UNION,ARRAY,SCALAR}.
type LayerKind int

const (
	LayerStructure LayerKind = iota
	LayerUnion
	LayerArray
	LayerScalar
)

// Layer is the (type, position) pair reported at each traversal step,
// replacing the original's layer_begin/layer_end event payload.
type Layer struct {
	Kind       LayerKind
	ObjectType Type
	// FieldIndex / ArrayIndex locate the current position within
	// ObjectType; only one is meaningful, per Kind.
	FieldIndex int
	ArrayIndex int
	Depth      int
}

// Next yields every scalar leaf of t in initializer order as a (Type,
// Layer) pair, descending into nested structs/unions/arrays. A change of
// Depth between yields marks entering or leaving a nested layer, with no
// callback registration required; two sibling aggregates at the same depth
// (for example consecutive struct elements of an array) follow each other
// with no Depth change, so Depth alone does not show where one ends.
func Next(t Type) iter.Seq2[Type, Layer] {
	return func(yield func(Type, Layer) bool) {
		var walk func(cur Type, depth int) bool
		walk = func(cur Type, depth int) bool {
			switch cur.Kind {
			case Struct, Union:
				lk := LayerStructure
				if cur.Kind == Union {
					lk = LayerUnion
				}
				for i, f := range cur.Fields {
					if f.Unnamed && f.Bitfield {
						continue // skip_unnamed_bitfields
					}
					layer := Layer{Kind: lk, ObjectType: cur, FieldIndex: i, Depth: depth}
					if f.Type.Kind == Scalar {
						if !yield(f.Type, layer) {
							return false
						}
					} else if !walk(f.Type, depth+1) {
						return false
					}
					if cur.Kind == Union {
						// A union initializer only ever targets one member.
						return true
					}
				}
				return true
			case Array:
				if cur.Element == nil {
					return true
				}
				n := cur.Length
				for i := 0; n < 0 || i < n; i++ {
					if n < 0 && i >= arrayProbeLimit {
						break // flexible array member: no static bound to exhaust
					}
					layer := Layer{Kind: LayerArray, ObjectType: cur, ArrayIndex: i, Depth: depth}
					if cur.Element.Kind == Scalar {
						if !yield(*cur.Element, layer) {
							return false
						}
					} else if !walk(*cur.Element, depth+1) {
						return false
					}
				}
				return true
			default:
				return yield(cur, Layer{Kind: LayerScalar, ObjectType: cur, Depth: depth})
			}
		}
		walk(t, 0)
	}
}

// arrayProbeLimit bounds traversal of a flexible array member (Length < 0)
// so a malformed or deliberately unbounded type can't hang a consumer that
// forgets to stop early.
const arrayProbeLimit = 1 << 16
