package typetraverse

import "testing"

func scalar() Type { return Type{Kind: Scalar} }

func TestNextScalar(t *testing.T) {
	var got []LayerKind
	for _, layer := range Next(scalar()) {
		got = append(got, layer.Kind)
	}
	if len(got) != 1 || got[0] != LayerScalar {
		t.Fatalf("scalar traversal = %v, want single LayerScalar", got)
	}
}

func TestNextStructFieldOrder(t *testing.T) {
	st := Type{Kind: Struct, Fields: []Field{
		{Name: "a", Type: scalar()},
		{Name: "b", Type: scalar()},
		{Name: "c", Type: scalar()},
	}}
	var names []int
	for _, layer := range Next(st) {
		names = append(names, layer.FieldIndex)
	}
	want := []int{0, 1, 2}
	if len(names) != len(want) {
		t.Fatalf("got %d fields, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("field order = %v, want %v", names, want)
		}
	}
}

func TestNextSkipsUnnamedBitfields(t *testing.T) {
	st := Type{Kind: Struct, Fields: []Field{
		{Name: "", Type: scalar(), Bitfield: true, Unnamed: true},
		{Name: "flag", Type: scalar(), Bitfield: true},
	}}
	var count int
	for range Next(st) {
		count++
	}
	if count != 1 {
		t.Fatalf("expected only the named bitfield to surface, got %d layers", count)
	}
}

func TestNextUnionStopsAfterFirstMember(t *testing.T) {
	un := Type{Kind: Union, Fields: []Field{
		{Name: "i", Type: scalar()},
		{Name: "f", Type: scalar()},
	}}
	var count int
	for range Next(un) {
		count++
	}
	if count != 1 {
		t.Fatalf("union traversal should yield exactly one member, got %d", count)
	}
}

func TestNextNestedStruct(t *testing.T) {
	inner := Type{Kind: Struct, Fields: []Field{
		{Name: "x", Type: scalar()},
		{Name: "y", Type: scalar()},
	}}
	outer := Type{Kind: Struct, Fields: []Field{
		{Name: "point", Type: inner},
		{Name: "tag", Type: scalar()},
	}}
	var depths []int
	for _, layer := range Next(outer) {
		depths = append(depths, layer.Depth)
	}
	want := []int{1, 1, 0}
	if len(depths) != len(want) {
		t.Fatalf("got %d leaves, want %d: %v", len(depths), len(want), depths)
	}
	for i := range want {
		if depths[i] != want[i] {
			t.Fatalf("depths = %v, want %v", depths, want)
		}
	}
}

func TestNextFixedArray(t *testing.T) {
	el := scalar()
	arr := Type{Kind: Array, Element: &el, Length: 3}
	var indices []int
	for _, layer := range Next(arr) {
		indices = append(indices, layer.ArrayIndex)
	}
	want := []int{0, 1, 2}
	if len(indices) != len(want) {
		t.Fatalf("got %d elements, want %d", len(indices), len(want))
	}
	for i := range want {
		if indices[i] != want[i] {
			t.Fatalf("array indices = %v, want %v", indices, want)
		}
	}
}

func TestNextFlexibleArrayBounded(t *testing.T) {
	el := scalar()
	arr := Type{Kind: Array, Element: &el, Length: -1}
	count := 0
	for range Next(arr) {
		count++
		if count > arrayProbeLimit {
			t.Fatalf("flexible array traversal did not stop at arrayProbeLimit")
		}
	}
	if count != arrayProbeLimit {
		t.Fatalf("expected traversal to probe exactly arrayProbeLimit elements, got %d", count)
	}
}

func TestNextEarlyStop(t *testing.T) {
	st := Type{Kind: Struct, Fields: []Field{
		{Name: "a", Type: scalar()},
		{Name: "b", Type: scalar()},
		{Name: "c", Type: scalar()},
	}}
	count := 0
	for range Next(st) {
		count++
		break
	}
	if count != 1 {
		t.Fatalf("expected iteration to stop after first yield when consumer breaks")
	}
}
