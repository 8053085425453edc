package ir

import (
	"kefir/internal/collections"
	"kefir/internal/diagnostics"
	"kefir/internal/frontend"
)

// Function is one translation-unit-scope function body: its signature (as
// declared by the front end) plus the instruction/block/phi arenas that
// make up its opt-IR.
type Function struct {
	Signature frontend.FunctionSignature

	blocks       []Block
	instrs       []Instruction
	phis         []Phi
	dropped      *collections.HashSet[uint64] // dropped InstrRefs, by uint64(ref)
	uses         map[InstrRef]*collections.OrderedMap[uint64, Use]
	entry        BlockRef
	nextBlock    BlockRef
	debug        *DebugInfo
}

// Module is the top-level container for one translation unit's opt-IR
// across its lifetime: declared identifiers, static initializer
// data, and the function bodies that reference them.
type Module struct {
	decls        map[string]frontend.Declaration
	initializers map[string]frontend.IrData
	functions    map[string]*Function
	order        []string // function declaration order, for stable iteration
}

// NewModule creates an empty translation-unit container.
func NewModule() *Module {
	return &Module{
		decls:        make(map[string]frontend.Declaration),
		initializers: make(map[string]frontend.IrData),
		functions:    make(map[string]*Function),
	}
}

// DeclareIdentifier registers decl, or — if Symbol was already declared —
// verifies the new declaration agrees with the existing one on every
// field. A mismatched re-declaration is diagnostics.InvalidState.
func (m *Module) DeclareIdentifier(decl frontend.Declaration) error {
	if existing, ok := m.decls[decl.Symbol]; ok {
		if !existing.Equal(decl) {
			return diagnostics.New(diagnostics.InvalidState,
				"identifier %q redeclared with incompatible attributes", decl.Symbol)
		}
		return nil
	}
	m.decls[decl.Symbol] = decl
	return nil
}

// Declaration looks up a previously declared identifier.
func (m *Module) Declaration(symbol string) (frontend.Declaration, bool) {
	d, ok := m.decls[symbol]
	return d, ok
}

// SetInitializer attaches static initializer data to a declared global.
// The symbol must already have been declared via DeclareIdentifier.
func (m *Module) SetInitializer(data frontend.IrData) error {
	if _, ok := m.decls[data.Symbol]; !ok {
		return diagnostics.New(diagnostics.NotFound, "no declaration for symbol %q", data.Symbol)
	}
	m.initializers[data.Symbol] = data
	return nil
}

// Initializer retrieves previously attached static initializer data.
func (m *Module) Initializer(symbol string) (frontend.IrData, bool) {
	d, ok := m.initializers[symbol]
	return d, ok
}

// NewFunction declares and creates an empty function body for sig.Name. The
// name must already be (or is now) declared as frontend.SymbolFunction;
// redefining an existing function body is diagnostics.AlreadyExists.
func (m *Module) NewFunction(sig frontend.FunctionSignature) (*Function, error) {
	if _, ok := m.functions[sig.Name]; ok {
		return nil, diagnostics.New(diagnostics.AlreadyExists, "function %q already defined", sig.Name)
	}
	if err := m.DeclareIdentifier(frontend.Declaration{
		Symbol: sig.Name,
		Kind:   frontend.SymbolFunction,
		Scope:  frontend.ScopeExport,
	}); err != nil {
		return nil, err
	}
	fn := &Function{
		Signature: sig,
		dropped:   collections.NewHashSet(identityHash),
		uses:      make(map[InstrRef]*collections.OrderedMap[uint64, Use]),
		entry:     NoBlock,
		debug:     newDebugInfo(),
	}
	m.functions[sig.Name] = fn
	m.order = append(m.order, sig.Name)
	return fn, nil
}

// Function looks up a previously created function body by name.
func (m *Module) Function(name string) (*Function, bool) {
	fn, ok := m.functions[name]
	return fn, ok
}

// Functions iterates function bodies in declaration order.
func (m *Module) Functions(yield func(name string, fn *Function) bool) {
	for _, name := range m.order {
		if !yield(name, m.functions[name]) {
			return
		}
	}
}

// Entry returns the function's entry block, or NoBlock if none has been
// created yet.
func (fn *Function) Entry() BlockRef { return fn.entry }

func identityHash(v uint64) uint64 { return v }
