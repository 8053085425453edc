// Package irtext implements a textual assembly syntax for the opt-IR, used
// by tests, cmd/kefir-opt and cmd/kefir-lsp to read and print
// internal/ir.Function values without depending on the (out-of-scope) C
// front end. The grammar, lexer, and parser wiring are grounded on
// grammar/grammar.go, grammar/lexer.go and grammar/parser.go's
// participle-based shape; only the productions changed, from Kanso source
// syntax to an instruction-list syntax for the IR container.
package irtext

// File is one parsed .kfir text unit: a sequence of function definitions.
type File struct {
	Functions []*FunctionDecl `@@*`
}

// FunctionDecl mirrors a declared+defined function:
//
//	function @name(i32, i32, ...) -> i32 { block ... }
type FunctionDecl struct {
	Name    string       `"function" "@" @Ident "("`
	Params  []*ParamDecl `[ @@ { "," @@ } ]`
	Vararg  bool         `[ "," @"..." ]`
	Close   string       `")"`
	Returns string       `[ "->" @Ident ]`
	Blocks  []*BlockDecl  `"{" @@* "}"`
}

// ParamDecl is one function-signature parameter: a bare type name (the
// front end's real type system is out of scope, so parameter and return
// types are left as opaque strings).
type ParamDecl struct {
	Type string `@Ident`
}

// BlockDecl is one labeled basic block: "block bN: phi* instr*".
type BlockDecl struct {
	Label  string       `"block" @Ident ":"`
	Phis   []*PhiDecl   `@@*`
	Instrs []*InstrDecl `@@*`
}

// PhiDecl is "%dest = phi [pred: %val, pred: %val, ...]". Value names are
// decimal labels, not source identifiers, hence @Int rather than @Ident
// after "%". Build maps each name to the InstrRef it creates for that
// value, so a name need not equal the resulting InstrRef.
type PhiDecl struct {
	Dest     string        `"%" @Int "=" "phi" "["`
	Incoming []*PhiOperand `[ @@ { "," @@ } ]`
	Close    string        `"]"`
}

// PhiOperand is one "pred: %val" entry in a phi's incoming list.
type PhiOperand struct {
	Pred  string `@Ident ":" "%"`
	Value string `@Int`
}

// InstrDecl is one non-phi instruction: an optional "%dest =" destination,
// an opcode mnemonic, and a comma-separated operand list mixing value
// references (%name), block labels (bare idents after jump/branch), and
// immediates (integers or quoted strings).
type InstrDecl struct {
	Dest     *string        `[ "%" @Int "=" ]`
	Opcode   string         `@Ident`
	Operands []*OperandDecl `[ @@ { "," @@ } ]`
}

// OperandDecl is one instruction operand in any of its surface forms,
// following a PrimaryExpr-style alternation: at most one of
// these fields is populated per parsed operand.
type OperandDecl struct {
	ValueRef *ValueRef `  @@`
	Label    *string   `| @Ident`
	Int      *int64    `| @Int`
	Str      *string   `| @String`
}

// ValueRef is a "%name" reference to another instruction's output. Names
// are the decimal labels declared by a phi or instruction destination, not
// source identifiers; Build resolves them to the InstrRefs it created.
type ValueRef struct {
	Name string `"%" @Int`
}
