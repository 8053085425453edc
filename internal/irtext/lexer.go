package irtext

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// IRLexer tokenizes the textual IR syntax: value/block identifiers, integer
// and string immediates, and the small set of punctuation the grammar
// needs. Grounded on grammar/lexer.go's stateful-rule shape.
var IRLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `;[^\n]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Int", `-?[0-9]+`, nil},
		{"String", `"(\\.|[^"\\])*"`, nil},
		{"Arrow", `->`, nil},
		{"Ellipsis", `\.\.\.`, nil},
		{"Punctuation", `[%@(){}\[\]:,=]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
