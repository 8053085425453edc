package lspsrv

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/alecthomas/participle/v2"
)

// parseErrorDiagnostic converts an irtext parse failure into an LSP
// diagnostic, grounded on internal/lsp/diagnostics.go's
// ConvertParseErrors (line/column from participle.Error.Position,
// 1-based converted to the LSP's 0-based positions).
func parseErrorDiagnostic(err error) protocol.Diagnostic {
	pe, ok := err.(participle.Error)
	if !ok {
		return protocol.Diagnostic{
			Range:    protocol.Range{},
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("kefir-parser"),
			Message:  err.Error(),
		}
	}

	pos := pe.Position()
	line := uint32(0)
	if pos.Line > 0 {
		line = uint32(pos.Line - 1)
	}
	col := uint32(0)
	if pos.Column > 0 {
		col = uint32(pos.Column - 1)
	}

	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: col},
			End:   protocol.Position{Line: line, Character: col + 1},
		},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("kefir-parser"),
		Message:  pe.Message(),
	}
}

// buildErrorDiagnostic converts an irtext.Build failure (undefined value,
// undefined block, malformed operand shape) into an LSP diagnostic. The AST
// does not carry source positions, so this reports at the top of the file.
func buildErrorDiagnostic(err error) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range:    protocol.Range{},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("kefir-build"),
		Message:  err.Error(),
	}
}

// diagnosticFromError converts a pass-driver failure (an LICM invariant
// violation, typically) into an LSP diagnostic naming the function.
func diagnosticFromError(function string, err error) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range:    protocol.Range{},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("kefir-opt:" + function),
		Message:  err.Error(),
	}
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity { return &s }

func ptrString(s string) *string { return &s }
