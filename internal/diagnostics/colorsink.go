package diagnostics

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// ColorSink renders diagnostics the way a Kanso-style compiler CLI
// renders its errors: a bold, colored "level[kind]: message" header
// followed by pass/function context, using github.com/fatih/color.
type ColorSink struct {
	out io.Writer
}

// NewColorSink wraps out (typically os.Stdout/os.Stderr).
func NewColorSink(out io.Writer) *ColorSink {
	return &ColorSink{out: out}
}

func (s *ColorSink) Report(d Diagnostic) {
	levelColor := s.levelColor(d.Severity)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(s.out, "%s[%s]: %s\n", levelColor(string(d.Severity)), d.Kind, bold(d.Message))
	if d.Pass != "" {
		fmt.Fprintf(s.out, "  %s %s\n", dim("-->"), dim("pass: "+d.Pass))
	}
	if d.Function != "" {
		fmt.Fprintf(s.out, "  %s %s\n", dim("-->"), dim("function: "+d.Function))
	}
}

func (s *ColorSink) levelColor(sev Severity) func(...any) string {
	switch sev {
	case SeverityError:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case SeverityWarn:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case SeverityNote:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}
