// Package optconfig defines the optimizer's configuration surface: passes
// read only from this struct, with no environment-variable side channels.
package optconfig

// Config carries the named toggles a pass driver consults before running
// each stage. Zero value is "everything off except what defaults to safe."
type Config struct {
	// EnableLICM gates internal/licm. Off by default in Config{} so a
	// caller composing a pipeline by hand must opt in explicitly; Default()
	// turns it on.
	EnableLICM bool

	// EnableInlining is reserved for a pass outside this spec's scope; it
	// exists so internal/passdriver has a stable switch name to wire a
	// future inliner behind without changing the Config shape.
	EnableInlining bool

	// MaxLICMFixpointIterations bounds the outer-loop "re-run to fixpoint"
	// driver. Zero means "run once" (no re-run).
	MaxLICMFixpointIterations int

	// PositionIndependentCode and EmulatedTLS are back-end lowering
	// toggles the mid-end does not interpret itself but must carry
	// verbatim to the (out-of-scope) code generator.
	PositionIndependentCode bool
	EmulatedTLS             bool
}

// Default returns the configuration the CLI driver uses when the caller
// supplies no overrides: LICM on, for up to four rounds, stopping early once
// a round hoists nothing; enough for the nested-loop second-hoist scenario
// without looping forever.
func Default() Config {
	return Config{
		EnableLICM:                true,
		MaxLICMFixpointIterations: 4,
	}
}
