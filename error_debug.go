//go:build fmtlang_debug

package fmtlang

// PrintDiagnostic writes a formatted diagnostic for err to stderr-style
// output (via the supplied print func) when built with -tags
// fmtlang_debug. This mirrors original_source's GN_DEBUG-gated
// log_error macro in fmt_error.h: under release builds
// (error_release.go) this is a no-op, even though *Error values are
// always produced and returned (spec.md §7: "the boolean is still
// returned").
func PrintDiagnostic(print func(format string, args ...any), err *Error) {
	if err == nil {
		return
	}
	print("Fmt Error[%d, %d]: %s\n", err.Line, err.Column, err.Msg)
}

const debugBuild = true
