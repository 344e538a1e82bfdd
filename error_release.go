//go:build !fmtlang_debug

package fmtlang

// PrintDiagnostic is a no-op in release builds; build with -tags
// fmtlang_debug to enable (line, column) diagnostic printing (see
// error_debug.go). *Error values are still produced and returned
// either way — only the printed text is suppressed.
func PrintDiagnostic(print func(format string, args ...any), err *Error) {}

const debugBuild = false
