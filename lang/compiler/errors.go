package compiler

import "fmt"

// CompileError is a single error reported during compilation, with the
// source line and (when available) the lexeme of the token it was reported
// against.
type CompileError struct {
	Line   int
	Lexeme string
	Msg    string
}

func (e *CompileError) Error() string {
	if e.Lexeme != "" {
		return fmt.Sprintf("[line %d] Error at '%s': %s", e.Line, e.Lexeme, e.Msg)
	}
	return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Msg)
}

// ErrorList collects every error reported during one compilation. The
// compiler never stops at the first error: it synchronizes to a statement
// boundary and keeps going, surfacing the full batch at the end.
type ErrorList []*CompileError

func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
}

// Unwrap exposes the individual errors so that callers can use errors.Is/As
// or range over them with errors.Join-style inspection.
func (el ErrorList) Unwrap() []error {
	errs := make([]error, len(el))
	for i, e := range el {
		errs[i] = e
	}
	return errs
}
