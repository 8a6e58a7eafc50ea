package machine

import "fmt"

// traceEntry is one line of a runtime stack trace: the frame's function
// name, the module it runs in, and the source line it was executing.
type traceEntry struct {
	Function string
	Module   string
	Line     int
}

// EvalError is a fatal runtime error carrying the call-stack trace in
// effect when it was raised, innermost frame first.
type EvalError struct {
	Message string
	Trace   []traceEntry
}

func (e *EvalError) Error() string { return e.Message }

// Report renders the error the way the VM's failure path prints it: the
// message followed by one "at <function> (<module>:<line>)" line per
// frame, innermost first.
func (e *EvalError) Report() string {
	out := e.Message + "\n"
	for _, fr := range e.Trace {
		mod := fr.Module
		if mod == "" {
			mod = "script"
		}
		out += fmt.Sprintf("  at %s (%s:%d)\n", fr.Function, mod, fr.Line)
	}
	return out
}
