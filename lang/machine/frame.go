package machine

import "github.com/horst-lang/horst/lang/compiler"

// frame is one activation record on the call stack: the function currently
// executing, its instruction pointer, the base index into the value stack
// where its locals begin, and the upvalue cells it closed over (empty for a
// bare Function with no captures, such as the top-level script).
type frame struct {
	proto    *compiler.FunctionProto
	module   *Module
	upvalues []*Upvalue
	name     string

	ip   int
	base int
}

func newFrame(fn *Function, upvalues []*Upvalue, base int) *frame {
	return &frame{
		proto:    fn.Proto,
		module:   fn.Module,
		upvalues: upvalues,
		name:     fn.Name(),
		base:     base,
	}
}

// line returns the source line of the instruction about to execute (or the
// last one executed, for stack traces taken after a call returns).
func (fr *frame) line() int {
	idx := fr.ip - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(fr.proto.Chunk.Code) {
		idx = len(fr.proto.Chunk.Code) - 1
	}
	if idx < 0 {
		return 0
	}
	return fr.proto.Chunk.Line(idx)
}
