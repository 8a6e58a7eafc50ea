package compiler

// UpvalueDesc is a static description, attached to a FunctionProto, of where
// the VM should capture one upvalue from when it builds a Closure over that
// prototype: either a local slot of the immediately enclosing function
// (IsLocal) or an upvalue already captured by that enclosing function.
type UpvalueDesc struct {
	Index   int
	IsLocal bool
}

// FunctionProto is an immutable compiled function: its name, arity, chunk,
// and the list of upvalues a Closure built from it must capture. Prototypes
// never change after Compile returns.
type FunctionProto struct {
	Name     string
	Arity    int
	Chunk    Chunk
	Upvalues []UpvalueDesc
}

// Program is the result of compiling one source file: its top-level
// function, whose chunk runs the module's statements. Nested function
// prototypes are reachable only through the OpClosure constants of the
// chunks that create them.
type Program struct {
	Toplevel *FunctionProto
}
