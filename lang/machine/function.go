package machine

import (
	"fmt"

	"github.com/horst-lang/horst/lang/compiler"
)

// Function is a handle to a compiled function prototype plus the module it
// was compiled in. The top-level script is represented the same way. A
// Function with no upvalues may be called directly; every user-declared
// function or method is always wrapped in a Closure by OpClosure before it
// is ever callable.
type Function struct {
	Proto  *compiler.FunctionProto
	Module *Module
}

var (
	_ Value    = (*Function)(nil)
	_ Callable = (*Function)(nil)
)

func (fn *Function) String() string { return fmt.Sprintf("<fn %s>", fn.Name()) }
func (fn *Function) Type() string   { return "function" }
func (fn *Function) Name() string {
	if fn.Proto.Name == "" {
		return "script"
	}
	return fn.Proto.Name
}

// Upvalue is the runtime counterpart of a compiler UpvalueDesc: it is
// Open (pointing at a live stack slot) until the frame that owns that slot
// returns or the slot's scope ends, at which point Close copies the slot's
// current value inward and the registry becomes Closed.
type Upvalue struct {
	// StackIndex is meaningful only while Closed is false: the index into the
	// owning thread's value stack that this upvalue currently aliases.
	StackIndex int
	Closed     bool
	value      Value
}

func newOpenUpvalue(stackIndex int) *Upvalue {
	return &Upvalue{StackIndex: stackIndex}
}

// Get returns the upvalue's current value, reading through to the stack
// slot if still open.
func (u *Upvalue) Get(stack []Value) Value {
	if u.Closed {
		return u.value
	}
	return stack[u.StackIndex]
}

// Set writes through to the stack slot if still open, else to the closed
// cell directly.
func (u *Upvalue) Set(stack []Value, v Value) {
	if u.Closed {
		u.value = v
		return
	}
	stack[u.StackIndex] = v
}

// Close freezes the upvalue's current stack value into the cell and marks
// it closed; after this the upvalue no longer aliases the stack.
func (u *Upvalue) Close(stack []Value) {
	u.value = stack[u.StackIndex]
	u.Closed = true
}

// Closure pairs a Function with the upvalue cells it captured at creation
// time, per its prototype's UpvalueDesc table.
type Closure struct {
	handle   Handle
	Function *Function
	Upvalues []*Upvalue
}

var (
	_ Value      = (*Closure)(nil)
	_ Callable   = (*Closure)(nil)
	_ heapObject = (*Closure)(nil)
)

// NewClosure allocates a closure over fn with the given upvalue cells in
// the heap.
func NewClosure(heap *Heap, fn *Function, upvalues []*Upvalue) *Closure {
	c := &Closure{Function: fn, Upvalues: upvalues}
	c.handle = heap.track(c, 32+16*len(upvalues))
	return c
}

func (c *Closure) String() string { return fmt.Sprintf("<fn %s>", c.Name()) }
func (c *Closure) Type() string   { return "closure" }
func (c *Closure) Name() string   { return c.Function.Name() }

func (c *Closure) heapHandle() Handle { return c.handle }

func (c *Closure) trace(mark func(Value)) {
	for _, uv := range c.Upvalues {
		if uv.Closed {
			mark(uv.value)
		}
	}
}

// NativeFunction wraps a Go function as a callable Horst value. Arity < 0
// means variadic (any argument count is accepted).
type NativeFunction struct {
	NameStr string
	Arity   int
	Fn      func(th *Thread, args []Value) (Value, error)
}

var (
	_ Value    = (*NativeFunction)(nil)
	_ Callable = (*NativeFunction)(nil)
)

func (n *NativeFunction) String() string { return fmt.Sprintf("<native fn %s>", n.NameStr) }
func (n *NativeFunction) Type() string   { return "native function" }
func (n *NativeFunction) Name() string   { return n.NameStr }
