// Package machine implements Horst's stack-based virtual machine: the
// value representation, call-frame stack, upvalue/closure mechanics,
// class/instance model, garbage collector, and fetch/execute loop that
// runs compiled chunks.
package machine

// Value is the interface implemented by every value the machine can put on
// its stack or store in a variable slot.
type Value interface {
	// String returns the value's textual representation, as used by Print and
	// string concatenation.
	String() string
	// Type returns a short name for the value's type, used in error messages.
	Type() string
}

// Callable is implemented by the function-like callees of Call n: Closure,
// Function, NativeFunction, and BoundMethod. A Class is also a valid callee,
// but it does not implement Callable; Thread.call handles it separately.
type Callable interface {
	Value
	Name() string
}

// IsFalsey reports whether v is considered false in a boolean context:
// exactly Nil and Boolean(false) are falsey, everything else is truthy.
func IsFalsey(v Value) bool {
	switch v := v.(type) {
	case NilType:
		return true
	case Boolean:
		return !bool(v)
	default:
		return false
	}
}

// Equal implements Horst's structural/identity equality split: numbers,
// strings, booleans and nil compare structurally; classes, instances,
// functions, closures, and bound methods compare by identity (Go
// pointer/interface identity, which for these types already coincides
// with heap-object identity).
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case NilType:
		_, ok := b.(NilType)
		return ok
	case Boolean:
		bb, ok := b.(Boolean)
		return ok && a == bb
	case Number:
		bb, ok := b.(Number)
		return ok && a == bb
	case String:
		bb, ok := b.(String)
		return ok && a == bb
	default:
		return a == b
	}
}
