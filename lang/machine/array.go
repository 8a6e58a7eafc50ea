package machine

import "fmt"

// Array is the injected builtin backing Horst's `[e, e, ...]` literal and
// the `obj[i]` / `obj[i] = v` indexing sugar, which the compiler lowers to
// `get`/`set` invocations (lang/compiler/compiler.go's index method) — the
// same convention Map implements, so both types are usable with `[]`.
//
// It is heap-tracked like any other reference value, but does not
// participate in class-based dispatch: its methods are native functions
// bound to the receiver by Method, not looked up through a Class.
type Array struct {
	handle Handle
	Elems  []Value
}

var (
	_ Value      = (*Array)(nil)
	_ heapObject = (*Array)(nil)
)

// NewArray allocates an array of n Nil elements in the heap.
func NewArray(heap *Heap, n int) *Array {
	a := &Array{Elems: make([]Value, n)}
	for i := range a.Elems {
		a.Elems[i] = Nil
	}
	a.handle = heap.track(a, 16+8*len(a.Elems))
	return a
}

func (a *Array) String() string {
	s := "["
	for i, e := range a.Elems {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + "]"
}
func (a *Array) Type() string { return "array" }

func (a *Array) heapHandle() Handle { return a.handle }

func (a *Array) trace(mark func(Value)) {
	for _, v := range a.Elems {
		mark(v)
	}
}

// Method resolves a native method bound to this array, or (nil, false) if
// name isn't one of the builtin array operations.
func (a *Array) Method(name string) (Value, bool) {
	switch name {
	case "get":
		return &NativeFunction{NameStr: "get", Arity: 1, Fn: func(_ *Thread, args []Value) (Value, error) {
			i, err := indexArg(args[0], len(a.Elems))
			if err != nil {
				return nil, err
			}
			return a.Elems[i], nil
		}}, true
	case "set":
		return &NativeFunction{NameStr: "set", Arity: 2, Fn: func(_ *Thread, args []Value) (Value, error) {
			i, err := indexArg(args[0], len(a.Elems))
			if err != nil {
				return nil, err
			}
			a.Elems[i] = args[1]
			return args[1], nil
		}}, true
	case "length":
		return &NativeFunction{NameStr: "length", Arity: 0, Fn: func(_ *Thread, _ []Value) (Value, error) {
			return Number(len(a.Elems)), nil
		}}, true
	case "push":
		return &NativeFunction{NameStr: "push", Arity: 1, Fn: func(_ *Thread, args []Value) (Value, error) {
			a.Elems = append(a.Elems, args[0])
			return a, nil
		}}, true
	case "iterator":
		return &NativeFunction{NameStr: "iterator", Arity: 0, Fn: func(th *Thread, _ []Value) (Value, error) {
			return newArrayIterator(th.heap, a), nil
		}}, true
	default:
		return nil, false
	}
}

func indexArg(v Value, length int) (int, error) {
	n, ok := v.(Number)
	if !ok {
		return 0, fmt.Errorf("index must be a number, got %s", v.Type())
	}
	i := int(n)
	if i < 0 || i >= length {
		return 0, fmt.Errorf("index %d out of bounds for array of length %d", i, length)
	}
	return i, nil
}

// arrayIterator drives `for (let x in arr)`: it implements the
// iterator()/hasNext()/next() protocol the compiler's for-in desugaring
// invokes.
type arrayIterator struct {
	handle Handle
	arr    *Array
	next   int
}

var (
	_ Value      = (*arrayIterator)(nil)
	_ heapObject = (*arrayIterator)(nil)
)

func newArrayIterator(heap *Heap, a *Array) *arrayIterator {
	it := &arrayIterator{arr: a}
	it.handle = heap.track(it, 24)
	return it
}

func (it *arrayIterator) String() string         { return "<array iterator>" }
func (it *arrayIterator) Type() string           { return "iterator" }
func (it *arrayIterator) heapHandle() Handle     { return it.handle }
func (it *arrayIterator) trace(mark func(Value)) { mark(it.arr) }

func (it *arrayIterator) Method(name string) (Value, bool) {
	switch name {
	case "hasNext":
		return &NativeFunction{NameStr: "hasNext", Arity: 0, Fn: func(_ *Thread, _ []Value) (Value, error) {
			return Boolean(it.next < len(it.arr.Elems)), nil
		}}, true
	case "next":
		return &NativeFunction{NameStr: "next", Arity: 0, Fn: func(_ *Thread, _ []Value) (Value, error) {
			if it.next >= len(it.arr.Elems) {
				return nil, fmt.Errorf("iterator exhausted")
			}
			v := it.arr.Elems[it.next]
			it.next++
			return v, nil
		}}, true
	default:
		return nil, false
	}
}
