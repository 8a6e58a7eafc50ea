package machine

import (
	"fmt"

	"github.com/dolthub/swiss"
)

// MapValue is the injected `Map` builtin: a hash map keyed by any Value,
// exposing the same get/set/length method convention as Array so
// `m[k]`/`m[k] = v` indexing sugar works uniformly across both builtins.
type MapValue struct {
	handle  Handle
	Entries *swiss.Map[Value, Value]
}

var (
	_ Value      = (*MapValue)(nil)
	_ heapObject = (*MapValue)(nil)
)

// NewMapValue allocates an empty map in the heap.
func NewMapValue(heap *Heap) *MapValue {
	m := &MapValue{Entries: swiss.NewMap[Value, Value](uint32(8))}
	m.handle = heap.track(m, 64)
	return m
}

func (m *MapValue) String() string { return fmt.Sprintf("map(%d)", m.Entries.Count()) }
func (m *MapValue) Type() string   { return "map" }

func (m *MapValue) heapHandle() Handle { return m.handle }

func (m *MapValue) trace(mark func(Value)) {
	m.Entries.Iter(func(k Value, v Value) bool {
		mark(k)
		mark(v)
		return false
	})
}

// Method resolves a native method bound to this map, or (nil, false) if
// name isn't one of the builtin map operations.
func (m *MapValue) Method(name string) (Value, bool) {
	switch name {
	case "get":
		return &NativeFunction{NameStr: "get", Arity: 1, Fn: func(_ *Thread, args []Value) (Value, error) {
			v, ok := m.Entries.Get(args[0])
			if !ok {
				return Nil, nil
			}
			return v, nil
		}}, true
	case "set":
		return &NativeFunction{NameStr: "set", Arity: 2, Fn: func(_ *Thread, args []Value) (Value, error) {
			m.Entries.Put(args[0], args[1])
			return args[1], nil
		}}, true
	case "has":
		return &NativeFunction{NameStr: "has", Arity: 1, Fn: func(_ *Thread, args []Value) (Value, error) {
			_, ok := m.Entries.Get(args[0])
			return Boolean(ok), nil
		}}, true
	case "length":
		return &NativeFunction{NameStr: "length", Arity: 0, Fn: func(_ *Thread, _ []Value) (Value, error) {
			return Number(m.Entries.Count()), nil
		}}, true
	default:
		return nil, false
	}
}
