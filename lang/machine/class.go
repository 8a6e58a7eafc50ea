package machine

import (
	"fmt"

	"github.com/dolthub/swiss"
)

// Class is a heap-allocated Horst class: a name and a method table. Single
// inheritance is implemented by copying every superclass method into the
// subclass's table at class-creation time (OpInherit).
//
// handle identifies this object's slot in the owning Heap; it exists for GC
// bookkeeping (mark-sweep, free-list reuse) and handle-identity equality.
// Everywhere else in the VM a *Class is used directly, the way any Go
// pointer is — Go's memory safety makes a second indirection through a
// handle table unnecessary for access, only for collection accounting.
type Class struct {
	handle  Handle
	Name    string
	Methods *swiss.Map[string, Value]
}

var (
	_ Value      = (*Class)(nil)
	_ heapObject = (*Class)(nil)
)

// NewClass allocates a new empty class named name in the heap.
func NewClass(heap *Heap, name string) *Class {
	c := &Class{Name: name, Methods: swiss.NewMap[string, Value](uint32(4))}
	c.handle = heap.track(c, 48)
	return c
}

func (c *Class) String() string { return fmt.Sprintf("<class %s>", c.Name) }
func (c *Class) Type() string   { return "class" }

// Method looks up a method by name, returning (nil, false) if absent.
func (c *Class) Method(name string) (Value, bool) { return c.Methods.Get(name) }

func (c *Class) heapHandle() Handle { return c.handle }

func (c *Class) trace(mark func(Value)) {
	c.Methods.Iter(func(_ string, v Value) bool {
		mark(v)
		return false
	})
}

// Instance is a heap-allocated instance of a Class: a class handle and a
// field table.
type Instance struct {
	handle Handle
	Class  *Class
	Fields *swiss.Map[string, Value]
}

var (
	_ Value      = (*Instance)(nil)
	_ heapObject = (*Instance)(nil)
)

// NewInstance allocates a new, field-less instance of class in the heap.
func NewInstance(heap *Heap, class *Class) *Instance {
	i := &Instance{Class: class, Fields: swiss.NewMap[string, Value](uint32(4))}
	i.handle = heap.track(i, 48)
	return i
}

func (i *Instance) String() string { return fmt.Sprintf("<%s instance>", i.Class.Name) }
func (i *Instance) Type() string   { return "instance" }

func (i *Instance) heapHandle() Handle { return i.handle }

func (i *Instance) trace(mark func(Value)) {
	mark(i.Class)
	i.Fields.Iter(func(_ string, v Value) bool {
		mark(v)
		return false
	})
}

// BoundMethod pairs a receiver with a method value (a Closure or Function),
// produced by GetProperty when the accessed name resolves to a method
// rather than a field.
type BoundMethod struct {
	handle   Handle
	Receiver Value
	Method   Callable
}

var (
	_ Value      = (*BoundMethod)(nil)
	_ Callable   = (*BoundMethod)(nil)
	_ heapObject = (*BoundMethod)(nil)
)

// NewBoundMethod allocates a new bound method in the heap.
func NewBoundMethod(heap *Heap, receiver Value, method Callable) *BoundMethod {
	b := &BoundMethod{Receiver: receiver, Method: method}
	b.handle = heap.track(b, 24)
	return b
}

func (b *BoundMethod) String() string { return fmt.Sprintf("<bound method %s>", b.Method.Name()) }
func (b *BoundMethod) Type() string   { return "bound method" }
func (b *BoundMethod) Name() string   { return b.Method.Name() }

func (b *BoundMethod) heapHandle() Handle { return b.handle }

func (b *BoundMethod) trace(mark func(Value)) {
	mark(b.Receiver)
	if v, ok := b.Method.(Value); ok {
		mark(v)
	}
}
