package machine

import (
	"context"
	"fmt"
	"io"
	"math"

	"golang.org/x/exp/slices"

	"github.com/horst-lang/horst/lang/compiler"
	"github.com/horst-lang/horst/lang/module"
)

// maxCallDepth bounds recursion so a runaway program fails with a runtime
// error instead of exhausting the host stack.
const maxCallDepth = 1024

// methodHolder is implemented by every value that resolves property access
// through native Go methods instead of a Class's method table: Array, its
// iterator, and MapValue.
type methodHolder interface {
	Method(name string) (Value, bool)
}

// Thread is one Horst VM instance: its value stack, call-frame stack,
// open-upvalue list, GC heap, and module table. A Thread is single-use per
// top-level Run and is not safe for concurrent use.
type Thread struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	// ForceGCEveryInstruction runs a full mark-sweep collection before every
	// instruction instead of on the doubling-threshold heuristic. It exists
	// so a test can assert GC safety: the same program must produce
	// identical output whether or not this is set.
	ForceGCEveryInstruction bool

	heap   *Heap
	loader *module.Loader

	stack  []Value
	frames []*frame

	openUpvalues []*Upvalue // sorted by decreasing StackIndex; never two at the same slot

	modules      map[string]*Module
	loading      map[string]bool
	lastImported *Module
}

// NewThread returns a Thread rooted at loader for module resolution. The
// top-level module, and its globals populated from the injected natives
// symbol table, are created by RunProgram.
func NewThread(loader *module.Loader, stdout, stderr io.Writer, stdin io.Reader) *Thread {
	t := &Thread{
		Stdout:  stdout,
		Stderr:  stderr,
		Stdin:   stdin,
		heap:    NewHeap(),
		loader:  loader,
		modules: make(map[string]*Module),
		loading: make(map[string]bool),
	}
	return t
}

// RunProgram runs a freshly compiled top-level program to completion as
// the unnamed script module.
func (t *Thread) RunProgram(ctx context.Context, prog *compiler.Program) error {
	mod := NewModule("")
	t.modules[""] = mod
	registerNatives(t, mod)

	fn := &Function{Proto: prog.Toplevel, Module: mod}
	t.push(fn)
	if err := t.call(fn, 0); err != nil {
		return err
	}
	return t.runUntil(ctx, 0)
}

// --- stack helpers -------------------------------------------------------

func (t *Thread) push(v Value) { t.stack = append(t.stack, v) }

func (t *Thread) pop() Value {
	v := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return v
}

func (t *Thread) peek(back int) Value { return t.stack[len(t.stack)-1-back] }

// curFrame returns the currently executing frame, the one at the top of
// the call-frame stack.
func (t *Thread) curFrame() *frame { return t.frames[len(t.frames)-1] }

func (t *Thread) name(fr *frame, constIdx int) string {
	return fr.proto.Chunk.Constants[constIdx].(string)
}

func (t *Thread) constantValue(fr *frame, constIdx int) Value {
	switch v := fr.proto.Chunk.Constants[constIdx].(type) {
	case float64:
		return Number(v)
	case string:
		return String(v)
	default:
		panic(fmt.Sprintf("machine: unexpected constant pool entry %T", v))
	}
}

// --- fetch/execute loop ---------------------------------------------------

// runUntil executes instructions until the call-frame stack's depth drops
// to floor or below — floor is 0 for a top-level run, or the pre-call
// depth for a nested invocation driven from within an opcode handler (see
// invokeToString).
func (t *Thread) runUntil(ctx context.Context, floor int) error {
	for len(t.frames) > floor {
		select {
		case <-ctx.Done():
			return t.runtimeError("interrupted")
		default:
		}

		if t.ForceGCEveryInstruction || t.heap.NeedsCollection() {
			t.collectGarbage()
		}

		fr := t.curFrame()
		if fr.ip >= len(fr.proto.Chunk.Code) {
			return t.runtimeError("fell off the end of a chunk")
		}
		instr := fr.proto.Chunk.Code[fr.ip]
		fr.ip++

		if err := t.dispatch(ctx, fr, instr); err != nil {
			return err
		}
	}
	return nil
}

//nolint:gocyclo
func (t *Thread) dispatch(ctx context.Context, fr *frame, instr compiler.Instruction) error {
	switch instr.Op {
	case compiler.OpConstant:
		t.push(t.constantValue(fr, instr.A))
	case compiler.OpNil:
		t.push(Nil)
	case compiler.OpTrue:
		t.push(Boolean(true))
	case compiler.OpFalse:
		t.push(Boolean(false))
	case compiler.OpPop:
		t.pop()
	case compiler.OpDup:
		t.push(t.peek(0))

	case compiler.OpGetGlobal:
		name := t.name(fr, instr.A)
		v, ok := fr.module.Globals.Get(name)
		if !ok {
			return t.runtimeError(fmt.Sprintf("undefined variable '%s'", name))
		}
		t.push(v)
	case compiler.OpDefineGlobal:
		fr.module.Globals.Put(t.name(fr, instr.A), t.pop())
	case compiler.OpSetGlobal:
		name := t.name(fr, instr.A)
		if _, ok := fr.module.Globals.Get(name); !ok {
			return t.runtimeError(fmt.Sprintf("undefined variable '%s'", name))
		}
		fr.module.Globals.Put(name, t.peek(0))

	case compiler.OpGetLocal:
		t.push(t.stack[fr.base+instr.A])
	case compiler.OpSetLocal:
		t.stack[fr.base+instr.A] = t.peek(0)
	case compiler.OpGetUpvalue:
		t.push(fr.upvalues[instr.A].Get(t.stack))
	case compiler.OpSetUpvalue:
		fr.upvalues[instr.A].Set(t.stack, t.peek(0))

	case compiler.OpGetProperty:
		return t.getProperty(t.name(fr, instr.A))
	case compiler.OpSetProperty:
		return t.setProperty(t.name(fr, instr.A))
	case compiler.OpGetSuper:
		return t.getSuper(t.name(fr, instr.A))

	case compiler.OpEqual:
		b, a := t.pop(), t.pop()
		t.push(Boolean(Equal(a, b)))
	case compiler.OpGreater, compiler.OpLess:
		return t.compare(instr.Op)
	case compiler.OpAdd:
		return t.add()
	case compiler.OpSubtract, compiler.OpMultiply, compiler.OpDivide, compiler.OpModulo:
		return t.arith(instr.Op)
	case compiler.OpNot:
		t.push(Boolean(IsFalsey(t.pop())))
	case compiler.OpNegate:
		n, ok := t.peek(0).(Number)
		if !ok {
			return t.runtimeError(fmt.Sprintf("operand must be a number, got %s", t.peek(0).Type()))
		}
		t.pop()
		t.push(-n)

	case compiler.OpPrint:
		return t.print(ctx)

	case compiler.OpJump:
		fr.ip += instr.A
	case compiler.OpJumpIfFalse:
		if IsFalsey(t.peek(0)) {
			fr.ip += instr.A
		}
	case compiler.OpLoop:
		fr.ip -= instr.A

	case compiler.OpCall:
		return t.call(t.peek(instr.A), instr.A)
	case compiler.OpInvoke:
		return t.invoke(t.name(fr, instr.A), instr.B)
	case compiler.OpSuperInvoke:
		return t.superInvoke(t.name(fr, instr.A), instr.B)

	case compiler.OpClosure:
		t.closure(fr, instr.A)
	case compiler.OpCloseUpvalue:
		t.closeUpvalues(len(t.stack) - 1)
		t.pop()
	case compiler.OpReturn:
		t.doReturn()

	case compiler.OpClass:
		t.push(NewClass(t.heap, t.name(fr, instr.A)))
	case compiler.OpInherit:
		return t.inherit()
	case compiler.OpMethod:
		return t.method(t.name(fr, instr.A))

	case compiler.OpImportModule:
		return t.importModule(ctx, fr, t.name(fr, instr.A))
	case compiler.OpImportVariable:
		return t.importVariable(t.name(fr, instr.A))

	default:
		return t.runtimeError(fmt.Sprintf("unimplemented opcode %s", instr.Op))
	}
	return nil
}

// --- arithmetic and comparison --------------------------------------------

func (t *Thread) add() error {
	b, a := t.pop(), t.pop()
	if an, ok := a.(Number); ok {
		if bn, ok := b.(Number); ok {
			t.push(an + bn)
			return nil
		}
	}
	if _, ok := a.(String); ok {
		t.push(String(a.String() + b.String()))
		return nil
	}
	if _, ok := b.(String); ok {
		t.push(String(a.String() + b.String()))
		return nil
	}
	return t.runtimeError("operands must be two numbers or at least one string")
}

func (t *Thread) arith(op compiler.OpCode) error {
	b, ok1 := t.peek(0).(Number)
	a, ok2 := t.peek(1).(Number)
	if !ok1 || !ok2 {
		return t.runtimeError(fmt.Sprintf("operands must be numbers, got %s and %s", t.peek(1).Type(), t.peek(0).Type()))
	}
	t.pop()
	t.pop()
	switch op {
	case compiler.OpSubtract:
		t.push(a - b)
	case compiler.OpMultiply:
		t.push(a * b)
	case compiler.OpDivide:
		if b == 0 {
			return t.runtimeError("division by zero")
		}
		t.push(a / b)
	case compiler.OpModulo:
		if b == 0 {
			return t.runtimeError("division by zero")
		}
		t.push(Number(math.Mod(float64(a), float64(b))))
	}
	return nil
}

func (t *Thread) compare(op compiler.OpCode) error {
	b, ok1 := t.peek(0).(Number)
	a, ok2 := t.peek(1).(Number)
	if !ok1 || !ok2 {
		return t.runtimeError(fmt.Sprintf("operands must be numbers, got %s and %s", t.peek(1).Type(), t.peek(0).Type()))
	}
	t.pop()
	t.pop()
	switch op {
	case compiler.OpGreater:
		t.push(Boolean(a > b))
	case compiler.OpLess:
		t.push(Boolean(a < b))
	}
	return nil
}

// --- printing --------------------------------------------------------------

// print pops the top of stack and writes it to Stdout. If it is an
// instance whose class defines toString, the VM performs a nested call
// to it instead of printing the instance's default representation.
func (t *Thread) print(ctx context.Context) error {
	v := t.pop()
	if inst, ok := v.(*Instance); ok {
		if _, ok := inst.Class.Method("toString"); ok {
			s, err := t.invokeToString(ctx, inst)
			if err != nil {
				return err
			}
			fmt.Fprintln(t.Stdout, s)
			return nil
		}
	}
	fmt.Fprintln(t.Stdout, v.String())
	return nil
}

func (t *Thread) invokeToString(ctx context.Context, inst *Instance) (string, error) {
	m, ok := inst.Class.Method("toString")
	if !ok {
		return "", fmt.Errorf("no toString method")
	}
	t.push(inst)
	floor := len(t.frames)
	if err := t.call(m, 0); err != nil {
		return "", err
	}
	if len(t.frames) > floor {
		if err := t.runUntil(ctx, floor); err != nil {
			return "", err
		}
	}
	return t.pop().String(), nil
}

// --- calls -----------------------------------------------------------------

// call dispatches a Call n instruction: callee is whatever value sits at
// stack[len(stack)-argc-1].
func (t *Thread) call(callee Value, argc int) error {
	switch c := callee.(type) {
	case *Closure:
		return t.enterFunction(c.Function, c.Upvalues, argc)
	case *Function:
		return t.enterFunction(c, nil, argc)
	case *Class:
		base := len(t.stack) - argc - 1
		inst := NewInstance(t.heap, c)
		t.stack[base] = inst
		if initV, ok := c.Method("init"); ok {
			return t.call(initV, argc)
		}
		if argc != 0 {
			return t.runtimeError(fmt.Sprintf("expected 0 arguments but got %d", argc))
		}
		return nil
	case *BoundMethod:
		base := len(t.stack) - argc - 1
		t.stack[base] = c.Receiver
		return t.call(c.Method, argc)
	case *NativeFunction:
		return t.callNative(c, argc)
	default:
		return t.runtimeError(fmt.Sprintf("can only call functions and classes, got %s", describeCallee(callee)))
	}
}

func describeCallee(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.Type()
}

func (t *Thread) enterFunction(fn *Function, upvalues []*Upvalue, argc int) error {
	if fn.Proto.Arity != argc {
		return t.runtimeError(fmt.Sprintf("%s expected %d arguments but got %d", fn.Name(), fn.Proto.Arity, argc))
	}
	if len(t.frames) >= maxCallDepth {
		return t.runtimeError("stack overflow")
	}
	base := len(t.stack) - argc - 1
	t.frames = append(t.frames, newFrame(fn, upvalues, base))
	return nil
}

func (t *Thread) callNative(n *NativeFunction, argc int) error {
	if n.Arity >= 0 && n.Arity != argc {
		return t.runtimeError(fmt.Sprintf("%s expected %d arguments but got %d", n.NameStr, n.Arity, argc))
	}
	base := len(t.stack) - argc - 1
	args := append([]Value(nil), t.stack[base+1:]...)
	result, err := n.Fn(t, args)
	if err != nil {
		return t.runtimeError(err.Error())
	}
	t.stack = t.stack[:base]
	t.push(result)
	return nil
}

// doReturn implements the Return opcode: pop the return value, close
// every upvalue at or above the frame's base, pop the frame, and either
// stop (frame stack now empty) or truncate the stack to base and push
// the return value back.
func (t *Thread) doReturn() {
	value := t.pop()
	fr := t.curFrame()
	t.closeUpvalues(fr.base)
	t.frames = t.frames[:len(t.frames)-1]
	if len(t.frames) == 0 {
		return
	}
	t.stack = t.stack[:fr.base]
	t.push(value)
}

// --- properties --------------------------------------------------------

func (t *Thread) getProperty(name string) error {
	receiver := t.pop()
	switch r := receiver.(type) {
	case *Instance:
		if v, ok := r.Fields.Get(name); ok {
			t.push(v)
			return nil
		}
		m, ok := r.Class.Method(name)
		if !ok {
			return t.runtimeError(fmt.Sprintf("undefined property '%s'", name))
		}
		callable, ok := m.(Callable)
		if !ok {
			return t.runtimeError(fmt.Sprintf("method '%s' is not callable", name))
		}
		t.push(NewBoundMethod(t.heap, r, callable))
		return nil
	case methodHolder:
		m, ok := r.Method(name)
		if !ok {
			return t.runtimeError(fmt.Sprintf("undefined property '%s'", name))
		}
		t.push(m)
		return nil
	default:
		return t.runtimeError(fmt.Sprintf("only instances have properties, got %s", receiver.Type()))
	}
}

func (t *Thread) setProperty(name string) error {
	value := t.pop()
	receiver := t.pop()
	inst, ok := receiver.(*Instance)
	if !ok {
		return t.runtimeError(fmt.Sprintf("only instances have fields, got %s", receiver.Type()))
	}
	inst.Fields.Put(name, value)
	t.push(value)
	return nil
}

func (t *Thread) getSuper(name string) error {
	super, ok := t.pop().(*Class)
	if !ok {
		return t.runtimeError("'super' used outside a class hierarchy")
	}
	receiver := t.pop()
	m, ok := super.Method(name)
	if !ok {
		return t.runtimeError(fmt.Sprintf("undefined property '%s'", name))
	}
	callable, ok := m.(Callable)
	if !ok {
		return t.runtimeError(fmt.Sprintf("method '%s' is not callable", name))
	}
	t.push(NewBoundMethod(t.heap, receiver, callable))
	return nil
}

// invoke implements the fused GetProperty+Call variant (OpInvoke): it
// avoids allocating a BoundMethod when the callee is a method found on an
// Instance's class.
func (t *Thread) invoke(name string, argc int) error {
	receiverIdx := len(t.stack) - argc - 1
	receiver := t.stack[receiverIdx]
	switch r := receiver.(type) {
	case *Instance:
		if v, ok := r.Fields.Get(name); ok {
			t.stack[receiverIdx] = v
			return t.call(v, argc)
		}
		m, ok := r.Class.Method(name)
		if !ok {
			return t.runtimeError(fmt.Sprintf("undefined property '%s'", name))
		}
		return t.call(m, argc)
	case methodHolder:
		m, ok := r.Method(name)
		if !ok {
			return t.runtimeError(fmt.Sprintf("undefined property '%s'", name))
		}
		return t.call(m, argc)
	default:
		return t.runtimeError(fmt.Sprintf("only instances have properties, got %s", receiver.Type()))
	}
}

func (t *Thread) superInvoke(name string, argc int) error {
	super, ok := t.pop().(*Class)
	if !ok {
		return t.runtimeError("'super' used outside a class hierarchy")
	}
	m, ok := super.Method(name)
	if !ok {
		return t.runtimeError(fmt.Sprintf("undefined property '%s'", name))
	}
	return t.call(m, argc)
}

// --- closures and upvalues -----------------------------------------------

func (t *Thread) closure(fr *frame, constIdx int) {
	proto := fr.proto.Chunk.Constants[constIdx].(*compiler.FunctionProto)
	fn := &Function{Proto: proto, Module: fr.module}

	upvalues := make([]*Upvalue, len(proto.Upvalues))
	for i, d := range proto.Upvalues {
		if d.IsLocal {
			upvalues[i] = t.captureUpvalue(fr.base + d.Index)
		} else {
			upvalues[i] = fr.upvalues[d.Index]
		}
	}
	t.push(NewClosure(t.heap, fn, upvalues))
}

// captureUpvalue returns the existing open upvalue for stackIndex if one is
// already registered, else allocates and registers a new one, keeping
// openUpvalues sorted by decreasing StackIndex.
func (t *Thread) captureUpvalue(stackIndex int) *Upvalue {
	pos := slices.IndexFunc(t.openUpvalues, func(uv *Upvalue) bool { return uv.StackIndex <= stackIndex })
	if pos == -1 {
		pos = len(t.openUpvalues)
	} else if t.openUpvalues[pos].StackIndex == stackIndex {
		return t.openUpvalues[pos]
	}
	uv := newOpenUpvalue(stackIndex)
	t.openUpvalues = slices.Insert(t.openUpvalues, pos, uv)
	return uv
}

// closeUpvalues closes every open upvalue whose stack index is at or above
// threshold, the slice's sorted-by-decreasing-index prefix.
func (t *Thread) closeUpvalues(threshold int) {
	i := 0
	for i < len(t.openUpvalues) && t.openUpvalues[i].StackIndex >= threshold {
		t.openUpvalues[i].Close(t.stack)
		i++
	}
	t.openUpvalues = t.openUpvalues[i:]
}

// --- classes ---------------------------------------------------------------

func (t *Thread) inherit() error {
	sub, ok := t.peek(0).(*Class)
	if !ok {
		return t.runtimeError("can only inherit from a class")
	}
	super, ok := t.peek(1).(*Class)
	if !ok {
		return t.runtimeError("superclass must be a class")
	}
	super.Methods.Iter(func(name string, v Value) bool {
		sub.Methods.Put(name, v)
		return false
	})
	return nil
}

func (t *Thread) method(name string) error {
	fnVal := t.pop()
	class, ok := t.peek(0).(*Class)
	if !ok {
		return t.runtimeError("method declared outside a class")
	}
	class.Methods.Put(name, fnVal)
	return nil
}

// --- garbage collection ----------------------------------------------------

// collectGarbage runs one mark-sweep cycle over every GC root: the value
// stack, the globals of every live module, every open upvalue, and the
// currently executing frame stack's captured upvalues.
func (t *Thread) collectGarbage() {
	t.heap.Collect(func(mark func(Value)) {
		for _, v := range t.stack {
			mark(v)
		}
		for _, mod := range t.modules {
			mod.Globals.Iter(func(_ string, v Value) bool {
				mark(v)
				return false
			})
		}
		for _, uv := range t.openUpvalues {
			if uv.Closed {
				mark(uv.value)
			}
		}
		for _, fr := range t.frames {
			for _, uv := range fr.upvalues {
				if uv != nil && uv.Closed {
					mark(uv.value)
				}
			}
		}
	})
}

// --- modules -----------------------------------------------------------

// importModule implements ImportModule name: resolve name against the
// importing module's canonical key, run it to completion on an isolated
// frame-and-stack pair if not already cached, and remember it as the last
// imported module for a following ImportVariable.
func (t *Thread) importModule(ctx context.Context, fr *frame, spec string) error {
	key := module.Resolve(fr.module.Name, spec)
	if t.loading[key] {
		return t.runtimeError(fmt.Sprintf("circular import of module %q", key))
	}
	if mod, ok := t.modules[key]; ok {
		t.lastImported = mod
		return nil
	}

	src, err := t.loader.Read(key)
	if err != nil {
		return t.runtimeError(err.Error())
	}
	prog, err := compiler.Compile(key, src)
	if err != nil {
		return t.runtimeError(fmt.Sprintf("module %q failed to compile: %s", key, err))
	}

	t.loading[key] = true
	mod := NewModule(key)
	t.modules[key] = mod

	fn := &Function{Proto: prog.Toplevel, Module: mod}

	savedStack := t.stack
	savedFrames := t.frames
	t.stack = nil
	t.frames = nil

	t.push(fn)
	runErr := t.call(fn, 0)
	if runErr == nil {
		runErr = t.runUntil(ctx, 0)
	}

	t.stack = savedStack
	t.frames = savedFrames
	delete(t.loading, key)

	if runErr != nil {
		return runErr
	}
	t.lastImported = mod
	return nil
}

// importVariable implements ImportVariable name: push the value of name
// from the last imported module's globals onto the stack. The compiler then
// emits the ordinary DefineGlobal/local-define sequence to bind it,
// following the normal scoping rule for the enclosing let.
func (t *Thread) importVariable(name string) error {
	if t.lastImported == nil {
		return t.runtimeError("import clause used without a preceding module import")
	}
	v, ok := t.lastImported.Globals.Get(name)
	if !ok {
		return t.runtimeError(fmt.Sprintf("module %q has no exported name '%s'", t.lastImported.Name, name))
	}
	t.push(v)
	return nil
}

// --- errors --------------------------------------------------------------

func (t *Thread) runtimeError(msg string) *EvalError {
	trace := make([]traceEntry, 0, len(t.frames))
	for i := len(t.frames) - 1; i >= 0; i-- {
		fr := t.frames[i]
		trace = append(trace, traceEntry{Function: fr.name, Module: fr.module.Name, Line: fr.line()})
	}
	return &EvalError{Message: msg, Trace: trace}
}
