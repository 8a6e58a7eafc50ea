// Package compiler implements Horst's single-pass Pratt compiler: it walks
// a token stream once, emitting bytecode directly with no intermediate AST,
// resolving every name reference to a local slot, an upvalue slot, or a
// global as it goes.
package compiler

import (
	"strconv"

	"golang.org/x/exp/slices"

	"github.com/horst-lang/horst/lang/scanner"
	"github.com/horst-lang/horst/lang/token"
)

// funcType distinguishes the kind of function currently being compiled; it
// governs whether "this"/"super" are legal and what an implicit return
// produces.
type funcType int

const (
	typeFunction funcType = iota
	typeMethod
	typeInitializer
	typeScript
)

// local is one entry of a funcState's locals stack. depth is -1 between
// declaration and initialization (see declareVariable/markInitialized);
// reading a local in that window is a compile error.
type local struct {
	name       string
	depth      int
	isCaptured bool
}

// funcState holds everything specific to the function currently being
// compiled: its locals stack, scope depth, and the prototype being built.
// funcStates are linked through enclosing to mirror the lexical nesting of
// function/method declarations: compiling a nested function pushes a new
// funcState and compiling its body returns to the enclosing one.
type funcState struct {
	enclosing  *funcState
	proto      *FunctionProto
	funcType   funcType
	locals     []local
	scopeDepth int
}

func newFuncState(name string, ft funcType, enclosing *funcState) *funcState {
	fs := &funcState{
		enclosing: enclosing,
		proto:     &FunctionProto{Name: name},
		funcType:  ft,
	}
	// Slot 0 is reserved: "this" for methods/initializers, unnamed (and
	// inaccessible to user code) for plain functions and the top-level script.
	recv := ""
	if ft == typeMethod || ft == typeInitializer {
		recv = "this"
	}
	fs.locals = append(fs.locals, local{name: recv, depth: 0})
	return fs
}

// resolveLocal searches this function's locals top-down (innermost scope
// first) for name, returning its slot. A local found with depth == -1 is
// being referenced from within its own initializer, which is an error the
// caller reports.
func (fs *funcState) resolveLocal(name string) (slot int, uninitialized, ok bool) {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			return i, fs.locals[i].depth == -1, true
		}
	}
	return 0, false, false
}

// resolveUpvalue walks enclosing function states outward looking for name
// as a local or an already-captured upvalue, wiring up an UpvalueDesc chain
// at every intermediate level as described in resolution order.
func (fs *funcState) resolveUpvalue(name string) (int, bool) {
	if fs.enclosing == nil {
		return 0, false
	}
	if slot, _, ok := fs.enclosing.resolveLocal(name); ok {
		fs.enclosing.locals[slot].isCaptured = true
		return fs.addUpvalue(slot, true), true
	}
	if idx, ok := fs.enclosing.resolveUpvalue(name); ok {
		return fs.addUpvalue(idx, false), true
	}
	return 0, false
}

// addUpvalue deduplicates on (index, isLocal): two references to the same
// enclosing local within one function always resolve to the same upvalue
// slot.
func (fs *funcState) addUpvalue(index int, isLocal bool) int {
	if i := slices.IndexFunc(fs.proto.Upvalues, func(uv UpvalueDesc) bool {
		return uv.Index == index && uv.IsLocal == isLocal
	}); i != -1 {
		return i
	}
	fs.proto.Upvalues = append(fs.proto.Upvalues, UpvalueDesc{Index: index, IsLocal: isLocal})
	return len(fs.proto.Upvalues) - 1
}

// isLocalDeclaredInScope reports whether name is already declared in the
// current (innermost) scope, used to reject shadowing redeclaration within
// the same block.
func (fs *funcState) isLocalDeclaredInScope(name string) bool {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		l := fs.locals[i]
		if l.depth != -1 && l.depth < fs.scopeDepth {
			break
		}
		if l.name == name {
			return true
		}
	}
	return false
}

// classState tracks whether the class body currently being compiled has a
// superclass, which governs whether "super" is a legal expression.
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// parser drives the scanner and funcState/classState stacks to produce a
// compiled Program. It is used once per compilation; create a fresh parser
// (via Compile) for each source file or module.
type parser struct {
	sc *scanner.Scanner

	cur, prev scanner.Token

	fs *funcState
	cs *classState

	hadError  bool
	panicMode bool
	errs      ErrorList
}

// Compile compiles one source file into a Program. name is handed to the
// scanner; it does not appear in compile errors, and the toplevel function
// is always named "script". If any
// compile-time error was reported, Compile returns a nil Program and a
// non-nil error of dynamic type ErrorList.
func Compile(name string, src []byte) (*Program, error) {
	p := &parser{sc: scanner.New(name, src)}
	p.fs = newFuncState("script", typeScript, nil)

	p.advance()
	for !p.check(token.EOF) {
		p.declaration()
	}
	p.emitReturn()

	if p.hadError {
		return nil, p.errs
	}
	return &Program{Toplevel: p.fs.proto}, nil
}

// --- token stream -----------------------------------------------------

func (p *parser) advance() {
	p.prev = p.cur
	for {
		p.cur = p.sc.Scan()
		if p.cur.Kind != token.ILLEGAL {
			break
		}
		p.errorAtCurrent(p.cur.Lexeme)
	}
}

func (p *parser) check(k token.Kind) bool { return p.cur.Kind == k }

func (p *parser) match(k token.Kind) bool {
	if !p.check(k) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(k token.Kind, msg string) {
	if p.cur.Kind == k {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

func (p *parser) errorAtCurrent(msg string) { p.errorAt(p.cur, msg) }
func (p *parser) error(msg string)          { p.errorAt(p.prev, msg) }

func (p *parser) errorAt(tok scanner.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true
	lexeme := tok.Lexeme
	if tok.Kind == token.EOF {
		lexeme = ""
	}
	p.errs = append(p.errs, &CompileError{Line: tok.Pos.Line(), Lexeme: lexeme, Msg: msg})
}

// synchronize skips tokens until a statement boundary, so compilation can
// keep surfacing further errors instead of stopping at the first one.
func (p *parser) synchronize() {
	p.panicMode = false
	for p.prev.Kind != token.EOF {
		if p.prev.Kind == token.SEMI {
			return
		}
		switch p.cur.Kind {
		case token.CLASS, token.FN, token.LET, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

// --- emission helpers ---------------------------------------------------

func (p *parser) emit(instr Instruction) int {
	return p.fs.proto.Chunk.Write(instr, p.prev.Pos.Line())
}

func (p *parser) emitOp(op OpCode) int { return p.emit(Instruction{Op: op}) }

func (p *parser) emitAB(op OpCode, a, b int) int { return p.emit(Instruction{Op: op, A: a, B: b}) }
func (p *parser) emitA(op OpCode, a int) int     { return p.emit(Instruction{Op: op, A: a}) }

func (p *parser) emitReturn() {
	if p.fs.funcType == typeInitializer {
		p.emitA(OpGetLocal, 0)
	} else {
		p.emitOp(OpNil)
	}
	p.emitOp(OpReturn)
}

func (p *parser) makeConstant(v any) int { return p.fs.proto.Chunk.AddConstant(v) }

func (p *parser) emitConstant(v any) { p.emitA(OpConstant, p.makeConstant(v)) }

func (p *parser) identifierConstant(name string) int { return p.makeConstant(name) }

func (p *parser) startLoop() int { return len(p.fs.proto.Chunk.Code) }

func (p *parser) emitLoop(start int) {
	offset := p.startLoop() - start + 1
	p.emitA(OpLoop, offset)
}

// patchJump backfills the placeholder operand of a forward jump emitted at
// pos with the distance from there to the current code position.
func (p *parser) patchJump(pos int) {
	offset := p.startLoop() - pos - 1
	p.fs.proto.Chunk.Code[pos].A = offset
}

// --- scopes and variables ----------------------------------------------

func (p *parser) beginScope() { p.fs.scopeDepth++ }

func (p *parser) endScope() {
	p.fs.scopeDepth--
	for len(p.fs.locals) > 0 && p.fs.locals[len(p.fs.locals)-1].depth > p.fs.scopeDepth {
		if p.fs.locals[len(p.fs.locals)-1].isCaptured {
			p.emitOp(OpCloseUpvalue)
		} else {
			p.emitOp(OpPop)
		}
		p.fs.locals = p.fs.locals[:len(p.fs.locals)-1]
	}
}

func (p *parser) addLocal(name string) {
	p.fs.locals = append(p.fs.locals, local{name: name, depth: -1})
}

func (p *parser) declareVariable() {
	if p.fs.scopeDepth == 0 {
		return
	}
	name := p.prev.Lexeme
	if p.fs.isLocalDeclaredInScope(name) {
		p.error("variable with this name already declared in this scope")
	}
	p.addLocal(name)
}

// parseVariable consumes an identifier, declares it as a local if inside a
// scope, and returns the constant-pool index to use for a subsequent
// DefineGlobal (meaningless, by convention 0, for locals).
func (p *parser) parseVariable(msg string) int {
	p.consume(token.IDENT, msg)
	name := p.prev.Lexeme
	p.declareVariable()
	if p.fs.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(name)
}

func (p *parser) markInitialized() {
	if p.fs.scopeDepth == 0 {
		return
	}
	p.fs.locals[len(p.fs.locals)-1].depth = p.fs.scopeDepth
}

func (p *parser) defineVariable(global int) {
	if p.fs.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitA(OpDefineGlobal, global)
}

func (p *parser) namedVariable(name string, canAssign bool) {
	var getOp, setOp OpCode
	var slot int
	if s, uninit, ok := p.fs.resolveLocal(name); ok {
		if uninit {
			p.error("cannot read local variable in its own initializer")
		}
		getOp, setOp, slot = OpGetLocal, OpSetLocal, s
	} else if s, ok := p.fs.resolveUpvalue(name); ok {
		getOp, setOp, slot = OpGetUpvalue, OpSetUpvalue, s
	} else {
		slot = p.identifierConstant(name)
		getOp, setOp = OpGetGlobal, OpSetGlobal
	}

	if canAssign && p.match(token.EQ) {
		p.expression()
		p.emitA(setOp, slot)
	} else {
		p.emitA(getOp, slot)
	}
}

// --- declarations and statements ---------------------------------------

func (p *parser) declaration() {
	switch {
	case p.match(token.CLASS):
		p.classDeclaration()
	case p.match(token.FN):
		p.funDeclaration()
	case p.match(token.LET):
		p.varDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

func (p *parser) classDeclaration() {
	p.consume(token.IDENT, "expect class name")
	className := p.prev.Lexeme
	nameConst := p.identifierConstant(className)
	p.declareVariable()
	p.emitA(OpClass, nameConst)
	p.defineVariable(nameConst)

	p.cs = &classState{enclosing: p.cs}

	if p.match(token.LT) {
		p.consume(token.IDENT, "expect superclass name")
		superName := p.prev.Lexeme
		p.namedVariable(superName, false)
		if superName == className {
			p.error("a class can't inherit from itself")
		}
		p.beginScope()
		p.addLocal("super")
		p.defineVariable(0)
		p.namedVariable(className, false)
		p.emitOp(OpInherit)
		p.cs.hasSuperclass = true
	}

	p.namedVariable(className, false)
	p.consume(token.LBRACE, "expect '{' before class body")
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.method()
	}
	p.consume(token.RBRACE, "expect '}' after class body")
	p.emitOp(OpPop)

	if p.cs.hasSuperclass {
		p.endScope()
	}
	p.cs = p.cs.enclosing
}

func (p *parser) method() {
	p.consume(token.IDENT, "expect method name")
	nameConst := p.identifierConstant(p.prev.Lexeme)
	ft := typeMethod
	if p.prev.Lexeme == "init" {
		ft = typeInitializer
	}
	p.function(ft)
	p.emitA(OpMethod, nameConst)
}

func (p *parser) funDeclaration() {
	global := p.parseVariable("expect function name")
	p.markInitialized()
	p.function(typeFunction)
	p.defineVariable(global)
}

func (p *parser) function(ft funcType) {
	name := p.prev.Lexeme
	p.fs = newFuncState(name, ft, p.fs)

	p.beginScope()
	p.consume(token.LPAREN, "expect '(' after function name")
	if !p.check(token.RPAREN) {
		for {
			p.fs.proto.Arity++
			paramConst := p.parseVariable("expect parameter name")
			p.defineVariable(paramConst)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "expect ')' after parameters")
	p.consume(token.LBRACE, "expect '{' before function body")
	p.block()

	p.emitReturn()
	proto := p.fs.proto
	p.fs = p.fs.enclosing

	idx := p.makeConstant(proto)
	p.emitA(OpClosure, idx)
}

func (p *parser) varDeclaration() {
	global := p.parseVariable("expect variable name")
	if p.match(token.EQ) {
		p.expression()
	} else {
		p.emitOp(OpNil)
	}
	p.consume(token.SEMI, "expect ';' after variable declaration")
	p.defineVariable(global)
}

func (p *parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.IMPORT):
		p.importStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.DO):
		p.doWhileStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.FOR):
		p.forStatement()
	case p.match(token.LBRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *parser) block() {
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RBRACE, "expect '}' after block")
}

func (p *parser) printStatement() {
	p.expression()
	p.consume(token.SEMI, "expect ';' after value")
	p.emitOp(OpPrint)
}

func (p *parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMI, "expect ';' after expression")
	p.emitOp(OpPop)
}

func (p *parser) returnStatement() {
	if p.fs.funcType == typeScript {
		p.error("can't return from top-level code")
	}
	if p.match(token.SEMI) {
		p.emitReturn()
		return
	}
	if p.fs.funcType == typeInitializer {
		p.error("can't return a value from an initializer")
	}
	p.expression()
	p.consume(token.SEMI, "expect ';' after return value")
	p.emitOp(OpReturn)
}

func (p *parser) ifStatement() {
	p.consume(token.LPAREN, "expect '(' after 'if'")
	p.expression()
	p.consume(token.RPAREN, "expect ')' after condition")

	thenJump := p.emitA(OpJumpIfFalse, 0)
	p.emitOp(OpPop)
	p.statement()
	elseJump := p.emitA(OpJump, 0)

	p.patchJump(thenJump)
	p.emitOp(OpPop)

	if p.match(token.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *parser) whileStatement() {
	loopStart := p.startLoop()
	p.consume(token.LPAREN, "expect '(' after 'while'")
	p.expression()
	p.consume(token.RPAREN, "expect ')' after condition")

	exitJump := p.emitA(OpJumpIfFalse, 0)
	p.emitOp(OpPop)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(OpPop)
}

func (p *parser) doWhileStatement() {
	loopStart := p.startLoop()
	p.statement()

	p.consume(token.WHILE, "expect 'while' in 'do while'")
	p.consume(token.LPAREN, "expect '(' after 'while'")
	p.expression()
	p.consume(token.RPAREN, "expect ')' after condition")
	p.consume(token.SEMI, "expect ';' after 'do while' condition")

	exitJump := p.emitA(OpJumpIfFalse, 2)
	p.emitOp(OpPop)
	p.emitLoop(loopStart)
	p.patchJump(exitJump)
	p.emitOp(OpPop)
}

func (p *parser) forStatement() {
	p.beginScope()
	p.consume(token.LPAREN, "expect '(' after 'for'")

	switch {
	case p.match(token.SEMI):
		// no initializer
	case p.match(token.LET):
		p.consume(token.IDENT, "expect variable name")
		if p.check(token.IN) {
			p.forInStatement()
			p.endScope()
			return
		}
		name := p.prev.Lexeme
		p.declareVariable()
		idx := p.identifierConstant(name)
		if p.match(token.EQ) {
			p.expression()
		} else {
			p.emitOp(OpNil)
		}
		p.consume(token.SEMI, "expect ';' after variable declaration")
		p.defineVariable(idx)
	default:
		p.expressionStatement()
	}

	loopStart := p.startLoop()
	exitJump := -1
	if !p.match(token.SEMI) {
		p.expression()
		p.consume(token.SEMI, "expect ';' after loop condition")
		exitJump = p.emitA(OpJumpIfFalse, 0)
		p.emitOp(OpPop)
	}

	if !p.match(token.RPAREN) {
		bodyJump := p.emitA(OpJump, 0)
		incrementStart := p.startLoop()
		p.expression()
		p.emitOp(OpPop)
		p.consume(token.RPAREN, "expect ')' after for clauses")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(OpPop)
	}
	p.endScope()
}

// forInStatement compiles `for (let x in e) stmt`, desugaring it to a
// hidden $iterator local driven by iterator()/hasNext()/next() invocations
// on the iterand.
func (p *parser) forInStatement() {
	loopVar := p.prev.Lexeme
	p.consume(token.IN, "expect 'in' after loop variable")
	p.expression()
	p.emitAB(OpInvoke, p.identifierConstant("iterator"), 0)
	p.addLocal("$iterator")
	iterSlot := len(p.fs.locals) - 1
	p.defineVariable(iterSlot)
	p.consume(token.RPAREN, "expect ')' after expression")

	loopStart := p.startLoop()
	p.emitA(OpGetLocal, iterSlot)
	p.emitAB(OpInvoke, p.identifierConstant("hasNext"), 0)

	exitJump := p.emitA(OpJumpIfFalse, 0)
	p.emitOp(OpPop)

	p.emitA(OpGetLocal, iterSlot)
	p.emitAB(OpInvoke, p.identifierConstant("next"), 0)
	p.addLocal(loopVar)
	p.defineVariable(len(p.fs.locals) - 1)

	p.statement()

	p.emitOp(OpPop)
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
}

// importStatement compiles `import "module" (for a, b as c)?;`.
// Unqualified clauses bind the imported name under its own name, `as`
// clauses bind it under the alias; either binding follows the normal let
// scoping rule (global at top level, local inside a block or function).
func (p *parser) importStatement() {
	p.consume(token.STRING, "expect a string after 'import'")
	moduleConst := p.makeConstant(p.prev.Literal)
	p.emitA(OpImportModule, moduleConst)

	if !p.match(token.FOR) {
		p.consume(token.SEMI, "expect ';' after module name")
		return
	}

	for {
		p.consume(token.IDENT, "expect variable name")
		nameConst := p.identifierConstant(p.prev.Lexeme)
		slot := nameConst
		if p.match(token.AS) {
			p.consume(token.IDENT, "expect variable name")
			slot = p.identifierConstant(p.prev.Lexeme)
			p.declareVariable()
		} else {
			p.declareVariable()
		}
		p.emitA(OpImportVariable, nameConst)
		p.defineVariable(slot)

		if !p.match(token.COMMA) {
			break
		}
	}
	p.consume(token.SEMI, "expect ';' after import statement")
}

// --- expressions ---------------------------------------------------------

func (p *parser) expression() { p.parsePrecedence(PrecAssignment) }

func (p *parser) parsePrecedence(prec Precedence) {
	p.advance()
	prefix := getRule(p.prev.Kind).prefix
	if prefix == nil {
		p.error("expect expression")
		return
	}

	canAssign := prec <= PrecAssignment
	prefix(p, canAssign)

	for prec <= getRule(p.cur.Kind).precedence {
		p.advance()
		infix := getRule(p.prev.Kind).infix
		infix(p, canAssign)
	}

	if canAssign && p.match(token.EQ) {
		p.error("invalid assignment target")
	}
}

func (p *parser) number(_ bool) {
	v, _ := strconv.ParseFloat(p.prev.Lexeme, 64)
	p.emitConstant(v)
}

func (p *parser) string(_ bool) { p.emitConstant(p.prev.Literal) }

func (p *parser) literal(_ bool) {
	switch p.prev.Kind {
	case token.FALSE:
		p.emitOp(OpFalse)
	case token.NIL:
		p.emitOp(OpNil)
	case token.TRUE:
		p.emitOp(OpTrue)
	}
}

func (p *parser) variable(canAssign bool) { p.namedVariable(p.prev.Lexeme, canAssign) }

func (p *parser) this(_ bool) {
	if p.cs == nil {
		p.error("can't use 'this' outside of a class")
		return
	}
	p.namedVariable("this", false)
}

func (p *parser) super_(_ bool) {
	if p.cs == nil {
		p.error("can't use 'super' outside of a class")
	} else if !p.cs.hasSuperclass {
		p.error("can't use 'super' in a class with no superclass")
	}
	p.consume(token.DOT, "expect '.' after 'super'")
	p.consume(token.IDENT, "expect superclass method name")
	nameConst := p.identifierConstant(p.prev.Lexeme)
	p.namedVariable("this", false)

	if p.match(token.LPAREN) {
		argc := p.argumentList()
		p.namedVariable("super", false)
		p.emitAB(OpSuperInvoke, nameConst, argc)
	} else {
		p.namedVariable("super", false)
		p.emitA(OpGetSuper, nameConst)
	}
}

func (p *parser) call(_ bool) {
	argc := p.argumentList()
	p.emitA(OpCall, argc)
}

func (p *parser) dot(canAssign bool) {
	p.consume(token.IDENT, "expect property name after '.'")
	nameConst := p.identifierConstant(p.prev.Lexeme)

	switch {
	case canAssign && p.match(token.EQ):
		p.expression()
		p.emitA(OpSetProperty, nameConst)
	case p.match(token.LPAREN):
		argc := p.argumentList()
		p.emitAB(OpInvoke, nameConst, argc)
	default:
		p.emitA(OpGetProperty, nameConst)
	}
}

// index compiles `e[i]` / `e[i] = v`, desugared as a call to the indexed
// value's get/set methods (the same convention the Map and Array builtins
// implement).
func (p *parser) index(_ bool) {
	p.expression()
	p.consume(token.RBRACK, "expect ']' after index")
	getConst := p.identifierConstant("get")
	setConst := p.identifierConstant("set")

	if p.match(token.EQ) {
		p.expression()
		p.emitAB(OpInvoke, setConst, 2)
	} else {
		p.emitAB(OpInvoke, getConst, 1)
	}
}

func (p *parser) argumentList() int {
	argc := 0
	if !p.check(token.RPAREN) {
		for {
			p.expression()
			argc++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "expect ')' after arguments")
	return argc
}

func (p *parser) grouping(_ bool) {
	p.expression()
	p.consume(token.RPAREN, "expect ')' after expression")
}

// array compiles `[e, e, ...]`, lowering it to a call to the Array builtin
// followed by repeated `set(i, e)` invocations. The element count is
// unknown until the closing bracket, so a placeholder Nil argument is
// emitted for the constructor call and patched in place once the count
// is known.
//
// Each iteration needs the array reference back on top of the stack to
// invoke set on, but its absolute stack slot isn't known at compile time
// when the literal sits inside a pending `let` initializer or another
// array literal's element expression — so it's kept reachable with Dup
// instead of a named local.
func (p *parser) array(_ bool) {
	p.emitA(OpGetGlobal, p.identifierConstant("Array"))
	countArgIdx := p.emitOp(OpNil)
	p.emitA(OpCall, 1)

	count := 0
	if !p.check(token.RBRACK) {
		for {
			p.emitOp(OpDup)
			p.emitConstant(float64(count))
			p.expression()
			p.emitAB(OpInvoke, p.identifierConstant("set"), 2)
			p.emitOp(OpPop)
			count++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	countConst := p.makeConstant(float64(count))
	p.fs.proto.Chunk.Code[countArgIdx] = Instruction{Op: OpConstant, A: countConst}
	p.consume(token.RBRACK, "expect ']' after array elements")
}

func (p *parser) unary(_ bool) {
	op := p.prev.Kind
	p.parsePrecedence(PrecUnary)
	switch op {
	case token.BANG:
		p.emitOp(OpNot)
	case token.MINUS:
		p.emitOp(OpNegate)
	}
}

func (p *parser) binary(_ bool) {
	op := p.prev.Kind
	rule := getRule(op)
	p.parsePrecedence(rule.precedence.next())
	switch op {
	case token.PLUS:
		p.emitOp(OpAdd)
	case token.MINUS:
		p.emitOp(OpSubtract)
	case token.STAR:
		p.emitOp(OpMultiply)
	case token.SLASH:
		p.emitOp(OpDivide)
	case token.PERCENT:
		p.emitOp(OpModulo)
	case token.BANG_EQ:
		p.emitOp(OpEqual)
		p.emitOp(OpNot)
	case token.EQ_EQ:
		p.emitOp(OpEqual)
	case token.GT:
		p.emitOp(OpGreater)
	case token.GT_EQ:
		p.emitOp(OpLess)
		p.emitOp(OpNot)
	case token.LT:
		p.emitOp(OpLess)
	case token.LT_EQ:
		p.emitOp(OpGreater)
		p.emitOp(OpNot)
	}
}

func (p *parser) and(_ bool) {
	endJump := p.emitA(OpJumpIfFalse, 0)
	p.emitOp(OpPop)
	p.parsePrecedence(PrecAnd)
	p.patchJump(endJump)
}

func (p *parser) or(_ bool) {
	elseJump := p.emitA(OpJumpIfFalse, 0)
	endJump := p.emitA(OpJump, 0)
	p.patchJump(elseJump)
	p.emitOp(OpPop)
	p.parsePrecedence(PrecOr)
	p.patchJump(endJump)
}
