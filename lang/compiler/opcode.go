package compiler

// OpCode identifies a single VM instruction. Operands, when present, are
// stored in the A (and, for Invoke/SuperInvoke, B) fields of the same
// Instruction; see the disassembler in chunk.go for which opcodes use them.
type OpCode byte

//nolint:revive
const (
	OpConstant     OpCode = iota // k: push constants[k]
	OpNil                        // push Nil
	OpTrue                       // push True
	OpFalse                      // push False
	OpPop                        // drop top
	OpDup                        // push a copy of the top of stack
	OpGetGlobal                  // n: push globals[names[n]]
	OpDefineGlobal               // n: globals[names[n]] = pop()
	OpSetGlobal                  // n: globals[names[n]] = peek(0)
	OpGetLocal                   // i: push stack[base+i]
	OpSetLocal                   // i: stack[base+i] = peek(0)
	OpGetUpvalue                 // i: push *upvalues[i]
	OpSetUpvalue                 // i: *upvalues[i] = peek(0)
	OpGetProperty                // n: push instance.fields/methods[names[n]]
	OpSetProperty                // n: instance.fields[names[n]] = value
	OpGetSuper                   // n: bind method names[n] from the enclosing super
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpNot
	OpNegate
	OpPrint
	OpJump           // off: ip += off
	OpJumpIfFalse    // off: if falsey(peek(0)) { ip += off }
	OpLoop           // off: ip -= off
	OpCall           // n: call stack[top-n-1] with n args
	OpInvoke         // n, argc: fused GetProperty(n) + Call(argc)
	OpSuperInvoke    // n, argc: fused GetSuper(n) + Call(argc)
	OpClosure        // k: wrap the function prototype constants[k] with captured upvalues
	OpCloseUpvalue   // close the open upvalue at top of stack and pop
	OpReturn
	OpClass          // n: push new Class(names[n])
	OpInherit        // copy superclass methods into subclass
	OpMethod         // n: install function on top of stack as method names[n]
	OpImportModule   // n: resolve and run module names[n]
	OpImportVariable // n: copy names[n] from the last-imported module

	maxOpCode
)

var opcodeNames = [maxOpCode]string{
	OpConstant:       "CONSTANT",
	OpNil:            "NIL",
	OpTrue:           "TRUE",
	OpFalse:          "FALSE",
	OpPop:            "POP",
	OpDup:            "DUP",
	OpGetGlobal:      "GET_GLOBAL",
	OpDefineGlobal:   "DEFINE_GLOBAL",
	OpSetGlobal:      "SET_GLOBAL",
	OpGetLocal:       "GET_LOCAL",
	OpSetLocal:       "SET_LOCAL",
	OpGetUpvalue:     "GET_UPVALUE",
	OpSetUpvalue:     "SET_UPVALUE",
	OpGetProperty:    "GET_PROPERTY",
	OpSetProperty:    "SET_PROPERTY",
	OpGetSuper:       "GET_SUPER",
	OpEqual:          "EQUAL",
	OpGreater:        "GREATER",
	OpLess:           "LESS",
	OpAdd:            "ADD",
	OpSubtract:       "SUBTRACT",
	OpMultiply:       "MULTIPLY",
	OpDivide:         "DIVIDE",
	OpModulo:         "MODULO",
	OpNot:            "NOT",
	OpNegate:         "NEGATE",
	OpPrint:          "PRINT",
	OpJump:           "JUMP",
	OpJumpIfFalse:    "JUMP_IF_FALSE",
	OpLoop:           "LOOP",
	OpCall:           "CALL",
	OpInvoke:         "INVOKE",
	OpSuperInvoke:    "SUPER_INVOKE",
	OpClosure:        "CLOSURE",
	OpCloseUpvalue:   "CLOSE_UPVALUE",
	OpReturn:         "RETURN",
	OpClass:          "CLASS",
	OpInherit:        "INHERIT",
	OpMethod:         "METHOD",
	OpImportModule:   "IMPORT_MODULE",
	OpImportVariable: "IMPORT_VARIABLE",
}

func (op OpCode) String() string {
	if op < maxOpCode {
		if nm := opcodeNames[op]; nm != "" {
			return nm
		}
	}
	return "UNKNOWN_OPCODE"
}
