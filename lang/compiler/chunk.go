package compiler

import "fmt"

// Instruction is one decoded bytecode instruction: an opcode plus up to two
// inline operands (constant pool index, stack slot, jump bias, or argument
// count, depending on Op).
type Instruction struct {
	Op OpCode
	A  int
	B  int // second operand, used only by Invoke/SuperInvoke
}

type lineRecord struct {
	line  int
	count int
}

// Chunk is the compiled code of one function: an ordered instruction list,
// an ordered constant pool, and a run-length line table mapping instruction
// index back to the source line that emitted it.
//
// Constants holds float64, string, or *FunctionProto values; lang/machine
// converts float64 and string entries into its own runtime Value types as
// each OpConstant executes and reads *FunctionProto entries in OpClosure,
// keeping the compiler free of any dependency on the VM's value model.
type Chunk struct {
	Code      []Instruction
	Constants []any

	lines []lineRecord
}

// Write appends instr to the code stream, recording line as the source line
// that produced it, and returns the index the instruction was written at.
// Adding an instruction on the same line as the previous one extends the
// last line run; a new line pushes a new run. Lines must never decrease.
func (c *Chunk) Write(instr Instruction, line int) int {
	c.Code = append(c.Code, instr)

	switch n := len(c.lines); {
	case n == 0:
		c.lines = append(c.lines, lineRecord{line: line, count: 1})
	case c.lines[n-1].line == line:
		c.lines[n-1].count++
	case c.lines[n-1].line < line:
		c.lines = append(c.lines, lineRecord{line: line, count: 1})
	default:
		panic(fmt.Sprintf("compiler: line number went backward: %d after %d", line, c.lines[n-1].line))
	}
	return len(c.Code) - 1
}

// AddConstant appends v to the constant pool and returns its index.
func (c *Chunk) AddConstant(v any) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Line returns the source line that produced the instruction at idx.
func (c *Chunk) Line(idx int) int {
	line, count := 1, 0
	for _, rec := range c.lines {
		line = rec.line
		for i := 0; i < rec.count; i++ {
			if count == idx {
				return line
			}
			count++
		}
	}
	return line
}

// Disassemble returns a human-readable listing of the chunk's instructions,
// one per line, prefixed with the instruction index and source line. The VM
// itself never calls it.
func (c *Chunk) Disassemble(name string) string {
	out := fmt.Sprintf("== %s ==\n", name)
	prevLine := -1
	for i, instr := range c.Code {
		line := c.Line(i)
		lineCol := "   |"
		if line != prevLine {
			lineCol = fmt.Sprintf("%4d", line)
			prevLine = line
		}
		out += fmt.Sprintf("%04d %s %s\n", i, lineCol, disassembleInstr(instr))
	}
	return out
}

func disassembleInstr(instr Instruction) string {
	switch instr.Op {
	case OpInvoke, OpSuperInvoke:
		return fmt.Sprintf("%-16s %4d (%d args)", instr.Op, instr.A, instr.B)
	case OpNil, OpTrue, OpFalse, OpPop, OpDup, OpEqual, OpGreater, OpLess, OpAdd, OpSubtract,
		OpMultiply, OpDivide, OpModulo, OpNot, OpNegate, OpPrint, OpCloseUpvalue,
		OpReturn, OpInherit:
		return instr.Op.String()
	default:
		return fmt.Sprintf("%-16s %4d", instr.Op, instr.A)
	}
}
