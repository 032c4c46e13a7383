package cpu

import (
	"errors"
	"fmt"
	"math/big"
)

// Op is a decoded instruction opcode.
type Op int

const (
	OpPUSH Op = iota
	OpPOP
	OpMOV
	OpMOVZB
	OpADD
	OpSUB
	OpIMUL
	OpCQO
	OpIDIV
	OpCMP
	OpSETE
	OpSETNE
	OpSETL
	OpSETLE
	OpSETG
	OpSETGE
	OpRET
)

var opNames = [...]string{
	OpPUSH:  "push",
	OpPOP:   "pop",
	OpMOV:   "mov",
	OpMOVZB: "movzb",
	OpADD:   "add",
	OpSUB:   "sub",
	OpIMUL:  "imul",
	OpCQO:   "cqo",
	OpIDIV:  "idiv",
	OpCMP:   "cmp",
	OpSETE:  "sete",
	OpSETNE: "setne",
	OpSETL:  "setl",
	OpSETLE: "setle",
	OpSETG:  "setg",
	OpSETGE: "setge",
	OpRET:   "ret",
}

func (o Op) String() string {
	if int(o) >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Reg indexes a 64-bit general purpose register.
type Reg int

const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSI
	RDI
	NumRegs
)

var regNames = [...]string{
	RAX: "rax",
	RCX: "rcx",
	RDX: "rdx",
	RBX: "rbx",
	RSI: "rsi",
	RDI: "rdi",
}

var byteRegNames = [...]string{
	RAX: "al",
	RCX: "cl",
	RDX: "dl",
	RBX: "bl",
	RSI: "sil",
	RDI: "dil",
}

func (r Reg) String() string {
	if r >= 0 && r < NumRegs {
		return regNames[r]
	}
	return fmt.Sprintf("Reg(%d)", int(r))
}

// OperandKind says how an Operand is read and written. A ByteRegister
// operand is the low 8 bits of Reg.
type OperandKind int

const (
	NoOperand OperandKind = iota
	Register
	ByteRegister
	Immediate
)

type Operand struct {
	Kind OperandKind
	Reg  Reg
	Imm  int64
}

func (o Operand) String() string {
	switch o.Kind {
	case Register:
		return o.Reg.String()
	case ByteRegister:
		return byteRegNames[o.Reg]
	case Immediate:
		return fmt.Sprintf("%d", o.Imm)
	}
	return ""
}

// Instruction is one decoded line of assembly. Line is the 1-based source
// line it came from.
type Instruction struct {
	Op   Op
	Dst  Operand
	Src  Operand
	Line int
}

func (i Instruction) String() string {
	switch {
	case i.Dst.Kind == NoOperand:
		return i.Op.String()
	case i.Src.Kind == NoOperand:
		return fmt.Sprintf("%s %s", i.Op, i.Dst)
	}
	return fmt.Sprintf("%s %s, %s", i.Op, i.Dst, i.Src)
}

var (
	ErrStackOverflow  = errors.New("cpu: stack overflow")
	ErrStackUnderflow = errors.New("cpu: stack underflow")
	ErrDivideByZero   = errors.New("cpu: integer divide by zero")
	ErrDivideOverflow = errors.New("cpu: integer divide overflow")
	ErrStepLimit      = errors.New("cpu: step limit exceeded")
	ErrBadReturn      = errors.New("cpu: return to unknown address")
	ErrPCOutOfRange   = errors.New("cpu: program counter out of range")
)

// Limits bound a single run.
type Limits struct {
	MaxSteps   int
	StackDepth int
}

func DefaultLimits() Limits {
	return Limits{MaxSteps: 1_000_000, StackDepth: 4096}
}

// returnAddress is what the caller of the entry routine left on the stack.
// Popping it with ret ends the run.
const returnAddress int64 = -1

// CPU executes a decoded program. The stack grows by appending; Stack[len-1]
// is the word rsp points at.
type CPU struct {
	Regs  [NumRegs]int64
	Stack []int64
	PC    int

	ZF bool
	SF bool
	OF bool

	Halted bool
	Steps  int

	Program []Instruction
	limits  Limits
}

// NewCPU prepares a run of program starting at instruction index entry, as if
// the entry routine had just been called.
func NewCPU(program []Instruction, entry int, limits Limits) *CPU {
	return &CPU{
		Program: program,
		PC:      entry,
		Stack:   []int64{returnAddress},
		limits:  limits,
	}
}

func (c *CPU) push(v int64) error {
	if c.limits.StackDepth > 0 && len(c.Stack) >= c.limits.StackDepth {
		return ErrStackOverflow
	}
	c.Stack = append(c.Stack, v)
	return nil
}

func (c *CPU) pop() (int64, error) {
	if len(c.Stack) == 0 {
		return 0, ErrStackUnderflow
	}
	v := c.Stack[len(c.Stack)-1]
	c.Stack = c.Stack[:len(c.Stack)-1]
	return v, nil
}

func (c *CPU) read(o Operand) int64 {
	switch o.Kind {
	case Register:
		return c.Regs[o.Reg]
	case ByteRegister:
		return c.Regs[o.Reg] & 0xFF
	case Immediate:
		return o.Imm
	}
	return 0
}

func (c *CPU) write(o Operand, v int64) {
	switch o.Kind {
	case Register:
		c.Regs[o.Reg] = v
	case ByteRegister:
		c.Regs[o.Reg] = c.Regs[o.Reg]&^0xFF | v&0xFF
	}
}

// updateFlags sets ZF/SF from result and OF from the signed overflow of a-b
// (sub) or a+b (add).
func (c *CPU) updateFlags(a, b, result int64, sub bool) {
	c.ZF = result == 0
	c.SF = result < 0
	if sub {
		c.OF = (a^b)&(a^result) < 0
	} else {
		c.OF = (a^result)&(b^result) < 0
	}
}

func (c *CPU) setIf(dst Operand, cond bool) {
	if cond {
		c.write(dst, 1)
	} else {
		c.write(dst, 0)
	}
}

// idiv divides rdx:rax by divisor, leaving the truncated quotient in rax and
// the remainder in rdx.
func (c *CPU) idiv(divisor int64) error {
	if divisor == 0 {
		return ErrDivideByZero
	}
	dividend := new(big.Int).Lsh(big.NewInt(c.Regs[RDX]), 64)
	dividend.Add(dividend, new(big.Int).SetUint64(uint64(c.Regs[RAX])))

	q, r := new(big.Int).QuoRem(dividend, big.NewInt(divisor), new(big.Int))
	if !q.IsInt64() {
		return ErrDivideOverflow
	}
	c.Regs[RAX] = q.Int64()
	c.Regs[RDX] = r.Int64()
	return nil
}

// Step executes one instruction.
func (c *CPU) Step() error {
	if c.Halted {
		return nil
	}
	if c.PC < 0 || c.PC >= len(c.Program) {
		return fmt.Errorf("%w: %d", ErrPCOutOfRange, c.PC)
	}

	in := c.Program[c.PC]
	c.PC++
	c.Steps++

	switch in.Op {
	case OpPUSH:
		return c.push(c.read(in.Dst))

	case OpPOP:
		v, err := c.pop()
		if err != nil {
			return err
		}
		c.write(in.Dst, v)

	case OpMOV:
		c.write(in.Dst, c.read(in.Src))

	case OpMOVZB:
		c.write(in.Dst, int64(uint8(c.read(in.Src))))

	case OpADD:
		a, b := c.read(in.Dst), c.read(in.Src)
		res := a + b
		c.write(in.Dst, res)
		c.updateFlags(a, b, res, false)

	case OpSUB:
		a, b := c.read(in.Dst), c.read(in.Src)
		res := a - b
		c.write(in.Dst, res)
		c.updateFlags(a, b, res, true)

	case OpIMUL:
		c.write(in.Dst, c.read(in.Dst)*c.read(in.Src))

	case OpCQO:
		c.Regs[RDX] = c.Regs[RAX] >> 63

	case OpIDIV:
		return c.idiv(c.read(in.Dst))

	case OpCMP:
		a, b := c.read(in.Dst), c.read(in.Src)
		c.updateFlags(a, b, a-b, true)

	case OpSETE:
		c.setIf(in.Dst, c.ZF)
	case OpSETNE:
		c.setIf(in.Dst, !c.ZF)
	case OpSETL:
		c.setIf(in.Dst, c.SF != c.OF)
	case OpSETLE:
		c.setIf(in.Dst, c.ZF || c.SF != c.OF)
	case OpSETG:
		c.setIf(in.Dst, !c.ZF && c.SF == c.OF)
	case OpSETGE:
		c.setIf(in.Dst, c.SF == c.OF)

	case OpRET:
		addr, err := c.pop()
		if err != nil {
			return err
		}
		if addr != returnAddress {
			return fmt.Errorf("%w: %d", ErrBadReturn, addr)
		}
		c.Halted = true

	default:
		return fmt.Errorf("cpu: unknown opcode %s", in.Op)
	}
	return nil
}

// Run steps until the entry routine returns and yields the value of rax.
func (c *CPU) Run() (int64, error) {
	for !c.Halted {
		if c.limits.MaxSteps > 0 && c.Steps >= c.limits.MaxSteps {
			return 0, ErrStepLimit
		}
		pc := c.PC
		if err := c.Step(); err != nil {
			return 0, fmt.Errorf("instruction %d (line %d): %w", pc, c.lineOf(pc), err)
		}
	}
	return c.Regs[RAX], nil
}

// ExitCode is what a process returning rax from main reports to its parent.
func (c *CPU) ExitCode() uint8 {
	return uint8(c.Regs[RAX])
}

func (c *CPU) lineOf(idx int) int {
	if idx >= 0 && idx < len(c.Program) {
		return c.Program[idx].Line
	}
	return 0
}
