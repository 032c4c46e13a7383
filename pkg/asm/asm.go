// Package asm reads the GNU as Intel-syntax subset produced by the compiler
// and decodes it into a program the cpu package can execute.
package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"exprc/pkg/cpu"
)

var zeroOperandOps = map[string]cpu.Op{
	"RET": cpu.OpRET,
	"CQO": cpu.OpCQO,
}

// oneOperandOps maps a mnemonic to its opcode and the operand kinds it takes.
var oneOperandOps = map[string]opShape{
	"PUSH":  {cpu.OpPUSH, kinds(cpu.Register, cpu.Immediate), 0},
	"POP":   {cpu.OpPOP, kinds(cpu.Register), 0},
	"IDIV":  {cpu.OpIDIV, kinds(cpu.Register), 0},
	"SETE":  {cpu.OpSETE, kinds(cpu.ByteRegister), 0},
	"SETNE": {cpu.OpSETNE, kinds(cpu.ByteRegister), 0},
	"SETL":  {cpu.OpSETL, kinds(cpu.ByteRegister), 0},
	"SETLE": {cpu.OpSETLE, kinds(cpu.ByteRegister), 0},
	"SETG":  {cpu.OpSETG, kinds(cpu.ByteRegister), 0},
	"SETGE": {cpu.OpSETGE, kinds(cpu.ByteRegister), 0},
}

var twoOperandOps = map[string]opShape{
	"MOV":   {cpu.OpMOV, kinds(cpu.Register), kinds(cpu.Register, cpu.Immediate)},
	"ADD":   {cpu.OpADD, kinds(cpu.Register), kinds(cpu.Register, cpu.Immediate)},
	"SUB":   {cpu.OpSUB, kinds(cpu.Register), kinds(cpu.Register, cpu.Immediate)},
	"IMUL":  {cpu.OpIMUL, kinds(cpu.Register), kinds(cpu.Register, cpu.Immediate)},
	"CMP":   {cpu.OpCMP, kinds(cpu.Register), kinds(cpu.Register, cpu.Immediate)},
	"MOVZB": {cpu.OpMOVZB, kinds(cpu.Register), kinds(cpu.ByteRegister)},
	"MOVZX": {cpu.OpMOVZB, kinds(cpu.Register), kinds(cpu.ByteRegister)},
}

type kindSet uint8

func kinds(ks ...cpu.OperandKind) kindSet {
	var s kindSet
	for _, k := range ks {
		s |= 1 << k
	}
	return s
}

func (s kindSet) has(k cpu.OperandKind) bool { return s&(1<<k) != 0 }

type opShape struct {
	op  cpu.Op
	dst kindSet
	src kindSet
}

var registers = map[string]cpu.Operand{
	"RAX": {Kind: cpu.Register, Reg: cpu.RAX},
	"RCX": {Kind: cpu.Register, Reg: cpu.RCX},
	"RDX": {Kind: cpu.Register, Reg: cpu.RDX},
	"RBX": {Kind: cpu.Register, Reg: cpu.RBX},
	"RSI": {Kind: cpu.Register, Reg: cpu.RSI},
	"RDI": {Kind: cpu.Register, Reg: cpu.RDI},
	"AL":  {Kind: cpu.ByteRegister, Reg: cpu.RAX},
	"CL":  {Kind: cpu.ByteRegister, Reg: cpu.RCX},
	"DL":  {Kind: cpu.ByteRegister, Reg: cpu.RDX},
	"BL":  {Kind: cpu.ByteRegister, Reg: cpu.RBX},
	"SIL": {Kind: cpu.ByteRegister, Reg: cpu.RSI},
	"DIL": {Kind: cpu.ByteRegister, Reg: cpu.RDI},
}

// Program is an assembled translation unit.
type Program struct {
	Instructions []cpu.Instruction
	Labels       map[string]int // label -> index of the instruction it precedes
	Globals      map[string]bool
}

// Entry returns the instruction index of an exported label.
func (p *Program) Entry(name string) (int, error) {
	idx, ok := p.Labels[name]
	if !ok {
		return 0, fmt.Errorf("undefined entry label '%s'", name)
	}
	if !p.Globals[name] {
		return 0, fmt.Errorf("entry label '%s' is not declared global", name)
	}
	return idx, nil
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

type Assembler struct {
	prog      *Program
	intelMode bool
}

func NewAssembler() *Assembler {
	return &Assembler{
		prog: &Program{
			Labels:  make(map[string]int),
			Globals: make(map[string]bool),
		},
	}
}

func Assemble(code string) (*Program, error) {
	return NewAssembler().Assemble(code)
}

// Assemble decodes code line by line. Only Intel syntax without register
// prefixes is understood.
func (a *Assembler) Assemble(code string) (*Program, error) {
	for i, raw := range strings.Split(code, "\n") {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, err
		}

		for _, lbl := range p.labels {
			if _, exists := a.prog.Labels[lbl]; exists {
				return nil, fmt.Errorf("duplicate label '%s' on line %d", lbl, lineNo)
			}
			a.prog.Labels[lbl] = len(a.prog.Instructions)
		}

		if p.mnemonic == "" {
			continue
		}
		if strings.HasPrefix(p.mnemonic, ".") {
			if err := a.directive(p); err != nil {
				return nil, err
			}
			continue
		}
		if !a.intelMode {
			return nil, fmt.Errorf("instruction before .intel_syntax noprefix on line %d", lineNo)
		}

		in, err := decode(p)
		if err != nil {
			return nil, err
		}
		a.prog.Instructions = append(a.prog.Instructions, in)
	}

	for name := range a.prog.Globals {
		if _, ok := a.prog.Labels[name]; !ok {
			return nil, fmt.Errorf("global symbol '%s' is never defined", name)
		}
	}
	return a.prog, nil
}

func (a *Assembler) directive(p parsedLine) error {
	switch p.mnemonic {
	case ".INTEL_SYNTAX":
		if len(p.operands) != 1 || !strings.EqualFold(p.operands[0], "noprefix") {
			return fmt.Errorf(".intel_syntax must be followed by noprefix on line %d", p.lineNo)
		}
		a.intelMode = true
	case ".ATT_SYNTAX":
		return fmt.Errorf("AT&T syntax is not supported on line %d", p.lineNo)
	case ".GLOBAL", ".GLOBL":
		if len(p.operands) != 1 || !isIdentifier(p.operands[0]) {
			return fmt.Errorf("%s expects one symbol on line %d", strings.ToLower(p.mnemonic), p.lineNo)
		}
		a.prog.Globals[p.operands[0]] = true
	case ".TEXT":
	default:
		return fmt.Errorf("unknown directive on line %d: %s", p.lineNo, strings.ToLower(p.mnemonic))
	}
	return nil
}

func decode(p parsedLine) (cpu.Instruction, error) {
	in := cpu.Instruction{Line: p.lineNo}
	ops := p.operands

	if op, ok := zeroOperandOps[p.mnemonic]; ok {
		if len(ops) != 0 {
			return in, fmt.Errorf("%s expects 0 operands on line %d", p.mnemonic, p.lineNo)
		}
		in.Op = op
		return in, nil
	}

	if shape, ok := oneOperandOps[p.mnemonic]; ok {
		if len(ops) != 1 {
			return in, fmt.Errorf("%s expects 1 operand on line %d", p.mnemonic, p.lineNo)
		}
		dst, err := parseOperand(ops[0], shape.dst, p.lineNo)
		if err != nil {
			return in, err
		}
		in.Op, in.Dst = shape.op, dst
		return in, nil
	}

	if shape, ok := twoOperandOps[p.mnemonic]; ok {
		if len(ops) != 2 {
			return in, fmt.Errorf("%s expects 2 operands on line %d", p.mnemonic, p.lineNo)
		}
		dst, err := parseOperand(ops[0], shape.dst, p.lineNo)
		if err != nil {
			return in, err
		}
		src, err := parseOperand(ops[1], shape.src, p.lineNo)
		if err != nil {
			return in, err
		}
		in.Op, in.Dst, in.Src = shape.op, dst, src
		return in, nil
	}

	return in, fmt.Errorf("unknown instruction on line %d: %s", p.lineNo, strings.ToLower(p.mnemonic))
}

func parseOperand(token string, allowed kindSet, lineNo int) (cpu.Operand, error) {
	op, ok := registers[strings.ToUpper(token)]
	if !ok {
		v, err := strconv.ParseInt(token, 0, 64)
		if err != nil {
			return cpu.Operand{}, fmt.Errorf("invalid operand '%s' on line %d", token, lineNo)
		}
		op = cpu.Operand{Kind: cpu.Immediate, Imm: v}
	}
	if !allowed.has(op.Kind) {
		return cpu.Operand{}, fmt.Errorf("operand '%s' not allowed here on line %d", token, lineNo)
	}
	return op, nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}
		before := strings.TrimSpace(line[:colon])
		if strings.ContainsAny(before, " \t") {
			break
		}
		if !isIdentifier(before) {
			return p, fmt.Errorf("invalid label '%s' on line %d", before, lineNo)
		}
		p.labels = append(p.labels, before)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	fields := strings.Fields(line)
	p.mnemonic = strings.ToUpper(fields[0])
	rest := strings.TrimSpace(line[len(fields[0]):])
	if rest == "" {
		return p, nil
	}
	for _, op := range strings.Split(rest, ",") {
		op = strings.TrimSpace(op)
		if op == "" {
			return p, fmt.Errorf("empty operand on line %d", lineNo)
		}
		p.operands = append(p.operands, op)
	}
	return p, nil
}

// stripComments removes a trailing '#', ';' or '//' comment.
func stripComments(line string) string {
	cut := -1
	for _, marker := range []string{"#", ";", "//"} {
		if i := strings.Index(line, marker); i >= 0 && (cut == -1 || i < cut) {
			cut = i
		}
	}
	if cut >= 0 {
		return line[:cut]
	}
	return line
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' && r != '.' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return false
		}
	}
	return true
}
