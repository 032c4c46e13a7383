package compiler

import (
	"fmt"
	"math"
	"strings"
)

// Target describes the fixed framing around the generated body. The body
// itself always computes in rax/rdi and returns in rax.
type Target struct {
	Syntax string // dialect directive, e.g. ".intel_syntax noprefix"
	Global string // symbol export directive, e.g. ".global"
	Entry  string // entry label
	Indent string // prefix of every instruction line
}

// DefaultTarget produces x86-64 GNU as source for a C runtime's main.
func DefaultTarget() Target {
	return Target{
		Syntax: ".intel_syntax noprefix",
		Global: ".global",
		Entry:  "main",
		Indent: "    ",
	}
}

// ReturnRegister holds the program result when the entry routine returns.
const ReturnRegister = "rax"

// CodeGen walks an AST and emits stack-machine assembly. Every intermediate
// value goes through the hardware stack; there is no register allocation.
type CodeGen struct {
	target Target
	out    strings.Builder
}

func newCodeGen(target Target) *CodeGen {
	return &CodeGen{target: target}
}

func (cg *CodeGen) line(format string, args ...any) {
	fmt.Fprintf(&cg.out, format+"\n", args...)
}

func (cg *CodeGen) instr(format string, args ...any) {
	cg.line(cg.target.Indent+format, args...)
}

// genExpr emits code that leaves the value of n on top of the stack.
func (cg *CodeGen) genExpr(n *Node) {
	if n.Kind == ND_NUM {
		// push only takes a sign-extended 32-bit immediate.
		if n.Val < math.MinInt32 || n.Val > math.MaxInt32 {
			cg.instr("mov rax, %d", n.Val)
			cg.instr("push rax")
			return
		}
		cg.instr("push %d", n.Val)
		return
	}

	cg.genExpr(n.LHS)
	cg.genExpr(n.RHS)

	cg.instr("pop rdi") // right operand
	cg.instr("pop rax") // left operand

	switch n.Kind {
	case ND_ADD:
		cg.instr("add rax, rdi")
	case ND_SUB:
		cg.instr("sub rax, rdi")
	case ND_MUL:
		cg.instr("imul rax, rdi")
	case ND_DIV:
		cg.instr("cqo")
		cg.instr("idiv rdi")
	case ND_EQ, ND_NE, ND_LT, ND_LE:
		cg.instr("cmp rax, rdi")
		cg.instr("%s al", setcc[n.Kind])
		cg.instr("movzb rax, al")
	}

	cg.instr("push rax")
}

var setcc = map[NodeKind]string{
	ND_EQ: "sete",
	ND_NE: "setne",
	ND_LT: "setl",
	ND_LE: "setle",
}

// Generate returns the complete assembly source for the expression rooted at
// node. It cannot fail on a tree produced by Parse.
func Generate(node *Node, target Target) string {
	cg := newCodeGen(target)

	cg.line("%s", target.Syntax)
	cg.line("%s %s", target.Global, target.Entry)
	cg.line("%s:", target.Entry)

	cg.genExpr(node)

	cg.instr("pop %s", ReturnRegister)
	cg.instr("ret")

	return cg.out.String()
}
