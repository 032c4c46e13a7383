package compiler

import "fmt"

// NodeKind tags an AST node.
type NodeKind int

const (
	ND_ADD NodeKind = iota // LHS + RHS
	ND_SUB                 // LHS - RHS
	ND_MUL                 // LHS * RHS
	ND_DIV                 // LHS / RHS, truncating toward zero
	ND_EQ                  // LHS == RHS
	ND_NE                  // LHS != RHS
	// ND_LT and ND_LE are direction-normalised: the parser stores a > b as
	// ND_LT(b, a) and a >= b as ND_LE(b, a). There is no greater-than kind and
	// code generation always evaluates LHS before RHS.
	ND_LT  // LHS < RHS
	ND_LE  // LHS <= RHS
	ND_NUM // integer literal leaf
)

var nodeOps = [...]string{
	ND_ADD: "+",
	ND_SUB: "-",
	ND_MUL: "*",
	ND_DIV: "/",
	ND_EQ:  "==",
	ND_NE:  "!=",
	ND_LT:  "<",
	ND_LE:  "<=",
	ND_NUM: "num",
}

func (k NodeKind) String() string {
	if int(k) >= 0 && int(k) < len(nodeOps) {
		return nodeOps[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is one vertex of a strict binary tree: an ND_NUM leaf carrying Val, or
// an operator owning exactly two children.
//
//	1 + 2 * 3
//	(+ 1 (* 2 3))
type Node struct {
	Kind NodeKind
	LHS  *Node
	RHS  *Node
	Val  int64 // used if Kind == ND_NUM
	Pos  int   // byte offset of the operator or literal
}

func newBinary(kind NodeKind, lhs, rhs *Node, pos int) *Node {
	return &Node{Kind: kind, LHS: lhs, RHS: rhs, Pos: pos}
}

func newNum(val int64, pos int) *Node {
	return &Node{Kind: ND_NUM, Val: val, Pos: pos}
}

// String renders the tree as an S-expression.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.Kind == ND_NUM {
		return fmt.Sprintf("%d", n.Val)
	}
	return fmt.Sprintf("(%s %s %s)", n.Kind, n.LHS, n.RHS)
}

// Equal reports whether two trees have the same shape, kinds and values.
// Source positions are ignored.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Kind != o.Kind {
		return false
	}
	if n.Kind == ND_NUM {
		return n.Val == o.Val
	}
	return n.LHS.Equal(o.LHS) && n.RHS.Equal(o.RHS)
}
