// Package compiler turns a single arithmetic/relational expression into
// x86-64 assembly for GNU as in Intel syntax.
//
// Pipeline: source → Lex → Parse → Generate → assembly text
//
// The generated program computes the expression on the hardware stack and
// returns its value in rax from the entry routine.
package compiler
