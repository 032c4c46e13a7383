package compiler

import "fmt"

// TokenKind identifies the category of a lexed token.
type TokenKind int

const (
	RESERVED TokenKind = iota // operator or punctuation
	NUM                       // decimal integer literal
	EOF                       // sentinel: end of input
)

var tokenNames = [...]string{
	RESERVED: "RESERVED",
	NUM:      "NUM",
	EOF:      "EOF",
}

func (tk TokenKind) String() string {
	if int(tk) >= 0 && int(tk) < len(tokenNames) {
		return tokenNames[tk]
	}
	return fmt.Sprintf("TokenKind(%d)", int(tk))
}

// Token is a single lexical unit produced by Lex.
type Token struct {
	Kind   TokenKind
	Lexeme string // the exact source text that was matched; empty for EOF
	Val    int64  // value of a NUM token
	Pos    int    // byte offset of the first character in the source
}

// Len is the number of source bytes the token covers.
func (t Token) Len() int { return len(t.Lexeme) }

func (t Token) String() string {
	return fmt.Sprintf("%-8s %-6q  at %d", t.Kind, t.Lexeme, t.Pos)
}
