package compiler

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"exprc/pkg/diag"
)

// Two-character operators must be tried before their one-character prefixes,
// otherwise ">=" would lex as ">" followed by an unusable "=".
var (
	doublePunct = []string{"==", "!=", "<=", ">="}
	singlePunct = "+-*/()<>"
)

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src string
	pos int // byte offset of the next character to consume
}

func newLexer(src string) *Lexer {
	return &Lexer{src: src}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
}

// scanNum collects a maximal run of decimal digits. A leading sign is never
// part of the literal; unary minus belongs to the grammar.
func (l *Lexer) scanNum() (Token, error) {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	lexeme := l.src[start:l.pos]
	val, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		return Token{}, diag.Errorf(diag.Lex, start, "number out of range")
	}
	return Token{Kind: NUM, Lexeme: lexeme, Val: val, Pos: start}, nil
}

// nextToken skips whitespace and returns the next Token.
func (l *Lexer) nextToken() (Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Pos: l.pos}, nil
	}

	start := l.pos
	rest := l.src[l.pos:]
	for _, op := range doublePunct {
		if strings.HasPrefix(rest, op) {
			l.pos += len(op)
			return Token{Kind: RESERVED, Lexeme: op, Pos: start}, nil
		}
	}

	ch := l.peek()
	if strings.IndexByte(singlePunct, ch) >= 0 {
		l.pos++
		return Token{Kind: RESERVED, Lexeme: rest[:1], Pos: start}, nil
	}
	if isDigit(ch) {
		return l.scanNum()
	}

	r, _ := utf8.DecodeRuneInString(rest)
	return Token{}, diag.Errorf(diag.Lex, start, "invalid token %q", r)
}

// Lex tokenises src and returns all tokens including the final EOF token.
// It stops at the first character that cannot start a token and returns a
// *diag.Error positioned on it.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			return tokens, nil
		}
	}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

// isSpace matches the ASCII whitespace set of C's isspace.
func isSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
