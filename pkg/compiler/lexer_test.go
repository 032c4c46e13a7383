package compiler

import (
	"errors"
	"reflect"
	"testing"

	"exprc/pkg/diag"
)

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:     "Empty",
			input:    "",
			expected: []Token{{Kind: EOF, Pos: 0}},
		},
		{
			name:  "Single number",
			input: "42",
			expected: []Token{
				{Kind: NUM, Lexeme: "42", Val: 42, Pos: 0},
				{Kind: EOF, Pos: 2},
			},
		},
		{
			name:  "All punctuators",
			input: "+ - * / ( ) < > == != <= >=",
			expected: []Token{
				{Kind: RESERVED, Lexeme: "+", Pos: 0},
				{Kind: RESERVED, Lexeme: "-", Pos: 2},
				{Kind: RESERVED, Lexeme: "*", Pos: 4},
				{Kind: RESERVED, Lexeme: "/", Pos: 6},
				{Kind: RESERVED, Lexeme: "(", Pos: 8},
				{Kind: RESERVED, Lexeme: ")", Pos: 10},
				{Kind: RESERVED, Lexeme: "<", Pos: 12},
				{Kind: RESERVED, Lexeme: ">", Pos: 14},
				{Kind: RESERVED, Lexeme: "==", Pos: 16},
				{Kind: RESERVED, Lexeme: "!=", Pos: 19},
				{Kind: RESERVED, Lexeme: "<=", Pos: 22},
				{Kind: RESERVED, Lexeme: ">=", Pos: 25},
				{Kind: EOF, Pos: 27},
			},
		},
		{
			name:  "Greedy two-character operator",
			input: "2>=2",
			expected: []Token{
				{Kind: NUM, Lexeme: "2", Val: 2, Pos: 0},
				{Kind: RESERVED, Lexeme: ">=", Pos: 1},
				{Kind: NUM, Lexeme: "2", Val: 2, Pos: 3},
				{Kind: EOF, Pos: 4},
			},
		},
		{
			name:  "Sign is not part of the literal",
			input: "-5",
			expected: []Token{
				{Kind: RESERVED, Lexeme: "-", Pos: 0},
				{Kind: NUM, Lexeme: "5", Val: 5, Pos: 1},
				{Kind: EOF, Pos: 2},
			},
		},
		{
			name:  "Whitespace",
			input: " \t12 +\n 3 ",
			expected: []Token{
				{Kind: NUM, Lexeme: "12", Val: 12, Pos: 2},
				{Kind: RESERVED, Lexeme: "+", Pos: 5},
				{Kind: NUM, Lexeme: "3", Val: 3, Pos: 8},
				{Kind: EOF, Pos: 10},
			},
		},
		{
			name:  "Leading zeros",
			input: "007",
			expected: []Token{
				{Kind: NUM, Lexeme: "007", Val: 7, Pos: 0},
				{Kind: EOF, Pos: 3},
			},
		},
		{
			name:  "Largest literal",
			input: "9223372036854775807",
			expected: []Token{
				{Kind: NUM, Lexeme: "9223372036854775807", Val: 9223372036854775807, Pos: 0},
				{Kind: EOF, Pos: 19},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("Lex(%q) error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(tokens, tt.expected) {
				t.Errorf("Lex(%q)\n got: %v\nwant: %v", tt.input, tokens, tt.expected)
			}
		})
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantPos int
		wantMsg string
	}{
		{"Ampersand", "1&2", 1, `invalid token '&'`},
		{"Lone assign", "1=2", 1, `invalid token '='`},
		{"Lone bang", "!1", 0, `invalid token '!'`},
		{"Letter after space", "1 + x", 4, `invalid token 'x'`},
		{"Multibyte", "1+é", 2, `invalid token 'é'`},
		{"Out of range", "1+9223372036854775808", 2, "number out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.input)
			if err == nil {
				t.Fatalf("Lex(%q) = %v, want error", tt.input, tokens)
			}
			if tokens != nil {
				t.Errorf("Lex(%q) returned tokens alongside error", tt.input)
			}
			var derr *diag.Error
			if !errors.As(err, &derr) {
				t.Fatalf("error %T is not a *diag.Error", err)
			}
			if derr.Kind != diag.Lex {
				t.Errorf("Kind = %v, want lex", derr.Kind)
			}
			if derr.Pos != tt.wantPos {
				t.Errorf("Pos = %d, want %d", derr.Pos, tt.wantPos)
			}
			if derr.Msg != tt.wantMsg {
				t.Errorf("Msg = %q, want %q", derr.Msg, tt.wantMsg)
			}
		})
	}
}

func TestTokenLen(t *testing.T) {
	tokens, err := Lex("10<=200")
	if err != nil {
		t.Fatal(err)
	}
	wantLens := []int{2, 2, 3, 0}
	for i, tok := range tokens {
		if tok.Len() != wantLens[i] {
			t.Errorf("token %d (%v) Len() = %d, want %d", i, tok, tok.Len(), wantLens[i])
		}
	}
}
