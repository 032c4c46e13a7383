package compiler

import "exprc/pkg/diag"

// Parser consumes the token slice produced by Lex and builds an AST.
//
// Grammar:
//
//	expr       = equality
//	equality   = relational ("==" relational | "!=" relational)*
//	relational = add ("<" add | "<=" add | ">" add | ">=" add)*
//	add        = mul ("+" mul | "-" mul)*
//	mul        = unary ("*" unary | "/" unary)*
//	unary      = ("+" | "-")? primary
//	primary    = num | "(" expr ")"
//
// Every binary level is left-associative.
type Parser struct {
	tokens []Token
	pos    int
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		end := 0
		if n := len(p.tokens); n > 0 {
			end = p.tokens[n-1].Pos
		}
		return Token{Kind: EOF, Pos: end}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

// consume advances past the current token if it is the reserved word op.
// On a mismatch the cursor is left where it was.
func (p *Parser) consume(op string) bool {
	tok := p.peek()
	if tok.Kind != RESERVED || tok.Lexeme != op {
		return false
	}
	p.advance()
	return true
}

// expect is consume that fails with a diagnostic at the current token.
func (p *Parser) expect(op string) error {
	if !p.consume(op) {
		return diag.Errorf(diag.Parse, p.peek().Pos, "expected '%s'", op)
	}
	return nil
}

// expectNumber consumes a NUM token and returns its value.
func (p *Parser) expectNumber() (int64, error) {
	tok := p.peek()
	if tok.Kind != NUM {
		return 0, diag.Errorf(diag.Parse, tok.Pos, "expected a number")
	}
	p.advance()
	return tok.Val, nil
}

func (p *Parser) parseExpr() (*Node, error) {
	return p.parseEquality()
}

// parseEquality handles == and !=
func (p *Parser) parseEquality() (*Node, error) {
	node, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		pos := p.peek().Pos
		var kind NodeKind
		switch {
		case p.consume("=="):
			kind = ND_EQ
		case p.consume("!="):
			kind = ND_NE
		default:
			return node, nil
		}
		rhs, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		node = newBinary(kind, node, rhs, pos)
	}
}

// parseRelational handles < <= > >=. The last two are stored with their
// operands swapped so only ND_LT and ND_LE exist.
func (p *Parser) parseRelational() (*Node, error) {
	node, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	for {
		pos := p.peek().Pos
		var kind NodeKind
		swap := false
		switch {
		case p.consume("<"):
			kind = ND_LT
		case p.consume("<="):
			kind = ND_LE
		case p.consume(">"):
			kind, swap = ND_LT, true
		case p.consume(">="):
			kind, swap = ND_LE, true
		default:
			return node, nil
		}
		rhs, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		if swap {
			node = newBinary(kind, rhs, node, pos)
		} else {
			node = newBinary(kind, node, rhs, pos)
		}
	}
}

// parseAdd handles binary + and -
func (p *Parser) parseAdd() (*Node, error) {
	node, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		pos := p.peek().Pos
		var kind NodeKind
		switch {
		case p.consume("+"):
			kind = ND_ADD
		case p.consume("-"):
			kind = ND_SUB
		default:
			return node, nil
		}
		rhs, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		node = newBinary(kind, node, rhs, pos)
	}
}

// parseMul handles * and /
func (p *Parser) parseMul() (*Node, error) {
	node, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		pos := p.peek().Pos
		var kind NodeKind
		switch {
		case p.consume("*"):
			kind = ND_MUL
		case p.consume("/"):
			kind = ND_DIV
		default:
			return node, nil
		}
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		node = newBinary(kind, node, rhs, pos)
	}
}

// parseUnary handles a single optional sign. -x becomes 0 - x.
func (p *Parser) parseUnary() (*Node, error) {
	pos := p.peek().Pos
	if p.consume("+") {
		return p.parsePrimary()
	}
	if p.consume("-") {
		operand, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return newBinary(ND_SUB, newNum(0, pos), operand, pos), nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (*Node, error) {
	if p.consume("(") {
		node, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return node, nil
	}

	pos := p.peek().Pos
	val, err := p.expectNumber()
	if err != nil {
		return nil, err
	}
	return newNum(val, pos), nil
}

// Parse builds the AST for exactly one expression. Any token left over after
// the expression is an error; no partial tree is ever returned.
func Parse(tokens []Token) (*Node, error) {
	p := NewParser(tokens)
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != EOF {
		return nil, diag.Errorf(diag.Parse, tok.Pos, "unexpected token '%s'", tok.Lexeme)
	}
	return node, nil
}
