/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package formula

import (
	"strconv"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokVariable
	tokOperator
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool { return isNameStart(c) || isDigit(c) }

// tokenize splits the formula into tokens. The returned slice always ends with a tokEOF token.
func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '+' || c == '-' || c == '*' || c == '/' || c == '^':
			toks = append(toks, token{kind: tokOperator, text: string(c), pos: i})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case isDigit(c) || c == '.':
			end, err := scanNumber(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokNumber, text: src[i:end], pos: i})
			i = end
		case c == '$':
			end := i + 1
			for end < len(src) && isNameChar(src[end]) {
				end++
			}
			if end == i+1 {
				return nil, &SyntaxError{Pos: i, Token: "$", Msg: "expected a label or index after '$'"}
			}
			toks = append(toks, token{kind: tokVariable, text: src[i:end], pos: i})
			i = end
		case isNameStart(c):
			end := i + 1
			for end < len(src) && isNameChar(src[end]) {
				end++
			}
			toks = append(toks, token{kind: tokVariable, text: src[i:end], pos: i})
			i = end
		default:
			return nil, &SyntaxError{Pos: i, Token: string(c), Msg: "unknown token"}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func scanNumber(src string, start int) (int, error) {
	i := start
	digits := 0
	for i < len(src) && isDigit(src[i]) {
		i++
		digits++
	}
	if i < len(src) && src[i] == '.' {
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, &SyntaxError{Pos: start, Token: src[start:i], Msg: "malformed number"}
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			for j < len(src) && isDigit(src[j]) {
				j++
			}
			i = j
		}
	}
	if i < len(src) && isNameStart(src[i]) {
		end := i
		for end < len(src) && isNameChar(src[end]) {
			end++
		}
		return 0, &SyntaxError{Pos: start, Token: src[start:end], Msg: "malformed number"}
	}
	return i, nil
}

type parser struct {
	toks []token
	cur  int
}

// Parse parses a formula into an expression tree.
// It fails with a *SyntaxError naming the offending token and its position.
func Parse(src string) (Expr, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if p.peek().kind == tokEOF {
		return nil, syntaxError(p.peek(), "empty expression")
	}

	e, err := p.parseBinary(precAdditive)
	if err != nil {
		return nil, err
	}

	switch tok := p.peek(); tok.kind {
	case tokEOF:
		return e, nil
	case tokRParen:
		return nil, syntaxError(tok, "unbalanced parentheses: no matching '('")
	default:
		return nil, syntaxError(tok, "unexpected token after expression")
	}
}

const (
	precAdditive = iota + 1
	precMultiplicative
)

func binaryPrecedence(tok token) int {
	if tok.kind != tokOperator {
		return 0
	}
	switch Operator(tok.text[0]) {
	case Add, Subtract:
		return precAdditive
	case Multiply, Divide:
		return precMultiplicative
	default:
		return 0
	}
}

func (p *parser) peek() token {
	return p.toks[p.cur]
}

func (p *parser) next() token {
	tok := p.toks[p.cur]
	if tok.kind != tokEOF {
		p.cur++
	}
	return tok
}

// parseBinary implements precedence climbing for the left-associative operators.
func (p *parser) parseBinary(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		prec := binaryPrecedence(tok)
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		p.next()

		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: Operator(tok.text[0]), X: left, Y: right, pos: tok.pos}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	tok := p.peek()
	if tok.kind == tokOperator && Operator(tok.text[0]) == Subtract {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: Subtract, X: x, pos: tok.pos}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	if tok.kind != tokOperator || Operator(tok.text[0]) != Power {
		return base, nil
	}
	p.next()

	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &Binary{Op: Power, X: base, Y: exp, pos: tok.pos}, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, syntaxError(tok, "malformed number")
		}
		return &Number{Value: v, Literal: tok.text, pos: tok.pos}, nil
	case tokVariable:
		if tok.text[0] == '$' {
			return &Variable{Name: tok.text[1:], Dollar: true, pos: tok.pos}, nil
		}
		return &Variable{Name: tok.text, pos: tok.pos}, nil
	case tokLParen:
		if p.peek().kind == tokRParen {
			return nil, syntaxError(p.peek(), "empty parentheses")
		}
		x, err := p.parseBinary(precAdditive)
		if err != nil {
			return nil, err
		}
		closing := p.next()
		if closing.kind != tokRParen {
			if closing.kind == tokEOF {
				return nil, syntaxError(tok, "unbalanced parentheses: missing ')'")
			}
			return nil, syntaxError(closing, "expected ')'")
		}
		return &Paren{X: x, pos: tok.pos}, nil
	case tokEOF:
		return nil, syntaxError(tok, "unexpected end of expression, expected an operand")
	case tokOperator:
		return nil, syntaxError(tok, "operator '%s' where an operand is expected", tok.text)
	default:
		return nil, syntaxError(tok, "unexpected '%s' where an operand is expected", tok.text)
	}
}
