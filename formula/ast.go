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
	"fmt"
	"strconv"
)

// Operator is an arithmetic operator.
type Operator byte

// Supported operators.
const (
	Add      Operator = '+'
	Subtract Operator = '-'
	Multiply Operator = '*'
	Divide   Operator = '/'
	Power    Operator = '^'
)

func (o Operator) String() string {
	return string(o)
}

// Expr is a node of the expression tree.
type Expr interface {
	// Pos returns the byte offset of the expression in the formula.
	Pos() int
	// String renders the expression fully parenthesized.
	String() string

	expr()
}

// Number is a numeric literal.
type Number struct {
	Value   float64
	Literal string
	pos     int
}

// Variable references a value of the data context or a parameter.
type Variable struct {
	// Name is the variable name without the "$" prefix.
	Name string
	// Dollar is set for "$"-prefixed references.
	Dollar bool
	pos    int
}

// Unary is a negation.
type Unary struct {
	Op  Operator
	X   Expr
	pos int
}

// Binary is an operation with two operands.
type Binary struct {
	Op   Operator
	X, Y Expr
	pos  int
}

// Paren is a parenthesized sub-expression.
type Paren struct {
	X   Expr
	pos int
}

func (n *Number) Pos() int   { return n.pos }
func (v *Variable) Pos() int { return v.pos }
func (u *Unary) Pos() int    { return u.pos }
func (b *Binary) Pos() int   { return b.pos }
func (p *Paren) Pos() int    { return p.pos }

func (n *Number) String() string {
	if n.Literal != "" {
		return n.Literal
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (v *Variable) String() string {
	if v.Dollar {
		return "$" + v.Name
	}
	return v.Name
}

func (u *Unary) String() string { return fmt.Sprintf("(%s%s)", u.Op, u.X) }
func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.X, b.Op, b.Y)
}
func (p *Paren) String() string { return p.X.String() }

func (*Number) expr()   {}
func (*Variable) expr() {}
func (*Unary) expr()    {}
func (*Binary) expr()   {}
func (*Paren) expr()    {}

// IsIndex reports whether the variable is a "$"-prefixed numeric index such as $0.
func (v *Variable) IsIndex() bool {
	if !v.Dollar || v.Name == "" {
		return false
	}
	for i := 0; i < len(v.Name); i++ {
		if v.Name[i] < '0' || v.Name[i] > '9' {
			return false
		}
	}
	return true
}

// Index returns the numeric value of an index reference.
func (v *Variable) Index() (int, bool) {
	if !v.IsIndex() {
		return 0, false
	}
	i, err := strconv.Atoi(v.Name)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Unwrap strips any enclosing parentheses.
func Unwrap(e Expr) Expr {
	for {
		p, ok := e.(*Paren)
		if !ok {
			return e
		}
		e = p.X
	}
}
