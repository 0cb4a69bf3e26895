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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrecedence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2 + 3 * 4", "(2 + (3 * 4))"},
		{"(2 + 3) * 4", "((2 + 3) * 4)"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"8 / 4 / 2", "((8 / 4) / 2)"},
		{"2.5 * ((a - b) / c)", "(2.5 * ((a - b) / c))"},
		{"-a * b", "((-a) * b)"},
		{"a - -b", "(a - (-b))"},
		{"2 ^ 3 ^ 2", "(2 ^ (3 ^ 2))"},
		{"-2 ^ 2", "(-(2 ^ 2))"},
		{"2 ^ -1", "(2 ^ (-1))"},
		{"$B08 - $B04", "($B08 - $B04)"},
		{"$0 + 1e3", "($0 + 1e3)"},
		{"  x  ", "x"},
		{".5*x", "(.5 * x)"},
	}

	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			e, err := Parse(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.want, e.String())
		})
	}
}

func TestParseTree(t *testing.T) {
	e, err := Parse("2 + 3 * 4")
	require.NoError(t, err)

	add, ok := e.(*Binary)
	require.True(t, ok)
	assert.Equal(t, Add, add.Op)
	assert.Equal(t, 2, add.Pos())

	two, ok := add.X.(*Number)
	require.True(t, ok)
	assert.Equal(t, 2.0, two.Value)

	mul, ok := add.Y.(*Binary)
	require.True(t, ok)
	assert.Equal(t, Multiply, mul.Op)
	assert.Equal(t, 3.0, mul.X.(*Number).Value)
	assert.Equal(t, 4.0, mul.Y.(*Number).Value)
}

func TestParseVariables(t *testing.T) {
	e, err := Parse("$3 + $nir + red")
	require.NoError(t, err)

	outer := e.(*Binary)
	inner := outer.X.(*Binary)

	idx := inner.X.(*Variable)
	assert.True(t, idx.Dollar)
	assert.True(t, idx.IsIndex())
	i, ok := idx.Index()
	assert.True(t, ok)
	assert.Equal(t, 3, i)

	label := inner.Y.(*Variable)
	assert.True(t, label.Dollar)
	assert.False(t, label.IsIndex())
	assert.Equal(t, "nir", label.Name)

	bare := outer.Y.(*Variable)
	assert.False(t, bare.Dollar)
	assert.False(t, bare.IsIndex())
	assert.Equal(t, "red", bare.Name)
}

func TestParseParenUnwrap(t *testing.T) {
	e, err := Parse("((x))")
	require.NoError(t, err)
	_, isParen := e.(*Paren)
	assert.True(t, isParen)

	v, ok := Unwrap(e).(*Variable)
	require.True(t, ok)
	assert.Equal(t, "x", v.Name)
}

func TestParseSyntaxErrors(t *testing.T) {
	cases := []struct {
		in    string
		pos   int
		token string
	}{
		{"", 0, ""},
		{"   ", 3, ""},
		{"2 + * 3", 4, "*"},
		{"(2 + 3", 0, "("},
		{"2 + 3)", 5, ")"},
		{"2 +", 3, ""},
		{"2 # 3", 2, "#"},
		{"()", 1, ")"},
		{"2 3", 2, "3"},
		{"* 2", 0, "*"},
		{"+2", 0, "+"},
		{"$ + 1", 0, "$"},
		{"2x", 0, "2x"},
		{"(1 + 2) (3)", 8, "("},
	}

	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			_, err := Parse(c.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSyntax))

			var se *SyntaxError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, c.pos, se.Pos)
			assert.Equal(t, c.token, se.Token)
		})
	}
}

func TestSyntaxErrorMessage(t *testing.T) {
	_, err := Parse("2 + * 3")
	assert.EqualError(t, err, "formula syntax error at position 4 near '*': operator '*' where an operand is expected")

	_, err = Parse("")
	assert.EqualError(t, err, "formula syntax error at position 0: empty expression")
}
