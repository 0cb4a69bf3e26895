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

// Package formula parses infix arithmetic formulas such as "2.5 * (($B8 - $B4) / x)" into an
// expression tree.
//
// Grammar, from loosest to tightest binding:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = "-" unary | power
//	power   = primary [ "^" unary ]
//	primary = NUMBER | VARIABLE | "(" expr ")"
//
// "+", "-", "*" and "/" are left-associative, "^" is right-associative.
// A VARIABLE is either a bare name (x, B08, data_1) or a "$"-prefixed label or index ($B08, $0).
package formula

import (
	"errors"
	"fmt"
)

// ErrSyntax is wrapped by every *SyntaxError.
var ErrSyntax = errors.New("formula syntax error")

// SyntaxError reports malformed formula input.
type SyntaxError struct {
	// Pos is the byte offset of the offending token in the formula.
	Pos int
	// Token is the offending token text, empty at end of input.
	Token string
	Msg   string
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%s at position %d: %s", ErrSyntax.Error(), e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s at position %d near '%s': %s", ErrSyntax.Error(), e.Pos, e.Token, e.Msg)
}

// Unwrap allows errors.Is(err, ErrSyntax).
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

func syntaxError(tok token, format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: tok.pos, Token: tok.text, Msg: fmt.Sprintf(format, args...)}
}
