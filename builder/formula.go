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

package builder

import (
	"fmt"

	"github.com/openeo-go/openeo/formula"
)

type operatorProcess struct {
	process     string
	left, right string
}

var operatorProcesses = map[formula.Operator]operatorProcess{
	formula.Add:      {process: "add", left: "x", right: "y"},
	formula.Subtract: {process: "subtract", left: "x", right: "y"},
	formula.Multiply: {process: "multiply", left: "x", right: "y"},
	formula.Divide:   {process: "divide", left: "x", right: "y"},
	formula.Power:    {process: "power", left: "base", right: "p"},
}

// CompileFormula compiles an arithmetic expression into nodes of this graph and marks the final
// node as the result.
//
// In a callback graph, names equal to a callback parameter reference that parameter, $N selects
// element N and any other name or $label selects the labeled element of the first callback
// parameter. In the root graph, names reference graph parameters, which are declared on first use.
//
// Compilation is atomic: on error the graph is left as it was.
func (b *Builder) CompileFormula(expr string) (*Node, error) {
	tree, err := formula.Parse(expr)
	if err != nil {
		return nil, err
	}

	cp := b.checkpoint()
	n, err := b.compileTree(tree)
	if err != nil {
		b.restore(cp)
		return nil, err
	}
	if err = b.SetResult(n); err != nil {
		b.restore(cp)
		return nil, err
	}
	return n, nil
}

func (b *Builder) compileTree(tree formula.Expr) (*Node, error) {
	c := &formulaCompiler{
		b:      b,
		names:  b.CallbackParameterNames(),
		params: make(map[string]*Parameter),
	}
	v, err := c.compile(tree)
	if err != nil {
		return nil, err
	}
	n, ok := v.(*Node)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrFormulaTrivial, tree)
	}
	return n, nil
}

type formulaCompiler struct {
	b     *Builder
	names []string
	// params holds the graph parameters referenced in the root scope, one per name.
	params map[string]*Parameter
}

// compile returns a float64, a *Parameter or a *Node.
func (c *formulaCompiler) compile(e formula.Expr) (any, error) {
	switch x := formula.Unwrap(e).(type) {
	case *formula.Number:
		return x.Value, nil
	case *formula.Variable:
		return c.variable(x)
	case *formula.Unary:
		v, err := c.compile(x.X)
		if err != nil {
			return nil, err
		}
		if f, ok := v.(float64); ok {
			return -f, nil
		}
		return c.b.Call("multiply", Named{"x": -1, "y": v})
	case *formula.Binary:
		left, err := c.compile(x.X)
		if err != nil {
			return nil, err
		}
		right, err := c.compile(x.Y)
		if err != nil {
			return nil, err
		}
		op, ok := operatorProcesses[x.Op]
		if !ok {
			return nil, fmt.Errorf("unsupported operator '%s'", x.Op)
		}
		return c.b.Call(op.process, Named{op.left: left, op.right: right})
	default:
		return nil, fmt.Errorf("unsupported expression %T", e)
	}
}

func (c *formulaCompiler) variable(v *formula.Variable) (any, error) {
	if len(c.names) == 0 {
		if v.IsIndex() {
			return nil, fmt.Errorf("%w: '%s' selects an array element, which requires a callback", ErrFormulaScope, v)
		}
		p, ok := c.params[v.Name]
		if !ok {
			p = NewParameter(v.Name)
			c.params[v.Name] = p
		}
		return p, nil
	}

	if !v.Dollar {
		for _, name := range c.names {
			if name == v.Name {
				return c.b.CallbackParameter(name), nil
			}
		}
	}

	data := c.b.CallbackParameter(c.names[0])
	if idx, ok := v.Index(); ok {
		return c.b.Call("array_element", Named{"data": data, "index": idx})
	}
	return c.b.Call("array_element", Named{"data": data, "label": v.Name})
}
