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
	"reflect"
	"sort"

	"github.com/bytedance/sonic"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/openeo-go/openeo/formula"
	"github.com/openeo-go/openeo/schema"
)

// ArgumentKind enumerates the forms a normalized argument can take.
type ArgumentKind uint8

// Argument kinds.
const (
	// LiteralArgument is a plain JSON value.
	LiteralArgument ArgumentKind = iota
	// NodeArgument references the result of another node.
	NodeArgument
	// ParameterArgument references a graph or callback parameter.
	ParameterArgument
	// CallbackArgument is a child process graph.
	CallbackArgument
	// ListArgument is a list whose items are normalized arguments.
	ListArgument
	// ObjectArgument is an object whose values are normalized arguments.
	ObjectArgument
)

var argumentKindNames = map[ArgumentKind]string{
	LiteralArgument:   "literal",
	NodeArgument:      "node",
	ParameterArgument: "parameter",
	CallbackArgument:  "callback",
	ListArgument:      "list",
	ObjectArgument:    "object",
}

func (k ArgumentKind) String() string {
	if name, ok := argumentKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ArgumentKind(%d)", k)
}

// Callback builds the child process graph of a callback argument.
//
// It receives the builder of the child graph and the parameters the process hands to the callback,
// in declaration order, and returns the node that produces the callback result. The node must be
// created on the given builder.
type Callback func(b *Builder, params ...*Parameter) (*Node, error)

// Formula is an arithmetic expression used as an argument value. It is compiled into a
// child process graph, e.g. Named{"reducer": Formula("$B4 - $B8")}.
type Formula string

// Argument is a normalized argument value. Exactly one of its accessors is meaningful, selected by Kind.
type Argument struct {
	kind     ArgumentKind
	literal  any
	node     *Node
	param    *Parameter
	callback *Builder
	items    []*Argument
	fields   *orderedmap.OrderedMap[string, *Argument]
}

// Kind returns the argument kind.
func (a *Argument) Kind() ArgumentKind { return a.kind }

// Literal returns the value of a literal argument.
func (a *Argument) Literal() any { return a.literal }

// Node returns the referenced node of a node argument.
func (a *Argument) Node() *Node { return a.node }

// Parameter returns the referenced parameter of a parameter argument.
func (a *Argument) Parameter() *Parameter { return a.param }

// Callback returns the child graph builder of a callback argument.
func (a *Argument) Callback() *Builder { return a.callback }

// Items returns the items of a list argument.
func (a *Argument) Items() []*Argument { return a.items }

// Fields returns the fields of an object argument.
func (a *Argument) Fields() *orderedmap.OrderedMap[string, *Argument] { return a.fields }

func literal(v any) *Argument {
	return &Argument{kind: LiteralArgument, literal: v}
}

// normalize converts a raw argument value into its normalized form.
// owner is the node under construction and name the top-level argument the value belongs to,
// which together select the callback signature of nested callbacks.
func (b *Builder) normalize(owner *Node, name string, value any) (*Argument, error) {
	switch v := value.(type) {
	case nil:
		return literal(nil), nil
	case *Argument:
		if v == nil {
			return literal(nil), nil
		}
		return b.reuseArgument(owner, name, v)
	case *Node:
		if v == nil {
			return literal(nil), nil
		}
		if !b.canReference(v) {
			return nil, fmt.Errorf("%w: node '%s' (%s) is not visible from this graph", ErrForeignNode, v.id, v.processID)
		}
		return &Argument{kind: NodeArgument, node: v}, nil
	case *Parameter:
		if v == nil {
			return literal(nil), nil
		}
		if !v.IsCallback() {
			if err := b.useGraphParameter(v); err != nil {
				return nil, err
			}
		}
		return &Argument{kind: ParameterArgument, param: v}, nil
	case Callback:
		if v == nil {
			return literal(nil), nil
		}
		return b.callbackArgument(owner, name, v)
	case func(*Builder, ...*Parameter) (*Node, error):
		if v == nil {
			return literal(nil), nil
		}
		return b.callbackArgument(owner, name, v)
	case Formula:
		return b.formulaArgument(owner, name, string(v))
	case *orderedmap.OrderedMap[string, any]:
		if v == nil {
			return literal(nil), nil
		}
		fields := orderedmap.New[string, *Argument](v.Len())
		for pair := v.Oldest(); pair != nil; pair = pair.Next() {
			item, err := b.normalize(owner, name, pair.Value)
			if err != nil {
				return nil, fmt.Errorf("field '%s': %w", pair.Key, err)
			}
			fields.Set(pair.Key, item)
		}
		return &Argument{kind: ObjectArgument, fields: fields}, nil
	case string, bool, float64, float32, int, int64, int32, uint, uint64, uint32, []byte,
		*schema.FromNode, *schema.FromParameter, *schema.SubProcess:
		return literal(v), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return literal(nil), nil
		}
		items := make([]*Argument, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := b.normalize(owner, name, rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			items[i] = item
		}
		return &Argument{kind: ListArgument, items: items}, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return literal(value), nil
		}
		if rv.IsNil() {
			return literal(nil), nil
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		fields := orderedmap.New[string, *Argument](len(keys))
		for _, k := range keys {
			item, err := b.normalize(owner, name, rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
			if err != nil {
				return nil, fmt.Errorf("field '%s': %w", k, err)
			}
			fields.Set(k, item)
		}
		return &Argument{kind: ObjectArgument, fields: fields}, nil
	default:
		return literal(value), nil
	}
}

// reuseArgument checks an already normalized argument against this builder's scope. Node and
// parameter references are normalized again, and a callback graph stays with the node argument
// it was built for.
func (b *Builder) reuseArgument(owner *Node, name string, a *Argument) (*Argument, error) {
	switch a.kind {
	case NodeArgument:
		return b.normalize(owner, name, a.node)
	case ParameterArgument:
		return b.normalize(owner, name, a.param)
	case CallbackArgument:
		if a.callback.parent != owner || a.callback.parentArgument != name {
			return nil, fmt.Errorf("%w: callback graph of argument '%s' belongs to another node",
				ErrForeignNode, a.callback.parentArgument)
		}
		return a, nil
	case ListArgument:
		items := make([]*Argument, len(a.items))
		for i, item := range a.items {
			reused, err := b.reuseArgument(owner, name, item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			items[i] = reused
		}
		return &Argument{kind: ListArgument, items: items}, nil
	case ObjectArgument:
		fields := orderedmap.New[string, *Argument](a.fields.Len())
		for pair := a.fields.Oldest(); pair != nil; pair = pair.Next() {
			reused, err := b.reuseArgument(owner, name, pair.Value)
			if err != nil {
				return nil, fmt.Errorf("field '%s': %w", pair.Key, err)
			}
			fields.Set(pair.Key, reused)
		}
		return &Argument{kind: ObjectArgument, fields: fields}, nil
	default:
		return a, nil
	}
}

func (b *Builder) callbackArgument(owner *Node, name string, fn Callback) (*Argument, error) {
	child := b.newChild(owner, name)

	names := child.CallbackParameterNames()
	params := make([]*Parameter, len(names))
	for i, n := range names {
		params[i] = child.CallbackParameter(n)
	}

	result, err := fn(child, params...)
	if err != nil {
		return nil, fmt.Errorf("callback '%s': %w", name, err)
	}
	if result == nil {
		return nil, fmt.Errorf("callback '%s': %w", name, ErrNoResult)
	}
	if result.builder != child {
		return nil, fmt.Errorf("callback '%s': %w: result node '%s' was not created by the callback builder",
			name, ErrForeignNode, result.id)
	}
	if err = child.SetResult(result); err != nil {
		return nil, err
	}
	return &Argument{kind: CallbackArgument, callback: child}, nil
}

func (b *Builder) formulaArgument(owner *Node, name, expr string) (*Argument, error) {
	tree, err := formula.Parse(expr)
	if err != nil {
		return nil, err
	}

	child := b.newChild(owner, name)
	result, err := child.compileTree(tree)
	if err != nil {
		return nil, err
	}
	if err = child.SetResult(result); err != nil {
		return nil, err
	}
	return &Argument{kind: CallbackArgument, callback: child}, nil
}

// serialize returns the wire form of the argument.
func (a *Argument) serialize() (any, error) {
	switch a.kind {
	case NodeArgument:
		return a.node.Ref(), nil
	case ParameterArgument:
		return a.param.Ref(), nil
	case CallbackArgument:
		graph, err := a.callback.serializeGraph()
		if err != nil {
			return nil, err
		}
		return &schema.SubProcess{ProcessGraph: graph}, nil
	case ListArgument:
		items := make([]any, len(a.items))
		for i, item := range a.items {
			v, err := item.serialize()
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return items, nil
	case ObjectArgument:
		fields := orderedmap.New[string, any](a.fields.Len())
		for pair := a.fields.Oldest(); pair != nil; pair = pair.Next() {
			v, err := pair.Value.serialize()
			if err != nil {
				return nil, err
			}
			fields.Set(pair.Key, v)
		}
		return fields, nil
	default:
		if err := checkSerializable(a.literal); err != nil {
			return nil, err
		}
		return a.literal, nil
	}
}

func checkSerializable(v any) error {
	if v == nil {
		return nil
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Func, reflect.Chan, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return fmt.Errorf("%w: %T", ErrNotSerializable, v)
	}
	if _, err := sonic.Marshal(v); err != nil {
		return fmt.Errorf("%w: %T: %v", ErrNotSerializable, v, err)
	}
	return nil
}
