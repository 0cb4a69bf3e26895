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

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/openeo-go/openeo/schema"
)

// Node is a single process invocation inside a process graph.
//
// Nodes are created by Builder.Call and are owned by that builder; they are not safe for
// concurrent use.
type Node struct {
	builder     *Builder
	process     *schema.Process
	id          string
	processID   string
	namespace   string
	description string
	arguments   *orderedmap.OrderedMap[string, *Argument]
	result      bool
}

// ID returns the id of the node, unique within its graph.
func (n *Node) ID() string { return n.id }

// ProcessID returns the id of the invoked process.
func (n *Node) ProcessID() string { return n.processID }

// Namespace returns the namespace of the invoked process, empty for predefined processes.
func (n *Node) Namespace() string { return n.namespace }

// Description returns the node description.
func (n *Node) Description() string { return n.description }

// Describe sets the node description and returns the node.
func (n *Node) Describe(description string) *Node {
	n.description = description
	return n
}

// IsResult reports whether the node produces the result of its graph.
func (n *Node) IsResult() bool { return n.result }

// Builder returns the builder that owns the node.
func (n *Node) Builder() *Builder { return n.builder }

// Process returns the catalog descriptor of the invoked process, or nil if the process is unknown.
func (n *Node) Process() *schema.Process { return n.process }

// Ref returns the wire form of a reference to the node.
func (n *Node) Ref() *schema.FromNode {
	return &schema.FromNode{FromNode: n.id}
}

// Argument returns the normalized argument with the given name.
func (n *Node) Argument(name string) (*Argument, bool) {
	return n.arguments.Get(name)
}

// ArgumentNames returns the argument names in serialization order.
func (n *Node) ArgumentNames() []string {
	names := make([]string, 0, n.arguments.Len())
	for pair := n.arguments.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// SetArgument normalizes value and sets it as the argument name, replacing any previous value in place.
// The node is left unchanged when the value cannot be normalized.
func (n *Node) SetArgument(name string, value any) error {
	b := n.builder
	cp := b.checkpoint()
	arg, err := b.normalize(n, name, value)
	if err != nil {
		b.restore(cp)
		return fmt.Errorf("process '%s', argument '%s': %w", n.processID, name, err)
	}

	if _, exists := n.arguments.Set(name, arg); !exists && n.process != nil {
		if _, declared := n.process.Parameter(name); !declared {
			b.warn(DiagUnknownArgument, n.id, name, "process '%s' has no parameter '%s'", n.processID, name)
		}
	}
	return nil
}

// Serialize returns the wire form of the node.
func (n *Node) Serialize() (*schema.GraphNode, error) {
	arguments := orderedmap.New[string, any](n.arguments.Len())
	for pair := n.arguments.Oldest(); pair != nil; pair = pair.Next() {
		v, err := pair.Value.serialize()
		if err != nil {
			return nil, fmt.Errorf("argument '%s': %w", pair.Key, err)
		}
		arguments.Set(pair.Key, v)
	}
	return &schema.GraphNode{
		ProcessID:   n.processID,
		Namespace:   n.namespace,
		Arguments:   arguments,
		Description: n.description,
		Result:      n.result,
	}, nil
}

// checkArguments records diagnostics for undeclared and missing required arguments.
func (n *Node) checkArguments() {
	if n.process == nil {
		return
	}
	for pair := n.arguments.Oldest(); pair != nil; pair = pair.Next() {
		if _, ok := n.process.Parameter(pair.Key); !ok {
			n.builder.warn(DiagUnknownArgument, n.id, pair.Key, "process '%s' has no parameter '%s'", n.processID, pair.Key)
		}
	}
	for _, p := range n.process.Parameters {
		if p == nil || !p.Required() {
			continue
		}
		if _, ok := n.arguments.Get(p.Name); !ok {
			n.builder.warn(DiagMissingArgument, n.id, p.Name, "required argument '%s' of process '%s' is missing", p.Name, n.processID)
		}
	}
}
