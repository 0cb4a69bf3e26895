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

package schema

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ProcessGraph is the wire form of a process graph: node id -> node, kept in insertion order.
type ProcessGraph = orderedmap.OrderedMap[string, *GraphNode]

// NewProcessGraph creates an empty process graph.
func NewProcessGraph() *ProcessGraph {
	return orderedmap.New[string, *GraphNode]()
}

// GraphNode is the wire form of a single process call.
//
// Argument values are JSON literals, *FromNode, *FromParameter, *SubProcess, or lists/objects of those.
type GraphNode struct {
	ProcessID   string                              `json:"process_id"`
	Namespace   string                              `json:"namespace,omitempty"`
	Arguments   *orderedmap.OrderedMap[string, any] `json:"arguments"`
	Description string                              `json:"description,omitempty"`
	Result      bool                                `json:"result,omitempty"`
}

// FromNode references the result of another node of the same process graph.
type FromNode struct {
	FromNode string `json:"from_node"`
}

// FromParameter references a parameter of the process graph or of the enclosing callback.
type FromParameter struct {
	FromParameter string `json:"from_parameter"`
}

// SubProcess embeds a child process graph as an argument value (callback).
type SubProcess struct {
	ProcessGraph *ProcessGraph `json:"process_graph"`
}

// UserProcess is a process graph together with its process metadata,
// the document accepted by the validation, synchronous processing and stored process graph endpoints.
type UserProcess struct {
	ProcessGraph *ProcessGraph `json:"process_graph"`

	ID           string                       `json:"id,omitempty"`
	Summary      string                       `json:"summary,omitempty"`
	Description  string                       `json:"description,omitempty"`
	Categories   []string                     `json:"categories,omitempty"`
	Parameters   []*ProcessParameter          `json:"parameters,omitempty"`
	Returns      *ProcessReturn               `json:"returns,omitempty"`
	Deprecated   bool                         `json:"deprecated,omitempty"`
	Experimental bool                         `json:"experimental,omitempty"`
	Exceptions   map[string]*ProcessException `json:"exceptions,omitempty"`
	Examples     []*ProcessExample            `json:"examples,omitempty"`
	Links        []*Link                      `json:"links,omitempty"`
}

// ResultNode returns the id and node flagged as result, if any.
func (u *UserProcess) ResultNode() (string, *GraphNode, bool) {
	if u == nil || u.ProcessGraph == nil {
		return "", nil, false
	}
	for pair := u.ProcessGraph.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value != nil && pair.Value.Result {
			return pair.Key, pair.Value, true
		}
	}
	return "", nil, false
}
