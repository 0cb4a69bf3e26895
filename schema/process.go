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
	"bytes"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/eino-contrib/jsonschema"
)

// SubtypeProcessGraph is the schema subtype of parameters that accept a child process graph (callback).
const SubtypeProcessGraph = "process-graph"

// Process describes one operation offered by a back-end, as listed by its process catalog.
type Process struct {
	// ID is the unique name of the process, e.g. "reduce_dimension".
	ID string `json:"id"`
	// Summary is a short one-line description.
	Summary string `json:"summary,omitempty"`
	// Description is the detailed description, usually CommonMark.
	Description string `json:"description,omitempty"`
	// Categories groups processes for presentation purposes.
	Categories []string `json:"categories,omitempty"`
	// Parameters are the declared parameters, in the order positional arguments bind to them.
	Parameters []*ProcessParameter `json:"parameters,omitempty"`
	// Returns describes the result of the process.
	Returns *ProcessReturn `json:"returns,omitempty"`

	Deprecated   bool `json:"deprecated,omitempty"`
	Experimental bool `json:"experimental,omitempty"`

	Exceptions map[string]*ProcessException `json:"exceptions,omitempty"`
	Examples   []*ProcessExample            `json:"examples,omitempty"`
	Links      []*Link                      `json:"links,omitempty"`
}

// Parameter returns the declared parameter with the given name.
func (p *Process) Parameter(name string) (*ProcessParameter, bool) {
	if p == nil {
		return nil, false
	}
	for _, param := range p.Parameters {
		if param != nil && param.Name == name {
			return param, true
		}
	}
	return nil, false
}

// ParameterNames returns the names of the declared parameters in declaration order.
func (p *Process) ParameterNames() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.Parameters))
	for _, param := range p.Parameters {
		if param != nil {
			names = append(names, param.Name)
		}
	}
	return names
}

// ProcessParameter describes a parameter of a process, or a parameter of a user-defined process graph.
type ProcessParameter struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Schema      DataSchemas `json:"schema,omitempty"`
	// Optional parameters may be omitted by callers. Parameters are required by default.
	Optional bool `json:"optional,omitempty"`
	// Default is the value used by the back-end when an optional parameter is omitted.
	Default any `json:"default,omitempty"`

	Deprecated   bool `json:"deprecated,omitempty"`
	Experimental bool `json:"experimental,omitempty"`
}

// Required reports whether callers must provide the parameter.
func (p *ProcessParameter) Required() bool {
	return !p.Optional
}

// ProcessReturn describes the return value of a process.
type ProcessReturn struct {
	Description string      `json:"description,omitempty"`
	Schema      DataSchemas `json:"schema,omitempty"`
}

// ProcessException describes an error a process may raise.
type ProcessException struct {
	Description string `json:"description,omitempty"`
	Message     string `json:"message"`
	HTTP        int    `json:"http,omitempty"`
}

// ProcessExample is an example call of a process.
type ProcessExample struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Arguments   map[string]any `json:"arguments,omitempty"`
	Returns     any            `json:"returns,omitempty"`
}

// Link is a related resource.
type Link struct {
	Rel   string `json:"rel,omitempty"`
	Href  string `json:"href"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// DataSchema is a JSON Schema extended with the process-specific keywords "subtype" and "parameters".
// The standard keywords live in the embedded *jsonschema.Schema.
//
// A schema with Subtype SubtypeProcessGraph describes a callback; its Parameters are the
// parameters the callback receives from the enclosing process, e.g. "x" and "context" for apply.
type DataSchema struct {
	*jsonschema.Schema

	Subtype    string
	Parameters []*ProcessParameter
}

type dataSchemaExtras struct {
	Subtype    string              `json:"subtype,omitempty"`
	Parameters []*ProcessParameter `json:"parameters,omitempty"`
}

// NewCallbackSchema creates a process-graph schema whose callback receives the given parameters.
func NewCallbackSchema(params ...*ProcessParameter) *DataSchema {
	return &DataSchema{
		Schema:     &jsonschema.Schema{Type: "object"},
		Subtype:    SubtypeProcessGraph,
		Parameters: params,
	}
}

// IsCallback reports whether the schema describes a child process graph.
func (d *DataSchema) IsCallback() bool {
	return d != nil && d.Subtype == SubtypeProcessGraph
}

// UnmarshalJSON decodes the standard keywords into the embedded schema and the process keywords into Subtype and Parameters.
func (d *DataSchema) UnmarshalJSON(data []byte) error {
	s := &jsonschema.Schema{}
	if err := s.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("decode data schema: %w", err)
	}
	d.Schema = s

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		// boolean schema
		return nil
	}

	extras := &dataSchemaExtras{}
	if err := sonic.Unmarshal(trimmed, extras); err != nil {
		return fmt.Errorf("decode data schema extras: %w", err)
	}
	d.Subtype = extras.Subtype
	d.Parameters = extras.Parameters
	return nil
}

// MarshalJSON encodes the schema with the process keywords merged into the JSON Schema object.
func (d DataSchema) MarshalJSON() ([]byte, error) {
	base := []byte("{}")
	if d.Schema != nil {
		b, err := d.Schema.MarshalJSON()
		if err != nil {
			return nil, err
		}
		base = b
	}
	if d.Subtype == "" && len(d.Parameters) == 0 {
		return base, nil
	}

	obj := map[string]any{}
	if !bytes.Equal(base, []byte("true")) {
		if err := sonic.Unmarshal(base, &obj); err != nil {
			return nil, err
		}
	}
	if d.Subtype != "" {
		obj["subtype"] = d.Subtype
	}
	if len(d.Parameters) > 0 {
		obj["parameters"] = d.Parameters
	}
	return sonic.Marshal(obj)
}

// DataSchemas is a list of alternative schemas. On the wire it is either a single schema object or an array of them.
type DataSchemas []*DataSchema

// UnmarshalJSON accepts a single schema or an array of schemas.
func (s *DataSchemas) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*s = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []*DataSchema
		if err := sonic.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*s = list
		return nil
	}

	one := &DataSchema{}
	if err := one.UnmarshalJSON(trimmed); err != nil {
		return err
	}
	*s = DataSchemas{one}
	return nil
}

// MarshalJSON writes a single schema as an object and several as an array.
func (s DataSchemas) MarshalJSON() ([]byte, error) {
	if len(s) == 1 && s[0] != nil {
		return s[0].MarshalJSON()
	}
	return sonic.Marshal([]*DataSchema(s))
}

// CallbackParameters returns the parameters of the first process-graph schema in the list.
// ok is false when none of the schemas describes a callback.
func (s DataSchemas) CallbackParameters() (params []*ProcessParameter, ok bool) {
	for _, d := range s {
		if d.IsCallback() {
			return d.Parameters, true
		}
	}
	return nil, false
}
