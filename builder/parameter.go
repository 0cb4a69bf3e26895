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
	"github.com/openeo-go/openeo/schema"
)

// Parameter is a named placeholder for a value supplied when the process graph is executed.
//
// Graph parameters are created with NewParameter and are declared on the root graph the first time
// they are used as an argument. Callback parameters are minted by Builder.CallbackParameter for the
// values a process hands to its callback; they are never declared.
type Parameter struct {
	name         string
	description  string
	schema       schema.DataSchemas
	defaultValue any
	hasDefault   bool

	// owner is the builder that minted a callback parameter, nil for graph parameters.
	owner *Builder
}

// ParameterOption configures a graph parameter.
type ParameterOption func(p *Parameter)

// WithParameterDescription sets the description of the parameter.
func WithParameterDescription(description string) ParameterOption {
	return func(p *Parameter) {
		p.description = description
	}
}

// WithParameterSchema sets the accepted data types of the parameter.
func WithParameterSchema(schemas ...*schema.DataSchema) ParameterOption {
	return func(p *Parameter) {
		p.schema = append(p.schema, schemas...)
	}
}

// WithParameterDefault makes the parameter optional with the given default value.
func WithParameterDefault(value any) ParameterOption {
	return func(p *Parameter) {
		p.defaultValue = value
		p.hasDefault = true
	}
}

// NewParameter creates a graph parameter.
func NewParameter(name string, opts ...ParameterOption) *Parameter {
	p := &Parameter{name: name}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// IsCallback reports whether the parameter was minted for a callback scope.
func (p *Parameter) IsCallback() bool {
	return p.owner != nil
}

// Builder returns the builder that minted a callback parameter, or nil for graph parameters.
func (p *Parameter) Builder() *Builder {
	return p.owner
}

// Ref returns the wire form of a reference to the parameter.
func (p *Parameter) Ref() *schema.FromParameter {
	return &schema.FromParameter{FromParameter: p.name}
}

// Descriptor returns the declaration of the parameter.
func (p *Parameter) Descriptor() *schema.ProcessParameter {
	d := &schema.ProcessParameter{
		Name:        p.name,
		Description: p.description,
		Optional:    p.hasDefault,
	}
	if len(p.schema) > 0 {
		d.Schema = append(schema.DataSchemas{}, p.schema...)
	}
	if p.hasDefault {
		d.Default = p.defaultValue
	}
	return d
}

// mergeParameter returns a copy of old with the non-empty fields of update applied.
func mergeParameter(old, update *schema.ProcessParameter) *schema.ProcessParameter {
	merged := *old
	if update.Description != "" {
		merged.Description = update.Description
	}
	if len(update.Schema) > 0 {
		merged.Schema = update.Schema
	}
	if update.Optional {
		merged.Optional = true
	}
	if update.Default != nil {
		merged.Default = update.Default
	}
	if update.Deprecated {
		merged.Deprecated = true
	}
	if update.Experimental {
		merged.Experimental = true
	}
	return &merged
}
