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

// Package catalog holds the read-only set of process descriptors offered by a back-end.
//
// A Catalog is created once, usually from the back-end's process listing, and shared by
// every graph builder created for that back-end. It is never mutated after construction,
// so it can be read from several goroutines at once.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/openeo-go/openeo/schema"
)

var (
	// ErrInvalidCatalog is returned when the catalog input is not a list or object of process descriptors.
	ErrInvalidCatalog = errors.New("invalid process catalog")
	// ErrUnknownProcess is returned when a process id is not part of the catalog.
	ErrUnknownProcess = errors.New("unknown process")
	// ErrNoCallback is returned when a process parameter does not accept a child process graph.
	ErrNoCallback = errors.New("no callback signature")
)

//go:generate  mockgen -destination ../internal/mock/catalog/Source_mock.go --package catalog -source catalog.go

// Source lists the processes of a back-end.
type Source interface {
	ListProcesses(ctx context.Context) ([]*schema.Process, error)
}

// Catalog is an immutable, insertion-ordered index of process descriptors.
type Catalog struct {
	processes *orderedmap.OrderedMap[string, *schema.Process]
}

// New creates a catalog from process descriptors.
// Every descriptor must be non-nil and have a unique, non-empty id.
func New(processes []*schema.Process) (*Catalog, error) {
	om := orderedmap.New[string, *schema.Process](len(processes))
	for i, p := range processes {
		if p == nil {
			return nil, fmt.Errorf("%w: process descriptor at index %d is null", ErrInvalidCatalog, i)
		}
		if p.ID == "" {
			return nil, fmt.Errorf("%w: process descriptor at index %d has no id", ErrInvalidCatalog, i)
		}
		if _, present := om.Set(p.ID, p); present {
			return nil, fmt.Errorf("%w: process '%s' listed twice", ErrInvalidCatalog, p.ID)
		}
	}
	return &Catalog{processes: om}, nil
}

// FromJSON parses a catalog from one of the following shapes:
//
//	[{"id": "add", ...}, ...]               // plain list
//	{"processes": [{"id": "add", ...}]}     // listing response envelope
//	{"add": {"parameters": [...]}, ...}     // id -> descriptor object
func FromJSON(data []byte) (*Catalog, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidCatalog)
	}

	switch trimmed[0] {
	case '[':
		var list []*schema.Process
		if err := sonic.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		return New(list)
	case '{':
		var envelope map[string]json.RawMessage
		if err := sonic.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		if raw, ok := envelope["processes"]; ok {
			if r := bytes.TrimSpace(raw); len(r) > 0 && r[0] == '[' {
				var list []*schema.Process
				if err := sonic.Unmarshal(r, &list); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
				}
				return New(list)
			}
		}
		return fromObject(trimmed)
	default:
		return nil, fmt.Errorf("%w: expected a list or an object of process descriptors", ErrInvalidCatalog)
	}
}

func fromObject(data []byte) (*Catalog, error) {
	om := orderedmap.New[string, *schema.Process]()
	if err := om.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	list := make([]*schema.Process, 0, om.Len())
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		p := pair.Value
		if p == nil {
			return nil, fmt.Errorf("%w: process '%s' is null", ErrInvalidCatalog, pair.Key)
		}
		if p.ID == "" {
			p.ID = pair.Key
		} else if p.ID != pair.Key {
			return nil, fmt.Errorf("%w: process listed under '%s' has id '%s'", ErrInvalidCatalog, pair.Key, p.ID)
		}
		list = append(list, p)
	}
	return New(list)
}

// Load fetches the process listing from src and builds a catalog from it.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	processes, err := src.ListProcesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load process catalog: %w", err)
	}
	return New(processes)
}

// Get returns the descriptor of a process.
func (c *Catalog) Get(id string) (*schema.Process, bool) {
	if c == nil {
		return nil, false
	}
	return c.processes.Get(id)
}

// Has reports whether the catalog lists the process.
func (c *Catalog) Has(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// Len returns the number of processes.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return c.processes.Len()
}

// IDs returns the process ids in catalog order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, c.processes.Len())
	for pair := c.processes.Oldest(); pair != nil; pair = pair.Next() {
		ids = append(ids, pair.Key)
	}
	return ids
}

// Processes returns the descriptors in catalog order.
// The descriptors are shared and must not be modified.
func (c *Catalog) Processes() []*schema.Process {
	if c == nil {
		return nil
	}
	list := make([]*schema.Process, 0, c.processes.Len())
	for pair := c.processes.Oldest(); pair != nil; pair = pair.Next() {
		list = append(list, pair.Value)
	}
	return list
}

// CallbackSignature returns the parameters a callback bound to the given argument of a process receives.
// argument is a parameter name, or the decimal position of the parameter for positionally bound arguments.
func (c *Catalog) CallbackSignature(processID, argument string) ([]*schema.ProcessParameter, error) {
	p, ok := c.Get(processID)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownProcess, processID)
	}

	param, ok := p.Parameter(argument)
	if !ok {
		if idx, err := strconv.Atoi(argument); err == nil && idx >= 0 && idx < len(p.Parameters) {
			param, ok = p.Parameters[idx], p.Parameters[idx] != nil
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: process '%s' has no parameter '%s'", ErrNoCallback, processID, argument)
	}

	params, ok := param.Schema.CallbackParameters()
	if !ok {
		return nil, fmt.Errorf("%w: parameter '%s' of process '%s' does not accept a process graph", ErrNoCallback, param.Name, processID)
	}
	return params, nil
}

// CallbackParameters returns the names of the parameters a callback bound to the given argument receives.
func (c *Catalog) CallbackParameters(processID, argument string) ([]string, error) {
	params, err := c.CallbackSignature(processID, argument)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(params))
	for _, p := range params {
		if p != nil {
			names = append(names, p.Name)
		}
	}
	return names, nil
}
