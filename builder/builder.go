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

// Package builder constructs openEO process graphs.
//
// A Builder records process calls as nodes, assigns them deterministic ids, normalizes their
// arguments into node references, parameter references, child process graphs (callbacks) and
// literals, and serializes the result into the JSON wire format accepted by back-ends.
//
//	b, _ := builder.New(cat)
//	cube, _ := b.Call("load_collection", builder.Named{"id": "SENTINEL2_L2A"})
//	ndvi, _ := b.Call("reduce_dimension", builder.Named{
//		"data":      cube,
//		"dimension": "bands",
//		"reducer":   builder.Formula("($B08 - $B04) / ($B08 + $B04)"),
//	})
//	_ = b.SetResult(ndvi)
//	data, _ := b.MarshalJSON()
//
// Builders are not safe for concurrent use.
package builder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/openeo-go/openeo/callbacks"
	"github.com/openeo-go/openeo/catalog"
	"github.com/openeo-go/openeo/schema"
)

// idStemLength is the number of characters of the process id kept in generated node ids.
const idStemLength = 5

// Args are the arguments of a process call, either Positional or Named.
type Args interface {
	args()
}

// Positional binds values to the process parameters in declaration order.
// Processes missing from the catalog get the keys "0", "1", ...
type Positional []any

// Named binds values to parameters by name.
type Named map[string]any

func (Positional) args() {}
func (Named) args()      {}

// Metadata is the process metadata serialized next to the root process graph.
type Metadata struct {
	ID           string
	Summary      string
	Description  string
	Categories   []string
	Returns      *schema.ProcessReturn
	Deprecated   bool
	Experimental bool
	Exceptions   map[string]*schema.ProcessException
	Examples     []*schema.ProcessExample
	Links        []*schema.Link
}

// Builder accumulates the nodes of a process graph.
//
// The root builder owns the graph parameters, the process metadata and the diagnostics; child
// builders are created for callback arguments and share them with the root.
type Builder struct {
	catalog *catalog.Catalog
	opts    *options

	nodes      *orderedmap.OrderedMap[string, *Node]
	idCounters map[string]int
	result     *Node

	// parent is the node whose argument parentArgument this builder fills, nil for the root builder.
	parent         *Node
	parentArgument string

	callbackParams   map[string]*Parameter
	callbackNames    []string
	callbackResolved bool

	// root only
	parameters  []*schema.ProcessParameter
	metadata    *Metadata
	diagnostics []*Diagnostic
}

// New creates a root builder that resolves processes against cat.
func New(cat *catalog.Catalog, opts ...Option) (*Builder, error) {
	if cat == nil {
		return nil, fmt.Errorf("%w: nil catalog", catalog.ErrInvalidCatalog)
	}
	b := newBuilder(cat, newOptions(opts))
	b.metadata = &Metadata{}
	return b, nil
}

// NewFromJSON creates a root builder from the JSON process listing of a back-end.
func NewFromJSON(data []byte, opts ...Option) (*Builder, error) {
	cat, err := catalog.FromJSON(data)
	if err != nil {
		return nil, err
	}
	return New(cat, opts...)
}

func newBuilder(cat *catalog.Catalog, opts *options) *Builder {
	return &Builder{
		catalog:        cat,
		opts:           opts,
		nodes:          orderedmap.New[string, *Node](),
		idCounters:     make(map[string]int),
		callbackParams: make(map[string]*Parameter),
	}
}

func (b *Builder) newChild(parent *Node, argument string) *Builder {
	child := newBuilder(b.catalog, b.opts)
	child.parent = parent
	child.parentArgument = argument
	return child
}

// Catalog returns the catalog processes are resolved against.
func (b *Builder) Catalog() *catalog.Catalog {
	return b.catalog
}

// Parent returns the node whose callback argument this builder fills, or nil for the root builder.
func (b *Builder) Parent() *Node {
	return b.parent
}

// ParentArgument returns the name of the argument this builder fills.
func (b *Builder) ParentArgument() string {
	return b.parentArgument
}

// Depth returns the callback nesting depth, 0 for the root builder.
func (b *Builder) Depth() int {
	depth := 0
	for s := b.enclosing(); s != nil; s = s.enclosing() {
		depth++
	}
	return depth
}

func (b *Builder) enclosing() *Builder {
	if b.parent == nil {
		return nil
	}
	return b.parent.builder
}

func (b *Builder) root() *Builder {
	r := b
	for s := b.enclosing(); s != nil; s = s.enclosing() {
		r = s
	}
	return r
}

// canReference reports whether n belongs to this builder or to one of its enclosing builders.
func (b *Builder) canReference(n *Node) bool {
	for s := b; s != nil; s = s.enclosing() {
		if n.builder == s {
			return n.id != ""
		}
	}
	return false
}

// Call adds a node invoking processID and returns it.
//
// Arguments are normalized immediately: nodes become node references, parameters become parameter
// references, Callback and Formula values become child process graphs, and lists and objects are
// normalized element-wise. The node receives its id only after all arguments were normalized,
// so a failed call leaves the graph unchanged.
func (b *Builder) Call(processID string, args Args, opts ...CallOption) (*Node, error) {
	if processID == "" {
		return nil, fmt.Errorf("%w: empty process id", ErrUnknownProcess)
	}
	co := &callOptions{}
	for _, opt := range opts {
		opt(co)
	}

	process, known := b.catalog.Get(processID)
	if !known && b.opts.strict {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownProcess, processID)
	}

	raw, err := bindArguments(processID, process, args)
	if err != nil {
		return nil, err
	}

	n := &Node{
		builder:     b,
		process:     process,
		processID:   processID,
		namespace:   co.namespace,
		description: co.description,
		arguments:   orderedmap.New[string, *Argument](raw.Len()),
	}

	cp := b.checkpoint()
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		arg, err := b.normalize(n, pair.Key, pair.Value)
		if err != nil {
			b.restore(cp)
			return nil, fmt.Errorf("process '%s', argument '%s': %w", processID, pair.Key, err)
		}
		n.arguments.Set(pair.Key, arg)
	}

	if err = b.addNode(n); err != nil {
		b.restore(cp)
		return nil, err
	}

	if !known {
		b.warn(DiagUnknownProcess, n.id, "", "process '%s' is not listed in the catalog", processID)
	}
	n.checkArguments()
	return n, nil
}

// bindArguments maps the call arguments to parameter names, in parameter declaration order
// followed by undeclared names in lexical order.
func bindArguments(processID string, process *schema.Process, args Args) (*orderedmap.OrderedMap[string, any], error) {
	bound := orderedmap.New[string, any]()
	switch a := args.(type) {
	case nil:
	case Positional:
		if process == nil {
			for i, v := range a {
				bound.Set(strconv.Itoa(i), v)
			}
			break
		}
		if len(a) > len(process.Parameters) {
			return nil, fmt.Errorf("%w: process '%s' accepts %d arguments, got %d",
				ErrTooManyArguments, processID, len(process.Parameters), len(a))
		}
		for i, v := range a {
			name := strconv.Itoa(i)
			if p := process.Parameters[i]; p != nil {
				name = p.Name
			}
			bound.Set(name, v)
		}
	case Named:
		var declared map[string]bool
		if process != nil {
			declared = make(map[string]bool, len(process.Parameters))
			for _, p := range process.Parameters {
				if p == nil {
					continue
				}
				declared[p.Name] = true
				if v, ok := a[p.Name]; ok {
					bound.Set(p.Name, v)
				}
			}
		}
		extra := make([]string, 0, len(a))
		for k := range a {
			if !declared[k] {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		for _, k := range extra {
			bound.Set(k, a[k])
		}
	default:
		return nil, fmt.Errorf("unsupported arguments type %T", args)
	}
	return bound, nil
}

func (b *Builder) addNode(n *Node) error {
	n.id = b.generateID(n.processID)
	if _, exists := b.nodes.Get(n.id); exists {
		return fmt.Errorf("%w: '%s'", ErrDuplicateNodeID, n.id)
	}
	b.nodes.Set(n.id, n)

	callbacks.OnNodeAdded(b.opts.handlers, &callbacks.NodeInfo{
		ID:        n.id,
		ProcessID: n.processID,
		Namespace: n.namespace,
		Depth:     b.Depth(),
	})
	return nil
}

// generateID derives a node id from the process id: lowercased, underscores removed, cut to
// idStemLength characters, followed by a counter that starts at 1 for every stem.
// Counters skip ids that are already taken, e.g. when process "add1" precedes process "add".
func (b *Builder) generateID(processID string) string {
	stem := []rune(strings.ToLower(strings.ReplaceAll(processID, "_", "")))
	if len(stem) > idStemLength {
		stem = stem[:idStemLength]
	}
	s := string(stem)
	for {
		b.idCounters[s]++
		id := s + strconv.Itoa(b.idCounters[s])
		if _, taken := b.nodes.Get(id); !taken {
			return id
		}
	}
}

// Node returns the node with the given id.
func (b *Builder) Node(id string) (*Node, bool) {
	return b.nodes.Get(id)
}

// Nodes returns the nodes of the graph in creation order.
func (b *Builder) Nodes() []*Node {
	nodes := make([]*Node, 0, b.nodes.Len())
	for pair := b.nodes.Oldest(); pair != nil; pair = pair.Next() {
		nodes = append(nodes, pair.Value)
	}
	return nodes
}

// Len returns the number of nodes.
func (b *Builder) Len() int {
	return b.nodes.Len()
}

// SetResult marks n as the node producing the result of the graph, clearing any previous mark.
func (b *Builder) SetResult(n *Node) error {
	if n == nil || n.builder != b || n.id == "" {
		return fmt.Errorf("%w: result must be a node of this graph", ErrForeignNode)
	}
	if b.result != nil {
		b.result.result = false
	}
	n.result = true
	b.result = n
	return nil
}

// Result returns the result node, or nil if none was set.
func (b *Builder) Result() *Node {
	return b.result
}

// Metadata returns the process metadata of the graph. It is shared by all builders of the graph
// and only serialized with the root graph.
func (b *Builder) Metadata() *Metadata {
	return b.root().metadata
}

// Diagnostics returns the non-fatal problems recorded while building the graph.
func (b *Builder) Diagnostics() []*Diagnostic {
	return append([]*Diagnostic(nil), b.root().diagnostics...)
}

// Parameters returns the declared graph parameters.
func (b *Builder) Parameters() []*schema.ProcessParameter {
	return append([]*schema.ProcessParameter(nil), b.root().parameters...)
}

// DeclareParameter registers a graph parameter on the root graph. Declaring a name again merges the
// descriptors, non-empty fields of the later declaration win. Names provided by this builder or an
// enclosing callback scope refer to the callback parameter and are not declared.
func (b *Builder) DeclareParameter(p *schema.ProcessParameter) error {
	if p == nil || p.Name == "" {
		return fmt.Errorf("%w: parameter name is required", ErrInvalidParameter)
	}
	if b.providesCallbackParameter(p.Name) {
		return nil
	}
	root := b.root()
	for i, existing := range root.parameters {
		if existing.Name == p.Name {
			root.parameters[i] = mergeParameter(existing, p)
			return nil
		}
	}
	declared := *p
	root.parameters = append(root.parameters, &declared)
	return nil
}

// providesCallbackParameter reports whether b or one of its enclosing callback scopes receives a
// parameter called name.
func (b *Builder) providesCallbackParameter(name string) bool {
	for s := b; s != nil; s = s.enclosing() {
		for _, n := range s.CallbackParameterNames() {
			if n == name {
				return true
			}
		}
	}
	return false
}

// useGraphParameter declares p on the root graph unless a callback scope provides the name.
func (b *Builder) useGraphParameter(p *Parameter) error {
	return b.DeclareParameter(p.Descriptor())
}

// CallbackParameterNames returns the names of the parameters the enclosing process passes to this
// callback graph, looked up in the catalog. It is empty for the root builder and for callbacks whose
// signature is unknown, in which case a callback_signature diagnostic is recorded once.
func (b *Builder) CallbackParameterNames() []string {
	if b.parent == nil {
		return nil
	}
	if !b.callbackResolved {
		b.callbackResolved = true
		names, err := b.catalog.CallbackParameters(b.parent.processID, b.parentArgument)
		if err != nil {
			b.warn(DiagCallbackSignature, "", b.parentArgument, "%v", err)
		}
		b.callbackNames = names
	}
	return append([]string(nil), b.callbackNames...)
}

// CallbackParameter returns the callback parameter with the given name, creating it on first use.
// Repeated calls with the same name return the same Parameter.
func (b *Builder) CallbackParameter(name string) *Parameter {
	if p, ok := b.callbackParams[name]; ok {
		return p
	}
	p := &Parameter{name: name, owner: b}
	b.callbackParams[name] = p
	return p
}

type checkpoint struct {
	nodes          int
	counters       map[string]int
	result         *Node
	callbackParams map[string]*Parameter
	parameters     []*schema.ProcessParameter
	diagnostics    int
}

func (b *Builder) checkpoint() *checkpoint {
	root := b.root()
	cp := &checkpoint{
		nodes:          b.nodes.Len(),
		counters:       make(map[string]int, len(b.idCounters)),
		result:         b.result,
		callbackParams: make(map[string]*Parameter, len(b.callbackParams)),
		parameters:     append([]*schema.ProcessParameter(nil), root.parameters...),
		diagnostics:    len(root.diagnostics),
	}
	for k, v := range b.idCounters {
		cp.counters[k] = v
	}
	for k, v := range b.callbackParams {
		cp.callbackParams[k] = v
	}
	return cp
}

// restore rolls the builder back to cp. Handlers are not notified about removed nodes.
func (b *Builder) restore(cp *checkpoint) {
	for b.nodes.Len() > cp.nodes {
		b.nodes.Delete(b.nodes.Newest().Key)
	}
	b.idCounters = cp.counters
	b.callbackParams = cp.callbackParams
	if b.result != cp.result {
		if b.result != nil {
			b.result.result = false
		}
		if cp.result != nil {
			cp.result.result = true
		}
		b.result = cp.result
	}

	root := b.root()
	root.parameters = cp.parameters
	root.diagnostics = root.diagnostics[:cp.diagnostics]
}

func (b *Builder) serializeGraph() (*schema.ProcessGraph, error) {
	graph := schema.NewProcessGraph()
	for pair := b.nodes.Oldest(); pair != nil; pair = pair.Next() {
		gn, err := pair.Value.Serialize()
		if err != nil {
			return nil, fmt.Errorf("node '%s': %w", pair.Key, err)
		}
		graph.Set(pair.Key, gn)
	}
	return graph, nil
}

// Serialize returns the wire form of the graph. The root graph carries its metadata and declared
// parameters, child graphs only their nodes.
func (b *Builder) Serialize() (*schema.UserProcess, error) {
	graph, err := b.serializeGraph()
	if err != nil {
		return nil, err
	}
	up := &schema.UserProcess{ProcessGraph: graph}
	if b.parent != nil {
		return up, nil
	}

	m := b.metadata
	up.ID = m.ID
	up.Summary = m.Summary
	up.Description = m.Description
	up.Categories = m.Categories
	up.Returns = m.Returns
	up.Deprecated = m.Deprecated
	up.Experimental = m.Experimental
	up.Exceptions = m.Exceptions
	up.Examples = m.Examples
	up.Links = m.Links
	if len(b.parameters) > 0 {
		up.Parameters = append([]*schema.ProcessParameter(nil), b.parameters...)
	}
	return up, nil
}

// MarshalJSON implements json.Marshaler.
func (b *Builder) MarshalJSON() ([]byte, error) {
	up, err := b.Serialize()
	if err != nil {
		return nil, err
	}
	return sonic.Marshal(up)
}
