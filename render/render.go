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

// Package render turns serialized process graphs into human-readable text and HTML.
package render

import (
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/nikolalohinski/gonja"
	"github.com/nikolalohinski/gonja/config"
	"github.com/nikolalohinski/gonja/nodes"
	"github.com/nikolalohinski/gonja/parser"
	"github.com/slongfield/pyfmt"

	"github.com/openeo-go/openeo/schema"
)

// FormatType selects the template language of Summary.
type FormatType uint8

const (
	// FString Supported by pyfmt(github.com/slongfield/pyfmt), which is an implementation of https://peps.python.org/pep-3101/.
	FString FormatType = 0
	// GoTemplate https://pkg.go.dev/text/template.
	GoTemplate FormatType = 1
	// Jinja2 Supported by gonja(github.com/nikolalohinski/gonja), which is a implementation of https://jinja.palletsprojects.com/en/3.1.x/templates/.
	Jinja2 FormatType = 2
)

func (f FormatType) String() string {
	switch f {
	case FString:
		return "fstring"
	case GoTemplate:
		return "go template"
	case Jinja2:
		return "jinja2"
	default:
		return fmt.Sprintf("FormatType(%d)", uint8(f))
	}
}

// DefaultSummary is the FString template used by the pgraph tool.
const DefaultSummary = "{id}: {node_count} nodes, result {result}"

const htmlTemplate = `<table class="openeo-process-graph">
<thead><tr><th>Node</th><th>Process</th><th>Arguments</th><th>Description</th><th>Result</th></tr></thead>
<tbody>
{%- for node in nodes %}
<tr><td>{{ node.id|e }}</td><td>{% if node.namespace %}{{ node.namespace|e }}/{% endif %}{{ node.process_id|e }}</td><td>{{ node.arguments|e }}</td><td>{{ node.description|e }}</td><td>{% if node.result %}&#10003;{% endif %}</td></tr>
{%- endfor %}
</tbody>
</table>
{%- if parameters %}
<ul class="openeo-process-parameters">
{%- for p in parameters %}
<li><code>{{ p.name|e }}</code>{% if p.optional %} (optional){% endif %}{% if p.description %}: {{ p.description|e }}{% endif %}</li>
{%- endfor %}
</ul>
{%- endif %}
`

// Variables returns the template variables of a graph:
//
//	id, summary, description  process metadata
//	node_count                number of top-level nodes
//	result                    id of the result node, empty if none
//	nodes                     list of {id, process_id, namespace, description, arguments, result}
//	parameters                list of {name, description, optional}
func Variables(up *schema.UserProcess) map[string]any {
	vs := map[string]any{
		"id":          "",
		"summary":     "",
		"description": "",
		"node_count":  0,
		"result":      "",
		"nodes":       []map[string]any{},
		"parameters":  []map[string]any{},
	}
	if up == nil {
		return vs
	}

	vs["id"] = up.ID
	vs["summary"] = up.Summary
	vs["description"] = up.Description
	if id, _, ok := up.ResultNode(); ok {
		vs["result"] = id
	}

	graphNodes := make([]map[string]any, 0, up.ProcessGraph.Len())
	for pair := up.ProcessGraph.Oldest(); pair != nil; pair = pair.Next() {
		n := pair.Value
		if n == nil {
			continue
		}
		var args []string
		for arg := n.Arguments.Oldest(); arg != nil; arg = arg.Next() {
			args = append(args, arg.Key)
		}
		graphNodes = append(graphNodes, map[string]any{
			"id":          pair.Key,
			"process_id":  n.ProcessID,
			"namespace":   n.Namespace,
			"description": n.Description,
			"arguments":   strings.Join(args, ", "),
			"result":      n.Result,
		})
	}
	vs["nodes"] = graphNodes
	vs["node_count"] = len(graphNodes)

	params := make([]map[string]any, 0, len(up.Parameters))
	for _, p := range up.Parameters {
		if p == nil {
			continue
		}
		params = append(params, map[string]any{
			"name":        p.Name,
			"description": p.Description,
			"optional":    p.Optional,
		})
	}
	vs["parameters"] = params
	return vs
}

// Summary renders the graph with a template in the given language.
func Summary(up *schema.UserProcess, formatType FormatType, tpl string) (string, error) {
	return renderGraph(up, formatType, tpl)
}

// HTML renders the graph as an HTML table of its nodes followed by its parameters.
func HTML(up *schema.UserProcess) (string, error) {
	return renderGraph(up, Jinja2, htmlTemplate)
}

type renderFunc func(tpl string, vs map[string]any) (string, error)

func renderGraph(up *schema.UserProcess, formatType FormatType, tpl string) (string, error) {
	var render renderFunc
	switch formatType {
	case FString:
		render = renderFString
	case GoTemplate:
		render = renderGoTemplate
	case Jinja2:
		render = renderJinja
	default:
		return "", fmt.Errorf("unknown format type: %v", formatType)
	}

	out, err := render(tpl, Variables(up))
	if err != nil {
		name := "unnamed"
		if up != nil && up.ID != "" {
			name = up.ID
		}
		return "", fmt.Errorf("render process graph '%s' as %s: %w", name, formatType, err)
	}
	return out, nil
}

func renderFString(tpl string, vs map[string]any) (string, error) {
	return pyfmt.Fmt(tpl, vs)
}

func renderGoTemplate(tpl string, vs map[string]any) (string, error) {
	parsed, err := template.New("process_graph").Option("missingkey=error").Parse(tpl)
	if err != nil {
		return "", err
	}
	sb := new(strings.Builder)
	if err = parsed.Execute(sb, vs); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func renderJinja(tpl string, vs map[string]any) (string, error) {
	env, err := getJinjaEnv()
	if err != nil {
		return "", err
	}
	parsed, err := env.FromString(tpl)
	if err != nil {
		return "", err
	}
	return parsed.Execute(vs)
}

var (
	jinjaEnvOnce sync.Once
	jinjaEnv     *gonja.Environment
	envInitErr   error
)

// statements that could load templates from the file system
var disabledStatements = []string{"include", "extends", "import", "from"}

func getJinjaEnv() (*gonja.Environment, error) {
	jinjaEnvOnce.Do(func() {
		jinjaEnv = gonja.NewEnvironment(config.DefaultConfig, gonja.DefaultLoader)
		for _, keyword := range disabledStatements {
			if !jinjaEnv.Statements.Exists(keyword) {
				continue
			}
			keyword := keyword
			err := jinjaEnv.Statements.Replace(keyword, func(parser *parser.Parser, args *parser.Parser) (nodes.Statement, error) {
				return nil, fmt.Errorf("keyword[%s] has been disabled", keyword)
			})
			if err != nil {
				envInitErr = fmt.Errorf("init jinja env fail: %w", err)
				return
			}
		}
	})
	return jinjaEnv, envInitErr
}
