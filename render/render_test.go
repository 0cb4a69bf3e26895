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

package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/openeo-go/openeo/schema"
)

func sampleProcess() *schema.UserProcess {
	args := orderedmap.New[string, any]()
	args.Set("x", &schema.FromParameter{FromParameter: "a"})
	args.Set("y", 2)

	graph := schema.NewProcessGraph()
	graph.Set("loadc1", &schema.GraphNode{ProcessID: "load_collection", Arguments: orderedmap.New[string, any]()})
	graph.Set("add1", &schema.GraphNode{ProcessID: "add", Arguments: args, Description: "a < b", Result: true})

	return &schema.UserProcess{
		ProcessGraph: graph,
		ID:           "plus_two",
		Summary:      "Adds two",
		Parameters:   []*schema.ProcessParameter{{Name: "a", Description: "First summand."}},
	}
}

func TestVariables(t *testing.T) {
	vs := Variables(sampleProcess())
	assert.Equal(t, "plus_two", vs["id"])
	assert.Equal(t, 2, vs["node_count"])
	assert.Equal(t, "add1", vs["result"])

	nodes := vs["nodes"].([]map[string]any)
	require.Len(t, nodes, 2)
	assert.Equal(t, "x, y", nodes[1]["arguments"])
	assert.Equal(t, "", nodes[0]["arguments"])

	empty := Variables(nil)
	assert.Equal(t, 0, empty["node_count"])
}

func TestSummary(t *testing.T) {
	up := sampleProcess()

	cases := []struct {
		name       string
		formatType FormatType
		tpl        string
		want       string
	}{
		{
			name:       "fstring",
			formatType: FString,
			tpl:        DefaultSummary,
			want:       "plus_two: 2 nodes, result add1",
		},
		{
			name:       "go template",
			formatType: GoTemplate,
			tpl:        "{{.summary}}:{{range .nodes}} {{.id}}={{.process_id}}{{end}}",
			want:       "Adds two: loadc1=load_collection add1=add",
		},
		{
			name:       "jinja2",
			formatType: Jinja2,
			tpl:        "{% for n in nodes %}{{ n.id }}{% if n.result %}*{% endif %} {% endfor %}",
			want:       "loadc1 add1* ",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Summary(up, tc.formatType, tc.tpl)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestSummaryErrors(t *testing.T) {
	up := sampleProcess()

	_, err := Summary(up, GoTemplate, "{{.missing}}")
	assert.ErrorContains(t, err, "render process graph 'plus_two' as go template: ")
	_, err = Summary(up, FString, "{missing}")
	assert.ErrorContains(t, err, "render process graph 'plus_two' as fstring: ")
	_, err = Summary(up, Jinja2, `{% include "/etc/passwd" %}`)
	assert.ErrorContains(t, err, "keyword[include] has been disabled")
	_, err = Summary(nil, Jinja2, "{{")
	assert.ErrorContains(t, err, "render process graph 'unnamed' as jinja2: ")
	_, err = Summary(up, FormatType(9), "")
	assert.EqualError(t, err, "unknown format type: FormatType(9)")
}

func TestHTML(t *testing.T) {
	out, err := HTML(sampleProcess())
	require.NoError(t, err)

	assert.Contains(t, out, `<table class="openeo-process-graph">`)
	assert.Contains(t, out, "<td>add1</td><td>add</td><td>x, y</td><td>a &lt; b</td><td>&#10003;</td>")
	assert.Contains(t, out, "<td>loadc1</td><td>load_collection</td><td></td><td></td><td></td>")
	assert.Contains(t, out, "<li><code>a</code>: First summand.</li>")
}
