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
	"testing"

	"github.com/bytedance/sonic"
	"github.com/eino-contrib/jsonschema"
	"github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataSchema(t *testing.T) {
	convey.Convey("DataSchema", t, func() {
		convey.Convey("keeps subtype and callback parameters next to the JSON Schema keywords", func() {
			d := &DataSchema{}
			err := sonic.Unmarshal([]byte(`{
				"type": "object",
				"subtype": "process-graph",
				"parameters": [{"name": "x", "schema": {"type": "number"}}]
			}`), d)
			convey.So(err, convey.ShouldBeNil)
			convey.So(d.Type, convey.ShouldEqual, "object")
			convey.So(d.IsCallback(), convey.ShouldBeTrue)
			convey.So(len(d.Parameters), convey.ShouldEqual, 1)
			convey.So(d.Parameters[0].Name, convey.ShouldEqual, "x")
			convey.So(d.Parameters[0].Schema[0].Type, convey.ShouldEqual, "number")
		})

		convey.Convey("accepts boolean schemas", func() {
			d := &DataSchema{}
			convey.So(d.UnmarshalJSON([]byte(`true`)), convey.ShouldBeNil)
			convey.So(d.IsCallback(), convey.ShouldBeFalse)
		})

		convey.Convey("merges the extra keywords when encoding", func() {
			data, err := sonic.Marshal(NewCallbackSchema(&ProcessParameter{Name: "data"}))
			convey.So(err, convey.ShouldBeNil)

			var decoded map[string]any
			convey.So(sonic.Unmarshal(data, &decoded), convey.ShouldBeNil)
			convey.So(decoded["type"], convey.ShouldEqual, "object")
			convey.So(decoded["subtype"], convey.ShouldEqual, SubtypeProcessGraph)
			convey.So(decoded["parameters"], convey.ShouldHaveLength, 1)
		})

		convey.Convey("encodes plain schemas unchanged", func() {
			data, err := sonic.Marshal(&DataSchema{Schema: &jsonschema.Schema{Type: "string"}})
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(data), convey.ShouldEqual, `{"type":"string"}`)
		})
	})
}

func TestDataSchemas(t *testing.T) {
	var single DataSchemas
	require.NoError(t, sonic.Unmarshal([]byte(`{"type": "number"}`), &single))
	require.Len(t, single, 1)
	_, ok := single.CallbackParameters()
	assert.False(t, ok)

	data, err := sonic.Marshal(single)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "number"}`, string(data))

	var list DataSchemas
	require.NoError(t, sonic.Unmarshal([]byte(`[
		{"type": "null"},
		{"type": "object", "subtype": "process-graph", "parameters": [{"name": "data"}, {"name": "context", "optional": true}]}
	]`), &list))
	require.Len(t, list, 2)
	params, ok := list.CallbackParameters()
	require.True(t, ok)
	assert.Equal(t, "context", params[1].Name)

	data, err = sonic.Marshal(list)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"subtype":"process-graph"`)
	assert.Equal(t, byte('['), data[0])
}

func TestProcess(t *testing.T) {
	p := &Process{}
	require.NoError(t, sonic.Unmarshal([]byte(`{
		"id": "array_element",
		"parameters": [
			{"name": "data", "schema": {"type": "array"}},
			{"name": "index", "optional": true, "schema": {"type": "integer"}},
			{"name": "label", "optional": true, "schema": [{"type": "number"}, {"type": "string"}]}
		],
		"returns": {"schema": {}},
		"exceptions": {"ArrayElementNotAvailable": {"message": "The array has no element with the specified index or label."}}
	}`), p))

	assert.Equal(t, []string{"data", "index", "label"}, p.ParameterNames())
	data, ok := p.Parameter("data")
	require.True(t, ok)
	assert.True(t, data.Required())
	index, _ := p.Parameter("index")
	assert.False(t, index.Required())
	_, ok = p.Parameter("return_nodata")
	assert.False(t, ok)
	assert.Equal(t, "The array has no element with the specified index or label.", p.Exceptions["ArrayElementNotAvailable"].Message)

	var nilProcess *Process
	assert.Nil(t, nilProcess.ParameterNames())
}

func TestUserProcess(t *testing.T) {
	up := &UserProcess{ProcessGraph: NewProcessGraph(), ID: "ndvi"}
	_, _, ok := up.ResultNode()
	assert.False(t, ok)

	up.ProcessGraph.Set("load1", &GraphNode{ProcessID: "load_collection"})
	up.ProcessGraph.Set("ndvi1", &GraphNode{ProcessID: "ndvi", Result: true})
	id, node, ok := up.ResultNode()
	require.True(t, ok)
	assert.Equal(t, "ndvi1", id)
	assert.Equal(t, "ndvi", node.ProcessID)

	data, err := sonic.Marshal(up)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"process_graph": {
			"load1": {"process_id": "load_collection", "arguments": null},
			"ndvi1": {"process_id": "ndvi", "arguments": null, "result": true}
		},
		"id": "ndvi"
	}`, string(data))

	decoded := &UserProcess{}
	require.NoError(t, sonic.Unmarshal(data, decoded))
	assert.Equal(t, 2, decoded.ProcessGraph.Len())
	assert.Equal(t, "load1", decoded.ProcessGraph.Oldest().Key)
}
