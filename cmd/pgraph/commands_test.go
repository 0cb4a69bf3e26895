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

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openeo-go/openeo/internal/log"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand(context.Background())
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeGraph(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"id": "double",
		"process_graph": {
			"multi1": {"process_id": "multiply", "arguments": {"x": {"from_parameter": "x"}, "y": 2}, "result": true}
		},
		"parameters": [{"name": "x", "description": "Input value."}]
	}`), 0o600))
	return path
}

func TestFormulaCommand(t *testing.T) {
	out, stderr, err := execute(t, "formula", "--catalog", "testdata/processes.json", "2 + 3 * 4")
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.JSONEq(t, `{
		"process_graph": {
			"multi1": {"process_id": "multiply", "arguments": {"x": 3, "y": 4}},
			"add1": {"process_id": "add", "arguments": {"x": 2, "y": {"from_node": "multi1"}}, "result": true}
		}
	}`, out)

	out, _, err = execute(t, "formula", "--catalog", "testdata/processes.json", "x * 2")
	require.NoError(t, err)
	assert.Contains(t, out, `"parameters"`)

	_, _, err = execute(t, "formula", "--catalog", "testdata/processes.json", "2 +")
	assert.Error(t, err)
}

func TestProcessesCommand(t *testing.T) {
	out, _, err := execute(t, "processes", "--catalog", "testdata/processes.json")
	require.NoError(t, err)
	assert.Contains(t, out, "load_collection\tLoad a collection\n")
	assert.Contains(t, out, "\nsave_result\n")
}

type recordingLogger struct {
	log.Logger
	lines []string
}

func (r *recordingLogger) Infof(format string, args ...any) {
	r.lines = append(r.lines, "I "+fmt.Sprintf(format, args...))
}

func (r *recordingLogger) Warnf(format string, args ...any) {
	r.lines = append(r.lines, "W "+fmt.Sprintf(format, args...))
}

func TestProcessesFromBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/processes", r.URL.Path)
		_, _ = io.WriteString(w, `{"processes": [{"id": "add", "summary": "Addition of two numbers"}], "links": []}`)
	}))
	defer srv.Close()
	t.Setenv("OPENEO_BACKEND_URL", srv.URL)
	t.Setenv("OPENEO_ACCESS_TOKEN", "")

	rec := &recordingLogger{Logger: log.Nop}
	old := log.Default
	log.Default = rec
	t.Cleanup(func() { log.Default = old })

	out, _, err := execute(t, "processes")
	require.NoError(t, err)
	assert.Equal(t, "add\tAddition of two numbers\n", out)
	assert.Equal(t, []string{
		"W no access token configured, requests to " + srv.URL + " are sent unauthenticated",
		"I fetched 1 processes from the back-end",
	}, rec.lines)
}

func TestRenderCommand(t *testing.T) {
	path := writeGraph(t)

	out, _, err := execute(t, "render", path)
	require.NoError(t, err)
	assert.Equal(t, "double: 1 nodes, result multi1\n", out)

	out, _, err = execute(t, "render", "--format", "go", "--template", "{{range .parameters}}{{.name}}{{end}}", path)
	require.NoError(t, err)
	assert.Equal(t, "x\n", out)

	out, _, err = execute(t, "render", "--html", path)
	require.NoError(t, err)
	assert.Contains(t, out, "<td>multi1</td>")

	_, _, err = execute(t, "render", "--format", "mustache", path)
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = io.WriteString(w, `{"errors": []}`)
	}))
	defer srv.Close()
	t.Setenv("OPENEO_BACKEND_URL", srv.URL)

	out, _, err := execute(t, "validate", writeGraph(t))
	require.NoError(t, err)
	assert.Equal(t, "valid\n", out)
	assert.Contains(t, body, `"multi1"`)
}
