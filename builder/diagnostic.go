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

	"github.com/openeo-go/openeo/callbacks"
)

// DiagnosticCode classifies a diagnostic.
type DiagnosticCode string

// Diagnostic codes.
const (
	// DiagUnknownProcess is recorded when a process is not listed in the catalog.
	DiagUnknownProcess DiagnosticCode = "unknown_process"
	// DiagCallbackSignature is recorded when the parameters of a callback cannot be looked up.
	DiagCallbackSignature DiagnosticCode = "callback_signature"
	// DiagUnknownArgument is recorded for arguments the process does not declare.
	DiagUnknownArgument DiagnosticCode = "unknown_argument"
	// DiagMissingArgument is recorded when a required argument is not given.
	DiagMissingArgument DiagnosticCode = "missing_argument"
)

// Diagnostic is a non-fatal problem found while building a graph.
type Diagnostic struct {
	Code     DiagnosticCode
	Message  string
	NodeID   string
	Argument string
}

func (d *Diagnostic) String() string {
	if d.NodeID == "" {
		return fmt.Sprintf("[%s] %s", d.Code, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Code, d.NodeID, d.Message)
}

// warn records a diagnostic on the root builder, logs it and notifies the handlers.
func (b *Builder) warn(code DiagnosticCode, nodeID, argument, format string, args ...any) {
	d := &Diagnostic{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		NodeID:   nodeID,
		Argument: argument,
	}
	root := b.root()
	root.diagnostics = append(root.diagnostics, d)

	b.opts.logger.Warnf("process graph: %s", d)
	callbacks.OnDiagnostic(b.opts.handlers, &callbacks.DiagnosticInfo{
		Code:     string(d.Code),
		Message:  d.Message,
		NodeID:   d.NodeID,
		Argument: d.Argument,
	})
}
