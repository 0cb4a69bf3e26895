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

// Package callbacks lets callers observe graph construction: every node added to a builder
// and every non-fatal diagnostic it records.
package callbacks

// NodeInfo describes a node that was added to a graph builder.
type NodeInfo struct {
	ID        string
	ProcessID string
	Namespace string
	// Depth is the callback nesting depth of the builder that owns the node, 0 for the root graph.
	Depth int
}

// DiagnosticInfo describes a non-fatal problem found while building a graph.
type DiagnosticInfo struct {
	Code     string
	Message  string
	NodeID   string
	Argument string
}

// Timing enumerates the moments a Handler is notified at.
type Timing uint8

// Timing values.
const (
	TimingOnNodeAdded Timing = iota
	TimingOnDiagnostic
)

// Handler receives build-time notifications. Handlers run synchronously on the goroutine that builds the graph.
type Handler interface {
	OnNodeAdded(info *NodeInfo)
	OnDiagnostic(info *DiagnosticInfo)
}

// TimingChecker is implemented by handlers that only care about some timings.
type TimingChecker interface {
	Needed(timing Timing) bool
}

// Needed reports whether h wants to be notified at timing.
func Needed(h Handler, timing Timing) bool {
	if h == nil {
		return false
	}
	if tc, ok := h.(TimingChecker); ok {
		return tc.Needed(timing)
	}
	return true
}

// OnNodeAdded notifies every interested handler.
func OnNodeAdded(handlers []Handler, info *NodeInfo) {
	for _, h := range handlers {
		if Needed(h, TimingOnNodeAdded) {
			h.OnNodeAdded(info)
		}
	}
}

// OnDiagnostic notifies every interested handler.
func OnDiagnostic(handlers []Handler, info *DiagnosticInfo) {
	for _, h := range handlers {
		if Needed(h, TimingOnDiagnostic) {
			h.OnDiagnostic(info)
		}
	}
}
