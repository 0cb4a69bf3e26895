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

package callbacks

// HandlerBuilder constructs a Handler from plain functions.
type HandlerBuilder struct {
	onNodeAddedFn  func(info *NodeInfo)
	onDiagnosticFn func(info *DiagnosticInfo)
}

type handlerImpl struct {
	HandlerBuilder
}

func (hb *handlerImpl) OnNodeAdded(info *NodeInfo) {
	hb.onNodeAddedFn(info)
}

func (hb *handlerImpl) OnDiagnostic(info *DiagnosticInfo) {
	hb.onDiagnosticFn(info)
}

func (hb *handlerImpl) Needed(timing Timing) bool {
	switch timing {
	case TimingOnNodeAdded:
		return hb.onNodeAddedFn != nil
	case TimingOnDiagnostic:
		return hb.onDiagnosticFn != nil
	default:
		return false
	}
}

// NewHandlerBuilder creates and returns a new HandlerBuilder instance.
func NewHandlerBuilder() *HandlerBuilder {
	return &HandlerBuilder{}
}

// OnNodeAddedFn sets the function called after a node is stored in a builder.
func (hb *HandlerBuilder) OnNodeAddedFn(fn func(info *NodeInfo)) *HandlerBuilder {
	hb.onNodeAddedFn = fn
	return hb
}

// OnDiagnosticFn sets the function called when a builder records a diagnostic.
func (hb *HandlerBuilder) OnDiagnosticFn(fn func(info *DiagnosticInfo)) *HandlerBuilder {
	hb.onDiagnosticFn = fn
	return hb
}

// Build returns a Handler with the functions set in the builder.
func (hb *HandlerBuilder) Build() Handler {
	return &handlerImpl{*hb}
}
