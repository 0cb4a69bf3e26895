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
	"github.com/openeo-go/openeo/callbacks"
	"github.com/openeo-go/openeo/internal/log"
)

type options struct {
	strict   bool
	handlers []callbacks.Handler
	logger   log.Logger
}

// Option configures a Builder.
type Option func(o *options)

// WithStrict makes Call fail with ErrUnknownProcess for processes missing from the catalog.
// By default such calls succeed and record an unknown_process diagnostic, so graphs can target
// processes newer than the catalog at hand.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithHandlers registers build-time observers.
func WithHandlers(handlers ...callbacks.Handler) Option {
	return func(o *options) {
		o.handlers = append(o.handlers, handlers...)
	}
}

// WithLogger sets the logger diagnostics are written to. Defaults to log.Default.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: log.Default}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.Nop
	}
	return o
}

type callOptions struct {
	description string
	namespace   string
}

// CallOption configures a single Call.
type CallOption func(o *callOptions)

// WithDescription sets the description of the created node.
func WithDescription(description string) CallOption {
	return func(o *callOptions) {
		o.description = description
	}
}

// WithNamespace sets the namespace the process is looked up in by the back-end, e.g. "user" for user-defined processes.
func WithNamespace(namespace string) CallOption {
	return func(o *callOptions) {
		o.namespace = namespace
	}
}
