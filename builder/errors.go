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
	"errors"
)

var (
	// ErrUnknownProcess is returned by strict builders for processes missing from the catalog,
	// and by every builder for an empty process id.
	ErrUnknownProcess = errors.New("unknown process")
	// ErrTooManyArguments is returned when more positional arguments are given than the process declares.
	ErrTooManyArguments = errors.New("too many positional arguments")
	// ErrForeignNode is returned when a node is used outside the builder scope it belongs to.
	ErrForeignNode = errors.New("node belongs to another process graph")
	// ErrNotSerializable is returned by Serialize when a literal argument cannot be encoded as JSON.
	ErrNotSerializable = errors.New("argument value is not JSON serializable")
	// ErrDuplicateNodeID signals a broken id allocation invariant.
	ErrDuplicateNodeID = errors.New("duplicate node id")
	// ErrNoResult is returned when a callback does not return its result node.
	ErrNoResult = errors.New("callback returned no result node")
	// ErrInvalidParameter is returned for parameter declarations without a name.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrFormulaScope is returned for formula references that need a callback scope, e.g. $0 in a root graph.
	ErrFormulaScope = errors.New("formula reference not available in this scope")
	// ErrFormulaTrivial is returned for formulas that do not call any process, e.g. "3" or "x".
	ErrFormulaTrivial = errors.New("formula does not call any process")
)
