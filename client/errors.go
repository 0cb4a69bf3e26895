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

package client

import (
	"fmt"
	"net/http"

	"github.com/openeo-go/openeo/schema"
)

// APIError is the error envelope returned by back-ends for failed requests and by the
// validation endpoint for every problem found in a process graph.
type APIError struct {
	ID      string         `json:"id,omitempty"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Links   []*schema.Link `json:"links,omitempty"`

	// Status is the HTTP status of the response, 0 for validation results.
	Status int `json:"-"`
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	if e.ID != "" {
		return fmt.Sprintf("[%d] %s: %s (ref: %s)", e.Status, e.Code, e.Message, e.ID)
	}
	return fmt.Sprintf("[%d] %s: %s", e.Status, e.Code, e.Message)
}

func errorFromStatus(status int) *APIError {
	return &APIError{
		Code:    "Unknown",
		Message: http.StatusText(status),
		Status:  status,
	}
}
