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

// Package client talks to an openEO back-end: it fetches the process catalog, validates and
// stores process graphs and subscribes to back-end notifications.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/openeo-go/openeo/builder"
	"github.com/openeo-go/openeo/catalog"
	"github.com/openeo-go/openeo/internal/log"
	"github.com/openeo-go/openeo/schema"
)

// Connection is a session with one back-end. It is safe for concurrent use.
type Connection struct {
	baseURL    *url.URL
	token      string
	strict     bool
	httpClient *http.Client
	dialer     *websocket.Dialer
	logger     log.Logger

	mu      sync.Mutex
	catalog *catalog.Catalog
}

// Option configures a Connection.
type Option func(c *Connection)

// WithHTTPClient replaces the HTTP client. Its timeout takes precedence over Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Connection) {
		c.httpClient = hc
	}
}

// WithDialer replaces the WebSocket dialer used by Subscribe.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Connection) {
		c.dialer = d
	}
}

// WithLogger sets the logger of the connection and of the builders it creates.
func WithLogger(logger log.Logger) Option {
	return func(c *Connection) {
		c.logger = logger
	}
}

// NewConnection creates a connection to the back-end described by cfg.
func NewConnection(cfg *Config, opts ...Option) (*Connection, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, ErrMissingURL
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse back-end url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported back-end url scheme '%s'", u.Scheme)
	}

	c := &Connection{
		baseURL:    u,
		token:      cfg.Token,
		strict:     cfg.StrictCatalog,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		dialer:     websocket.DefaultDialer,
		logger:     log.Default,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Connection) authorize(h http.Header) {
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
}

// endpoint returns the URL of an API path below the base URL.
func (c *Connection) endpoint(elem ...string) string {
	return c.baseURL.JoinPath(elem...).String()
}

// do sends a request with an optional JSON body and decodes the JSON response into out, if not nil.
func (c *Connection) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorf("%s %s: %v", method, endpoint, err)
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()
	c.logger.Debugf("%s %s: %d", method, endpoint, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response of %s %s: %w", method, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{}
		if len(data) == 0 || sonic.Unmarshal(data, apiErr) != nil || apiErr.Code == "" {
			return errorFromStatus(resp.StatusCode)
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err = sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response of %s %s: %w", method, endpoint, err)
	}
	return nil
}

type processListing struct {
	Processes []*schema.Process `json:"processes"`
	Links     []*schema.Link    `json:"links,omitempty"`
}

// ListProcesses fetches the predefined processes of the back-end.
func (c *Connection) ListProcesses(ctx context.Context) ([]*schema.Process, error) {
	listing := &processListing{}
	if err := c.do(ctx, http.MethodGet, c.endpoint("processes"), nil, listing); err != nil {
		return nil, err
	}
	return listing.Processes, nil
}

// Catalog returns the process catalog of the back-end. It is fetched on first use and cached.
func (c *Connection) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.catalog != nil {
		return c.catalog, nil
	}
	cat, err := catalog.Load(ctx, c)
	if err != nil {
		return nil, err
	}
	c.catalog = cat
	return cat, nil
}

// NewBuilder creates a process graph builder for the processes of the back-end.
func (c *Connection) NewBuilder(ctx context.Context, opts ...builder.Option) (*builder.Builder, error) {
	cat, err := c.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	defaults := []builder.Option{builder.WithStrict(c.strict), builder.WithLogger(c.logger)}
	return builder.New(cat, append(defaults, opts...)...)
}

type validationResult struct {
	Errors []*APIError `json:"errors"`
}

// ValidateProcessGraph asks the back-end to validate a process. It returns the problems found,
// an empty list for a valid process.
func (c *Connection) ValidateProcessGraph(ctx context.Context, up *schema.UserProcess) ([]*APIError, error) {
	result := &validationResult{}
	if err := c.do(ctx, http.MethodPost, c.endpoint("validation"), up, result); err != nil {
		return nil, err
	}
	return result.Errors, nil
}

// SaveUserProcess stores a user-defined process under id, replacing any previous version.
func (c *Connection) SaveUserProcess(ctx context.Context, id string, up *schema.UserProcess) error {
	if id == "" {
		return fmt.Errorf("user process id is required")
	}
	if up == nil || up.ProcessGraph == nil {
		return fmt.Errorf("user process '%s' has no process graph", id)
	}
	stored := *up
	stored.ID = id
	return c.do(ctx, http.MethodPut, c.endpoint("process_graphs", id), &stored, nil)
}

// GetUserProcess fetches a stored user-defined process.
func (c *Connection) GetUserProcess(ctx context.Context, id string) (*schema.UserProcess, error) {
	up := &schema.UserProcess{}
	if err := c.do(ctx, http.MethodGet, c.endpoint("process_graphs", id), nil, up); err != nil {
		return nil, err
	}
	return up, nil
}

// DeleteUserProcess deletes a stored user-defined process.
func (c *Connection) DeleteUserProcess(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.endpoint("process_graphs", id), nil, nil)
}
