// Package notion is a thin JSON client for the external document
// store holding all durable helpdesk data. The store is consumed as a
// black box: query a collection with a filter, fetch one record,
// create one record, patch one record's fields. No call is retried
// and no response is cached.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	APIVersion     = "2025-09-03"
)

// APIError is a non-2xx response from the store.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion api error: status %d: %s", e.Status, e.Message)
}

// Config holds client configuration.
type Config struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns a client configuration for the production API.
func DefaultConfig(token string) Config {
	return Config{
		Token:   token,
		BaseURL: DefaultBaseURL,
		Timeout: 30 * time.Second,
	}
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a store client. The integration token is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("notion integration token is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Query is the body of a collection query.
type Query struct {
	Filter   any `json:"filter,omitempty"`
	PageSize int `json:"page_size,omitempty"`
}

// QueryResponse is the result list of a collection query.
type QueryResponse struct {
	Results []Page `json:"results"`
}

// QueryDataSource queries a collection with a filter.
func (c *Client) QueryDataSource(ctx context.Context, dataSourceID string, q Query) (*QueryResponse, error) {
	out := &QueryResponse{}
	if err := c.do(ctx, http.MethodPost, "/data_sources/"+dataSourceID+"/query", q, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDataSource fetches a collection's schema.
func (c *Client) GetDataSource(ctx context.Context, dataSourceID string) (*Schema, error) {
	out := &Schema{}
	if err := c.do(ctx, http.MethodGet, "/data_sources/"+dataSourceID, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDatabase fetches a database's schema. Some collections are still
// addressed by database ID rather than data-source ID.
func (c *Client) GetDatabase(ctx context.Context, databaseID string) (*Schema, error) {
	out := &Schema{}
	if err := c.do(ctx, http.MethodGet, "/databases/"+databaseID, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPage fetches one record by ID.
func (c *Client) GetPage(ctx context.Context, pageID string) (*Page, error) {
	out := &Page{}
	if err := c.do(ctx, http.MethodGet, "/pages/"+pageID, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Parent addresses the collection a new record is created in. Exactly
// one field should be set.
type Parent struct {
	DataSourceID string `json:"data_source_id,omitempty"`
	DatabaseID   string `json:"database_id,omitempty"`
}

// CreatePage creates one record with the given property bag.
func (c *Client) CreatePage(ctx context.Context, parent Parent, properties map[string]any) (*Page, error) {
	body := map[string]any{
		"parent":     parent,
		"properties": properties,
	}
	out := &Page{}
	if err := c.do(ctx, http.MethodPost, "/pages", body, out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePage patches one record's fields.
func (c *Client) UpdatePage(ctx context.Context, pageID string, properties map[string]any) (*Page, error) {
	body := map[string]any{"properties": properties}
	out := &Page{}
	if err := c.do(ctx, http.MethodPatch, "/pages/"+pageID, body, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ArchivePage moves one record to the archive. Used for ticket
// cancellation; records are never hard-deleted.
func (c *Client) ArchivePage(ctx context.Context, pageID string) error {
	body := map[string]any{"archived": true}
	return c.do(ctx, http.MethodPatch, "/pages/"+pageID, body, &Page{})
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", APIVersion)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notion request failed: %w", err)
	}
	defer resp.Body.Close()

	zerolog.Ctx(ctx).Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("notion request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errBody struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
			apiErr.Message = errBody.Message
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// PropertyEquals builds an equality filter on one property, e.g.
// PropertyEquals("자산번호", "rich_text", "DW-1234").
func PropertyEquals(property, kind, value string) map[string]any {
	return map[string]any{
		"property": property,
		kind:       map[string]any{"equals": value},
	}
}

// And combines filters into a conjunction.
func And(filters ...any) map[string]any {
	return map[string]any{"and": filters}
}
