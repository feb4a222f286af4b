package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/leapstack-labs/leapyear/pkg/core"
)

// Defaults for the hosted store API.
const (
	DefaultBaseURL = "https://api.notion.com"
	DefaultVersion = "2022-06-28"
	DefaultTimeout = 30 * time.Second

	pageSize = 100
)

// HTTPOptions configures an HTTPClient.
type HTTPOptions struct {
	BaseURL string
	Token   string
	Version string
	Timeout time.Duration

	// Limiter, when set, is waited on before every HTTP request, including
	// follow-up pages of paginated calls.
	Limiter Limiter

	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper

	Logger *slog.Logger
}

// HTTPClient implements Client over the store's REST API.
type HTTPClient struct {
	baseURL string
	token   string
	version string
	http    *http.Client
	logger  *slog.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a REST client.
func NewHTTPClient(opts HTTPOptions) *HTTPClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if opts.Limiter != nil {
		transport = &limitedTransport{next: transport, limiter: opts.Limiter}
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		version: opts.Version,
		http:    &http.Client{Timeout: opts.Timeout, Transport: transport},
		logger:  opts.Logger,
	}
}

// do sends one request and decodes the JSON response into out.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", core.ErrRemoteCall, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading %s %s: %v", core.ErrRemoteCall, method, path, err)
	}

	c.logger.Debug("store call", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decoding %s %s: %v", core.ErrRemoteCall, method, path, err)
	}
	return nil
}

// paginate runs a cursor-paginated POST until the store reports no more results.
func (c *HTTPClient) paginate(ctx context.Context, path string, body map[string]any, each func(json.RawMessage) error) error {
	cursor := ""
	for {
		req := make(map[string]any, len(body)+2)
		for k, v := range body {
			req[k] = v
		}
		req["page_size"] = pageSize
		if cursor != "" {
			req["start_cursor"] = cursor
		}

		var page listResponse
		if err := c.do(ctx, http.MethodPost, path, req, &page); err != nil {
			return err
		}
		for _, raw := range page.Results {
			if err := each(raw); err != nil {
				return err
			}
		}
		if !page.HasMore || page.NextCursor == "" {
			return nil
		}
		cursor = page.NextCursor
	}
}

func objectFilter(kind core.EntityKind) string {
	if kind == core.EntityTable {
		return "database"
	}
	return "page"
}

// Search implements Client.
func (c *HTTPClient) Search(ctx context.Context, kind core.EntityKind, query string) ([]core.Entity, error) {
	body := map[string]any{
		"filter": map[string]string{"property": "object", "value": objectFilter(kind)},
	}
	if query != "" {
		body["query"] = query
	}

	var out []core.Entity
	err := c.paginate(ctx, "/v1/search", body, func(raw json.RawMessage) error {
		var hit searchHit
		if err := json.Unmarshal(raw, &hit); err != nil {
			return fmt.Errorf("%w: decoding search result: %v", core.ErrRemoteCall, err)
		}
		entity := core.Entity{ID: hit.ID, Kind: kind, ParentID: hit.Parent.id()}
		if kind == core.EntityTable {
			entity.Title = plainText(hit.Title)
		} else {
			entity.Title = decodeRow("", pageObject{ID: hit.ID, Parent: hit.Parent, Properties: hit.Properties}).Title
		}
		out = append(out, entity)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTable implements Client.
func (c *HTTPClient) CreateTable(ctx context.Context, parentID, name, icon string, columns map[string]core.PropertySpec) (string, error) {
	props, err := encodeSpecs(columns)
	if err != nil {
		return "", err
	}
	body := map[string]any{
		"parent":     parentRef{Type: "page_id", PageID: parentID},
		"title":      textRuns(name),
		"properties": props,
	}
	if icon != "" {
		body["icon"] = map[string]string{"type": "emoji", "emoji": icon}
	}

	var created tableObject
	if err := c.do(ctx, http.MethodPost, "/v1/databases", body, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// UpdateTableSchema implements Client.
func (c *HTTPClient) UpdateTableSchema(ctx context.Context, tableID string, columns map[string]core.PropertySpec) error {
	props, err := encodeSpecs(columns)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, "/v1/databases/"+url.PathEscape(tableID), map[string]any{"properties": props}, nil)
}

// GetTableSchema implements Client.
func (c *HTTPClient) GetTableSchema(ctx context.Context, tableID string) ([]core.ColumnSchema, error) {
	var table tableObject
	if err := c.do(ctx, http.MethodGet, "/v1/databases/"+url.PathEscape(tableID), nil, &table); err != nil {
		return nil, err
	}
	return decodeColumns(table.Properties), nil
}

// CreateRow implements Client.
func (c *HTTPClient) CreateRow(ctx context.Context, tableID string, values map[string]core.Value) (string, error) {
	props, err := encodeValues(values)
	if err != nil {
		return "", err
	}
	body := map[string]any{
		"parent":     parentRef{Type: "database_id", DatabaseID: tableID},
		"properties": props,
	}

	var created pageObject
	if err := c.do(ctx, http.MethodPost, "/v1/pages", body, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// UpdateRow implements Client.
func (c *HTTPClient) UpdateRow(ctx context.Context, rowID string, values map[string]core.Value) error {
	props, err := encodeValues(values)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, "/v1/pages/"+url.PathEscape(rowID), map[string]any{"properties": props}, nil)
}

// QueryRows implements Client.
func (c *HTTPClient) QueryRows(ctx context.Context, tableID string, filter *RowFilter) ([]core.Row, error) {
	body := map[string]any{}
	if filter != nil && filter.TitleEquals != "" {
		// The title column's property id is always "title".
		body["filter"] = map[string]any{
			"property": core.TitleKey,
			"title":    map[string]string{"equals": filter.TitleEquals},
		}
	}

	var rows []core.Row
	err := c.paginate(ctx, "/v1/databases/"+url.PathEscape(tableID)+"/query", body, func(raw json.RawMessage) error {
		var page pageObject
		if err := json.Unmarshal(raw, &page); err != nil {
			return fmt.Errorf("%w: decoding row: %v", core.ErrRemoteCall, err)
		}
		rows = append(rows, decodeRow(tableID, page))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
