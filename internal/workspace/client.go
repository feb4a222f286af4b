// Package workspace talks to the workspace store that holds the provisioned
// tables. Client is the contract every other package depends on; HTTPClient
// implements it against the store's REST API and memstore implements it in
// memory for tests.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/leapstack-labs/leapyear/pkg/core"
)

// Client is the workspace store.
type Client interface {
	// Search returns entities of kind whose title fuzzily matches query.
	// Results may come from anywhere in the workspace; callers filter by parent.
	Search(ctx context.Context, kind core.EntityKind, query string) ([]core.Entity, error)

	// CreateTable creates a table under parentID and returns its id.
	CreateTable(ctx context.Context, parentID, name, icon string, columns map[string]core.PropertySpec) (string, error)

	// UpdateTableSchema adds or replaces columns of a table.
	UpdateTableSchema(ctx context.Context, tableID string, columns map[string]core.PropertySpec) error

	// GetTableSchema returns the columns of a table, title column first.
	GetTableSchema(ctx context.Context, tableID string) ([]core.ColumnSchema, error)

	// CreateRow adds a row to a table and returns its id.
	CreateRow(ctx context.Context, tableID string, values map[string]core.Value) (string, error)

	// UpdateRow sets cells of an existing row.
	UpdateRow(ctx context.Context, rowID string, values map[string]core.Value) error

	// QueryRows returns the rows of a table, optionally filtered.
	QueryRows(ctx context.Context, tableID string, filter *RowFilter) ([]core.Row, error)
}

// RowFilter narrows QueryRows.
type RowFilter struct {
	// TitleEquals keeps rows whose title equals the value.
	TitleEquals string
}

// APIError is an error response from the store.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("store returned %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("store returned %d: %s", e.Status, e.Message)
}

// Unwrap makes every API error a core.ErrRemoteCall.
func (e *APIError) Unwrap() error {
	return core.ErrRemoteCall
}

// IsRateLimited reports whether err is the store's throttling response.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests
}

// IsNotFound reports whether err says the addressed object does not exist.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
