// Package probe answers "does this already exist?" for tables, columns and
// rows. Every creation in the pipeline is preceded by a probe, and whole
// phases are skipped when a snapshot shows all their items present.
//
// The store's search is fuzzy, so probes fetch candidates and then match
// exact names client-side after Unicode normalization.
//
// A probe that fails reports "does not exist" so creation is still attempted.
// The failure is kept in Result.Err, logged, and counted; callers that need
// to tell "absent" from "unknown" check Err.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/text/unicode/norm"

	"github.com/leapstack-labs/leapyear/internal/workspace"
	"github.com/leapstack-labs/leapyear/pkg/core"
)

// Result is the outcome of a single probe.
type Result struct {
	// ID of the matching entity when Exists.
	ID     string
	Exists bool
	// Err is set when the probe itself failed. Exists is then false.
	Err error
}

// Prober runs existence checks against a store.
type Prober struct {
	client   workspace.Client
	logger   *slog.Logger
	failures atomic.Int64
}

// New creates a Prober. A nil logger discards output.
func New(client workspace.Client, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Prober{client: client, logger: logger}
}

// Normalize canonicalizes a name for exact comparison.
func Normalize(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// SameName reports whether two names are equal after normalization.
func SameName(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Failures returns how many probes have failed since the Prober was created.
func (p *Prober) Failures() int {
	return int(p.failures.Load())
}

func (p *Prober) failed(what string, err error, attrs ...any) Result {
	p.failures.Add(1)
	p.logger.Warn("probe failed, assuming absent", append([]any{"probe", what, "error", err}, attrs...)...)
	return Result{Err: err}
}

// ScanTables lists the tables directly under containerID, keyed by
// normalized name. A scan failure is returned: callers cannot resolve
// anything without it.
func (p *Prober) ScanTables(ctx context.Context, containerID string) (core.TableRegistry, error) {
	reg := core.NewTableRegistry()
	hits, err := p.client.Search(ctx, core.EntityTable, "")
	if err != nil {
		return reg, fmt.Errorf("scanning tables under %s: %w", containerID, err)
	}
	for _, hit := range hits {
		if workspace.SameID(hit.ParentID, containerID) {
			reg.Add(Normalize(hit.Title), hit.ID)
		}
	}
	p.logger.Debug("scanned container", "container_id", containerID, "tables", reg.Len())
	return reg, nil
}

// Lookup resolves a table name against a registry built by ScanTables.
func Lookup(reg core.TableRegistry, name string) (string, bool) {
	return reg.ID(Normalize(name))
}

// Table checks for a table called name directly under parentID.
func (p *Prober) Table(ctx context.Context, parentID, name string) Result {
	hits, err := p.client.Search(ctx, core.EntityTable, name)
	if err != nil {
		return p.failed("table", err, "name", name)
	}
	for _, hit := range hits {
		if workspace.SameID(hit.ParentID, parentID) && SameName(hit.Title, name) {
			return Result{ID: hit.ID, Exists: true}
		}
	}
	return Result{}
}

// Columns returns the current columns of a table keyed by normalized name.
func (p *Prober) Columns(ctx context.Context, tableID string) (map[string]core.ColumnSchema, error) {
	cols, err := p.client.GetTableSchema(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("reading schema of %s: %w", tableID, err)
	}
	out := make(map[string]core.ColumnSchema, len(cols))
	for _, col := range cols {
		out[Normalize(col.ColumnName())] = col
	}
	return out, nil
}

// Column checks for a column called name on tableID. An empty kind
// matches any kind.
func (p *Prober) Column(ctx context.Context, tableID, name string, kind core.Kind) Result {
	cols, err := p.Columns(ctx, tableID)
	if err != nil {
		return p.failed("column", err, "table_id", tableID, "name", name)
	}
	col, ok := cols[Normalize(name)]
	if !ok || (kind != "" && col.Kind() != kind) {
		return Result{}
	}
	return Result{ID: col.ColumnName(), Exists: true}
}

// Relation checks for a relation column called name on tableID that
// points at targetTableID.
func (p *Prober) Relation(ctx context.Context, tableID, name, targetTableID string) Result {
	cols, err := p.Columns(ctx, tableID)
	if err != nil {
		return p.failed("relation", err, "table_id", tableID, "name", name)
	}
	return Result{ID: name, Exists: HasRelation(cols, name, targetTableID)}
}

// HasRelation reports whether a column snapshot holds a relation called
// name pointing at targetTableID.
func HasRelation(cols map[string]core.ColumnSchema, name, targetTableID string) bool {
	rel, ok := cols[Normalize(name)].(core.RelationColumn)
	return ok && workspace.SameID(rel.TargetTableID, targetTableID)
}

// Rows returns the rows of a table keyed by normalized title. When two rows
// share a title the first one wins.
func (p *Prober) Rows(ctx context.Context, tableID string) (map[string]core.Row, error) {
	rows, err := p.client.QueryRows(ctx, tableID, nil)
	if err != nil {
		return nil, fmt.Errorf("listing rows of %s: %w", tableID, err)
	}
	out := make(map[string]core.Row, len(rows))
	for _, row := range rows {
		key := Normalize(row.Title)
		if _, dup := out[key]; !dup {
			out[key] = row
		}
	}
	return out, nil
}

// Row checks for a row titled title in tableID.
func (p *Prober) Row(ctx context.Context, tableID, title string) Result {
	rows, err := p.client.QueryRows(ctx, tableID, &workspace.RowFilter{TitleEquals: title})
	if err != nil {
		return p.failed("row", err, "table_id", tableID, "title", title)
	}
	for _, row := range rows {
		if SameName(row.Title, title) {
			return Result{ID: row.ID, Exists: true}
		}
	}
	return Result{}
}
