// Package populate seeds the rows of a provisioned year: months, weeks,
// per-week and per-month children, and the year row. Rows are identified
// by their title; a row whose title already exists is never created again.
package populate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapyear/internal/calendar"
	"github.com/leapstack-labs/leapyear/internal/probe"
	"github.com/leapstack-labs/leapyear/internal/workspace"
	"github.com/leapstack-labs/leapyear/pkg/core"
)

// RowSpec is one row to ensure.
type RowSpec struct {
	TableID string
	Title   string
	// Values holds the non-title cells, keyed by column name.
	Values map[string]core.Value
}

func (s RowSpec) String() string { return s.Title }

func (s RowSpec) cells() map[string]core.Value {
	cells := make(map[string]core.Value, len(s.Values)+1)
	for k, v := range s.Values {
		cells[k] = v
	}
	cells[core.TitleKey] = core.TitleValue{Text: s.Title}
	return cells
}

// Parent is a row that children link back to.
type Parent struct {
	ID    string
	Title string
}

// MonthRows returns one row per month. When dateColumn is set each row
// carries the month's date range.
func MonthRows(tableID, dateColumn string, year int) []RowSpec {
	months := calendar.Months()
	specs := make([]RowSpec, len(months))
	for i, m := range months {
		spec := RowSpec{TableID: tableID, Title: m.Title}
		if dateColumn != "" {
			first, last := calendar.MonthRange(year, m)
			spec.Values = map[string]core.Value{dateColumn: core.DateValue{Start: first, End: last}}
		}
		specs[i] = spec
	}
	return specs
}

// WeekRows returns one row per week, dated with the week's span when
// dateColumn is set.
func WeekRows(tableID, dateColumn string, weeks []core.WeekBucket) []RowSpec {
	specs := make([]RowSpec, len(weeks))
	for i, w := range weeks {
		spec := RowSpec{TableID: tableID, Title: w.Title}
		if dateColumn != "" {
			spec.Values = map[string]core.Value{dateColumn: core.DateValue{Start: w.Start, End: w.End}}
		}
		specs[i] = spec
	}
	return specs
}

// ChildRows returns one row per parent, titled like the parent and linked
// to it through parentColumn.
func ChildRows(tableID, parentColumn string, parents []Parent) []RowSpec {
	specs := make([]RowSpec, len(parents))
	for i, p := range parents {
		specs[i] = RowSpec{
			TableID: tableID,
			Title:   p.Title,
			Values:  map[string]core.Value{parentColumn: core.RelationValue{IDs: []string{p.ID}}},
		}
	}
	return specs
}

// YearRow returns the single row that ties a year to its months.
func YearRow(tableID, title, monthsColumn string, monthIDs []string) RowSpec {
	spec := RowSpec{TableID: tableID, Title: title}
	if monthsColumn != "" && len(monthIDs) > 0 {
		spec.Values = map[string]core.Value{monthsColumn: core.RelationValue{IDs: monthIDs}}
	}
	return spec
}

// Populator creates rows.
type Populator struct {
	client workspace.Client
	prober *probe.Prober
	logger *slog.Logger
}

// New creates a Populator.
func New(client workspace.Client, prober *probe.Prober, logger *slog.Logger) *Populator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Populator{client: client, prober: prober, logger: logger}
}

// Exists probes for the row by exact title.
func (p *Populator) Exists(ctx context.Context, spec RowSpec) probe.Result {
	return p.prober.Row(ctx, spec.TableID, spec.Title)
}

// Create adds the row without probing.
func (p *Populator) Create(ctx context.Context, spec RowSpec) (string, error) {
	if spec.TableID == "" {
		return "", fmt.Errorf("%w: table for row %q", core.ErrEntityNotFound, spec.Title)
	}
	id, err := p.client.CreateRow(ctx, spec.TableID, spec.cells())
	if err != nil {
		return "", fmt.Errorf("creating row %q: %w", spec.Title, err)
	}
	p.logger.Debug("created row", "table_id", spec.TableID, "row_id", id, "label", spec.Title)
	return id, nil
}

// Link points a row's relation column at ids.
func (p *Populator) Link(ctx context.Context, rowID, column string, ids ...string) error {
	err := p.client.UpdateRow(ctx, rowID, map[string]core.Value{column: core.RelationValue{IDs: ids}})
	if err != nil {
		return fmt.Errorf("linking %s.%s: %w", rowID, column, err)
	}
	return nil
}
