// Package memstore is an in-memory workspace.Client. It enforces the parts
// of the store's behavior provisioning depends on: one title column per table,
// synced reverse relations, rollups that must reference an existing relation,
// and typed cells.
package memstore

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leapyear/internal/workspace"
	"github.com/leapstack-labs/leapyear/pkg/core"
)

// Op names a Client method for hooks and call counters.
type Op string

// Client operations.
const (
	OpSearch            Op = "search"
	OpCreateTable       Op = "create_table"
	OpUpdateTableSchema Op = "update_table_schema"
	OpGetTableSchema    Op = "get_table_schema"
	OpCreateRow         Op = "create_row"
	OpUpdateRow         Op = "update_row"
	OpQueryRows         Op = "query_rows"
)

// Call describes an intercepted operation.
type Call struct {
	Op Op
	// Target is the parent, table or row id the operation addresses.
	Target string
	// Name is the table name or row title being created, if any.
	Name string
}

// Hook runs before every operation. A non-nil error is returned to the
// caller and the operation has no effect.
type Hook func(Call) error

type table struct {
	id       string
	parentID string
	name     string
	icon     string
	columns  map[string]core.ColumnSchema
}

func (t *table) titleColumn() (string, bool) {
	for name, col := range t.columns {
		if col.Kind() == core.KindTitle {
			return name, true
		}
	}
	return "", false
}

type row struct {
	id      string
	tableID string
	title   string
	values  map[string]core.Value
}

// Store is a concurrency-safe in-memory workspace.
type Store struct {
	mu     sync.Mutex
	pages  map[string]*row
	tables map[string]*table
	rows   map[string]*row
	order  []string
	calls  map[Op]int
	hook   Hook
}

var _ workspace.Client = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		pages:  map[string]*row{},
		tables: map[string]*table{},
		rows:   map[string]*row{},
		calls:  map[Op]int{},
	}
}

// SetHook installs h, replacing any previous hook.
func (s *Store) SetHook(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = h
}

// Calls returns how many times op was invoked, including failed calls.
func (s *Store) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// AddPage creates a standalone page that tables can be created under.
func (s *Store) AddPage(title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.pages[id] = &row{id: id, title: title}
	s.order = append(s.order, id)
	return id
}

// SeedTable inserts a table without validating its columns. Use it for
// source tables whose computed columns reference relations elsewhere.
func (s *Store) SeedTable(parentID, name string, cols ...core.ColumnSchema) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	t := &table{id: id, parentID: parentID, name: name, columns: map[string]core.ColumnSchema{}}
	for _, col := range cols {
		t.columns[col.ColumnName()] = col
	}
	s.tables[id] = t
	s.order = append(s.order, id)
	return id
}

// Table returns the name and parent of a table.
func (s *Store) Table(id string) (name, parentID string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[id]
	if !ok {
		return "", "", false
	}
	return t.name, t.parentID, true
}

// TableByName returns the id of the first table called name.
func (s *Store) TableByName(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		if t, ok := s.tables[id]; ok && t.name == name {
			return id, true
		}
	}
	return "", false
}

// Rows returns every row of a table in creation order.
func (s *Store) Rows(tableID string) []core.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rowsOf(tableID, "")
}

func notFound(kind, id string) error {
	return &workspace.APIError{
		Status:  http.StatusNotFound,
		Code:    "object_not_found",
		Message: fmt.Sprintf("could not find %s with id %s", kind, id),
	}
}

func invalid(format string, args ...any) error {
	return &workspace.APIError{
		Status:  http.StatusBadRequest,
		Code:    "validation_error",
		Message: fmt.Sprintf(format, args...),
	}
}

// enter counts the call and runs the hook. Callers hold s.mu.
func (s *Store) enter(call Call) error {
	s.calls[call.Op]++
	if s.hook != nil {
		return s.hook(call)
	}
	return nil
}

func (s *Store) lookupTable(id string) (*table, error) {
	for tid, t := range s.tables {
		if workspace.SameID(tid, id) {
			return t, nil
		}
	}
	return nil, notFound("database", id)
}

func (s *Store) lookupRow(id string) (*row, error) {
	for rid, r := range s.rows {
		if workspace.SameID(rid, id) {
			return r, nil
		}
	}
	return nil, notFound("page", id)
}

func (s *Store) isContainer(id string) bool {
	for pid := range s.pages {
		if workspace.SameID(pid, id) {
			return true
		}
	}
	_, err := s.lookupRow(id)
	return err == nil
}

func matches(title, query string) bool {
	return query == "" || strings.Contains(strings.ToLower(title), strings.ToLower(query))
}

// Search implements workspace.Client with case-insensitive substring matching.
func (s *Store) Search(_ context.Context, kind core.EntityKind, query string) ([]core.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(Call{Op: OpSearch, Name: query}); err != nil {
		return nil, err
	}

	var out []core.Entity
	for _, id := range s.order {
		switch kind {
		case core.EntityTable:
			if t, ok := s.tables[id]; ok && matches(t.name, query) {
				out = append(out, core.Entity{ID: t.id, Kind: kind, Title: t.name, ParentID: t.parentID})
			}
		case core.EntityRow:
			if p, ok := s.pages[id]; ok && matches(p.title, query) {
				out = append(out, core.Entity{ID: p.id, Kind: kind, Title: p.title})
			}
			if r, ok := s.rows[id]; ok && matches(r.title, query) {
				out = append(out, core.Entity{ID: r.id, Kind: kind, Title: r.title, ParentID: r.tableID})
			}
		}
	}
	return out, nil
}

// CreateTable implements workspace.Client.
func (s *Store) CreateTable(_ context.Context, parentID, name, icon string, columns map[string]core.PropertySpec) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(Call{Op: OpCreateTable, Target: parentID, Name: name}); err != nil {
		return "", err
	}
	if !s.isContainer(parentID) {
		return "", notFound("page", parentID)
	}

	titles := 0
	for _, spec := range columns {
		if spec.Kind == core.KindTitle {
			titles++
		}
	}
	if titles != 1 {
		return "", invalid("table %q must have exactly one title column, got %d", name, titles)
	}

	t := &table{id: uuid.NewString(), parentID: parentID, name: name, icon: icon, columns: map[string]core.ColumnSchema{}}
	if err := s.applySchema(t, columns); err != nil {
		return "", err
	}
	s.tables[t.id] = t
	s.order = append(s.order, t.id)
	return t.id, nil
}

// UpdateTableSchema implements workspace.Client.
func (s *Store) UpdateTableSchema(_ context.Context, tableID string, columns map[string]core.PropertySpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(Call{Op: OpUpdateTableSchema, Target: tableID}); err != nil {
		return err
	}
	t, err := s.lookupTable(tableID)
	if err != nil {
		return err
	}
	for name, spec := range columns {
		if spec.Kind != core.KindTitle {
			continue
		}
		if existing, ok := t.titleColumn(); ok && existing != name {
			return invalid("table %q already has title column %q", t.name, existing)
		}
	}
	return s.applySchema(t, columns)
}

// applySchema validates every column before changing anything.
func (s *Store) applySchema(t *table, columns map[string]core.PropertySpec) error {
	next := make(map[string]core.ColumnSchema, len(t.columns)+len(columns))
	for name, col := range t.columns {
		next[name] = col
	}

	type reverse struct {
		target *table
		col    core.RelationColumn
	}
	var reverses []reverse

	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := columns[name]
		col, err := specColumn(name, spec)
		if err != nil {
			return err
		}
		if rel, ok := col.(core.RelationColumn); ok {
			target, err := s.lookupTable(rel.TargetTableID)
			if err != nil && rel.TargetTableID != t.id {
				return invalid("relation %q targets unknown table %s", name, rel.TargetTableID)
			}
			if target == nil {
				target = t
			}
			rel.TargetTableID = target.id
			col = rel
			if rel.SyncedName != "" {
				reverses = append(reverses, reverse{target: target, col: core.RelationColumn{
					Name:          rel.SyncedName,
					TargetTableID: t.id,
					SyncedName:    name,
				}})
			}
		}
		next[name] = col
	}

	for _, name := range names {
		r, ok := next[name].(core.RollupColumn)
		if !ok {
			continue
		}
		if _, ok := next[r.RelationColumn].(core.RelationColumn); !ok {
			return invalid("rollup %q references missing relation %q", name, r.RelationColumn)
		}
	}

	t.columns = next
	for _, r := range reverses {
		r.target.columns[r.col.Name] = r.col
	}
	return nil
}

func specColumn(name string, spec core.PropertySpec) (core.ColumnSchema, error) {
	switch spec.Kind {
	case core.KindTitle:
		return core.TitleColumn{Name: name}, nil
	case core.KindText:
		return core.TextColumn{Name: name}, nil
	case core.KindNumber:
		return core.NumberColumn{Name: name, Format: spec.NumberFormat}, nil
	case core.KindDate:
		return core.DateColumn{Name: name}, nil
	case core.KindCheckbox:
		return core.CheckboxColumn{Name: name}, nil
	case core.KindSelect:
		return core.SelectColumn{Name: name, Options: spec.Options}, nil
	case core.KindMultiSelect:
		return core.MultiSelectColumn{Name: name, Options: spec.Options}, nil
	case core.KindFormula:
		return core.FormulaColumn{Name: name, Expression: spec.Expression}, nil
	case core.KindRollup:
		if spec.Rollup == nil {
			return nil, invalid("rollup %q has no configuration", name)
		}
		return core.RollupColumn{
			Name:           name,
			RelationColumn: spec.Rollup.RelationColumn,
			TargetColumn:   spec.Rollup.TargetColumn,
			Function:       spec.Rollup.Function,
		}, nil
	case core.KindRelation:
		if spec.Relation == nil || spec.Relation.TargetTableID == "" {
			return nil, invalid("relation %q has no target", name)
		}
		return core.RelationColumn{
			Name:          name,
			TargetTableID: spec.Relation.TargetTableID,
			SyncedName:    spec.Relation.ReverseName,
		}, nil
	}
	return nil, fmt.Errorf("column %q: %w: %s", name, core.ErrUnsupportedColumnKind, spec.Kind)
}

// GetTableSchema implements workspace.Client.
func (s *Store) GetTableSchema(_ context.Context, tableID string) ([]core.ColumnSchema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(Call{Op: OpGetTableSchema, Target: tableID}); err != nil {
		return nil, err
	}
	t, err := s.lookupTable(tableID)
	if err != nil {
		return nil, err
	}

	cols := make([]core.ColumnSchema, 0, len(t.columns))
	for _, col := range t.columns {
		cols = append(cols, col)
	}
	sort.Slice(cols, func(i, j int) bool {
		ti, tj := cols[i].Kind() == core.KindTitle, cols[j].Kind() == core.KindTitle
		if ti != tj {
			return ti
		}
		return cols[i].ColumnName() < cols[j].ColumnName()
	})
	return cols, nil
}

// CreateRow implements workspace.Client.
func (s *Store) CreateRow(_ context.Context, tableID string, values map[string]core.Value) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	title := ""
	if v, ok := values[core.TitleKey].(core.TitleValue); ok {
		title = v.Text
	}
	if err := s.enter(Call{Op: OpCreateRow, Target: tableID, Name: title}); err != nil {
		return "", err
	}
	t, err := s.lookupTable(tableID)
	if err != nil {
		return "", err
	}

	r := &row{id: uuid.NewString(), tableID: t.id, values: map[string]core.Value{}}
	if err := s.setValues(t, r, values); err != nil {
		return "", err
	}
	s.rows[r.id] = r
	s.order = append(s.order, r.id)
	s.syncRelations(t, r, values)
	return r.id, nil
}

// UpdateRow implements workspace.Client.
func (s *Store) UpdateRow(_ context.Context, rowID string, values map[string]core.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(Call{Op: OpUpdateRow, Target: rowID}); err != nil {
		return err
	}
	r, err := s.lookupRow(rowID)
	if err != nil {
		return err
	}
	t := s.tables[r.tableID]

	staged := &row{id: r.id, tableID: r.tableID, title: r.title, values: map[string]core.Value{}}
	for k, v := range r.values {
		staged.values[k] = v
	}
	if err := s.setValues(t, staged, values); err != nil {
		return err
	}
	*r = *staged
	s.syncRelations(t, r, values)
	return nil
}

// setValues checks each cell against the table's columns and stores it.
func (s *Store) setValues(t *table, r *row, values map[string]core.Value) error {
	for name, v := range values {
		colName := name
		if name == core.TitleKey {
			title, ok := t.titleColumn()
			if !ok {
				return invalid("table %q has no title column", t.name)
			}
			colName = title
		}
		col, ok := t.columns[colName]
		if !ok {
			return invalid("%q is not a property of %q", name, t.name)
		}
		if col.Kind() != v.ValueKind() {
			return invalid("property %q of %q is %s, not %s", colName, t.name, col.Kind(), v.ValueKind())
		}
		if rel, ok := v.(core.RelationValue); ok {
			for _, id := range rel.IDs {
				if _, err := s.lookupRow(id); err != nil {
					return invalid("relation %q points at unknown row %s", colName, id)
				}
			}
		}
		r.values[colName] = v
		if title, ok := v.(core.TitleValue); ok {
			r.title = title.Text
		}
	}
	return nil
}

// syncRelations mirrors written dual relations onto the reverse column of
// every row on the other side.
func (s *Store) syncRelations(t *table, r *row, values map[string]core.Value) {
	for name, v := range values {
		rel, ok := v.(core.RelationValue)
		if !ok {
			continue
		}
		col, ok := t.columns[name].(core.RelationColumn)
		if !ok || col.SyncedName == "" {
			continue
		}
		for _, other := range s.rows {
			if other.tableID != col.TargetTableID {
				continue
			}
			back, _ := other.values[col.SyncedName].(core.RelationValue)
			has := back.Contains(r.id)
			want := rel.Contains(other.id)
			switch {
			case want && !has:
				back.IDs = append(append([]string(nil), back.IDs...), r.id)
				other.values[col.SyncedName] = back
			case !want && has:
				kept := make([]string, 0, len(back.IDs))
				for _, id := range back.IDs {
					if id != r.id {
						kept = append(kept, id)
					}
				}
				other.values[col.SyncedName] = core.RelationValue{IDs: kept}
			}
		}
	}
}

// QueryRows implements workspace.Client.
func (s *Store) QueryRows(_ context.Context, tableID string, filter *workspace.RowFilter) ([]core.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(Call{Op: OpQueryRows, Target: tableID}); err != nil {
		return nil, err
	}
	t, err := s.lookupTable(tableID)
	if err != nil {
		return nil, err
	}
	title := ""
	if filter != nil {
		title = filter.TitleEquals
	}
	return s.rowsOf(t.id, title), nil
}

func (s *Store) rowsOf(tableID, title string) []core.Row {
	var out []core.Row
	for _, id := range s.order {
		r, ok := s.rows[id]
		if !ok || r.tableID != tableID {
			continue
		}
		if title != "" && r.title != title {
			continue
		}
		values := make(map[string]core.Value, len(r.values))
		for k, v := range r.values {
			values[k] = v
		}
		out = append(out, core.Row{ID: r.id, TableID: r.tableID, Title: r.title, Values: values})
	}
	return out
}
