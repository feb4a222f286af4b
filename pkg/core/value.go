package core

import "time"

// TitleKey addresses a row's title column regardless of its display name.
const TitleKey = "title"

// Value is a cell value written to or read from a row.
type Value interface {
	ValueKind() Kind
}

// TitleValue is the text of a title cell.
type TitleValue struct{ Text string }

// TextValue is the text of a rich_text cell.
type TextValue struct{ Text string }

// NumberValue is a numeric cell.
type NumberValue struct{ Number float64 }

// DateValue is a single date (End zero) or an inclusive date range.
type DateValue struct {
	Start time.Time
	End   time.Time
}

// CheckboxValue is a boolean cell.
type CheckboxValue struct{ Checked bool }

// SelectValue names the chosen option of a select cell.
type SelectValue struct{ Name string }

// RelationValue lists the ids of related rows.
type RelationValue struct{ IDs []string }

func (TitleValue) ValueKind() Kind    { return KindTitle }
func (TextValue) ValueKind() Kind     { return KindText }
func (NumberValue) ValueKind() Kind   { return KindNumber }
func (DateValue) ValueKind() Kind     { return KindDate }
func (CheckboxValue) ValueKind() Kind { return KindCheckbox }
func (SelectValue) ValueKind() Kind   { return KindSelect }
func (RelationValue) ValueKind() Kind { return KindRelation }

// Contains reports whether the relation points at id.
func (v RelationValue) Contains(id string) bool {
	for _, got := range v.IDs {
		if got == id {
			return true
		}
	}
	return false
}

// Row is a record of a table, identified by its title for idempotency lookups.
type Row struct {
	ID      string
	TableID string
	Title   string
	Values  map[string]Value
}

// Relation returns the relation value stored under column, if any.
func (r Row) Relation(column string) (RelationValue, bool) {
	v, ok := r.Values[column].(RelationValue)
	return v, ok
}

// EntityKind distinguishes searchable store objects.
type EntityKind string

// Searchable entity kinds.
const (
	EntityTable EntityKind = "table"
	EntityRow   EntityKind = "row"
)

// Entity is a search hit.
type Entity struct {
	ID       string
	Kind     EntityKind
	Title    string
	ParentID string
}
