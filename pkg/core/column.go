package core

// Kind identifies a column type as reported by the workspace store.
type Kind string

// Column kinds understood by leapyear.
const (
	KindTitle       Kind = "title"
	KindText        Kind = "rich_text"
	KindNumber      Kind = "number"
	KindDate        Kind = "date"
	KindCheckbox    Kind = "checkbox"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multi_select"
	KindStatus      Kind = "status"
	KindFormula     Kind = "formula"
	KindRollup      Kind = "rollup"
	KindRelation    Kind = "relation"
)

// ColumnSchema is the read format of a single table column.
//
// It is a closed union: every variant is one of the *Column types in this
// file. Code that transforms columns implements ColumnVisitor, so adding a
// variant breaks the build until every transform handles it.
type ColumnSchema interface {
	ColumnName() string
	Kind() Kind
	Accept(v ColumnVisitor)
}

// ColumnVisitor has one method per ColumnSchema variant.
type ColumnVisitor interface {
	VisitTitle(TitleColumn)
	VisitText(TextColumn)
	VisitNumber(NumberColumn)
	VisitDate(DateColumn)
	VisitCheckbox(CheckboxColumn)
	VisitSelect(SelectColumn)
	VisitMultiSelect(MultiSelectColumn)
	VisitStatus(StatusColumn)
	VisitFormula(FormulaColumn)
	VisitRollup(RollupColumn)
	VisitRelation(RelationColumn)
	VisitUnsupported(UnsupportedColumn)
}

// SelectOption is one choice of a select, multi-select or status column.
type SelectOption struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// TitleColumn is the table's primary (title) column.
type TitleColumn struct {
	Name string
}

// TextColumn holds free text.
type TextColumn struct {
	Name string
}

// NumberColumn holds a number with a display format.
type NumberColumn struct {
	Name   string
	Format string
}

// DateColumn holds a date or a date range.
type DateColumn struct {
	Name string
}

// CheckboxColumn holds a boolean.
type CheckboxColumn struct {
	Name string
}

// SelectColumn holds a single choice.
type SelectColumn struct {
	Name    string
	Options []SelectOption
}

// MultiSelectColumn holds several choices.
type MultiSelectColumn struct {
	Name    string
	Options []SelectOption
}

// StatusColumn is a workflow status. The store cannot create it programmatically.
type StatusColumn struct {
	Name    string
	Options []SelectOption
}

// FormulaColumn is a computed column driven by an expression.
type FormulaColumn struct {
	Name       string
	Expression string
}

// RollupColumn aggregates a column across a relation.
type RollupColumn struct {
	Name           string
	RelationColumn string
	TargetColumn   string
	Function       string
}

// RelationColumn references rows of another table.
type RelationColumn struct {
	Name          string
	TargetTableID string
	SyncedName    string
}

// UnsupportedColumn is any kind leapyear does not know how to clone.
type UnsupportedColumn struct {
	Name    string
	RawKind string
}

func (c TitleColumn) ColumnName() string       { return c.Name }
func (c TextColumn) ColumnName() string        { return c.Name }
func (c NumberColumn) ColumnName() string      { return c.Name }
func (c DateColumn) ColumnName() string        { return c.Name }
func (c CheckboxColumn) ColumnName() string    { return c.Name }
func (c SelectColumn) ColumnName() string      { return c.Name }
func (c MultiSelectColumn) ColumnName() string { return c.Name }
func (c StatusColumn) ColumnName() string      { return c.Name }
func (c FormulaColumn) ColumnName() string     { return c.Name }
func (c RollupColumn) ColumnName() string      { return c.Name }
func (c RelationColumn) ColumnName() string    { return c.Name }
func (c UnsupportedColumn) ColumnName() string { return c.Name }

func (TitleColumn) Kind() Kind         { return KindTitle }
func (TextColumn) Kind() Kind          { return KindText }
func (NumberColumn) Kind() Kind        { return KindNumber }
func (DateColumn) Kind() Kind          { return KindDate }
func (CheckboxColumn) Kind() Kind      { return KindCheckbox }
func (SelectColumn) Kind() Kind        { return KindSelect }
func (MultiSelectColumn) Kind() Kind   { return KindMultiSelect }
func (StatusColumn) Kind() Kind        { return KindStatus }
func (FormulaColumn) Kind() Kind       { return KindFormula }
func (RollupColumn) Kind() Kind        { return KindRollup }
func (RelationColumn) Kind() Kind      { return KindRelation }
func (c UnsupportedColumn) Kind() Kind { return Kind(c.RawKind) }

func (c TitleColumn) Accept(v ColumnVisitor)       { v.VisitTitle(c) }
func (c TextColumn) Accept(v ColumnVisitor)        { v.VisitText(c) }
func (c NumberColumn) Accept(v ColumnVisitor)      { v.VisitNumber(c) }
func (c DateColumn) Accept(v ColumnVisitor)        { v.VisitDate(c) }
func (c CheckboxColumn) Accept(v ColumnVisitor)    { v.VisitCheckbox(c) }
func (c SelectColumn) Accept(v ColumnVisitor)      { v.VisitSelect(c) }
func (c MultiSelectColumn) Accept(v ColumnVisitor) { v.VisitMultiSelect(c) }
func (c StatusColumn) Accept(v ColumnVisitor)      { v.VisitStatus(c) }
func (c FormulaColumn) Accept(v ColumnVisitor)     { v.VisitFormula(c) }
func (c RollupColumn) Accept(v ColumnVisitor)      { v.VisitRollup(c) }
func (c RelationColumn) Accept(v ColumnVisitor)    { v.VisitRelation(c) }
func (c UnsupportedColumn) Accept(v ColumnVisitor) { v.VisitUnsupported(c) }

// PropertySpec is the creation format of a column: what the store needs to
// add the column to a table. Only the fields relevant to Kind are set.
type PropertySpec struct {
	Kind         Kind
	NumberFormat string
	Options      []SelectOption
	Expression   string
	Rollup       *RollupSpec
	Relation     *RelationSpec
}

// RollupSpec configures an aggregate column.
type RollupSpec struct {
	RelationColumn string
	TargetColumn   string
	Function       string
}

// RelationSpec configures a relation column. When ReverseName is set the
// store creates and keeps synced a paired column on the target table.
type RelationSpec struct {
	TargetTableID string
	ReverseName   string
}
