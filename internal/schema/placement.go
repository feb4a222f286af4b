// Package schema converts template-year column schemas into creation-ready
// schemas and decides which pipeline phase owns each column.
package schema

import "github.com/leapstack-labs/leapyear/pkg/core"

// Placement is the pipeline phase that creates a column.
type Placement int

// Column placements.
const (
	// PlaceBasic columns are created with the table in phase 1.
	PlaceBasic Placement = iota + 1
	// PlaceRelation columns are wired in phase 2.
	PlaceRelation
	// PlaceComputed columns are cloned with expression rewriting in phase 3.
	PlaceComputed
	// PlaceManual columns cannot be created through the store's API.
	PlaceManual
	// PlaceDropped columns are of a kind leapyear does not clone.
	PlaceDropped
)

func (p Placement) String() string {
	switch p {
	case PlaceBasic:
		return "basic"
	case PlaceRelation:
		return "relation"
	case PlaceComputed:
		return "computed"
	case PlaceManual:
		return "manual"
	default:
		return "dropped"
	}
}

type placementVisitor struct{ p Placement }

func (v *placementVisitor) VisitTitle(core.TitleColumn)             { v.p = PlaceBasic }
func (v *placementVisitor) VisitText(core.TextColumn)               { v.p = PlaceBasic }
func (v *placementVisitor) VisitNumber(core.NumberColumn)           { v.p = PlaceBasic }
func (v *placementVisitor) VisitDate(core.DateColumn)               { v.p = PlaceBasic }
func (v *placementVisitor) VisitCheckbox(core.CheckboxColumn)       { v.p = PlaceBasic }
func (v *placementVisitor) VisitSelect(core.SelectColumn)           { v.p = PlaceBasic }
func (v *placementVisitor) VisitMultiSelect(core.MultiSelectColumn) { v.p = PlaceBasic }
func (v *placementVisitor) VisitStatus(core.StatusColumn)           { v.p = PlaceManual }
func (v *placementVisitor) VisitFormula(core.FormulaColumn)         { v.p = PlaceComputed }
func (v *placementVisitor) VisitRollup(core.RollupColumn)           { v.p = PlaceComputed }
func (v *placementVisitor) VisitRelation(core.RelationColumn)       { v.p = PlaceRelation }
func (v *placementVisitor) VisitUnsupported(core.UnsupportedColumn) { v.p = PlaceDropped }

// Place returns the phase that owns col.
func Place(col core.ColumnSchema) Placement {
	v := &placementVisitor{}
	col.Accept(v)
	return v.p
}

// Computed returns the formula and rollup columns of cols, in order.
func Computed(cols []core.ColumnSchema) []core.ColumnSchema {
	var out []core.ColumnSchema
	for _, col := range cols {
		if Place(col) == PlaceComputed {
			out = append(out, col)
		}
	}
	return out
}
