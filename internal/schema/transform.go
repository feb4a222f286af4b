package schema

import (
	"log/slog"

	"github.com/leapstack-labs/leapyear/internal/template"
	"github.com/leapstack-labs/leapyear/pkg/core"
)

// DefaultTitleColumn names the title column added when a source has none.
const DefaultTitleColumn = "Name"

// creationVisitor converts basic columns to their creation format.
// Anything else leaves ok false.
type creationVisitor struct {
	spec core.PropertySpec
	ok   bool
}

func (v *creationVisitor) set(spec core.PropertySpec) {
	v.spec = spec
	v.ok = true
}

func (v *creationVisitor) VisitTitle(core.TitleColumn) {
	v.set(core.PropertySpec{Kind: core.KindTitle})
}

func (v *creationVisitor) VisitText(core.TextColumn) {
	v.set(core.PropertySpec{Kind: core.KindText})
}

func (v *creationVisitor) VisitNumber(c core.NumberColumn) {
	v.set(core.PropertySpec{Kind: core.KindNumber, NumberFormat: c.Format})
}

func (v *creationVisitor) VisitDate(core.DateColumn) {
	v.set(core.PropertySpec{Kind: core.KindDate})
}

func (v *creationVisitor) VisitCheckbox(core.CheckboxColumn) {
	v.set(core.PropertySpec{Kind: core.KindCheckbox})
}

func (v *creationVisitor) VisitSelect(c core.SelectColumn) {
	v.set(core.PropertySpec{Kind: core.KindSelect, Options: copyOptions(c.Options)})
}

func (v *creationVisitor) VisitMultiSelect(c core.MultiSelectColumn) {
	v.set(core.PropertySpec{Kind: core.KindMultiSelect, Options: copyOptions(c.Options)})
}

func (v *creationVisitor) VisitStatus(core.StatusColumn)           {}
func (v *creationVisitor) VisitFormula(core.FormulaColumn)         {}
func (v *creationVisitor) VisitRollup(core.RollupColumn)           {}
func (v *creationVisitor) VisitRelation(core.RelationColumn)       {}
func (v *creationVisitor) VisitUnsupported(core.UnsupportedColumn) {}

func copyOptions(in []core.SelectOption) []core.SelectOption {
	if len(in) == 0 {
		return nil
	}
	out := make([]core.SelectOption, len(in))
	copy(out, in)
	return out
}

// Creation returns the creation format of a basic column.
// ok is false for every column phase 1 does not create.
func Creation(col core.ColumnSchema) (spec core.PropertySpec, ok bool) {
	v := &creationVisitor{}
	col.Accept(v)
	return v.spec, v.ok
}

// Transform converts a source table's columns into the phase-1 creation schema.
//
// Columns named in omit are dropped, as are relation, computed, status and
// unknown kinds; the last two are logged since nothing later creates them.
// Retained names have the year token rendered. The result always has
// exactly one title column.
func Transform(cols []core.ColumnSchema, omit []string, years template.Years, logger *slog.Logger) map[string]core.PropertySpec {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	omitted := make(map[string]struct{}, len(omit))
	for _, name := range omit {
		omitted[template.Render(name, years)] = struct{}{}
	}

	out := make(map[string]core.PropertySpec, len(cols))
	hasTitle := false
	for _, col := range cols {
		name := template.Render(col.ColumnName(), years)
		if _, skip := omitted[name]; skip {
			continue
		}
		if _, skip := omitted[col.ColumnName()]; skip {
			continue
		}

		switch Place(col) {
		case PlaceManual:
			logger.Debug("dropping column the store cannot create", "column", name, "kind", col.Kind())
			continue
		case PlaceDropped:
			logger.Warn("dropping unsupported column kind", "column", name, "kind", col.Kind())
			continue
		}

		spec, ok := Creation(col)
		if !ok {
			continue
		}
		if spec.Kind == core.KindTitle {
			if hasTitle {
				continue
			}
			hasTitle = true
		}
		out[name] = spec
	}

	if !hasTitle {
		out[DefaultTitleColumn] = core.PropertySpec{Kind: core.KindTitle}
	}
	return out
}

// Missing returns the entries of want whose names are absent from have.
// Phase 6 uses it to find schema gaps on tables that already exist.
func Missing(want map[string]core.PropertySpec, have []core.ColumnSchema) map[string]core.PropertySpec {
	present := make(map[string]struct{}, len(have))
	hasTitle := false
	for _, col := range have {
		present[col.ColumnName()] = struct{}{}
		if col.Kind() == core.KindTitle {
			hasTitle = true
		}
	}

	out := make(map[string]core.PropertySpec)
	for name, spec := range want {
		if _, ok := present[name]; ok {
			continue
		}
		// A table has one title column; a differently named one is not a gap.
		if spec.Kind == core.KindTitle && hasTitle {
			continue
		}
		out[name] = spec
	}
	return out
}
