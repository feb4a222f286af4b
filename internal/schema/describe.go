package schema

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapyear/pkg/core"
)

// describeVisitor renders the display form of a column's configuration.
type describeVisitor struct{ text string }

func (v *describeVisitor) VisitTitle(core.TitleColumn)       { v.text = "" }
func (v *describeVisitor) VisitText(core.TextColumn)         { v.text = "" }
func (v *describeVisitor) VisitDate(core.DateColumn)         { v.text = "" }
func (v *describeVisitor) VisitCheckbox(core.CheckboxColumn) { v.text = "" }

func (v *describeVisitor) VisitNumber(c core.NumberColumn) {
	if c.Format != "" {
		v.text = "format " + c.Format
	}
}

func (v *describeVisitor) VisitSelect(c core.SelectColumn) {
	v.text = optionList(c.Options)
}

func (v *describeVisitor) VisitMultiSelect(c core.MultiSelectColumn) {
	v.text = optionList(c.Options)
}

func (v *describeVisitor) VisitStatus(c core.StatusColumn) {
	v.text = optionList(c.Options)
}

func (v *describeVisitor) VisitFormula(c core.FormulaColumn) {
	v.text = c.Expression
}

func (v *describeVisitor) VisitRollup(c core.RollupColumn) {
	v.text = fmt.Sprintf("%s(%s.%s)", c.Function, c.RelationColumn, c.TargetColumn)
}

func (v *describeVisitor) VisitRelation(c core.RelationColumn) {
	v.text = "-> " + c.TargetTableID
	if c.SyncedName != "" {
		v.text += " (synced as " + c.SyncedName + ")"
	}
}

func (v *describeVisitor) VisitUnsupported(c core.UnsupportedColumn) {
	v.text = "kind " + c.RawKind + " is not cloned"
}

func optionList(opts []core.SelectOption) string {
	names := make([]string, len(opts))
	for i, o := range opts {
		names[i] = o.Name
	}
	return strings.Join(names, ", ")
}

// Describe returns a one-line, human readable summary of col's configuration.
func Describe(col core.ColumnSchema) string {
	v := &describeVisitor{}
	col.Accept(v)
	return v.text
}
