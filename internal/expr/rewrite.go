// Package expr rewrites computed-column definitions cloned from the template
// year so their references point at the target year's tables and columns.
package expr

import (
	"fmt"
	"regexp"

	"github.com/leapstack-labs/leapyear/internal/template"
	"github.com/leapstack-labs/leapyear/pkg/core"
)

// refPattern matches a quoted column reference: ref("Name") or prop("Name").
// Group 1 is everything up to the opening quote, group 2 the quoted name.
var refPattern = regexp.MustCompile(`(\b(?:ref|prop)\(\s*")((?:[^"\\]|\\.)*)"`)

// RewriteFormula renders the year token inside quoted references of expr.
// Text outside the quotes is never touched; an expression without matching
// references is returned unchanged.
func RewriteFormula(expr string, years template.Years) string {
	return refPattern.ReplaceAllStringFunc(expr, func(match string) string {
		parts := refPattern.FindStringSubmatch(match)
		name := parts[2]
		if !template.HasToken(name, years) {
			return match
		}
		return parts[1] + template.Render(name, years) + `"`
	})
}

// RewriteRollup renders the year token in the relation and target column
// names. The aggregate function passes through unchanged.
func RewriteRollup(col core.RollupColumn, years template.Years) core.RollupColumn {
	col.Name = template.Render(col.Name, years)
	col.RelationColumn = template.Render(col.RelationColumn, years)
	col.TargetColumn = template.Render(col.TargetColumn, years)
	return col
}

// rewriteVisitor produces the creation format of a computed column.
type rewriteVisitor struct {
	years template.Years
	spec  core.PropertySpec
	err   error
}

func (v *rewriteVisitor) unsupported(col core.ColumnSchema) {
	v.err = fmt.Errorf("%w: %s column %q is not computed", core.ErrUnsupportedColumnKind, col.Kind(), col.ColumnName())
}

func (v *rewriteVisitor) VisitTitle(c core.TitleColumn)             { v.unsupported(c) }
func (v *rewriteVisitor) VisitText(c core.TextColumn)               { v.unsupported(c) }
func (v *rewriteVisitor) VisitNumber(c core.NumberColumn)           { v.unsupported(c) }
func (v *rewriteVisitor) VisitDate(c core.DateColumn)               { v.unsupported(c) }
func (v *rewriteVisitor) VisitCheckbox(c core.CheckboxColumn)       { v.unsupported(c) }
func (v *rewriteVisitor) VisitSelect(c core.SelectColumn)           { v.unsupported(c) }
func (v *rewriteVisitor) VisitMultiSelect(c core.MultiSelectColumn) { v.unsupported(c) }
func (v *rewriteVisitor) VisitStatus(c core.StatusColumn)           { v.unsupported(c) }
func (v *rewriteVisitor) VisitRelation(c core.RelationColumn)       { v.unsupported(c) }
func (v *rewriteVisitor) VisitUnsupported(c core.UnsupportedColumn) { v.unsupported(c) }

func (v *rewriteVisitor) VisitFormula(c core.FormulaColumn) {
	v.spec = core.PropertySpec{
		Kind:       core.KindFormula,
		Expression: RewriteFormula(c.Expression, v.years),
	}
}

func (v *rewriteVisitor) VisitRollup(c core.RollupColumn) {
	r := RewriteRollup(c, v.years)
	v.spec = core.PropertySpec{
		Kind: core.KindRollup,
		Rollup: &core.RollupSpec{
			RelationColumn: r.RelationColumn,
			TargetColumn:   r.TargetColumn,
			Function:       r.Function,
		},
	}
}

// Rewrite returns the target-year creation format of a formula or rollup
// column. Any other kind is ErrUnsupportedColumnKind.
func Rewrite(col core.ColumnSchema, years template.Years) (core.PropertySpec, error) {
	v := &rewriteVisitor{years: years}
	col.Accept(v)
	if v.err != nil {
		return core.PropertySpec{}, v.err
	}
	return v.spec, nil
}
