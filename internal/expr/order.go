package expr

import (
	"fmt"

	"github.com/leapstack-labs/leapyear/internal/dag"
	"github.com/leapstack-labs/leapyear/pkg/core"
)

// References returns the column names quoted in the prop() and ref() calls
// of expr, in order of appearance.
func References(expr string) []string {
	var names []string
	for _, m := range refPattern.FindAllStringSubmatch(expr, -1) {
		names = append(names, m[2])
	}
	return names
}

// Order sorts the computed columns of one table so that every formula comes
// after the computed columns it references. The store rejects a formula
// that names a column the table does not have yet. Columns that do not
// reference each other keep their order.
func Order(cols []core.ColumnSchema) ([]core.ColumnSchema, error) {
	g := dag.NewGraph[core.ColumnSchema]()
	for _, col := range cols {
		g.AddNode(col.ColumnName(), col)
	}
	for _, col := range cols {
		f, ok := col.(core.FormulaColumn)
		if !ok {
			continue
		}
		for _, ref := range References(f.Expression) {
			if ref == f.Name || !g.Has(ref) {
				continue
			}
			if err := g.AddEdge(ref, f.Name); err != nil {
				return nil, err
			}
		}
	}

	ordered, err := g.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("computed columns reference each other: %w", err)
	}
	return ordered, nil
}
