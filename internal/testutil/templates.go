package testutil

import (
	"github.com/leapstack-labs/leapyear/internal/workspace/memstore"
	"github.com/leapstack-labs/leapyear/pkg/core"
)

// SeedTemplates creates the template-year source tables on a separate
// page and returns their ids keyed by table key.
func SeedTemplates(store *memstore.Store) map[string]string {
	src := store.AddPage("2025 Templates")
	title := core.TitleColumn{Name: "Name"}
	return map[string]string{
		"YEARS":  store.SeedTable(src, "2025 Year", title, core.RelationColumn{Name: "Months"}),
		"MONTHS": store.SeedTable(src, "2025 Months", title, core.DateColumn{Name: "Dates"}, core.RelationColumn{Name: "Weeks"}),
		"WEEKS": store.SeedTable(src, "2025 Weeks",
			core.TitleColumn{Name: "Week"},
			core.DateColumn{Name: "Dates"},
			core.RelationColumn{Name: "Month"},
			core.RelationColumn{Name: "Tasks"},
			core.RollupColumn{Name: "Open Tasks", RelationColumn: "Tasks", TargetColumn: "Done", Function: "count"},
			core.FormulaColumn{Name: "Label", Expression: `prop("Week") + " 2025"`},
		),
		"WEEKLY_REVIEWS":  store.SeedTable(src, "2025 Weekly Reviews", title, core.TextColumn{Name: "Wins"}),
		"WEEKLY_GOALS":    store.SeedTable(src, "2025 Weekly Goals", title, core.CheckboxColumn{Name: "Hit"}),
		"MONTHLY_REVIEWS": store.SeedTable(src, "2025 Monthly Reviews", title, core.NumberColumn{Name: "Rating", Format: "number"}),
		"BUDGETS": store.SeedTable(src, "2025 Budgets", title,
			core.NumberColumn{Name: "Amount", Format: "euro"},
			core.UnsupportedColumn{Name: "Receipts", RawKind: "files"},
		),
		"PROJECTS": store.SeedTable(src, "2025 Projects", title,
			core.StatusColumn{Name: "Status"},
			core.RelationColumn{Name: "2025 Weekly Goals"},
			core.RollupColumn{Name: "Goals Hit", RelationColumn: "2025 Weekly Goals", TargetColumn: "Hit", Function: "checked"},
		),
		"TASKS": store.SeedTable(src, "2025 Tasks", title,
			core.StatusColumn{Name: "Status"},
			core.NumberColumn{Name: "Effort"},
			core.CheckboxColumn{Name: "Done"},
			core.SelectColumn{Name: "Area", Options: []core.SelectOption{{Name: "Work", Color: "blue"}}},
			core.FormulaColumn{Name: "Score", Expression: `prop("Effort") * 2`},
		),
		"JOURNAL": store.SeedTable(src, "2025 Journal", title, core.DateColumn{Name: "Day"}),
	}
}
