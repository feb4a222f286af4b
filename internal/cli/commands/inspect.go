package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapyear/internal/cli/config"
	"github.com/leapstack-labs/leapyear/internal/cli/output"
	"github.com/leapstack-labs/leapyear/internal/schema"
	"github.com/leapstack-labs/leapyear/internal/template"
	"github.com/leapstack-labs/leapyear/pkg/core"
	"github.com/spf13/cobra"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <KEY>",
		Short: "Show a template table's columns and the phase that clones each",
		Long: `Fetch the schema of the template-year source table bound to KEY and show,
for every column, its kind and the phase that creates it in the new year:
1 (with the table), 2 (relations), 3 (computed), manual (status columns),
omitted, or dropped.`,
		Example: `  leapyear inspect TASKS`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.GetConfig(ctx)
			logger := config.GetLogger(ctx)

			topo, err := loadTopology(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to load topology: %w", err)
			}
			tmpl, ok := topo.TableByKey(args[0])
			if !ok {
				return fmt.Errorf("unknown table key %q", args[0])
			}
			if tmpl.SourceID == "" {
				return fmt.Errorf("%w: no source id for %s\nHint: set sources.%s in leapyear.yaml", core.ErrConfigurationMissing, tmpl.Key, tmpl.Key)
			}

			client, err := newClient(cfg, logger)
			if err != nil {
				return err
			}
			cols, err := client.GetTableSchema(ctx, tmpl.SourceID)
			if err != nil {
				return fmt.Errorf("failed to read schema of %s: %w", tmpl.Key, err)
			}

			years := cfg.Years()
			rows := describeColumns(cols, tmpl.Omit, years)
			return getRenderer(cmd).Schema(template.Render(tmpl.Name, template.Years{Target: years.Template}), rows)
		},
	}
}

func phaseLabel(p schema.Placement) string {
	switch p {
	case schema.PlaceBasic:
		return "1"
	case schema.PlaceRelation:
		return "2"
	case schema.PlaceComputed:
		return "3"
	}
	return p.String()
}

// describeColumns lists source columns with their placement in the new year.
func describeColumns(cols []core.ColumnSchema, omit []string, years template.Years) []output.ColumnRow {
	omitted := make(map[string]bool, len(omit))
	for _, name := range omit {
		omitted[template.Render(name, years)] = true
	}

	rows := make([]output.ColumnRow, 0, len(cols))
	for _, col := range cols {
		phase := phaseLabel(schema.Place(col))
		if omitted[col.ColumnName()] || omitted[template.Render(col.ColumnName(), years)] {
			phase = "omitted"
		}
		rows = append(rows, output.ColumnRow{
			Name:   col.ColumnName(),
			Kind:   string(col.Kind()),
			Phase:  phase,
			Detail: schema.Describe(col),
		})
	}
	return rows
}
