package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapyear/internal/cli/config"
	"github.com/leapstack-labs/leapyear/internal/cli/output"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show journaled runs",
		Long: `List past runs recorded in the local journal, most recent first.
With a run id, show that run's phases, item failures and table ids.`,
		Example: `  leapyear history
  leapyear history 1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.GetConfig(ctx)
			logger := config.GetLogger(ctx)
			r := getRenderer(cmd)

			journal, err := openJournal(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to open run journal: %w", err)
			}
			defer func() { _ = journal.Close() }()

			if len(args) == 0 {
				runs, err := journal.ListRuns(opts.Limit)
				if err != nil {
					return err
				}
				return r.Runs(runs)
			}

			run, err := journal.GetRun(args[0])
			if err != nil {
				return err
			}
			detail := output.RunDetail{Run: *run}
			if detail.Phases, err = journal.ListPhases(run.ID); err != nil {
				return err
			}
			if detail.Failures, err = journal.ListFailures(run.ID); err != nil {
				return err
			}
			if detail.Tables, err = journal.ListTables(run.ID); err != nil {
				return err
			}
			return r.Run(detail)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")

	return cmd
}
