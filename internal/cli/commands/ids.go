package commands

import (
	"github.com/leapstack-labs/leapyear/internal/cli/config"
	"github.com/spf13/cobra"
)

// NewIDsCommand creates the ids command.
func NewIDsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ids",
		Short: "Print the ids of provisioned tables",
		Long: `Scan the target page and print one KEY=value line per provisioned table,
ready to paste into configuration. No phase runs.`,
		Example: `  leapyear ids --target 0123456789abcdef0123456789abcdef --year 2027 > .env`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.GetConfig(ctx)
			logger := config.GetLogger(ctx)

			if cfg.Target == "" {
				return errTargetRequired
			}
			target, err := buildTarget(cfg, cfg.Target, logger)
			if err != nil {
				return err
			}
			client, err := newClient(cfg, logger)
			if err != nil {
				return err
			}
			return printIdentifiers(ctx, client, target, getRenderer(cmd), logger)
		},
	}
}
