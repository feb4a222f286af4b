package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapyear/internal/cli/config"
	"github.com/leapstack-labs/leapyear/internal/cli/output"
	"github.com/leapstack-labs/leapyear/internal/engine"
	"github.com/leapstack-labs/leapyear/internal/workspace"
	"github.com/leapstack-labs/leapyear/pkg/core"
	"github.com/spf13/cobra"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	JSONOutput bool

	// interactive reports whether the target may be prompted for.
	interactive func() bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{interactive: stdinIsTerminal}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Provision a planning year",
		Long: `Create the year's tables under the target page, wire their relations,
clone computed columns, and seed week, month, child and year rows.

Every phase checks what already exists first, so running again after a
failure or an interruption only creates what is missing.

Without --target on an interactive terminal, run prompts for the page and
offers to print identifiers only.`,
		Example: `  # Provision 2027 under a page
  leapyear run --target https://www.notion.so/acme/Planning-0123456789abcdef0123456789abcdef --year 2027

  # Prompt for the page
  leapyear run

  # Emit JSON lines for CI
  leapyear run --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "Output as JSON lines for progress tracking")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	ctx := cmd.Context()
	cfg := config.GetConfig(ctx)
	logger := config.GetLogger(ctx)
	r := getRenderer(cmd)
	if opts.JSONOutput {
		r.SetMode(output.ModeJSON)
	}

	ref := cfg.Target
	act := actionRun
	if ref == "" {
		if opts.interactive == nil || !opts.interactive() {
			return errTargetRequired
		}
		rl, err := newLineReader(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		ref, act, err = promptTarget(rl, cmd.OutOrStdout())
		_ = rl.Close()
		if err != nil {
			return err
		}
	}

	target, err := buildTarget(cfg, ref, logger)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	if act == actionIDs {
		return printIdentifiers(ctx, client, target, r, logger)
	}
	return runPipeline(ctx, cfg, client, target, r, logger)
}

func runPipeline(ctx context.Context, cfg *config.Config, client workspace.Client, target engine.Target, r *output.Renderer, logger *slog.Logger) error {
	var journal core.Journal
	if j, err := openJournal(cfg, logger); err != nil {
		logger.Warn("run journal unavailable, continuing without it", "path", cfg.StatePath, "error", err)
		r.Warning(fmt.Sprintf("run journal unavailable: %v", err))
	} else {
		journal = j
		defer func() { _ = j.Close() }()
	}

	eng, err := engine.New(engine.Config{
		Client:   client,
		Reporter: r,
		Journal:  journal,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	result, runErr := eng.Run(ctx, target)
	if result != nil {
		r.Summary(output.RunSummary{
			RunID:         result.RunID,
			Status:        result.Status,
			Phases:        result.Phases,
			ProbeFailures: result.ProbeFailures,
			Elapsed:       time.Since(start),
		})
	}
	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}
	return nil
}

func printIdentifiers(ctx context.Context, client workspace.Client, target engine.Target, r *output.Renderer, logger *slog.Logger) error {
	eng, err := engine.New(engine.Config{Client: client, Logger: logger})
	if err != nil {
		return err
	}
	entries, err := eng.ScanIdentifiers(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to scan tables: %w", err)
	}
	if len(entries) == 0 {
		r.Warning("no provisioned tables found under the target page")
	}
	return r.Identifiers(entries)
}
