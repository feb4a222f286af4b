package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapyear/internal/cli/config"
	"github.com/leapstack-labs/leapyear/internal/cli/output"
	"github.com/leapstack-labs/leapyear/internal/engine"
	"github.com/leapstack-labs/leapyear/internal/state"
	"github.com/leapstack-labs/leapyear/internal/topology"
	"github.com/leapstack-labs/leapyear/internal/workspace"
	"github.com/leapstack-labs/leapyear/pkg/core"
	"github.com/spf13/cobra"
)

// errTargetRequired is returned when no container reference is configured
// and stdin cannot be prompted.
var errTargetRequired = errors.New("target is required\nHint: pass --target, set LEAPYEAR_TARGET, or add target to leapyear.yaml")

// newClient builds the workspace client. Tests replace it.
var newClient = func(cfg *config.Config, logger *slog.Logger) (workspace.Client, error) {
	if err := cfg.ValidateToken(); err != nil {
		return nil, err
	}
	return workspace.NewHTTPClient(workspace.HTTPOptions{
		BaseURL: cfg.APIURL,
		Token:   cfg.Token,
		Version: cfg.APIVersion,
		Timeout: cfg.Timeout,
		Limiter: workspace.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		Logger:  logger,
	}), nil
}

// openJournal opens the local run journal. The journal is advisory: when it
// cannot be opened the run continues without it.
var openJournal = func(cfg *config.Config, logger *slog.Logger) (core.Journal, error) {
	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// getRenderer retrieves the renderer from the command context, or builds one
// on the command's writers.
func getRenderer(cmd *cobra.Command) *output.Renderer {
	if r := output.FromContext(cmd.Context()); r != nil {
		return r
	}
	cfg := config.GetConfig(cmd.Context())
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
}

// loadTopology reads the configured topology and binds source ids to it.
func loadTopology(cfg *config.Config, logger *slog.Logger) (*topology.Topology, error) {
	var (
		topo *topology.Topology
		err  error
	)
	if cfg.TopologyFile != "" {
		topo, err = topology.Load(cfg.TopologyFile)
	} else {
		topo, err = topology.Default()
	}
	if err != nil {
		return nil, err
	}

	bound := topo.Bind(cfg.Sources)
	if unbound := bound.Unbound(); len(unbound) > 0 {
		logger.Warn("tables without a template source id", "keys", unbound)
	}
	return bound, nil
}

// buildTarget resolves a container reference into a run target.
func buildTarget(cfg *config.Config, ref string, logger *slog.Logger) (engine.Target, error) {
	containerID, err := workspace.ParseContainerRef(ref)
	if err != nil {
		return engine.Target{}, fmt.Errorf("invalid target: %w", err)
	}
	topo, err := loadTopology(cfg, logger)
	if err != nil {
		return engine.Target{}, fmt.Errorf("failed to load topology: %w", err)
	}
	return engine.Target{
		ContainerID: containerID,
		Years:       cfg.Years(),
		Topology:    topo,
	}, nil
}
