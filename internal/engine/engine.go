// Package engine provisions a planning year in a workspace.
// It runs six ordered phases, each idempotent and each able to skip itself
// when a snapshot shows its work is already done.
package engine

import (
	"errors"
	"log/slog"

	"github.com/leapstack-labs/leapyear/internal/populate"
	"github.com/leapstack-labs/leapyear/internal/probe"
	"github.com/leapstack-labs/leapyear/internal/relation"
	"github.com/leapstack-labs/leapyear/internal/workspace"
	"github.com/leapstack-labs/leapyear/pkg/core"
)

// Engine orchestrates a provisioning run.
type Engine struct {
	client    workspace.Client
	prober    *probe.Prober
	wirer     *relation.Wirer
	populator *populate.Populator

	reporter Reporter
	journal  core.Journal
	logger   *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Client is the workspace store. Required.
	Client workspace.Client
	// Reporter receives progress events (optional).
	Reporter Reporter
	// Journal records runs locally (optional).
	Journal core.Journal
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Client == nil {
		return nil, errors.New("engine: workspace client is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = NopReporter{}
	}

	prober := probe.New(cfg.Client, logger)
	return &Engine{
		client:    cfg.Client,
		prober:    prober,
		wirer:     relation.New(cfg.Client, prober, logger),
		populator: populate.New(cfg.Client, prober, logger),
		reporter:  reporter,
		journal:   cfg.Journal,
		logger:    logger,
	}, nil
}

// Reporter receives progress as a run advances.
type Reporter interface {
	PhaseStart(number int, name string, items int)
	// PhaseSkipped is called instead of Item events when the entry probe
	// finds the whole phase done.
	PhaseSkipped(result core.PhaseResult)
	Item(phase, index int, label string, outcome core.Outcome, err error)
	PhaseDone(result core.PhaseResult)
	Env(entries []core.EnvEntry)
	ManualSteps(steps []string)
}

// NopReporter discards progress.
type NopReporter struct{}

func (NopReporter) PhaseStart(int, string, int)                {}
func (NopReporter) PhaseSkipped(core.PhaseResult)              {}
func (NopReporter) Item(int, int, string, core.Outcome, error) {}
func (NopReporter) PhaseDone(core.PhaseResult)                 {}
func (NopReporter) Env([]core.EnvEntry)                        {}
func (NopReporter) ManualSteps([]string)                       {}
