package engine

// run.go - Orchestration of the six provisioning phases

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapyear/internal/probe"
	"github.com/leapstack-labs/leapyear/internal/template"
	"github.com/leapstack-labs/leapyear/internal/topology"
	"github.com/leapstack-labs/leapyear/pkg/core"
)

// Target is what a run provisions.
type Target struct {
	// ContainerID is the page the year's tables are created under.
	ContainerID string
	Years       template.Years
	// Topology must have source ids bound.
	Topology *topology.Topology
}

func (t Target) validate() error {
	var errs []error
	if t.ContainerID == "" {
		errs = append(errs, errors.New("container id is required"))
	}
	if t.Topology == nil {
		errs = append(errs, errors.New("topology is required"))
	}
	if t.Years.Target == 0 {
		errs = append(errs, errors.New("target year is required"))
	}
	return errors.Join(errs...)
}

// RunResult summarizes a run.
type RunResult struct {
	RunID  string
	Status core.RunStatus
	Phases []core.PhaseResult
	// Env lists the provisioned tables in topology order.
	Env         []core.EnvEntry
	ManualSteps []string
	// ProbeFailures counts probes that failed and were treated as "absent".
	ProbeFailures int
}

// Created sums created items over all phases.
func (r *RunResult) Created() int {
	n := 0
	for _, p := range r.Phases {
		n += p.Created
	}
	return n
}

// Failed reports whether any phase had an error.
func (r *RunResult) Failed() bool {
	for _, p := range r.Phases {
		if p.Failed() {
			return true
		}
	}
	return false
}

// Run executes all six phases in order. Item and phase failures are
// recorded in the result and never stop later phases; the returned error is
// reserved for an invalid target or a cancelled context.
func (e *Engine) Run(ctx context.Context, target Target) (*RunResult, error) {
	if err := target.validate(); err != nil {
		return nil, fmt.Errorf("invalid run target: %w", err)
	}

	e.logger.Info("starting run", "container_id", target.ContainerID, "year", target.Years.Target, "template_year", target.Years.Template)
	failuresBefore := e.prober.Failures()

	p := &pipeline{
		Engine: e,
		run:    &runner{reporter: e.reporter, journal: e.journal, logger: e.logger},
		target: target,
	}
	p.startJournal()

	result := &RunResult{RunID: p.run.runID}
	phases := []func(context.Context) core.PhaseResult{
		p.createTables,
		p.wireRelations,
		p.cloneComputed,
		p.seedCalendar,
		p.linkWeeks,
		p.finish,
	}

	var runErr error
	for i, fn := range phases {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		res := fn(ctx)
		if res.Err != nil {
			e.logger.Error("phase failed", "phase", res.Number, "error", res.Err)
		}

		// The tables phase also reports where everything ended up.
		if i == 0 {
			if reg, err := p.scan(ctx); err != nil {
				e.logger.Warn("could not list provisioned tables", "error", err)
			} else {
				res.Env = p.envEntries(reg)
				result.Env = res.Env
				e.reporter.Env(res.Env)
				p.journalTables(res.Env)
			}
		}

		if !res.AlreadyComplete {
			e.reporter.PhaseDone(res)
		}
		p.journalPhase(res)
		result.Phases = append(result.Phases, res)

		if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
			runErr = res.Err
			break
		}
	}

	result.ProbeFailures = e.prober.Failures() - failuresBefore
	if result.ProbeFailures > 0 {
		e.logger.Warn("some probes failed and were treated as absent", "count", result.ProbeFailures)
	}

	switch {
	case runErr != nil:
		result.Status = core.RunStatusFailed
	case result.Failed():
		result.Status = core.RunStatusPartial
	default:
		result.Status = core.RunStatusCompleted
	}

	if runErr == nil {
		result.ManualSteps = RenderSteps(target.Topology.ManualSteps, target.Years)
		e.reporter.ManualSteps(result.ManualSteps)
	}

	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	p.completeJournal(result.Status, msg)

	e.logger.Info("run finished", "run_id", result.RunID, "status", result.Status, "created", result.Created())
	return result, runErr
}

// ScanIdentifiers lists the ids of the tables already provisioned under the
// container, without running any phase.
func (e *Engine) ScanIdentifiers(ctx context.Context, target Target) ([]core.EnvEntry, error) {
	if err := target.validate(); err != nil {
		return nil, fmt.Errorf("invalid run target: %w", err)
	}
	reg, err := e.prober.ScanTables(ctx, target.ContainerID)
	if err != nil {
		return nil, err
	}
	return EnvEntries(reg, target.Topology.Tables, target.Years), nil
}

// EnvEntries pairs each template's key with the id of its provisioned
// table, in template order. Tables not found are left out.
func EnvEntries(reg core.TableRegistry, tables []core.TableTemplate, years template.Years) []core.EnvEntry {
	var out []core.EnvEntry
	for _, tmpl := range tables {
		if id, ok := probe.Lookup(reg, template.Render(tmpl.Name, years)); ok {
			out = append(out, core.EnvEntry{Key: tmpl.Key, TableID: id})
		}
	}
	return out
}

// RenderSteps renders the year token in each manual step.
func RenderSteps(steps []string, years template.Years) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = template.Render(s, years)
	}
	return out
}

func (p *pipeline) startJournal() {
	if p.journal == nil {
		return
	}
	rec, err := p.journal.StartRun(p.target.ContainerID, p.target.Years.Target)
	if err != nil {
		p.logger.Warn("failed to journal run start", "error", err)
		return
	}
	p.run.runID = rec.ID
}

func (p *pipeline) journalPhase(res core.PhaseResult) {
	if p.journal == nil || p.run.runID == "" {
		return
	}
	if err := p.journal.RecordPhase(p.run.runID, res); err != nil {
		p.logger.Warn("failed to journal phase", "phase", res.Number, "error", err)
	}
}

func (p *pipeline) journalTables(env []core.EnvEntry) {
	if p.journal == nil || p.run.runID == "" {
		return
	}
	if err := p.journal.RecordTables(p.run.runID, env); err != nil {
		p.logger.Warn("failed to journal tables", "error", err)
	}
}

func (p *pipeline) completeJournal(status core.RunStatus, msg string) {
	if p.journal == nil || p.run.runID == "" {
		return
	}
	if err := p.journal.CompleteRun(p.run.runID, status, msg); err != nil {
		p.logger.Warn("failed to journal run completion", "run_id", p.run.runID, "error", err)
	}
}
