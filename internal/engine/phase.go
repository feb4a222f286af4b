package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapyear/internal/workspace"
	"github.com/leapstack-labs/leapyear/pkg/core"
)

// item is one unit of work in a phase. A non-nil err means the item could
// not be prepared; it is counted as an error without calling create.
type item[T any] struct {
	label string
	value T
	err   error
}

// phase describes the scan, probe, create loop shared by every phase.
type phase[T any] struct {
	number int
	name   string
	items  []item[T]

	// done answers from a snapshot taken at phase start. When it holds
	// for every item the phase is skipped as already complete.
	done func(T) bool
	// probe checks the store right before creation (optional).
	probe  func(context.Context, T) bool
	create func(context.Context, T) error
}

// runner carries the per-run collaborators a phase reports to.
type runner struct {
	runID    string
	reporter Reporter
	journal  core.Journal
	logger   *slog.Logger
}

func (r *runner) recordFailure(phaseNum, index int, label string, err error) {
	if r.journal == nil || r.runID == "" {
		return
	}
	if jerr := r.journal.RecordFailure(core.ItemFailure{
		RunID: r.runID,
		Phase: phaseNum,
		Index: index,
		Label: label,
		Error: err.Error(),
	}); jerr != nil {
		r.logger.Warn("failed to journal item failure", "error", jerr)
	}
}

// runPhase processes items sequentially. One item's failure is logged,
// counted and journaled, and the loop moves on. Throttled items are tagged
// so the operator knows a slower re-run will pick them up.
func runPhase[T any](ctx context.Context, r *runner, p phase[T]) core.PhaseResult {
	result := core.PhaseResult{Number: p.number, Name: p.name}
	r.reporter.PhaseStart(p.number, p.name, len(p.items))

	if allDone(p) {
		result.AlreadyComplete = true
		result.Skipped = len(p.items)
		r.logger.Info("phase already complete, skipping", "phase", p.number, "items", len(p.items))
		r.reporter.PhaseSkipped(result)
		return result
	}

	for i, it := range p.items {
		if err := ctx.Err(); err != nil {
			result.Err = err
			break
		}
		index := i + 1

		outcome, err := runItem(ctx, p, it)
		switch outcome {
		case core.OutcomeCreated:
			result.Created++
		case core.OutcomeSkipped:
			result.Skipped++
		case core.OutcomeFailed:
			result.Errors++
			if workspace.IsRateLimited(err) {
				err = fmt.Errorf("throttled by the store, lower the request rate and re-run: %w", err)
			}
			r.logger.Warn("item failed", "phase", p.number, "index", index, "label", it.label, "error", err)
			r.recordFailure(p.number, index, it.label, err)
		}
		r.reporter.Item(p.number, index, it.label, outcome, err)
	}

	return result
}

func allDone[T any](p phase[T]) bool {
	for _, it := range p.items {
		if it.err != nil || !p.done(it.value) {
			return false
		}
	}
	return true
}

func runItem[T any](ctx context.Context, p phase[T], it item[T]) (core.Outcome, error) {
	if it.err != nil {
		return core.OutcomeFailed, it.err
	}
	if p.done(it.value) {
		return core.OutcomeSkipped, nil
	}
	if p.probe != nil && p.probe(ctx, it.value) {
		return core.OutcomeSkipped, nil
	}
	if err := p.create(ctx, it.value); err != nil {
		return core.OutcomeFailed, err
	}
	return core.OutcomeCreated, nil
}
