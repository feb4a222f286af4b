package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapyear/internal/testutil"
	"github.com/leapstack-labs/leapyear/internal/workspace"
	"github.com/leapstack-labs/leapyear/pkg/core"
)

func testRunner(t *testing.T) (*runner, *recordingReporter, *fakeJournal) {
	rep := &recordingReporter{}
	j := &fakeJournal{}
	return &runner{runID: "run-1", reporter: rep, journal: j, logger: testutil.NewTestLogger(t)}, rep, j
}

func TestRunPhase_AllDoneShortCircuits(t *testing.T) {
	r, rep, _ := testRunner(t)
	created := 0

	res := runPhase(context.Background(), r, phase[string]{
		number: 2,
		name:   "test",
		items:  []item[string]{{label: "a", value: "a"}, {label: "b", value: "b"}},
		done:   func(string) bool { return true },
		create: func(context.Context, string) error { created++; return nil },
	})

	assert.True(t, res.AlreadyComplete)
	assert.Equal(t, 2, res.Skipped)
	assert.Zero(t, created)
	assert.Equal(t, []int{2}, rep.skipped)
	assert.Empty(t, rep.items)
}

func TestRunPhase_EmptyIsComplete(t *testing.T) {
	r, _, _ := testRunner(t)
	res := runPhase(context.Background(), r, phase[string]{
		number: 1,
		done:   func(string) bool { return false },
	})
	assert.True(t, res.AlreadyComplete)
	assert.Zero(t, res.Total())
}

func TestRunPhase_FailuresDoNotStopTheLoop(t *testing.T) {
	r, rep, j := testRunner(t)
	boom := errors.New("boom")

	res := runPhase(context.Background(), r, phase[string]{
		number: 3,
		name:   "test",
		items: []item[string]{
			{label: "done", value: "done"},
			{label: "broken", err: core.ErrConfigurationMissing},
			{label: "fails", value: "fails"},
			{label: "probed", value: "probed"},
			{label: "new", value: "new"},
		},
		done:  func(v string) bool { return v == "done" },
		probe: func(_ context.Context, v string) bool { return v == "probed" },
		create: func(_ context.Context, v string) error {
			if v == "fails" {
				return boom
			}
			return nil
		},
	})

	assert.False(t, res.AlreadyComplete)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 2, res.Errors)
	assert.True(t, res.Failed())

	outcomes := make([]core.Outcome, len(rep.items))
	for i, it := range rep.items {
		outcomes[i] = it.outcome
	}
	assert.Equal(t, []core.Outcome{
		core.OutcomeSkipped,
		core.OutcomeFailed,
		core.OutcomeFailed,
		core.OutcomeSkipped,
		core.OutcomeCreated,
	}, outcomes)

	assert.Equal(t, []core.ItemFailure{
		{RunID: "run-1", Phase: 3, Index: 2, Label: "broken", Error: core.ErrConfigurationMissing.Error()},
		{RunID: "run-1", Phase: 3, Index: 3, Label: "fails", Error: "boom"},
	}, j.failures)
}

func TestRunPhase_StopsOnCancel(t *testing.T) {
	r, _, _ := testRunner(t)
	ctx, cancel := context.WithCancel(context.Background())

	res := runPhase(ctx, r, phase[int]{
		number: 4,
		items:  []item[int]{{value: 1}, {value: 2}, {value: 3}},
		done:   func(int) bool { return false },
		create: func(_ context.Context, v int) error {
			if v == 1 {
				cancel()
			}
			return nil
		},
	})

	assert.Equal(t, 1, res.Created)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestRunPhase_TagsThrottledItems(t *testing.T) {
	r, rep, j := testRunner(t)
	throttled := &workspace.APIError{Status: 429, Code: "rate_limited", Message: "slow down"}

	res := runPhase(context.Background(), r, phase[string]{
		number: 4,
		name:   "test",
		items:  []item[string]{{label: "limited", value: "limited"}, {label: "broken", value: "broken"}},
		done:   func(string) bool { return false },
		create: func(_ context.Context, v string) error {
			if v == "limited" {
				return fmt.Errorf("creating row: %w", throttled)
			}
			return errors.New("boom")
		},
	})

	assert.Equal(t, 2, res.Errors)
	require.Len(t, rep.items, 2)
	assert.Contains(t, rep.items[0].err.Error(), "throttled by the store")
	assert.ErrorIs(t, rep.items[0].err, core.ErrRemoteCall)
	assert.NotContains(t, rep.items[1].err.Error(), "throttled")

	require.Len(t, j.failures, 2)
	assert.Contains(t, j.failures[0].Error, "throttled by the store")
}
