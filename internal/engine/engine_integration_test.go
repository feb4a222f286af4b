//go:build integration

// Integration tests against a live workspace.
// Run with: go test -tags=integration ./internal/engine/
//
// Requires LEAPYEAR_TOKEN, LEAPYEAR_IT_CONTAINER (an empty scratch page the
// integration user can write to) and one LEAPYEAR_SOURCES_<KEY> per table.
package engine

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapyear/internal/template"
	"github.com/leapstack-labs/leapyear/internal/testutil"
	"github.com/leapstack-labs/leapyear/internal/topology"
	"github.com/leapstack-labs/leapyear/internal/workspace"
	"github.com/leapstack-labs/leapyear/pkg/core"
)

func liveTarget(t *testing.T) (workspace.Client, Target) {
	t.Helper()
	token := os.Getenv("LEAPYEAR_TOKEN")
	ref := os.Getenv("LEAPYEAR_IT_CONTAINER")
	if token == "" || ref == "" {
		t.Skip("LEAPYEAR_TOKEN and LEAPYEAR_IT_CONTAINER are required")
	}

	sources := map[string]string{}
	for _, kv := range os.Environ() {
		name, value, _ := strings.Cut(kv, "=")
		if key, ok := strings.CutPrefix(name, "LEAPYEAR_SOURCES_"); ok {
			sources[key] = value
		}
	}

	containerID, err := workspace.ParseContainerRef(ref)
	require.NoError(t, err)
	topo, err := topology.Default()
	require.NoError(t, err)
	bound := topo.Bind(sources)
	if unbound := bound.Unbound(); len(unbound) > 0 {
		t.Skipf("no source ids for %v", unbound)
	}

	client := workspace.NewHTTPClient(workspace.HTTPOptions{
		BaseURL: "https://api.notion.com",
		Token:   token,
		Version: "2022-06-28",
		Timeout: 30 * time.Second,
		Limiter: workspace.NewRateLimiter(3, 1),
		Logger:  testutil.NewTestLogger(t),
	})
	return client, Target{
		ContainerID: containerID,
		Years:       template.Years{Template: 2025, Target: 2026},
		Topology:    bound,
	}
}

// TestIntegration_RunTwice provisions a year and reruns it; the second run
// must create nothing.
func TestIntegration_RunTwice(t *testing.T) {
	client, target := liveTarget(t)
	ctx := context.Background()

	eng, err := New(Config{Client: client, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)

	first, err := eng.Run(ctx, target)
	require.NoError(t, err)
	assert.NotEqual(t, core.RunStatusFailed, first.Status)
	assert.Len(t, first.Env, len(target.Topology.Tables))

	second, err := eng.Run(ctx, target)
	require.NoError(t, err)
	assert.Zero(t, second.Created())
	assert.Equal(t, first.Env, second.Env)
}
