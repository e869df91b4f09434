package depgraph_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/engine/depgraph"
)

type urls = []domain.ResolvedURL

func TestAddDocument_MaintainsSymmetricEdges(t *testing.T) {
	g := depgraph.New()

	require.NoError(t, g.AddDocument("a", urls{"b", "c"}))

	assert.Equal(t, depgraph.StateKnown, g.State("a"))
	assert.Equal(t, depgraph.StateUnknown, g.State("b"))
	assert.Equal(t, depgraph.StateAbsent, g.State("zzz"))
	assert.Equal(t, urls{"b", "c"}, g.DependenciesOf("a"))
	assert.Equal(t, urls{"a"}, g.DependantsOf("b"))
	assert.Equal(t, urls{"a"}, g.DependantsOf("c"))
}

func TestAddDocument_TwiceIsAnError(t *testing.T) {
	g := depgraph.New()
	require.NoError(t, g.AddDocument("a", nil))

	err := g.AddDocument("a", urls{"b"})
	require.ErrorIs(t, err, domain.ErrDocumentAlreadyRecorded)

	err = g.RejectDocument("a", errors.New("late"))
	require.ErrorIs(t, err, domain.ErrDocumentAlreadyRecorded)
}

func TestRejectDocument_KeepsError(t *testing.T) {
	g := depgraph.New()
	boom := errors.New("boom")

	require.NoError(t, g.RejectDocument("a", boom))

	assert.Equal(t, depgraph.StateFailed, g.State("a"))
	assert.ErrorIs(t, g.Err("a"), boom)
	assert.NoError(t, g.Err("b"))
}

func TestWhenReady_WaitsForWholeClosure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := depgraph.New()
		require.NoError(t, g.AddDocument("a", urls{"b"}))

		var ready bool
		var wg sync.WaitGroup
		wg.Go(func() {
			assert.NoError(t, g.WhenReady(t.Context(), "a"))
			ready = true
		})

		synctest.Wait()
		assert.False(t, ready, "b is still unknown")

		require.NoError(t, g.AddDocument("b", urls{"c"}))
		synctest.Wait()
		assert.False(t, ready, "c is still unknown")

		require.NoError(t, g.AddDocument("c", nil))
		wg.Wait()
		assert.True(t, ready)
	})
}

func TestWhenReady_TerminatesOnCycles(t *testing.T) {
	tests := []struct {
		name  string
		edges map[domain.ResolvedURL]urls
	}{
		{
			name:  "two document cycle",
			edges: map[domain.ResolvedURL]urls{"a": {"b"}, "b": {"a"}},
		},
		{
			name:  "self import",
			edges: map[domain.ResolvedURL]urls{"a": {"a"}},
		},
		{
			name:  "cycle behind a chain",
			edges: map[domain.ResolvedURL]urls{"a": {"b"}, "b": {"c"}, "c": {"b", "a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				g := depgraph.New()
				require.NoError(t, g.AddDocument("a", tt.edges["a"]))

				done := make(chan error, 1)
				go func() { done <- g.WhenReady(t.Context(), "a") }()

				for url, deps := range tt.edges {
					if url != "a" {
						require.NoError(t, g.AddDocument(url, deps))
					}
				}

				require.NoError(t, <-done)
			})
		})
	}
}

func TestWhenReady_FailedDependencyDoesNotHang(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := depgraph.New()
		require.NoError(t, g.AddDocument("a", urls{"broken"}))
		require.NoError(t, g.RejectDocument("broken", errors.New("could not load")))

		require.NoError(t, g.WhenReady(t.Context(), "a"))
	})
}

func TestWhenReady_UnreferencedURLIsReadyAndNotAdded(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := depgraph.New()
		require.NoError(t, g.AddDocument("a", nil))

		require.NoError(t, g.WhenReady(t.Context(), "nowhere"))
		assert.Equal(t, depgraph.StateAbsent, g.State("nowhere"))
		assert.Equal(t, 1, g.Len())
	})
}

func TestWhenReady_ReturnsContextError(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := depgraph.New()
		require.NoError(t, g.AddDocument("a", urls{"never"}))

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() { done <- g.WhenReady(ctx, "a") }()

		synctest.Wait()
		cancel()

		require.ErrorIs(t, <-done, context.Canceled)
	})
}

func TestGetAllDependantsOf(t *testing.T) {
	g := depgraph.New()
	require.NoError(t, g.AddDocument("a", urls{"b", "common"}))
	require.NoError(t, g.AddDocument("b", urls{"common"}))
	require.NoError(t, g.AddDocument("common", nil))
	require.NoError(t, g.AddDocument("x", urls{"y"}))
	require.NoError(t, g.AddDocument("y", urls{"x"}))

	assert.Equal(t, urls{"a", "b"}, g.GetAllDependantsOf("common"))
	assert.Empty(t, g.GetAllDependantsOf("a"))
	assert.Equal(t, urls{"x", "y"}, g.GetAllDependantsOf("x"), "a cycle reaches back to its start")
	assert.Empty(t, g.GetAllDependantsOf("missing"))
}

func TestInvalidatePaths_ForksWithoutTouchingOriginal(t *testing.T) {
	g := depgraph.New()
	require.NoError(t, g.AddDocument("a", urls{"b"}))
	require.NoError(t, g.AddDocument("b", urls{"c"}))
	require.NoError(t, g.AddDocument("c", nil))

	fork := g.InvalidatePaths(urls{"b"})

	// Original is untouched.
	assert.Equal(t, depgraph.StateKnown, g.State("b"))
	assert.Equal(t, urls{"b"}, g.DependantsOf("c"))

	// b was replaced by an unknown node that remembers its dependant a.
	assert.Equal(t, depgraph.StateUnknown, fork.State("b"))
	assert.Equal(t, urls{"a"}, fork.DependantsOf("b"))
	assert.Empty(t, fork.DependenciesOf("b"))
	// c no longer lists b as a dependant until b is re-scanned.
	assert.Empty(t, fork.DependantsOf("c"))
	assert.Equal(t, depgraph.StateKnown, fork.State("a"))

	// Re-scanning b in the fork re-establishes its forward edges.
	require.NoError(t, fork.AddDocument("b", urls{"c"}))
	assert.Equal(t, urls{"b"}, fork.DependantsOf("c"))
	assert.Equal(t, urls{"a", "b"}, fork.GetAllDependantsOf("c"))
}

func TestInvalidatePaths_DropsNodeWithoutDependants(t *testing.T) {
	g := depgraph.New()
	require.NoError(t, g.AddDocument("a", urls{"b"}))
	require.NoError(t, g.AddDocument("b", nil))

	fork := g.InvalidatePaths(urls{"a"})

	assert.Equal(t, depgraph.StateAbsent, fork.State("a"))
	assert.Empty(t, fork.DependantsOf("b"))
}

func TestInvalidatePaths_SelfImport(t *testing.T) {
	g := depgraph.New()
	require.NoError(t, g.AddDocument("a", urls{"a"}))

	fork := g.InvalidatePaths(urls{"a"})

	assert.Equal(t, depgraph.StateAbsent, fork.State("a"))
}

func TestFork_InheritsInFlightNodes(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := depgraph.New()
		require.NoError(t, g.AddDocument("root", urls{"inflight", "idle"}))

		fork := g.Fork(urls{"other"}, urls{"inflight"})

		done := make(chan error, 1)
		go func() { done <- fork.WhenReady(t.Context(), "inflight") }()

		// The scan that was in flight when the fork happened completes in g.
		require.NoError(t, g.AddDocument("inflight", urls{"leaf"}))
		synctest.Wait()
		require.NoError(t, fork.AddDocument("leaf", nil))
		require.NoError(t, <-done)

		assert.Equal(t, depgraph.StateKnown, fork.State("inflight"))
		assert.Equal(t, urls{"inflight"}, fork.DependantsOf("leaf"))

		// Idle nodes start afresh and may be recorded by the fork itself.
		require.NoError(t, g.AddDocument("idle", nil))
		assert.Equal(t, depgraph.StateUnknown, fork.State("idle"))
		require.NoError(t, fork.AddDocument("idle", nil))
	})
}

func TestFork_InheritsInFlightDocumentsWithoutNode(t *testing.T) {
	g := depgraph.New()

	fork := g.Fork(nil, urls{"entry"})
	assert.Equal(t, depgraph.StateUnknown, fork.State("entry"))

	require.NoError(t, g.AddDocument("entry", nil))
	assert.Equal(t, depgraph.StateKnown, fork.State("entry"))
}
