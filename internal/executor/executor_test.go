package executor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects execution order in a concurrency-safe way.
type recorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *recorder) task(id string) Task {
	return func(ctx context.Context) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.ids = append(r.ids, id)
		return nil
	}
}

func (r *recorder) indexOf(id string) int {
	for i, got := range r.ids {
		if got == id {
			return i
		}
	}
	return -1
}

func buildChain(t *testing.T, g *Graph, rec *recorder, ids ...string) {
	t.Helper()
	for i, id := range ids {
		_, err := g.AddNode(id, rec.task(id))
		require.NoError(t, err)
		if i > 0 {
			require.NoError(t, g.AddEdge(ids[i-1], id))
		}
	}
}

func TestGraphAddNodeRejectsDuplicates(t *testing.T) {
	g := NewGraph()
	_, err := g.AddNode("a", nil)
	require.NoError(t, err)
	_, err = g.AddNode("a", nil)
	assert.ErrorContains(t, err, `duplicate node ID "a"`)
}

func TestGraphAddEdge(t *testing.T) {
	g := NewGraph()
	_, err := g.AddNode("a", nil)
	require.NoError(t, err)
	_, err = g.AddNode("b", nil)
	require.NoError(t, err)

	require.NoError(t, g.AddEdge("a", "b"))
	assert.Contains(t, g.Nodes["b"].Deps, "a")
	assert.Contains(t, g.Nodes["a"].Dependents, "b")

	assert.ErrorContains(t, g.AddEdge("a", "a"), "self-referential")
	assert.ErrorContains(t, g.AddEdge("dne", "a"), "source node not found")
	assert.ErrorContains(t, g.AddEdge("a", "dne"), "destination node not found")
}

func TestFinalizeDetectsCycles(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c"} {
		_, err := g.AddNode(id, nil)
		require.NoError(t, err)
	}
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))
	require.NoError(t, g.AddEdge("c", "a"))

	assert.ErrorContains(t, g.Finalize(), "cycle detected")
}

func TestRunRespectsChainOrder(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			g := NewGraph()
			rec := &recorder{}
			buildChain(t, g, rec, "s1/a", "s1/b", "s1/c")
			buildChain(t, g, rec, "s2/a", "s2/b", "s2/c")
			require.NoError(t, g.Finalize())

			e, err := New(g, workers)
			require.NoError(t, err)
			require.NoError(t, e.Run(context.Background()))

			assert.Len(t, rec.ids, 6)
			for _, scene := range []string{"s1", "s2"} {
				a := rec.indexOf(scene + "/a")
				b := rec.indexOf(scene + "/b")
				c := rec.indexOf(scene + "/c")
				assert.True(t, a < b && b < c, "chain order violated for %s: %v", scene, rec.ids)
			}
			for _, n := range g.Nodes {
				assert.Equal(t, Done, n.State())
			}
		})
	}
}

func TestRunFailureSkipsDependentsAndReportsRootCause(t *testing.T) {
	g := NewGraph()
	rec := &recorder{}

	boom := fmt.Errorf("mask transform exploded")
	_, err := g.AddNode("s1/mask", func(ctx context.Context) error { return boom })
	require.NoError(t, err)
	_, err = g.AddNode("s1/metric", rec.task("s1/metric"))
	require.NoError(t, err)
	require.NoError(t, g.AddEdge("s1/mask", "s1/metric"))

	// independent healthy chain
	buildChain(t, g, rec, "s2/mask", "s2/metric")
	require.NoError(t, g.Finalize())

	e, err := New(g, 2)
	require.NoError(t, err)
	runErr := e.Run(context.Background())

	require.Error(t, runErr)
	assert.ErrorIs(t, runErr, boom)
	assert.ErrorContains(t, runErr, "s1/mask")
	assert.NotContains(t, runErr.Error(), "s1/metric", "skipped nodes are symptoms, not causes")

	assert.Equal(t, Failed, g.Nodes["s1/metric"].State())
	assert.Equal(t, -1, rec.indexOf("s1/metric"))
}

func TestRunReleasesDependentsOfNodesDrainedAfterCancel(t *testing.T) {
	g := NewGraph()
	rec := &recorder{}

	boom := fmt.Errorf("mask transform exploded")
	_, err := g.AddNode("s1/mask", func(ctx context.Context) error { return boom })
	require.NoError(t, err)

	// this root finishes only after the failure has canceled the run, so
	// its dependents reach the ready channel post-cancellation and must
	// still be released
	_, err = g.AddNode("s2/mask", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	require.NoError(t, err)
	_, err = g.AddNode("s2/tile", rec.task("s2/tile"))
	require.NoError(t, err)
	_, err = g.AddNode("s2/metric", rec.task("s2/metric"))
	require.NoError(t, err)
	require.NoError(t, g.AddEdge("s2/mask", "s2/tile"))
	require.NoError(t, g.AddEdge("s2/tile", "s2/metric"))
	require.NoError(t, g.Finalize())

	e, err := New(g, 2)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	var runErr error
	select {
	case runErr = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after a failure with dependents still pending")
	}

	require.Error(t, runErr)
	assert.ErrorIs(t, runErr, boom)
	assert.ErrorContains(t, runErr, "s1/mask")

	assert.Equal(t, Failed, g.Nodes["s2/tile"].State())
	assert.Equal(t, Failed, g.Nodes["s2/metric"].State())
	assert.Equal(t, -1, rec.indexOf("s2/tile"))
	assert.Equal(t, -1, rec.indexOf("s2/metric"))
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, 1)
	assert.Error(t, err)

	_, err = New(NewGraph(), 0)
	assert.ErrorContains(t, err, "worker count")
}
