package executor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cloudsci/cloudmetrics-pipeline/internal/ctxlog"
)

// Executor runs a finalized graph with a pool of workers.
type Executor struct {
	Graph   *Graph
	Workers int

	wg sync.WaitGroup
}

// New creates an executor. Workers must be at least 1.
func New(graph *Graph, workers int) (*Executor, error) {
	if graph == nil {
		return nil, fmt.Errorf("nil graph")
	}
	if workers < 1 {
		return nil, fmt.Errorf("worker count must be at least 1, got %d", workers)
	}
	return &Executor{Graph: graph, Workers: workers}, nil
}

// Run executes the entire graph and returns an error if any node fails. It
// respects cancellation of the provided context.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	readyChan := make(chan *Node, len(e.Graph.Nodes))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rootCount := 0
	for _, node := range e.Graph.Nodes {
		if node.depCount.Load() == 0 {
			readyChan <- node
			rootCount++
		}
	}
	logger.Debug("Executor initialized.", "nodes", len(e.Graph.Nodes), "roots", rootCount, "workers", e.Workers)

	e.wg.Add(len(e.Graph.Nodes))
	for i := 0; i < e.Workers; i++ {
		go e.worker(runCtx, readyChan, cancel, i)
	}
	e.wg.Wait()
	close(readyChan)

	var failed []string
	var rootCause error
	for _, node := range e.Graph.Nodes {
		if node.State() != Failed {
			continue
		}
		// skips are symptoms, not causes
		if node.Error != nil && !strings.HasPrefix(node.Error.Error(), "skipped") {
			failed = append(failed, node.ID)
			if rootCause == nil {
				rootCause = node.Error
			}
		}
	}
	if rootCause != nil {
		sort.Strings(failed)
		return fmt.Errorf("execution failed for %s: %w", strings.Join(failed, ", "), rootCause)
	}
	return nil
}

// worker is the processing loop of one concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *Node, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx).With("workerID", workerID)

	for node := range readyChan {
		if ctx.Err() != nil {
			node.skipOnce.Do(func() {
				node.state.Store(int32(Failed))
				node.Error = fmt.Errorf("skipped: %w", ctx.Err())
				e.wg.Done()
			})
			// dependents of a drained node never reach the ready channel,
			// so their WaitGroup slots must be released here too
			e.skipDependents(ctx, node)
			continue
		}

		logger.Debug("Worker picked up node.", "nodeID", node.ID)
		node.state.Store(int32(Running))

		if err := node.Task(ctx); err != nil {
			logger.Error("Node execution failed.", "nodeID", node.ID, "error", err)
			node.state.Store(int32(Failed))
			node.Error = err
			cancel()
			e.skipDependents(ctx, node)
			e.wg.Done()
			continue
		}

		node.state.Store(int32(Done))
		for _, dependent := range node.Dependents {
			if dependent.depCount.Add(-1) == 0 {
				readyChan <- dependent
			}
		}
		e.wg.Done()
	}
}

// skipDependents recursively marks all downstream nodes as failed.
func (e *Executor) skipDependents(ctx context.Context, node *Node) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range node.Dependents {
		dependent.skipOnce.Do(func() {
			logger.Warn("Skipping node due to upstream failure.", "nodeID", dependent.ID, "dependency", node.ID)
			dependent.state.Store(int32(Failed))
			dependent.Error = fmt.Errorf("skipped due to upstream failure of %q", node.ID)
			e.wg.Done()
			e.skipDependents(ctx, dependent)
		})
	}
}
