package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// State tracks a node's execution lifecycle.
type State int32

const (
	Pending State = iota
	Running
	Done
	Failed
)

// Task is the work a node performs. Implementations must be safe to run
// concurrently with other nodes' tasks.
type Task func(ctx context.Context) error

// Node is a single vertex in the execution graph.
type Node struct {
	ID   string
	Task Task

	Deps       map[string]*Node
	Dependents map[string]*Node

	// depCount is decremented as dependencies finish; the node becomes
	// ready when it reaches zero.
	depCount atomic.Int32
	state    atomic.Int32
	skipOnce sync.Once

	// Error holds the failure (or skip reason) once state is Failed.
	Error error
}

// State returns the node's current lifecycle state.
func (n *Node) State() State { return State(n.state.Load()) }

// Graph is a directed acyclic dependency graph of tasks.
type Graph struct {
	Nodes map[string]*Node
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{Nodes: map[string]*Node{}}
}

// AddNode registers a task under a unique ID.
func (g *Graph) AddNode(id string, task Task) (*Node, error) {
	if _, exists := g.Nodes[id]; exists {
		return nil, fmt.Errorf("duplicate node ID %q", id)
	}
	n := &Node{
		ID:         id,
		Task:       task,
		Deps:       map[string]*Node{},
		Dependents: map[string]*Node{},
	}
	g.Nodes[id] = n
	return n, nil
}

// AddEdge records that toID depends on fromID.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s", fromID)
	}
	from, ok := g.Nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	to, ok := g.Nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}
	to.Deps[fromID] = from
	from.Dependents[toID] = to
	return nil
}

// Finalize initializes the dependency counters and validates the graph is
// acyclic. It must be called once, after all nodes and edges are added.
func (g *Graph) Finalize() error {
	for _, n := range g.Nodes {
		n.depCount.Store(int32(len(n.Deps)))
	}
	return g.detectCycles()
}

// detectCycles runs a depth-first search over dependency edges.
func (g *Graph) detectCycles() error {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)

	var visit func(n *Node) error
	visit = func(n *Node) error {
		visiting[n.ID] = true
		for _, dep := range n.Deps {
			if visiting[dep.ID] {
				return fmt.Errorf("cycle detected involving %q", dep.ID)
			}
			if !visited[dep.ID] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		delete(visiting, n.ID)
		visited[n.ID] = true
		return nil
	}

	for _, n := range g.Nodes {
		if !visited[n.ID] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}
