// Package dag implements a small deterministic dependency graph used to gate
// which network nodes an agent may breach.
//
// All transitions are pure with respect to (graph, state).
// The graph is built from the static catalog and validated at load time.
package dag

import (
	"errors"
	"fmt"
)

// NodeID uniquely identifies a node in the graph.
type NodeID string

// Node represents a single node in the DAG.
type Node struct {
	ID       NodeID   `json:"id"`
	Label    string   `json:"label"`
	Requires []NodeID `json:"requires"` // Prerequisites (must be completed)
}

// Graph represents the complete DAG.
type Graph struct {
	Nodes      map[NodeID]*Node    // All nodes indexed by ID
	RequiresIn map[NodeID][]NodeID // Reverse index: which nodes require this one
	TopoOrder  []NodeID            // Topologically sorted node IDs
	Roots      []NodeID            // Nodes without prerequisites, in declaration order

	order []NodeID // declaration order
}

var (
	// ErrCycleDetected is returned when a cycle is detected in the graph.
	ErrCycleDetected = errors.New("dag: cycle detected in graph")
	// ErrNodeNotFound is returned when a referenced node doesn't exist.
	ErrNodeNotFound = errors.New("dag: node not found")
	// ErrDuplicateNode is returned when two nodes share an ID.
	ErrDuplicateNode = errors.New("dag: duplicate node")
)

// New builds a graph from the provided nodes and validates it.
func New(nodes []*Node) (*Graph, error) {
	g := &Graph{
		Nodes:      make(map[NodeID]*Node, len(nodes)),
		RequiresIn: make(map[NodeID][]NodeID),
	}

	for _, node := range nodes {
		if node.ID == "" {
			return nil, fmt.Errorf("%w: empty id", ErrNodeNotFound)
		}
		if _, dup := g.Nodes[node.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, node.ID)
		}
		g.Nodes[node.ID] = node
		g.order = append(g.order, node.ID)
	}

	// Build reverse index and validate dependencies
	for _, id := range g.order {
		node := g.Nodes[id]
		if len(node.Requires) == 0 {
			g.Roots = append(g.Roots, id)
		}
		for _, reqID := range node.Requires {
			if _, exists := g.Nodes[reqID]; !exists {
				return nil, fmt.Errorf("%w: node %s requires missing node %s", ErrNodeNotFound, node.ID, reqID)
			}
			g.RequiresIn[reqID] = append(g.RequiresIn[reqID], node.ID)
		}
	}

	order, err := g.topoSort()
	if err != nil {
		return nil, err
	}
	g.TopoOrder = order
	return g, nil
}

// GetNode returns a node by ID, or nil if not found.
func (g *Graph) GetNode(id NodeID) *Node {
	return g.Nodes[id]
}

// topoSort performs Kahn's algorithm seeded in declaration order so the
// result is stable across runs.
func (g *Graph) topoSort() ([]NodeID, error) {
	inDegree := make(map[NodeID]int, len(g.Nodes))
	for _, node := range g.Nodes {
		inDegree[node.ID] = len(node.Requires)
	}

	var queue []NodeID
	for _, id := range g.order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]NodeID, 0, len(g.Nodes))
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		order = append(order, curr)

		for _, depID := range g.RequiresIn[curr] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}

	if len(order) != len(g.Nodes) {
		return nil, ErrCycleDetected
	}
	return order, nil
}
