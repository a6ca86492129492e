package dag

import (
	"errors"
	"fmt"
)

// ErrNodeLocked is returned when trying to start a node whose prerequisites are
// not complete.
var ErrNodeLocked = errors.New("dag: node locked")

// Effects is an interface for side effects triggered by DAG events.
type Effects interface {
	// OnComplete is called when a node completes.
	OnComplete(nodeID NodeID, node *Node)
	// OnUnlock is called once for every node made available by a completion.
	OnUnlock(nodeID NodeID, node *Node)
}

// NoOpEffects is a default implementation that does nothing.
type NoOpEffects struct{}

func (e *NoOpEffects) OnComplete(nodeID NodeID, node *Node) {}
func (e *NoOpEffects) OnUnlock(nodeID NodeID, node *Node)   {}

// CheckStart validates that a node exists and is not locked.
func CheckStart(graph *Graph, state *State, nodeID NodeID) error {
	if graph.GetNode(nodeID) == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	if state.IsLocked(nodeID) {
		return fmt.Errorf("%w: %s", ErrNodeLocked, nodeID)
	}
	return nil
}

// Complete marks a node completed, then unlocks every dependent whose
// prerequisites are now all completed. Completing an already completed node
// is allowed and only re-runs the unlock pass. It returns the newly unlocked
// nodes.
func Complete(graph *Graph, state *State, nodeID NodeID, effects Effects) ([]NodeID, error) {
	node := graph.GetNode(nodeID)
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	if effects == nil {
		effects = &NoOpEffects{}
	}

	state.SetStatus(nodeID, StatusCompleted)
	effects.OnComplete(nodeID, node)

	result := Evaluator(graph, state)
	ApplyEvalResult(state, result)
	for _, id := range result.Unlocked {
		effects.OnUnlock(id, graph.Nodes[id])
	}
	return result.Unlocked, nil
}
