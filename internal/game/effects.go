package game

import (
	"go.uber.org/zap"

	"BreachProtocol/internal/dag"
)

// missionEffects reacts to a node falling: it records the node's intel and
// collects the nodes that open up so the hand-off can announce them.
type missionEffects struct {
	e        *Engine
	unlocked []dag.NodeID
}

func (m *missionEffects) OnComplete(nodeID dag.NodeID, _ *dag.Node) {
	if n, ok := m.e.cat.Node(string(nodeID)); ok {
		m.e.recordIntel(n)
	}
}

func (m *missionEffects) OnUnlock(nodeID dag.NodeID, node *dag.Node) {
	m.unlocked = append(m.unlocked, nodeID)
	m.e.log.Debug("node unlocked", zap.String("node", string(nodeID)), zap.String("label", node.Label))
}
