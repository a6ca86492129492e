package dag

// Status represents the current state of a node for an agent.
type Status string

const (
	// StatusLocked means the node's requirements are not met.
	StatusLocked Status = "locked"
	// StatusAvailable means the node can be breached.
	StatusAvailable Status = "available"
	// StatusCompleted means the node has been breached at least once.
	// Completed nodes stay open for replays.
	StatusCompleted Status = "completed"
)

// State represents per-agent progression through the graph.
type State struct {
	Status map[NodeID]Status `json:"status"`
}

// NewState creates a new empty state. Every node reads as locked.
func NewState() *State {
	return &State{Status: make(map[NodeID]Status)}
}

// InitialState returns the fresh-campaign state: roots available, the rest
// locked.
func InitialState(g *Graph) *State {
	s := NewState()
	for _, id := range g.Roots {
		s.Status[id] = StatusAvailable
	}
	return s
}

// GetStatus returns the status of a node, defaulting to locked if not set.
func (s *State) GetStatus(id NodeID) Status {
	if status, exists := s.Status[id]; exists {
		return status
	}
	return StatusLocked
}

// SetStatus updates the status of a node.
func (s *State) SetStatus(id NodeID, status Status) {
	s.Status[id] = status
}

// IsLocked reports whether the node cannot be started.
func (s *State) IsLocked(id NodeID) bool {
	return s.GetStatus(id) == StatusLocked
}

// IsCompleted reports whether the node has been completed.
func (s *State) IsCompleted(id NodeID) bool {
	return s.GetStatus(id) == StatusCompleted
}

// Clone creates a deep copy of the state.
func (s *State) Clone() *State {
	clone := NewState()
	for id, status := range s.Status {
		clone.Status[id] = status
	}
	return clone
}
