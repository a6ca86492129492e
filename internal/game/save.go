package game

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"BreachProtocol/internal/dag"
)

// Snapshot captures the persistent part of the run.
func (e *Engine) Snapshot() Snapshot {
	p := e.profile
	s := Snapshot{
		Version:           SnapshotVersion,
		AgentName:         p.AgentName,
		Credits:           p.Credits,
		PurchasedUpgrades: p.upgradesCopy(),
		DiscoveredLogs:    append([]DiscoveredIntel(nil), p.Intel...),
		History:           e.dda.History(),
	}
	for _, id := range e.cat.Graph().TopoOrder {
		s.Nodes = append(s.Nodes, NodeFlags{
			ID:          string(id),
			IsLocked:    e.progress.IsLocked(id),
			IsCompleted: e.progress.IsCompleted(id),
		})
	}
	return s
}

// Save writes a snapshot through the persistence collaborator.
func (e *Engine) Save(ctx context.Context) error {
	if e.store == nil {
		return ErrNoPersistence
	}
	if err := e.store.Save(ctx, e.Snapshot()); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	e.console("SYSTEM", "Session progress saved.", SeverityInfo)
	e.emit(Event{Kind: EventGameSaved})
	return nil
}

// Load restores the saved run. A corrupt save resets the game and is
// reported as LoadCorrupted; a missing save leaves the run untouched.
func (e *Engine) Load(ctx context.Context) (LoadStatus, error) {
	if e.store == nil {
		return LoadNone, ErrNoPersistence
	}
	if e.busy() {
		return LoadNone, ErrMissionInProgress
	}
	snap, status, err := e.store.Load(ctx)
	if err != nil {
		return LoadNone, fmt.Errorf("load: %w", err)
	}
	switch status {
	case LoadNone:
		return LoadNone, nil
	case LoadCorrupted:
		e.log.Warn("corrupt save discarded", zap.String("agent", e.profile.AgentName))
		e.console("SYSTEM", "Save data was corrupted. Resetting game.", SeverityCritical)
		if err := e.ResetGame(ctx); err != nil {
			return LoadCorrupted, err
		}
		return LoadCorrupted, nil
	}
	e.restore(snap)
	e.emit(Event{Kind: EventGameLoaded, Value: e.profile.Credits})
	e.log.Info("save loaded", zap.String("agent", e.profile.AgentName), zap.Float64("credits", e.profile.Credits))
	return LoadOK, nil
}

func (e *Engine) restore(s Snapshot) {
	e.cancelTimers()
	e.orch.Reset()

	agent := s.AgentName
	if agent == "" {
		agent = e.profile.AgentName
	}
	p := NewProfile(agent, s.Credits)
	for id, owned := range s.PurchasedUpgrades {
		if _, known := e.cat.Upgrade(id); owned && known {
			p.Upgrades[id] = true
		}
	}
	for _, l := range s.DiscoveredLogs {
		p.AddIntel(l)
	}
	e.profile = p

	graph := e.cat.Graph()
	progress := dag.InitialState(graph)
	for _, f := range s.Nodes {
		id := dag.NodeID(f.ID)
		if graph.GetNode(id) == nil {
			continue
		}
		switch {
		case f.IsCompleted:
			progress.SetStatus(id, dag.StatusCompleted)
		case !f.IsLocked:
			progress.SetStatus(id, dag.StatusAvailable)
		}
	}
	// Catalog nodes added since the save unlock from their prerequisites.
	dag.ApplyEvalResult(progress, dag.Evaluator(graph, progress))
	e.progress = progress

	e.dda.SetHistory(s.History)
	e.sess.reset(nil)
	e.state = StateIdle
}

// ResetGame wipes the run back to a new agent and clears the saved data
// when the backend supports it.
func (e *Engine) ResetGame(ctx context.Context) error {
	e.cancelTimers()
	e.orch.Reset()
	e.applyPendingTuning()
	e.profile = NewProfile(e.profile.AgentName, e.tuning.StartingCredits)
	e.progress = dag.InitialState(e.cat.Graph())
	e.dda.Reset()
	e.sess.reset(nil)
	e.state = StateIdle
	e.emit(Event{Kind: EventGameReset, Value: e.profile.Credits})

	if c, ok := e.store.(Clearer); ok {
		if err := c.Clear(ctx); err != nil {
			return fmt.Errorf("clear save: %w", err)
		}
	}
	return nil
}

// NodeView is a catalog node merged with the agent's progression flags.
type NodeView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Difficulty  Tier     `json:"difficulty"`
	BaseReward  float64  `json:"baseReward"`
	IsBoss      bool     `json:"isBoss"`
	IsLocked    bool     `json:"isLocked"`
	IsCompleted bool     `json:"isCompleted"`
	Requires    []string `json:"requires,omitempty"`
}

// ProfileView is the render-facing copy of the profile.
type ProfileView struct {
	AgentName string            `json:"agentName"`
	Credits   float64           `json:"credits"`
	Upgrades  []UpgradeID       `json:"upgrades"`
	Intel     []DiscoveredIntel `json:"intel"`
}

// Status is everything a client needs to redraw from scratch.
type Status struct {
	State      MissionState       `json:"state"`
	Session    SessionView        `json:"session"`
	Profile    ProfileView        `json:"profile"`
	Nodes      []NodeView         `json:"nodes"`
	Upgrades   []Upgrade          `json:"upgrades"`
	Puzzle     *PuzzleView        `json:"puzzle,omitempty"`
	Difficulty float64            `json:"difficulty"`
	History    PerformanceHistory `json:"history"`
}

// State returns the mission state.
func (e *Engine) State() MissionState { return e.state }

// Session returns the current session.
func (e *Engine) Session() SessionView { return e.sess.view(e.orch.IsActive()) }

// Puzzle returns the active puzzle, if any.
func (e *Engine) Puzzle() *PuzzleView { return e.orch.View() }

// Difficulty returns the current difficulty modifier.
func (e *Engine) Difficulty() float64 { return e.dda.Modifier() }

// Profile returns a copy of the profile.
func (e *Engine) Profile() ProfileView {
	p := e.profile
	v := ProfileView{
		AgentName: p.AgentName,
		Credits:   p.Credits,
		Intel:     append([]DiscoveredIntel(nil), p.Intel...),
	}
	for _, u := range e.cat.Upgrades {
		if p.Upgrades.Has(u.ID) {
			v.Upgrades = append(v.Upgrades, u.ID)
		}
	}
	return v
}

// Nodes lists every node in catalog order.
func (e *Engine) Nodes() []NodeView {
	out := make([]NodeView, 0, len(e.cat.Nodes))
	for _, n := range e.cat.Nodes {
		id := dag.NodeID(n.ID)
		out = append(out, NodeView{
			ID:          n.ID,
			Name:        n.Name,
			Description: n.Description,
			Difficulty:  n.Difficulty,
			BaseReward:  n.BaseReward,
			IsBoss:      n.IsBoss,
			IsLocked:    e.progress.IsLocked(id),
			IsCompleted: e.progress.IsCompleted(id),
			Requires:    append([]string(nil), n.Requires...),
		})
	}
	return out
}

// Status aggregates the read-side views.
func (e *Engine) Status() Status {
	return Status{
		State:      e.state,
		Session:    e.Session(),
		Profile:    e.Profile(),
		Nodes:      e.Nodes(),
		Upgrades:   append([]Upgrade(nil), e.cat.Upgrades...),
		Puzzle:     e.Puzzle(),
		Difficulty: e.dda.Modifier(),
		History:    e.dda.History(),
	}
}
