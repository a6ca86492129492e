package game

// Session is the authoritative record of the mission in progress. It is reset
// on every Start; nothing in it outlives the mission except through the
// Profile.
type Session struct {
	Node             *NetworkNode
	Progress         float64
	Trace            float64
	Score            float64
	FirewallBypassed bool
	DataExtracted    bool
	BossFight        bool
	BossStageIndex   int // -1 when no boss fight is running
	HighWarned       bool
	CriticalWarned   bool
}

func newSession() *Session {
	return &Session{BossStageIndex: -1}
}

func (s *Session) reset(node *NetworkNode) {
	*s = Session{Node: node, BossStageIndex: -1}
	if node != nil && node.IsBoss {
		s.BossFight = true
		s.BossStageIndex = 0
	}
}

// addTrace raises trace, capped at MaxTrace.
func (s *Session) addTrace(d float64) {
	s.Trace = clamp(s.Trace+d, 0, MaxTrace)
}

// addProgress raises progress, capped at MaxProgress.
func (s *Session) addProgress(d float64) {
	s.Progress = clamp(s.Progress+d, 0, MaxProgress)
}

// objectivesMet is the success condition checked when progress tops out.
func (s *Session) objectivesMet() bool {
	return s.FirewallBypassed && s.DataExtracted
}

// bossStagesDone reports whether a boss fight has confirmed every stage.
func (s *Session) bossStagesDone() bool {
	return s.BossFight && s.Node != nil && s.BossStageIndex >= len(s.Node.BossStages)
}

// SessionView is the render-facing copy of the session.
type SessionView struct {
	Node             string  `json:"node,omitempty"`
	NodeName         string  `json:"nodeName,omitempty"`
	Progress         float64 `json:"progress"`
	Trace            float64 `json:"trace"`
	Score            float64 `json:"score"`
	FirewallBypassed bool    `json:"firewallBypassed"`
	DataExtracted    bool    `json:"dataExtracted"`
	BossFight        bool    `json:"bossFight"`
	BossStageIndex   int     `json:"bossStageIndex"`
	PuzzleActive     bool    `json:"puzzleActive"`
}

func (s *Session) view(puzzleActive bool) SessionView {
	v := SessionView{
		Progress:         s.Progress,
		Trace:            s.Trace,
		Score:            s.Score,
		FirewallBypassed: s.FirewallBypassed,
		DataExtracted:    s.DataExtracted,
		BossFight:        s.BossFight,
		BossStageIndex:   s.BossStageIndex,
		PuzzleActive:     puzzleActive,
	}
	if s.Node != nil {
		v.Node = s.Node.ID
		v.NodeName = s.Node.Name
	}
	return v
}
