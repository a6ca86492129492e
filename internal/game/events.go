package game

// EventKind tags an outbound notification.
type EventKind string

const (
	EventConsole          EventKind = "console"
	EventMissionStarted   EventKind = "mission_started"
	EventProgress         EventKind = "progress"
	EventTrace            EventKind = "trace"
	EventScore            EventKind = "score"
	EventCredits          EventKind = "credits"
	EventObjective        EventKind = "objective"
	EventPuzzle           EventKind = "puzzle"
	EventPuzzleReveal     EventKind = "puzzle_reveal"
	EventPuzzleTimer      EventKind = "puzzle_timer"
	EventPuzzleFeedback   EventKind = "puzzle_feedback"
	EventPuzzleHidden     EventKind = "puzzle_hidden"
	EventWarning          EventKind = "warning"
	EventMissionResolved  EventKind = "mission_resolved"
	EventReturnToBase     EventKind = "return_to_base"
	EventGameOver         EventKind = "game_over"
	EventGameComplete     EventKind = "game_complete"
	EventNodeUnlocked     EventKind = "node_unlocked"
	EventIntel            EventKind = "intel"
	EventUpgradePurchased EventKind = "upgrade_purchased"
	EventGameSaved        EventKind = "game_saved"
	EventGameLoaded       EventKind = "game_loaded"
	EventGameReset        EventKind = "game_reset"
)

// Severity grades console lines and banners.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeveritySuccess  Severity = "success"
	SeverityWarn     Severity = "warn"
	SeverityCritical Severity = "critical"
	SeverityAmbient  Severity = "ambient"
	SeverityIntel    Severity = "intel"
)

// Outcome is how a mission attempt ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeAborted Outcome = "aborted"
	OutcomeTraced  Outcome = "traced"
)

// Event is the single tagged notification type the engine emits. Only the
// fields relevant to Kind are set.
type Event struct {
	Kind     EventKind        `json:"kind"`
	Sender   string           `json:"sender,omitempty"`
	Text     string           `json:"text,omitempty"`
	Title    string           `json:"title,omitempty"`
	Severity Severity         `json:"severity,omitempty"`
	Value    float64          `json:"value"`
	Node     string           `json:"node,omitempty"`
	Outcome  Outcome          `json:"outcome,omitempty"`
	Index    int              `json:"index"`
	Symbol   string           `json:"symbol,omitempty"`
	Correct  bool             `json:"correct,omitempty"`
	Puzzle   *PuzzleView      `json:"puzzle,omitempty"`
	Intel    *DiscoveredIntel `json:"intel,omitempty"`
}

// View receives every state change the player should see.
type View interface {
	Emit(Event)
}

// ViewFunc adapts a function to View.
type ViewFunc func(Event)

// Emit implements View.
func (f ViewFunc) Emit(e Event) { f(e) }

// MultiView fans events out to several views in order.
type MultiView []View

// Emit implements View.
func (m MultiView) Emit(e Event) {
	for _, v := range m {
		if v != nil {
			v.Emit(e)
		}
	}
}

// Cue names a sound effect.
type Cue string

const (
	CueHackStart       Cue = "hackStart"
	CueHackAbort       Cue = "hackAbort"
	CuePuzzleSuccess   Cue = "puzzleSuccess"
	CuePuzzleFail      Cue = "puzzleFail"
	CueTraceWarning    Cue = "traceWarning"
	CueMissionComplete Cue = "missionComplete"
	CueMissionFail     Cue = "missionFail"
	CueGameOver        Cue = "gameOver"
	CueGameWin         Cue = "gameWin"
	CueNodeUnlocked    Cue = "nodeUnlocked"
	CuePurchase        Cue = "purchase"
)

// Audio plays fire-and-forget cues.
type Audio interface {
	Play(Cue)
}

// AudioFunc adapts a function to Audio.
type AudioFunc func(Cue)

// Play implements Audio.
func (f AudioFunc) Play(c Cue) { f(c) }

type nopAudio struct{}

func (nopAudio) Play(Cue) {}

type nopView struct{}

func (nopView) Emit(Event) {}
