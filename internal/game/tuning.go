package game

import "time"

// Tuning holds the timing and scoring knobs an operator may override from the
// config file. Gameplay rules that the campaign depends on (penalty constants,
// difficulty thresholds) stay fixed in consts.go.
type Tuning struct {
	StartingCredits      float64       // Credits granted to a new agent
	TickInterval         time.Duration // Mission loop step
	FeedbackDelay        time.Duration // Success banner before the puzzle closes
	BossStageDelay       time.Duration // Pause between boss stages
	ReturnDelay          time.Duration // Outcome display before control returns
	RevealStep           time.Duration // Sequence reveal cadence
	TimedInputInterval   time.Duration // Countdown step
	TimedInputDecrement  float64       // Countdown points lost per step
	PuzzleSuccessScore   float64       // Score per solved puzzle
	PuzzleFailTrace      float64       // Trace per failed puzzle
	BossPuzzleFailTrace  float64       // Trace per failed boss stage
	WarnHigh             float64       // First trace warning
	WarnCritical         float64       // Second trace warning
	AmbientChatterChance float64       // Per tick chance of an ambient console line
	AmbientHackChance    float64       // Per tick chance of a hacking console line
	AutoSave             bool          // Save after every successful mission
}

// DefaultTuning returns the stock campaign tuning.
func DefaultTuning() Tuning {
	return SanitizeTuning(Tuning{
		StartingCredits:      StartingCredits,
		TickInterval:         TickInterval,
		FeedbackDelay:        FeedbackDelay,
		BossStageDelay:       BossStageDelay,
		ReturnDelay:          ReturnDelay,
		RevealStep:           SequenceRevealStep,
		TimedInputInterval:   TimedInputInterval,
		TimedInputDecrement:  TimedInputDecrement,
		PuzzleSuccessScore:   PuzzleSuccessScore,
		PuzzleFailTrace:      PuzzleFailTrace,
		BossPuzzleFailTrace:  BossPuzzleFailTrace,
		WarnHigh:             TraceWarnHigh,
		WarnCritical:         TraceWarnCritical,
		AmbientChatterChance: AmbientChatterChance,
		AmbientHackChance:    AmbientHackChance,
		AutoSave:             true,
	})
}

// SanitizeTuning clamps and normalizes tuning to safe values, falling back to
// the defaults for anything out of range.
func SanitizeTuning(t Tuning) Tuning {
	if !(t.StartingCredits >= MinCredits) {
		t.StartingCredits = StartingCredits
	}
	if t.TickInterval <= 0 {
		t.TickInterval = TickInterval
	}
	if t.FeedbackDelay < 0 {
		t.FeedbackDelay = FeedbackDelay
	}
	if t.BossStageDelay < 0 {
		t.BossStageDelay = BossStageDelay
	}
	if t.ReturnDelay < 0 {
		t.ReturnDelay = ReturnDelay
	}
	if t.RevealStep <= 0 {
		t.RevealStep = SequenceRevealStep
	}
	if t.TimedInputInterval <= 0 {
		t.TimedInputInterval = TimedInputInterval
	}
	if !(t.TimedInputDecrement > 0 && t.TimedInputDecrement <= TimedInputStart) {
		t.TimedInputDecrement = TimedInputDecrement
	}
	if !(t.PuzzleSuccessScore >= 0) {
		t.PuzzleSuccessScore = PuzzleSuccessScore
	}
	if !(t.PuzzleFailTrace >= 0) {
		t.PuzzleFailTrace = PuzzleFailTrace
	}
	if !(t.BossPuzzleFailTrace >= 0) {
		t.BossPuzzleFailTrace = BossPuzzleFailTrace
	}
	if !(t.WarnHigh > 0 && t.WarnHigh <= MaxTrace) {
		t.WarnHigh = TraceWarnHigh
	}
	if !(t.WarnCritical >= t.WarnHigh && t.WarnCritical <= MaxTrace) {
		t.WarnCritical = TraceWarnCritical
		if t.WarnCritical < t.WarnHigh {
			t.WarnCritical = t.WarnHigh
		}
	}
	t.AmbientChatterChance = clamp01(t.AmbientChatterChance)
	t.AmbientHackChance = clamp01(t.AmbientHackChance)
	return t
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
