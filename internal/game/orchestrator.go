package game

import (
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"BreachProtocol/internal/clock"
)

// ErrNothingToRetry is returned when Retry is called with no puzzle to
// regenerate.
var ErrNothingToRetry = errors.New("game: nothing to retry")

// PuzzleResult is what the orchestrator reports to the mission loop once a
// verdict has been fully applied.
type PuzzleResult struct {
	Success   bool
	Type      PuzzleType
	Objective Objective
	Boss      bool
	Stage     int
}

// Orchestrator is the single gate between the mission loop and the puzzle
// variants. It owns the flag that blocks simulation progress.
type Orchestrator struct {
	sess      *Session
	profileFn func() *Profile
	dda       *DifficultyController
	sched     clock.Scheduler
	tuning    Tuning
	audio     Audio
	emit      func(Event)
	onResult  func(PuzzleResult)
	log       *zap.Logger

	sequence *SequencePuzzle
	path     *PathPuzzle
	timed    *TimedInputPuzzle

	current   Puzzle
	meta      PuzzleView
	node      *NetworkNode
	objective Objective
	boss      bool
	stage     int
	active    bool
	resolving bool
	feedback  clock.Timer
	gen       int
}

// OrchestratorDeps are the collaborators of an Orchestrator.
type OrchestratorDeps struct {
	Session    *Session
	Profile    func() *Profile
	Difficulty *DifficultyController
	Scheduler  clock.Scheduler
	Rand       *rand.Rand
	Tuning     Tuning
	Audio      Audio
	Emit       func(Event)
	OnResult   func(PuzzleResult)
	Logger     *zap.Logger
}

// NewOrchestrator builds the orchestrator and its three variants.
func NewOrchestrator(d OrchestratorDeps) *Orchestrator {
	o := &Orchestrator{
		sess:     d.Session,
		dda:      d.Difficulty,
		sched:    d.Scheduler,
		tuning:   d.Tuning,
		audio:    d.Audio,
		emit:     d.Emit,
		onResult: d.OnResult,
		log:      d.Logger,
	}
	if o.audio == nil {
		o.audio = nopAudio{}
	}
	if o.emit == nil {
		o.emit = func(Event) {}
	}
	if o.onResult == nil {
		o.onResult = func(PuzzleResult) {}
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	profile := d.Profile
	if profile == nil {
		p := NewProfile("", 0)
		profile = func() *Profile { return p }
	}
	o.profileFn = profile

	o.sequence = NewSequencePuzzle(d.Rand, d.Scheduler, o.tuning.RevealStep, o.verdict, o.emit)
	o.path = NewPathPuzzle(d.Rand, o.verdict)
	o.timed = NewTimedInputPuzzle(d.Rand, d.Scheduler, o.tuning.TimedInputInterval, o.tuning.TimedInputDecrement, o.verdict, o.emit)
	return o
}

func (o *Orchestrator) variant(pt PuzzleType) Puzzle {
	switch pt {
	case PuzzleSequence:
		return o.sequence
	case PuzzlePathfinding:
		return o.path
	case PuzzleTimedInput:
		return o.timed
	}
	return nil
}

// Activate starts a fresh puzzle for a regular objective, or for boss stage
// stageIndex when isBoss is set. Missing puzzle configuration is reported as
// ErrInvalidConfig and leaves the orchestrator inactive.
func (o *Orchestrator) Activate(node *NetworkNode, objective Objective, isBoss bool, stageIndex int) error {
	if node == nil {
		return fmt.Errorf("%w: no node to activate", ErrInvalidConfig)
	}
	var (
		pt          PuzzleType
		base        int
		instruction string
		meta        PuzzleView
	)
	if isBoss {
		if stageIndex < 0 || stageIndex >= len(node.BossStages) {
			return fmt.Errorf("%w: node %s has no boss stage %d", ErrInvalidConfig, node.ID, stageIndex)
		}
		st := node.BossStages[stageIndex]
		pt, base, instruction = st.PuzzleType, st.PuzzleLength, st.Instruction
		meta.StageName = st.ObjectiveName
		meta.StageCount = len(node.BossStages)
	} else {
		var ok bool
		pt, ok = node.PuzzleTypes[objective]
		if !ok {
			return fmt.Errorf("%w: node %s has no %q objective", ErrInvalidConfig, node.ID, objective)
		}
		base = node.PuzzleLength
		instruction = objectiveInstruction(objective)
		meta.Objective = objective
	}
	v := o.variant(pt)
	if v == nil {
		return fmt.Errorf("%w: node %s: unknown puzzle type %q", ErrInvalidConfig, node.ID, pt)
	}

	upgrades := o.profileFn().Upgrades
	params := o.dda.AdjustedParameters(node.Difficulty, upgrades)
	length := EffectiveLength(base, params, pt, upgrades)

	o.teardown()
	o.node, o.objective, o.boss, o.stage = node, objective, isBoss, stageIndex
	meta.Instruction = instruction
	meta.Stage = stageIndex
	o.meta = meta
	o.current = v
	o.active = true
	o.gen++

	if isBoss {
		o.console("SYSTEM", fmt.Sprintf("Nexus Core: Initiating %s...", meta.StageName), SeverityWarn)
	} else {
		o.console("SYSTEM", "Sub-routine activated! System requires manual input.", SeverityWarn)
	}
	o.log.Debug("puzzle activated",
		zap.String("node", node.ID),
		zap.String("type", string(pt)),
		zap.Int("length", length),
		zap.Int("stage", stageIndex))

	v.Activate(length)
	view := o.View()
	o.emit(Event{Kind: EventPuzzle, Node: node.ID, Puzzle: view})
	return nil
}

func objectiveInstruction(obj Objective) string {
	switch obj {
	case ObjectiveFirewall:
		return "Bypass Firewall: Decrypt shield!"
	case ObjectiveData:
		return "Data Extraction: Verify checksum!"
	}
	return ""
}

// verdict applies a variant's result. Variants call it at most once per
// activation; the resolving guard covers the feedback window.
func (o *Orchestrator) verdict(v Verdict) {
	if !o.active || o.resolving {
		return
	}
	res := PuzzleResult{
		Success:   v.Correct,
		Type:      v.Type,
		Objective: o.objective,
		Boss:      o.boss,
		Stage:     o.stage,
	}

	if v.Correct {
		o.audio.Play(CuePuzzleSuccess)
		o.sess.Score += o.tuning.PuzzleSuccessScore
		o.emit(Event{Kind: EventPuzzleFeedback, Correct: true, Text: "SUB-ROUTINE SUCCESSFUL!", Severity: SeveritySuccess})
		o.console("HACK", "Sub-routine successful! Access granted.", SeveritySuccess)
		o.emit(Event{Kind: EventScore, Value: o.sess.Score})
		o.dda.RecordEvent(PerfPuzzleSuccess, PerformancePayload{})

		lastStage := o.boss && o.stage+1 >= len(o.node.BossStages)
		o.resolving = true
		o.feedback = o.sched.AfterFunc(o.tuning.FeedbackDelay, func() {
			o.feedback = nil
			o.resolving = false
			o.resetVariants()
			o.current = nil
			o.emit(Event{Kind: EventPuzzleHidden})
			if !o.boss || lastStage {
				o.active = false
			}
			o.onResult(res)
		})
		return
	}

	o.audio.Play(CuePuzzleFail)
	penalty := o.tuning.PuzzleFailTrace
	text, banner := "Incorrect sequence! Trace level increased!", "SUB-ROUTINE FAILED!"
	if o.boss {
		penalty = o.tuning.BossPuzzleFailTrace
		text, banner = "Nexus Core defenses holding! Trace level increased!", "NEXUS CORE DEFENSES HOLDING!"
	}
	o.sess.addTrace(penalty)
	o.emit(Event{Kind: EventPuzzleFeedback, Correct: false, Text: banner, Severity: SeverityCritical})
	o.console("CRITICAL", text, SeverityCritical)
	o.emit(Event{Kind: EventTrace, Value: o.sess.Trace})
	o.dda.RecordEvent(PerfPuzzleFail, PerformancePayload{TraceGained: penalty})
	o.onResult(res)
}

// Retry regenerates the current objective or stage as a brand-new instance.
// It is refused while a success is being displayed, when nothing is active,
// and while a timed-input countdown is still running: rerolling it would
// dodge the failure trace.
func (o *Orchestrator) Retry() error {
	if !o.active || o.resolving || o.current == nil {
		return ErrNothingToRetry
	}
	if o.current.Type() == PuzzleTimedInput && o.current.Accepting() {
		return ErrNothingToRetry
	}
	return o.Activate(o.node, o.objective, o.boss, o.stage)
}

// Generation counts activations, retries included.
func (o *Orchestrator) Generation() int { return o.gen }

// IsActive reports whether a puzzle currently blocks mission progress.
func (o *Orchestrator) IsActive() bool { return o.active }

// Reset tears everything down, including a pending success banner.
func (o *Orchestrator) Reset() {
	o.teardown()
	o.active = false
	o.node = nil
	o.objective = ""
	o.boss = false
	o.stage = -1
}

func (o *Orchestrator) teardown() {
	o.feedback = clock.Stop(o.feedback)
	o.resolving = false
	o.resetVariants()
	o.current = nil
	o.meta = PuzzleView{}
}

func (o *Orchestrator) resetVariants() {
	o.sequence.Reset()
	o.path.Reset()
	o.timed.Reset()
}

// View describes the active puzzle, or nil when none is shown.
func (o *Orchestrator) View() *PuzzleView {
	if o.current == nil {
		return nil
	}
	v := o.current.View()
	v.Instruction = o.meta.Instruction
	v.Objective = o.meta.Objective
	v.Stage = o.meta.Stage
	v.StageCount = o.meta.StageCount
	v.StageName = o.meta.StageName
	return &v
}

func (o *Orchestrator) expect(pt PuzzleType) error {
	if !o.active || o.current == nil || !o.current.Accepting() {
		return ErrNoActivePuzzle
	}
	if o.current.Type() != pt {
		return ErrWrongPuzzle
	}
	return nil
}

// SelectSymbol forwards a sequence selection.
func (o *Orchestrator) SelectSymbol(pos int, symbol string) error {
	if err := o.expect(PuzzleSequence); err != nil {
		return err
	}
	return o.sequence.Select(pos, symbol)
}

// StepPath forwards a pathfinding step.
func (o *Orchestrator) StepPath(c Cell) error {
	if err := o.expect(PuzzlePathfinding); err != nil {
		return err
	}
	return o.path.Step(c)
}

// TypeInput forwards timed-input text.
func (o *Orchestrator) TypeInput(text string) error {
	if err := o.expect(PuzzleTimedInput); err != nil {
		return err
	}
	return o.timed.Input(text)
}

func (o *Orchestrator) console(sender, text string, sev Severity) {
	o.emit(Event{Kind: EventConsole, Sender: sender, Text: text, Severity: sev})
}
