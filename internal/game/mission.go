package game

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"BreachProtocol/internal/clock"
	"BreachProtocol/internal/dag"
)

// MissionState is the mission loop's state machine.
type MissionState string

const (
	StateIdle         MissionState = "idle"
	StateActive       MissionState = "active"
	StateSucceeded    MissionState = "succeeded"
	StateFailed       MissionState = "failed"
	StateAborted      MissionState = "aborted"
	StateGameOver     MissionState = "game_over"
	StateGameComplete MissionState = "game_complete"
)

var (
	// ErrMissionInProgress is returned for actions that need the agent at base.
	ErrMissionInProgress = errors.New("game: mission in progress")
	// ErrNoActiveMission is returned for in-mission actions outside a mission.
	ErrNoActiveMission = errors.New("game: no active mission")
	// ErrUnknownNode is returned for node ids missing from the catalog.
	ErrUnknownNode = errors.New("game: unknown node")
	// ErrNodeLocked is returned when starting a node whose prerequisites are open.
	ErrNodeLocked = errors.New("game: node locked")
	// ErrObjectiveUnavailable is returned when an objective cannot be triggered now.
	ErrObjectiveUnavailable = errors.New("game: objective unavailable")
	// ErrRunOver is returned after game over or game completion until a reset or load.
	ErrRunOver = errors.New("game: run is over")
	// ErrNoPersistence is returned by Save and Load when no backend is wired.
	ErrNoPersistence = errors.New("game: no persistence configured")
)

// Deps are the collaborators of an Engine. Catalog and Scheduler are
// required; everything else has a usable default.
type Deps struct {
	Catalog     *Catalog
	Scheduler   clock.Scheduler
	Rand        *rand.Rand
	View        View
	Audio       Audio
	Persistence Persistence
	Tuning      *Tuning
	Logger      *zap.Logger
	AgentName   string
}

// Engine runs missions for a single agent. It is not safe for concurrent
// use: callers serialise access, typically with the lock handed to
// clock.NewReal.
type Engine struct {
	cat    *Catalog
	sched  clock.Scheduler
	rng    *rand.Rand
	view   View
	audio  Audio
	store  Persistence
	tuning Tuning
	log    *zap.Logger

	profile  *Profile
	progress *dag.State
	dda      *DifficultyController
	sess     *Session
	orch     *Orchestrator
	state    MissionState

	tick        clock.Timer
	stageTimer  clock.Timer
	handoff     clock.Timer
	handoffFn   func()
	pending     *Tuning // applied once the current mission has handed off
	tuningDirty bool
}

// NewEngine builds an engine with a fresh profile.
func NewEngine(d Deps) (*Engine, error) {
	if d.Catalog == nil {
		return nil, fmt.Errorf("%w: engine needs a catalog", ErrInvalidConfig)
	}
	if d.Catalog.Graph() == nil {
		if err := d.Catalog.Validate(); err != nil {
			return nil, err
		}
	}
	if d.Scheduler == nil {
		return nil, errors.New("game: engine needs a scheduler")
	}
	e := &Engine{
		cat:   d.Catalog,
		sched: d.Scheduler,
		rng:   d.Rand,
		view:  d.View,
		audio: d.Audio,
		store: d.Persistence,
		log:   d.Logger,
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.view == nil {
		e.view = nopView{}
	}
	if e.audio == nil {
		e.audio = nopAudio{}
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if d.Tuning != nil {
		e.tuning = SanitizeTuning(*d.Tuning)
	} else {
		e.tuning = DefaultTuning()
	}

	e.dda = NewDifficultyController(e.log.Named("difficulty"))
	e.sess = newSession()
	e.profile = NewProfile(d.AgentName, e.tuning.StartingCredits)
	e.progress = dag.InitialState(e.cat.Graph())
	e.state = StateIdle
	e.orch = e.newOrchestrator()
	return e, nil
}

func (e *Engine) newOrchestrator() *Orchestrator {
	return NewOrchestrator(OrchestratorDeps{
		Session:    e.sess,
		Profile:    func() *Profile { return e.profile },
		Difficulty: e.dda,
		Scheduler:  e.sched,
		Rand:       e.rng,
		Tuning:     e.tuning,
		Audio:      e.audio,
		Emit:       e.emit,
		OnResult:   e.onPuzzleResult,
		Logger:     e.log.Named("puzzle"),
	})
}

func (e *Engine) emit(ev Event) { e.view.Emit(ev) }

// SetTuning replaces the tuning. A mission that is running or still
// handing off keeps its timings; the change is held until it is over.
func (e *Engine) SetTuning(t Tuning) {
	t = SanitizeTuning(t)
	e.pending = &t
	if !e.busy() {
		e.applyPendingTuning()
	}
}

func (e *Engine) applyPendingTuning() {
	if e.pending == nil {
		return
	}
	e.tuning = *e.pending
	e.pending = nil
	e.tuningDirty = true
}

// busy reports whether a mission is running or its outcome is still on
// display.
func (e *Engine) busy() bool {
	return e.state == StateActive || e.handoff != nil
}

// Start begins a mission against nodeID. Any timers left from a previous
// mission are cancelled first.
func (e *Engine) Start(nodeID string) error {
	switch {
	case e.busy():
		return ErrMissionInProgress
	case e.state == StateGameOver, e.state == StateGameComplete:
		return ErrRunOver
	}
	node, ok := e.cat.Node(nodeID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, nodeID)
	}
	if err := node.Validate(); err != nil {
		return err
	}
	if err := dag.CheckStart(e.cat.Graph(), e.progress, dag.NodeID(nodeID)); err != nil {
		if errors.Is(err, dag.ErrNodeLocked) {
			return fmt.Errorf("%w: %s", ErrNodeLocked, nodeID)
		}
		return err
	}

	e.cancelTimers()
	e.orch.Reset()
	e.applyPendingTuning()
	if e.tuningDirty {
		e.orch = e.newOrchestrator()
		e.tuningDirty = false
	}
	e.sess.reset(node)
	e.state = StateActive

	e.log.Info("mission started", zap.String("node", node.ID), zap.Bool("boss", node.IsBoss))
	e.audio.Play(CueHackStart)
	e.emit(Event{Kind: EventMissionStarted, Node: node.ID, Title: node.Name})
	e.emit(Event{Kind: EventProgress, Value: 0})
	e.emit(Event{Kind: EventTrace, Value: 0})
	e.emit(Event{Kind: EventScore, Value: 0})
	e.console("SYSTEM", "Initializing connection to target system...", SeverityInfo)
	e.console("SYSTEM", "Running vulnerability scans. Cerberus AI online.", SeverityWarn)

	if node.IsBoss {
		if err := e.orch.Activate(node, "", true, 0); err != nil {
			e.state = StateIdle
			return err
		}
	}
	e.tick = e.sched.Every(e.tuning.TickInterval, e.step)
	return nil
}

// TriggerObjective opens the puzzle for a regular objective. Firewall comes
// first, data second; neither is available during a boss fight or while
// another puzzle is up.
func (e *Engine) TriggerObjective(obj Objective) error {
	if e.state != StateActive {
		return ErrNoActiveMission
	}
	s := e.sess
	if s.BossFight || e.orch.IsActive() {
		return ErrObjectiveUnavailable
	}
	switch obj {
	case ObjectiveFirewall:
		if s.FirewallBypassed {
			return ErrObjectiveUnavailable
		}
	case ObjectiveData:
		if !s.FirewallBypassed || s.DataExtracted {
			return ErrObjectiveUnavailable
		}
	default:
		return fmt.Errorf("%w: %q", ErrObjectiveUnavailable, obj)
	}
	return e.orch.Activate(s.Node, obj, false, -1)
}

// Retry regenerates the active puzzle.
func (e *Engine) Retry() error {
	if e.state != StateActive {
		return ErrNoActiveMission
	}
	return e.orch.Retry()
}

// SelectSymbol feeds a sequence-recall selection.
func (e *Engine) SelectSymbol(pos int, symbol string) error {
	if e.state != StateActive {
		return ErrNoActiveMission
	}
	return e.orch.SelectSymbol(pos, symbol)
}

// StepPath feeds a pathfinding step.
func (e *Engine) StepPath(c Cell) error {
	if e.state != StateActive {
		return ErrNoActiveMission
	}
	return e.orch.StepPath(c)
}

// TypeInput feeds timed-input text.
func (e *Engine) TypeInput(text string) error {
	if e.state != StateActive {
		return ErrNoActiveMission
	}
	return e.orch.TypeInput(text)
}

func (e *Engine) onPuzzleResult(res PuzzleResult) {
	if e.state != StateActive || !res.Success {
		return
	}
	s := e.sess
	if res.Boss {
		next := res.Stage + 1
		s.BossStageIndex = next
		if next < len(s.Node.BossStages) {
			e.console("SYSTEM", fmt.Sprintf("Nexus Core Stage %d bypassed. Proceeding to next phase.", next), SeverityInfo)
			node := s.Node
			e.stageTimer = e.sched.AfterFunc(e.tuning.BossStageDelay, func() {
				e.stageTimer = nil
				if e.state != StateActive {
					return
				}
				if err := e.orch.Activate(node, "", true, next); err != nil {
					e.log.Error("boss stage activation failed", zap.String("node", node.ID), zap.Int("stage", next), zap.Error(err))
				}
			})
			return
		}
		s.FirewallBypassed = true
		s.DataExtracted = true
		e.console("SYSTEM", fmt.Sprintf("%s BREACHED! MISSION COMPLETE!", strings.ToUpper(s.Node.Name)), SeveritySuccess)
		e.emit(Event{Kind: EventObjective, Node: s.Node.ID, Text: "boss"})
		return
	}

	switch res.Objective {
	case ObjectiveFirewall:
		s.FirewallBypassed = true
		e.console("SYSTEM", "Firewall bypassed. Data extraction ready.", SeverityInfo)
	case ObjectiveData:
		s.DataExtracted = true
		e.console("SYSTEM", "Critical data acquired. Prepare for virus deployment.", SeverityInfo)
	}
	e.emit(Event{Kind: EventObjective, Node: s.Node.ID, Text: string(res.Objective)})
}

// step is one mission loop tick.
func (e *Engine) step() {
	if e.state != StateActive {
		return
	}
	s := e.sess
	if s.Progress >= MaxProgress {
		e.resolve()
		return
	}
	if s.Trace >= MaxTrace {
		e.gameOver()
		return
	}

	if !e.orch.IsActive() || s.bossStagesDone() {
		gain := e.rng.Float64()*ProgressSpan + ProgressMin
		if s.BossFight {
			gain += e.rng.Float64() * BossProgressBonus
		}
		s.addProgress(gain)

		params := e.dda.AdjustedParameters(s.Node.Difficulty, e.profile.Upgrades)
		s.addTrace((e.rng.Float64()*TraceSpan + TraceMin) * params.TraceIncreaseRate)
		e.emit(Event{Kind: EventProgress, Value: s.Progress})
		e.emit(Event{Kind: EventTrace, Value: s.Trace})
		e.ambient()
	}

	e.checkWarnings()
}

// checkWarnings fires each trace warning at most once per mission.
func (e *Engine) checkWarnings() {
	s := e.sess
	if s.Trace >= e.tuning.WarnHigh && !s.HighWarned {
		s.HighWarned = true
		e.audio.Play(CueTraceWarning)
		e.console("CRITICAL", "EVASIVE MANEUVERS! NEXUS AI IS CLOSING IN!", SeverityCritical)
		e.emit(Event{Kind: EventWarning, Value: e.tuning.WarnHigh, Severity: SeverityWarn,
			Title: "HIGH TRACE DETECTED!",
			Text:  "Cerberus AI is actively tracking your position. Complete your objectives quickly!"})
	}
	if s.Trace >= e.tuning.WarnCritical && !s.CriticalWarned {
		s.CriticalWarned = true
		e.audio.Play(CueTraceWarning)
		e.console("CRITICAL", "CRITICAL TRACE LEVEL! IMMEDIATE ABORT RECOMMENDED!", SeverityCritical)
		e.emit(Event{Kind: EventWarning, Value: e.tuning.WarnCritical, Severity: SeverityCritical,
			Title: "CRITICAL TRACE!",
			Text:  "Your position is almost compromised. Abort immediately or risk full exposure!"})
	}
}

// resolve settles a mission whose progress has topped out.
func (e *Engine) resolve() {
	e.tick = clock.Stop(e.tick)
	s := e.sess
	node := s.Node
	params := e.dda.AdjustedParameters(node.Difficulty, e.profile.Upgrades)

	if !s.objectivesMet() {
		credits, trace := MissionFailCredits, MissionFailTrace
		if s.BossFight {
			credits, trace = BossMissionFailCredits, BossMissionFailTrace
		}
		e.penalise(credits*params.PenaltyModifier, trace*params.PenaltyModifier, PerfMissionFail)
		e.state = StateFailed
		e.orch.Reset()
		e.audio.Play(CueMissionFail)
		e.console("SYSTEM", "Mission failed: Objectives not met. Returning to Sanctuary.", SeverityCritical)
		e.console("SYSTEM", fmt.Sprintf("Penalty: -C %.0f and increased Trace.", credits*params.PenaltyModifier), SeverityCritical)
		e.emit(Event{Kind: EventMissionResolved, Node: node.ID, Outcome: OutcomeFailure, Severity: SeverityCritical,
			Title: "MISSION FAILED!",
			Text:  "Objectives not met. Nexus defenses too strong. Penalty applied."})
		e.log.Info("mission failed", zap.String("node", node.ID), zap.Float64("credits", e.profile.Credits))
		e.scheduleHandoff(node, OutcomeFailure, nil)
		return
	}

	reward := math.Floor(node.BaseReward*params.RewardModifier + s.Score)
	e.profile.AddCredits(reward)
	e.state = StateSucceeded
	e.orch.Reset()

	e.audio.Play(CueMissionComplete)
	e.console("SYSTEM", fmt.Sprintf("Breach of %s successful! Data extracted. Logs wiped.", node.Name), SeveritySuccess)
	e.console("SYSTEM", fmt.Sprintf("Credits awarded: C %.0f!", reward), SeveritySuccess)
	fx := &missionEffects{e: e}
	if _, err := dag.Complete(e.cat.Graph(), e.progress, dag.NodeID(node.ID), fx); err != nil {
		e.log.Error("unlock evaluation failed", zap.String("node", node.ID), zap.Error(err))
	}
	e.dda.RecordEvent(PerfMissionComplete, PerformancePayload{CreditsEarned: reward})
	e.emit(Event{Kind: EventCredits, Value: e.profile.Credits})
	e.emit(Event{Kind: EventMissionResolved, Node: node.ID, Outcome: OutcomeSuccess, Value: reward, Severity: SeveritySuccess,
		Title: "MISSION COMPLETE!",
		Text:  fmt.Sprintf("%s breached. Gained C %.0f.", node.Name, reward)})
	e.log.Info("mission complete", zap.String("node", node.ID), zap.Float64("reward", reward))

	if e.tuning.AutoSave && e.store != nil {
		if err := e.store.Save(context.Background(), e.Snapshot()); err != nil {
			e.log.Warn("auto-save failed", zap.Error(err))
		} else {
			e.console("SYSTEM", "Auto-saving progress after successful mission.", SeverityAmbient)
		}
	}
	e.scheduleHandoff(node, OutcomeSuccess, fx.unlocked)
}

// recordIntel adds the node's intel log the first time the node falls.
func (e *Engine) recordIntel(node *NetworkNode) {
	if node.IntelID == "" {
		return
	}
	log, ok := e.cat.Intel[node.IntelID]
	if !ok {
		return
	}
	d := DiscoveredIntel{ID: node.ID, Title: log.Title, Content: log.Content, Source: node.Name}
	if !e.profile.AddIntel(d) {
		return
	}
	e.console("SYSTEM", "CRITICAL INTEL DISCOVERED. Check DATA LOGS.", SeverityIntel)
	e.emit(Event{Kind: EventIntel, Node: node.ID, Title: log.Title, Intel: &d})
}

// penalise applies a credit and trace penalty and records it.
func (e *Engine) penalise(credits, trace float64, kind PerformanceKind) {
	e.profile.Charge(credits)
	e.sess.addTrace(trace)
	e.dda.RecordEvent(kind, PerformancePayload{CreditsLost: credits, TraceGained: trace})
	e.emit(Event{Kind: EventCredits, Value: e.profile.Credits})
	e.emit(Event{Kind: EventTrace, Value: e.sess.Trace})
}

// scheduleHandoff returns control to the caller after the outcome display
// delay. A successful boss breach ends the run instead.
func (e *Engine) scheduleHandoff(node *NetworkNode, outcome Outcome, unlocked []dag.NodeID) {
	fn := func() {
		e.handoff, e.handoffFn = nil, nil
		defer e.applyPendingTuning()
		if outcome == OutcomeSuccess && node.IsBoss {
			e.completeGame(node)
			return
		}
		for _, id := range unlocked {
			e.announceUnlock(string(id))
		}
		text := fmt.Sprintf("Mission %q FAILED.", node.Name)
		sev := SeverityCritical
		switch outcome {
		case OutcomeSuccess:
			text, sev = fmt.Sprintf("Mission %q COMPLETED.", node.Name), SeveritySuccess
		case OutcomeAborted:
			text = "Mission aborted. Re-evaluate strategy."
		}
		e.emit(Event{Kind: EventReturnToBase, Node: node.ID, Outcome: outcome, Text: text, Severity: sev})
	}
	e.handoffFn = fn
	e.handoff = e.sched.AfterFunc(e.tuning.ReturnDelay, fn)
}

func (e *Engine) announceUnlock(id string) {
	n, ok := e.cat.Node(id)
	if !ok {
		return
	}
	e.audio.Play(CueNodeUnlocked)
	if n.IsBoss {
		e.console("CRITICAL", fmt.Sprintf("All critical intel acquired. The path to the %s is open. End this.", n.Name), SeverityCritical)
	} else {
		e.console("SYSTEM", fmt.Sprintf("New network node available: %s", n.Name), SeverityInfo)
	}
	e.emit(Event{Kind: EventNodeUnlocked, Node: n.ID, Title: n.Name})
}

func (e *Engine) gameOver() {
	node := e.sess.Node
	e.cancelTimers()
	e.orch.Reset()
	e.state = StateGameOver
	e.audio.Play(CueGameOver)
	e.emit(Event{Kind: EventPuzzleHidden})
	e.emit(Event{Kind: EventGameOver, Node: node.ID, Outcome: OutcomeTraced, Severity: SeverityCritical,
		Title: "TRACE COMPLETE",
		Text:  "Cerberus AI has locked onto your position. Connection severed."})
	e.log.Warn("trace overflow, run over", zap.String("node", node.ID))
}

func (e *Engine) completeGame(node *NetworkNode) {
	e.state = StateGameComplete
	e.audio.Play(CueGameWin)
	e.emit(Event{Kind: EventGameComplete, Node: node.ID, Outcome: OutcomeSuccess, Severity: SeveritySuccess,
		Title: "SYSTEM LIBERATED",
		Text:  "The Nexus is exposed and your name is cleared."})
	e.log.Info("campaign complete", zap.String("agent", e.profile.AgentName))
}

// Abort abandons the running mission at any point, including mid-puzzle.
func (e *Engine) Abort() error {
	if e.state != StateActive {
		return ErrNoActiveMission
	}
	s := e.sess
	node := s.Node
	e.cancelTimers()
	e.orch.Reset()
	e.emit(Event{Kind: EventPuzzleHidden})

	params := e.dda.AdjustedParameters(node.Difficulty, e.profile.Upgrades)
	credits, trace := AbortCredits, AbortTrace
	e.console("CRITICAL", "Breach aborted. Minimal data extracted. Trace left behind!", SeverityCritical)
	if node.IsBoss {
		credits, trace = BossAbortCredits, BossAbortTrace
		e.console("SYSTEM", fmt.Sprintf("%s breach aborted. Significant trace left behind!", node.Name), SeverityCritical)
	}
	s.BossFight = false
	e.penalise(credits*params.PenaltyModifier, trace*params.PenaltyModifier, PerfAbort)
	e.state = StateAborted
	e.audio.Play(CueHackAbort)
	e.emit(Event{Kind: EventMissionResolved, Node: node.ID, Outcome: OutcomeAborted, Severity: SeverityCritical,
		Title: "BREACH ABORTED!",
		Text:  "You retreated from the breach. Minor losses, but the mission failed."})
	e.log.Info("mission aborted", zap.String("node", node.ID))
	e.scheduleHandoff(node, OutcomeAborted, nil)
	return nil
}

// Suspend stops every pending timer. A running mission is dropped without
// penalty; a resolved one hands off immediately instead of after the
// display delay, so a boss victory still completes the run.
func (e *Engine) Suspend() {
	if fn := e.handoffFn; fn != nil {
		e.handoff = clock.Stop(e.handoff)
		fn()
	}
	e.cancelTimers()
	e.orch.Reset()
	if e.state == StateActive {
		e.sess.reset(nil)
		e.state = StateIdle
	}
	e.applyPendingTuning()
}

func (e *Engine) cancelTimers() {
	e.tick = clock.Stop(e.tick)
	e.stageTimer = clock.Stop(e.stageTimer)
	e.handoff = clock.Stop(e.handoff)
	e.handoffFn = nil
}

// Purchase buys an upgrade from the catalog. Upgrades cannot be bought
// mid-mission or while an outcome is on display.
func (e *Engine) Purchase(id UpgradeID) error {
	if e.busy() {
		return ErrMissionInProgress
	}
	u, ok := e.cat.Upgrade(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownUpgrade, id)
	}
	if err := e.profile.Purchase(u); err != nil {
		return fmt.Errorf("%s: %w", u.Name, err)
	}
	e.audio.Play(CuePurchase)
	e.console("SYSTEM", fmt.Sprintf("Upgrade installed: %s.", u.Name), SeveritySuccess)
	e.emit(Event{Kind: EventUpgradePurchased, Title: u.Name, Text: string(u.ID), Value: u.Cost})
	e.emit(Event{Kind: EventCredits, Value: e.profile.Credits})
	return nil
}
