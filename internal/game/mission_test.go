package game

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BreachProtocol/internal/clock"
	"BreachProtocol/internal/dag"
)

type recorder struct {
	events []Event
	cues   []Cue
}

func (r *recorder) Emit(e Event) { r.events = append(r.events, e) }
func (r *recorder) Play(c Cue)   { r.cues = append(r.cues, c) }

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) last(kind EventKind) (Event, bool) {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return Event{}, false
}

type harness struct {
	e     *Engine
	clk   *clock.Virtual
	rec   *recorder
	store *MemoryPersistence
}

func newHarness(t *testing.T, seed int64) *harness {
	t.Helper()
	cat, err := DefaultCatalog()
	require.NoError(t, err)
	h := &harness{clk: clock.NewVirtual(), rec: &recorder{}, store: NewMemoryPersistence()}
	h.e, err = NewEngine(Deps{
		Catalog:     cat,
		Scheduler:   h.clk,
		Rand:        rand.New(rand.NewSource(seed)),
		View:        h.rec,
		Audio:       h.rec,
		Persistence: h.store,
		AgentName:   "cipher",
	})
	require.NoError(t, err)
	return h
}

func (h *harness) unlock(id string) {
	h.e.progress.SetStatus(dag.NodeID(id), dag.StatusAvailable)
}

// solve answers the active puzzle correctly.
func (h *harness) solve(t *testing.T) {
	t.Helper()
	o := h.e.orch
	require.NotNil(t, o.current, "no puzzle to solve")
	switch o.current.Type() {
	case PuzzleSequence:
		target := o.sequence.Target()
		for i := 0; i < len(target); i++ {
			require.NoError(t, h.e.SelectSymbol(i, string(target[i])))
		}
	case PuzzlePathfinding:
		for _, c := range o.path.Solution() {
			require.NoError(t, h.e.StepPath(c))
		}
	case PuzzleTimedInput:
		require.NoError(t, h.e.TypeInput(o.timed.Target()))
	}
}

// runUntilResolved ticks until the mission leaves the active state and
// returns the trace seen just before the resolving tick.
func (h *harness) runUntilResolved(t *testing.T) float64 {
	t.Helper()
	var before float64
	for i := 0; i < 10000 && h.e.State() == StateActive; i++ {
		before = h.e.sess.Trace
		h.clk.Advance(TickInterval)
	}
	require.NotEqual(t, StateActive, h.e.State(), "mission never resolved")
	return before
}

// win plays a regular node to a successful resolution and the hand-off.
func (h *harness) win(t *testing.T, id string) {
	t.Helper()
	h.succeed(t, id)
	h.clk.Advance(ReturnDelay)
}

// succeed plays a regular node to a successful resolution and leaves the
// hand-off pending.
func (h *harness) succeed(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, h.e.Start(id))
	require.NoError(t, h.e.TriggerObjective(ObjectiveFirewall))
	h.solve(t)
	h.clk.Advance(FeedbackDelay)
	require.True(t, h.e.sess.FirewallBypassed)
	require.NoError(t, h.e.TriggerObjective(ObjectiveData))
	h.solve(t)
	h.clk.Advance(FeedbackDelay)
	require.True(t, h.e.sess.DataExtracted)
	h.runUntilResolved(t)
	require.Equal(t, StateSucceeded, h.e.State())
}

// beatBoss clears every boss stage and resolves the mission, leaving the
// hand-off pending.
func (h *harness) beatBoss(t *testing.T) {
	t.Helper()
	h.unlock("nexus-core")
	require.NoError(t, h.e.Start("nexus-core"))
	for stage := 0; stage < 3; stage++ {
		h.solve(t)
		h.clk.Advance(FeedbackDelay)
		if stage < 2 {
			h.clk.Advance(BossStageDelay)
		}
	}
	h.runUntilResolved(t)
	require.Equal(t, StateSucceeded, h.e.State())
}

func nodeView(t *testing.T, e *Engine, id string) NodeView {
	t.Helper()
	for _, n := range e.Nodes() {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("node %s not listed", id)
	return NodeView{}
}

func TestSuccessfulMissionRewardsAndUnlocks(t *testing.T) {
	h := newHarness(t, 1)
	require.NoError(t, h.e.Start("surveillance-grid"))
	require.NoError(t, h.e.TriggerObjective(ObjectiveFirewall))
	h.solve(t)
	h.clk.Advance(FeedbackDelay)
	require.NoError(t, h.e.TriggerObjective(ObjectiveData))
	h.solve(t)
	h.clk.Advance(FeedbackDelay)

	assert.Equal(t, 2*PuzzleSuccessScore, h.e.sess.Score)
	params := AdjustParameters(h.e.Difficulty(), TierVeryEasy, nil)
	want := math.Floor(50*params.RewardModifier + 100)

	h.runUntilResolved(t)
	require.Equal(t, StateSucceeded, h.e.State())
	assert.Equal(t, StartingCredits+want, h.e.Profile().Credits)
	assert.True(t, nodeView(t, h.e, "surveillance-grid").IsCompleted)
	assert.False(t, nodeView(t, h.e, "data-archive").IsLocked)
	assert.False(t, nodeView(t, h.e, "black-market-server").IsLocked)
	assert.True(t, nodeView(t, h.e, "financial-hub").IsLocked)

	hist := h.e.dda.History()
	assert.Equal(t, 1, hist.MissionsCompleted)
	assert.Equal(t, want, hist.TotalCreditsEarned)

	_, status, err := h.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LoadOK, status, "success should auto-save")

	assert.Zero(t, h.rec.count(EventNodeUnlocked), "unlocks are announced after the hand-off delay")
	h.clk.Advance(ReturnDelay)
	assert.Equal(t, 2, h.rec.count(EventNodeUnlocked))
	back, ok := h.rec.last(EventReturnToBase)
	require.True(t, ok)
	assert.Equal(t, OutcomeSuccess, back.Outcome)
	assert.Equal(t, `Mission "Surveillance Grid" COMPLETED.`, back.Text)
}

func TestFailedMissionPenalty(t *testing.T) {
	h := newHarness(t, 2)
	require.NoError(t, h.e.Start("surveillance-grid"))
	before := h.runUntilResolved(t)

	require.Equal(t, StateFailed, h.e.State())
	assert.Equal(t, StartingCredits-MissionFailCredits, h.e.Profile().Credits)
	assert.InDelta(t, math.Min(MaxTrace, before+MissionFailTrace), h.e.sess.Trace, 1e-9)
	assert.False(t, nodeView(t, h.e, "surveillance-grid").IsCompleted)
	assert.Equal(t, 1, h.e.dda.History().MissionsFailed)
	assert.InDelta(t, 0.95, h.e.Difficulty(), 1e-9)

	ev, ok := h.rec.last(EventMissionResolved)
	require.True(t, ok)
	assert.Equal(t, OutcomeFailure, ev.Outcome)
	assert.Contains(t, h.rec.cues, CueMissionFail)
}

func TestFailedMissionCreditsFloorAtZero(t *testing.T) {
	h := newHarness(t, 3)
	h.e.profile.Credits = 100
	require.NoError(t, h.e.Start("surveillance-grid"))
	h.runUntilResolved(t)

	assert.Equal(t, 0.0, h.e.Profile().Credits)
	// The history records the full penalty, not what could be taken.
	assert.Equal(t, MissionFailCredits, h.e.dda.History().TotalCreditsLost)
}

func TestAbortBossMidPuzzle(t *testing.T) {
	h := newHarness(t, 4)
	h.unlock("nexus-core")
	require.NoError(t, h.e.Start("nexus-core"))
	require.True(t, h.e.orch.IsActive(), "boss stage one opens on start")
	require.NotNil(t, h.e.Puzzle())
	assert.Equal(t, 3, h.e.Puzzle().StageCount)
	h.clk.Advance(500 * time.Millisecond)

	require.NoError(t, h.e.Abort())
	assert.Equal(t, StateAborted, h.e.State())
	assert.Equal(t, StartingCredits-BossAbortCredits, h.e.Profile().Credits)
	assert.Equal(t, BossAbortTrace, h.e.sess.Trace)
	assert.False(t, h.e.orch.IsActive())
	assert.False(t, h.e.Session().PuzzleActive)
	assert.Nil(t, h.e.Puzzle())
	assert.False(t, nodeView(t, h.e, "nexus-core").IsCompleted)

	hist := h.e.dda.History()
	assert.Zero(t, hist.MissionsFailed)
	assert.Equal(t, BossAbortCredits, hist.TotalCreditsLost)

	// Only the hand-off should remain scheduled.
	assert.Equal(t, 1, h.clk.Pending())
	h.clk.Advance(ReturnDelay)
	back, ok := h.rec.last(EventReturnToBase)
	require.True(t, ok)
	assert.Equal(t, "Mission aborted. Re-evaluate strategy.", back.Text)
	assert.Zero(t, h.clk.Pending())

	assert.ErrorIs(t, h.e.Abort(), ErrNoActiveMission)
}

func TestAbortRegularNode(t *testing.T) {
	h := newHarness(t, 5)
	require.NoError(t, h.e.Start("surveillance-grid"))
	h.clk.Advance(time.Second)
	require.NoError(t, h.e.Abort())
	assert.Equal(t, StartingCredits-AbortCredits, h.e.Profile().Credits)
}

func TestTraceWarningsFireOnce(t *testing.T) {
	h := newHarness(t, 6)
	require.NoError(t, h.e.Start("surveillance-grid"))

	warnings := func(level float64) int {
		n := 0
		for _, e := range h.rec.events {
			if e.Kind == EventWarning && e.Value == level {
				n++
			}
		}
		return n
	}

	h.e.sess.Trace = 69.99
	h.clk.Advance(TickInterval)
	require.GreaterOrEqual(t, h.e.sess.Trace, TraceWarnHigh)
	assert.Equal(t, 1, warnings(TraceWarnHigh))

	for _, tr := range []float64{60, 75, 65, 80} {
		h.e.sess.Trace = tr
		h.clk.Advance(TickInterval)
	}
	assert.Equal(t, 1, warnings(TraceWarnHigh))
	assert.Zero(t, warnings(TraceWarnCritical))

	h.e.sess.Trace = 91
	h.clk.Advance(TickInterval)
	h.e.sess.Trace = 95
	h.clk.Advance(TickInterval)
	assert.Equal(t, 1, warnings(TraceWarnCritical))
	assert.Equal(t, 1, warnings(TraceWarnHigh))
}

func TestWarningsReArmPerMission(t *testing.T) {
	h := newHarness(t, 7)
	for i := 0; i < 2; i++ {
		require.NoError(t, h.e.Start("surveillance-grid"))
		h.e.sess.Trace = 71
		h.clk.Advance(TickInterval)
		require.NoError(t, h.e.Abort())
		h.clk.Advance(ReturnDelay)
	}
	n := 0
	for _, e := range h.rec.events {
		if e.Kind == EventWarning && e.Value == TraceWarnHigh {
			n++
		}
	}
	assert.Equal(t, 2, n)
}

func TestProgressFrozenWhilePuzzleActive(t *testing.T) {
	h := newHarness(t, 8)
	require.NoError(t, h.e.Start("surveillance-grid"))
	h.clk.Advance(time.Second)
	require.NoError(t, h.e.TriggerObjective(ObjectiveFirewall))
	progress, trace := h.e.sess.Progress, h.e.sess.Trace

	h.clk.Advance(3 * time.Second)
	assert.Equal(t, progress, h.e.sess.Progress)
	assert.Equal(t, trace, h.e.sess.Trace)

	h.solve(t)
	h.clk.Advance(FeedbackDelay - TickInterval)
	assert.Equal(t, progress, h.e.sess.Progress, "still blocked during the success banner")
	h.clk.Advance(2 * TickInterval)
	assert.Greater(t, h.e.sess.Progress, progress)
}

func TestPuzzleFailureBlocksUntilRetry(t *testing.T) {
	h := newHarness(t, 9)
	require.NoError(t, h.e.Start("surveillance-grid"))
	require.NoError(t, h.e.TriggerObjective(ObjectiveFirewall))
	target := h.e.orch.sequence.Target()
	gen := h.e.orch.Generation()

	for i := 0; i < len(target)-1; i++ {
		require.NoError(t, h.e.SelectSymbol(i, string(target[i])))
	}
	last := len(target) - 1
	require.NoError(t, h.e.SelectSymbol(last, string(wrongSymbol(target[last]))))

	assert.Equal(t, PuzzleFailTrace, h.e.sess.Trace)
	assert.True(t, h.e.orch.IsActive(), "failure leaves the puzzle blocking")
	assert.False(t, h.e.sess.FirewallBypassed)
	assert.Equal(t, 1, h.e.dda.History().PuzzleFailures)
	assert.ErrorIs(t, h.e.SelectSymbol(0, "0"), ErrNoActivePuzzle)

	require.NoError(t, h.e.Retry())
	assert.Equal(t, gen+1, h.e.orch.Generation())
	h.solve(t)
	h.clk.Advance(FeedbackDelay)
	assert.True(t, h.e.sess.FirewallBypassed)
	assert.False(t, h.e.orch.IsActive())
}

func TestObjectiveGating(t *testing.T) {
	h := newHarness(t, 10)
	assert.ErrorIs(t, h.e.TriggerObjective(ObjectiveFirewall), ErrNoActiveMission)
	assert.ErrorIs(t, h.e.Start("nexus-core"), ErrNodeLocked)
	assert.ErrorIs(t, h.e.Start("nowhere"), ErrUnknownNode)

	require.NoError(t, h.e.Start("surveillance-grid"))
	assert.ErrorIs(t, h.e.Start("surveillance-grid"), ErrMissionInProgress)
	assert.ErrorIs(t, h.e.TriggerObjective(ObjectiveData), ErrObjectiveUnavailable)
	require.NoError(t, h.e.TriggerObjective(ObjectiveFirewall))
	assert.ErrorIs(t, h.e.TriggerObjective(ObjectiveFirewall), ErrObjectiveUnavailable)
	assert.ErrorIs(t, h.e.StepPath(Cell{}), ErrWrongPuzzle)
	assert.ErrorIs(t, h.e.Purchase(UpgradeIceBreaker), ErrMissionInProgress)
}

func TestIntelRecordedOnce(t *testing.T) {
	h := newHarness(t, 11)
	h.win(t, "surveillance-grid")
	h.win(t, "surveillance-grid")

	intel := h.e.Profile().Intel
	require.Len(t, intel, 1)
	assert.Equal(t, "surveillance-grid", intel[0].ID)
	assert.Equal(t, "Surveillance Grid", intel[0].Source)
	assert.Equal(t, 1, h.rec.count(EventIntel))
	assert.Equal(t, 2, h.e.dda.History().MissionsCompleted)
	assert.True(t, nodeView(t, h.e, "surveillance-grid").IsCompleted)
}

func TestBossFightToVictory(t *testing.T) {
	h := newHarness(t, 12)
	h.unlock("nexus-core")
	require.NoError(t, h.e.Start("nexus-core"))
	assert.ErrorIs(t, h.e.TriggerObjective(ObjectiveFirewall), ErrObjectiveUnavailable)

	for stage := 0; stage < 3; stage++ {
		require.Equal(t, stage, h.e.sess.BossStageIndex)
		view := h.e.Puzzle()
		require.NotNil(t, view, "stage %d not open", stage)
		assert.Equal(t, stage, view.Stage)
		h.solve(t)
		h.clk.Advance(FeedbackDelay)
		if stage < 2 {
			assert.True(t, h.e.orch.IsActive(), "boss keeps blocking between stages")
			assert.False(t, h.e.sess.FirewallBypassed)
			h.clk.Advance(BossStageDelay)
		}
	}
	assert.True(t, h.e.sess.FirewallBypassed)
	assert.True(t, h.e.sess.DataExtracted)
	assert.False(t, h.e.orch.IsActive())

	h.runUntilResolved(t)
	require.Equal(t, StateSucceeded, h.e.State())
	assert.True(t, nodeView(t, h.e, "nexus-core").IsCompleted)
	h.clk.Advance(ReturnDelay)
	assert.Equal(t, StateGameComplete, h.e.State())
	assert.Equal(t, 1, h.rec.count(EventGameComplete))
	assert.Contains(t, h.rec.cues, CueGameWin)
	assert.ErrorIs(t, h.e.Start("surveillance-grid"), ErrRunOver)
}

func TestBossTickResumesAfterFinalStage(t *testing.T) {
	h := newHarness(t, 13)
	h.unlock("nexus-core")
	require.NoError(t, h.e.Start("nexus-core"))
	for stage := 0; stage < 3; stage++ {
		h.solve(t)
		h.clk.Advance(FeedbackDelay)
		if stage < 2 {
			h.clk.Advance(BossStageDelay)
		}
	}
	progress := h.e.sess.Progress
	h.clk.Advance(TickInterval)
	assert.Greater(t, h.e.sess.Progress, progress, "tick resumes once every stage is done")
}

func TestTraceOverflowEndsRun(t *testing.T) {
	h := newHarness(t, 14)
	require.NoError(t, h.e.Start("surveillance-grid"))
	require.NoError(t, h.e.TriggerObjective(ObjectiveFirewall))
	h.e.sess.Trace = MaxTrace
	h.clk.Advance(TickInterval)

	assert.Equal(t, StateGameOver, h.e.State())
	assert.Equal(t, 1, h.rec.count(EventGameOver))
	assert.False(t, h.e.orch.IsActive())
	assert.Zero(t, h.clk.Pending())
	assert.ErrorIs(t, h.e.Start("surveillance-grid"), ErrRunOver)

	require.NoError(t, h.e.ResetGame(context.Background()))
	assert.Equal(t, StateIdle, h.e.State())
	require.NoError(t, h.e.Start("surveillance-grid"))
}

func TestHandoffBlocksNextMission(t *testing.T) {
	h := newHarness(t, 15)
	require.NoError(t, h.e.Start("surveillance-grid"))
	require.NoError(t, h.e.Abort())

	assert.ErrorIs(t, h.e.Start("surveillance-grid"), ErrMissionInProgress)
	assert.ErrorIs(t, h.e.Purchase(UpgradeIceBreaker), ErrMissionInProgress)
	_, err := h.e.Load(context.Background())
	assert.ErrorIs(t, err, ErrMissionInProgress)
	assert.Zero(t, h.rec.count(EventReturnToBase))

	h.clk.Advance(ReturnDelay)
	assert.Equal(t, 1, h.rec.count(EventReturnToBase))
	require.NoError(t, h.e.Start("surveillance-grid"))
	h.clk.Advance(ReturnDelay + TickInterval)
	assert.Equal(t, 1, h.rec.count(EventReturnToBase))
	assert.Equal(t, StateActive, h.e.State())
}

func TestBossVictorySurvivesEarlyStart(t *testing.T) {
	h := newHarness(t, 21)
	h.beatBoss(t)

	assert.ErrorIs(t, h.e.Start("surveillance-grid"), ErrMissionInProgress)
	assert.Zero(t, h.rec.count(EventGameComplete))

	h.clk.Advance(ReturnDelay)
	assert.Equal(t, StateGameComplete, h.e.State())
	assert.Equal(t, 1, h.rec.count(EventGameComplete))
	assert.ErrorIs(t, h.e.Start("surveillance-grid"), ErrRunOver)
}

func TestUnlocksAnnouncedBeforeNextMission(t *testing.T) {
	h := newHarness(t, 22)
	h.succeed(t, "surveillance-grid")
	require.False(t, nodeView(t, h.e, "data-archive").IsLocked)

	assert.ErrorIs(t, h.e.Start("data-archive"), ErrMissionInProgress)
	assert.Zero(t, h.rec.count(EventNodeUnlocked))

	h.clk.Advance(ReturnDelay)
	assert.Equal(t, 2, h.rec.count(EventNodeUnlocked))
	assert.Equal(t, 1, h.rec.count(EventReturnToBase))
	require.NoError(t, h.e.Start("data-archive"))
}

func TestSuspendFlushesHandoff(t *testing.T) {
	h := newHarness(t, 23)
	h.succeed(t, "surveillance-grid")
	h.e.Suspend()
	assert.Equal(t, 2, h.rec.count(EventNodeUnlocked))
	assert.Equal(t, 1, h.rec.count(EventReturnToBase))
	assert.Zero(t, h.clk.Pending())

	h.beatBoss(t)
	h.e.Suspend()
	assert.Equal(t, StateGameComplete, h.e.State())
	assert.Equal(t, 1, h.rec.count(EventGameComplete))
	assert.Zero(t, h.clk.Pending())
}

func TestTuningHeldUntilHandoff(t *testing.T) {
	h := newHarness(t, 24)
	warnings := func(level float64) int {
		n := 0
		for _, e := range h.rec.events {
			if e.Kind == EventWarning && e.Value == level {
				n++
			}
		}
		return n
	}
	tuning := DefaultTuning()
	tuning.WarnHigh = 50

	require.NoError(t, h.e.Start("surveillance-grid"))
	h.e.SetTuning(tuning)
	h.e.sess.Trace = 55
	h.clk.Advance(TickInterval)
	assert.Zero(t, warnings(50), "running mission keeps its thresholds")
	assert.Equal(t, TraceWarnHigh, h.e.tuning.WarnHigh)

	require.NoError(t, h.e.Abort())
	assert.Equal(t, TraceWarnHigh, h.e.tuning.WarnHigh, "hand-off still on display")
	h.clk.Advance(ReturnDelay)
	assert.Equal(t, 50.0, h.e.tuning.WarnHigh)

	require.NoError(t, h.e.Start("surveillance-grid"))
	h.e.sess.Trace = 55
	h.clk.Advance(TickInterval)
	assert.Equal(t, 1, warnings(50))
}

func TestPurchaseUpgrades(t *testing.T) {
	h := newHarness(t, 16)
	require.NoError(t, h.e.Purchase(UpgradeIceBreaker))
	assert.Equal(t, StartingCredits-400, h.e.Profile().Credits)
	assert.ErrorIs(t, h.e.Purchase(UpgradeIceBreaker), ErrUpgradeOwned)
	assert.ErrorIs(t, h.e.Purchase(UpgradeSequenceDecryptor), ErrInsufficientCredits)
	assert.ErrorIs(t, h.e.Purchase("quantumTunnel"), ErrUnknownUpgrade)
	assert.Equal(t, []UpgradeID{UpgradeIceBreaker}, h.e.Profile().Upgrades)
	assert.Equal(t, 1, h.rec.count(EventUpgradePurchased))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	h := newHarness(t, 17)
	h.win(t, "surveillance-grid")
	require.NoError(t, h.e.Purchase(UpgradeCreditScrubber))
	require.NoError(t, h.e.Save(context.Background()))

	other := newHarness(t, 99)
	other.store = h.store
	other.e.store = h.store
	status, err := other.e.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, LoadOK, status)

	assert.Equal(t, h.e.Profile(), other.e.Profile())
	assert.Equal(t, h.e.Nodes(), other.e.Nodes())
	assert.Equal(t, h.e.dda.History(), other.e.dda.History())
	// The modifier is rebuilt from the counters in one pass.
	fresh := NewDifficultyController(nil)
	fresh.SetHistory(h.e.dda.History())
	assert.Equal(t, fresh.Modifier(), other.e.Difficulty())
	require.NoError(t, other.e.Start("data-archive"))
}

func TestLoadCorruptResets(t *testing.T) {
	h := newHarness(t, 18)
	h.win(t, "surveillance-grid")
	h.store.SetRaw([]byte(`{"credits":"lots"}`))

	status, err := h.e.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LoadCorrupted, status)
	assert.Equal(t, StartingCredits, h.e.Profile().Credits)
	assert.True(t, nodeView(t, h.e, "data-archive").IsLocked)
	assert.Empty(t, h.e.Profile().Intel)
	assert.Equal(t, 1, h.rec.count(EventGameReset))

	_, after, err := h.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LoadNone, after, "corrupt save should be cleared")
}

func TestLoadNothingSaved(t *testing.T) {
	h := newHarness(t, 19)
	status, err := h.e.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LoadNone, status)

	require.NoError(t, h.e.Start("surveillance-grid"))
	_, err = h.e.Load(context.Background())
	assert.ErrorIs(t, err, ErrMissionInProgress)
}

func TestNewEngineRequiresCollaborators(t *testing.T) {
	_, err := NewEngine(Deps{Scheduler: clock.NewVirtual()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	cat, err := DefaultCatalog()
	require.NoError(t, err)
	_, err = NewEngine(Deps{Catalog: cat})
	assert.Error(t, err)

	e, err := NewEngine(Deps{Catalog: cat, Scheduler: clock.NewVirtual()})
	require.NoError(t, err)
	assert.ErrorIs(t, e.Save(context.Background()), ErrNoPersistence)
}

func TestSuspendDropsMissionQuietly(t *testing.T) {
	h := newHarness(t, 20)
	require.NoError(t, h.e.Start("surveillance-grid"))
	require.NoError(t, h.e.TriggerObjective(ObjectiveFirewall))
	h.e.Suspend()

	assert.Equal(t, StateIdle, h.e.State())
	assert.Zero(t, h.clk.Pending())
	assert.Equal(t, StartingCredits, h.e.Profile().Credits)
	assert.Zero(t, h.e.dda.History().MissionsFailed)
}
