package game

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"BreachProtocol/internal/clock"
	"BreachProtocol/internal/dag"
)

// SimConfig drives an autopilot campaign on a virtual clock.
type SimConfig struct {
	Catalog     *Catalog
	Tuning      *Tuning
	Seed        int64
	FailChance  float64 // chance the autopilot botches a puzzle attempt
	MaxMissions int
	BuyUpgrades bool
	Logger      *zap.Logger
	View        View
}

// SimMission is one mission attempt in a simulation.
type SimMission struct {
	Node       string  `json:"node"`
	Outcome    Outcome `json:"outcome"`
	Credits    float64 `json:"credits"`
	Trace      float64 `json:"trace"`
	Difficulty float64 `json:"difficulty"`
	Retries    int     `json:"retries"`
}

// SimReport is the outcome of Simulate.
type SimReport struct {
	Missions []SimMission  `json:"missions"`
	Final    Status        `json:"final"`
	Elapsed  time.Duration `json:"elapsed"`
}

// maxMissionTicks guards against a mission that never resolves.
const maxMissionTicks = 100000

// Simulate plays the campaign with an autopilot until the run ends or
// MaxMissions attempts have been made.
func Simulate(ctx context.Context, cfg SimConfig) (SimReport, error) {
	cat := cfg.Catalog
	if cat == nil {
		var err error
		if cat, err = DefaultCatalog(); err != nil {
			return SimReport{}, err
		}
	}
	if cfg.MaxMissions <= 0 {
		cfg.MaxMissions = 50
	}
	tuning := DefaultTuning()
	if cfg.Tuning != nil {
		tuning = SanitizeTuning(*cfg.Tuning)
	}
	tuning.AutoSave = false

	clk := clock.NewVirtual()
	rng := rand.New(rand.NewSource(cfg.Seed))
	pilotRng := rand.New(rand.NewSource(cfg.Seed + 1))

	var outcome Outcome
	track := ViewFunc(func(ev Event) {
		switch ev.Kind {
		case EventMissionResolved:
			outcome = ev.Outcome
		case EventGameOver:
			outcome = ev.Outcome
		}
	})
	e, err := NewEngine(Deps{
		Catalog:   cat,
		Scheduler: clk,
		Rand:      rng,
		View:      MultiView{track, cfg.View},
		Tuning:    &tuning,
		Logger:    cfg.Logger,
		AgentName: "autopilot",
	})
	if err != nil {
		return SimReport{}, err
	}

	var report SimReport
	for len(report.Missions) < cfg.MaxMissions {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if cfg.BuyUpgrades {
			e.buyAffordable()
		}
		target := e.nextTarget()
		if target == "" {
			break
		}
		if err := e.Start(target); err != nil {
			return report, err
		}
		outcome = ""
		p := autopilot{e: e, rng: pilotRng, failChance: cfg.FailChance, seen: -1}
		for ticks := 0; e.state == StateActive; ticks++ {
			if ticks > maxMissionTicks {
				return report, errors.New("game: simulated mission did not resolve")
			}
			p.act()
			clk.Advance(tuning.TickInterval)
		}
		trace := e.sess.Trace
		// Let the outcome hand-off run.
		clk.Advance(tuning.ReturnDelay + tuning.TickInterval)

		report.Missions = append(report.Missions, SimMission{
			Node:       target,
			Outcome:    outcome,
			Credits:    e.profile.Credits,
			Trace:      trace,
			Difficulty: e.dda.Modifier(),
			Retries:    p.retries,
		})
		if e.state == StateGameOver || e.state == StateGameComplete {
			break
		}
	}
	report.Final = e.Status()
	report.Elapsed = clk.Now()
	return report, nil
}

// nextTarget picks the first open node that has not fallen yet, in
// prerequisite order, or replays the most advanced completed node.
func (e *Engine) nextTarget() string {
	order := e.cat.Graph().TopoOrder
	for _, id := range order {
		if !e.progress.IsLocked(id) && !e.progress.IsCompleted(id) {
			return string(id)
		}
	}
	for i := len(order) - 1; i >= 0; i-- {
		if e.progress.GetStatus(order[i]) == dag.StatusCompleted {
			return string(order[i])
		}
	}
	return ""
}

// buyAffordable buys every upgrade the agent can pay for, cheapest first.
func (e *Engine) buyAffordable() {
	ups := append([]Upgrade(nil), e.cat.Upgrades...)
	sort.SliceStable(ups, func(i, j int) bool { return ups[i].Cost < ups[j].Cost })
	for _, u := range ups {
		if !e.profile.Upgrades.Has(u.ID) && e.profile.Credits >= u.Cost {
			_ = e.Purchase(u.ID)
		}
	}
}

type autopilot struct {
	e          *Engine
	rng        *rand.Rand
	failChance float64
	seen       int
	botch      bool
	retries    int
}

// act makes at most one move per tick.
func (p *autopilot) act() {
	e := p.e
	o := e.orch
	if !o.IsActive() {
		if e.sess.BossFight {
			return
		}
		if !e.sess.FirewallBypassed {
			_ = e.TriggerObjective(ObjectiveFirewall)
		} else if !e.sess.DataExtracted {
			_ = e.TriggerObjective(ObjectiveData)
		}
		return
	}
	if o.current == nil || o.resolving {
		return
	}
	if !o.current.Accepting() {
		// Failed attempt; the puzzle keeps blocking until retried.
		if o.Retry() == nil {
			p.retries++
		}
		return
	}
	if o.Generation() != p.seen {
		p.seen = o.Generation()
		p.botch = p.rng.Float64() < p.failChance
	}

	switch o.current.Type() {
	case PuzzleSequence:
		target := o.sequence.Target()
		for i := 0; i < len(target); i++ {
			sym := target[i]
			if p.botch && i == len(target)-1 {
				sym = wrongSymbol(sym)
			}
			_ = o.SelectSymbol(i, string(sym))
		}
	case PuzzleTimedInput:
		if !p.botch {
			_ = o.TypeInput(o.timed.Target())
		}
	case PuzzlePathfinding:
		// A path cannot be failed, only finished.
		for _, c := range o.path.Solution() {
			if o.StepPath(c) != nil {
				break
			}
		}
	}
}

func wrongSymbol(b byte) byte {
	for i := 0; i < len(SequenceAlphabet); i++ {
		if SequenceAlphabet[i] != b {
			return SequenceAlphabet[i]
		}
	}
	return b
}
