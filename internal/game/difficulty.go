package game

import (
	"math"

	"go.uber.org/zap"
)

// PerformanceKind is a tracked player outcome.
type PerformanceKind string

const (
	PerfPuzzleSuccess   PerformanceKind = "puzzleSuccess"
	PerfPuzzleFail      PerformanceKind = "puzzleFail"
	PerfMissionComplete PerformanceKind = "missionComplete"
	PerfMissionFail     PerformanceKind = "missionFail"
	PerfAbort           PerformanceKind = "abort"
)

// PerformancePayload carries the deltas attached to an outcome.
type PerformancePayload struct {
	TraceGained   float64
	CreditsEarned float64
	CreditsLost   float64
}

// PerformanceHistory is the cumulative record feeding difficulty adjustment.
type PerformanceHistory struct {
	PuzzleSuccesses    int     `json:"puzzleSuccesses" validate:"gte=0"`
	PuzzleFailures     int     `json:"puzzleFailures" validate:"gte=0"`
	MissionsCompleted  int     `json:"missionsCompleted" validate:"gte=0"`
	MissionsFailed     int     `json:"missionsFailed" validate:"gte=0"`
	TotalTraceGained   float64 `json:"totalTraceGained" validate:"gte=0"`
	TotalCreditsEarned float64 `json:"totalCreditsEarned" validate:"gte=0"`
	TotalCreditsLost   float64 `json:"totalCreditsLost" validate:"gte=0"`
}

// UpgradeSet is the set of owned upgrades.
type UpgradeSet map[UpgradeID]bool

// Has reports whether id is owned.
func (u UpgradeSet) Has(id UpgradeID) bool { return u[id] }

// AdjustedParams are the four multipliers derived from the difficulty
// modifier, the node tier and owned upgrades.
type AdjustedParams struct {
	TraceIncreaseRate    float64 `json:"traceIncreaseRate"`
	PuzzleLengthModifier float64 `json:"puzzleLengthModifier"`
	RewardModifier       float64 `json:"rewardModifier"`
	PenaltyModifier      float64 `json:"penaltyModifier"`
}

// TierCoefficient scales trace growth per tier. Unknown tiers read as
// medium.
func TierCoefficient(t Tier) float64 {
	switch t {
	case TierVeryEasy:
		return 0.6
	case TierEasy:
		return 0.8
	case TierHard:
		return 1.2
	default:
		return 1.0
	}
}

// LengthCoefficient scales puzzle length per tier. It is flatter than the
// trace table so easy nodes still ask for a few symbols.
func LengthCoefficient(t Tier) float64 {
	switch t {
	case TierVeryEasy:
		return 0.8
	case TierEasy:
		return 0.9
	case TierHard:
		return 1.1
	default:
		return 1.0
	}
}

// AdjustParameters is the pure composition of modifier, tier and upgrades.
func AdjustParameters(modifier float64, tier Tier, upgrades UpgradeSet) AdjustedParams {
	modifier = clamp(modifier, MinDifficulty, MaxDifficulty)
	p := AdjustedParams{
		TraceIncreaseRate:    modifier * TierCoefficient(tier),
		PuzzleLengthModifier: modifier * LengthCoefficient(tier),
		RewardModifier:       1 / modifier,
		PenaltyModifier:      modifier,
	}
	if upgrades.Has(UpgradeIceBreaker) {
		p.TraceIncreaseRate *= IceBreakerTrace
	}
	if upgrades.Has(UpgradeCreditScrubber) {
		p.RewardModifier *= ScrubberReward
	}
	return p
}

// EffectiveLength applies the length modifier to a base puzzle length. The
// result is never below 1.
func EffectiveLength(base int, p AdjustedParams, pt PuzzleType, upgrades UpgradeSet) int {
	n := int(math.Round(float64(base) * p.PuzzleLengthModifier))
	if n < 1 {
		n = 1
	}
	if pt == PuzzleSequence && upgrades.Has(UpgradeSequenceDecryptor) {
		n -= DecryptorShortcut
		if n < 1 {
			n = 1
		}
	}
	return n
}

// DifficultyController turns performance history into a modifier in
// [MinDifficulty, MaxDifficulty].
type DifficultyController struct {
	history  PerformanceHistory
	modifier float64
	log      *zap.Logger
}

// NewDifficultyController returns a controller at the neutral modifier.
func NewDifficultyController(log *zap.Logger) *DifficultyController {
	if log == nil {
		log = zap.NewNop()
	}
	return &DifficultyController{modifier: 1.0, log: log}
}

// Modifier returns the current difficulty modifier.
func (d *DifficultyController) Modifier() float64 { return d.modifier }

// RecordEvent folds an outcome into the history and recalculates.
func (d *DifficultyController) RecordEvent(kind PerformanceKind, payload PerformancePayload) {
	h := &d.history
	switch kind {
	case PerfPuzzleSuccess:
		h.PuzzleSuccesses++
	case PerfPuzzleFail:
		h.PuzzleFailures++
		h.TotalTraceGained += payload.TraceGained
	case PerfMissionComplete:
		h.MissionsCompleted++
		h.TotalCreditsEarned += payload.CreditsEarned
	case PerfMissionFail:
		h.MissionsFailed++
		h.TotalCreditsLost += payload.CreditsLost
		h.TotalTraceGained += payload.TraceGained
	case PerfAbort:
		h.TotalCreditsLost += payload.CreditsLost
		h.TotalTraceGained += payload.TraceGained
	}
	d.Recalculate()
}

// Recalculate nudges the modifier from the two success rates. The nudge is
// proportional to how far a rate sits outside its band.
func (d *DifficultyController) Recalculate() {
	h := d.history
	puzzleRate := successRate(h.PuzzleSuccesses, h.PuzzleFailures)
	missionRate := successRate(h.MissionsCompleted, h.MissionsFailed)

	adj := bandAdjustment(puzzleRate, PuzzleUpperRate, PuzzleLowerRate) +
		bandAdjustment(missionRate, MissionUpperRate, MissionLowerRate)
	d.modifier = clamp(d.modifier+adj, MinDifficulty, MaxDifficulty)

	d.log.Debug("difficulty recalculated",
		zap.Float64("puzzle_rate", puzzleRate),
		zap.Float64("mission_rate", missionRate),
		zap.Float64("modifier", d.modifier))
}

func successRate(ok, bad int) float64 {
	total := ok + bad
	if total <= 0 {
		return NeutralRate
	}
	return float64(ok) / float64(total)
}

func bandAdjustment(rate, upper, lower float64) float64 {
	switch {
	case rate > upper:
		return DifficultyStep * (rate - upper) / (1 - upper)
	case rate < lower:
		return -DifficultyStep * (lower - rate) / lower
	}
	return 0
}

// AdjustedParameters returns the multipliers for a node tier at the current
// modifier.
func (d *DifficultyController) AdjustedParameters(tier Tier, upgrades UpgradeSet) AdjustedParams {
	return AdjustParameters(d.modifier, tier, upgrades)
}

// SetHistory replaces the history, as on load, and recalculates from the
// neutral modifier.
func (d *DifficultyController) SetHistory(h PerformanceHistory) {
	d.history = h
	d.modifier = 1.0
	d.Recalculate()
}

// History returns a copy of the counters.
func (d *DifficultyController) History() PerformanceHistory { return d.history }

// Reset clears the counters and the modifier.
func (d *DifficultyController) Reset() {
	d.history = PerformanceHistory{}
	d.modifier = 1.0
}
