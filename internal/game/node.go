package game

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig marks content defects in the static catalog. They are
// surfaced when the catalog loads and again when a mission starts.
var ErrInvalidConfig = errors.New("game: invalid configuration")

// PuzzleType names a puzzle variant.
type PuzzleType string

const (
	PuzzleSequence    PuzzleType = "sequence"
	PuzzlePathfinding PuzzleType = "pathfinding"
	PuzzleTimedInput  PuzzleType = "timed_input"
)

func (p PuzzleType) valid() bool {
	switch p {
	case PuzzleSequence, PuzzlePathfinding, PuzzleTimedInput:
		return true
	}
	return false
}

// Objective is one of the two regular tasks gating a node.
type Objective string

const (
	ObjectiveFirewall Objective = "firewall"
	ObjectiveData     Objective = "data"
)

// Tier is a node's static difficulty.
type Tier string

const (
	TierVeryEasy Tier = "very-easy"
	TierEasy     Tier = "easy"
	TierMedium   Tier = "medium"
	TierHard     Tier = "hard"
)

func (t Tier) valid() bool {
	switch t {
	case TierVeryEasy, TierEasy, TierMedium, TierHard:
		return true
	}
	return false
}

// BossStage is one ordered sub-puzzle of a boss node.
type BossStage struct {
	ObjectiveName string     `yaml:"objectiveName" json:"objectiveName" validate:"required"`
	PuzzleType    PuzzleType `yaml:"puzzleType" json:"puzzleType" validate:"required"`
	PuzzleLength  int        `yaml:"puzzleLength" json:"puzzleLength" validate:"gte=1"`
	Instruction   string     `yaml:"instruction" json:"instruction"`
}

// NetworkNode is a static mission target. Runtime lock and completion flags
// live in the agent's progression state, not here.
type NetworkNode struct {
	ID           string                   `yaml:"id" json:"id" validate:"required"`
	Name         string                   `yaml:"name" json:"name" validate:"required"`
	Description  string                   `yaml:"description" json:"description"`
	Difficulty   Tier                     `yaml:"difficulty" json:"difficulty" validate:"required"`
	BaseReward   float64                  `yaml:"baseReward" json:"baseReward" validate:"gte=0"`
	PuzzleTypes  map[Objective]PuzzleType `yaml:"puzzleTypes,omitempty" json:"puzzleTypes,omitempty"`
	PuzzleLength int                      `yaml:"puzzleLength,omitempty" json:"puzzleLength,omitempty"`
	Requires     []string                 `yaml:"requires,omitempty" json:"requires,omitempty"`
	IsBoss       bool                     `yaml:"isBoss,omitempty" json:"isBoss,omitempty"`
	BossStages   []BossStage              `yaml:"bossStages,omitempty" json:"bossStages,omitempty" validate:"dive"`
	IntelID      string                   `yaml:"intelId,omitempty" json:"intelId,omitempty"`
}

// Validate checks the shape of a node: boss nodes carry stages and
// no objectives, regular nodes carry exactly firewall and data.
func (n *NetworkNode) Validate() error {
	if n == nil {
		return fmt.Errorf("%w: node is nil", ErrInvalidConfig)
	}
	if err := validate.Struct(n); err != nil {
		return fmt.Errorf("%w: node %s: %v", ErrInvalidConfig, n.ID, err)
	}
	if !n.Difficulty.valid() {
		return fmt.Errorf("%w: node %s: unknown difficulty %q", ErrInvalidConfig, n.ID, n.Difficulty)
	}

	if n.IsBoss {
		if len(n.BossStages) == 0 {
			return fmt.Errorf("%w: boss node %s has no stages", ErrInvalidConfig, n.ID)
		}
		if len(n.PuzzleTypes) != 0 {
			return fmt.Errorf("%w: boss node %s must not define objectives", ErrInvalidConfig, n.ID)
		}
		for i, st := range n.BossStages {
			if !st.PuzzleType.valid() {
				return fmt.Errorf("%w: boss node %s stage %d: unknown puzzle type %q", ErrInvalidConfig, n.ID, i, st.PuzzleType)
			}
		}
		return nil
	}

	if len(n.BossStages) != 0 {
		return fmt.Errorf("%w: node %s has boss stages but is not a boss", ErrInvalidConfig, n.ID)
	}
	if len(n.PuzzleTypes) != 2 {
		return fmt.Errorf("%w: node %s needs exactly firewall and data objectives", ErrInvalidConfig, n.ID)
	}
	for _, obj := range []Objective{ObjectiveFirewall, ObjectiveData} {
		pt, ok := n.PuzzleTypes[obj]
		if !ok {
			return fmt.Errorf("%w: node %s missing %s objective", ErrInvalidConfig, n.ID, obj)
		}
		if !pt.valid() {
			return fmt.Errorf("%w: node %s %s: unknown puzzle type %q", ErrInvalidConfig, n.ID, obj, pt)
		}
	}
	if n.PuzzleLength < 1 {
		return fmt.Errorf("%w: node %s puzzle length %d", ErrInvalidConfig, n.ID, n.PuzzleLength)
	}
	return nil
}
