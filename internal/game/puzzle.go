package game

import "errors"

var (
	// ErrNoActivePuzzle is returned when input arrives while no puzzle accepts it.
	ErrNoActivePuzzle = errors.New("game: no active puzzle")
	// ErrWrongPuzzle is returned when input targets a different variant.
	ErrWrongPuzzle = errors.New("game: input does not match active puzzle")
	// ErrInputRejected is returned for moves the active puzzle ignores.
	ErrInputRejected = errors.New("game: input rejected")
)

// Verdict is the single result a puzzle activation produces.
type Verdict struct {
	Correct bool
	Type    PuzzleType
}

// Puzzle is the contract every variant satisfies. A variant resolves at most
// once per Activate by calling the completion function it was built with.
type Puzzle interface {
	Type() PuzzleType
	// Activate discards any previous instance and generates a new one.
	Activate(length int)
	// Reset tears down timers and input handling and clears the instance.
	Reset()
	// Accepting reports whether the current instance still takes input.
	Accepting() bool
	// View describes the instance for rendering.
	View() PuzzleView
}

// Cell is a pathfinding grid coordinate.
type Cell struct {
	R int `json:"r"`
	C int `json:"c"`
}

// PuzzleView is the render-facing description of the active puzzle.
type PuzzleView struct {
	Type        PuzzleType `json:"type"`
	Instruction string     `json:"instruction,omitempty"`
	Objective   Objective  `json:"objective,omitempty"`
	Stage       int        `json:"stage"`
	StageCount  int        `json:"stageCount,omitempty"`
	StageName   string     `json:"stageName,omitempty"`
	Length      int        `json:"length"`

	// Sequence recall
	Revealed []string `json:"revealed,omitempty"`
	Entered  int      `json:"entered,omitempty"`

	// Pathfinding
	Rows      int    `json:"rows,omitempty"`
	Cols      int    `json:"cols,omitempty"`
	Obstacles []Cell `json:"obstacles,omitempty"`
	Start     *Cell  `json:"start,omitempty"`
	End       *Cell  `json:"end,omitempty"`
	Path      []Cell `json:"path,omitempty"`

	// Timed input
	Target   string  `json:"target,omitempty"`
	TimeLeft float64 `json:"timeLeft,omitempty"`
}
