package game

import "time"

const (
	MaxProgress     = 100.0
	MaxTrace        = 100.0
	MinCredits      = 0.0
	StartingCredits = 500.0

	TickInterval      = 100 * time.Millisecond // mission loop step
	ProgressMin       = 0.5                    // per tick progress is ProgressMin + U(0, ProgressSpan)
	ProgressSpan      = 1.5
	BossProgressBonus = 0.5 // extra U(0, BossProgressBonus) per tick on boss nodes
	TraceMin          = 0.1 // per tick trace is (TraceMin + U(0, TraceSpan)) * traceIncreaseRate
	TraceSpan         = 0.8

	MissionFailCredits     = 150.0
	MissionFailTrace       = 40.0
	BossMissionFailCredits = 300.0
	BossMissionFailTrace   = 50.0
	AbortCredits           = 75.0
	AbortTrace             = 25.0
	BossAbortCredits       = 150.0
	BossAbortTrace         = 40.0

	TraceWarnHigh     = 70.0
	TraceWarnCritical = 90.0
	ReturnDelay       = 2000 * time.Millisecond // outcome display before control returns

	PuzzleSuccessScore  = 50.0
	PuzzleFailTrace     = 15.0
	BossPuzzleFailTrace = 25.0
	FeedbackDelay       = 1500 * time.Millisecond
	BossStageDelay      = 1500 * time.Millisecond

	SequenceRevealStep  = 750 * time.Millisecond
	SequenceAlphabet    = "01FAE7CB"
	TimedInputAlphabet  = "ABCDEF0123456789"
	TimedInputStart     = 100.0
	TimedInputDecrement = 1.5
	TimedInputInterval  = 100 * time.Millisecond

	GridRows             = 5
	GridCols             = 7
	GridObstacleAttempts = 7

	DifficultyStep    = 0.05
	MinDifficulty     = 0.7
	MaxDifficulty     = 1.3
	PuzzleUpperRate   = 0.8
	PuzzleLowerRate   = 0.4
	MissionUpperRate  = 0.7
	MissionLowerRate  = 0.3
	NeutralRate       = 0.5
	IceBreakerTrace   = 0.7
	ScrubberReward    = 1.5
	DecryptorShortcut = 1

	AmbientChatterChance = 0.05
	AmbientHackChance    = 0.03
)
