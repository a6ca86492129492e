package game

import (
	"math/rand"
	"strings"
	"time"

	"BreachProtocol/internal/clock"
)

// TimedInputPuzzle asks the player to type a random code before a countdown
// drains from TimedInputStart to zero.
type TimedInputPuzzle struct {
	rng       *rand.Rand
	sched     clock.Scheduler
	interval  time.Duration
	decrement float64
	complete  func(Verdict)
	emit      func(Event)

	target    string
	timeLeft  float64
	countdown clock.Timer
	accepting bool
}

// NewTimedInputPuzzle wires a timed-input variant to its scheduler and sinks.
func NewTimedInputPuzzle(rng *rand.Rand, sched clock.Scheduler, interval time.Duration, decrement float64, complete func(Verdict), emit func(Event)) *TimedInputPuzzle {
	return &TimedInputPuzzle{
		rng:       rng,
		sched:     sched,
		interval:  interval,
		decrement: decrement,
		complete:  complete,
		emit:      emit,
	}
}

func (p *TimedInputPuzzle) Type() PuzzleType { return PuzzleTimedInput }

// Activate generates a code of length characters and starts the countdown.
func (p *TimedInputPuzzle) Activate(length int) {
	p.Reset()
	if length < 1 {
		length = 1
	}
	var b strings.Builder
	for i := 0; i < length; i++ {
		b.WriteByte(TimedInputAlphabet[p.rng.Intn(len(TimedInputAlphabet))])
	}
	p.target = b.String()
	p.timeLeft = TimedInputStart
	p.accepting = true
	p.countdown = p.sched.Every(p.interval, p.tick)
}

func (p *TimedInputPuzzle) tick() {
	if !p.accepting {
		return
	}
	p.timeLeft -= p.decrement
	if p.timeLeft <= 0 {
		p.timeLeft = 0
		p.emit(Event{Kind: EventPuzzleTimer, Value: 0})
		p.finish(false)
		return
	}
	p.emit(Event{Kind: EventPuzzleTimer, Value: p.timeLeft})
}

// Input compares the player's live input with the code, ignoring case. A
// match solves the puzzle; anything else just waits for more input.
func (p *TimedInputPuzzle) Input(text string) error {
	if !p.accepting {
		return ErrNoActivePuzzle
	}
	if strings.ToUpper(text) == p.target {
		p.finish(true)
	}
	return nil
}

func (p *TimedInputPuzzle) finish(correct bool) {
	if !p.accepting {
		return
	}
	p.accepting = false
	p.countdown = clock.Stop(p.countdown)
	p.complete(Verdict{Correct: correct, Type: PuzzleTimedInput})
}

// Reset implements Puzzle.
func (p *TimedInputPuzzle) Reset() {
	p.countdown = clock.Stop(p.countdown)
	p.target = ""
	p.timeLeft = 0
	p.accepting = false
}

// Accepting implements Puzzle.
func (p *TimedInputPuzzle) Accepting() bool { return p.accepting }

// Target returns the code to type.
func (p *TimedInputPuzzle) Target() string { return p.target }

// TimeLeft returns the remaining countdown in percent.
func (p *TimedInputPuzzle) TimeLeft() float64 { return p.timeLeft }

// View implements Puzzle.
func (p *TimedInputPuzzle) View() PuzzleView {
	return PuzzleView{
		Type:     PuzzleTimedInput,
		Length:   len(p.target),
		Target:   p.target,
		TimeLeft: p.timeLeft,
	}
}
