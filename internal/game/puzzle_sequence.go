package game

import (
	"bytes"
	"math/rand"
	"strings"
	"time"

	"BreachProtocol/internal/clock"
)

// SequencePuzzle shows a symbol string one step at a time; the player must
// select the symbols back in order.
type SequencePuzzle struct {
	rng      *rand.Rand
	sched    clock.Scheduler
	step     time.Duration
	complete func(Verdict)
	emit     func(Event)

	target    []byte
	entered   []byte
	revealed  int
	reveal    clock.Timer
	accepting bool
}

// NewSequencePuzzle wires a sequence variant to its scheduler and sinks.
func NewSequencePuzzle(rng *rand.Rand, sched clock.Scheduler, step time.Duration, complete func(Verdict), emit func(Event)) *SequencePuzzle {
	return &SequencePuzzle{rng: rng, sched: sched, step: step, complete: complete, emit: emit}
}

func (p *SequencePuzzle) Type() PuzzleType { return PuzzleSequence }

// Activate generates length symbols from SequenceAlphabet and starts the
// reveal: the first symbol immediately, then one per step.
func (p *SequencePuzzle) Activate(length int) {
	p.Reset()
	if length < 1 {
		length = 1
	}
	p.target = make([]byte, length)
	for i := range p.target {
		p.target[i] = SequenceAlphabet[p.rng.Intn(len(SequenceAlphabet))]
	}
	p.accepting = true
	p.revealNext()
	if p.revealed < len(p.target) {
		p.reveal = p.sched.Every(p.step, p.revealNext)
	}
}

func (p *SequencePuzzle) revealNext() {
	if p.revealed >= len(p.target) {
		p.reveal = clock.Stop(p.reveal)
		return
	}
	i := p.revealed
	p.revealed++
	p.emit(Event{Kind: EventPuzzleReveal, Index: i, Symbol: string(p.target[i])})
	if p.revealed >= len(p.target) {
		p.reveal = clock.Stop(p.reveal)
	}
}

// Select records the symbol at position pos. Only the next expected position
// is accepted; anything else is ignored and reported as ErrInputRejected.
// The verdict is produced once the full length is entered.
func (p *SequencePuzzle) Select(pos int, symbol string) error {
	if !p.accepting {
		return ErrNoActivePuzzle
	}
	if pos != len(p.entered) || len(symbol) != 1 {
		return ErrInputRejected
	}
	p.entered = append(p.entered, strings.ToUpper(symbol)[0])
	if len(p.entered) == len(p.target) {
		p.finish(bytes.Equal(p.entered, p.target))
	}
	return nil
}

func (p *SequencePuzzle) finish(correct bool) {
	if !p.accepting {
		return
	}
	p.accepting = false
	p.reveal = clock.Stop(p.reveal)
	p.complete(Verdict{Correct: correct, Type: PuzzleSequence})
}

// Reset implements Puzzle.
func (p *SequencePuzzle) Reset() {
	p.reveal = clock.Stop(p.reveal)
	p.target = nil
	p.entered = nil
	p.revealed = 0
	p.accepting = false
}

// Accepting implements Puzzle.
func (p *SequencePuzzle) Accepting() bool { return p.accepting }

// Target returns the generated sequence.
func (p *SequencePuzzle) Target() string { return string(p.target) }

// View implements Puzzle.
func (p *SequencePuzzle) View() PuzzleView {
	revealed := make([]string, 0, p.revealed)
	for _, b := range p.target[:p.revealed] {
		revealed = append(revealed, string(b))
	}
	return PuzzleView{
		Type:     PuzzleSequence,
		Length:   len(p.target),
		Revealed: revealed,
		Entered:  len(p.entered),
	}
}
