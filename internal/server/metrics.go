package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"BreachProtocol/internal/game"
)

// Metrics are the server's Prometheus collectors.
type Metrics struct {
	missions *prometheus.CounterVec
	puzzles  *prometheus.CounterVec
	commands *prometheus.CounterVec
	sessions prometheus.Gauge
	dropped  prometheus.Counter
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		missions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "breach_missions_total",
			Help: "Resolved missions by outcome.",
		}, []string{"outcome"}),
		puzzles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "breach_puzzles_total",
			Help: "Finished puzzle attempts by puzzle type and result.",
		}, []string{"type", "result"}),
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "breach_commands_total",
			Help: "Inbound websocket commands by type and result.",
		}, []string{"command", "result"}),
		sessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "breach_sessions_active",
			Help: "Connected agents.",
		}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "breach_outbound_dropped_total",
			Help: "Frames dropped because a client fell behind.",
		}),
	}
}


func (m *Metrics) command(name string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.commands.WithLabelValues(name, result).Inc()
}

// observedView counts events on their way to the client. Feedback events do
// not name their puzzle, so the type of the last opened puzzle is kept.
type observedView struct {
	next   game.View
	m      *Metrics
	puzzle game.PuzzleType
}

func (v *observedView) Emit(ev game.Event) {
	switch ev.Kind {
	case game.EventPuzzle:
		if ev.Puzzle != nil {
			v.puzzle = ev.Puzzle.Type
		}
	case game.EventPuzzleFeedback:
		result := "failure"
		if ev.Correct {
			result = "success"
		}
		v.m.puzzles.WithLabelValues(string(v.puzzle), result).Inc()
	case game.EventMissionResolved, game.EventGameOver:
		v.m.missions.WithLabelValues(string(ev.Outcome)).Inc()
	}
	v.next.Emit(ev)
}
