package server

import (
	"encoding/json"
	"errors"
	"io"
	"sort"
	"sync"

	"go.uber.org/zap"

	"BreachProtocol/internal/game"
)

// ErrAgentConnected rejects a second connection for the same agent.
var ErrAgentConnected = errors.New("server: agent already connected")

// Session is one connected agent. mu guards the engine; it is also the lock
// the engine's scheduler runs callbacks under.
type Session struct {
	Agent string

	mu     sync.Mutex
	engine *game.Engine
	out    chan []byte
	conn   io.Closer
	m      *Metrics
	log    *zap.Logger
}

func newSession(agent string, buffer int, m *Metrics, log *zap.Logger) *Session {
	if buffer <= 0 {
		buffer = 1
	}
	return &Session{Agent: agent, out: make(chan []byte, buffer), m: m, log: log}
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type errorPayload struct {
	Command string `json:"command,omitempty"`
	Error   string `json:"error"`
}

// send queues a frame without blocking. Engine callbacks call it with mu
// held, so a stalled client loses frames instead of stalling the game.
func (s *Session) send(typ string, payload any) {
	data, err := json.Marshal(outboundMessage{Type: typ, Payload: payload})
	if err != nil {
		s.log.Error("encode outbound", zap.String("type", typ), zap.Error(err))
		return
	}
	select {
	case s.out <- data:
	default:
		s.m.dropped.Inc()
		s.log.Warn("outbound queue full, frame dropped", zap.String("type", typ))
	}
}

// Emit implements game.View.
func (s *Session) Emit(ev game.Event) { s.send("event", ev) }

// Play implements game.Audio.
func (s *Session) Play(c game.Cue) { s.send("cue", c) }

func (s *Session) sendState() { s.send("state", s.engine.Status()) }

func (s *Session) sendError(command string, err error) {
	s.send("error", errorPayload{Command: command, Error: err.Error()})
}

// Hub tracks connected agents and pushes tuning changes to them.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*Session
	tuning   game.Tuning
	m        *Metrics
}

// NewHub returns an empty hub using t for new sessions.
func NewHub(t game.Tuning, m *Metrics) *Hub {
	return &Hub{sessions: map[string]*Session{}, tuning: game.SanitizeTuning(t), m: m}
}

// Join registers s. Only one connection per agent is allowed.
func (h *Hub) Join(s *Session) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s.Agent]; ok {
		return ErrAgentConnected
	}
	h.sessions[s.Agent] = s
	h.m.sessions.Inc()
	return nil
}

// Leave removes s if it is still the registered session for its agent.
func (h *Hub) Leave(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[s.Agent] == s {
		delete(h.sessions, s.Agent)
		h.m.sessions.Dec()
	}
}

// Agents lists connected agents in name order.
func (h *Hub) Agents() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.sessions))
	for a := range h.sessions {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Tuning is the tuning handed to new sessions.
func (h *Hub) Tuning() game.Tuning {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tuning
}

// SetTuning updates new and connected sessions. A session mid-mission keeps
// its old timings until that mission has handed off.
func (h *Hub) SetTuning(t game.Tuning) {
	t = game.SanitizeTuning(t)
	h.mu.Lock()
	h.tuning = t
	live := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		live = append(live, s)
	}
	h.mu.Unlock()

	for _, s := range live {
		s.mu.Lock()
		if s.engine != nil {
			s.engine.SetTuning(t)
		}
		s.mu.Unlock()
	}
}

// CloseAll drops every connection. Handlers notice on their next read and
// suspend their engines.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sessions {
		if s.conn != nil {
			_ = s.conn.Close()
		}
	}
}
