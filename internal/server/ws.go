package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"BreachProtocol/internal/clock"
	"BreachProtocol/internal/game"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

var agentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// errUnknownCommand is sent back for message types the server does not know.
var errUnknownCommand = errors.New("server: unknown command")

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Node string `json:"node"`
}

type objectivePayload struct {
	Objective game.Objective `json:"objective"`
}

type selectPayload struct {
	Position int    `json:"position"`
	Symbol   string `json:"symbol"`
}

type inputPayload struct {
	Text string `json:"text"`
}

type upgradePayload struct {
	Upgrade game.UpgradeID `json:"upgrade"`
}

func agentFromRequest(r *http.Request) (string, error) {
	agent := strings.TrimSpace(r.URL.Query().Get("agent"))
	if agent == "" {
		return "agent-" + uuid.NewString()[:8], nil
	}
	if !agentPattern.MatchString(agent) {
		return "", fmt.Errorf("invalid agent name %q", agent)
	}
	return agent, nil
}

func (a *App) serveWS(w http.ResponseWriter, r *http.Request) {
	agent, err := agentFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.conns.Add(1)
	defer a.conns.Done()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Debug("upgrade", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	log := a.log.With(zap.String("agent", agent), zap.String("session", uuid.NewString()))
	sess := newSession(agent, a.cfg.SendBuffer, a.metrics, log)
	sess.conn = conn
	if err := a.hub.Join(sess); err != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Error: err.Error()}})
		return
	}
	defer a.hub.Leave(sess)

	tuning := a.hub.Tuning()
	eng, err := game.NewEngine(game.Deps{
		Catalog:     a.cat,
		Scheduler:   clock.NewReal(&sess.mu),
		Rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
		View:        &observedView{next: sess, m: a.metrics},
		Audio:       sess,
		Persistence: a.store.ForAgent(agent),
		Tuning:      &tuning,
		Logger:      log.Named("engine"),
		AgentName:   agent,
	})
	if err != nil {
		log.Error("engine", zap.Error(err))
		return
	}

	// The connection outlives the request once hijacked.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	sess.mu.Lock()
	sess.engine = eng
	if _, err := eng.Load(ctx); err != nil {
		sess.sendError("game:load", err)
	}
	sess.sendState()
	sess.mu.Unlock()
	log.Info("agent connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case data := <-sess.out:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
			}
		}
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		var in inboundMessage
		if err := json.Unmarshal(data, &in); err != nil {
			sess.mu.Lock()
			sess.sendError("", fmt.Errorf("malformed message: %w", err))
			sess.mu.Unlock()
			continue
		}
		sess.mu.Lock()
		err = sess.handle(ctx, in)
		if err != nil {
			sess.sendError(in.Type, err)
		}
		sess.mu.Unlock()
		name := in.Type
		if errors.Is(err, errUnknownCommand) {
			name = "unknown"
		}
		a.metrics.command(name, err)
	}

	cancel()
	<-writerDone
	sess.mu.Lock()
	eng.Suspend()
	sess.mu.Unlock()
	log.Info("agent disconnected")
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("bad payload: %w", err)
	}
	return nil
}

// handle runs one command against the engine. mu must be held.
func (s *Session) handle(ctx context.Context, in inboundMessage) error {
	e := s.engine
	switch in.Type {
	case "mission:start":
		var p startPayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		return e.Start(p.Node)
	case "mission:objective":
		var p objectivePayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		return e.TriggerObjective(p.Objective)
	case "mission:abort":
		return e.Abort()
	case "puzzle:retry":
		return e.Retry()
	case "puzzle:select":
		var p selectPayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		return e.SelectSymbol(p.Position, p.Symbol)
	case "puzzle:step":
		var p game.Cell
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		return e.StepPath(p)
	case "puzzle:input":
		var p inputPayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		return e.TypeInput(p.Text)
	case "upgrade:buy":
		var p upgradePayload
		if err := decode(in.Payload, &p); err != nil {
			return err
		}
		return e.Purchase(p.Upgrade)
	case "game:save":
		return e.Save(ctx)
	case "game:load":
		if _, err := e.Load(ctx); err != nil {
			return err
		}
		s.sendState()
		return nil
	case "game:reset":
		if err := e.ResetGame(ctx); err != nil {
			return err
		}
		s.sendState()
		return nil
	case "state:get":
		s.sendState()
		return nil
	default:
		return fmt.Errorf("%w: %q", errUnknownCommand, in.Type)
	}
}
