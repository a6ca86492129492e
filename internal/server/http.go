package server

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"BreachProtocol/internal/game"
)

// catalogResponse is the public campaign content.
type catalogResponse struct {
	Nodes    []*game.NetworkNode `json:"nodes"`
	Upgrades []game.Upgrade      `json:"upgrades"`
}

// Handler returns the server's routes.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", a.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/api/catalog", func(w http.ResponseWriter, r *http.Request) {
		a.writeJSON(w, catalogResponse{Nodes: a.cat.Nodes, Upgrades: a.cat.Upgrades})
	})
	mux.HandleFunc("/api/agents", func(w http.ResponseWriter, r *http.Request) {
		saved, err := a.store.Agents(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		a.writeJSON(w, map[string][]string{"saved": saved, "connected": a.hub.Agents()})
	})
	return mux
}

func (a *App) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Debug("write response", zap.Error(err))
	}
}
