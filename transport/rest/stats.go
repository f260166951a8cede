package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type StatsProvider interface {
	Last() (int, string)
	Players() int
}

type OnlineCounter interface {
	Identities() []string
}

// Stats is the body of GET /stats.
type Stats struct {
	Counter   int    `json:"counter"`
	LastMover string `json:"lastMover"`
	Online    int    `json:"online"`
	Players   int    `json:"players"`
}

type statsHandler struct {
	logger *slog.Logger
	game   StatsProvider
	online OnlineCounter
}

func newStatsHandler(logger *slog.Logger, game StatsProvider, online OnlineCounter) *statsHandler {
	return &statsHandler{
		logger: logger.With("handler", "stats"),
		game:   game,
		online: online,
	}
}

func (that *statsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	counter, lastMover := that.game.Last()

	stats := Stats{
		Counter:   counter,
		LastMover: lastMover,
		Online:    len(that.online.Identities()),
		Players:   that.game.Players(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(stats); err != nil {
		that.logger.Error("failed to encode stats", "error", err)
	}
}
