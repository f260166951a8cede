package rest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rocketscienceinc/countnet-backend/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticOnline []string

func (that staticOnline) Identities() []string {
	return that
}

func TestHandler(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	game := usecase.NewGameManager(logger, nil)
	_, err := game.MakeMove("10.0.0.1", 1)
	require.NoError(t, err)
	_, err = game.MakeMove("10.0.0.2", 2)
	require.NoError(t, err)

	handler := NewHandler(logger, game, staticOnline{"10.0.0.1", "10.0.0.3"})

	t.Run("Ping", func(t *testing.T) {
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "pong", recorder.Body.String())
	})

	t.Run("Stats", func(t *testing.T) {
		// When: stats are requested
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/stats", nil))

		// Then: the current game summary is returned
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

		var stats Stats
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&stats))
		assert.Equal(t, Stats{Counter: 2, LastMover: "10.0.0.2", Online: 2, Players: 2}, stats)
	})

	t.Run("Stats rejects other methods", func(t *testing.T) {
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/stats", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
	})
}
