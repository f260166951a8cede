package usecase

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/countnet-backend/internal/counting"
	"github.com/rocketscienceinc/countnet-backend/internal/entity"
)

// ScoreReport is what the score command shows to one identity.
type ScoreReport struct {
	Score int
	// Rank is 0 when the identity has never made an accepted move.
	Rank    int
	Index   int
	Ranking []entity.Player
}

// HistoryReport is a single page of the move log.
type HistoryReport struct {
	Page    int
	Entries []entity.Entry
	IsEnd   bool
}

// GameManager owns the shared game state and its dirty flag.
type GameManager struct {
	logger *slog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	state *entity.State
	dirty bool
}

func NewGameManager(logger *slog.Logger, state *entity.State) *GameManager {
	if state == nil {
		state = entity.NewState()
	}

	return &GameManager{
		logger: logger.With("component", "game_manager"),
		now:    time.Now,
		state:  state,
	}
}

// MakeMove applies n for identity and returns the new counter.
func (that *GameManager) MakeMove(identity string, n int) (int, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := counting.MakeMove(that.state, identity, n, that.now()); err != nil {
		return that.state.Counter, fmt.Errorf("failed to make move: %w", err)
	}

	that.dirty = true

	that.logger.Debug("move accepted", "identity", identity, "counter", that.state.Counter)

	return that.state.Counter, nil
}

// Last returns the current counter and who set it.
func (that *GameManager) Last() (int, string) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.state.Counter, that.state.LastMover
}

func (that *GameManager) History(page int) HistoryReport {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if page < 0 {
		page = 0
	}

	window, isEnd := counting.HistoryPage(that.state.History, page)

	entries := make([]entity.Entry, len(window))
	copy(entries, window)

	return HistoryReport{
		Page:    page,
		Entries: entries,
		IsEnd:   isEnd,
	}
}

func (that *GameManager) Score(identity string) ScoreReport {
	that.mu.RLock()
	defer that.mu.RUnlock()

	ranking := counting.Ranking(that.state.Scores)
	score, _ := that.state.ScoreOf(identity)
	index := counting.RankOf(ranking, identity)

	report := ScoreReport{
		Score:   score,
		Index:   index,
		Ranking: ranking,
	}

	if index >= 0 {
		report.Rank = counting.Rank(ranking, index)
	}

	return report
}

func (that *GameManager) Top() []entity.Player {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return counting.Top(counting.Ranking(that.state.Scores))
}

func (that *GameManager) Players() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.state.Scores)
}

// TakeDirtySnapshot clears the dirty flag and returns a copy of the state if it was set.
// Moves made after the call set the flag again and are picked up by the next call.
func (that *GameManager) TakeDirtySnapshot() (*entity.State, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.dirty {
		return nil, false
	}

	that.dirty = false

	return that.state.Clone(), true
}

// MarkDirty flags the state for the next save, used after a failed write.
func (that *GameManager) MarkDirty() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.dirty = true
}

func (that *GameManager) IsDirty() bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.dirty
}
