package usecase

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rocketscienceinc/countnet-backend/internal/apperror"
	"github.com/rocketscienceinc/countnet-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(state *entity.State) *GameManager {
	manager := NewGameManager(slog.New(slog.NewTextHandler(io.Discard, nil)), state)
	manager.now = func() time.Time { return time.UnixMilli(1700000000000) }

	return manager
}

func TestGameManager_MakeMove(t *testing.T) {
	t.Run("Accepted move marks the state dirty", func(t *testing.T) {
		// Given: a fresh manager
		manager := newTestManager(nil)
		require.False(t, manager.IsDirty())

		// When: A sends 1
		counter, err := manager.MakeMove("A", 1)

		// Then: the counter advances and the state needs saving
		require.NoError(t, err)
		assert.Equal(t, 1, counter)
		assert.True(t, manager.IsDirty())

		last, mover := manager.Last()
		assert.Equal(t, 1, last)
		assert.Equal(t, "A", mover)
	})

	t.Run("Rejected move leaves the state clean", func(t *testing.T) {
		// Given: a fresh manager
		manager := newTestManager(nil)

		// When: A sends the wrong number
		counter, err := manager.MakeMove("A", 2)

		// Then: nothing changes
		require.ErrorIs(t, err, apperror.ErrWrongNumber)
		assert.Equal(t, 0, counter)
		assert.False(t, manager.IsDirty())
	})

	t.Run("Scenario with two identities", func(t *testing.T) {
		manager := newTestManager(nil)

		_, err := manager.MakeMove("A", 1)
		require.NoError(t, err)

		_, err = manager.MakeMove("A", 2)
		require.ErrorIs(t, err, apperror.ErrSpokeTwice)

		counter, err := manager.MakeMove("B", 2)
		require.NoError(t, err)
		assert.Equal(t, 2, counter)

		report := manager.Score("B")
		assert.Equal(t, 1, report.Score)
		assert.Equal(t, 1, report.Rank)
	})
}

func TestGameManager_TakeDirtySnapshot(t *testing.T) {
	t.Run("Clean state yields no snapshot", func(t *testing.T) {
		manager := newTestManager(nil)

		snapshot, ok := manager.TakeDirtySnapshot()

		assert.False(t, ok)
		assert.Nil(t, snapshot)
	})

	t.Run("Flag is cleared before the copy is handed out", func(t *testing.T) {
		// Given: a dirty state
		manager := newTestManager(nil)
		_, err := manager.MakeMove("A", 1)
		require.NoError(t, err)

		// When: a snapshot is taken
		snapshot, ok := manager.TakeDirtySnapshot()

		// Then: the flag is clear and the snapshot is independent of later moves
		require.True(t, ok)
		assert.False(t, manager.IsDirty())

		_, err = manager.MakeMove("B", 2)
		require.NoError(t, err)

		assert.Equal(t, 1, snapshot.Counter)
		assert.Len(t, snapshot.History, 1)
		assert.True(t, manager.IsDirty())
	})

	t.Run("MarkDirty schedules another save", func(t *testing.T) {
		manager := newTestManager(nil)

		manager.MarkDirty()

		_, ok := manager.TakeDirtySnapshot()
		assert.True(t, ok)
	})
}

func TestGameManager_Queries(t *testing.T) {
	// Given: 12 players, p00 with 1 move .. p11 with 12 moves, interleaved so nobody moves twice in a row
	state := entity.NewState()
	manager := newTestManager(state)

	remaining := make([]int, 12)
	for i := range remaining {
		remaining[i] = i + 1
	}

	last := -1
	for n := 1; n <= 78; n++ {
		next := -1
		for i, left := range remaining {
			if i == last || left == 0 {
				continue
			}
			if next == -1 || left > remaining[next] {
				next = i
			}
		}

		_, err := manager.MakeMove(fmt.Sprintf("p%02d", next), n)
		require.NoError(t, err)

		remaining[next]--
		last = next
	}
	snapshot, ok := manager.TakeDirtySnapshot()
	require.True(t, ok)
	require.NoError(t, snapshot.Validate())

	t.Run("Top is ordered and bounded", func(t *testing.T) {
		top := manager.Top()

		require.Len(t, top, 10)
		assert.Equal(t, entity.Player{ID: "p11", Score: 12}, top[0])
		assert.Equal(t, entity.Player{ID: "p02", Score: 3}, top[9])
		assert.Equal(t, top, manager.Top())
	})

	t.Run("Score of a ranked identity", func(t *testing.T) {
		report := manager.Score("p05")

		assert.Equal(t, 6, report.Score)
		assert.Equal(t, 7, report.Rank)
		assert.Equal(t, 6, report.Index)
		assert.Len(t, report.Ranking, 12)
	})

	t.Run("Score of an unknown identity", func(t *testing.T) {
		report := manager.Score("nobody")

		assert.Equal(t, 0, report.Score)
		assert.Equal(t, 0, report.Rank)
		assert.Equal(t, -1, report.Index)
	})

	t.Run("History pages are copies", func(t *testing.T) {
		report := manager.History(0)
		require.NotEmpty(t, report.Entries)

		report.Entries[0].Mover = "changed"

		assert.NotEqual(t, "changed", manager.History(0).Entries[0].Mover)
	})

	t.Run("Negative history page is page zero", func(t *testing.T) {
		report := manager.History(-1)

		assert.Equal(t, 0, report.Page)
		assert.True(t, report.IsEnd)
	})

	t.Run("Players counts scored identities", func(t *testing.T) {
		assert.Equal(t, 12, manager.Players())
	})
}
