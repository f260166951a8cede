package counting

import (
	"fmt"
	"sort"
	"time"

	"github.com/rocketscienceinc/countnet-backend/internal/apperror"
	"github.com/rocketscienceinc/countnet-backend/internal/entity"
)

const (
	PageSize    = 100
	TopSize     = 10
	RankContext = 5
)

// MakeMove applies n as the next number on behalf of identity.
func MakeMove(state *entity.State, identity string, n int, at time.Time) error {
	if err := validateMove(state, identity, n); err != nil {
		return err
	}

	state.Counter++
	state.LastMover = identity
	state.History = append(state.History, entity.Entry{
		Value:     state.Counter,
		Mover:     identity,
		Timestamp: at.UnixMilli(),
	})

	if state.Scores == nil {
		state.Scores = make(map[string]int)
	}
	state.Scores[identity]++

	return nil
}

// validateMove - the turn rule is checked before the number.
func validateMove(state *entity.State, identity string, n int) error {
	if state.LastMover == identity {
		return apperror.ErrSpokeTwice
	}

	if n != state.Counter+1 {
		return fmt.Errorf("%w: %d", apperror.ErrWrongNumber, n)
	}

	return nil
}

// HistoryPage returns the page-th window of PageSize entries counted back from the most recent move,
// oldest first, and whether it is the last page.
func HistoryPage(history []entity.Entry, page int) ([]entity.Entry, bool) {
	if page < 0 {
		page = 0
	}

	if page > len(history)/PageSize {
		return history[:0], true
	}

	end := len(history) - page*PageSize
	start := end - PageSize

	if start < 0 {
		start = 0
	}

	isEnd := (page+1)*PageSize >= len(history)

	return history[start:end], isEnd
}

// Ranking orders every scored identity by descending score, ties by identity.
func Ranking(scores map[string]int) []entity.Player {
	ranking := make([]entity.Player, 0, len(scores))
	for id, score := range scores {
		ranking = append(ranking, entity.Player{ID: id, Score: score})
	}

	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Score != ranking[j].Score {
			return ranking[i].Score > ranking[j].Score
		}
		return ranking[i].ID < ranking[j].ID
	})

	return ranking
}

// RankOf returns the zero-based position of identity in ranking, or -1.
func RankOf(ranking []entity.Player, identity string) int {
	for i, player := range ranking {
		if player.ID == identity {
			return i
		}
	}

	return -1
}

// Rank returns the 1-based rank of the player at index; equal scores share a rank.
func Rank(ranking []entity.Player, index int) int {
	for index > 0 && ranking[index-1].Score == ranking[index].Score {
		index--
	}

	return index + 1
}

// RankWindow returns the bounds of the ranking slice shown around index.
// An unranked index (-1) shows the RankContext-1 leaders.
func RankWindow(total, index int) (int, int) {
	if index < 0 {
		return 0, min(RankContext-1, total)
	}

	start := max(index-RankContext, 0)
	end := min(index+RankContext+1, total)

	return start, end
}

// Top returns at most TopSize leaders of ranking.
func Top(ranking []entity.Player) []entity.Player {
	return ranking[:min(TopSize, len(ranking))]
}
