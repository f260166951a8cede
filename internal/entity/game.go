package entity

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/countnet-backend/internal/apperror"
)

// Entry is a single accepted move. It is stored as a [value, mover, timestamp] tuple.
type Entry struct {
	Value     int
	Mover     string
	Timestamp int64
}

func (that Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{that.Value, that.Mover, that.Timestamp})
}

func (that *Entry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal history entry: %w", err)
	}

	if len(raw) != 3 {
		return fmt.Errorf("%w: history entry has %d fields", apperror.ErrInvalidState, len(raw))
	}

	if err := json.Unmarshal(raw[0], &that.Value); err != nil {
		return fmt.Errorf("failed to unmarshal entry value: %w", err)
	}

	if err := json.Unmarshal(raw[1], &that.Mover); err != nil {
		return fmt.Errorf("failed to unmarshal entry mover: %w", err)
	}

	if err := json.Unmarshal(raw[2], &that.Timestamp); err != nil {
		return fmt.Errorf("failed to unmarshal entry timestamp: %w", err)
	}

	return nil
}

// State is the shared counting game: the counter, who moved last, every accepted move and the per-identity score.
type State struct {
	Counter   int            `json:"counter"`
	LastMover string         `json:"lastMover"`
	History   []Entry        `json:"history"`
	Scores    map[string]int `json:"scores"`
}

func NewState() *State {
	return &State{
		History: []Entry{},
		Scores:  make(map[string]int),
	}
}

// Clone returns a deep copy that shares nothing with the receiver.
func (that *State) Clone() *State {
	clone := &State{
		Counter:   that.Counter,
		LastMover: that.LastMover,
		History:   make([]Entry, len(that.History)),
		Scores:    make(map[string]int, len(that.Scores)),
	}

	copy(clone.History, that.History)

	for id, score := range that.Scores {
		clone.Scores[id] = score
	}

	return clone
}

func (that *State) ScoreOf(identity string) (int, bool) {
	score, ok := that.Scores[identity]
	return score, ok
}

// Validate checks that the counter, history, last mover and scores agree with each other.
func (that *State) Validate() error {
	if that.Counter < 0 {
		return fmt.Errorf("%w: negative counter %d", apperror.ErrInvalidState, that.Counter)
	}

	if len(that.History) != that.Counter {
		return fmt.Errorf("%w: history has %d entries, counter is %d", apperror.ErrInvalidState, len(that.History), that.Counter)
	}

	counted := make(map[string]int, len(that.Scores))
	for i, entry := range that.History {
		if entry.Value != i+1 {
			return fmt.Errorf("%w: history entry %d has value %d", apperror.ErrInvalidState, i, entry.Value)
		}
		counted[entry.Mover]++
	}

	if len(counted) != len(that.Scores) {
		return fmt.Errorf("%w: %d scored identities, %d movers", apperror.ErrInvalidState, len(that.Scores), len(counted))
	}

	for id, score := range that.Scores {
		if counted[id] != score {
			return fmt.Errorf("%w: score of %s is %d, history has %d", apperror.ErrInvalidState, id, score, counted[id])
		}
	}

	lastMover := ""
	if len(that.History) > 0 {
		lastMover = that.History[len(that.History)-1].Mover
	}

	if that.LastMover != lastMover {
		return fmt.Errorf("%w: last mover is %q, history says %q", apperror.ErrInvalidState, that.LastMover, lastMover)
	}

	return nil
}

// Normalize replaces nil collections left behind by decoding an older or partial record.
func (that *State) Normalize() {
	if that.History == nil {
		that.History = []Entry{}
	}

	if that.Scores == nil {
		that.Scores = make(map[string]int)
	}
}
