package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/countnet-backend/internal/apperror"
	"github.com/rocketscienceinc/countnet-backend/internal/entity"
)

type sqliteState struct {
	conn *sql.DB
}

func NewSQLiteStateRepository(conn *sql.DB) StateRepository {
	return &sqliteState{
		conn: conn,
	}
}

func (that *sqliteState) Save(ctx context.Context, state *entity.State) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("could not marshal state: %w", err)
	}

	query := `INSERT INTO state (id, payload, saved_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`

	if _, err = that.conn.ExecContext(ctx, query, string(stateJSON), time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("can't save state: %w", err)
	}

	return nil
}

func (that *sqliteState) Load(ctx context.Context) (*entity.State, error) {
	query := `SELECT payload FROM state WHERE id = 1`

	var payload string

	err := that.conn.QueryRowContext(ctx, query).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't load state: %w", err)
	}

	return decodeState([]byte(payload))
}
