package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rocketscienceinc/countnet-backend/internal/apperror"
	"github.com/rocketscienceinc/countnet-backend/internal/entity"
)

type fileState struct {
	path string
}

// NewFileStateRepository keeps the state as a JSON document at path.
func NewFileStateRepository(path string) StateRepository {
	return &fileState{
		path: path,
	}
}

// Save replaces the record atomically through a temporary file in the same directory.
func (that *fileState) Save(_ context.Context, state *entity.State) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("could not marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(that.path), filepath.Base(that.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(stateJSON); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err = os.Rename(tmp.Name(), that.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

func (that *fileState) Load(_ context.Context) (*entity.State, error) {
	data, err := os.ReadFile(that.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperror.ErrStateNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	return decodeState(data)
}
