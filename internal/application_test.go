package application

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/rocketscienceinc/countnet-backend/internal/config"
	"github.com/rocketscienceinc/countnet-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStateRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("File storage", func(t *testing.T) {
		conf := &config.Config{Storage: config.Storage{Type: config.StorageFile, Path: filepath.Join(t.TempDir(), "state.json")}}

		stateRepo, closeStorage, err := openStateRepository(ctx, conf)
		require.NoError(t, err)
		defer closeStorage() //nolint:errcheck

		require.NoError(t, stateRepo.Save(ctx, entity.NewState()))
		assert.FileExists(t, conf.Storage.Path)
	})

	t.Run("SQLite storage", func(t *testing.T) {
		conf := &config.Config{Storage: config.Storage{Type: config.StorageSQLite, SQLitePath: filepath.Join(t.TempDir(), "countnet.db")}}

		stateRepo, closeStorage, err := openStateRepository(ctx, conf)
		require.NoError(t, err)
		defer closeStorage() //nolint:errcheck

		require.NoError(t, stateRepo.Save(ctx, entity.NewState()))
		loaded, err := stateRepo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, entity.NewState(), loaded)
	})

	t.Run("Redis storage without a host", func(t *testing.T) {
		conf := &config.Config{Storage: config.Storage{Type: config.StorageRedis}, Redis: config.Redis{Port: "6379"}}

		_, _, err := openStateRepository(ctx, conf)

		require.ErrorIs(t, err, ErrAddrNotFound)
	})

	t.Run("Unknown storage", func(t *testing.T) {
		conf := &config.Config{Storage: config.Storage{Type: "tape"}}

		_, _, err := openStateRepository(ctx, conf)

		require.ErrorIs(t, err, config.ErrUnknownStorage)
	})
}

func TestLoadState(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))

	t.Run("Missing save starts from zero", func(t *testing.T) {
		conf := &config.Config{Storage: config.Storage{Type: config.StorageFile, Path: filepath.Join(t.TempDir(), "state.json")}}
		stateRepo, _, err := openStateRepository(ctx, conf)
		require.NoError(t, err)

		assert.Equal(t, entity.NewState(), loadState(ctx, log, stateRepo))
	})

	t.Run("Corrupt save starts from zero", func(t *testing.T) {
		// Given: a save file whose counter disagrees with its history
		path := filepath.Join(t.TempDir(), "state.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"counter":3,"lastMover":"a","history":[],"scores":{}}`), 0o600))

		conf := &config.Config{Storage: config.Storage{Type: config.StorageFile, Path: path}}
		stateRepo, _, err := openStateRepository(ctx, conf)
		require.NoError(t, err)

		// Then: the game restarts from the zero state
		assert.Equal(t, entity.NewState(), loadState(ctx, log, stateRepo))
	})

	t.Run("Valid save is restored", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"counter":1,"lastMover":"a","history":[[1,"a",42]],"scores":{"a":1}}`), 0o600))

		conf := &config.Config{Storage: config.Storage{Type: config.StorageFile, Path: path}}
		stateRepo, _, err := openStateRepository(ctx, conf)
		require.NoError(t, err)

		state := loadState(ctx, log, stateRepo)

		assert.Equal(t, 1, state.Counter)
		assert.Equal(t, "a", state.LastMover)
	})
}
