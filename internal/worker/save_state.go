package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/countnet-backend/internal/entity"
)

const DefaultSaveInterval = 15 * time.Second

type stateRepo interface {
	Save(ctx context.Context, state *entity.State) error
}

type stateSource interface {
	TakeDirtySnapshot() (*entity.State, bool)
	MarkDirty()
}

// SaveStateWorker flushes the game state to its repository whenever it changed since the last flush.
type SaveStateWorker struct {
	logger    *slog.Logger
	stateRepo stateRepo
	source    stateSource
	interval  time.Duration
}

func NewSaveStateWorker(logger *slog.Logger, stateRepo stateRepo, source stateSource, interval time.Duration) *SaveStateWorker {
	if interval <= 0 {
		interval = DefaultSaveInterval
	}

	return &SaveStateWorker{
		logger:    logger.With("component", "save_state_worker"),
		stateRepo: stateRepo,
		source:    source,
		interval:  interval,
	}
}

// Start blocks until ctx is done, then flushes one last time.
func (that *SaveStateWorker) Start(ctx context.Context) {
	log := that.logger.With("method", "Start")

	ticker := time.NewTicker(that.interval)
	defer ticker.Stop()

	log.Info("save state worker started", "interval", that.interval)

	for {
		select {
		case <-ticker.C:
			that.Flush(ctx)
		case <-ctx.Done():
			// ctx is already canceled, the final write gets its own deadline
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), that.interval)
			that.Flush(flushCtx)
			cancel()

			log.Info("save state worker stopped")
			return
		}
	}
}

// Flush saves the state if it is dirty. A failed save marks the state dirty again so the next tick retries it.
func (that *SaveStateWorker) Flush(ctx context.Context) bool {
	log := that.logger.With("method", "Flush")

	state, ok := that.source.TakeDirtySnapshot()
	if !ok {
		return false
	}

	if err := that.stateRepo.Save(ctx, state); err != nil {
		log.Error("failed to save state", "error", err, "counter", state.Counter)
		that.source.MarkDirty()
		return false
	}

	log.Debug("state saved", "counter", state.Counter)

	return true
}
