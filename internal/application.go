package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rocketscienceinc/countnet-backend/internal/apperror"
	"github.com/rocketscienceinc/countnet-backend/internal/config"
	"github.com/rocketscienceinc/countnet-backend/internal/entity"
	"github.com/rocketscienceinc/countnet-backend/internal/repository"
	"github.com/rocketscienceinc/countnet-backend/internal/repository/storage"
	"github.com/rocketscienceinc/countnet-backend/internal/usecase"
	"github.com/rocketscienceinc/countnet-backend/internal/worker"
	"github.com/rocketscienceinc/countnet-backend/transport/rest"
	"github.com/rocketscienceinc/countnet-backend/transport/tcp"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	stateRepo, closeStorage, err := openStateRepository(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = closeStorage(); err != nil {
			log.Error("could not close storage", "error", err)
		}
	}()

	state := loadState(ctx, log, stateRepo)
	gameManager := usecase.NewGameManager(logger, state)

	var wg sync.WaitGroup

	// run save state worker
	saveWorker := worker.NewSaveStateWorker(logger, stateRepo, gameManager, conf.SaveInterval)
	wg.Add(1)
	go func() {
		defer wg.Done()
		saveWorker.Start(ctx)
	}()

	tcpServer := tcp.New(logger, gameManager)

	// run TCP server
	tcpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting TCP server", "addr", conf.GetTCPAddr())
		if tcpErr := tcpServer.Start(ctx, conf.GetTCPAddr()); tcpErr != nil {
			log.Error("TCP server error", "error", tcpErr)
			tcpErrCh <- tcpErr
		}
	}()

	// run HTTP server
	httpErrCh := make(chan error, 1)
	if conf.HTTPPort != "" {
		go func() {
			log.Info("Starting HTTP server", "port", conf.HTTPPort)
			if httpErr := rest.Start(ctx, logger, conf.HTTPPort, gameManager, tcpServer.Registry()); httpErr != nil {
				log.Error("HTTP server error", "error", httpErr)
				httpErrCh <- httpErr
			}
		}()
	}

	select {
	case err = <-tcpErrCh:
		err = fmt.Errorf("TCP server error: %w", err)
	case err = <-httpErrCh:
		err = fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	cancel()
	wg.Wait()

	return err
}

func openStateRepository(ctx context.Context, conf *config.Config) (repository.StateRepository, func() error, error) {
	switch conf.Storage.Type {
	case config.StorageRedis:
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, storage.RedisOptions{
			Addr:     redisAddrString,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewRedisStateRepository(redisStorage.Connection, conf.Redis.Key), redisStorage.Close, nil

	case config.StorageSQLite:
		sqliteStorage, err := storage.NewSQLiteStorage(conf.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			return nil, nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		return repository.NewSQLiteStateRepository(sqliteStorage.Connection), sqliteStorage.Close, nil

	case config.StorageFile:
		return repository.NewFileStateRepository(conf.Storage.Path), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownStorage, conf.Storage.Type)
	}
}

// loadState - returns the persisted state, or a fresh one when nothing usable is stored.
func loadState(ctx context.Context, log *slog.Logger, stateRepo repository.StateRepository) *entity.State {
	state, err := stateRepo.Load(ctx)
	switch {
	case errors.Is(err, apperror.ErrStateNotFound):
		log.Info("Creating new save file")
		return entity.NewState()
	case err != nil:
		log.Error("failed to load state, starting from zero", "error", err)
		return entity.NewState()
	}

	log.Info("state loaded", "counter", state.Counter, "players", len(state.Scores))

	return state
}
