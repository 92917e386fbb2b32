package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/iudanet/gamesync/internal/client/api"
	"github.com/iudanet/gamesync/internal/client/local"
	"github.com/iudanet/gamesync/internal/client/session"
	"github.com/iudanet/gamesync/internal/client/storage/boltdb"
	"github.com/iudanet/gamesync/internal/client/storage/sqlite"
	"github.com/iudanet/gamesync/internal/client/sync"
	"github.com/iudanet/gamesync/internal/config"
)

// ErrNotConfirmed разрушительное действие без подтверждения пользователя
var ErrNotConfirmed = errors.New("action not confirmed")

const (
	localDBName   = "local.db"
	sessionDBName = "session.db"
)

// App корень композиции клиента: создается при старте, закрывается при выходе
type App struct {
	Session      *session.Service
	Highscores   *local.HighscoreRepository
	Stats        *local.StatRepository
	Resources    *local.ResourceRepository
	Orchestrator *sync.Orchestrator
	Scheduler    *sync.Scheduler

	highscoreSync *sync.HighscoreDomain
	store         *sqlite.Storage
	sessions      *boltdb.Storage
	logger        *slog.Logger
}

// New opens the local stores and wires the sync subsystem.
// policy may be nil: conflicts then wait for an explicit resolve.
func New(ctx context.Context, cfg *config.Client, policy sync.ConflictPolicy, logger *slog.Logger) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	store, err := sqlite.New(ctx, filepath.Join(cfg.DataDir, localDBName))
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	sessions, err := boltdb.New(ctx, filepath.Join(cfg.DataDir, sessionDBName))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	gateway := api.NewGateway(api.NewHTTPTransport(cfg.ServerURL, cfg.RequestTimeout), logger)
	sess := session.NewService(gateway, sessions, logger)

	highscores := local.NewHighscoreRepository(store, nil)
	highscoreSync := sync.NewHighscoreDomain(store, highscores, gateway, sess, logger)

	orchestrator := sync.NewOrchestrator(
		[]sync.Domain{
			highscoreSync,
			sync.NewStatDomain(store, gateway, sess, cfg.EventRetention, logger),
			sync.NewResourceDomain(store, gateway, sess, logger),
		},
		sync.NewResolver(store, gateway, sess, logger),
		policy,
		cfg.SyncTimeout,
		logger,
	)
	highscoreSync.BindTrigger(orchestrator)

	scheduler := sync.NewScheduler(orchestrator, sess, sync.SchedulerConfig{
		Interval:  cfg.SyncInterval,
		RetryBase: cfg.RetryBase,
		RetryCap:  cfg.RetryCap,
	}, logger)

	return &App{
		Session:       sess,
		Highscores:    highscores,
		Stats:         local.NewStatRepository(store, nil),
		Resources:     local.NewResourceRepository(store, nil),
		Orchestrator:  orchestrator,
		Scheduler:     scheduler,
		highscoreSync: highscoreSync,
		store:         store,
		sessions:      sessions,
		logger:        logger,
	}, nil
}

// SetHighscore records a level result and syncs it at once when online
func (a *App) SetHighscore(ctx context.Context, levelID string, score int64) (bool, error) {
	return a.highscoreSync.SetHighscore(ctx, levelID, score)
}

// ClearDataAndLogout wipes every local row and cursor and forgets the session.
// Nothing is touched unless confirmed. Background sync stops for this App.
func (a *App) ClearDataAndLogout(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	// проход, завершившийся после очистки, вернул бы удаленные строки
	a.Orchestrator.Close()

	if err := a.store.Wipe(ctx); err != nil {
		return fmt.Errorf("failed to clear local data: %w", err)
	}
	if err := a.Session.Forget(ctx); err != nil {
		return fmt.Errorf("failed to forget session: %w", err)
	}

	a.logger.Info("Local data cleared and session closed")
	return nil
}

// Close waits for running syncs and closes the stores
func (a *App) Close() error {
	a.Orchestrator.Close()

	return errors.Join(a.sessions.Close(), a.store.Close())
}
