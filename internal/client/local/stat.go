package local

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/gamesync/internal/client/storage"
	"github.com/iudanet/gamesync/internal/models"
	"github.com/iudanet/gamesync/internal/validation"
)

// StatRepository счетчики и события уровней
type StatRepository struct {
	store storage.StatStorage
	now   func() time.Time
}

// NewStatRepository creates the repository. A nil clock means time.Now.
func NewStatRepository(store storage.StatStorage, clock func() time.Time) *StatRepository {
	if clock == nil {
		clock = time.Now
	}
	return &StatRepository{store: store, now: clock}
}

// IncreasePlayCount records one play of the level and updates last played
func (r *StatRepository) IncreasePlayCount(ctx context.Context, levelID string) (*models.Stat, error) {
	return r.increment(ctx, levelID, models.CounterPlays, 1)
}

// IncreaseDeathCount records one death on the level
func (r *StatRepository) IncreaseDeathCount(ctx context.Context, levelID string) (*models.Stat, error) {
	return r.increment(ctx, levelID, models.CounterDeaths, 1)
}

// AdjustBookmarks добавляет закладку (delta > 0) или снимает ее (delta < 0)
func (r *StatRepository) AdjustBookmarks(ctx context.Context, levelID string, delta int64) (*models.Stat, error) {
	if delta == 0 {
		return nil, fmt.Errorf("bookmark delta must not be zero")
	}
	return r.increment(ctx, levelID, models.CounterBookmarks, delta)
}

func (r *StatRepository) increment(ctx context.Context, levelID string, counter models.StatCounter, delta int64) (*models.Stat, error) {
	if err := validation.ValidateLevelID(levelID); err != nil {
		return nil, err
	}

	st, err := r.store.IncrementCounter(ctx, levelID, counter, delta, r.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to increment %s: %w", counter, err)
	}
	return st, nil
}

// RecordEvent сохраняет событие (тег) уровня, например "completed"
func (r *StatRepository) RecordEvent(ctx context.Context, levelID, event string) (*models.StatEvent, error) {
	if err := validation.ValidateLevelID(levelID); err != nil {
		return nil, err
	}
	if event == "" {
		return nil, fmt.Errorf("event cannot be empty")
	}

	e := &models.StatEvent{
		ID:        uuid.New().String(),
		LevelID:   levelID,
		Event:     event,
		CreatedAt: r.now().UTC(),
	}
	if err := r.store.AddEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to record event: %w", err)
	}
	return e, nil
}

// Get returns storage.ErrNotFound when the level was never played
func (r *StatRepository) Get(ctx context.Context, levelID string) (*models.Stat, error) {
	return r.store.GetStat(ctx, levelID)
}

// List returns stats of every level
func (r *StatRepository) List(ctx context.Context) ([]*models.Stat, error) {
	return r.store.ListStats(ctx)
}
