package local

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/gamesync/internal/client/storage"
	"github.com/iudanet/gamesync/internal/models"
	"github.com/iudanet/gamesync/internal/validation"
)

// HighscoreRepository рекорды уровней для игрового кода
type HighscoreRepository struct {
	store storage.HighscoreStorage
	now   func() time.Time
}

// NewHighscoreRepository creates the repository. A nil clock means time.Now.
func NewHighscoreRepository(store storage.HighscoreStorage, clock func() time.Time) *HighscoreRepository {
	if clock == nil {
		clock = time.Now
	}
	return &HighscoreRepository{store: store, now: clock}
}

// IsNewHighscore is true iff no row exists for the level or score is strictly greater
func (r *HighscoreRepository) IsNewHighscore(ctx context.Context, levelID string, score int64) (bool, error) {
	h, err := r.store.GetHighscore(ctx, levelID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}
	return h.Beats(score), nil
}

// SetHighscore stores score if it is new. Returns false and writes nothing otherwise.
func (r *HighscoreRepository) SetHighscore(ctx context.Context, levelID string, score int64) (bool, error) {
	if err := validation.ValidateLevelID(levelID); err != nil {
		return false, err
	}

	// проверка и запись в одной транзакции хранилища
	written, err := r.store.SetHighscoreIfHigher(ctx, levelID, score, r.now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to set highscore: %w", err)
	}
	return written, nil
}

// Get returns storage.ErrNotFound when the level has no highscore
func (r *HighscoreRepository) Get(ctx context.Context, levelID string) (*models.Highscore, error) {
	return r.store.GetHighscore(ctx, levelID)
}

// List returns every highscore
func (r *HighscoreRepository) List(ctx context.Context) ([]*models.Highscore, error) {
	return r.store.ListHighscores(ctx)
}
