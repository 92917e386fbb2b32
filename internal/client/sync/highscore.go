package sync

import (
	"context"
	"log/slog"
	"sync/atomic"

	clientapi "github.com/iudanet/gamesync/internal/client/api"
	"github.com/iudanet/gamesync/internal/client/local"
	"github.com/iudanet/gamesync/internal/client/storage"
	"github.com/iudanet/gamesync/internal/models"
	"github.com/iudanet/gamesync/pkg/api"
)

// Triggerer запускает синхронизацию домена в фоне
type Triggerer interface {
	Trigger(domain models.Domain)
}

// HighscoreDomain синхронизация рекордов. Сервер хранит максимум, поэтому
// повторная доставка безопасна сама по себе.
type HighscoreDomain struct {
	domainBase
	store   storage.HighscoreStorage
	repo    *local.HighscoreRepository
	trigger atomic.Pointer[Triggerer]
}

var _ Domain = (*HighscoreDomain)(nil)

// NewHighscoreDomain creates the highscore domain repository
func NewHighscoreDomain(store storage.HighscoreStorage, repo *local.HighscoreRepository, gateway Gateway, session Session, logger *slog.Logger) *HighscoreDomain {
	return &HighscoreDomain{
		domainBase: domainBase{
			name:    models.DomainHighscores,
			gateway: gateway,
			session: session,
			logger:  logger,
		},
		store: store,
		repo:  repo,
	}
}

// BindTrigger sets where immediate syncs are sent
func (d *HighscoreDomain) BindTrigger(t Triggerer) {
	d.trigger.Store(&t)
}

// SetHighscore stores a new highscore and, when online, syncs it right away
func (d *HighscoreDomain) SetHighscore(ctx context.Context, levelID string, score int64) (bool, error) {
	written, err := d.repo.SetHighscore(ctx, levelID, score)
	if err != nil || !written {
		return written, err
	}

	if t := d.trigger.Load(); t != nil && d.session.IsOnline() {
		(*t).Trigger(models.DomainHighscores)
	}

	return true, nil
}

// Sync runs one highscore pass
func (d *HighscoreDomain) Sync(ctx context.Context) Outcome {
	return d.run(ctx, d.pass)
}

func (d *HighscoreDomain) pass(ctx context.Context, token string) Outcome {
	cursor, err := d.store.GetCursor(ctx, d.name)
	if err != nil {
		return storeFailure(d.name, "read cursor", err)
	}

	unsynced, err := d.store.ListUnsyncedHighscores(ctx)
	if err != nil {
		return storeFailure(d.name, "list unsynced highscores", err)
	}

	req := &api.SyncRequest{LastSyncDate: cursor}
	for _, h := range unsynced {
		req.Highscores = append(req.Highscores, api.HighscoreEntry{
			LevelID:  h.LevelID,
			Score:    h.Score,
			Revision: h.Revision,
		})
	}

	res, applyCtx, cancel := d.send(ctx, token, req)
	defer cancel()

	if res.Status == clientapi.StatusFailed {
		return d.failedResult(res, len(unsynced))
	}

	merged := make([]*models.Highscore, 0, len(res.Response.Highscores))
	for _, e := range res.Response.Highscores {
		merged = append(merged, &models.Highscore{
			LevelID:      e.LevelID,
			Score:        e.Score,
			LastModified: res.Response.NewSyncDate,
		})
	}

	if err := d.store.MarkHighscoresSynced(applyCtx, unsynced, merged, res.Response.NewSyncDate); err != nil {
		return storeFailure(d.name, "mark highscores synced", err)
	}

	return Outcome{
		Status:   OutcomeSucceeded,
		SyncDate: res.Response.NewSyncDate,
		Sent:     len(unsynced),
		Merged:   len(merged),
	}
}
