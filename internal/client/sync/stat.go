package sync

import (
	"context"
	"log/slog"
	"time"

	clientapi "github.com/iudanet/gamesync/internal/client/api"
	"github.com/iudanet/gamesync/internal/client/storage"
	"github.com/iudanet/gamesync/internal/models"
	"github.com/iudanet/gamesync/pkg/api"
)

// StatDomain синхронизация счетчиков и событий уровней.
// Счетчики уходят дельтами с ревизией снимка: сервер отбрасывает
// повторно доставленную ревизию, поэтому повтор не удваивает итог.
type StatDomain struct {
	domainBase
	store          storage.StatStorage
	now            func() time.Time
	eventRetention time.Duration
}

var _ Domain = (*StatDomain)(nil)

// NewStatDomain creates the stats domain repository. Synced events older than
// eventRetention are pruned after each successful pass; zero disables pruning.
func NewStatDomain(store storage.StatStorage, gateway Gateway, session Session, eventRetention time.Duration, logger *slog.Logger) *StatDomain {
	return &StatDomain{
		domainBase: domainBase{
			name:    models.DomainStats,
			gateway: gateway,
			session: session,
			logger:  logger,
		},
		store:          store,
		now:            time.Now,
		eventRetention: eventRetention,
	}
}

// Sync runs one stats pass
func (d *StatDomain) Sync(ctx context.Context) Outcome {
	return d.run(ctx, d.pass)
}

func (d *StatDomain) pass(ctx context.Context, token string) Outcome {
	cursor, err := d.store.GetCursor(ctx, d.name)
	if err != nil {
		return storeFailure(d.name, "read cursor", err)
	}

	deviceID, err := d.session.DeviceID(ctx)
	if err != nil {
		return storeFailure(d.name, "read device id", err)
	}

	// закрепленный снимок переживает неудачные попытки и отправляется без изменений
	pending, err := d.store.ClaimUnsyncedStats(ctx)
	if err != nil {
		return storeFailure(d.name, "claim unsynced stats", err)
	}

	events, err := d.store.ListUnsyncedEvents(ctx)
	if err != nil {
		return storeFailure(d.name, "list unsynced events", err)
	}

	req := &api.SyncRequest{LastSyncDate: cursor, DeviceID: deviceID}
	for _, p := range pending {
		req.Stats = append(req.Stats, api.StatEntry{
			LevelID:    p.LevelID,
			Revision:   p.Revision,
			Plays:      p.PlaysDelta,
			Deaths:     p.DeathsDelta,
			Bookmarks:  p.BookmarksDelta,
			LastPlayed: p.LastPlayed,
		})
	}

	eventIDs := make([]string, 0, len(events))
	for _, e := range events {
		req.Events = append(req.Events, api.StatEventEntry{
			ID:        e.ID,
			LevelID:   e.LevelID,
			Event:     e.Event,
			CreatedAt: e.CreatedAt,
		})
		eventIDs = append(eventIDs, e.ID)
	}

	res, applyCtx, cancel := d.send(ctx, token, req)
	defer cancel()

	if res.Status == clientapi.StatusFailed {
		return d.failedResult(res, len(pending)+len(events))
	}

	totals := make([]*models.StatTotals, 0, len(res.Response.Stats))
	for _, e := range res.Response.Stats {
		totals = append(totals, &models.StatTotals{
			LevelID:    e.LevelID,
			Plays:      e.Plays,
			Deaths:     e.Deaths,
			Bookmarks:  e.Bookmarks,
			LastPlayed: e.LastPlayed,
		})
	}

	if err := d.store.MarkStatsSynced(applyCtx, pending, totals, eventIDs, res.Response.NewSyncDate); err != nil {
		return storeFailure(d.name, "mark stats synced", err)
	}

	if d.eventRetention > 0 {
		pruned, err := d.store.PruneEvents(applyCtx, d.now().Add(-d.eventRetention))
		if err != nil {
			d.logger.Warn("Failed to prune synced events", "error", err)
		} else if pruned > 0 {
			d.logger.Debug("Pruned synced events", "count", pruned)
		}
	}

	return Outcome{
		Status:   OutcomeSucceeded,
		SyncDate: res.Response.NewSyncDate,
		Sent:     len(pending) + len(events),
		Merged:   len(totals),
	}
}
