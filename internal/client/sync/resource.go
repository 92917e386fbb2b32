package sync

import (
	"context"
	"fmt"
	"log/slog"

	clientapi "github.com/iudanet/gamesync/internal/client/api"
	"github.com/iudanet/gamesync/internal/client/storage"
	"github.com/iudanet/gamesync/internal/models"
	"github.com/iudanet/gamesync/internal/validation"
	"github.com/iudanet/gamesync/pkg/api"
)

// ResourceDomain синхронизация пользовательских уровней и персонажей.
// Ресурс уходит целиком вместе с базовой ревизией; расхождение истории
// сервер возвращает как конфликт, остальные ресурсы при этом принимаются.
type ResourceDomain struct {
	domainBase
	store storage.ResourceStorage
}

var _ Domain = (*ResourceDomain)(nil)

// maxBatchContent предел суммарного содержимого одного запроса;
// вместе с base64 пачка остается в лимите тела запроса сервера
const maxBatchContent = 4 << 20

// NewResourceDomain creates the resources domain repository
func NewResourceDomain(store storage.ResourceStorage, gateway Gateway, session Session, logger *slog.Logger) *ResourceDomain {
	return &ResourceDomain{
		domainBase: domainBase{
			name:    models.DomainResources,
			gateway: gateway,
			session: session,
			logger:  logger,
		},
		store: store,
	}
}

// Sync runs one resources pass
func (d *ResourceDomain) Sync(ctx context.Context) Outcome {
	return d.run(ctx, d.pass)
}

func (d *ResourceDomain) pass(ctx context.Context, token string) Outcome {
	cursor, err := d.store.GetCursor(ctx, d.name)
	if err != nil {
		return storeFailure(d.name, "read cursor", err)
	}

	unsynced, err := d.store.ListUnsyncedResources(ctx)
	if err != nil {
		return storeFailure(d.name, "list unsynced resources", err)
	}

	batch := d.batch(unsynced)

	req := &api.SyncRequest{LastSyncDate: cursor}
	for _, r := range batch {
		req.Resources = append(req.Resources, toResourceEntry(r))
	}

	res, applyCtx, cancel := d.send(ctx, token, req)
	defer cancel()

	if res.Status == clientapi.StatusFailed {
		return d.failedResult(res, len(batch))
	}

	conflicts := make(map[string]models.ConflictRecord, len(res.Response.Conflicts))
	for _, c := range res.Response.Conflicts {
		conflicts[c.ResourceID] = models.ConflictRecord{
			ResourceID:       c.ResourceID,
			FromRevision:     c.FromRevision,
			FromDate:         c.FromDate,
			LatestServerDate: c.LatestServerDate,
		}
	}

	// конфликтные ресурсы остаются несинхронизированными
	acked := make([]*models.Resource, 0, len(batch))
	for _, r := range batch {
		if _, conflicted := conflicts[r.ID]; !conflicted {
			acked = append(acked, r)
		}
	}

	merged := make([]*models.Resource, 0, len(res.Response.Resources))
	for _, e := range res.Response.Resources {
		if _, conflicted := conflicts[e.ID]; conflicted {
			continue
		}
		r, err := fromResourceEntry(e)
		if err != nil {
			d.logger.Warn("Skipping invalid resource from server", "resource_id", e.ID, "error", err)
			continue
		}
		merged = append(merged, r)
	}

	if err := d.store.MarkResourcesSynced(applyCtx, acked, merged, res.Response.Removed, res.Response.NewSyncDate); err != nil {
		return storeFailure(d.name, "mark resources synced", err)
	}

	out := Outcome{
		Status:   OutcomeSucceeded,
		SyncDate: res.Response.NewSyncDate,
		Sent:     len(batch),
		Merged:   len(merged) + len(res.Response.Removed),
	}

	if len(conflicts) > 0 {
		out.Status = OutcomeConflicted
		out.Conflicts = conflicts
		out.Err = fmt.Errorf("%w: %d resources", ErrConflict, len(conflicts))
	}

	return out
}

// batch выбирает ресурсы для одного запроса. Содержимое пачки ограничено
// maxBatchContent, но хотя бы один ресурс уходит всегда; остальные
// уедут следующим проходом. Ресурс больше MaxResourceContentLen сервер
// не примет никогда, поэтому он остается только локальным.
func (d *ResourceDomain) batch(unsynced []*models.Resource) []*models.Resource {
	batch := make([]*models.Resource, 0, len(unsynced))
	var size int
	for _, r := range unsynced {
		var n int
		if !r.Deleted {
			if err := validation.ValidateResourceContent(r.Content); err != nil {
				d.logger.Warn("Resource is too large to sync", "resource_id", r.ID, "error", err)
				continue
			}
			n = len(r.Content)
		}
		if len(batch) > 0 && size+n > maxBatchContent {
			d.logger.Debug("Resource batch is full", "sent", len(batch), "pending", len(unsynced)-len(batch))
			break
		}
		size += n
		batch = append(batch, r)
	}
	return batch
}

func toResourceEntry(r *models.Resource) api.ResourceEntry {
	e := api.ResourceEntry{
		ID:           r.ID,
		Kind:         string(r.Kind),
		Name:         r.Name,
		Revision:     r.Revision,
		BaseRevision: r.BaseRevision,
		UpdatedAt:    r.LastModified,
		Deleted:      r.Deleted,
	}
	if !r.Deleted {
		e.Content = r.Content
	}
	return e
}

func fromResourceEntry(e api.ResourceEntry) (*models.Resource, error) {
	kind := models.ResourceKind(e.Kind)
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown resource kind %q", e.Kind)
	}
	return &models.Resource{
		ID:           e.ID,
		Kind:         kind,
		Name:         e.Name,
		Content:      e.Content,
		Revision:     e.Revision,
		BaseRevision: e.Revision,
		LastModified: e.UpdatedAt,
		Synced:       true,
	}, nil
}
