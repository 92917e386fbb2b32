package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/gamesync/internal/client/storage"
	"github.com/iudanet/gamesync/internal/models"
	"github.com/iudanet/gamesync/pkg/api"
)

// ErrConflictChanged состояние сервера снова изменилось между обнаружением
// конфликта и его исправлением. Вместо угадывания слияния нужен полный проход.
var ErrConflictChanged = errors.New("conflict changed during resolution")

// Resolution результат исправления конфликтов
type Resolution struct {
	SyncDate time.Time
	Accepted []string // Accepted копии клиента, ставшие ведущими ревизиями
	Replaced []string // Replaced локальные копии, замененные серверными
	Removed  []string
}

// Resolver выполняет выбранную пользователем ветку. Сам он никогда не выбирает.
type Resolver struct {
	store   storage.ResourceStorage
	gateway Gateway
	session Session
	logger  *slog.Logger
}

// NewResolver creates a conflict resolver
func NewResolver(store storage.ResourceStorage, gateway Gateway, session Session, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:   store,
		gateway: gateway,
		session: session,
		logger:  logger,
	}
}

// Resolve applies the decision to every conflicted resource.
// keepClient re-submits the local copies as new leading revisions, and a local
// deletion deletes the resource on the server; otherwise local copies are
// replaced by the server's latest revision exactly.
func (r *Resolver) Resolve(ctx context.Context, keepClient bool, conflicts map[string]models.ConflictRecord) (*Resolution, error) {
	if len(conflicts) == 0 {
		return &Resolution{}, nil
	}

	token, err := r.session.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	cursor, err := r.store.GetCursor(ctx, models.DomainResources)
	if err != nil {
		return nil, fmt.Errorf("failed to read cursor: %w", err)
	}

	req := &api.ConflictFixRequest{
		LastSync:   cursor,
		KeepClient: keepClient,
		Conflicts:  make(map[string]api.ConflictRecord, len(conflicts)),
	}
	for id, c := range conflicts {
		req.Conflicts[id] = api.ConflictRecord{
			ResourceID:       id,
			FromRevision:     c.FromRevision,
			FromDate:         c.FromDate,
			LatestServerDate: c.LatestServerDate,
		}
	}

	// копии, отправленные серверу, по id
	sent := make(map[string]*models.Resource, len(conflicts))
	if keepClient {
		for id := range conflicts {
			res, err := r.store.GetResource(ctx, id)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					// локальной копии уже нет: оставлять нечего
					continue
				}
				return nil, fmt.Errorf("failed to read resource %s: %w", id, err)
			}
			sent[id] = res
			req.Resources = append(req.Resources, toResourceEntry(res))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	applyCtx, cancel := detach(ctx)
	defer cancel()

	resp, err := r.gateway.FixConflicts(applyCtx, token, req)
	if err != nil {
		return nil, fmt.Errorf("failed to fix conflicts: %w", err)
	}

	if resp.Status == api.ConflictFixStatusConflict {
		r.logger.Info("Server state changed during conflict fix", "conflicts", len(conflicts))
		return nil, ErrConflictChanged
	}

	result := &Resolution{SyncDate: resp.NewSyncDate}

	for id, revision := range resp.Accepted {
		if err := r.applyAccepted(applyCtx, sent[id], id, revision); err != nil {
			return nil, err
		}
		result.Accepted = append(result.Accepted, id)
	}

	for id, refs := range resp.BlobsToDownload {
		if err := r.replaceWithServer(applyCtx, token, id, refs); err != nil {
			return nil, err
		}
		result.Replaced = append(result.Replaced, id)
	}

	for _, id := range resp.ResourcesToRemove {
		if err := r.store.PurgeResource(applyCtx, id); err != nil {
			return nil, fmt.Errorf("failed to remove resource %s: %w", id, err)
		}
		result.Removed = append(result.Removed, id)
	}

	r.logger.Info("Conflicts resolved",
		"keep_client", keepClient,
		"accepted", len(result.Accepted),
		"replaced", len(result.Replaced),
		"removed", len(result.Removed))

	return result, nil
}

// applyAccepted makes the accepted server revision the local base.
// An edit or a deletion made while the fix was in flight stays unsynced on top of it.
func (r *Resolver) applyAccepted(ctx context.Context, sent *models.Resource, id string, revision int64) error {
	current, err := r.store.GetResource(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to read resource %s: %w", id, err)
	}

	if current.Deleted && sent != nil && sent.Deleted && current.Revision == sent.Revision {
		// сервер принял удаление: хранить больше нечего
		if err := r.store.PurgeResource(ctx, id); err != nil {
			return fmt.Errorf("failed to remove resource %s: %w", id, err)
		}
		return nil
	}

	updated := current.Clone()
	updated.BaseRevision = revision

	if sent != nil && current.Revision == sent.Revision {
		updated.Revision = revision
		updated.Synced = true
	} else {
		updated.Revision = revision + 1
		updated.Synced = false
	}

	if err := r.store.ReplaceResource(ctx, updated); err != nil {
		return fmt.Errorf("failed to apply accepted revision of %s: %w", id, err)
	}
	return nil
}

// replaceWithServer downloads the latest listed revision and overwrites the local copy
func (r *Resolver) replaceWithServer(ctx context.Context, token, id string, refs []api.RevisionRef) error {
	if len(refs) == 0 {
		return fmt.Errorf("no revisions listed for resource %s", id)
	}

	latest := refs[0]
	for _, ref := range refs[1:] {
		if ref.Revision > latest.Revision {
			latest = ref
		}
	}

	blob, err := r.gateway.DownloadRevision(ctx, token, id, latest.Revision)
	if err != nil {
		return fmt.Errorf("failed to download resource %s: %w", id, err)
	}

	res, err := fromResourceEntry(api.ResourceEntry{
		ID:        id,
		Kind:      blob.Kind,
		Name:      blob.Name,
		Content:   blob.Content,
		Revision:  blob.Revision,
		UpdatedAt: blob.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("invalid revision blob for %s: %w", id, err)
	}

	if err := r.store.ReplaceResource(ctx, res); err != nil {
		return fmt.Errorf("failed to replace resource %s: %w", id, err)
	}
	return nil
}
