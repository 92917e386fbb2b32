package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/iudanet/gamesync/internal/models"
	"github.com/iudanet/gamesync/internal/server/storage"
	"github.com/iudanet/gamesync/internal/validation"
	"github.com/iudanet/gamesync/pkg/api"
)

// SyncStorage объединяет хранилища всех доменов
type SyncStorage interface {
	storage.HighscoreStorage
	storage.StatStorage
	storage.ResourceStorage
}

// SyncHandler handles synchronization requests
type SyncHandler struct {
	logger   *slog.Logger
	storage  SyncStorage
	validate *validator.Validate
	now      func() time.Time
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(logger *slog.Logger, storage SyncStorage, validate *validator.Validate) *SyncHandler {
	return &SyncHandler{
		logger:   logger,
		storage:  storage,
		validate: validate,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// HandleSync обрабатывает POST /api/v1/sync/{domain}.
// NewSyncDate берется из часов сервера: клиент хранит его как курсор домена.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "User ID not found in context")
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	domain := models.Domain(chi.URLParam(r, "domain"))
	if !domain.Valid() {
		sendError(h.logger, w, "unknown domain", http.StatusNotFound)
		return
	}

	var req api.SyncRequest
	if err := decodeRequest(w, r, h.validate, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid sync request", "domain", domain, "error", err)
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	now := h.now()
	resp := &api.SyncResponse{NewSyncDate: now, Status: api.SyncStatusOK}

	var err error
	switch domain {
	case models.DomainHighscores:
		err = h.syncHighscores(r, userID, &req, resp)
	case models.DomainStats:
		err = h.syncStats(r, userID, &req, resp)
	case models.DomainResources:
		err = h.syncResources(r, userID, &req, resp)
	}

	if err != nil {
		var reqErr requestError
		if errors.As(err, &reqErr) {
			sendError(h.logger, w, reqErr.Error(), http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "Failed to apply sync request", "domain", domain, "user_id", userID, "error", err)
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "Sync completed",
		"domain", domain,
		"user_id", userID,
		"status", resp.Status,
		"conflicts", len(resp.Conflicts))

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// requestError ошибка содержимого запроса, а не сервера
type requestError string

func (e requestError) Error() string { return string(e) }

func (h *SyncHandler) syncHighscores(r *http.Request, userID string, req *api.SyncRequest, resp *api.SyncResponse) error {
	scores := make([]*models.Highscore, 0, len(req.Highscores))
	for _, e := range req.Highscores {
		if err := validation.ValidateLevelID(e.LevelID); err != nil {
			return requestError(err.Error())
		}
		scores = append(scores, &models.Highscore{LevelID: e.LevelID, Score: e.Score, Revision: e.Revision})
	}

	merged, err := h.storage.MergeHighscores(r.Context(), userID, scores, req.LastSyncDate, resp.NewSyncDate)
	if err != nil {
		return err
	}

	for _, m := range merged {
		resp.Highscores = append(resp.Highscores, api.HighscoreEntry{LevelID: m.LevelID, Score: m.Score})
	}
	return nil
}

func (h *SyncHandler) syncStats(r *http.Request, userID string, req *api.SyncRequest, resp *api.SyncResponse) error {
	if req.DeviceID == "" && len(req.Stats) > 0 {
		return requestError("device_id is required for stats")
	}

	batch := &storage.StatBatch{DeviceID: req.DeviceID}
	for _, e := range req.Stats {
		if err := validation.ValidateLevelID(e.LevelID); err != nil {
			return requestError(err.Error())
		}
		batch.Deltas = append(batch.Deltas, &models.PendingStat{
			LevelID:        e.LevelID,
			Revision:       e.Revision,
			PlaysDelta:     e.Plays,
			DeathsDelta:    e.Deaths,
			BookmarksDelta: e.Bookmarks,
			LastPlayed:     e.LastPlayed,
		})
	}
	for _, e := range req.Events {
		batch.Events = append(batch.Events, &models.StatEvent{
			ID:        e.ID,
			LevelID:   e.LevelID,
			Event:     e.Event,
			CreatedAt: e.CreatedAt,
		})
	}

	totals, err := h.storage.ApplyStats(r.Context(), userID, batch, req.LastSyncDate, resp.NewSyncDate)
	if err != nil {
		return err
	}

	for _, t := range totals {
		resp.Stats = append(resp.Stats, api.StatEntry{
			LevelID:    t.LevelID,
			Plays:      t.Plays,
			Deaths:     t.Deaths,
			Bookmarks:  t.Bookmarks,
			LastPlayed: t.LastPlayed,
		})
	}
	return nil
}

func (h *SyncHandler) syncResources(r *http.Request, userID string, req *api.SyncRequest, resp *api.SyncResponse) error {
	resources := make([]*models.Resource, 0, len(req.Resources))
	for _, e := range req.Resources {
		if err := validateResourceEntry(e); err != nil {
			return requestError(err.Error())
		}
		resources = append(resources, fromResourceEntry(e))
	}

	result, err := h.storage.SyncResources(r.Context(), userID, resources, req.LastSyncDate, resp.NewSyncDate)
	if err != nil {
		return err
	}

	for _, res := range result.Resources {
		resp.Resources = append(resp.Resources, toResourceEntry(res))
	}
	resp.Removed = result.Removed

	for _, c := range result.Conflicts {
		resp.Conflicts = append(resp.Conflicts, api.ConflictRecord{
			ResourceID:       c.ResourceID,
			FromRevision:     c.FromRevision,
			FromDate:         c.FromDate,
			LatestServerDate: c.LatestServerDate,
		})
	}
	if len(resp.Conflicts) > 0 {
		resp.Status = api.SyncStatusConflicted
	}
	return nil
}

// validateResourceEntry проверяет имя и размер; у удаления проверять нечего
func validateResourceEntry(e api.ResourceEntry) error {
	if e.Deleted {
		return nil
	}
	if err := validation.ValidateResourceName(e.Name); err != nil {
		return err
	}
	return validation.ValidateResourceContent(e.Content)
}

func fromResourceEntry(e api.ResourceEntry) *models.Resource {
	res := &models.Resource{
		ID:           e.ID,
		Kind:         models.ResourceKind(e.Kind),
		Name:         e.Name,
		Revision:     e.Revision,
		BaseRevision: e.BaseRevision,
		LastModified: e.UpdatedAt,
		Deleted:      e.Deleted,
	}
	if !e.Deleted {
		res.Content = e.Content
	}
	return res
}

func toResourceEntry(r *models.Resource) api.ResourceEntry {
	return api.ResourceEntry{
		ID:           r.ID,
		Kind:         string(r.Kind),
		Name:         r.Name,
		Content:      r.Content,
		Revision:     r.Revision,
		BaseRevision: r.BaseRevision,
		UpdatedAt:    r.LastModified,
	}
}
