package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/gamesync/internal/models"
	"github.com/iudanet/gamesync/internal/server/storage"
	"github.com/iudanet/gamesync/pkg/api"
)

// FixConflicts обрабатывает POST /api/v1/resources/conflicts
func (h *SyncHandler) FixConflicts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.ConflictFixRequest
	if err := decodeRequest(w, r, h.validate, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid conflict fix request", "error", err)
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	fix := &storage.ConflictFix{
		Conflicts:  make(map[string]models.ConflictRecord, len(req.Conflicts)),
		KeepClient: req.KeepClient,
	}
	for id, c := range req.Conflicts {
		fix.Conflicts[id] = models.ConflictRecord{
			ResourceID:       id,
			FromRevision:     c.FromRevision,
			FromDate:         c.FromDate,
			LatestServerDate: c.LatestServerDate,
		}
	}
	for _, e := range req.Resources {
		if _, ok := req.Conflicts[e.ID]; !ok {
			sendError(h.logger, w, "resource "+e.ID+" is not in conflict", http.StatusBadRequest)
			return
		}
		if err := validateResourceEntry(e); err != nil {
			sendError(h.logger, w, err.Error(), http.StatusBadRequest)
			return
		}
		fix.Resources = append(fix.Resources, fromResourceEntry(e))
	}

	now := h.now()
	result, err := h.storage.FixConflicts(ctx, userID, fix, now)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to fix conflicts", "user_id", userID, "error", err)
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.ConflictFixResponse{NewSyncDate: now, Status: api.ConflictFixStatusOK}
	if result.Changed {
		resp.Status = api.ConflictFixStatusConflict
	} else {
		resp.Accepted = result.Accepted
		resp.ResourcesToRemove = result.Remove
		if len(result.Download) > 0 {
			resp.BlobsToDownload = make(map[string][]api.RevisionRef, len(result.Download))
			for id, refs := range result.Download {
				for _, ref := range refs {
					resp.BlobsToDownload[id] = append(resp.BlobsToDownload[id], api.RevisionRef{
						Revision:  ref.Revision,
						CreatedAt: ref.CreatedAt,
					})
				}
			}
		}
	}

	h.logger.InfoContext(ctx, "Conflict fix completed",
		"user_id", userID,
		"keep_client", req.KeepClient,
		"status", resp.Status,
		"conflicts", len(req.Conflicts))

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// GetRevision обрабатывает GET /api/v1/resources/{id}/revisions/{revision}
func (h *SyncHandler) GetRevision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	resourceID := chi.URLParam(r, "id")
	revision, err := strconv.ParseInt(chi.URLParam(r, "revision"), 10, 64)
	if err != nil || revision < 1 {
		sendError(h.logger, w, "invalid revision", http.StatusBadRequest)
		return
	}

	blob, err := h.storage.GetRevision(ctx, userID, resourceID, revision)
	if err != nil {
		if errors.Is(err, storage.ErrRevisionNotFound) {
			sendError(h.logger, w, "revision not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "Failed to load revision", "resource_id", resourceID, "revision", revision, "error", err)
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.DebugContext(ctx, "Revision downloaded", slog.String("resource_id", resourceID), slog.Int64("revision", revision))

	sendJSON(h.logger, w, api.RevisionBlob{
		ResourceID: blob.ResourceID,
		Kind:       string(blob.Kind),
		Name:       blob.Name,
		Content:    blob.Content,
		Revision:   blob.Revision,
		CreatedAt:  blob.CreatedAt,
	}, http.StatusOK)
}
