package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gamesync/internal/models"
	"github.com/iudanet/gamesync/internal/server/storage"
	"github.com/iudanet/gamesync/internal/server/storage/sqlite"
	"github.com/iudanet/gamesync/internal/validation"
	"github.com/iudanet/gamesync/pkg/api"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// setupSyncHandler поднимает handler поверх настоящего sqlite хранилища
// с управляемыми часами
func setupSyncHandler(t *testing.T) (*SyncHandler, string, *time.Time) {
	t.Helper()

	ctx := context.Background()
	s, err := sqlite.New(ctx, filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     "player",
		PasswordHash: "hash",
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	require.NoError(t, s.CreateUser(ctx, user))

	clock := testNow
	h := NewSyncHandler(setupTestLogger(), s, NewValidator())
	h.now = func() time.Time { return clock }

	return h, user.ID, &clock
}

func doSync(t *testing.T, h *SyncHandler, userID, domain string, req any) *httptest.ResponseRecorder {
	t.Helper()

	r := newJSONRequest(t, http.MethodPost, "/api/v1/sync/"+domain, req, userID)
	r = withURLParams(r, map[string]string{"domain": domain})

	w := httptest.NewRecorder()
	h.HandleSync(w, r)
	return w
}

func TestSyncHandler_HandleSync_Rejects(t *testing.T) {
	h, userID, _ := setupSyncHandler(t)

	tests := []struct {
		body       any
		name       string
		userID     string
		domain     string
		wantStatus int
	}{
		{name: "no user in context", domain: "highscores", body: api.SyncRequest{}, wantStatus: http.StatusUnauthorized},
		{name: "unknown domain", userID: userID, domain: "achievements", body: api.SyncRequest{}, wantStatus: http.StatusNotFound},
		{name: "invalid json", userID: userID, domain: "highscores", body: "{", wantStatus: http.StatusBadRequest},
		{
			name:   "invalid level id",
			userID: userID,
			domain: "highscores",
			body: api.SyncRequest{
				Highscores: []api.HighscoreEntry{{LevelID: "bad level/id", Score: 1, Revision: 1}},
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "stats without device",
			userID: userID,
			domain: "stats",
			body: api.SyncRequest{
				Stats: []api.StatEntry{{LevelID: "L1", Plays: 1, Revision: 1}},
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "resource with unknown kind",
			userID: userID,
			domain: "resources",
			body: api.SyncRequest{
				Resources: []api.ResourceEntry{{ID: "r1", Kind: "music", Name: "x", Revision: 1}},
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "resource over the content limit",
			userID: userID,
			domain: "resources",
			body: api.SyncRequest{
				Resources: []api.ResourceEntry{{
					ID:       "r1",
					Kind:     "level",
					Name:     "huge",
					Content:  make([]byte, validation.MaxResourceContentLen+1),
					Revision: 1,
				}},
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doSync(t, h, tt.userID, tt.domain, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			resp := decodeBody[api.ErrorResponse](t, w)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestSyncHandler_Highscores(t *testing.T) {
	h, userID, clock := setupSyncHandler(t)

	w := doSync(t, h, userID, "highscores", api.SyncRequest{
		Highscores: []api.HighscoreEntry{{LevelID: "L1", Score: 100, Revision: 1}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[api.SyncResponse](t, w)
	assert.Equal(t, api.SyncStatusOK, resp.Status)
	assert.True(t, testNow.Equal(resp.NewSyncDate))
	require.Len(t, resp.Highscores, 1)
	assert.Equal(t, int64(100), resp.Highscores[0].Score)

	// другое устройство присылает более низкий результат: сервер возвращает свой
	*clock = testNow.Add(time.Minute)
	w = doSync(t, h, userID, "highscores", api.SyncRequest{
		LastSyncDate: testNow.Add(time.Minute),
		Highscores:   []api.HighscoreEntry{{LevelID: "L1", Score: 40, Revision: 1}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp = decodeBody[api.SyncResponse](t, w)
	require.Len(t, resp.Highscores, 1)
	assert.Equal(t, int64(100), resp.Highscores[0].Score)
}

func TestSyncHandler_Stats(t *testing.T) {
	h, userID, _ := setupSyncHandler(t)

	req := api.SyncRequest{
		DeviceID: "phone",
		Stats:    []api.StatEntry{{LevelID: "L1", Plays: 2, Deaths: 1, Revision: 3, LastPlayed: testNow}},
		Events:   []api.StatEventEntry{{ID: uuid.New().String(), LevelID: "L1", Event: "completed", CreatedAt: testNow}},
	}

	// повторная доставка того же снимка не удваивает счетчики
	for i := 0; i < 2; i++ {
		w := doSync(t, h, userID, "stats", req)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[api.SyncResponse](t, w)
		require.Len(t, resp.Stats, 1)
		assert.Equal(t, int64(2), resp.Stats[0].Plays)
		assert.Equal(t, int64(1), resp.Stats[0].Deaths)
	}
}

func TestSyncHandler_ResourcesConflictAndFix(t *testing.T) {
	h, userID, clock := setupSyncHandler(t)

	castle := api.ResourceEntry{ID: uuid.New().String(), Kind: "level", Name: "castle", Content: []byte("v1"), Revision: 1}
	w := doSync(t, h, userID, "resources", api.SyncRequest{Resources: []api.ResourceEntry{castle}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, api.SyncStatusOK, decodeBody[api.SyncResponse](t, w).Status)

	// правка на основе ревизии 1 принимается
	*clock = testNow.Add(time.Minute)
	edit := castle
	edit.Content = []byte("v2")
	edit.Revision = 2
	edit.BaseRevision = 1
	w = doSync(t, h, userID, "resources", api.SyncRequest{Resources: []api.ResourceEntry{edit}})
	require.Equal(t, http.StatusOK, w.Code)

	// вторая правка на той же базе конфликтует
	*clock = testNow.Add(2 * time.Minute)
	stale := castle
	stale.Content = []byte("stale")
	stale.Revision = 2
	stale.BaseRevision = 1
	w = doSync(t, h, userID, "resources", api.SyncRequest{Resources: []api.ResourceEntry{stale}})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[api.SyncResponse](t, w)
	assert.Equal(t, api.SyncStatusConflicted, resp.Status)
	require.Len(t, resp.Conflicts, 1)
	conflict := resp.Conflicts[0]
	assert.Equal(t, castle.ID, conflict.ResourceID)
	assert.Equal(t, int64(2), conflict.FromRevision)

	t.Run("resource outside conflicts is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.FixConflicts(w, newJSONRequest(t, http.MethodPost, "/api/v1/resources/conflicts", api.ConflictFixRequest{
			Conflicts:  map[string]api.ConflictRecord{castle.ID: conflict},
			Resources:  []api.ResourceEntry{{ID: "other", Kind: "level", Name: "x", Revision: 1}},
			KeepClient: true,
		}, userID))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("keep server lists revisions to download", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.FixConflicts(w, newJSONRequest(t, http.MethodPost, "/api/v1/resources/conflicts", api.ConflictFixRequest{
			Conflicts: map[string]api.ConflictRecord{castle.ID: conflict},
		}, userID))
		require.Equal(t, http.StatusOK, w.Code)

		fix := decodeBody[api.ConflictFixResponse](t, w)
		assert.Equal(t, api.ConflictFixStatusOK, fix.Status)
		require.Len(t, fix.BlobsToDownload[castle.ID], 1)
		assert.Equal(t, int64(2), fix.BlobsToDownload[castle.ID][0].Revision)
	})

	t.Run("revision download", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := newJSONRequest(t, http.MethodGet, "/api/v1/resources/"+castle.ID+"/revisions/2", nil, userID)
		h.GetRevision(w, withURLParams(r, map[string]string{"id": castle.ID, "revision": "2"}))
		require.Equal(t, http.StatusOK, w.Code)

		blob := decodeBody[api.RevisionBlob](t, w)
		assert.Equal(t, []byte("v2"), blob.Content)
		assert.Equal(t, "castle", blob.Name)
	})

	t.Run("keep client writes a new head", func(t *testing.T) {
		*clock = testNow.Add(3 * time.Minute)
		stale.Revision = 3
		w := httptest.NewRecorder()
		h.FixConflicts(w, newJSONRequest(t, http.MethodPost, "/api/v1/resources/conflicts", api.ConflictFixRequest{
			Conflicts:  map[string]api.ConflictRecord{castle.ID: conflict},
			Resources:  []api.ResourceEntry{stale},
			KeepClient: true,
		}, userID))
		require.Equal(t, http.StatusOK, w.Code)

		fix := decodeBody[api.ConflictFixResponse](t, w)
		assert.Equal(t, api.ConflictFixStatusOK, fix.Status)
		assert.Equal(t, int64(3), fix.Accepted[castle.ID])
	})

	t.Run("stale conflict record reports a new conflict", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.FixConflicts(w, newJSONRequest(t, http.MethodPost, "/api/v1/resources/conflicts", api.ConflictFixRequest{
			Conflicts: map[string]api.ConflictRecord{castle.ID: conflict},
		}, userID))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, api.ConflictFixStatusConflict, decodeBody[api.ConflictFixResponse](t, w).Status)
	})
}

func TestSyncHandler_ResourceDeletion(t *testing.T) {
	h, userID, clock := setupSyncHandler(t)

	castle := api.ResourceEntry{ID: uuid.New().String(), Kind: "level", Name: "castle", Content: []byte("v1"), Revision: 1}
	w := doSync(t, h, userID, "resources", api.SyncRequest{Resources: []api.ResourceEntry{castle}})
	require.Equal(t, http.StatusOK, w.Code)

	*clock = testNow.Add(time.Minute)
	edit := castle
	edit.Content = []byte("v2")
	edit.Revision = 2
	edit.BaseRevision = 1
	w = doSync(t, h, userID, "resources", api.SyncRequest{Resources: []api.ResourceEntry{edit}})
	require.Equal(t, http.StatusOK, w.Code)

	// удаление без имени и содержимого, на базе, которую уже обогнали
	*clock = testNow.Add(2 * time.Minute)
	tomb := api.ResourceEntry{ID: castle.ID, Kind: "level", Revision: 2, BaseRevision: 1, Deleted: true}
	w = doSync(t, h, userID, "resources", api.SyncRequest{Resources: []api.ResourceEntry{tomb}})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[api.SyncResponse](t, w)
	assert.Equal(t, api.SyncStatusConflicted, resp.Status)
	require.Len(t, resp.Conflicts, 1)
	assert.Empty(t, resp.Removed)

	// пользователь настаивает на удалении
	w = httptest.NewRecorder()
	h.FixConflicts(w, newJSONRequest(t, http.MethodPost, "/api/v1/resources/conflicts", api.ConflictFixRequest{
		Conflicts:  map[string]api.ConflictRecord{castle.ID: resp.Conflicts[0]},
		Resources:  []api.ResourceEntry{tomb},
		KeepClient: true,
	}, userID))
	require.Equal(t, http.StatusOK, w.Code)

	fix := decodeBody[api.ConflictFixResponse](t, w)
	assert.Equal(t, api.ConflictFixStatusOK, fix.Status)
	assert.Equal(t, []string{castle.ID}, fix.ResourcesToRemove)
	assert.Empty(t, fix.Accepted)
}

func TestSyncHandler_GetRevision_Rejects(t *testing.T) {
	h, userID, _ := setupSyncHandler(t)

	tests := []struct {
		name       string
		revision   string
		wantStatus int
	}{
		{name: "not a number", revision: "latest", wantStatus: http.StatusBadRequest},
		{name: "zero", revision: "0", wantStatus: http.StatusBadRequest},
		{name: "missing", revision: "5", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := newJSONRequest(t, http.MethodGet, "/api/v1/resources/r1/revisions/"+tt.revision, nil, userID)
			h.GetRevision(w, withURLParams(r, map[string]string{"id": "r1", "revision": tt.revision}))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

// failingStorage отвечает ошибкой на любую операцию синхронизации
type failingStorage struct{}

var errStorageDown = errors.New("storage down")

func (failingStorage) MergeHighscores(ctx context.Context, userID string, scores []*models.Highscore, since, now time.Time) ([]*models.Highscore, error) {
	return nil, errStorageDown
}

func (failingStorage) ApplyStats(ctx context.Context, userID string, batch *storage.StatBatch, since, now time.Time) ([]*models.StatTotals, error) {
	return nil, errStorageDown
}

func (failingStorage) SyncResources(ctx context.Context, userID string, resources []*models.Resource, since, now time.Time) (*storage.ResourceSyncResult, error) {
	return nil, errStorageDown
}

func (failingStorage) FixConflicts(ctx context.Context, userID string, fix *storage.ConflictFix, now time.Time) (*storage.ConflictFixResult, error) {
	return nil, errStorageDown
}

func (failingStorage) GetRevision(ctx context.Context, userID, resourceID string, revision int64) (*models.RevisionBlob, error) {
	return nil, errStorageDown
}

func TestSyncHandler_StorageFailure(t *testing.T) {
	h := NewSyncHandler(setupTestLogger(), failingStorage{}, NewValidator())

	for _, domain := range []string{"highscores", "stats", "resources"} {
		t.Run(domain, func(t *testing.T) {
			w := doSync(t, h, "user-1", domain, api.SyncRequest{DeviceID: "d"})
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, "internal server error", decodeBody[api.ErrorResponse](t, w).Message)
		})
	}
}
