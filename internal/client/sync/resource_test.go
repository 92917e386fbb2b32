package sync

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clientapi "github.com/iudanet/gamesync/internal/client/api"
	"github.com/iudanet/gamesync/internal/client/local"
	"github.com/iudanet/gamesync/internal/models"
	"github.com/iudanet/gamesync/internal/validation"
	"github.com/iudanet/gamesync/pkg/api"
)

// fakeResourceServer хранит ревизии ресурсов и сообщает о расхождении базовой ревизии
type fakeResourceServer struct {
	history   map[string][]api.ResourceEntry
	removed   []string
	fixStatus api.ConflictFixStatus
}

func newFakeResourceServer() *fakeResourceServer {
	return &fakeResourceServer{history: make(map[string][]api.ResourceEntry)}
}

func (s *fakeResourceServer) latest(id string) *api.ResourceEntry {
	revs := s.history[id]
	if len(revs) == 0 {
		return nil
	}
	return &revs[len(revs)-1]
}

// put stores a revision as if another device uploaded it
func (s *fakeResourceServer) put(e api.ResourceEntry) {
	s.history[e.ID] = append(s.history[e.ID], e)
}

func (s *fakeResourceServer) gateway() *GatewayMock {
	return &GatewayMock{
		SyncFunc: func(ctx context.Context, token string, domain models.Domain, req *api.SyncRequest) clientapi.Result {
			resp := &api.SyncResponse{NewSyncDate: testT2, Status: api.SyncStatusOK, Removed: s.removed}
			s.removed = nil

			for _, e := range req.Resources {
				cur := s.latest(e.ID)
				var curRev int64
				if cur != nil {
					curRev = cur.Revision
				}

				if e.Deleted {
					if cur == nil || cur.Deleted {
						continue
					}
					if e.BaseRevision != curRev {
						resp.Conflicts = append(resp.Conflicts, api.ConflictRecord{
							ResourceID:       e.ID,
							FromRevision:     e.BaseRevision + 1,
							FromDate:         testT1,
							LatestServerDate: testT2,
						})
						continue
					}
					s.put(e)
					continue
				}

				redelivered := cur != nil && cur.Revision == e.Revision && bytes.Equal(cur.Content, e.Content)
				if e.BaseRevision != curRev && !redelivered {
					resp.Conflicts = append(resp.Conflicts, api.ConflictRecord{
						ResourceID:       e.ID,
						FromRevision:     e.BaseRevision + 1,
						FromDate:         testT1,
						LatestServerDate: testT2,
					})
					continue
				}
				if !redelivered {
					s.put(e)
				}
				resp.Resources = append(resp.Resources, e)
			}

			if len(resp.Conflicts) > 0 {
				resp.Status = api.SyncStatusConflicted
			}
			return okResult(resp)
		},
		FixConflictsFunc: func(ctx context.Context, token string, req *api.ConflictFixRequest) (*api.ConflictFixResponse, error) {
			if s.fixStatus == api.ConflictFixStatusConflict {
				return &api.ConflictFixResponse{Status: api.ConflictFixStatusConflict}, nil
			}

			resp := &api.ConflictFixResponse{Status: api.ConflictFixStatusOK, NewSyncDate: testT2}
			if req.KeepClient {
				resp.Accepted = make(map[string]int64)
				for _, e := range req.Resources {
					e.Revision = s.latest(e.ID).Revision + 1
					s.put(e)
					if e.Deleted {
						resp.ResourcesToRemove = append(resp.ResourcesToRemove, e.ID)
						continue
					}
					resp.Accepted[e.ID] = e.Revision
				}
				return resp, nil
			}

			resp.BlobsToDownload = make(map[string][]api.RevisionRef)
			for id := range req.Conflicts {
				if cur := s.latest(id); cur == nil || cur.Deleted {
					resp.ResourcesToRemove = append(resp.ResourcesToRemove, id)
					continue
				}
				for _, e := range s.history[id] {
					if e.Deleted {
						continue
					}
					resp.BlobsToDownload[id] = append(resp.BlobsToDownload[id], api.RevisionRef{Revision: e.Revision, CreatedAt: e.UpdatedAt})
				}
			}
			return resp, nil
		},
		DownloadRevisionFunc: func(ctx context.Context, token, id string, revision int64) (*api.RevisionBlob, error) {
			for _, e := range s.history[id] {
				if e.Revision == revision {
					return &api.RevisionBlob{ResourceID: id, Kind: e.Kind, Name: e.Name, Content: e.Content, Revision: e.Revision}, nil
				}
			}
			return nil, fmt.Errorf("revision %d of %s: %w", revision, id, clientapi.ErrServerError)
		},
	}
}

func TestResourceDomain_PartialSuccess(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	repo := local.NewResourceRepository(store, nil)
	server := newFakeResourceServer()
	gw := server.gateway()
	d := NewResourceDomain(store, gw, newTestSession().mock, discardLogger())

	accepted, err := repo.Create(ctx, models.ResourceKindLevel, "accepted", []byte("a"))
	require.NoError(t, err)
	conflicted, err := repo.Create(ctx, models.ResourceKindActor, "conflicted", []byte("mine"))
	require.NoError(t, err)

	// другое устройство уже загрузило ресурс с тем же id
	server.put(api.ResourceEntry{ID: conflicted.ID, Kind: "actor", Name: "theirs", Content: []byte("theirs"), Revision: 3})

	out := d.Sync(ctx)
	require.Equal(t, OutcomeConflicted, out.Status)
	assert.ErrorIs(t, out.Err, ErrConflict)
	assert.False(t, out.Retryable())
	assert.Equal(t, StateConflicted, d.LastState())
	require.Contains(t, out.Conflicts, conflicted.ID)
	assert.Equal(t, int64(1), out.Conflicts[conflicted.ID].FromRevision)

	got, err := store.GetResource(ctx, accepted.ID)
	require.NoError(t, err)
	assert.True(t, got.Synced)
	assert.Equal(t, int64(1), got.BaseRevision)

	got, err = store.GetResource(ctx, conflicted.ID)
	require.NoError(t, err)
	assert.False(t, got.Synced)
	assert.Equal(t, []byte("mine"), got.Content)

	cursor, err := store.GetCursor(ctx, models.DomainResources)
	require.NoError(t, err)
	assert.True(t, testT2.Equal(cursor), "cursor advances on partial success")

	// без решения конфликт возвращается при следующем проходе
	out = d.Sync(ctx)
	assert.Equal(t, OutcomeConflicted, out.Status)
	assert.Len(t, out.Conflicts, 1)
}

func TestResourceDomain_FailureKeepsEverything(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	repo := local.NewResourceRepository(store, nil)
	gw := &GatewayMock{
		SyncFunc: func(ctx context.Context, token string, domain models.Domain, req *api.SyncRequest) clientapi.Result {
			return serverError()
		},
	}
	d := NewResourceDomain(store, gw, newTestSession().mock, discardLogger())

	res, err := repo.Create(ctx, models.ResourceKindLevel, "castle", []byte("v1"))
	require.NoError(t, err)

	before, err := store.ListUnsyncedResources(ctx)
	require.NoError(t, err)

	out := d.Sync(ctx)
	assert.Equal(t, OutcomeFailed, out.Status)
	assert.True(t, out.Retryable())

	after, err := store.ListUnsyncedResources(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	got, err := store.GetResource(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.BaseRevision)
}

func TestResourceDomain_RejectedIsNotRetryable(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	repo := local.NewResourceRepository(store, nil)
	gw := &GatewayMock{
		SyncFunc: func(ctx context.Context, token string, domain models.Domain, req *api.SyncRequest) clientapi.Result {
			return rejectedResult()
		},
	}
	d := NewResourceDomain(store, gw, newTestSession().mock, discardLogger())

	_, err := repo.Create(ctx, models.ResourceKindLevel, "castle", []byte("v1"))
	require.NoError(t, err)

	out := d.Sync(ctx)
	assert.Equal(t, OutcomeFailed, out.Status)
	assert.Equal(t, clientapi.ReasonRejected, out.Reason)
	assert.ErrorIs(t, out.Err, clientapi.ErrRejected)
	assert.False(t, out.Retryable())

	unsynced, err := store.ListUnsyncedResources(ctx)
	require.NoError(t, err)
	assert.Len(t, unsynced, 1)
}

func TestResourceDomain_DeletionAndRemoteChanges(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	repo := local.NewResourceRepository(store, nil)
	server := newFakeResourceServer()
	d := NewResourceDomain(store, server.gateway(), newTestSession().mock, discardLogger())

	mine, err := repo.Create(ctx, models.ResourceKindLevel, "mine", []byte("m"))
	require.NoError(t, err)
	doomed, err := repo.Create(ctx, models.ResourceKindLevel, "doomed", []byte("d"))
	require.NoError(t, err)
	require.Equal(t, OutcomeSucceeded, d.Sync(ctx).Status)

	// локальное удаление и удаление на другом устройстве
	require.NoError(t, repo.Delete(ctx, mine.ID))
	server.removed = []string{doomed.ID}

	require.Equal(t, OutcomeSucceeded, d.Sync(ctx).Status)
	require.NotNil(t, server.latest(mine.ID))
	assert.True(t, server.latest(mine.ID).Deleted)
	assert.Equal(t, int64(1), server.latest(mine.ID).BaseRevision, "deletion carries its base revision")
	assert.Empty(t, server.latest(mine.ID).Content)

	_, err = store.GetResource(ctx, mine.ID)
	assert.Error(t, err, "acknowledged tombstone is purged")
	_, err = store.GetResource(ctx, doomed.ID)
	assert.Error(t, err, "resource removed on another device is removed locally")
}

func TestResourceDomain_StaleDeletionConflicts(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	repo := local.NewResourceRepository(store, nil)
	server := newFakeResourceServer()
	d := NewResourceDomain(store, server.gateway(), newTestSession().mock, discardLogger())

	res, err := repo.Create(ctx, models.ResourceKindLevel, "castle", []byte("v1"))
	require.NoError(t, err)
	require.Equal(t, OutcomeSucceeded, d.Sync(ctx).Status)

	// другое устройство правит ресурс, а это устройство удаляет старую версию
	server.put(api.ResourceEntry{ID: res.ID, Kind: "level", Name: "castle", Content: []byte("v2"), Revision: 2, BaseRevision: 1})
	require.NoError(t, repo.Delete(ctx, res.ID))

	out := d.Sync(ctx)
	require.Equal(t, OutcomeConflicted, out.Status)
	require.Contains(t, out.Conflicts, res.ID)
	assert.Equal(t, []byte("v2"), server.latest(res.ID).Content, "remote edit survives")

	tomb, err := store.GetResource(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, tomb.Deleted)
	assert.False(t, tomb.Synced)
}

func TestResourceDomain_BatchLimits(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	server := newFakeResourceServer()
	gw := server.gateway()
	d := NewResourceDomain(store, gw, newTestSession().mock, discardLogger())

	// ресурсы, созданные в обход проверки размера
	huge := &models.Resource{ID: "huge", Kind: models.ResourceKindLevel, Name: "huge", Content: make([]byte, validation.MaxResourceContentLen+1), Revision: 1}
	var big []*models.Resource
	for i := 0; i < 5; i++ {
		big = append(big, &models.Resource{
			ID:       fmt.Sprintf("big-%d", i),
			Kind:     models.ResourceKindLevel,
			Name:     "big",
			Content:  make([]byte, validation.MaxResourceContentLen),
			Revision: 1,
		})
	}
	require.NoError(t, store.ReplaceResource(ctx, huge))
	for _, r := range big {
		require.NoError(t, store.ReplaceResource(ctx, r))
	}

	out := d.Sync(ctx)
	require.Equal(t, OutcomeSucceeded, out.Status)
	assert.Equal(t, maxBatchContent/validation.MaxResourceContentLen, out.Sent)

	out = d.Sync(ctx)
	require.Equal(t, OutcomeSucceeded, out.Status)
	assert.Equal(t, len(big)-maxBatchContent/validation.MaxResourceContentLen, out.Sent)

	for _, call := range gw.SyncCalls() {
		for _, e := range call.Req.Resources {
			assert.NotEqual(t, huge.ID, e.ID, "oversized resource is never sent")
		}
	}

	left, err := store.ListUnsyncedResources(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, huge.ID, left[0].ID)
}
