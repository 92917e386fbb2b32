package sqlite

import (
	"context"
	"testing"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gamesync/internal/models"
	"github.com/iudanet/gamesync/internal/server/storage"
)

func newResource(id string, revision, base int64, content string) *models.Resource {
	return &models.Resource{
		ID:           id,
		Kind:         models.ResourceKindLevel,
		Name:         "castle",
		Content:      []byte(content),
		Revision:     revision,
		BaseRevision: base,
	}
}

// deletion удаление ресурса, сделанное поверх ревизии base
func deletion(id string, base int64) *models.Resource {
	return &models.Resource{
		ID:           id,
		Kind:         models.ResourceKindLevel,
		Revision:     base + 1,
		BaseRevision: base,
		Deleted:      true,
	}
}

func TestStorage_SyncResources_AcceptAndConflict(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, s, "player")
	id := uuid.New().String()

	// первая загрузка
	res, err := s.SyncResources(ctx, userID, []*models.Resource{newResource(id, 1, 0, "v1")}, testT1, testT1)
	require.NoError(t, err)
	require.Len(t, res.Resources, 1)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, int64(1), res.Resources[0].Revision)

	// правка на основе ревизии 1
	res, err = s.SyncResources(ctx, userID, []*models.Resource{newResource(id, 3, 1, "v3")}, testT1, testT2)
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)

	// другое устройство все еще на ревизии 1
	res, err = s.SyncResources(ctx, userID, []*models.Resource{newResource(id, 2, 1, "stale")}, testT1, testT3)
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, id, res.Conflicts[0].ResourceID)
	assert.Equal(t, int64(2), res.Conflicts[0].FromRevision)
	assert.True(t, testT2.Equal(res.Conflicts[0].FromDate))
	assert.True(t, testT2.Equal(res.Conflicts[0].LatestServerDate))

	// конфликтная запись не сохранена
	_, err = s.GetRevision(ctx, userID, id, 2)
	assert.ErrorIs(t, err, storage.ErrRevisionNotFound)

	blob, err := s.GetRevision(ctx, userID, id, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte("v3"), blob.Content)
}

func TestStorage_SyncResources_Redelivery(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, s, "player")
	id := uuid.New().String()
	r := newResource(id, 1, 0, "v1")

	_, err := s.SyncResources(ctx, userID, []*models.Resource{r}, testT1, testT1)
	require.NoError(t, err)

	// ответ потерялся: тот же запрос еще раз
	res, err := s.SyncResources(ctx, userID, []*models.Resource{r}, testT1, testT2)
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)
	require.Len(t, res.Resources, 1)

	// та же ревизия с другим содержимым - конфликт
	res, err = s.SyncResources(ctx, userID, []*models.Resource{newResource(id, 1, 0, "other")}, testT1, testT3)
	require.NoError(t, err)
	assert.Len(t, res.Conflicts, 1)
}

func TestStorage_SyncResources_PartialAcceptance(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, s, "player")
	stale := uuid.New().String()
	fresh := uuid.New().String()

	_, err := s.SyncResources(ctx, userID, []*models.Resource{newResource(stale, 2, 0, "server")}, testT1, testT1)
	require.NoError(t, err)

	res, err := s.SyncResources(ctx, userID, []*models.Resource{
		newResource(stale, 3, 1, "client"),
		newResource(fresh, 1, 0, "new"),
	}, testT2, testT2)
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, stale, res.Conflicts[0].ResourceID)
	require.Len(t, res.Resources, 1)
	assert.Equal(t, fresh, res.Resources[0].ID)

	blob, err := s.GetRevision(ctx, userID, fresh, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), blob.Content)
}

func TestStorage_SyncResources_DeletionsAndChanges(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, s, "player")
	kept := uuid.New().String()
	gone := uuid.New().String()

	_, err := s.SyncResources(ctx, userID, []*models.Resource{
		newResource(kept, 1, 0, "kept"),
		newResource(gone, 1, 0, "gone"),
	}, testT1, testT1)
	require.NoError(t, err)

	res, err := s.SyncResources(ctx, userID, []*models.Resource{deletion(gone, 1)}, testT1, testT2)
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, []string{gone}, res.Removed)

	// удаление идемпотентно, неизвестный id игнорируется
	res, err = s.SyncResources(ctx, userID, []*models.Resource{deletion(gone, 1), deletion("unknown", 3)}, testT1, testT2)
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)

	// новое устройство получает все с нулевого курсора
	zero := testT1.AddDate(-1, 0, 0)
	res, err = s.SyncResources(ctx, userID, nil, zero, testT3)
	require.NoError(t, err)
	require.Len(t, res.Resources, 1)
	assert.Equal(t, kept, res.Resources[0].ID)
	assert.Equal(t, []byte("kept"), res.Resources[0].Content)
	assert.Equal(t, []string{gone}, res.Removed)

	// правка удаленного ресурса на старой базе - конфликт
	res, err = s.SyncResources(ctx, userID, []*models.Resource{newResource(gone, 2, 1, "edit")}, testT3, testT3)
	require.NoError(t, err)
	assert.Len(t, res.Conflicts, 1)
}

func TestStorage_SyncResources_StaleDeletionConflicts(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, s, "player")
	id := uuid.New().String()

	_, err := s.SyncResources(ctx, userID, []*models.Resource{newResource(id, 1, 0, "v1")}, testT1, testT1)
	require.NoError(t, err)
	// другое устройство правит ресурс
	_, err = s.SyncResources(ctx, userID, []*models.Resource{newResource(id, 2, 1, "v2")}, testT1, testT2)
	require.NoError(t, err)

	// устройство, видевшее только v1, удаляет ресурс
	res, err := s.SyncResources(ctx, userID, []*models.Resource{deletion(id, 1)}, testT1, testT3)
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, id, res.Conflicts[0].ResourceID)
	assert.Equal(t, int64(2), res.Conflicts[0].FromRevision)
	assert.Empty(t, res.Removed)

	// правка на месте
	blob, err := s.GetRevision(ctx, userID, id, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), blob.Content)

	// удаление на актуальной базе принимается
	res, err = s.SyncResources(ctx, userID, []*models.Resource{deletion(id, 2)}, testT3, testT3)
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, []string{id}, res.Removed)
}

func TestStorage_FixConflicts(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Storage, string, string, models.ConflictRecord) {
		s, cleanup := setupTestStorage(t)
		t.Cleanup(cleanup)

		userID := createTestUser(t, s, "player")
		id := uuid.New().String()

		_, err := s.SyncResources(ctx, userID, []*models.Resource{newResource(id, 1, 0, "r1")}, testT1, testT1)
		require.NoError(t, err)
		_, err = s.SyncResources(ctx, userID, []*models.Resource{newResource(id, 2, 1, "r2")}, testT1, testT2)
		require.NoError(t, err)

		res, err := s.SyncResources(ctx, userID, []*models.Resource{newResource(id, 2, 1, "mine")}, testT1, testT2)
		require.NoError(t, err)
		require.Len(t, res.Conflicts, 1)

		return s, userID, id, *res.Conflicts[0]
	}

	t.Run("keep server lists revisions to download", func(t *testing.T) {
		s, userID, id, conflict := setup(t)

		result, err := s.FixConflicts(ctx, userID, &storage.ConflictFix{
			Conflicts: map[string]models.ConflictRecord{id: conflict},
		}, testT3)
		require.NoError(t, err)
		assert.False(t, result.Changed)
		require.Len(t, result.Download[id], 1)
		assert.Equal(t, int64(2), result.Download[id][0].Revision)
		assert.Empty(t, result.Accepted)
	})

	t.Run("keep client stores a new leading revision", func(t *testing.T) {
		s, userID, id, conflict := setup(t)

		result, err := s.FixConflicts(ctx, userID, &storage.ConflictFix{
			Conflicts:  map[string]models.ConflictRecord{id: conflict},
			Resources:  []*models.Resource{newResource(id, 2, 1, "mine")},
			KeepClient: true,
		}, testT3)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{id: 3}, result.Accepted)

		blob, err := s.GetRevision(ctx, userID, id, 3)
		require.NoError(t, err)
		assert.Equal(t, []byte("mine"), blob.Content)

		// следующая правка на базе 3 принимается
		res, err := s.SyncResources(ctx, userID, []*models.Resource{newResource(id, 4, 3, "next")}, testT3, testT3)
		require.NoError(t, err)
		assert.Empty(t, res.Conflicts)
	})

	t.Run("server moved on after detection", func(t *testing.T) {
		s, userID, id, conflict := setup(t)

		_, err := s.SyncResources(ctx, userID, []*models.Resource{newResource(id, 3, 2, "r3")}, testT2, testT3)
		require.NoError(t, err)

		result, err := s.FixConflicts(ctx, userID, &storage.ConflictFix{
			Conflicts:  map[string]models.ConflictRecord{id: conflict},
			Resources:  []*models.Resource{newResource(id, 2, 1, "mine")},
			KeepClient: true,
		}, testT3)
		require.NoError(t, err)
		assert.True(t, result.Changed)
		assert.Empty(t, result.Accepted)

		_, err = s.GetRevision(ctx, userID, id, 4)
		assert.ErrorIs(t, err, storage.ErrRevisionNotFound)
	})

	t.Run("keep server for a deleted resource removes it", func(t *testing.T) {
		s, userID, id, _ := setup(t)

		_, err := s.SyncResources(ctx, userID, []*models.Resource{deletion(id, 2)}, testT2, testT3)
		require.NoError(t, err)

		res, err := s.SyncResources(ctx, userID, []*models.Resource{newResource(id, 2, 1, "mine")}, testT2, testT3)
		require.NoError(t, err)
		require.Len(t, res.Conflicts, 1)

		result, err := s.FixConflicts(ctx, userID, &storage.ConflictFix{
			Conflicts: map[string]models.ConflictRecord{id: *res.Conflicts[0]},
		}, testT3)
		require.NoError(t, err)
		assert.Equal(t, []string{id}, result.Remove)
	})

	t.Run("keep client for a local deletion deletes on the server", func(t *testing.T) {
		s, userID, id, _ := setup(t)

		res, err := s.SyncResources(ctx, userID, []*models.Resource{deletion(id, 1)}, testT2, testT2)
		require.NoError(t, err)
		require.Len(t, res.Conflicts, 1)

		result, err := s.FixConflicts(ctx, userID, &storage.ConflictFix{
			Conflicts:  map[string]models.ConflictRecord{id: *res.Conflicts[0]},
			Resources:  []*models.Resource{deletion(id, 1)},
			KeepClient: true,
		}, testT3)
		require.NoError(t, err)
		assert.False(t, result.Changed)
		assert.Empty(t, result.Accepted)
		assert.Equal(t, []string{id}, result.Remove)

		// ресурс не воскресает у других устройств
		res, err = s.SyncResources(ctx, userID, nil, testT3, testT3)
		require.NoError(t, err)
		assert.Empty(t, res.Resources)
		assert.Equal(t, []string{id}, res.Removed)
	})
}

func TestStorage_RevisionContentIsCompressed(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, s, "player")
	id := uuid.New().String()
	content := make([]byte, 4096)

	_, err := s.SyncResources(ctx, userID, []*models.Resource{newResource(id, 1, 0, string(content))}, testT1, testT1)
	require.NoError(t, err)

	var stored []byte
	require.NoError(t, s.DB().QueryRowContext(ctx,
		`SELECT content FROM resource_revisions WHERE resource_id = ?`, id).Scan(&stored))
	assert.Less(t, len(stored), len(content))

	decoded, err := snappy.Decode(nil, stored)
	require.NoError(t, err)
	assert.Equal(t, content, decoded)
}
