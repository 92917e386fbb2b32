package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gamesync/internal/models"
)

func scoresByLevel(rows []*models.Highscore) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, h := range rows {
		out[h.LevelID] = h.Score
	}
	return out
}

func TestStorage_MergeHighscores(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, s, "player")

	// устройство A
	rows, err := s.MergeHighscores(ctx, userID, []*models.Highscore{
		{LevelID: "L1", Score: 100},
		{LevelID: "L2", Score: 50},
	}, testT1.Add(-1), testT1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"L1": 100, "L2": 50}, scoresByLevel(rows))

	// устройство B с более низким результатом на L1 и новым уровнем
	rows, err = s.MergeHighscores(ctx, userID, []*models.Highscore{
		{LevelID: "L1", Score: 80},
		{LevelID: "L3", Score: 7},
	}, testT1.Add(-1), testT2)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"L1": 100, "L2": 50, "L3": 7}, scoresByLevel(rows))

	// повторная отправка ничего не меняет
	rows, err = s.MergeHighscores(ctx, userID, []*models.Highscore{{LevelID: "L1", Score: 100}}, testT3, testT3)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"L1": 100}, scoresByLevel(rows), "only submitted levels when nothing changed since")

	// курсор устройства A видит только L3
	rows, err = s.MergeHighscores(ctx, userID, nil, testT2, testT3)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"L3": 7}, scoresByLevel(rows))
}

func TestStorage_MergeHighscores_UsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")

	_, err := s.MergeHighscores(ctx, alice, []*models.Highscore{{LevelID: "L1", Score: 10}}, testT1, testT1)
	require.NoError(t, err)

	rows, err := s.MergeHighscores(ctx, bob, nil, testT1.Add(-1), testT2)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
