package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gamesync/internal/models"
)

var (
	testT1 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	testT2 = testT1.Add(time.Minute)
	testT3 = testT2.Add(time.Minute)
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	t.Helper()

	s, err := New(context.Background(), filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	require.NotNil(t, s)

	cleanup := func() {
		require.NoError(t, s.Close())
	}

	return s, cleanup
}

// createTestUser создает пользователя, к которому привязаны данные синхронизации
func createTestUser(t *testing.T, s *Storage, username string) string {
	t.Helper()

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: "hash",
		CreatedAt:    testT1,
		UpdatedAt:    testT1,
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user.ID
}
