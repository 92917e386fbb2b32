package server

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gamesync/internal/client/app"
	clientsync "github.com/iudanet/gamesync/internal/client/sync"
	"github.com/iudanet/gamesync/internal/config"
	"github.com/iudanet/gamesync/internal/models"
	"github.com/iudanet/gamesync/internal/server/jwt"
	"github.com/iudanet/gamesync/internal/server/storage/sqlite"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	srv := httptest.NewServer(NewRouter(discardLogger(), store, jwt.NewService("test-secret", time.Hour), "test", 0))
	t.Cleanup(srv.Close)
	return srv
}

func newDevice(t *testing.T, serverURL string) *app.App {
	t.Helper()

	cfg := config.DefaultClient()
	cfg.DataDir = t.TempDir()
	cfg.ServerURL = serverURL
	cfg.RequestTimeout = 5 * time.Second

	a, err := app.New(context.Background(), cfg, nil, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func syncAll(t *testing.T, a *app.App) clientsync.Report {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report, err := a.Orchestrator.SyncAll().Wait(ctx)
	require.NoError(t, err)
	return report
}

func TestServer_TwoDevicesConverge(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)

	phone := newDevice(t, srv.URL)
	_, err := phone.Session.Register(ctx, "player1", "password123")
	require.NoError(t, err)
	_, err = phone.Session.Login(ctx, "player1", "password123")
	require.NoError(t, err)

	_, err = phone.SetHighscore(ctx, "L1", 100)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = phone.Stats.IncreasePlayCount(ctx, "L1")
		require.NoError(t, err)
	}
	castle, err := phone.Resources.Create(ctx, models.ResourceKindLevel, "castle", []byte("v1"))
	require.NoError(t, err)

	report := syncAll(t, phone)
	require.NoError(t, report.Err())

	laptop := newDevice(t, srv.URL)
	_, err = laptop.Session.Login(ctx, "player1", "password123")
	require.NoError(t, err)

	report = syncAll(t, laptop)
	require.NoError(t, report.Err())

	h, err := laptop.Highscores.Get(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), h.Score)

	st, err := laptop.Stats.Get(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.Plays.Total)

	res, err := laptop.Resources.Get(ctx, castle.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), res.Content)

	// счетчики с двух устройств складываются
	_, err = laptop.Stats.IncreasePlayCount(ctx, "L1")
	require.NoError(t, err)
	require.NoError(t, syncAll(t, laptop).Err())
	require.NoError(t, syncAll(t, phone).Err())

	st, err = phone.Stats.Get(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.Plays.Total)
	assert.True(t, st.Synced)
}

func TestServer_ResourceConflictKeepServer(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)

	phone := newDevice(t, srv.URL)
	_, err := phone.Session.Register(ctx, "player1", "password123")
	require.NoError(t, err)
	_, err = phone.Session.Login(ctx, "player1", "password123")
	require.NoError(t, err)

	castle, err := phone.Resources.Create(ctx, models.ResourceKindLevel, "castle", []byte("v1"))
	require.NoError(t, err)
	require.NoError(t, syncAll(t, phone).Err())

	laptop := newDevice(t, srv.URL)
	_, err = laptop.Session.Login(ctx, "player1", "password123")
	require.NoError(t, err)
	require.NoError(t, syncAll(t, laptop).Err())

	// обе копии правятся на одной базе
	_, err = phone.Resources.Update(ctx, castle.ID, "castle", []byte("phone-edit"))
	require.NoError(t, err)
	_, err = laptop.Resources.Update(ctx, castle.ID, "castle", []byte("laptop-edit"))
	require.NoError(t, err)

	require.NoError(t, syncAll(t, phone).Err())

	report := syncAll(t, laptop)
	require.NoError(t, report.Err(), "conflicts are not failures")
	conflicts := report.Conflicts()
	require.Contains(t, conflicts, castle.ID)

	_, err = laptop.Orchestrator.Resolve(ctx, false, conflicts)
	require.NoError(t, err)

	res, err := laptop.Resources.Get(ctx, castle.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("phone-edit"), res.Content)
	assert.True(t, res.Synced)
}

func TestServer_ResourceConflictKeepClient(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)

	phone := newDevice(t, srv.URL)
	_, err := phone.Session.Register(ctx, "player1", "password123")
	require.NoError(t, err)
	_, err = phone.Session.Login(ctx, "player1", "password123")
	require.NoError(t, err)

	castle, err := phone.Resources.Create(ctx, models.ResourceKindLevel, "castle", []byte("v1"))
	require.NoError(t, err)
	require.NoError(t, syncAll(t, phone).Err())

	laptop := newDevice(t, srv.URL)
	_, err = laptop.Session.Login(ctx, "player1", "password123")
	require.NoError(t, err)
	require.NoError(t, syncAll(t, laptop).Err())

	_, err = phone.Resources.Update(ctx, castle.ID, "castle", []byte("phone-edit"))
	require.NoError(t, err)
	require.NoError(t, syncAll(t, phone).Err())

	_, err = laptop.Resources.Update(ctx, castle.ID, "castle", []byte("laptop-edit"))
	require.NoError(t, err)
	conflicts := syncAll(t, laptop).Conflicts()
	require.Contains(t, conflicts, castle.ID)

	_, err = laptop.Orchestrator.Resolve(ctx, true, conflicts)
	require.NoError(t, err)

	// ноутбук после решения синхронизируется без нового конфликта
	report := syncAll(t, laptop)
	require.NoError(t, report.Err())
	assert.Empty(t, report.Conflicts())

	_, err = laptop.Resources.Update(ctx, castle.ID, "castle", []byte("laptop-next"))
	require.NoError(t, err)
	report = syncAll(t, laptop)
	require.NoError(t, report.Err())
	assert.Empty(t, report.Conflicts())

	// телефон получает версию ноутбука как обычное изменение
	require.NoError(t, syncAll(t, phone).Err())
	res, err := phone.Resources.Get(ctx, castle.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("laptop-next"), res.Content)
}

func TestServer_StaleDeletionConflicts(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)

	phone := newDevice(t, srv.URL)
	_, err := phone.Session.Register(ctx, "player1", "password123")
	require.NoError(t, err)
	_, err = phone.Session.Login(ctx, "player1", "password123")
	require.NoError(t, err)

	castle, err := phone.Resources.Create(ctx, models.ResourceKindLevel, "castle", []byte("v1"))
	require.NoError(t, err)
	require.NoError(t, syncAll(t, phone).Err())

	laptop := newDevice(t, srv.URL)
	_, err = laptop.Session.Login(ctx, "player1", "password123")
	require.NoError(t, err)
	require.NoError(t, syncAll(t, laptop).Err())

	_, err = laptop.Resources.Update(ctx, castle.ID, "castle", []byte("laptop-edit"))
	require.NoError(t, err)
	require.NoError(t, syncAll(t, laptop).Err())

	// телефон удаляет версию, которую ноутбук уже обогнал
	require.NoError(t, phone.Resources.Delete(ctx, castle.ID))
	conflicts := syncAll(t, phone).Conflicts()
	require.Contains(t, conflicts, castle.ID)

	// правка ноутбука цела
	require.NoError(t, syncAll(t, laptop).Err())
	res, err := laptop.Resources.Get(ctx, castle.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("laptop-edit"), res.Content)

	// пользователь телефона настаивает на удалении
	_, err = phone.Orchestrator.Resolve(ctx, true, conflicts)
	require.NoError(t, err)

	report := syncAll(t, laptop)
	require.NoError(t, report.Err())
	_, err = laptop.Resources.Get(ctx, castle.ID)
	assert.Error(t, err, "deletion reaches the other device")

	report = syncAll(t, phone)
	require.NoError(t, report.Err())
	assert.Empty(t, report.Conflicts())
}
