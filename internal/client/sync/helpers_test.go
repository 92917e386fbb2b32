package sync

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	clientapi "github.com/iudanet/gamesync/internal/client/api"
	"github.com/iudanet/gamesync/internal/client/storage/sqlite"
	"github.com/iudanet/gamesync/pkg/api"
)

var (
	testT1 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	testT2 = testT1.Add(time.Hour)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupStore(t *testing.T) *sqlite.Storage {
	t.Helper()

	s, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// testSession онлайн и залогинен по умолчанию
type testSession struct {
	mock     *SessionMock
	online   atomic.Bool
	loggedIn atomic.Bool
}

func newTestSession() *testSession {
	ts := &testSession{}
	ts.online.Store(true)
	ts.loggedIn.Store(true)

	ts.mock = &SessionMock{
		IsLoggedInFunc:  func(ctx context.Context) bool { return ts.loggedIn.Load() },
		IsOnlineFunc:    func() bool { return ts.online.Load() },
		SetOnlineFunc:   func(online bool) { ts.online.Store(online) },
		AccessTokenFunc: func(ctx context.Context) (string, error) { return "token", nil },
		DeviceIDFunc:    func(ctx context.Context) (string, error) { return "device-1", nil },
	}
	return ts
}

func okResult(resp *api.SyncResponse) clientapi.Result {
	if resp.Status == "" {
		resp.Status = api.SyncStatusOK
	}
	status := clientapi.StatusSucceeded
	if resp.Status == api.SyncStatusConflicted {
		status = clientapi.StatusConflicted
	}
	return clientapi.Result{Status: status, Response: resp}
}

func connectionFailed() clientapi.Result {
	return clientapi.Result{Status: clientapi.StatusFailed, Reason: clientapi.ReasonConnection, Err: clientapi.ErrConnectionFailed}
}

func serverError() clientapi.Result {
	return clientapi.Result{Status: clientapi.StatusFailed, Reason: clientapi.ReasonServerError, Err: clientapi.ErrServerError}
}

func rejectedResult() clientapi.Result {
	return clientapi.Result{Status: clientapi.StatusFailed, Reason: clientapi.ReasonRejected, Err: clientapi.ErrRejected}
}
