package sync

import (
	"context"

	clientapi "github.com/iudanet/gamesync/internal/client/api"
	"github.com/iudanet/gamesync/internal/models"
	"github.com/iudanet/gamesync/pkg/api"
)

//go:generate moq -out gateway_mock.go . Gateway

// Gateway удаленный шлюз (реализуется clientapi.Gateway)
type Gateway interface {
	Sync(ctx context.Context, accessToken string, domain models.Domain, req *api.SyncRequest) clientapi.Result
	FixConflicts(ctx context.Context, accessToken string, req *api.ConflictFixRequest) (*api.ConflictFixResponse, error)
	DownloadRevision(ctx context.Context, accessToken, resourceID string, revision int64) (*api.RevisionBlob, error)
}

//go:generate moq -out session_mock.go . Session

// Session провайдер сессии (реализуется session.Service)
type Session interface {
	IsLoggedIn(ctx context.Context) bool
	IsOnline() bool
	SetOnline(online bool)
	AccessToken(ctx context.Context) (string, error)
	DeviceID(ctx context.Context) (string, error)
}

// ConflictPolicy решение пользователя по конфликтам ресурсов.
// ok == false означает, что решения пока нет: конфликтные ресурсы остаются
// несинхронизированными и конфликт вернется при следующей синхронизации.
type ConflictPolicy interface {
	Decide(ctx context.Context, conflicts map[string]models.ConflictRecord) (keepClient bool, ok bool)
}

// ConflictPolicyFunc adapts a function to ConflictPolicy
type ConflictPolicyFunc func(ctx context.Context, conflicts map[string]models.ConflictRecord) (bool, bool)

// Decide calls f(ctx, conflicts)
func (f ConflictPolicyFunc) Decide(ctx context.Context, conflicts map[string]models.ConflictRecord) (bool, bool) {
	return f(ctx, conflicts)
}
