package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iudanet/gamesync/internal/models"
	"github.com/iudanet/gamesync/pkg/api"
)

// Status исход одного запроса синхронизации
type Status int

const (
	StatusSucceeded Status = iota
	StatusConflicted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusConflicted:
		return "conflicted"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailureReason причина неудачи при StatusFailed
type FailureReason int

const (
	ReasonNone FailureReason = iota
	ReasonNotLoggedIn
	ReasonServerError
	ReasonConnection
	ReasonRejected
)

func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNotLoggedIn:
		return "not_logged_in"
	case ReasonServerError:
		return "server_error"
	case ReasonConnection:
		return "connection"
	case ReasonRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Result of a single sync request. Response is set unless Status is StatusFailed;
// Err is set only when it is.
type Result struct {
	Response *api.SyncResponse
	Err      error
	Status   Status
	Reason   FailureReason
}

func failed(reason FailureReason, err error) Result {
	return Result{Status: StatusFailed, Reason: reason, Err: err}
}

// Gateway удаленный шлюз: сериализует запросы доменов и разбирает ответы.
// Повторов не делает.
type Gateway struct {
	transport Transport
	logger    *slog.Logger
}

// NewGateway creates a gateway over the given transport
func NewGateway(transport Transport, logger *slog.Logger) *Gateway {
	return &Gateway{
		transport: transport,
		logger:    logger,
	}
}

// Sync sends one request for the domain. Transport and server failures are
// reported in the Result, never retried.
func (g *Gateway) Sync(ctx context.Context, accessToken string, domain models.Domain, req *api.SyncRequest) Result {
	var resp api.SyncResponse
	if err := g.call(ctx, http.MethodPost, "/api/v1/sync/"+string(domain), accessToken, req, &resp); err != nil {
		reason, err := classify(err)
		g.logger.Debug("Sync request failed", "domain", domain, "reason", reason, "error", err)
		return failed(reason, err)
	}

	switch resp.Status {
	case api.SyncStatusOK:
		return Result{Status: StatusSucceeded, Response: &resp}
	case api.SyncStatusConflicted:
		return Result{Status: StatusConflicted, Response: &resp}
	default:
		return failed(ReasonServerError, fmt.Errorf("%w: unknown sync status %q", ErrServerError, resp.Status))
	}
}

// FixConflicts sends the user's decision for conflicted resources
func (g *Gateway) FixConflicts(ctx context.Context, accessToken string, req *api.ConflictFixRequest) (*api.ConflictFixResponse, error) {
	var resp api.ConflictFixResponse
	if err := g.call(ctx, http.MethodPost, "/api/v1/resources/conflicts", accessToken, req, &resp); err != nil {
		_, err = classify(err)
		return nil, fmt.Errorf("conflict fix request failed: %w", err)
	}
	return &resp, nil
}

// DownloadRevision fetches one stored revision of a resource
func (g *Gateway) DownloadRevision(ctx context.Context, accessToken, resourceID string, revision int64) (*api.RevisionBlob, error) {
	path := fmt.Sprintf("/api/v1/resources/%s/revisions/%s", url.PathEscape(resourceID), strconv.FormatInt(revision, 10))

	var blob api.RevisionBlob
	if err := g.call(ctx, http.MethodGet, path, accessToken, nil, &blob); err != nil {
		_, err = classify(err)
		return nil, fmt.Errorf("revision download failed: %w", err)
	}
	return &blob, nil
}

// Register регистрирует нового игрока
func (g *Gateway) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	if err := g.call(ctx, http.MethodPost, "/api/v1/auth/register", "", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", authError(err))
	}
	return &resp, nil
}

// Login выполняет аутентификацию и возвращает токен доступа
func (g *Gateway) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := g.call(ctx, http.MethodPost, "/api/v1/auth/login", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", authError(err))
	}
	return &resp, nil
}

// Ping reports whether the server is reachable
func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.call(ctx, http.MethodGet, "/health", "", nil, nil); err != nil {
		_, err = classify(err)
		return err
	}
	return nil
}

func (g *Gateway) call(ctx context.Context, method, path, token string, body, result any) error {
	req := &Request{Method: method, Path: path, Token: token}

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		req.Body = data
	}

	respBody, err := g.transport.RoundTrip(ctx, req)
	if err != nil {
		return err
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			// неразборчивый ответ приравнивается к ошибке сервера
			return &StatusError{Code: http.StatusBadGateway, Message: "undecodable response: " + err.Error()}
		}
	}

	return nil
}
