package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/iudanet/gamesync/internal/client/api"
	"github.com/iudanet/gamesync/internal/client/storage"
	"github.com/iudanet/gamesync/internal/validation"
	pkgapi "github.com/iudanet/gamesync/pkg/api"
)

//go:generate moq -out authenticator_mock.go . Authenticator

// Authenticator серверная часть аутентификации (реализуется api.Gateway)
type Authenticator interface {
	Register(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.RegisterResponse, error)
	Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.TokenResponse, error)
	Ping(ctx context.Context) error
}

// Service провайдер сессии: кто вошел и доступна ли сеть.
// Состояние сети хранится в памяти и обновляется пробой и результатами синхронизации.
type Service struct {
	auth   Authenticator
	store  storage.SessionStorage
	logger *slog.Logger
	now    func() time.Time
	online atomic.Bool
}

// NewService создает провайдер сессии. Клиент считается онлайн до первой неудачи.
func NewService(auth Authenticator, store storage.SessionStorage, logger *slog.Logger) *Service {
	s := &Service{
		auth:   auth,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	s.online.Store(true)
	return s
}

// Register регистрирует нового игрока. Вход не выполняется.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return "", fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.auth.Register(ctx, pkgapi.RegisterRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("registration failed: %w", err)
	}

	s.logger.Info("Player registered", "username", username, "user_id", resp.UserID)
	return resp.UserID, nil
}

// Login authenticates against the server and stores the session
func (s *Service) Login(ctx context.Context, username, password string) (*storage.Session, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}

	resp, err := s.auth.Login(ctx, pkgapi.LoginRequest{Username: username, Password: password})
	if err != nil {
		if errors.Is(err, api.ErrConnectionFailed) {
			s.SetOnline(false)
		}
		return nil, fmt.Errorf("login failed: %w", err)
	}
	s.SetOnline(true)

	session := &storage.Session{
		Username:    username,
		UserID:      resp.UserID,
		AccessToken: resp.AccessToken,
	}
	if resp.ExpiresIn > 0 {
		session.ExpiresAt = s.now().Add(time.Duration(resp.ExpiresIn) * time.Second).UTC()
	}

	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("Player logged in", "username", username)
	return session, nil
}

// Logout удаляет локальную сессию. Игровые данные не трогает.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.DeleteSession(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Current returns the stored session, or ErrNotLoggedIn when there is none or it expired
func (s *Service) Current(ctx context.Context) (*storage.Session, error) {
	session, err := s.store.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, api.ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	if session.Expired(s.now()) {
		return nil, api.ErrNotLoggedIn
	}

	return session, nil
}

// IsLoggedIn reports whether a valid session exists
func (s *Service) IsLoggedIn(ctx context.Context) bool {
	_, err := s.Current(ctx)
	return err == nil
}

// AccessToken returns the bearer token of the current session
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	session, err := s.Current(ctx)
	if err != nil {
		return "", err
	}
	return session.AccessToken, nil
}

// DeviceID returns the installation id sent with counter deltas
func (s *Service) DeviceID(ctx context.Context) (string, error) {
	id, err := s.store.DeviceID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read device id: %w", err)
	}
	return id, nil
}

// Forget logs out and rotates the device id. Used when local data is wiped.
func (s *Service) Forget(ctx context.Context) error {
	if err := s.Logout(ctx); err != nil {
		return err
	}
	if err := s.store.ResetDeviceID(ctx); err != nil {
		return fmt.Errorf("failed to reset device id: %w", err)
	}
	return nil
}

// IsOnline reports the last known connectivity
func (s *Service) IsOnline() bool {
	return s.online.Load()
}

// SetOnline updates the connectivity flag, logging transitions
func (s *Service) SetOnline(online bool) {
	if s.online.Swap(online) != online {
		s.logger.Info("Connectivity changed", "online", online)
	}
}

// Probe pings the server and updates the connectivity flag
func (s *Service) Probe(ctx context.Context) bool {
	err := s.auth.Ping(ctx)
	online := err == nil || !errors.Is(err, api.ErrConnectionFailed)
	s.SetOnline(online)
	return online
}
