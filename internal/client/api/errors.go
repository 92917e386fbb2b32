package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Ошибки удаленного шлюза
var (
	// ErrConnectionFailed транспорт не смог доставить запрос или получить ответ
	ErrConnectionFailed = errors.New("connection failed")

	// ErrServerError сервер вернул 5xx или ответ, который не удалось разобрать
	ErrServerError = errors.New("server error")

	// ErrNotLoggedIn сервер отверг токен доступа
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrRejected сервер отклонил сам запрос (4xx); повтор того же запроса не поможет
	ErrRejected = errors.New("request rejected")
)

// StatusError non-2xx HTTP reply
type StatusError struct {
	Message string
	Code    int
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Message)
}

// classify maps a transport error to the gateway taxonomy
func classify(err error) (FailureReason, error) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code == http.StatusUnauthorized:
			return ReasonNotLoggedIn, fmt.Errorf("%w: %w", ErrNotLoggedIn, err)
		case rejected(statusErr.Code):
			return ReasonRejected, fmt.Errorf("%w: %w", ErrRejected, err)
		}
		return ReasonServerError, fmt.Errorf("%w: %w", ErrServerError, err)
	}
	return ReasonConnection, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
}

// rejected 4xx, кроме ответов, которые проходят со временем
func rejected(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return code >= 400 && code < 500
}

// authError marks transport failures of auth calls. A status reply keeps its
// own message: 401 here means bad credentials, not an expired session.
func authError(err error) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
}
