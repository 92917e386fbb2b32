package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iudanet/gamesync/pkg/api"
)

// Request сериализованный запрос к серверу
type Request struct {
	Method string
	Path   string
	Token  string
	Body   []byte
}

// Transport доставляет сериализованный запрос и возвращает тело ответа.
// Никаких повторов: политика повторов живет уровнем выше.
type Transport interface {
	RoundTrip(ctx context.Context, req *Request) ([]byte, error)
}

// TransportFunc adapts a function to Transport
type TransportFunc func(ctx context.Context, req *Request) ([]byte, error)

// RoundTrip calls f(ctx, req)
func (f TransportFunc) RoundTrip(ctx context.Context, req *Request) ([]byte, error) {
	return f(ctx, req)
}

// HTTPTransport implements Transport over net/http
type HTTPTransport struct {
	httpClient *http.Client
	baseURL    string
}

// NewHTTPTransport создает HTTP транспорт с таймаутом на каждый запрос
func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Authorization не переносится при редиректе по умолчанию
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// RoundTrip sends req. Non-2xx replies are returned as *StatusError.
func (t *HTTPTransport) RoundTrip(ctx context.Context, req *Request) ([]byte, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, t.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{Code: resp.StatusCode}
		var errResp api.ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil {
			statusErr.Message = errResp.Message
			if statusErr.Message == "" {
				statusErr.Message = errResp.Error
			}
		}
		return nil, statusErr
	}

	return respBody, nil
}
