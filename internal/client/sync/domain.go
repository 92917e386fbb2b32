package sync

import (
	"context"
	"fmt"
	"log/slog"

	clientapi "github.com/iudanet/gamesync/internal/client/api"
	"github.com/iudanet/gamesync/internal/models"
	"github.com/iudanet/gamesync/pkg/api"
)

//go:generate moq -out domain_mock.go . Domain

// Domain репозиторий домена синхронизации
type Domain interface {
	Name() models.Domain

	// Sync runs one pass: snapshot unsynced rows, send one request, apply the reply.
	// It never returns while another pass of the same domain is running on this
	// instance; the orchestrator guarantees that by coalescing.
	Sync(ctx context.Context) Outcome

	// State returns the current state (Idle or Syncing)
	State() State

	// LastState returns the terminal state of the last finished pass
	LastState() State
}

// domainBase общая часть репозиториев доменов: предусловия и отправка
type domainBase struct {
	gateway Gateway
	session Session
	logger  *slog.Logger
	machine stateMachine
	name    models.Domain
}

func (b *domainBase) Name() models.Domain { return b.name }

func (b *domainBase) State() State { return b.machine.state() }

func (b *domainBase) LastState() State { return b.machine.lastState() }

// run wraps a pass with the state machine and logging
func (b *domainBase) run(ctx context.Context, pass func(ctx context.Context, token string) Outcome) Outcome {
	if !b.machine.begin() {
		return failedOutcome(b.name, clientapi.ReasonNone, fmt.Errorf("%s sync already running", b.name))
	}

	out := b.precheckAndRun(ctx, pass)
	out.Domain = b.name
	terminal := b.machine.finish(out)

	b.logger.Debug("Domain sync finished",
		"domain", b.name,
		"state", terminal,
		"sent", out.Sent,
		"merged", out.Merged,
		"conflicts", len(out.Conflicts),
		"error", out.Err)

	return out
}

func (b *domainBase) precheckAndRun(ctx context.Context, pass func(ctx context.Context, token string) Outcome) Outcome {
	if err := ctx.Err(); err != nil {
		return failedOutcome(b.name, clientapi.ReasonNone, fmt.Errorf("sync cancelled before send: %w", err))
	}
	if !b.session.IsLoggedIn(ctx) {
		return failedOutcome(b.name, clientapi.ReasonNotLoggedIn, clientapi.ErrNotLoggedIn)
	}
	// без сети сразу отказываем, не блокируясь на транспорте
	if !b.session.IsOnline() {
		return failedOutcome(b.name, clientapi.ReasonConnection, clientapi.ErrConnectionFailed)
	}

	token, err := b.session.AccessToken(ctx)
	if err != nil {
		return failedOutcome(b.name, clientapi.ReasonNotLoggedIn, err)
	}

	return pass(ctx, token)
}

// send performs the request. Cancellation is honoured only before the request
// leaves; the returned context stays valid for applying the reply.
func (b *domainBase) send(ctx context.Context, token string, req *api.SyncRequest) (clientapi.Result, context.Context, context.CancelFunc) {
	if err := ctx.Err(); err != nil {
		return clientapi.Result{Status: clientapi.StatusFailed, Err: fmt.Errorf("sync cancelled before send: %w", err)}, ctx, func() {}
	}

	sendCtx, cancel := detach(ctx)
	res := b.gateway.Sync(sendCtx, token, b.name, req)

	switch {
	case res.Status != clientapi.StatusFailed:
		b.session.SetOnline(true)
	case res.Reason == clientapi.ReasonConnection:
		b.session.SetOnline(false)
	}

	return res, sendCtx, cancel
}

// failedResult converts a failed gateway result; nothing local is touched
func (b *domainBase) failedResult(res clientapi.Result, sent int) Outcome {
	out := failedOutcome(b.name, res.Reason, res.Err)
	out.Sent = sent
	b.logger.Warn("Sync attempt failed, unsynced data kept", "domain", b.name, "reason", res.Reason, "error", res.Err)
	return out
}
