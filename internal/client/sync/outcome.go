package sync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	clientapi "github.com/iudanet/gamesync/internal/client/api"
	"github.com/iudanet/gamesync/internal/models"
)

// ErrConflict конфликт ресурсов: ожидаемый исход протокола, а не сбой
var ErrConflict = errors.New("resource conflict")

// State состояние репозитория домена
type State int32

const (
	StateIdle State = iota
	StateSyncing
	StateSucceeded
	StatePartiallyFailed
	StateConflicted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSyncing:
		return "syncing"
	case StateSucceeded:
		return "succeeded"
	case StatePartiallyFailed:
		return "partially_failed"
	case StateConflicted:
		return "conflicted"
	default:
		return "unknown"
	}
}

// OutcomeStatus итог одного прохода синхронизации домена
type OutcomeStatus int

const (
	OutcomeSucceeded OutcomeStatus = iota
	OutcomeConflicted
	OutcomeFailed
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeConflicted:
		return "conflicted"
	default:
		return "failed"
	}
}

// Outcome of one domain sync pass.
// For OutcomeFailed, Reason is ReasonNone when the failure was local
// (store unavailable, cancelled before send).
type Outcome struct {
	SyncDate  time.Time
	Err       error
	Conflicts map[string]models.ConflictRecord
	Domain    models.Domain
	Status    OutcomeStatus
	Reason    clientapi.FailureReason
	Sent      int
	Merged    int
}

// Retryable reports whether a later attempt may succeed without user action.
// A rejected request is not retried: the same payload would be rejected again.
func (o Outcome) Retryable() bool {
	return o.Status == OutcomeFailed &&
		(o.Reason == clientapi.ReasonConnection || o.Reason == clientapi.ReasonServerError)
}

func failedOutcome(domain models.Domain, reason clientapi.FailureReason, err error) Outcome {
	return Outcome{Domain: domain, Status: OutcomeFailed, Reason: reason, Err: err}
}

// stateMachine Idle → Syncing → {Succeeded, PartiallyFailed, Conflicted} → Idle.
// The terminal state of the last pass is kept separately from the current one.
type stateMachine struct {
	current atomic.Int32
	last    atomic.Int32
}

// begin moves Idle → Syncing. Returns false if a pass is already running.
func (m *stateMachine) begin() bool {
	return m.current.CompareAndSwap(int32(StateIdle), int32(StateSyncing))
}

// finish records the terminal state and returns to Idle
func (m *stateMachine) finish(out Outcome) State {
	terminal := StateSucceeded
	switch out.Status {
	case OutcomeConflicted:
		terminal = StateConflicted
	case OutcomeFailed:
		terminal = StatePartiallyFailed
	}
	m.last.Store(int32(terminal))
	m.current.Store(int32(StateIdle))
	return terminal
}

func (m *stateMachine) state() State {
	return State(m.current.Load())
}

func (m *stateMachine) lastState() State {
	return State(m.last.Load())
}

// detach keeps values and the deadline of ctx but drops its cancellation:
// once the request is on the wire the pass runs to completion or timeout.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(detached, deadline)
	}
	return context.WithCancel(detached)
}

func storeFailure(domain models.Domain, op string, err error) Outcome {
	return failedOutcome(domain, clientapi.ReasonNone, fmt.Errorf("failed to %s: %w", op, err))
}
