package sync

import (
	"context"
	"errors"

	"github.com/iudanet/gamesync/internal/models"
)

// Report исходы доменов одного запроса синхронизации
type Report struct {
	Outcomes map[models.Domain]Outcome
}

// Err joins the errors of failed domains. Conflicts are not failures.
func (r Report) Err() error {
	var errs []error
	for _, d := range models.Domains() {
		if out, ok := r.Outcomes[d]; ok && out.Status == OutcomeFailed {
			errs = append(errs, out.Err)
		}
	}
	return errors.Join(errs...)
}

// Retryable reports whether any domain failed with a retryable reason
func (r Report) Retryable() bool {
	for _, out := range r.Outcomes {
		if out.Retryable() {
			return true
		}
	}
	return false
}

// Conflicts returns resource conflicts reported in this run, if any
func (r Report) Conflicts() map[string]models.ConflictRecord {
	return r.Outcomes[models.DomainResources].Conflicts
}

// Future результат фоновой синхронизации. Ждать его может любое число получателей.
type Future struct {
	done   chan struct{}
	report Report
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(report Report) {
	f.report = report
	close(f.done)
}

// Done is closed when the report is ready
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the report is ready or ctx is done. Giving up waiting
// does not cancel the sync itself.
func (f *Future) Wait(ctx context.Context) (Report, error) {
	select {
	case <-f.done:
		return f.report, nil
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
}
