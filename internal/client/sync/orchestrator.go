package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	clientapi "github.com/iudanet/gamesync/internal/client/api"
	"github.com/iudanet/gamesync/internal/models"
)

// ErrClosed оркестратор остановлен
var ErrClosed = errors.New("sync orchestrator closed")

// DefaultTimeout ограничение одного прохода домена, если не задано иное
const DefaultTimeout = 30 * time.Second

// Orchestrator гарантирует не более одного прохода на домен одновременно:
// повторный запрос во время прохода присоединяется к нему и получает тот же исход.
type Orchestrator struct {
	baseCtx  context.Context
	cancel   context.CancelFunc
	domains  map[models.Domain]Domain
	locks    map[models.Domain]*sync.Mutex
	resolver *Resolver
	policy   ConflictPolicy
	logger   *slog.Logger
	group    singleflight.Group
	wg       sync.WaitGroup
	mu       sync.Mutex
	dirty    map[models.Domain]bool // dirty триггеры, пришедшие после снимка текущего прохода
	timeout  time.Duration
	closed   bool
}

// NewOrchestrator creates an orchestrator over the given domain repositories.
// Every domain pass runs under timeout. resolver and policy may be nil.
func NewOrchestrator(domains []Domain, resolver *Resolver, policy ConflictPolicy, timeout time.Duration, logger *slog.Logger) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	o := &Orchestrator{
		baseCtx:  ctx,
		cancel:   cancel,
		domains:  make(map[models.Domain]Domain, len(domains)),
		locks:    make(map[models.Domain]*sync.Mutex, len(domains)),
		dirty:    make(map[models.Domain]bool, len(domains)),
		resolver: resolver,
		policy:   policy,
		timeout:  timeout,
		logger:   logger,
	}
	for _, d := range domains {
		o.domains[d.Name()] = d
		o.locks[d.Name()] = &sync.Mutex{}
	}

	return o
}

// SyncDomain starts (or joins) a pass of one domain
func (o *Orchestrator) SyncDomain(domain models.Domain) *Future {
	f := newFuture()

	d, ok := o.domains[domain]
	if !ok {
		f.complete(singleReport(failedOutcome(domain, clientapi.ReasonNone, fmt.Errorf("unknown domain %q", domain))))
		return f
	}

	if !o.acquire() {
		f.complete(singleReport(failedOutcome(domain, clientapi.ReasonNone, ErrClosed)))
		return f
	}

	ch := o.group.DoChan(string(domain), func() (any, error) {
		return o.runDomain(d), nil
	})

	go func() {
		defer o.wg.Done()
		res := <-ch
		out := res.Val.(Outcome)
		if res.Shared {
			o.logger.Debug("Sync request coalesced with in-flight pass", "domain", domain)
		}
		f.complete(singleReport(out))

		if o.takeDirty(domain) {
			o.logger.Debug("Changes arrived during pass, syncing again", "domain", domain)
			o.SyncDomain(domain)
		}
	}()

	return f
}

// SyncAll fans a pass out to every domain and aggregates their outcomes
func (o *Orchestrator) SyncAll() *Future {
	f := newFuture()

	futures := make(map[models.Domain]*Future, len(o.domains))
	for _, d := range models.Domains() {
		if _, ok := o.domains[d]; ok {
			futures[d] = o.SyncDomain(d)
		}
	}

	go func() {
		var (
			g   errgroup.Group
			mu  sync.Mutex
			rep = Report{Outcomes: make(map[models.Domain]Outcome, len(futures))}
		)

		for domain, df := range futures {
			g.Go(func() error {
				<-df.Done()
				mu.Lock()
				rep.Outcomes[domain] = df.report.Outcomes[domain]
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		f.complete(rep)
	}()

	return f
}

// Trigger starts a background pass without waiting for it. A trigger that
// joins a pass whose snapshot is already taken queues one more pass after it.
func (o *Orchestrator) Trigger(domain models.Domain) {
	o.mu.Lock()
	o.dirty[domain] = true
	o.mu.Unlock()

	o.SyncDomain(domain)
}

// Resolve executes the decision for resource conflicts. It is serialized with
// resources passes. A second conflict during the fix starts a full pass.
func (o *Orchestrator) Resolve(ctx context.Context, keepClient bool, conflicts map[string]models.ConflictRecord) (*Resolution, error) {
	if o.resolver == nil {
		return nil, fmt.Errorf("no conflict resolver configured")
	}
	if !o.acquire() {
		return nil, ErrClosed
	}
	defer o.wg.Done()

	lock := o.locks[models.DomainResources]
	if lock == nil {
		return nil, fmt.Errorf("resources domain is not registered")
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	lock.Lock()
	resolution, err := o.resolver.Resolve(ctx, keepClient, conflicts)
	lock.Unlock()

	switch {
	case errors.Is(err, ErrConflictChanged):
		o.SyncAll()
		return nil, err
	case err != nil:
		return nil, err
	}

	// повторный проход подтверждает исправление и подтягивает свежие изменения
	o.Trigger(models.DomainResources)
	return resolution, nil
}

// Close stops accepting work, aborts passes that have not sent their request yet
// and waits for the rest
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	o.cancel()
	o.wg.Wait()
}

func (o *Orchestrator) acquire() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return false
	}
	o.wg.Add(1)
	return true
}

// takeDirty reports and clears a pending trigger of the domain
func (o *Orchestrator) takeDirty(domain models.Domain) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	dirty := o.dirty[domain]
	delete(o.dirty, domain)
	return dirty
}

func (o *Orchestrator) runDomain(d Domain) Outcome {
	ctx, cancel := context.WithTimeout(o.baseCtx, o.timeout)
	defer cancel()

	lock := o.locks[d.Name()]
	lock.Lock()
	// все, что было до этого момента, попадет в снимок прохода
	o.takeDirty(d.Name())
	out := d.Sync(ctx)
	lock.Unlock()

	switch out.Status {
	case OutcomeSucceeded:
		o.logger.Info("Domain synced", "domain", d.Name(), "sent", out.Sent, "merged", out.Merged)
	case OutcomeConflicted:
		o.logger.Info("Domain synced with conflicts", "domain", d.Name(), "conflicts", len(out.Conflicts))
		o.handleConflicts(out.Conflicts)
	case OutcomeFailed:
		// фоновые сбои только логируются, игрока не прерываем
		o.logger.Warn("Domain sync failed", "domain", d.Name(), "reason", out.Reason, "error", out.Err)
	}

	return out
}

// handleConflicts asks the policy in the background and resolves when it decides
func (o *Orchestrator) handleConflicts(conflicts map[string]models.ConflictRecord) {
	if o.policy == nil || o.resolver == nil || len(conflicts) == 0 {
		return
	}
	if !o.acquire() {
		return
	}

	go func() {
		defer o.wg.Done()

		keepClient, ok := o.policy.Decide(o.baseCtx, conflicts)
		if !ok {
			o.logger.Info("Conflicts left for later decision", "conflicts", len(conflicts))
			return
		}

		if _, err := o.Resolve(o.baseCtx, keepClient, conflicts); err != nil {
			o.logger.Warn("Conflict resolution failed", "error", err)
		}
	}()
}

func singleReport(out Outcome) Report {
	return Report{Outcomes: map[models.Domain]Outcome{out.Domain: out}}
}
