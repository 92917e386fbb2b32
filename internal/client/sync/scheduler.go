package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// Prober проверка доступности сервера (реализуется session.Service)
type Prober interface {
	IsOnline() bool
	Probe(ctx context.Context) bool
}

// SchedulerConfig интервалы фоновой синхронизации
type SchedulerConfig struct {
	Interval  time.Duration // Interval между успешными проходами
	RetryBase time.Duration // RetryBase первая пауза после сбоя
	RetryCap  time.Duration // RetryCap максимальная пауза после сбоев
}

// Scheduler периодически синхронизирует все домены. После повторяемых сбоев
// пауза растет экспоненциально, пока клиент офлайн - только проба сервера.
type Scheduler struct {
	orchestrator *Orchestrator
	prober       Prober
	logger       *slog.Logger
	cfg          SchedulerConfig
}

// NewScheduler creates a scheduler
func NewScheduler(orchestrator *Orchestrator, prober Prober, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 2 * time.Second
	}
	if cfg.RetryCap < cfg.RetryBase {
		cfg.RetryCap = cfg.Interval
	}

	return &Scheduler{
		orchestrator: orchestrator,
		prober:       prober,
		logger:       logger,
		cfg:          cfg,
	}
}

func (s *Scheduler) newBackoff() retry.Backoff {
	b := retry.NewExponential(s.cfg.RetryBase)
	b = retry.WithJitterPercent(10, b)
	return retry.WithCappedDuration(s.cfg.RetryCap, b)
}

// Run syncs immediately and then on schedule until ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	backoff := s.newBackoff()
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		retryable, err := s.tick(ctx)
		if err != nil {
			return err
		}

		delay := s.cfg.Interval
		if retryable {
			next, stop := backoff.Next()
			if !stop {
				delay = next
			}
		} else {
			backoff = s.newBackoff()
		}

		timer.Reset(delay)
	}
}

// tick runs one scheduled step and reports whether it should be retried sooner
func (s *Scheduler) tick(ctx context.Context) (bool, error) {
	if !s.prober.IsOnline() && !s.prober.Probe(ctx) {
		s.logger.Debug("Server unreachable, sync postponed")
		return true, nil
	}

	report, err := s.orchestrator.SyncAll().Wait(ctx)
	if err != nil {
		return false, err
	}

	return report.Retryable(), nil
}
