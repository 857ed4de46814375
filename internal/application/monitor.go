package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/logtrace"
	"github.com/bnema/hfmctl/internal/ports"
	"github.com/cenkalti/backoff/v4"
)

type MonitorConfig struct {
	PollInterval time.Duration
	InitialDelay time.Duration
	// EmptyDelay is the wait after a poll that returned no records. It does
	// not count against MaxPollRetries.
	EmptyDelay time.Duration
	RetryDelay time.Duration
	// MaxPollRetries is how many times a failed poll is retried in a row.
	// The failure after the last retry is returned as a *domain.PollError.
	MaxPollRetries int
	// Timeout bounds the whole wait. Zero waits indefinitely.
	Timeout time.Duration
	Classes domain.StatusClasses
}

func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollInterval:   2 * time.Second,
		EmptyDelay:     2 * time.Second,
		RetryDelay:     3 * time.Second,
		MaxPollRetries: 3,
		Classes:        domain.DefaultStatusClasses(),
	}
}

// Monitor turns a set of asynchronous task ids into a single outcome by
// polling their status until none is in flight.
type Monitor struct {
	cfg   MonitorConfig
	clock ports.Clock
}

func NewMonitor(cfg MonitorConfig, clock ports.Clock) *Monitor {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if cfg.MaxPollRetries < 0 {
		cfg.MaxPollRetries = 0
	}
	if len(cfg.Classes.InFlight) == 0 && len(cfg.Classes.Failed) == 0 {
		cfg.Classes = domain.DefaultStatusClasses()
	}
	return &Monitor{cfg: cfg, clock: clock}
}

func (m *Monitor) Wait(ctx context.Context, ids []int, query ports.StatusQuery, reporter ports.ProgressReporter) (domain.PollOutcome, error) {
	var outcome domain.PollOutcome
	if len(ids) == 0 {
		return outcome, nil
	}
	if reporter == nil {
		reporter = ports.NopProgressReporter{}
	}

	ctx = logtrace.CtxWithOrigin(ctx, "monitor")
	started := m.clock.Now()

	if err := m.clock.Sleep(ctx, m.cfg.InitialDelay); err != nil {
		return outcome, err
	}

	retry := backoff.WithMaxRetries(backoff.NewConstantBackOff(m.cfg.RetryDelay), uint64(m.cfg.MaxPollRetries))
	failures := 0

	for {
		if m.cfg.Timeout > 0 && m.clock.Now().Sub(started) >= m.cfg.Timeout {
			return outcome, fmt.Errorf("wait for tasks %v: %w", ids, domain.ErrMonitorTimeout)
		}

		outcome.Polls++
		progress, err := query.Query(ctx, ids)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return outcome, ctxErr
			}
			failures++
			delay := retry.NextBackOff()
			if delay == backoff.Stop {
				return outcome, &domain.PollError{Attempts: failures, Err: err}
			}
			logtrace.Warn(ctx, "task status poll failed", logtrace.Fields{
				logtrace.FieldPoll:    failures,
				logtrace.FieldTaskIDs: ids,
				logtrace.FieldError:   err,
			})
			if err := m.clock.Sleep(ctx, delay); err != nil {
				return outcome, err
			}
			continue
		}

		failures = 0
		retry.Reset()

		if len(progress) == 0 {
			if err := m.clock.Sleep(ctx, m.cfg.EmptyDelay); err != nil {
				return outcome, err
			}
			continue
		}

		outcome.Tasks = progress
		outcome.AnyRunning = false
		for _, p := range progress {
			p.Description = strings.ReplaceAll(p.Description, "\r\n", " - ")
			reporter.ReportProgress(ctx, p)

			switch {
			case m.cfg.Classes.IsInFlight(p.Status):
				outcome.AnyRunning = true
			case m.cfg.Classes.IsFailed(p.Status):
				outcome.AnyFailed = true
			case p.Status == domain.TaskUnknown:
				logtrace.Warn(ctx, "task reported an unrecognised status; treating it as finished", logtrace.Fields{
					logtrace.FieldTaskID:  p.ID,
					logtrace.FieldStatus:  string(p.Status),
					logtrace.FieldPercent: p.Percent,
				})
			}
		}

		if !outcome.AnyRunning {
			return outcome, nil
		}

		if err := m.clock.Sleep(ctx, m.cfg.PollInterval); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return outcome, err
			}
			return outcome, fmt.Errorf("wait between polls: %w", err)
		}
	}
}
