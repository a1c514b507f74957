package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/buzzmonitor/internal/domain"
	"github.com/hamed0406/buzzmonitor/internal/notify"
	"github.com/hamed0406/buzzmonitor/internal/repo"
)

// OutcomeSource is the read side of a Monitor.
type OutcomeSource interface {
	AllQueryResults() []domain.Outcome
	Stats() domain.Stats
}

type AlerterConfig struct {
	Monitor         string
	AlertOnRecovery bool
	Cooldown        time.Duration
	PollInterval    time.Duration
}

// Alerter watches the newest settled outcome and notifies when the monitor
// flips between up (success) and down (error or timeout).
type Alerter struct {
	Logger   *zap.Logger
	source   OutcomeSource
	alertDB  repo.AlertStore
	notifier notify.Notifier
	cfg      AlerterConfig
}

func NewAlerter(
	logger *zap.Logger,
	source OutcomeSource,
	alertDB repo.AlertStore,
	notifier notify.Notifier,
	cfg AlerterConfig,
) *Alerter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	return &Alerter{
		Logger:   logger,
		source:   source,
		alertDB:  alertDB,
		notifier: notifier,
		cfg:      cfg,
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := a.scanOnce(ctx); err != nil {
				a.Logger.Warn("alerter_scan_error", zap.Error(err))
			}
		}
	}
}

// latestSettled returns the newest outcome that is no longer pending.
func latestSettled(outs []domain.Outcome) (domain.Outcome, bool) {
	for i := len(outs) - 1; i >= 0; i-- {
		if outs[i].Status.Settled() {
			return outs[i], true
		}
	}
	return domain.Outcome{}, false
}

func (a *Alerter) scanOnce(ctx context.Context) error {
	o, ok := latestSettled(a.source.AllQueryResults())
	if !ok {
		return nil
	}
	up := o.Status == domain.StatusSuccess
	now := time.Now()

	rec, err := a.alertDB.Get(ctx, a.cfg.Monitor)
	if err != nil {
		return fmt.Errorf("alert state: %w", err)
	}

	stateChanged := rec == nil || rec.LastState != up

	// Cooldown only matters for DOWN alerts (suppresses noisy repeats).
	cooled := true
	if rec != nil && rec.LastSentAt != nil {
		cooled = now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
	}

	downAlert := stateChanged && !up && cooled
	recoveryAlert := stateChanged && up && rec != nil && a.cfg.AlertOnRecovery

	if downAlert || recoveryAlert {
		title := fmt.Sprintf("🔴 %s DOWN", a.cfg.Monitor)
		if up {
			title = fmt.Sprintf("🟢 %s RECOVERED", a.cfg.Monitor)
		}
		s := a.source.Stats()
		text := fmt.Sprintf(
			"Probe: %s\nStatus: %s\nReason: %s\nRetained: %d (ok %d / failed %d)\nAvg: %s",
			o.ID, o.Status, reason(o), s.TotalQueries, s.SuccessfulQueries, s.FailedQueries,
			s.AverageExecutionTime.Round(time.Millisecond),
		)
		// an undelivered alert leaves the record alone so the next scan retries it
		if err := a.notifier.Send(ctx, title, text); err != nil {
			return fmt.Errorf("send alert for %s: %w", a.cfg.Monitor, err)
		}
		return a.alertDB.Set(ctx, a.cfg.Monitor, up, now)
	}

	// State changed without a send (cooldown, first UP, recovery disabled):
	// still record it so the next flip is detected.
	if stateChanged {
		var lastSent time.Time
		if rec != nil && rec.LastSentAt != nil {
			lastSent = *rec.LastSentAt
		}
		return a.alertDB.Set(ctx, a.cfg.Monitor, up, lastSent)
	}
	return nil
}

func reason(o domain.Outcome) string {
	switch o.Status {
	case domain.StatusError:
		return o.Error
	case domain.StatusTimeout:
		return "deadline exceeded"
	default:
		return "ok"
	}
}
