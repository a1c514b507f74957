package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hamed0406/buzzmonitor/internal/domain"
	"github.com/hamed0406/buzzmonitor/internal/probe"
	"github.com/hamed0406/buzzmonitor/internal/repo"
	"github.com/hamed0406/buzzmonitor/internal/repo/memory"
	"github.com/hamed0406/buzzmonitor/internal/stats"
)

var tracer = otel.Tracer("github.com/hamed0406/buzzmonitor/internal/scheduler")

// Monitor runs one probe per interval and keeps the most recent outcomes.
//
// Probe cycles are fire-and-forget: a tick never waits for earlier probes,
// and Stop neither waits for nor cancels probes already in flight. Their
// results may land in the ledger after Stop returns.
type Monitor struct {
	Logger *zap.Logger

	cfg    domain.ProbeConfig
	exec   probe.Executor
	ledger repo.OutcomeStore
	newID  func() string
	now    func() time.Time

	mu        sync.Mutex
	running   bool
	startTime time.Time
	stop      chan struct{}
	loopDone  chan struct{}

	inFlight atomic.Int64
	probes   sync.WaitGroup
}

type Option func(*Monitor)

// WithStore replaces the default in-memory ledger.
func WithStore(s repo.OutcomeStore) Option {
	return func(m *Monitor) { m.ledger = s }
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func WithIDs(newID func() string) Option {
	return func(m *Monitor) { m.newID = newID }
}

func New(logger *zap.Logger, cfg domain.ProbeConfig, exec probe.Executor, opts ...Option) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if exec == nil {
		return nil, fmt.Errorf("%w: executor is nil", domain.ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		Logger: logger,
		cfg:    cfg,
		exec:   exec,
		newID:  newProbeID,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.ledger == nil {
		l, err := memory.NewLedger(cfg.MaxQueries)
		if err != nil {
			return nil, err
		}
		m.ledger = l
	}
	m.startTime = m.now()
	return m, nil
}

// Start arms the ticker. It fails with domain.ErrAlreadyRunning if the
// monitor is running.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return domain.ErrAlreadyRunning
	}
	m.running = true
	m.startTime = m.now()
	m.stop = make(chan struct{})
	m.loopDone = make(chan struct{})
	go m.loop(m.stop, m.loopDone)

	m.Logger.Info("monitor_started",
		zap.Duration("interval", m.cfg.Interval),
		zap.Int("max_queries", m.cfg.MaxQueries),
		zap.Duration("timeout", m.cfg.Timeout),
		zap.Int("max_in_flight", m.cfg.MaxInFlight),
	)
	return nil
}

// Stop disarms the ticker. Stopping a stopped monitor is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	done := m.loopDone
	m.mu.Unlock()

	<-done
	m.Logger.Info("monitor_stopped", zap.Int64("in_flight", m.inFlight.Load()))
}

func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Wait blocks until every dispatched probe has settled. Call it after Stop:
// a running monitor keeps dispatching.
func (m *Monitor) Wait() {
	m.probes.Wait()
}

// Stats aggregates the ledger as of now. Uptime counts from the last Start
// (or construction) and keeps counting after Stop.
func (m *Monitor) Stats() domain.Stats {
	m.mu.Lock()
	start := m.startTime
	m.mu.Unlock()
	return stats.Compute(m.ledger.All(), start, m.now())
}

func (m *Monitor) QueryResult(id string) (domain.Outcome, bool) {
	return m.ledger.Get(id)
}

func (m *Monitor) AllQueryResults() []domain.Outcome {
	return m.ledger.All()
}

func (m *Monitor) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(m.cfg.Interval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			m.dispatch()
		}
	}
}

// dispatch records a pending outcome and hands the probe to a goroutine.
func (m *Monitor) dispatch() {
	if limit := m.cfg.MaxInFlight; limit > 0 && m.inFlight.Load() >= int64(limit) {
		ticksSkipped.Inc()
		m.Logger.Warn("probe_skipped_in_flight_cap", zap.Int("max_in_flight", limit))
		return
	}

	id := m.newID()
	start := m.now()
	evicted, err := m.ledger.Insert(domain.Outcome{ID: id, Status: domain.StatusPending, StartTime: start})
	if err != nil {
		idCollisions.Inc()
		m.Logger.Warn("probe_not_dispatched", zap.String("probe_id", id), zap.Error(err))
		return
	}
	if evicted != "" {
		ledgerEvictions.Inc()
		m.Logger.Debug("outcome_evicted", zap.String("probe_id", evicted))
	}
	probesStarted.Inc()

	m.inFlight.Add(1)
	probesInFlight.Inc()
	m.probes.Add(1)
	go m.run(id, start)
}

type execResult struct {
	took time.Duration
	err  error
}

func (m *Monitor) run(id string, start time.Time) {
	defer m.probes.Done()
	defer func() {
		m.inFlight.Add(-1)
		probesInFlight.Dec()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Timeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "monitor.probe", trace.WithAttributes(attribute.String("probe.id", id)))
	defer span.End()

	ch := make(chan execResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- execResult{err: fmt.Errorf("executor panic: %v", r)}
			}
		}()
		took, err := m.exec.Execute(ctx, id)
		ch <- execResult{took: took, err: err}
	}()

	var res execResult
	select {
	case res = <-ch:
	case <-ctx.Done():
		// a result arriving after the deadline is dropped
		res = execResult{err: ctx.Err()}
	}

	at := m.now()
	var (
		settled domain.Outcome
		won     bool
	)
	found := m.ledger.Update(id, func(o *domain.Outcome) {
		switch {
		case res.err == nil:
			won = o.Succeed(res.took, at)
		case errors.Is(res.err, context.DeadlineExceeded):
			won = o.TimeOut(at)
		default:
			won = o.Fail(res.err.Error(), at)
		}
		settled = *o
	})
	if !found || !won {
		staleUpdates.Inc()
		span.SetAttributes(attribute.Bool("probe.stale", true))
		m.Logger.Debug("probe_result_dropped",
			zap.String("probe_id", id),
			zap.Bool("evicted", !found),
			zap.NamedError("probe_error", res.err),
		)
		return
	}

	probesSettled.WithLabelValues(string(settled.Status)).Inc()
	probeDuration.Observe(at.Sub(start).Seconds())
	span.SetAttributes(attribute.String("probe.status", string(settled.Status)))

	if res.err == nil {
		m.Logger.Debug("probe_settled",
			zap.String("probe_id", id),
			zap.Duration("execution_time", res.took),
		)
		return
	}
	span.RecordError(res.err)
	span.SetStatus(codes.Error, res.err.Error())
	m.Logger.Info("probe_failed",
		zap.String("probe_id", id),
		zap.String("status", string(settled.Status)),
		zap.Error(res.err),
	)
}
