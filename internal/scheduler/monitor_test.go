package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/buzzmonitor/internal/domain"
	"github.com/hamed0406/buzzmonitor/internal/probe"
	"github.com/hamed0406/buzzmonitor/internal/repo"
	"github.com/hamed0406/buzzmonitor/internal/repo/memory"
)

// --- helpers ---

func fixedExec(took time.Duration, err error) probe.Executor {
	return probe.ExecutorFunc(func(context.Context, string) (time.Duration, error) {
		return took, err
	})
}

// gatedExec blocks every probe until release is closed.
type gatedExec struct {
	release chan struct{}
	started atomic.Int64
}

func newGatedExec() *gatedExec { return &gatedExec{release: make(chan struct{})} }

func (g *gatedExec) Execute(ctx context.Context, _ string) (time.Duration, error) {
	g.started.Add(1)
	<-g.release
	return 5 * time.Millisecond, nil
}

func seqIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("q%d", n)
	}
}

func cfg(maxQueries int) domain.ProbeConfig {
	return domain.ProbeConfig{Interval: 100 * time.Millisecond, MaxQueries: maxQueries, Timeout: time.Second}
}

func newMonitor(t *testing.T, c domain.ProbeConfig, exec probe.Executor, opts ...Option) *Monitor {
	t.Helper()
	m, err := New(zap.NewNop(), c, exec, opts...)
	require.NoError(t, err)
	t.Cleanup(m.Stop)
	return m
}

// --- construction ---

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(nil, cfg(0), fixedExec(0, nil))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = New(nil, domain.ProbeConfig{Interval: 0, MaxQueries: 1, Timeout: time.Second}, fixedExec(0, nil))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = New(nil, cfg(3), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestNew_FreshMonitorHasZeroStats(t *testing.T) {
	m := newMonitor(t, cfg(10), fixedExec(time.Millisecond, nil))

	assert.False(t, m.IsRunning())
	s := m.Stats()
	assert.Zero(t, s.TotalQueries)
	assert.Zero(t, s.SuccessfulQueries)
	assert.Zero(t, s.FailedQueries)
	assert.Zero(t, s.AverageExecutionTime)
	assert.GreaterOrEqual(t, s.Uptime, time.Duration(0))
	assert.Empty(t, m.AllQueryResults())

	_, ok := m.QueryResult("missing")
	assert.False(t, ok)
}

// --- lifecycle ---

func TestStart_TwiceFailsAndKeepsRunning(t *testing.T) {
	m := newMonitor(t, cfg(10), fixedExec(time.Millisecond, nil))

	require.NoError(t, m.Start())
	assert.True(t, m.IsRunning())

	err := m.Start()
	assert.ErrorIs(t, err, domain.ErrAlreadyRunning)
	assert.True(t, m.IsRunning())

	m.Stop()
	assert.False(t, m.IsRunning())
}

func TestStop_OnStoppedMonitorIsNoop(t *testing.T) {
	m := newMonitor(t, cfg(10), fixedExec(time.Millisecond, nil))
	m.Stop()
	m.Stop()
	assert.False(t, m.IsRunning())
}

func TestStart_CanRestartAfterStopAndResetsUptime(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}
	m := newMonitor(t, cfg(10), fixedExec(time.Millisecond, nil), WithClock(clock))

	advance(time.Minute)
	require.NoError(t, m.Start())
	advance(10 * time.Second)
	m.Stop()
	// uptime keeps counting from the last start after stop
	advance(5 * time.Second)
	assert.Equal(t, 15*time.Second, m.Stats().Uptime)

	require.NoError(t, m.Start())
	assert.Zero(t, m.Stats().Uptime)
}

func TestRunning_RetainsAtMostMaxQueries(t *testing.T) {
	m := newMonitor(t, cfg(3), fixedExec(2*time.Millisecond, nil))

	require.NoError(t, m.Start())
	time.Sleep(350 * time.Millisecond)

	all := m.AllQueryResults()
	assert.LessOrEqual(t, len(all), 3)
	assert.NotEmpty(t, all)
	for _, o := range all {
		assert.NotEmpty(t, o.ID)
		assert.False(t, o.StartTime.IsZero())
		assert.Contains(t,
			[]domain.Status{domain.StatusPending, domain.StatusSuccess, domain.StatusError, domain.StatusTimeout},
			o.Status)
	}
	assert.Positive(t, m.Stats().Uptime)
}

// --- probe cycles ---

func TestDispatch_SuccessRecordsExecutionTime(t *testing.T) {
	m := newMonitor(t, cfg(5), fixedExec(42*time.Millisecond, nil), WithIDs(seqIDs()))

	m.dispatch()
	m.Wait()

	o, ok := m.QueryResult("q1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusSuccess, o.Status)
	require.NotNil(t, o.ExecutionTime)
	assert.Equal(t, 42*time.Millisecond, *o.ExecutionTime)
	assert.NotNil(t, o.EndTime)
	assert.Empty(t, o.Error)
}

func TestDispatch_FailureIsRecordedNotPropagated(t *testing.T) {
	m := newMonitor(t, cfg(5), fixedExec(0, errors.New("Simulated query failure")), WithIDs(seqIDs()))

	m.dispatch()
	m.dispatch()
	m.Wait()

	for _, o := range m.AllQueryResults() {
		assert.Equal(t, domain.StatusError, o.Status)
		assert.Equal(t, "Simulated query failure", o.Error)
		assert.Nil(t, o.ExecutionTime)
		assert.NotNil(t, o.EndTime)
	}
	s := m.Stats()
	assert.Equal(t, 2, s.FailedQueries)
	assert.Zero(t, s.AverageExecutionTime)
}

func TestDispatch_ExecutorPanicBecomesError(t *testing.T) {
	boom := probe.ExecutorFunc(func(context.Context, string) (time.Duration, error) {
		panic("kaboom")
	})
	m := newMonitor(t, cfg(5), boom, WithIDs(seqIDs()))

	m.dispatch()
	m.Wait()

	o, ok := m.QueryResult("q1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusError, o.Status)
	assert.Contains(t, o.Error, "kaboom")
}

func TestDispatch_DeadlineMarksTimeout(t *testing.T) {
	gate := newGatedExec()
	defer close(gate.release)

	c := cfg(5)
	c.Timeout = 20 * time.Millisecond
	m := newMonitor(t, c, gate, WithIDs(seqIDs()))

	m.dispatch()
	m.Wait()

	o, ok := m.QueryResult("q1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusTimeout, o.Status)
	assert.NotNil(t, o.EndTime)
	assert.Empty(t, o.Error)
	assert.Nil(t, o.ExecutionTime)
	assert.Equal(t, 1, m.Stats().FailedQueries)
}

func TestDispatch_ExecutorReportingDeadlineIsTimeout(t *testing.T) {
	m := newMonitor(t, cfg(5), fixedExec(0, fmt.Errorf("query: %w", context.DeadlineExceeded)), WithIDs(seqIDs()))

	m.dispatch()
	m.Wait()

	o, _ := m.QueryResult("q1")
	assert.Equal(t, domain.StatusTimeout, o.Status)
}

func TestDispatch_EvictsOldestAndDropsStaleResults(t *testing.T) {
	gate := newGatedExec()
	m := newMonitor(t, cfg(3), gate, WithIDs(seqIDs()))

	for i := 0; i < 4; i++ {
		m.dispatch()
	}

	var got []string
	for _, o := range m.AllQueryResults() {
		got = append(got, o.ID)
		assert.Equal(t, domain.StatusPending, o.Status)
	}
	assert.Equal(t, []string{"q2", "q3", "q4"}, got)

	// q1 completes after its eviction and must not come back
	close(gate.release)
	m.Wait()

	_, ok := m.QueryResult("q1")
	assert.False(t, ok)
	all := m.AllQueryResults()
	require.Len(t, all, 3)
	for _, o := range all {
		assert.Equal(t, domain.StatusSuccess, o.Status)
	}
	assert.Equal(t, 3, m.Stats().SuccessfulQueries)
}

// scriptedExec hands each call the next result once its gate is closed.
type scriptedExec struct {
	mu    sync.Mutex
	calls int
	gates []chan struct{}
	errs  []error
}

func (e *scriptedExec) Execute(context.Context, string) (time.Duration, error) {
	e.mu.Lock()
	i := e.calls
	e.calls++
	e.mu.Unlock()
	<-e.gates[i]
	return 3 * time.Millisecond, e.errs[i]
}

func (e *scriptedExec) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func TestDispatch_RepeatedIDIsNotDispatched(t *testing.T) {
	exec := &scriptedExec{
		gates: []chan struct{}{make(chan struct{}), make(chan struct{})},
		errs:  []error{errors.New("down"), nil},
	}
	m := newMonitor(t, cfg(1), exec, WithIDs(func() string { return "same" }))

	m.dispatch()
	m.dispatch()
	require.Eventually(t, func() bool { return exec.Calls() == 1 }, time.Second, time.Millisecond)

	close(exec.gates[0])
	close(exec.gates[1])
	m.Wait()

	assert.Equal(t, 1, exec.Calls())
	o, ok := m.QueryResult("same")
	require.True(t, ok)
	assert.Equal(t, domain.StatusError, o.Status)
	assert.Equal(t, "down", o.Error)
}

// acceptAllStore lets a repeated id through, leaving the first outcome in place.
type acceptAllStore struct {
	*memory.Ledger
}

func (s acceptAllStore) Insert(o domain.Outcome) (string, error) {
	evicted, err := s.Ledger.Insert(o)
	if errors.Is(err, repo.ErrDuplicateID) {
		return "", nil
	}
	return evicted, err
}

func TestRun_SecondSettlementOfSameOutcomeIsDropped(t *testing.T) {
	l, err := memory.NewLedger(5)
	require.NoError(t, err)
	exec := &scriptedExec{
		gates: []chan struct{}{make(chan struct{}), make(chan struct{})},
		errs:  []error{errors.New("down"), nil},
	}
	m := newMonitor(t, cfg(5), exec,
		WithStore(acceptAllStore{l}),
		WithIDs(func() string { return "same" }),
	)

	m.dispatch()
	require.Eventually(t, func() bool { return exec.Calls() == 1 }, time.Second, time.Millisecond)
	m.dispatch()
	require.Eventually(t, func() bool { return exec.Calls() == 2 }, time.Second, time.Millisecond)

	// the failure settles first; the later success must not overwrite it
	close(exec.gates[0])
	require.Eventually(t, func() bool {
		o, _ := m.QueryResult("same")
		return o.Status == domain.StatusError
	}, time.Second, time.Millisecond)
	close(exec.gates[1])
	m.Wait()

	o, ok := m.QueryResult("same")
	require.True(t, ok)
	assert.Equal(t, domain.StatusError, o.Status)
	assert.Nil(t, o.ExecutionTime)
	assert.Equal(t, 0, m.Stats().SuccessfulQueries)
}

func TestDispatch_InFlightCapSkipsTicks(t *testing.T) {
	gate := newGatedExec()
	c := cfg(5)
	c.MaxInFlight = 1
	m := newMonitor(t, c, gate, WithIDs(seqIDs()))

	m.dispatch()
	m.dispatch()
	assert.Len(t, m.AllQueryResults(), 1)

	close(gate.release)
	m.Wait()
	m.dispatch()
	m.Wait()
	assert.Len(t, m.AllQueryResults(), 2)
}

func TestStop_DoesNotCancelInFlightProbes(t *testing.T) {
	gate := newGatedExec()
	c := cfg(5)
	c.Interval = 5 * time.Millisecond
	m := newMonitor(t, c, gate)

	require.NoError(t, m.Start())
	require.Eventually(t, func() bool { return gate.started.Load() > 0 }, time.Second, time.Millisecond)
	m.Stop()

	close(gate.release)
	m.Wait()

	all := m.AllQueryResults()
	require.NotEmpty(t, all)
	for _, o := range all {
		assert.Equal(t, domain.StatusSuccess, o.Status)
	}
}

func TestStopThenWait_NoDispatchAfterStop(t *testing.T) {
	c := cfg(50)
	c.Interval = 2 * time.Millisecond
	m := newMonitor(t, c, fixedExec(time.Millisecond, nil), WithIDs(seqIDs()))

	require.NoError(t, m.Start())
	require.Eventually(t, func() bool { return len(m.AllQueryResults()) >= 3 }, time.Second, time.Millisecond)
	m.Stop()
	m.Wait()

	n := len(m.AllQueryResults())
	time.Sleep(10 * c.Interval)
	assert.Len(t, m.AllQueryResults(), n)
	assert.False(t, m.IsRunning())
	for _, o := range m.AllQueryResults() {
		assert.Equal(t, domain.StatusSuccess, o.Status)
	}
}

func TestStats_AverageOverSuccessesOnly(t *testing.T) {
	var n atomic.Int64
	exec := probe.ExecutorFunc(func(context.Context, string) (time.Duration, error) {
		switch n.Add(1) {
		case 1:
			return 10 * time.Millisecond, nil
		case 2:
			return 30 * time.Millisecond, nil
		default:
			return 0, errors.New("down")
		}
	})
	m := newMonitor(t, cfg(10), exec, WithIDs(seqIDs()))

	// sequential so the executor sees calls in order
	for i := 0; i < 3; i++ {
		m.dispatch()
		m.Wait()
	}

	s := m.Stats()
	assert.Equal(t, 3, s.TotalQueries)
	assert.Equal(t, 2, s.SuccessfulQueries)
	assert.Equal(t, 1, s.FailedQueries)
	assert.Equal(t, 20*time.Millisecond, s.AverageExecutionTime)
}

func TestNewProbeID_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := newProbeID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}
