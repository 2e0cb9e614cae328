package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxConnections = 3
	cfg.ConnectionTimeout = 50 * time.Millisecond
	cfg.QueryTimeout = time.Second
	cfg.HealthCheckPeriod = 0
	cfg.RetryInterval = time.Second
	return cfg
}

func openTest(t *testing.T, cfg Config, drv *fakeDriver, opts ...Option) *Gateway {
	t.Helper()
	opts = append([]Option{withDriver(drv), WithLogger(zap.NewNop())}, opts...)
	g, err := Open(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Shutdown(context.Background()) })
	return g
}

func TestOpen_ProbeFailureClosesDriver(t *testing.T) {
	drv := &fakeDriver{pingErr: errors.New("connection refused")}
	_, err := Open(context.Background(), testConfig(), withDriver(drv), WithLogger(zap.NewNop()))
	require.ErrorIs(t, err, ErrProbeFailed)
	require.ErrorContains(t, err, "connection refused")
	require.True(t, drv.closed.Load())
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConnections = 0
	_, err := Open(context.Background(), cfg, withDriver(&fakeDriver{}))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestAcquire_UpToMaxWithoutWaiting(t *testing.T) {
	g := openTest(t, testConfig(), &fakeDriver{})

	var leases []*Lease
	start := time.Now()
	for i := 0; i < 3; i++ {
		l, err := g.Acquire(context.Background())
		require.NoError(t, err)
		leases = append(leases, l)
	}
	require.Less(t, time.Since(start), 40*time.Millisecond)
	require.EqualValues(t, 3, g.Stat().Leased)

	// el (N+1)-ésimo espera ConnectionTimeout y falla
	_, err := g.Acquire(context.Background())
	require.True(t, IsTimeout(err, PhaseAcquire), "got %v", err)

	for _, l := range leases {
		l.Release()
	}
	require.EqualValues(t, 0, g.Stat().Leased)
}

func TestAcquire_BlocksUntilRelease(t *testing.T) {
	cfg := testConfig()
	cfg.ConnectionTimeout = 2 * time.Second
	g := openTest(t, cfg, &fakeDriver{})

	var held []*Lease
	for i := 0; i < cfg.MaxConnections; i++ {
		l, err := g.Acquire(context.Background())
		require.NoError(t, err)
		held = append(held, l)
	}

	got := make(chan error, 1)
	go func() {
		l, err := g.Acquire(context.Background())
		if err == nil {
			l.Release()
		}
		got <- err
	}()

	select {
	case err := <-got:
		t.Fatalf("acquire returned before release: %v", err)
	case <-time.After(30 * time.Millisecond):
	}

	held[0].Release()
	select {
	case err := <-got:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("acquire did not wake up after release")
	}

	for _, l := range held[1:] {
		l.Release()
	}
}

func TestLease_UseAfterReleaseAndDoubleRelease(t *testing.T) {
	drv := &fakeDriver{}
	g := openTest(t, testConfig(), drv)

	l, err := g.Acquire(context.Background())
	require.NoError(t, err)
	l.Release()
	l.Release()

	_, err = l.Query(context.Background(), "SELECT 1")
	require.ErrorIs(t, err, ErrLeaseReleased)
	_, err = l.Exec(context.Background(), "SELECT 1")
	require.ErrorIs(t, err, ErrLeaseReleased)
	require.EqualValues(t, 1, drv.releases.Load())

	// el doble Release no liberó un slot extra
	for i := 0; i < 3; i++ {
		l, err := g.Acquire(context.Background())
		require.NoError(t, err)
		defer l.Release()
	}
	_, err = g.Acquire(context.Background())
	require.True(t, IsTimeout(err, PhaseAcquire))
}

func TestExecute_RetriesThenSucceeds(t *testing.T) {
	drv := &fakeDriver{query: func(_ context.Context, call int) (*Result, error) {
		if call < 3 {
			return nil, fmt.Errorf("transient %d", call)
		}
		return &Result{Fields: []string{"id"}, Rows: []map[string]any{{"id": 1}}, Command: "SELECT 1"}, nil
	}}
	var delays []time.Duration
	g := openTest(t, testConfig(), drv, WithRetrySleep(recordSleep(&delays)))

	res, err := g.Execute(context.Background(), "SELECT id FROM usuarios")
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)

	// cada intento usó y devolvió su propia conexión
	require.EqualValues(t, 3, drv.acquires.Load())
	require.EqualValues(t, 3, drv.releases.Load())

	st := g.Stat()
	require.EqualValues(t, 3, st.Attempts)
	require.EqualValues(t, 2, st.Retries)
	require.EqualValues(t, 0, st.Failures)
	require.EqualValues(t, 0, st.Leased)
}

func TestExecute_SurfacesErrorFromLastAttempt(t *testing.T) {
	errs := []error{errors.New("attempt 1"), errors.New("attempt 2"), errors.New("attempt 3")}
	drv := &fakeDriver{query: func(_ context.Context, call int) (*Result, error) {
		return nil, errs[call-1]
	}}
	var delays []time.Duration
	g := openTest(t, testConfig(), drv, WithRetrySleep(recordSleep(&delays)))

	_, err := g.Execute(context.Background(), "SELECT 1")
	require.Same(t, errs[2], err)
	require.Len(t, delays, 2)
	require.EqualValues(t, 1, g.Stat().Failures)
	require.EqualValues(t, 3, drv.releases.Load())
}

func TestExecute_KeepsDriverErrorUnwrapped(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	drv := &fakeDriver{query: func(context.Context, int) (*Result, error) { return nil, pgErr }}
	g := openTest(t, testConfig(), drv, WithRetrySleep(func(context.Context, time.Duration) error { return nil }))

	_, err := g.Exec(context.Background(), "INSERT INTO usuarios DEFAULT VALUES")
	var got *pgconn.PgError
	require.True(t, errors.As(err, &got))
	require.Same(t, pgErr, got)
	require.False(t, IsTimeout(err, ""))
}

func TestExecute_StatementTimeoutConsumesRetryBudget(t *testing.T) {
	cfg := testConfig()
	cfg.QueryTimeout = 10 * time.Millisecond
	drv := &fakeDriver{query: func(ctx context.Context, _ int) (*Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	var delays []time.Duration
	g := openTest(t, cfg, drv, WithRetrySleep(recordSleep(&delays)))

	_, err := g.Execute(context.Background(), "SELECT pg_sleep(60)")
	require.True(t, IsTimeout(err, PhaseStatement), "got %v", err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.EqualValues(t, 3, drv.calls.Load())
	require.Len(t, delays, 2)
}

func TestExecute_ServerStatementTimeoutIsTimeout(t *testing.T) {
	drv := &fakeDriver{query: func(context.Context, int) (*Result, error) {
		return nil, &pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}
	}}
	g := openTest(t, testConfig(), drv, WithRetrySleep(func(context.Context, time.Duration) error { return nil }))

	_, err := g.Execute(context.Background(), "SELECT 1")
	require.True(t, IsTimeout(err, PhaseStatement))
}

func TestExecute_AcquireTimeoutConsumesRetryBudget(t *testing.T) {
	drv := &fakeDriver{}
	var delays []time.Duration
	g := openTest(t, testConfig(), drv, WithRetrySleep(recordSleep(&delays)))

	var held []*Lease
	for i := 0; i < 3; i++ {
		l, err := g.Acquire(context.Background())
		require.NoError(t, err)
		held = append(held, l)
	}
	defer func() {
		for _, l := range held {
			l.Release()
		}
	}()

	_, err := g.Execute(context.Background(), "SELECT 1")
	require.True(t, IsTimeout(err, PhaseAcquire))
	require.Len(t, delays, 2)
	require.EqualValues(t, 0, drv.calls.Load())
}

func TestExecute_ConcurrentCallersNeverExceedMax(t *testing.T) {
	cfg := testConfig()
	cfg.ConnectionTimeout = 2 * time.Second

	var (
		mu      sync.Mutex
		inUse   int
		maxSeen int
	)
	drv := &fakeDriver{query: func(context.Context, int) (*Result, error) {
		mu.Lock()
		inUse++
		if inUse > maxSeen {
			maxSeen = inUse
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		inUse--
		mu.Unlock()
		return &Result{}, nil
	}}
	g := openTest(t, cfg, drv)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Execute(context.Background(), "SELECT 1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.LessOrEqual(t, maxSeen, cfg.MaxConnections)
	require.EqualValues(t, 20, drv.acquires.Load())
	require.EqualValues(t, 20, drv.releases.Load())
}

func TestShutdown_ThenExecuteFailsFast(t *testing.T) {
	drv := &fakeDriver{}
	g := openTest(t, testConfig(), drv)

	require.NoError(t, g.Shutdown(context.Background()))
	require.NoError(t, g.Shutdown(context.Background()))
	require.True(t, drv.closed.Load())
	require.True(t, g.Closed())

	start := time.Now()
	_, err := g.Execute(context.Background(), "SELECT 1")
	require.ErrorIs(t, err, ErrPoolClosed)
	require.Less(t, time.Since(start), 100*time.Millisecond)

	_, err = g.Acquire(context.Background())
	require.ErrorIs(t, err, ErrPoolClosed)
	require.ErrorIs(t, g.Ping(context.Background()), ErrPoolClosed)
}

func TestShutdown_WaitsForOutstandingLeases(t *testing.T) {
	drv := &fakeDriver{}
	g := openTest(t, testConfig(), drv)

	l, err := g.Acquire(context.Background())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- g.Shutdown(context.Background()) }()

	select {
	case <-done:
		t.Fatal("shutdown finished with a leased connection outstanding")
	case <-time.After(30 * time.Millisecond):
	}
	require.False(t, drv.closed.Load())

	l.Release()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("shutdown did not finish after release")
	}
	require.True(t, drv.closed.Load())
}

func TestShutdown_DrainTimeout(t *testing.T) {
	drv := &fakeDriver{}
	g := openTest(t, testConfig(), drv)

	l, err := g.Acquire(context.Background())
	require.NoError(t, err)
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, g.Shutdown(ctx), ErrDrainTimeout)

	_, err = g.Execute(context.Background(), "SELECT 1")
	require.ErrorIs(t, err, ErrPoolClosed)
}

func TestHealthLoop_EmitsErrorEvents(t *testing.T) {
	cfg := testConfig()
	cfg.HealthCheckPeriod = 5 * time.Millisecond

	drv := &fakeDriver{}
	events := make(chan Event, 16)
	g := openTest(t, cfg, drv, WithObserver(ObserverFunc(func(ev Event) {
		select {
		case events <- ev:
		default:
		}
	})))
	_ = g

	drv.setPingErr(errors.New("server closed the connection unexpectedly"))

	select {
	case ev := <-events:
		require.Equal(t, EventError, ev.Kind)
		require.ErrorContains(t, ev.Err, "server closed")
		require.False(t, ev.At.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no error event emitted")
	}
}

func TestHealthLoop_SaturatedPoolIsNotAnError(t *testing.T) {
	cfg := testConfig()
	cfg.HealthCheckPeriod = 20 * time.Millisecond

	drv := newBoundedDriver(cfg.MaxConnections)
	events := make(chan Event, 16)
	g := openTest(t, cfg, drv, WithObserver(ObserverFunc(func(ev Event) {
		select {
		case events <- ev:
		default:
		}
	})))

	var leases []*Lease
	for i := 0; i < cfg.MaxConnections; i++ {
		l, err := g.Acquire(context.Background())
		require.NoError(t, err)
		leases = append(leases, l)
	}

	// varios ticks con el pool lleno
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, g.Ping(context.Background()))
	require.Empty(t, events)

	for _, l := range leases {
		l.Release()
	}

	// liberado el pool, una falla real se sigue reportando
	drv.setPingErr(errors.New("server closed the connection unexpectedly"))
	select {
	case ev := <-events:
		require.Equal(t, EventError, ev.Kind)
		require.ErrorContains(t, ev.Err, "server closed")
	case <-time.After(time.Second):
		t.Fatal("no error event emitted")
	}
}

func TestPing_ReturnsItsSlot(t *testing.T) {
	drv := newBoundedDriver(3)
	g := openTest(t, testConfig(), drv)

	require.NoError(t, g.Ping(context.Background()))
	require.Zero(t, g.Stat().Leased)
	require.Empty(t, drv.slots)

	drv.setPingErr(errors.New("connection reset by peer"))
	require.ErrorContains(t, g.Ping(context.Background()), "connection reset")

	require.NoError(t, g.Shutdown(context.Background()))
	require.ErrorIs(t, g.Ping(context.Background()), ErrPoolClosed)
}

func TestLogObserver(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	obs := LogObserver(zap.New(core))

	obs.OnPoolEvent(Event{Kind: EventConnect, PID: 42})
	obs.OnPoolEvent(Event{Kind: EventError, Err: errors.New("idle conn reset")})
	obs.OnPoolEvent(Event{Kind: EventRemove, PID: 42})

	require.Equal(t, 1, logs.FilterMessage("pg connection established").Len())
	require.Equal(t, 1, logs.FilterMessage("pg connection removed").Len())
	errEntries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, errEntries, 1)
	require.Equal(t, "error", errEntries[0].ContextMap()["event"])
}

func TestFromConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 10, cfg.MaxConnections)
	require.Equal(t, 10*time.Second, cfg.IdleTimeout)
	require.Equal(t, 5*time.Second, cfg.ConnectionTimeout)
	require.Equal(t, 30*time.Second, cfg.StatementTimeout)
	require.Equal(t, 30*time.Second, cfg.QueryTimeout)
	require.Equal(t, 3, cfg.RetryAttempts)
	require.Equal(t, time.Second, cfg.RetryInterval)
}
