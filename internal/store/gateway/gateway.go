package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/dropDatabas3/usuarios-admin/internal/observability/logger"
)

// Executor es lo que necesitan los consumidores del gateway (repos, scripts).
type Executor interface {
	Execute(ctx context.Context, sql string, args ...any) (*Result, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Gateway media todo el acceso a la base a través de un conjunto acotado de
// conexiones reutilizables y reintenta fallas transitorias.
type Gateway struct {
	cfg       Config
	drv       driver
	sem       *semaphore.Weighted
	retry     RetryPolicy
	log       *zap.Logger
	observers []Observer

	closed       atomic.Bool
	shutdownOnce sync.Once
	shutdownErr  error
	stop         chan struct{}
	wg           sync.WaitGroup

	leased   atomic.Int64
	attempts atomic.Int64
	retries  atomic.Int64
	failures atomic.Int64
}

var _ Executor = (*Gateway)(nil)

// Option configura el Gateway en Open.
type Option func(*Gateway)

// WithObserver registra un observer de eventos del pool.
func WithObserver(o Observer) Option {
	return func(g *Gateway) {
		if o != nil {
			g.observers = append(g.observers, o)
		}
	}
}

// WithLogger reemplaza el logger del gateway.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.log = l
		}
	}
}

// WithRetrySleep inyecta la función de pausa entre reintentos.
func WithRetrySleep(fn SleepFunc) Option {
	return func(g *Gateway) {
		if fn != nil {
			g.retry.Sleep = fn
		}
	}
}

// withDriver reemplaza el pool físico (tests).
func withDriver(d driver) Option {
	return func(g *Gateway) { g.drv = d }
}

// Open construye el pool y lo valida con un ping. Si el ping falla el pool se
// cierra y se devuelve ErrProbeFailed: el proceso no debe arrancar a medias.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Gateway, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	g := &Gateway{
		cfg:  cfg,
		sem:  semaphore.NewWeighted(int64(cfg.MaxConnections)),
		log:  logger.Named("gateway"),
		stop: make(chan struct{}),
		retry: RetryPolicy{
			MaxAttempts:  cfg.RetryAttempts,
			BaseInterval: cfg.RetryInterval,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.retry.OnRetry = g.onRetry

	if g.drv == nil {
		drv, err := newPgxDriver(ctx, cfg, g.emit)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		g.drv = drv
	}

	if err := g.probe(ctx); err != nil {
		g.drv.Close()
		return nil, fmt.Errorf("%w: %w", ErrProbeFailed, err)
	}

	if cfg.HealthCheckPeriod > 0 {
		g.wg.Add(1)
		go g.healthLoop(cfg.HealthCheckPeriod)
	}

	g.log.Info("pg pool ready",
		logger.Int("max_conns", cfg.MaxConnections),
		zap.Duration("connection_timeout", cfg.ConnectionTimeout),
		zap.Duration("query_timeout", cfg.QueryTimeout),
	)
	return g, nil
}

func (g *Gateway) probe(ctx context.Context) error {
	pctx, cancel := g.acquireContext(ctx)
	defer cancel()
	return g.drv.Ping(pctx)
}

// Acquire bloquea hasta que haya una conexión libre o venza ConnectionTimeout.
func (g *Gateway) Acquire(ctx context.Context) (*Lease, error) {
	if g.closed.Load() {
		return nil, ErrPoolClosed
	}

	actx, cancel := g.acquireContext(ctx)
	defer cancel()

	if err := g.sem.Acquire(actx, 1); err != nil {
		return nil, g.acquireErr(ctx, err)
	}
	if g.closed.Load() {
		g.sem.Release(1)
		return nil, ErrPoolClosed
	}

	conn, err := g.drv.Acquire(actx)
	if err != nil {
		g.sem.Release(1)
		return nil, g.acquireErr(ctx, err)
	}
	g.leased.Add(1)
	return &Lease{g: g, conn: conn}, nil
}

// Execute corre un statement con la política de reintentos. Cada intento
// adquiere y libera su propia conexión. Devuelve el error del último intento.
func (g *Gateway) Execute(ctx context.Context, sql string, args ...any) (*Result, error) {
	var res *Result
	err := g.retry.Do(ctx, func(ctx context.Context, _ int) error {
		g.attempts.Add(1)
		r, err := g.queryOnce(ctx, sql, args)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		g.failures.Add(1)
		return nil, err
	}
	return res, nil
}

// Exec es como Execute para statements sin filas (migraciones, DDL).
func (g *Gateway) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	var tag pgconn.CommandTag
	err := g.retry.Do(ctx, func(ctx context.Context, _ int) error {
		g.attempts.Add(1)
		t, err := g.execOnce(ctx, sql, args)
		if err != nil {
			return err
		}
		tag = t
		return nil
	})
	if err != nil {
		g.failures.Add(1)
		return pgconn.CommandTag{}, err
	}
	return tag, nil
}

func (g *Gateway) queryOnce(ctx context.Context, sql string, args []any) (*Result, error) {
	lease, err := g.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer lease.Release()
	return lease.Query(ctx, sql, args...)
}

func (g *Gateway) execOnce(ctx context.Context, sql string, args []any) (pgconn.CommandTag, error) {
	lease, err := g.Acquire(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	defer lease.Release()
	return lease.Exec(ctx, sql, args...)
}

// Ping verifica que la base responda (health checks).
func (g *Gateway) Ping(ctx context.Context) error {
	if g.closed.Load() {
		return ErrPoolClosed
	}
	return g.checkHealth(ctx)
}

// checkHealth hace ping ocupando un cupo del gateway, igual que un Lease.
// Con todos los cupos prestados el pool está ocupado, no caído: no hay ping.
func (g *Gateway) checkHealth(ctx context.Context) error {
	if !g.sem.TryAcquire(1) {
		return nil
	}
	defer g.sem.Release(1)
	return g.probe(ctx)
}

// Shutdown rechaza operaciones nuevas, espera a que se devuelvan las
// conexiones prestadas (acotado por ctx) y cierra el pool. Es idempotente.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.shutdownOnce.Do(func() {
		g.closed.Store(true)
		close(g.stop)
		g.wg.Wait()

		all := int64(g.cfg.MaxConnections)
		if err := g.sem.Acquire(ctx, all); err != nil {
			g.shutdownErr = fmt.Errorf("%w: %w", ErrDrainTimeout, err)
			g.log.Warn("pg pool shutdown without full drain",
				logger.Int("leased", int(g.leased.Load())), logger.Err(err))
			// pgxpool.Close espera a que vuelvan las conexiones prestadas
			go g.drv.Close()
			return
		}
		g.drv.Close()
		// despierta a quien haya quedado esperando un slot: verá ErrPoolClosed
		g.sem.Release(all)
		g.log.Info("pg pool closed")
	})
	return g.shutdownErr
}

// Closed reporta si Shutdown ya fue llamado.
func (g *Gateway) Closed() bool { return g.closed.Load() }

// Config retorna la configuración con la que se abrió el gateway.
func (g *Gateway) Config() Config { return g.cfg }

// Stats es un snapshot del gateway y del pool físico.
type Stats struct {
	MaxConnections int
	Leased         int64
	Attempts       int64
	Retries        int64
	Failures       int64
	Driver         DriverStat
}

func (g *Gateway) Stat() Stats {
	s := Stats{
		MaxConnections: g.cfg.MaxConnections,
		Leased:         g.leased.Load(),
		Attempts:       g.attempts.Load(),
		Retries:        g.retries.Load(),
		Failures:       g.failures.Load(),
	}
	if !g.closed.Load() {
		s.Driver = g.drv.Stat()
	}
	return s
}

// ---------------------------------------------------------------------------
// internos
// ---------------------------------------------------------------------------

func (g *Gateway) emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	for _, o := range g.observers {
		o.OnPoolEvent(ev)
	}
}

func (g *Gateway) onRetry(attempt int, delay time.Duration, err error) {
	g.retries.Add(1)
	g.log.Warn("pg statement failed, retrying",
		logger.Attempt(attempt),
		logger.Int("max_attempts", g.retry.MaxAttempts),
		logger.Delay(delay),
		logger.Err(err),
	)
}

func (g *Gateway) acquireContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.cfg.ConnectionTimeout > 0 {
		return context.WithTimeout(ctx, g.cfg.ConnectionTimeout)
	}
	return context.WithCancel(ctx)
}

func (g *Gateway) statementContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.cfg.QueryTimeout > 0 {
		return context.WithTimeout(ctx, g.cfg.QueryTimeout)
	}
	return context.WithCancel(ctx)
}

// acquireErr distingue cancelación del caller, timeout de adquisición y pool cerrado.
func (g *Gateway) acquireErr(parent context.Context, err error) error {
	if perr := parent.Err(); perr != nil {
		return perr
	}
	if g.closed.Load() {
		return ErrPoolClosed
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Phase: PhaseAcquire, Limit: g.cfg.ConnectionTimeout, Err: err}
	}
	return err
}

// statementErr marca como timeout los statements cortados por QueryTimeout o
// por el statement_timeout del servidor (SQLSTATE 57014). El resto se devuelve tal cual.
func (g *Gateway) statementErr(parent, qctx context.Context, err error) error {
	if parent.Err() != nil {
		return err
	}
	if errors.Is(qctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Phase: PhaseStatement, Limit: g.cfg.QueryTimeout, Err: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "57014" {
		return &TimeoutError{Phase: PhaseStatement, Limit: g.cfg.StatementTimeout, Err: err}
	}
	return err
}

func (g *Gateway) healthLoop(every time.Duration) {
	defer g.wg.Done()
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-g.stop:
			return
		case <-t.C:
			if err := g.checkHealth(context.Background()); err != nil {
				g.emit(Event{Kind: EventError, Err: err})
			}
		}
	}
}
