package gateway

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// driver es la superficie mínima del pool físico que usa el gateway.
type driver interface {
	Acquire(ctx context.Context) (driverConn, error)
	Ping(ctx context.Context) error
	Stat() DriverStat
	Close()
}

type driverConn interface {
	Query(ctx context.Context, sql string, args ...any) (*Result, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Release()
}

// DriverStat es un snapshot del pool físico.
type DriverStat struct {
	Total             int32
	Idle              int32
	Acquired          int32
	EmptyAcquireCount int64
	AcquireDuration   time.Duration
}

// ---------------------------------------------------------------------------
// pgxpool
// ---------------------------------------------------------------------------

type pgxDriver struct{ pool *pgxpool.Pool }

func newPgxDriver(ctx context.Context, cfg Config, emit func(Event)) (*pgxDriver, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}

	pcfg.MaxConns = int32(cfg.MaxConnections)
	pcfg.MinConns = 0
	if cfg.IdleTimeout > 0 {
		pcfg.MaxConnIdleTime = cfg.IdleTimeout
	}
	if cfg.HealthCheckPeriod > 0 {
		pcfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	cc := pcfg.ConnConfig
	if cfg.ConnectionTimeout > 0 {
		cc.ConnectTimeout = cfg.ConnectionTimeout
	}
	if cfg.KeepAlive > 0 {
		d := &net.Dialer{Timeout: cfg.ConnectionTimeout, KeepAlive: cfg.KeepAlive}
		cc.DialFunc = d.DialContext
	}
	if cfg.StatementTimeout > 0 {
		if cc.RuntimeParams == nil {
			cc.RuntimeParams = map[string]string{}
		}
		cc.RuntimeParams["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}
	if cfg.TLSInsecure {
		relaxTLS(&cc.Config)
	}

	pcfg.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		emit(Event{Kind: EventConnect, At: time.Now(), PID: conn.PgConn().PID()})
		return nil
	}
	pcfg.BeforeClose = func(conn *pgx.Conn) {
		emit(Event{Kind: EventRemove, At: time.Now(), PID: conn.PgConn().PID()})
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	return &pgxDriver{pool: pool}, nil
}

// relaxTLS apaga la verificación del certificado en la config TLS principal y
// en los fallbacks. Si la URL pidió sslmode=disable no hay TLS que relajar.
func relaxTLS(c *pgconn.Config) {
	if c.TLSConfig != nil {
		c.TLSConfig.InsecureSkipVerify = true
		c.TLSConfig.VerifyPeerCertificate = nil
	}
	for _, fb := range c.Fallbacks {
		if fb.TLSConfig != nil {
			fb.TLSConfig.InsecureSkipVerify = true
			fb.TLSConfig.VerifyPeerCertificate = nil
		}
	}
}

func (d *pgxDriver) Acquire(ctx context.Context) (driverConn, error) {
	c, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxConn{c: c}, nil
}

func (d *pgxDriver) Ping(ctx context.Context) error { return d.pool.Ping(ctx) }

func (d *pgxDriver) Close() { d.pool.Close() }

func (d *pgxDriver) Stat() DriverStat {
	s := d.pool.Stat()
	return DriverStat{
		Total:             s.TotalConns(),
		Idle:              s.IdleConns(),
		Acquired:          s.AcquiredConns(),
		EmptyAcquireCount: s.EmptyAcquireCount(),
		AcquireDuration:   s.AcquireDuration(),
	}
}

type pgxConn struct{ c *pgxpool.Conn }

func (p *pgxConn) Query(ctx context.Context, sql string, args ...any) (*Result, error) {
	rows, err := p.c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	fds := rows.FieldDescriptions()
	fields := make([]string, len(fds))
	for i, fd := range fds {
		fields[i] = fd.Name
	}

	data, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	tag := rows.CommandTag()
	return &Result{
		Fields:       fields,
		Rows:         data,
		RowsAffected: tag.RowsAffected(),
		Command:      tag.String(),
	}, nil
}

func (p *pgxConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.c.Exec(ctx, sql, args...)
}

func (p *pgxConn) Release() { p.c.Release() }
