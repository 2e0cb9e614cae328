package gateway

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDriver simula un pool físico sin límite propio: el límite lo pone el gateway.
type fakeDriver struct {
	mu      sync.Mutex
	pingErr error
	// slots, si no es nil, acota las conexiones físicas como pgxpool MaxConns;
	// Ping también ocupa un slot mientras dura.
	slots chan struct{}
	// query decide el resultado de cada statement según el número de llamada (1-based).
	query func(ctx context.Context, call int) (*Result, error)

	calls    atomic.Int32
	acquires atomic.Int32
	releases atomic.Int32
	closed   atomic.Bool
	nextID   atomic.Int32
}

func (f *fakeDriver) Acquire(ctx context.Context) (driverConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.take(ctx); err != nil {
		return nil, err
	}
	f.acquires.Add(1)
	return &fakeConn{d: f, id: f.nextID.Add(1)}, nil
}

func (f *fakeDriver) Ping(ctx context.Context) error {
	if err := f.take(ctx); err != nil {
		return err
	}
	defer f.give()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func newBoundedDriver(max int) *fakeDriver {
	return &fakeDriver{slots: make(chan struct{}, max)}
}

func (f *fakeDriver) take(ctx context.Context) error {
	if f.slots == nil {
		return nil
	}
	select {
	case f.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeDriver) give() {
	if f.slots != nil {
		<-f.slots
	}
}

func (f *fakeDriver) setPingErr(err error) {
	f.mu.Lock()
	f.pingErr = err
	f.mu.Unlock()
}

func (f *fakeDriver) Stat() DriverStat {
	return DriverStat{Acquired: f.acquires.Load() - f.releases.Load()}
}

func (f *fakeDriver) Close() { f.closed.Store(true) }

type fakeConn struct {
	d  *fakeDriver
	id int32
}

func (c *fakeConn) Query(ctx context.Context, _ string, _ ...any) (*Result, error) {
	n := int(c.d.calls.Add(1))
	if c.d.query == nil {
		return &Result{Command: "SELECT 0"}, nil
	}
	return c.d.query(ctx, n)
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	res, err := c.Query(ctx, sql, args...)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return pgconn.NewCommandTag(res.Command), nil
}

func (c *fakeConn) Release() {
	c.d.releases.Add(1)
	c.d.give()
}
