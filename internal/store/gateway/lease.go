package gateway

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
)

// Lease es una conexión prestada por el Gateway. Pertenece a un único caller,
// corre un statement a la vez y debe liberarse con Release en todo camino de
// salida. Después de Release cualquier uso devuelve ErrLeaseReleased.
type Lease struct {
	g    *Gateway
	conn driverConn

	mu       sync.Mutex
	released bool
}

// Query corre un statement y materializa sus filas.
func (l *Lease) Query(ctx context.Context, sql string, args ...any) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return nil, ErrLeaseReleased
	}

	qctx, cancel := l.g.statementContext(ctx)
	defer cancel()

	res, err := l.conn.Query(qctx, sql, args...)
	if err != nil {
		return nil, l.g.statementErr(ctx, qctx, err)
	}
	return res, nil
}

// Exec corre un statement sin result set (DDL, scripts con varios statements).
func (l *Lease) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return pgconn.CommandTag{}, ErrLeaseReleased
	}

	qctx, cancel := l.g.statementContext(ctx)
	defer cancel()

	tag, err := l.conn.Exec(qctx, sql, args...)
	if err != nil {
		return pgconn.CommandTag{}, l.g.statementErr(ctx, qctx, err)
	}
	return tag, nil
}

// Release devuelve la conexión al pool. Es idempotente.
func (l *Lease) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return
	}
	l.released = true
	l.conn.Release()
	l.g.leased.Add(-1)
	l.g.sem.Release(1)
}
