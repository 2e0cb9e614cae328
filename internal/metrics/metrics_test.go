package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/usuarios-admin/internal/store/gateway"
)

type staticStats gateway.Stats

func (s staticStats) Stat() gateway.Stats { return gateway.Stats(s) }

func TestPoolCollector(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	require.NoError(t, m.ObservePool(staticStats{
		MaxConnections: 10,
		Leased:         2,
		Attempts:       7,
		Retries:        3,
		Failures:       1,
		Driver:         gateway.DriverStat{Total: 4, Idle: 2, Acquired: 2},
	}))

	expected := `
# HELP pg_pool_leased Conexiones prestadas por el gateway
# TYPE pg_pool_leased gauge
pg_pool_leased 2
# HELP pg_pool_max_connections Máximo de conexiones prestadas a la vez
# TYPE pg_pool_max_connections gauge
pg_pool_max_connections 10
# HELP pg_statement_retries_total Reintentos de statements
# TYPE pg_statement_retries_total counter
pg_statement_retries_total 3
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"pg_pool_leased", "pg_pool_max_connections", "pg_statement_retries_total"))
}

func TestPoolObserverCountsEvents(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	obs := m.PoolObserver()
	obs.OnPoolEvent(gateway.Event{Kind: gateway.EventConnect})
	obs.OnPoolEvent(gateway.Event{Kind: gateway.EventConnect})
	obs.OnPoolEvent(gateway.Event{Kind: gateway.EventError})

	require.Equal(t, 2.0, testutil.ToFloat64(m.poolEventsTotal.WithLabelValues("connect")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.poolEventsTotal.WithLabelValues("error")))
}

func TestInstrumentHTTP_UsesRoutePattern(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(m.InstrumentHTTP)
	r.Get("/v1/usuarios/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/usuarios/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	require.Equal(t, 3.0, testutil.ToFloat64(
		m.httpRequestsTotal.WithLabelValues("GET", "/v1/usuarios/{id}", "404")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.httpInflight))
}

func TestHandlerServesRegistry(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	m.RecordMigration("up", "applied")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `migrations_applied_total{direction="up",result="applied"} 1`)

	var nilMetrics *Metrics
	nilMetrics.RecordMigration("up", "applied")
}
