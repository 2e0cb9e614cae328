package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa los collectors del servicio sobre un registry propio.
type Metrics struct {
	reg *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        prometheus.Gauge
	poolEventsTotal     *prometheus.CounterVec
	migrationsTotal     *prometheus.CounterVec
}

// New crea el registry con las métricas HTTP, de eventos del pool y de
// migraciones, más los collectors estándar de Go y del proceso.
func New() (*Metrics, error) {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo",
		}),
		poolEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pg_pool_events_total",
			Help: "Eventos del ciclo de vida del pool por tipo",
		}, []string{"event"}),
		migrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "migrations_applied_total",
			Help: "Scripts de migración ejecutados por dirección y resultado",
		}, []string{"direction", "result"}),
	}

	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpInflight,
		m.poolEventsTotal,
		m.migrationsTotal,
	} {
		if err := m.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Register agrega un collector ignorando duplicados.
func (m *Metrics) Register(c prometheus.Collector) error {
	if err := m.reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return err
	}
	return nil
}

// Registry expone el registry (tests y handlers).
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler sirve /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// RecordMigration registra un script ejecutado ("up"/"down", "applied"/"failed").
func (m *Metrics) RecordMigration(direction, result string) {
	if m == nil {
		return
	}
	m.migrationsTotal.WithLabelValues(direction, result).Inc()
}
