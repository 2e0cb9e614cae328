package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/usuarios-admin/internal/store/gateway"
)

// StatSource es lo que el collector necesita del gateway.
type StatSource interface {
	Stat() gateway.Stats
}

// poolCollector expone el snapshot del gateway en cada scrape.
type poolCollector struct {
	src StatSource

	maxDesc      *prometheus.Desc
	leasedDesc   *prometheus.Desc
	totalDesc    *prometheus.Desc
	idleDesc     *prometheus.Desc
	acquiredDesc *prometheus.Desc
	emptyDesc    *prometheus.Desc
	attemptsDesc *prometheus.Desc
	retriesDesc  *prometheus.Desc
	failuresDesc *prometheus.Desc
}

func newPoolCollector(src StatSource) *poolCollector {
	return &poolCollector{
		src:          src,
		maxDesc:      prometheus.NewDesc("pg_pool_max_connections", "Máximo de conexiones prestadas a la vez", nil, nil),
		leasedDesc:   prometheus.NewDesc("pg_pool_leased", "Conexiones prestadas por el gateway", nil, nil),
		totalDesc:    prometheus.NewDesc("pg_pool_total", "Conexiones físicas abiertas", nil, nil),
		idleDesc:     prometheus.NewDesc("pg_pool_idle", "Conexiones físicas inactivas", nil, nil),
		acquiredDesc: prometheus.NewDesc("pg_pool_acquired", "Conexiones físicas adquiridas", nil, nil),
		emptyDesc:    prometheus.NewDesc("pg_pool_empty_acquire_total", "Adquisiciones que tuvieron que esperar", nil, nil),
		attemptsDesc: prometheus.NewDesc("pg_statement_attempts_total", "Intentos de ejecución de statements", nil, nil),
		retriesDesc:  prometheus.NewDesc("pg_statement_retries_total", "Reintentos de statements", nil, nil),
		failuresDesc: prometheus.NewDesc("pg_statement_failures_total", "Statements que agotaron los reintentos", nil, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.maxDesc
	ch <- c.leasedDesc
	ch <- c.totalDesc
	ch <- c.idleDesc
	ch <- c.acquiredDesc
	ch <- c.emptyDesc
	ch <- c.attemptsDesc
	ch <- c.retriesDesc
	ch <- c.failuresDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stat()
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v)
	}
	gauge(c.maxDesc, float64(s.MaxConnections))
	gauge(c.leasedDesc, float64(s.Leased))
	gauge(c.totalDesc, float64(s.Driver.Total))
	gauge(c.idleDesc, float64(s.Driver.Idle))
	gauge(c.acquiredDesc, float64(s.Driver.Acquired))
	counter(c.emptyDesc, float64(s.Driver.EmptyAcquireCount))
	counter(c.attemptsDesc, float64(s.Attempts))
	counter(c.retriesDesc, float64(s.Retries))
	counter(c.failuresDesc, float64(s.Failures))
}

// ObservePool registra el collector del gateway.
func (m *Metrics) ObservePool(src StatSource) error {
	return m.Register(newPoolCollector(src))
}

// PoolObserver cuenta los eventos del ciclo de vida del pool.
func (m *Metrics) PoolObserver() gateway.Observer {
	return gateway.ObserverFunc(func(ev gateway.Event) {
		m.poolEventsTotal.WithLabelValues(string(ev.Kind)).Inc()
	})
}
