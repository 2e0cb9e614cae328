package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/usuarios-admin/internal/metrics"
)

// WithMetrics instrumenta requests con Prometheus. Con m nil no hace nada.
func WithMetrics(m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return m.InstrumentHTTP(next)
	}
}
