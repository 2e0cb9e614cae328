// Package server arma el router HTTP del servicio de administración de usuarios.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/usuarios-admin/internal/auth"
	httperrors "github.com/dropDatabas3/usuarios-admin/internal/http/errors"
	mw "github.com/dropDatabas3/usuarios-admin/internal/http/middlewares"
	"github.com/dropDatabas3/usuarios-admin/internal/metrics"
)

type Deps struct {
	Gate    *auth.Gate
	Store   UsuarioStore
	DB      Pinger
	Metrics *metrics.Metrics

	// HealthTimeout acota el ping de /healthz (default 2s).
	HealthTimeout time.Duration
}

// Políticas por ruta.
var (
	listPolicy = auth.Authorize(auth.RoleAdmin)
	getPolicy  = auth.Authorize(auth.RoleAdmin, auth.RoleSoporte)
)

// NewRouter registra:
//
//	GET /healthz             público
//	GET /metrics             público (si hay Metrics)
//	GET /v1/me               cualquier usuario autenticado
//	GET /v1/usuarios         admin
//	GET /v1/usuarios/{id}    admin, soporte
func NewRouter(d Deps) http.Handler {
	if d.HealthTimeout <= 0 {
		d.HealthTimeout = 2 * time.Second
	}

	r := chi.NewRouter()
	r.Use(mw.WithRecover(), mw.WithRequestID(), mw.WithMetrics(d.Metrics))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})

	// sin logging: health y scrapes son muy frecuentes
	r.Get("/healthz", healthz(d.DB, d.HealthTimeout))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	h := &usuariosHandler{store: d.Store}
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.WithLogging(), mw.RequireAuth(d.Gate))

		r.Get("/me", me)
		r.With(mw.RequireRole(listPolicy)).Get("/usuarios", h.list)
		r.With(mw.RequireRole(getPolicy)).Get("/usuarios/{id}", h.get)
	})
	return r
}
