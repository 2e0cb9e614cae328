package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/usuarios-admin/internal/auth"
	httperrors "github.com/dropDatabas3/usuarios-admin/internal/http/errors"
	"github.com/dropDatabas3/usuarios-admin/internal/observability/logger"
	"github.com/dropDatabas3/usuarios-admin/internal/usuarios"
)

// UsuarioStore es lo que los handlers necesitan del repositorio.
type UsuarioStore interface {
	List(ctx context.Context, limit, offset int) ([]usuarios.Usuario, error)
	GetByID(ctx context.Context, id int64) (*usuarios.Usuario, error)
}

// Pinger verifica la base para /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type usuariosHandler struct {
	store UsuarioStore
}

type listResponse struct {
	Items  []usuarios.Usuario `json:"items"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

func (h *usuariosHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", usuarios.DefaultLimit)
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset", 0)
	if !ok {
		return
	}

	items, err := h.store.List(r.Context(), limit, offset)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Limit: limit, Offset: offset})
}

func (h *usuariosHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("id debe ser un entero positivo"))
		return
	}
	u, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func me(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		httperrors.WriteError(w, httperrors.ErrNotAuthenticated)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func queryInt(w http.ResponseWriter, r *http.Request, key string, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail(key+" debe ser un entero no negativo"))
		return 0, false
	}
	return n, true
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func healthz(db Pinger, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			// el detalle del driver puede traer host o DSN: solo al log
			logger.From(r.Context()).Error("healthz ping failed", logger.Err(err))
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Database: "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "ok"})
	}
}
