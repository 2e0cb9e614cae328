package server

import (
	"encoding/json"
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/usuarios-admin/internal/http/errors"
	"github.com/dropDatabas3/usuarios-admin/internal/observability/logger"
	"github.com/dropDatabas3/usuarios-admin/internal/store/gateway"
	"github.com/dropDatabas3/usuarios-admin/internal/usuarios"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeStoreError traduce errores del gateway/repos a la respuesta HTTP. El
// error original queda en el log del request.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *httperrors.AppError
	switch {
	case errors.Is(err, usuarios.ErrNotFound):
		appErr = httperrors.ErrNotFound
	case gateway.IsTimeout(err, ""):
		appErr = httperrors.ErrDatabaseTimeout.WithCause(err)
	case errors.Is(err, gateway.ErrPoolClosed):
		appErr = httperrors.ErrServiceUnavailable.WithCause(err)
	default:
		appErr = httperrors.ErrInternalServerError.WithCause(err)
	}
	if appErr.HTTPStatus >= 500 {
		logger.From(r.Context()).Error("store error", logger.Code(appErr.Code), logger.Err(err))
	}
	httperrors.WriteError(w, appErr)
}
