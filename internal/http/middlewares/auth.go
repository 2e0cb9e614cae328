package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/usuarios-admin/internal/auth"
	"github.com/dropDatabas3/usuarios-admin/internal/http/errors"
	"github.com/dropDatabas3/usuarios-admin/internal/observability/logger"
)

// RequireAuth autentica el header Authorization y deja el Principal en el
// contexto. NO_TOKEN responde 401; INVALID_TOKEN responde 403.
func RequireAuth(gate *auth.Gate) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, rej := gate.Authenticate(r.Header.Get("Authorization"))
			if rej != nil {
				logger.From(r.Context()).Info("request rejected", logger.Code(rej.Code))
				if rej.HTTPStatus == http.StatusUnauthorized {
					w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				}
				errors.WriteError(w, rej)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), p)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(p.ID), logger.Role(p.Role)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole aplica la Policy sobre el Principal del contexto. Sin
// RequireAuth previo responde NOT_AUTHENTICATED.
func RequireRole(policy *auth.Policy) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := auth.PrincipalFrom(r.Context())
			if rej := policy.Check(p); rej != nil {
				logger.From(r.Context()).Info("request rejected", logger.Code(rej.Code))
				errors.WriteError(w, rej)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoles es el atajo RequireRole(auth.Authorize(roles...)).
func RequireRoles(roles ...string) Middleware {
	return RequireRole(auth.Authorize(roles...))
}
