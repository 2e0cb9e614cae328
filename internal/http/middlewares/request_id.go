package middlewares

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const headerRequestID = "X-Request-ID"

// WithRequestID propaga X-Request-ID o genera uno nuevo (UUIDv4), lo expone en
// la respuesta y lo deja en el contexto.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get(headerRequestID))
			if rid == "" || len(rid) > 128 {
				rid = uuid.NewString()
			}
			w.Header().Set(headerRequestID, rid)
			next.ServeHTTP(w, r.WithContext(setRequestID(r.Context(), rid)))
		})
	}
}
