package auth

import (
	"strings"

	"go.uber.org/zap"

	httperrors "github.com/dropDatabas3/usuarios-admin/internal/http/errors"
	"github.com/dropDatabas3/usuarios-admin/internal/observability/logger"
)

// Gate es la etapa de autenticación: header → Principal verificado.
type Gate struct {
	v   *Verifier
	log *zap.Logger
}

func NewGate(v *Verifier) *Gate {
	return &Gate{v: v, log: logger.Named("auth")}
}

// BearerToken extrae el segundo campo del header ("Bearer <token>").
// El esquema no se valida.
func BearerToken(header string) string {
	fields := strings.Fields(header)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// Authenticate devuelve NO_TOKEN si no hay token e INVALID_TOKEN si la firma,
// el algoritmo o la expiración no validan. Expirado y falsificado no se distinguen.
func (g *Gate) Authenticate(header string) (*Principal, *httperrors.AppError) {
	raw := BearerToken(header)
	if raw == "" {
		return nil, httperrors.ErrNoToken
	}
	claims, err := g.v.Verify(raw)
	if err != nil {
		g.log.Debug("token rejected", logger.Err(err))
		return nil, httperrors.ErrInvalidToken.WithCause(err)
	}
	return claims.Principal(), nil
}
