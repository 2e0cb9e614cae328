package auth

import (
	"context"

	httperrors "github.com/dropDatabas3/usuarios-admin/internal/http/errors"
)

// Roles conocidos de usuarios.rol.
const (
	RoleAdmin   = "admin"
	RoleSoporte = "soporte"
	RoleUsuario = "usuario"
)

// Policy es la etapa de autorización: un conjunto fijo de roles permitidos.
type Policy struct {
	roles map[string]struct{}
}

// Authorize arma una Policy. Sin roles no autoriza a nadie.
func Authorize(roles ...string) *Policy {
	m := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		m[r] = struct{}{}
	}
	return &Policy{roles: m}
}

// Check: nil → NOT_AUTHENTICATED; rol fuera del conjunto → INSUFFICIENT_PERMISSIONS.
func (p *Policy) Check(pr *Principal) *httperrors.AppError {
	if pr == nil {
		return httperrors.ErrNotAuthenticated
	}
	if _, ok := p.roles[pr.Role]; !ok {
		return httperrors.ErrInsufficientPermissions
	}
	return nil
}

// Roles lista los roles permitidos (orden no garantizado).
func (p *Policy) Roles() []string {
	out := make([]string, 0, len(p.roles))
	for r := range p.roles {
		out = append(out, r)
	}
	return out
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
