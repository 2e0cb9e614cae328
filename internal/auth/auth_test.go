package auth

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	httperrors "github.com/dropDatabas3/usuarios-admin/internal/http/errors"
)

const testSecret = "s3cr3t-de-prueba"

func newTestGate(t *testing.T) (*Gate, *Verifier) {
	t.Helper()
	v, err := NewVerifier(testSecret)
	require.NoError(t, err)
	return NewGate(v), v
}

func TestNewVerifier_EmptySecret(t *testing.T) {
	_, err := NewVerifier("")
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestAuthenticate_NoToken(t *testing.T) {
	g, _ := newTestGate(t)
	for _, h := range []string{"", "Bearer", "   ", "Bearer   "} {
		p, rej := g.Authenticate(h)
		require.Nil(t, p)
		require.Same(t, httperrors.ErrNoToken, rej, "header %q", h)
	}
}

func TestAuthenticate_ValidToken(t *testing.T) {
	g, v := newTestGate(t)
	tok, err := v.Sign(Principal{ID: "7", Email: "ana@example.com", Role: RoleAdmin}, time.Hour)
	require.NoError(t, err)

	p, rej := g.Authenticate("Bearer " + tok)
	require.Nil(t, rej)
	require.Equal(t, &Principal{ID: "7", Email: "ana@example.com", Role: RoleAdmin}, p)

	n, ok := p.NumericID()
	require.True(t, ok)
	require.EqualValues(t, 7, n)
}

func TestAuthenticate_SchemeIsNotChecked(t *testing.T) {
	g, v := newTestGate(t)
	tok, err := v.Sign(Principal{ID: "1", Role: RoleSoporte}, time.Minute)
	require.NoError(t, err)

	p, rej := g.Authenticate("Token " + tok)
	require.Nil(t, rej)
	require.Equal(t, RoleSoporte, p.Role)
}

func TestAuthenticate_ExpiredTokenIsInvalid(t *testing.T) {
	g, v := newTestGate(t)
	v.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := v.Sign(Principal{ID: "1", Role: RoleAdmin}, time.Hour)
	require.NoError(t, err)
	v.now = time.Now

	p, rej := g.Authenticate("Bearer " + tok)
	require.Nil(t, p)
	require.Equal(t, "INVALID_TOKEN", rej.Code)
	require.Equal(t, 403, rej.HTTPStatus)
	require.ErrorIs(t, rej, jwt.ErrTokenExpired)
}

func TestAuthenticate_ForgedTokenIsInvalid(t *testing.T) {
	g, _ := newTestGate(t)
	other, err := NewVerifier("otro-secreto")
	require.NoError(t, err)
	tok, err := other.Sign(Principal{ID: "1", Role: RoleAdmin}, time.Hour)
	require.NoError(t, err)

	_, rej := g.Authenticate("Bearer " + tok)
	require.ErrorIs(t, rej, httperrors.ErrInvalidToken)
	require.ErrorIs(t, rej, jwt.ErrTokenSignatureInvalid)
}

func TestAuthenticate_RejectsOtherAlgorithms(t *testing.T) {
	g, _ := newTestGate(t)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"id": "1", "role": RoleAdmin, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, rej := g.Authenticate("Bearer " + hs512)
	require.ErrorIs(t, rej, httperrors.ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id": "1", "role": RoleAdmin, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, rej = g.Authenticate("Bearer " + none)
	require.ErrorIs(t, rej, httperrors.ErrInvalidToken)
}

func TestAuthenticate_RequiresExpiration(t *testing.T) {
	g, _ := newTestGate(t)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": "1", "role": RoleAdmin,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, rej := g.Authenticate("Bearer " + tok)
	require.ErrorIs(t, rej, httperrors.ErrInvalidToken)
}

func TestAuthenticate_Malformed(t *testing.T) {
	g, v := newTestGate(t)
	tok, err := v.Sign(Principal{ID: "1", Role: RoleUsuario}, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(`{"id":"1","role":"admin","exp":9999999999}`))
	for _, raw := range []string{"abc", "a.b.c", strings.Join(parts, ".")} {
		_, rej := g.Authenticate("Bearer " + raw)
		require.ErrorIs(t, rej, httperrors.ErrInvalidToken, raw)
	}
}

func TestClaims_NumericIDAndSubFallback(t *testing.T) {
	g, _ := newTestGate(t)
	exp := time.Now().Add(time.Hour).Unix()

	numeric, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": 42, "email": "x@example.com", "role": RoleAdmin, "exp": exp,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	p, rej := g.Authenticate("Bearer " + numeric)
	require.Nil(t, rej)
	require.Equal(t, "42", p.ID)

	sub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "99", "role": RoleSoporte, "exp": exp,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	p, rej = g.Authenticate("Bearer " + sub)
	require.Nil(t, rej)
	require.Equal(t, "99", p.ID)
}

func TestPolicy_Check(t *testing.T) {
	pol := Authorize(RoleAdmin, RoleSoporte)

	require.Same(t, httperrors.ErrNotAuthenticated, pol.Check(nil))
	require.Same(t, httperrors.ErrInsufficientPermissions, pol.Check(&Principal{ID: "1", Role: RoleUsuario}))
	require.Same(t, httperrors.ErrInsufficientPermissions, pol.Check(&Principal{ID: "1"}))
	require.Nil(t, pol.Check(&Principal{ID: "1", Role: RoleAdmin}))
	require.Nil(t, pol.Check(&Principal{ID: "1", Role: RoleSoporte}))

	require.ElementsMatch(t, []string{RoleAdmin, RoleSoporte}, pol.Roles())
	require.Same(t, httperrors.ErrInsufficientPermissions, Authorize().Check(&Principal{Role: RoleAdmin}))
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFrom(context.Background())
	require.False(t, ok)

	ctx := WithPrincipal(context.Background(), &Principal{ID: "3", Role: RoleAdmin})
	p, ok := PrincipalFrom(ctx)
	require.True(t, ok)
	require.Equal(t, "3", p.ID)

	_, ok = PrincipalFrom(WithPrincipal(context.Background(), nil))
	require.False(t, ok)
}
