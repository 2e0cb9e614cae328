package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret  = errors.New("auth: empty signing secret")
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Verifier firma y valida tokens HS256 con un secreto compartido. El secreto
// es de solo lectura después de construirlo.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
	now    func() time.Time
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	v := &Verifier{secret: []byte(secret), now: time.Now}
	v.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return v.now() }),
	)
	return v, nil
}

// Verify valida firma, algoritmo y expiración. Cualquier falla se reporta
// como ErrInvalidToken envolviendo la causa.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Sign emite un token para p con vencimiento now+ttl. Se usa en el CLI y en tests.
func (v *Verifier) Sign(p Principal, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		ID:    UserID(p.ID),
		Email: p.Email,
		Role:  p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
