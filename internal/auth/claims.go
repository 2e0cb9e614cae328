package auth

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// UserID acepta el claim "id" como string o como número.
type UserID string

func (u *UserID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*u = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*u = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*u = UserID(n.String())
	return nil
}

// Claims del access token. "sub" se usa como id si "id" no viene.
type Claims struct {
	ID    UserID `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Principal es la identidad verificada de un request. Solo vive en el context.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

func (c *Claims) Principal() *Principal {
	id := string(c.ID)
	if id == "" {
		id = c.Subject
	}
	return &Principal{ID: id, Email: c.Email, Role: c.Role}
}

// NumericID retorna el id como entero cuando lo es (la PK de usuarios es serial).
func (p *Principal) NumericID() (int64, bool) {
	n, err := strconv.ParseInt(p.ID, 10, 64)
	return n, err == nil
}
