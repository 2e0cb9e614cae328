package usuarios

import (
	"context"
	"errors"

	"github.com/dropDatabas3/usuarios-admin/internal/store/gateway"
)

var ErrNotFound = errors.New("usuarios: not found")

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

const selectColumns = `id, nombre, email, rol, activo, creado_en, actualizado_en`

// Repository consulta usuarios a través del gateway. Los parámetros pasan
// sin transformar como argumentos posicionales.
type Repository struct {
	db gateway.Executor
}

func NewRepository(db gateway.Executor) *Repository {
	return &Repository{db: db}
}

// List pagina por id ascendente. limit fuera de rango usa DefaultLimit / MaxLimit.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Usuario, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)
	offset = max(offset, 0)

	res, err := r.db.Execute(ctx,
		`SELECT `+selectColumns+` FROM usuarios ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]Usuario, 0, res.Len())
	for _, row := range res.Rows {
		u, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Usuario, error) {
	res, err := r.db.Execute(ctx, `SELECT `+selectColumns+` FROM usuarios WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if res.Len() == 0 {
		return nil, ErrNotFound
	}
	u, err := fromRow(res.Rows[0])
	if err != nil {
		return nil, err
	}
	return &u, nil
}
