package usuarios

import (
	"fmt"
	"time"
)

// Usuario es una fila de la tabla usuarios sin la contraseña.
type Usuario struct {
	ID            int64     `json:"id"`
	Nombre        string    `json:"nombre"`
	Email         string    `json:"email"`
	Rol           string    `json:"rol"`
	Activo        bool      `json:"activo"`
	CreadoEn      time.Time `json:"creado_en"`
	ActualizadoEn time.Time `json:"actualizado_en"`
}

func fromRow(row map[string]any) (Usuario, error) {
	var u Usuario
	id, err := asInt64(row["id"])
	if err != nil {
		return u, fmt.Errorf("usuarios: id: %w", err)
	}
	u.ID = id
	u.Nombre, _ = row["nombre"].(string)
	u.Email, _ = row["email"].(string)
	u.Rol, _ = row["rol"].(string)
	u.Activo, _ = row["activo"].(bool)
	u.CreadoEn, _ = row["creado_en"].(time.Time)
	u.ActualizadoEn, _ = row["actualizado_en"].(time.Time)
	return u, nil
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
