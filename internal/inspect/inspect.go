// Package inspect describe tablas a partir de information_schema.
package inspect

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/usuarios-admin/internal/store/gateway"
)

var ErrTableNotFound = errors.New("inspect: table not found")

type Column struct {
	Name     string  `json:"name"`
	DataType string  `json:"data_type"`
	Nullable bool    `json:"nullable"`
	Default  *string `json:"default,omitempty"`
}

type Table struct {
	Schema  string   `json:"schema"`
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
	Rows    int64    `json:"rows"`
}

// information_schema usa dominios (sql_identifier, yes_or_no): se castea a text.
const columnsSQL = `
SELECT column_name::text AS column_name,
       data_type::text AS data_type,
       is_nullable::text AS is_nullable,
       column_default::text AS column_default
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1
ORDER BY ordinal_position`

const tablesSQL = `
SELECT table_name::text AS table_name
FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`

type Inspector struct {
	db gateway.Executor
}

func New(db gateway.Executor) *Inspector { return &Inspector{db: db} }

// Tables lista las tablas del schema actual.
func (i *Inspector) Tables(ctx context.Context) ([]string, error) {
	res, err := i.db.Execute(ctx, tablesSQL)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, res.Len())
	for _, row := range res.Rows {
		if name, ok := row["table_name"].(string); ok {
			out = append(out, name)
		}
	}
	return out, nil
}

// Describe retorna columnas y cantidad de filas de table.
func (i *Inspector) Describe(ctx context.Context, table string) (*Table, error) {
	res, err := i.db.Execute(ctx, columnsSQL, table)
	if err != nil {
		return nil, err
	}
	if res.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	t := &Table{Schema: "public", Name: table, Columns: make([]Column, 0, res.Len())}
	for _, row := range res.Rows {
		c := Column{}
		c.Name, _ = row["column_name"].(string)
		c.DataType, _ = row["data_type"].(string)
		nullable, _ := row["is_nullable"].(string)
		c.Nullable = nullable == "YES"
		if d, ok := row["column_default"].(string); ok {
			c.Default = &d
		}
		t.Columns = append(t.Columns, c)
	}

	// el identificador no se puede pasar como parámetro
	count, err := i.db.Execute(ctx, `SELECT count(*) AS rows, current_schema() AS schema FROM `+pgx.Identifier{table}.Sanitize())
	if err != nil {
		return nil, err
	}
	if count.Len() == 1 {
		if n, ok := count.Rows[0]["rows"].(int64); ok {
			t.Rows = n
		}
		if s, ok := count.Rows[0]["schema"].(string); ok {
			t.Schema = s
		}
	}
	return t, nil
}
