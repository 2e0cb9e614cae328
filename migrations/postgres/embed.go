// Package migrations embebe los scripts SQL de la tabla usuarios.
package migrations

import "embed"

// FS contiene los *_up.sql y *_down.sql en la raíz.
//
//go:embed *.sql
var FS embed.FS
