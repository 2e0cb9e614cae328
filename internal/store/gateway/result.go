package gateway

// Result es el resultado materializado de un statement. Las filas se copian
// antes de devolver la conexión al pool.
type Result struct {
	Fields       []string
	Rows         []map[string]any
	RowsAffected int64
	// Command es el command tag de postgres ("SELECT 3", "UPDATE 1", ...).
	Command string
}

// Len retorna la cantidad de filas.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}
