// Package gateway es el único punto de acceso a PostgreSQL.
//
// Un Gateway envuelve un pgxpool.Pool y agrega tres cosas:
//
//   - Un límite explícito de conexiones prestadas (Lease) con timeout de adquisición.
//   - Reintentos con delay lineal (1×, 2× RetryInterval) para Execute y Exec;
//     cada intento adquiere y libera su propia conexión.
//   - Eventos de ciclo de vida (connect, error, remove) hacia Observers.
//
// Uso:
//
//	gw, err := gateway.Open(ctx, cfg, gateway.WithObserver(gateway.LogObserver(nil)))
//	if err != nil {
//		logger.L().Fatal("db init", logger.Err(err))
//	}
//	defer gw.Shutdown(context.Background())
//
//	res, err := gw.Execute(ctx, `SELECT id, email FROM usuarios WHERE id = $1`, id)
//
// Los reintentos asumen statements idempotentes: un INSERT que falla después de
// haberse aplicado puede ejecutarse dos veces.
package gateway
