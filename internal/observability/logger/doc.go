// Package logger expone un logger zap global con scoping por contexto.
//
// Inicialización (una vez en main):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "usuarios-admin"})
//	defer logger.Sync()
//
// En handlers o servicios:
//
//	logger.From(ctx).Info("usuario consultado", logger.UserID(id))
//
// "dev" escribe en consola con colores; "prod" escribe JSON.
package logger
