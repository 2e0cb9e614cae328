package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dropDatabas3/usuarios-admin/internal/auth"
	"github.com/dropDatabas3/usuarios-admin/internal/config"
	"github.com/dropDatabas3/usuarios-admin/internal/http/server"
	"github.com/dropDatabas3/usuarios-admin/internal/metrics"
	"github.com/dropDatabas3/usuarios-admin/internal/observability/logger"
	"github.com/dropDatabas3/usuarios-admin/internal/store/gateway"
	"github.com/dropDatabas3/usuarios-admin/internal/usuarios"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded (%v), using process environment", err)
	}

	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "YAML opcional; las variables de entorno tienen prioridad")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "usuarios-admin"})
	defer func() { _ = logger.Sync() }()
	lg := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := metrics.New()
	if err != nil {
		lg.Fatal("metrics init failed", logger.Err(err))
	}

	gwCfg, err := gateway.FromConfig(cfg)
	if err != nil {
		lg.Fatal("invalid pool configuration", logger.Err(err))
	}
	gw, err := gateway.Open(ctx, gwCfg,
		gateway.WithObserver(gateway.LogObserver(logger.Named("pg"))),
		gateway.WithObserver(m.PoolObserver()),
	)
	if err != nil {
		// no arrancamos sin base
		lg.Fatal("database unavailable", logger.Err(err))
	}
	if err := m.ObservePool(gw); err != nil {
		lg.Fatal("metrics pool collector", logger.Err(err))
	}

	verifier, err := auth.NewVerifier(cfg.JWT.Secret)
	if err != nil {
		lg.Fatal("jwt verifier", logger.Err(err))
	}

	handler := server.NewRouter(server.Deps{
		Gate:    auth.NewGate(verifier),
		Store:   usuarios.NewRepository(gw),
		DB:      gw,
		Metrics: m,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      gwCfg.QueryTimeout + 10*time.Second,
		ErrorLog:          zap.NewStdLog(logger.Named("http")),
	}

	serveErr := server.Serve(ctx, srv, cfg.ShutdownTimeout())
	if serveErr != nil {
		lg.Error("http server stopped with error", logger.Err(serveErr))
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := gw.Shutdown(sctx); err != nil {
		lg.Error("gateway shutdown", logger.Err(err))
	}

	if serveErr != nil {
		os.Exit(1)
	}
}
