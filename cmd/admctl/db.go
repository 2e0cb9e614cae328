package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dropDatabas3/usuarios-admin/internal/config"
	"github.com/dropDatabas3/usuarios-admin/internal/observability/logger"
	"github.com/dropDatabas3/usuarios-admin/internal/store/gateway"
)

// withGateway abre el gateway, corre fn y lo cierra en todo camino de salida.
func withGateway(ctx context.Context, opts *rootOptions, fn func(*config.Config, *gateway.Gateway) error) error {
	cfg, err := config.Load(opts.configPath, config.WithoutJWT())
	if err != nil {
		return err
	}
	gwCfg, err := gateway.FromConfig(cfg)
	if err != nil {
		return err
	}
	gw, err := gateway.Open(ctx, gwCfg,
		gateway.WithObserver(gateway.LogObserver(logger.Named("pg"))),
	)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := gw.Shutdown(sctx); err != nil {
			logger.L().Warn("gateway shutdown", logger.Err(err))
		}
	}()
	return fn(cfg, gw)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
