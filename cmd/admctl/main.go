package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/usuarios-admin/internal/config"
	"github.com/dropDatabas3/usuarios-admin/internal/observability/logger"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("no .env file loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	out        string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{
		configPath: os.Getenv("CONFIG_FILE"),
		out:        "text",
	}

	root := &cobra.Command{
		Use:           "admctl",
		Short:         "Tareas administrativas sobre la tabla usuarios",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			lc, err := loggerConfig(opts.configPath)
			if err != nil {
				return err
			}
			logger.Init(lc)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", opts.configPath, "YAML opcional (env CONFIG_FILE)")
	root.PersistentFlags().StringVar(&opts.out, "out", opts.out, "Formato de salida: text|json")

	root.AddCommand(
		newMigrateCmd(opts),
		newInspectCmd(opts),
		newTokenCmd(opts),
		newPingCmd(opts),
	)
	return root
}

// loggerConfig toma app.env / app.log_level del YAML de --config con los
// overrides de env, igual que el servicio. No exige DATABASE_URL ni JWT_SECRET:
// cada subcomando valida lo que usa.
func loggerConfig(path string) (logger.Config, error) {
	cfg, err := config.Load(path, config.WithoutJWT(), config.WithoutDatabase())
	if err != nil {
		return logger.Config{}, err
	}
	return logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "admctl"}, nil
}
