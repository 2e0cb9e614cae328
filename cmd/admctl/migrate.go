package main

import (
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/usuarios-admin/internal/config"
	"github.com/dropDatabas3/usuarios-admin/internal/migrate"
	"github.com/dropDatabas3/usuarios-admin/internal/store/gateway"
	migrations "github.com/dropDatabas3/usuarios-admin/migrations/postgres"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var (
		dir      string
		embedded bool
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:       "migrate up|down [steps]",
		Short:     "Aplica los scripts *_up.sql / *_down.sql en orden",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := migrate.Direction(args[0])
			steps := 0
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n < 0 {
					return fmt.Errorf("steps inválido: %q", args[1])
				}
				steps = n
			}

			source := func(cfg *config.Config) fs.FS {
				if embedded {
					return migrations.FS
				}
				d := dir
				if d == "" {
					d = cfg.Database.MigrationsDir
				}
				return os.DirFS(d)
			}

			if dryRun {
				cfg, err := config.Load(opts.configPath, config.WithoutJWT(), config.WithoutDatabase())
				if err != nil {
					return err
				}
				files, err := migrate.New(nil, source(cfg)).Plan(direction, steps)
				if err != nil {
					return err
				}
				for _, f := range files {
					fmt.Fprintln(cmd.OutOrStdout(), f)
				}
				return nil
			}

			return withGateway(cmd.Context(), opts, func(cfg *config.Config, gw *gateway.Gateway) error {
				applied, err := migrate.New(gw, source(cfg)).Run(cmd.Context(), direction, steps)
				for _, f := range applied {
					fmt.Fprintln(cmd.OutOrStdout(), "OK", f)
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directorio de migraciones (default: database.migrations_dir / MIGRATIONS_DIR)")
	cmd.Flags().BoolVar(&embedded, "embedded", false, "Usar los scripts embebidos en el binario")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Solo listar los scripts que se aplicarían")
	return cmd
}
