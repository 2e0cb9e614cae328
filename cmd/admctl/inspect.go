package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/usuarios-admin/internal/config"
	"github.com/dropDatabas3/usuarios-admin/internal/inspect"
	"github.com/dropDatabas3/usuarios-admin/internal/store/gateway"
)

func newInspectCmd(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "inspect [table]",
		Short: "Muestra columnas, tipos y cantidad de filas (default: usuarios)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := "usuarios"
			if len(args) == 1 {
				table = args[0]
			}

			return withGateway(cmd.Context(), opts, func(_ *config.Config, gw *gateway.Gateway) error {
				in := inspect.New(gw)
				out := cmd.OutOrStdout()

				if all {
					tables, err := in.Tables(cmd.Context())
					if err != nil {
						return err
					}
					if opts.out == "json" {
						return printJSON(out, tables)
					}
					for _, t := range tables {
						fmt.Fprintln(out, t)
					}
					return nil
				}

				t, err := in.Describe(cmd.Context(), table)
				if err != nil {
					return err
				}
				if opts.out == "json" {
					return printJSON(out, t)
				}

				fmt.Fprintf(out, "%s.%s (%d filas)\n\n", t.Schema, t.Name, t.Rows)
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "COLUMNA\tTIPO\tNULL\tDEFAULT")
				for _, c := range t.Columns {
					def := ""
					if c.Default != nil {
						def = *c.Default
					}
					null := "NO"
					if c.Nullable {
						null = "SI"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, c.DataType, null, def)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&all, "tables", false, "Listar las tablas del schema actual")
	return cmd
}
