package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/usuarios-admin/internal/config"
	"github.com/dropDatabas3/usuarios-admin/internal/store/gateway"
)

func newPingCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Abre el pool (probe incluido) y muestra sus estadísticas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withGateway(cmd.Context(), opts, func(_ *config.Config, gw *gateway.Gateway) error {
				res, err := gw.Execute(cmd.Context(), "SELECT version() AS version")
				if err != nil {
					return err
				}
				st := gw.Stat()
				version := ""
				if res.Len() == 1 {
					version, _ = res.Rows[0]["version"].(string)
				}
				if opts.out == "json" {
					return printJSON(cmd.OutOrStdout(), map[string]any{
						"ok":              true,
						"server_version":  version,
						"max_connections": st.MaxConnections,
						"total":           st.Driver.Total,
						"idle":            st.Driver.Idle,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				fmt.Fprintln(cmd.OutOrStdout(), version)
				fmt.Fprintf(cmd.OutOrStdout(), "max=%d total=%d idle=%d\n", st.MaxConnections, st.Driver.Total, st.Driver.Idle)
				return nil
			})
		},
	}
}
