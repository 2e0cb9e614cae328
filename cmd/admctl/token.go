package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/usuarios-admin/internal/auth"
	"github.com/dropDatabas3/usuarios-admin/internal/config"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var p auth.Principal
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un access token HS256 con JWT_SECRET (desarrollo / pruebas manuales)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath, config.WithoutDatabase())
			if err != nil {
				return err
			}
			v, err := auth.NewVerifier(cfg.JWT.Secret)
			if err != nil {
				return err
			}
			tok, err := v.Sign(p, ttl)
			if err != nil {
				return err
			}
			if opts.out == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"access_token": tok,
					"token_type":   "Bearer",
					"expires_in":   int(ttl.Seconds()),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&p.ID, "id", "", "Id del usuario (claim id)")
	cmd.Flags().StringVar(&p.Email, "email", "", "Email (claim email)")
	cmd.Flags().StringVar(&p.Role, "role", auth.RoleUsuario, "Rol: admin|soporte|usuario")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Vigencia del token")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
