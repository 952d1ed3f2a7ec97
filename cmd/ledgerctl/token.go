package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/pkg/jwt"
)

// newTokenCmd emite tokens de servicio para integraciones y pruebas manuales de la API.
func newTokenCmd() *cobra.Command {
	var (
		user string
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Genera un Bearer Token firmado con JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return errors.New("JWT_SECRET no definido")
			}
			tok, err := jwt.Generate(cfg.JWT.Secret, user, role, cfg.JWT.Issuer, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "user_id del actor (obligatorio)")
	cmd.Flags().StringVarP(&role, "role", "r", "", "Rol opcional (admin habilita /consistency)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Vigencia del token")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
