package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xtm888/medflow-clinic-sub000/pkg/jwt"
)

// newTokenCmd emite un JWT firmado con JWT_SECRET para pruebas locales y scripts de operación.
func newTokenCmd(app *cliApp) *cobra.Command {
	var userID, clinicID, role string
	var minutes int
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un token de acceso para la API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch role {
			case jwt.RoleAdmin, jwt.RoleBilling, jwt.RoleAuditor:
			default:
				return fmt.Errorf("rol %q (use admin, billing o auditor)", role)
			}
			if minutes <= 0 {
				minutes = app.cfg.JWT.Expiration
			}
			tok, err := jwt.Generate(app.cfg.JWT.Secret, userID, clinicID, role, app.cfg.JWT.Issuer, minutes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "id del usuario (requerido)")
	cmd.Flags().StringVar(&clinicID, "clinic", "", "id de la clínica")
	cmd.Flags().StringVar(&role, "role", jwt.RoleBilling, "admin | billing | auditor")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "vigencia en minutos (por defecto JWT_EXPIRATION_MINUTES)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
