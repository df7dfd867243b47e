package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"quillpost-api/middleware"
	"quillpost-api/models"
)

// NewTokenCommand signs a bearer token with the configured secret, for local
// development without the identity provider.
func NewTokenCommand(v *viper.Viper) *cobra.Command {
	var (
		identity models.Identity
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a development bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if identity.TokenIdentifier == "" {
				return errors.New("--subject is required")
			}

			token, err := middleware.SignIdentity(v.GetString("jwt_secret"), identity, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&identity.TokenIdentifier, "subject", "", "token identifier of the user")
	flags.StringVar(&identity.Name, "name", "", "display name")
	flags.StringVar(&identity.Email, "email", "", "email address")
	flags.StringVar(&identity.Username, "username", "", "public username")
	flags.StringVar(&identity.PictureURL, "picture", "", "avatar URL")
	flags.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	flags.String("jwt-secret", v.GetString("jwt_secret"), "HS256 signing secret")
	mustBindPFlags(v, flags, "jwt-secret")

	return cmd
}
