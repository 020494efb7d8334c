package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bher20/dormbill/internal/auth"
)

func newTokenCmd(a *app) *cobra.Command {
	var (
		subject, role, room string
		ttl                 time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token with DORMBILL_JWT_SECRET (for local use)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.JWTSecret == "" {
				return errors.New("DORMBILL_JWT_SECRET is not set")
			}
			r, ok := auth.NormalizeRole(role)
			if !ok {
				return fmt.Errorf("unknown role %q", role)
			}
			tok, err := auth.SignJWT([]byte(a.cfg.JWTSecret), subject, r, room, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "token subject")
	cmd.Flags().StringVar(&role, "role", auth.RoleLandlord, "admin, landlord or boarder")
	cmd.Flags().StringVar(&room, "room", "", "room a boarder token is scoped to")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
