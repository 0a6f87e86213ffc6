package main

import (
	"fmt"
	"time"

	"taikoweb/database"
	"taikoweb/middleware"

	"github.com/spf13/cobra"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var ttl time.Duration
	var session bool

	cmd := &cobra.Command{
		Use:   "token USER",
		Short: "Issue a bearer token, or a Redis session with --session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := ctx.ensure()
			if err != nil {
				return err
			}

			if session {
				client, err := database.NewRedisClient(cmd.Context(), cfg.RedisURL)
				if err != nil {
					return err
				}
				defer client.Close()
				sid, err := database.NewSessionStore(client).Create(cmd.Context(), args[0], ttl)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", cfg.SessionCookie, sid)
				return nil
			}

			token, err := middleware.NewTokenResolver(cfg.SecretKey).Issue(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Lifetime of the token or session")
	cmd.Flags().BoolVar(&session, "session", false, "Create a Redis session instead of a JWT")
	return cmd
}
