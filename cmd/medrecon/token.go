package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"medrecon/internal/config"
	"medrecon/internal/service"
)

func tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, expiresAt, err := service.NewTokenService(&cfg.JWT).Issue(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "who the token identifies")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime; defaults to the configured access expiry")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
