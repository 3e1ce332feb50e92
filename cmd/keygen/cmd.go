package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	authUsecase "portal-backend/internal/auth/usecase"
	"portal-backend/pkg/config"
	"portal-backend/pkg/webpush"

	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
	tokenSecret  string

	vapidCmd = &cobra.Command{
		Use:   "vapid",
		Short: "Generate a VAPID key pair",
		Long:  `Prints a fresh VAPID key pair as VAPID_PUBLIC_KEY / VAPID_PRIVATE_KEY lines ready for a .env file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printVAPIDKeys(cmd.OutOrStdout())
		},
	}

	serviceTokenCmd = &cobra.Command{
		Use:   "service-token",
		Short: "Issue a service token for the internal dispatch API",
		Long:  `Signs a token with SERVICE_TOKEN_SECRET (or --secret) that portal services send as a Bearer token.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := tokenSecret
			if secret == "" {
				secret = config.Load().ServiceTokenSecret
			}
			return printServiceToken(cmd.OutOrStdout(), secret, tokenSubject, tokenTTL)
		},
	}
)

func init() {
	serviceTokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Name of the calling service")
	serviceTokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 90*24*time.Hour, "Token lifetime, must be positive")
	serviceTokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "Signing secret, defaults to SERVICE_TOKEN_SECRET")
	_ = serviceTokenCmd.MarkFlagRequired("subject")
}

func printVAPIDKeys(w io.Writer) error {
	publicKey, privateKey, err := webpush.GenerateKeys()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", publicKey, privateKey)
	return err
}

func printServiceToken(w io.Writer, secret, subject string, ttl time.Duration) error {
	if secret == "" {
		return errors.New("no secret: set SERVICE_TOKEN_SECRET or pass --secret")
	}
	token, err := authUsecase.NewAuthUsecase(nil, secret).IssueServiceToken(subject, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
