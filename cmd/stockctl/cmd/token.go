// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/taibuivan/stockroom/internal/platform/constants"
	"github.com/taibuivan/stockroom/internal/platform/sec"
	"github.com/taibuivan/stockroom/pkg/uuid"
)

type tokenFlags struct {
	secret string
	issuer string
}

func (flags *tokenFlags) service() (*sec.TokenService, error) {
	secret := flags.secret
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		return nil, errors.New("no signing secret: pass --secret or set JWT_SECRET")
	}
	return sec.NewTokenService(secret, sec.TokenOptions{Issuer: flags.issuer})
}

func newTokenCommand() *cobra.Command {
	flags := &tokenFlags{}

	command := &cobra.Command{
		Use:   "token",
		Short: "Issue and inspect JWTs",
	}
	command.PersistentFlags().StringVar(&flags.secret, "secret", "", "HS256 secret (default $JWT_SECRET)")
	command.PersistentFlags().StringVar(&flags.issuer, "issuer", constants.AuthIssuer, "iss claim")

	command.AddCommand(newTokenIssueCommand(flags), newTokenInspectCommand(flags))
	return command
}

func newTokenIssueCommand(flags *tokenFlags) *cobra.Command {
	var userID, username, roleID string
	var ttl time.Duration
	var refresh bool

	command := &cobra.Command{
		Use:   "issue",
		Short: "Sign an access or refresh token for a subject",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokens, err := flags.service()
			if err != nil {
				return err
			}

			subject := sec.Subject{ID: userID, Username: username}
			if subject.ID == "" {
				subject.ID = uuid.New()
			}
			if roleID != "" {
				subject.RoleID = &roleID
			}

			var token string
			if refresh {
				token, err = tokens.CreateRefreshToken(subject)
			} else {
				token, err = tokens.CreateAccessToken(subject, ttl)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	command.Flags().StringVar(&userID, "user-id", "", "sub claim (default: a fresh UUIDv7)")
	command.Flags().StringVar(&username, "username", "operator", "username claim")
	command.Flags().StringVar(&roleID, "role-id", "", "role_id claim")
	command.Flags().DurationVar(&ttl, "ttl", 30*time.Minute, "access token lifetime")
	command.Flags().BoolVar(&refresh, "refresh", false, "issue a refresh token instead")
	return command
}

func newTokenInspectCommand(flags *tokenFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [token]",
		Short: "Verify a token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := flags.service()
			if err != nil {
				return err
			}
			claims, err := tokens.VerifyToken(args[0])
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(claims)
		},
	}
}
