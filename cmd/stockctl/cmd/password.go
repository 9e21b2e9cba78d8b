// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taibuivan/stockroom/internal/platform/sec"
)

// errMismatch is returned by "password check" so the exit status reflects the result.
var errMismatch = errors.New("password does not match hash")

func newPasswordCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "password",
		Short: "Hash, check, generate and score passwords",
	}
	command.AddCommand(
		newPasswordHashCommand(),
		newPasswordCheckCommand(),
		newPasswordGenerateCommand(),
		newPasswordStrengthCommand(),
	)
	return command
}

func newPasswordHashCommand() *cobra.Command {
	var algorithm string
	var cost int

	command := &cobra.Command{
		Use:   "hash [password]",
		Short: "Hash a password with bcrypt or argon2id",
		Long: `Hash a password for seeding the users table.

Security note: the password will appear in shell history.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chosen := sec.Algorithm(algorithm)
			if chosen != sec.AlgorithmBcrypt && chosen != sec.AlgorithmArgon2id {
				return fmt.Errorf("unknown algorithm %q", algorithm)
			}

			passwords := sec.NewPasswordService(sec.PasswordOptions{Algorithm: chosen, BcryptCost: cost})
			hash, err := passwords.Hash(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	command.Flags().StringVar(&algorithm, "algorithm", string(sec.AlgorithmBcrypt), "bcrypt or argon2id")
	command.Flags().IntVar(&cost, "cost", 12, "bcrypt cost (4..31)")
	return command
}

func newPasswordCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [password] [hash]",
		Short: "Verify a password against a stored hash",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			passwords := sec.NewPasswordService(sec.PasswordOptions{})
			if !passwords.Verify(cmd.Context(), args[0], args[1]) {
				return errMismatch
			}
			fmt.Fprintln(cmd.OutOrStdout(), "match")
			return nil
		},
	}
}

func newPasswordGenerateCommand() *cobra.Command {
	var length int

	command := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random password with every character class",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if length < 8 || length > 128 {
				return fmt.Errorf("length must be between 8 and 128")
			}
			password, err := sec.GenerateSecurePassword(length)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), password)
			return nil
		},
	}

	command.Flags().IntVar(&length, "length", sec.DefaultGeneratedLength, "password length (8..128)")
	return command
}

func newPasswordStrengthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "strength [password]",
		Short: "Score a password and print the report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(sec.AnalyzeStrength(args[0]))
		},
	}
}
