// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package cmd provides the stockctl commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taibuivan/stockroom/internal/platform/constants"
)

// NewRootCommand builds a fresh command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "stockctl",
		Short: "Stockroom API operator tooling",
		Long: `stockctl runs the security primitives of the Stockroom API offline.

Commands:
  password    Hash, check, generate and score passwords
  roles       List the built-in roles and their permissions
  token       Issue and inspect JWTs signed with JWT_SECRET
  migrate     Apply or inspect database migrations
  upload      Check files against the upload policy`,
		Version:       constants.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newPasswordCommand(),
		newRolesCommand(),
		newTokenCommand(),
		newMigrateCommand(),
		newUploadCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
