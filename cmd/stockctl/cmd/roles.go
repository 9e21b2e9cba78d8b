// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taibuivan/stockroom/internal/platform/rbac"
)

func newRolesCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "roles",
		Short: "Inspect the built-in roles",
	}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List roles with their permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			roles := rbac.Roles()
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(roles)
			}

			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "ROLE\tPERMISSIONS\tDESCRIPTION")
			for _, role := range roles {
				fmt.Fprintf(writer, "%s\t%s\t%s\n", role.Name, strings.Join(role.Permissions.Names(), ","), role.Description)
			}
			return writer.Flush()
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	command.AddCommand(list)
	return command
}
