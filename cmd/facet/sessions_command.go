package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var limit int
	var offset int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List inspection sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := ctx.apiClient()
			if err != nil {
				return err
			}
			page, err := cli.ListSessions(cmd.Context(), limit, offset)
			if err != nil {
				return wrapClientError(err, ctx.address())
			}
			if jsonOut {
				return printJSON(cmd, page)
			}

			out := cmd.OutOrStdout()
			if len(page.Sessions) == 0 {
				fmt.Fprintln(out, "No sessions recorded")
				return nil
			}
			fmt.Fprintln(out, renderSessionTable(page.Sessions))
			fmt.Fprintf(out, "Checksum: %s\n", page.Checksum)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum sessions to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset into the session list")
	return cmd
}
