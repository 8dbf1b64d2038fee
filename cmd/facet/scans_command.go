package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScansCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var limit int
	var offset int

	cmd := &cobra.Command{
		Use:   "scans [session-id]",
		Short: "List processed frames for a session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := ctx.apiClient()
			if err != nil {
				return err
			}
			id, err := resolveSessionID(cmd.Context(), ctx, cli, args)
			if err != nil {
				return err
			}
			page, err := cli.ListScans(cmd.Context(), id, limit, offset)
			if err != nil {
				return wrapClientError(err, ctx.address())
			}
			if jsonOut {
				return printJSON(cmd, page)
			}

			out := cmd.OutOrStdout()
			if len(page.Scans) == 0 {
				fmt.Fprintf(out, "No frames recorded for session %d\n", id)
				return nil
			}
			fmt.Fprintln(out, renderScanTable(page.Scans))
			fmt.Fprintf(out, "Checksum: %s\n", page.Checksum)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum frames to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset into the frame list")
	return cmd
}
