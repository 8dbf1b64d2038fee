package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

// newIngestCommand uploads captured frame images, mainly for bench
// testing a deployment without a live capture client.
func newIngestCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var sessionArg string

	cmd := &cobra.Command{
		Use:   "ingest <image>...",
		Short: "Upload captured frame images to a session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := ctx.apiClient()
			if err != nil {
				return err
			}
			var idArgs []string
			if sessionArg != "" {
				idArgs = []string{sessionArg}
			}
			id, err := resolveSessionID(cmd.Context(), ctx, cli, idArgs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, path := range args {
				image, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read frame %q: %w", path, err)
				}
				frame, err := cli.IngestFrame(cmd.Context(), id, image, filepath.Base(path), time.Now())
				if err != nil {
					return wrapClientError(err, ctx.address())
				}
				if jsonOut {
					if err := printJSON(cmd, frame); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(out, "Frame %d: %s (defect rate %.2f%%)\n",
					frame.Scan.FrameIndex, frame.Scan.Decision, frame.Session.DefectRate)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	cmd.Flags().StringVar(&sessionArg, "session", "", "Session id (defaults to the operator's open session)")
	return cmd
}
