package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := cli.Status(cmd.Context())
			if err != nil {
				return wrapClientError(err, ctx.address())
			}
			if jsonOut {
				return printJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Facet Daemon", colorize) {
				fmt.Fprintln(out, line)
			}
			runningKind := statusError
			if status.Running {
				runningKind = statusOK
			}
			fmt.Fprintln(out, renderStatusLine("Running", runningKind, fmt.Sprintf("pid %d", status.PID), colorize))
			fmt.Fprintln(out, renderStatusLine("Database", statusInfo, status.DatabasePath, colorize))
			fmt.Fprintln(out, renderStatusLine("Detector", statusInfo, status.DetectorURL, colorize))
			if status.CameraPresent != nil {
				cameraKind := statusWarn
				if *status.CameraPresent {
					cameraKind = statusOK
				}
				fmt.Fprintln(out, renderStatusLine("Camera", cameraKind, yesNo(*status.CameraPresent), colorize))
			}
			sessionsKind := statusInfo
			if status.OpenSessions > 0 {
				sessionsKind = statusOK
			}
			fmt.Fprintln(out, renderStatusLine("Open sessions", sessionsKind, fmt.Sprintf("%d", status.OpenSessions), colorize))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}
