package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"facet/internal/api"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Dashboard settings",
	}

	settingsCmd.AddCommand(newSettingsShowCommand(ctx))
	settingsCmd.AddCommand(newSettingsSetCommand(ctx))

	return settingsCmd
}

func newSettingsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current dashboard settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := ctx.apiClient()
			if err != nil {
				return err
			}
			doc, err := cli.Settings(cmd.Context())
			if err != nil {
				return wrapClientError(err, ctx.address())
			}
			if jsonOut {
				return printJSON(cmd, doc)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Dashboard Settings", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Refresh", statusInfo, fmt.Sprintf("%d seconds", doc.RefreshSeconds), colorize))
			fmt.Fprintln(out, renderStatusLine("Alert threshold", statusInfo, fmt.Sprintf("%.1f%%", doc.DefectAlertThreshold), colorize))
			fmt.Fprintln(out, renderStatusLine("Show good frames", statusInfo, yesNo(doc.ShowGoodFrames), colorize))
			fmt.Fprintln(out, renderStatusLine("Sound alerts", statusInfo, yesNo(doc.SoundAlerts), colorize))
			fmt.Fprintln(out, renderStatusLine("Revision", statusInfo, fmt.Sprintf("%d", doc.Revision), colorize))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var refreshSeconds int
	var alertThreshold float64
	var showGoodFrames bool
	var soundAlerts bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change dashboard settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req api.SettingsUpdateRequest
			if cmd.Flags().Changed("refresh-seconds") {
				req.RefreshSeconds = &refreshSeconds
			}
			if cmd.Flags().Changed("alert-threshold") {
				req.DefectAlertThreshold = &alertThreshold
			}
			if cmd.Flags().Changed("show-good-frames") {
				req.ShowGoodFrames = &showGoodFrames
			}
			if cmd.Flags().Changed("sound-alerts") {
				req.SoundAlerts = &soundAlerts
			}
			if req.RefreshSeconds == nil && req.DefectAlertThreshold == nil &&
				req.ShowGoodFrames == nil && req.SoundAlerts == nil {
				return fmt.Errorf("nothing to change; pass at least one settings flag")
			}

			cli, err := ctx.apiClient()
			if err != nil {
				return err
			}
			doc, err := cli.UpdateSettings(cmd.Context(), req)
			if err != nil {
				return wrapClientError(err, ctx.address())
			}
			if jsonOut {
				return printJSON(cmd, doc)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Settings updated (revision %d)\n", doc.Revision)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	cmd.Flags().IntVar(&refreshSeconds, "refresh-seconds", 0, "Dashboard refresh interval in seconds")
	cmd.Flags().Float64Var(&alertThreshold, "alert-threshold", 0, "Defect rate percentage that triggers alerts")
	cmd.Flags().BoolVar(&showGoodFrames, "show-good-frames", false, "Include good frames in the live feed")
	cmd.Flags().BoolVar(&soundAlerts, "sound-alerts", false, "Play a sound on defect alerts")
	return cmd
}
