package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"facet/internal/api"
	"facet/internal/syncpoll"
)

// newWatchCommand follows the session list, refetching only when the
// server-side checksum moves.
func newWatchCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration
	var limit int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the session list live",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := ctx.apiClient()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = time.Duration(cfg.Sync.CheckIntervalSeconds) * time.Second
			}

			out := cmd.OutOrStdout()
			poller, err := syncpoll.New(syncpoll.Options{
				Interval:     interval,
				MaxAttempts:  cfg.Sync.RetryMaxAttempts,
				RetryBackoff: time.Duration(cfg.Sync.RetryBackoffSeconds) * time.Second,
				Check: func(runCtx context.Context) (string, error) {
					return cli.SessionsChecksum(runCtx)
				},
				Fetch: func(runCtx context.Context) (string, error) {
					page, err := cli.ListSessions(runCtx, limit, 0)
					if err != nil {
						return "", err
					}
					renderWatchFrame(out, page.Sessions, page.Checksum)
					return page.Checksum, nil
				},
			})
			if err != nil {
				return err
			}

			signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			poller.Start()
			defer poller.Close()

			fmt.Fprintf(out, "Watching sessions every %s (Ctrl-C to stop)\n", interval)
			<-signalCtx.Done()
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (defaults to the configured sync cadence)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum sessions to display")
	return cmd
}

func renderWatchFrame(out io.Writer, sessions []api.SessionSnapshot, checksum string) {
	if shouldColorize(out) {
		// Clear the screen between refreshes only when attached to a
		// terminal; piped output stays append-only.
		fmt.Fprint(out, "\x1b[2J\x1b[H")
	}
	fmt.Fprintf(out, "Sessions as of %s\n", time.Now().Format("15:04:05"))
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions recorded")
	} else {
		fmt.Fprintln(out, renderSessionTable(sessions))
	}
	fmt.Fprintf(out, "Checksum: %s\n", checksum)
}
