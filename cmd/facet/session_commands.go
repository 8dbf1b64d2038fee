package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"facet/internal/api"
	"facet/internal/client"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Manage inspection sessions",
	}

	sessionCmd.AddCommand(newSessionStartCommand(ctx))
	sessionCmd.AddCommand(newSessionTransitionCommand(ctx, "pause", "Pause a session",
		func(cli *client.Client, runCtx context.Context, id int64) (api.SessionSnapshot, error) {
			return cli.PauseSession(runCtx, id)
		}))
	sessionCmd.AddCommand(newSessionTransitionCommand(ctx, "resume", "Resume a paused session",
		func(cli *client.Client, runCtx context.Context, id int64) (api.SessionSnapshot, error) {
			return cli.ResumeSession(runCtx, id)
		}))
	sessionCmd.AddCommand(newSessionTransitionCommand(ctx, "stop", "Complete a session",
		func(cli *client.Client, runCtx context.Context, id int64) (api.SessionSnapshot, error) {
			return cli.StopSession(runCtx, id)
		}))
	sessionCmd.AddCommand(newSessionCurrentCommand(ctx))

	return sessionCmd
}

func newSessionStartCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new inspection session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.requireOperator(); err != nil {
				return err
			}
			cli, err := ctx.apiClient()
			if err != nil {
				return err
			}
			session, err := cli.StartSession(cmd.Context())
			if err != nil {
				var apiErr *client.APIError
				if errors.As(err, &apiErr) && apiErr.Session != nil {
					return fmt.Errorf("%s (session %d is %s)", apiErr.Message, apiErr.Session.ID, apiErr.Session.Status)
				}
				return wrapClientError(err, ctx.address())
			}
			if jsonOut {
				return printJSON(cmd, session)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %d started for %s\n", session.ID, session.Operator)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

type transitionFunc func(cli *client.Client, runCtx context.Context, id int64) (api.SessionSnapshot, error)

func newSessionTransitionCommand(ctx *commandContext, verb, short string, run transitionFunc) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   verb + " [session-id]",
		Short: short,
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
			session, err := run(cli, cmd.Context(), id)
			if err != nil {
				var apiErr *client.APIError
				if errors.As(err, &apiErr) && apiErr.Session != nil {
					return fmt.Errorf("%s (session %d is %s)", apiErr.Message, apiErr.Session.ID, apiErr.Session.Status)
				}
				return wrapClientError(err, ctx.address())
			}
			if jsonOut {
				return printJSON(cmd, session)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %d is now %s\n", session.ID, session.Status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func newSessionCurrentCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "current",
		Short: "Show the operator's open session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.requireOperator(); err != nil {
				return err
			}
			cli, err := ctx.apiClient()
			if err != nil {
				return err
			}
			session, err := cli.CurrentSession(cmd.Context())
			if err != nil {
				var apiErr *client.APIError
				if errors.As(err, &apiErr) && apiErr.Code == "not_found" {
					fmt.Fprintln(cmd.OutOrStdout(), "No open session")
					return nil
				}
				return wrapClientError(err, ctx.address())
			}
			if jsonOut {
				return printJSON(cmd, session)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSessionTable([]api.SessionSnapshot{session}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

// resolveSessionID turns an optional positional argument into a session
// id. Without an argument the operator's current session is used.
func resolveSessionID(runCtx context.Context, ctx *commandContext, cli *client.Client, args []string) (int64, error) {
	if len(args) == 0 || strings.EqualFold(strings.TrimSpace(args[0]), "current") {
		if _, err := ctx.requireOperator(); err != nil {
			return 0, err
		}
		session, err := cli.CurrentSession(runCtx)
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.Code == "not_found" {
				return 0, errors.New("no open session for this operator; pass a session id")
			}
			return 0, wrapClientError(err, ctx.address())
		}
		return session.ID, nil
	}

	id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid session id %q", args[0])
	}
	return id, nil
}
