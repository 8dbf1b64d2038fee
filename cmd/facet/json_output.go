package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// printJSON renders v on the command's stdout, indented. Every facet
// command that takes --json funnels through here so scripted callers see
// one consistent shape.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
