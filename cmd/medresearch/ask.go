package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/medresearch/internal/cli"
	"github.com/hyperjump/medresearch/internal/research"
	"github.com/spf13/cobra"
)

// buildQuery joins all positional args with spaces so multi-word queries work the same
// with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func newAskCmd(opts *globalOptions) *cobra.Command {
	var render bool
	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Research a question on a running server and print the report",
		Long: `Sends the query to the research server and prints progress as it streams.
The query is all remaining arguments joined by spaces.

Examples:
  medresearch ask metformin and lactic acidosis risk
  medresearch ask --render "statin therapy in patients over 75"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := buildQuery(args)
			if query == "" {
				return errors.New("query must not be empty")
			}
			format, err := opts.format()
			if err != nil {
				return err
			}
			out, progress := cmd.OutOrStdout(), cmd.ErrOrStderr()
			enc := json.NewEncoder(out)

			client := cli.NewClient(opts.serverURL, nil)
			final, runID, err := client.Research(cmd.Context(), query, func(e research.Event) {
				switch {
				case format == cli.OutputJSON:
					_ = enc.Encode(e)
				case render && e.Type == research.EventResult:
					if e.Filename != "" {
						fmt.Fprintf(progress, "» saved %s\n", e.Filename)
					}
					if err := cli.WriteMarkdown(out, e.Data, true); err != nil {
						cli.WriteEvent(out, progress, e)
					}
				default:
					cli.WriteEvent(out, progress, e)
				}
			})
			if err != nil {
				return fmt.Errorf("research failed: %w", err)
			}
			if final.Type == research.EventError {
				return fmt.Errorf("run %s failed", runID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "render the report as styled markdown")
	return cmd
}
