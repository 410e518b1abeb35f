package main

import (
	"errors"
	"fmt"

	"github.com/hyperjump/medresearch/internal/cli"
	"github.com/hyperjump/medresearch/internal/indexer"
	"github.com/hyperjump/medresearch/internal/keyword"
	"github.com/hyperjump/medresearch/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var localSearchOptions = &keyword.SearchOptions{QueryBoost: 2, FuzzyEnabled: true, Fuzziness: 1}

func newReportsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List, show and search saved reports",
	}
	cmd.AddCommand(newReportsListCmd(opts), newReportsShowCmd(opts), newReportsSearchCmd(opts))
	return cmd
}

func newReportsListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			entries, err := report.NewStore(cfg.Reports.OutputDir, report.WithLogger(logger)).List()
			if err != nil {
				return fmt.Errorf("list reports: %w", err)
			}
			return cli.WriteReports(cmd.OutOrStdout(), entries, format)
		},
	}
}

func newReportsShowCmd(opts *globalOptions) *cobra.Command {
	var render bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			rep, err := report.NewStore(cfg.Reports.OutputDir, report.WithLogger(logger)).Load(args[0])
			if errors.Is(err, report.ErrNotFound) {
				return fmt.Errorf("report not found: %s", args[0])
			}
			if err != nil {
				return err
			}
			if format == cli.OutputJSON {
				return cli.WriteJSON(cmd.OutOrStdout(), rep)
			}
			return cli.WriteMarkdown(cmd.OutOrStdout(), rep.Content, render)
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "render the report as styled markdown")
	return cmd
}

func newReportsSearchCmd(opts *globalOptions) *cobra.Command {
	var (
		limit int
		local bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over saved reports",
		Long: `Searches report questions and bodies. Matches in the question rank higher and
small typos are tolerated. By default the running server's index is queried; --local
builds a temporary index from the output directory instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			query := buildQuery(args)
			var hits []keyword.Hit
			if local {
				hits, err = searchLocal(cmd, opts, query, limit)
			} else {
				hits, err = cli.NewClient(opts.serverURL, nil).SearchReports(cmd.Context(), query, limit)
			}
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			return cli.WriteHits(cmd.OutOrStdout(), query, hits, format)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of results")
	cmd.Flags().BoolVar(&local, "local", false, "search the output directory without a server")
	return cmd
}

// searchLocal indexes every report into an in-memory index and searches it.
func searchLocal(cmd *cobra.Command, opts *globalOptions, query string, limit int) ([]keyword.Hit, error) {
	cfg, logger, err := opts.setup()
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	index, err := keyword.NewBleveIndex("")
	if err != nil {
		return nil, err
	}
	defer index.Close()

	store := report.NewStore(cfg.Reports.OutputDir, report.WithLogger(logger))
	n, err := indexer.NewIndexer(store, index, indexer.WithLogger(logger)).Rebuild(cmd.Context())
	if err != nil {
		return nil, err
	}
	logger.Debug("indexed reports for local search", zap.Int("reports", n))
	return index.Search(cmd.Context(), query, limit, localSearchOptions)
}
