package main

import (
	"errors"
	"fmt"

	"github.com/hyperjump/medresearch/internal/cli"
	"github.com/hyperjump/medresearch/internal/storage"
	"github.com/spf13/cobra"
)

func newRunsCmd(opts *globalOptions) *cobra.Command {
	var (
		limit int
		local bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent research runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			var runs []*storage.Run
			if local {
				runs, err = listRunsLocal(cmd, opts, limit)
			} else {
				runs, err = cli.NewClient(opts.serverURL, nil).ListRuns(cmd.Context(), limit)
			}
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			return cli.WriteRuns(cmd.OutOrStdout(), runs, format)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")
	cmd.Flags().BoolVar(&local, "local", false, "read the run journal database directly")
	return cmd
}

func listRunsLocal(cmd *cobra.Command, opts *globalOptions, limit int) ([]*storage.Run, error) {
	cfg, logger, err := opts.setup()
	if err != nil {
		return nil, err
	}
	defer logger.Sync()
	if cfg.Storage.DatabasePath == "" {
		return nil, errors.New("run journal not enabled; set storage.database_path in the config file")
	}
	journal, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, err
	}
	defer journal.Close()
	return journal.ListRuns(cmd.Context(), limit)
}
