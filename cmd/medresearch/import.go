package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hyperjump/medresearch/internal/extract"
	"github.com/hyperjump/medresearch/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newImportCmd(opts *globalOptions) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Save a document as a report",
		Long: `Extracts the text of a PDF, DOCX, XLSX, ODT, RTF or plain text file and saves it
to the output directory as a report, so it is listed and searchable with the others.
The report question defaults to the file name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			doc, err := extract.NewExtractor().Extract(args[0])
			if err != nil {
				return fmt.Errorf("extract %s: %w", args[0], err)
			}
			if strings.TrimSpace(doc.Text) == "" {
				return fmt.Errorf("no text found in %s", args[0])
			}
			entry, err := report.NewStore(cfg.Reports.OutputDir, report.WithLogger(logger)).Save(importDraft(doc, query))
			if err != nil {
				return err
			}
			logger.Debug("document imported", zap.String("path", args[0]), zap.String("id", entry.ID))
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s as %s\n", doc.Name, entry.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "question recorded for the report (default: file name)")
	return cmd
}

func importDraft(doc extract.Document, query string) report.Draft {
	if strings.TrimSpace(query) == "" {
		query = strings.TrimSuffix(doc.Name, filepath.Ext(doc.Name))
	}
	return report.Draft{
		Query:        query,
		Body:         doc.Markdown(),
		ModelsUsed:   []string{},
		SourcesCount: 1,
	}
}
