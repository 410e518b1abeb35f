package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperjump/medresearch/internal/agent"
	"github.com/hyperjump/medresearch/internal/config"
	"github.com/hyperjump/medresearch/internal/indexer"
	"github.com/hyperjump/medresearch/internal/keyword"
	"github.com/hyperjump/medresearch/internal/llm"
	"github.com/hyperjump/medresearch/internal/report"
	"github.com/hyperjump/medresearch/internal/research"
	"github.com/hyperjump/medresearch/internal/server"
	"github.com/hyperjump/medresearch/internal/storage"
	"github.com/hyperjump/medresearch/internal/tools"
	"github.com/hyperjump/medresearch/internal/watcher"
	"github.com/hyperjump/medresearch/internal/websearch"
	"github.com/hyperjump/medresearch/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServerCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the research HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), opts)
		},
	}
}

func runServer(ctx context.Context, opts *globalOptions) error {
	cfg, resolvedConfigPath, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	debugMode := cfg.Debug || opts.debug
	logger, err := utils.NewLogger(debugMode, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("orchestrator", cfg.Models.Orchestrator),
		zap.String("output_dir", cfg.Reports.OutputDir))

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize components: %w", err)
	}
	defer components.Close()

	if cfg.Reports.WatchOrDefault() {
		idx := components.Indexer
		components.Watcher = watcher.NewWatcher(
			cfg.Reports.OutputDir,
			func(path string) {
				if err := idx.IndexFile(context.Background(), path); err != nil {
					logger.Warn("watch index file failed", zap.String("path", path), zap.Error(err))
				}
			},
			func(path string) {
				if err := idx.RemoveFile(context.Background(), path); err != nil {
					logger.Warn("watch remove file failed", zap.String("path", path), zap.Error(err))
				}
			},
			watcher.WithFilter(report.IsReportFile),
			watcher.WithLogger(logger),
		)
		if err := components.Watcher.Start(ctx); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
	}

	srv := server.NewServer(cfg, server.Deps{
		Reports:    components.Store,
		Researcher: components.Coordinator,
		Index:      components.Index,
		Journal:    components.Journal,
	}, logger)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// Components holds the long-lived parts of the research service.
type Components struct {
	Store       *report.Store
	Index       *keyword.BleveIndex
	Indexer     *indexer.Indexer
	Journal     storage.Storage
	Coordinator *research.Coordinator
	Watcher     *watcher.Watcher
}

// Close stops the watcher and closes the index and journal.
func (c *Components) Close() {
	if c.Watcher != nil {
		c.Watcher.Stop()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Journal != nil {
		_ = c.Journal.Close()
	}
}

// initializeComponents wires the report store, index, journal, models, tools, agent and
// coordinator.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{}
	c.Store = report.NewStore(cfg.Reports.OutputDir, report.WithLogger(logger))

	if err := c.openIndex(ctx, cfg, logger); err != nil {
		c.Close()
		return nil, err
	}

	coordOpts := []research.Option{
		research.WithIndexer(c.Indexer),
		research.WithStepEvents(cfg.Agent.StepEvents),
		research.WithLogger(logger),
	}
	if cfg.Storage.DatabasePath != "" {
		journal, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("open run journal: %w", err)
		}
		c.Journal = journal
		coordOpts = append(coordOpts, research.WithJournal(journal))
	}

	httpClient := &http.Client{}
	orchestrator := llm.NewOllamaModel(cfg.Models.BaseURL, cfg.Models.Orchestrator, httpClient)
	specialist := llm.NewSpecialist(ctx,
		llm.NewOllamaModel(cfg.Models.BaseURL, cfg.Models.Specialist, httpClient),
		orchestrator, logger)

	search := websearch.NewTavily(cfg.Search.APIKey,
		websearch.WithDepth(cfg.Search.Depth),
		websearch.WithMaxResults(cfg.Search.MaxResults),
		websearch.WithIncludeDomains(cfg.Search.IncludeDomains))

	toolset := []tools.Tool{
		tools.NewSearchTool(search, logger),
		tools.NewMedicalTool(specialist, orchestrator, cfg.Models.SpecialistTimeout, logger),
	}
	runner := agent.New(orchestrator, toolset, agent.ResearchSystemPrompt, cfg.Agent.Name,
		agent.WithMaxIterations(cfg.Agent.MaxIterations),
		agent.WithLogger(logger))

	models := []string{cfg.Models.Orchestrator, cfg.Models.Specialist}
	c.Coordinator = research.NewCoordinator(runner, c.Store, models, coordOpts...)
	logger.Info("research agent ready",
		zap.String("agent", runner.Name()),
		zap.String("specialist", specialist.Name()),
		zap.Int("tools", len(toolset)))
	return c, nil
}

// openIndex opens the keyword index and rebuilds it from the report store.
func (c *Components) openIndex(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	index, err := keyword.NewBleveIndex(cfg.Reports.IndexPath)
	if err != nil {
		return fmt.Errorf("open report index: %w", err)
	}
	c.Index = index
	c.Indexer = indexer.NewIndexer(c.Store, index, indexer.WithLogger(logger))
	n, err := c.Indexer.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("rebuild report index: %w", err)
	}
	logger.Info("report index ready", zap.Int("reports", n))
	return nil
}
