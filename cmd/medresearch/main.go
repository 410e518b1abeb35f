// Package main is the medresearch CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/medresearch/internal/cli"
	"github.com/hyperjump/medresearch/internal/config"
	"github.com/hyperjump/medresearch/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/medresearch/config.yaml"
	defaultServerURL  = "http://localhost:8000"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	debug      bool
	serverURL  string
	output     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "medresearch",
		Short: "Medical deep-research agent with streaming reports",
		Long: `medresearch runs a tool-using research agent against local models and web search,
streams its progress, and saves every answer as a markdown report.

Run "medresearch server" to start the HTTP API, then "medresearch ask" to research a question.`,
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	pf.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	pf.StringVar(&opts.serverURL, "server", defaultServerURL, "research server URL")
	pf.StringVarP(&opts.output, "output", "o", "text", "output format: text or json")

	root.AddCommand(
		newServerCmd(opts),
		newAskCmd(opts),
		newReportsCmd(opts),
		newImportCmd(opts),
		newRunsCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "medresearch version %s\n", version)
			},
		},
	)
	return root
}

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory. A missing file yields defaults plus environment.
// Returns the config and the path that was actually used.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				path = fallback
			}
		}
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setup loads config and builds the logger for commands that work on local state.
func (o *globalOptions) setup() (*config.Config, *zap.Logger, error) {
	cfg, _, err := loadConfig(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug || o.debug, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

func (o *globalOptions) format() (cli.OutputFormat, error) {
	return cli.ParseOutputFormat(o.output)
}
