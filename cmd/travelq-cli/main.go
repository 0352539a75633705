// Package main provides the travelq command-line client.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/travelq/internal/app"
	"github.com/kailas-cloud/travelq/internal/config"
	logpkg "github.com/kailas-cloud/travelq/internal/logger"
)

// cli holds global flags and the lazily built services.
type cli struct {
	env        string
	configPath string
	dataDir    string
	jsonOut    bool
	noColor    bool
	offline    bool
	verbose    bool
	seed       uint64

	ui     *UI
	logger *zap.Logger
	app    *app.App
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "travelq-cli",
		Short: "Ask travel questions over the bus, flight, hotel and attraction datasets",
		Long: `travelq-cli answers travel questions from the command line.

Use this tool to:
- Chat with the assistant (ask)
- Inspect intent detection and parameter extraction (intent, extract)
- Search the datasets directly (search)
- Compose multi-day itineraries (itinerary)

All commands support --json for automation.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			c.ui = NewUI(cmd.OutOrStdout(), c.jsonOut, c.noColor)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			c.close()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&c.env, "env", config.GetEnv(), "config environment (loads config/<env>.yaml)")
	f.StringVarP(&c.configPath, "config", "c", "", "config file path (overrides --env)")
	f.StringVar(&c.dataDir, "data", "", "datasets directory (overrides datasets.dir)")
	f.BoolVar(&c.jsonOut, "json", false, "output in JSON format")
	f.BoolVar(&c.noColor, "no-color", false, "disable colored output")
	f.BoolVar(&c.offline, "offline", false, "answer without the completion provider")
	f.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging on stderr")
	f.Uint64Var(&c.seed, "seed", 0, "seed for attraction sampling (0 = random)")

	root.AddCommand(
		newAskCmd(c),
		newIntentCmd(c),
		newExtractCmd(c),
		newSearchCmd(c),
		newItineraryCmd(c),
		newVersionCmd(c),
	)
	return root
}

// services loads the config and wires the services on first use.
func (c *cli) services(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	level := "warn"
	if c.verbose {
		level = "debug"
	}
	logger, err := logpkg.NewLogger(logpkg.EnvCLI, level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	c.logger = logger

	a, err := app.New(ctx, cfg, logger, app.Options{Seed: c.seed, Offline: c.offline})
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *cli) loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if c.configPath != "" {
		data, readErr := os.ReadFile(filepath.Clean(c.configPath))
		if readErr != nil {
			return config.Config{}, fmt.Errorf("read config: %w", readErr)
		}
		cfg, err = config.Parse(data)
	} else {
		cfg, err = config.Load(c.env)
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if c.dataDir != "" {
		cfg.Datasets.Dir = c.dataDir
	}
	return cfg, nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}
