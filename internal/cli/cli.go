// Package cli implements the choropleth command-line interface.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/choropleth/pkg/buildinfo"
	"github.com/matzehuels/choropleth/pkg/cache"
	"github.com/matzehuels/choropleth/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "choropleth"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output. Defaults to stdout.
	Out io.Writer

	configPath string
	envFile    string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Choropleth maps measurements onto colored regions",
		Long:         `Color map regions by the mean of their measurements, in quantile classes.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./"+config.DefaultPath+" if present)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", "", "dotenv file (default ./"+config.DefaultEnvFile+" if present)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.legendCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.demoCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config and Cache
// =============================================================================

// loadConfig reads the config file, dotenv file and environment.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath, c.envFile)
}

// newCache opens the configured document cache. An unreachable remote
// cache is logged and replaced by no caching.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	cc, err := cache.Open(ctx, cfg.CacheOptions())
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "backend", cfg.Cache.Backend, "error", err)
		return cache.NewNullCache()
	}
	c.Logger.Debug("cache opened", "backend", cfg.Cache.Backend)
	return cc
}
