// Package cli provides the cobra command tree for quizhunter.
package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/quizhunter/internal/adapters/driven/ai"
	"github.com/custodia-labs/quizhunter/internal/adapters/driven/config/file"
	"github.com/custodia-labs/quizhunter/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/quizhunter/internal/core/ports/driven"
	"github.com/custodia-labs/quizhunter/internal/core/ports/driving"
	"github.com/custodia-labs/quizhunter/internal/core/services"
	"github.com/custodia-labs/quizhunter/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Global flags.
var (
	verbose   bool
	ephemeral bool
	dataDir   string
	configDir string
	envFile   string
)

// settingsService is created on first use unless a caller has injected one.
var settingsService driving.SettingsService

// memorySnapshots backs --ephemeral runs for the lifetime of the process.
var memorySnapshots driven.SnapshotStore = memory.NewSnapshotStore()

var rootCmd = &cobra.Command{
	Use:   "quizhunter",
	Short: "Hybrid retrieval over exam question banks",
	Long: `quizhunter indexes exam questions and news-style records and ranks them
with a blend of BM25 keyword scoring and HNSW vector similarity.

Build an index once, then search it, find similar items, or serve it to
AI assistants over MCP.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "print build and query diagnostics to stderr")
	flags.BoolVar(&ephemeral, "ephemeral", false, "keep settings and snapshots in memory only")
	flags.StringVar(&dataDir, "data-dir", "", "directory of the index database (default ~/.quizhunter/data)")
	flags.StringVar(&configDir, "config-dir", "", "directory of config.toml (default ~/.quizhunter)")
	flags.StringVar(&envFile, "env-file", ".env", "environment file loaded before settings are read")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// setup loads the environment file and wires the settings service.
func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Could not load %s: %v", envFile, err)
		}
	}

	if settingsService != nil {
		return nil
	}

	var store driven.ConfigStore
	if ephemeral {
		store = memory.NewConfigStore()
	} else {
		fileStore, err := file.NewConfigStore(configDir)
		if err != nil {
			return fmt.Errorf("opening config: %w", err)
		}
		store = fileStore
	}
	settingsService = services.NewSettingsService(store, ai.NewConfigValidator())
	return nil
}
