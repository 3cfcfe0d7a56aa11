// Command bowstring turns hand-tracking landmarks into a monophonic violin
// performance: audio out through the built-in synthesizer, optionally MIDI
// out to a DAW, with practice sessions recorded to SQLite.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/bowstring/internal/config"
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "bowstring",
	Short: "Play a virtual violin with your hands",
	Long: `Bowstring reads hand landmarks from a tracking service and turns them
into violin notes: the right hand selects a string and bows with a pinch,
the left hand sets position, fingering and pitch offset.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML config (default: data dir config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
}

// dataDir returns ~/.bowstring, creating it if needed.
func dataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(homeDir, ".bowstring")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dir, nil
}

// loadConfig reads the config file over the defaults and validates it. The
// database path, when left empty, lands in the data dir.
func loadConfig() (config.Config, string, error) {
	dir, err := dataDir()
	if err != nil {
		return config.Config{}, "", err
	}

	path := flagConfig
	if path == "" {
		path = filepath.Join(dir, "config.yaml")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, dir, err
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(dir, "bowstring.db")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, dir, err
	}
	return cfg, dir, nil
}

func newLogger() (*zap.Logger, error) {
	if flagVerbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
