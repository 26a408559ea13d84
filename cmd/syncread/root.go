package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/syncread/internal/cliout"
	"github.com/jackzampolin/syncread/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

// ParseLogLevel converts a string log level to slog.Level.
// Supports: debug, info, warn, error (case-insensitive).
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: must be debug, info, warn, or error", level)
	}
}

// GetLogLevel returns the configured log level, checking:
// 1. CLI flag (--log-level)
// 2. Environment variable (SYNCREAD_LOG_LEVEL)
// 3. Default (info)
func GetLogLevel() slog.Level {
	level := logLevel
	if level == "" {
		level = os.Getenv("SYNCREAD_LOG_LEVEL")
	}
	if level == "" {
		level = "info"
	}

	parsed, err := ParseLogLevel(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using info\n", err)
		return slog.LevelInfo
	}
	return parsed
}

// IsDebugLevel returns true if the configured log level is debug.
func IsDebugLevel() bool {
	return GetLogLevel() == slog.LevelDebug
}

var rootCmd = &cobra.Command{
	Use:   "syncread",
	Short: "Book-to-audiobook text sync core, driven directly from the CLI",
	Long: `syncread aligns an e-book's text with its audiobook narration so a
reader can follow along with highlighted text during playback.

This CLI drives the Sync Core directly (chunk -> transcribe -> match ->
commit), the same svcctx.Services bundle an embedding HTTP server would
build, for local operation and debugging:
  - sync start    kick off a pending session's pipeline
  - sync status   show a session's current state
  - sync pause    halt a progressive session's auto-advance
  - sync resume   re-schedule one chunk from the synced frontier
  - sync retry    clear an errored session and re-dispatch it`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.syncread/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "syncread home directory (default: ~/.syncread)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml, json, or text",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn, error (default: info, env: SYNCREAD_LOG_LEVEL)",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cliout.SetFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(syncCmd)
}
