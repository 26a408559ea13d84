package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/syncread/internal/blobstore"
	"github.com/jackzampolin/syncread/internal/cliout"
	"github.com/jackzampolin/syncread/internal/config"
	"github.com/jackzampolin/syncread/internal/home"
	"github.com/jackzampolin/syncread/internal/orchestrator"
	"github.com/jackzampolin/syncread/internal/store"
	"github.com/jackzampolin/syncread/internal/svcctx"
	"github.com/jackzampolin/syncread/internal/transcription"
)

var syncOwner string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Drive sync sessions against the local Sync Core",
	Long: `sync commands build the same svcctx.Services bundle an embedding
HTTP server would and drive the Sync Orchestrator directly, without a
server process in between.`,
}

func init() {
	syncCmd.PersistentFlags().StringVar(&syncOwner, "owner", "", "owning user id (required)")
	syncCmd.AddCommand(syncStartCmd, syncStatusCmd, syncPauseCmd, syncResumeCmd, syncRetryCmd)
}

// buildOrchestrator assembles the service bundle from the root command's
// --home/--config flags, the same wiring an embedding server performs at
// startup.
func buildOrchestrator() (*orchestrator.Orchestrator, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("create home directory: %w", err)
	}

	cfgFilePath := cfgFile
	if cfgFilePath == "" && h.ConfigExists() {
		cfgFilePath = h.ConfigPath()
	}
	cfgMgr, err := config.NewManager(cfgFilePath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	dbPath := filepath.Join(h.Path(), "syncread.db")
	sessionStore, err := store.NewGormStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	var transcriber transcription.Client
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		transcriber = transcription.NewOpenAIClient(transcription.OpenAIConfig{APIKey: apiKey})
	} else {
		transcriber = transcription.NewFixtureClient()
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: GetLogLevel()}))

	svc := &svcctx.Services{
		Store:         sessionStore,
		BlobStore:     blobstore.NewLocalStore(h.DataPath()),
		Transcriber:   transcriber,
		Logger:        logger,
		Home:          h,
		ConfigManager: cfgMgr,
	}
	return orchestrator.New(svc), nil
}

func requireOwner() error {
	if syncOwner == "" {
		return fmt.Errorf("--owner is required")
	}
	return nil
}

var syncStartCmd = &cobra.Command{
	Use:   "start <session-id>",
	Short: "Transition a pending session to processing and dispatch its pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOwner(); err != nil {
			return err
		}
		o, err := buildOrchestrator()
		if err != nil {
			return err
		}
		sess, err := o.Start(cmd.Context(), syncOwner, args[0])
		if err != nil {
			return err
		}
		return cliout.WriteSession(sess)
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show a sync session's current state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOwner(); err != nil {
			return err
		}
		o, err := buildOrchestrator()
		if err != nil {
			return err
		}
		sess, err := o.Store.GetSession(cmd.Context(), syncOwner, args[0])
		if err != nil {
			return err
		}
		return cliout.WriteSession(sess)
	},
}

var syncPauseCmd = &cobra.Command{
	Use:   "pause <session-id>",
	Short: "Halt a progressive session's auto-advance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOwner(); err != nil {
			return err
		}
		o, err := buildOrchestrator()
		if err != nil {
			return err
		}
		sess, err := o.Pause(cmd.Context(), syncOwner, args[0])
		if err != nil {
			return err
		}
		return cliout.WriteSession(sess)
	},
}

var syncResumeCmd = &cobra.Command{
	Use:   "resume <session-id>",
	Short: "Re-schedule one chunk from a paused session's synced frontier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOwner(); err != nil {
			return err
		}
		o, err := buildOrchestrator()
		if err != nil {
			return err
		}
		sess, err := o.Resume(cmd.Context(), syncOwner, args[0])
		if err != nil {
			return err
		}
		return cliout.WriteSession(sess)
	},
}

var syncRetryCmd = &cobra.Command{
	Use:   "retry <session-id>",
	Short: "Clear an errored session and re-dispatch its pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOwner(); err != nil {
			return err
		}
		o, err := buildOrchestrator()
		if err != nil {
			return err
		}
		sess, err := o.Retry(cmd.Context(), syncOwner, args[0])
		if err != nil {
			return err
		}
		return cliout.WriteSession(sess)
	},
}
