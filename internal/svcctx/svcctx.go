// Package svcctx carries the core services through context.Context.
// This package is separate from internal/orchestrator to avoid import cycles
// between the pipeline packages and whatever wires them together.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/syncread/internal/blobstore"
	"github.com/jackzampolin/syncread/internal/config"
	"github.com/jackzampolin/syncread/internal/home"
	"github.com/jackzampolin/syncread/internal/store"
	"github.com/jackzampolin/syncread/internal/transcription"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Store        store.Store
	BlobStore    blobstore.Store
	Transcriber  transcription.Client
	Logger       *slog.Logger
	Home         *home.Dir
	ConfigManager *config.Manager
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// StoreFrom extracts the session store adapter from context.
func StoreFrom(ctx context.Context) store.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Store
	}
	return nil
}

// BlobStoreFrom extracts the blob adapter from context.
func BlobStoreFrom(ctx context.Context) blobstore.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.BlobStore
	}
	return nil
}

// TranscriberFrom extracts the transcription client from context.
func TranscriberFrom(ctx context.Context) transcription.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.Transcriber
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// ConfigFrom extracts the live config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigManager
	}
	return nil
}
