// Package store implements the Session Store Adapter: a narrow
// persistence interface for books, audiobooks, and sync sessions that
// enforces ownership checks and atomic session field updates.
package store

import (
	"context"
	"time"

	"github.com/jackzampolin/syncread/internal/types"
)

// SessionPatch carries a partial update for UpdateSession. Only non-nil
// fields are applied; the row's UpdatedAt is always refreshed. Error uses
// a double pointer so "clear the error string" (set to "") is
// distinguishable from "leave it untouched" (nil).
type SessionPatch struct {
	Status              *types.Status
	CurrentStep         *types.Step
	Progress            *float64
	Error               **string
	SyncedUpToWord      *int
	TotalChunks         *int
	CurrentChunk        *int
	SyncAnchors         *[]types.Anchor
	ProgressVersion     *int
	PlaybackPositionSec *float64
	PlaybackProgress    *float64
	PlaybackUpdatedAt   *time.Time
}

// Store is the Session Store Adapter contract. All operations
// that take an owner verify the record belongs to that owner and return
// synerr.Unauthorized otherwise; all lookups by id return synerr.NotFound
// when the record does not exist.
type Store interface {
	// CreateBook deduplicates on (owner, SHA256): if a matching record
	// already exists it is returned unchanged, without inserting a new row.
	CreateBook(ctx context.Context, book *types.Book) (*types.Book, error)
	FindBookByHash(ctx context.Context, owner, sha256 string) (*types.Book, error)
	GetBook(ctx context.Context, owner, id string) (*types.Book, error)
	UpdateBook(ctx context.Context, owner string, book *types.Book) error
	DeleteBook(ctx context.Context, owner, id string) error
	ListBooksByOwner(ctx context.Context, owner string) ([]types.Book, error)

	// CreateAudiobook deduplicates on (owner, SHA256) the same way
	// CreateBook does.
	CreateAudiobook(ctx context.Context, audiobook *types.Audiobook) (*types.Audiobook, error)
	FindAudiobookByHash(ctx context.Context, owner, sha256 string) (*types.Audiobook, error)
	GetAudiobook(ctx context.Context, owner, id string) (*types.Audiobook, error)
	UpdateAudiobook(ctx context.Context, owner string, audiobook *types.Audiobook) error
	DeleteAudiobook(ctx context.Context, owner, id string) error
	ListAudiobooksByOwner(ctx context.Context, owner string) ([]types.Audiobook, error)

	CreateSession(ctx context.Context, session *types.SyncSession) (*types.SyncSession, error)
	GetSession(ctx context.Context, owner, id string) (*types.SyncSession, error)
	// UpdateSession applies patch atomically against the stored row and
	// sets UpdatedAt = now, returning the updated session.
	UpdateSession(ctx context.Context, owner, id string, patch SessionPatch) (*types.SyncSession, error)
	FindSessionByPair(ctx context.Context, owner, bookID, audioID string) (*types.SyncSession, error)
	ListSessionsByOwner(ctx context.Context, owner string) ([]types.SyncSession, error)
	DeleteSession(ctx context.Context, owner, id string) error
	DeleteSessionsByBook(ctx context.Context, owner, bookID string) error
	DeleteSessionsByAudiobook(ctx context.Context, owner, audioID string) error
}
