package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/syncread/internal/synerr"
	"github.com/jackzampolin/syncread/internal/types"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "syncread.db")
	s, err := NewGormStore(dbPath)
	if err != nil {
		t.Fatalf("open gorm store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGormStoreCreateBookDeduplicatesOnOwnerAndHash(t *testing.T) {
	ctx := context.Background()
	s := newTestGormStore(t)

	b1, err := s.CreateBook(ctx, &types.Book{Owner: "alice", SHA256: "deadbeef", Title: "First"})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	b2, err := s.CreateBook(ctx, &types.Book{Owner: "alice", SHA256: "deadbeef", Title: "Resubmit"})
	if err != nil {
		t.Fatalf("create duplicate book: %v", err)
	}
	if b1.ID != b2.ID || b2.Title != "First" {
		t.Fatalf("expected dedup to return the original record, got %+v", b2)
	}
}

func TestGormStoreUpdateSessionPatchesJSONBlobAtomically(t *testing.T) {
	ctx := context.Background()
	s := newTestGormStore(t)

	book, err := s.CreateBook(ctx, &types.Book{Owner: "alice", SHA256: "abc", Title: "Dune"})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	ab, err := s.CreateAudiobook(ctx, &types.Audiobook{Owner: "alice", SHA256: "xyz"})
	if err != nil {
		t.Fatalf("create audiobook: %v", err)
	}
	session, err := s.CreateSession(ctx, &types.SyncSession{
		Owner: "alice", BookID: book.ID, AudioID: ab.ID,
		Status: types.StatusPending, CurrentStep: types.StepExtracting,
		SyncAnchors: []types.Anchor{{AudioTimeSec: 1, CharIndex: 10, Confidence: 0.9}},
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	status := types.StatusProcessing
	progress := 0.25
	updated, err := s.UpdateSession(ctx, "alice", session.ID, SessionPatch{
		Status:   &status,
		Progress: &progress,
	})
	if err != nil {
		t.Fatalf("update session: %v", err)
	}
	if updated.Status != types.StatusProcessing || updated.Progress != 0.25 {
		t.Fatalf("expected patched fields applied, got %+v", updated)
	}
	if updated.CurrentStep != types.StepExtracting {
		t.Fatalf("expected untouched field preserved, got %q", updated.CurrentStep)
	}
	if len(updated.SyncAnchors) != 1 || updated.SyncAnchors[0].CharIndex != 10 {
		t.Fatalf("expected untouched SyncAnchors preserved, got %+v", updated.SyncAnchors)
	}

	reread, err := s.GetSession(ctx, "alice", session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if reread.Status != types.StatusProcessing {
		t.Fatalf("expected patch to persist, got %+v", reread)
	}
}

func TestGormStoreUpdateSessionRejectsWrongOwner(t *testing.T) {
	ctx := context.Background()
	s := newTestGormStore(t)

	book, _ := s.CreateBook(ctx, &types.Book{Owner: "alice", SHA256: "abc"})
	ab, _ := s.CreateAudiobook(ctx, &types.Audiobook{Owner: "alice", SHA256: "xyz"})
	session, err := s.CreateSession(ctx, &types.SyncSession{Owner: "alice", BookID: book.ID, AudioID: ab.ID})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	progress := 0.5
	if _, err := s.UpdateSession(ctx, "mallory", session.ID, SessionPatch{Progress: &progress}); !synerr.Is(err, synerr.Unauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestGormStoreDeleteBookCascadesSessions(t *testing.T) {
	ctx := context.Background()
	s := newTestGormStore(t)

	book, _ := s.CreateBook(ctx, &types.Book{Owner: "alice", SHA256: "abc"})
	ab, _ := s.CreateAudiobook(ctx, &types.Audiobook{Owner: "alice", SHA256: "xyz"})
	session, err := s.CreateSession(ctx, &types.SyncSession{Owner: "alice", BookID: book.ID, AudioID: ab.ID})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := s.DeleteBook(ctx, "alice", book.ID); err != nil {
		t.Fatalf("delete book: %v", err)
	}
	if _, err := s.GetSession(ctx, "alice", session.ID); !synerr.Is(err, synerr.NotFound) {
		t.Fatalf("expected session to cascade-delete with its book, got %v", err)
	}
}

func TestGormStoreFindBookByHashReturnsNotFoundWhenMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestGormStore(t)

	if _, err := s.FindBookByHash(ctx, "alice", "nope"); !synerr.Is(err, synerr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

var _ Store = (*GormStore)(nil)
