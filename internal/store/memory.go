package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/syncread/internal/synerr"
	"github.com/jackzampolin/syncread/internal/types"
)

// MemoryStore is an in-process Store, useful for tests and single-user
// local runs where a database is unnecessary ceremony.
type MemoryStore struct {
	mu         sync.RWMutex
	books      map[string]types.Book
	audiobooks map[string]types.Audiobook
	sessions   map[string]types.SyncSession
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books:      make(map[string]types.Book),
		audiobooks: make(map[string]types.Audiobook),
		sessions:   make(map[string]types.SyncSession),
	}
}

func (m *MemoryStore) CreateBook(_ context.Context, book *types.Book) (*types.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.books {
		if b.Owner == book.Owner && b.SHA256 == book.SHA256 {
			existing := b
			return &existing, nil
		}
	}

	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	now := time.Now()
	book.CreatedAt, book.UpdatedAt = now, now
	m.books[book.ID] = *book
	out := *book
	return &out, nil
}

func (m *MemoryStore) FindBookByHash(_ context.Context, owner, sha256 string) (*types.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.books {
		if b.Owner == owner && b.SHA256 == sha256 {
			out := b
			return &out, nil
		}
	}
	return nil, synerr.New(synerr.NotFound, "no book for owner %q with hash %q", owner, sha256)
}

func (m *MemoryStore) GetBook(_ context.Context, owner, id string) (*types.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	if !ok {
		return nil, synerr.New(synerr.NotFound, "book %q not found", id)
	}
	if b.Owner != owner {
		return nil, synerr.New(synerr.Unauthorized, "book %q does not belong to owner %q", id, owner)
	}
	out := b
	return &out, nil
}

func (m *MemoryStore) UpdateBook(_ context.Context, owner string, book *types.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.books[book.ID]
	if !ok {
		return synerr.New(synerr.NotFound, "book %q not found", book.ID)
	}
	if existing.Owner != owner {
		return synerr.New(synerr.Unauthorized, "book %q does not belong to owner %q", book.ID, owner)
	}
	book.CreatedAt = existing.CreatedAt
	book.UpdatedAt = time.Now()
	m.books[book.ID] = *book
	return nil
}

func (m *MemoryStore) DeleteBook(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.books[id]
	if !ok {
		return synerr.New(synerr.NotFound, "book %q not found", id)
	}
	if existing.Owner != owner {
		return synerr.New(synerr.Unauthorized, "book %q does not belong to owner %q", id, owner)
	}
	delete(m.books, id)
	for sid, s := range m.sessions {
		if s.BookID == id {
			delete(m.sessions, sid)
		}
	}
	return nil
}

func (m *MemoryStore) ListBooksByOwner(_ context.Context, owner string) ([]types.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.Book
	for _, b := range m.books {
		if b.Owner == owner {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateAudiobook(_ context.Context, ab *types.Audiobook) (*types.Audiobook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.audiobooks {
		if a.Owner == ab.Owner && a.SHA256 == ab.SHA256 {
			existing := a
			return &existing, nil
		}
	}

	if ab.ID == "" {
		ab.ID = uuid.NewString()
	}
	now := time.Now()
	ab.CreatedAt, ab.UpdatedAt = now, now
	m.audiobooks[ab.ID] = *ab
	out := *ab
	return &out, nil
}

func (m *MemoryStore) FindAudiobookByHash(_ context.Context, owner, sha256 string) (*types.Audiobook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.audiobooks {
		if a.Owner == owner && a.SHA256 == sha256 {
			out := a
			return &out, nil
		}
	}
	return nil, synerr.New(synerr.NotFound, "no audiobook for owner %q with hash %q", owner, sha256)
}

func (m *MemoryStore) GetAudiobook(_ context.Context, owner, id string) (*types.Audiobook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.audiobooks[id]
	if !ok {
		return nil, synerr.New(synerr.NotFound, "audiobook %q not found", id)
	}
	if a.Owner != owner {
		return nil, synerr.New(synerr.Unauthorized, "audiobook %q does not belong to owner %q", id, owner)
	}
	out := a
	return &out, nil
}

func (m *MemoryStore) UpdateAudiobook(_ context.Context, owner string, ab *types.Audiobook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.audiobooks[ab.ID]
	if !ok {
		return synerr.New(synerr.NotFound, "audiobook %q not found", ab.ID)
	}
	if existing.Owner != owner {
		return synerr.New(synerr.Unauthorized, "audiobook %q does not belong to owner %q", ab.ID, owner)
	}
	ab.CreatedAt = existing.CreatedAt
	ab.UpdatedAt = time.Now()
	m.audiobooks[ab.ID] = *ab
	return nil
}

func (m *MemoryStore) DeleteAudiobook(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.audiobooks[id]
	if !ok {
		return synerr.New(synerr.NotFound, "audiobook %q not found", id)
	}
	if existing.Owner != owner {
		return synerr.New(synerr.Unauthorized, "audiobook %q does not belong to owner %q", id, owner)
	}
	delete(m.audiobooks, id)
	for sid, s := range m.sessions {
		if s.AudioID == id {
			delete(m.sessions, sid)
		}
	}
	return nil
}

func (m *MemoryStore) ListAudiobooksByOwner(_ context.Context, owner string) ([]types.Audiobook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.Audiobook
	for _, a := range m.audiobooks {
		if a.Owner == owner {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateSession(_ context.Context, s *types.SyncSession) (*types.SyncSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.sessions {
		if existing.Owner == s.Owner && existing.BookID == s.BookID && existing.AudioID == s.AudioID {
			return nil, synerr.New(synerr.InternalInvariantViolated,
				"a live session already pairs book %q with audiobook %q for owner %q", s.BookID, s.AudioID, s.Owner)
		}
	}

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now()
	s.CreatedAt, s.UpdatedAt = now, now
	m.sessions[s.ID] = *s
	out := *s
	return &out, nil
}

func (m *MemoryStore) GetSession(_ context.Context, owner, id string) (*types.SyncSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, synerr.New(synerr.NotFound, "session %q not found", id)
	}
	if s.Owner != owner {
		return nil, synerr.New(synerr.Unauthorized, "session %q does not belong to owner %q", id, owner)
	}
	out := s
	return &out, nil
}

func (m *MemoryStore) UpdateSession(_ context.Context, owner, id string, patch SessionPatch) (*types.SyncSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, synerr.New(synerr.NotFound, "session %q not found", id)
	}
	if s.Owner != owner {
		return nil, synerr.New(synerr.Unauthorized, "session %q does not belong to owner %q", id, owner)
	}

	applyPatch(&s, patch)
	s.UpdatedAt = time.Now()
	m.sessions[id] = s
	out := s
	return &out, nil
}

func (m *MemoryStore) FindSessionByPair(_ context.Context, owner, bookID, audioID string) (*types.SyncSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.Owner == owner && s.BookID == bookID && s.AudioID == audioID {
			out := s
			return &out, nil
		}
	}
	return nil, synerr.New(synerr.NotFound, "no session pairing book %q with audiobook %q for owner %q", bookID, audioID, owner)
}

func (m *MemoryStore) ListSessionsByOwner(_ context.Context, owner string) ([]types.SyncSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.SyncSession
	for _, s := range m.sessions {
		if s.Owner == owner {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return synerr.New(synerr.NotFound, "session %q not found", id)
	}
	if s.Owner != owner {
		return synerr.New(synerr.Unauthorized, "session %q does not belong to owner %q", id, owner)
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) DeleteSessionsByBook(_ context.Context, owner, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.Owner == owner && s.BookID == bookID {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *MemoryStore) DeleteSessionsByAudiobook(_ context.Context, owner, audioID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.Owner == owner && s.AudioID == audioID {
			delete(m.sessions, id)
		}
	}
	return nil
}

// applyPatch mutates s in place, setting only the fields patch specifies.
func applyPatch(s *types.SyncSession, patch SessionPatch) {
	if patch.Status != nil {
		s.Status = *patch.Status
	}
	if patch.CurrentStep != nil {
		s.CurrentStep = *patch.CurrentStep
	}
	if patch.Progress != nil {
		s.Progress = *patch.Progress
	}
	if patch.Error != nil {
		if *patch.Error == nil {
			s.Error = ""
		} else {
			s.Error = **patch.Error
		}
	}
	if patch.SyncedUpToWord != nil {
		s.SyncedUpToWord = *patch.SyncedUpToWord
	}
	if patch.TotalChunks != nil {
		s.TotalChunks = *patch.TotalChunks
	}
	if patch.CurrentChunk != nil {
		s.CurrentChunk = *patch.CurrentChunk
	}
	if patch.SyncAnchors != nil {
		s.SyncAnchors = *patch.SyncAnchors
	}
	if patch.ProgressVersion != nil {
		s.ProgressVersion = *patch.ProgressVersion
	}
	if patch.PlaybackPositionSec != nil {
		s.PlaybackPositionSec = *patch.PlaybackPositionSec
	}
	if patch.PlaybackProgress != nil {
		s.PlaybackProgress = *patch.PlaybackProgress
	}
	if patch.PlaybackUpdatedAt != nil {
		s.PlaybackUpdatedAt = *patch.PlaybackUpdatedAt
	}
}

var _ Store = (*MemoryStore)(nil)
