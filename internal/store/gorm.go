package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jackzampolin/syncread/internal/synerr"
	"github.com/jackzampolin/syncread/internal/types"
)

// GormStore is a Store backed by a SQLite database via GORM. Books and
// audiobooks are stored as JSON-encoded blobs next to a handful of
// indexed columns used for lookups; sync sessions use the same shape so
// UpdateSession can patch individual JSON fields atomically.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens (creating if necessary) a SQLite database at dbPath
// and ensures its schema is current.
func NewGormStore(dbPath string) (*GormStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1) // SQLite: one writer at a time
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&bookRow{}, &audiobookRow{}, &sessionRow{}); err != nil {
		return nil, fmt.Errorf("auto-migrate schema: %w", err)
	}

	return &GormStore{db: db}, nil
}

func (s *GormStore) CreateBook(ctx context.Context, book *types.Book) (*types.Book, error) {
	var existing bookRow
	err := s.db.WithContext(ctx).Where("owner = ? AND sha256 = ?", book.Owner, book.SHA256).First(&existing).Error
	if err == nil {
		var out types.Book
		if err := json.Unmarshal([]byte(existing.Data), &out); err != nil {
			return nil, fmt.Errorf("decode existing book: %w", err)
		}
		return &out, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("lookup existing book: %w", err)
	}

	if book.ID == "" {
		book.ID = newID()
	}
	now := time.Now()
	book.CreatedAt, book.UpdatedAt = now, now

	data, err := json.Marshal(book)
	if err != nil {
		return nil, fmt.Errorf("encode book: %w", err)
	}
	row := bookRow{ID: book.ID, Owner: book.Owner, SHA256: book.SHA256, Data: string(data), UpdatedAt: now}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}
	out := *book
	return &out, nil
}

func (s *GormStore) FindBookByHash(ctx context.Context, owner, sha256 string) (*types.Book, error) {
	var row bookRow
	if err := s.db.WithContext(ctx).Where("owner = ? AND sha256 = ?", owner, sha256).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, synerr.New(synerr.NotFound, "no book for owner %q with hash %q", owner, sha256)
		}
		return nil, fmt.Errorf("lookup book by hash: %w", err)
	}
	var out types.Book
	if err := json.Unmarshal([]byte(row.Data), &out); err != nil {
		return nil, fmt.Errorf("decode book: %w", err)
	}
	return &out, nil
}

func (s *GormStore) GetBook(ctx context.Context, owner, id string) (*types.Book, error) {
	var row bookRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, synerr.New(synerr.NotFound, "book %q not found", id)
		}
		return nil, fmt.Errorf("lookup book: %w", err)
	}
	if row.Owner != owner {
		return nil, synerr.New(synerr.Unauthorized, "book %q does not belong to owner %q", id, owner)
	}
	var out types.Book
	if err := json.Unmarshal([]byte(row.Data), &out); err != nil {
		return nil, fmt.Errorf("decode book: %w", err)
	}
	return &out, nil
}

func (s *GormStore) UpdateBook(ctx context.Context, owner string, book *types.Book) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row bookRow
		if err := tx.First(&row, "id = ?", book.ID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return synerr.New(synerr.NotFound, "book %q not found", book.ID)
			}
			return fmt.Errorf("lookup book: %w", err)
		}
		if row.Owner != owner {
			return synerr.New(synerr.Unauthorized, "book %q does not belong to owner %q", book.ID, owner)
		}

		var existing types.Book
		if err := json.Unmarshal([]byte(row.Data), &existing); err != nil {
			return fmt.Errorf("decode book: %w", err)
		}
		book.CreatedAt = existing.CreatedAt
		book.UpdatedAt = time.Now()

		data, err := json.Marshal(book)
		if err != nil {
			return fmt.Errorf("encode book: %w", err)
		}
		return tx.Model(&row).Updates(map[string]any{
			"data":       string(data),
			"sha256":     book.SHA256,
			"updated_at": book.UpdatedAt,
		}).Error
	})
}

func (s *GormStore) DeleteBook(ctx context.Context, owner, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row bookRow
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return synerr.New(synerr.NotFound, "book %q not found", id)
			}
			return fmt.Errorf("lookup book: %w", err)
		}
		if row.Owner != owner {
			return synerr.New(synerr.Unauthorized, "book %q does not belong to owner %q", id, owner)
		}
		if err := tx.Delete(&bookRow{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete book: %w", err)
		}
		return tx.Delete(&sessionRow{}, "book_id = ?", id).Error
	})
}

func (s *GormStore) ListBooksByOwner(ctx context.Context, owner string) ([]types.Book, error) {
	var rows []bookRow
	if err := s.db.WithContext(ctx).Where("owner = ?", owner).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	out := make([]types.Book, 0, len(rows))
	for _, row := range rows {
		var b types.Book
		if err := json.Unmarshal([]byte(row.Data), &b); err != nil {
			return nil, fmt.Errorf("decode book %q: %w", row.ID, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *GormStore) CreateAudiobook(ctx context.Context, ab *types.Audiobook) (*types.Audiobook, error) {
	var existing audiobookRow
	err := s.db.WithContext(ctx).Where("owner = ? AND sha256 = ?", ab.Owner, ab.SHA256).First(&existing).Error
	if err == nil {
		var out types.Audiobook
		if err := json.Unmarshal([]byte(existing.Data), &out); err != nil {
			return nil, fmt.Errorf("decode existing audiobook: %w", err)
		}
		return &out, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("lookup existing audiobook: %w", err)
	}

	if ab.ID == "" {
		ab.ID = newID()
	}
	now := time.Now()
	ab.CreatedAt, ab.UpdatedAt = now, now

	data, err := json.Marshal(ab)
	if err != nil {
		return nil, fmt.Errorf("encode audiobook: %w", err)
	}
	row := audiobookRow{ID: ab.ID, Owner: ab.Owner, SHA256: ab.SHA256, Data: string(data), UpdatedAt: now}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("insert audiobook: %w", err)
	}
	out := *ab
	return &out, nil
}

func (s *GormStore) FindAudiobookByHash(ctx context.Context, owner, sha256 string) (*types.Audiobook, error) {
	var row audiobookRow
	if err := s.db.WithContext(ctx).Where("owner = ? AND sha256 = ?", owner, sha256).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, synerr.New(synerr.NotFound, "no audiobook for owner %q with hash %q", owner, sha256)
		}
		return nil, fmt.Errorf("lookup audiobook by hash: %w", err)
	}
	var out types.Audiobook
	if err := json.Unmarshal([]byte(row.Data), &out); err != nil {
		return nil, fmt.Errorf("decode audiobook: %w", err)
	}
	return &out, nil
}

func (s *GormStore) GetAudiobook(ctx context.Context, owner, id string) (*types.Audiobook, error) {
	var row audiobookRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, synerr.New(synerr.NotFound, "audiobook %q not found", id)
		}
		return nil, fmt.Errorf("lookup audiobook: %w", err)
	}
	if row.Owner != owner {
		return nil, synerr.New(synerr.Unauthorized, "audiobook %q does not belong to owner %q", id, owner)
	}
	var out types.Audiobook
	if err := json.Unmarshal([]byte(row.Data), &out); err != nil {
		return nil, fmt.Errorf("decode audiobook: %w", err)
	}
	return &out, nil
}

func (s *GormStore) UpdateAudiobook(ctx context.Context, owner string, ab *types.Audiobook) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row audiobookRow
		if err := tx.First(&row, "id = ?", ab.ID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return synerr.New(synerr.NotFound, "audiobook %q not found", ab.ID)
			}
			return fmt.Errorf("lookup audiobook: %w", err)
		}
		if row.Owner != owner {
			return synerr.New(synerr.Unauthorized, "audiobook %q does not belong to owner %q", ab.ID, owner)
		}

		var existing types.Audiobook
		if err := json.Unmarshal([]byte(row.Data), &existing); err != nil {
			return fmt.Errorf("decode audiobook: %w", err)
		}
		ab.CreatedAt = existing.CreatedAt
		ab.UpdatedAt = time.Now()

		data, err := json.Marshal(ab)
		if err != nil {
			return fmt.Errorf("encode audiobook: %w", err)
		}
		return tx.Model(&row).Updates(map[string]any{
			"data":       string(data),
			"sha256":     ab.SHA256,
			"updated_at": ab.UpdatedAt,
		}).Error
	})
}

func (s *GormStore) DeleteAudiobook(ctx context.Context, owner, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row audiobookRow
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return synerr.New(synerr.NotFound, "audiobook %q not found", id)
			}
			return fmt.Errorf("lookup audiobook: %w", err)
		}
		if row.Owner != owner {
			return synerr.New(synerr.Unauthorized, "audiobook %q does not belong to owner %q", id, owner)
		}
		if err := tx.Delete(&audiobookRow{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete audiobook: %w", err)
		}
		return tx.Delete(&sessionRow{}, "audio_id = ?", id).Error
	})
}

func (s *GormStore) ListAudiobooksByOwner(ctx context.Context, owner string) ([]types.Audiobook, error) {
	var rows []audiobookRow
	if err := s.db.WithContext(ctx).Where("owner = ?", owner).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list audiobooks: %w", err)
	}
	out := make([]types.Audiobook, 0, len(rows))
	for _, row := range rows {
		var a types.Audiobook
		if err := json.Unmarshal([]byte(row.Data), &a); err != nil {
			return nil, fmt.Errorf("decode audiobook %q: %w", row.ID, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *GormStore) CreateSession(ctx context.Context, session *types.SyncSession) (*types.SyncSession, error) {
	var existing sessionRow
	err := s.db.WithContext(ctx).
		Where("owner = ? AND book_id = ? AND audio_id = ?", session.Owner, session.BookID, session.AudioID).
		First(&existing).Error
	if err == nil {
		return nil, synerr.New(synerr.InternalInvariantViolated,
			"a live session already pairs book %q with audiobook %q for owner %q", session.BookID, session.AudioID, session.Owner)
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check existing session: %w", err)
	}

	if session.ID == "" {
		session.ID = newID()
	}
	now := time.Now()
	session.CreatedAt, session.UpdatedAt = now, now

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	row := sessionRow{
		ID: session.ID, Owner: session.Owner, BookID: session.BookID, AudioID: session.AudioID,
		Data: string(data), UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	out := *session
	return &out, nil
}

func (s *GormStore) GetSession(ctx context.Context, owner, id string) (*types.SyncSession, error) {
	var row sessionRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, synerr.New(synerr.NotFound, "session %q not found", id)
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if row.Owner != owner {
		return nil, synerr.New(synerr.Unauthorized, "session %q does not belong to owner %q", id, owner)
	}
	var out types.SyncSession
	if err := json.Unmarshal([]byte(row.Data), &out); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &out, nil
}

func (s *GormStore) UpdateSession(ctx context.Context, owner, id string, patch SessionPatch) (*types.SyncSession, error) {
	var result types.SyncSession
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row sessionRow
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return synerr.New(synerr.NotFound, "session %q not found", id)
			}
			return fmt.Errorf("lookup session: %w", err)
		}
		// Cheap ownership check straight off the JSON blob before doing a
		// full decode, so an unauthorized caller never pays for it.
		if gjson.Get(row.Data, "owner").String() != owner {
			return synerr.New(synerr.Unauthorized, "session %q does not belong to owner %q", id, owner)
		}

		patched, err := applySessionPatchJSON(row.Data, patch)
		if err != nil {
			return err
		}
		now := time.Now()
		patched, err = sjson.Set(patched, "updated_at", now)
		if err != nil {
			return fmt.Errorf("stamp updated_at: %w", err)
		}

		if err := json.Unmarshal([]byte(patched), &result); err != nil {
			return fmt.Errorf("decode patched session: %w", err)
		}

		return tx.Model(&row).Updates(map[string]any{
			"data":       patched,
			"updated_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *GormStore) FindSessionByPair(ctx context.Context, owner, bookID, audioID string) (*types.SyncSession, error) {
	var row sessionRow
	err := s.db.WithContext(ctx).
		Where("owner = ? AND book_id = ? AND audio_id = ?", owner, bookID, audioID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, synerr.New(synerr.NotFound, "no session pairing book %q with audiobook %q for owner %q", bookID, audioID, owner)
		}
		return nil, fmt.Errorf("lookup session by pair: %w", err)
	}
	var out types.SyncSession
	if err := json.Unmarshal([]byte(row.Data), &out); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &out, nil
}

func (s *GormStore) ListSessionsByOwner(ctx context.Context, owner string) ([]types.SyncSession, error) {
	var rows []sessionRow
	if err := s.db.WithContext(ctx).Where("owner = ?", owner).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]types.SyncSession, 0, len(rows))
	for _, row := range rows {
		var sess types.SyncSession
		if err := json.Unmarshal([]byte(row.Data), &sess); err != nil {
			return nil, fmt.Errorf("decode session %q: %w", row.ID, err)
		}
		out = append(out, sess)
	}
	return out, nil
}

func (s *GormStore) DeleteSession(ctx context.Context, owner, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row sessionRow
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return synerr.New(synerr.NotFound, "session %q not found", id)
			}
			return fmt.Errorf("lookup session: %w", err)
		}
		if row.Owner != owner {
			return synerr.New(synerr.Unauthorized, "session %q does not belong to owner %q", id, owner)
		}
		return tx.Delete(&sessionRow{}, "id = ?", id).Error
	})
}

func (s *GormStore) DeleteSessionsByBook(ctx context.Context, owner, bookID string) error {
	return s.db.WithContext(ctx).
		Where("owner = ? AND book_id = ?", owner, bookID).
		Delete(&sessionRow{}).Error
}

func (s *GormStore) DeleteSessionsByAudiobook(ctx context.Context, owner, audioID string) error {
	return s.db.WithContext(ctx).
		Where("owner = ? AND audio_id = ?", owner, audioID).
		Delete(&sessionRow{}).Error
}

// Close closes the underlying database connection.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newID() string { return uuid.NewString() }

var _ Store = (*GormStore)(nil)
