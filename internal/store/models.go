package store

import "time"

// bookRow is the gorm-mapped row for a Book. Data holds the full
// JSON-encoded types.Book; Owner/SHA256/ID are broken out as indexed
// columns so lookups don't require scanning and decoding every row.
type bookRow struct {
	ID        string `gorm:"primaryKey"`
	Owner     string `gorm:"column:owner;index:idx_book_owner_hash,priority:1"`
	SHA256    string `gorm:"column:sha256;index:idx_book_owner_hash,priority:2"`
	Data      string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (bookRow) TableName() string { return "books" }

// audiobookRow is the gorm-mapped row for an Audiobook.
type audiobookRow struct {
	ID        string `gorm:"primaryKey"`
	Owner     string `gorm:"column:owner;index:idx_audiobook_owner_hash,priority:1"`
	SHA256    string `gorm:"column:sha256;index:idx_audiobook_owner_hash,priority:2"`
	Data      string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (audiobookRow) TableName() string { return "audiobooks" }

// sessionRow is the gorm-mapped row for a SyncSession. BookID/AudioID are
// broken out for FindSessionByPair and the cascading deletes; the full
// session is round-tripped through Data so UpdateSession can apply a
// partial patch without a rigid column-per-field schema.
type sessionRow struct {
	ID        string `gorm:"primaryKey"`
	Owner     string `gorm:"index:idx_session_pair,priority:1"`
	BookID    string `gorm:"index:idx_session_pair,priority:2;index:idx_session_book"`
	AudioID   string `gorm:"index:idx_session_pair,priority:3;index:idx_session_audio"`
	Data      string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (sessionRow) TableName() string { return "sync_sessions" }
