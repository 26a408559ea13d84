package types

import "time"

// Status is the coarse lifecycle state of a SyncSession.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPaused     Status = "paused"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// Step names the pipeline phase currently running, or last run, within
// a processing SyncSession.
type Step string

const (
	StepExtracting  Step = "extracting"
	StepSegmenting  Step = "segmenting"
	StepTranscribing Step = "transcribing"
	StepMatching    Step = "matching"
	StepComplete    Step = "complete"
)

// SyncMode selects which orchestrator pipeline drives a session.
// Full processes the entire audiobook up front; Progressive aligns in
// bounded word-chunk increments driven by playback position.
type SyncMode string

const (
	SyncModeFull        SyncMode = "full"
	SyncModeProgressive SyncMode = "progressive"
)

// SyncSession tracks one book-to-audiobook alignment job end to end,
// including progressive-mode bookkeeping and the reader's last known
// playback position.
type SyncSession struct {
	ID      string `json:"id"`
	Owner   string `json:"owner"`
	BookID  string `json:"book_id"`
	AudioID string `json:"audio_id"`

	Status      Status `json:"status"`
	CurrentStep Step   `json:"current_step"`
	// Progress is a 0..100 estimate of overall pipeline completion.
	Progress float64 `json:"progress"`
	Error    string  `json:"error,omitempty"`

	SyncMode SyncMode `json:"sync_mode"`

	// Chunk bookkeeping. WordChunkSize is set only in progressive mode; the
	// full-book pipeline also fills SyncedUpToWord, TotalChunks and
	// CurrentChunk.
	WordChunkSize  int `json:"word_chunk_size,omitempty"`
	SyncedUpToWord int `json:"synced_up_to_word"`
	TotalChunks    int `json:"total_chunks,omitempty"`
	CurrentChunk   int `json:"current_chunk,omitempty"`

	// SyncAnchors holds the accepted anchor set (gap-filtered in full mode,
	// merged chunk by chunk in progressive mode), sorted ascending by
	// AudioTimeSec.
	SyncAnchors []Anchor `json:"sync_anchors"`

	// ProgressVersion is the caller-supplied version of the playback
	// checkpoint. CheckpointProgress replaces it only with a strictly
	// greater value, so it never decreases.
	ProgressVersion int `json:"progress_version"`

	PlaybackPositionSec float64   `json:"playback_position_sec"`
	PlaybackProgress    float64   `json:"playback_progress"`
	PlaybackUpdatedAt   time.Time `json:"playback_updated_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal reports whether the session has reached a state the
// orchestrator will not resume automatically without an explicit retry.
func (s *SyncSession) IsTerminal() bool {
	return s.Status == StatusComplete || s.Status == StatusError
}
