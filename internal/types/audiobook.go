package types

import "time"

// AudioFormat identifies the container/codec an Audiobook's source audio
// was uploaded in. The chunker re-encodes formats the transcription
// provider does not accept.
type AudioFormat string

const (
	AudioFormatMP3 AudioFormat = "mp3"
	AudioFormatM4B AudioFormat = "m4b"
	AudioFormatM4A AudioFormat = "m4a"
	AudioFormatWAV AudioFormat = "wav"
)

// Audiobook is an uploaded narration track awaiting or undergoing sync
// against a Book.
type Audiobook struct {
	ID          string      `json:"id"`
	Owner       string      `json:"owner"`
	Title       string      `json:"title,omitempty"`
	Filename    string      `json:"filename"`
	DurationSec float64     `json:"duration_sec"`
	Format      AudioFormat `json:"format"`
	BlobPath    string      `json:"blob_path"`
	SHA256      string      `json:"sha256"`
	ByteSize    int64       `json:"byte_size"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// AudioChunk is a transient slice of an Audiobook's source audio produced
// by the chunker for transcription. It is never persisted as
// its own record; chunks are discarded after transcription. They stay on
// local disk unless the chunker's Upload option moves them into the blob
// store (InBlobStore).
type AudioChunk struct {
	Path          string  `json:"path"`
	StartTimeSec  float64 `json:"start_time_sec"`
	DurationSec   float64 `json:"duration_sec"`
	ByteSize      int64   `json:"byte_size"`
	InBlobStore   bool    `json:"in_blob_store"`
}
