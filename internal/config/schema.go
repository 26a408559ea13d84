package config

// Config holds the recognized syncread core configuration surface.
// Stored at: {home}/config.yaml, overridable via SYNCREAD_* environment
// variables and hot-reloaded when the backing file changes.
type Config struct {
	// ProviderMaxBytes is the hard byte ceiling the transcription provider accepts.
	ProviderMaxBytes int64 `mapstructure:"provider_max_bytes" yaml:"provider_max_bytes"`
	// ChunkTargetBytes is the chunker's target ceiling, kept safely under ProviderMaxBytes.
	ChunkTargetBytes int64 `mapstructure:"chunk_target_bytes" yaml:"chunk_target_bytes"`
	// ChunkDurationClampMinSec/MaxSec are validated (min <= max); the chunker
	// does not read them and clamps per-chunk duration to its own fixed
	// 60..600 s bounds.
	ChunkDurationClampMinSec int `mapstructure:"chunk_duration_clamp_min_sec" yaml:"chunk_duration_clamp_min_sec"`
	ChunkDurationClampMaxSec int `mapstructure:"chunk_duration_clamp_max_sec" yaml:"chunk_duration_clamp_max_sec"`
	// NarrationRateWPM is the assumed narration speed used to size word-range audio extraction.
	NarrationRateWPM int `mapstructure:"narration_rate_wpm" yaml:"narration_rate_wpm"`
	// ProgressiveFirstChunkWords sizes the very first progressive-mode word chunk.
	ProgressiveFirstChunkWords int `mapstructure:"progressive_first_chunk_words" yaml:"progressive_first_chunk_words"`
	// ProgressiveChunkWords is the default progressive-mode word chunk size.
	ProgressiveChunkWords int `mapstructure:"progressive_chunk_words" yaml:"progressive_chunk_words"`
	// ProgressiveOverlapWords is the context overlap applied on each side of a word chunk.
	ProgressiveOverlapWords int `mapstructure:"progressive_overlap_words" yaml:"progressive_overlap_words"`
	// AdvanceThresholdWords is how close to the synced frontier the reader must be to trigger an advance.
	AdvanceThresholdWords int `mapstructure:"advance_threshold_words" yaml:"advance_threshold_words"`
	// InitialAlignmentProbeSec is the duration of audio used for the initial alignment probe.
	InitialAlignmentProbeSec int `mapstructure:"initial_alignment_probe_sec" yaml:"initial_alignment_probe_sec"`
	// InitialAlignmentSearchWords bounds the book-text prefix searched by the initial probe.
	InitialAlignmentSearchWords int `mapstructure:"initial_alignment_search_words" yaml:"initial_alignment_search_words"`
	// AnchorConfidenceFloor is validated to lie in [0,1]. The pipelines do
	// not pass it to the aligner, which drops matches at or below its own
	// default floor of 0.5.
	AnchorConfidenceFloor float64 `mapstructure:"anchor_confidence_floor" yaml:"anchor_confidence_floor"`
	// AnchorMinGapSec/AnchorMinGapChars gate the calculator's greedy-accept pass.
	AnchorMinGapSec   float64 `mapstructure:"anchor_min_gap_sec" yaml:"anchor_min_gap_sec"`
	AnchorMinGapChars int     `mapstructure:"anchor_min_gap_chars" yaml:"anchor_min_gap_chars"`
	// AnchorMergeWindowSec/AnchorMergeWindowChars gate anchor-merge collapsing.
	AnchorMergeWindowSec   float64 `mapstructure:"anchor_merge_window_sec" yaml:"anchor_merge_window_sec"`
	AnchorMergeWindowChars int     `mapstructure:"anchor_merge_window_chars" yaml:"anchor_merge_window_chars"`
	// ProgressDebounceMs is the interval at which clients debounce playback
	// reports. CheckpointProgress does not read it and accepts every report.
	ProgressDebounceMs int `mapstructure:"progress_debounce_ms" yaml:"progress_debounce_ms"`
}

// DefaultConfig returns configuration with the recommended default values.
func DefaultConfig() *Config {
	return &Config{
		ProviderMaxBytes:            25 * 1 << 20,
		ChunkTargetBytes:            24 * 1 << 20,
		ChunkDurationClampMinSec:    60,
		ChunkDurationClampMaxSec:    600,
		NarrationRateWPM:            150,
		ProgressiveFirstChunkWords:  75,
		ProgressiveChunkWords:       1000,
		ProgressiveOverlapWords:     100,
		AdvanceThresholdWords:       500,
		InitialAlignmentProbeSec:    45,
		InitialAlignmentSearchWords: 5000,
		AnchorConfidenceFloor:       0.5,
		AnchorMinGapSec:             30,
		AnchorMinGapChars:           500,
		AnchorMergeWindowSec:        1.0,
		AnchorMergeWindowChars:      10,
		ProgressDebounceMs:          5000,
	}
}

// schemaJSON is the JSON Schema the loaded configuration is validated against
// before the orchestrator is allowed to use it. It encodes the same bounds
// DefaultConfig uses, so an operator override via SYNCREAD_* or a config file
// cannot silently produce a value the pipeline's invariants assume can't
// happen (e.g. a non-positive chunk size, or a confidence floor outside
// [0,1]).
const schemaJSON = `{
  "type": "object",
  "properties": {
    "provider_max_bytes": {"type": "integer", "exclusiveMinimum": 0},
    "chunk_target_bytes": {"type": "integer", "exclusiveMinimum": 0},
    "chunk_duration_clamp_min_sec": {"type": "integer", "exclusiveMinimum": 0},
    "chunk_duration_clamp_max_sec": {"type": "integer", "exclusiveMinimum": 0},
    "narration_rate_wpm": {"type": "integer", "exclusiveMinimum": 0},
    "progressive_first_chunk_words": {"type": "integer", "exclusiveMinimum": 0},
    "progressive_chunk_words": {"type": "integer", "exclusiveMinimum": 0},
    "progressive_overlap_words": {"type": "integer", "minimum": 0},
    "advance_threshold_words": {"type": "integer", "minimum": 0},
    "initial_alignment_probe_sec": {"type": "integer", "exclusiveMinimum": 0},
    "initial_alignment_search_words": {"type": "integer", "exclusiveMinimum": 0},
    "anchor_confidence_floor": {"type": "number", "minimum": 0, "maximum": 1},
    "anchor_min_gap_sec": {"type": "number", "minimum": 0},
    "anchor_min_gap_chars": {"type": "integer", "minimum": 0},
    "anchor_merge_window_sec": {"type": "number", "minimum": 0},
    "anchor_merge_window_chars": {"type": "integer", "minimum": 0},
    "progress_debounce_ms": {"type": "integer", "minimum": 0}
  }
}`
