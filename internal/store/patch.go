package store

import (
	"fmt"

	"github.com/tidwall/sjson"
)

// applySessionPatchJSON applies patch directly onto the session's stored
// JSON document via surgical sjson.Set calls, rather than a full
// unmarshal-mutate-marshal round trip, so fields the patch does not touch
// are left byte-for-byte untouched in storage.
func applySessionPatchJSON(data string, patch SessionPatch) (string, error) {
	var err error
	set := func(path string, value interface{}) {
		if err != nil {
			return
		}
		data, err = sjson.Set(data, path, value)
	}

	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.CurrentStep != nil {
		set("current_step", string(*patch.CurrentStep))
	}
	if patch.Progress != nil {
		set("progress", *patch.Progress)
	}
	if patch.Error != nil {
		if *patch.Error == nil {
			set("error", "")
		} else {
			set("error", **patch.Error)
		}
	}
	if patch.SyncedUpToWord != nil {
		set("synced_up_to_word", *patch.SyncedUpToWord)
	}
	if patch.TotalChunks != nil {
		set("total_chunks", *patch.TotalChunks)
	}
	if patch.CurrentChunk != nil {
		set("current_chunk", *patch.CurrentChunk)
	}
	if patch.SyncAnchors != nil {
		set("sync_anchors", *patch.SyncAnchors)
	}
	if patch.ProgressVersion != nil {
		set("progress_version", *patch.ProgressVersion)
	}
	if patch.PlaybackPositionSec != nil {
		set("playback_position_sec", *patch.PlaybackPositionSec)
	}
	if patch.PlaybackProgress != nil {
		set("playback_progress", *patch.PlaybackProgress)
	}
	if patch.PlaybackUpdatedAt != nil {
		set("playback_updated_at", *patch.PlaybackUpdatedAt)
	}
	if err != nil {
		return "", fmt.Errorf("apply session patch: %w", err)
	}
	return data, nil
}
