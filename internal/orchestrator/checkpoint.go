package orchestrator

import (
	"context"
	"time"

	"github.com/jackzampolin/syncread/internal/store"
	"github.com/jackzampolin/syncread/internal/synerr"
	"github.com/jackzampolin/syncread/internal/types"
)

// CheckpointProgress records the reader's last reported playback
// position. The position is accepted only if non-negative
// and, when a duration is known, no greater than it. A supplied
// progressVersion replaces the stored one only if strictly greater,
// keeping progressVersion monotone non-decreasing.
func (o *Orchestrator) CheckpointProgress(ctx context.Context, owner, sessionID string, positionSec float64, durationSec float64, progressVersion *int) (*types.SyncSession, error) {
	if positionSec < 0 {
		return nil, synerr.New(synerr.InternalInvariantViolated, "playback position %f is negative", positionSec)
	}
	if durationSec > 0 && positionSec > durationSec {
		return nil, synerr.New(synerr.InternalInvariantViolated, "playback position %f exceeds duration %f", positionSec, durationSec)
	}

	sess, err := o.Store.GetSession(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}

	version := sess.ProgressVersion
	if progressVersion != nil && *progressVersion > version {
		version = *progressVersion
	}

	progress := 0.0
	if durationSec > 0 {
		progress = 100 * positionSec / durationSec
	}

	now := time.Now()
	updated, err := o.Store.UpdateSession(ctx, owner, sessionID, store.SessionPatch{
		PlaybackPositionSec: &positionSec,
		PlaybackProgress:    &progress,
		PlaybackUpdatedAt:   &now,
		ProgressVersion:     &version,
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
