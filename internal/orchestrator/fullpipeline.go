package orchestrator

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/jackzampolin/syncread/internal/align"
	"github.com/jackzampolin/syncread/internal/anchor"
	"github.com/jackzampolin/syncread/internal/audiochunker"
	"github.com/jackzampolin/syncread/internal/store"
	"github.com/jackzampolin/syncread/internal/synerr"
	"github.com/jackzampolin/syncread/internal/types"
)

// runFullPipeline drives a full-mode session from processing to complete.
// Temporary files and blob-store chunks are released on every exit path,
// success or failure.
func (o *Orchestrator) runFullPipeline(ctx context.Context, owner, sessionID string) error {
	sess, err := o.Store.GetSession(ctx, owner, sessionID)
	if err != nil {
		return err
	}

	book, err := o.Store.GetBook(ctx, owner, sess.BookID)
	if err != nil {
		return err
	}
	ab, err := o.Store.GetAudiobook(ctx, owner, sess.AudioID)
	if err != nil {
		return err
	}

	step := types.StepSegmenting
	progress := 20.0
	if _, err := o.Store.UpdateSession(ctx, owner, sessionID, store.SessionPatch{CurrentStep: &step, Progress: &progress}); err != nil {
		return err
	}

	workDir := o.Home.SessionWorkDir(sessionID)
	defer os.RemoveAll(workDir)

	extractCtx, extractSpan := startPhase(ctx, sessionID, "extract", -1)
	localPath, err := o.stageAudio(extractCtx, sessionID, ab)
	extractSpan.End()
	if err != nil {
		return synerr.Wrap(synerr.InternalInvariantViolated, err, "stage audiobook")
	}

	cfg := o.Config.Get()

	step = types.StepTranscribing
	progress = 30.0
	if _, err := o.Store.UpdateSession(ctx, owner, sessionID, store.SessionPatch{CurrentStep: &step, Progress: &progress}); err != nil {
		return err
	}

	segmentCtx, segmentSpan := startPhase(ctx, sessionID, "segment", -1)
	chunker := &audiochunker.Chunker{BlobStore: o.BlobStore}
	chunks, err := chunker.Chunk(segmentCtx, audiochunker.Options{
		SessionID:     sessionID,
		SourcePath:    localPath,
		Format:        ab.Format,
		MaxChunkBytes: cfg.ChunkTargetBytes,
		WorkDir:       workDir,
		Progressive:   false,
		Upload:        false,
	})
	segmentSpan.End()
	if err != nil {
		return err
	}
	defer audiochunker.Cleanup(context.Background(), o.BlobStore, "", chunks)

	totalChunks := len(chunks)
	currentChunk := 0
	if _, err := o.Store.UpdateSession(ctx, owner, sessionID, store.SessionPatch{
		TotalChunks:  &totalChunks,
		CurrentChunk: &currentChunk,
	}); err != nil {
		return err
	}

	var fragments []align.Fragment
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return synerr.Wrap(synerr.Cancelled, err, "sync session cancelled mid-transcription")
		}

		transcribeCtx, transcribeSpan := startPhase(ctx, sessionID, "transcribe", i)
		result, err := o.Transcriber.Transcribe(transcribeCtx, chunk.Path)
		transcribeSpan.End()
		if err != nil {
			return synerr.Wrap(synerr.TranscriptionFailed, err, "transcribe chunk %d/%d", i+1, totalChunks)
		}
		for _, seg := range result.Segments {
			fragments = append(fragments, align.Fragment{
				Text:      seg.Text,
				Timestamp: seg.StartSec + chunk.StartTimeSec,
			})
		}

		done := i + 1
		p := 35.0 + math.Floor(35.0*float64(done)/float64(totalChunks))
		if _, err := o.Store.UpdateSession(ctx, owner, sessionID, store.SessionPatch{
			CurrentChunk: &done,
			Progress:     &p,
		}); err != nil {
			return err
		}
	}

	step = types.StepMatching
	progress = 75.0
	if _, err := o.Store.UpdateSession(ctx, owner, sessionID, store.SessionPatch{CurrentStep: &step, Progress: &progress}); err != nil {
		return err
	}

	_, matchSpan := startPhase(ctx, sessionID, "match", -1)
	raw := align.Align(book.PlainText, fragments, align.DefaultOptions())
	final := anchor.Calculate(raw, ab.DurationSec, len(book.PlainText), anchor.Options{
		MinGapSec:   cfg.AnchorMinGapSec,
		MinGapChars: cfg.AnchorMinGapChars,
	})
	matchSpan.End()

	completeStatus := types.StatusComplete
	completeStep := types.StepComplete
	completeProgress := 100.0
	syncedUpTo := book.WordCount()
	_, err = o.Store.UpdateSession(ctx, owner, sessionID, store.SessionPatch{
		Status:         &completeStatus,
		CurrentStep:    &completeStep,
		Progress:       &completeProgress,
		SyncAnchors:    &final,
		SyncedUpToWord: &syncedUpTo,
	})
	if err != nil {
		return fmt.Errorf("commit final anchors: %w", err)
	}
	return nil
}
