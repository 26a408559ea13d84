package orchestrator

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jackzampolin/syncread/internal/align"
	"github.com/jackzampolin/syncread/internal/anchor"
	"github.com/jackzampolin/syncread/internal/audiochunker"
	"github.com/jackzampolin/syncread/internal/store"
	"github.com/jackzampolin/syncread/internal/synerr"
	"github.com/jackzampolin/syncread/internal/types"
)

// runProgressiveStart runs the initial alignment probe and kicks off the
// first real word chunk.
func (o *Orchestrator) runProgressiveStart(ctx context.Context, owner, sessionID string) error {
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
	if _, err := o.stageAudio(ctx, sessionID, ab); err != nil {
		return synerr.Wrap(synerr.InternalInvariantViolated, err, "stage audiobook")
	}

	cfg := o.Config.Get()
	wm := buildWordMap(book.PlainText)
	searchWords := cfg.InitialAlignmentSearchWords
	if searchWords > wm.totalWords() {
		searchWords = wm.totalWords()
	}
	searchText := book.PlainText[:wm.charIndexForWord(searchWords)]

	probeAnchor, err := o.runInitialAlignmentProbe(ctx, sessionID, ab, searchText, float64(cfg.InitialAlignmentProbeSec))
	if err != nil {
		return err
	}

	startWord := wm.wordIndexForChar(probeAnchor.CharIndex)
	seeded := []types.Anchor{probeAnchor}

	step = types.StepTranscribing
	progress = 30.0
	if _, err := o.Store.UpdateSession(ctx, owner, sessionID, store.SessionPatch{
		CurrentStep: &step,
		Progress:    &progress,
		SyncAnchors: &seeded,
	}); err != nil {
		return err
	}

	knownStart := probeAnchor.AudioTimeSec
	ok, err := o.syncWordChunk(ctx, owner, sessionID, startWord, cfg.ProgressiveFirstChunkWords, &knownStart)
	if err != nil {
		return err
	}
	if !ok {
		// Nothing left to sync (a vanishingly short book); mark complete.
		status := types.StatusComplete
		finalStep := types.StepComplete
		finalProgress := 100.0
		_, err := o.Store.UpdateSession(ctx, owner, sessionID, store.SessionPatch{
			Status: &status, CurrentStep: &finalStep, Progress: &finalProgress,
		})
		return err
	}
	return nil
}

// runProgressiveResume re-schedules exactly one chunk from a progressive
// session's persisted synced frontier.
func (o *Orchestrator) runProgressiveResume(ctx context.Context, owner, sessionID string) error {
	sess, err := o.Store.GetSession(ctx, owner, sessionID)
	if err != nil {
		return err
	}
	ab, err := o.Store.GetAudiobook(ctx, owner, sess.AudioID)
	if err != nil {
		return err
	}
	localPath := filepath.Join(o.Home.SessionWorkDir(sessionID), "source."+string(ab.Format))
	if _, statErr := os.Stat(localPath); statErr != nil {
		if _, err := o.stageAudio(ctx, sessionID, ab); err != nil {
			return synerr.Wrap(synerr.InternalInvariantViolated, err, "re-stage audiobook for resume")
		}
	}

	cfg := o.Config.Get()
	ok, err := o.syncWordChunk(ctx, owner, sessionID, sess.SyncedUpToWord, cfg.ProgressiveChunkWords, nil)
	if err != nil {
		return err
	}
	if !ok {
		status := types.StatusComplete
		step := types.StepComplete
		progress := 100.0
		_, err := o.Store.UpdateSession(ctx, owner, sessionID, store.SessionPatch{
			Status: &status, CurrentStep: &step, Progress: &progress,
		})
		return err
	}
	return nil
}

// AdvanceIfNeeded schedules the next word chunk once the reader's
// reported position nears the synced frontier, enforcing at-most-one
// in-flight advance per session via the advancing flag.
func (o *Orchestrator) AdvanceIfNeeded(ctx context.Context, owner, sessionID string, currentWord int) (bool, error) {
	sess, err := o.Store.GetSession(ctx, owner, sessionID)
	if err != nil {
		return false, err
	}
	if sess.Status != types.StatusProcessing || sess.SyncMode != types.SyncModeProgressive {
		return false, nil
	}

	cfg := o.Config.Get()
	if currentWord < sess.SyncedUpToWord-cfg.AdvanceThresholdWords {
		return false, nil
	}

	o.mu.Lock()
	if o.advancing[sessionID] {
		o.mu.Unlock()
		return false, nil
	}
	o.advancing[sessionID] = true
	o.mu.Unlock()

	before := sess.SyncedUpToWord
	ok, err := o.syncWordChunk(ctx, owner, sessionID, sess.SyncedUpToWord, cfg.ProgressiveChunkWords, nil)
	if err != nil {
		o.resetAdvanceFlag(sessionID)
		return false, err
	}

	after, err := o.Store.GetSession(ctx, owner, sessionID)
	if err == nil && after.SyncedUpToWord > before {
		o.resetAdvanceFlag(sessionID)
	}
	return ok, nil
}

// runInitialAlignmentProbe extracts the first probeSec of audio,
// transcribes it, and fuzzy-matches each segment independently against
// searchText, selecting the single highest-confidence match above 0.5.
// Falls back to anchor (0,0) when nothing matches.
func (o *Orchestrator) runInitialAlignmentProbe(ctx context.Context, sessionID string, ab *types.Audiobook, searchText string, probeSec float64) (types.Anchor, error) {
	workDir := o.Home.SessionWorkDir(sessionID)
	localPath := filepath.Join(workDir, "source."+string(ab.Format))
	probePath := filepath.Join(workDir, "probe.mp3")

	extractCtx, extractSpan := startPhase(ctx, sessionID, "extract", -1)
	extractErr := audiochunker.ExtractWindow(extractCtx, localPath, probePath, 0, probeSec, ab.Format)
	extractSpan.End()
	if extractErr != nil {
		return types.Anchor{}, synerr.Wrap(synerr.InternalInvariantViolated, extractErr, "extract initial alignment probe window")
	}
	defer os.Remove(probePath)

	transcribeCtx, transcribeSpan := startPhase(ctx, sessionID, "transcribe", -1)
	result, err := o.Transcriber.Transcribe(transcribeCtx, probePath)
	transcribeSpan.End()
	if err != nil {
		return types.Anchor{}, synerr.Wrap(synerr.TranscriptionFailed, err, "transcribe initial alignment probe")
	}

	_, matchSpan := startPhase(ctx, sessionID, "match", -1)
	best := types.Anchor{AudioTimeSec: 0, CharIndex: 0, Confidence: 0}
	found := false
	for _, seg := range result.Segments {
		anchors := align.Align(searchText, []align.Fragment{{Text: seg.Text, Timestamp: seg.StartSec}}, align.DefaultOptions())
		for _, a := range anchors {
			if a.Confidence > 0.5 && (!found || a.Confidence > best.Confidence) {
				best = a
				found = true
			}
		}
	}
	matchSpan.End()
	if !found {
		if o.Logger != nil {
			o.Logger.Warn("initial alignment probe found no acceptable match, falling back to (0,0)", "session_id", sessionID)
		}
		return types.Anchor{AudioTimeSec: 0, CharIndex: 0, Confidence: 0}, nil
	}
	return best, nil
}

// syncWordChunk extracts, transcribes, and aligns one word-chunk window,
// merging the result into the session's committed anchors. Returns false
// without mutation when the session is paused or the requested range is
// empty or past the end of the book.
func (o *Orchestrator) syncWordChunk(ctx context.Context, owner, sessionID string, wordStart, wordCount int, knownAudioStart *float64) (bool, error) {
	sess, err := o.Store.GetSession(ctx, owner, sessionID)
	if err != nil {
		return false, err
	}
	if sess.Status == types.StatusPaused {
		return false, nil
	}
	book, err := o.Store.GetBook(ctx, owner, sess.BookID)
	if err != nil {
		return false, err
	}
	ab, err := o.Store.GetAudiobook(ctx, owner, sess.AudioID)
	if err != nil {
		return false, err
	}

	wm := buildWordMap(book.PlainText)
	totalWords := wm.totalWords()

	wordStart = clampInt(wordStart, 0, totalWords)
	wordEnd := clampInt(wordStart+wordCount, 0, totalWords)
	if wordStart >= wordEnd {
		return false, nil
	}

	cfg := o.Config.Get()
	overlap := cfg.ProgressiveOverlapWords
	sliceStartWord := clampInt(wordStart-overlap, 0, totalWords)
	sliceEndWord := clampInt(wordEnd+overlap, 0, totalWords)
	startChar := wm.charIndexForWord(sliceStartWord)
	endChar := wm.charIndexForWord(sliceEndWord)
	if sliceEndWord >= totalWords {
		endChar = len(book.PlainText)
	}
	textSlice := book.PlainText[startChar:endChar]

	rate := float64(cfg.NarrationRateWPM)
	if rate <= 0 {
		rate = 150
	}
	audioDuration := (float64(wordCount) / rate) * 60
	audioStart := 0.0
	if knownAudioStart != nil {
		audioStart = *knownAudioStart
	} else {
		audioStart = (float64(wordStart) / rate) * 60
	}
	if audioStart < 0 {
		audioStart = 0
	}
	if audioStart+audioDuration > ab.DurationSec && ab.DurationSec > 0 {
		audioDuration = ab.DurationSec - audioStart
	}
	if audioDuration <= 0 {
		return false, nil
	}

	workDir, err := o.Home.EnsureSessionWorkDir(sessionID)
	if err != nil {
		return false, fmt.Errorf("ensure session work dir: %w", err)
	}
	localPath := filepath.Join(workDir, "source."+string(ab.Format))
	windowPath := filepath.Join(workDir, "wordchunk_"+strconv.Itoa(wordStart)+".mp3")
	defer os.Remove(windowPath)

	extractCtx, extractSpan := startPhase(ctx, sessionID, "extract", wordStart)
	extractErr := audiochunker.ExtractWindow(extractCtx, localPath, windowPath, audioStart, audioDuration, ab.Format)
	extractSpan.End()
	if extractErr != nil {
		return false, synerr.Wrap(synerr.InternalInvariantViolated, extractErr, "extract word-chunk audio window")
	}

	transcribeCtx, transcribeSpan := startPhase(ctx, sessionID, "transcribe", wordStart)
	result, err := o.Transcriber.Transcribe(transcribeCtx, windowPath)
	transcribeSpan.End()
	if err != nil {
		return false, synerr.Wrap(synerr.TranscriptionFailed, err, "transcribe word chunk starting at word %d", wordStart)
	}

	_, matchSpan := startPhase(ctx, sessionID, "match", wordStart)
	var fragments []align.Fragment
	for _, seg := range result.Segments {
		fragments = append(fragments, align.Fragment{Text: seg.Text, Timestamp: seg.StartSec + audioStart})
	}
	local := align.Align(textSlice, fragments, align.DefaultOptions())
	matchSpan.End()
	newAnchors := make([]types.Anchor, len(local))
	for i, a := range local {
		newAnchors[i] = types.Anchor{
			AudioTimeSec: a.AudioTimeSec,
			CharIndex:    a.CharIndex + startChar,
			Confidence:   a.Confidence,
		}
	}

	merged := anchor.Merge(sess.SyncAnchors, newAnchors, cfg.AnchorMergeWindowSec, cfg.AnchorMergeWindowChars)

	syncedUpTo := sess.SyncedUpToWord
	if wordEnd > syncedUpTo {
		syncedUpTo = wordEnd
	}
	prog := 0.0
	if totalWords > 0 {
		prog = math.Floor(100 * float64(syncedUpTo) / float64(totalWords))
	}
	status := sess.Status
	step := sess.CurrentStep
	if syncedUpTo >= totalWords {
		status = types.StatusComplete
		step = types.StepComplete
		prog = 100
	}

	_, err = o.Store.UpdateSession(ctx, owner, sessionID, store.SessionPatch{
		SyncAnchors:    &merged,
		SyncedUpToWord: &syncedUpTo,
		Progress:       &prog,
		Status:         &status,
		CurrentStep:    &step,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
