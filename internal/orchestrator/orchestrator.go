// Package orchestrator implements the Sync Orchestrator: the
// state machine, pipeline drivers, and progress bookkeeping that turn a
// book and an audiobook into a committed set of sync anchors.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc/panics"

	"github.com/jackzampolin/syncread/internal/blobstore"
	"github.com/jackzampolin/syncread/internal/config"
	"github.com/jackzampolin/syncread/internal/home"
	"github.com/jackzampolin/syncread/internal/store"
	"github.com/jackzampolin/syncread/internal/svcctx"
	"github.com/jackzampolin/syncread/internal/synerr"
	"github.com/jackzampolin/syncread/internal/transcription"
	"github.com/jackzampolin/syncread/internal/types"
)

// Orchestrator drives sync sessions through their lifecycle state
// machine. One Orchestrator is shared process-wide; per-session state
// lives in the session store row plus the in-flight bookkeeping below.
type Orchestrator struct {
	Store       store.Store
	BlobStore   blobstore.Store
	Transcriber transcription.Client
	Home        *home.Dir
	Config      *config.Manager
	Logger      *slog.Logger

	mu        sync.Mutex
	cancels   map[string]context.CancelFunc
	advancing map[string]bool
}

// New builds an Orchestrator from a service bundle, the same one an
// embedding server would carry through context via svcctx.
func New(svc *svcctx.Services) *Orchestrator {
	return &Orchestrator{
		Store:       svc.Store,
		BlobStore:   svc.BlobStore,
		Transcriber: svc.Transcriber,
		Home:        svc.Home,
		Config:      svc.ConfigManager,
		Logger:      svc.Logger,
		cancels:     make(map[string]context.CancelFunc),
		advancing:   make(map[string]bool),
	}
}

// Start transitions a pending session to processing and dispatches its
// pipeline in a supervised goroutine.
// It returns once the transition is committed; the pipeline itself runs
// asynchronously.
func (o *Orchestrator) Start(ctx context.Context, owner, sessionID string) (*types.SyncSession, error) {
	sess, err := o.Store.GetSession(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != types.StatusPending {
		return nil, synerr.New(synerr.InternalInvariantViolated, "session %q is not pending (status %q)", sessionID, sess.Status)
	}

	status := types.StatusProcessing
	step := types.StepExtracting
	progress := 0.0
	updated, err := o.Store.UpdateSession(ctx, owner, sessionID, store.SessionPatch{
		Status:      &status,
		CurrentStep: &step,
		Progress:    &progress,
	})
	if err != nil {
		return nil, err
	}

	o.dispatch(owner, sessionID, updated.SyncMode, pipelineStart)
	return updated, nil
}

// pipelineKind selects which unit of work dispatch runs for a session.
type pipelineKind int

const (
	pipelineStart pipelineKind = iota
	pipelineResume
)

// dispatch spawns the per-session worker goroutine. Panics inside the
// pipeline are caught and recorded as a session error rather than
// crashing the process.
func (o *Orchestrator) dispatch(owner, sessionID string, mode types.SyncMode, kind pipelineKind) {
	sessCtx, cancel := context.WithCancel(context.Background())

	o.mu.Lock()
	o.cancels[sessionID] = cancel
	o.mu.Unlock()

	go func() {
		defer func() {
			o.mu.Lock()
			delete(o.cancels, sessionID)
			o.mu.Unlock()
			cancel()
		}()

		var catcher panics.Catcher
		catcher.Try(func() {
			var err error
			switch {
			case mode == types.SyncModeProgressive && kind == pipelineResume:
				err = o.runProgressiveResume(sessCtx, owner, sessionID)
			case mode == types.SyncModeProgressive:
				err = o.runProgressiveStart(sessCtx, owner, sessionID)
			default:
				err = o.runFullPipeline(sessCtx, owner, sessionID)
			}
			if err != nil && !synerr.Is(err, synerr.Cancelled) {
				o.failSession(context.Background(), owner, sessionID, err)
			}
		})
		if r := catcher.Recovered(); r != nil {
			o.failSession(context.Background(), owner, sessionID, fmt.Errorf("panic in sync pipeline: %v", r.Value))
		}
	}()
}

// failSession persists a fatal failure, leaving any already-committed
// anchors undisturbed.
func (o *Orchestrator) failSession(ctx context.Context, owner, sessionID string, cause error) {
	status := types.StatusError
	msg := cause.Error()
	errPtr := &msg
	_, _ = o.Store.UpdateSession(ctx, owner, sessionID, store.SessionPatch{
		Status: &status,
		Error:  &errPtr,
	})
	if o.Logger != nil {
		o.Logger.Error("sync session failed", "session_id", sessionID, "error", cause)
	}
}

// Pause halts a progressive session's auto-advance. Full-mode sessions
// cannot be paused. Pausing an already-paused session is a no-op
// returning the current session.
func (o *Orchestrator) Pause(ctx context.Context, owner, sessionID string) (*types.SyncSession, error) {
	sess, err := o.Store.GetSession(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == types.StatusPaused {
		return sess, nil
	}
	if sess.SyncMode != types.SyncModeProgressive {
		return nil, synerr.New(synerr.InternalInvariantViolated, "session %q is not in progressive mode, cannot pause", sessionID)
	}
	if sess.Status != types.StatusProcessing {
		return nil, synerr.New(synerr.InternalInvariantViolated, "session %q is not processing (status %q), cannot pause", sessionID, sess.Status)
	}

	status := types.StatusPaused
	return o.Store.UpdateSession(ctx, owner, sessionID, store.SessionPatch{Status: &status})
}

// Resume re-schedules exactly one chunk from the session's synced
// frontier.
func (o *Orchestrator) Resume(ctx context.Context, owner, sessionID string) (*types.SyncSession, error) {
	sess, err := o.Store.GetSession(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != types.StatusPaused {
		return nil, synerr.New(synerr.InternalInvariantViolated, "session %q is not paused (status %q)", sessionID, sess.Status)
	}

	status := types.StatusProcessing
	updated, err := o.Store.UpdateSession(ctx, owner, sessionID, store.SessionPatch{Status: &status})
	if err != nil {
		return nil, err
	}

	o.resetAdvanceFlag(sessionID)
	o.dispatch(owner, sessionID, types.SyncModeProgressive, pipelineResume)
	return updated, nil
}

// Retry clears a session's error and re-dispatches its pipeline. Full
// sessions restart from scratch; progressive
// sessions resume from their persisted synced frontier.
func (o *Orchestrator) Retry(ctx context.Context, owner, sessionID string) (*types.SyncSession, error) {
	sess, err := o.Store.GetSession(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != types.StatusError {
		return nil, synerr.New(synerr.InternalInvariantViolated, "session %q is not in error (status %q)", sessionID, sess.Status)
	}

	status := types.StatusProcessing
	step := types.StepExtracting
	progress := 0.0
	var nilErr *string
	updated, err := o.Store.UpdateSession(ctx, owner, sessionID, store.SessionPatch{
		Status:      &status,
		CurrentStep: &step,
		Progress:    &progress,
		Error:       &nilErr,
	})
	if err != nil {
		return nil, err
	}

	kind := pipelineStart
	if updated.SyncMode == types.SyncModeProgressive {
		kind = pipelineResume
	}
	o.resetAdvanceFlag(sessionID)
	o.dispatch(owner, sessionID, updated.SyncMode, kind)
	return updated, nil
}

// Delete cancels any in-flight work for a session, then removes its row
// and working directory.
func (o *Orchestrator) Delete(ctx context.Context, owner, sessionID string) error {
	o.mu.Lock()
	if cancel, ok := o.cancels[sessionID]; ok {
		cancel()
	}
	delete(o.advancing, sessionID)
	o.mu.Unlock()

	if err := o.Store.DeleteSession(ctx, owner, sessionID); err != nil {
		return err
	}
	if o.Home != nil {
		return o.Home.RemoveSessionWorkDir(sessionID)
	}
	return nil
}

func (o *Orchestrator) resetAdvanceFlag(sessionID string) {
	o.mu.Lock()
	delete(o.advancing, sessionID)
	o.mu.Unlock()
}
