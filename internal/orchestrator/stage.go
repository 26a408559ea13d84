package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jackzampolin/syncread/internal/types"
)

// stageAudio downloads an audiobook's source file from the blob store
// into the session's local working directory, returning the local path.
// Segmentation and window extraction both need a seekable local file;
// ffmpeg cannot operate directly against the blob store's stream
// interface.
func (o *Orchestrator) stageAudio(ctx context.Context, sessionID string, ab *types.Audiobook) (string, error) {
	workDir, err := o.Home.EnsureSessionWorkDir(sessionID)
	if err != nil {
		return "", fmt.Errorf("create session work dir: %w", err)
	}

	localPath := filepath.Join(workDir, "source."+string(ab.Format))
	src, err := o.BlobStore.Get(ctx, ab.BlobPath, 0, 0)
	if err != nil {
		return "", fmt.Errorf("fetch audiobook from blob store: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create local staging file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("stage audiobook to disk: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close staged audiobook file: %w", err)
	}
	return localPath, nil
}
