package audiochunker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/syncread/internal/types"
)

func requireFFmpeg(t *testing.T) {
	t.Helper()
	if err := CheckFFmpegAvailable(); err != nil {
		t.Skipf("ffmpeg/ffprobe unavailable: %v", err)
	}
}

func TestChunkFastPathSkipsSegmentationWhenWithinCeiling(t *testing.T) {
	requireFFmpeg(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "book.mp3")
	if err := os.WriteFile(src, make([]byte, 1024), 0o644); err != nil {
		t.Fatal(err)
	}

	c := &Chunker{}
	chunks, err := c.Chunk(context.Background(), Options{
		SessionID:     "sess-1",
		SourcePath:    src,
		Format:        types.AudioFormatMP3,
		MaxChunkBytes: 1 << 20,
		WorkDir:       dir,
	})
	if err != nil {
		t.Fatalf("Chunk returned error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for source within ceiling, got %d", len(chunks))
	}
	if chunks[0].Path != src {
		t.Errorf("fast path should reference the original file, got %q", chunks[0].Path)
	}
}

func TestCleanupRemovesLocalChunksAndWorkDir(t *testing.T) {
	dir := t.TempDir()
	chunkPath := filepath.Join(dir, "chunk_000.mp3")
	if err := os.WriteFile(chunkPath, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := Cleanup(context.Background(), nil, dir, []types.AudioChunk{{Path: chunkPath}})
	if err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("expected work dir to be removed, stat err = %v", err)
	}
}

func TestCleanupIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	err := Cleanup(context.Background(), nil, dir, nil)
	if err != nil {
		t.Fatalf("first cleanup: %v", err)
	}
	err = Cleanup(context.Background(), nil, dir, nil)
	if err != nil {
		t.Fatalf("second cleanup should be idempotent, got: %v", err)
	}
}
