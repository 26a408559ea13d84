// Package audiochunker implements the Audio Chunker: it slices an
// uploaded Audiobook's source file into provider-sized windows ready for
// transcription, re-encoding only the formats the transcription provider
// rejects outright.
package audiochunker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackzampolin/syncread/internal/blobstore"
	"github.com/jackzampolin/syncread/internal/synerr"
	"github.com/jackzampolin/syncread/internal/types"
)

const (
	minChunkSec = 60
	maxChunkSec = 600

	// firstChunkCapSec caps the first segment's length for progressive
	// sessions on re-encoded formats, so the earliest audio is ready for
	// playback as soon as possible rather than waiting out a full
	// 600s-ceiling chunk.
	firstChunkCapSec = 120

	// fallbackWindowSec is the fixed window size used when ffprobe cannot
	// report a source duration.
	fallbackWindowSec = 300

	// fallbackMinBytes is the output-size floor below which the
	// duration-unknown fallback loop considers itself done.
	fallbackMinBytes = 1024

	// fallbackMaxSegments is a safety cap on the duration-unknown fallback
	// loop so a corrupt or endless source cannot run forever.
	fallbackMaxSegments = 500
)

// Options configures a single Chunk invocation.
type Options struct {
	SessionID     string
	SourcePath    string
	Format        types.AudioFormat
	MaxChunkBytes int64
	WorkDir       string
	// Progressive marks a progressive-mode session, enabling the
	// first-chunk-cap optimization.
	Progressive bool
	// Upload pushes each produced chunk into BlobStore and deletes its
	// local copy; when false chunks are left on disk under WorkDir.
	Upload bool
}

// Chunker produces AudioChunks from a source audio file via ffmpeg/ffprobe.
type Chunker struct {
	BlobStore blobstore.Store
}

// Chunk slices opts.SourcePath into one or more AudioChunks.
func (c *Chunker) Chunk(ctx context.Context, opts Options) ([]types.AudioChunk, error) {
	if err := CheckFFmpegAvailable(); err != nil {
		return nil, synerr.Wrap(synerr.InternalInvariantViolated, err, "ffmpeg/ffprobe unavailable")
	}

	info, err := os.Stat(opts.SourcePath)
	if err != nil {
		return nil, synerr.Wrap(synerr.NotFound, err, "source audio file not found")
	}
	reencode := needsReencode(string(opts.Format))

	if !reencode && info.Size() <= opts.MaxChunkBytes {
		chunk := types.AudioChunk{
			Path:         opts.SourcePath,
			StartTimeSec: 0,
			ByteSize:     info.Size(),
		}
		if d, _ := probeDuration(ctx, opts.SourcePath); d > 0 {
			chunk.DurationSec = d
		}
		return c.finalize(ctx, opts, []types.AudioChunk{chunk})
	}

	duration, _ := probeDuration(ctx, opts.SourcePath)
	if duration <= 0 {
		chunks, err := c.chunkUnknownDuration(ctx, opts, reencode)
		if err != nil {
			return nil, err
		}
		return c.finalize(ctx, opts, chunks)
	}

	bytesPerSecond := float64(info.Size()) / duration
	segDuration := chunkDurationSec(opts.MaxChunkBytes, bytesPerSecond, minChunkSec, maxChunkSec)

	cap := 0.0
	if opts.Progressive && reencode {
		cap = firstChunkCapSec
	}
	boundaries := segmentBoundaries(duration, segDuration, cap)

	chunks, err := c.segmentAndVerify(ctx, opts, duration, segDuration, cap, boundaries, reencode)
	if err != nil {
		return nil, err
	}
	return c.finalize(ctx, opts, chunks)
}

func (c *Chunker) segmentAndVerify(ctx context.Context, opts Options, duration, segDuration, firstCap float64, boundaries []float64, reencode bool) ([]types.AudioChunk, error) {
	ext := "mp3"
	if !reencode {
		ext = string(opts.Format)
	}
	pattern := filepath.Join(opts.WorkDir, "chunk_%03d."+ext)
	timeout := segmentTimeout(segDuration, reencode)

	if reencode {
		if err := segmentReencodeMP3(ctx, opts.SourcePath, pattern, boundaries, timeout); err != nil {
			return nil, synerr.Wrap(synerr.TranscriptionFailed, err, "re-encode segmentation failed")
		}
	} else {
		if err := segmentCodecCopy(ctx, opts.SourcePath, pattern, boundaries, timeout); err != nil {
			return nil, synerr.Wrap(synerr.TranscriptionFailed, err, "codec-copy segmentation failed")
		}
	}

	files, err := filepath.Glob(filepath.Join(opts.WorkDir, "chunk_*."+ext))
	if err != nil {
		return nil, synerr.Wrap(synerr.InternalInvariantViolated, err, "glob chunk output")
	}
	sort.Strings(files)

	starts := append([]float64{0}, boundaries...)
	if len(files) != len(starts) {
		// ffmpeg may produce fewer trailing segments than cut points if the
		// tail is shorter than expected; align by truncating to what exists.
		if len(files) < len(starts) {
			starts = starts[:len(files)]
		}
	}

	chunks := make([]types.AudioChunk, 0, len(files))
	for i, f := range files {
		st, err := os.Stat(f)
		if err != nil {
			return nil, synerr.Wrap(synerr.InternalInvariantViolated, err, "stat chunk output")
		}
		if st.Size() > opts.MaxChunkBytes {
			return nil, synerr.New(synerr.ChunkTooLarge, "chunk %s is %d bytes, exceeds ceiling %d", f, st.Size(), opts.MaxChunkBytes)
		}
		start := 0.0
		if i < len(starts) {
			start = starts[i]
		}
		dur := segDuration
		if i == 0 && firstCap > 0 {
			dur = firstCap
		}
		if i == len(files)-1 {
			dur = duration - start
		}
		chunks = append(chunks, types.AudioChunk{
			Path:         f,
			StartTimeSec: start,
			DurationSec:  dur,
			ByteSize:     st.Size(),
		})
	}
	return chunks, nil
}

// chunkUnknownDuration handles sources ffprobe cannot report a duration
// for: it extracts fixed fallbackWindowSec windows until a produced window
// comes back under fallbackMinBytes (end of stream) or the segment-count
// safety cap is hit.
func (c *Chunker) chunkUnknownDuration(ctx context.Context, opts Options, reencode bool) ([]types.AudioChunk, error) {
	ext := "mp3"
	if !reencode {
		ext = string(opts.Format)
	}

	var chunks []types.AudioChunk
	start := 0.0
	for i := 0; i < fallbackMaxSegments; i++ {
		out := filepath.Join(opts.WorkDir, fmt.Sprintf("chunk_%03d.%s", i, ext))
		timeout := segmentTimeout(fallbackWindowSec, reencode)
		if err := extractFixedWindow(ctx, opts.SourcePath, out, start, fallbackWindowSec, reencode, timeout); err != nil {
			return nil, synerr.Wrap(synerr.TranscriptionFailed, err, "fallback window extraction failed")
		}
		st, err := os.Stat(out)
		if err != nil {
			return nil, synerr.Wrap(synerr.InternalInvariantViolated, err, "stat fallback chunk")
		}
		if st.Size() < fallbackMinBytes {
			os.Remove(out)
			break
		}
		if st.Size() > opts.MaxChunkBytes {
			return nil, synerr.New(synerr.ChunkTooLarge, "fallback chunk %s is %d bytes, exceeds ceiling %d", out, st.Size(), opts.MaxChunkBytes)
		}
		chunks = append(chunks, types.AudioChunk{
			Path:         out,
			StartTimeSec: start,
			DurationSec:  fallbackWindowSec,
			ByteSize:     st.Size(),
		})
		start += fallbackWindowSec
	}
	return chunks, nil
}

// finalize optionally uploads each chunk to the blob store, replacing its
// local Path with the conventional blob path and deleting the local copy.
func (c *Chunker) finalize(ctx context.Context, opts Options, chunks []types.AudioChunk) ([]types.AudioChunk, error) {
	if !opts.Upload || c.BlobStore == nil {
		return chunks, nil
	}
	ext := filepath.Ext(opts.SourcePath)
	for i := range chunks {
		if chunks[i].Path == opts.SourcePath {
			// the no-reencode fast path references the original file in
			// place; there is nothing session-scoped to upload separately.
			continue
		}
		f, err := os.Open(chunks[i].Path)
		if err != nil {
			return nil, synerr.Wrap(synerr.InternalInvariantViolated, err, "open chunk for upload")
		}
		blobPath := blobstore.SessionChunkPath(opts.SessionID, i, trimDot(filepath.Ext(chunks[i].Path)))
		err = c.BlobStore.Put(ctx, blobPath, f)
		f.Close()
		if err != nil {
			return nil, synerr.Wrap(synerr.InternalInvariantViolated, err, "upload chunk to blob store")
		}
		os.Remove(chunks[i].Path)
		chunks[i].Path = blobPath
		chunks[i].InBlobStore = true
	}
	_ = ext
	return chunks, nil
}

func trimDot(ext string) string {
	if len(ext) > 0 && ext[0] == '.' {
		return ext[1:]
	}
	return ext
}

// ExtractWindow pulls a single [startSec, startSec+durationSec) window of
// audio out of sourcePath into outPath, re-encoding to MP3 only if format
// is one the transcription provider rejects outright. It is used for the
// progressive pipeline's initial alignment probe and for syncWordChunk's
// per-chunk audio extraction, neither of which goes through
// the segment muxer that Chunk uses for the full-book pipeline.
func ExtractWindow(ctx context.Context, sourcePath, outPath string, startSec, durationSec float64, format types.AudioFormat) error {
	reencode := needsReencode(string(format))
	timeout := segmentTimeout(durationSec, reencode)
	return extractFixedWindow(ctx, sourcePath, outPath, startSec, durationSec, reencode, timeout)
}

// Cleanup idempotently releases a session's chunks, wherever they live,
// and removes its scratch working directory.
func Cleanup(ctx context.Context, store blobstore.Store, workDir string, chunks []types.AudioChunk) error {
	for _, ch := range chunks {
		if ch.InBlobStore && store != nil {
			if err := store.Delete(ctx, ch.Path); err != nil {
				return fmt.Errorf("delete chunk %s from blob store: %w", ch.Path, err)
			}
			continue
		}
		if err := os.Remove(ch.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove local chunk %s: %w", ch.Path, err)
		}
	}
	if workDir == "" {
		return nil
	}
	return os.RemoveAll(workDir)
}
