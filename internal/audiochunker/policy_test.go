package audiochunker

import "testing"

func TestNeedsReencode(t *testing.T) {
	cases := map[string]bool{
		"mp3": false,
		"m4a": false,
		"wav": false,
		"ogg": false,
		"m4b": true,
	}
	for format, want := range cases {
		if got := needsReencode(format); got != want {
			t.Errorf("needsReencode(%q) = %v, want %v", format, got, want)
		}
	}
}

func TestChunkDurationSecClamps(t *testing.T) {
	d := chunkDurationSec(24<<20, 1<<20, 60, 600) // 24 MiB chunk, 1 MiB/s -> 24s, clamped to 60
	if d != 60 {
		t.Errorf("expected clamp to min 60, got %v", d)
	}

	d = chunkDurationSec(24<<20, 1000, 60, 600) // tiny bitrate -> huge duration, clamped to 600
	if d != 600 {
		t.Errorf("expected clamp to max 600, got %v", d)
	}
}

func TestChunkDurationSecZeroBytesPerSecondFallsBackToMax(t *testing.T) {
	if d := chunkDurationSec(24<<20, 0, 60, 600); d != 600 {
		t.Errorf("expected fallback to max, got %v", d)
	}
}

func TestSegmentBoundariesAppliesFirstChunkCap(t *testing.T) {
	bounds := segmentBoundaries(500, 100, 30)
	want := []float64{30, 130, 230, 330, 430}
	if len(bounds) != len(want) {
		t.Fatalf("got %v bounds, want %v", bounds, want)
	}
	for i := range want {
		if bounds[i] != want[i] {
			t.Errorf("bound %d = %v, want %v", i, bounds[i], want[i])
		}
	}
}

func TestSegmentBoundariesNoCapWhenZero(t *testing.T) {
	bounds := segmentBoundaries(250, 100, 0)
	want := []float64{100, 200}
	if len(bounds) != len(want) {
		t.Fatalf("got %v, want %v", bounds, want)
	}
}
