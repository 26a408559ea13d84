package anchor

import (
	"testing"

	"github.com/jackzampolin/syncread/internal/types"
)

func TestCalculateAppliesGreedyGapFilter(t *testing.T) {
	raw := []types.Anchor{
		{AudioTimeSec: 10, CharIndex: 100, Confidence: 0.9},
		{AudioTimeSec: 12, CharIndex: 120, Confidence: 0.6}, // too close to the above, should be dropped
		{AudioTimeSec: 200, CharIndex: 3000, Confidence: 0.8},
	}
	out := Calculate(raw, 1000, 10000, DefaultOptions())

	// The synthetic start (0,0) and end (1000,10000) anchors are added after
	// the gap filter runs, so only the anchors taken from raw are checked.
	var accepted []types.Anchor
	for _, a := range out {
		if a.AudioTimeSec != 0 && a.AudioTimeSec != 1000 {
			accepted = append(accepted, a)
		}
	}
	if len(accepted) != 2 {
		t.Fatalf("expected 2 raw anchors to survive the gap filter, got %v", out)
	}

	var sawClose bool
	for i := 1; i < len(accepted); i++ {
		if accepted[i].AudioTimeSec-accepted[i-1].AudioTimeSec < 30 && abs(accepted[i].CharIndex-accepted[i-1].CharIndex) < 500 {
			sawClose = true
		}
	}
	if sawClose {
		t.Errorf("accepted anchors violate the min-gap invariant: %v", out)
	}
}

func TestCalculatePrependsSyntheticStart(t *testing.T) {
	raw := []types.Anchor{{AudioTimeSec: 50, CharIndex: 500, Confidence: 0.9}}
	out := Calculate(raw, 1000, 10000, DefaultOptions())
	if out[0].AudioTimeSec != 0 || out[0].CharIndex != 0 {
		t.Errorf("expected synthetic (0,0) start, got %v", out[0])
	}
}

func TestCalculateAppendsSyntheticEnd(t *testing.T) {
	raw := []types.Anchor{{AudioTimeSec: 2, CharIndex: 20, Confidence: 0.9}}
	out := Calculate(raw, 1000, 10000, DefaultOptions())
	last := out[len(out)-1]
	if last.AudioTimeSec != 1000 || last.CharIndex != 10000 {
		t.Errorf("expected synthetic end anchor, got %v", last)
	}
}

func TestCalculateEmptyInputYieldsSyntheticEndpointsOnly(t *testing.T) {
	out := Calculate(nil, 500, 5000, DefaultOptions())
	if len(out) != 2 || out[0].CharIndex != 0 || out[1].CharIndex != 5000 {
		t.Errorf("expected only synthetic endpoints, got %v", out)
	}
}

func TestPositionForInterpolatesLinearly(t *testing.T) {
	anchors := []types.Anchor{
		{AudioTimeSec: 0, CharIndex: 0},
		{AudioTimeSec: 10, CharIndex: 100},
	}
	if pos := PositionFor(anchors, 5); pos != 50 {
		t.Errorf("expected midpoint interpolation of 50, got %d", pos)
	}
}

func TestPositionForEmptyIsZero(t *testing.T) {
	if pos := PositionFor(nil, 5); pos != 0 {
		t.Errorf("expected 0 for empty anchors, got %d", pos)
	}
}

func TestPositionForSingleAnchorReturnsItsCharIndex(t *testing.T) {
	anchors := []types.Anchor{{AudioTimeSec: 3, CharIndex: 42}}
	if pos := PositionFor(anchors, 999); pos != 42 {
		t.Errorf("expected 42, got %d", pos)
	}
}

func TestPositionForZeroWidthBracketReturnsLowerCharIndex(t *testing.T) {
	anchors := []types.Anchor{
		{AudioTimeSec: 5, CharIndex: 10},
		{AudioTimeSec: 5, CharIndex: 20},
	}
	if pos := PositionFor(anchors, 5); pos != 10 {
		t.Errorf("expected lower anchor's CharIndex 10, got %d", pos)
	}
}

func TestMergeCollapsesWithinWindowKeepingHigherConfidence(t *testing.T) {
	a := []types.Anchor{{AudioTimeSec: 10, CharIndex: 100, Confidence: 0.6}}
	b := []types.Anchor{{AudioTimeSec: 10.5, CharIndex: 105, Confidence: 0.9}}

	merged := Merge(a, b, 1.0, 10)
	if len(merged) != 1 {
		t.Fatalf("expected collapse to 1 anchor, got %d: %v", len(merged), merged)
	}
	if merged[0].Confidence != 0.9 {
		t.Errorf("expected higher-confidence anchor to win, got %v", merged[0])
	}
}

func TestMergeKeepsDistinctAnchorsSeparate(t *testing.T) {
	a := []types.Anchor{{AudioTimeSec: 1, CharIndex: 10, Confidence: 0.6}}
	b := []types.Anchor{{AudioTimeSec: 100, CharIndex: 2000, Confidence: 0.9}}

	merged := Merge(a, b, 1.0, 10)
	if len(merged) != 2 {
		t.Fatalf("expected 2 distinct anchors, got %d", len(merged))
	}
	if merged[0].AudioTimeSec > merged[1].AudioTimeSec {
		t.Errorf("expected sorted by audio time, got %v", merged)
	}
}
