package align

import (
	"testing"
)

const sampleBook = `It was a dark and stormy night when everything changed for good in the small coastal town where nobody expected trouble to arrive so suddenly and without warning of any kind whatsoever. Much later after the storm had finally passed the survivors gathered together near the old lighthouse to count their losses and plan what came next for their shattered community.`

func TestAlignMatchesFragmentToWindow(t *testing.T) {
	fragments := []Fragment{
		{Text: "it was a dark and stormy night when everything changed", Timestamp: 12.5},
	}

	anchors := Align(sampleBook, fragments, DefaultOptions())
	if len(anchors) != 1 {
		t.Fatalf("expected 1 anchor, got %d", len(anchors))
	}
	if anchors[0].AudioTimeSec != 12.5 {
		t.Errorf("AudioTimeSec = %v", anchors[0].AudioTimeSec)
	}
	if anchors[0].CharIndex != 0 {
		t.Errorf("expected match near start of text, got offset %d", anchors[0].CharIndex)
	}
	if anchors[0].Confidence <= DefaultOptions().ConfidenceFloor {
		t.Errorf("confidence %v should clear the floor", anchors[0].Confidence)
	}
}

func TestAlignDropsShortFragments(t *testing.T) {
	fragments := []Fragment{{Text: "ok", Timestamp: 1}}
	if anchors := Align(sampleBook, fragments, DefaultOptions()); anchors != nil {
		t.Errorf("expected no anchors for sub-threshold fragment length, got %v", anchors)
	}
}

func TestAlignDropsUnrelatedFragment(t *testing.T) {
	fragments := []Fragment{
		{Text: "the quick brown fox jumps over the lazy dog repeatedly", Timestamp: 5},
	}
	if anchors := Align(sampleBook, fragments, DefaultOptions()); anchors != nil {
		t.Errorf("expected no anchors for an unrelated fragment, got %v", anchors)
	}
}

func TestAlignSortsByAudioTime(t *testing.T) {
	fragments := []Fragment{
		{Text: "survivors gathered together near the old lighthouse to count", Timestamp: 90},
		{Text: "it was a dark and stormy night when everything changed", Timestamp: 12},
	}
	anchors := Align(sampleBook, fragments, DefaultOptions())
	if len(anchors) != 2 {
		t.Fatalf("expected 2 anchors, got %d", len(anchors))
	}
	if anchors[0].AudioTimeSec > anchors[1].AudioTimeSec {
		t.Errorf("anchors not sorted by audio time: %v", anchors)
	}
}

func TestAlignIsDeterministic(t *testing.T) {
	fragments := []Fragment{
		{Text: "it was a dark and stormy night when everything changed", Timestamp: 12.5},
	}
	first := Align(sampleBook, fragments, DefaultOptions())
	second := Align(sampleBook, fragments, DefaultOptions())
	if len(first) != len(second) || first[0].CharIndex != second[0].CharIndex {
		t.Errorf("expected identical anchors across runs: %v vs %v", first, second)
	}
}
