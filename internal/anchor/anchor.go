// Package anchor implements the Anchor Calculator/Interpolator: it turns
// a raw anchor set into a monotone sync curve and answers "given audio
// time t, what text position?".
package anchor

import (
	"math"
	"sort"

	"github.com/jackzampolin/syncread/internal/types"
)

// Options parameterizes the calculator.
type Options struct {
	MinGapSec   float64
	MinGapChars int
}

// DefaultOptions returns the calculator's recommended defaults.
func DefaultOptions() Options {
	return Options{MinGapSec: 30, MinGapChars: 500}
}

// Calculate greedily accepts the highest-confidence anchors that are
// mutually well-separated, then synthesizes start/end endpoints so the
// curve spans the whole recording.
func Calculate(raw []types.Anchor, totalDuration float64, totalTextLength int, opts Options) []types.Anchor {
	if len(raw) == 0 {
		return synthesizeEndpointsOnly(totalDuration, totalTextLength)
	}

	byConfidence := make([]types.Anchor, len(raw))
	copy(byConfidence, raw)
	sort.SliceStable(byConfidence, func(i, j int) bool {
		return byConfidence[i].Confidence > byConfidence[j].Confidence
	})

	var accepted []types.Anchor
	for _, cand := range byConfidence {
		farEnough := true
		for _, a := range accepted {
			if math.Abs(cand.AudioTimeSec-a.AudioTimeSec) < opts.MinGapSec &&
				abs(cand.CharIndex-a.CharIndex) < opts.MinGapChars {
				farEnough = false
				break
			}
		}
		if farEnough {
			accepted = append(accepted, cand)
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].AudioTimeSec < accepted[j].AudioTimeSec
	})

	if len(accepted) > 0 && accepted[0].AudioTimeSec > 5 {
		accepted = append([]types.Anchor{{AudioTimeSec: 0, CharIndex: 0, Confidence: 1}}, accepted...)
	}
	if len(accepted) > 0 && accepted[len(accepted)-1].AudioTimeSec < totalDuration-30 {
		accepted = append(accepted, types.Anchor{
			AudioTimeSec: totalDuration,
			CharIndex:    totalTextLength,
			Confidence:   1,
		})
	}

	return accepted
}

func synthesizeEndpointsOnly(totalDuration float64, totalTextLength int) []types.Anchor {
	return []types.Anchor{
		{AudioTimeSec: 0, CharIndex: 0, Confidence: 1},
		{AudioTimeSec: totalDuration, CharIndex: totalTextLength, Confidence: 1},
	}
}

// PositionFor returns the interpolated character index for audio time t,
// by locating the bracketing anchor pair and linearly interpolating.
// Empty anchors return 0; a single anchor returns its CharIndex; a
// zero-width bracket returns the lower anchor's CharIndex.
func PositionFor(anchors []types.Anchor, t float64) int {
	if len(anchors) == 0 {
		return 0
	}
	if len(anchors) == 1 {
		return anchors[0].CharIndex
	}

	if t <= anchors[0].AudioTimeSec {
		return anchors[0].CharIndex
	}
	if t >= anchors[len(anchors)-1].AudioTimeSec {
		return anchors[len(anchors)-1].CharIndex
	}

	for i := 0; i < len(anchors)-1; i++ {
		a, b := anchors[i], anchors[i+1]
		if t >= a.AudioTimeSec && t <= b.AudioTimeSec {
			if b.AudioTimeSec == a.AudioTimeSec {
				return a.CharIndex
			}
			frac := (t - a.AudioTimeSec) / (b.AudioTimeSec - a.AudioTimeSec)
			return int(math.Round(float64(a.CharIndex) + frac*float64(b.CharIndex-a.CharIndex)))
		}
	}
	return anchors[len(anchors)-1].CharIndex
}

// Merge combines two sorted anchor sets, collapsing any pair within
// (mergeWindowSec, mergeWindowChars) and keeping the higher-confidence
// anchor of the pair, then re-sorting by audio time.
func Merge(a, b []types.Anchor, mergeWindowSec float64, mergeWindowChars int) []types.Anchor {
	combined := make([]types.Anchor, 0, len(a)+len(b))
	combined = append(combined, a...)
	combined = append(combined, b...)
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].AudioTimeSec < combined[j].AudioTimeSec
	})

	var merged []types.Anchor
	for _, cur := range combined {
		collapsed := false
		for i, kept := range merged {
			if math.Abs(cur.AudioTimeSec-kept.AudioTimeSec) < mergeWindowSec &&
				abs(cur.CharIndex-kept.CharIndex) < mergeWindowChars {
				if cur.Confidence > kept.Confidence {
					merged[i] = cur
				}
				collapsed = true
				break
			}
		}
		if !collapsed {
			merged = append(merged, cur)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].AudioTimeSec < merged[j].AudioTimeSec
	})
	return merged
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
