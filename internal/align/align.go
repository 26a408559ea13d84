// Package align implements the Fuzzy Aligner: it matches transcription
// fragments against a sliding window of book text to produce raw sync
// anchors.
package align

import (
	"sort"
	"strings"
	"unicode"

	"github.com/xrash/smetrics"

	"github.com/jackzampolin/syncread/internal/types"
)

// Fragment is one piece of transcribed text with its audio timestamp.
type Fragment struct {
	Text      string
	Timestamp float64
}

// Options parameterizes the aligner.
type Options struct {
	WindowWords         int
	StrideWords         int
	SimilarityThreshold float64
	ConfidenceFloor     float64
	MinFragmentChars    int
	MinOverlapChars     int
}

// DefaultOptions returns the aligner's recommended defaults.
func DefaultOptions() Options {
	return Options{
		WindowWords:         50,
		StrideWords:         25,
		SimilarityThreshold: 0.4,
		ConfidenceFloor:     0.5,
		MinFragmentChars:    10,
		MinOverlapChars:     10,
	}
}

type window struct {
	text   string
	offset int
}

type wordSpan struct {
	start, end int
}

// wordSpans splits text into whitespace-delimited word spans, recording
// each word's byte offsets so window boundaries can be mapped back to
// character positions.
func wordSpans(text string) []wordSpan {
	var spans []wordSpan
	inWord := false
	start := 0
	for i, r := range text {
		if unicode.IsSpace(r) {
			if inWord {
				spans = append(spans, wordSpan{start, i})
				inWord = false
			}
			continue
		}
		if !inWord {
			start = i
			inWord = true
		}
	}
	if inWord {
		spans = append(spans, wordSpan{start, len(text)})
	}
	return spans
}

func buildWindows(text string, windowWords, strideWords int) []window {
	words := wordSpans(text)
	if len(words) == 0 {
		return nil
	}
	var windows []window
	for i := 0; i < len(words); i += strideWords {
		end := i + windowWords
		if end > len(words) {
			end = len(words)
		}
		windows = append(windows, window{
			text:   text[words[i].start:words[end-1].end],
			offset: words[i].start,
		})
		if end == len(words) {
			break
		}
	}
	return windows
}

// normalizedEditDistance returns the Wagner-Fischer edit distance between
// a and b, normalized to [0,1] by the longer string's rune length.
func normalizedEditDistance(a, b string) float64 {
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	dist := smetrics.WagnerFischer(a, b, 1, 1, 1)
	return float64(dist) / float64(maxLen)
}

// Align matches each fragment against a sliding window over bookText and
// returns raw anchors sorted by audio time. Given identical
// inputs, Align returns identical anchors.
func Align(bookText string, fragments []Fragment, opts Options) []types.Anchor {
	windows := buildWindows(bookText, opts.WindowWords, opts.StrideWords)
	if len(windows) == 0 {
		return nil
	}

	var anchors []types.Anchor
	for _, f := range fragments {
		trimmed := strings.TrimSpace(f.Text)
		if len(trimmed) < opts.MinFragmentChars {
			continue
		}

		bestScore := 2.0 // worse than any normalized distance in [0,1]
		bestOffset := -1
		for _, w := range windows {
			if min(len([]rune(trimmed)), len([]rune(w.text))) < opts.MinOverlapChars {
				continue
			}
			score := normalizedEditDistance(trimmed, w.text)
			if score < bestScore {
				bestScore = score
				bestOffset = w.offset
			}
		}
		if bestOffset < 0 || bestScore > opts.SimilarityThreshold {
			continue
		}

		confidence := 1 - bestScore
		if confidence <= opts.ConfidenceFloor {
			continue
		}

		anchors = append(anchors, types.Anchor{
			AudioTimeSec: f.Timestamp,
			CharIndex:    bestOffset,
			Confidence:   confidence,
		})
	}

	sort.SliceStable(anchors, func(i, j int) bool {
		return anchors[i].AudioTimeSec < anchors[j].AudioTimeSec
	})
	return anchors
}
