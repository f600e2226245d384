package service

import (
	"fmt"
	"unicode"

	"github.com/brandforge-ai/brandforge/internal/domain"
)

// SegmentConfig controls how raw source text is split into chunks.
type SegmentConfig struct {
	// Target chunk size, in words. A chunk is force-broken once it
	// reaches MaxWords.
	MinWords int
	MaxWords int
	// OverlapChars is the fixed number of characters carried over
	// from the end of one chunk into the start of the next.
	OverlapChars int
	// BoundaryRatio is the fraction of MaxWords after which a
	// paragraph or sentence break is accepted.
	BoundaryRatio float64
}

// DefaultSegmentConfig provides sane defaults for segmentation.
func DefaultSegmentConfig() SegmentConfig {
	return SegmentConfig{
		MinWords:      200,
		MaxWords:      500,
		OverlapChars:  200,
		BoundaryRatio: 0.7,
	}
}

// Segmenter splits raw text into ordered, semantically coherent
// chunks. Segmentation is a pure function of its input: the same text
// and config always produce the same chunks, with deterministic ids,
// so an interrupted run can simply start over.
type Segmenter struct {
	cfg SegmentConfig
}

// NewSegmenter creates a new Segmenter instance
func NewSegmenter(cfg SegmentConfig) *Segmenter {
	if cfg.MaxWords <= 0 {
		cfg = DefaultSegmentConfig()
	}
	if cfg.MinWords <= 0 || cfg.MinWords > cfg.MaxWords {
		cfg.MinWords = cfg.MaxWords / 2
	}
	if cfg.BoundaryRatio <= 0 || cfg.BoundaryRatio >= 1 {
		cfg.BoundaryRatio = 0.7
	}
	if cfg.OverlapChars < 0 {
		cfg.OverlapChars = 0
	}
	return &Segmenter{cfg: cfg}
}

// Segment splits text into ordered chunks for the given source.
// Chunks are exact substrings of the input: concatenating them, minus
// the configured overlap, reconstructs the source losslessly. Breaks
// prefer paragraph boundaries, then sentence boundaries; a boundary
// is accepted only past BoundaryRatio of the hard word limit,
// otherwise the chunk is force-broken at the limit.
func (s *Segmenter) Segment(sourceID, text string) ([]domain.Chunk, error) {
	runes := []rune(text)
	if isBlank(runes) {
		return nil, domain.ErrEmptySourceText
	}

	var chunks []domain.Chunk
	start := 0
	for start < len(runes) {
		end := s.chunkEnd(runes, start)
		if end <= start {
			break
		}

		chunks = append(chunks, domain.Chunk{
			ID:       fmt.Sprintf("%s-%d", sourceID, len(chunks)),
			SourceID: sourceID,
			Text:     string(runes[start:end]),
			Sequence: len(chunks),
		})

		if end >= len(runes) {
			break
		}

		nextStart := end
		if s.cfg.OverlapChars > 0 && end-start > s.cfg.OverlapChars {
			nextStart = end - s.cfg.OverlapChars
		}
		if nextStart <= start {
			nextStart = end
		}
		start = nextStart
	}

	return chunks, nil
}

// chunkEnd finds the end index for a chunk starting at start.
func (s *Segmenter) chunkEnd(runes []rune, start int) int {
	hardEnd := indexAfterWords(runes, start, s.cfg.MaxWords)
	if hardEnd >= len(runes) {
		return len(runes)
	}

	minWords := int(float64(s.cfg.MaxWords) * s.cfg.BoundaryRatio)
	minEnd := indexAfterWords(runes, start, minWords)
	if minEnd > hardEnd {
		minEnd = start
	}

	if cut := lastBoundary(runes, minEnd, hardEnd, isParagraphBreak); cut > 0 {
		return cut
	}
	if cut := lastBoundary(runes, minEnd, hardEnd, isSentenceBreak); cut > 0 {
		return cut
	}
	return hardEnd
}

// indexAfterWords returns the rune index just past the nth word
// following start, including any trailing whitespace run, or
// len(runes) when the text runs out first.
func indexAfterWords(runes []rune, start, n int) int {
	words := 0
	inWord := false
	for i := start; i < len(runes); i++ {
		if unicode.IsSpace(runes[i]) {
			if inWord {
				words++
				inWord = false
			}
			continue
		}
		if !inWord && words >= n {
			return i
		}
		inWord = true
	}
	return len(runes)
}

type boundaryFunc func(runes []rune, i int) bool

// lastBoundary scans backward from end to min looking for a break
// point; returns 0 when none is found.
func lastBoundary(runes []rune, min, end int, isBreak boundaryFunc) int {
	for i := end; i > min; i-- {
		if isBreak(runes, i) {
			return i
		}
	}
	return 0
}

// isParagraphBreak reports whether position i sits just after a blank
// line.
func isParagraphBreak(runes []rune, i int) bool {
	seen := 0
	for j := i - 1; j >= 0 && unicode.IsSpace(runes[j]); j-- {
		if runes[j] == '\n' {
			seen++
			if seen >= 2 {
				return true
			}
		}
	}
	return false
}

// isSentenceBreak reports whether position i sits just after sentence
// punctuation followed by whitespace.
func isSentenceBreak(runes []rune, i int) bool {
	if i < 2 || i > len(runes) {
		return false
	}
	if !unicode.IsSpace(runes[i-1]) {
		return false
	}
	switch runes[i-2] {
	case '.', '!', '?':
		return true
	default:
		return false
	}
}

func isBlank(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
