package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/brandforge-ai/brandforge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleText(paragraphs, sentencesPer int) string {
	var b strings.Builder
	for p := 0; p < paragraphs; p++ {
		for s := 0; s < sentencesPer; s++ {
			fmt.Fprintf(&b, "Paragraph %d sentence %d talks about the brand voice and the product story. ", p, s)
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func TestSegment_EmptyInput(t *testing.T) {
	seg := NewSegmenter(DefaultSegmentConfig())

	_, err := seg.Segment("src1", "")
	assert.ErrorIs(t, err, domain.ErrEmptySourceText)

	_, err = seg.Segment("src1", "   \n\t  ")
	assert.ErrorIs(t, err, domain.ErrEmptySourceText)
}

func TestSegment_ShortTextSingleChunk(t *testing.T) {
	seg := NewSegmenter(DefaultSegmentConfig())
	text := "A short brand statement that fits in one chunk."

	chunks, err := seg.Segment("src1", text)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, "src1", chunks[0].SourceID)
	assert.Equal(t, 0, chunks[0].Sequence)
}

func TestSegment_RoundTripWithoutOverlap(t *testing.T) {
	cfg := SegmentConfig{MinWords: 20, MaxWords: 50, OverlapChars: 0, BoundaryRatio: 0.7}
	seg := NewSegmenter(cfg)
	text := sampleText(8, 6)

	chunks, err := seg.Segment("src1", text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
	}
	assert.Equal(t, text, b.String())
}

func TestSegment_RoundTripWithOverlap(t *testing.T) {
	cfg := SegmentConfig{MinWords: 20, MaxWords: 50, OverlapChars: 40, BoundaryRatio: 0.7}
	seg := NewSegmenter(cfg)
	text := sampleText(8, 6)

	chunks, err := seg.Segment("src1", text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	var b strings.Builder
	b.WriteString(chunks[0].Text)
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		cur := []rune(chunks[i].Text)
		if len(prev) > cfg.OverlapChars {
			// Adjacent chunks share the configured overlap.
			assert.Equal(t, string(prev[len(prev)-cfg.OverlapChars:]), string(cur[:cfg.OverlapChars]))
			b.WriteString(string(cur[cfg.OverlapChars:]))
		} else {
			b.WriteString(chunks[i].Text)
		}
	}
	assert.Equal(t, text, b.String())
}

func TestSegment_ChunkWordBounds(t *testing.T) {
	cfg := SegmentConfig{MinWords: 200, MaxWords: 500, OverlapChars: 0, BoundaryRatio: 0.7}
	seg := NewSegmenter(cfg)
	text := sampleText(40, 12)

	chunks, err := seg.Segment("src1", text)
	require.NoError(t, err)

	for _, c := range chunks {
		words := len(strings.Fields(c.Text))
		assert.LessOrEqual(t, words, cfg.MaxWords, "chunk %d exceeds hard word limit", c.Sequence)
		assert.NotEmpty(t, strings.TrimSpace(c.Text), "chunk %d is blank", c.Sequence)
	}
}

func TestSegment_PrefersSentenceBoundary(t *testing.T) {
	cfg := SegmentConfig{MinWords: 10, MaxWords: 20, OverlapChars: 0, BoundaryRatio: 0.7}
	seg := NewSegmenter(cfg)

	// One long run of sentences with no paragraph breaks.
	text := strings.Repeat("Every sentence here is exactly seven words long. ", 20)

	chunks, err := seg.Segment("src1", text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks[:len(chunks)-1] {
		trimmed := strings.TrimRight(c.Text, " \n")
		assert.True(t, strings.HasSuffix(trimmed, "."),
			"chunk %d should end at a sentence boundary, got %q", c.Sequence, trimmed[len(trimmed)-10:])
	}
}

func TestSegment_ForceBreakWithoutBoundaries(t *testing.T) {
	cfg := SegmentConfig{MinWords: 10, MaxWords: 20, OverlapChars: 0, BoundaryRatio: 0.7}
	seg := NewSegmenter(cfg)

	// No sentence punctuation anywhere: force-break at the hard limit.
	text := strings.Repeat("word ", 100)

	chunks, err := seg.Segment("src1", text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.LessOrEqual(t, len(strings.Fields(c.Text)), cfg.MaxWords)
	}
}

func TestSegment_DeterministicIDs(t *testing.T) {
	seg := NewSegmenter(SegmentConfig{MinWords: 10, MaxWords: 20, OverlapChars: 10, BoundaryRatio: 0.7})
	text := sampleText(5, 4)

	first, err := seg.Segment("src1", text)
	require.NoError(t, err)
	second, err := seg.Segment("src1", text)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, fmt.Sprintf("src1-%d", i), first[i].ID)
		assert.Equal(t, first[i].Text, second[i].Text)
	}
}
