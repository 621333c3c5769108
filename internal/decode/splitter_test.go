package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSegments(t *testing.T) {
	body := "MOC077-231500-\nSEGMENT ONE\n$$\n\nMOC101-231500-\nSEGMENT TWO\n$$\n\nBARHAM\n"

	segments, trailer := SplitSegments(body)
	require.Len(t, segments, 2)
	assert.Contains(t, segments[0], "SEGMENT ONE")
	assert.Contains(t, segments[1], "SEGMENT TWO")
	assert.Equal(t, "BARHAM", trailer)
}

func TestSplitSegmentsNoTrailer(t *testing.T) {
	segments, trailer := SplitSegments("MOC077-231500-\nSEGMENT ONE\n$$\n")
	require.Len(t, segments, 1)
	assert.Empty(t, trailer)
}

func TestSplitSegmentsNoTerminator(t *testing.T) {
	// Administrative products carry no segments at all.
	segments, trailer := SplitSegments("ADMINISTRATIVE MESSAGE\nNO AREA CONTENT\n")
	assert.Empty(t, segments)
	assert.Empty(t, trailer)
}

func TestSplitSegmentsIgnoresInlineDollars(t *testing.T) {
	// "$$" only terminates when alone on its line.
	segments, _ := SplitSegments("COST WAS $$40\nMORE TEXT\n$$\n")
	require.Len(t, segments, 1)
	assert.Contains(t, segments[0], "COST WAS $$40")
}
