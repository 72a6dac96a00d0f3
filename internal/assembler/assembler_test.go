package assembler

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidai/vidai/internal/models"
	"github.com/vidai/vidai/internal/script"
)

func TestSegmentDurationsUniform(t *testing.T) {
	assert.Equal(t, []float64{5, 5}, SegmentDurations(10, 2))
	assert.Equal(t, []float64{3, 3, 3}, SegmentDurations(9, 3))
}

func TestSegmentDurationsSumExact(t *testing.T) {
	cases := []struct {
		audioDur float64
		count    int
	}{
		{10, 2},
		{9, 3},
		{10, 3},
		{61.37, 7},
		{0.5, 4},
	}
	for _, c := range cases {
		durations := SegmentDurations(c.audioDur, c.count)
		require.Len(t, durations, c.count)

		var sum float64
		for _, d := range durations {
			sum += d
		}
		assert.InDelta(t, c.audioDur, sum, 1e-9, "sum for %v/%d", c.audioDur, c.count)
	}
}

func TestSegmentDurationsLastAbsorbsRounding(t *testing.T) {
	durations := SegmentDurations(10, 3)
	assert.InDelta(t, 10.0/3.0, durations[0], 1e-9)
	assert.InDelta(t, 10.0/3.0, durations[1], 1e-9)
	assert.InDelta(t, 10-2*(10.0/3.0), durations[2], 1e-9)
}

func TestOutputFilename(t *testing.T) {
	assert.Equal(t, "Solar_System_video.mp4", OutputFilename("Solar System"))
	assert.Equal(t, "history_of_the_internet_video.mp4", OutputFilename("  history of the internet "))
}

// Two sentences under the word cap, two keywords, 10 seconds of audio:
// two chunks, two 5s segments, one asset per keyword with no topic
// fallback.
func TestTwoSentenceTwoKeywordScenario(t *testing.T) {
	narration := "The sun is a star. It provides light and heat."
	chunks := script.Chunks(narration, script.DefaultWordCap)
	require.Len(t, chunks, 2)

	durations := SegmentDurations(10, len(chunks))
	assert.Equal(t, []float64{5, 5}, durations)

	searcher := &fakeSearcher{
		respond: func(query string, count int, preferVideo bool) ([]models.MediaAsset, error) {
			return imagesFor(query, count), nil
		},
	}
	assets, err := NewResolver(searcher, false).Resolve(context.Background(),
		script.Keywords("[sun] [solar system]"), "the sun", len(chunks))
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "sun", assets[0].Query)
	assert.Equal(t, "solar system", assets[1].Query)
	assert.NotContains(t, searcher.queries(), "the sun")
}

// Three sentences but only one keyword and 9 seconds of audio: one
// keyword asset plus two topic fallbacks, three 3s segments.
func TestThreeSentenceOneKeywordScenario(t *testing.T) {
	narration := "Rome was not built in a day. Its empire lasted centuries. Its roads remain."
	chunks := script.Chunks(narration, script.DefaultWordCap)
	require.Len(t, chunks, 3)

	durations := SegmentDurations(9, len(chunks))
	var sum float64
	for _, d := range durations {
		sum += d
		assert.InDelta(t, 3.0, d, 1e-9)
	}
	assert.InDelta(t, 9.0, sum, 1e-9)

	searcher := &fakeSearcher{
		respond: func(query string, count int, preferVideo bool) ([]models.MediaAsset, error) {
			return imagesFor(query, count), nil
		},
	}
	assets, err := NewResolver(searcher, false).Resolve(context.Background(),
		script.Keywords("[colosseum]"), "ancient rome", len(chunks))
	require.NoError(t, err)
	require.Len(t, assets, 3)
	assert.Equal(t, "colosseum", assets[0].Query)
	assert.Equal(t, "ancient rome", assets[1].Query)
	assert.Equal(t, "ancient rome", assets[2].Query)
}

func TestSegmentCountMatchesChunkCount(t *testing.T) {
	narration := "One. Two. Three. Four."
	chunks := script.Chunks(narration, script.DefaultWordCap)
	durations := SegmentDurations(12.34, len(chunks))
	assert.Equal(t, len(chunks), len(durations))

	total := 0.0
	for _, d := range durations {
		total += d
	}
	assert.True(t, math.Abs(total-12.34) < 0.01, "10ms tolerance")
}
