package assembler

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidai/vidai/internal/models"
	"github.com/vidai/vidai/internal/services"
)

func TestTrimWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 1000; i++ {
		start := TrimWindow(rng, 30, 5)
		if start < 0 || start > 25 {
			t.Fatalf("trim start %.4f outside [0, 25]", start)
		}
	}

	// Source not longer than the segment means no trimming
	assert.Zero(t, TrimWindow(rng, 5, 5))
	assert.Zero(t, TrimWindow(rng, 3, 5))
}

func TestTrimWindowSeeded(t *testing.T) {
	a := TrimWindow(rand.New(rand.NewSource(99)), 30, 5)
	b := TrimWindow(rand.New(rand.NewSource(99)), 30, 5)
	assert.Equal(t, a, b)
}

func TestLoopCount(t *testing.T) {
	cases := []struct {
		sourceDur, segDur float64
		want              int
	}{
		{2, 5, 2},   // 3 plays cover 6s >= 5s
		{2.5, 5, 1}, // 2 plays cover exactly 5s
		{5, 5, 0},
		{6, 5, 0},
		{0, 5, 0}, // unknown source duration, no loop guess
	}
	for _, c := range cases {
		assert.Equal(t, c.want, LoopCount(c.sourceDur, c.segDur), "LoopCount(%v, %v)", c.sourceDur, c.segDur)
	}
}

func portraitSegment() models.Segment {
	return models.Segment{
		Index: 0,
		Asset: models.MediaAsset{
			Kind:        models.MediaKindVideo,
			Path:        "/assets/portrait.mp4",
			Query:       "waterfall",
			Width:       720,
			Height:      1280,
			DurationSec: 12,
		},
		DurationSec: 5,
	}
}

func TestNormalizeOrientationReplacesPortrait(t *testing.T) {
	searcher := &fakeSearcher{
		respond: func(query string, count int, preferVideo bool) ([]models.MediaAsset, error) {
			return imagesFor(query, count), nil
		},
	}
	n := NewNormalizer(services.NewFFmpegService(), searcher, rand.New(rand.NewSource(1)))

	seg := portraitSegment()
	n.NormalizeOrientation(context.Background(), &seg, "nature")

	assert.Equal(t, models.MediaKindImage, seg.Asset.Kind)
	assert.Equal(t, "waterfall", seg.Asset.Query, "keyword takes precedence over topic")
	assert.False(t, seg.Degraded)
}

func TestNormalizeOrientationTopicFallback(t *testing.T) {
	searcher := &fakeSearcher{
		respond: func(query string, count int, preferVideo bool) ([]models.MediaAsset, error) {
			if query == "waterfall" {
				return nil, nil
			}
			return imagesFor(query, count), nil
		},
	}
	n := NewNormalizer(services.NewFFmpegService(), searcher, rand.New(rand.NewSource(1)))

	seg := portraitSegment()
	n.NormalizeOrientation(context.Background(), &seg, "nature")

	assert.Equal(t, models.MediaKindImage, seg.Asset.Kind)
	assert.Equal(t, "nature", seg.Asset.Query)
	assert.Equal(t, []string{"waterfall", "nature"}, searcher.queries())
}

func TestNormalizeOrientationDegradesWithoutReplacement(t *testing.T) {
	searcher := &fakeSearcher{
		respond: func(query string, count int, preferVideo bool) ([]models.MediaAsset, error) {
			return nil, nil
		},
	}
	n := NewNormalizer(services.NewFFmpegService(), searcher, rand.New(rand.NewSource(1)))

	seg := portraitSegment()
	n.NormalizeOrientation(context.Background(), &seg, "nature")

	require.Equal(t, models.MediaKindVideo, seg.Asset.Kind, "portrait video is retained")
	assert.True(t, seg.Degraded)
}

func TestNormalizeOrientationIgnoresLandscape(t *testing.T) {
	searcher := &fakeSearcher{
		respond: func(query string, count int, preferVideo bool) ([]models.MediaAsset, error) {
			t.Fatal("landscape video must not trigger a replacement search")
			return nil, nil
		},
	}
	n := NewNormalizer(services.NewFFmpegService(), searcher, rand.New(rand.NewSource(1)))

	seg := models.Segment{
		Asset:       models.MediaAsset{Kind: models.MediaKindVideo, Width: 1920, Height: 1080},
		DurationSec: 5,
	}
	n.NormalizeOrientation(context.Background(), &seg, "nature")
	assert.False(t, seg.Degraded)
}

func TestReplacementQueries(t *testing.T) {
	assert.Equal(t, []string{"sun", "space"}, replacementQueries("sun", "space"))
	assert.Equal(t, []string{"space"}, replacementQueries("", "space"))
	assert.Equal(t, []string{"space"}, replacementQueries("space", "space"))
}
