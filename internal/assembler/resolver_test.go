package assembler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidai/vidai/internal/models"
)

type searchCall struct {
	query       string
	count       int
	preferVideo bool
}

// fakeSearcher records calls and answers via the respond func. Safe for
// concurrent use because the resolver fetches keywords in parallel.
type fakeSearcher struct {
	mu      sync.Mutex
	calls   []searchCall
	respond func(query string, count int, preferVideo bool) ([]models.MediaAsset, error)
}

func (f *fakeSearcher) Search(ctx context.Context, query string, count int, preferVideo bool) ([]models.MediaAsset, error) {
	f.mu.Lock()
	f.calls = append(f.calls, searchCall{query, count, preferVideo})
	f.mu.Unlock()
	return f.respond(query, count, preferVideo)
}

func (f *fakeSearcher) queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	qs := make([]string, len(f.calls))
	for i, c := range f.calls {
		qs[i] = c.query
	}
	return qs
}

func imageFor(query string) models.MediaAsset {
	return models.MediaAsset{Kind: models.MediaKindImage, Path: "/assets/" + query + ".jpg", Query: query}
}

func imagesFor(query string, count int) []models.MediaAsset {
	assets := make([]models.MediaAsset, count)
	for i := range assets {
		assets[i] = imageFor(query)
	}
	return assets
}

func TestResolveOneAssetPerKeyword(t *testing.T) {
	searcher := &fakeSearcher{
		respond: func(query string, count int, preferVideo bool) ([]models.MediaAsset, error) {
			return imagesFor(query, count), nil
		},
	}

	assets, err := NewResolver(searcher, false).Resolve(context.Background(), []string{"sun", "solar system"}, "astronomy", 2)
	require.NoError(t, err)
	require.Len(t, assets, 2)

	assert.Equal(t, "sun", assets[0].Query)
	assert.Equal(t, "solar system", assets[1].Query)
	assert.NotContains(t, searcher.queries(), "astronomy", "topic fallback should not fire when keywords cover the target")
}

func TestResolveTopicTopUp(t *testing.T) {
	searcher := &fakeSearcher{
		respond: func(query string, count int, preferVideo bool) ([]models.MediaAsset, error) {
			return imagesFor(query, count), nil
		},
	}

	assets, err := NewResolver(searcher, false).Resolve(context.Background(), []string{"parliament"}, "indian history", 3)
	require.NoError(t, err)
	require.Len(t, assets, 3)

	assert.Equal(t, "parliament", assets[0].Query)
	assert.Equal(t, "indian history", assets[1].Query)
	assert.Equal(t, "indian history", assets[2].Query)

	// The top-up is one request for the full shortfall
	var topUp *searchCall
	for i := range searcher.calls {
		if searcher.calls[i].query == "indian history" {
			topUp = &searcher.calls[i]
		}
	}
	require.NotNil(t, topUp)
	assert.Equal(t, 2, topUp.count)
}

func TestResolveEmptySlotShortensSequence(t *testing.T) {
	searcher := &fakeSearcher{
		respond: func(query string, count int, preferVideo bool) ([]models.MediaAsset, error) {
			if query == "nothing here" {
				return nil, nil
			}
			return imagesFor(query, count), nil
		},
	}

	assets, err := NewResolver(searcher, false).Resolve(context.Background(), []string{"nothing here", "castle"}, "topic", 2)
	require.NoError(t, err)
	require.Len(t, assets, 2)

	// The empty slot is absent, not padded; the topic fills the gap after it
	assert.Equal(t, "castle", assets[0].Query)
	assert.Equal(t, "topic", assets[1].Query)
}

func TestResolveTruncatesSurplus(t *testing.T) {
	searcher := &fakeSearcher{
		respond: func(query string, count int, preferVideo bool) ([]models.MediaAsset, error) {
			return imagesFor(query, count), nil
		},
	}

	assets, err := NewResolver(searcher, false).Resolve(context.Background(), []string{"a", "b", "c"}, "topic", 2)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "a", assets[0].Query)
	assert.Equal(t, "b", assets[1].Query)
}

func TestResolvePreservesKeywordOrder(t *testing.T) {
	// The first keyword answers slowest; order must still hold.
	searcher := &fakeSearcher{
		respond: func(query string, count int, preferVideo bool) ([]models.MediaAsset, error) {
			if query == "slow" {
				time.Sleep(50 * time.Millisecond)
			}
			return imagesFor(query, count), nil
		},
	}

	assets, err := NewResolver(searcher, false).Resolve(context.Background(), []string{"slow", "fast", "faster"}, "topic", 3)
	require.NoError(t, err)
	require.Len(t, assets, 3)
	assert.Equal(t, "slow", assets[0].Query)
	assert.Equal(t, "fast", assets[1].Query)
	assert.Equal(t, "faster", assets[2].Query)
}

func TestResolveImagesOnlyRetryAfterVideoError(t *testing.T) {
	searcher := &fakeSearcher{
		respond: func(query string, count int, preferVideo bool) ([]models.MediaAsset, error) {
			if preferVideo {
				return nil, assert.AnError
			}
			return imagesFor(query, count), nil
		},
	}

	assets, err := NewResolver(searcher, true).Resolve(context.Background(), []string{"volcano"}, "topic", 1)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, models.MediaKindImage, assets[0].Kind)

	require.Len(t, searcher.calls, 2)
	assert.True(t, searcher.calls[0].preferVideo)
	assert.False(t, searcher.calls[1].preferVideo)
}

func TestResolveZeroAssetsIsFatal(t *testing.T) {
	searcher := &fakeSearcher{
		respond: func(query string, count int, preferVideo bool) ([]models.MediaAsset, error) {
			return nil, nil
		},
	}

	_, err := NewResolver(searcher, false).Resolve(context.Background(), []string{"a", "b"}, "topic", 2)
	assert.ErrorIs(t, err, ErrNoAssets)
}
