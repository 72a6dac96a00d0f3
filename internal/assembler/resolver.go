package assembler

import (
	"context"
	"errors"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/vidai/vidai/internal/models"
)

// Fatal-input conditions. Degraded segments are logged and rendered
// with fallbacks; only these abort a whole run.
var (
	ErrEmptyNarration = errors.New("narration text produced zero subtitle chunks")
	ErrNoAssets       = errors.New("no visual assets could be resolved")
)

// Searcher is the media-search collaborator: returns up to count assets
// for a query, in provider order, possibly fewer or none.
type Searcher interface {
	Search(ctx context.Context, query string, count int, preferVideo bool) ([]models.MediaAsset, error)
}

// Resolver turns the ordered keyword list into exactly target assets:
// one search per keyword, topic-query top-up for any shortfall, then
// truncation of surplus.
type Resolver struct {
	searcher    Searcher
	preferVideo bool

	// maxParallelFetches bounds concurrent keyword searches.
	maxParallelFetches int
}

func NewResolver(searcher Searcher, preferVideo bool) *Resolver {
	return &Resolver{
		searcher:           searcher,
		preferVideo:        preferVideo,
		maxParallelFetches: 4,
	}
}

// Resolve fetches assets for keywords concurrently, preserving keyword
// order in the result regardless of completion order. A keyword whose
// search yields nothing leaves no slot (the sequence just shortens);
// the topic query then tops the sequence up toward target. Zero assets
// overall is fatal.
func (r *Resolver) Resolve(ctx context.Context, keywords []string, topic string, target int) ([]models.MediaAsset, error) {
	if target <= 0 {
		return nil, ErrNoAssets
	}

	// Indexed slice keeps results in keyword order.
	slots := make([][]models.MediaAsset, len(keywords))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxParallelFetches)
	for i, keyword := range keywords {
		i, keyword := i, keyword
		g.Go(func() error {
			slots[i] = r.searchWithFallback(gctx, keyword, 1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var assets []models.MediaAsset
	for _, slot := range slots {
		assets = append(assets, slot...)
	}

	if shortfall := target - len(assets); shortfall > 0 {
		log.Printf("[Resolver] %d keyword assets for target %d, topping up %d from topic %q",
			len(assets), target, shortfall, topic)
		assets = append(assets, r.searchWithFallback(ctx, topic, shortfall)...)
	}

	if len(assets) > target {
		assets = assets[:target]
	}
	if len(assets) == 0 {
		return nil, ErrNoAssets
	}
	return assets, nil
}

// searchWithFallback runs one query, retrying with images only when the
// preferred search errors. An empty result is returned as-is; the
// caller treats missing slots as shortfall, not failure.
func (r *Resolver) searchWithFallback(ctx context.Context, query string, count int) []models.MediaAsset {
	assets, err := r.searcher.Search(ctx, query, count, r.preferVideo)
	if err == nil {
		return assets
	}
	log.Printf("[Resolver] Search for %q failed (%v), retrying images only", query, err)

	assets, err = r.searcher.Search(ctx, query, count, false)
	if err != nil {
		log.Printf("[Resolver] Image-only search for %q failed too: %v", query, err)
		return nil
	}
	return assets
}
