package assembler

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"

	"github.com/vidai/vidai/internal/models"
	"github.com/vidai/vidai/internal/services"
)

// Normalizer turns one segment's asset into a rendered clip of exactly
// the segment's duration, applying the orientation and duration rules
// for videos and the pan/zoom animation for images.
//
// Rendering walks an ordered list of fallback strategies; every
// strategy after the first marks the segment degraded, and the final
// black-frame strategy guarantees the timeline is never shorter than
// the audio.
type Normalizer struct {
	ffmpeg   *services.FFmpegService
	searcher Searcher
	rng      *rand.Rand
}

func NewNormalizer(ffmpeg *services.FFmpegService, searcher Searcher, rng *rand.Rand) *Normalizer {
	return &Normalizer{ffmpeg: ffmpeg, searcher: searcher, rng: rng}
}

// TrimWindow picks a uniformly random start offset for extracting a
// segment-length window from a longer source video.
func TrimWindow(rng *rand.Rand, sourceDurationSec, segmentDurationSec float64) float64 {
	headroom := sourceDurationSec - segmentDurationSec
	if headroom <= 0 {
		return 0
	}
	return rng.Float64() * headroom
}

// LoopCount returns how many extra forward repeats a short source video
// needs to cover the segment duration. Zero means the source already
// covers it.
func LoopCount(sourceDurationSec, segmentDurationSec float64) int {
	if sourceDurationSec <= 0 || sourceDurationSec >= segmentDurationSec {
		return 0
	}
	return int(math.Ceil(segmentDurationSec/sourceDurationSec)) - 1
}

// NormalizeOrientation enforces the landscape rule on video assets:
// a portrait clip is swapped for a replacement image found via the
// segment's keyword, then the topic. When no replacement can be found
// the portrait video stays, flagged degraded, and is later rendered as
// a plain centered clip without animation.
func (n *Normalizer) NormalizeOrientation(ctx context.Context, seg *models.Segment, topic string) {
	if !seg.Asset.Portrait() {
		return
	}
	log.Printf("[Normalizer] Segment %d: portrait video (%dx%d), seeking replacement image",
		seg.Index, seg.Asset.Width, seg.Asset.Height)

	for _, query := range replacementQueries(seg.Asset.Query, topic) {
		if image, ok := n.fetchImage(ctx, query); ok {
			seg.Asset = image
			return
		}
	}

	log.Printf("[Normalizer] Segment %d: no replacement image, keeping portrait clip degraded", seg.Index)
	seg.Degraded = true
}

// RenderSegmentClip renders the segment's visual into clipPath. The
// strategies run in order; the first success wins, and any strategy
// past the primary one marks the segment degraded.
func (n *Normalizer) RenderSegmentClip(ctx context.Context, seg *models.Segment, topic, clipPath string) error {
	strategies := []struct {
		name   string
		render func() error
	}{
		{"primary", func() error { return n.renderPrimary(ctx, seg, clipPath) }},
		{"image substitution", func() error { return n.renderSubstituteImage(ctx, seg, topic, clipPath) }},
		{"static fallback", func() error { return n.renderStatic(ctx, seg, clipPath) }},
		{"black frame", func() error { return n.ffmpeg.RenderBlackClip(ctx, clipPath, seg.DurationSec) }},
	}

	for i, strategy := range strategies {
		err := strategy.render()
		if err == nil {
			if i > 0 {
				seg.Degraded = true
			}
			return nil
		}
		log.Printf("[Normalizer] Segment %d: %s render failed: %v", seg.Index, strategy.name, err)
	}
	return fmt.Errorf("segment %d: all render strategies failed", seg.Index)
}

// renderPrimary renders the asset the resolver picked: pan/zoom for an
// image, trim or loop to segment length for a landscape video, plain
// centered clip for a portrait video kept in degraded mode.
func (n *Normalizer) renderPrimary(ctx context.Context, seg *models.Segment, clipPath string) error {
	switch seg.Asset.Kind {
	case models.MediaKindImage:
		params := services.DrawKenBurns(n.rng)
		return n.ffmpeg.RenderKenBurnsClip(ctx, seg.Asset.Path, clipPath, params, seg.DurationSec)

	case models.MediaKindVideo:
		if seg.Asset.Portrait() {
			return n.ffmpeg.RenderStaticClip(ctx, seg.Asset.Path, clipPath, seg.DurationSec, false)
		}

		sourceDur := seg.Asset.DurationSec
		if sourceDur <= 0 {
			probed, err := n.ffmpeg.GetMediaDurationSec(ctx, seg.Asset.Path)
			if err != nil {
				return fmt.Errorf("probe video duration: %w", err)
			}
			sourceDur = probed
		}

		trimStart := TrimWindow(n.rng, sourceDur, seg.DurationSec)
		loops := LoopCount(sourceDur, seg.DurationSec)
		return n.ffmpeg.RenderVideoClip(ctx, seg.Asset.Path, clipPath, trimStart, seg.DurationSec, loops)

	default:
		return fmt.Errorf("segment %d has no asset", seg.Index)
	}
}

// renderSubstituteImage fetches a fresh image for the segment's keyword
// (then the topic) and renders it with the pan/zoom animation. Used
// when the primary asset could not be rendered at all.
func (n *Normalizer) renderSubstituteImage(ctx context.Context, seg *models.Segment, topic, clipPath string) error {
	for _, query := range replacementQueries(seg.Asset.Query, topic) {
		image, ok := n.fetchImage(ctx, query)
		if !ok {
			continue
		}
		seg.Asset = image
		params := services.DrawKenBurns(n.rng)
		return n.ffmpeg.RenderKenBurnsClip(ctx, image.Path, clipPath, params, seg.DurationSec)
	}
	return fmt.Errorf("no substitute image found for segment %d", seg.Index)
}

// renderStatic renders whatever asset the segment still holds as a
// plain centered clip without animation.
func (n *Normalizer) renderStatic(ctx context.Context, seg *models.Segment, clipPath string) error {
	if seg.Asset.Path == "" {
		return fmt.Errorf("segment %d has no asset file", seg.Index)
	}
	return n.ffmpeg.RenderStaticClip(ctx, seg.Asset.Path, clipPath, seg.DurationSec, seg.Asset.Kind == models.MediaKindImage)
}

func (n *Normalizer) fetchImage(ctx context.Context, query string) (models.MediaAsset, bool) {
	assets, err := n.searcher.Search(ctx, query, 1, false)
	if err != nil {
		log.Printf("[Normalizer] Replacement image search for %q failed: %v", query, err)
		return models.MediaAsset{}, false
	}
	for _, a := range assets {
		if a.Kind == models.MediaKindImage {
			return a, true
		}
	}
	return models.MediaAsset{}, false
}

// replacementQueries orders the fallback queries for a segment: its own
// keyword first, then the run topic, duplicates removed.
func replacementQueries(keyword, topic string) []string {
	if keyword == "" || keyword == topic {
		return []string{topic}
	}
	return []string{keyword, topic}
}
