package assembler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"path/filepath"
	"strings"

	"github.com/vidai/vidai/internal/models"
	"github.com/vidai/vidai/internal/script"
	"github.com/vidai/vidai/internal/services"
	"github.com/vidai/vidai/internal/storage"
)

// ErrExport marks a failure during or after encoding. The caller keeps
// the run workspace so the run can be retried without re-fetching.
var ErrExport = errors.New("export failed")

// Assembler builds the segment timeline for one run and composites it
// into the final video: chunk the narration, resolve assets, render
// each segment clip, concatenate, burn subtitles, attach the narration
// audio and publish atomically.
type Assembler struct {
	ffmpeg      *services.FFmpegService
	outputDir   string
	wordCap     int
	preferVideo bool
}

func New(ffmpeg *services.FFmpegService, outputDir string, wordCap int, preferVideo bool) *Assembler {
	return &Assembler{
		ffmpeg:      ffmpeg,
		outputDir:   outputDir,
		wordCap:     wordCap,
		preferVideo: preferVideo,
	}
}

// Input carries everything one run needs: the two script halves, the
// narration audio already rendered into the workspace, and the topic
// used for fallback queries and output naming.
type Input struct {
	Topic     string
	Narration string
	VisualCue string
	AudioPath string

	// OnProgress, when set, receives coarse stage updates for this run.
	OnProgress func(message string, percentage int)
}

func (in Input) progress(message string, percentage int) {
	if in.OnProgress != nil {
		in.OnProgress(message, percentage)
	}
	log.Printf("[Assembler] %s (%d%%)", message, percentage)
}

// Assemble runs the full timeline pipeline and returns the path of the
// published video. The workspace is cleaned up on success and retained
// on export failure so a retry can reuse the fetched assets.
func (a *Assembler) Assemble(ctx context.Context, ws *storage.Workspace, searcher Searcher, rng *rand.Rand, in Input) (string, error) {
	chunks := script.Chunks(in.Narration, a.wordCap)
	if len(chunks) == 0 {
		return "", ErrEmptyNarration
	}

	audioDur, err := a.ffmpeg.GetMediaDurationSec(ctx, in.AudioPath)
	if err != nil {
		return "", fmt.Errorf("failed to read narration duration: %w", err)
	}
	if audioDur <= 0 {
		return "", fmt.Errorf("narration audio has no duration")
	}

	durations := SegmentDurations(audioDur, len(chunks))
	keywords := script.Keywords(in.VisualCue)
	log.Printf("[Assembler] %d chunks, %d keywords, %.2fs audio", len(chunks), len(keywords), audioDur)

	in.progress("Searching for visual assets", 55)
	resolver := NewResolver(searcher, a.preferVideo)
	assets, err := resolver.Resolve(ctx, keywords, in.Topic, len(chunks))
	if err != nil {
		return "", fmt.Errorf("asset resolution failed: %w", err)
	}

	// One segment per chunk. Any chunk past the resolved assets gets an
	// empty asset and falls through the normalizer's fallback chain.
	segments := make([]models.Segment, len(chunks))
	for i, text := range chunks {
		segments[i] = models.Segment{
			Index:       i,
			Text:        text,
			DurationSec: durations[i],
		}
		if i < len(assets) {
			segments[i].Asset = assets[i]
		}
	}

	in.progress("Rendering segment clips", 65)
	normalizer := NewNormalizer(a.ffmpeg, searcher, rng)
	clipPaths := make([]string, len(segments))
	for i := range segments {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("run cancelled: %w", err)
		}
		normalizer.NormalizeOrientation(ctx, &segments[i], in.Topic)

		clipPath := ws.ClipPath(fmt.Sprintf("segment_%03d.mp4", i))
		if err := normalizer.RenderSegmentClip(ctx, &segments[i], in.Topic, clipPath); err != nil {
			return "", fmt.Errorf("segment %d render failed: %w", i, err)
		}
		clipPaths[i] = clipPath
	}

	timeline := models.Timeline{
		Topic:            in.Topic,
		Segments:         segments,
		AudioPath:        in.AudioPath,
		AudioDurationSec: audioDur,
	}

	in.progress("Compositing timeline", 80)
	concatPath := ws.TempPath("timeline.mp4")
	if err := a.ffmpeg.ConcatenateClips(ctx, clipPaths, ws.TempPath("concat.txt"), concatPath); err != nil {
		return "", fmt.Errorf("timeline concatenation failed: %w", err)
	}

	subtitlePath := ws.TempPath("subtitles.ass")
	if err := services.GenerateASSSubtitles(timeline.Segments, subtitlePath); err != nil {
		log.Printf("[Assembler] Subtitle generation failed, exporting without subtitles: %v", err)
		subtitlePath = ""
	}

	in.progress("Exporting video", 90)
	renderedPath := ws.TempPath("final.mp4")
	if err := a.ffmpeg.ExportWithAudio(ctx, concatPath, in.AudioPath, subtitlePath, renderedPath); err != nil {
		return "", fmt.Errorf("%w (workspace %s retained): %w", ErrExport, ws.Root(), err)
	}

	filename := OutputFilename(in.Topic)
	outputPath := filepath.Join(a.outputDir, filename)
	if err := storage.Publish(renderedPath, outputPath); err != nil {
		return "", fmt.Errorf("%w: publish (workspace %s retained): %w", ErrExport, ws.Root(), err)
	}

	// Sidecar subtitle file next to the video. Advisory only.
	srtPath := strings.TrimSuffix(outputPath, ".mp4") + ".srt"
	if err := services.WriteSRT(timeline.Segments, srtPath); err != nil {
		log.Printf("[Assembler] SRT sidecar write failed: %v", err)
	}

	ws.Cleanup()
	log.Printf("[Assembler] Published %s (%.2fs, %d segments)", outputPath, timeline.TotalDurationSec(), len(segments))
	return outputPath, nil
}

// SegmentDurations splits the audio duration uniformly across count
// segments. The last segment absorbs the rounding remainder so the sum
// equals the audio duration exactly.
func SegmentDurations(audioDurationSec float64, count int) []float64 {
	durations := make([]float64, count)
	if count == 0 {
		return durations
	}

	per := audioDurationSec / float64(count)
	var used float64
	for i := 0; i < count-1; i++ {
		durations[i] = per
		used += per
	}
	durations[count-1] = audioDurationSec - used
	return durations
}

// OutputFilename derives the deterministic output name for a topic:
// spaces become underscores and a fixed suffix is appended.
func OutputFilename(topic string) string {
	return strings.ReplaceAll(strings.TrimSpace(topic), " ", "_") + "_video.mp4"
}
