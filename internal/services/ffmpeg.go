package services

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/exec"
	"strings"
)

// Output / rendering constants — 720p landscape at 24fps
const (
	outputWidth  = 1280
	outputHeight = 720
	videoFPS     = 24

	// Images are scaled to this working height before cropping, leaving
	// headroom for the pan/zoom crop window.
	kenBurnsWorkHeight = 800
)

// ---------------------------------------------------------------------------
// Ken Burns parameters — one random draw per image segment
// ---------------------------------------------------------------------------

// KenBurnsParams fixes the pan/zoom animation of one image segment:
// a zoom factor the frame scales toward and the crop origin, expressed
// as fractions of the working frame.
type KenBurnsParams struct {
	ZoomFactor float64 // in [1.10, 1.30]
	OffsetX    float64 // crop origin, fraction of frame width in [0, 0.2]
	OffsetY    float64 // crop origin, fraction of frame height in [0, 0.2]
}

// DrawKenBurns draws randomized pan/zoom parameters from rng. Injecting
// the random source keeps runs reproducible under a fixed seed.
func DrawKenBurns(rng *rand.Rand) KenBurnsParams {
	return KenBurnsParams{
		ZoomFactor: 1.10 + rng.Float64()*0.20,
		OffsetX:    rng.Float64() * 0.20,
		OffsetY:    rng.Float64() * 0.20,
	}
}

// ScaleAt returns the zoom scale at time t of a segment lasting
// duration seconds: 1.0 at t=0, ZoomFactor at t=duration, linear.
func (p KenBurnsParams) ScaleAt(t, duration float64) float64 {
	if duration <= 0 {
		return 1.0
	}
	if t < 0 {
		t = 0
	}
	if t > duration {
		t = duration
	}
	return 1.0 + (p.ZoomFactor-1.0)*t/duration
}

// buildKenBurnsFilter constructs the -vf chain for an image segment:
// scale to the working height, crop the target frame at the drawn
// origin, then zoompan linearly from 1.0 to the zoom factor.
func buildKenBurnsFilter(p KenBurnsParams, durationSec float64) string {
	totalFrames := int(durationSec * videoFPS)
	if totalFrames < 1 {
		totalFrames = 1
	}

	cropX := int(p.OffsetX * outputWidth)
	cropY := int(p.OffsetY * outputHeight)

	zExpr := fmt.Sprintf("1+%.6f*on/%d", p.ZoomFactor-1.0, totalFrames)

	return fmt.Sprintf(
		"scale=-2:%d,crop=%d:%d:%d:%d,zoompan=z='%s':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d",
		kenBurnsWorkHeight,
		outputWidth, outputHeight, cropX, cropY,
		zExpr,
		totalFrames,
		outputWidth, outputHeight,
		videoFPS,
	)
}

// ---------------------------------------------------------------------------
// FFmpegService
// ---------------------------------------------------------------------------

type FFmpegService struct{}

func NewFFmpegService() *FFmpegService {
	return &FFmpegService{}
}

func (s *FFmpegService) run(ctx context.Context, label string, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg %s failed: %w", label, err)
	}
	return nil
}

// RenderKenBurnsClip renders a still image into a silent video segment
// with the pan/zoom animation fixed by p.
func (s *FFmpegService) RenderKenBurnsClip(ctx context.Context, imagePath, outputPath string, p KenBurnsParams, durationSec float64) error {
	vf := buildKenBurnsFilter(p, durationSec)
	log.Printf("[FFmpeg] Ken Burns clip: zoom=%.3f offset=(%.2f,%.2f) duration=%.2fs", p.ZoomFactor, p.OffsetX, p.OffsetY, durationSec)

	args := []string{
		"-loop", "1",
		"-i", imagePath,
		"-vf", vf,
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-an",
		"-y",
		outputPath,
	}
	return s.run(ctx, "ken burns clip", args)
}

// RenderStaticClip renders a still image (or a portrait video kept in
// degraded mode) as a plain centered clip without animation. The input
// is scaled to fit and padded to the landscape frame.
func (s *FFmpegService) RenderStaticClip(ctx context.Context, inputPath, outputPath string, durationSec float64, isImage bool) error {
	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d",
		outputWidth, outputHeight, outputWidth, outputHeight, videoFPS,
	)

	args := []string{}
	if isImage {
		args = append(args, "-loop", "1")
	}
	args = append(args,
		"-i", inputPath,
		"-vf", vf,
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-an",
		"-y",
		outputPath,
	)
	return s.run(ctx, "static clip", args)
}

// RenderVideoClip normalizes a source video to exactly durationSec:
// a positive trimStart extracts that window from a longer source, and
// loops > 0 repeats a shorter source forward until the segment is
// covered. The clip is scaled and padded to the landscape frame and
// its own audio is discarded.
func (s *FFmpegService) RenderVideoClip(ctx context.Context, videoPath, outputPath string, trimStartSec, durationSec float64, loops int) error {
	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d",
		outputWidth, outputHeight, outputWidth, outputHeight, videoFPS,
	)

	args := []string{}
	if loops > 0 {
		args = append(args, "-stream_loop", fmt.Sprintf("%d", loops))
	} else if trimStartSec > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", trimStartSec))
	}
	args = append(args,
		"-i", videoPath,
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-vf", vf,
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-an",
		"-y",
		outputPath,
	)
	return s.run(ctx, "video clip", args)
}

// RenderBlackClip produces a plain black segment. Terminal fallback
// when every asset for a slot failed — keeps the timeline covering the
// full audio duration instead of truncating it.
func (s *FFmpegService) RenderBlackClip(ctx context.Context, outputPath string, durationSec float64) error {
	args := []string{
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=black:s=%dx%d:r=%d", outputWidth, outputHeight, videoFPS),
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-y",
		outputPath,
	}
	return s.run(ctx, "black clip", args)
}

// ConcatenateClips joins the segment clips end-to-end, re-encoding so
// overlay fades composite correctly across cuts.
func (s *FFmpegService) ConcatenateClips(ctx context.Context, clipPaths []string, listPath, outputPath string) error {
	if len(clipPaths) == 0 {
		return fmt.Errorf("no clips to concatenate")
	}

	var sb strings.Builder
	for _, path := range clipPaths {
		fmt.Fprintf(&sb, "file '%s'\n", path)
	}
	if err := os.WriteFile(listPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-r", fmt.Sprintf("%d", videoFPS),
		"-y",
		outputPath,
	}
	return s.run(ctx, "concatenate", args)
}

// ExportWithAudio burns the subtitle track into the concatenated video
// and attaches the narration audio. The audio stream is authoritative
// for length; -shortest trims any video overrun from rounding.
func (s *FFmpegService) ExportWithAudio(ctx context.Context, videoPath, audioPath, subtitlePath, outputPath string) error {
	args := []string{
		"-i", videoPath,
		"-i", audioPath,
	}

	if subtitlePath != "" {
		escapedPath := escapeFFmpegFilterPath(subtitlePath)
		args = append(args, "-vf", fmt.Sprintf("ass='%s'", escapedPath))
		log.Printf("[FFmpeg] Burning in subtitles from %s", subtitlePath)
	}

	args = append(args,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-r", fmt.Sprintf("%d", videoFPS),
		"-shortest",
		"-movflags", "+faststart",
		"-y",
		outputPath,
	)
	return s.run(ctx, "export", args)
}

// AdjustAudioSpeed re-times an audio file by the given factor using
// atempo. A factor of 1.0 copies the input unchanged.
func (s *FFmpegService) AdjustAudioSpeed(ctx context.Context, inputPath, outputPath string, speed float64) error {
	if speed == 1.0 {
		args := []string{"-i", inputPath, "-c:a", "copy", "-y", outputPath}
		return s.run(ctx, "audio copy", args)
	}

	args := []string{
		"-i", inputPath,
		"-af", fmt.Sprintf("atempo=%.3f", speed),
		"-y",
		outputPath,
	}
	return s.run(ctx, "audio speed", args)
}

// GetMediaDurationSec returns the duration of an audio or video file in
// seconds using ffprobe.
func (s *FFmpegService) GetMediaDurationSec(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var durationSec float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%f", &durationSec); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return durationSec, nil
}

// GetVideoDimensions returns the pixel width and height of a video's
// first stream using ffprobe.
func (s *FFmpegService) GetVideoDimensions(ctx context.Context, path string) (int, int, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		path,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe dimensions failed: %w", err)
	}

	var width, height int
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%dx%d", &width, &height); err != nil {
		return 0, 0, fmt.Errorf("failed to parse dimensions: %w", err)
	}
	return width, height, nil
}

// escapeFFmpegFilterPath escapes special characters in file paths for FFmpeg filter syntax.
// FFmpeg filter strings treat colons, backslashes, and single quotes specially.
func escapeFFmpegFilterPath(path string) string {
	// Replace backslashes first, then colons (relevant for Windows paths and filter syntax)
	path = strings.ReplaceAll(path, "\\", "\\\\")
	path = strings.ReplaceAll(path, ":", "\\:")
	path = strings.ReplaceAll(path, "'", "'\\''")
	return path
}
