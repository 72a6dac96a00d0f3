package services

import (
	"fmt"
	"os"
	"strings"

	"github.com/vidai/vidai/internal/models"
)

// ---------------------------------------------------------------------------
// Segment subtitle overlays (ASS)
//
// One Dialogue line per timeline segment, visible for the segment's
// full duration: white text on a semi-transparent black band, centered
// near the bottom of the landscape frame, fading in and out over 200ms.
// The file covers the whole timeline with absolute timestamps and is
// burned into the concatenated video in a single pass.
// ---------------------------------------------------------------------------

const (
	subtitleFontName = "DejaVu Sans"
	subtitleFontSize = 36

	// ASS colors are in &HAABBGGRR format (hex, note: BGR not RGB)
	assColorWhite     = "&H00FFFFFF"
	assColorSemiBlack = "&H60000000" // ~62% opaque black band

	// Max characters per rendered line before wrapping
	subtitleWrapWidth = 48

	// Distance from the bottom edge of the 720-height canvas
	subtitleMarginV = 40

	// Fade in/out duration in milliseconds
	subtitleFadeMs = 200
)

// GenerateASSSubtitles writes the subtitle track for a timeline. Each
// segment's chunk text appears at the segment's start, wrapped and
// anchored bottom-center, and fades out before the next segment.
func GenerateASSSubtitles(segments []models.Segment, outputPath string) error {
	if len(segments) == 0 {
		return fmt.Errorf("no segments to generate subtitles from")
	}

	var sb strings.Builder

	sb.WriteString("[Script Info]\n")
	sb.WriteString("ScriptType: v4.00+\n")
	sb.WriteString(fmt.Sprintf("PlayResX: %d\n", outputWidth))
	sb.WriteString(fmt.Sprintf("PlayResY: %d\n", outputHeight))
	sb.WriteString("WrapStyle: 0\n")
	sb.WriteString("ScaledBorderAndShadow: yes\n")
	sb.WriteString("\n")

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")

	// BorderStyle 3 draws BackColour as an opaque box behind the text —
	// the semi-transparent band that keeps captions legible on any footage.
	sb.WriteString(fmt.Sprintf(
		"Style: Default,%s,%d,%s,%s,%s,%s,-1,0,0,0,100,100,0,0,3,2,0,2,40,40,%d,1\n",
		subtitleFontName, subtitleFontSize,
		assColorWhite,     // PrimaryColour (text)
		assColorWhite,     // SecondaryColour
		assColorSemiBlack, // OutlineColour (box edge)
		assColorSemiBlack, // BackColour (band)
		subtitleMarginV,
	))

	sb.WriteString("\n")

	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	cursor := 0.0
	for _, seg := range segments {
		start := cursor
		end := cursor + seg.DurationSec
		cursor = end

		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		line := fmt.Sprintf("{\\fad(%d,%d)}%s", subtitleFadeMs, subtitleFadeMs, wrapSubtitleText(text, subtitleWrapWidth))
		sb.WriteString(fmt.Sprintf(
			"Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASSTime(start),
			formatASSTime(end),
			line,
		))
	}

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write ASS subtitle file: %w", err)
	}

	return nil
}

// wrapSubtitleText breaks text into lines of at most maxChars,
// splitting only at word boundaries. Lines are joined with the ASS
// hard line break \N.
func wrapSubtitleText(text string, maxChars int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > maxChars {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	lines = append(lines, current)

	return strings.Join(lines, "\\N")
}

// formatASSTime converts seconds to ASS timestamp format: H:MM:SS.CC (centiseconds)
func formatASSTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}

	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := int(seconds) % 60
	centiseconds := int((seconds - float64(int(seconds))) * 100)

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, centiseconds)
}

// ---------------------------------------------------------------------------
// SRT sidecar
// ---------------------------------------------------------------------------

// WriteSRT writes a plain SRT file mirroring the burned-in captions,
// for players and platforms that take a sidecar subtitle track.
func WriteSRT(segments []models.Segment, outputPath string) error {
	var sb strings.Builder

	cursor := 0.0
	index := 1
	for _, seg := range segments {
		start := cursor
		end := cursor + seg.DurationSec
		cursor = end

		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		sb.WriteString(fmt.Sprintf("%d\n", index))
		sb.WriteString(fmt.Sprintf("%s --> %s\n", formatSRTTime(start), formatSRTTime(end)))
		sb.WriteString(text + "\n\n")
		index++
	}

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write SRT file: %w", err)
	}
	return nil
}

// formatSRTTime converts seconds to SRT timestamp format: HH:MM:SS,mmm
func formatSRTTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}

	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := int(seconds) % 60
	millis := int((seconds - float64(int(seconds))) * 1000)

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
