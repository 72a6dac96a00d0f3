package services

import (
	"math"
	"math/rand"
	"strings"
	"testing"
)

func TestDrawKenBurnsRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 1000; i++ {
		p := DrawKenBurns(rng)
		if p.ZoomFactor < 1.10 || p.ZoomFactor > 1.30 {
			t.Fatalf("zoom factor %.4f outside [1.10, 1.30]", p.ZoomFactor)
		}
		if p.OffsetX < 0 || p.OffsetX > 0.20 {
			t.Fatalf("offset x %.4f outside [0, 0.2]", p.OffsetX)
		}
		if p.OffsetY < 0 || p.OffsetY > 0.20 {
			t.Fatalf("offset y %.4f outside [0, 0.2]", p.OffsetY)
		}
	}
}

func TestDrawKenBurnsSeeded(t *testing.T) {
	a := DrawKenBurns(rand.New(rand.NewSource(42)))
	b := DrawKenBurns(rand.New(rand.NewSource(42)))

	if a != b {
		t.Errorf("same seed produced different parameters: %+v vs %+v", a, b)
	}
}

func TestScaleAtEndpoints(t *testing.T) {
	p := KenBurnsParams{ZoomFactor: 1.25, OffsetX: 0.1, OffsetY: 0.1}
	duration := 5.0

	if got := p.ScaleAt(0, duration); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("scale at t=0 is %.6f, want 1.0", got)
	}
	if got := p.ScaleAt(duration, duration); math.Abs(got-1.25) > 1e-9 {
		t.Errorf("scale at t=duration is %.6f, want 1.25", got)
	}
	if got := p.ScaleAt(duration/2, duration); math.Abs(got-1.125) > 1e-9 {
		t.Errorf("scale at midpoint is %.6f, want 1.125 (linear)", got)
	}
}

func TestScaleAtClamped(t *testing.T) {
	p := KenBurnsParams{ZoomFactor: 1.2}

	if got := p.ScaleAt(-1, 5); got != 1.0 {
		t.Errorf("scale before start is %.6f, want 1.0", got)
	}
	if got := p.ScaleAt(10, 5); math.Abs(got-1.2) > 1e-9 {
		t.Errorf("scale after end is %.6f, want 1.2", got)
	}
	if got := p.ScaleAt(1, 0); got != 1.0 {
		t.Errorf("zero duration scale is %.6f, want 1.0", got)
	}
}

func TestBuildKenBurnsFilter(t *testing.T) {
	p := KenBurnsParams{ZoomFactor: 1.20, OffsetX: 0.10, OffsetY: 0.05}
	filter := buildKenBurnsFilter(p, 5.0)

	// Work-height scale happens before the crop
	if !strings.HasPrefix(filter, "scale=-2:800,crop=1280:720:128:36,") {
		t.Errorf("unexpected filter prefix: %s", filter)
	}
	if !strings.Contains(filter, "zoompan=z='1+0.200000*on/120'") {
		t.Errorf("zoom expression missing or wrong: %s", filter)
	}
	if !strings.Contains(filter, "s=1280x720:fps=24") {
		t.Errorf("output size/fps missing: %s", filter)
	}
}

func TestEscapeFFmpegFilterPath(t *testing.T) {
	if got := escapeFFmpegFilterPath("/tmp/a:b.ass"); got != `/tmp/a\:b.ass` {
		t.Errorf("colon not escaped: %q", got)
	}
	if got := escapeFFmpegFilterPath(`a\b`); got != `a\\b` {
		t.Errorf("backslash not escaped: %q", got)
	}
	if got := escapeFFmpegFilterPath("it's.ass"); got != `it'\''s.ass` {
		t.Errorf("quote not escaped: %q", got)
	}
}
