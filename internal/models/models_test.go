package models

import (
	"math"
	"testing"
)

func TestPortrait(t *testing.T) {
	portrait := MediaAsset{Kind: MediaKindVideo, Width: 720, Height: 1280}
	if !portrait.Portrait() {
		t.Error("expected 720x1280 video to be portrait")
	}

	landscape := MediaAsset{Kind: MediaKindVideo, Width: 1920, Height: 1080}
	if landscape.Portrait() {
		t.Error("expected 1920x1080 video to be landscape")
	}

	// Images never count as portrait — orientation handling is video-only
	image := MediaAsset{Kind: MediaKindImage, Width: 720, Height: 1280}
	if image.Portrait() {
		t.Error("image assets must not be flagged portrait")
	}
}

func TestTimelineTotalDuration(t *testing.T) {
	tl := Timeline{
		AudioDurationSec: 10,
		Segments: []Segment{
			{Index: 0, DurationSec: 3.3333},
			{Index: 1, DurationSec: 3.3333},
			{Index: 2, DurationSec: 3.3334},
		},
	}

	if math.Abs(tl.TotalDurationSec()-tl.AudioDurationSec) > 0.01 {
		t.Errorf("segment durations sum to %.4f, want %.4f", tl.TotalDurationSec(), tl.AudioDurationSec)
	}
}

func TestRunStatus(t *testing.T) {
	statuses := []RunStatus{
		RunStatusQueued,
		RunStatusScripting,
		RunStatusVoicing,
		RunStatusAssembling,
		RunStatusCompleted,
		RunStatusDuplicate,
		RunStatusFailed,
	}

	for _, status := range statuses {
		if status == "" {
			t.Errorf("empty status found")
		}
	}
}
