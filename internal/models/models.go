package models

import (
	"time"

	"github.com/google/uuid"
)

// Enums
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusScripting  RunStatus = "scripting"
	RunStatusVoicing    RunStatus = "voicing"
	RunStatusAssembling RunStatus = "assembling"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusDuplicate  RunStatus = "duplicate"
	RunStatusFailed     RunStatus = "failed"
)

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaAsset is a resolved visual resource on local disk. Video assets
// carry intrinsic dimensions and duration from the search provider;
// image assets leave them zero.
type MediaAsset struct {
	Kind        MediaKind `json:"kind"`
	Path        string    `json:"path"`
	Query       string    `json:"query"` // keyword or topic that resolved this asset
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	DurationSec float64   `json:"duration_sec,omitempty"`
}

// Portrait reports whether a video asset is taller than it is wide and
// therefore unsuitable for the landscape target frame.
func (a MediaAsset) Portrait() bool {
	return a.Kind == MediaKindVideo && a.Height > a.Width
}

// Segment is one timed slot of the output timeline: a subtitle chunk,
// one visual asset, and a duration.
type Segment struct {
	Index       int        `json:"index"`
	Text        string     `json:"text"`
	Asset       MediaAsset `json:"asset"`
	DurationSec float64    `json:"duration_sec"`

	// Degraded marks a segment rendered with a fallback asset or mode
	// after its preferred asset failed.
	Degraded bool `json:"degraded,omitempty"`
}

// Timeline is the ordered segment sequence plus the narration audio
// track. Built once, consumed once by the exporter.
type Timeline struct {
	Topic            string    `json:"topic"`
	Segments         []Segment `json:"segments"`
	AudioPath        string    `json:"audio_path"`
	AudioDurationSec float64   `json:"audio_duration_sec"`
}

// TotalDurationSec is the sum of all segment durations. By construction
// it equals AudioDurationSec within floating tolerance.
func (t *Timeline) TotalDurationSec() float64 {
	var sum float64
	for _, s := range t.Segments {
		sum += s.DurationSec
	}
	return sum
}

// VideoRun tracks one end-to-end generation run for a topic.
type VideoRun struct {
	ID           uuid.UUID `json:"id"`
	Topic        string    `json:"topic"`
	Status       RunStatus `json:"status"`
	OutputPath   string    `json:"output_path,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegistryEntry is one record in the JSON-backed video registry, keyed
// by output filename.
type RegistryEntry struct {
	Topic           string `json:"topic"`
	CreatedAt       string `json:"created_at"`
	NormalizedTopic string `json:"normalized_topic"`
}

// RegistryMatch is a fuzzy duplicate-topic lookup hit.
type RegistryMatch struct {
	Filename   string  `json:"filename"`
	Path       string  `json:"path"`
	Topic      string  `json:"topic"`
	Similarity float64 `json:"similarity"`
}

// DTOs for API responses

type CreateVideoRequest struct {
	Topic string `json:"topic"`
}

type CreateVideoResponse struct {
	RunID  uuid.UUID `json:"run_id"`
	Status RunStatus `json:"status"`
}

// ProgressEvent is pushed to websocket subscribers while a run executes.
type ProgressEvent struct {
	RunID      uuid.UUID `json:"run_id"`
	Step       int       `json:"step"`
	Message    string    `json:"message"`
	Percentage int       `json:"percentage"`
	// Terminal events only
	Event      string  `json:"event,omitempty"` // "video_complete", "video_found", "error"
	Filename   string  `json:"filename,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
}
