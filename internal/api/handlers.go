package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vidai/vidai/internal/models"
	"github.com/vidai/vidai/internal/progress"
	"github.com/vidai/vidai/internal/queue"
	"github.com/vidai/vidai/internal/registry"
)

type Handler struct {
	queue     *queue.Queue
	registry  *registry.Registry
	hub       *progress.Hub
	outputDir string
}

func NewHandler(q *queue.Queue, reg *registry.Registry, hub *progress.Hub, outputDir string) *Handler {
	return &Handler{
		queue:     q,
		registry:  reg,
		hub:       hub,
		outputDir: outputDir,
	}
}

// CreateVideo handles POST /v1/videos
func (h *Handler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		respondError(w, http.StatusBadRequest, "Topic is required")
		return
	}

	runID := uuid.New()
	if err := h.queue.EnqueueGenerateVideo(r.Context(), runID, req.Topic); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue video generation")
		return
	}

	respondJSON(w, http.StatusAccepted, models.CreateVideoResponse{
		RunID:  runID,
		Status: models.RunStatusQueued,
	})
}

// DownloadVideo handles GET /v1/videos/{filename}/download
func (h *Handler) DownloadVideo(w http.ResponseWriter, r *http.Request) {
	filename := filepath.Base(chi.URLParam(r, "filename"))
	if filename == "." || !strings.HasSuffix(filename, ".mp4") {
		respondError(w, http.StatusBadRequest, "Invalid video filename")
		return
	}

	path := filepath.Join(h.outputDir, filename)
	if _, err := os.Stat(path); err != nil {
		respondError(w, http.StatusNotFound, "Video not found")
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	http.ServeFile(w, r, path)
}

// LookupVideo handles GET /v1/videos/lookup?topic=...
// Returns the best existing match for a topic, if any clears the
// similarity threshold.
func (h *Handler) LookupVideo(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic == "" {
		respondError(w, http.StatusBadRequest, "Topic query parameter is required")
		return
	}

	match := h.registry.Lookup(topic)
	if match == nil {
		respondError(w, http.StatusNotFound, "No matching video")
		return
	}
	respondJSON(w, http.StatusOK, match)
}

// ProgressWS handles GET /v1/ws — websocket progress subscription.
func (h *Handler) ProgressWS(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
