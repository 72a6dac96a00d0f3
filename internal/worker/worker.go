package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/vidai/vidai/internal/assembler"
	"github.com/vidai/vidai/internal/models"
	"github.com/vidai/vidai/internal/progress"
	"github.com/vidai/vidai/internal/queue"
	"github.com/vidai/vidai/internal/registry"
	"github.com/vidai/vidai/internal/services"
	"github.com/vidai/vidai/internal/storage"
)

// Worker consumes generate-video jobs and drives the whole pipeline
// for each: duplicate lookup, script generation, narration audio,
// timeline assembly, registry update.
type Worker struct {
	queue      *queue.Queue
	registry   *registry.Registry
	scriptGen  services.ScriptGenerator
	tts        services.TTSService
	pexels     *services.PexelsService
	ffmpeg     *services.FFmpegService
	assembler  *assembler.Assembler
	hub        *progress.Hub
	workDir    string
	audioSpeed float64

	// seed, when non-zero, fixes the random source of every run for
	// reproducible output. Zero means time-seeded.
	seed int64
}

func New(
	q *queue.Queue,
	reg *registry.Registry,
	scriptGen services.ScriptGenerator,
	ttsSvc services.TTSService,
	pexelsSvc *services.PexelsService,
	ffmpegSvc *services.FFmpegService,
	asm *assembler.Assembler,
	hub *progress.Hub,
	workDir string,
	audioSpeed float64,
) *Worker {
	return &Worker{
		queue:      q,
		registry:   reg,
		scriptGen:  scriptGen,
		tts:        ttsSvc,
		pexels:     pexelsSvc,
		ffmpeg:     ffmpegSvc,
		assembler:  asm,
		hub:        hub,
		workDir:    workDir,
		audioSpeed: audioSpeed,
	}
}

// Start begins processing jobs until the context is cancelled.
func (w *Worker) Start(ctx context.Context, concurrency int) {
	log.Printf("Worker started with concurrency: %d", concurrency)

	for i := 0; i < concurrency; i++ {
		go w.processQueue(ctx)
	}

	<-ctx.Done()
	log.Println("Worker shutting down...")
}

func (w *Worker) processQueue(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			job, err := w.queue.Dequeue(ctx, queue.QueueGenerateVideo, 5*time.Second)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("Error dequeuing: %v", err)
				continue
			}
			if job == nil {
				continue // No job available, retry
			}

			log.Printf("Processing run %s (topic: %q)", job.ID, job.Topic)
			if err := w.handleGenerateVideo(ctx, job); err != nil {
				log.Printf("Run %s failed: %v", job.ID, err)
				w.publish(job.ID, 0, err.Error(), 0, "error", "", 0)
			} else {
				log.Printf("Run %s completed", job.ID)
			}
		}
	}
}

func (w *Worker) publish(runID uuid.UUID, step int, message string, percentage int, event, filename string, similarity float64) {
	w.hub.Publish(models.ProgressEvent{
		RunID:      runID,
		Step:       step,
		Message:    message,
		Percentage: percentage,
		Event:      event,
		Filename:   filename,
		Similarity: similarity,
	})
}

func (w *Worker) handleGenerateVideo(ctx context.Context, job *queue.Job) error {
	w.publish(job.ID, 1, "Checking for existing videos", 5, "", "", 0)

	if match := w.registry.Lookup(job.Topic); match != nil {
		log.Printf("[Worker] Found existing video %s for topic %q (similarity %.2f)",
			match.Filename, job.Topic, match.Similarity)
		w.publish(job.ID, 1, fmt.Sprintf("Found existing video for %q", match.Topic), 100,
			"video_found", match.Filename, match.Similarity)
		return nil
	}

	w.publish(job.ID, 2, "Generating script", 10, "", "", 0)
	script, err := w.scriptGen.GenerateScript(ctx, job.Topic)
	if err != nil {
		return fmt.Errorf("script generation failed: %w", err)
	}

	ws, err := storage.NewWorkspace(w.workDir)
	if err != nil {
		return fmt.Errorf("workspace creation failed: %w", err)
	}

	audioPath, err := w.renderNarrationAudio(ctx, ws, job.ID, script.Narration)
	if err != nil {
		ws.Cleanup()
		return err
	}

	outputPath, err := w.assembler.Assemble(ctx, ws, w.pexels.ForRun(ws), w.newRand(), assembler.Input{
		Topic:     job.Topic,
		Narration: script.Narration,
		VisualCue: script.VisualCue,
		AudioPath: audioPath,
		OnProgress: func(message string, percentage int) {
			w.publish(job.ID, 4, message, percentage, "", "", 0)
		},
	})
	if err != nil {
		// Fatal-input failures leave nothing worth keeping; export
		// failures retain the workspace for diagnosis and retry.
		if !errors.Is(err, assembler.ErrExport) {
			ws.Cleanup()
		}
		return fmt.Errorf("assembly failed: %w", err)
	}

	filename := filepath.Base(outputPath)
	if err := w.registry.Register(job.Topic, filename); err != nil {
		log.Printf("[Worker] Registry update failed for %s: %v", filename, err)
	}

	w.publish(job.ID, 5, "Video ready", 100, "video_complete", filename, 0)
	return nil
}

// renderNarrationAudio turns the narration text into the run's audio
// track, applying the configured speed factor.
func (w *Worker) renderNarrationAudio(ctx context.Context, ws *storage.Workspace, runID uuid.UUID, narration string) (string, error) {
	w.publish(runID, 3, "Generating narration audio", 30, "", "", 0)

	speech, err := w.tts.GenerateSpeech(ctx, narration)
	if err != nil {
		return "", fmt.Errorf("speech generation failed: %w", err)
	}

	rawPath := ws.AudioPath("narration." + speech.Format)
	if err := os.WriteFile(rawPath, speech.AudioData, 0644); err != nil {
		return "", fmt.Errorf("failed to write narration audio: %w", err)
	}

	if w.audioSpeed == 1.0 {
		return rawPath, nil
	}

	adjustedPath := ws.AudioPath("narration_adjusted." + speech.Format)
	if err := w.ffmpeg.AdjustAudioSpeed(ctx, rawPath, adjustedPath, w.audioSpeed); err != nil {
		return "", fmt.Errorf("audio speed adjustment failed: %w", err)
	}
	return adjustedPath, nil
}

func (w *Worker) newRand() *rand.Rand {
	if w.seed != 0 {
		return rand.New(rand.NewSource(w.seed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
