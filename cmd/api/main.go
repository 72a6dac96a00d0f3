package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vidai/vidai/internal/api"
	"github.com/vidai/vidai/internal/assembler"
	"github.com/vidai/vidai/internal/config"
	"github.com/vidai/vidai/internal/progress"
	"github.com/vidai/vidai/internal/queue"
	"github.com/vidai/vidai/internal/registry"
	"github.com/vidai/vidai/internal/services"
	"github.com/vidai/vidai/internal/worker"
)

func main() {
	log.Println("Starting Vidai API...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to Redis queue
	q, err := queue.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()
	log.Println("Connected to Redis queue")

	// Duplicate-topic registry lives next to the finished videos
	reg := registry.New(cfg.OutputDir, cfg.SimilarityThreshold)

	// Progress websocket hub
	hub := progress.NewHub()
	defer hub.Close()

	// Create API handler
	handler := api.NewHandler(q, reg, hub, cfg.OutputDir)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set — API is unprotected (dev mode)")
	}

	// Start HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	// Start worker if enabled
	var workerCancel context.CancelFunc
	if cfg.WorkerEnabled {
		log.Println("Worker enabled, starting background processing...")

		scriptSvc := services.NewOpenAIService(cfg.OpenRouterKey, cfg.OpenRouterBaseURL, cfg.ScriptModel)
		pexelsSvc := services.NewPexelsService(cfg.PexelsAPIKey)
		ffmpegSvc := services.NewFFmpegService()
		asm := assembler.New(ffmpegSvc, cfg.OutputDir, cfg.SubtitleWordCap, cfg.PreferVideo)

		// TTS provider — ElevenLabs preferred, Cartesia as legacy fallback
		var ttsSvc services.TTSService
		if cfg.ElevenLabsKey != "" {
			ttsSvc = services.NewElevenLabsService(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID)
			log.Printf("TTS provider: ElevenLabs (voice: %s)", cfg.ElevenLabsVoiceID)
		} else {
			ttsSvc = services.NewCartesiaService(cfg.CartesiaKey, cfg.CartesiaURL, cfg.CartesiaVoiceID)
			log.Printf("TTS provider: Cartesia (legacy, voice: %s)", cfg.CartesiaVoiceID)
		}

		log.Printf("Script model: %s via %s", cfg.ScriptModel, cfg.OpenRouterBaseURL)

		w := worker.New(q, reg, scriptSvc, ttsSvc, pexelsSvc, ffmpegSvc, asm, hub, cfg.WorkDir, cfg.AudioSpeed)

		var workerCtx context.Context
		workerCtx, workerCancel = context.WithCancel(context.Background())
		go w.Start(workerCtx, cfg.MaxConcurrentJobs)
	}

	// Start server in goroutine
	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Shutdown worker
	if workerCancel != nil {
		workerCancel()
	}

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
