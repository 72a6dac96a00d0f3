package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	WorkerEnabled      bool
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Redis
	RedisURL string

	// Pexels (stock media search)
	PexelsAPIKey string

	// OpenRouter (script generation — OpenAI-compatible API)
	OpenRouterKey     string
	OpenRouterBaseURL string
	ScriptModel       string

	// TTS — ElevenLabs preferred, Cartesia legacy fallback
	ElevenLabsKey     string
	ElevenLabsVoiceID string
	CartesiaKey       string
	CartesiaURL       string
	CartesiaVoiceID   string

	// Assembly
	OutputDir           string  // Where final videos and the registry live
	WorkDir             string  // Root for per-run temp workspaces
	SubtitleWordCap     int     // Max words per subtitle chunk
	PreferVideo         bool    // Request video assets before images
	AudioSpeed          float64 // Narration playback speed factor
	SimilarityThreshold float64 // Duplicate-topic lookup cutoff

	// Worker
	MaxConcurrentJobs int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:             getEnv("API_PORT", "8080"),
		WorkerEnabled:       getEnvBool("WORKER_ENABLED", true),
		BackendAPIKey:       getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins:  getEnv("CORS_ALLOWED_ORIGINS", ""),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379"),
		PexelsAPIKey:        getEnv("PEXELS_API_KEY", ""),
		OpenRouterKey:       getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL:   getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		ScriptModel:         getEnv("SCRIPT_MODEL", "openai/gpt-3.5-turbo"),
		ElevenLabsKey:       getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID:   getEnv("ELEVENLABS_VOICE_ID", ""),
		CartesiaKey:         getEnv("CARTESIA_API_KEY", ""),
		CartesiaURL:         getEnv("CARTESIA_API_URL", "https://api.cartesia.ai"),
		CartesiaVoiceID:     getEnv("CARTESIA_VOICE_ID", ""),
		OutputDir:           getEnv("OUTPUT_DIR", "output"),
		WorkDir:             getEnv("WORK_DIR", "/tmp/vidai"),
		SubtitleWordCap:     getEnvInt("SUBTITLE_WORD_CAP", 14),
		PreferVideo:         getEnvBool("PREFER_VIDEO", true),
		AudioSpeed:          getEnvFloat("AUDIO_SPEED", 1.0),
		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.75),
		MaxConcurrentJobs:   getEnvInt("MAX_CONCURRENT_JOBS", 2),
	}

	// Validate required fields
	if cfg.PexelsAPIKey == "" {
		return nil, fmt.Errorf("PEXELS_API_KEY is required")
	}

	if cfg.OpenRouterKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY is required")
	}

	if cfg.ElevenLabsKey == "" && cfg.CartesiaKey == "" {
		return nil, fmt.Errorf("a TTS key is required: set ELEVENLABS_API_KEY or CARTESIA_API_KEY")
	}

	if cfg.SubtitleWordCap < 1 {
		return nil, fmt.Errorf("SUBTITLE_WORD_CAP must be positive")
	}

	if cfg.AudioSpeed <= 0 {
		return nil, fmt.Errorf("AUDIO_SPEED must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}
