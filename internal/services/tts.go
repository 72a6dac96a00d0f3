package services

import "context"

// ---------------------------------------------------------------------------
// TTSService — common interface for text-to-speech providers
// The worker renders narration through whichever provider is configured
// without knowing the underlying implementation.
// ---------------------------------------------------------------------------

// TTSResponse is the common response type from any TTS provider.
type TTSResponse struct {
	AudioData []byte
	Format    string // "mp3", "wav", etc.
}

// TTSService is the interface that any TTS provider must implement.
type TTSService interface {
	// GenerateSpeech converts text to audio using the provider's
	// default settings.
	GenerateSpeech(ctx context.Context, text string) (*TTSResponse, error)
}
