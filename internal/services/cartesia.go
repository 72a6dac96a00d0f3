package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// ---------------------------------------------------------------------------
// Cartesia Text-to-Speech Service (legacy provider)
// Kept as a fallback for deployments without an ElevenLabs key.
// ---------------------------------------------------------------------------

const (
	cartesiaAPIVersion   = "2024-06-10"
	cartesiaDefaultVoice = "a0e99841-438c-4a64-b679-ae501e7d6091"
	cartesiaModel        = "sonic-english"
)

type CartesiaService struct {
	apiKey  string
	apiURL  string
	voiceID string
	client  *http.Client
}

var _ TTSService = (*CartesiaService)(nil)

// NewCartesiaService creates a Cartesia TTS service. An empty voiceID
// selects the default voice.
func NewCartesiaService(apiKey, apiURL, voiceID string) *CartesiaService {
	if voiceID == "" {
		voiceID = cartesiaDefaultVoice
	}
	return &CartesiaService{
		apiKey:  apiKey,
		apiURL:  apiURL,
		voiceID: voiceID,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type cartesiaRequest struct {
	ModelID      string               `json:"model_id"`
	Transcript   string               `json:"transcript"`
	Voice        cartesiaVoice        `json:"voice"`
	Language     string               `json:"language,omitempty"`
	OutputFormat cartesiaOutputFormat `json:"output_format"`
}

type cartesiaVoice struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type cartesiaOutputFormat struct {
	Container  string `json:"container"`
	SampleRate int    `json:"sample_rate"`
	BitRate    int    `json:"bit_rate,omitempty"`
}

// GenerateSpeech converts text to speech using Cartesia.
// Implements the TTSService interface.
func (s *CartesiaService) GenerateSpeech(ctx context.Context, text string) (*TTSResponse, error) {
	reqBody := cartesiaRequest{
		ModelID:    cartesiaModel,
		Transcript: text,
		Voice:      cartesiaVoice{Mode: "id", ID: s.voiceID},
		Language:   "en",
		OutputFormat: cartesiaOutputFormat{
			Container:  "mp3",
			SampleRate: 44100,
			BitRate:    192000,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Cartesia request: %w", err)
	}

	url := fmt.Sprintf("%s/tts/bytes", s.apiURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create Cartesia request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cartesia-Version", cartesiaAPIVersion)

	log.Printf("[Cartesia] Generating speech (voiceID=%s, textLen=%d)", s.voiceID, len(text))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Cartesia request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Cartesia returned status %d: %s", resp.StatusCode, string(body))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Cartesia audio response: %w", err)
	}
	if len(audioData) == 0 {
		return nil, fmt.Errorf("Cartesia returned empty audio")
	}

	log.Printf("[Cartesia] Speech generated (%d bytes)", len(audioData))

	return &TTSResponse{
		AudioData: audioData,
		Format:    "mp3",
	}, nil
}
