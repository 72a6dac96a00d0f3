package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ---------------------------------------------------------------------------
// Script generation
// Produces the narration script and the companion visual-cue script for
// a topic via an OpenAI-compatible chat API (OpenRouter by default).
// ---------------------------------------------------------------------------

// ScriptResult carries the two halves of a generated script: the plain
// narration text and the visual-cue text with bracketed keywords.
type ScriptResult struct {
	Narration string
	VisualCue string
}

// ScriptGenerator is the narrow interface the worker depends on, so
// tests can swap in a canned generator.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, topic string) (*ScriptResult, error)
}

type OpenAIService struct {
	client *openai.Client
	model  string
}

var _ ScriptGenerator = (*OpenAIService)(nil)

// NewOpenAIService creates a script generator. baseURL may point at any
// OpenAI-compatible endpoint; empty means api.openai.com.
func NewOpenAIService(apiKey, baseURL, model string) *OpenAIService {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

const scriptSystemPrompt = "You are a helpful assistant that generates educational scripts with narration and visual directions."

func buildScriptUserPrompt(topic string) string {
	return fmt.Sprintf(
		"Generate an educational narration script on topic '%s'.\n"+
			"Divide the output into two parts: first the narration script, then the visual cues.\n"+
			"The narration script must contain only the narration itself — no tags, headings, or the word Narrator.\n"+
			"Keep it informative, engaging, and easy to understand for a general audience, with real-life examples for complex concepts.\n\n"+
			"After the narration, after one blank line, provide the visual direction script: search keywords in square brackets, "+
			"like [Indian Parliament], [Mughal architecture], aligned with the narration, and nothing else.",
		topic,
	)
}

// GenerateScript asks the model for narration + visual cues and splits
// the response at the first bracketed cue.
func (s *OpenAIService) GenerateScript(ctx context.Context, topic string) (*ScriptResult, error) {
	log.Printf("[Script] Generating script for topic %q (model=%s)", topic, s.model)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: scriptSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildScriptUserPrompt(topic)},
		},
		Temperature: 0.7,
		MaxTokens:   5000,
	})
	if err != nil {
		return nil, fmt.Errorf("script generation request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("script generation returned no choices")
	}

	fullText := strings.TrimSpace(resp.Choices[0].Message.Content)
	if fullText == "" {
		return nil, fmt.Errorf("script generation returned empty content")
	}

	result := SplitScript(fullText)
	log.Printf("[Script] Generated script (%d narration chars, %d cue chars)", len(result.Narration), len(result.VisualCue))
	return result, nil
}

var firstCuePattern = regexp.MustCompile(`\n?\[.*?\]`)

// SplitScript separates a combined model response into narration text
// and visual-cue text at the first bracketed token. With no brackets,
// everything is narration and the cue script is empty.
func SplitScript(fullText string) *ScriptResult {
	loc := firstCuePattern.FindStringIndex(fullText)
	if loc == nil {
		return &ScriptResult{Narration: strings.TrimSpace(fullText)}
	}
	return &ScriptResult{
		Narration: strings.TrimSpace(fullText[:loc[0]]),
		VisualCue: strings.TrimSpace(fullText[loc[0]:]),
	}
}
