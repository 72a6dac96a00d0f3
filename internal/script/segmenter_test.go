package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywords(t *testing.T) {
	cue := "[sun] some filler [solar system]\n[sun]"
	assert.Equal(t, []string{"sun", "solar system", "sun"}, Keywords(cue))
}

func TestKeywordsEmpty(t *testing.T) {
	assert.Empty(t, Keywords("no brackets here"))
	assert.Empty(t, Keywords(""))
}

func TestSentences(t *testing.T) {
	got := Sentences("The sun is a star. It provides light and heat.")
	require.Len(t, got, 2)
	assert.Equal(t, "The sun is a star.", got[0])
	assert.Equal(t, "It provides light and heat.", got[1])
}

func TestSentencesQuestionExclamation(t *testing.T) {
	got := Sentences("Really? Yes! Amazing.")
	assert.Equal(t, []string{"Really?", "Yes!", "Amazing."}, got)
}

func TestSentencesAbbreviationNotSplit(t *testing.T) {
	// Punctuation not followed by whitespace does not end a sentence
	got := Sentences("Version 1.5 shipped today. It works.")
	require.Len(t, got, 2)
	assert.Equal(t, "Version 1.5 shipped today.", got[0])
}

func TestChunksOnePerShortSentence(t *testing.T) {
	got := Chunks("The sun is a star. It provides light and heat.", 14)
	require.Len(t, got, 2)
	assert.Equal(t, "The sun is a star.", got[0])
	assert.Equal(t, "It provides light and heat.", got[1])
}

func TestChunksLongSentenceSplitsAtCap(t *testing.T) {
	words := make([]string, 30)
	for i := range words {
		words[i] = "word"
	}
	got := Chunks(strings.Join(words, " ")+".", 14)
	require.Len(t, got, 3) // 14 + 14 + 2
	assert.Len(t, strings.Fields(got[0]), 14)
	assert.Len(t, strings.Fields(got[1]), 14)
	assert.Len(t, strings.Fields(got[2]), 2)
}

func TestChunksPreserveWordSequence(t *testing.T) {
	narration := "Go is a compiled language! It has goroutines. Channels carry values between them, safely and in order, without locks in user code."
	got := Chunks(narration, 5)

	var rebuilt []string
	for _, c := range got {
		rebuilt = append(rebuilt, strings.Fields(c)...)
	}
	assert.Equal(t, strings.Fields(narration), rebuilt)
}

func TestChunksEmptyNarration(t *testing.T) {
	assert.Empty(t, Chunks("", 14))
	assert.Empty(t, Chunks("   \n ", 14))
}
