package script

import (
	"regexp"
	"strings"
)

// DefaultWordCap is the maximum number of words in one subtitle chunk.
const DefaultWordCap = 14

var keywordPattern = regexp.MustCompile(`\[(.*?)\]`)

// Keywords extracts every bracketed visual-cue token from the companion
// script, in reading order, duplicates preserved.
func Keywords(cueText string) []string {
	matches := keywordPattern.FindAllStringSubmatch(cueText, -1)
	keywords := make([]string, 0, len(matches))
	for _, m := range matches {
		keywords = append(keywords, m[1])
	}
	return keywords
}

// Sentences splits narration text into sentence units. A sentence ends
// at '.', '!' or '?' followed by whitespace. Trailing punctuation stays
// with its sentence.
func Sentences(narration string) []string {
	narration = strings.TrimSpace(narration)
	if narration == "" {
		return nil
	}

	var sentences []string
	start := 0
	runes := []rune(narration)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		// Sentence boundary only when punctuation is followed by whitespace
		if i+1 < len(runes) && runes[i+1] != ' ' && runes[i+1] != '\n' && runes[i+1] != '\t' {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// Chunks produces the ordered subtitle chunks for narration text:
// sentences are split first, then each sentence is greedily grouped
// into runs of at most wordCap words. The concatenated word sequence of
// all chunks reproduces the narration's word sequence exactly.
//
// Empty narration yields zero chunks; callers must treat that as fatal.
func Chunks(narration string, wordCap int) []string {
	if wordCap < 1 {
		wordCap = DefaultWordCap
	}

	var chunks []string
	for _, sentence := range Sentences(narration) {
		words := strings.Fields(sentence)
		for start := 0; start < len(words); start += wordCap {
			end := start + wordCap
			if end > len(words) {
				end = len(words)
			}
			chunks = append(chunks, strings.Join(words[start:end], " "))
		}
	}
	return chunks
}
