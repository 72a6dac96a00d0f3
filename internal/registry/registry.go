package registry

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/vidai/vidai/internal/models"
)

const metadataFilename = "video_metadata.json"

// Registry is the JSON-backed duplicate-topic store. It maps output
// filenames to the topic they were generated from so later runs can
// reuse an existing video instead of regenerating it.
//
// All mutations go through a mutex and land on disk via
// write-temp-then-rename, so concurrent runs never observe a torn file.
type Registry struct {
	mu        sync.Mutex
	outputDir string
	threshold float64
}

func New(outputDir string, threshold float64) *Registry {
	return &Registry{
		outputDir: outputDir,
		threshold: threshold,
	}
}

func (r *Registry) metadataPath() string {
	return filepath.Join(r.outputDir, metadataFilename)
}

// load reads the metadata file. A missing or unreadable file is treated
// as an empty registry — lookups then fall back to filenames alone.
func (r *Registry) load() map[string]models.RegistryEntry {
	entries := make(map[string]models.RegistryEntry)

	data, err := os.ReadFile(r.metadataPath())
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[Registry] Could not read metadata: %v", err)
		}
		return entries
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("[Registry] Corrupt metadata file, ignoring: %v", err)
		return make(map[string]models.RegistryEntry)
	}
	return entries
}

func (r *Registry) save(entries map[string]models.RegistryEntry) error {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	// Atomic replace so a concurrent reader never sees a partial write
	tmp := r.metadataPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return os.Rename(tmp, r.metadataPath())
}

// Lookup searches existing videos for one whose topic is similar enough
// to the requested topic. Returns nil when nothing clears the threshold.
func (r *Registry) Lookup(topic string) *models.RegistryMatch {
	r.mu.Lock()
	defer r.mu.Unlock()

	files, err := os.ReadDir(r.outputDir)
	if err != nil {
		return nil
	}

	entries := r.load()

	var best *models.RegistryMatch
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".mp4") {
			continue
		}

		storedTopic := ""
		if entry, ok := entries[f.Name()]; ok {
			storedTopic = entry.Topic
		} else {
			// No metadata — recover the topic from the filename
			storedTopic = strings.ReplaceAll(strings.TrimSuffix(f.Name(), "_video.mp4"), "_", " ")
		}

		similarity := Similarity(topic, storedTopic)
		if similarity < r.threshold {
			continue
		}
		if best == nil || similarity > best.Similarity {
			best = &models.RegistryMatch{
				Filename:   f.Name(),
				Path:       filepath.Join(r.outputDir, f.Name()),
				Topic:      storedTopic,
				Similarity: similarity,
			}
		}
	}
	return best
}

// Register records a newly created video under its output filename.
func (r *Registry) Register(topic, filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.load()
	entries[filename] = models.RegistryEntry{
		Topic:           topic,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
		NormalizedTopic: NormalizeTopic(topic),
	}
	return r.save(entries)
}

// ---------------------------------------------------------------------------
// Topic similarity
// ---------------------------------------------------------------------------

var nonAlnumPattern = regexp.MustCompile(`[^a-zA-Z0-9\s]`)

// NormalizeTopic lowercases a topic and strips everything but letters,
// digits and spaces, so comparisons ignore punctuation and case.
func NormalizeTopic(topic string) string {
	return nonAlnumPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(topic)), "")
}

// Similarity scores two topics in [0, 1]. Exact normalized match scores
// 1.0, substring containment 0.9; otherwise the best of character
// sequence similarity and a keyword-overlap score (scaled by 0.8) wins.
func Similarity(topic1, topic2 string) float64 {
	norm1 := NormalizeTopic(topic1)
	norm2 := NormalizeTopic(topic2)

	if norm1 == norm2 {
		return 1.0
	}

	if norm1 != "" && norm2 != "" && (strings.Contains(norm2, norm1) || strings.Contains(norm1, norm2)) {
		return 0.9
	}

	similarity := sequenceRatio(norm1, norm2)

	words1 := strings.Fields(norm1)
	words2 := strings.Fields(norm2)
	common := 0
	seen := make(map[string]bool, len(words1))
	for _, w := range words1 {
		seen[w] = true
	}
	counted := make(map[string]bool)
	for _, w := range words2 {
		if seen[w] && !counted[w] {
			common++
			counted[w] = true
		}
	}

	if common > 0 && len(words1) > 0 && len(words2) > 0 {
		max := len(words1)
		if len(words2) > max {
			max = len(words2)
		}
		keywordSimilarity := float64(common) / float64(max) * 0.8
		if keywordSimilarity > similarity {
			similarity = keywordSimilarity
		}
	}

	return similarity
}

// sequenceRatio is 2*M/T where M is the total length of matched blocks
// found by recursive longest-common-substring matching and T the
// combined length of both strings.
func sequenceRatio(a, b string) float64 {
	if len(a)+len(b) == 0 {
		return 0
	}
	matched := matchLen(a, b)
	return 2.0 * float64(matched) / float64(len(a)+len(b))
}

func matchLen(a, b string) int {
	aLo, bLo, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchLen(a[:aLo], b[:bLo]) +
		matchLen(a[aLo+size:], b[bLo+size:])
}

func longestCommonSubstring(a, b string) (aIdx, bIdx, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	// lengths[j] holds the common-suffix length ending at a[i], b[j]
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] == b[j] {
				cur[j+1] = prev[j] + 1
				if cur[j+1] > size {
					size = cur[j+1]
					aIdx = i - size + 1
					bIdx = j - size + 1
				}
			} else {
				cur[j+1] = 0
			}
		}
		prev, cur = cur, prev
	}
	return aIdx, bIdx, size
}
