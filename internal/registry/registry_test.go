package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTopic(t *testing.T) {
	assert.Equal(t, "the french revolution", NormalizeTopic("  The French Revolution! "))
	assert.Equal(t, "ww2 history", NormalizeTopic("WW2: History"))
}

func TestSimilarityExact(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Solar System", "solar system!"))
}

func TestSimilaritySubstring(t *testing.T) {
	assert.Equal(t, 0.9, Similarity("solar system", "the solar system explained"))
}

func TestSimilarityKeywordOverlap(t *testing.T) {
	// 2 of 3 words shared → keyword score 2/3 * 0.8 ≈ 0.533 at minimum
	got := Similarity("ancient rome history", "rome ancient empire")
	assert.GreaterOrEqual(t, got, 2.0/3.0*0.8-1e-9)
	assert.Less(t, got, 0.9)
}

func TestSimilarityUnrelated(t *testing.T) {
	assert.Less(t, Similarity("quantum physics", "banana bread recipe"), 0.5)
}

func TestSequenceRatioIdentical(t *testing.T) {
	assert.InDelta(t, 1.0, sequenceRatio("abcdef", "abcdef"), 1e-9)
	assert.Equal(t, 0.0, sequenceRatio("abc", "xyz"))
}

func TestRegisterAndLookup(t *testing.T) {
	dir := t.TempDir()
	reg := New(dir, 0.75)

	// Lookup against an empty output dir finds nothing
	assert.Nil(t, reg.Lookup("solar system"))

	// A registered video with a similar topic is found
	filename := "The_Solar_System_video.mp4"
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte("mp4"), 0644))
	require.NoError(t, reg.Register("The Solar System", filename))

	match := reg.Lookup("the solar system")
	require.NotNil(t, match)
	assert.Equal(t, filename, match.Filename)
	assert.Equal(t, 1.0, match.Similarity)

	// An unrelated topic does not match
	assert.Nil(t, reg.Lookup("medieval castles"))
}

func TestLookupFallsBackToFilename(t *testing.T) {
	dir := t.TempDir()
	reg := New(dir, 0.75)

	// Video present without a metadata entry — topic comes from the filename
	require.NoError(t, os.WriteFile(filepath.Join(dir, "black_holes_video.mp4"), []byte("mp4"), 0644))

	match := reg.Lookup("black holes")
	require.NotNil(t, match)
	assert.Equal(t, "black holes", match.Topic)
}

func TestRegisterAtomicFile(t *testing.T) {
	dir := t.TempDir()
	reg := New(dir, 0.75)
	require.NoError(t, reg.Register("topic one", "topic_one_video.mp4"))
	require.NoError(t, reg.Register("topic two", "topic_two_video.mp4"))

	entries := reg.load()
	require.Len(t, entries, 2)
	assert.Equal(t, "topic one", entries["topic_one_video.mp4"].Topic)
	assert.Equal(t, "topic one", entries["topic_one_video.mp4"].NormalizedTopic)
	assert.NotEmpty(t, entries["topic_two_video.mp4"].CreatedAt)

	// No stray temp file left behind
	_, err := os.Stat(filepath.Join(dir, metadataFilename+".tmp"))
	assert.True(t, os.IsNotExist(err))
}
