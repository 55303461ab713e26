package publication

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFeed(t *testing.T, dir string) []discoveryEntry {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, "discoveries.json"))
	require.NoError(t, err)
	var entries []discoveryEntry
	require.NoError(t, json.Unmarshal(raw, &entries))
	return entries
}

func TestWebsiteDeliverCreatesFeed(t *testing.T) {
	dir := t.TempDir()
	target := NewWebsiteTarget(dir)

	result := target.Deliver(context.Background(), &Publication{
		ID:       7,
		Title:    "A Finding",
		Content:  "Something interesting happened.",
		Category: "insight",
	})
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "pub-7", result.Detail)

	entries := readFeed(t, dir)
	require.Len(t, entries, 1)
	assert.Equal(t, "pub-7", entries[0].ID)
	assert.Equal(t, "A Finding", entries[0].Title)
	assert.Equal(t, "insight", entries[0].Tags)
	assert.Equal(t, "MEDIUM", entries[0].Significance)
	assert.Equal(t, "Something interesting happened.", entries[0].FullAnalysis)
}

func TestWebsiteDeliverPrependsNewest(t *testing.T) {
	dir := t.TempDir()
	target := NewWebsiteTarget(dir)

	first := target.Deliver(context.Background(), &Publication{ID: 1, Title: "First", Content: "a", Category: "insight"})
	require.True(t, first.Success)
	second := target.Deliver(context.Background(), &Publication{ID: 2, Title: "Second", Content: "b", Category: "alert"})
	require.True(t, second.Success)

	entries := readFeed(t, dir)
	require.Len(t, entries, 2)
	assert.Equal(t, "pub-2", entries[0].ID, "newest entry comes first")
	assert.Equal(t, "pub-1", entries[1].ID)
}

func TestWebsiteDeliverSanitizesContent(t *testing.T) {
	dir := t.TempDir()
	target := NewWebsiteTarget(dir)

	result := target.Deliver(context.Background(), &Publication{
		ID:       3,
		Title:    `Watch <script>alert("x")</script> out`,
		Content:  `<p>Fine.</p><script>steal()</script><strong>kept</strong>`,
		Category: "alert",
	})
	require.True(t, result.Success, result.Error)

	entries := readFeed(t, dir)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Title, "<script>")
	assert.NotContains(t, entries[0].FullAnalysis, "script")
	assert.Contains(t, entries[0].FullAnalysis, "<p>Fine.</p>")
	assert.Contains(t, entries[0].FullAnalysis, "<strong>kept</strong>")
}

func TestWebsiteDeliverRejectsCorruptFeed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "discoveries.json"), []byte("{not json"), 0o644))
	target := NewWebsiteTarget(dir)

	result := target.Deliver(context.Background(), &Publication{ID: 4, Title: "t", Content: "c", Category: "insight"})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "corrupt")
}

func TestWriteJSONAtomicKeepsOriginalOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "discoveries.json")
	original := []byte(`[{"id":"pub-1"}]`)
	require.NoError(t, os.WriteFile(path, original, 0o644))

	// NaN is not encodable, so the write fails after the temp file exists.
	err := writeJSONAtomic(path, map[string]float64{"bad": math.NaN()})
	require.Error(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, after, "a failed write must not touch the live document")

	leftovers, err := filepath.Glob(filepath.Join(dir, ".discoveries-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "failed writes clean up their temp file")
}
