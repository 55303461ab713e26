package publication

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// WebsiteTarget prepends approved content to the shared discoveries feed.
// The feed is a single JSON document read by the public site, so every write
// uses an atomic replace: readers see either the old document or the new
// one, never a truncated hybrid.
type WebsiteTarget struct {
	dataDir   string
	sanitizer *bluemonday.Policy
}

func NewWebsiteTarget(dataDir string) *WebsiteTarget {
	// Strict sanitation with basic formatting allowed; submission content
	// originates from scraped data and model output, neither is trusted HTML.
	sanitizer := bluemonday.StrictPolicy()
	sanitizer.AllowElements("p", "br", "strong", "em", "code", "pre", "blockquote")
	return &WebsiteTarget{dataDir: dataDir, sanitizer: sanitizer}
}

func (t *WebsiteTarget) Name() string { return "website" }

type discoveryEntry struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	Finding      string `json:"finding"`
	Significance string `json:"significance"`
	Tags         string `json:"tags"`
	FullAnalysis string `json:"full_analysis"`
}

func (t *WebsiteTarget) Deliver(ctx context.Context, pub *Publication) Result {
	path := filepath.Join(t.dataDir, "discoveries.json")

	var discoveries []discoveryEntry
	if raw, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(raw, &discoveries); err != nil {
			return Result{Error: fmt.Sprintf("discoveries feed corrupt: %v", err)}
		}
	} else if !os.IsNotExist(err) {
		return Result{Error: err.Error()}
	}

	content := t.sanitizer.Sanitize(pub.Content)
	entry := discoveryEntry{
		ID:           fmt.Sprintf("pub-%d", pub.ID),
		Date:         time.Now().UTC().Format("2006-01-02"),
		Title:        t.sanitizer.Sanitize(pub.Title),
		Subtitle:     truncate(content, 100),
		Finding:      truncate(content, 500),
		Significance: "MEDIUM",
		Tags:         pub.Category,
		FullAnalysis: content,
	}
	discoveries = append([]discoveryEntry{entry}, discoveries...)

	if err := writeJSONAtomic(path, discoveries); err != nil {
		return Result{Error: err.Error()}
	}
	return Result{Success: true, Detail: entry.ID}
}

// writeJSONAtomic writes to a temp file in the destination directory, then
// renames into place. Rename on the same filesystem is atomic; a crash
// leaves the previous document fully intact.
func writeJSONAtomic(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".discoveries-*.json")
	if err != nil {
		return err
	}
	name := tmp.Name()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
