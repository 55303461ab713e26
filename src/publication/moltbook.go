package publication

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/moltbook/observatory/src/webclient"
)

// MoltbookTarget posts approved content back to the platform under study via
// its REST API.
type MoltbookTarget struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewMoltbookTarget(baseURL, apiKey string) *MoltbookTarget {
	return &MoltbookTarget{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *MoltbookTarget) Name() string { return "moltbook" }

func (t *MoltbookTarget) Deliver(ctx context.Context, pub *Publication) Result {
	if t.baseURL == "" || t.apiKey == "" {
		return Result{Error: "moltbook target not configured"}
	}

	payload, err := json.Marshal(map[string]string{
		"title":   pub.Title,
		"content": pub.Content,
	})
	if err != nil {
		return Result{Error: err.Error()}
	}

	status, body, err := webclient.DoWithRetry(ctx, 3, 2*time.Second, func() (int, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, "POST", t.baseURL+"/api/v1/posts", bytes.NewReader(payload))
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
		resp, err := t.httpClient.Do(req)
		if err != nil {
			return 0, nil, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		return resp.StatusCode, b, err
	})
	if err != nil {
		return Result{Error: err.Error()}
	}
	if status < 200 || status >= 300 {
		return Result{Error: fmt.Sprintf("moltbook API status %d: %s", status, truncate(string(body), 200))}
	}

	var created struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &created)
	return Result{Success: true, Detail: "post " + created.ID}
}
