package ai

import "context"

// Options controls model behavior; fields are optional per provider.
type Options struct {
	Model        string
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
}

// Client is a provider-agnostic interface for the single text-generation
// operation the review pipeline needs.
type Client interface {
	// Complete sends one prompt and returns the raw model output.
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}
