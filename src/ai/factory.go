package ai

// FactoryConfig carries provider selection and credentials without leaking
// provider details to callers.
type FactoryConfig struct {
	Provider  string // "openai" or "claude"
	OpenAIKey string
	ClaudeKey string
	// Defaults
	Model        string
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
}

// NewClient returns a provider-agnostic text-generation client.
func NewClient(cfg FactoryConfig) Client {
	switch cfg.Provider {
	case "claude":
		return newClaudeClient(cfg)
	default:
		return newOpenAIClient(cfg)
	}
}

func valueOrDefault(val, def string) string {
	if val != "" {
		return val
	}
	return def
}

func orInt(v, d int) int {
	if v != 0 {
		return v
	}
	return d
}

func orFloat(v, d float64) float64 {
	if v != 0 {
		return v
	}
	return d
}
