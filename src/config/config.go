package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	MySQLDSN  string
	RedisURL  string
	JWTSecret string
	Port      string

	// Text-generation provider used by the reviewer panel.
	AIProvider string
	OpenAIKey  string
	ClaudeKey  string
	AIModel    string

	// Per-reviewer call timeout in seconds.
	ReviewTimeout int

	// Publication targets.
	WebsiteDataDir   string
	DiscordToken     string
	DiscordChannelID string
	MoltbookURL      string
	MoltbookAPIKey   string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	timeout, _ := strconv.Atoi(getenv("REVIEW_TIMEOUT", "90"))
	return Config{
		MySQLDSN:         getenv("MYSQL_DSN", "observatory:observatory@tcp(127.0.0.1:3306)/observatory?parseTime=true"),
		RedisURL:         getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		JWTSecret:        getenv("JWT_SECRET", ""),
		Port:             getenv("PORT", "8088"),
		AIProvider:       getenv("AI_PROVIDER", "openai"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		ClaudeKey:        os.Getenv("CLAUDE_API_KEY"),
		AIModel:          getenv("AI_MODEL", "gpt-4o-mini"),
		ReviewTimeout:    timeout,
		WebsiteDataDir:   getenv("WEBSITE_DATA_DIR", "./website/data"),
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		MoltbookURL:      os.Getenv("MOLTBOOK_API_URL"),
		MoltbookAPIKey:   os.Getenv("MOLTBOOK_API_KEY"),
	}
}
