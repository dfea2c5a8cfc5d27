// Package config loads and validates runtime configuration from the
// environment.
package config

import (
	"os"
	"strconv"
)

// Provider names accepted by LLMProvider.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

// Config is the process configuration.
type Config struct {
	// LLMProvider selects which chat model backs the agents.
	LLMProvider string
	OpenAIKey   string
	ClaudeKey   string
	GeminiKey   string

	// ExaKey authenticates web search.
	ExaKey string
	// ScraperKey enables the hosted-scraper fetch fallback. Optional.
	ScraperKey string

	// MaxRetries bounds refinement rounds per research thread.
	MaxRetries int
	// BatchConcurrency bounds concurrent (company, metric) pairs.
	BatchConcurrency int
	// SearchResults is how many web hits to request per query.
	SearchResults int

	// RedisAddr, when set, switches session storage from memory to Redis.
	RedisAddr string

	// PGHost, when set, switches the evidence index from memory to a
	// pgvector-backed store.
	PGHost     string
	PGPort     int
	PGUser     string
	PGPassword string
	PGDBName   string
}

// FromEnv reads configuration from the environment, applying defaults for
// everything optional.
func FromEnv() *Config {
	return &Config{
		LLMProvider:      envOr("RESEARCHER_LLM_PROVIDER", ProviderOpenAI),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		ClaudeKey:        os.Getenv("ANTHROPIC_API_KEY"),
		GeminiKey:        os.Getenv("GEMINI_API_KEY"),
		ExaKey:           os.Getenv("EXA_API_KEY"),
		ScraperKey:       os.Getenv("SCRAPER_API_KEY"),
		MaxRetries:       envInt("RESEARCHER_MAX_RETRIES", 1),
		BatchConcurrency: envInt("RESEARCHER_BATCH_CONCURRENCY", 8),
		SearchResults:    envInt("RESEARCHER_SEARCH_RESULTS", 15),
		RedisAddr:        os.Getenv("RESEARCHER_REDIS_ADDR"),
		PGHost:           os.Getenv("RESEARCHER_PG_HOST"),
		PGPort:           envInt("RESEARCHER_PG_PORT", 5432),
		PGUser:           envOr("RESEARCHER_PG_USER", "postgres"),
		PGPassword:       os.Getenv("RESEARCHER_PG_PASSWORD"),
		PGDBName:         envOr("RESEARCHER_PG_DBNAME", "company_researcher"),
	}
}

// Validate checks that the configuration can support a research run.
func (c *Config) Validate() error {
	v := NewValidator()
	v.ValidateOneOf("llmProvider", c.LLMProvider, ProviderOpenAI, ProviderClaude, ProviderGemini)
	switch c.LLMProvider {
	case ProviderClaude:
		v.RequireNonEmpty("claudeKey", c.ClaudeKey)
	case ProviderGemini:
		v.RequireNonEmpty("geminiKey", c.GeminiKey)
	}
	// Embeddings always go through the OpenAI API, regardless of the
	// chat provider.
	v.RequireNonEmpty("openaiKey", c.OpenAIKey)
	v.RequireNonEmpty("exaKey", c.ExaKey)
	v.RequirePositive("maxRetries", c.MaxRetries)
	v.RequirePositive("batchConcurrency", c.BatchConcurrency)
	v.RequirePositive("searchResults", c.SearchResults)
	return v.Error()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
