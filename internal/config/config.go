package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/text/language"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults
//
// Environment Variables:
// LLM Configuration:
// - LLM_API_KEY: API key for the LLM provider (required)
// - LLM_API_URL: API endpoint URL (default: https://openrouter.ai/api/v1)
// - LLM_MODEL: Model name to use (default: openai/gpt-3.5-turbo)
// - LLM_MAX_TOKENS: Maximum tokens for responses (default: 8000)
// - LLM_TEMPERATURE: Temperature for responses (default: 0.7)
// - LLM_TIMEOUT: Request timeout in seconds (default: 30)
//
// Search Configuration:
// - SEARCH_API_KEY: API key for the video search capability (required)
// - SEARCH_API_URL: Video search endpoint URL (required)
// - SEARCH_TIMEOUT: Request timeout in seconds (default: 15)
//
// Generation Configuration:
// - GEN_MAX_HITS: Max fused search hits per request (default: 12)
// - GEN_MAX_CONTEXT_CHARS: Context budget in characters (default: 3500)
// - GEN_TOPICS: Topics per video (default: 4)
// - GEN_FLASHCARDS_PER_TOPIC: Flashcards per topic (default: 8)
// - GEN_QUIZ_PER_TOPIC: Quiz questions per topic (default: 8)
// - GEN_TARGET_LANGUAGE: BCP-47 tag the material is generated in (default: en)
//
// Cache Configuration:
// - CACHE_TTL_SECONDS: Result freshness window (default: 300)
// - CACHE_COOLDOWN_SECONDS: Forced-refresh cooldown (default: 30)
// - CACHE_SWEEP_CRON: Cron expression for cache sweeps (default: @every 5m)
//
// Server Configuration:
// - SERVER_ADDR: Listen address (default: :8080)
//
// History Configuration:
// - HISTORY_DB_PATH: SQLite database path (default: data/history.db)
// - HISTORY_RETENTION_DAYS: Days before runs are pruned, 0 disables (default: 30)

type Config struct {
	LLM        LLMConfig        `json:"llm"`
	Search     SearchConfig     `json:"search"`
	Generation GenerationConfig `json:"generation"`
	Cache      CacheConfig      `json:"cache"`
	Server     ServerConfig     `json:"server"`
	History    HistoryConfig    `json:"history"`
}

// LLMConfig holds the configuration for the LLM client
// Supports any OpenAI-compatible provider (OpenRouter, OpenAI, etc.)
type LLMConfig struct {
	APIKey      string  `json:"api_key"`
	APIURL      string  `json:"api_url"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Timeout     int     `json:"timeout"`
}

// SearchConfig holds the configuration for the video search capability
type SearchConfig struct {
	APIKey  string `json:"api_key"`
	APIURL  string `json:"api_url"`
	Timeout int    `json:"timeout"`
}

// GenerationConfig holds the default knobs for study material generation
type GenerationConfig struct {
	MaxHits            int          `json:"max_hits"`
	MaxContextChars    int          `json:"max_context_chars"`
	TopicsCount        int          `json:"topics_count"`
	FlashcardsPerTopic int          `json:"flashcards_per_topic"`
	QuizPerTopic       int          `json:"quiz_per_topic"`
	TargetLanguage     language.Tag `json:"target_language"`
}

// CacheConfig holds the generation cache timing configuration
type CacheConfig struct {
	TTL       time.Duration `json:"ttl"`
	Cooldown  time.Duration `json:"cooldown"`
	SweepCron string        `json:"sweep_cron"`
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Addr string `json:"addr"`
}

// HistoryConfig holds the run history configuration
type HistoryConfig struct {
	DBPath    string        `json:"db_path"`
	Retention time.Duration `json:"retention"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		LLM: LLMConfig{
			APIKey:      getEnvString("LLM_API_KEY", ""),
			APIURL:      getEnvString("LLM_API_URL", "https://openrouter.ai/api/v1"),
			Model:       getEnvString("LLM_MODEL", "openai/gpt-3.5-turbo"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 8000),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
			Timeout:     getEnvInt("LLM_TIMEOUT", 30),
		},
		Search: SearchConfig{
			APIKey:  getEnvString("SEARCH_API_KEY", ""),
			APIURL:  getEnvString("SEARCH_API_URL", ""),
			Timeout: getEnvInt("SEARCH_TIMEOUT", 15),
		},
		Generation: GenerationConfig{
			MaxHits:            getEnvInt("GEN_MAX_HITS", 12),
			MaxContextChars:    getEnvInt("GEN_MAX_CONTEXT_CHARS", 3500),
			TopicsCount:        getEnvInt("GEN_TOPICS", 4),
			FlashcardsPerTopic: getEnvInt("GEN_FLASHCARDS_PER_TOPIC", 8),
			QuizPerTopic:       getEnvInt("GEN_QUIZ_PER_TOPIC", 8),
			TargetLanguage:     language.All.Make(getEnvString("GEN_TARGET_LANGUAGE", "en")),
		},
		Cache: CacheConfig{
			TTL:       time.Duration(getEnvInt("CACHE_TTL_SECONDS", 300)) * time.Second,
			Cooldown:  time.Duration(getEnvInt("CACHE_COOLDOWN_SECONDS", 30)) * time.Second,
			SweepCron: getEnvString("CACHE_SWEEP_CRON", "@every 5m"),
		},
		Server: ServerConfig{
			Addr: getEnvString("SERVER_ADDR", ":8080"),
		},
		History: HistoryConfig{
			DBPath:    getEnvString("HISTORY_DB_PATH", "data/history.db"),
			Retention: time.Duration(getEnvInt("HISTORY_RETENTION_DAYS", 30)) * 24 * time.Hour,
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.Search.APIKey == "" {
		return fmt.Errorf("SEARCH_API_KEY is required")
	}
	if c.Search.APIURL == "" {
		return fmt.Errorf("SEARCH_API_URL is required")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
