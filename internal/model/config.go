package model

import "time"

// Config is the complete pagesift configuration.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Fallback FallbackConfig `mapstructure:"fallback"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// HTTPConfig controls the outbound fetch client.
type HTTPConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `mapstructure:"insecure_tls"`
	RespectRobots bool          `mapstructure:"respect_robots"`
	RatePerDomain float64       `mapstructure:"rate_per_domain"`
	RateBurst     int           `mapstructure:"rate_burst"`
	HTTPProxy     string        `mapstructure:"http_proxy"`
	HTTPSProxy    string        `mapstructure:"https_proxy"`
	NoProxy       string        `mapstructure:"no_proxy"`
}

// FallbackConfig controls the blocked-content fallback chain.
type FallbackConfig struct {
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	MinWordCount   int           `mapstructure:"min_word_count"`
}

// LLMConfig configures the external language-model service.
type LLMConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxTokens int           `mapstructure:"max_tokens"`
	CacheDir  string        `mapstructure:"cache_dir"` // empty disables response caching
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

// StoreConfig configures the Postgres store.
type StoreConfig struct {
	DSN string `mapstructure:"dsn"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	CORSEnabled bool   `mapstructure:"cors_enabled"`
}

// LimitsConfig bounds per-request resource use regardless of retrieved
// content size.
type LimitsConfig struct {
	MaxTextChars      int `mapstructure:"max_text_chars"`      // row cap before chunking
	ChunkChars        int `mapstructure:"chunk_chars"`         // overflow segment size
	MaxFrequencyTerms int `mapstructure:"max_frequency_terms"` // word_frequency map cap
	MaxClaims         int `mapstructure:"max_claims"`
	MaxLinks          int `mapstructure:"max_links"`
	ExcerptChars      int `mapstructure:"excerpt_chars"`       // prompt excerpt bound
	ClaimExcerptChars int `mapstructure:"claim_excerpt_chars"` // claim extraction bound
	PDFChapterWords   int `mapstructure:"pdf_chapter_words"`   // chaptered summary trigger
}

// CacheConfig configures the short-TTL fetch cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       15 * time.Second,
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			MaxBodyBytes:  4_000_000,
			RespectRobots: false,
			RatePerDomain: 2.0,
			RateBurst:     5,
		},
		Fallback: FallbackConfig{
			AttemptTimeout: 15 * time.Second,
			MinWordCount:   150,
		},
		LLM: LLMConfig{
			Model:     "gpt-4o-mini",
			Timeout:   30 * time.Second,
			MaxTokens: 2000,
			CacheTTL:  24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			CORSEnabled: true,
		},
		Limits: LimitsConfig{
			MaxTextChars:      100_000,
			ChunkChars:        50_000,
			MaxFrequencyTerms: 300,
			MaxClaims:         15,
			MaxLinks:          100,
			ExcerptChars:      10_000,
			ClaimExcerptChars: 12_000,
			PDFChapterWords:   8_000,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
	}
}
