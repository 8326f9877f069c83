package model

import "time"

// Config is the full runtime configuration for an analysis pipeline.
// Zero values are not usable directly: start from DefaultConfig and
// override, which is also how the CLI layer applies flags.
type Config struct {
	Weights     Weights           `json:"weights" yaml:"weights" mapstructure:"weights"`
	Engine      EngineConfig      `json:"engine" yaml:"engine" mapstructure:"engine"`
	HTTP        HTTPConfig        `json:"http" yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `json:"cache" yaml:"cache" mapstructure:"cache"`
	Citations   CitationsConfig   `json:"citations" yaml:"citations" mapstructure:"citations"`
	Concurrency ConcurrencyConfig `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
	RateLimit   RateLimitConfig   `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`
	Output      OutputConfig      `json:"output" yaml:"output" mapstructure:"output"`
	Store       StoreConfig       `json:"store" yaml:"store" mapstructure:"store"`
	LLM         LLMConfig         `json:"llm" yaml:"llm" mapstructure:"llm"`
}

// EngineConfig tunes the scoring engine
type EngineConfig struct {
	CWEDensityScale float64 `json:"cwe_density_scale" yaml:"cwe_density_scale" mapstructure:"cwe_density_scale"` // Findings/KLOC that saturate the security signal
	MinSegmentChars int     `json:"min_segment_chars" yaml:"min_segment_chars" mapstructure:"min_segment_chars"` // Prose blocks below this merge with their neighbor
}

// HTTPConfig controls outbound HTTP behavior
type HTTPConfig struct {
	Timeout      time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `json:"max_body_bytes" yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS  bool          `json:"insecure_tls" yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string        `json:"http_proxy" yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `json:"https_proxy" yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `json:"no_proxy" yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig controls the layered fetch/audit cache
type CacheConfig struct {
	Enabled   bool          `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `json:"dir" yaml:"dir" mapstructure:"dir"` // Disk layer location, empty for memory-only
	MemoryTTL time.Duration `json:"memory_ttl" yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `json:"disk_ttl" yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// CitationsConfig controls the reference audit
type CitationsConfig struct {
	Enabled       bool          `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Timeout       time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`                         // Per-reference resolution timeout
	MaxPerSegment int           `json:"max_per_segment" yaml:"max_per_segment" mapstructure:"max_per_segment"` // Audit at most this many references per segment
	RespectRobots bool          `json:"respect_robots" yaml:"respect_robots" mapstructure:"respect_robots"`
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	Documents int `json:"documents" yaml:"documents" mapstructure:"documents"` // Batch-mode documents in flight
	Segments  int `json:"segments" yaml:"segments" mapstructure:"segments"`    // Per-document segment fanout
	Audits    int `json:"audits" yaml:"audits" mapstructure:"audits"`          // Concurrent reference checks
}

// RateLimitConfig bounds outbound request rates per domain
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst" mapstructure:"burst"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `json:"verbose" yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `json:"include_footer" yaml:"include_footer" mapstructure:"include_footer"`
}

// StoreConfig controls the local run-history database
type StoreConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" yaml:"path" mapstructure:"path"` // SQLite file, default under ~/.mimesis
}

// LLMConfig controls the optional narrative summarizer
type LLMConfig struct {
	Provider   string        `json:"provider" yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama; empty disables
	Model      string        `json:"model" yaml:"model" mapstructure:"model"`
	APIKey     string        `json:"-" yaml:"-" mapstructure:"-"` // Never serialized
	BaseURL    string        `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	MaxTokens  int           `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`
	StrictRefs bool          `json:"strict_refs" yaml:"strict_refs" mapstructure:"strict_refs"` // Reject summaries citing unknown references
}

// DefaultConfig returns the standard configuration.
// Missing weight keys in user config are filled from these defaults
// before the vector reaches the engine, so a partial weights block
// only overrides the slots it names.
func DefaultConfig() Config {
	return Config{
		Weights: DefaultWeights(),
		Engine: EngineConfig{
			CWEDensityScale: 5.0,
			MinSegmentChars: 600,
		},
		HTTP: HTTPConfig{
			Timeout:      2 * time.Minute,
			UserAgent:    "Mimesis/0.2 (+https://github.com/provenalabs/mimesis)",
			MaxBodyBytes: 4_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Citations: CitationsConfig{
			Enabled:       true,
			Timeout:       10 * time.Second,
			MaxPerSegment: 25,
			RespectRobots: true,
		},
		Concurrency: ConcurrencyConfig{
			Documents: 3,
			Segments:  8,
			Audits:    5,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2.0,
			Burst:             4,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		Store: StoreConfig{
			Enabled: false,
		},
		LLM: LLMConfig{
			Model:      "gpt-4o-mini",
			Timeout:    60 * time.Second,
			MaxTokens:  1000,
			StrictRefs: true,
		},
	}
}
