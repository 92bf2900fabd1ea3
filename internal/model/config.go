package model

import "time"

// Config is the complete runtime configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Search      SearchConfig      `yaml:"search" mapstructure:"search"`
	Verify      VerifyConfig      `yaml:"verify" mapstructure:"verify"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Credibility CredibilityConfig `yaml:"credibility" mapstructure:"credibility"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"` // Whole-analysis budget
	AllowOrigins   []string      `yaml:"allow_origins" mapstructure:"allow_origins"`
	Metrics        bool          `yaml:"metrics" mapstructure:"metrics"`
}

// SearchConfig configures the web search collaborator
type SearchConfig struct {
	BaseURL          string        `yaml:"base_url" mapstructure:"base_url"`
	Host             string        `yaml:"host" mapstructure:"host"`
	APIKey           string        `yaml:"api_key" mapstructure:"api_key"`
	Region           string        `yaml:"region" mapstructure:"region"`
	NumResults       int           `yaml:"num_results" mapstructure:"num_results"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`                       // Per-call budget
	CallDelay        time.Duration `yaml:"call_delay" mapstructure:"call_delay"`                 // Minimum spacing between upstream calls
	RateLimitBackoff time.Duration `yaml:"rate_limit_backoff" mapstructure:"rate_limit_backoff"` // Wait before the single retry after HTTP 429
	CacheTTL         time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`                   // 0 disables response caching
	CacheDir         string        `yaml:"cache_dir" mapstructure:"cache_dir"`                   // Adds a disk layer when set
}

// VerifyConfig configures source selection
type VerifyConfig struct {
	MaxSources  int           `yaml:"max_sources" mapstructure:"max_sources"`
	CheckLinks  bool          `yaml:"check_links" mapstructure:"check_links"`
	LinkTimeout time.Duration `yaml:"link_timeout" mapstructure:"link_timeout"`
	LinkWorkers int           `yaml:"link_workers" mapstructure:"link_workers"`
}

// LLMConfig configures the text generation collaborator
type LLMConfig struct {
	Provider  string        `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, gemini
	Model     string        `yaml:"model" mapstructure:"model"`
	APIKey    string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Workers   int           `yaml:"workers" mapstructure:"workers"` // Concurrency of per-issue generation
}

// StoreConfig configures the candidate cache store
type StoreConfig struct {
	Driver     string `yaml:"driver" mapstructure:"driver"` // memory, sqlite, mongo
	Path       string `yaml:"path" mapstructure:"path"`     // SQLite database file
	URI        string `yaml:"uri" mapstructure:"uri"`       // MongoDB connection string
	Database   string `yaml:"database" mapstructure:"database"`
	Collection string `yaml:"collection" mapstructure:"collection"`
}

// CredibilityConfig overrides the built-in domain credibility table
type CredibilityConfig struct {
	Domains      map[string]float64 `yaml:"domains" mapstructure:"domains"`
	UnknownScore float64            `yaml:"unknown_score" mapstructure:"unknown_score"`
}

// HTTPConfig configures outbound HTTP
type HTTPConfig struct {
	UserAgent  string `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// LogConfig configures logging
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"` // text or json
	File       string `yaml:"file" mapstructure:"file"`     // Rotated log file, stderr when empty
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 2 * time.Minute,
			AllowOrigins:   []string{"*"},
			Metrics:        true,
		},
		Search: SearchConfig{
			BaseURL:          "https://google-api31.p.rapidapi.com/websearch",
			Host:             "google-api31.p.rapidapi.com",
			Region:           "us",
			NumResults:       5,
			Timeout:          20 * time.Second,
			CallDelay:        time.Second,
			RateLimitBackoff: 2 * time.Second,
			CacheTTL:         time.Hour,
		},
		Verify: VerifyConfig{
			MaxSources:  3,
			CheckLinks:  false,
			LinkTimeout: 5 * time.Second,
			LinkWorkers: 4,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			MaxTokens: 2000,
			Timeout:   60 * time.Second,
			Workers:   4,
		},
		Store: StoreConfig{
			Driver:     "sqlite",
			Path:       "candidstance.db",
			Database:   "candidstance",
			Collection: "candidates",
		},
		Credibility: CredibilityConfig{
			UnknownScore: 30,
		},
		HTTP: HTTPConfig{
			UserAgent: "CandidStance/0.1 (+https://github.com/ppiankov/candidstance)",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}
