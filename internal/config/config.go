package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds service settings loaded from aibu.yml, the environment and
// command-line flags, in increasing order of precedence.
type Config struct {
	Server    Server    `yaml:"server"`
	LLM       LLM       `yaml:"llm"`
	Retry     Retry     `yaml:"retry"`
	Store     Store     `yaml:"store"`
	Knowledge Knowledge `yaml:"knowledge"`
	Logging   Logging   `yaml:"logging"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr         string        `yaml:"addr,omitempty" validate:"required"`
	ReadTimeout  time.Duration `yaml:"readTimeout,omitempty" validate:"min=0"`
	WriteTimeout time.Duration `yaml:"writeTimeout,omitempty" validate:"min=0"`
}

// LLM selects and configures the model provider.
type LLM struct {
	Provider    string        `yaml:"provider,omitempty" validate:"oneof=gemini openai"`
	Model       string        `yaml:"model,omitempty"`
	APIKey      string        `yaml:"apiKey,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty" validate:"min=0"`
	Temperature float32       `yaml:"temperature,omitempty" validate:"min=0,max=2"`
}

// Retry configures the generation-retry policy.
type Retry struct {
	MaxAttempts     int           `yaml:"maxAttempts,omitempty" validate:"min=1,max=10"`
	CitationRetries *int          `yaml:"citationRetries,omitempty" validate:"omitnil,min=0"` // nil means 1; 0 disables
	Backoff         string        `yaml:"backoff,omitempty" validate:"oneof=none constant exponential"`
	BaseDelay       time.Duration `yaml:"baseDelay,omitempty" validate:"min=0"`
	MaxDelay        time.Duration `yaml:"maxDelay,omitempty" validate:"min=0"`
}

// Store configures where judgments are persisted for sharing.
type Store struct {
	Driver string        `yaml:"driver,omitempty" validate:"oneof=memory sqlite"`
	Path   string        `yaml:"path,omitempty" validate:"required_if=Driver sqlite"`
	TTL    time.Duration `yaml:"ttl,omitempty" validate:"gt=0"`
}

// Knowledge configures the reference snippet supplier.
type Knowledge struct {
	SeedFile    string        `yaml:"seedFile,omitempty"`
	KuzuPath    string        `yaml:"kuzuPath,omitempty"`
	MaxSnippets int           `yaml:"maxSnippets,omitempty" validate:"min=0,max=10"`
	CacheTTL    time.Duration `yaml:"cacheTTL,omitempty" validate:"min=0"`
}

// Logging configures the zap logger.
type Logging struct {
	Level  string `yaml:"level,omitempty" validate:"oneof=debug info warn error"`
	Format string `yaml:"format,omitempty" validate:"oneof=json console"`
}

// Load attempts to read aibu.yml or aibu.yaml from the given directory.
// Returns a zero-value config (not an error) if no config file exists.
func Load(dir string) (*Config, error) {
	for _, name := range []string{"aibu.yml", "aibu.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		return &cfg, nil
	}
	return &Config{}, nil
}

// LoadFile reads a config from an explicit path. Unlike Load, a missing file
// is an error.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables. lookup is usually
// os.LookupEnv; tests pass a map-backed function.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.Server.Addr, "AIBU_ADDR")
	set(&c.LLM.Provider, "AIBU_PROVIDER")
	set(&c.LLM.Model, "AIBU_MODEL")
	set(&c.Store.Path, "AIBU_STORE")
	set(&c.Logging.Level, "AIBU_LOG_LEVEL")

	// Keys follow the provider so a Gemini key is never sent to OpenAI.
	switch c.provider() {
	case "openai":
		set(&c.LLM.APIKey, "OPENAI_API_KEY")
	default:
		set(&c.LLM.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	}
}

func (c *Config) provider() string {
	if c.LLM.Provider == "" {
		return "gemini"
	}
	return c.LLM.Provider
}

// Defaults fills every unset field with its default value.
func (c *Config) Defaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 90 * time.Second
	}

	c.LLM.Provider = c.provider()
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.Model = "gpt-4o-mini"
		default:
			c.LLM.Model = "gemini-2.5-flash"
		}
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}

	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 2
	}
	if c.Retry.CitationRetries == nil {
		one := 1
		c.Retry.CitationRetries = &one
	}
	if c.Retry.Backoff == "" {
		c.Retry.Backoff = "none"
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = 500 * time.Millisecond
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = 5 * time.Second
	}

	if c.Store.Driver == "" {
		if c.Store.Path != "" {
			c.Store.Driver = "sqlite"
		} else {
			c.Store.Driver = "memory"
		}
	}
	if c.Store.TTL == 0 {
		c.Store.TTL = 30 * 24 * time.Hour
	}

	if c.Knowledge.MaxSnippets == 0 {
		c.Knowledge.MaxSnippets = 4
	}
	if c.Knowledge.CacheTTL == 0 {
		c.Knowledge.CacheTTL = time.Hour
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate checks value ranges. Call it after Defaults.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
