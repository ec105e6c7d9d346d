package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration for Curio.
// It is loaded from ~/.curio/config.yaml and can be overridden by environment variables.
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm" yaml:"llm"`
	Discovery DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	Tutor     TutorConfig     `mapstructure:"tutor" yaml:"tutor"`
	Memory    MemoryConfig    `mapstructure:"memory" yaml:"memory"`
	Data      DataConfig      `mapstructure:"data" yaml:"data"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	A2A       A2AConfig       `mapstructure:"a2a" yaml:"a2a"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// LLMConfig contains configuration for Language Model providers.
type LLMConfig struct {
	// DefaultProvider specifies which provider to use by default (e.g., "gemini", "ollama")
	DefaultProvider string `mapstructure:"default_provider" yaml:"default_provider"`
	// Providers maps provider names to their specific configuration
	Providers map[string]ProviderConfig `mapstructure:"providers" yaml:"providers"`
	// RequestTimeoutSec bounds a single model call end to end
	RequestTimeoutSec int `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`
}

// ProviderConfig contains configuration for a specific LLM provider.
type ProviderConfig struct {
	// Endpoint is the API base URL
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	// APIKey is the authentication key for the provider
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	// Model is the primary model to use with this provider
	Model string `mapstructure:"model" yaml:"model,omitempty"`
	// FallbackModels are tried in order when the primary model is rate
	// limited or unavailable
	FallbackModels []string `mapstructure:"fallback_models" yaml:"fallback_models,omitempty"`
	// Temperature overrides the provider's default sampling temperature when > 0
	Temperature float64 `mapstructure:"temperature" yaml:"temperature,omitempty"`
	// MaxTokens caps the response length when > 0
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens,omitempty"`
}

// DiscoveryConfig controls the agentic persona discovery loop.
type DiscoveryConfig struct {
	// MaxIterations is the hard cap on reasoning iterations per search
	MaxIterations int `mapstructure:"max_iterations" yaml:"max_iterations"`
	// DefaultRegion is used when a search names no region
	DefaultRegion string `mapstructure:"default_region" yaml:"default_region"`
	// ValidateExpertise runs the rubric-based expertise check on candidates
	ValidateExpertise bool `mapstructure:"validate_expertise" yaml:"validate_expertise"`
	// WikiLookup enables biography fetches for discovered personas
	WikiLookup bool `mapstructure:"wiki_lookup" yaml:"wiki_lookup"`
	// WikiTimeoutSec bounds a single biography fetch
	WikiTimeoutSec int `mapstructure:"wiki_timeout_sec" yaml:"wiki_timeout_sec"`
}

// TutorConfig controls persona chat sessions.
type TutorConfig struct {
	// HistoryLimit is the number of prior messages sent with each turn
	HistoryLimit int `mapstructure:"history_limit" yaml:"history_limit"`
	// MemoryRecall is the number of remembered snippets injected per turn
	MemoryRecall int `mapstructure:"memory_recall" yaml:"memory_recall"`
	// SaveTranscripts persists chat messages to the local database
	SaveTranscripts bool `mapstructure:"save_transcripts" yaml:"save_transcripts"`
}

// MemoryConfig controls the conversational memory store.
type MemoryConfig struct {
	// Enabled turns snippet capture and recall on or off
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// EmbeddingModel is the model used to embed snippets (e.g., "text-embedding-004")
	EmbeddingModel string `mapstructure:"embedding_model" yaml:"embedding_model"`
	// RecallLimit is the maximum snippets returned per recall
	RecallLimit int `mapstructure:"recall_limit" yaml:"recall_limit"`
	// MinSimilarity is the cosine similarity floor for embedding recall (0.0-1.0)
	MinSimilarity float64 `mapstructure:"min_similarity" yaml:"min_similarity"`
}

// DataConfig contains configuration for local persistence.
type DataConfig struct {
	// DBPath is the path to the SQLite database
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// ServerConfig contains configuration for the HTTP API server.
type ServerConfig struct {
	// Host is the listen address
	Host string `mapstructure:"host" yaml:"host"`
	// Port is the listen port
	Port int `mapstructure:"port" yaml:"port"`
	// ReadTimeoutSec bounds request reads
	ReadTimeoutSec int `mapstructure:"read_timeout_sec" yaml:"read_timeout_sec"`
	// WriteTimeoutSec bounds response writes; discovery runs can be slow
	WriteTimeoutSec int `mapstructure:"write_timeout_sec" yaml:"write_timeout_sec"`
	// AllowedOrigins restricts WebSocket upgrades; "*" allows any origin
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// A2AConfig contains configuration for the agent-to-agent surface.
type A2AConfig struct {
	// Host is the listen address for the A2A server
	Host string `mapstructure:"host" yaml:"host"`
	// Port is the listen port for the A2A server
	Port int `mapstructure:"port" yaml:"port"`
	// AgentURL is the externally reachable URL advertised on the agent card.
	// Derived from host and port when empty.
	AgentURL string `mapstructure:"agent_url" yaml:"agent_url,omitempty"`
}

// LoggingConfig contains configuration for application logging.
type LoggingConfig struct {
	// Level is the log level ("debug", "info", "warn", "error")
	Level string `mapstructure:"level" yaml:"level"`
	// File is the path to the log file
	File string `mapstructure:"file" yaml:"file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	curioDir := filepath.Join(homeDir, ".curio")

	return &Config{
		LLM: LLMConfig{
			DefaultProvider:   "gemini",
			RequestTimeoutSec: 120,
			Providers: map[string]ProviderConfig{
				"gemini": {
					Endpoint: "https://generativelanguage.googleapis.com/v1beta",
					APIKey:   "",
					Model:    "gemini-2.5-flash",
					FallbackModels: []string{
						"gemini-2.0-flash-exp",
						"gemini-1.5-flash",
					},
				},
				"ollama": {
					Endpoint: "http://127.0.0.1:11434",
					Model:    "llama3.2",
				},
			},
		},
		Discovery: DiscoveryConfig{
			MaxIterations:     10,
			DefaultRegion:     "Global",
			ValidateExpertise: true,
			WikiLookup:        true,
			WikiTimeoutSec:    10,
		},
		Tutor: TutorConfig{
			HistoryLimit:    20,
			MemoryRecall:    3,
			SaveTranscripts: true,
		},
		Memory: MemoryConfig{
			Enabled:        true,
			EmbeddingModel: "text-embedding-004",
			RecallLimit:    3,
			MinSimilarity:  0.3,
		},
		Data: DataConfig{
			DBPath: filepath.Join(curioDir, "curio.db"),
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeoutSec:  30,
			WriteTimeoutSec: 120,
			AllowedOrigins:  []string{"*"},
		},
		A2A: A2AConfig{
			Host: "127.0.0.1",
			Port: 8081,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(curioDir, "logs", "curio.log"),
		},
	}
}

// Load reads configuration from the default location (~/.curio/config.yaml)
// and merges with environment variables. If no config file exists, it creates
// one with default values.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".curio", "config.yaml")
	return LoadFromPath(configPath)
}

// LoadFromPath reads configuration from a specific file path and merges with
// environment variables. If the file doesn't exist, it creates one with
// default values.
func LoadFromPath(path string) (*Config, error) {
	// A .env alongside the working directory may carry GEMINI_API_KEY.
	// Missing files are fine.
	_ = godotenv.Load()

	path = expandPath(path)

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := writeConfigFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Enable environment variable overrides
	// Example: CURIO_LLM_PROVIDERS_GEMINI_API_KEY
	v.SetEnvPrefix("CURIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Data.DBPath = expandPath(cfg.Data.DBPath)
	cfg.Logging.File = expandPath(cfg.Logging.File)

	cfg.applyProviderDefaults()

	return &cfg, nil
}

// applyProviderDefaults fills gaps a hand-edited config commonly leaves:
// a bare GEMINI_API_KEY in the environment, or a gemini provider entry
// without endpoint or fallback chain.
func (c *Config) applyProviderDefaults() {
	gemini, ok := c.LLM.Providers["gemini"]
	if !ok {
		return
	}

	defaults := Default().LLM.Providers["gemini"]

	if gemini.APIKey == "" {
		gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if gemini.Endpoint == "" {
		gemini.Endpoint = defaults.Endpoint
	}
	if gemini.Model == "" {
		gemini.Model = defaults.Model
	}
	if len(gemini.FallbackModels) == 0 {
		gemini.FallbackModels = defaults.FallbackModels
	}

	c.LLM.Providers["gemini"] = gemini
}

// Save writes the current configuration to the default config file location.
func (c *Config) Save() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".curio", "config.yaml")
	return c.SaveToPath(configPath)
}

// SaveToPath writes the current configuration to a specific file path.
func (c *Config) SaveToPath(path string) error {
	path = expandPath(path)

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return writeConfigFile(path, c)
}

// GetDataDir returns the Curio data directory path (~/.curio).
func (c *Config) GetDataDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".curio")
}

// GetConfigPath returns the full path to the config file.
func (c *Config) GetConfigPath() string {
	return filepath.Join(c.GetDataDir(), "config.yaml")
}

// ServerAddr returns the host:port string for the HTTP API server.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// A2AAddr returns the host:port string for the A2A server.
func (c *Config) A2AAddr() string {
	return fmt.Sprintf("%s:%d", c.A2A.Host, c.A2A.Port)
}

// A2AAgentURL returns the advertised agent URL, deriving one from the listen
// address when not set explicitly.
func (c *Config) A2AAgentURL() string {
	if c.A2A.AgentURL != "" {
		return c.A2A.AgentURL
	}
	return fmt.Sprintf("http://%s:%d/", c.A2A.Host, c.A2A.Port)
}

// EnsureDirectories creates all necessary directories for Curio operation.
// This includes the data directory, logs directory, and database directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.GetDataDir(),
		filepath.Dir(c.Logging.File),
		filepath.Dir(c.Data.DBPath),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Validate checks the configuration for common errors and inconsistencies.
func (c *Config) Validate() error {
	if c.LLM.DefaultProvider == "" {
		return fmt.Errorf("llm.default_provider cannot be empty")
	}

	if _, exists := c.LLM.Providers[c.LLM.DefaultProvider]; !exists {
		return fmt.Errorf("default provider '%s' not found in providers map", c.LLM.DefaultProvider)
	}

	if c.Discovery.MaxIterations < 1 || c.Discovery.MaxIterations > 50 {
		return fmt.Errorf("discovery.max_iterations must be between 1 and 50")
	}

	if c.Discovery.DefaultRegion == "" {
		return fmt.Errorf("discovery.default_region cannot be empty")
	}

	if c.Memory.MinSimilarity < 0 || c.Memory.MinSimilarity > 1 {
		return fmt.Errorf("memory.min_similarity must be between 0.0 and 1.0")
	}

	if c.Tutor.HistoryLimit < 0 {
		return fmt.Errorf("tutor.history_limit cannot be negative")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.A2A.Port < 1 || c.A2A.Port > 65535 {
		return fmt.Errorf("a2a.port must be between 1 and 65535")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", c.Logging.Level)
	}

	return nil
}

// writeConfigFile writes a Config struct to a YAML file.
// Uses gopkg.in/yaml.v3 directly to ensure proper tag-based serialization.
func writeConfigFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// expandPath expands ~ to the user's home directory in a path string.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
