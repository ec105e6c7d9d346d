package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.LLM.DefaultProvider != "gemini" {
		t.Errorf("expected default provider 'gemini', got '%s'", cfg.LLM.DefaultProvider)
	}

	if cfg.Discovery.MaxIterations != 10 {
		t.Errorf("expected max_iterations 10, got %d", cfg.Discovery.MaxIterations)
	}

	if cfg.Discovery.DefaultRegion != "Global" {
		t.Errorf("expected default region 'Global', got '%s'", cfg.Discovery.DefaultRegion)
	}

	if !cfg.Memory.Enabled {
		t.Error("expected memory to be enabled by default")
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}

	if len(cfg.LLM.Providers) == 0 {
		t.Error("expected default providers to be populated")
	}

	gemini, exists := cfg.LLM.Providers["gemini"]
	if !exists {
		t.Fatal("expected 'gemini' provider to exist")
	}
	if gemini.Model != "gemini-2.5-flash" {
		t.Errorf("expected gemini model 'gemini-2.5-flash', got '%s'", gemini.Model)
	}
	if len(gemini.FallbackModels) != 2 {
		t.Errorf("expected 2 fallback models, got %d", len(gemini.FallbackModels))
	}
	if gemini.FallbackModels[0] != "gemini-2.0-flash-exp" {
		t.Errorf("unexpected first fallback model: %s", gemini.FallbackModels[0])
	}

	ollama, exists := cfg.LLM.Providers["ollama"]
	if !exists {
		t.Fatal("expected 'ollama' provider to exist")
	}
	if ollama.Endpoint != "http://127.0.0.1:11434" {
		t.Errorf("expected ollama endpoint 'http://127.0.0.1:11434', got '%s'", ollama.Endpoint)
	}
}

func TestLoadFromPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, ".curio", "config.yaml")

	// Load config (should create default)
	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	if cfg.LLM.DefaultProvider != "gemini" {
		t.Errorf("expected default provider 'gemini', got '%s'", cfg.LLM.DefaultProvider)
	}

	// Load again to test reading existing file
	cfg2, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load existing config: %v", err)
	}

	if cfg2.LLM.DefaultProvider != cfg.LLM.DefaultProvider {
		t.Error("config values changed on reload")
	}
	if cfg2.Discovery.MaxIterations != cfg.Discovery.MaxIterations {
		t.Error("discovery values changed on reload")
	}
}

func TestSaveToPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, ".curio", "config.yaml")

	cfg := Default()
	cfg.LLM.DefaultProvider = "ollama"
	cfg.Discovery.MaxIterations = 5
	cfg.Discovery.ValidateExpertise = false

	if err := cfg.SaveToPath(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}

	if loaded.LLM.DefaultProvider != "ollama" {
		t.Errorf("expected provider 'ollama', got '%s'", loaded.LLM.DefaultProvider)
	}
	if loaded.Discovery.MaxIterations != 5 {
		t.Errorf("expected max_iterations 5, got %d", loaded.Discovery.MaxIterations)
	}
	if loaded.Discovery.ValidateExpertise {
		t.Error("expected validate_expertise to be false")
	}
}

func TestGeminiAPIKeyFromEnvironment(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	t.Setenv("GEMINI_API_KEY", "test-key-from-env")

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.LLM.Providers["gemini"].APIKey != "test-key-from-env" {
		t.Errorf("expected gemini api key from environment, got '%s'",
			cfg.LLM.Providers["gemini"].APIKey)
	}
}

func TestProviderDefaultsFillGaps(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	// A sparse hand-written config: gemini with only an API key.
	sparse := "llm:\n  default_provider: gemini\n  providers:\n    gemini:\n      api_key: abc123\ndiscovery:\n  max_iterations: 10\n  default_region: Global\nlogging:\n  level: info\nserver:\n  port: 8080\na2a:\n  port: 8081\n"
	if err := os.WriteFile(configPath, []byte(sparse), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	gemini := cfg.LLM.Providers["gemini"]
	if gemini.APIKey != "abc123" {
		t.Errorf("expected api key preserved, got '%s'", gemini.APIKey)
	}
	if gemini.Endpoint == "" {
		t.Error("expected endpoint filled from defaults")
	}
	if gemini.Model != "gemini-2.5-flash" {
		t.Errorf("expected model filled from defaults, got '%s'", gemini.Model)
	}
	if len(gemini.FallbackModels) != 2 {
		t.Errorf("expected fallback chain filled from defaults, got %v", gemini.FallbackModels)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid default", func(c *Config) {}, ""},
		{"empty provider", func(c *Config) { c.LLM.DefaultProvider = "" }, "default_provider"},
		{"unknown provider", func(c *Config) { c.LLM.DefaultProvider = "nope" }, "not found"},
		{"zero iterations", func(c *Config) { c.Discovery.MaxIterations = 0 }, "max_iterations"},
		{"too many iterations", func(c *Config) { c.Discovery.MaxIterations = 100 }, "max_iterations"},
		{"empty region", func(c *Config) { c.Discovery.DefaultRegion = "" }, "default_region"},
		{"bad similarity", func(c *Config) { c.Memory.MinSimilarity = 1.5 }, "min_similarity"},
		{"negative history", func(c *Config) { c.Tutor.HistoryLimit = -1 }, "history_limit"},
		{"bad server port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad a2a port", func(c *Config) { c.A2A.Port = 70000 }, "a2a.port"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected valid config, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := Default()
	dataDir := cfg.GetDataDir()

	homeDir, _ := os.UserHomeDir()
	expected := filepath.Join(homeDir, ".curio")

	if dataDir != expected {
		t.Errorf("expected data dir '%s', got '%s'", expected, dataDir)
	}
}

func TestServerAddr(t *testing.T) {
	cfg := Default()

	if cfg.ServerAddr() != "127.0.0.1:8080" {
		t.Errorf("unexpected server addr: %s", cfg.ServerAddr())
	}
	if cfg.A2AAddr() != "127.0.0.1:8081" {
		t.Errorf("unexpected a2a addr: %s", cfg.A2AAddr())
	}
}

func TestA2AAgentURL(t *testing.T) {
	cfg := Default()

	if cfg.A2AAgentURL() != "http://127.0.0.1:8081/" {
		t.Errorf("unexpected derived agent url: %s", cfg.A2AAgentURL())
	}

	cfg.A2A.AgentURL = "https://agents.example.com/curio"
	if cfg.A2AAgentURL() != "https://agents.example.com/curio" {
		t.Errorf("explicit agent url not honored: %s", cfg.A2AAgentURL())
	}
}

func TestExpandPath(t *testing.T) {
	homeDir, _ := os.UserHomeDir()

	expanded := expandPath("~/test/path")
	expected := filepath.Join(homeDir, "test", "path")

	if expanded != expected {
		t.Errorf("expected '%s', got '%s'", expected, expanded)
	}

	absolute := expandPath("/absolute/path")
	if absolute != "/absolute/path" {
		t.Errorf("absolute path should be unchanged, got '%s'", absolute)
	}
}

func TestEnsureDirectories(t *testing.T) {
	tempDir := t.TempDir()

	cfg := Default()
	cfg.Data.DBPath = filepath.Join(tempDir, "data", "curio.db")
	cfg.Logging.File = filepath.Join(tempDir, "logs", "curio.log")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("failed to ensure directories: %v", err)
	}

	for _, dir := range []string{
		filepath.Join(tempDir, "data"),
		filepath.Join(tempDir, "logs"),
	} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s to exist", dir)
		}
	}
}
