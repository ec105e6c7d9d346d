// Package config provides configuration management for Curio.
//
// # Overview
//
// The config package uses Viper to load configuration from YAML files and
// environment variables. It provides a type-safe configuration structure with
// validation, default values, and automatic file creation.
//
// # Configuration File
//
// The configuration is stored at ~/.curio/config.yaml and is automatically
// created with sensible defaults on first use. The file structure mirrors
// the Go structs defined in this package.
//
// # Environment Variables
//
// All configuration values can be overridden using environment variables
// with the CURIO_ prefix. Nested fields are separated by underscores.
//
// Examples:
//   - CURIO_LLM_DEFAULT_PROVIDER=ollama
//   - CURIO_LLM_PROVIDERS_GEMINI_API_KEY=AIza...
//   - CURIO_DISCOVERY_MAX_ITERATIONS=5
//   - CURIO_LOGGING_LEVEL=debug
//
// A bare GEMINI_API_KEY variable (optionally via a .env file in the working
// directory) is also honored for the gemini provider when no key is set,
// since that is how most users carry their key around.
//
// # Configuration Sections
//
//   - LLM: model provider configuration (Gemini, Ollama) with fallback chains
//   - Discovery: agentic persona search limits and validation toggles
//   - Tutor: chat session history and memory injection
//   - Memory: conversational snippet capture and recall
//   - Data: local SQLite database location
//   - Server: HTTP API and WebSocket listen configuration
//   - A2A: agent-to-agent server and advertised agent URL
//   - Logging: log level and output file configuration
//
// # Path Expansion
//
// The package automatically expands ~ to the user's home directory in
// all path configurations, making config files portable across systems.
//
// # Validation
//
// The Validate() method checks configuration for common errors:
//   - Provider existence and consistency
//   - Valid enum values (log level)
//   - Numeric range validation (iterations, ports, similarity)
//
// # Thread Safety
//
// Config instances are not thread-safe. If you need concurrent access,
// wrap the config in a sync.RWMutex or create separate instances.
package config
