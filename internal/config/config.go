package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverValkey    = "valkey"
	DriverRedis     = "redis"
	DriverFirestore = "firestore"
)

// Model providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds the finder service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Models   ModelsConfig   `yaml:"models"`
	Storage  StorageConfig  `yaml:"storage"`
	Matching MatchingConfig `yaml:"matching"`
	Notify   NotifyConfig   `yaml:"notify"`
	Events   EventsConfig   `yaml:"events"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port             int      `yaml:"port"`
	ReadTimeoutSec   int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec  int      `yaml:"write_timeout_sec"`
	ShutdownSec      int      `yaml:"shutdown_timeout_sec"`
	TextTimeoutSec   int      `yaml:"text_timeout_sec"`
	ImageTimeoutSec  int      `yaml:"image_timeout_sec"`
	MaxBodyBytes     int64    `yaml:"max_body_bytes"`
	CORSAllowOrigins []string `yaml:"cors_allow_origins"`
}

// DatabaseConfig holds document database settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, firestore (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ProjectID        string   `yaml:"project_id"`       // firestore only
	CredentialsFile  string   `yaml:"credentials_file"` // firestore and storage; empty = ADC
}

// ModelsConfig selects providers for the description and embedding models.
type ModelsConfig struct {
	Description ModelConfig               `yaml:"description"`
	Embedding   ModelConfig               `yaml:"embedding"`
	Providers   map[string]ProviderConfig `yaml:"providers"`
	Prompts     PromptsConfig             `yaml:"prompts"`
	CacheTTLSec int                       `yaml:"embedding_cache_ttl_sec"` // 0 = no expiry
}

// ModelConfig names one model on one provider.
type ModelConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"` // embedding only, 0 = provider default
}

// ProviderConfig holds model provider credentials and limits.
type ProviderConfig struct {
	APIKey    string  `yaml:"api_key"`
	BaseURL   string  `yaml:"base_url"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second, 0 = unlimited
}

// PromptsConfig holds the prompts sent with images to the description model.
type PromptsConfig struct {
	Describe string `yaml:"describe"`
	Search   string `yaml:"search"`
}

// StorageConfig holds object storage settings.
type StorageConfig struct {
	Bucket         string `yaml:"bucket"`
	MaxObjectBytes int64  `yaml:"max_object_bytes"`
}

// MatchingConfig holds match evaluation policy.
type MatchingConfig struct {
	Threshold *float64 `yaml:"threshold"`
	MaxAlerts int      `yaml:"max_alerts"`
}

// NotifyConfig holds notification fanout settings.
type NotifyConfig struct {
	MaxConcurrency int    `yaml:"max_concurrency"`
	Subject        string `yaml:"subject"`
	EnqueueTimeout int    `yaml:"enqueue_timeout_sec"`
}

// EventsConfig holds the found-item event source settings (valkey/redis drivers).
type EventsConfig struct {
	Enabled   *bool  `yaml:"enabled"`
	Stream    string `yaml:"stream"`
	Group     string `yaml:"group"`
	Consumer  string `yaml:"consumer"`
	BlockMS   int    `yaml:"block_ms"`
	BatchSize int    `yaml:"batch_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references and applying defaults.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// Default prompts sent with images to the description model.
const (
	DefaultDescribePrompt = "Describe this item in detail for a lost-and-found database. " +
		"Include color, type, brand, unique features, and condition."
	DefaultSearchPrompt = "Detailed description of this object for visual search matching. " +
		"Focus on visual traits: color, shape, materials, text."
)

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.TextTimeoutSec <= 0 {
		c.HTTP.TextTimeoutSec = 60
	}
	if c.HTTP.ImageTimeoutSec <= 0 {
		c.HTTP.ImageTimeoutSec = 120
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// leave room to write the error body after the longest upstream deadline
		c.HTTP.WriteTimeoutSec = c.HTTP.ImageTimeoutSec + 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 1 << 20
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "finder:"
	}
	if c.Models.Description.Provider == "" {
		c.Models.Description.Provider = ProviderGemini
	}
	if c.Models.Description.Model == "" && c.Models.Description.Provider == ProviderGemini {
		c.Models.Description.Model = "gemini-2.0-flash"
	}
	if c.Models.Embedding.Provider == "" {
		c.Models.Embedding.Provider = ProviderGemini
	}
	if c.Models.Embedding.Model == "" && c.Models.Embedding.Provider == ProviderGemini {
		c.Models.Embedding.Model = "text-embedding-004"
	}
	if c.Models.Prompts.Describe == "" {
		c.Models.Prompts.Describe = DefaultDescribePrompt
	}
	if c.Models.Prompts.Search == "" {
		c.Models.Prompts.Search = DefaultSearchPrompt
	}
	if c.Storage.MaxObjectBytes <= 0 {
		c.Storage.MaxObjectBytes = 20 << 20
	}
	if c.Matching.Threshold == nil {
		t := 0.60
		c.Matching.Threshold = &t
	}
	if c.Matching.MaxAlerts <= 0 {
		c.Matching.MaxAlerts = 10000
	}
	if c.Notify.MaxConcurrency <= 0 {
		c.Notify.MaxConcurrency = 16
	}
	if c.Notify.EnqueueTimeout <= 0 {
		c.Notify.EnqueueTimeout = 30
	}
	if c.Events.Enabled == nil {
		enabled := true
		c.Events.Enabled = &enabled
	}
	if c.Events.Stream == "" {
		c.Events.Stream = c.Database.KeyPrefix + "events:found_items"
	}
	if c.Events.Group == "" {
		c.Events.Group = "matcher"
	}
	if c.Events.Consumer == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "finder"
		}
		c.Events.Consumer = host
	}
	if c.Events.BlockMS <= 0 {
		c.Events.BlockMS = 5000
	}
	if c.Events.BatchSize <= 0 {
		c.Events.BatchSize = 16
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverFirestore:
		if c.Database.ProjectID == "" {
			return fmt.Errorf("database.project_id is required for driver %q", DriverFirestore)
		}
	default:
		return fmt.Errorf("database.driver must be one of valkey, redis, firestore, got %q", c.Database.Driver)
	}

	if err := c.validateModel("models.description", c.Models.Description); err != nil {
		return err
	}
	if err := c.validateModel("models.embedding", c.Models.Embedding); err != nil {
		return err
	}
	for name, p := range c.Models.Providers {
		if p.RateLimit < 0 {
			return fmt.Errorf("models.providers.%s.rate_limit must not be negative", name)
		}
	}

	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required")
	}

	if t := c.Matching.Threshold; t != nil && (*t < -1 || *t > 1) {
		return fmt.Errorf("matching.threshold must be within [-1, 1], got %v", *t)
	}
	return nil
}

func (c *Config) validateModel(path string, m ModelConfig) error {
	switch m.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("%s.provider must be %q or %q, got %q", path, ProviderGemini, ProviderOpenAI, m.Provider)
	}
	if m.Model == "" {
		return fmt.Errorf("%s.model is required", path)
	}
	if m.Dimensions < 0 {
		return fmt.Errorf("%s.dimensions must not be negative", path)
	}
	return nil
}

// Provider returns the credentials for a provider name (zero value when not configured).
func (c *Config) Provider(name string) ProviderConfig {
	return c.Models.Providers[name]
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
