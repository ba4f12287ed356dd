package core

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by LoadFromEnv.
const EnvPrefix = "CASHIER"

// Memory providers
const (
	MemoryProviderInMemory = "inmemory"
	MemoryProviderFile     = "file"
	MemoryProviderRedis    = "redis"
)

// Trace exporters
const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
)

// Config holds all configuration options for the cashier client.
// It supports layered configuration priority:
//  1. Default values (lowest priority)
//  2. Environment variables
//  3. Configuration file, when WithConfigFile is passed
//  4. Functional options (highest priority)
//
// Example usage:
//
//	cfg, err := NewConfig(
//	    WithAPIBaseURL("https://pos.example.com/starbux/Starbucks"),
//	    WithMemoryProvider(MemoryProviderRedis),
//	    WithRedisURL("redis://localhost:6379"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
type Config struct {
	Name string `json:"name" yaml:"name" split_words:"true"`

	// Remote POS API
	API APIConfig `json:"api" yaml:"api" split_words:"true"`

	// Session storage (token and cart)
	Memory MemoryConfig `json:"memory" yaml:"memory" split_words:"true"`

	// Telemetry configuration (optional module)
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry" split_words:"true"`

	Logging LoggingConfig `json:"logging" yaml:"logging" split_words:"true"`

	Display DisplayConfig `json:"display" yaml:"display" split_words:"true"`

	Development DevelopmentConfig `json:"development" yaml:"development" split_words:"true"`
}

// APIConfig describes where the remote POS API lives.
// Paths are joined onto BaseURL; ImageBaseURL defaults to BaseURL when empty.
type APIConfig struct {
	BaseURL      string        `json:"base_url" yaml:"base_url" split_words:"true"`
	ProductsPath string        `json:"products_path" yaml:"products_path" split_words:"true"`
	ReceiptPath  string        `json:"receipt_path" yaml:"receipt_path" split_words:"true"`
	ReportsPath  string        `json:"reports_path" yaml:"reports_path" split_words:"true"`
	ImageBaseURL string        `json:"image_base_url" yaml:"image_base_url" split_words:"true"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout" split_words:"true"`
	UserAgent    string        `json:"user_agent" yaml:"user_agent" split_words:"true"`
}

// MemoryConfig contains session storage configuration.
// Supports in-memory storage, a local JSON file (default) or Redis.
type MemoryConfig struct {
	Provider  string `json:"provider" yaml:"provider" split_words:"true"`
	RedisURL  string `json:"redis_url" yaml:"redis_url" split_words:"true"`
	RedisDB   int    `json:"redis_db" yaml:"redis_db" split_words:"true"`
	Namespace string `json:"namespace" yaml:"namespace" split_words:"true"`
	FilePath  string `json:"file_path" yaml:"file_path" split_words:"true"`
}

// TelemetryConfig contains tracing and metrics configuration.
// Telemetry is only initialized when Enabled=true. The otlp exporter needs Endpoint;
// the stdout exporter prints spans for local debugging.
type TelemetryConfig struct {
	Enabled      bool    `json:"enabled" yaml:"enabled" split_words:"true"`
	Exporter     string  `json:"exporter" yaml:"exporter" split_words:"true"`
	Endpoint     string  `json:"endpoint" yaml:"endpoint" split_words:"true"`
	Insecure     bool    `json:"insecure" yaml:"insecure" split_words:"true"`
	ServiceName  string  `json:"service_name" yaml:"service_name" split_words:"true"`
	SamplingRate float64 `json:"sampling_rate" yaml:"sampling_rate" split_words:"true"`
}

// LoggingConfig contains logging configuration.
// Output is "stderr", "stdout" or a file path.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" split_words:"true"`
	Format string `json:"format" yaml:"format" split_words:"true"`
	Output string `json:"output" yaml:"output" split_words:"true"`
}

// DisplayConfig controls how amounts are rendered.
type DisplayConfig struct {
	CurrencySymbol string `json:"currency_symbol" yaml:"currency_symbol" split_words:"true"`
}

// DevelopmentConfig contains settings for local development.
// When Enabled=true, logs switch to debug level and spans are printed to stdout.
type DevelopmentConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" split_words:"true"`
}

// Option is a functional option for configuring the client.
// Options are applied in order and can return an error if the configuration is invalid.
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults.
// The defaults target a POS API served from a local PHP host.
func DefaultConfig() *Config {
	return &Config{
		Name: "cashier",
		API: APIConfig{
			BaseURL:      "http://localhost/starbux/Starbucks",
			ProductsPath: "/api/products.php",
			ReceiptPath:  "/api/receipt.php",
			ReportsPath:  "/api/reports.php",
			Timeout:      10 * time.Second,
			UserAgent:    "cashier/" + Version,
		},
		Memory: MemoryConfig{
			Provider:  MemoryProviderFile,
			RedisDB:   RedisDBSessions,
			Namespace: "cashier:session",
			FilePath:  defaultSessionFile(),
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			Exporter:     ExporterOTLP,
			Insecure:     true,
			ServiceName:  "cashier",
			SamplingRate: 1.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Display: DisplayConfig{
			CurrencySymbol: "₱",
		},
	}
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".cashier-session.json"
	}
	return filepath.Join(home, ".cashier", "session.json")
}

// LoadFromEnv overlays environment variables onto the configuration.
// Variables use the CASHIER_ prefix and the split field names, e.g. CASHIER_API_BASE_URL,
// CASHIER_MEMORY_PROVIDER or CASHIER_LOGGING_LEVEL.
// The conventional REDIS_URL, OTEL_EXPORTER_OTLP_ENDPOINT and OTEL_SERVICE_NAME are honoured
// when their CASHIER_ counterparts are unset.
func (c *Config) LoadFromEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return &FrameworkError{Op: "config.LoadFromEnv", Kind: "config", Err: fmt.Errorf("%v: %w", err, ErrInvalidConfiguration)}
	}

	if c.Memory.RedisURL == "" {
		if v := os.Getenv(EnvRedisURL); v != "" {
			c.Memory.RedisURL = v
		}
	}

	if c.Telemetry.Endpoint == "" {
		if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
			c.Telemetry.Endpoint = v
			c.Telemetry.Enabled = true // Auto-enable if OTEL endpoint is present
		}
	}
	if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" && os.Getenv(EnvPrefix+"_TELEMETRY_SERVICE_NAME") == "" {
		c.Telemetry.ServiceName = v
	}

	if c.Development.Enabled {
		c.applyDevelopmentDefaults()
	}
	return nil
}

// LoadFromFile loads configuration from a JSON or YAML file.
// The format is chosen by extension (.json, .yaml, .yml).
//
// Example YAML:
//
//	api:
//	  base_url: https://pos.example.com/starbux/Starbucks
//	  timeout: 5s
//	memory:
//	  provider: redis
//	  redis_url: redis://localhost:6379
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &FrameworkError{Op: "config.LoadFromFile", Kind: "config", ID: path, Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		return &FrameworkError{
			Op:   "config.LoadFromFile",
			Kind: "config",
			ID:   path,
			Err:  fmt.Errorf("unsupported config file extension %q: %w", filepath.Ext(path), ErrInvalidConfiguration),
		}
	}
	if err != nil {
		return &FrameworkError{Op: "config.LoadFromFile", Kind: "config", ID: path, Err: fmt.Errorf("%v: %w", err, ErrInvalidConfiguration)}
	}

	if c.Development.Enabled {
		c.applyDevelopmentDefaults()
	}
	return nil
}

func (c *Config) applyDevelopmentDefaults() {
	c.Logging.Level = "debug"
	c.Logging.Format = "text"
	if !c.Telemetry.Enabled {
		c.Telemetry.Enabled = true
		c.Telemetry.Exporter = ExporterStdout
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api base url is required: %w", ErrMissingConfiguration)
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api base url %q must be an absolute http(s) URL: %w", c.API.BaseURL, ErrInvalidConfiguration)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api timeout must be positive, got %s: %w", c.API.Timeout, ErrInvalidConfiguration)
	}

	switch c.Memory.Provider {
	case MemoryProviderInMemory:
	case MemoryProviderFile:
		if c.Memory.FilePath == "" {
			return fmt.Errorf("memory file path is required for the file provider: %w", ErrMissingConfiguration)
		}
	case MemoryProviderRedis:
		if c.Memory.RedisURL == "" {
			return fmt.Errorf("redis url is required for the redis provider: %w", ErrMissingConfiguration)
		}
		if c.Memory.RedisDB < 0 || c.Memory.RedisDB > 15 {
			return fmt.Errorf("redis db must be between 0 and 15, got %d: %w", c.Memory.RedisDB, ErrInvalidConfiguration)
		}
	default:
		return fmt.Errorf("unknown memory provider %q: %w", c.Memory.Provider, ErrInvalidConfiguration)
	}

	if c.Telemetry.Enabled {
		switch c.Telemetry.Exporter {
		case ExporterOTLP:
			if c.Telemetry.Endpoint == "" {
				return fmt.Errorf("telemetry endpoint is required for the otlp exporter: %w", ErrMissingConfiguration)
			}
		case ExporterStdout:
		default:
			return fmt.Errorf("unknown telemetry exporter %q: %w", c.Telemetry.Exporter, ErrInvalidConfiguration)
		}
	}
	if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
		return fmt.Errorf("sampling rate must be within [0,1], got %v: %w", c.Telemetry.SamplingRate, ErrInvalidConfiguration)
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("log level %q: %w", c.Logging.Level, ErrInvalidConfiguration)
	}
	if f := strings.ToLower(c.Logging.Format); f != "json" && f != "text" {
		return fmt.Errorf("log format must be json or text, got %q: %w", c.Logging.Format, ErrInvalidConfiguration)
	}
	return nil
}

// WithName sets the client name used in logs and telemetry.
func WithName(name string) Option {
	return func(c *Config) error {
		c.Name = name
		if c.Telemetry.ServiceName == "" {
			c.Telemetry.ServiceName = name
		}
		return nil
	}
}

// WithAPIBaseURL sets the base URL of the remote POS API.
func WithAPIBaseURL(baseURL string) Option {
	return func(c *Config) error {
		c.API.BaseURL = strings.TrimRight(baseURL, "/")
		return nil
	}
}

// WithImageBaseURL sets the base URL relative image paths are resolved against.
func WithImageBaseURL(baseURL string) Option {
	return func(c *Config) error {
		c.API.ImageBaseURL = strings.TrimRight(baseURL, "/")
		return nil
	}
}

// WithTimeout sets the per-request timeout of the API client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive: %w", ErrInvalidConfiguration)
		}
		c.API.Timeout = timeout
		return nil
	}
}

// WithMemoryProvider selects the session storage backend.
func WithMemoryProvider(provider string) Option {
	return func(c *Config) error {
		c.Memory.Provider = provider
		return nil
	}
}

// WithRedisURL configures Redis as the session store.
func WithRedisURL(redisURL string) Option {
	return func(c *Config) error {
		c.Memory.RedisURL = redisURL
		c.Memory.Provider = MemoryProviderRedis
		return nil
	}
}

// WithSessionFile configures a local JSON file as the session store.
func WithSessionFile(path string) Option {
	return func(c *Config) error {
		c.Memory.FilePath = path
		c.Memory.Provider = MemoryProviderFile
		return nil
	}
}

// WithOTLPEndpoint enables telemetry exported to an OTLP gRPC collector.
func WithOTLPEndpoint(endpoint string) Option {
	return func(c *Config) error {
		c.Telemetry.Enabled = true
		c.Telemetry.Exporter = ExporterOTLP
		c.Telemetry.Endpoint = endpoint
		return nil
	}
}

// WithStdoutTracing enables telemetry printed to stdout.
func WithStdoutTracing() Option {
	return func(c *Config) error {
		c.Telemetry.Enabled = true
		c.Telemetry.Exporter = ExporterStdout
		return nil
	}
}

// WithLogLevel sets the minimum log level.
func WithLogLevel(level string) Option {
	return func(c *Config) error {
		c.Logging.Level = level
		return nil
	}
}

// WithLogFormat sets the log format, json or text.
func WithLogFormat(format string) Option {
	return func(c *Config) error {
		c.Logging.Format = format
		return nil
	}
}

// WithCurrencySymbol sets the prefix used when rendering amounts.
func WithCurrencySymbol(symbol string) Option {
	return func(c *Config) error {
		c.Display.CurrencySymbol = symbol
		return nil
	}
}

// WithConfigFile loads configuration from a JSON or YAML file.
// Options after this one can override file settings.
func WithConfigFile(path string) Option {
	return func(c *Config) error {
		return c.LoadFromFile(path)
	}
}

// WithDevelopmentMode enables debug logs and stdout tracing.
//
// WARNING: Never enable in production!
func WithDevelopmentMode(enabled bool) Option {
	return func(c *Config) error {
		c.Development.Enabled = enabled
		if enabled {
			c.applyDevelopmentDefaults()
		}
		return nil
	}
}

// NewConfig creates a new configuration with the provided options.
// Configuration is applied in the following order:
//  1. Default values from DefaultConfig()
//  2. Environment variables via LoadFromEnv()
//  3. Functional options (highest priority)
//  4. Validation via Validate()
func NewConfig(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
