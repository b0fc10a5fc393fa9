// Package config provides configuration management for the modelgate gateway.
// Configuration is loaded from YAML with environment variable expansion,
// layered on top of defaults, and validated before use. Provider credentials
// may be set in the file (typically via ${VAR} references) or resolved from
// the process environment at request time.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete gateway configuration.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Providers      ProvidersConfig      `yaml:"providers"`
	CORS           CORSConfig           `yaml:"cors"`
	Chat           ChatConfig           `yaml:"chat"`
	Queue          QueueConfig          `yaml:"queue"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// ServerConfig holds the HTTP server's operational parameters.
type ServerConfig struct {
	// Port specifies the HTTP server port (default: 8080)
	Port int `yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body (default: 30s)
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It must comfortably exceed the chat timeout since token
	// streams are written incrementally (default: 90s)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing request headers (default: 1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// ShutdownTimeout specifies how long to wait for graceful shutdown
	// before forcing termination (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ProvidersConfig holds credentials for the upstream providers. Empty values
// fall back to the process environment when a provider is actually requested;
// providers that are never requested are never validated.
type ProvidersConfig struct {
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Volcengine VolcengineConfig `yaml:"volcengine"`
}

// OpenAIConfig configures the OpenAI provider client.
type OpenAIConfig struct {
	// APIKey authenticates against the OpenAI API. Falls back to the
	// OPENAI_API_KEY environment variable.
	APIKey string `yaml:"api_key"`
}

// VolcengineConfig configures the Volcengine Ark provider client, which
// speaks the OpenAI-compatible completion protocol.
type VolcengineConfig struct {
	// APIKey authenticates against the Ark API. Falls back to the
	// VOLCENGINE_API_KEY (or legacy VOLC_API_KEY) environment variable.
	APIKey string `yaml:"api_key"`

	// BaseURL is the Ark endpoint. Defaults to the public Beijing endpoint.
	BaseURL string `yaml:"base_url"`
}

// DefaultVolcengineBaseURL is the public Ark endpoint used when none is
// configured.
const DefaultVolcengineBaseURL = "https://ark.cn-beijing.volces.com/api/v3"

// CORSConfig holds the cross-origin allow-list. An empty list is permissive:
// the request's Origin header is echoed back.
type CORSConfig struct {
	// AllowedOrigins is the list of permitted origins. A "*" entry allows
	// any origin. Falls back to the comma-separated CORS_ORIGIN environment
	// variable when empty.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ChatConfig holds the chat pipeline's policy knobs.
type ChatConfig struct {
	// UpstreamTimeout bounds a single upstream completion call (default: 60s).
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`

	// DefaultTemperature is used when neither the request nor the resolved
	// preset supplies one (default: 0.3).
	DefaultTemperature float64 `yaml:"default_temperature"`

	// FallbackSystemPrompt is the persona of last resort, used when no agent,
	// request field, or catalog default yields a system prompt.
	FallbackSystemPrompt string `yaml:"fallback_system_prompt"`
}

// QueueConfig controls the bounded admission queue in front of /chat.
type QueueConfig struct {
	// Enabled determines if the queue middleware is active.
	Enabled bool `yaml:"enabled"`

	// MaxSize is the maximum number of requests allowed in the queue.
	MaxSize int64 `yaml:"max_size"`
}

// CircuitBreakerConfig tunes the breaker guarding each provider client. The
// breaker never retries; it only fails fast once a provider has proven
// unhealthy.
type CircuitBreakerConfig struct {
	// MaxRequests is the number of probe requests allowed while half-open.
	MaxRequests uint32 `yaml:"max_requests"`

	// Interval is the cyclic period for clearing counts in the closed state.
	Interval time.Duration `yaml:"interval"`

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration `yaml:"timeout"`

	// FailureThreshold is the consecutive-failure count that trips the breaker.
	FailureThreshold uint32 `yaml:"failure_threshold"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is json or console.
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file (or a partial
// file) is supplied.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    90 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Providers: ProvidersConfig{
			Volcengine: VolcengineConfig{
				BaseURL: DefaultVolcengineBaseURL,
			},
		},
		Chat: ChatConfig{
			UpstreamTimeout:      60 * time.Second,
			DefaultTemperature:   0.3,
			FallbackSystemPrompt: "你是一个专业的后端智能体。",
		},
		Queue: QueueConfig{
			Enabled: false,
			MaxSize: 1000,
		},
		CircuitBreaker: CircuitBreakerConfig{
			MaxRequests:      1,
			Interval:         30 * time.Second,
			Timeout:          time.Minute,
			FailureThreshold: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadFile loads configuration from a YAML file.
func LoadFile(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// expandEnvVars resolves environment variable references within configuration
// strings. It supports ${VAR} substitution and the ${VAR:-default} default
// value syntax, and resolves nested references until a fixed point.
func expandEnvVars(s string) string {
	result := os.Expand(s, func(key string) string {
		if i := strings.Index(key, ":-"); i >= 0 {
			envKey := key[:i]
			defaultValue := key[i+2:]
			if val := os.Getenv(envKey); val != "" {
				return val
			}
			return defaultValue
		}
		return os.Getenv(key)
	})

	prev := ""
	for prev != result {
		prev = result
		result = os.Expand(result, os.Getenv)
	}

	return result
}

// Load loads configuration from an io.Reader, expanding environment
// variables, layering the document over defaults, and validating the result.
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	config := DefaultConfig()

	dec := yaml.NewDecoder(strings.NewReader(expandEnvVars(string(data))))
	if err := dec.Decode(config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// ParseOrigins splits a comma-separated origin list, trimming whitespace and
// dropping empty items. It is used for the CORS_ORIGIN environment fallback.
func ParseOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("negative read timeout: %v", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("negative write timeout: %v", c.Server.WriteTimeout)
	}
	if c.Server.MaxHeaderBytes < 0 {
		return fmt.Errorf("negative max header bytes: %d", c.Server.MaxHeaderBytes)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("negative shutdown timeout: %v", c.Server.ShutdownTimeout)
	}

	if c.Chat.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive: %v", c.Chat.UpstreamTimeout)
	}
	if c.Chat.DefaultTemperature < 0 || c.Chat.DefaultTemperature > 2 {
		return fmt.Errorf("default temperature out of range [0,2]: %v", c.Chat.DefaultTemperature)
	}

	if c.Queue.Enabled && c.Queue.MaxSize <= 0 {
		return fmt.Errorf("queue max size must be positive: %d", c.Queue.MaxSize)
	}

	if c.CircuitBreaker.FailureThreshold == 0 {
		return fmt.Errorf("circuit breaker failure threshold must be positive")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}
