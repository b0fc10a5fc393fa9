package provider

import (
	"fmt"
	"os"
	"sync"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/juntao/modelgate/catalog"
	"github.com/juntao/modelgate/config"
	"github.com/juntao/modelgate/errors"
)

// Env resolves an environment variable. It is injectable so tests can run
// against a fixed environment instead of the process one.
type Env func(key string) string

// Factory produces one completion client per provider. Validation is lazy: a
// provider's credential is only checked when that provider is actually
// requested. Construction is deduplicated with singleflight and the resulting
// clients are cached for the process lifetime, keyed by a fingerprint of the
// resolved credentials, so a credential rotation picked up from a reloaded
// config yields a fresh client rather than a stale one.
type Factory struct {
	cfg     config.ProvidersConfig
	breaker config.CircuitBreakerConfig
	logger  *zap.Logger
	env     Env

	mu      sync.RWMutex
	clients map[string]*Client
	group   singleflight.Group
}

// Option customizes a Factory.
type Option func(*Factory)

// WithEnv overrides the environment lookup used for credential fallback.
func WithEnv(env Env) Option {
	return func(f *Factory) { f.env = env }
}

// NewFactory creates a client factory. No credentials are validated here.
func NewFactory(cfg config.ProvidersConfig, breaker config.CircuitBreakerConfig, logger *zap.Logger, opts ...Option) *Factory {
	f := &Factory{
		cfg:     cfg,
		breaker: breaker,
		logger:  logger,
		env:     os.Getenv,
		clients: make(map[string]*Client),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Status reports, per provider, whether a credential is resolvable. It is
// consumed by the healthcheck endpoint and never fails.
type Status struct {
	OpenAIConfigured     bool
	VolcengineConfigured bool
}

// Status reports which providers have a resolvable credential.
func (f *Factory) Status() Status {
	return Status{
		OpenAIConfigured:     f.openAIKey() != "",
		VolcengineConfigured: f.volcengineKey() != "",
	}
}

// Client returns the cached client for the provider, constructing it on
// first use. A missing credential for the requested provider fails with a
// configuration error naming the missing variable.
func (f *Factory) Client(p catalog.Provider) (*Client, error) {
	key, baseURL, err := f.resolveCredentials(p)
	if err != nil {
		return nil, err
	}

	fingerprint := fmt.Sprintf("%s::%s::%s", p, key, baseURL)

	f.mu.RLock()
	client, ok := f.clients[fingerprint]
	f.mu.RUnlock()
	if ok {
		return client, nil
	}

	// Construct-once: concurrent callers with the same fingerprint share a
	// single build.
	v, err, _ := f.group.Do(fingerprint, func() (interface{}, error) {
		f.mu.RLock()
		existing, ok := f.clients[fingerprint]
		f.mu.RUnlock()
		if ok {
			return existing, nil
		}

		built := f.build(p, key, baseURL)

		f.mu.Lock()
		f.clients[fingerprint] = built
		f.mu.Unlock()

		f.logger.Info("constructed provider client",
			zap.String("provider", string(p)),
			zap.String("base_url", baseURL),
		)
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Client), nil
}

func (f *Factory) resolveCredentials(p catalog.Provider) (key, baseURL string, err error) {
	switch p {
	case catalog.ProviderOpenAI:
		key = f.openAIKey()
		if key == "" {
			return "", "", errors.NewConfigError("", "Missing environment variable: OPENAI_API_KEY", nil)
		}
		return key, "", nil
	case catalog.ProviderVolcengine:
		key = f.volcengineKey()
		if key == "" {
			return "", "", errors.NewConfigError("", "Missing environment variable: VOLCENGINE_API_KEY", nil)
		}
		return key, f.volcengineBaseURL(), nil
	default:
		return "", "", errors.NewConfigError("", fmt.Sprintf("Unsupported provider: %s", p), nil)
	}
}

func (f *Factory) build(p catalog.Provider, key, baseURL string) *Client {
	cc := openai.DefaultConfig(key)
	if baseURL != "" {
		cc.BaseURL = baseURL
	}

	settings := gobreaker.Settings{
		Name:        string(p),
		MaxRequests: f.breaker.MaxRequests,
		Interval:    f.breaker.Interval,
		Timeout:     f.breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= f.breaker.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.logger.Warn("provider circuit breaker state change",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Client{
		provider: p,
		api:      openai.NewClientWithConfig(cc),
		breaker:  gobreaker.NewCircuitBreaker(settings),
	}
}

func (f *Factory) openAIKey() string {
	if f.cfg.OpenAI.APIKey != "" {
		return f.cfg.OpenAI.APIKey
	}
	return f.env("OPENAI_API_KEY")
}

func (f *Factory) volcengineKey() string {
	if f.cfg.Volcengine.APIKey != "" {
		return f.cfg.Volcengine.APIKey
	}
	if key := f.env("VOLCENGINE_API_KEY"); key != "" {
		return key
	}
	return f.env("VOLC_API_KEY")
}

func (f *Factory) volcengineBaseURL() string {
	if f.cfg.Volcengine.BaseURL != "" {
		return f.cfg.Volcengine.BaseURL
	}
	if url := f.env("VOLCENGINE_BASE_URL"); url != "" {
		return url
	}
	return config.DefaultVolcengineBaseURL
}
