// Package registry translates a public model identifier into an invokable
// model handle: a completion client bound to the correct upstream model name
// or endpoint. Resolution is stateless; client caching happens one layer
// below, in the provider factory.
package registry

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/juntao/modelgate/catalog"
	"github.com/juntao/modelgate/errors"
	"github.com/juntao/modelgate/server/provider"
)

// Call carries the parameters of one upstream completion call, already
// resolved by the chat pipeline.
type Call struct {
	Messages     []openai.ChatCompletionMessage
	SystemPrompt string
	Temperature  float64
}

// Handle is a bound, invocable reference to a specific upstream model. It is
// an interface so the pipeline and its tests can substitute fakes.
type Handle interface {
	// ModelID returns the public model identifier the handle was resolved from.
	ModelID() string

	// Stream issues the streaming completion call. Zero retries: errors
	// surface immediately to the caller.
	Stream(ctx context.Context, call Call) (provider.TokenStream, error)
}

// ClientSource supplies provider clients. *provider.Factory implements it.
type ClientSource interface {
	Client(p catalog.Provider) (*provider.Client, error)
}

// Registry resolves model identifiers against the catalog.
type Registry struct {
	clients ClientSource
	env     provider.Env
	logger  *zap.Logger
}

// Option customizes a Registry.
type Option func(*Registry)

// WithEnv overrides the environment lookup used for endpoint resolution.
func WithEnv(env provider.Env) Option {
	return func(r *Registry) { r.env = env }
}

// New creates a registry backed by the given client source.
func New(clients ClientSource, logger *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		clients: clients,
		env:     os.Getenv,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks up the model identifier in the catalog, obtains the provider
// client, and returns a handle bound to the correct upstream reference.
//
// An unknown identifier fails with a message enumerating all known ones;
// callers depend on that diagnostic. Configuration gaps found here carry a
// 400 status: within resolution they mean the caller picked a model this
// deployment does not serve.
func (r *Registry) Resolve(modelID string) (Handle, error) {
	entry, ok := catalog.ByModelID(modelID)
	if !ok {
		return nil, errors.NewValidationError("", fmt.Sprintf(
			"Unknown modelId: %s. Available: %s",
			modelID, strings.Join(catalog.ModelIDs(), ", "),
		))
	}

	client, err := r.clients.Client(entry.Provider)
	if err != nil {
		return nil, err
	}

	upstream, err := r.upstreamRef(entry)
	if err != nil {
		return nil, err
	}

	return &boundHandle{
		modelID:  entry.ModelID,
		upstream: upstream,
		client:   client,
	}, nil
}

// upstreamRef is the single provider dispatch point: OpenAI entries bind to
// their literal model name, Volcengine entries to the endpoint identifier
// read from the environment.
func (r *Registry) upstreamRef(entry catalog.Entry) (string, error) {
	switch entry.Provider {
	case catalog.ProviderOpenAI:
		if entry.UpstreamModel == "" {
			return "", errors.NewResolutionConfigError("", fmt.Sprintf(
				"Model %s is missing an upstream model name", entry.ModelID), nil)
		}
		return entry.UpstreamModel, nil
	case catalog.ProviderVolcengine:
		if entry.UpstreamModel != "" {
			return entry.UpstreamModel, nil
		}
		endpoint := r.env(entry.EndpointEnvVar)
		if endpoint == "" {
			return "", errors.NewResolutionConfigError("", fmt.Sprintf(
				"Missing environment variable: %s", entry.EndpointEnvVar), nil)
		}
		return endpoint, nil
	default:
		return "", errors.NewResolutionConfigError("", fmt.Sprintf(
			"Unsupported provider: %s", entry.Provider), nil)
	}
}

// boundHandle is the production Handle implementation.
type boundHandle struct {
	modelID  string
	upstream string
	client   *provider.Client
}

func (h *boundHandle) ModelID() string {
	return h.modelID
}

func (h *boundHandle) Stream(ctx context.Context, call Call) (provider.TokenStream, error) {
	messages := call.Messages
	if call.SystemPrompt != "" {
		messages = append([]openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleSystem,
			Content: call.SystemPrompt,
		}}, messages...)
	}

	return h.client.StreamChat(ctx, openai.ChatCompletionRequest{
		Model:       h.upstream,
		Messages:    messages,
		Temperature: float32(call.Temperature),
	})
}
