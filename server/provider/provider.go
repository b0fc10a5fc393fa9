// Package provider constructs and caches the upstream completion clients.
// Both providers are reached through the OpenAI-compatible wire protocol; the
// only differences are the base URL and the credential. Clients are built
// lazily on first use, cached for the process lifetime keyed by a credential
// fingerprint, and guarded by a per-provider circuit breaker that fails fast
// (never retries) once an upstream has proven unhealthy.
package provider

import (
	"context"
	"io"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/juntao/modelgate/catalog"
)

// TokenStream is a lazy sequence of content deltas from one upstream
// completion call. Recv returns the next non-empty delta, io.EOF when the
// upstream finished cleanly, and any other error on mid-stream failure.
// Close releases the underlying connection and must always be called.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// Client is a completion client bound to one provider. It is stateless and
// safe to share across concurrent requests.
type Client struct {
	provider catalog.Provider
	api      *openai.Client
	breaker  *gobreaker.CircuitBreaker
}

// Provider returns the provider this client is bound to.
func (c *Client) Provider() catalog.Provider {
	return c.provider
}

// StreamChat opens a streaming completion call. The breaker only guards
// stream creation: once tokens are flowing, failures belong to that one
// request and surface through TokenStream.Recv.
func (c *Client) StreamChat(ctx context.Context, req openai.ChatCompletionRequest) (TokenStream, error) {
	var s *openai.ChatCompletionStream
	_, err := c.breaker.Execute(func() (interface{}, error) {
		var err error
		s, err = c.api.CreateChatCompletionStream(ctx, req)
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return &chatStream{inner: s}, nil
}

// chatStream adapts *openai.ChatCompletionStream to TokenStream, skipping
// keep-alive chunks with no content.
type chatStream struct {
	inner *openai.ChatCompletionStream
}

func (s *chatStream) Recv() (string, error) {
	for {
		resp, err := s.inner.Recv()
		if err != nil {
			// io.EOF means the upstream finished the stream cleanly.
			if err == io.EOF {
				return "", io.EOF
			}
			return "", err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			return delta, nil
		}
	}
}

func (s *chatStream) Close() error {
	s.inner.Close()
	return nil
}
