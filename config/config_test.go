package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Chat.UpstreamTimeout)
	assert.Equal(t, 0.3, cfg.Chat.DefaultTemperature)
	assert.NotEmpty(t, cfg.Chat.FallbackSystemPrompt)
	assert.Equal(t, DefaultVolcengineBaseURL, cfg.Providers.Volcengine.BaseURL)
	assert.False(t, cfg.Queue.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadOverlaysDefaults(t *testing.T) {
	yaml := `
server:
  port: 9090
chat:
  default_temperature: 0.7
queue:
  enabled: true
  max_size: 50
`
	cfg, err := Load(strings.NewReader(yaml))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 0.7, cfg.Chat.DefaultTemperature)
	assert.True(t, cfg.Queue.Enabled)
	assert.Equal(t, int64(50), cfg.Queue.MaxSize)

	// Untouched sections keep their defaults.
	assert.Equal(t, 60*time.Second, cfg.Chat.UpstreamTimeout)
	assert.Equal(t, DefaultVolcengineBaseURL, cfg.Providers.Volcengine.BaseURL)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	_, err := Load(strings.NewReader("server:\n  port: 999999\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(strings.NewReader("server: [not a map"))
	require.Error(t, err)
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("MODELGATE_TEST_KEY", "secret-value")
	defer os.Unsetenv("MODELGATE_TEST_KEY")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "${MODELGATE_TEST_KEY}", "secret-value"},
		{"embedded", "key=${MODELGATE_TEST_KEY}!", "key=secret-value!"},
		{"default used", "${MODELGATE_TEST_UNSET:-fallback}", "fallback"},
		{"default ignored", "${MODELGATE_TEST_KEY:-fallback}", "secret-value"},
		{"unset empty", "${MODELGATE_TEST_UNSET}", ""},
		{"no reference", "plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	os.Setenv("MODELGATE_TEST_API_KEY", "sk-test")
	defer os.Unsetenv("MODELGATE_TEST_API_KEY")

	cfg, err := Load(strings.NewReader(`
providers:
  openai:
    api_key: ${MODELGATE_TEST_API_KEY}
`))
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Providers.OpenAI.APIKey)
}

func TestParseOrigins(t *testing.T) {
	assert.Nil(t, ParseOrigins(""))
	assert.Equal(t, []string{"http://a.com"}, ParseOrigins("http://a.com"))
	assert.Equal(t,
		[]string{"http://a.com", "http://b.com"},
		ParseOrigins(" http://a.com , http://b.com ,"))
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("does-not-exist.yaml")
	require.Error(t, err)
	assert.True(t, os.IsNotExist(unwrapAll(err)))
}

func unwrapAll(err error) error {
	for {
		type unwrapper interface{ Unwrap() error }
		u, ok := err.(unwrapper)
		if !ok {
			return err
		}
		inner := u.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
}
