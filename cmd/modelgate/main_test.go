package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveOriginsPrefersConfigured(t *testing.T) {
	t.Setenv("CORS_ORIGIN", "https://env.example.com")

	got := effectiveOrigins([]string{"https://file.example.com"})
	assert.Equal(t, []string{"https://file.example.com"}, got)
}

func TestEffectiveOriginsFallsBackToEnv(t *testing.T) {
	t.Setenv("CORS_ORIGIN", "https://env.example.com, https://other.example.com")

	got := effectiveOrigins(nil)
	assert.Equal(t, []string{"https://env.example.com", "https://other.example.com"}, got)
}

func TestEffectiveOriginsEmptyWithoutEnv(t *testing.T) {
	t.Setenv("CORS_ORIGIN", "")

	assert.Empty(t, effectiveOrigins(nil))
}
