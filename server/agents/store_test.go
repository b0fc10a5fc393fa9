package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juntao/modelgate/catalog"
	"github.com/juntao/modelgate/errors"
)

func TestSeededPresets(t *testing.T) {
	store := NewMemoryStore()
	presets := store.List()
	require.Len(t, presets, len(catalog.Entries()))

	// Volcengine-backed presets come before OpenAI ones.
	seenOpenAI := false
	for _, p := range presets {
		entry, ok := catalog.ByModelID(p.ModelID)
		require.True(t, ok)
		assert.Equal(t, p.ModelID, p.ID, "seeded preset id reuses the model id")
		assert.Equal(t, entry.DefaultAgent.SystemPrompt, p.SystemPrompt)
		assert.Equal(t, entry.DefaultAgent.Temperature, p.Temperature)
		if entry.Provider == catalog.ProviderOpenAI {
			seenOpenAI = true
		} else {
			assert.False(t, seenOpenAI)
		}
	}
}

func TestListIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	assert.Equal(t, store.List(), store.List())
}

func TestGetByID(t *testing.T) {
	store := NewMemoryStore()

	preset, ok := store.GetByID("doubao-pro-32k")
	require.True(t, ok)
	assert.Equal(t, "doubao-pro-32k", preset.ModelID)

	_, ok = store.GetByID("nope")
	assert.False(t, ok)
}

func TestCreate(t *testing.T) {
	store := NewMemoryStore()

	temp := 0.9
	preset, err := store.Create(CreateInput{
		Name:         "  Reviewer  ",
		ModelID:      "gpt-4o",
		SystemPrompt: "You review pull requests.",
		Temperature:  &temp,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, preset.ID)
	assert.NotEqual(t, preset.ModelID, preset.ID, "user presets get generated ids")
	assert.Equal(t, "Reviewer", preset.Name)
	assert.Equal(t, 0.9, preset.Temperature)

	// The new preset is visible immediately, after the seeded ones.
	listed := store.List()
	require.Len(t, listed, len(catalog.Entries())+1)
	assert.Equal(t, preset, listed[len(listed)-1])

	got, ok := store.GetByID(preset.ID)
	require.True(t, ok)
	assert.Equal(t, preset, got)
}

func TestCreateDefaultsTemperature(t *testing.T) {
	store := NewMemoryStore()

	preset, err := store.Create(CreateInput{
		Name:         "helper",
		ModelID:      "gpt-4o",
		SystemPrompt: "help",
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultTemperature, preset.Temperature)
}

func TestCreateClampsTemperature(t *testing.T) {
	store := NewMemoryStore()

	tests := []struct {
		in   float64
		want float64
	}{
		{-5, 0},
		{0, 0},
		{2, 2},
		{10, 2},
	}
	for _, tt := range tests {
		temp := tt.in
		preset, err := store.Create(CreateInput{
			Name:         "t",
			ModelID:      "gpt-4o",
			SystemPrompt: "p",
			Temperature:  &temp,
		})
		require.NoError(t, err)
		assert.Equal(t, tt.want, preset.Temperature)
	}
}

func TestCreateValidation(t *testing.T) {
	store := NewMemoryStore()

	tests := []struct {
		name    string
		input   CreateInput
		message string
	}{
		{
			name:    "missing name",
			input:   CreateInput{ModelID: "gpt-4o", SystemPrompt: "p"},
			message: "Invalid name",
		},
		{
			name:    "blank name",
			input:   CreateInput{Name: "   ", ModelID: "gpt-4o", SystemPrompt: "p"},
			message: "Invalid name",
		},
		{
			name:    "missing model",
			input:   CreateInput{Name: "n", SystemPrompt: "p"},
			message: "Invalid modelId",
		},
		{
			name:    "missing prompt",
			input:   CreateInput{Name: "n", ModelID: "gpt-4o"},
			message: "Invalid systemPrompt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(tt.input)
			require.Error(t, err)

			var gerr *errors.GateError
			require.True(t, errors.As(err, &gerr))
			assert.Equal(t, 400, gerr.Code)
			assert.Equal(t, tt.message, gerr.Message)
		})
	}
}

func TestCreateUnknownModel(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Create(CreateInput{
		Name:         "n",
		ModelID:      "llama-unknown",
		SystemPrompt: "p",
	})
	require.Error(t, err)

	var gerr *errors.GateError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, 400, gerr.Code)
	assert.Contains(t, gerr.Message, "Unknown modelId: llama-unknown")
	assert.Contains(t, gerr.Message, "Available:")
}
