package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogIsValid(t *testing.T) {
	require.NoError(t, Validate())
}

func TestDefaultModelExists(t *testing.T) {
	entry, ok := ByModelID(DefaultModelID)
	require.True(t, ok)
	assert.Equal(t, ProviderVolcengine, entry.Provider)
}

func TestByModelID(t *testing.T) {
	entry, ok := ByModelID("gpt-4o")
	require.True(t, ok)
	assert.Equal(t, ProviderOpenAI, entry.Provider)
	assert.Equal(t, "gpt-4o", entry.UpstreamModel)

	_, ok = ByModelID("no-such-model")
	assert.False(t, ok)
}

func TestModelIDsMatchEntries(t *testing.T) {
	ids := ModelIDs()
	entries := Entries()
	require.Len(t, ids, len(entries))
	for i, entry := range entries {
		assert.Equal(t, entry.ModelID, ids[i])
	}
}

func TestModelIDsForProvider(t *testing.T) {
	openai := ModelIDsForProvider(ProviderOpenAI)
	assert.ElementsMatch(t, []string{"gpt-4o", "gpt-4o-mini"}, openai)

	volcengine := ModelIDsForProvider(ProviderVolcengine)
	assert.Len(t, volcengine, len(Entries())-len(openai))
	assert.Contains(t, volcengine, DefaultModelID)
}

func TestIsImageOnly(t *testing.T) {
	assert.True(t, IsImageOnly("doubao-seedream-artist"))
	assert.True(t, IsImageOnly("doubao-seedream-designer"))
	assert.False(t, IsImageOnly("doubao-pro-32k"))
	assert.False(t, IsImageOnly("gpt-4o"))
}

func TestSortedByProviderPreference(t *testing.T) {
	sorted := SortedByProviderPreference()
	require.Len(t, sorted, len(Entries()))

	// Volcengine entries come first, then OpenAI; order within a provider
	// follows the catalog.
	seenOpenAI := false
	for _, entry := range sorted {
		if entry.Provider == ProviderOpenAI {
			seenOpenAI = true
			continue
		}
		assert.False(t, seenOpenAI, "volcengine entry %s after an openai entry", entry.ModelID)
	}
}

func TestEntryJSONHidesUpstreamFields(t *testing.T) {
	entry, ok := ByModelID("doubao-pro-32k")
	require.True(t, ok)

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Contains(t, out, "modelId")
	assert.Contains(t, out, "defaultAgent")
	assert.NotContains(t, out, "UpstreamModel")
	assert.NotContains(t, out, "EndpointEnvVar")
	assert.NotContains(t, out, "upstreamModel")
	assert.NotContains(t, out, "endpointEnvVar")
}

func TestEveryVolcengineEntryHasEndpointVar(t *testing.T) {
	for _, entry := range Entries() {
		if entry.Provider != ProviderVolcengine {
			continue
		}
		assert.NotEmpty(t, entry.EndpointEnvVar, "entry %s", entry.ModelID)
	}
}
