package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/juntao/modelgate/catalog"
	"github.com/juntao/modelgate/server/provider"
)

// HealthHandler serves the liveness and diagnostic health endpoints.
type HealthHandler struct {
	factory *provider.Factory
	logger  *zap.Logger
}

// NewHealthHandler creates a HealthHandler backed by the given provider factory.
func NewHealthHandler(factory *provider.Factory, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{factory: factory, logger: logger}
}

// Live is the minimal liveness probe. It never touches upstream state.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type providerHealth struct {
	Configured bool     `json:"configured"`
	Models     []string `json:"models"`
}

type healthcheckResponse struct {
	Status    string                    `json:"status"`
	Timestamp string                    `json:"timestamp"`
	Providers map[string]providerHealth `json:"providers"`
}

// Check reports which providers hold credentials and which catalog models
// each one serves. An unconfigured provider advertises no models. Credential
// inspection never dials upstream.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := h.factory.Status()

	resp := healthcheckResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Providers: map[string]providerHealth{
			string(catalog.ProviderOpenAI): {
				Configured: status.OpenAIConfigured,
				Models:     availableModels(catalog.ProviderOpenAI, status.OpenAIConfigured),
			},
			string(catalog.ProviderVolcengine): {
				Configured: status.VolcengineConfigured,
				Models:     availableModels(catalog.ProviderVolcengine, status.VolcengineConfigured),
			},
		},
	}
	writeJSON(w, http.StatusOK, resp)
}

func availableModels(p catalog.Provider, configured bool) []string {
	if !configured {
		return []string{}
	}
	return catalog.ModelIDsForProvider(p)
}
