package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/juntao/modelgate/errors"
	"github.com/juntao/modelgate/server/agents"
	"github.com/juntao/modelgate/server/middleware"
)

// AgentsHandler serves the agent preset endpoints.
type AgentsHandler struct {
	store  agents.Store
	logger *zap.Logger
}

// NewAgentsHandler creates an AgentsHandler backed by the given store.
func NewAgentsHandler(store agents.Store, logger *zap.Logger) *AgentsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentsHandler{store: store, logger: logger}
}

// List returns all presets under an items envelope.
func (h *AgentsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, itemsResponse{Items: h.store.List()})
}

// Create validates the request body and appends a new user preset. The
// created preset is echoed back with its generated id.
func (h *AgentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.FromContext(r.Context())

	var input agents.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		errors.WriteError(w, errors.NewValidationError(requestID, "Invalid JSON body"))
		return
	}

	preset, err := h.store.Create(input)
	if err != nil {
		errors.LogError(h.logger, err, requestID)
		var gerr *errors.GateError
		if errors.As(err, &gerr) {
			if gerr.RequestID == "" {
				gerr.RequestID = requestID
			}
			errors.WriteError(w, gerr)
			return
		}
		errors.WriteError(w, errors.NewInternalError(requestID, err))
		return
	}

	h.logger.Info("agent preset created",
		zap.String("request_id", requestID),
		zap.String("agent_id", preset.ID),
		zap.String("model_id", preset.ModelID),
	)
	writeJSON(w, http.StatusCreated, preset)
}
