// Package handlers provides the HTTP handlers for the modelgate gateway: the
// streaming chat pipeline, agent preset listing and creation, the model
// catalog projection, and health reporting.
//
// The package follows these design principles:
//  1. Consistent error handling using the errors package
//  2. Structured logging with request IDs
//  3. Clear separation between request parsing and upstream invocation
package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/juntao/modelgate/errors"
)

// writeJSON writes a JSON response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		errors.DefaultLogger.Error("failed to encode response", zap.Error(err))
	}
}

// itemsResponse is the list envelope shared by /agents and /models.
type itemsResponse struct {
	Items interface{} `json:"items"`
}
