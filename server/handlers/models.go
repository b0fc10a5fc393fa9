package handlers

import (
	"net/http"

	"github.com/juntao/modelgate/catalog"
)

// ModelsHandler serves the static model catalog.
type ModelsHandler struct{}

// NewModelsHandler creates a ModelsHandler.
func NewModelsHandler() *ModelsHandler {
	return &ModelsHandler{}
}

// List returns every catalog entry under an items envelope.
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, itemsResponse{Items: catalog.Entries()})
}
