// Package agents manages agent presets: named bindings of a model to a
// persona (system prompt and temperature). Catalog-derived presets are seeded
// once at startup and are immutable; user-created presets live in memory only
// and vanish on process restart.
package agents

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/juntao/modelgate/catalog"
	"github.com/juntao/modelgate/errors"
)

// DefaultTemperature is applied when a created preset does not specify one.
const DefaultTemperature = 0.3

// Preset is a saved binding of model + persona, addressable by id.
type Preset struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ModelID      string  `json:"modelId"`
	SystemPrompt string  `json:"systemPrompt"`
	Temperature  float64 `json:"temperature"`
}

// CreateInput is the payload for creating a user preset.
type CreateInput struct {
	Name         string   `json:"name" validate:"required"`
	ModelID      string   `json:"modelId" validate:"required"`
	SystemPrompt string   `json:"systemPrompt" validate:"required"`
	Temperature  *float64 `json:"temperature"`
}

// Store is the preset store abstraction. It is constructor-injected into the
// handlers so tests can isolate state and a persistent implementation can be
// swapped in later.
type Store interface {
	// List returns all presets: catalog-derived first (Volcengine entries
	// before OpenAI, stable within a provider), then user-created presets,
	// newest first.
	List() []Preset

	// GetByID returns the preset with the given id.
	GetByID(id string) (Preset, bool)

	// Create validates the input and appends a new user preset.
	Create(input CreateInput) (Preset, error)
}

// MemoryStore is the in-memory Store implementation. Seeded presets are
// immutable after construction; the user list is append-only under a mutex.
type MemoryStore struct {
	mu       sync.RWMutex
	seeded   []Preset
	user     []Preset
	validate *validator.Validate
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore builds a store seeded with one preset per catalog entry.
// Each seeded preset reuses its entry's model identifier as the preset id.
func NewMemoryStore() *MemoryStore {
	sorted := catalog.SortedByProviderPreference()
	seeded := make([]Preset, 0, len(sorted))
	for _, entry := range sorted {
		seeded = append(seeded, Preset{
			ID:           entry.ModelID,
			Name:         entry.DefaultAgent.Name,
			ModelID:      entry.ModelID,
			SystemPrompt: entry.DefaultAgent.SystemPrompt,
			Temperature:  entry.DefaultAgent.Temperature,
		})
	}

	v := validator.New()
	// Report the JSON field names clients actually sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &MemoryStore{
		seeded:   seeded,
		validate: v,
	}
}

// List implements Store.
func (s *MemoryStore) List() []Preset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Preset, 0, len(s.seeded)+len(s.user))
	out = append(out, s.seeded...)
	out = append(out, s.user...)
	return out
}

// GetByID implements Store.
func (s *MemoryStore) GetByID(id string) (Preset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.user {
		if p.ID == id {
			return p, true
		}
	}
	for _, p := range s.seeded {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// Create implements Store. All text fields must be non-blank after trimming
// and the model must exist in the catalog; the temperature is defaulted and
// clamped to [0, 2]. Validation failures become 400 responses at the boundary.
func (s *MemoryStore) Create(input CreateInput) (Preset, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.ModelID = strings.TrimSpace(input.ModelID)
	input.SystemPrompt = strings.TrimSpace(input.SystemPrompt)

	if err := s.validate.Struct(input); err != nil {
		return Preset{}, errors.NewValidationError("", invalidFieldMessage(err))
	}

	if _, ok := catalog.ByModelID(input.ModelID); !ok {
		return Preset{}, errors.NewValidationError("", fmt.Sprintf(
			"Unknown modelId: %s. Available: %s",
			input.ModelID, strings.Join(catalog.ModelIDs(), ", "),
		))
	}

	temperature := DefaultTemperature
	if input.Temperature != nil {
		temperature = clamp(*input.Temperature, 0, 2)
	}

	preset := Preset{
		ID:           uuid.NewString(),
		Name:         input.Name,
		ModelID:      input.ModelID,
		SystemPrompt: input.SystemPrompt,
		Temperature:  temperature,
	}

	s.mu.Lock()
	s.user = append([]Preset{preset}, s.user...)
	s.mu.Unlock()

	return preset, nil
}

func invalidFieldMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Sprintf("Invalid %s", verrs[0].Field())
	}
	return "Invalid request"
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
