package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// RecipeEvent describes a successful mutation of a recipe. Events are
// published after the change is committed.
type RecipeEvent struct {
	// ID is a unique identifier for this event.
	ID string `json:"id"`

	// Kind is the mutation that happened.
	Kind EventKind `json:"kind"`

	// RecipeID identifies the mutated recipe.
	RecipeID string `json:"recipe_id"`

	// UserID is the caller that performed the mutation.
	UserID string `json:"user_id"`

	// Recipe holds the stored row after create or update. It is omitted
	// for deletions.
	Recipe *Recipe `json:"recipe,omitempty"`

	// OccurredAt is when the event was produced.
	OccurredAt time.Time `json:"occurred_at"`
}

// EventKind enumerates recipe mutations.
type EventKind int

// Supported event kinds.
const (
	EventUnknown EventKind = iota
	EventRecipeCreated
	EventRecipeUpdated
	EventRecipeDeleted
)

// String returns the routing name of the kind, used as a message attribute
// and in logs.
func (k EventKind) String() string {
	switch k {
	case EventRecipeCreated:
		return "recipe.created"
	case EventRecipeUpdated:
		return "recipe.updated"
	case EventRecipeDeleted:
		return "recipe.deleted"
	default:
		return "unknown"
	}
}

func (k EventKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *EventKind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, candidate := range []EventKind{EventRecipeCreated, EventRecipeUpdated, EventRecipeDeleted} {
		if candidate.String() == raw {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", raw)
}
