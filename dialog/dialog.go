// Package dialog persists per-user scenario positions and completed
// registrations. All backends enforce the same invariant: at most one
// State per user at any time.
package dialog

import (
	"context"

	"confbot/scenario"
)

// State records where a user currently is inside an active scenario.
// Its existence means every inbound message from that user is an answer to
// the current step, never a fresh intent.
type State struct {
	UserID   int64            `json:"user_id" db:"user_id"`
	Scenario string           `json:"scenario" db:"scenario_name"`
	Step     string           `json:"step" db:"step_name"`
	Context  scenario.Context `json:"context"`
}

// Store is the persistence surface for dialog state, keyed by the stable
// user identifier. Get returns (nil, nil) when the user has no active state.
type Store interface {
	Get(ctx context.Context, userID int64) (*State, error)
	Create(ctx context.Context, state *State) error
	Update(ctx context.Context, state *State) error
	Delete(ctx context.Context, userID int64) error
}

// Registration is the completion record of one finished registration
// scenario. It outlives the dialog state that produced it.
type Registration struct {
	Name  string `db:"name"`
	Email string `db:"email"`
}

// RegistrationStore persists completion records.
type RegistrationStore interface {
	CreateRegistration(ctx context.Context, name, email string) error
}
