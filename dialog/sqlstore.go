package dialog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"confbot/core/logger"
	"log/slog"
)

// SQLStore persists dialog state and registrations in a relational
// database. Queries are written with '?' bindvars and rebound through
// sqlx, so the same store serves postgres and sqlite.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open sqlx handle.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

type stateRow struct {
	UserID   int64  `db:"user_id"`
	Scenario string `db:"scenario_name"`
	Step     string `db:"step_name"`
	Context  []byte `db:"context"`
}

// Get loads the user's state, or returns (nil, nil) when absent.
func (s *SQLStore) Get(ctx context.Context, userID int64) (*State, error) {
	var row stateRow
	query := s.db.Rebind(`SELECT user_id, scenario_name, step_name, context FROM dialog_states WHERE user_id = ?`)
	if err := s.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get dialog state: %w", err)
	}

	state := &State{UserID: row.UserID, Scenario: row.Scenario, Step: row.Step}
	if len(row.Context) > 0 {
		if err := json.Unmarshal(row.Context, &state.Context); err != nil {
			return nil, fmt.Errorf("decode dialog context: %w", err)
		}
	}
	return state, nil
}

// Create inserts a new state row. The primary key on user_id enforces the
// one-state-per-user invariant.
func (s *SQLStore) Create(ctx context.Context, state *State) error {
	data, err := json.Marshal(state.Context)
	if err != nil {
		return fmt.Errorf("encode dialog context: %w", err)
	}
	query := s.db.Rebind(`INSERT INTO dialog_states (user_id, scenario_name, step_name, context, updated_at) VALUES (?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, state.UserID, state.Scenario, state.Step, data, time.Now().UTC()); err != nil {
		return fmt.Errorf("create dialog state: %w", err)
	}
	return nil
}

// Update rewrites the position and context of an existing state.
func (s *SQLStore) Update(ctx context.Context, state *State) error {
	data, err := json.Marshal(state.Context)
	if err != nil {
		return fmt.Errorf("encode dialog context: %w", err)
	}
	query := s.db.Rebind(`UPDATE dialog_states SET scenario_name = ?, step_name = ?, context = ?, updated_at = ? WHERE user_id = ?`)
	res, err := s.db.ExecContext(ctx, query, state.Scenario, state.Step, data, time.Now().UTC(), state.UserID)
	if err != nil {
		return fmt.Errorf("update dialog state: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no dialog state for user %d", state.UserID)
	}
	return nil
}

// Delete removes the user's state.
func (s *SQLStore) Delete(ctx context.Context, userID int64) error {
	query := s.db.Rebind(`DELETE FROM dialog_states WHERE user_id = ?`)
	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete dialog state: %w", err)
	}
	return nil
}

// CreateRegistration inserts a completion record.
func (s *SQLStore) CreateRegistration(ctx context.Context, name, email string) error {
	query := s.db.Rebind(`INSERT INTO registrations (name, email, created_at) VALUES (?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, name, email, time.Now().UTC()); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	logger.Info(ctx, "db", "registration.create",
		slog.String("username", logger.SanitizeLimit(name, 64)),
	)
	return nil
}

var _ Store = (*SQLStore)(nil)
var _ RegistrationStore = (*SQLStore)(nil)
