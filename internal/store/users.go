package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Raghukul777/SmartHire/internal/model"
	"github.com/Raghukul777/SmartHire/internal/workflow"
)

// UserStore implements workflow.UserStore on pgxpool. Registration, passwords
// and profile editing belong to the auth service; the engine only reads the
// identity and skill profile.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore returns a configured UserStore.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// GetByID returns a single user with their declared skill set.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, role, skills FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Skills)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
