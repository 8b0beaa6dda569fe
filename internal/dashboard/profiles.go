package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Role identifies a dashboard user profile.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
)

// ErrUnknownRole is returned for roles outside owner and manager.
var ErrUnknownRole = errors.New("dashboard: unknown role")

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleManager
}

// Profile is the away state of one dashboard role.
type Profile struct {
	Role   Role `json:"role"`
	IsAway bool `json:"is_away"`
}

// ProfileStore persists the per-role away flag read by the chat responder.
type ProfileStore interface {
	IsAway(ctx context.Context, role Role) (bool, error)
	ToggleAway(ctx context.Context, role Role) (bool, error)
}

// MemoryProfileStore keeps away flags in process.
type MemoryProfileStore struct {
	mu   sync.Mutex
	away map[Role]bool
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{away: make(map[Role]bool)}
}

func (s *MemoryProfileStore) IsAway(_ context.Context, role Role) (bool, error) {
	if !role.Valid() {
		return false, ErrUnknownRole
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.away[role], nil
}

func (s *MemoryProfileStore) ToggleAway(_ context.Context, role Role) (bool, error) {
	if !role.Valid() {
		return false, ErrUnknownRole
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.away[role] = !s.away[role]
	return s.away[role], nil
}

type profilesDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresProfileStore reads and flips profiles.is_away.
type PostgresProfileStore struct {
	db profilesDB
}

func NewPostgresProfileStore(pool *pgxpool.Pool) *PostgresProfileStore {
	return &PostgresProfileStore{db: pool}
}

func newPostgresProfileStoreWithDB(db profilesDB) *PostgresProfileStore {
	return &PostgresProfileStore{db: db}
}

func (s *PostgresProfileStore) IsAway(ctx context.Context, role Role) (bool, error) {
	if !role.Valid() {
		return false, ErrUnknownRole
	}
	var away bool
	err := s.db.QueryRow(ctx, `SELECT is_away FROM profiles WHERE role = $1`, string(role)).Scan(&away)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dashboard: read away flag: %w", err)
	}
	return away, nil
}

func (s *PostgresProfileStore) ToggleAway(ctx context.Context, role Role) (bool, error) {
	if !role.Valid() {
		return false, ErrUnknownRole
	}
	query := `
		INSERT INTO profiles (role, is_away, updated_at)
		VALUES ($1, true, now())
		ON CONFLICT (role) DO UPDATE SET is_away = NOT profiles.is_away, updated_at = now()
		RETURNING is_away
	`
	var away bool
	if err := s.db.QueryRow(ctx, query, string(role)).Scan(&away); err != nil {
		return false, fmt.Errorf("dashboard: toggle away flag: %w", err)
	}
	return away, nil
}

// AwayFor adapts one role's flag to the chat responder's away lookup.
func AwayFor(store ProfileStore, role Role) func(ctx context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		return store.IsAway(ctx, role)
	}
}
