package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/GyroZepelix/mithril-admin/internal/database"
)

// Repository stores identities in the users table and profiles in the
// profiles table. It implements both IdentityStore and ProfileStore.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new auth Repository backed by the given database.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// GetIdentityByEmail returns the identity with the given email.
func (r *Repository) GetIdentityByEmail(ctx context.Context, email string) (Identity, error) {
	q, err := r.db.Querier()
	if err != nil {
		return Identity{}, err
	}
	row := q.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		email,
	)

	var i Identity
	if err := row.Scan(&i.ID, &i.Email, &i.PasswordHash, &i.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrIdentityNotFound
		}
		return Identity{}, fmt.Errorf("querying identity by email: %w", err)
	}
	return i, nil
}

// CreateIdentity inserts a new identity. A duplicate email yields
// ErrIdentityExists.
func (r *Repository) CreateIdentity(ctx context.Context, email, passwordHash string) (Identity, error) {
	q, err := r.db.Querier()
	if err != nil {
		return Identity{}, err
	}
	row := q.QueryRow(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2)
		 RETURNING id, email, password_hash, created_at`,
		email, passwordHash,
	)

	var i Identity
	if err := row.Scan(&i.ID, &i.Email, &i.PasswordHash, &i.CreatedAt); err != nil {
		if database.IsUniqueViolation(err) {
			return Identity{}, ErrIdentityExists
		}
		return Identity{}, fmt.Errorf("creating identity: %w", err)
	}
	return i, nil
}

// DeleteIdentity removes an identity. Its profile goes with it.
func (r *Repository) DeleteIdentity(ctx context.Context, id string) error {
	q, err := r.db.Querier()
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting identity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrIdentityNotFound
	}
	return nil
}

// CreateProfile inserts the profile of an existing identity.
func (r *Repository) CreateProfile(ctx context.Context, p Profile) (Profile, error) {
	q, err := r.db.Querier()
	if err != nil {
		return Profile{}, err
	}
	row := q.QueryRow(ctx,
		`INSERT INTO profiles (id, first_name, last_name, role) VALUES ($1, $2, $3, $4)
		 RETURNING id, first_name, last_name, role, created_at`,
		p.ID, p.FirstName, p.LastName, p.Role,
	)

	var out Profile
	if err := row.Scan(&out.ID, &out.FirstName, &out.LastName, &out.Role, &out.CreatedAt); err != nil {
		return Profile{}, fmt.Errorf("creating profile: %w", err)
	}
	return out, nil
}

// GetProfile returns the profile of the identity with the given id.
func (r *Repository) GetProfile(ctx context.Context, id string) (Profile, error) {
	q, err := r.db.Querier()
	if err != nil {
		return Profile{}, err
	}
	row := q.QueryRow(ctx,
		`SELECT id, first_name, last_name, role, created_at FROM profiles WHERE id = $1`,
		id,
	)

	var p Profile
	if err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Role, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, fmt.Errorf("querying profile: %w", err)
	}
	return p, nil
}
