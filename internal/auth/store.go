// Package auth provides bearer-token authentication, the service-role guard,
// Argon2id password hashing, and provisioning of admin accounts for the admin
// backend.
package auth

import (
	"context"
	"errors"
	"time"
)

// Roles stored on profiles.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

var (
	// ErrIdentityNotFound is returned when no identity has the requested
	// email or id.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrIdentityExists is returned when an identity with the email already
	// exists.
	ErrIdentityExists = errors.New("identity already exists")

	// ErrProfileNotFound is returned when an identity has no profile.
	ErrProfileNotFound = errors.New("profile not found")
)

// Identity is a login identity: an email with its password hash.
type Identity struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile holds the person and role attached to an identity. It shares the
// identity's ID.
type Profile struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IdentityStore persists identities.
type IdentityStore interface {
	GetIdentityByEmail(ctx context.Context, email string) (Identity, error)
	CreateIdentity(ctx context.Context, email, passwordHash string) (Identity, error)
	DeleteIdentity(ctx context.Context, id string) error
}

// ProfileStore persists profiles.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p Profile) (Profile, error)
	GetProfile(ctx context.Context, id string) (Profile, error)
}
