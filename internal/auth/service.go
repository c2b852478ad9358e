package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alexedwards/argon2id"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 64
)

// ErrInvalidCredentials is returned by Login for an unknown email or a wrong
// password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ProvisionRequest is the body of the admin provisioning call.
type ProvisionRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Validate checks the request. Errors are keyed by JSON member name.
func (r ProvisionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.RuneLength(minPasswordLength, maxPasswordLength)),
		validation.Field(&r.FirstName, validation.RuneLength(0, 100)),
		validation.Field(&r.LastName, validation.RuneLength(0, 100)),
	)
}

// ProvisionResult reports the outcome of provisioning. Created is false when
// an identity with the email already existed.
type ProvisionResult struct {
	Created bool   `json:"created"`
	UserID  string `json:"userId"`
	Email   string `json:"email"`
}

// ProvisionError is returned when provisioning failed after the identity was
// created. RolledBack reports whether the compensating delete succeeded.
type ProvisionError struct {
	Email      string
	RolledBack bool
	Err        error
}

func (e *ProvisionError) Error() string {
	state := "identity rolled back"
	if !e.RolledBack {
		state = "identity left without profile"
	}
	return fmt.Sprintf("provisioning %s: %v (%s)", e.Email, e.Err, state)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// Service implements provisioning and login on top of the identity and
// profile stores.
type Service struct {
	identities IdentityStore
	profiles   ProfileStore
	jwtSecret  string
}

// NewService creates a new auth Service.
func NewService(identities IdentityStore, profiles ProfileStore, jwtSecret string) *Service {
	return &Service{
		identities: identities,
		profiles:   profiles,
		jwtSecret:  jwtSecret,
	}
}

// Provision creates an admin account unless one with the email exists. The
// identity is created first; if the profile cannot be created the identity is
// deleted again so no login exists without a profile.
func (s *Service) Provision(ctx context.Context, req ProvisionRequest) (ProvisionResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := req.Validate(); err != nil {
		return ProvisionResult{}, err
	}

	existing, err := s.identities.GetIdentityByEmail(ctx, req.Email)
	switch {
	case err == nil:
		slog.Info("admin already provisioned", "email", req.Email, "id", existing.ID)
		return ProvisionResult{Created: false, UserID: existing.ID, Email: existing.Email}, nil
	case !errors.Is(err, ErrIdentityNotFound):
		return ProvisionResult{}, fmt.Errorf("looking up identity: %w", err)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return ProvisionResult{}, err
	}

	identity, err := s.identities.CreateIdentity(ctx, req.Email, hash)
	if errors.Is(err, ErrIdentityExists) {
		// Lost a race with a concurrent provisioning call.
		return ProvisionResult{Created: false, Email: req.Email}, nil
	}
	if err != nil {
		return ProvisionResult{}, fmt.Errorf("creating identity: %w", err)
	}

	_, err = s.profiles.CreateProfile(ctx, Profile{
		ID:        identity.ID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      RoleAdmin,
	})
	if err != nil {
		perr := &ProvisionError{Email: req.Email, Err: err}
		if derr := s.identities.DeleteIdentity(ctx, identity.ID); derr != nil {
			slog.Warn("compensating identity delete failed", "id", identity.ID, "error", derr)
		} else {
			perr.RolledBack = true
		}
		return ProvisionResult{}, perr
	}

	slog.Info("admin provisioned", "email", identity.Email, "id", identity.ID)
	return ProvisionResult{Created: true, UserID: identity.ID, Email: identity.Email}, nil
}

// Login checks the credentials and returns a signed access token carrying the
// profile role.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	identity, err := s.identities.GetIdentityByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrIdentityNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("looking up identity: %w", err)
	}

	match, err := VerifyPassword(identity.PasswordHash, password)
	if err != nil {
		return "", err
	}
	if !match {
		return "", ErrInvalidCredentials
	}

	profile, err := s.profiles.GetProfile(ctx, identity.ID)
	if errors.Is(err, ErrProfileNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("loading profile: %w", err)
	}

	return CreateAccessToken(identity.ID, identity.Email, profile.Role, s.jwtSecret)
}

// HashPassword hashes a password using Argon2id with the default parameters.
func HashPassword(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return hash, nil
}

// VerifyPassword reports whether password matches the Argon2id hash.
func VerifyPassword(hash, password string) (bool, error) {
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false, fmt.Errorf("verifying password: %w", err)
	}
	return match, nil
}
