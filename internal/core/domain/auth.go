package domain

import (
	"time"

	"github.com/google/uuid"
)

// APIKeyPrefix marks a bearer value as an opaque API key rather than a signed token.
const APIKeyPrefix = "hdt_"

// User is an account as stored by the repository.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // bcrypt
	DisplayName  *string   `json:"display_name,omitempty"`
	Admin        bool      `json:"admin"`
	Enabled      bool      `json:"enabled"`
	TOTPSecret   *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at"`
}

// DisplayNameOrEmail returns the display name, falling back to the email address.
func (u *User) DisplayNameOrEmail() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.Email
}

type APIKey struct {
	ID        uuid.UUID `json:"id"`
	Owner     uuid.UUID `json:"owner_uuid"`
	Name      string    `json:"name"`       // Human-readable label, e.g. "ci-deploy-key"
	TokenHash string    `json:"-"`          // SHA-256 hex of the raw key (never store raw)
	KeyPrefix string    `json:"key_prefix"` // First 8 chars for identification
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Principal is the authenticated identity behind a single request. It is never persisted.
// API-key principals carry zero IssuedAt/ExpiresAt.
type Principal struct {
	Subject     uuid.UUID `json:"sub"`
	Email       string    `json:"email"`
	DisplayName string    `json:"dn"`
	Admin       bool      `json:"admin"`
	IssuedAt    int64     `json:"iat"`
	ExpiresAt   int64     `json:"exp"`
}

// PrincipalFromUser builds a principal for a user resolved without a signed token.
func PrincipalFromUser(u *User) Principal {
	return Principal{
		Subject:     u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayNameOrEmail(),
		Admin:       u.Admin,
	}
}
