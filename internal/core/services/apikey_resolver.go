package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/poyrazK/hostsdns/internal/core/domain"
	"github.com/poyrazK/hostsdns/internal/core/ports"
)

// HashAPIKey returns the lowercase hex SHA-256 of the raw bearer value, prefix included.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// APIKeyResolver maps API-key hashes to their owners.
type APIKeyResolver struct {
	repo ports.APIKeyRepository
}

func NewAPIKeyResolver(repo ports.APIKeyRepository) *APIKeyResolver {
	return &APIKeyResolver{repo: repo}
}

// Resolve looks up the owner of the key with the given hash. Unknown, expired and
// disabled-owner keys are all ErrUnknownAPIKey.
func (r *APIKeyResolver) Resolve(ctx context.Context, tokenHash string) (*domain.User, error) {
	user, err := r.repo.GetUserByAPIKeyHash(ctx, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve api key: %w", err)
	}
	if user == nil || !user.Enabled {
		return nil, domain.ErrUnknownAPIKey
	}
	return user, nil
}

// Issue creates a key for owner valid for ttl and returns the raw value, which is shown once.
func (r *APIKeyResolver) Issue(ctx context.Context, owner uuid.UUID, name string, ttl time.Duration) (string, *domain.APIKey, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", nil, fmt.Errorf("failed to generate api key: %w", err)
	}
	raw := domain.APIKeyPrefix + hex.EncodeToString(secret)

	now := time.Now().UTC()
	key := &domain.APIKey{
		ID:        uuid.New(),
		Owner:     owner,
		Name:      name,
		TokenHash: HashAPIKey(raw),
		KeyPrefix: raw[:8],
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := r.repo.CreateAPIKey(ctx, key); err != nil {
		return "", nil, fmt.Errorf("failed to save api key: %w", err)
	}
	return raw, key, nil
}
