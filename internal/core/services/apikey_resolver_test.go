package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poyrazK/hostsdns/internal/core/domain"
	"github.com/poyrazK/hostsdns/internal/testutil"
	"github.com/stretchr/testify/mock"
)

func TestHashAPIKey(t *testing.T) {
	a := HashAPIKey("hdt_first")
	if a != HashAPIKey("hdt_first") {
		t.Errorf("hash is not deterministic")
	}
	if a == HashAPIKey("hdt_second") {
		t.Errorf("distinct keys produced the same digest")
	}
	if len(a) != 64 || strings.ToLower(a) != a {
		t.Errorf("expected 64 lowercase hex chars, got %q", a)
	}
	// sha256("hdt_") with the prefix included in the digest input.
	if HashAPIKey("hdt_") == HashAPIKey("") {
		t.Errorf("prefix must be part of the digest input")
	}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		h := HashAPIKey("hdt_" + uuid.NewString())
		if seen[h] {
			t.Fatalf("collision after %d keys", i)
		}
		seen[h] = true
	}
}

func TestAPIKeyResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("Known key", func(t *testing.T) {
		repo := new(testutil.MockRepo)
		user := &domain.User{ID: uuid.New(), Email: "a@example.com", Enabled: true}
		repo.On("GetUserByAPIKeyHash", "h1").Return(user, nil)

		got, err := NewAPIKeyResolver(repo).Resolve(ctx, "h1")
		if err != nil || got.ID != user.ID {
			t.Errorf("unexpected result: %+v, %v", got, err)
		}
	})

	t.Run("Unknown or expired key", func(t *testing.T) {
		repo := new(testutil.MockRepo)
		repo.On("GetUserByAPIKeyHash", "h2").Return((*domain.User)(nil), nil)

		if _, err := NewAPIKeyResolver(repo).Resolve(ctx, "h2"); !errors.Is(err, domain.ErrUnknownAPIKey) {
			t.Errorf("expected ErrUnknownAPIKey, got %v", err)
		}
	})

	t.Run("Disabled owner", func(t *testing.T) {
		repo := new(testutil.MockRepo)
		repo.On("GetUserByAPIKeyHash", "h3").Return(&domain.User{ID: uuid.New(), Enabled: false}, nil)

		if _, err := NewAPIKeyResolver(repo).Resolve(ctx, "h3"); !errors.Is(err, domain.ErrUnknownAPIKey) {
			t.Errorf("expected ErrUnknownAPIKey, got %v", err)
		}
	})

	t.Run("Repository error", func(t *testing.T) {
		repo := new(testutil.MockRepo)
		dbErr := errors.New("connection refused")
		repo.On("GetUserByAPIKeyHash", "h4").Return((*domain.User)(nil), dbErr)

		_, err := NewAPIKeyResolver(repo).Resolve(ctx, "h4")
		if !errors.Is(err, dbErr) {
			t.Errorf("expected wrapped storage error, got %v", err)
		}
		var de *domain.Error
		if errors.As(err, &de) {
			t.Errorf("storage failure must not look like a rejection: %v", de)
		}
	})
}

func TestAPIKeyResolver_Issue(t *testing.T) {
	repo := new(testutil.MockRepo)
	owner := uuid.New()
	repo.On("CreateAPIKey", mock.AnythingOfType("*domain.APIKey")).Return(nil)

	raw, key, err := NewAPIKeyResolver(repo).Issue(context.Background(), owner, "ci", 30*24*time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !strings.HasPrefix(raw, domain.APIKeyPrefix) || len(raw) != len(domain.APIKeyPrefix)+64 {
		t.Errorf("unexpected raw key format %q", raw)
	}
	if key.TokenHash != HashAPIKey(raw) {
		t.Errorf("stored hash does not match raw key")
	}
	if key.Owner != owner || key.Name != "ci" || key.KeyPrefix != raw[:8] {
		t.Errorf("unexpected key: %+v", key)
	}
	if !key.ExpiresAt.After(key.CreatedAt) {
		t.Errorf("expiry must be after creation")
	}
	repo.AssertExpectations(t)
}
