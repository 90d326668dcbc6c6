package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poyrazK/hostsdns/internal/core/domain"
	"github.com/poyrazK/hostsdns/internal/core/ports"
	"github.com/poyrazK/hostsdns/internal/infrastructure/metrics"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 12

// UserOptions carries the feature flags and hashing cost the user service runs with.
type UserOptions struct {
	SignupsEnabled bool
	TOTPEnabled    bool
	BcryptCost     int
}

type userService struct {
	repo  ports.UserRepository
	codec *TokenCodec
	opts  UserOptions
}

func NewUserService(repo ports.UserRepository, codec *TokenCodec, opts UserOptions) ports.UserService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &userService{repo: repo, codec: codec, opts: opts}
}

// Signup creates an account and returns a token for it.
func (s *userService) Signup(ctx context.Context, email, password string, displayName *string) (string, error) {
	if !s.opts.SignupsEnabled {
		return "", domain.ErrSignupsDisabled
	}
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return "", domain.ErrInvalidRequest.WithMessage("invalid email address")
	}
	if len(password) < MinPasswordLength {
		return "", domain.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		Enabled:      true,
		CreatedAt:    now,
		ModifiedAt:   now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return "", err
	}
	return s.codec.Issue(user)
}

// Login exchanges email and password for a token. Unknown email, wrong password and
// disabled accounts are indistinguishable to the caller.
func (s *userService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		metrics.LoginAttempts.WithLabelValues("unknown_user").Inc()
		return "", domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			metrics.LoginAttempts.WithLabelValues("bad_hash").Inc()
		} else {
			metrics.LoginAttempts.WithLabelValues("bad_password").Inc()
		}
		return "", domain.ErrInvalidCredentials
	}
	if !user.Enabled {
		metrics.LoginAttempts.WithLabelValues("disabled").Inc()
		return "", domain.ErrInvalidCredentials
	}

	metrics.LoginAttempts.WithLabelValues("ok").Inc()
	return s.codec.Issue(user)
}

// ListUsers returns every account. Only administrators may call it.
func (s *userService) ListUsers(ctx context.Context, p domain.Principal) ([]domain.User, error) {
	if err := domain.RequireAdmin(p); err != nil {
		return nil, err
	}
	return s.repo.ListUsers(ctx)
}

// NeedsTOTP reports whether the account behind email has a second factor configured.
// Unknown emails report false.
func (s *userService) NeedsTOTP(ctx context.Context, email string) (bool, error) {
	if !s.opts.TOTPEnabled {
		return false, domain.ErrTOTPDisabled
	}
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil || user == nil {
		return false, nil
	}
	return user.TOTPSecret != nil, nil
}
