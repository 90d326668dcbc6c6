package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/poyrazK/hostsdns/internal/core/domain"
)

const (
	// TokenIssuer is the fixed "iss" claim of every token this service signs.
	TokenIssuer = "hostsdns"
	// TokenLifetime is how long an issued token stays valid.
	TokenLifetime = 24 * time.Hour
)

// Claims is the typed form of a verified token.
type Claims struct {
	Issuer      string
	Subject     uuid.UUID
	IssuedAt    int64
	ExpiresAt   int64
	DisplayName string
	Email       string
	Admin       bool
}

// wireClaims is the signed claim set. Every value travels as a JSON string.
type wireClaims struct {
	Issuer      string `json:"iss"`
	Subject     string `json:"sub"`
	IssuedAt    string `json:"iat"`
	ExpiresAt   string `json:"exp"`
	DisplayName string `json:"dn"`
	Email       string `json:"email"`
	Admin       string `json:"admin"`
}

// Time claims are string-encoded, so jwt's numeric validation is disabled here and the
// lifetime window is enforced by TokenVerifier.
func (wireClaims) GetExpirationTime() (*jwt.NumericDate, error) { return nil, nil }
func (wireClaims) GetIssuedAt() (*jwt.NumericDate, error) { return nil, nil }
func (wireClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (wireClaims) GetAudience() (jwt.ClaimStrings, error) { return nil, nil }
func (c wireClaims) GetIssuer() (string, error) { return c.Issuer, nil }
func (c wireClaims) GetSubject() (string, error) { return c.Subject, nil }

// toClaims is the single fallible parse from the wire form.
func (c wireClaims) toClaims() (Claims, error) {
	if c.Issuer != TokenIssuer {
		return Claims{}, fmt.Errorf("unexpected issuer %q", c.Issuer)
	}
	sub, err := uuid.Parse(c.Subject)
	if err != nil {
		return Claims{}, fmt.Errorf("sub: %w", err)
	}
	iat, err := strconv.ParseInt(c.IssuedAt, 10, 64)
	if err != nil {
		return Claims{}, fmt.Errorf("iat: %w", err)
	}
	exp, err := strconv.ParseInt(c.ExpiresAt, 10, 64)
	if err != nil {
		return Claims{}, fmt.Errorf("exp: %w", err)
	}
	admin, err := strconv.ParseBool(c.Admin)
	if err != nil {
		return Claims{}, fmt.Errorf("admin: %w", err)
	}
	if c.Email == "" {
		return Claims{}, errors.New("email: missing")
	}
	return Claims{
		Issuer:      c.Issuer,
		Subject:     sub,
		IssuedAt:    iat,
		ExpiresAt:   exp,
		DisplayName: c.DisplayName,
		Email:       c.Email,
		Admin:       admin,
	}, nil
}

// TokenCodec signs and verifies HS256 tokens with a secret fixed at construction.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// NewTokenCodec returns a codec bound to secret. An empty secret is rejected.
func NewTokenCodec(secret string) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	return &TokenCodec{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a 24h token for user.
func (c *TokenCodec) Issue(user *domain.User) (string, error) {
	now := c.now().UTC()
	claims := wireClaims{
		Issuer:      TokenIssuer,
		Subject:     user.ID.String(),
		IssuedAt:    strconv.FormatInt(now.Unix(), 10),
		ExpiresAt:   strconv.FormatInt(now.Add(TokenLifetime).Unix(), 10),
		DisplayName: user.DisplayNameOrEmail(),
		Email:       user.Email,
		Admin:       strconv.FormatBool(user.Admin),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature of token and returns its claims. It does not check the
// token lifetime. Failures are ErrInvalidSignature or ErrMalformedClaims, never partial claims.
func (c *TokenCodec) Verify(token string) (Claims, error) {
	var wire wireClaims
	_, err := jwt.ParseWithClaims(token, &wire, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithStrictDecoding())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenUnverifiable) {
			return Claims{}, domain.ErrInvalidSignature
		}
		return Claims{}, domain.ErrMalformedClaims
	}

	claims, err := wire.toClaims()
	if err != nil {
		return Claims{}, domain.ErrMalformedClaims
	}
	return claims, nil
}
