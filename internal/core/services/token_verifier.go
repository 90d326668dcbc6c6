package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/poyrazK/hostsdns/internal/core/domain"
	"github.com/poyrazK/hostsdns/internal/infrastructure/metrics"
)

// CredentialKind tells the two bearer shapes apart.
type CredentialKind int

const (
	SignedTokenCredential CredentialKind = iota
	APIKeyCredential
)

func (k CredentialKind) String() string {
	if k == APIKeyCredential {
		return "api_key"
	}
	return "token"
}

// Credential is a bearer value classified once at the boundary. APIKeyCredential carries
// only the hash of the raw key.
type Credential struct {
	Kind  CredentialKind
	Token string
	Hash  string
}

// ParseCredential classifies the value of an Authorization header.
func ParseCredential(authHeader string) (Credential, error) {
	value, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return Credential{}, domain.ErrMissingHeader
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return Credential{}, domain.ErrMissingHeader
	}
	if strings.HasPrefix(value, domain.APIKeyPrefix) {
		return Credential{Kind: APIKeyCredential, Hash: HashAPIKey(value)}, nil
	}
	return Credential{Kind: SignedTokenCredential, Token: value}, nil
}

// TokenVerifier authenticates requests with either a signed token or an API key.
type TokenVerifier struct {
	codec *TokenCodec
	keys  *APIKeyResolver
	now   func() time.Time
}

func NewTokenVerifier(codec *TokenCodec, keys *APIKeyResolver) *TokenVerifier {
	return &TokenVerifier{codec: codec, keys: keys, now: time.Now}
}

// Verify returns the principal behind authHeader. Rejections are *domain.Error values of
// kind KindAuthentication; storage failures are returned wrapped.
func (v *TokenVerifier) Verify(ctx context.Context, authHeader string) (domain.Principal, error) {
	cred, err := ParseCredential(authHeader)
	if err != nil {
		observeAuth("none", err)
		return domain.Principal{}, err
	}

	var p domain.Principal
	switch cred.Kind {
	case APIKeyCredential:
		p, err = v.verifyAPIKey(ctx, cred.Hash)
	case SignedTokenCredential:
		p, err = v.verifyToken(cred.Token)
	default:
		err = domain.ErrMalformedClaims
	}
	observeAuth(cred.Kind.String(), err)
	return p, err
}

func (v *TokenVerifier) verifyAPIKey(ctx context.Context, hash string) (domain.Principal, error) {
	user, err := v.keys.Resolve(ctx, hash)
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.PrincipalFromUser(user), nil
}

func (v *TokenVerifier) verifyToken(token string) (domain.Principal, error) {
	claims, err := v.codec.Verify(token)
	if err != nil {
		return domain.Principal{}, err
	}

	now := v.now().UTC().Unix()
	if claims.IssuedAt > now {
		return domain.Principal{}, domain.ErrNotYetValid
	}
	if claims.ExpiresAt < now {
		return domain.Principal{}, domain.ErrExpired
	}

	return domain.Principal{
		Subject:     claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		Admin:       claims.Admin,
		IssuedAt:    claims.IssuedAt,
		ExpiresAt:   claims.ExpiresAt,
	}, nil
}

func observeAuth(credential string, err error) {
	result := "ok"
	if err != nil {
		result = "internal_error"
		var de *domain.Error
		if errors.As(err, &de) {
			result = de.Code
		}
	}
	metrics.AuthAttempts.WithLabelValues(credential, result).Inc()
}
