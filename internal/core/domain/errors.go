package domain

// ErrorKind groups rejections by how callers must treat them.
type ErrorKind string

const (
	KindAuthentication   ErrorKind = "authentication"
	KindAuthorization    ErrorKind = "authorization"
	KindDomainValidation ErrorKind = "domain_validation"
	KindRecordValidation ErrorKind = "record_validation"
	KindInvalidRequest   ErrorKind = "invalid_request"
	KindAlreadyExists    ErrorKind = "already_exists"
	KindNotFound         ErrorKind = "not_found"
	KindRateLimited      ErrorKind = "rate_limited"
)

// Error is a terminal rejection with a stable code. Message is supplementary detail.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// Is matches any *Error with the same kind and code, so sentinels survive WithMessage.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// WithMessage returns a copy of e carrying msg.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: msg}
}

func newError(kind ErrorKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Authentication failures.
var (
	ErrMissingHeader      = newError(KindAuthentication, "missing_header", "missing or invalid authorization header")
	ErrInvalidSignature   = newError(KindAuthentication, "invalid_signature", "invalid token")
	ErrMalformedClaims    = newError(KindAuthentication, "malformed_claims", "invalid token")
	ErrExpired            = newError(KindAuthentication, "expired", "token has expired")
	ErrNotYetValid        = newError(KindAuthentication, "not_yet_valid", "token is not valid yet")
	ErrUnknownAPIKey      = newError(KindAuthentication, "unknown_api_key", "invalid api key")
	ErrInvalidCredentials = newError(KindAuthentication, "invalid_credentials", "invalid email or password")
)

// Authorization failures.
var (
	ErrNotOwner      = newError(KindAuthorization, "not_owner", "you do not have permissions to access this zone")
	ErrAdminRequired = newError(KindAuthorization, "admin_required", "you do not have permission to perform this action")
)

// Domain validation failures.
var (
	ErrInvalidDomain = newError(KindDomainValidation, "invalid_domain", "invalid domain")
	ErrNotRootDomain = newError(KindDomainValidation, "not_root_domain", "domain must be a root domain")
)

// Record validation failures.
var (
	ErrUnsupportedType   = newError(KindRecordValidation, "unsupported_type", "unknown record type")
	ErrMalformedContent  = newError(KindRecordValidation, "malformed_content", "invalid record content")
	ErrNotFullyQualified = newError(KindRecordValidation, "not_fully_qualified", "record name must be fully qualified")
	ErrInvalidRecordName = newError(KindRecordValidation, "invalid_record_name", "invalid record name")
	ErrInvalidTTL        = newError(KindRecordValidation, "invalid_ttl", "invalid ttl")
)

// Request, lookup and conflict failures.
var (
	ErrInvalidRequest  = newError(KindInvalidRequest, "invalid_request", "")
	ErrSignupsDisabled = newError(KindInvalidRequest, "signups_disabled", "signups are not enabled")
	ErrTOTPDisabled    = newError(KindInvalidRequest, "totp_disabled", "totp is not enabled")
	ErrWeakPassword    = newError(KindInvalidRequest, "weak_password", "password must be at least 12 characters")
	ErrZoneExists      = newError(KindAlreadyExists, "zone_exists", "that zone already exists")
	ErrUserExists      = newError(KindAlreadyExists, "user_exists", "a user with that email already exists")
	ErrZoneNotFound    = newError(KindNotFound, "zone_not_found", "zone not found")
	ErrRecordNotFound  = newError(KindNotFound, "record_not_found", "record not found")
	ErrAPIKeyNotFound  = newError(KindNotFound, "api_key_not_found", "api key not found")
	ErrNoOwningZone    = newError(KindNotFound, "no_owning_zone", "no zone owns that name")
	ErrMetricsDisabled = newError(KindNotFound, "metrics_disabled", "metrics not enabled")
	ErrTooManyRequests = newError(KindRateLimited, "rate_limited", "too many requests")
)
