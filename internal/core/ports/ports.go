package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/poyrazK/hostsdns/internal/core/domain"
)

// Lookups return (nil, nil) when no row matches.

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type APIKeyRepository interface {
	// GetUserByAPIKeyHash returns the owner of an unexpired key with the given hash.
	GetUserByAPIKeyHash(ctx context.Context, tokenHash string) (*domain.User, error)
	CreateAPIKey(ctx context.Context, key *domain.APIKey) error
	ListAPIKeys(ctx context.Context, owner uuid.UUID) ([]domain.APIKey, error)
	DeleteAPIKey(ctx context.Context, owner uuid.UUID, id uuid.UUID) error
}

type ZoneRepository interface {
	GetZone(ctx context.Context, id string) (*domain.Zone, error)
	ListZones(ctx context.Context, owner uuid.UUID) ([]domain.Zone, error)
	CreateZone(ctx context.Context, zone *domain.Zone) error
	DeleteZone(ctx context.Context, id string, owner uuid.UUID) error
}

type RecordRepository interface {
	GetRecord(ctx context.Context, id uuid.UUID, zoneID string) (*domain.Record, error)
	ListRecordsForZone(ctx context.Context, zoneID string) ([]domain.Record, error)
	CreateRecord(ctx context.Context, record *domain.Record) error
	UpdateRecord(ctx context.Context, record *domain.Record) error
	DeleteRecord(ctx context.Context, id uuid.UUID, zoneID string) error
}

type AuditRepository interface {
	SaveAuditLog(ctx context.Context, log *domain.AuditLog) error
	GetAuditLogs(ctx context.Context, owner uuid.UUID) ([]domain.AuditLog, error)
}

// Repository is the storage collaborator the API runs against.
type Repository interface {
	UserRepository
	APIKeyRepository
	ZoneRepository
	RecordRepository
	AuditRepository
	Ping(ctx context.Context) error
}

// MetricsRepository reads resolver query statistics from the metrics database.
type MetricsRepository interface {
	GetQueryMetrics(ctx context.Context) (*domain.QueryMetrics, error)
}

// RateLimiter reports whether one more request for key fits in its budget.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Authenticator turns an Authorization header value into a principal.
type Authenticator interface {
	Verify(ctx context.Context, authHeader string) (domain.Principal, error)
}

type UserService interface {
	Signup(ctx context.Context, email, password string, displayName *string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	ListUsers(ctx context.Context, p domain.Principal) ([]domain.User, error)
	NeedsTOTP(ctx context.Context, email string) (bool, error)
}

type ZoneService interface {
	CreateZone(ctx context.Context, p domain.Principal, name string) (*domain.Zone, error)
	ListZones(ctx context.Context, p domain.Principal) ([]domain.Zone, error)
	DeleteZone(ctx context.Context, p domain.Principal, zoneID string) error
	OwningZone(ctx context.Context, p domain.Principal, name string) (*domain.Zone, error)
	ListRecords(ctx context.Context, p domain.Principal, zoneID string) ([]domain.Record, error)
	CreateRecord(ctx context.Context, p domain.Principal, zoneID string, req domain.RecordRequest) (*domain.Record, error)
	UpdateRecord(ctx context.Context, p domain.Principal, zoneID, recordID string, req domain.RecordRequest) (*domain.Record, error)
	DeleteRecord(ctx context.Context, p domain.Principal, zoneID, recordID string) error
	ListAuditLogs(ctx context.Context, p domain.Principal) ([]domain.AuditLog, error)
	HealthCheck(ctx context.Context) map[string]error
}
