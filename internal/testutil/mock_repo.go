package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/poyrazK/hostsdns/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockRepo implements ports.Repository for testing.
type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) CreateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(email)
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(id)
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	args := m.Called()
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockRepo) GetUserByAPIKeyHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	args := m.Called(tokenHash)
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepo) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockRepo) ListAPIKeys(ctx context.Context, owner uuid.UUID) ([]domain.APIKey, error) {
	args := m.Called(owner)
	return args.Get(0).([]domain.APIKey), args.Error(1)
}

func (m *MockRepo) DeleteAPIKey(ctx context.Context, owner uuid.UUID, id uuid.UUID) error {
	args := m.Called(owner, id)
	return args.Error(0)
}

func (m *MockRepo) GetZone(ctx context.Context, id string) (*domain.Zone, error) {
	args := m.Called(id)
	return args.Get(0).(*domain.Zone), args.Error(1)
}

func (m *MockRepo) ListZones(ctx context.Context, owner uuid.UUID) ([]domain.Zone, error) {
	args := m.Called(owner)
	return args.Get(0).([]domain.Zone), args.Error(1)
}

func (m *MockRepo) CreateZone(ctx context.Context, zone *domain.Zone) error {
	args := m.Called(zone)
	return args.Error(0)
}

func (m *MockRepo) DeleteZone(ctx context.Context, id string, owner uuid.UUID) error {
	args := m.Called(id, owner)
	return args.Error(0)
}

func (m *MockRepo) GetRecord(ctx context.Context, id uuid.UUID, zoneID string) (*domain.Record, error) {
	args := m.Called(id, zoneID)
	return args.Get(0).(*domain.Record), args.Error(1)
}

func (m *MockRepo) ListRecordsForZone(ctx context.Context, zoneID string) ([]domain.Record, error) {
	args := m.Called(zoneID)
	return args.Get(0).([]domain.Record), args.Error(1)
}

func (m *MockRepo) CreateRecord(ctx context.Context, record *domain.Record) error {
	args := m.Called(record)
	return args.Error(0)
}

func (m *MockRepo) UpdateRecord(ctx context.Context, record *domain.Record) error {
	args := m.Called(record)
	return args.Error(0)
}

func (m *MockRepo) DeleteRecord(ctx context.Context, id uuid.UUID, zoneID string) error {
	args := m.Called(id, zoneID)
	return args.Error(0)
}

func (m *MockRepo) SaveAuditLog(ctx context.Context, log *domain.AuditLog) error {
	args := m.Called(log)
	return args.Error(0)
}

func (m *MockRepo) GetAuditLogs(ctx context.Context, owner uuid.UUID) ([]domain.AuditLog, error) {
	args := m.Called(owner)
	return args.Get(0).([]domain.AuditLog), args.Error(1)
}

func (m *MockRepo) Ping(ctx context.Context) error {
	args := m.Called()
	return args.Error(0)
}

// MockMetricsRepo implements ports.MetricsRepository for testing.
type MockMetricsRepo struct {
	mock.Mock
}

func (m *MockMetricsRepo) GetQueryMetrics(ctx context.Context) (*domain.QueryMetrics, error) {
	args := m.Called()
	return args.Get(0).(*domain.QueryMetrics), args.Error(1)
}
