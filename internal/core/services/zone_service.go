package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poyrazK/hostsdns/internal/core/domain"
	"github.com/poyrazK/hostsdns/internal/core/ports"
	"github.com/poyrazK/hostsdns/internal/infrastructure/metrics"
)

// MinTTL is the smallest TTL stored for a record; lower values are raised to it.
const MinTTL = 60

type zoneService struct {
	repo   ports.Repository
	logger *slog.Logger
}

func NewZoneService(repo ports.Repository, logger *slog.Logger) ports.ZoneService {
	if logger == nil {
		logger = slog.Default()
	}
	return &zoneService{repo: repo, logger: logger}
}

func (s *zoneService) CreateZone(ctx context.Context, p domain.Principal, name string) (*domain.Zone, error) {
	fqdn := domain.NormalizeFQDN(name)
	root, err := domain.ComputeRoot(fqdn)
	if err != nil {
		return nil, s.reject(err)
	}
	if err := domain.EnforceIsRoot(fqdn, root); err != nil {
		return nil, s.reject(err)
	}

	now := time.Now().UTC()
	zone := &domain.Zone{
		ID:         root,
		Owner:      p.Subject,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	if err := s.repo.CreateZone(ctx, zone); err != nil {
		return nil, err
	}

	s.audit(ctx, p.Subject, "CREATE_ZONE", "ZONE", zone.ID, "")
	return zone, nil
}

func (s *zoneService) ListZones(ctx context.Context, p domain.Principal) ([]domain.Zone, error) {
	return s.repo.ListZones(ctx, p.Subject)
}

func (s *zoneService) DeleteZone(ctx context.Context, p domain.Principal, zoneID string) error {
	zone, err := s.ownedZone(ctx, p, zoneID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteZone(ctx, zone.ID, p.Subject); err != nil {
		return err
	}
	s.audit(ctx, p.Subject, "DELETE_ZONE", "ZONE", zone.ID, "")
	return nil
}

// OwningZone returns the caller's most specific zone containing name.
func (s *zoneService) OwningZone(ctx context.Context, p domain.Principal, name string) (*domain.Zone, error) {
	zones, err := s.repo.ListZones(ctx, p.Subject)
	if err != nil {
		return nil, err
	}
	zone, ok := domain.FindOwningZone(domain.NormalizeFQDN(name), zones)
	if !ok {
		return nil, domain.ErrNoOwningZone
	}
	return &zone, nil
}

func (s *zoneService) ListRecords(ctx context.Context, p domain.Principal, zoneID string) ([]domain.Record, error) {
	zone, err := s.ownedZone(ctx, p, zoneID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRecordsForZone(ctx, zone.ID)
}

func (s *zoneService) CreateRecord(ctx context.Context, p domain.Principal, zoneID string, req domain.RecordRequest) (*domain.Record, error) {
	zone, err := s.ownedZone(ctx, p, zoneID)
	if err != nil {
		return nil, err
	}
	record, err := buildRecord(zone, req)
	if err != nil {
		return nil, s.reject(err)
	}

	record.ID = uuid.New()
	record.CreatedAt = time.Now().UTC()
	record.ModifiedAt = record.CreatedAt
	if err := s.repo.CreateRecord(ctx, record); err != nil {
		return nil, err
	}

	s.audit(ctx, p.Subject, "CREATE_RECORD", "RECORD", record.ID.String(), describeRecord(record))
	return record, nil
}

func (s *zoneService) UpdateRecord(ctx context.Context, p domain.Principal, zoneID, recordID string, req domain.RecordRequest) (*domain.Record, error) {
	zone, err := s.ownedZone(ctx, p, zoneID)
	if err != nil {
		return nil, err
	}
	existing, err := s.zoneRecord(ctx, zone, recordID)
	if err != nil {
		return nil, err
	}
	record, err := buildRecord(zone, req)
	if err != nil {
		return nil, s.reject(err)
	}

	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	record.ModifiedAt = time.Now().UTC()
	if err := s.repo.UpdateRecord(ctx, record); err != nil {
		return nil, err
	}

	s.audit(ctx, p.Subject, "UPDATE_RECORD", "RECORD", record.ID.String(), describeRecord(record))
	return record, nil
}

func (s *zoneService) DeleteRecord(ctx context.Context, p domain.Principal, zoneID, recordID string) error {
	zone, err := s.ownedZone(ctx, p, zoneID)
	if err != nil {
		return err
	}
	existing, err := s.zoneRecord(ctx, zone, recordID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteRecord(ctx, existing.ID, zone.ID); err != nil {
		return err
	}
	s.audit(ctx, p.Subject, "DELETE_RECORD", "RECORD", existing.ID.String(), describeRecord(existing))
	return nil
}

func (s *zoneService) ListAuditLogs(ctx context.Context, p domain.Principal) ([]domain.AuditLog, error) {
	return s.repo.GetAuditLogs(ctx, p.Subject)
}

func (s *zoneService) HealthCheck(ctx context.Context) map[string]error {
	return map[string]error{
		"postgres": s.repo.Ping(ctx),
	}
}

// ownedZone loads zoneID and applies the ownership rule to it.
func (s *zoneService) ownedZone(ctx context.Context, p domain.Principal, zoneID string) (*domain.Zone, error) {
	id := domain.NormalizeFQDN(zoneID)
	zone, err := s.repo.GetZone(ctx, id)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		return nil, domain.ErrZoneNotFound.WithMessage(fmt.Sprintf("zone %s not found", id))
	}
	if err := domain.Authorize(p, zone.Owner); err != nil {
		return nil, s.reject(err)
	}
	return zone, nil
}

func (s *zoneService) zoneRecord(ctx context.Context, zone *domain.Zone, recordID string) (*domain.Record, error) {
	id, err := uuid.Parse(recordID)
	if err != nil {
		return nil, domain.ErrRecordNotFound.WithMessage(fmt.Sprintf("record %s not found", recordID))
	}
	record, err := s.repo.GetRecord(ctx, id, zone.ID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrRecordNotFound.WithMessage(fmt.Sprintf("record %s not found", recordID))
	}
	return record, nil
}

// buildRecord validates req against zone and returns the record to persist.
func buildRecord(zone *domain.Zone, req domain.RecordRequest) (*domain.Record, error) {
	name := domain.NormalizeFQDN(req.Name)
	if err := domain.ValidateContainment(name, zone.ID); err != nil {
		return nil, err
	}
	if err := domain.ValidateRecordName(name); err != nil {
		return nil, err
	}
	if err := domain.ValidateTTL(req.TTL); err != nil {
		return nil, err
	}
	rtype, err := domain.ParseRecordType(req.Type)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateRecordContent(rtype, req.Content); err != nil {
		return nil, err
	}

	ttl := req.TTL
	if ttl < MinTTL {
		ttl = MinTTL
	}
	return &domain.Record{
		ZoneID:  zone.ID,
		Name:    name,
		Type:    rtype,
		Content: req.Content,
		TTL:     ttl,
	}, nil
}

func (s *zoneService) reject(err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		metrics.RejectedMutations.WithLabelValues(de.Code).Inc()
	}
	return err
}

func (s *zoneService) audit(ctx context.Context, owner uuid.UUID, action, resourceType, resourceID, details string) {
	metrics.ZoneMutations.WithLabelValues(action).Inc()
	entry := &domain.AuditLog{
		ID:           uuid.New(),
		Owner:        owner,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.SaveAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to save audit log", "action", action, "resource_id", resourceID, "error", err)
	}
}

func describeRecord(r *domain.Record) string {
	return fmt.Sprintf("%s %d %s %s", r.Name, r.TTL, r.Type, r.Content)
}
