package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poyrazK/hostsdns/internal/core/domain"
	"github.com/poyrazK/hostsdns/internal/testutil"
	"github.com/stretchr/testify/mock"
)

func ownedBy(owner uuid.UUID, id string) *domain.Zone {
	return &domain.Zone{ID: id, Owner: owner, CreatedAt: time.Now()}
}

func TestCreateZone(t *testing.T) {
	ctx := context.Background()
	p := domain.Principal{Subject: uuid.New()}

	t.Run("Success", func(t *testing.T) {
		repo := new(testutil.MockRepo)
		svc := NewZoneService(repo, nil)
		repo.On("CreateZone", mock.MatchedBy(func(z *domain.Zone) bool {
			return z.ID == "example.com." && z.Owner == p.Subject
		})).Return(nil)
		repo.On("SaveAuditLog", mock.Anything).Return(nil)

		zone, err := svc.CreateZone(ctx, p, "Example.COM")
		if err != nil {
			t.Fatalf("CreateZone failed: %v", err)
		}
		if zone.ID != "example.com." {
			t.Errorf("expected example.com., got %s", zone.ID)
		}
		repo.AssertExpectations(t)
	})

	t.Run("Multi-label suffix", func(t *testing.T) {
		repo := new(testutil.MockRepo)
		svc := NewZoneService(repo, nil)
		repo.On("CreateZone", mock.Anything).Return(nil)
		repo.On("SaveAuditLog", mock.Anything).Return(nil)

		if _, err := svc.CreateZone(ctx, p, "example.co.uk."); err != nil {
			t.Errorf("expected success, got %v", err)
		}
	})

	rejections := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"Subdomain", "www.example.com", domain.ErrNotRootDomain},
		{"Bare suffix", "co.uk", domain.ErrInvalidDomain},
		{"Unknown suffix", "foo.notatld", domain.ErrInvalidDomain},
		{"Garbage", "not a domain!", domain.ErrInvalidDomain},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(testutil.MockRepo)
			svc := NewZoneService(repo, nil)

			if _, err := svc.CreateZone(ctx, p, tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			repo.AssertNotCalled(t, "CreateZone", mock.Anything)
		})
	}

	t.Run("Duplicate", func(t *testing.T) {
		repo := new(testutil.MockRepo)
		svc := NewZoneService(repo, nil)
		repo.On("CreateZone", mock.Anything).Return(domain.ErrZoneExists)

		if _, err := svc.CreateZone(ctx, p, "example.com"); !errors.Is(err, domain.ErrZoneExists) {
			t.Errorf("expected ErrZoneExists, got %v", err)
		}
		repo.AssertNotCalled(t, "SaveAuditLog", mock.Anything)
	})

	t.Run("Audit failure does not fail the mutation", func(t *testing.T) {
		repo := new(testutil.MockRepo)
		svc := NewZoneService(repo, nil)
		repo.On("CreateZone", mock.Anything).Return(nil)
		repo.On("SaveAuditLog", mock.Anything).Return(errors.New("audit table locked"))

		if _, err := svc.CreateZone(ctx, p, "example.com"); err != nil {
			t.Errorf("expected success, got %v", err)
		}
	})
}

func TestZoneOwnership(t *testing.T) {
	ctx := context.Background()
	owner := domain.Principal{Subject: uuid.New()}
	stranger := domain.Principal{Subject: uuid.New(), Admin: true}
	anonymous := domain.Principal{}

	repo := new(testutil.MockRepo)
	svc := NewZoneService(repo, nil)
	repo.On("GetZone", "example.com.").Return(ownedBy(owner.Subject, "example.com."), nil)
	repo.On("GetZone", "missing.com.").Return((*domain.Zone)(nil), nil)
	repo.On("ListRecordsForZone", "example.com.").Return([]domain.Record{}, nil)

	if _, err := svc.ListRecords(ctx, owner, "example.com"); err != nil {
		t.Errorf("owner should list records: %v", err)
	}
	// Admin rights do not extend to other users' zones.
	if _, err := svc.ListRecords(ctx, stranger, "example.com."); !errors.Is(err, domain.ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if _, err := svc.ListRecords(ctx, anonymous, "example.com."); !errors.Is(err, domain.ErrNotOwner) {
		t.Errorf("expected ErrNotOwner for nil subject, got %v", err)
	}
	if _, err := svc.ListRecords(ctx, owner, "missing.com"); !errors.Is(err, domain.ErrZoneNotFound) {
		t.Errorf("expected ErrZoneNotFound, got %v", err)
	}
	if err := svc.DeleteZone(ctx, stranger, "example.com."); !errors.Is(err, domain.ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	repo.AssertNotCalled(t, "DeleteZone", mock.Anything, mock.Anything)
}

func TestDeleteZone(t *testing.T) {
	repo := new(testutil.MockRepo)
	svc := NewZoneService(repo, nil)
	p := domain.Principal{Subject: uuid.New()}

	repo.On("GetZone", "example.com.").Return(ownedBy(p.Subject, "example.com."), nil)
	repo.On("DeleteZone", "example.com.", p.Subject).Return(nil)
	repo.On("SaveAuditLog", mock.MatchedBy(func(l *domain.AuditLog) bool {
		return l.Action == "DELETE_ZONE" && l.ResourceID == "example.com." && l.Owner == p.Subject
	})).Return(nil)

	if err := svc.DeleteZone(context.Background(), p, "example.com"); err != nil {
		t.Fatalf("DeleteZone failed: %v", err)
	}
	repo.AssertExpectations(t)
}

func TestOwningZone(t *testing.T) {
	repo := new(testutil.MockRepo)
	svc := NewZoneService(repo, nil)
	p := domain.Principal{Subject: uuid.New()}

	repo.On("ListZones", p.Subject).Return([]domain.Zone{
		{ID: "example.com.", Owner: p.Subject},
		{ID: "dev.example.com.", Owner: p.Subject},
	}, nil)

	zone, err := svc.OwningZone(context.Background(), p, "api.dev.example.com")
	if err != nil || zone.ID != "dev.example.com." {
		t.Errorf("expected dev.example.com., got %v, %v", zone, err)
	}
	zone, err = svc.OwningZone(context.Background(), p, "www.example.com.")
	if err != nil || zone.ID != "example.com." {
		t.Errorf("expected example.com., got %v, %v", zone, err)
	}
	if _, err := svc.OwningZone(context.Background(), p, "notexample.com"); !errors.Is(err, domain.ErrNoOwningZone) {
		t.Errorf("expected ErrNoOwningZone, got %v", err)
	}
}

func TestCreateRecord(t *testing.T) {
	ctx := context.Background()
	p := domain.Principal{Subject: uuid.New()}

	newRepo := func() *testutil.MockRepo {
		repo := new(testutil.MockRepo)
		repo.On("GetZone", "example.com.").Return(ownedBy(p.Subject, "example.com."), nil)
		repo.On("SaveAuditLog", mock.Anything).Return(nil)
		return repo
	}

	t.Run("Success with TTL clamp", func(t *testing.T) {
		repo := newRepo()
		svc := NewZoneService(repo, nil)
		repo.On("CreateRecord", mock.MatchedBy(func(r *domain.Record) bool {
			return r.Name == "www.example.com." && r.Type == domain.TypeA && r.TTL == MinTTL && r.ZoneID == "example.com."
		})).Return(nil)

		rec, err := svc.CreateRecord(ctx, p, "example.com.", domain.RecordRequest{
			Name: "WWW.example.com", Type: "a", Content: "192.0.2.1", TTL: 5,
		})
		if err != nil {
			t.Fatalf("CreateRecord failed: %v", err)
		}
		if rec.ID == uuid.Nil || rec.TTL != MinTTL {
			t.Errorf("unexpected record: %+v", rec)
		}
		repo.AssertExpectations(t)
	})

	t.Run("Apex record", func(t *testing.T) {
		repo := newRepo()
		svc := NewZoneService(repo, nil)
		repo.On("CreateRecord", mock.Anything).Return(nil)

		rec, err := svc.CreateRecord(ctx, p, "example.com.", domain.RecordRequest{
			Name: "example.com.", Type: "MX", Content: "mail.example.com.", TTL: 3600,
		})
		if err != nil || rec.TTL != 3600 {
			t.Errorf("unexpected result: %+v, %v", rec, err)
		}
	})

	t.Run("Wildcard and max TTL", func(t *testing.T) {
		repo := newRepo()
		svc := NewZoneService(repo, nil)
		repo.On("CreateRecord", mock.MatchedBy(func(r *domain.Record) bool {
			return r.Name == "*.example.com." && r.TTL == domain.MaxTTL
		})).Return(nil)

		if _, err := svc.CreateRecord(ctx, p, "example.com.", domain.RecordRequest{
			Name: "*.example.com.", Type: "TXT", Content: "hello", TTL: domain.MaxTTL,
		}); err != nil {
			t.Errorf("CreateRecord failed: %v", err)
		}
		repo.AssertExpectations(t)
	})

	rejections := []struct {
		name    string
		req     domain.RecordRequest
		wantErr error
	}{
		{"Outside zone", domain.RecordRequest{Name: "www.other.com", Type: "A", Content: "192.0.2.1"}, domain.ErrNotFullyQualified},
		{"Label boundary", domain.RecordRequest{Name: "badexample.com", Type: "A", Content: "192.0.2.1"}, domain.ErrNotFullyQualified},
		{"Unsupported type", domain.RecordRequest{Name: "www.example.com", Type: "SRV", Content: "x"}, domain.ErrUnsupportedType},
		{"IPv6 in A", domain.RecordRequest{Name: "www.example.com", Type: "A", Content: "2001:db8::1"}, domain.ErrMalformedContent},
		{"IPv4 in AAAA", domain.RecordRequest{Name: "www.example.com", Type: "AAAA", Content: "192.0.2.1"}, domain.ErrMalformedContent},
		{"Bad CNAME", domain.RecordRequest{Name: "www.example.com", Type: "CNAME", Content: "not a name"}, domain.ErrMalformedContent},
		{"Bad MX", domain.RecordRequest{Name: "example.com", Type: "MX", Content: "<script>"}, domain.ErrMalformedContent},
		{"Bad record name", domain.RecordRequest{Name: "bad name!.example.com.", Type: "A", Content: "192.0.2.1"}, domain.ErrInvalidRecordName},
		{"TTL above int32", domain.RecordRequest{Name: "www.example.com", Type: "A", Content: "192.0.2.1", TTL: 4294967295}, domain.ErrInvalidTTL},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			repo := newRepo()
			svc := NewZoneService(repo, nil)

			if _, err := svc.CreateRecord(ctx, p, "example.com.", tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			repo.AssertNotCalled(t, "CreateRecord", mock.Anything)
		})
	}
}

func TestUpdateRecord(t *testing.T) {
	ctx := context.Background()
	p := domain.Principal{Subject: uuid.New()}
	existing := &domain.Record{
		ID: uuid.New(), ZoneID: "example.com.", Name: "www.example.com.", Type: domain.TypeA,
		Content: "192.0.2.1", TTL: 300, CreatedAt: time.Now().Add(-time.Hour),
	}

	repo := new(testutil.MockRepo)
	svc := NewZoneService(repo, nil)
	repo.On("GetZone", "example.com.").Return(ownedBy(p.Subject, "example.com."), nil)
	repo.On("GetRecord", existing.ID, "example.com.").Return(existing, nil)
	repo.On("GetRecord", mock.Anything, "example.com.").Return((*domain.Record)(nil), nil)
	repo.On("UpdateRecord", mock.MatchedBy(func(r *domain.Record) bool {
		return r.ID == existing.ID && r.Type == domain.TypeAAAA && r.CreatedAt.Equal(existing.CreatedAt)
	})).Return(nil)
	repo.On("SaveAuditLog", mock.Anything).Return(nil)

	req := domain.RecordRequest{Name: "www.example.com.", Type: "AAAA", Content: "2001:db8::1", TTL: 300}
	rec, err := svc.UpdateRecord(ctx, p, "example.com.", existing.ID.String(), req)
	if err != nil {
		t.Fatalf("UpdateRecord failed: %v", err)
	}
	if rec.Content != "2001:db8::1" {
		t.Errorf("unexpected record: %+v", rec)
	}

	if _, err := svc.UpdateRecord(ctx, p, "example.com.", "not-a-uuid", req); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound for bad id, got %v", err)
	}
	if _, err := svc.UpdateRecord(ctx, p, "example.com.", uuid.NewString(), req); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}

	req.TTL = domain.MaxTTL + 1
	if _, err := svc.UpdateRecord(ctx, p, "example.com.", existing.ID.String(), req); !errors.Is(err, domain.ErrInvalidTTL) {
		t.Errorf("expected ErrInvalidTTL, got %v", err)
	}
	repo.AssertNumberOfCalls(t, "UpdateRecord", 1)
}

func TestDeleteRecord(t *testing.T) {
	ctx := context.Background()
	p := domain.Principal{Subject: uuid.New()}
	existing := &domain.Record{ID: uuid.New(), ZoneID: "example.com.", Name: "example.com.", Type: domain.TypeTXT, Content: "v=spf1 -all", TTL: 60}

	repo := new(testutil.MockRepo)
	svc := NewZoneService(repo, nil)
	repo.On("GetZone", "example.com.").Return(ownedBy(p.Subject, "example.com."), nil)
	repo.On("GetRecord", existing.ID, "example.com.").Return(existing, nil)
	repo.On("DeleteRecord", existing.ID, "example.com.").Return(nil)
	repo.On("SaveAuditLog", mock.MatchedBy(func(l *domain.AuditLog) bool {
		return l.Action == "DELETE_RECORD" && l.ResourceType == "RECORD"
	})).Return(nil)

	if err := svc.DeleteRecord(ctx, p, "example.com.", existing.ID.String()); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	repo.AssertExpectations(t)
}

func TestHealthCheck(t *testing.T) {
	repo := new(testutil.MockRepo)
	svc := NewZoneService(repo, nil)
	repo.On("Ping").Return(errors.New("unreachable"))

	status := svc.HealthCheck(context.Background())
	if status["postgres"] == nil {
		t.Errorf("expected postgres failure to be reported")
	}
}
