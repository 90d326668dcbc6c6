// Package domain contains the core business logic and entities for hostsdns.
package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// RecordType represents the type of a DNS record (e.g., A, AAAA, MX).
type RecordType string

const (
	// TypeA represents an IPv4 address record.
	TypeA RecordType = "A"
	// TypeAAAA represents an IPv6 address record.
	TypeAAAA RecordType = "AAAA"
	// TypeCNAME represents a canonical name record.
	TypeCNAME RecordType = "CNAME"
	// TypeMX represents a mail exchange record.
	TypeMX RecordType = "MX"
	// TypeTXT represents a text record.
	TypeTXT RecordType = "TXT"
)

// MaxTTL is the largest TTL a record may carry (RFC 2181 section 8).
const MaxTTL = math.MaxInt32

// SupportedRecordTypes is the closed set of record types a zone may hold.
var SupportedRecordTypes = []RecordType{TypeA, TypeAAAA, TypeCNAME, TypeMX, TypeTXT}

// Zone is a registrable domain owned by a single user. ID is the FQDN itself, e.g. example.com.
type Zone struct {
	ID         string    `json:"id"`
	Owner      uuid.UUID `json:"owner_uuid"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Record represents a DNS resource record within a zone.
type Record struct {
	ID         uuid.UUID  `json:"id"`
	ZoneID     string     `json:"zone_id"`
	Name       string     `json:"name"` // FQDN, e.g. www.example.com.
	Type       RecordType `json:"type"`
	Content    string     `json:"content"`
	TTL        uint32     `json:"ttl"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedAt time.Time  `json:"modified_at"`
}

// RecordRequest is the client payload for creating or replacing a record.
type RecordRequest struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
	TTL     uint32 `json:"ttl"`
}

// AuditLog records mutations performed on zones and records.
type AuditLog struct {
	ID           uuid.UUID `json:"id"`
	Owner        uuid.UUID `json:"owner_uuid"`
	Action       string    `json:"action"`        // e.g., "CREATE_RECORD", "DELETE_ZONE"
	ResourceType string    `json:"resource_type"` // e.g., "ZONE", "RECORD"
	ResourceID   string    `json:"resource_id"`
	Details      string    `json:"details"`
	CreatedAt    time.Time `json:"created_at"`
}

// QueryMetrics summarizes resolver latency over the last day, in microseconds.
type QueryMetrics struct {
	P50   float64 `json:"p50"`
	P90   float64 `json:"p90"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Avg   float64 `json:"avg"`
	Count int64   `json:"count"`
}
