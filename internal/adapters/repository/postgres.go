package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/poyrazK/hostsdns/internal/core/domain"
)

// uniqueViolation is the SQLSTATE Postgres reports for a duplicate key.
const uniqueViolation = "23505"

// PostgresRepository implements ports.Repository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates and returns a new PostgresRepository instance.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func closeRows(rows *sql.Rows) {
	if errClose := rows.Close(); errClose != nil {
		log.Printf("failed to close rows: %v", errClose)
	}
}

// translateUnique maps a unique-key violation to conflict; other errors pass through.
func translateUnique(err error, conflict *domain.Error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return conflict
	}
	return err
}

// expectOne turns a zero-row mutation into notFound.
func expectOne(res sql.Result, notFound *domain.Error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

const userColumns = `users.id, users.email, users.password, users.display_name, users.admin, users.enabled, users.totp_secret, users.created_at, users.modified_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	errScan := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Admin, &u.Enabled, &u.TOTPSecret, &u.CreatedAt, &u.ModifiedAt)
	if errors.Is(errScan, sql.ErrNoRows) {
		return nil, nil
	}
	if errScan != nil {
		return nil, errScan
	}
	return &u, nil
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, email, password, display_name, admin, enabled, created_at, modified_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.DisplayName, user.Admin, user.Enabled, user.CreatedAt, user.ModifiedAt)
	return translateUnique(err, domain.ErrUserExists)
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE users.email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE users.id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY users.created_at`
	rows, errQuery := r.db.QueryContext(ctx, query)
	if errQuery != nil {
		return nil, errQuery
	}
	defer closeRows(rows)

	users := []domain.User{}
	for rows.Next() {
		u, errScan := scanUser(rows)
		if errScan != nil {
			return nil, errScan
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// GetUserByAPIKeyHash joins api_keys to users. Expired keys do not match.
func (r *PostgresRepository) GetUserByAPIKeyHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM api_keys
			  JOIN users ON users.id = api_keys.owner_uuid
			  WHERE api_keys.token_hash = $1 AND api_keys.expires_at > now()`
	return scanUser(r.db.QueryRowContext(ctx, query, tokenHash))
}

func (r *PostgresRepository) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	query := `INSERT INTO api_keys (id, owner_uuid, name, token_hash, key_prefix, created_at, expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, key.ID, key.Owner, key.Name, key.TokenHash, key.KeyPrefix, key.CreatedAt, key.ExpiresAt)
	return err
}

func (r *PostgresRepository) ListAPIKeys(ctx context.Context, owner uuid.UUID) ([]domain.APIKey, error) {
	query := `SELECT id, owner_uuid, name, key_prefix, created_at, expires_at FROM api_keys WHERE owner_uuid = $1 ORDER BY created_at DESC`
	rows, errQuery := r.db.QueryContext(ctx, query, owner)
	if errQuery != nil {
		return nil, errQuery
	}
	defer closeRows(rows)

	keys := []domain.APIKey{}
	for rows.Next() {
		var k domain.APIKey
		if errScan := rows.Scan(&k.ID, &k.Owner, &k.Name, &k.KeyPrefix, &k.CreatedAt, &k.ExpiresAt); errScan != nil {
			return nil, errScan
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *PostgresRepository) DeleteAPIKey(ctx context.Context, owner uuid.UUID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1 AND owner_uuid = $2`, id, owner)
	if err != nil {
		return err
	}
	return expectOne(res, domain.ErrAPIKeyNotFound)
}

func (r *PostgresRepository) GetZone(ctx context.Context, id string) (*domain.Zone, error) {
	query := `SELECT id, owner_uuid, created_at, modified_at FROM zones WHERE id = $1`
	var z domain.Zone
	errRow := r.db.QueryRowContext(ctx, query, id).Scan(&z.ID, &z.Owner, &z.CreatedAt, &z.ModifiedAt)
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	if errRow != nil {
		return nil, errRow
	}
	return &z, nil
}

func (r *PostgresRepository) ListZones(ctx context.Context, owner uuid.UUID) ([]domain.Zone, error) {
	query := `SELECT id, owner_uuid, created_at, modified_at FROM zones WHERE owner_uuid = $1 ORDER BY id`
	rows, errQuery := r.db.QueryContext(ctx, query, owner)
	if errQuery != nil {
		return nil, errQuery
	}
	defer closeRows(rows)

	zones := []domain.Zone{}
	for rows.Next() {
		var z domain.Zone
		if errScan := rows.Scan(&z.ID, &z.Owner, &z.CreatedAt, &z.ModifiedAt); errScan != nil {
			return nil, errScan
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

func (r *PostgresRepository) CreateZone(ctx context.Context, zone *domain.Zone) error {
	query := `INSERT INTO zones (id, owner_uuid, created_at, modified_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, zone.ID, zone.Owner, zone.CreatedAt, zone.ModifiedAt)
	return translateUnique(err, domain.ErrZoneExists)
}

// DeleteZone removes the zone and, by cascade, its records.
func (r *PostgresRepository) DeleteZone(ctx context.Context, id string, owner uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM zones WHERE id = $1 AND owner_uuid = $2`, id, owner)
	if err != nil {
		return err
	}
	return expectOne(res, domain.ErrZoneNotFound)
}

const recordColumns = `id, zone_id, name, type, content, ttl, created_at, modified_at`

func scanRecord(row rowScanner) (*domain.Record, error) {
	var rec domain.Record
	if errScan := row.Scan(&rec.ID, &rec.ZoneID, &rec.Name, &rec.Type, &rec.Content, &rec.TTL, &rec.CreatedAt, &rec.ModifiedAt); errScan != nil {
		return nil, errScan
	}
	return &rec, nil
}

func (r *PostgresRepository) GetRecord(ctx context.Context, id uuid.UUID, zoneID string) (*domain.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE id = $1 AND zone_id = $2`
	rec, errRow := scanRecord(r.db.QueryRowContext(ctx, query, id, zoneID))
	if errors.Is(errRow, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, errRow
}

func (r *PostgresRepository) ListRecordsForZone(ctx context.Context, zoneID string) ([]domain.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE zone_id = $1 ORDER BY name, type`
	rows, errQuery := r.db.QueryContext(ctx, query, zoneID)
	if errQuery != nil {
		return nil, errQuery
	}
	defer closeRows(rows)

	records := []domain.Record{}
	for rows.Next() {
		rec, errScan := scanRecord(rows)
		if errScan != nil {
			return nil, errScan
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *PostgresRepository) CreateRecord(ctx context.Context, record *domain.Record) error {
	query := `INSERT INTO records (id, zone_id, name, type, content, ttl, created_at, modified_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query, record.ID, record.ZoneID, record.Name, string(record.Type), record.Content, int64(record.TTL), record.CreatedAt, record.ModifiedAt)
	return err
}

func (r *PostgresRepository) UpdateRecord(ctx context.Context, record *domain.Record) error {
	query := `UPDATE records SET name = $1, type = $2, content = $3, ttl = $4, modified_at = $5
			  WHERE id = $6 AND zone_id = $7`
	res, err := r.db.ExecContext(ctx, query, record.Name, string(record.Type), record.Content, int64(record.TTL), record.ModifiedAt, record.ID, record.ZoneID)
	if err != nil {
		return err
	}
	return expectOne(res, domain.ErrRecordNotFound)
}

func (r *PostgresRepository) DeleteRecord(ctx context.Context, id uuid.UUID, zoneID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = $1 AND zone_id = $2`, id, zoneID)
	if err != nil {
		return err
	}
	return expectOne(res, domain.ErrRecordNotFound)
}

func (r *PostgresRepository) SaveAuditLog(ctx context.Context, entry *domain.AuditLog) error {
	query := `INSERT INTO audit_logs (id, owner_uuid, action, resource_type, resource_id, details, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, entry.ID, entry.Owner, entry.Action, entry.ResourceType, entry.ResourceID, entry.Details, entry.CreatedAt)
	return err
}

func (r *PostgresRepository) GetAuditLogs(ctx context.Context, owner uuid.UUID) ([]domain.AuditLog, error) {
	query := `SELECT id, owner_uuid, action, resource_type, resource_id, details, created_at FROM audit_logs
			  WHERE owner_uuid = $1 ORDER BY created_at DESC`
	rows, errQuery := r.db.QueryContext(ctx, query, owner)
	if errQuery != nil {
		return nil, errQuery
	}
	defer closeRows(rows)

	logs := []domain.AuditLog{}
	for rows.Next() {
		var l domain.AuditLog
		if errScan := rows.Scan(&l.ID, &l.Owner, &l.Action, &l.ResourceType, &l.ResourceID, &l.Details, &l.CreatedAt); errScan != nil {
			return nil, errScan
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}
