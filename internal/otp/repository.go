package otp

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no record exists for the lookup key.
var ErrNotFound = errors.New("otp record not found")

// ErrConflict is returned when a conditional transition lost against a
// concurrent writer or an already-terminal status.
var ErrConflict = errors.New("otp status transition conflict")

// Repository persists OTP records keyed by device public key hash.
type Repository interface {
	Save(ctx context.Context, rec Record) error
	FindByPublicKeyHash(ctx context.Context, hash string) (Record, error)
	FindByPhone(ctx context.Context, phone string) (Record, error)
	ListByStatus(ctx context.Context, status Status) ([]Record, error)
	Transition(ctx context.Context, publicKeyHash string, from, to Status) error
	IncrementAttempts(ctx context.Context, publicKeyHash string) (int, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed OTP repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save upserts the record on its public key hash. A re-issue overwrites the
// previous cycle's hash, code and attempt counter.
func (r *PostgresRepository) Save(ctx context.Context, rec Record) error {
	_, err := r.db.Exec(ctx, `INSERT INTO otp_requests (id, phone_number, public_key_hash, otp_hash, otp_code, status, attempts, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
        ON CONFLICT (public_key_hash) DO UPDATE SET
            phone_number = EXCLUDED.phone_number,
            otp_hash = EXCLUDED.otp_hash,
            otp_code = EXCLUDED.otp_code,
            status = EXCLUDED.status,
            attempts = EXCLUDED.attempts,
            created_at = EXCLUDED.created_at,
            updated_at = EXCLUDED.updated_at`,
		rec.ID, rec.PhoneNumber, rec.PublicKeyHash, rec.OTPHash, rec.Code, rec.Status, rec.Attempts, rec.CreatedAt.UTC())
	return err
}

// FindByPublicKeyHash fetches the record bound to a device key.
func (r *PostgresRepository) FindByPublicKeyHash(ctx context.Context, hash string) (Record, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, phone_number, public_key_hash, otp_hash, otp_code, status, attempts, created_at, updated_at
        FROM otp_requests WHERE public_key_hash = $1`, hash))
}

// FindByPhone fetches the record for a phone number.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (Record, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, phone_number, public_key_hash, otp_hash, otp_code, status, attempts, created_at, updated_at
        FROM otp_requests WHERE phone_number = $1`, phone))
}

// ListByStatus returns every record currently in the given status.
func (r *PostgresRepository) ListByStatus(ctx context.Context, status Status) ([]Record, error) {
	rows, err := r.db.Query(ctx, `SELECT id, phone_number, public_key_hash, otp_hash, otp_code, status, attempts, created_at, updated_at
        FROM otp_requests WHERE status = $1 ORDER BY created_at`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&rec.ID, &rec.PhoneNumber, &rec.PublicKeyHash, &rec.OTPHash, &rec.Code, &rec.Status, &rec.Attempts, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		rec.CreatedAt = createdAt.UTC()
		rec.UpdatedAt = updatedAt.UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Transition performs a compare-and-swap status update. Zero affected rows
// means the record was missing or a concurrent writer got there first.
func (r *PostgresRepository) Transition(ctx context.Context, publicKeyHash string, from, to Status) error {
	cmd, err := r.db.Exec(ctx, `UPDATE otp_requests SET status = $1, updated_at = now() WHERE public_key_hash = $2 AND status = $3`,
		to, publicKeyHash, from)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

// IncrementAttempts bumps the failed-attempt counter and returns the new value.
func (r *PostgresRepository) IncrementAttempts(ctx context.Context, publicKeyHash string) (int, error) {
	var attempts int
	err := r.db.QueryRow(ctx, `UPDATE otp_requests SET attempts = attempts + 1, updated_at = now() WHERE public_key_hash = $1 RETURNING attempts`,
		publicKeyHash).Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return attempts, err
}

func (r *PostgresRepository) scanOne(row pgx.Row) (Record, error) {
	var rec Record
	var createdAt, updatedAt time.Time
	err := row.Scan(&rec.ID, &rec.PhoneNumber, &rec.PublicKeyHash, &rec.OTPHash, &rec.Code, &rec.Status, &rec.Attempts, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	rec.CreatedAt = createdAt.UTC()
	rec.UpdatedAt = updatedAt.UTC()
	return rec, nil
}
