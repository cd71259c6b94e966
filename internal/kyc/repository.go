package kyc

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no record exists for the account.
var ErrNotFound = errors.New("personal info record not found")

// ErrConflict is returned when a conditional status update lost against a
// concurrent writer.
var ErrConflict = errors.New("personal info status conflict")

// Repository persists personal-info records keyed by account id.
type Repository interface {
	Save(ctx context.Context, info PersonalInfo) error
	FindByAccountID(ctx context.Context, accountID string) (PersonalInfo, error)
	FindByDocumentUniqueID(ctx context.Context, documentID string) ([]PersonalInfo, error)
	ListByStatus(ctx context.Context, status Status) ([]PersonalInfo, error)
	UpdateDecision(ctx context.Context, accountID string, from, to Status, rejectionReason string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed personal-info repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const personalInfoColumns = `account_id, document_unique_id, expiration_date, location, email,
    email_otp_hash, email_otp_code, otp_expires_at, status, rejection_reason, created_at, updated_at`

// Save upserts the record on its account id.
func (r *PostgresRepository) Save(ctx context.Context, info PersonalInfo) error {
	_, err := r.db.Exec(ctx, `INSERT INTO personal_information (`+personalInfoColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
        ON CONFLICT (account_id) DO UPDATE SET
            document_unique_id = EXCLUDED.document_unique_id,
            expiration_date = EXCLUDED.expiration_date,
            location = EXCLUDED.location,
            email = EXCLUDED.email,
            email_otp_hash = EXCLUDED.email_otp_hash,
            email_otp_code = EXCLUDED.email_otp_code,
            otp_expires_at = EXCLUDED.otp_expires_at,
            status = EXCLUDED.status,
            rejection_reason = EXCLUDED.rejection_reason,
            updated_at = now()`,
		info.AccountID, info.DocumentUniqueID, info.ExpirationDate, info.Location, info.Email,
		info.EmailOTPHash, info.EmailOTPCode, info.OTPExpiresAt.UTC(), info.Status, info.RejectionReason)
	return err
}

// FindByAccountID fetches the record for an account.
func (r *PostgresRepository) FindByAccountID(ctx context.Context, accountID string) (PersonalInfo, error) {
	return scanInfo(r.db.QueryRow(ctx, `SELECT `+personalInfoColumns+` FROM personal_information WHERE account_id = $1`, accountID))
}

// FindByDocumentUniqueID fetches every record sharing a document id. More
// than one entry signals a duplicate-identity case for review.
func (r *PostgresRepository) FindByDocumentUniqueID(ctx context.Context, documentID string) ([]PersonalInfo, error) {
	rows, err := r.db.Query(ctx, `SELECT `+personalInfoColumns+` FROM personal_information WHERE document_unique_id = $1`, documentID)
	if err != nil {
		return nil, err
	}
	return collectInfos(rows)
}

// ListByStatus returns all records currently in the given status.
func (r *PostgresRepository) ListByStatus(ctx context.Context, status Status) ([]PersonalInfo, error) {
	rows, err := r.db.Query(ctx, `SELECT `+personalInfoColumns+` FROM personal_information WHERE status = $1 ORDER BY created_at`, status)
	if err != nil {
		return nil, err
	}
	return collectInfos(rows)
}

// UpdateDecision performs a compare-and-swap status change, setting or
// clearing the rejection reason with it.
func (r *PostgresRepository) UpdateDecision(ctx context.Context, accountID string, from, to Status, rejectionReason string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE personal_information SET status = $1, rejection_reason = $2, updated_at = now()
        WHERE account_id = $3 AND status = $4`, to, rejectionReason, accountID, from)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func scanInfo(row pgx.Row) (PersonalInfo, error) {
	var info PersonalInfo
	var otpExpires, createdAt, updatedAt time.Time
	err := row.Scan(&info.AccountID, &info.DocumentUniqueID, &info.ExpirationDate, &info.Location, &info.Email,
		&info.EmailOTPHash, &info.EmailOTPCode, &otpExpires, &info.Status, &info.RejectionReason, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PersonalInfo{}, ErrNotFound
	}
	if err != nil {
		return PersonalInfo{}, err
	}
	info.OTPExpiresAt = otpExpires.UTC()
	info.CreatedAt = createdAt.UTC()
	info.UpdatedAt = updatedAt.UTC()
	return info, nil
}

func collectInfos(rows pgx.Rows) ([]PersonalInfo, error) {
	defer rows.Close()
	var out []PersonalInfo
	for rows.Next() {
		var info PersonalInfo
		var otpExpires, createdAt, updatedAt time.Time
		if err := rows.Scan(&info.AccountID, &info.DocumentUniqueID, &info.ExpirationDate, &info.Location, &info.Email,
			&info.EmailOTPHash, &info.EmailOTPCode, &otpExpires, &info.Status, &info.RejectionReason, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		info.OTPExpiresAt = otpExpires.UTC()
		info.CreatedAt = createdAt.UTC()
		info.UpdatedAt = updatedAt.UTC()
		out = append(out, info)
	}
	return out, rows.Err()
}
