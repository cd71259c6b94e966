package documents

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no document set exists for the account.
var ErrNotFound = errors.New("documents record not found")

// ErrConflict is returned when a conditional status update lost against a
// concurrent writer.
var ErrConflict = errors.New("documents status conflict")

// Repository persists document sets keyed by account id.
type Repository interface {
	Save(ctx context.Context, docs Documents) error
	FindByAccountID(ctx context.Context, accountID string) (Documents, error)
	ListByStatus(ctx context.Context, status Status) ([]Documents, error)
	Transition(ctx context.Context, accountID string, from, to Status) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed documents repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save upserts the document set on its account id.
func (r *PostgresRepository) Save(ctx context.Context, docs Documents) error {
	_, err := r.db.Exec(ctx, `INSERT INTO user_documents (account_id, front_id, back_id, selfie_id, tax_id, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, now(), now())
        ON CONFLICT (account_id) DO UPDATE SET
            front_id = EXCLUDED.front_id,
            back_id = EXCLUDED.back_id,
            selfie_id = EXCLUDED.selfie_id,
            tax_id = EXCLUDED.tax_id,
            status = EXCLUDED.status,
            updated_at = now()`,
		docs.AccountID, docs.FrontID, docs.BackID, docs.SelfieID, docs.TaxID, docs.Status)
	return err
}

// FindByAccountID fetches the document set for an account.
func (r *PostgresRepository) FindByAccountID(ctx context.Context, accountID string) (Documents, error) {
	row := r.db.QueryRow(ctx, `SELECT account_id, front_id, back_id, selfie_id, tax_id, status, created_at, updated_at
        FROM user_documents WHERE account_id = $1`, accountID)
	return scanDocs(row)
}

// ListByStatus returns all document sets currently in the given status.
func (r *PostgresRepository) ListByStatus(ctx context.Context, status Status) ([]Documents, error) {
	rows, err := r.db.Query(ctx, `SELECT account_id, front_id, back_id, selfie_id, tax_id, status, created_at, updated_at
        FROM user_documents WHERE status = $1 ORDER BY created_at`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Documents
	for rows.Next() {
		var docs Documents
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&docs.AccountID, &docs.FrontID, &docs.BackID, &docs.SelfieID, &docs.TaxID, &docs.Status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		docs.CreatedAt = createdAt.UTC()
		docs.UpdatedAt = updatedAt.UTC()
		out = append(out, docs)
	}
	return out, rows.Err()
}

// Transition performs a compare-and-swap status update.
func (r *PostgresRepository) Transition(ctx context.Context, accountID string, from, to Status) error {
	cmd, err := r.db.Exec(ctx, `UPDATE user_documents SET status = $1, updated_at = now() WHERE account_id = $2 AND status = $3`,
		to, accountID, from)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func scanDocs(row pgx.Row) (Documents, error) {
	var docs Documents
	var createdAt, updatedAt time.Time
	err := row.Scan(&docs.AccountID, &docs.FrontID, &docs.BackID, &docs.SelfieID, &docs.TaxID, &docs.Status, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Documents{}, ErrNotFound
	}
	if err != nil {
		return Documents{}, err
	}
	docs.CreatedAt = createdAt.UTC()
	docs.UpdatedAt = updatedAt.UTC()
	return docs, nil
}
