package evidence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"campusgate/internal/verification/models"
	id "campusgate/pkg/domain"
	txcontext "campusgate/pkg/platform/tx"
)

const evidenceColumns = `id, account_id, submission_id, kind, url, blob_key, digest, size_bytes, content_type, created_at`

// PostgresStore persists evidence rows. Rows are never updated.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// AppendBatch inserts every row through the transaction carried by ctx, if any.
func (s *PostgresStore) AppendBatch(ctx context.Context, batch []*models.Evidence) error {
	ex := txcontext.Exec(ctx, s.db)
	query := `
		INSERT INTO evidence (` + evidenceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, e := range batch {
		_, err := ex.ExecContext(ctx, query,
			uuid.UUID(e.ID),
			uuid.UUID(e.AccountID),
			uuid.UUID(e.SubmissionID),
			string(e.Kind),
			e.URL,
			e.BlobKey,
			e.Digest,
			e.SizeBytes,
			e.ContentType,
			e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert evidence: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) ListBySubmission(ctx context.Context, accountID id.AccountID, submissionID id.SubmissionID) ([]*models.Evidence, error) {
	return s.query(ctx,
		`SELECT `+evidenceColumns+` FROM evidence WHERE account_id = $1 AND submission_id = $2 ORDER BY created_at, kind`,
		uuid.UUID(accountID), uuid.UUID(submissionID))
}

func (s *PostgresStore) ListByAccount(ctx context.Context, accountID id.AccountID) ([]*models.Evidence, error) {
	return s.query(ctx,
		`SELECT `+evidenceColumns+` FROM evidence WHERE account_id = $1 ORDER BY created_at, kind`,
		uuid.UUID(accountID))
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Evidence, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query evidence: %w", err)
	}
	defer rows.Close()

	var out []*models.Evidence
	for rows.Next() {
		var (
			e                          models.Evidence
			evidenceID, account, subID uuid.UUID
			kind                       string
		)
		if err := rows.Scan(&evidenceID, &account, &subID, &kind, &e.URL, &e.BlobKey, &e.Digest,
			&e.SizeBytes, &e.ContentType, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		e.ID = id.EvidenceID(evidenceID)
		e.AccountID = id.AccountID(account)
		e.SubmissionID = id.SubmissionID(subID)
		e.Kind = models.DocumentKind(kind)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evidence: %w", err)
	}
	return out, nil
}
