package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"campusgate/internal/platform/postgres"
	"campusgate/internal/verification/models"
	id "campusgate/pkg/domain"
	"campusgate/pkg/platform/sentinel"
	txcontext "campusgate/pkg/platform/tx"
)

const accountColumns = `id, email, display_name, role, status, feedback, organization_id,
	submission_id, submitted_at, reviewed_at, reviewed_by, created_at, updated_at`

// PostgresStore persists the account ledger.
type PostgresStore struct {
	db *sql.DB
	tx *txcontext.PostgresTx
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, tx: txcontext.NewPostgresTx(db)}
}

func (s *PostgresStore) Create(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query, accountArgs(a)...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, uuid.UUID(accountID))
	return scanAccount(row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)`, email)
	return scanAccount(row)
}

// Execute locks the row with SELECT ... FOR UPDATE for the validate/mutate
// window. It joins the caller's transaction when ctx carries one.
func (s *PostgresStore) Execute(ctx context.Context, accountID id.AccountID, validate func(*models.Account) error, mutate func(*models.Account)) (*models.Account, error) {
	var out *models.Account
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		ex := txcontext.Exec(ctx, s.db)
		a, err := scanAccount(ex.QueryRowContext(ctx,
			`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, uuid.UUID(accountID)))
		if err != nil {
			return err
		}
		if err := validate(a); err != nil {
			return err
		}
		mutate(a)
		query := `
			UPDATE accounts
			SET display_name = $2, role = $3, status = $4, feedback = $5, organization_id = $6,
				submission_id = $7, submitted_at = $8, reviewed_at = $9, reviewed_by = $10, updated_at = $11
			WHERE id = $1
		`
		res, err := ex.ExecContext(ctx, query,
			uuid.UUID(a.ID),
			a.DisplayName,
			string(a.Role),
			string(a.Status),
			a.Feedback,
			nullOrganization(a.OrganizationID),
			nullSubmission(a.SubmissionID),
			a.SubmittedAt,
			a.ReviewedAt,
			nullAccount(a.ReviewedBy),
			a.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sentinel.ErrNotFound
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByStatus returns accounts in status whose role is in roles, oldest
// submission first. A non-nil organizationID keeps only accounts whose current
// submission declared it.
func (s *PostgresStore) ListByStatus(ctx context.Context, status models.Status, roles []models.Role, organizationID id.OrganizationID) ([]*models.Account, error) {
	raw := make([]string, len(roles))
	for i, r := range roles {
		raw[i] = string(r)
	}
	var org uuid.NullUUID
	if !organizationID.IsNil() {
		org = uuid.NullUUID{UUID: uuid.UUID(organizationID), Valid: true}
	}
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE status = $1 AND role = ANY($2) AND ($3::uuid IS NULL OR organization_id = $3)
		ORDER BY submitted_at NULLS LAST, created_at
	`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, string(status), pq.Array(raw), org)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a            models.Account
		accountID    uuid.UUID
		role, status string
		feedback     sql.NullString
		orgID        uuid.NullUUID
		submissionID uuid.NullUUID
		submittedAt  sql.NullTime
		reviewedAt   sql.NullTime
		reviewedBy   uuid.NullUUID
	)
	err := row.Scan(&accountID, &a.Email, &a.DisplayName, &role, &status, &feedback, &orgID,
		&submissionID, &submittedAt, &reviewedAt, &reviewedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.ID = id.AccountID(accountID)
	a.Role = models.Role(role)
	a.Status = models.Status(status)
	if feedback.Valid {
		a.Feedback = &feedback.String
	}
	if orgID.Valid {
		oid := id.OrganizationID(orgID.UUID)
		a.OrganizationID = &oid
	}
	if submissionID.Valid {
		sid := id.SubmissionID(submissionID.UUID)
		a.SubmissionID = &sid
	}
	a.SubmittedAt = timePtr(submittedAt)
	a.ReviewedAt = timePtr(reviewedAt)
	if reviewedBy.Valid {
		rid := id.AccountID(reviewedBy.UUID)
		a.ReviewedBy = &rid
	}
	return &a, nil
}

func accountArgs(a *models.Account) []any {
	return []any{
		uuid.UUID(a.ID),
		a.Email,
		a.DisplayName,
		string(a.Role),
		string(a.Status),
		a.Feedback,
		nullOrganization(a.OrganizationID),
		nullSubmission(a.SubmissionID),
		a.SubmittedAt,
		a.ReviewedAt,
		nullAccount(a.ReviewedBy),
		a.CreatedAt,
		a.UpdatedAt,
	}
}

func nullSubmission(v *id.SubmissionID) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}

func nullOrganization(v *id.OrganizationID) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}

func nullAccount(v *id.AccountID) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
