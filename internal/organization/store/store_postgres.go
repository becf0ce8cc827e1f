package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"campusgate/internal/organization/models"
	"campusgate/internal/platform/postgres"
	id "campusgate/pkg/domain"
	"campusgate/pkg/platform/sentinel"
	txcontext "campusgate/pkg/platform/tx"
)

const orgColumns = `id, kind, name, address, city, state, contact_email, contact_phone, website,
	status, created_by, reviewed_by, reviewed_at, created_at, updated_at`

// PostgresStore persists organizations.
type PostgresStore struct {
	db *sql.DB
	tx *txcontext.PostgresTx
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, tx: txcontext.NewPostgresTx(db)}
}

func (s *PostgresStore) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (` + orgColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(org.ID),
		string(org.Kind),
		org.Name,
		org.Address,
		org.City,
		org.State,
		org.ContactEmail,
		org.ContactPhone,
		org.Website,
		string(org.Status),
		nullAccount(org.CreatedBy),
		nullAccount(org.ReviewedBy),
		org.ReviewedAt,
		org.CreatedAt,
		org.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE id = $1`, uuid.UUID(orgID))
	return scanOrganization(row)
}

func (s *PostgresStore) FindByKindAndName(ctx context.Context, kind models.Kind, name string) (*models.Organization, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE kind = $1 AND LOWER(name) = LOWER($2)`, string(kind), name)
	return scanOrganization(row)
}

func (s *PostgresStore) List(ctx context.Context, kind models.Kind, status models.Status) ([]*models.Organization, error) {
	query := `
		SELECT ` + orgColumns + `
		FROM organizations
		WHERE ($1 = '' OR kind = $1) AND ($2 = '' OR status = $2)
		ORDER BY LOWER(name)
	`
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, string(kind), string(status))
	if err != nil {
		return nil, fmt.Errorf("query organizations: %w", err)
	}
	defer rows.Close()

	var out []*models.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Execute(ctx context.Context, orgID id.OrganizationID, validate func(*models.Organization) error, mutate func(*models.Organization)) (*models.Organization, error) {
	var out *models.Organization
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		ex := txcontext.Exec(ctx, s.db)
		org, err := scanOrganization(ex.QueryRowContext(ctx,
			`SELECT `+orgColumns+` FROM organizations WHERE id = $1 FOR UPDATE`, uuid.UUID(orgID)))
		if err != nil {
			return err
		}
		if err := validate(org); err != nil {
			return err
		}
		mutate(org)
		_, err = ex.ExecContext(ctx, `
			UPDATE organizations
			SET status = $2, reviewed_by = $3, reviewed_at = $4, updated_at = $5
			WHERE id = $1
		`, uuid.UUID(org.ID), string(org.Status), nullAccount(org.ReviewedBy), org.ReviewedAt, org.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update organization: %w", err)
		}
		out = org
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the row. Remaining references from profiles or placements
// surface as ErrHasDependents through the RESTRICT foreign keys.
func (s *PostgresStore) Delete(ctx context.Context, orgID id.OrganizationID) error {
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx,
		`DELETE FROM organizations WHERE id = $1`, uuid.UUID(orgID))
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrHasDependents
		}
		return fmt.Errorf("delete organization: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanOrganization(row interface{ Scan(...any) error }) (*models.Organization, error) {
	var (
		org          models.Organization
		orgID        uuid.UUID
		kind, status string
		website      sql.NullString
		createdBy    uuid.NullUUID
		reviewedBy   uuid.NullUUID
		reviewedAt   sql.NullTime
	)
	err := row.Scan(&orgID, &kind, &org.Name, &org.Address, &org.City, &org.State, &org.ContactEmail,
		&org.ContactPhone, &website, &status, &createdBy, &reviewedBy, &reviewedAt, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan organization: %w", err)
	}
	org.ID = id.OrganizationID(orgID)
	org.Kind = models.Kind(kind)
	org.Status = models.Status(status)
	if website.Valid {
		org.Website = &website.String
	}
	if createdBy.Valid {
		v := id.AccountID(createdBy.UUID)
		org.CreatedBy = &v
	}
	if reviewedBy.Valid {
		v := id.AccountID(reviewedBy.UUID)
		org.ReviewedBy = &v
	}
	if reviewedAt.Valid {
		v := reviewedAt.Time
		org.ReviewedAt = &v
	}
	return &org, nil
}

func nullAccount(v *id.AccountID) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}
