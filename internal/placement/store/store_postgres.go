package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"campusgate/internal/placement/models"
	"campusgate/internal/platform/postgres"
	id "campusgate/pkg/domain"
	"campusgate/pkg/platform/sentinel"
	txcontext "campusgate/pkg/platform/tx"
)

const placementColumns = `id, student_profile_id, company_id, institution_id, role_title, package_ctc,
	status, created_by, verified_by, decided_at, created_at, updated_at`

// PostgresStore persists placements.
type PostgresStore struct {
	db *sql.DB
	tx *txcontext.PostgresTx
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, tx: txcontext.NewPostgresTx(db)}
}

// Create inserts p. A second live placement for the same student and company
// violates placements_live_pair_idx and surfaces as ErrAlreadyUsed.
func (s *PostgresStore) Create(ctx context.Context, p *models.Placement) error {
	query := `
		INSERT INTO placements (` + placementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(p.ID),
		uuid.UUID(p.StudentProfileID),
		uuid.UUID(p.CompanyID),
		uuid.UUID(p.InstitutionID),
		p.RoleTitle,
		p.PackageCTC,
		string(p.Status),
		uuid.UUID(p.CreatedBy),
		nullAccount(p.VerifiedBy),
		p.DecidedAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		switch {
		case postgres.IsUniqueViolation(err):
			return sentinel.ErrAlreadyUsed
		case postgres.IsForeignKeyViolation(err):
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert placement: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, placementID id.PlacementID) (*models.Placement, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+placementColumns+` FROM placements WHERE id = $1`, uuid.UUID(placementID))
	return scanPlacement(row)
}

func (s *PostgresStore) Execute(ctx context.Context, placementID id.PlacementID, validate func(*models.Placement) error, mutate func(*models.Placement)) (*models.Placement, error) {
	var out *models.Placement
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		ex := txcontext.Exec(ctx, s.db)
		p, err := scanPlacement(ex.QueryRowContext(ctx,
			`SELECT `+placementColumns+` FROM placements WHERE id = $1 FOR UPDATE`, uuid.UUID(placementID)))
		if err != nil {
			return err
		}
		if err := validate(p); err != nil {
			return err
		}
		mutate(p)
		_, err = ex.ExecContext(ctx, `
			UPDATE placements
			SET status = $2, verified_by = $3, decided_at = $4, updated_at = $5
			WHERE id = $1
		`, uuid.UUID(p.ID), string(p.Status), nullAccount(p.VerifiedBy), p.DecidedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update placement: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Placement, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if !filter.InstitutionID.IsNil() {
		args = append(args, uuid.UUID(filter.InstitutionID))
		conds = append(conds, fmt.Sprintf("institution_id = $%d", len(args)))
	}
	if !filter.CompanyID.IsNil() {
		args = append(args, uuid.UUID(filter.CompanyID))
		conds = append(conds, fmt.Sprintf("company_id = $%d", len(args)))
	}
	query := `SELECT ` + placementColumns + ` FROM placements`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	return s.query(ctx, query+` ORDER BY created_at DESC, id`, args...)
}

// ListVerified hard-codes the VERIFIED predicate; callers cannot widen it.
func (s *PostgresStore) ListVerified(ctx context.Context, institutionID, companyID id.OrganizationID) ([]*models.Placement, error) {
	query := `
		SELECT ` + placementColumns + `
		FROM placements
		WHERE status = 'VERIFIED'
		  AND ($1::uuid IS NULL OR institution_id = $1)
		  AND ($2::uuid IS NULL OR company_id = $2)
		ORDER BY created_at DESC, id
	`
	return s.query(ctx, query, nullOrg(institutionID), nullOrg(companyID))
}

func (s *PostgresStore) CountByOrganization(ctx context.Context, orgID id.OrganizationID) (int, error) {
	var n int
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM placements WHERE company_id = $1 OR institution_id = $1`, uuid.UUID(orgID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count placements by organization: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Placement, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query placements: %w", err)
	}
	defer rows.Close()

	var out []*models.Placement
	for rows.Next() {
		p, err := scanPlacement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate placements: %w", err)
	}
	return out, nil
}

func scanPlacement(row interface{ Scan(...any) error }) (*models.Placement, error) {
	var (
		p                      models.Placement
		placementID, profileID uuid.UUID
		company, inst          uuid.UUID
		createdBy              uuid.UUID
		status                 string
		pkg                    sql.NullInt64
		verifiedBy             uuid.NullUUID
		decidedAt              sql.NullTime
	)
	err := row.Scan(&placementID, &profileID, &company, &inst, &p.RoleTitle, &pkg,
		&status, &createdBy, &verifiedBy, &decidedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan placement: %w", err)
	}
	p.ID = id.PlacementID(placementID)
	p.StudentProfileID = id.ProfileID(profileID)
	p.CompanyID = id.OrganizationID(company)
	p.InstitutionID = id.OrganizationID(inst)
	p.Status = models.Status(status)
	p.CreatedBy = id.AccountID(createdBy)
	if pkg.Valid {
		v := pkg.Int64
		p.PackageCTC = &v
	}
	if verifiedBy.Valid {
		v := id.AccountID(verifiedBy.UUID)
		p.VerifiedBy = &v
	}
	if decidedAt.Valid {
		v := decidedAt.Time
		p.DecidedAt = &v
	}
	return &p, nil
}

func nullAccount(v *id.AccountID) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}

func nullOrg(v id.OrganizationID) uuid.NullUUID {
	if v.IsNil() {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(v), Valid: true}
}
