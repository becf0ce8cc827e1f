package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"campusgate/internal/platform/postgres"
	"campusgate/internal/verification/models"
	id "campusgate/pkg/domain"
	"campusgate/pkg/platform/sentinel"
	txcontext "campusgate/pkg/platform/tx"
)

const profileColumns = `id, account_id, role, organization_id, gender, department,
	enrollment_number, graduation_year, department_name, designation, created_at, updated_at`

// PostgresStore persists role profiles.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Upsert inserts p or replaces the account's existing profile in place,
// keeping the existing row id.
func (s *PostgresStore) Upsert(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	var student models.StudentDetails
	if p.Student != nil {
		student = *p.Student
	}
	var government models.GovernmentDetails
	if p.Government != nil {
		government = *p.Government
	}
	query := `
		INSERT INTO role_profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (account_id) DO UPDATE SET
			role = EXCLUDED.role,
			organization_id = EXCLUDED.organization_id,
			gender = EXCLUDED.gender,
			department = EXCLUDED.department,
			enrollment_number = EXCLUDED.enrollment_number,
			graduation_year = EXCLUDED.graduation_year,
			department_name = EXCLUDED.department_name,
			designation = EXCLUDED.designation,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + profileColumns
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query,
		uuid.UUID(p.ID),
		uuid.UUID(p.AccountID),
		string(p.Role),
		uuid.UUID(p.OrganizationID),
		student.Gender,
		student.Department,
		student.EnrollmentNumber,
		student.GraduationYear,
		government.DepartmentName,
		government.Designation,
		p.CreatedAt,
		p.UpdatedAt,
	)
	out, err := scanProfile(row)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) FindByAccount(ctx context.Context, accountID id.AccountID) (*models.Profile, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM role_profiles WHERE account_id = $1`, uuid.UUID(accountID))
	return scanProfile(row)
}

func (s *PostgresStore) FindByID(ctx context.Context, profileID id.ProfileID) (*models.Profile, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM role_profiles WHERE id = $1`, uuid.UUID(profileID))
	return scanProfile(row)
}

func (s *PostgresStore) DeleteByAccount(ctx context.Context, accountID id.AccountID) error {
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx,
		`DELETE FROM role_profiles WHERE account_id = $1`, uuid.UUID(accountID))
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrHasDependents
		}
		return fmt.Errorf("delete profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountByOrganization(ctx context.Context, orgID id.OrganizationID) (int, error) {
	var n int
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM role_profiles WHERE organization_id = $1`, uuid.UUID(orgID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return n, nil
}

func scanProfile(row interface{ Scan(...any) error }) (*models.Profile, error) {
	var (
		p                  models.Profile
		profileID, account uuid.UUID
		orgID              uuid.UUID
		role               string
		student            models.StudentDetails
		government         models.GovernmentDetails
	)
	err := row.Scan(&profileID, &account, &role, &orgID,
		&student.Gender, &student.Department, &student.EnrollmentNumber, &student.GraduationYear,
		&government.DepartmentName, &government.Designation, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	p.ID = id.ProfileID(profileID)
	p.AccountID = id.AccountID(account)
	p.OrganizationID = id.OrganizationID(orgID)
	p.Role = models.Role(role)
	switch p.Role {
	case models.RoleStudent:
		p.Student = &student
	case models.RoleGovernmentRepresentative:
		p.Government = &government
	}
	return &p, nil
}
