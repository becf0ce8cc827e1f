package models

import (
	"strings"
	"time"

	id "campusgate/pkg/domain"
	dErrors "campusgate/pkg/domain-errors"
)

const (
	minGraduationYear = 1950
	maxGraduationYear = 2100
)

// StudentDetails carries the student-only profile fields.
type StudentDetails struct {
	Gender           string `json:"gender"`
	Department       string `json:"department"`
	EnrollmentNumber string `json:"enrollment_number"`
	GraduationYear   int    `json:"graduation_year"`
}

func (d *StudentDetails) Normalize() {
	d.Gender = strings.ToUpper(strings.TrimSpace(d.Gender))
	d.Department = strings.TrimSpace(d.Department)
	d.EnrollmentNumber = strings.ToUpper(strings.TrimSpace(d.EnrollmentNumber))
}

func (d *StudentDetails) Validate() error {
	if d.EnrollmentNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "enrollment_number is required")
	}
	if d.Department == "" {
		return dErrors.New(dErrors.CodeValidation, "department is required")
	}
	if d.Gender == "" {
		return dErrors.New(dErrors.CodeValidation, "gender is required")
	}
	if d.GraduationYear < minGraduationYear || d.GraduationYear > maxGraduationYear {
		return dErrors.New(dErrors.CodeValidation, "graduation_year is out of range")
	}
	return nil
}

// GovernmentDetails carries the government-representative profile fields.
type GovernmentDetails struct {
	DepartmentName string `json:"department_name"`
	Designation    string `json:"designation"`
}

func (d *GovernmentDetails) Normalize() {
	d.DepartmentName = strings.TrimSpace(d.DepartmentName)
	d.Designation = strings.TrimSpace(d.Designation)
}

func (d *GovernmentDetails) Validate() error {
	if d.DepartmentName == "" {
		return dErrors.New(dErrors.CodeValidation, "department_name is required")
	}
	if d.Designation == "" {
		return dErrors.New(dErrors.CodeValidation, "designation is required")
	}
	return nil
}

// Profile links an account to the organization it acts for. Exactly one
// profile exists per account and its Role always equals the account's role.
type Profile struct {
	ID             id.ProfileID       `json:"id"`
	AccountID      id.AccountID       `json:"account_id"`
	Role           Role               `json:"role"`
	OrganizationID id.OrganizationID  `json:"organization_id"`
	Student        *StudentDetails    `json:"student,omitempty"`
	Government     *GovernmentDetails `json:"government,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// NewProfile builds the profile variant for role. Variant details that do not
// belong to role are dropped.
func NewProfile(profileID id.ProfileID, accountID id.AccountID, role Role, orgID id.OrganizationID,
	student *StudentDetails, government *GovernmentDetails, now time.Time) (*Profile, error) {
	if !role.IsSubmittable() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "profile role is not assignable")
	}
	if orgID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "profile organization cannot be nil")
	}
	p := &Profile{
		ID:             profileID,
		AccountID:      accountID,
		Role:           role,
		OrganizationID: orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	switch role {
	case RoleStudent:
		if student == nil {
			return nil, dErrors.New(dErrors.CodeValidation, "student details are required")
		}
		d := *student
		p.Student = &d
	case RoleGovernmentRepresentative:
		if government == nil {
			return nil, dErrors.New(dErrors.CodeValidation, "government details are required")
		}
		d := *government
		p.Government = &d
	}
	return p, nil
}

// IsStudentOf reports whether p is a student profile of the institution.
func (p *Profile) IsStudentOf(institutionID id.OrganizationID) bool {
	return p.Role == RoleStudent && p.OrganizationID == institutionID
}
