package models

import (
	"time"

	id "campusgate/pkg/domain"
)

// VerifiedFilter narrows the government read path. Zero values match all.
type VerifiedFilter struct {
	InstitutionID  id.OrganizationID
	CompanyID      id.OrganizationID
	GraduationYear int
}

// VerifiedRecord is a VERIFIED placement joined with the student and both
// organizations.
type VerifiedRecord struct {
	PlacementID      id.PlacementID    `json:"placement_id"`
	StudentName      string            `json:"student_name"`
	EnrollmentNumber string            `json:"enrollment_number"`
	Department       string            `json:"department"`
	GraduationYear   int               `json:"graduation_year"`
	InstitutionID    id.OrganizationID `json:"institution_id"`
	InstitutionName  string            `json:"institution_name"`
	CompanyID        id.OrganizationID `json:"company_id"`
	CompanyName      string            `json:"company_name"`
	CompanyWebsite   *string           `json:"company_website,omitempty"`
	RoleTitle        string            `json:"role_title,omitempty"`
	PackageCTC       *int64            `json:"package_ctc,omitempty"`
	VerifiedAt       *time.Time        `json:"verified_at,omitempty"`
}

// Bucket is one row of an aggregate.
type Bucket struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Report aggregates VERIFIED placements.
type Report struct {
	GeneratedAt      time.Time `json:"generated_at"`
	Total            int       `json:"total"`
	ByInstitution    []Bucket  `json:"by_institution"`
	ByCompany        []Bucket  `json:"by_company"`
	ByGraduationYear []Bucket  `json:"by_graduation_year"`
}
