package models

import (
	"strings"
	"time"

	id "campusgate/pkg/domain"
	dErrors "campusgate/pkg/domain-errors"
)

// Status is the placement's own verification state, independent of any
// account status.
type Status string

const (
	StatusNotVerified Status = "NOT_VERIFIED"
	StatusVerified    Status = "VERIFIED"
	StatusRejected    Status = "REJECTED"
)

func (s Status) IsValid() bool {
	return s == StatusNotVerified || s == StatusVerified || s == StatusRejected
}

func ParseStatus(raw string) Status {
	return Status(strings.ToUpper(strings.TrimSpace(raw)))
}

const maxRoleTitle = 200

// Placement is an institution's claim that a student was placed at a company.
// It counts in government aggregates only once the company verifies it.
type Placement struct {
	ID               id.PlacementID    `json:"id"`
	StudentProfileID id.ProfileID      `json:"student_profile_id"`
	CompanyID        id.OrganizationID `json:"company_id"`
	InstitutionID    id.OrganizationID `json:"institution_id"`
	RoleTitle        string            `json:"role_title,omitempty"`
	PackageCTC       *int64            `json:"package_ctc,omitempty"`
	Status           Status            `json:"status"`
	CreatedBy        id.AccountID      `json:"created_by"`
	VerifiedBy       *id.AccountID     `json:"verified_by,omitempty"`
	DecidedAt        *time.Time        `json:"decided_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// IsLive reports whether the placement blocks another one for the same
// student and company.
func (p *Placement) IsLive() bool {
	return p.Status == StatusNotVerified || p.Status == StatusVerified
}

// CanVerify checks a company verdict against the current state.
func (p *Placement) CanVerify(decision Status) error {
	if decision != StatusVerified && decision != StatusRejected {
		return dErrors.New(dErrors.CodeBadRequest, "decision must be VERIFIED or REJECTED")
	}
	if p.Status != StatusNotVerified {
		return dErrors.New(dErrors.CodeInvariantViolation, "placement has already been decided")
	}
	return nil
}

func (p *Placement) ApplyVerification(decision Status, by id.AccountID, now time.Time) {
	p.Status = decision
	p.VerifiedBy = &by
	p.DecidedAt = &now
	p.UpdatedAt = now
}

// CreateRequest is an institution admin's placement claim.
type CreateRequest struct {
	StudentProfileID id.ProfileID      `json:"student_profile_id"`
	CompanyID        id.OrganizationID `json:"company_id"`
	RoleTitle        string            `json:"role_title"`
	PackageCTC       *int64            `json:"package_ctc,omitempty"`
}

func (r *CreateRequest) Normalize() {
	if r == nil {
		return
	}
	r.RoleTitle = strings.Join(strings.Fields(r.RoleTitle), " ")
}

func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.StudentProfileID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "student_profile_id is required")
	}
	if r.CompanyID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "company_id is required")
	}
	if len(r.RoleTitle) > maxRoleTitle {
		return dErrors.New(dErrors.CodeValidation, "role_title must be 200 characters or less")
	}
	if r.PackageCTC != nil && *r.PackageCTC < 0 {
		return dErrors.New(dErrors.CodeValidation, "package_ctc cannot be negative")
	}
	return nil
}

// NewPlacement builds a NOT_VERIFIED placement for a student of institutionID.
func NewPlacement(placementID id.PlacementID, req CreateRequest, institutionID id.OrganizationID, createdBy id.AccountID, now time.Time) (*Placement, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if institutionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "placement institution cannot be nil")
	}
	p := &Placement{
		ID:               placementID,
		StudentProfileID: req.StudentProfileID,
		CompanyID:        req.CompanyID,
		InstitutionID:    institutionID,
		RoleTitle:        req.RoleTitle,
		Status:           StatusNotVerified,
		CreatedBy:        createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.PackageCTC != nil {
		ctc := *req.PackageCTC
		p.PackageCTC = &ctc
	}
	return p, nil
}

// ListFilter narrows institution and company listings. Zero values match all.
type ListFilter struct {
	Status        Status
	InstitutionID id.OrganizationID
	CompanyID     id.OrganizationID
}
