package models

import (
	"strings"
	"time"

	id "campusgate/pkg/domain"
	dErrors "campusgate/pkg/domain-errors"
)

// Role is what an account is verified as.
type Role string

const (
	RoleUnassigned               Role = "UNASSIGNED"
	RoleStudent                  Role = "STUDENT"
	RoleInstitutionAdmin         Role = "INSTITUTION_ADMIN"
	RoleCompanyRepresentative    Role = "COMPANY_REPRESENTATIVE"
	RoleGovernmentRepresentative Role = "GOVERNMENT_REPRESENTATIVE"
	RolePlatformAdmin            Role = "PLATFORM_ADMIN"
)

// IsSubmittable reports whether a caller may declare this role on submission.
// PLATFORM_ADMIN is only granted through bootstrap configuration.
func (r Role) IsSubmittable() bool {
	switch r {
	case RoleStudent, RoleInstitutionAdmin, RoleCompanyRepresentative, RoleGovernmentRepresentative:
		return true
	}
	return false
}

func (r Role) IsValid() bool {
	return r == RoleUnassigned || r == RolePlatformAdmin || r.IsSubmittable()
}

func ParseRole(raw string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(raw)))
}

// Status drives all access gating.
type Status string

const (
	StatusNotApplied Status = "NOT_APPLIED"
	StatusPending    Status = "PENDING"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusNotApplied, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func ParseStatus(raw string) Status {
	return Status(strings.ToUpper(strings.TrimSpace(raw)))
}

// Decision is a reviewer verdict.
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

func (d Decision) IsValid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// Account is the ledger row for a principal.
//
// Invariants:
//   - Role is UNASSIGNED while Status is NOT_APPLIED
//   - Role is set in the same unit of work that moves Status to PENDING
//   - Feedback is non-nil only while Status is REJECTED
//   - SubmissionID identifies the evidence batch under review
//   - OrganizationID is the organization declared with that submission and
//     outlives the role profile when a rejection removes it
type Account struct {
	ID             id.AccountID       `json:"id"`
	Email          string             `json:"email"`
	DisplayName    string             `json:"display_name"`
	Role           Role               `json:"role"`
	Status         Status             `json:"status"`
	Feedback       *string            `json:"feedback,omitempty"`
	OrganizationID *id.OrganizationID `json:"organization_id,omitempty"`
	SubmissionID   *id.SubmissionID   `json:"submission_id,omitempty"`
	SubmittedAt    *time.Time         `json:"submitted_at,omitempty"`
	ReviewedAt     *time.Time         `json:"reviewed_at,omitempty"`
	ReviewedBy     *id.AccountID      `json:"reviewed_by,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// NewAccount creates the NOT_APPLIED row written on first sign-in.
func NewAccount(accountID id.AccountID, email, displayName string, now time.Time) (*Account, error) {
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account id cannot be nil")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account email cannot be empty")
	}
	return &Account{
		ID:          accountID,
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
		Role:        RoleUnassigned,
		Status:      StatusNotApplied,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// BelongsTo reports whether the current submission declared organizationID.
func (a *Account) BelongsTo(organizationID id.OrganizationID) bool {
	return a.OrganizationID != nil && !organizationID.IsNil() && *a.OrganizationID == organizationID
}

// IsApprovedAs reports whether the account may act as role.
func (a *Account) IsApprovedAs(role Role) bool {
	return a.Status == StatusApproved && a.Role == role
}

// CanSubmit allows NOT_APPLIED and REJECTED accounts to submit.
func (a *Account) CanSubmit() error {
	return a.Status.acceptsSubmission()
}

func (s Status) acceptsSubmission() error {
	if s != StatusNotApplied && s != StatusRejected {
		return dErrors.New(dErrors.CodeAlreadySubmitted, "verification already submitted")
	}
	return nil
}

// ApplySubmission moves the account to PENDING under role for organizationID.
// Call CanSubmit first.
func (a *Account) ApplySubmission(role Role, organizationID id.OrganizationID, submissionID id.SubmissionID, now time.Time) {
	a.Role = role
	a.OrganizationID = &organizationID
	a.Status = StatusPending
	a.Feedback = nil
	a.SubmissionID = &submissionID
	a.SubmittedAt = &now
	a.ReviewedAt = nil
	a.ReviewedBy = nil
	a.UpdatedAt = now
}

// CanReview requires a PENDING account.
func (a *Account) CanReview() error {
	if a.Status != StatusPending {
		return dErrors.New(dErrors.CodeConflict, "account is not pending review")
	}
	return nil
}

// ApplyDecision records the reviewer verdict. Blank feedback is stored as nil and
// feedback is dropped on approval. Call CanReview first.
func (a *Account) ApplyDecision(decision Decision, feedback *string, reviewer id.AccountID, now time.Time) {
	a.ReviewedAt = &now
	a.ReviewedBy = &reviewer
	a.UpdatedAt = now
	if decision == DecisionApproved {
		a.Status = StatusApproved
		a.Feedback = nil
		return
	}
	a.Status = StatusRejected
	a.Feedback = normalizeFeedback(feedback)
}

// ApplyPlatformAdminBootstrap grants the platform admin role without review.
func (a *Account) ApplyPlatformAdminBootstrap(now time.Time) {
	a.Role = RolePlatformAdmin
	a.Status = StatusApproved
	a.Feedback = nil
	a.UpdatedAt = now
}

func normalizeFeedback(feedback *string) *string {
	if feedback == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*feedback)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
