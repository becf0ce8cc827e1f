package models

import (
	"net/mail"
	"net/url"
	"strings"
	"time"

	id "campusgate/pkg/domain"
	dErrors "campusgate/pkg/domain-errors"
)

// Kind distinguishes the three organization entity types.
type Kind string

const (
	KindInstitution Kind = "INSTITUTION"
	KindCompany     Kind = "COMPANY"
	KindGovernment  Kind = "GOVERNMENT"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindInstitution, KindCompany, KindGovernment:
		return true
	}
	return false
}

// Status is the organization's own verification state. It is informational:
// representatives of a NOT_VERIFIED organization still work once their
// account is approved.
type Status string

const (
	StatusNotVerified Status = "NOT_VERIFIED"
	StatusVerified    Status = "VERIFIED"
	StatusRejected    Status = "REJECTED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusNotVerified, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// CanTransitionTo encodes NOT_VERIFIED -> VERIFIED|REJECTED and
// REJECTED -> VERIFIED|REJECTED. VERIFIED is terminal.
func (s Status) CanTransitionTo(next Status) bool {
	if next != StatusVerified && next != StatusRejected {
		return false
	}
	return s == StatusNotVerified || s == StatusRejected
}

// Organization is an institution, company or government body.
type Organization struct {
	ID           id.OrganizationID `json:"id"`
	Kind         Kind              `json:"kind"`
	Name         string            `json:"name"`
	Address      string            `json:"address"`
	City         string            `json:"city"`
	State        string            `json:"state"`
	ContactEmail string            `json:"contact_email"`
	ContactPhone string            `json:"contact_phone"`
	Website      *string           `json:"website,omitempty"`
	Status       Status            `json:"status"`
	CreatedBy    *id.AccountID     `json:"created_by,omitempty"`
	ReviewedBy   *id.AccountID     `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time        `json:"reviewed_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Summary is the slice of an organization embedded in other views.
type Summary struct {
	ID     id.OrganizationID `json:"id"`
	Name   string            `json:"name"`
	Kind   Kind              `json:"kind"`
	Status Status            `json:"status"`
}

func (o *Organization) Summary() Summary {
	return Summary{ID: o.ID, Name: o.Name, Kind: o.Kind, Status: o.Status}
}

// CanReview checks the requested verdict against the current state.
func (o *Organization) CanReview(decision Status) error {
	if decision != StatusVerified && decision != StatusRejected {
		return dErrors.New(dErrors.CodeBadRequest, "decision must be VERIFIED or REJECTED")
	}
	if !o.Status.CanTransitionTo(decision) {
		return dErrors.New(dErrors.CodeInvariantViolation, "organization is already verified")
	}
	return nil
}

// ApplyReview records the verdict. Call CanReview first.
func (o *Organization) ApplyReview(decision Status, reviewer id.AccountID, now time.Time) {
	o.Status = decision
	o.ReviewedBy = &reviewer
	o.ReviewedAt = &now
	o.UpdatedAt = now
}

// Fields are the caller-supplied attributes of a new organization.
type Fields struct {
	Kind         Kind    `json:"kind"`
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	ContactEmail string  `json:"contact_email"`
	ContactPhone string  `json:"contact_phone"`
	Website      *string `json:"website,omitempty"`
}

func (f *Fields) Normalize() {
	if f == nil {
		return
	}
	f.Kind = Kind(strings.ToUpper(strings.TrimSpace(string(f.Kind))))
	f.Name = strings.Join(strings.Fields(f.Name), " ")
	f.Address = strings.TrimSpace(f.Address)
	f.City = strings.TrimSpace(f.City)
	f.State = strings.TrimSpace(f.State)
	f.ContactEmail = strings.ToLower(strings.TrimSpace(f.ContactEmail))
	f.ContactPhone = strings.TrimSpace(f.ContactPhone)
	if f.Website != nil {
		w := strings.TrimSpace(*f.Website)
		if w == "" {
			f.Website = nil
		} else {
			f.Website = &w
		}
	}
}

func (f *Fields) Validate() error {
	if f == nil {
		return dErrors.New(dErrors.CodeBadRequest, "organization is required")
	}
	if !f.Kind.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "kind must be INSTITUTION, COMPANY or GOVERNMENT")
	}
	if f.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(f.Name) > 200 {
		return dErrors.New(dErrors.CodeValidation, "name must be 200 characters or less")
	}
	if f.ContactEmail != "" {
		if _, err := mail.ParseAddress(f.ContactEmail); err != nil {
			return dErrors.New(dErrors.CodeValidation, "contact_email is not a valid email address")
		}
	}
	if f.Website != nil {
		u, err := url.Parse(*f.Website)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return dErrors.New(dErrors.CodeValidation, "website must be an http(s) URL")
		}
	}
	return nil
}

// NewOrganization builds a NOT_VERIFIED organization from validated fields.
func NewOrganization(orgID id.OrganizationID, f Fields, createdBy id.AccountID, now time.Time) (*Organization, error) {
	if err := f.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "invalid organization")
	}
	var creator *id.AccountID
	if !createdBy.IsNil() {
		creator = &createdBy
	}
	return &Organization{
		ID:           orgID,
		Kind:         f.Kind,
		Name:         f.Name,
		Address:      f.Address,
		City:         f.City,
		State:        f.State,
		ContactEmail: f.ContactEmail,
		ContactPhone: f.ContactPhone,
		Website:      f.Website,
		Status:       StatusNotVerified,
		CreatedBy:    creator,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
