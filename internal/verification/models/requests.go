package models

import (
	"strings"

	id "campusgate/pkg/domain"
	dErrors "campusgate/pkg/domain-errors"
)

// Document is one uploaded file of a submission.
type Document struct {
	Kind        DocumentKind
	FileName    string
	ContentType string
	Content     []byte
}

// SubmitRequest is the validated input of a verification submission.
type SubmitRequest struct {
	Role           Role
	OrganizationID id.OrganizationID
	Documents      []Document
	Student        *StudentDetails
	Government     *GovernmentDetails
}

// Normalize trims inputs in place.
func (r *SubmitRequest) Normalize() {
	if r == nil {
		return
	}
	for i := range r.Documents {
		r.Documents[i].FileName = strings.TrimSpace(r.Documents[i].FileName)
		r.Documents[i].ContentType = strings.TrimSpace(r.Documents[i].ContentType)
	}
	if r.Student != nil {
		r.Student.Normalize()
	}
	if r.Government != nil {
		r.Government.Normalize()
	}
}

// Validate runs the checks that need no store access, in the order a caller
// should see them: role, evidence presence, kinds, then profile fields.
func (r *SubmitRequest) Validate() error {
	if err := r.validateEvidence(); err != nil {
		return err
	}
	if r.OrganizationID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "organization_id is required")
	}
	return r.validateDetails()
}

// ValidateContent is Validate without the organization id, for callers that
// resolve the organization only once the rest of the request is known good.
func (r *SubmitRequest) ValidateContent() error {
	if err := r.validateEvidence(); err != nil {
		return err
	}
	return r.validateDetails()
}

func (r *SubmitRequest) validateEvidence() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if !r.Role.IsSubmittable() {
		return dErrors.New(dErrors.CodeInvalidRole, "role must be one of STUDENT, INSTITUTION_ADMIN, COMPANY_REPRESENTATIVE, GOVERNMENT_REPRESENTATIVE")
	}
	if len(r.Documents) == 0 {
		return dErrors.New(dErrors.CodeNoEvidence, "at least one document is required")
	}
	kinds := make([]DocumentKind, len(r.Documents))
	for i, d := range r.Documents {
		kinds[i] = d.Kind
	}
	if err := ValidateDocumentKinds(r.Role, kinds); err != nil {
		return err
	}
	for _, d := range r.Documents {
		if len(d.Content) == 0 {
			return dErrors.New(dErrors.CodeValidation, "document "+string(d.Kind)+" is empty")
		}
	}
	return nil
}

func (r *SubmitRequest) validateDetails() error {
	switch r.Role {
	case RoleStudent:
		if r.Student == nil {
			return dErrors.New(dErrors.CodeValidation, "student details are required")
		}
		return r.Student.Validate()
	case RoleGovernmentRepresentative:
		if r.Government == nil {
			return dErrors.New(dErrors.CodeValidation, "government details are required")
		}
		return r.Government.Validate()
	}
	return nil
}

// ListFilter scopes a submission listing.
type ListFilter struct {
	Role   Role
	Status Status
}
