package models

import (
	"slices"

	orgmodels "campusgate/internal/organization/models"
	dErrors "campusgate/pkg/domain-errors"
)

// rolePolicy is the single table of which evidence each role accepts and needs,
// and which kind of organization its profile links to.
type rolePolicy struct {
	required []DocumentKind
	orgKind  orgmodels.Kind
}

var policies = map[Role]rolePolicy{
	RoleStudent: {
		required: []DocumentKind{KindStudentID},
		orgKind:  orgmodels.KindInstitution,
	},
	RoleInstitutionAdmin: {
		required: []DocumentKind{KindInstitutionID, KindAuthorizationLetter},
		orgKind:  orgmodels.KindInstitution,
	},
	RoleCompanyRepresentative: {
		required: []DocumentKind{KindCompanyID, KindBusinessCard},
		orgKind:  orgmodels.KindCompany,
	},
	RoleGovernmentRepresentative: {
		required: []DocumentKind{KindGovernmentID, KindDepartmentLetter},
		orgKind:  orgmodels.KindGovernment,
	},
}

// kindRoles maps each document kind to the role it implies.
var kindRoles = func() map[DocumentKind]Role {
	m := make(map[DocumentKind]Role)
	for role, p := range policies {
		for _, k := range p.required {
			m[k] = role
		}
	}
	return m
}()

// RequiredKinds lists the evidence a role must provide.
func RequiredKinds(role Role) []DocumentKind {
	return slices.Clone(policies[role].required)
}

// OrganizationKindFor returns the organization kind a role's profile links to.
func OrganizationKindFor(role Role) (orgmodels.Kind, bool) {
	p, ok := policies[role]
	return p.orgKind, ok
}

// ValidateDocumentKinds accepts kinds only if every kind belongs to role and
// every required kind is present. Duplicates are allowed.
func ValidateDocumentKinds(role Role, kinds []DocumentKind) error {
	p, ok := policies[role]
	if !ok {
		return dErrors.New(dErrors.CodeInvalidRole, "role does not accept evidence")
	}
	present := make(map[DocumentKind]bool, len(kinds))
	for _, k := range kinds {
		if !slices.Contains(p.required, k) {
			return dErrors.New(dErrors.CodeInvalidDocumentKind, "document kind "+string(k)+" is not accepted for role "+string(role))
		}
		present[k] = true
	}
	for _, k := range p.required {
		if !present[k] {
			return dErrors.New(dErrors.CodeInvalidDocumentKind, "role "+string(role)+" requires a "+string(k)+" document")
		}
	}
	return nil
}

// InferRole derives the single role implied by a set of document kinds.
// Zero or several implied roles is ambiguous; there is no tie-break.
func InferRole(kinds []DocumentKind) (Role, error) {
	var inferred Role
	for _, k := range kinds {
		role, ok := kindRoles[k]
		if !ok {
			return RoleUnassigned, dErrors.New(dErrors.CodeAmbiguousRole, "unknown document kind "+string(k))
		}
		if inferred != "" && inferred != role {
			return RoleUnassigned, dErrors.New(dErrors.CodeAmbiguousRole, "evidence implies more than one role")
		}
		inferred = role
	}
	if inferred == "" {
		return RoleUnassigned, dErrors.New(dErrors.CodeAmbiguousRole, "evidence implies no role")
	}
	return inferred, nil
}
