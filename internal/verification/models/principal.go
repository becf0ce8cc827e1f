package models

import (
	id "campusgate/pkg/domain"
)

// Principal is a resolved caller: the account plus, for approved
// organization-bound roles, the organization it acts for.
type Principal struct {
	AccountID      id.AccountID
	Email          string
	Role           Role
	Status         Status
	OrganizationID id.OrganizationID
	ProfileID      id.ProfileID
}

// Approved reports whether the principal is an approved holder of role.
func (p *Principal) Approved(role Role) bool {
	return p != nil && p.Status == StatusApproved && p.Role == role
}

// ApprovedMemberOf reports whether the principal is an approved holder of role
// acting for orgID.
func (p *Principal) ApprovedMemberOf(role Role, orgID id.OrganizationID) bool {
	return p.Approved(role) && !orgID.IsNil() && p.OrganizationID == orgID
}
