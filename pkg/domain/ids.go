// Package domain holds the typed identifiers shared across modules.
//
// Each identifier is a distinct named UUID type so that an account id can never be
// passed where an organization id is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "campusgate/pkg/domain-errors"
)

type (
	AccountID      uuid.UUID
	OrganizationID uuid.UUID
	ProfileID      uuid.UUID
	EvidenceID     uuid.UUID
	SubmissionID   uuid.UUID
	PlacementID    uuid.UUID
)

func (id AccountID) String() string      { return uuid.UUID(id).String() }
func (id OrganizationID) String() string { return uuid.UUID(id).String() }
func (id ProfileID) String() string      { return uuid.UUID(id).String() }
func (id EvidenceID) String() string     { return uuid.UUID(id).String() }
func (id SubmissionID) String() string   { return uuid.UUID(id).String() }
func (id PlacementID) String() string    { return uuid.UUID(id).String() }

func (id AccountID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id OrganizationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ProfileID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id EvidenceID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id SubmissionID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id PlacementID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func NewAccountID() AccountID           { return AccountID(uuid.New()) }
func NewOrganizationID() OrganizationID { return OrganizationID(uuid.New()) }
func NewProfileID() ProfileID           { return ProfileID(uuid.New()) }
func NewEvidenceID() EvidenceID         { return EvidenceID(uuid.New()) }
func NewSubmissionID() SubmissionID     { return SubmissionID(uuid.New()) }
func NewPlacementID() PlacementID       { return PlacementID(uuid.New()) }

// parseUUID enforces the trust-boundary rule for every id type:
// non-empty, well formed, and not the nil UUID.
func parseUUID(raw, label string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be nil")
	}
	return parsed, nil
}

func ParseAccountID(raw string) (AccountID, error) {
	u, err := parseUUID(raw, "account id")
	return AccountID(u), err
}

func ParseOrganizationID(raw string) (OrganizationID, error) {
	u, err := parseUUID(raw, "organization id")
	return OrganizationID(u), err
}

func ParseProfileID(raw string) (ProfileID, error) {
	u, err := parseUUID(raw, "profile id")
	return ProfileID(u), err
}

func ParseSubmissionID(raw string) (SubmissionID, error) {
	u, err := parseUUID(raw, "submission id")
	return SubmissionID(u), err
}

func ParsePlacementID(raw string) (PlacementID, error) {
	u, err := parseUUID(raw, "placement id")
	return PlacementID(u), err
}

// Text encoding lets ids travel as canonical UUID strings in JSON bodies and
// query parameters.

func (id AccountID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *AccountID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id OrganizationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *OrganizationID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id ProfileID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *ProfileID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id EvidenceID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *EvidenceID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id SubmissionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *SubmissionID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id PlacementID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *PlacementID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
