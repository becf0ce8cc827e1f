package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "campusgate/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers decisions that change who may do what:
	// submissions, reviews, organization verdicts, placement verdicts.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers refused access attempts.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// AccountID is the account the event is about (the submitter, the reviewed account).
	AccountID id.AccountID
	Subject   string
	Action    string
	Decision  string
	Reason    string
	RequestID string
	// ActorID tracks who performed the action when different from AccountID,
	// e.g. the reviewer of a submission.
	ActorID string
	// Device is a short label derived from the caller's User-Agent.
	Device string
}

type AuditEvent string

const (
	// Account events
	EventAccountCreated        AuditEvent = "account_created"
	EventPlatformAdminSeeded   AuditEvent = "platform_admin_bootstrapped"
	EventVerificationSubmitted AuditEvent = "verification_submitted"
	EventVerificationApproved  AuditEvent = "verification_approved"
	EventVerificationRejected  AuditEvent = "verification_rejected"
	EventProfileRemoved        AuditEvent = "role_profile_removed"
	EventUploadFailed          AuditEvent = "evidence_upload_failed"

	// Organization events
	EventOrganizationCreated  AuditEvent = "organization_created"
	EventOrganizationVerified AuditEvent = "organization_verified"
	EventOrganizationRejected AuditEvent = "organization_rejected"
	EventOrganizationDeleted  AuditEvent = "organization_deleted"

	// Placement events
	EventPlacementRecorded AuditEvent = "placement_recorded"
	EventPlacementVerified AuditEvent = "placement_verified"
	EventPlacementRejected AuditEvent = "placement_rejected"

	// Access events
	EventAccessDenied AuditEvent = "access_denied"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventPlatformAdminSeeded:   CategoryCompliance,
	EventVerificationSubmitted: CategoryCompliance,
	EventVerificationApproved:  CategoryCompliance,
	EventVerificationRejected:  CategoryCompliance,
	EventProfileRemoved:        CategoryCompliance,
	EventOrganizationVerified:  CategoryCompliance,
	EventOrganizationRejected:  CategoryCompliance,
	EventOrganizationDeleted:   CategoryCompliance,
	EventPlacementVerified:     CategoryCompliance,
	EventPlacementRejected:     CategoryCompliance,

	EventAccessDenied: CategorySecurity,
	EventUploadFailed: CategorySecurity,

	EventAccountCreated:      CategoryOperations,
	EventOrganizationCreated: CategoryOperations,
	EventPlacementRecorded:   CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Postgres-backed stores write to the outbox table
// using the transaction carried in ctx, so an event commits or rolls back with
// the state change it describes.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// OutboxEntry is an event waiting to be relayed to the message broker.
type OutboxEntry struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// Outbox is read by the relay worker.
type Outbox interface {
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}
