package service

import (
	"context"

	"campusgate/internal/organization/models"
	"campusgate/pkg/attrs"
	id "campusgate/pkg/domain"
	"campusgate/pkg/platform/audit"
	"campusgate/pkg/requestcontext"
)

// record logs event and appends it to the audit outbox. It runs inside the
// caller's transaction; a failed append must abort the unit of work.
func (s *Service) record(ctx context.Context, event audit.AuditEvent, actor id.AccountID, org *models.Organization, attributes ...any) error {
	attributes = append(attributes, "organization_id", org.ID, "actor_id", actor)
	s.logAudit(ctx, string(event), attributes...)
	if s.auditPublisher == nil {
		return nil
	}
	return s.auditPublisher.Emit(ctx, audit.Event{
		Subject:  org.ID.String(),
		Action:   string(event),
		Decision: attrs.ExtractString(attributes, "decision"),
		ActorID:  actor.String(),
	})
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
}
