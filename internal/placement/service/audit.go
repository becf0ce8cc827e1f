package service

import (
	"context"

	"campusgate/internal/placement/models"
	"campusgate/pkg/attrs"
	id "campusgate/pkg/domain"
	"campusgate/pkg/platform/audit"
	"campusgate/pkg/requestcontext"
)

// record logs event and appends it to the audit outbox inside the caller's
// transaction.
func (s *Service) record(ctx context.Context, event audit.AuditEvent, actor id.AccountID, p *models.Placement, attributes ...any) error {
	attributes = append(attributes, "placement_id", p.ID, "actor_id", actor)
	s.logAudit(ctx, string(event), attributes...)
	if s.auditPublisher == nil {
		return nil
	}
	return s.auditPublisher.Emit(ctx, audit.Event{
		Subject:  p.ID.String(),
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
