package service

import (
	"context"

	"campusgate/pkg/attrs"
	id "campusgate/pkg/domain"
	"campusgate/pkg/platform/audit"
	"campusgate/pkg/requestcontext"
)

// record logs event and appends it to the outbox inside the caller's
// transaction. subject is the account the event is about. Reviewer feedback
// goes to the outbox only, never to logs.
func (s *Service) record(ctx context.Context, event audit.AuditEvent, subject, actor id.AccountID, attributes ...any) error {
	attributes = append(attributes, "account_id", subject)
	if actor != subject {
		attributes = append(attributes, "actor_id", actor)
	}
	label := deviceLabel(ctx)
	logged := attrs.Without(attributes, "feedback")
	s.logAudit(ctx, string(event), append(logged, "device", label)...)
	if s.auditPublisher == nil {
		return nil
	}
	return s.auditPublisher.Emit(ctx, audit.Event{
		AccountID: subject,
		Subject:   subject.String(),
		Action:    string(event),
		Decision:  attrs.ExtractString(attributes, "decision"),
		Reason:    reason(attributes),
		ActorID:   actor.String(),
		Device:    label,
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

func reason(attributes []any) string {
	if r := attrs.ExtractString(attributes, "reason"); r != "" {
		return r
	}
	return attrs.ExtractString(attributes, "feedback")
}
