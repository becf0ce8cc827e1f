package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"campusgate/internal/verification/models"
	id "campusgate/pkg/domain"
	dErrors "campusgate/pkg/domain-errors"
	"campusgate/pkg/platform/audit"
	"campusgate/pkg/platform/sentinel"
	"campusgate/pkg/requestcontext"
)

var reviewableByPlatformAdmin = []models.Role{
	models.RoleInstitutionAdmin,
	models.RoleCompanyRepresentative,
	models.RoleGovernmentRepresentative,
}

// Review records a reviewer's verdict on a PENDING account. Students are
// reviewed by an approved admin of their own institution; every other role by
// an approved platform admin.
func (s *Service) Review(ctx context.Context, caller, target id.AccountID, decision models.Decision, feedback *string) (account *models.Account, err error) {
	ctx, span := tracer.Start(ctx, "verification.Review")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
	}()

	if !decision.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "decision must be APPROVED or REJECTED")
	}
	reviewer, err := s.ResolvePrincipal(ctx, caller)
	if err != nil {
		return nil, err
	}
	if target.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "target account is required")
	}
	current, err := s.accounts.FindByID(ctx, target)
	if err != nil {
		return nil, wrapAccountErr(err)
	}
	span.SetAttributes(attribute.String("role", string(current.Role)), attribute.String("decision", string(decision)))

	if err := s.authorizeReview(ctx, reviewer, current); err != nil {
		return nil, err
	}
	if err := current.CanReview(); err != nil {
		return nil, dErrors.Conflict("account is not pending review", string(current.Status))
	}
	if decision == models.DecisionApproved {
		if err := s.confirmRole(ctx, current); err != nil {
			return nil, err
		}
	}

	now := requestcontext.Now(ctx)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		updated, err := s.accounts.Execute(ctx, target,
			func(a *models.Account) error {
				if err := a.CanReview(); err != nil {
					return dErrors.Conflict("account is not pending review", string(a.Status))
				}
				if !sameSubmission(a, current) {
					return dErrors.Conflict("submission changed while under review", string(a.Status))
				}
				return nil
			},
			func(a *models.Account) {
				a.ApplyDecision(decision, feedback, caller, now)
			},
		)
		if err != nil {
			return wrapAccountErr(err)
		}
		account = updated

		if decision == models.DecisionRejected && s.rejectPolicy == RejectPolicyDelete {
			if err := s.removeProfile(ctx, caller, target); err != nil {
				return err
			}
		}

		event := audit.EventVerificationApproved
		attributes := []any{"decision", string(decision), "role", string(updated.Role)}
		if decision == models.DecisionRejected {
			event = audit.EventVerificationRejected
			if updated.Feedback != nil {
				attributes = append(attributes, "feedback", *updated.Feedback)
			}
		}
		return s.record(ctx, event, target, caller, attributes...)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Reviews.WithLabelValues(string(account.Role), string(decision)).Inc()
	}
	return account, nil
}

// authorizeReview checks the reviewer against the organization recorded on the
// account, which survives the rejection path deleting the role profile.
func (s *Service) authorizeReview(ctx context.Context, reviewer *models.Principal, target *models.Account) error {
	if target.Role == models.RoleStudent {
		if target.OrganizationID != nil && reviewer.ApprovedMemberOf(models.RoleInstitutionAdmin, *target.OrganizationID) {
			return nil
		}
		return s.deny(ctx, reviewer, "review_student", "only an approved admin of the student's institution may review")
	}
	if reviewer.Approved(models.RolePlatformAdmin) {
		return nil
	}
	return s.deny(ctx, reviewer, "review_account", "platform admin role required")
}

// confirmRole infers the role from the current submission's evidence and
// requires it to match the declared one.
func (s *Service) confirmRole(ctx context.Context, a *models.Account) error {
	if a.SubmissionID == nil {
		return dErrors.New(dErrors.CodeAmbiguousRole, "account has no submission evidence")
	}
	batch, err := s.evidence.ListBySubmission(ctx, a.ID, *a.SubmissionID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load evidence")
	}
	inferred, err := models.InferRole(models.Kinds(batch))
	if err != nil {
		return err
	}
	if inferred != a.Role {
		return dErrors.New(dErrors.CodeAmbiguousRole, "evidence implies role "+string(inferred)+", not "+string(a.Role))
	}
	return nil
}

func (s *Service) removeProfile(ctx context.Context, reviewer, target id.AccountID) error {
	err := s.profiles.DeleteByAccount(ctx, target)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return wrapProfileErr(err)
	}
	return s.record(ctx, audit.EventProfileRemoved, target, reviewer, "reason", "rejected")
}

// ListSubmissions returns the reviewer's queue. Institution admins see the
// students of their own institution; platform admins see every other role.
func (s *Service) ListSubmissions(ctx context.Context, caller id.AccountID, role models.Role, status models.Status) ([]*models.SubmissionView, error) {
	reviewer, err := s.ResolvePrincipal(ctx, caller)
	if err != nil {
		return nil, err
	}
	if status == "" {
		status = models.StatusPending
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown status filter")
	}
	if role != "" && !role.IsSubmittable() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown role filter")
	}

	var roles []models.Role
	var institution id.OrganizationID
	switch {
	case reviewer.Approved(models.RoleInstitutionAdmin):
		if role != "" && role != models.RoleStudent {
			return nil, s.deny(ctx, reviewer, "list_submissions", "institution admins review students only")
		}
		roles = []models.Role{models.RoleStudent}
		institution = reviewer.OrganizationID
	case reviewer.Approved(models.RolePlatformAdmin):
		if role == models.RoleStudent {
			return nil, s.deny(ctx, reviewer, "list_submissions", "students are reviewed by their institution")
		}
		roles = reviewableByPlatformAdmin
		if role != "" {
			roles = []models.Role{role}
		}
	default:
		return nil, s.deny(ctx, reviewer, "list_submissions", "reviewer role required")
	}

	accounts, err := s.accounts.ListByStatus(ctx, status, roles, institution)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list submissions")
	}
	views := make([]*models.SubmissionView, 0, len(accounts))
	for _, a := range accounts {
		view, err := s.submissionView(ctx, a)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) submissionView(ctx context.Context, a *models.Account) (*models.SubmissionView, error) {
	view := &models.SubmissionView{Account: a, Evidence: []*models.Evidence{}}
	profile, err := s.profiles.FindByAccount(ctx, a.ID)
	switch {
	case err == nil:
		view.Profile = profile
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load role profile")
	}
	if a.SubmissionID != nil {
		batch, err := s.evidence.ListBySubmission(ctx, a.ID, *a.SubmissionID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load evidence")
		}
		view.Evidence = batch
	}
	orgID := a.OrganizationID
	if orgID == nil && view.Profile != nil {
		orgID = &view.Profile.OrganizationID
	}
	if orgID != nil {
		org, err := s.orgs.FindByID(ctx, *orgID)
		switch {
		case err == nil:
			summary := org.Summary()
			view.Organization = &summary
		case !dErrors.HasCode(err, dErrors.CodeNotFound) && !errors.Is(err, sentinel.ErrNotFound):
			return nil, err
		}
	}
	return view, nil
}

func (s *Service) deny(ctx context.Context, p *models.Principal, action, message string) error {
	s.logAudit(ctx, string(audit.EventAccessDenied),
		"account_id", p.AccountID,
		"role", string(p.Role),
		"action", action,
	)
	return dErrors.New(dErrors.CodeForbidden, message)
}

func sameSubmission(a, b *models.Account) bool {
	if a.SubmissionID == nil || b.SubmissionID == nil {
		return a.SubmissionID == b.SubmissionID
	}
	return *a.SubmissionID == *b.SubmissionID && a.Role == b.Role
}
