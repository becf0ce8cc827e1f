package service

import (
	"context"
	"errors"
	"log/slog"

	"campusgate/internal/organization/metrics"
	"campusgate/internal/organization/models"
	vmodels "campusgate/internal/verification/models"
	id "campusgate/pkg/domain"
	dErrors "campusgate/pkg/domain-errors"
	"campusgate/pkg/platform/audit"
	"campusgate/pkg/platform/sentinel"
	"campusgate/pkg/requestcontext"
)

// Store is the organization registry.
type Store interface {
	Create(ctx context.Context, org *models.Organization) error
	FindByID(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error)
	FindByKindAndName(ctx context.Context, kind models.Kind, name string) (*models.Organization, error)
	List(ctx context.Context, kind models.Kind, status models.Status) ([]*models.Organization, error)
	Execute(ctx context.Context, orgID id.OrganizationID, validate func(*models.Organization) error, mutate func(*models.Organization)) (*models.Organization, error)
	Delete(ctx context.Context, orgID id.OrganizationID) error
}

// DependentCounter counts rows that reference an organization.
type DependentCounter interface {
	CountByOrganization(ctx context.Context, orgID id.OrganizationID) (int, error)
}

// PrincipalResolver turns an authenticated account id into its role and status.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, accountID id.AccountID) (*vmodels.Principal, error)
}

type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs the organization registry and its independent verification.
type Service struct {
	orgs           Store
	dependents     []DependentCounter
	principals     PrincipalResolver
	tx             StoreTx
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithDependents registers counters consulted before a delete.
func WithDependents(counters ...DependentCounter) Option {
	return func(s *Service) {
		s.dependents = append(s.dependents, counters...)
	}
}

func New(orgs Store, principals PrincipalResolver, tx StoreTx, opts ...Option) *Service {
	s := &Service{orgs: orgs, principals: principals, tx: tx}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a NOT_VERIFIED organization. Platform admins only.
func (s *Service) Create(ctx context.Context, caller id.AccountID, f models.Fields) (*models.Organization, error) {
	if _, err := s.requirePlatformAdmin(ctx, caller, "create_organization"); err != nil {
		return nil, err
	}
	f.Normalize()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var org *models.Organization
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		created, err := s.create(ctx, caller, f)
		if err != nil {
			return err
		}
		org = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// Register returns the organization with the same kind and name, or creates a
// NOT_VERIFIED one. Any account may register; created reports which happened.
func (s *Service) Register(ctx context.Context, caller id.AccountID, f models.Fields) (org *models.Organization, created bool, err error) {
	if _, err := s.resolve(ctx, caller); err != nil {
		return nil, false, err
	}
	f.Normalize()
	if err := f.Validate(); err != nil {
		return nil, false, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.orgs.FindByKindAndName(ctx, f.Kind, f.Name)
		if err == nil {
			org = existing
			return nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up organization")
		}
		org, err = s.create(ctx, caller, f)
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return org, created, nil
}

func (s *Service) create(ctx context.Context, caller id.AccountID, f models.Fields) (*models.Organization, error) {
	org, err := models.NewOrganization(id.NewOrganizationID(), f, caller, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "an organization of this kind with this name already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create organization")
	}
	if err := s.record(ctx, audit.EventOrganizationCreated, caller, org,
		"kind", string(org.Kind),
	); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.Created.WithLabelValues(string(org.Kind)).Inc()
	}
	return org, nil
}

// Get returns one organization to any authenticated account.
func (s *Service) Get(ctx context.Context, caller id.AccountID, orgID id.OrganizationID) (*models.Organization, error) {
	if _, err := s.resolve(ctx, caller); err != nil {
		return nil, err
	}
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, wrapOrgErr(err)
	}
	return org, nil
}

// FindByID is the lookup other modules use; it performs no authorization.
func (s *Service) FindByID(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, wrapOrgErr(err)
	}
	return org, nil
}

// List filters organizations by kind and status; empty filters match all.
func (s *Service) List(ctx context.Context, caller id.AccountID, kind models.Kind, status models.Status) ([]*models.Organization, error) {
	if _, err := s.resolve(ctx, caller); err != nil {
		return nil, err
	}
	if kind != "" && !kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown organization kind")
	}
	if status != "" && !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown organization status")
	}
	orgs, err := s.orgs.List(ctx, kind, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list organizations")
	}
	return orgs, nil
}

// Review records a platform admin's verdict. VERIFIED is terminal. The verdict
// never cascades to linked profiles.
func (s *Service) Review(ctx context.Context, caller id.AccountID, orgID id.OrganizationID, decision models.Status) (*models.Organization, error) {
	if _, err := s.requirePlatformAdmin(ctx, caller, "review_organization"); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	var org *models.Organization
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		updated, err := s.orgs.Execute(ctx, orgID,
			func(o *models.Organization) error {
				if err := o.CanReview(decision); err != nil {
					if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
						return dErrors.Conflict("organization is already verified", string(o.Status))
					}
					return err
				}
				return nil
			},
			func(o *models.Organization) {
				o.ApplyReview(decision, caller, now)
			},
		)
		if err != nil {
			return wrapOrgErr(err)
		}
		event := audit.EventOrganizationVerified
		if decision == models.StatusRejected {
			event = audit.EventOrganizationRejected
		}
		if err := s.record(ctx, event, caller, updated, "decision", string(decision)); err != nil {
			return err
		}
		org = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.Reviewed.WithLabelValues(string(decision)).Inc()
	}
	return org, nil
}

// Delete hard-deletes an organization that nothing references.
func (s *Service) Delete(ctx context.Context, caller id.AccountID, orgID id.OrganizationID) error {
	if _, err := s.requirePlatformAdmin(ctx, caller, "delete_organization"); err != nil {
		return err
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		org, err := s.orgs.FindByID(ctx, orgID)
		if err != nil {
			return wrapOrgErr(err)
		}
		for _, counter := range s.dependents {
			n, err := counter.CountByOrganization(ctx, orgID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count organization references")
			}
			if n > 0 {
				return dErrors.New(dErrors.CodeConflict, "organization is still referenced by profiles or placements")
			}
		}
		if err := s.orgs.Delete(ctx, orgID); err != nil {
			return wrapOrgErr(err)
		}
		return s.record(ctx, audit.EventOrganizationDeleted, caller, org)
	})
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.Deleted.Inc()
	}
	return nil
}

func (s *Service) resolve(ctx context.Context, caller id.AccountID) (*vmodels.Principal, error) {
	if caller.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return s.principals.ResolvePrincipal(ctx, caller)
}

func (s *Service) requirePlatformAdmin(ctx context.Context, caller id.AccountID, action string) (*vmodels.Principal, error) {
	p, err := s.resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !p.Approved(vmodels.RolePlatformAdmin) {
		s.logAudit(ctx, string(audit.EventAccessDenied),
			"account_id", caller,
			"action", action,
		)
		return nil, dErrors.New(dErrors.CodeForbidden, "platform admin role required")
	}
	return p, nil
}

func wrapOrgErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "organization not found")
	case errors.Is(err, sentinel.ErrHasDependents):
		return dErrors.New(dErrors.CodeConflict, "organization is still referenced by profiles or placements")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "organization store error")
}
