package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	orgmodels "campusgate/internal/organization/models"
	"campusgate/internal/placement/metrics"
	"campusgate/internal/placement/models"
	vmodels "campusgate/internal/verification/models"
	id "campusgate/pkg/domain"
	dErrors "campusgate/pkg/domain-errors"
	"campusgate/pkg/platform/audit"
	"campusgate/pkg/platform/sentinel"
	"campusgate/pkg/requestcontext"
)

var tracer = otel.Tracer("campusgate/internal/placement/service")

const defaultReportTTL = 5 * time.Minute

// Store persists placements. Execute is the only path that changes status.
type Store interface {
	Create(ctx context.Context, p *models.Placement) error
	FindByID(ctx context.Context, placementID id.PlacementID) (*models.Placement, error)
	Execute(ctx context.Context, placementID id.PlacementID, validate func(*models.Placement) error, mutate func(*models.Placement)) (*models.Placement, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Placement, error)
	ListVerified(ctx context.Context, institutionID, companyID id.OrganizationID) ([]*models.Placement, error)
}

type ProfileReader interface {
	FindByID(ctx context.Context, profileID id.ProfileID) (*vmodels.Profile, error)
}

type AccountReader interface {
	FindByID(ctx context.Context, accountID id.AccountID) (*vmodels.Account, error)
}

type OrganizationReader interface {
	FindByID(ctx context.Context, orgID id.OrganizationID) (*orgmodels.Organization, error)
}

type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, accountID id.AccountID) (*vmodels.Principal, error)
}

// ReportCache holds the last computed aggregate report. Invalidate advances
// the generation; Set stores nothing unless gen is still current.
type ReportCache interface {
	Get(ctx context.Context) (*models.Report, bool, error)
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, r *models.Report, ttl time.Duration, gen int64) (bool, error)
	Invalidate(ctx context.Context) error
}

type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs the placement verification sub-workflow and the government
// read path over VERIFIED placements.
type Service struct {
	placements     Store
	profiles       ProfileReader
	accounts       AccountReader
	orgs           OrganizationReader
	principals     PrincipalResolver
	tx             StoreTx
	cache          ReportCache
	reportTTL      time.Duration
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

// WithReportCache caches the aggregate report for ttl. Without a cache the
// report is computed on every call.
func WithReportCache(cache ReportCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		if ttl > 0 {
			s.reportTTL = ttl
		}
	}
}

func New(
	placements Store,
	profiles ProfileReader,
	accounts AccountReader,
	orgs OrganizationReader,
	principals PrincipalResolver,
	tx StoreTx,
	opts ...Option,
) *Service {
	s := &Service{
		placements: placements,
		profiles:   profiles,
		accounts:   accounts,
		orgs:       orgs,
		principals: principals,
		tx:         tx,
		reportTTL:  defaultReportTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create records a NOT_VERIFIED placement for an approved student of the
// caller's institution at an existing company.
func (s *Service) Create(ctx context.Context, caller id.AccountID, req *models.CreateRequest) (placement *models.Placement, err error) {
	ctx, span := tracer.Start(ctx, "placement.Create")
	defer func() { endSpan(span, err) }()

	p, err := s.resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !p.Approved(vmodels.RoleInstitutionAdmin) {
		return nil, s.deny(ctx, p, "create_placement", "approved institution admin role required")
	}
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	profile, err := s.profiles.FindByID(ctx, req.StudentProfileID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "student profile not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student profile")
	}
	if !profile.IsStudentOf(p.OrganizationID) {
		return nil, s.deny(ctx, p, "create_placement", "student does not belong to the caller's institution")
	}
	student, err := s.accounts.FindByID(ctx, profile.AccountID)
	if err != nil {
		return nil, wrapLookupErr(err, "student account")
	}
	if !student.IsApprovedAs(vmodels.RoleStudent) {
		return nil, dErrors.New(dErrors.CodeInvalidState, "student is not an approved student")
	}
	company, err := s.orgs.FindByID(ctx, req.CompanyID)
	if err != nil {
		return nil, wrapLookupErr(err, "company")
	}
	if company.Kind != orgmodels.KindCompany {
		return nil, dErrors.New(dErrors.CodeValidation, "company_id must reference a COMPANY organization")
	}

	placement, err = models.NewPlacement(id.NewPlacementID(), *req, p.OrganizationID, caller, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.placements.Create(ctx, placement); err != nil {
			return err
		}
		return s.record(ctx, audit.EventPlacementRecorded, caller, placement,
			"company_id", placement.CompanyID,
			"institution_id", placement.InstitutionID,
		)
	})
	if err != nil {
		return nil, wrapPlacementErr(err)
	}
	if s.metrics != nil {
		s.metrics.Recorded.Inc()
	}
	return placement, nil
}

// Verify records the company's verdict on a NOT_VERIFIED placement. Only an
// approved representative of the placement's company may decide.
func (s *Service) Verify(ctx context.Context, caller id.AccountID, placementID id.PlacementID, decision models.Status) (placement *models.Placement, err error) {
	ctx, span := tracer.Start(ctx, "placement.Verify")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("decision", string(decision)))

	if decision != models.StatusVerified && decision != models.StatusRejected {
		return nil, dErrors.New(dErrors.CodeBadRequest, "decision must be VERIFIED or REJECTED")
	}
	p, err := s.resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	current, err := s.placements.FindByID(ctx, placementID)
	if err != nil {
		return nil, wrapPlacementErr(err)
	}
	if !p.ApprovedMemberOf(vmodels.RoleCompanyRepresentative, current.CompanyID) {
		return nil, s.deny(ctx, p, "verify_placement", "only an approved representative of the placement's company may verify")
	}

	now := requestcontext.Now(ctx)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		updated, err := s.placements.Execute(ctx, placementID,
			func(pl *models.Placement) error {
				if err := pl.CanVerify(decision); err != nil {
					return dErrors.Conflict("placement has already been decided", string(pl.Status))
				}
				return nil
			},
			func(pl *models.Placement) {
				pl.ApplyVerification(decision, caller, now)
			},
		)
		if err != nil {
			return err
		}
		placement = updated
		event := audit.EventPlacementVerified
		if decision == models.StatusRejected {
			event = audit.EventPlacementRejected
		}
		return s.record(ctx, event, caller, updated, "decision", string(decision))
	})
	if err != nil {
		return nil, wrapPlacementErr(err)
	}

	if decision == models.StatusVerified && s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to invalidate placement report cache", "error", err)
		}
	}
	if s.metrics != nil {
		s.metrics.Verified.WithLabelValues(string(decision)).Inc()
	}
	return placement, nil
}

func (s *Service) resolve(ctx context.Context, caller id.AccountID) (*vmodels.Principal, error) {
	if caller.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return s.principals.ResolvePrincipal(ctx, caller)
}

func (s *Service) deny(ctx context.Context, p *vmodels.Principal, action, message string) error {
	s.logAudit(ctx, string(audit.EventAccessDenied),
		"account_id", p.AccountID,
		"role", string(p.Role),
		"action", action,
	)
	return dErrors.New(dErrors.CodeForbidden, message)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

func wrapLookupErr(err error, what string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+what)
}

func wrapPlacementErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "placement not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "student already has a live placement at this company")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "placement store error")
}
