package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	orgmodels "campusgate/internal/organization/models"
	"campusgate/internal/platform/blobstore"
	"campusgate/internal/verification/metrics"
	"campusgate/internal/verification/models"
	id "campusgate/pkg/domain"
	dErrors "campusgate/pkg/domain-errors"
	"campusgate/pkg/email"
	"campusgate/pkg/platform/audit"
	"campusgate/pkg/platform/sentinel"
	"campusgate/pkg/requestcontext"
)

var tracer = otel.Tracer("campusgate/internal/verification/service")

const (
	RejectPolicyRetain = "retain"
	RejectPolicyDelete = "delete"

	defaultUploadTimeout = 30 * time.Second
)

// AccountStore is the account ledger. Execute is the only path that changes
// an account's status.
type AccountStore interface {
	Create(ctx context.Context, a *models.Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Execute(ctx context.Context, accountID id.AccountID, validate func(*models.Account) error, mutate func(*models.Account)) (*models.Account, error)
	// ListByStatus filters by organization unless organizationID is nil.
	ListByStatus(ctx context.Context, status models.Status, roles []models.Role, organizationID id.OrganizationID) ([]*models.Account, error)
}

type ProfileStore interface {
	Upsert(ctx context.Context, p *models.Profile) (*models.Profile, error)
	FindByAccount(ctx context.Context, accountID id.AccountID) (*models.Profile, error)
	DeleteByAccount(ctx context.Context, accountID id.AccountID) error
}

type EvidenceStore interface {
	AppendBatch(ctx context.Context, batch []*models.Evidence) error
	ListBySubmission(ctx context.Context, accountID id.AccountID, submissionID id.SubmissionID) ([]*models.Evidence, error)
}

// OrganizationReader looks organizations up without authorization.
type OrganizationReader interface {
	FindByID(ctx context.Context, orgID id.OrganizationID) (*orgmodels.Organization, error)
}

type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the verification engine: submissions, reviews and the
// principal lookups every other module authorizes against.
type Service struct {
	accounts       AccountStore
	profiles       ProfileStore
	evidence       EvidenceStore
	orgs           OrganizationReader
	blobs          blobstore.Store
	tx             StoreTx
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	platformAdmins []string
	rejectPolicy   string
	uploadTimeout  time.Duration
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

// WithPlatformAdmins lists the emails bootstrapped as approved platform
// admins on first sign-in. Matching is case-insensitive.
func WithPlatformAdmins(emails ...string) Option {
	return func(s *Service) {
		for _, e := range emails {
			if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
				s.platformAdmins = append(s.platformAdmins, e)
			}
		}
	}
}

// WithRejectPolicy selects whether a rejection keeps ("retain") or removes
// ("delete") the rejected account's role profile.
func WithRejectPolicy(policy string) Option {
	return func(s *Service) {
		s.rejectPolicy = policy
	}
}

func WithUploadTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.uploadTimeout = d
		}
	}
}

func New(
	accounts AccountStore,
	profiles ProfileStore,
	evidence EvidenceStore,
	orgs OrganizationReader,
	blobs blobstore.Store,
	tx StoreTx,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		accounts:      accounts,
		profiles:      profiles,
		evidence:      evidence,
		orgs:          orgs,
		blobs:         blobs,
		tx:            tx,
		rejectPolicy:  RejectPolicyRetain,
		uploadTimeout: defaultUploadTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rejectPolicy != RejectPolicyRetain && s.rejectPolicy != RejectPolicyDelete {
		return nil, errors.New("reject policy must be retain or delete")
	}
	return s, nil
}

// EnsureAccount is the identity provider callback. The first call for an
// account creates it as NOT_APPLIED; listed platform admin emails are
// bootstrapped straight to an approved PLATFORM_ADMIN. Later calls return the
// stored account.
func (s *Service) EnsureAccount(ctx context.Context, caller id.AccountID, emailAddr, displayName string) (*models.Account, error) {
	if caller.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	if emailAddr == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "identity carries no email")
	}

	existing, err := s.accounts.FindByID(ctx, caller)
	switch {
	case err == nil:
		if s.isPlatformAdmin(existing.Email) && existing.Status == models.StatusNotApplied {
			return s.bootstrapPlatformAdmin(ctx, existing.ID)
		}
		return existing, nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = email.DisplayName(emailAddr)
	}
	now := requestcontext.Now(ctx)
	account, err := models.NewAccount(caller, emailAddr, displayName, now)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, err.Error())
	}
	bootstrap := s.isPlatformAdmin(emailAddr)
	if bootstrap {
		account.ApplyPlatformAdminBootstrap(now)
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.accounts.Create(ctx, account); err != nil {
			return err
		}
		event := audit.EventAccountCreated
		if bootstrap {
			event = audit.EventPlatformAdminSeeded
		}
		return s.record(ctx, event, account.ID, account.ID,
			"role", string(account.Role),
		)
	})
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		// A concurrent callback for the same account won the insert.
		if raced, findErr := s.accounts.FindByID(ctx, caller); findErr == nil {
			return raced, nil
		}
		return nil, dErrors.New(dErrors.CodeConflict, "email is already registered to another account")
	}
	if err != nil {
		return nil, wrapAccountErr(err)
	}
	if s.metrics != nil {
		s.metrics.AccountsSeeded.WithLabelValues(string(account.Role)).Inc()
	}
	return account, nil
}

func (s *Service) bootstrapPlatformAdmin(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	now := requestcontext.Now(ctx)
	var out *models.Account
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		updated, err := s.accounts.Execute(ctx, accountID,
			func(a *models.Account) error {
				if a.Status != models.StatusNotApplied {
					return dErrors.Conflict("account already holds a verification state", string(a.Status))
				}
				return nil
			},
			func(a *models.Account) {
				a.ApplyPlatformAdminBootstrap(now)
			},
		)
		if err != nil {
			return err
		}
		out = updated
		return s.record(ctx, audit.EventPlatformAdminSeeded, accountID, accountID,
			"role", string(models.RolePlatformAdmin),
		)
	})
	if err != nil {
		return nil, wrapAccountErr(err)
	}
	return out, nil
}

func (s *Service) isPlatformAdmin(emailAddr string) bool {
	return slices.Contains(s.platformAdmins, strings.ToLower(emailAddr))
}

// GetStatus returns the caller's role, status and reviewer feedback.
func (s *Service) GetStatus(ctx context.Context, caller id.AccountID) (*models.VerificationStatus, error) {
	account, err := s.loadCaller(ctx, caller)
	if err != nil {
		return nil, err
	}
	return &models.VerificationStatus{
		Role:     account.Role,
		Status:   account.Status,
		Feedback: account.Feedback,
	}, nil
}

// ResolvePrincipal returns the caller's role and status together with the
// organization its role profile is bound to, if any.
func (s *Service) ResolvePrincipal(ctx context.Context, accountID id.AccountID) (*models.Principal, error) {
	account, err := s.loadCaller(ctx, accountID)
	if err != nil {
		return nil, err
	}
	p := &models.Principal{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
		Status:    account.Status,
	}
	profile, err := s.profiles.FindByAccount(ctx, account.ID)
	switch {
	case err == nil:
		p.OrganizationID = profile.OrganizationID
		p.ProfileID = profile.ID
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load role profile")
	}
	return p, nil
}

// loadCaller maps an unknown or missing caller to UNAUTHENTICATED: without an
// account the caller has not completed sign-in.
func (s *Service) loadCaller(ctx context.Context, caller id.AccountID) (*models.Account, error) {
	if caller.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	account, err := s.accounts.FindByID(ctx, caller)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no account for caller; complete sign-in first")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return account, nil
}

func wrapAccountErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "account not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "account already exists")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "account store error")
}
