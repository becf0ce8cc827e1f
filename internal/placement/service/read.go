package service

import (
	"context"

	orgmodels "campusgate/internal/organization/models"
	"campusgate/internal/placement/models"
	vmodels "campusgate/internal/verification/models"
	id "campusgate/pkg/domain"
	dErrors "campusgate/pkg/domain-errors"
	"campusgate/pkg/requestcontext"
)

// ListVerified is the government read path. Only VERIFIED placements are ever
// returned, whatever the filter.
func (s *Service) ListVerified(ctx context.Context, caller id.AccountID, filter models.VerifiedFilter) (records []*models.VerifiedRecord, err error) {
	ctx, span := tracer.Start(ctx, "placement.ListVerified")
	defer func() { endSpan(span, err) }()

	if err := s.requireReader(ctx, caller, "list_verified_placements"); err != nil {
		return nil, err
	}
	if filter.GraduationYear < 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "graduation_year cannot be negative")
	}
	return s.verifiedRecords(ctx, filter)
}

// Report returns VERIFIED placement counts per institution, company and
// graduation year. The result is served from cache until it expires or a
// placement is verified.
func (s *Service) Report(ctx context.Context, caller id.AccountID) (report *models.Report, err error) {
	ctx, span := tracer.Start(ctx, "placement.Report")
	defer func() { endSpan(span, err) }()

	if err := s.requireReader(ctx, caller, "placement_report"); err != nil {
		return nil, err
	}
	// The generation is read before the records so a report built from data
	// that a concurrent Verify has since invalidated is never stored.
	var gen int64
	cacheable := s.cache != nil
	if cacheable {
		cached, ok, err := s.cache.Get(ctx)
		if err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "placement report cache read failed", "error", err)
		}
		if ok {
			if s.metrics != nil {
				s.metrics.IncCacheHit()
			}
			return cached, nil
		}
		if s.metrics != nil {
			s.metrics.IncCacheMiss()
		}
		if gen, err = s.cache.Generation(ctx); err != nil {
			cacheable = false
			if s.logger != nil {
				s.logger.WarnContext(ctx, "placement report cache generation read failed", "error", err)
			}
		}
	}

	records, err := s.verifiedRecords(ctx, models.VerifiedFilter{})
	if err != nil {
		return nil, err
	}
	report = models.BuildReport(records, requestcontext.Now(ctx))
	if cacheable {
		stored, err := s.cache.Set(ctx, report, s.reportTTL, gen)
		switch {
		case err != nil && s.logger != nil:
			s.logger.WarnContext(ctx, "placement report cache write failed", "error", err)
		case !stored && s.logger != nil:
			s.logger.DebugContext(ctx, "placement report invalidated while computing, not cached")
		}
	}
	return report, nil
}

// ListForInstitution lists the caller's institution's placements.
func (s *Service) ListForInstitution(ctx context.Context, caller id.AccountID, status models.Status) ([]*models.Placement, error) {
	p, err := s.resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !p.Approved(vmodels.RoleInstitutionAdmin) {
		return nil, s.deny(ctx, p, "list_institution_placements", "approved institution admin role required")
	}
	return s.list(ctx, models.ListFilter{Status: status, InstitutionID: p.OrganizationID})
}

// ListForCompany lists placements naming the caller's company.
func (s *Service) ListForCompany(ctx context.Context, caller id.AccountID, status models.Status) ([]*models.Placement, error) {
	p, err := s.resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !p.Approved(vmodels.RoleCompanyRepresentative) {
		return nil, s.deny(ctx, p, "list_company_placements", "approved company representative role required")
	}
	return s.list(ctx, models.ListFilter{Status: status, CompanyID: p.OrganizationID})
}

func (s *Service) list(ctx context.Context, filter models.ListFilter) ([]*models.Placement, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown placement status")
	}
	out, err := s.placements.List(ctx, filter)
	if err != nil {
		return nil, wrapPlacementErr(err)
	}
	return out, nil
}

func (s *Service) requireReader(ctx context.Context, caller id.AccountID, action string) error {
	p, err := s.resolve(ctx, caller)
	if err != nil {
		return err
	}
	if p.Approved(vmodels.RoleGovernmentRepresentative) || p.Approved(vmodels.RolePlatformAdmin) {
		return nil
	}
	return s.deny(ctx, p, action, "approved government representative or platform admin role required")
}

// verifiedRecords joins VERIFIED placements with the student profile, the
// student account and both organizations.
func (s *Service) verifiedRecords(ctx context.Context, filter models.VerifiedFilter) ([]*models.VerifiedRecord, error) {
	placements, err := s.placements.ListVerified(ctx, filter.InstitutionID, filter.CompanyID)
	if err != nil {
		return nil, wrapPlacementErr(err)
	}
	orgs := make(map[id.OrganizationID]*orgmodels.Organization)
	org := func(orgID id.OrganizationID) (*orgmodels.Organization, error) {
		if o, ok := orgs[orgID]; ok {
			return o, nil
		}
		o, err := s.orgs.FindByID(ctx, orgID)
		if err != nil {
			return nil, wrapLookupErr(err, "organization")
		}
		orgs[orgID] = o
		return o, nil
	}

	out := make([]*models.VerifiedRecord, 0, len(placements))
	for _, pl := range placements {
		if pl.Status != models.StatusVerified {
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "store returned unverified placement on verified read path",
					"placement_id", pl.ID, "status", string(pl.Status))
			}
			continue
		}
		profile, err := s.profiles.FindByID(ctx, pl.StudentProfileID)
		if err != nil {
			return nil, wrapLookupErr(err, "student profile")
		}
		if profile.Student == nil {
			return nil, dErrors.New(dErrors.CodeInternal, "placement references a non-student profile")
		}
		if filter.GraduationYear != 0 && profile.Student.GraduationYear != filter.GraduationYear {
			continue
		}
		student, err := s.accounts.FindByID(ctx, profile.AccountID)
		if err != nil {
			return nil, wrapLookupErr(err, "student account")
		}
		institution, err := org(pl.InstitutionID)
		if err != nil {
			return nil, err
		}
		company, err := org(pl.CompanyID)
		if err != nil {
			return nil, err
		}
		out = append(out, &models.VerifiedRecord{
			PlacementID:      pl.ID,
			StudentName:      student.DisplayName,
			EnrollmentNumber: profile.Student.EnrollmentNumber,
			Department:       profile.Student.Department,
			GraduationYear:   profile.Student.GraduationYear,
			InstitutionID:    institution.ID,
			InstitutionName:  institution.Name,
			CompanyID:        company.ID,
			CompanyName:      company.Name,
			CompanyWebsite:   company.Website,
			RoleTitle:        pl.RoleTitle,
			PackageCTC:       pl.PackageCTC,
			VerifiedAt:       pl.DecidedAt,
		})
	}
	return out, nil
}
