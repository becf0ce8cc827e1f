package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	orgmodels "campusgate/internal/organization/models"
	orgstore "campusgate/internal/organization/store"
	"campusgate/internal/platform/blobstore"
	"campusgate/internal/verification/metrics"
	"campusgate/internal/verification/models"
	accountstore "campusgate/internal/verification/store/account"
	evidencestore "campusgate/internal/verification/store/evidence"
	profilestore "campusgate/internal/verification/store/profile"
	id "campusgate/pkg/domain"
	dErrors "campusgate/pkg/domain-errors"
	"campusgate/pkg/platform/audit"
	"campusgate/pkg/platform/audit/publishers/compliance"
	auditmemory "campusgate/pkg/platform/audit/store/memory"
	"campusgate/pkg/platform/sentinel"
	txcontext "campusgate/pkg/platform/tx"
	"campusgate/pkg/requestcontext"
)

const rootEmail = "root@campus.test"

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	accounts   *accountstore.InMemory
	profiles   *profilestore.InMemory
	evidence   *evidencestore.InMemory
	orgs       *orgstore.InMemory
	blobs      *blobstore.MemoryStore
	auditStore *auditmemory.InMemoryStore
	metrics    *metrics.Metrics
	service    *Service

	institution *orgmodels.Organization
	otherInst   *orgmodels.Organization
	company     *orgmodels.Organization
	department  *orgmodels.Organization
	root        id.AccountID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	s.ctx = requestcontext.WithClientMetadata(s.ctx, "10.0.0.1",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	s.accounts = accountstore.NewInMemory()
	s.profiles = profilestore.NewInMemory()
	s.evidence = evidencestore.NewInMemory()
	s.orgs = orgstore.NewInMemory()
	s.blobs = blobstore.NewMemoryStore("https://blobs.test")
	s.auditStore = auditmemory.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = s.newService(RejectPolicyRetain)

	s.institution = s.seedOrg(orgmodels.KindInstitution, "IIT Madras")
	s.otherInst = s.seedOrg(orgmodels.KindInstitution, "NIT Trichy")
	s.company = s.seedOrg(orgmodels.KindCompany, "Acme Corp")
	s.department = s.seedOrg(orgmodels.KindGovernment, "Labour Department")

	root, err := s.service.EnsureAccount(s.ctx, id.NewAccountID(), rootEmail, "")
	s.Require().NoError(err)
	s.root = root.ID
}

func (s *ServiceSuite) newService(policy string) *Service {
	svc, err := New(s.accounts, s.profiles, s.evidence, s.orgs, s.blobs, txcontext.NewMemoryTx(),
		WithAuditPublisher(compliance.New(s.auditStore)),
		WithMetrics(s.metrics),
		WithPlatformAdmins(" ROOT@campus.test "),
		WithRejectPolicy(policy),
		WithUploadTimeout(time.Second),
	)
	s.Require().NoError(err)
	return svc
}

func (s *ServiceSuite) seedOrg(kind orgmodels.Kind, name string) *orgmodels.Organization {
	org, err := orgmodels.NewOrganization(id.NewOrganizationID(), orgmodels.Fields{Kind: kind, Name: name}, id.AccountID{}, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.orgs.Create(s.ctx, org))
	return org
}

func (s *ServiceSuite) signIn(email string) id.AccountID {
	a, err := s.service.EnsureAccount(s.ctx, id.NewAccountID(), email, "")
	s.Require().NoError(err)
	return a.ID
}

func doc(kind models.DocumentKind) models.Document {
	return models.Document{Kind: kind, FileName: string(kind) + ".pdf", ContentType: "application/pdf", Content: []byte("scan of " + string(kind))}
}

func (s *ServiceSuite) studentRequest(inst id.OrganizationID) *models.SubmitRequest {
	return &models.SubmitRequest{
		Role:           models.RoleStudent,
		OrganizationID: inst,
		Documents:      []models.Document{doc(models.KindStudentID)},
		Student: &models.StudentDetails{
			Gender: "f", Department: "Computer Science", EnrollmentNumber: "cs21b001", GraduationYear: 2026,
		},
	}
}

func (s *ServiceSuite) adminRequest(inst id.OrganizationID) *models.SubmitRequest {
	return &models.SubmitRequest{
		Role:           models.RoleInstitutionAdmin,
		OrganizationID: inst,
		Documents:      []models.Document{doc(models.KindInstitutionID), doc(models.KindAuthorizationLetter)},
	}
}

// approvedInstitutionAdmin walks an account through submission and platform review.
func (s *ServiceSuite) approvedInstitutionAdmin(email string, inst id.OrganizationID) id.AccountID {
	admin := s.signIn(email)
	_, err := s.service.Submit(s.ctx, admin, s.adminRequest(inst))
	s.Require().NoError(err)
	_, err = s.service.Review(s.ctx, s.root, admin, models.DecisionApproved, nil)
	s.Require().NoError(err)
	return admin
}

func (s *ServiceSuite) lastAction() string {
	recent, err := s.auditStore.ListRecent(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().NotEmpty(recent)
	return recent[0].Action
}

func (s *ServiceSuite) TestEnsureAccount() {
	s.Run("first sign-in creates a NOT_APPLIED account", func() {
		accountID := id.NewAccountID()
		a, err := s.service.EnsureAccount(s.ctx, accountID, "Asha.Rao@Campus.test", "")
		s.Require().NoError(err)
		s.Equal(models.StatusNotApplied, a.Status)
		s.Equal(models.RoleUnassigned, a.Role)
		s.Equal("asha.rao@campus.test", a.Email)
		s.Equal("Asha Rao", a.DisplayName)
		s.Equal(string(audit.EventAccountCreated), s.lastAction())

		again, err := s.service.EnsureAccount(s.ctx, accountID, "asha.rao@campus.test", "Someone Else")
		s.Require().NoError(err)
		s.Equal("Asha Rao", again.DisplayName)
	})

	s.Run("listed emails are bootstrapped as approved platform admins", func() {
		root, err := s.accounts.FindByID(s.ctx, s.root)
		s.Require().NoError(err)
		s.Equal(models.RolePlatformAdmin, root.Role)
		s.Equal(models.StatusApproved, root.Status)
	})

	s.Run("email owned by another account conflicts", func() {
		_, err := s.service.EnsureAccount(s.ctx, id.NewAccountID(), rootEmail, "")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("anonymous callers are refused", func() {
		_, err := s.service.EnsureAccount(s.ctx, id.AccountID{}, "x@campus.test", "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestSubmitStudent() {
	student := s.signIn("student@campus.test")

	res, err := s.service.Submit(s.ctx, student, s.studentRequest(s.institution.ID))
	s.Require().NoError(err)

	s.Equal(models.StatusPending, res.Account.Status)
	s.Equal(models.RoleStudent, res.Account.Role)
	s.Require().NotNil(res.Account.SubmissionID)
	s.Equal("CS21B001", res.Profile.Student.EnrollmentNumber)
	s.Equal(s.institution.ID, res.Profile.OrganizationID)
	s.Require().Len(res.Evidence, 1)
	s.Len(res.Evidence[0].Digest, 64)
	s.Equal(*res.Account.SubmissionID, res.Evidence[0].SubmissionID)
	s.Equal(1, s.blobs.Len())

	status, err := s.service.GetStatus(s.ctx, student)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, status.Status)

	events, err := s.auditStore.ListByAccount(s.ctx, student)
	s.Require().NoError(err)
	s.Equal(string(audit.EventVerificationSubmitted), events[len(events)-1].Action)
	s.Contains(events[len(events)-1].Device, "Chrome on ")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Submissions.WithLabelValues("STUDENT")))

	_, err = s.service.Submit(s.ctx, student, s.studentRequest(s.institution.ID))
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadySubmitted))
}

func (s *ServiceSuite) TestSubmitRejectsBeforeUploading() {
	caller := s.signIn("rep@acme.test")

	cases := []struct {
		name string
		req  *models.SubmitRequest
		code dErrors.Code
	}{
		{
			name: "platform admin cannot be requested",
			req:  &models.SubmitRequest{Role: models.RolePlatformAdmin, OrganizationID: s.company.ID, Documents: []models.Document{doc(models.KindCompanyID)}},
			code: dErrors.CodeInvalidRole,
		},
		{
			name: "no documents",
			req:  &models.SubmitRequest{Role: models.RoleCompanyRepresentative, OrganizationID: s.company.ID},
			code: dErrors.CodeNoEvidence,
		},
		{
			name: "foreign document kind",
			req: &models.SubmitRequest{Role: models.RoleCompanyRepresentative, OrganizationID: s.company.ID,
				Documents: []models.Document{doc(models.KindCompanyID), doc(models.KindBusinessCard), doc(models.KindStudentID)}},
			code: dErrors.CodeInvalidDocumentKind,
		},
		{
			name: "missing required kind",
			req: &models.SubmitRequest{Role: models.RoleCompanyRepresentative, OrganizationID: s.company.ID,
				Documents: []models.Document{doc(models.KindCompanyID)}},
			code: dErrors.CodeInvalidDocumentKind,
		},
		{
			name: "organization of the wrong kind",
			req: &models.SubmitRequest{Role: models.RoleCompanyRepresentative, OrganizationID: s.institution.ID,
				Documents: []models.Document{doc(models.KindCompanyID), doc(models.KindBusinessCard)}},
			code: dErrors.CodeValidation,
		},
		{
			name: "unknown organization",
			req: &models.SubmitRequest{Role: models.RoleCompanyRepresentative, OrganizationID: id.NewOrganizationID(),
				Documents: []models.Document{doc(models.KindCompanyID), doc(models.KindBusinessCard)}},
			code: dErrors.CodeNotFound,
		},
		{
			name: "government details missing",
			req: &models.SubmitRequest{Role: models.RoleGovernmentRepresentative, OrganizationID: s.department.ID,
				Documents: []models.Document{doc(models.KindGovernmentID), doc(models.KindDepartmentLetter)}},
			code: dErrors.CodeValidation,
		},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.Submit(s.ctx, caller, tc.req)
			s.Require().Error(err)
			s.Equal(tc.code, dErrors.CodeOf(err))
			s.Zero(s.blobs.Len())

			a, err := s.accounts.FindByID(s.ctx, caller)
			s.Require().NoError(err)
			s.Equal(models.StatusNotApplied, a.Status)
		})
	}

	s.Run("unknown caller is unauthenticated", func() {
		_, err := s.service.Submit(s.ctx, id.NewAccountID(), s.studentRequest(s.institution.ID))
		s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestSubmitUploadFailureLeavesNoTrace() {
	caller := s.signIn("admin@iitm.test")
	s.blobs.FailOn = func(name string) error {
		if name == string(models.KindAuthorizationLetter)+".pdf" {
			return errors.New("quota exceeded")
		}
		return nil
	}

	_, err := s.service.Submit(s.ctx, caller, s.adminRequest(s.institution.ID))
	s.Equal(dErrors.CodeUploadFailed, dErrors.CodeOf(err))
	s.Zero(s.blobs.Len())

	a, err := s.accounts.FindByID(s.ctx, caller)
	s.Require().NoError(err)
	s.Equal(models.StatusNotApplied, a.Status)
	_, err = s.profiles.FindByAccount(s.ctx, caller)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.Equal(string(audit.EventUploadFailed), s.lastAction())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.UploadFailures))
}

func (s *ServiceSuite) TestConcurrentSubmitHasOneWinner() {
	student := s.signIn("racer@campus.test")

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Submit(s.ctx, student, s.studentRequest(s.institution.ID))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, already int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case dErrors.HasCode(err, dErrors.CodeAlreadySubmitted):
			already++
		}
	}
	s.Equal(1, ok)
	s.Equal(9, already)
	s.Equal(1, s.blobs.Len())
}

func (s *ServiceSuite) TestConcurrentReviewHasOneWinner() {
	rep := s.signIn("rep@acme.test")
	_, err := s.service.Submit(s.ctx, rep, &models.SubmitRequest{
		Role:           models.RoleCompanyRepresentative,
		OrganizationID: s.company.ID,
		Documents:      []models.Document{doc(models.KindCompanyID), doc(models.KindBusinessCard)},
	})
	s.Require().NoError(err)

	type outcome struct {
		decision models.Decision
		err      error
	}
	var wg sync.WaitGroup
	results := make(chan outcome, 8)
	for i := range 8 {
		decision := models.DecisionApproved
		if i%2 == 1 {
			decision = models.DecisionRejected
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Review(s.ctx, s.root, rep, decision, nil)
			results <- outcome{decision: decision, err: err}
		}()
	}
	wg.Wait()
	close(results)

	var winner models.Decision
	var wins, conflicts int
	for r := range results {
		switch {
		case r.err == nil:
			wins++
			winner = r.decision
		case dErrors.HasCode(r.err, dErrors.CodeConflict):
			conflicts++
		}
	}
	s.Require().Equal(1, wins)
	s.Equal(7, conflicts)

	a, err := s.accounts.FindByID(s.ctx, rep)
	s.Require().NoError(err)
	if winner == models.DecisionApproved {
		s.Equal(models.StatusApproved, a.Status)
	} else {
		s.Equal(models.StatusRejected, a.Status)
	}
}

// Institution admins racing on one student produce a single transition under
// either reject policy, and the decided account is not touched afterwards.
func (s *ServiceSuite) TestConcurrentStudentReviewHasOneWinner() {
	for _, policy := range []string{RejectPolicyRetain, RejectPolicyDelete} {
		s.Run(policy, func() {
			s.service = s.newService(policy)
			admin := s.approvedInstitutionAdmin("admin-"+policy+"@iitm.test", s.institution.ID)
			student := s.signIn("racer-" + policy + "@campus.test")
			_, err := s.service.Submit(s.ctx, student, s.studentRequest(s.institution.ID))
			s.Require().NoError(err)

			type outcome struct {
				decision models.Decision
				err      error
			}
			var wg sync.WaitGroup
			results := make(chan outcome, 8)
			for i := range 8 {
				decision := models.DecisionRejected
				if i%2 == 1 {
					decision = models.DecisionApproved
				}
				wg.Add(1)
				go func() {
					defer wg.Done()
					feedback := "ID unreadable"
					_, err := s.service.Review(s.ctx, admin, student, decision, &feedback)
					results <- outcome{decision: decision, err: err}
				}()
			}
			wg.Wait()
			close(results)

			var winner models.Decision
			var wins int
			var losers []error
			for r := range results {
				if r.err == nil {
					wins++
					winner = r.decision
					continue
				}
				losers = append(losers, r.err)
			}
			s.Require().Equal(1, wins)
			s.Require().Len(losers, 7)
			for _, err := range losers {
				s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err), "loser error: %v", err)
				s.Equal(string(winner), dErrors.CurrentStateOf(err))
			}

			decided, err := s.accounts.FindByID(s.ctx, student)
			s.Require().NoError(err)
			s.Equal(models.Status(winner), decided.Status)

			_, err = s.service.Review(s.ctx, admin, student, models.DecisionRejected, nil)
			s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
			s.Equal(string(winner), dErrors.CurrentStateOf(err))

			after, err := s.accounts.FindByID(s.ctx, student)
			s.Require().NoError(err)
			s.Equal(decided, after)

			_, err = s.profiles.FindByAccount(s.ctx, student)
			if policy == RejectPolicyDelete && winner == models.DecisionRejected {
				s.ErrorIs(err, sentinel.ErrNotFound)
			} else {
				s.NoError(err)
			}
		})
	}
}

// Deleting the profile on rejection must not turn a repeated review into an
// authorization failure.
func (s *ServiceSuite) TestRepeatedStudentReviewAfterDeleteConflicts() {
	s.service = s.newService(RejectPolicyDelete)
	admin := s.approvedInstitutionAdmin("admin@iitm.test", s.institution.ID)
	outsider := s.approvedInstitutionAdmin("admin@nitt.test", s.otherInst.ID)
	student := s.signIn("student@campus.test")
	_, err := s.service.Submit(s.ctx, student, s.studentRequest(s.institution.ID))
	s.Require().NoError(err)

	feedback := "ID unreadable"
	rejected, err := s.service.Review(s.ctx, admin, student, models.DecisionRejected, &feedback)
	s.Require().NoError(err)
	_, err = s.profiles.FindByAccount(s.ctx, student)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	s.Require().NotNil(rejected.OrganizationID)
	s.Equal(s.institution.ID, *rejected.OrganizationID)

	for _, decision := range []models.Decision{models.DecisionRejected, models.DecisionApproved} {
		_, err = s.service.Review(s.ctx, admin, student, decision, &feedback)
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
		s.Equal("REJECTED", dErrors.CurrentStateOf(err))
	}

	_, err = s.service.Review(s.ctx, outsider, student, models.DecisionRejected, nil)
	s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))

	a, err := s.accounts.FindByID(s.ctx, student)
	s.Require().NoError(err)
	s.Equal(rejected, a)
}

func (s *ServiceSuite) TestReviewStudentByInstitutionAdmin() {
	admin := s.approvedInstitutionAdmin("admin@iitm.test", s.institution.ID)
	outsider := s.approvedInstitutionAdmin("admin@nitt.test", s.otherInst.ID)
	student := s.signIn("student@campus.test")
	_, err := s.service.Submit(s.ctx, student, s.studentRequest(s.institution.ID))
	s.Require().NoError(err)

	s.Run("admin of another institution is forbidden", func() {
		_, err := s.service.Review(s.ctx, outsider, student, models.DecisionApproved, nil)
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("platform admin cannot review students", func() {
		_, err := s.service.Review(s.ctx, s.root, student, models.DecisionApproved, nil)
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("own institution admin rejects with trimmed feedback", func() {
		feedback := "  ID card is blurry  "
		a, err := s.service.Review(s.ctx, admin, student, models.DecisionRejected, &feedback)
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, a.Status)
		s.Require().NotNil(a.Feedback)
		s.Equal("ID card is blurry", *a.Feedback)
		s.Equal(admin, *a.ReviewedBy)

		events, err := s.auditStore.ListByAccount(s.ctx, student)
		s.Require().NoError(err)
		last := events[len(events)-1]
		s.Equal(string(audit.EventVerificationRejected), last.Action)
		s.Equal("ID card is blurry", last.Reason)
		s.Equal(admin.String(), last.ActorID)

		_, err = s.profiles.FindByAccount(s.ctx, student)
		s.NoError(err, "retain policy keeps the profile")
	})

	s.Run("rejected student resubmits and is approved", func() {
		_, err := s.service.Submit(s.ctx, student, s.studentRequest(s.institution.ID))
		s.Require().NoError(err)
		a, err := s.service.Review(s.ctx, admin, student, models.DecisionApproved, nil)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, a.Status)
		s.Nil(a.Feedback)
	})

	s.Run("second review conflicts with the current status", func() {
		_, err := s.service.Review(s.ctx, admin, student, models.DecisionRejected, nil)
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
		s.Equal("APPROVED", dErrors.CurrentStateOf(err))
	})
}

func (s *ServiceSuite) TestReviewNonStudentNeedsPlatformAdmin() {
	admin := s.approvedInstitutionAdmin("admin@iitm.test", s.institution.ID)
	rep := s.signIn("rep@acme.test")
	_, err := s.service.Submit(s.ctx, rep, &models.SubmitRequest{
		Role:           models.RoleCompanyRepresentative,
		OrganizationID: s.company.ID,
		Documents:      []models.Document{doc(models.KindCompanyID), doc(models.KindBusinessCard)},
	})
	s.Require().NoError(err)

	_, err = s.service.Review(s.ctx, admin, rep, models.DecisionApproved, nil)
	s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))

	_, err = s.service.Review(s.ctx, s.root, rep, models.Decision("MAYBE"), nil)
	s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))

	a, err := s.service.Review(s.ctx, s.root, rep, models.DecisionApproved, nil)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, a.Status)

	p, err := s.service.ResolvePrincipal(s.ctx, rep)
	s.Require().NoError(err)
	s.True(p.ApprovedMemberOf(models.RoleCompanyRepresentative, s.company.ID))
}

func (s *ServiceSuite) TestApproveRequiresUnambiguousEvidence() {
	admin := s.approvedInstitutionAdmin("admin@iitm.test", s.institution.ID)
	student := s.signIn("student@campus.test")
	res, err := s.service.Submit(s.ctx, student, s.studentRequest(s.institution.ID))
	s.Require().NoError(err)

	// A stray company document in the same batch makes the role ambiguous.
	s.Require().NoError(s.evidence.AppendBatch(s.ctx, []*models.Evidence{{
		ID: id.NewEvidenceID(), AccountID: student, SubmissionID: *res.Account.SubmissionID,
		Kind: models.KindCompanyID, URL: "https://blobs.test/x",
	}}))

	_, err = s.service.Review(s.ctx, admin, student, models.DecisionApproved, nil)
	s.Equal(dErrors.CodeAmbiguousRole, dErrors.CodeOf(err))

	a, err := s.accounts.FindByID(s.ctx, student)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, a.Status)

	_, err = s.service.Review(s.ctx, admin, student, models.DecisionRejected, nil)
	s.NoError(err, "rejection does not depend on inference")
}

func (s *ServiceSuite) TestRejectWithDeletePolicyRemovesProfile() {
	s.service = s.newService(RejectPolicyDelete)
	rep := s.signIn("officer@labour.test")
	_, err := s.service.Submit(s.ctx, rep, &models.SubmitRequest{
		Role:           models.RoleGovernmentRepresentative,
		OrganizationID: s.department.ID,
		Documents:      []models.Document{doc(models.KindGovernmentID), doc(models.KindDepartmentLetter)},
		Government:     &models.GovernmentDetails{DepartmentName: "Labour", Designation: "Deputy Secretary"},
	})
	s.Require().NoError(err)

	_, err = s.service.Review(s.ctx, s.root, rep, models.DecisionRejected, nil)
	s.Require().NoError(err)

	_, err = s.profiles.FindByAccount(s.ctx, rep)
	s.ErrorIs(err, sentinel.ErrNotFound)

	events, err := s.auditStore.ListByAccount(s.ctx, rep)
	s.Require().NoError(err)
	var actions []string
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	s.Contains(actions, string(audit.EventProfileRemoved))
	s.Equal(string(audit.EventVerificationRejected), actions[len(actions)-1])
}

func (s *ServiceSuite) TestInvalidRejectPolicy() {
	_, err := New(s.accounts, s.profiles, s.evidence, s.orgs, s.blobs, txcontext.NewMemoryTx(), WithRejectPolicy("archive"))
	s.Error(err)
}

func (s *ServiceSuite) TestListSubmissions() {
	admin := s.approvedInstitutionAdmin("admin@iitm.test", s.institution.ID)
	mine := s.signIn("mine@campus.test")
	theirs := s.signIn("theirs@campus.test")
	_, err := s.service.Submit(s.ctx, mine, s.studentRequest(s.institution.ID))
	s.Require().NoError(err)
	_, err = s.service.Submit(s.ctx, theirs, s.studentRequest(s.otherInst.ID))
	s.Require().NoError(err)
	pendingAdmin := s.signIn("pending@nitt.test")
	_, err = s.service.Submit(s.ctx, pendingAdmin, s.adminRequest(s.otherInst.ID))
	s.Require().NoError(err)

	s.Run("institution admin sees only own students", func() {
		views, err := s.service.ListSubmissions(s.ctx, admin, "", "")
		s.Require().NoError(err)
		s.Require().Len(views, 1)
		s.Equal(mine, views[0].Account.ID)
		s.Require().NotNil(views[0].Organization)
		s.Equal("IIT Madras", views[0].Organization.Name)
		s.Len(views[0].Evidence, 1)
	})

	s.Run("institution admin cannot list other roles", func() {
		_, err := s.service.ListSubmissions(s.ctx, admin, models.RoleCompanyRepresentative, "")
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("platform admin sees non-student roles", func() {
		views, err := s.service.ListSubmissions(s.ctx, s.root, "", models.StatusPending)
		s.Require().NoError(err)
		s.Require().Len(views, 1)
		s.Equal(pendingAdmin, views[0].Account.ID)
		s.Len(views[0].Evidence, 2)
	})

	s.Run("platform admin student filter is forbidden", func() {
		_, err := s.service.ListSubmissions(s.ctx, s.root, models.RoleStudent, "")
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("students are not reviewers", func() {
		_, err := s.service.ListSubmissions(s.ctx, mine, "", "")
		s.Equal(dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	s.Run("unknown status filter", func() {
		_, err := s.service.ListSubmissions(s.ctx, s.root, "", models.Status("LOST"))
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})
}

func (s *ServiceSuite) TestListSubmissionsKeepsRejectedStudentsUnderDeletePolicy() {
	s.service = s.newService(RejectPolicyDelete)
	admin := s.approvedInstitutionAdmin("admin@iitm.test", s.institution.ID)
	outsider := s.approvedInstitutionAdmin("admin@nitt.test", s.otherInst.ID)
	mine := s.signIn("mine@campus.test")
	theirs := s.signIn("theirs@campus.test")
	_, err := s.service.Submit(s.ctx, mine, s.studentRequest(s.institution.ID))
	s.Require().NoError(err)
	_, err = s.service.Submit(s.ctx, theirs, s.studentRequest(s.otherInst.ID))
	s.Require().NoError(err)
	_, err = s.service.Review(s.ctx, admin, mine, models.DecisionRejected, nil)
	s.Require().NoError(err)
	_, err = s.service.Review(s.ctx, outsider, theirs, models.DecisionRejected, nil)
	s.Require().NoError(err)

	views, err := s.service.ListSubmissions(s.ctx, admin, "", models.StatusRejected)
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.Equal(mine, views[0].Account.ID)
	s.Nil(views[0].Profile)
	s.Require().NotNil(views[0].Organization)
	s.Equal("IIT Madras", views[0].Organization.Name)

	views, err = s.service.ListSubmissions(s.ctx, outsider, models.RoleStudent, models.StatusRejected)
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.Equal(theirs, views[0].Account.ID)

	views, err = s.service.ListSubmissions(s.ctx, admin, "", "")
	s.Require().NoError(err)
	s.Empty(views)
}
