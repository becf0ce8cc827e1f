//go:build integration

package account_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"campusgate/internal/verification/models"
	"campusgate/internal/verification/store/account"
	id "campusgate/pkg/domain"
	dErrors "campusgate/pkg/domain-errors"
	"campusgate/pkg/platform/sentinel"
	"campusgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *account.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = account.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "placements", "evidence", "role_profiles", "accounts", "organizations", "outbox")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newAccount(email string) *models.Account {
	a, err := models.NewAccount(id.NewAccountID(), email, "Test", time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return a
}

func (s *PostgresStoreSuite) TestCaseInsensitiveEmail() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newAccount("mixed@campus.edu")))

	err := s.store.Create(ctx, s.newAccount("MIXED@campus.edu"))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	found, err := s.store.FindByEmail(ctx, "Mixed@Campus.edu")
	s.Require().NoError(err)
	s.Equal("mixed@campus.edu", found.Email)
}

func (s *PostgresStoreSuite) TestExecuteRoundTrip() {
	ctx := context.Background()
	a := s.newAccount("round@campus.edu")
	s.Require().NoError(s.store.Create(ctx, a))

	now := time.Now().UTC().Truncate(time.Microsecond)
	submissionID := id.NewSubmissionID()
	orgID := id.NewOrganizationID()
	_, err := s.store.Execute(ctx, a.ID,
		func(a *models.Account) error { return a.CanSubmit() },
		func(a *models.Account) { a.ApplySubmission(models.RoleInstitutionAdmin, orgID, submissionID, now) },
	)
	s.Require().NoError(err)

	feedback := "letter unsigned"
	reviewer := id.NewAccountID()
	_, err = s.store.Execute(ctx, a.ID,
		func(a *models.Account) error { return a.CanReview() },
		func(a *models.Account) { a.ApplyDecision(models.DecisionRejected, &feedback, reviewer, now) },
	)
	s.Require().NoError(err)

	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, found.Status)
	s.Equal(models.RoleInstitutionAdmin, found.Role)
	s.Require().NotNil(found.Feedback)
	s.Equal(feedback, *found.Feedback)
	s.Require().NotNil(found.SubmissionID)
	s.Equal(submissionID, *found.SubmissionID)
	s.Require().NotNil(found.OrganizationID)
	s.Equal(orgID, *found.OrganizationID)
	s.Require().NotNil(found.ReviewedBy)
	s.Equal(reviewer, *found.ReviewedBy)
}

// Two reviewers deciding at once must produce exactly one transition.
func (s *PostgresStoreSuite) TestConcurrentReviewSingleWinner() {
	ctx := context.Background()
	a := s.newAccount("review-race@campus.edu")
	s.Require().NoError(s.store.Create(ctx, a))
	_, err := s.store.Execute(ctx, a.ID, func(*models.Account) error { return nil },
		func(a *models.Account) { a.ApplySubmission(models.RoleStudent, id.NewOrganizationID(), id.NewSubmissionID(), time.Now()) })
	s.Require().NoError(err)

	const goroutines = 10
	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32
	decisions := []models.Decision{models.DecisionApproved, models.DecisionRejected}
	for i := range goroutines {
		wg.Add(1)
		go func(decision models.Decision) {
			defer wg.Done()
			_, err := s.store.Execute(ctx, a.ID,
				func(a *models.Account) error { return a.CanReview() },
				func(a *models.Account) { a.ApplyDecision(decision, nil, id.NewAccountID(), time.Now()) },
			)
			if err == nil {
				wins.Add(1)
			} else if dErrors.HasCode(err, dErrors.CodeConflict) {
				conflicts.Add(1)
			}
		}(decisions[i%2])
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *PostgresStoreSuite) TestListByStatus() {
	ctx := context.Background()
	a := s.newAccount("pending@acme.example")
	s.Require().NoError(s.store.Create(ctx, a))
	_, err := s.store.Execute(ctx, a.ID, func(*models.Account) error { return nil },
		func(a *models.Account) {
			a.ApplySubmission(models.RoleCompanyRepresentative, id.NewOrganizationID(), id.NewSubmissionID(), time.Now())
		})
	s.Require().NoError(err)

	got, err := s.store.ListByStatus(ctx, models.StatusPending, []models.Role{models.RoleCompanyRepresentative}, id.OrganizationID{})
	s.Require().NoError(err)
	s.Len(got, 1)

	got, err = s.store.ListByStatus(ctx, models.StatusPending, []models.Role{models.RoleStudent}, id.OrganizationID{})
	s.Require().NoError(err)
	s.Empty(got)
}

// A rejected student stays listed under the institution it applied to.
func (s *PostgresStoreSuite) TestListByStatusFiltersByOrganization() {
	ctx := context.Background()
	institution, other := id.NewOrganizationID(), id.NewOrganizationID()
	mine := s.newAccount("mine@campus.edu")
	theirs := s.newAccount("theirs@campus.edu")
	for _, pair := range []struct {
		account *models.Account
		org     id.OrganizationID
	}{{mine, institution}, {theirs, other}} {
		s.Require().NoError(s.store.Create(ctx, pair.account))
		_, err := s.store.Execute(ctx, pair.account.ID, func(*models.Account) error { return nil },
			func(a *models.Account) {
				a.ApplySubmission(models.RoleStudent, pair.org, id.NewSubmissionID(), time.Now())
				a.ApplyDecision(models.DecisionRejected, nil, id.NewAccountID(), time.Now())
			})
		s.Require().NoError(err)
	}

	got, err := s.store.ListByStatus(ctx, models.StatusRejected, []models.Role{models.RoleStudent}, institution)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(mine.ID, got[0].ID)

	got, err = s.store.ListByStatus(ctx, models.StatusRejected, []models.Role{models.RoleStudent}, id.OrganizationID{})
	s.Require().NoError(err)
	s.Len(got, 2)
}
