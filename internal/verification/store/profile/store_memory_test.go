package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"campusgate/internal/verification/models"
	id "campusgate/pkg/domain"
	"campusgate/pkg/platform/sentinel"
	txcontext "campusgate/pkg/platform/tx"
)

type ProfileStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestProfileStoreSuite(t *testing.T) {
	suite.Run(t, new(ProfileStoreSuite))
}

func (s *ProfileStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *ProfileStoreSuite) newStudent(accountID id.AccountID, orgID id.OrganizationID, enrollment string) *models.Profile {
	p, err := models.NewProfile(id.NewProfileID(), accountID, models.RoleStudent, orgID,
		&models.StudentDetails{Gender: "F", Department: "CSE", EnrollmentNumber: enrollment, GraduationYear: 2025},
		nil, time.Now())
	s.Require().NoError(err)
	return p
}

func (s *ProfileStoreSuite) TestUpsertKeepsProfileID() {
	accountID := id.NewAccountID()
	orgID := id.NewOrganizationID()
	first, err := s.store.Upsert(s.ctx, s.newStudent(accountID, orgID, "CS1"))
	s.Require().NoError(err)

	second, err := s.store.Upsert(s.ctx, s.newStudent(accountID, orgID, "CS2"))
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
	s.Equal("CS2", second.Student.EnrollmentNumber)

	byID, err := s.store.FindByID(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(accountID, byID.AccountID)
}

func (s *ProfileStoreSuite) TestDeleteAndCount() {
	orgID := id.NewOrganizationID()
	a, b := id.NewAccountID(), id.NewAccountID()
	_, err := s.store.Upsert(s.ctx, s.newStudent(a, orgID, "A"))
	s.Require().NoError(err)
	_, err = s.store.Upsert(s.ctx, s.newStudent(b, orgID, "B"))
	s.Require().NoError(err)

	n, err := s.store.CountByOrganization(s.ctx, orgID)
	s.Require().NoError(err)
	s.Equal(2, n)

	s.Require().NoError(s.store.DeleteByAccount(s.ctx, a))
	_, err = s.store.FindByAccount(s.ctx, a)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.DeleteByAccount(s.ctx, a), sentinel.ErrNotFound)

	n, err = s.store.CountByOrganization(s.ctx, orgID)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *ProfileStoreSuite) TestReturnedProfilesAreCopies() {
	accountID := id.NewAccountID()
	_, err := s.store.Upsert(s.ctx, s.newStudent(accountID, id.NewOrganizationID(), "CS9"))
	s.Require().NoError(err)

	p, err := s.store.FindByAccount(s.ctx, accountID)
	s.Require().NoError(err)
	p.Student.EnrollmentNumber = "changed"

	again, err := s.store.FindByAccount(s.ctx, accountID)
	s.Require().NoError(err)
	s.Equal("CS9", again.Student.EnrollmentNumber)
}

func (s *ProfileStoreSuite) TestFailedUnitOfWorkRestoresProfiles() {
	tx := txcontext.NewMemoryTx()
	orgID := id.NewOrganizationID()
	kept, added := id.NewAccountID(), id.NewAccountID()
	_, err := s.store.Upsert(s.ctx, s.newStudent(kept, orgID, "KEPT"))
	s.Require().NoError(err)
	boom := errors.New("audit append failed")

	err = tx.RunInTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.store.DeleteByAccount(ctx, kept))
		_, err := s.store.Upsert(ctx, s.newStudent(added, orgID, "ADDED"))
		s.Require().NoError(err)
		return boom
	})
	s.Require().ErrorIs(err, boom)

	restored, err := s.store.FindByAccount(s.ctx, kept)
	s.Require().NoError(err)
	s.Equal("KEPT", restored.Student.EnrollmentNumber)
	_, err = s.store.FindByAccount(s.ctx, added)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
