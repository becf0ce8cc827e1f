package profile

import (
	"context"
	"sync"

	"campusgate/internal/verification/models"
	id "campusgate/pkg/domain"
	"campusgate/pkg/platform/sentinel"
	txcontext "campusgate/pkg/platform/tx"
)

// InMemory keeps one profile per account.
type InMemory struct {
	mu        sync.RWMutex
	byAccount map[id.AccountID]*models.Profile
}

func NewInMemory() *InMemory {
	return &InMemory{byAccount: make(map[id.AccountID]*models.Profile)}
}

// Upsert stores p as the account's only profile. An existing profile keeps its
// id and creation time so references to it stay valid.
func (s *InMemory) Upsert(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := copyProfile(p)
	existing, ok := s.byAccount[p.AccountID]
	if ok {
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
	}
	s.byAccount[p.AccountID] = cp
	s.onRollback(ctx, p.AccountID, existing)
	return copyProfile(cp), nil
}

func (s *InMemory) FindByAccount(_ context.Context, accountID id.AccountID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byAccount[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyProfile(p), nil
}

func (s *InMemory) FindByID(_ context.Context, profileID id.ProfileID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.byAccount {
		if p.ID == profileID {
			return copyProfile(p), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) DeleteByAccount(ctx context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byAccount[accountID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byAccount, accountID)
	s.onRollback(ctx, accountID, existing)
	return nil
}

// onRollback restores previous, or removes the row when there was none, if
// the surrounding unit of work fails.
func (s *InMemory) onRollback(ctx context.Context, accountID id.AccountID, previous *models.Profile) {
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if previous == nil {
			delete(s.byAccount, accountID)
			return
		}
		s.byAccount[accountID] = previous
	})
}

func (s *InMemory) CountByOrganization(_ context.Context, orgID id.OrganizationID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.byAccount {
		if p.OrganizationID == orgID {
			n++
		}
	}
	return n, nil
}

func copyProfile(p *models.Profile) *models.Profile {
	cp := *p
	if p.Student != nil {
		d := *p.Student
		cp.Student = &d
	}
	if p.Government != nil {
		d := *p.Government
		cp.Government = &d
	}
	return &cp
}
