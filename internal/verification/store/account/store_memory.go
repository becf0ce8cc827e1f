package account

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"campusgate/internal/verification/models"
	id "campusgate/pkg/domain"
	"campusgate/pkg/platform/sentinel"
	txcontext "campusgate/pkg/platform/tx"
)

// InMemory is a mutex-guarded account ledger. Returned accounts are copies.
// Writes made inside a txcontext.MemoryTx unit of work are undone when it fails.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[id.AccountID]*models.Account
	byEmail  map[string]id.AccountID
}

func NewInMemory() *InMemory {
	return &InMemory{
		accounts: make(map[id.AccountID]*models.Account),
		byEmail:  make(map[string]id.AccountID),
	}
}

func (s *InMemory) Create(ctx context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(a.Email)
	if _, ok := s.accounts[a.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if _, ok := s.byEmail[email]; ok {
		return sentinel.ErrAlreadyUsed
	}
	cp := *a
	s.accounts[a.ID] = &cp
	s.byEmail[email] = a.ID
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.accounts, a.ID)
		delete(s.byEmail, email)
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, accountID id.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accountID, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.accounts[accountID]
	return &cp, nil
}

// Execute runs validate and mutate on a copy while holding the write lock and
// stores the copy only when validate passes.
func (s *InMemory) Execute(ctx context.Context, accountID id.AccountID, validate func(*models.Account) error, mutate func(*models.Account)) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *current
	if err := validate(&cp); err != nil {
		return nil, err
	}
	mutate(&cp)
	s.accounts[accountID] = &cp
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.accounts[accountID] = current
	})
	out := cp
	return &out, nil
}

// ListByStatus returns accounts in status whose role is in roles, oldest
// submission first. A non-nil organizationID keeps only accounts whose current
// submission declared it.
func (s *InMemory) ListByStatus(_ context.Context, status models.Status, roles []models.Role, organizationID id.OrganizationID) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Account
	for _, a := range s.accounts {
		if a.Status != status || !slices.Contains(roles, a.Role) {
			continue
		}
		if !organizationID.IsNil() && !a.BelongsTo(organizationID) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return submittedBefore(out[i], out[j])
	})
	return out, nil
}

func submittedBefore(a, b *models.Account) bool {
	switch {
	case a.SubmittedAt == nil && b.SubmittedAt == nil:
		return a.CreatedAt.Before(b.CreatedAt)
	case a.SubmittedAt == nil:
		return false
	case b.SubmittedAt == nil:
		return true
	}
	return a.SubmittedAt.Before(*b.SubmittedAt)
}
