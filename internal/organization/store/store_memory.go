package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"campusgate/internal/organization/models"
	id "campusgate/pkg/domain"
	"campusgate/pkg/platform/sentinel"
)

// InMemory is the organization registry used without Postgres.
type InMemory struct {
	mu   sync.RWMutex
	orgs map[id.OrganizationID]*models.Organization
}

func NewInMemory() *InMemory {
	return &InMemory{orgs: make(map[id.OrganizationID]*models.Organization)}
}

func nameKey(kind models.Kind, name string) string {
	return string(kind) + "\x00" + strings.ToLower(name)
}

// Create inserts org unless another organization of the same kind already
// has the name, compared case-insensitively.
func (s *InMemory) Create(_ context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := nameKey(org.Kind, org.Name)
	for _, existing := range s.orgs {
		if nameKey(existing.Kind, existing.Name) == key {
			return sentinel.ErrAlreadyUsed
		}
	}
	cp := *org
	s.orgs[org.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *org
	return &cp, nil
}

func (s *InMemory) FindByKindAndName(_ context.Context, kind models.Kind, name string) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := nameKey(kind, name)
	for _, org := range s.orgs {
		if nameKey(org.Kind, org.Name) == key {
			cp := *org
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// List filters by kind and status; zero values match everything. Results are
// ordered by name.
func (s *InMemory) List(_ context.Context, kind models.Kind, status models.Status) ([]*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Organization
	for _, org := range s.orgs {
		if kind != "" && org.Kind != kind {
			continue
		}
		if status != "" && org.Status != status {
			continue
		}
		cp := *org
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *InMemory) Execute(_ context.Context, orgID id.OrganizationID, validate func(*models.Organization) error, mutate func(*models.Organization)) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.orgs[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *current
	if err := validate(&cp); err != nil {
		return nil, err
	}
	mutate(&cp)
	s.orgs[orgID] = &cp
	out := cp
	return &out, nil
}

func (s *InMemory) Delete(_ context.Context, orgID id.OrganizationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[orgID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.orgs, orgID)
	return nil
}
