package store

import (
	"context"
	"sort"
	"sync"

	"campusgate/internal/placement/models"
	id "campusgate/pkg/domain"
	"campusgate/pkg/platform/sentinel"
)

// InMemory keeps placements in process. Create enforces one live placement
// per student and company, like the partial unique index in Postgres.
type InMemory struct {
	mu         sync.RWMutex
	placements map[id.PlacementID]*models.Placement
}

func NewInMemory() *InMemory {
	return &InMemory{placements: make(map[id.PlacementID]*models.Placement)}
}

func (s *InMemory) Create(_ context.Context, p *models.Placement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.placements[p.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	for _, existing := range s.placements {
		if existing.IsLive() && existing.StudentProfileID == p.StudentProfileID && existing.CompanyID == p.CompanyID {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.placements[p.ID] = copyPlacement(p)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, placementID id.PlacementID) (*models.Placement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.placements[placementID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyPlacement(p), nil
}

func (s *InMemory) Execute(_ context.Context, placementID id.PlacementID, validate func(*models.Placement) error, mutate func(*models.Placement)) (*models.Placement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.placements[placementID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := copyPlacement(current)
	if err := validate(cp); err != nil {
		return nil, err
	}
	mutate(cp)
	s.placements[placementID] = cp
	return copyPlacement(cp), nil
}

func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Placement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(p *models.Placement) bool {
		return (filter.Status == "" || p.Status == filter.Status) &&
			(filter.InstitutionID.IsNil() || p.InstitutionID == filter.InstitutionID) &&
			(filter.CompanyID.IsNil() || p.CompanyID == filter.CompanyID)
	}), nil
}

// ListVerified returns VERIFIED placements only, whatever the filter says.
func (s *InMemory) ListVerified(_ context.Context, institutionID, companyID id.OrganizationID) ([]*models.Placement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(p *models.Placement) bool {
		return p.Status == models.StatusVerified &&
			(institutionID.IsNil() || p.InstitutionID == institutionID) &&
			(companyID.IsNil() || p.CompanyID == companyID)
	}), nil
}

func (s *InMemory) CountByOrganization(_ context.Context, orgID id.OrganizationID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.placements {
		if p.CompanyID == orgID || p.InstitutionID == orgID {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) filter(keep func(*models.Placement) bool) []*models.Placement {
	var out []*models.Placement
	for _, p := range s.placements {
		if keep(p) {
			out = append(out, copyPlacement(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func copyPlacement(p *models.Placement) *models.Placement {
	cp := *p
	if p.PackageCTC != nil {
		v := *p.PackageCTC
		cp.PackageCTC = &v
	}
	if p.VerifiedBy != nil {
		v := *p.VerifiedBy
		cp.VerifiedBy = &v
	}
	if p.DecidedAt != nil {
		v := *p.DecidedAt
		cp.DecidedAt = &v
	}
	return &cp
}
