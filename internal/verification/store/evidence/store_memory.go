package evidence

import (
	"context"
	"slices"
	"sync"

	"campusgate/internal/verification/models"
	id "campusgate/pkg/domain"
	txcontext "campusgate/pkg/platform/tx"
)

// InMemory is an append-only evidence log.
type InMemory struct {
	mu   sync.RWMutex
	rows []models.Evidence
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) AppendBatch(ctx context.Context, batch []*models.Evidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := make(map[id.EvidenceID]bool, len(batch))
	for _, e := range batch {
		s.rows = append(s.rows, *e)
		added[e.ID] = true
	}
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.rows = slices.DeleteFunc(s.rows, func(e models.Evidence) bool { return added[e.ID] })
	})
	return nil
}

// ListBySubmission returns one submission's batch in insertion order.
func (s *InMemory) ListBySubmission(_ context.Context, accountID id.AccountID, submissionID id.SubmissionID) ([]*models.Evidence, error) {
	return s.filter(func(e *models.Evidence) bool {
		return e.AccountID == accountID && e.SubmissionID == submissionID
	}), nil
}

// ListByAccount returns every batch the account has submitted.
func (s *InMemory) ListByAccount(_ context.Context, accountID id.AccountID) ([]*models.Evidence, error) {
	return s.filter(func(e *models.Evidence) bool { return e.AccountID == accountID }), nil
}

func (s *InMemory) filter(keep func(*models.Evidence) bool) []*models.Evidence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Evidence
	for i := range s.rows {
		if keep(&s.rows[i]) {
			e := s.rows[i]
			out = append(out, &e)
		}
	}
	return out
}
