package state

import (
	"context"
	"sync"
	"time"
)

// DefaultHappiness is the gauge value for a fresh deployment.
const DefaultHappiness = 100

// Service holds the process-scoped mutable state the fan-out layer depends
// on: the happiness gauge and the per-ticket last-staff-activity timestamps
// that drive the AI quiet window. Backings are injectable so a multi-instance
// deployment can share state through Redis instead of process memory.
type Service interface {
	Happiness(ctx context.Context) (int, error)
	// AdjustHappiness applies delta and clamps the gauge at zero.
	AdjustHappiness(ctx context.Context, delta int) (int, error)

	TouchStaffActivity(ctx context.Context, ticketID string, at time.Time) error
	StaffActiveWithin(ctx context.Context, ticketID string, window time.Duration) (bool, error)
	ClearStaffActivity(ctx context.Context, ticketID string) error
}

// memoryService keeps state in process memory. It resets on restart, which
// is the defined lifecycle for single-instance deployments.
type memoryService struct {
	mu            sync.Mutex
	happiness     int
	staffActivity map[string]time.Time
}

// NewMemoryService builds the in-memory backing.
func NewMemoryService() Service {
	return &memoryService{
		happiness:     DefaultHappiness,
		staffActivity: make(map[string]time.Time),
	}
}

func (s *memoryService) Happiness(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.happiness, nil
}

func (s *memoryService) AdjustHappiness(ctx context.Context, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.happiness += delta
	if s.happiness < 0 {
		s.happiness = 0
	}
	return s.happiness, nil
}

func (s *memoryService) TouchStaffActivity(ctx context.Context, ticketID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staffActivity[ticketID] = at
	return nil
}

func (s *memoryService) StaffActiveWithin(ctx context.Context, ticketID string, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.staffActivity[ticketID]
	if !ok {
		return false, nil
	}
	return time.Since(last) < window, nil
}

func (s *memoryService) ClearStaffActivity(ctx context.Context, ticketID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.staffActivity, ticketID)
	return nil
}
