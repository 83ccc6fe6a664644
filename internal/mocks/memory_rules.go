package mocks

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/store"
)

type memoryRules struct {
	m *MemoryStore
}

var _ store.RuleStore = (*memoryRules)(nil)

func (s *memoryRules) Create(_ context.Context, rule *domain.RecurrenceRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, exists := s.m.rules[rule.ID]; exists {
		return store.ErrDuplicate
	}
	s.m.rules[rule.ID] = copyRule(rule)
	s.m.track(rule.ID)
	return nil
}

func (s *memoryRules) GetByID(_ context.Context, id uuid.UUID) (*domain.RecurrenceRule, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.rules[id]
	if !ok {
		return nil, store.ErrRuleNotFound
	}
	return copyRule(r), nil
}

func (s *memoryRules) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.RecurrenceRule, error) {
	return s.GetByID(ctx, id)
}

func (s *memoryRules) ListEligible(_ context.Context, today time.Time) ([]*domain.RecurrenceRule, error) {
	if s.m.ListEligibleFn != nil {
		if err := s.m.ListEligibleFn(); err != nil {
			return nil, err
		}
	}
	day := domain.CivilDate(today)
	return s.filter(func(r *domain.RecurrenceRule) bool {
		if !r.Active || domain.CivilDate(r.StartDate).After(day) {
			return false
		}
		return r.EndDate == nil || !domain.CivilDate(*r.EndDate).Before(day)
	}), nil
}

func (s *memoryRules) List(_ context.Context, includeInactive bool) ([]*domain.RecurrenceRule, error) {
	return s.filter(func(r *domain.RecurrenceRule) bool {
		return includeInactive || r.Active
	}), nil
}

func (s *memoryRules) AdvanceWatermark(_ context.Context, id uuid.UUID, at time.Time) error {
	if s.m.AdvanceWatermarkFn != nil {
		if err := s.m.AdvanceWatermarkFn(id, at); err != nil {
			return err
		}
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.rules[id]
	if !ok {
		return store.ErrRuleNotFound
	}
	if r.LastGenerated != nil && at.Before(*r.LastGenerated) {
		return store.ErrWatermarkRegression
	}
	r.LastGenerated = &at
	r.UpdatedAt = at
	return nil
}

func (s *memoryRules) Update(_ context.Context, rule *domain.RecurrenceRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	current, ok := s.m.rules[rule.ID]
	if !ok {
		return store.ErrRuleNotFound
	}
	updated := copyRule(rule)
	updated.LastGenerated = current.LastGenerated
	updated.CreatedAt = current.CreatedAt
	s.m.rules[rule.ID] = updated
	return nil
}

func (s *memoryRules) Deactivate(_ context.Context, id uuid.UUID, now time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.rules[id]
	if !ok {
		return store.ErrRuleNotFound
	}
	r.Deactivate(now)
	return nil
}

func (s *memoryRules) filter(keep func(*domain.RecurrenceRule) bool) []*domain.RecurrenceRule {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []*domain.RecurrenceRule
	for _, r := range s.m.rules {
		if keep(r) {
			out = append(out, copyRule(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.m.order[out[i].ID] < s.m.order[out[j].ID] })
	return out
}
