package mocks

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/store"
)

type memoryTasks struct {
	m *MemoryStore
}

var _ store.TaskStore = (*memoryTasks)(nil)

func (s *memoryTasks) Create(_ context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if s.m.CreateTaskFn != nil {
		if err := s.m.CreateTaskFn(task); err != nil {
			return err
		}
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.checkReferences(task); err != nil {
		return err
	}
	if _, exists := s.m.tasks[task.ID]; exists {
		return store.ErrDuplicate
	}
	s.m.tasks[task.ID] = copyTask(task)
	s.m.track(task.ID)
	return nil
}

func (s *memoryTasks) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return copyTask(t), nil
}

func (s *memoryTasks) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.GetByID(ctx, id)
}

func (s *memoryTasks) UpdateStatus(_ context.Context, task *domain.Task) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	t.Status = task.Status
	t.CompletionDate = copyTime(task.CompletionDate)
	t.UpdatedAt = task.UpdatedAt
	return nil
}

func (s *memoryTasks) MarkOverdue(_ context.Context, today time.Time, now time.Time) (int64, error) {
	if s.m.MarkOverdueFn != nil {
		if err := s.m.MarkOverdueFn(); err != nil {
			return 0, err
		}
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	day := domain.CivilDate(today)
	var n int64
	for _, t := range s.m.tasks {
		open := t.Status == domain.TaskStatusPending || t.Status == domain.TaskStatusInProgress
		if open && domain.CivilDate(t.DueDate).Before(day) {
			t.Status = domain.TaskStatusOverdue
			t.UpdatedAt = now.UTC()
			n++
		}
	}
	return n, nil
}

func (s *memoryTasks) ListDueOn(
	_ context.Context,
	day time.Time,
	exclude []domain.TaskStatus,
) ([]*domain.Task, error) {
	if s.m.ListDueOnFn != nil {
		if err := s.m.ListDueOnFn(); err != nil {
			return nil, err
		}
	}
	target := domain.CivilDate(day)
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.filterTasks(func(t *domain.Task) bool {
		if !domain.CivilDate(t.DueDate).Equal(target) {
			return false
		}
		for _, status := range exclude {
			if t.Status == status {
				return false
			}
		}
		return true
	}), nil
}

func (s *memoryTasks) ListByOriginRule(_ context.Context, ruleID uuid.UUID) ([]*domain.Task, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	tasks := s.m.filterTasks(func(t *domain.Task) bool {
		return t.OriginRuleID != nil && *t.OriginRuleID == ruleID
	})
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].DueDate.After(tasks[j].DueDate) })
	return tasks, nil
}
