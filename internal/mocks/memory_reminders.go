package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/store"
)

type memoryReminders struct {
	m *MemoryStore
}

var _ store.ReminderStore = (*memoryReminders)(nil)

func (s *memoryReminders) Create(_ context.Context, reminder *domain.Reminder) error {
	if err := reminder.Validate(); err != nil {
		return err
	}
	if s.m.CreateReminderFn != nil {
		if err := s.m.CreateReminderFn(reminder); err != nil {
			return err
		}
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, exists := s.m.reminders[reminder.ID]; exists {
		return store.ErrDuplicate
	}
	r := *reminder
	s.m.reminders[r.ID] = &r
	s.m.track(r.ID)
	return nil
}

func (s *memoryReminders) ExistsForTask(
	_ context.Context,
	taskID uuid.UUID,
	reminderType domain.ReminderType,
	from, to time.Time,
) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, r := range s.m.reminders {
		if r.TaskID == nil || *r.TaskID != taskID || r.Type != reminderType {
			continue
		}
		if !r.ReminderDate.Before(from) && r.ReminderDate.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryReminders) ListByTask(_ context.Context, taskID uuid.UUID) ([]*domain.Reminder, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.filterReminders(func(r *domain.Reminder) bool {
		return r.TaskID != nil && *r.TaskID == taskID
	}), nil
}
