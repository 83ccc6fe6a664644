package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/store"
)

// MemoryStore keeps rules, tasks and reminders in maps.
type MemoryStore struct {
	// Failure injection. A non-nil error aborts the operation before it
	// changes anything.
	CreateTaskFn       func(task *domain.Task) error
	AdvanceWatermarkFn func(id uuid.UUID, at time.Time) error
	CreateReminderFn   func(reminder *domain.Reminder) error
	MarkOverdueFn      func() error
	ListEligibleFn     func() error
	ListDueOnFn        func() error

	// EnforceReferences makes task creation fail with store.ErrMissingReference
	// when a client, service or assignee is not registered through
	// AddClient, AddService or AddUser.
	EnforceReferences bool

	txMu sync.Mutex
	mu   sync.Mutex
	seq  int64

	rules     map[uuid.UUID]*domain.RecurrenceRule
	tasks     map[uuid.UUID]*domain.Task
	reminders map[uuid.UUID]*domain.Reminder
	order     map[uuid.UUID]int64

	clients  map[uuid.UUID]bool
	services map[uuid.UUID]bool
	users    map[uuid.UUID]bool

	commits   int
	rollbacks int
}

var _ store.Transactor = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rules:     make(map[uuid.UUID]*domain.RecurrenceRule),
		tasks:     make(map[uuid.UUID]*domain.Task),
		reminders: make(map[uuid.UUID]*domain.Reminder),
		order:     make(map[uuid.UUID]int64),
		clients:   make(map[uuid.UUID]bool),
		services:  make(map[uuid.UUID]bool),
		users:     make(map[uuid.UUID]bool),
	}
}

// Stores returns the store interfaces backed by m.
func (m *MemoryStore) Stores() store.Stores {
	return store.Stores{
		Rules:     &memoryRules{m: m},
		Tasks:     &memoryTasks{m: m},
		Reminders: &memoryReminders{m: m},
	}
}

// WithinTx implements store.Transactor. Transactions run one at a time; if
// fn fails, or panics, every change it made is undone.
func (m *MemoryStore) WithinTx(ctx context.Context, fn store.TxFunc) (err error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	defer func() {
		if p := recover(); p != nil {
			m.restore(snap)
			panic(p)
		}
	}()

	if err = fn(ctx, m.Stores()); err != nil {
		m.restore(snap)
		m.mu.Lock()
		m.rollbacks++
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.commits++
	m.mu.Unlock()
	return nil
}

// AddClient registers a client ID for reference checks.
func (m *MemoryStore) AddClient(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[id] = true
}

// AddService registers a service ID for reference checks.
func (m *MemoryStore) AddService(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[id] = true
}

// AddUser registers a user ID for reference checks.
func (m *MemoryStore) AddUser(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = true
}

// PutRule stores a copy of rule without validation.
func (m *MemoryStore) PutRule(rule *domain.RecurrenceRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[rule.ID] = copyRule(rule)
	m.track(rule.ID)
}

// PutTask stores a copy of task without validation.
func (m *MemoryStore) PutTask(task *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = copyTask(task)
	m.track(task.ID)
}

// PutReminder stores a copy of reminder without validation.
func (m *MemoryStore) PutReminder(reminder *domain.Reminder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := *reminder
	m.reminders[reminder.ID] = &r
	m.track(reminder.ID)
}

// Rule returns a copy of the stored rule, or nil.
func (m *MemoryStore) Rule(id uuid.UUID) *domain.RecurrenceRule {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rules[id]; ok {
		return copyRule(r)
	}
	return nil
}

// Task returns a copy of the stored task, or nil.
func (m *MemoryStore) Task(id uuid.UUID) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok {
		return copyTask(t)
	}
	return nil
}

// AllTasks returns copies of every task in insertion order.
func (m *MemoryStore) AllTasks() []*domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterTasks(func(*domain.Task) bool { return true })
}

// AllReminders returns copies of every reminder in insertion order.
func (m *MemoryStore) AllReminders() []*domain.Reminder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterReminders(func(*domain.Reminder) bool { return true })
}

// Commits returns how many transactions committed.
func (m *MemoryStore) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// Rollbacks returns how many transactions rolled back because fn failed.
func (m *MemoryStore) Rollbacks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rollbacks
}

type memorySnapshot struct {
	rules     map[uuid.UUID]*domain.RecurrenceRule
	tasks     map[uuid.UUID]*domain.Task
	reminders map[uuid.UUID]*domain.Reminder
}

func (m *MemoryStore) snapshot() memorySnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := memorySnapshot{
		rules:     make(map[uuid.UUID]*domain.RecurrenceRule, len(m.rules)),
		tasks:     make(map[uuid.UUID]*domain.Task, len(m.tasks)),
		reminders: make(map[uuid.UUID]*domain.Reminder, len(m.reminders)),
	}
	for id, r := range m.rules {
		snap.rules[id] = copyRule(r)
	}
	for id, t := range m.tasks {
		snap.tasks[id] = copyTask(t)
	}
	for id, r := range m.reminders {
		c := *r
		snap.reminders[id] = &c
	}
	return snap
}

func (m *MemoryStore) restore(snap memorySnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = snap.rules
	m.tasks = snap.tasks
	m.reminders = snap.reminders
}

// track records insertion order. Callers hold mu.
func (m *MemoryStore) track(id uuid.UUID) {
	if _, ok := m.order[id]; !ok {
		m.seq++
		m.order[id] = m.seq
	}
}

func (m *MemoryStore) filterTasks(keep func(*domain.Task) bool) []*domain.Task {
	var out []*domain.Task
	for _, t := range m.tasks {
		if keep(t) {
			out = append(out, copyTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] < m.order[out[j].ID] })
	return out
}

func (m *MemoryStore) filterReminders(keep func(*domain.Reminder) bool) []*domain.Reminder {
	var out []*domain.Reminder
	for _, r := range m.reminders {
		if keep(r) {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] < m.order[out[j].ID] })
	return out
}

func (m *MemoryStore) checkReferences(task *domain.Task) error {
	if !m.EnforceReferences {
		return nil
	}
	check := func(kind string, id *uuid.UUID, known map[uuid.UUID]bool) error {
		if id != nil && !known[*id] {
			return fmt.Errorf("%w: foreign key violation (tasks_%s_fkey)", store.ErrMissingReference, kind)
		}
		return nil
	}
	if err := check("client_id", task.ClientID, m.clients); err != nil {
		return err
	}
	if err := check("service_id", task.ServiceID, m.services); err != nil {
		return err
	}
	return check("assigned_to", task.AssignedTo, m.users)
}

func copyRule(r *domain.RecurrenceRule) *domain.RecurrenceRule {
	c := *r
	c.ClientID = copyUUID(r.ClientID)
	c.ServiceID = copyUUID(r.ServiceID)
	c.AssignedTo = copyUUID(r.AssignedTo)
	c.DayOfMonth = copyInt(r.DayOfMonth)
	c.DayOfWeek = copyInt(r.DayOfWeek)
	c.EndDate = copyTime(r.EndDate)
	c.LastGenerated = copyTime(r.LastGenerated)
	return &c
}

func copyTask(t *domain.Task) *domain.Task {
	c := *t
	c.ClientID = copyUUID(t.ClientID)
	c.ServiceID = copyUUID(t.ServiceID)
	c.AssignedTo = copyUUID(t.AssignedTo)
	c.OriginRuleID = copyUUID(t.OriginRuleID)
	c.CompletionDate = copyTime(t.CompletionDate)
	return &c
}

func copyUUID(v *uuid.UUID) *uuid.UUID {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
