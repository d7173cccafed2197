package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process store for local/dev use and tests.
type InMemoryStore struct {
	mu         sync.RWMutex
	reminders  map[string]Reminder
	history    []HistoryRecord
	caregivers map[string]Caregiver
	flags      map[string]string
	alerts     map[string]string // reminderID|day -> day
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		reminders:  make(map[string]Reminder),
		caregivers: make(map[string]Caregiver),
		flags:      make(map[string]string),
		alerts:     make(map[string]string),
	}
}

func (s *InMemoryStore) SaveReminder(_ context.Context, r Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = StatusActive
	}
	s.reminders[r.ID] = r.Clone()
	return nil
}

func (s *InMemoryStore) GetReminder(_ context.Context, id string) (Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reminders[id]
	if !ok {
		return Reminder{}, ErrNotFound
	}
	return r.Clone(), nil
}

func (s *InMemoryStore) ListReminders(_ context.Context) ([]Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (s *InMemoryStore) UpdateReminder(_ context.Context, id string, patch Patch) (Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[id]
	if !ok {
		return Reminder{}, ErrNotFound
	}
	applyPatch(&r, patch)
	s.reminders[id] = r
	return r.Clone(), nil
}

func (s *InMemoryStore) DeleteReminder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reminders[id]; !ok {
		return ErrNotFound
	}
	delete(s.reminders, id)
	return nil
}

func (s *InMemoryStore) AppendHistory(_ context.Context, rec HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.history = append(s.history, rec)
	return nil
}

func (s *InMemoryStore) ListHistory(_ context.Context, reminderID string, limit int) ([]HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []HistoryRecord
	for i := len(s.history) - 1; i >= 0; i-- {
		rec := s.history[i]
		if reminderID != "" && rec.ReminderID != reminderID {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) HistoryForDay(_ context.Context, reminderID, day string) ([]HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []HistoryRecord
	for _, rec := range s.history {
		if rec.ReminderID != reminderID {
			continue
		}
		if rec.ScheduledTime.Format(DayFormat) != day {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *InMemoryStore) ListCaregivers(_ context.Context) ([]Caregiver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Caregiver, 0, len(s.caregivers))
	for _, c := range s.caregivers {
		out = append(out, c)
	}
	return out, nil
}

func (s *InMemoryStore) SaveCaregiver(_ context.Context, c Caregiver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.caregivers[c.ID] = c
	return nil
}

func (s *InMemoryStore) GetFlag(_ context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[name], nil
}

func (s *InMemoryStore) SetFlag(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[name] = value
	return nil
}

func (s *InMemoryStore) AlertMarked(_ context.Context, reminderID, day string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.alerts[reminderID+"|"+day]
	return ok, nil
}

func (s *InMemoryStore) MarkAlerted(_ context.Context, reminderID, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts[reminderID+"|"+day] = day
	return nil
}

func (s *InMemoryStore) PruneAlerts(_ context.Context, beforeDay string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for key, day := range s.alerts {
		if day < beforeDay {
			delete(s.alerts, key)
			pruned++
		}
	}
	return pruned, nil
}

func (s *InMemoryStore) Close() error { return nil }

func applyPatch(r *Reminder, patch Patch) {
	if patch.Medicine != nil {
		r.Medicine = *patch.Medicine
	}
	if patch.Dosage != nil {
		r.Dosage = *patch.Dosage
	}
	if patch.Time != nil {
		r.Time = *patch.Time
	}
	if patch.Frequency != nil {
		r.Frequency = *patch.Frequency
	}
	if patch.Date != nil {
		r.Date = *patch.Date
	}
	if patch.DayOfWeek != nil {
		r.DayOfWeek = *patch.DayOfWeek
	}
	if patch.Status != nil {
		r.Status = *patch.Status
	}
	if patch.LastMissed != nil {
		t := *patch.LastMissed
		r.LastMissed = &t
	}
}
