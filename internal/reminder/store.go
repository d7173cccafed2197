package reminder

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("reminder not found")

// FlagCaretakerAlerts gates the missed-dose monitor. Anything other than
// the literal string "true" disables monitoring.
const FlagCaretakerAlerts = "caretaker_alerts_enabled"

// Store persists reminders, adherence history, caregivers, feature flags
// and alert markers. Single-operation atomicity only; no transactions are
// assumed by callers.
type Store interface {
	SaveReminder(ctx context.Context, r Reminder) error
	GetReminder(ctx context.Context, id string) (Reminder, error)
	ListReminders(ctx context.Context) ([]Reminder, error)
	UpdateReminder(ctx context.Context, id string, patch Patch) (Reminder, error)
	DeleteReminder(ctx context.Context, id string) error

	AppendHistory(ctx context.Context, rec HistoryRecord) error
	ListHistory(ctx context.Context, reminderID string, limit int) ([]HistoryRecord, error)
	// HistoryForDay keys records by the calendar date of ScheduledTime in
	// the location it was written with, matching how the monitor derives
	// its day strings from the wall clock.
	HistoryForDay(ctx context.Context, reminderID, day string) ([]HistoryRecord, error)

	ListCaregivers(ctx context.Context) ([]Caregiver, error)
	SaveCaregiver(ctx context.Context, c Caregiver) error

	GetFlag(ctx context.Context, name string) (string, error)
	SetFlag(ctx context.Context, name, value string) error

	AlertMarked(ctx context.Context, reminderID, day string) (bool, error)
	MarkAlerted(ctx context.Context, reminderID, day string) error
	PruneAlerts(ctx context.Context, beforeDay string) (int, error)

	Close() error
}
