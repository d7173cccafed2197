package conversation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/antoniostano/remedi/internal/i18n"
	"github.com/antoniostano/remedi/internal/parse"
	"github.com/antoniostano/remedi/internal/reminder"
)

func testManager(t *testing.T, opts ...Option) (*Manager, *reminder.InMemoryStore) {
	t.Helper()
	extractor := &parse.Extractor{Now: func() time.Time {
		return time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	}}
	parser := parse.NewService(nil, extractor, nil, nil)
	store := reminder.NewInMemoryStore()
	return NewManager(parser, store, i18n.NewBundle(), nil, opts...), store
}

func TestStartCreatesIdleContext(t *testing.T) {
	m, _ := testManager(t)
	c := m.Start("u1", "en")
	if c.ID == "" {
		t.Fatalf("conversation ID should not be empty")
	}
	if c.State != StateIdle {
		t.Fatalf("State = %q, want %q", c.State, StateIdle)
	}

	got, err := m.Get(c.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserID != "u1" || got.Language != "en" {
		t.Fatalf("unexpected context: %+v", got)
	}
}

func TestStartUnsupportedLanguageFallsBack(t *testing.T) {
	m, _ := testManager(t)
	c := m.Start("u1", "xx")
	if c.Language != i18n.DefaultLanguage {
		t.Fatalf("Language = %q, want %q", c.Language, i18n.DefaultLanguage)
	}
}

func TestProcessInputAsksOneQuestion(t *testing.T) {
	m, _ := testManager(t)
	c := m.Start("u1", "en")

	reply, err := m.ProcessInput(context.Background(), c.ID, "remind me to take aspirin")
	if err != nil {
		t.Fatalf("ProcessInput() error = %v", err)
	}
	if reply.Action != ActionAskQuestion {
		t.Fatalf("Action = %q, want %q", reply.Action, ActionAskQuestion)
	}
	if reply.State != StateCollecting {
		t.Fatalf("State = %q, want %q", reply.State, StateCollecting)
	}
	if len(reply.Missing) != 1 || reply.Missing[0] != parse.FieldTime {
		t.Fatalf("Missing = %v, want [time]", reply.Missing)
	}
	if !strings.Contains(reply.Message, "Aspirin") {
		t.Fatalf("question should mention the collected medicine: %q", reply.Message)
	}
}

func TestProcessInputMergesAcrossTurns(t *testing.T) {
	m, _ := testManager(t)
	c := m.Start("u1", "en")

	if _, err := m.ProcessInput(context.Background(), c.ID, "remind me to take aspirin"); err != nil {
		t.Fatalf("ProcessInput() error = %v", err)
	}
	reply, err := m.ProcessInput(context.Background(), c.ID, "at 9 am")
	if err != nil {
		t.Fatalf("ProcessInput() error = %v", err)
	}
	if reply.Action != ActionConfirm {
		t.Fatalf("Action = %q, want %q", reply.Action, ActionConfirm)
	}
	if reply.State != StateConfirming {
		t.Fatalf("State = %q, want %q", reply.State, StateConfirming)
	}
	if reply.Collected.Medicine != "Aspirin" || reply.Collected.Time != "9:00 AM" {
		t.Fatalf("merge lost fields: %+v", reply.Collected)
	}
	// Optional fields default once the required ones are in.
	if reply.Collected.Frequency != reminder.FreqDaily || reply.Collected.Dosage != reminder.DefaultDosage {
		t.Fatalf("defaults missing: %+v", reply.Collected)
	}
}

func TestProcessInputTimesOutAfterMaxAttempts(t *testing.T) {
	m, _ := testManager(t, WithMaxAttempts(2))
	c := m.Start("u1", "en")

	if _, err := m.ProcessInput(context.Background(), c.ID, "hello there"); err != nil {
		t.Fatalf("ProcessInput() error = %v", err)
	}
	reply, err := m.ProcessInput(context.Background(), c.ID, "how are you")
	if err != nil {
		t.Fatalf("ProcessInput() error = %v", err)
	}
	if reply.Action != ActionTimeout {
		t.Fatalf("Action = %q, want %q", reply.Action, ActionTimeout)
	}
	if reply.State != StateError {
		t.Fatalf("State = %q, want %q", reply.State, StateError)
	}
}

func TestConfirmAcceptSavesReminder(t *testing.T) {
	m, store := testManager(t)
	c := m.Start("u1", "en")

	if _, err := m.ProcessInput(context.Background(), c.ID, "take aspirin 100mg at 9 am"); err != nil {
		t.Fatalf("ProcessInput() error = %v", err)
	}
	reply, err := m.Confirm(context.Background(), c.ID, true)
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if reply.Action != ActionSaveReminder || reply.State != StateCompleted {
		t.Fatalf("unexpected reply: action=%q state=%q", reply.Action, reply.State)
	}
	if reply.Reminder == nil || reply.Reminder.Medicine != "Aspirin" {
		t.Fatalf("saved reminder missing from reply: %+v", reply.Reminder)
	}

	saved, err := store.ListReminders(context.Background())
	if err != nil {
		t.Fatalf("ListReminders() error = %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("saved reminders = %d, want 1", len(saved))
	}
	if saved[0].Status != reminder.StatusActive || saved[0].Dosage != "100mg" {
		t.Fatalf("unexpected saved reminder: %+v", saved[0])
	}
}

func TestConfirmDuplicateIsNoOp(t *testing.T) {
	m, store := testManager(t)
	c := m.Start("u1", "en")

	if _, err := m.ProcessInput(context.Background(), c.ID, "take aspirin at 9 am"); err != nil {
		t.Fatalf("ProcessInput() error = %v", err)
	}
	if _, err := m.Confirm(context.Background(), c.ID, true); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	reply, err := m.Confirm(context.Background(), c.ID, true)
	if err != nil {
		t.Fatalf("duplicate Confirm() error = %v", err)
	}
	if reply.Action != ActionSaveReminder {
		t.Fatalf("duplicate confirm action = %q, want %q", reply.Action, ActionSaveReminder)
	}

	saved, _ := store.ListReminders(context.Background())
	if len(saved) != 1 {
		t.Fatalf("saved reminders = %d, want 1 after duplicate confirm", len(saved))
	}
}

func TestConfirmDeclineRestarts(t *testing.T) {
	m, store := testManager(t)
	c := m.Start("u1", "en")

	if _, err := m.ProcessInput(context.Background(), c.ID, "take aspirin at 9 am"); err != nil {
		t.Fatalf("ProcessInput() error = %v", err)
	}
	reply, err := m.Confirm(context.Background(), c.ID, false)
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if reply.Action != ActionRestart || reply.State != StateIdle {
		t.Fatalf("unexpected reply: action=%q state=%q", reply.Action, reply.State)
	}

	got, err := m.Get(c.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Collected.Medicine != "" || got.Attempts != 0 {
		t.Fatalf("decline should clear collected state: %+v", got)
	}

	saved, _ := store.ListReminders(context.Background())
	if len(saved) != 0 {
		t.Fatalf("declined confirmation saved a reminder")
	}
}

func TestProcessInputUnknownConversation(t *testing.T) {
	m, _ := testManager(t)
	if _, err := m.ProcessInput(context.Background(), "nope", "hi"); err != ErrNotFound {
		t.Fatalf("ProcessInput() error = %v, want ErrNotFound", err)
	}
	if _, err := m.Confirm(context.Background(), "nope", true); err != ErrNotFound {
		t.Fatalf("Confirm() error = %v, want ErrNotFound", err)
	}
}

func TestJanitorExpiresStaleContexts(t *testing.T) {
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	m, _ := testManager(t, WithMaxAge(10*time.Minute), WithClock(func() time.Time { return now }))
	c := m.Start("u1", "en")

	now = now.Add(11 * time.Minute)
	m.expireStale()

	if _, err := m.Get(c.ID); err != ErrNotFound {
		t.Fatalf("Get() error = %v, want ErrNotFound after expiry", err)
	}
	if m.ActiveCount() != 0 {
		t.Fatalf("ActiveCount() = %d, want 0", m.ActiveCount())
	}
}

func TestEventHookMayReenterManager(t *testing.T) {
	m, _ := testManager(t)

	// The production hook calls ActiveCount, which takes the manager
	// lock; hooks must therefore never run under it.
	var events []string
	m.SetEventHook(func(event string) {
		events = append(events, event)
		_ = m.ActiveCount()
	})

	c := m.Start("u1", "en")
	if _, err := m.ProcessInput(context.Background(), c.ID, "remind me to take aspirin"); err != nil {
		t.Fatalf("ProcessInput() error = %v", err)
	}
	if _, err := m.ProcessInput(context.Background(), c.ID, "at 9 am"); err != nil {
		t.Fatalf("ProcessInput() error = %v", err)
	}
	if _, err := m.Confirm(context.Background(), c.ID, true); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	want := []string{"started", "question", "confirming", "saved"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

func TestEndRemovesContext(t *testing.T) {
	m, _ := testManager(t)
	c := m.Start("u1", "en")
	m.End(c.ID)
	if _, err := m.Get(c.ID); err != ErrNotFound {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}
