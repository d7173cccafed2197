package reminder

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryReminderCRUD(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	r := Reminder{ID: "r1", Medicine: "Aspirin", Time: "9:00 AM", Frequency: FreqDaily}
	if err := s.SaveReminder(ctx, r); err != nil {
		t.Fatalf("SaveReminder() error = %v", err)
	}

	got, err := s.GetReminder(ctx, "r1")
	if err != nil {
		t.Fatalf("GetReminder() error = %v", err)
	}
	if got.Status != StatusActive {
		t.Fatalf("Status = %q, want default active", got.Status)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not defaulted")
	}

	newTime := "10:00 AM"
	paused := StatusPaused
	updated, err := s.UpdateReminder(ctx, "r1", Patch{Time: &newTime, Status: &paused})
	if err != nil {
		t.Fatalf("UpdateReminder() error = %v", err)
	}
	if updated.Time != "10:00 AM" || updated.Status != StatusPaused {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if updated.Medicine != "Aspirin" {
		t.Fatalf("patch cleared untouched field: %+v", updated)
	}

	if err := s.DeleteReminder(ctx, "r1"); err != nil {
		t.Fatalf("DeleteReminder() error = %v", err)
	}
	if _, err := s.GetReminder(ctx, "r1"); err != ErrNotFound {
		t.Fatalf("GetReminder() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteReminder(ctx, "r1"); err != ErrNotFound {
		t.Fatalf("DeleteReminder() twice error = %v, want ErrNotFound", err)
	}
}

func TestInMemoryHistoryFilters(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	day1 := time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	records := []HistoryRecord{
		{ReminderID: "r1", Medicine: "Aspirin", ScheduledTime: day1, Status: HistoryTaken},
		{ReminderID: "r1", Medicine: "Aspirin", ScheduledTime: day2, Status: HistoryMissed},
		{ReminderID: "r2", Medicine: "Metformin", ScheduledTime: day2, Status: HistoryTaken},
	}
	for _, rec := range records {
		if err := s.AppendHistory(ctx, rec); err != nil {
			t.Fatalf("AppendHistory() error = %v", err)
		}
	}

	forDay, err := s.HistoryForDay(ctx, "r1", "2026-08-24")
	if err != nil {
		t.Fatalf("HistoryForDay() error = %v", err)
	}
	if len(forDay) != 1 || forDay[0].Status != HistoryMissed {
		t.Fatalf("unexpected day history: %+v", forDay)
	}

	all, err := s.ListHistory(ctx, "r1", 10)
	if err != nil {
		t.Fatalf("ListHistory() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListHistory() = %d records, want 2", len(all))
	}
	// Newest first.
	if !all[0].ScheduledTime.Equal(day2) {
		t.Fatalf("ListHistory() not newest-first: %+v", all)
	}

	limited, _ := s.ListHistory(ctx, "", 2)
	if len(limited) != 2 {
		t.Fatalf("ListHistory(limit=2) = %d records, want 2", len(limited))
	}
}

func TestInMemoryHistoryDayKeyFollowsRecordLocation(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	// 00:30 on Aug 25 at UTC+2 is still Aug 24 in UTC; the day key must
	// come from the record's own location, not a converted instant.
	zone := time.FixedZone("UTC+2", 2*60*60)
	rec := HistoryRecord{
		ReminderID:    "r1",
		Medicine:      "Aspirin",
		ScheduledTime: time.Date(2026, 8, 25, 0, 30, 0, 0, zone),
		Status:        HistoryTaken,
	}
	if err := s.AppendHistory(ctx, rec); err != nil {
		t.Fatalf("AppendHistory() error = %v", err)
	}

	forDay, err := s.HistoryForDay(ctx, "r1", "2026-08-25")
	if err != nil {
		t.Fatalf("HistoryForDay() error = %v", err)
	}
	if len(forDay) != 1 {
		t.Fatalf("HistoryForDay(2026-08-25) = %d records, want 1", len(forDay))
	}
	if other, _ := s.HistoryForDay(ctx, "r1", "2026-08-24"); len(other) != 0 {
		t.Fatalf("HistoryForDay(2026-08-24) = %d records, want 0", len(other))
	}
}

func TestInMemoryFlagsAndAlertMarkers(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if v, _ := s.GetFlag(ctx, FlagCaretakerAlerts); v != "" {
		t.Fatalf("GetFlag() = %q, want empty default", v)
	}
	if err := s.SetFlag(ctx, FlagCaretakerAlerts, "true"); err != nil {
		t.Fatalf("SetFlag() error = %v", err)
	}
	if v, _ := s.GetFlag(ctx, FlagCaretakerAlerts); v != "true" {
		t.Fatalf("GetFlag() = %q, want true", v)
	}

	marked, _ := s.AlertMarked(ctx, "r1", "2026-08-24")
	if marked {
		t.Fatalf("AlertMarked() = true before MarkAlerted")
	}
	if err := s.MarkAlerted(ctx, "r1", "2026-08-24"); err != nil {
		t.Fatalf("MarkAlerted() error = %v", err)
	}
	marked, _ = s.AlertMarked(ctx, "r1", "2026-08-24")
	if !marked {
		t.Fatalf("AlertMarked() = false after MarkAlerted")
	}

	_ = s.MarkAlerted(ctx, "r2", "2026-08-10")
	pruned, err := s.PruneAlerts(ctx, "2026-08-17")
	if err != nil {
		t.Fatalf("PruneAlerts() error = %v", err)
	}
	if pruned != 1 {
		t.Fatalf("PruneAlerts() = %d, want 1", pruned)
	}
	if marked, _ = s.AlertMarked(ctx, "r1", "2026-08-24"); !marked {
		t.Fatalf("recent marker pruned")
	}
}

func TestInMemoryCaregivers(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.SaveCaregiver(ctx, Caregiver{Name: "Maria", Email: "maria@example.com", Active: true}); err != nil {
		t.Fatalf("SaveCaregiver() error = %v", err)
	}
	caregivers, err := s.ListCaregivers(ctx)
	if err != nil {
		t.Fatalf("ListCaregivers() error = %v", err)
	}
	if len(caregivers) != 1 || caregivers[0].ID == "" {
		t.Fatalf("unexpected caregivers: %+v", caregivers)
	}
}
