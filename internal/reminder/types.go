package reminder

import "time"

type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
)

// Canonical frequency values. "every N hours" and "N times daily" are
// produced dynamically by the parser and stored verbatim.
const (
	FreqOnce            = "once"
	FreqDaily           = "daily"
	FreqTwiceDaily      = "twice daily"
	FreqThreeTimesDaily = "three times daily"
	FreqFourTimesDaily  = "four times daily"
	FreqWeekly          = "weekly"
	FreqMonthly         = "monthly"
)

// DefaultDosage is the display value used when the user never specified one.
const DefaultDosage = "As prescribed"

// DayFormat is the calendar-day key used for one-time reminders and
// alert markers.
const DayFormat = "2006-01-02"

// Reminder is a user-configured medication schedule entry.
type Reminder struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id,omitempty"`
	Medicine   string     `json:"medicine"`
	Dosage     string     `json:"dosage,omitempty"`
	Time       string     `json:"time"`                  // 12-hour "H:MM AM/PM"
	Frequency  string     `json:"frequency"`             // see Freq* constants
	Date       string     `json:"date,omitempty"`        // set when Frequency == once
	DayOfWeek  string     `json:"day_of_week,omitempty"` // set when Frequency == weekly
	Status     Status     `json:"status"`
	LastMissed *time.Time `json:"last_missed,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type HistoryStatus string

const (
	HistoryTaken     HistoryStatus = "taken"
	HistoryMissed    HistoryStatus = "missed"
	HistoryLateTaken HistoryStatus = "late_taken"
)

// HistoryRecord is one dose event. Records are append-only and never
// updated after being written.
type HistoryRecord struct {
	ID            string        `json:"id"`
	ReminderID    string        `json:"reminder_id"`
	Medicine      string        `json:"medicine"`
	ScheduledTime time.Time     `json:"scheduled_time"`
	ActualTime    *time.Time    `json:"actual_time,omitempty"`
	Status        HistoryStatus `json:"status"`
	DelayMinutes  int           `json:"delay_minutes"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Caregiver is a contact alerted when a dose is missed.
type Caregiver struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

// Patch describes a partial reminder update. Nil fields are left unchanged.
type Patch struct {
	Medicine   *string
	Dosage     *string
	Time       *string
	Frequency  *string
	Date       *string
	DayOfWeek  *string
	Status     *Status
	LastMissed *time.Time
}

func (r Reminder) Clone() Reminder {
	out := r
	if r.LastMissed != nil {
		t := *r.LastMissed
		out.LastMissed = &t
	}
	return out
}
