package notify

import (
	"context"
	"time"
)

// Alert carries everything a caregiver needs to know about a missed dose.
type Alert struct {
	CaregiverEmail string
	CaregiverName  string
	PatientName    string
	MedicineName   string
	Dosage         string
	ScheduledTime  string
	MissedDate     time.Time
}

// Delivery is a confirmed caregiver notification.
type Delivery struct {
	Success   bool
	MessageID string
}

// CaregiverNotifier delivers missed-dose alerts to caregivers.
type CaregiverNotifier interface {
	SendMissedDoseAlert(ctx context.Context, alert Alert) (Delivery, error)
}

// LocalNotifier pushes user-facing notifications to the device. Delivery
// is fire-and-forget; no confirmation is available.
type LocalNotifier interface {
	SendNow(title, body string, data map[string]string)
}
