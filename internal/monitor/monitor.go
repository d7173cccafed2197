// Package monitor implements the missed-dose poll: a recurring check
// that detects overdue doses, records them in the adherence history and
// alerts caregivers at most once per reminder per day.
package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/antoniostano/remedi/internal/i18n"
	"github.com/antoniostano/remedi/internal/notify"
	"github.com/antoniostano/remedi/internal/observability"
	"github.com/antoniostano/remedi/internal/reminder"
)

const (
	defaultInterval     = 60 * time.Second
	defaultGraceMinutes = 5
	defaultStaleMinutes = 24 * 60
	markerRetentionDays = 7
	deliveryTimeout     = 30 * time.Second
)

type Config struct {
	Interval     time.Duration
	GraceMinutes int
	StaleMinutes int
	PatientName  string
	Language     string
}

type Monitor struct {
	store      reminder.Store
	caregivers notify.CaregiverNotifier
	local      notify.LocalNotifier
	bundle     *i18n.Bundle
	metrics    *observability.Metrics
	logger     *zap.Logger

	interval     time.Duration
	graceMinutes int
	staleMinutes int
	patientName  string
	language     string

	now func() time.Time

	// cycleBusy serializes cycles: a tick arriving while the previous
	// cycle is still flushing slow persistence is skipped, not queued.
	cycleBusy atomic.Bool

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

func New(store reminder.Store, caregivers notify.CaregiverNotifier, local notify.LocalNotifier, bundle *i18n.Bundle, metrics *observability.Metrics, logger *zap.Logger, cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.GraceMinutes <= 0 {
		cfg.GraceMinutes = defaultGraceMinutes
	}
	if cfg.StaleMinutes <= 0 {
		cfg.StaleMinutes = defaultStaleMinutes
	}
	if cfg.Language == "" {
		cfg.Language = i18n.DefaultLanguage
	}
	if bundle == nil {
		bundle = i18n.NewBundle()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		store:        store,
		caregivers:   caregivers,
		local:        local,
		bundle:       bundle,
		metrics:      metrics,
		logger:       logger,
		interval:     cfg.Interval,
		graceMinutes: cfg.GraceMinutes,
		staleMinutes: cfg.StaleMinutes,
		patientName:  cfg.PatientName,
		language:     cfg.Language,
		now:          time.Now,
		done:         make(chan struct{}),
	}
}

// SetClock overrides the wall clock; used by tests.
func (m *Monitor) SetClock(now func() time.Time) {
	m.now = now
}

// Start launches the recurring check with an immediate first run.
func (m *Monitor) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		m.cancel = cancel
		go m.loop(runCtx)
	})
}

// Stop cancels the recurring task. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		if m.cancel == nil {
			return
		}
		m.cancel()
		<-m.done
	})
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	m.RunCycle(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.RunCycle(ctx)
		}
	}
}

// RunCycle executes one monitor pass. Overlapping invocations are
// rejected so slow persistence cannot stack cycles.
func (m *Monitor) RunCycle(ctx context.Context) {
	if !m.cycleBusy.CompareAndSwap(false, true) {
		m.logger.Warn("monitor cycle still running, skipping tick")
		return
	}
	defer m.cycleBusy.Store(false)

	started := m.now()

	// Fail closed: anything other than the literal "true" disables
	// caregiver monitoring for this cycle.
	flag, err := m.store.GetFlag(ctx, reminder.FlagCaretakerAlerts)
	if err != nil {
		m.logger.Error("monitor flag read failed", zap.Error(err))
		return
	}
	if flag != "true" {
		return
	}

	today := started.Format(reminder.DayFormat)
	cutoff := started.AddDate(0, 0, -markerRetentionDays).Format(reminder.DayFormat)
	if pruned, err := m.store.PruneAlerts(ctx, cutoff); err != nil {
		m.logger.Warn("alert marker prune failed", zap.Error(err))
	} else if pruned > 0 {
		m.logger.Debug("pruned alert markers", zap.Int("count", pruned))
	}

	reminders, err := m.store.ListReminders(ctx)
	if err != nil {
		m.logger.Error("monitor reminder list failed", zap.Error(err))
		return
	}
	caregivers, err := m.store.ListCaregivers(ctx)
	if err != nil {
		m.logger.Error("monitor caregiver list failed", zap.Error(err))
		return
	}

	for _, r := range reminders {
		if r.Status != reminder.StatusActive {
			continue
		}
		m.checkReminder(ctx, r, caregivers, started, today)
	}

	if m.metrics != nil {
		m.metrics.MonitorCycles.Inc()
		m.metrics.ObserveStage("monitor_cycle", float64(m.now().Sub(started).Milliseconds()))
	}
}

func (m *Monitor) checkReminder(ctx context.Context, r reminder.Reminder, caregivers []reminder.Caregiver, now time.Time, today string) {
	// One-time reminders are bound to their calendar date; without the
	// filter they would re-fire every day after the first.
	if r.Frequency == reminder.FreqOnce && r.Date != "" && r.Date != today {
		return
	}

	scheduled, err := reminder.At(now, r.Time)
	if err != nil {
		m.logger.Warn("unparseable reminder time",
			zap.String("reminder_id", r.ID),
			zap.String("time", r.Time))
		return
	}

	elapsed := now.Sub(scheduled).Minutes()
	if elapsed <= float64(m.graceMinutes) || elapsed >= float64(m.staleMinutes) {
		return
	}

	history, err := m.store.HistoryForDay(ctx, r.ID, today)
	if err != nil {
		m.logger.Error("monitor history lookup failed",
			zap.String("reminder_id", r.ID), zap.Error(err))
		return
	}
	// A cycle that recorded the miss but failed to reach any caregiver
	// leaves the alert marker unset; the retry must not duplicate the
	// history record.
	recorded := false
	for _, rec := range history {
		if rec.Status == reminder.HistoryTaken || rec.Status == reminder.HistoryLateTaken {
			return
		}
		if rec.Status == reminder.HistoryMissed {
			recorded = true
		}
	}

	marked, err := m.store.AlertMarked(ctx, r.ID, today)
	if err != nil {
		m.logger.Error("monitor alert marker lookup failed",
			zap.String("reminder_id", r.ID), zap.Error(err))
		return
	}
	if marked {
		return
	}

	detectedAt := now.UTC()
	if !recorded {
		rec := reminder.HistoryRecord{
			ReminderID:    r.ID,
			Medicine:      r.Medicine,
			ScheduledTime: scheduled,
			ActualTime:    &detectedAt,
			Status:        reminder.HistoryMissed,
			DelayMinutes:  int(elapsed),
		}
		if err := m.store.AppendHistory(ctx, rec); err != nil {
			m.logger.Error("missed-dose record failed",
				zap.String("reminder_id", r.ID), zap.Error(err))
			return
		}
		if _, err := m.store.UpdateReminder(ctx, r.ID, reminder.Patch{LastMissed: &detectedAt}); err != nil {
			m.logger.Warn("last-missed stamp failed",
				zap.String("reminder_id", r.ID), zap.Error(err))
		}
		if m.metrics != nil {
			m.metrics.MissedDoses.Inc()
		}
		m.logger.Info("missed dose detected",
			zap.String("reminder_id", r.ID),
			zap.String("medicine", r.Medicine),
			zap.Float64("elapsed_minutes", elapsed))
	}

	delivered := m.alertCaregivers(ctx, r, caregivers, now)

	// The marker is only set after a confirmed delivery; otherwise the
	// next cycle retries. Duplicate alerts beat silently lost ones.
	if delivered > 0 {
		if err := m.store.MarkAlerted(ctx, r.ID, today); err != nil {
			m.logger.Error("alert marker write failed",
				zap.String("reminder_id", r.ID), zap.Error(err))
		}
	}

	m.notifyLocally(r, delivered > 0)
}

func (m *Monitor) alertCaregivers(ctx context.Context, r reminder.Reminder, caregivers []reminder.Caregiver, now time.Time) int {
	if m.caregivers == nil {
		return 0
	}
	delivered := 0
	for _, cg := range caregivers {
		if !cg.Active {
			continue
		}
		sendCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
		delivery, err := m.caregivers.SendMissedDoseAlert(sendCtx, notify.Alert{
			CaregiverEmail: cg.Email,
			CaregiverName:  cg.Name,
			PatientName:    m.patientName,
			MedicineName:   r.Medicine,
			Dosage:         r.Dosage,
			ScheduledTime:  r.Time,
			MissedDate:     now,
		})
		cancel()
		if err != nil || !delivery.Success {
			if m.metrics != nil {
				m.metrics.CaregiverAlerts.WithLabelValues("failed").Inc()
			}
			m.logger.Warn("caregiver alert failed",
				zap.String("reminder_id", r.ID),
				zap.String("caregiver", cg.Name),
				zap.Error(err))
			continue
		}
		delivered++
		if m.metrics != nil {
			m.metrics.CaregiverAlerts.WithLabelValues("sent").Inc()
		}
	}
	return delivered
}

func (m *Monitor) notifyLocally(r reminder.Reminder, caregiversInformed bool) {
	if m.local == nil {
		return
	}
	key := i18n.KeyMissedLocalOnly
	if caregiversInformed {
		key = i18n.KeyMissedInformed
	}
	m.local.SendNow(
		m.bundle.Message(m.language, i18n.KeyMissedTitle, nil),
		m.bundle.Message(m.language, key, map[string]string{
			"medicine": r.Medicine,
			"time":     r.Time,
		}),
		map[string]string{"reminder_id": r.ID},
	)
}
