package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/antoniostano/remedi/internal/reminder"
)

// lateThresholdMinutes separates an on-time dose from a late one when the
// user reports taking their medication.
const lateThresholdMinutes = 30

type reminderRequest struct {
	Medicine  string `json:"medicine"`
	Dosage    string `json:"dosage"`
	Time      string `json:"time"`
	Frequency string `json:"frequency"`
	Date      string `json:"date"`
	DayOfWeek string `json:"day_of_week"`
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Medicine) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "medicine is required")
		return
	}
	if _, _, err := reminder.ParseClock(req.Time); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "time must be H:MM AM/PM")
		return
	}
	if req.Frequency == "" {
		req.Frequency = reminder.FreqDaily
	}
	if strings.TrimSpace(req.Dosage) == "" {
		req.Dosage = reminder.DefaultDosage
	}

	rem := reminder.Reminder{
		ID:        uuid.NewString(),
		Medicine:  strings.TrimSpace(req.Medicine),
		Dosage:    req.Dosage,
		Time:      strings.TrimSpace(req.Time),
		Frequency: req.Frequency,
		Date:      req.Date,
		DayOfWeek: req.DayOfWeek,
		Status:    reminder.StatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SaveReminder(r.Context(), rem); err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, rem)
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.store.ListReminders(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"reminders": reminders})
}

func (s *Server) handleGetReminder(w http.ResponseWriter, r *http.Request) {
	rem, err := s.store.GetReminder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rem)
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Medicine  *string `json:"medicine"`
		Dosage    *string `json:"dosage"`
		Time      *string `json:"time"`
		Frequency *string `json:"frequency"`
		Date      *string `json:"date"`
		DayOfWeek *string `json:"day_of_week"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Time != nil {
		if _, _, err := reminder.ParseClock(*req.Time); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "time must be H:MM AM/PM")
			return
		}
	}

	rem, err := s.store.UpdateReminder(r.Context(), chi.URLParam(r, "id"), reminder.Patch{
		Medicine:  req.Medicine,
		Dosage:    req.Dosage,
		Time:      req.Time,
		Frequency: req.Frequency,
		Date:      req.Date,
		DayOfWeek: req.DayOfWeek,
	})
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rem)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteReminder(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

func (s *Server) handlePauseReminder(w http.ResponseWriter, r *http.Request) {
	s.setReminderStatus(w, r, reminder.StatusPaused)
}

func (s *Server) handleResumeReminder(w http.ResponseWriter, r *http.Request) {
	s.setReminderStatus(w, r, reminder.StatusActive)
}

func (s *Server) setReminderStatus(w http.ResponseWriter, r *http.Request, status reminder.Status) {
	rem, err := s.store.UpdateReminder(r.Context(), chi.URLParam(r, "id"), reminder.Patch{Status: &status})
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rem)
}

// handleReminderTaken records a confirmed dose for today. Doses confirmed
// more than lateThresholdMinutes past their scheduled time count as late
// but still stop the missed-dose monitor from alerting.
func (s *Server) handleReminderTaken(w http.ResponseWriter, r *http.Request) {
	rem, err := s.store.GetReminder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	now := time.Now()
	scheduled, err := reminder.At(now, rem.Time)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "invalid_reminder_time", err.Error())
		return
	}

	delay := int(now.Sub(scheduled).Minutes())
	if delay < 0 {
		delay = 0
	}
	status := reminder.HistoryTaken
	if delay > lateThresholdMinutes {
		status = reminder.HistoryLateTaken
	}

	actual := now.UTC()
	rec := reminder.HistoryRecord{
		ID:            uuid.NewString(),
		ReminderID:    rem.ID,
		Medicine:      rem.Medicine,
		ScheduledTime: scheduled,
		ActualTime:    &actual,
		Status:        status,
		DelayMinutes:  delay,
	}
	if err := s.store.AppendHistory(r.Context(), rec); err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	reminderID := r.URL.Query().Get("reminder_id")
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	history, err := s.store.ListHistory(r.Context(), reminderID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"history": history})
}

func (s *Server) handleListCaretakers(w http.ResponseWriter, r *http.Request) {
	caregivers, err := s.store.ListCaregivers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"caretakers": caregivers})
}

func (s *Server) handleSaveCaretaker(w http.ResponseWriter, r *http.Request) {
	var req reminder.Caregiver
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, "invalid_request", "a valid email is required")
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if err := s.store.SaveCaregiver(r.Context(), req); err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, req)
}

func (s *Server) handleGetAlertSettings(w http.ResponseWriter, r *http.Request) {
	flag, err := s.store.GetFlag(r.Context(), reminder.FlagCaretakerAlerts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"enabled": flag == "true"})
}

func (s *Server) handlePutAlertSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	value := "false"
	if req.Enabled {
		value = "true"
	}
	if err := s.store.SetFlag(r.Context(), reminder.FlagCaretakerAlerts, value); err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"enabled": req.Enabled})
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, reminder.ErrNotFound) {
		respondError(w, http.StatusNotFound, "reminder_not_found", err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, "store_error", err.Error())
}
