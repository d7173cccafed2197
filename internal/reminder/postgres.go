package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists reminders and adherence history in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reminders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT '',
			medicine TEXT NOT NULL,
			dosage TEXT NOT NULL DEFAULT '',
			remind_at TEXT NOT NULL,
			frequency TEXT NOT NULL,
			remind_date TEXT NOT NULL DEFAULT '',
			day_of_week TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			last_missed TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS medication_history (
			id TEXT PRIMARY KEY,
			reminder_id TEXT NOT NULL,
			medicine TEXT NOT NULL DEFAULT '',
			scheduled_time TIMESTAMPTZ NOT NULL,
			day TEXT NOT NULL DEFAULT '',
			actual_time TIMESTAMPTZ,
			status TEXT NOT NULL,
			delay_minutes INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_history_reminder_day ON medication_history (reminder_id, day);`,
		`CREATE TABLE IF NOT EXISTS caregivers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE
		);`,
		`CREATE TABLE IF NOT EXISTS app_flags (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS alert_markers (
			reminder_id TEXT NOT NULL,
			day TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (reminder_id, day)
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) SaveReminder(ctx context.Context, r Reminder) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = StatusActive
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO reminders (id, user_id, medicine, dosage, remind_at, frequency, remind_date, day_of_week, status, last_missed, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
			medicine = EXCLUDED.medicine,
			dosage = EXCLUDED.dosage,
			remind_at = EXCLUDED.remind_at,
			frequency = EXCLUDED.frequency,
			remind_date = EXCLUDED.remind_date,
			day_of_week = EXCLUDED.day_of_week,
			status = EXCLUDED.status`,
		r.ID, r.UserID, r.Medicine, r.Dosage, r.Time, r.Frequency, r.Date, r.DayOfWeek, r.Status, r.LastMissed, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save reminder: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetReminder(ctx context.Context, id string) (Reminder, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, medicine, dosage, remind_at, frequency, remind_date, day_of_week, status, last_missed, created_at
		 FROM reminders WHERE id=$1`, id)
	r, err := scanReminder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Reminder{}, ErrNotFound
		}
		return Reminder{}, fmt.Errorf("get reminder: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListReminders(ctx context.Context) ([]Reminder, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, medicine, dosage, remind_at, frequency, remind_date, day_of_week, status, last_missed, created_at
		 FROM reminders ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminder rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateReminder(ctx context.Context, id string, patch Patch) (Reminder, error) {
	sets := make([]string, 0, 8)
	args := make([]any, 0, 9)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if patch.Medicine != nil {
		add("medicine", *patch.Medicine)
	}
	if patch.Dosage != nil {
		add("dosage", *patch.Dosage)
	}
	if patch.Time != nil {
		add("remind_at", *patch.Time)
	}
	if patch.Frequency != nil {
		add("frequency", *patch.Frequency)
	}
	if patch.Date != nil {
		add("remind_date", *patch.Date)
	}
	if patch.DayOfWeek != nil {
		add("day_of_week", *patch.DayOfWeek)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.LastMissed != nil {
		add("last_missed", *patch.LastMissed)
	}
	if len(sets) == 0 {
		return s.GetReminder(ctx, id)
	}

	args = append(args, id)
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE reminders SET %s WHERE id=$%d`, strings.Join(sets, ", "), len(args)),
		args...,
	)
	if err != nil {
		return Reminder{}, fmt.Errorf("update reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Reminder{}, ErrNotFound
	}
	return s.GetReminder(ctx, id)
}

func (s *PostgresStore) DeleteReminder(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reminders WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AppendHistory(ctx context.Context, rec HistoryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	// The day key is fixed at write time from the scheduled instant's own
	// location; timestamptz round-trips would otherwise shift records near
	// midnight into the neighbouring day.
	day := rec.ScheduledTime.Format(DayFormat)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO medication_history (id, reminder_id, medicine, scheduled_time, day, actual_time, status, delay_minutes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.ReminderID, rec.Medicine, rec.ScheduledTime, day, rec.ActualTime, rec.Status, rec.DelayMinutes, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListHistory(ctx context.Context, reminderID string, limit int) ([]HistoryRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, reminder_id, medicine, scheduled_time, actual_time, status, delay_minutes, created_at
		 FROM medication_history`
	args := []any{limit}
	if reminderID != "" {
		query += ` WHERE reminder_id=$2`
		args = append(args, reminderID)
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()
	return scanHistory(rows)
}

func (s *PostgresStore) HistoryForDay(ctx context.Context, reminderID, day string) ([]HistoryRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, reminder_id, medicine, scheduled_time, actual_time, status, delay_minutes, created_at
		 FROM medication_history
		 WHERE reminder_id=$1 AND day=$2`,
		reminderID, day,
	)
	if err != nil {
		return nil, fmt.Errorf("query day history: %w", err)
	}
	defer rows.Close()
	return scanHistory(rows)
}

func (s *PostgresStore) ListCaregivers(ctx context.Context) ([]Caregiver, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, email, active FROM caregivers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list caregivers: %w", err)
	}
	defer rows.Close()

	var out []Caregiver
	for rows.Next() {
		var c Caregiver
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Active); err != nil {
			return nil, fmt.Errorf("scan caregiver row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate caregiver rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) SaveCaregiver(ctx context.Context, c Caregiver) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO caregivers (id, name, email, active) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, email=EXCLUDED.email, active=EXCLUDED.active`,
		c.ID, c.Name, c.Email, c.Active,
	)
	if err != nil {
		return fmt.Errorf("save caregiver: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetFlag(ctx context.Context, name string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM app_flags WHERE name=$1`, name).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get flag: %w", err)
	}
	return value, nil
}

func (s *PostgresStore) SetFlag(ctx context.Context, name, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO app_flags (name, value) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET value=EXCLUDED.value`,
		name, value,
	)
	if err != nil {
		return fmt.Errorf("set flag: %w", err)
	}
	return nil
}

func (s *PostgresStore) AlertMarked(ctx context.Context, reminderID, day string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM alert_markers WHERE reminder_id=$1 AND day=$2`, reminderID, day).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check alert marker: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) MarkAlerted(ctx context.Context, reminderID, day string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO alert_markers (reminder_id, day) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		reminderID, day,
	)
	if err != nil {
		return fmt.Errorf("mark alerted: %w", err)
	}
	return nil
}

func (s *PostgresStore) PruneAlerts(ctx context.Context, beforeDay string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM alert_markers WHERE day < $1`, beforeDay)
	if err != nil {
		return 0, fmt.Errorf("prune alert markers: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (Reminder, error) {
	var r Reminder
	err := row.Scan(&r.ID, &r.UserID, &r.Medicine, &r.Dosage, &r.Time, &r.Frequency, &r.Date, &r.DayOfWeek, &r.Status, &r.LastMissed, &r.CreatedAt)
	return r, err
}

func scanHistory(rows pgx.Rows) ([]HistoryRecord, error) {
	var out []HistoryRecord
	for rows.Next() {
		var rec HistoryRecord
		if err := rows.Scan(&rec.ID, &rec.ReminderID, &rec.Medicine, &rec.ScheduledTime, &rec.ActualTime, &rec.Status, &rec.DelayMinutes, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return out, nil
}
