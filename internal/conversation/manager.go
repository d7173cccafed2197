package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/antoniostano/remedi/internal/i18n"
	"github.com/antoniostano/remedi/internal/llm"
	"github.com/antoniostano/remedi/internal/parse"
	"github.com/antoniostano/remedi/internal/reminder"
)

const (
	defaultMaxAttempts = 5
	defaultMaxAge      = 30 * time.Minute
	completionGrace    = 5 * time.Second
	historyDepth       = 3
)

// Manager orchestrates multi-turn slot filling: it merges utterances into
// accumulated per-conversation state, asks one follow-up question per
// turn, and saves the reminder on explicit confirmation.
type Manager struct {
	mu       sync.Mutex
	contexts map[string]*Context

	parser      *parse.Service
	store       reminder.Store
	bundle      *i18n.Bundle
	questionLLM llm.Adapter
	logger      *zap.Logger

	maxAttempts int
	maxAge      time.Duration
	grace       time.Duration
	now         func() time.Time
	onEvent     func(event string)
}

type Option func(*Manager)

func WithMaxAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

func WithMaxAge(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.maxAge = d
		}
	}
}

// WithQuestionLLM enables AI-generated follow-up questions; the bundle
// templates remain the deterministic fallback.
func WithQuestionLLM(adapter llm.Adapter) Option {
	return func(m *Manager) { m.questionLLM = adapter }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(parser *parse.Service, store reminder.Store, bundle *i18n.Bundle, logger *zap.Logger, opts ...Option) *Manager {
	if bundle == nil {
		bundle = i18n.NewBundle()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		contexts:    make(map[string]*Context),
		parser:      parser,
		store:       store,
		bundle:      bundle,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		maxAge:      defaultMaxAge,
		grace:       completionGrace,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) SetEventHook(hook func(event string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvent = hook
}

// emit runs the event hook outside the manager lock, so hooks are free
// to call back into the manager.
func (m *Manager) emit(event string) {
	m.mu.Lock()
	hook := m.onEvent
	m.mu.Unlock()
	if hook != nil {
		hook(event)
	}
}

// Start creates a context for a new slot-filling session.
func (m *Manager) Start(userID, language string) *Context {
	if strings.TrimSpace(language) == "" || !m.bundle.Supported(language) {
		language = i18n.DefaultLanguage
	}
	now := m.now().UTC()
	c := &Context{
		ID:             uuid.NewString(),
		UserID:         userID,
		Language:       language,
		State:          StateIdle,
		StartedAt:      now,
		LastActivityAt: now,
	}

	m.mu.Lock()
	m.contexts[c.ID] = c
	m.mu.Unlock()
	m.emit("started")
	return clone(c)
}

func (m *Manager) Get(conversationID string) (*Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contexts[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.contexts)
}

// ProcessInput runs one slot-filling turn. Parsing happens outside the
// lock; each conversation is driven by a single request at a time.
func (m *Manager) ProcessInput(ctx context.Context, conversationID, utterance string) (Reply, error) {
	m.mu.Lock()
	c, ok := m.contexts[conversationID]
	if !ok {
		m.mu.Unlock()
		return Reply{}, ErrNotFound
	}
	if c.State == StateError || c.State == StateCompleted {
		reply := m.terminalReply(c)
		m.mu.Unlock()
		return reply, nil
	}
	lang := c.Language
	history := append([]parse.Turn(nil), c.History...)
	m.mu.Unlock()

	candidate, source := m.parser.Parse(ctx, utterance, history)
	m.logger.Debug("utterance parsed",
		zap.String("conversation_id", conversationID),
		zap.String("source", string(source)))

	m.mu.Lock()
	c, ok = m.contexts[conversationID]
	if !ok {
		m.mu.Unlock()
		return Reply{}, ErrNotFound
	}

	c.LastActivityAt = m.now().UTC()
	c.Collected = c.Collected.Merge(candidate)
	c.History = append(c.History, parse.Turn{Utterance: utterance, Parsed: candidate})
	if len(c.History) > historyDepth {
		c.History = c.History[len(c.History)-historyDepth:]
	}

	analysis := parse.Analyze(c.Collected)
	c.Missing = analysis.Missing

	if analysis.Complete {
		c.State = StateConfirming
		c.Collected = analysis.Fields
		reply := Reply{
			ConversationID: c.ID,
			Action:         ActionConfirm,
			State:          c.State,
			Collected:      c.Collected,
			Message: m.bundle.Message(lang, i18n.KeyConfirmSummary, map[string]string{
				"medicine":  analysis.Fields.Medicine,
				"dosage":    analysis.Fields.Dosage,
				"time":      analysis.Fields.Time,
				"frequency": analysis.Fields.Frequency,
			}),
		}
		m.mu.Unlock()
		m.emit("confirming")
		return reply, nil
	}

	c.Attempts++
	if c.Attempts >= m.maxAttempts {
		c.State = StateError
		reply := Reply{
			ConversationID: c.ID,
			Action:         ActionTimeout,
			State:          c.State,
			Collected:      c.Collected,
			Missing:        c.Missing,
			Message:        m.bundle.Message(lang, i18n.KeyTimeout, nil),
		}
		m.mu.Unlock()
		m.emit("timeout")
		return reply, nil
	}

	c.State = StateCollecting
	field := c.Missing[0]
	collected := c.Collected
	m.mu.Unlock()
	m.emit("question")

	return Reply{
		ConversationID: conversationID,
		Action:         ActionAskQuestion,
		State:          StateCollecting,
		Collected:      collected,
		Missing:        analysis.Missing,
		Message:        m.followUpQuestion(ctx, lang, field, collected),
	}, nil
}

// Confirm resolves a pending confirmation. Accepting saves the reminder;
// declining resets the context back to idle.
func (m *Manager) Confirm(ctx context.Context, conversationID string, accepted bool) (Reply, error) {
	m.mu.Lock()
	c, ok := m.contexts[conversationID]
	if !ok {
		m.mu.Unlock()
		return Reply{}, ErrNotFound
	}

	// Late duplicate confirms during the deletion grace window no-op.
	if c.State == StateCompleted {
		reply := m.terminalReply(c)
		m.mu.Unlock()
		return reply, nil
	}

	if !accepted {
		c.Collected = parse.Candidate{}
		c.Missing = nil
		c.Attempts = 0
		c.History = nil
		c.State = StateIdle
		c.LastActivityAt = m.now().UTC()
		lang := c.Language
		m.mu.Unlock()
		m.emit("declined")
		return Reply{
			ConversationID: conversationID,
			Action:         ActionRestart,
			State:          StateIdle,
			Message:        m.bundle.Message(lang, i18n.KeyRestart, nil),
		}, nil
	}

	analysis := parse.Analyze(c.Collected)
	lang := c.Language
	userID := c.UserID
	m.mu.Unlock()

	if !analysis.Complete {
		return Reply{
			ConversationID: conversationID,
			Action:         ActionAskQuestion,
			State:          StateCollecting,
			Collected:      analysis.Fields,
			Missing:        analysis.Missing,
			Message:        m.followUpQuestion(ctx, lang, analysis.Missing[0], analysis.Fields),
		}, nil
	}

	r := reminder.Reminder{
		ID:        uuid.NewString(),
		UserID:    userID,
		Medicine:  analysis.Fields.Medicine,
		Dosage:    analysis.Fields.Dosage,
		Time:      analysis.Fields.Time,
		Frequency: analysis.Fields.Frequency,
		Date:      analysis.Fields.Date,
		DayOfWeek: analysis.Fields.DayOfWeek,
		Status:    reminder.StatusActive,
		CreatedAt: m.now().UTC(),
	}
	if err := m.store.SaveReminder(ctx, r); err != nil {
		m.logger.Error("reminder save failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		m.mu.Lock()
		if c, ok := m.contexts[conversationID]; ok {
			c.State = StateError
		}
		m.mu.Unlock()
		m.emit("error")
		return Reply{
			ConversationID: conversationID,
			Action:         ActionError,
			State:          StateError,
			Message:        m.bundle.Message(lang, i18n.KeyGenericError, nil),
		}, err
	}

	m.mu.Lock()
	if c, ok := m.contexts[conversationID]; ok {
		c.State = StateCompleted
		c.Saved = &r
		c.LastActivityAt = m.now().UTC()
	}
	m.mu.Unlock()
	m.emit("saved")

	// Keep the completed context around briefly so duplicate confirm
	// events can no-op instead of erroring with not-found.
	time.AfterFunc(m.grace, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.contexts, conversationID)
	})

	saved := r.Clone()
	return Reply{
		ConversationID: conversationID,
		Action:         ActionSaveReminder,
		State:          StateCompleted,
		Collected:      analysis.Fields,
		Reminder:       &saved,
		Message: m.bundle.Message(lang, i18n.KeySaved, map[string]string{
			"medicine": r.Medicine,
		}),
	}, nil
}

// End removes a context regardless of state.
func (m *Manager) End(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.contexts, conversationID)
}

// StartJanitor sweeps contexts whose last activity is older than the
// configured max age. This is a garbage-collection safety net, not a
// normal transition.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireStale()
			}
		}
	}()
}

func (m *Manager) expireStale() {
	now := m.now().UTC()
	m.mu.Lock()
	expired := 0
	for id, c := range m.contexts {
		if now.Sub(c.LastActivityAt) < m.maxAge {
			continue
		}
		delete(m.contexts, id)
		expired++
	}
	m.mu.Unlock()
	for i := 0; i < expired; i++ {
		m.emit("expired")
	}
}

func (m *Manager) terminalReply(c *Context) Reply {
	reply := Reply{
		ConversationID: c.ID,
		State:          c.State,
		Collected:      c.Collected,
	}
	switch c.State {
	case StateCompleted:
		reply.Action = ActionSaveReminder
		if c.Saved != nil {
			saved := c.Saved.Clone()
			reply.Reminder = &saved
		}
		reply.Message = m.bundle.Message(c.Language, i18n.KeySaved, map[string]string{
			"medicine": c.Collected.Medicine,
		})
	default:
		reply.Action = ActionTimeout
		reply.Message = m.bundle.Message(c.Language, i18n.KeyTimeout, nil)
	}
	return reply
}

// followUpQuestion targets exactly one missing field. The model phrasing
// is nice to have; the bundle template is the deterministic fallback.
func (m *Manager) followUpQuestion(ctx context.Context, lang, field string, collected parse.Candidate) string {
	template := m.templateQuestion(lang, field, collected)
	if m.questionLLM == nil {
		return template
	}

	qCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	text, err := m.questionLLM.Complete(qCtx, llm.CompletionRequest{
		System: "You help fill in a medication reminder. Reply with one short, friendly question in language \"" + lang + "\" and nothing else.",
		Prompt: "Ask the user for the missing \"" + field + "\" of their medication reminder. Known so far: medicine=" + orUnknown(collected.Medicine) + ", time=" + orUnknown(collected.Time) + ".",
	})
	if err != nil || strings.TrimSpace(text) == "" {
		m.logger.Debug("question generation fell back to template", zap.Error(err))
		return template
	}
	return strings.TrimSpace(text)
}

func (m *Manager) templateQuestion(lang, field string, collected parse.Candidate) string {
	medicine := collected.Medicine
	if medicine == "" {
		medicine = "your medicine"
	}
	args := map[string]string{"medicine": medicine}
	switch field {
	case parse.FieldMedicine:
		return m.bundle.Message(lang, i18n.KeyAskMedicine, nil)
	case parse.FieldTime:
		return m.bundle.Message(lang, i18n.KeyAskTime, args)
	case parse.FieldDosage:
		return m.bundle.Message(lang, i18n.KeyAskDosage, args)
	default:
		return m.bundle.Message(lang, i18n.KeyAskFrequency, args)
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
