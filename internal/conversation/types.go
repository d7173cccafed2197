package conversation

import (
	"errors"
	"time"

	"github.com/antoniostano/remedi/internal/parse"
	"github.com/antoniostano/remedi/internal/reminder"
)

type State string

const (
	StateIdle       State = "idle"
	StateCollecting State = "collecting_info"
	StateConfirming State = "confirming"
	StateCompleted  State = "completed"
	StateError      State = "error"
)

type Action string

const (
	ActionAskQuestion  Action = "ask_question"
	ActionConfirm      Action = "confirm"
	ActionSaveReminder Action = "save_reminder"
	ActionRestart      Action = "restart"
	ActionError        Action = "error"
	ActionTimeout      Action = "timeout"
)

var ErrNotFound = errors.New("conversation not found")

// Context is the per-conversation slot-filling state. It is owned
// exclusively by the Manager and mutated only by the request handling
// its own conversation id.
type Context struct {
	ID             string             `json:"conversation_id"`
	UserID         string             `json:"user_id"`
	Language       string             `json:"language"`
	State          State              `json:"state"`
	Collected      parse.Candidate    `json:"collected"`
	Missing        []string           `json:"missing"`
	Attempts       int                `json:"attempts"`
	History        []parse.Turn       `json:"-"`
	Saved          *reminder.Reminder `json:"saved,omitempty"`
	StartedAt      time.Time          `json:"started_at"`
	LastActivityAt time.Time          `json:"last_activity_at"`
}

// Reply is the outcome of one conversation turn.
type Reply struct {
	ConversationID string             `json:"conversation_id"`
	Action         Action             `json:"action"`
	State          State              `json:"state"`
	Message        string             `json:"message"`
	Missing        []string           `json:"missing,omitempty"`
	Collected      parse.Candidate    `json:"collected"`
	Reminder       *reminder.Reminder `json:"reminder,omitempty"`
}

func clone(c *Context) *Context {
	out := *c
	out.Missing = append([]string(nil), c.Missing...)
	out.History = append([]parse.Turn(nil), c.History...)
	if c.Saved != nil {
		r := c.Saved.Clone()
		out.Saved = &r
	}
	return &out
}
