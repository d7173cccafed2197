package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeClientUtterance MessageType = "client_utterance"
	TypeClientConfirm   MessageType = "client_confirm"
	TypeAssistantReply  MessageType = "assistant_reply"
	TypeErrorEvent      MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ClientUtterance is one transcribed user phrase in a slot-filling turn.
type ClientUtterance struct {
	Type           MessageType `json:"type"`
	ConversationID string      `json:"conversation_id"`
	Text           string      `json:"text"`
	TSMs           int64       `json:"ts_ms,omitempty"`
}

// ClientConfirm accepts or declines a pending reminder confirmation.
type ClientConfirm struct {
	Type           MessageType `json:"type"`
	ConversationID string      `json:"conversation_id"`
	Accepted       bool        `json:"accepted"`
}

// AssistantReply carries the conversation outcome for a turn.
type AssistantReply struct {
	Type           MessageType `json:"type"`
	ConversationID string      `json:"conversation_id"`
	Action         string      `json:"action"`
	State          string      `json:"state"`
	Message        string      `json:"message"`
	Missing        []string    `json:"missing,omitempty"`
	Data           any         `json:"data,omitempty"`
}

type ErrorEvent struct {
	Type           MessageType `json:"type"`
	ConversationID string      `json:"conversation_id"`
	Code           string      `json:"code"`
	Retryable      bool        `json:"retryable"`
	Detail         string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeClientUtterance:
		var msg ClientUtterance
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.ConversationID == "" || msg.Text == "" {
			return nil, errors.New("invalid client_utterance")
		}
		return msg, nil
	case TypeClientConfirm:
		var msg ClientConfirm
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.ConversationID == "" {
			return nil, errors.New("invalid client_confirm")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
