package protocol

import (
	"errors"
	"testing"
)

func TestParseClientMessageUtterance(t *testing.T) {
	raw := []byte(`{"type":"client_utterance","conversation_id":"c1","text":"take aspirin at 9 am","ts_ms":123}`)
	parsed, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	msg, ok := parsed.(ClientUtterance)
	if !ok {
		t.Fatalf("parsed type = %T, want ClientUtterance", parsed)
	}
	if msg.ConversationID != "c1" || msg.Text != "take aspirin at 9 am" || msg.TSMs != 123 {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestParseClientMessageConfirm(t *testing.T) {
	raw := []byte(`{"type":"client_confirm","conversation_id":"c1","accepted":true}`)
	parsed, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	msg, ok := parsed.(ClientConfirm)
	if !ok {
		t.Fatalf("parsed type = %T, want ClientConfirm", parsed)
	}
	if !msg.Accepted {
		t.Fatalf("Accepted = false, want true")
	}
}

func TestParseClientMessageRejectsInvalid(t *testing.T) {
	cases := [][]byte{
		[]byte(`not json`),
		[]byte(`{"type":"client_utterance","conversation_id":"","text":"hi"}`),
		[]byte(`{"type":"client_utterance","conversation_id":"c1","text":""}`),
		[]byte(`{"type":"client_confirm","conversation_id":""}`),
	}
	for _, raw := range cases {
		if _, err := ParseClientMessage(raw); err == nil {
			t.Fatalf("ParseClientMessage(%s) expected error", raw)
		}
	}
}

func TestParseClientMessageUnsupportedType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"assistant_reply"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}
