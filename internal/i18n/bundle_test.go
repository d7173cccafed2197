package i18n

import (
	"strings"
	"testing"
)

func TestMessageSubstitutesPlaceholders(t *testing.T) {
	b := NewBundle()
	got := b.Message("en", KeyAskTime, map[string]string{"medicine": "Aspirin"})
	if !strings.Contains(got, "Aspirin") {
		t.Fatalf("Message() = %q, want medicine substituted", got)
	}
	if strings.Contains(got, "{medicine}") {
		t.Fatalf("Message() = %q, placeholder left unsubstituted", got)
	}
}

func TestMessageLocalized(t *testing.T) {
	b := NewBundle()
	got := b.Message("es", KeyMissedTitle, nil)
	if got != "Dosis omitida" {
		t.Fatalf("Message(es) = %q, want Dosis omitida", got)
	}
}

func TestMessageFallsBackToEnglish(t *testing.T) {
	b := NewBundle()
	// The Hindi table has no restart message.
	got := b.Message("hi", KeyRestart, nil)
	want := b.Message("en", KeyRestart, nil)
	if got != want {
		t.Fatalf("Message(hi) = %q, want English fallback %q", got, want)
	}

	// Unknown languages fall back entirely.
	if b.Message("fr", KeySaved, map[string]string{"medicine": "Aspirin"}) == "" {
		t.Fatalf("unknown language should fall back to English, got empty")
	}
}

func TestMessageNormalizesRegion(t *testing.T) {
	b := NewBundle()
	if b.Message("en-US", KeyMissedTitle, nil) != b.Message("en", KeyMissedTitle, nil) {
		t.Fatalf("region subtag should be ignored")
	}
	if !b.Supported("ES-mx") {
		t.Fatalf("Supported(ES-mx) = false, want true")
	}
}
