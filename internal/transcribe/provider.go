package transcribe

import "context"

// Transcription is the result of converting an audio clip to text.
type Transcription struct {
	Text       string  `json:"text"`
	Language   string  `json:"language,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Provider converts recorded audio clips to text. Clips are short
// utterances, not streams; the mobile client records and uploads whole
// phrases.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, language string) (Transcription, error)
}
