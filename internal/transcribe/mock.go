package transcribe

import "context"

// MockProvider echoes scripted transcriptions for tests and keyless runs.
type MockProvider struct {
	Result Transcription
	Err    error
}

func (m *MockProvider) Transcribe(_ context.Context, _ []byte, language string) (Transcription, error) {
	if m.Err != nil {
		return Transcription{}, m.Err
	}
	out := m.Result
	if out.Language == "" {
		out.Language = language
	}
	return out, nil
}
