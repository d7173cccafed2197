package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/antoniostano/remedi/internal/reliability"
)

// HTTPProvider posts audio to a Whisper-compatible transcription endpoint.
type HTTPProvider struct {
	url    string
	apiKey string
	model  string
	client *http.Client
	policy reliability.Policy
}

type HTTPConfig struct {
	URL    string
	APIKey string
	Model  string
}

func NewHTTPProvider(cfg HTTPConfig, policy reliability.Policy) *HTTPProvider {
	if policy.MaxAttempts <= 0 {
		policy = reliability.DefaultPolicy()
	}
	policy.NonRetryable = isPermanentStatus
	return &HTTPProvider{
		url:    strings.TrimSpace(cfg.URL),
		apiKey: strings.TrimSpace(cfg.APIKey),
		model:  cfg.Model,
		client: &http.Client{Timeout: 90 * time.Second},
		policy: policy,
	}
}

type retryableStatusError struct {
	code int
	body string
}

func (e *retryableStatusError) Error() string {
	return fmt.Sprintf("transcription http status %d: %s", e.code, e.body)
}

type permanentStatusError struct {
	code int
	body string
}

func (e *permanentStatusError) Error() string {
	return fmt.Sprintf("transcription http status %d: %s", e.code, e.body)
}

// isPermanentStatus keeps client errors (bad audio, bad key) out of the
// retry loop; transport failures and 5xx/429 still retry.
func isPermanentStatus(err error) bool {
	var perm *permanentStatusError
	return errors.As(err, &perm)
}

func (p *HTTPProvider) Transcribe(ctx context.Context, audio []byte, language string) (Transcription, error) {
	var out Transcription
	err := p.policy.Do(ctx, func(ctx context.Context) error {
		result, err := p.transcribeOnce(ctx, audio, language)
		if err != nil {
			return err
		}
		out = result
		return nil
	})
	if err != nil {
		return Transcription{}, err
	}
	return out, nil
}

func (p *HTTPProvider) transcribeOnce(ctx context.Context, audio []byte, language string) (Transcription, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "utterance.m4a")
	if err != nil {
		return Transcription{}, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return Transcription{}, fmt.Errorf("build upload: %w", err)
	}
	if p.model != "" {
		_ = writer.WriteField("model", p.model)
	}
	if language != "" {
		_ = writer.WriteField("language", language)
	}
	if err := writer.Close(); err != nil {
		return Transcription{}, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, &body)
	if err != nil {
		return Transcription{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	res, err := p.client.Do(req)
	if err != nil {
		return Transcription{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		if reliability.IsRetryableHTTPStatus(res.StatusCode) {
			return Transcription{}, &retryableStatusError{code: res.StatusCode, body: string(snippet)}
		}
		return Transcription{}, &permanentStatusError{code: res.StatusCode, body: string(snippet)}
	}

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return Transcription{}, fmt.Errorf("read response: %w", err)
	}

	var obj struct {
		Text       string  `json:"text"`
		Language   string  `json:"language"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(payload, &obj); err != nil {
		return Transcription{}, fmt.Errorf("decode response: %w", err)
	}
	result := Transcription{
		Text:       strings.TrimSpace(obj.Text),
		Language:   obj.Language,
		Confidence: obj.Confidence,
	}
	if result.Language == "" {
		result.Language = language
	}
	return result, nil
}
