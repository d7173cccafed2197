package parse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/antoniostano/remedi/internal/llm"
	"github.com/antoniostano/remedi/internal/reliability"
)

var (
	// ErrAIUnavailable covers network, timeout and auth failures after
	// the retry budget is spent.
	ErrAIUnavailable = errors.New("ai parser unavailable")
	// ErrAIMalformed covers responses that cannot be coerced into the
	// expected JSON schema.
	ErrAIMalformed = errors.New("ai parser returned malformed response")
)

const systemPrompt = `You extract medication reminder fields from user utterances.
Respond with ONLY a JSON object, no prose, no markdown, using exactly this schema:
{"medicine": string|null, "dosage": string|null, "time": string|null, "frequency": string|null, "date": string|null, "day_of_week": string|null}
Rules:
- "time" must be 12-hour "H:MM AM/PM".
- "frequency" must be one of: once, daily, twice daily, three times daily, four times daily, weekly, monthly, "every N hours", "N times daily".
- Use null for anything the utterance does not state. Never invent values.`

// Turn is one prior (utterance, parse result) pair carried as prompt
// context for multi-turn slot filling.
type Turn struct {
	Utterance string
	Parsed    Candidate
}

// AIParser asks a language model for structured fields and hardens the
// result: fenced-JSON cleanup, repair, strict schema validation and
// deterministic normalization of schedule cues.
type AIParser struct {
	adapter   llm.Adapter
	extractor *Extractor
	policy    reliability.Policy
	timeout   time.Duration
}

func NewAIParser(adapter llm.Adapter, extractor *Extractor, policy reliability.Policy) *AIParser {
	if policy.MaxAttempts <= 0 {
		policy = reliability.DefaultPolicy()
	}
	policy.NonRetryable = llm.IsAuthError
	return &AIParser{
		adapter:   adapter,
		extractor: extractor,
		policy:    policy,
		timeout:   30 * time.Second,
	}
}

// Parse extracts fields from text via the model. History provides recent
// conversation turns for context. Missing fields are never taken from the
// model; the caller recomputes them with Analyze.
func (p *AIParser) Parse(ctx context.Context, text string, history []Turn) (Candidate, error) {
	if p.adapter == nil {
		return Candidate{}, ErrAIUnavailable
	}

	prompt := buildPrompt(text, history)
	var raw string
	err := p.policy.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		var callErr error
		raw, callErr = p.adapter.Complete(callCtx, llm.CompletionRequest{System: systemPrompt, Prompt: prompt})
		return callErr
	})
	if err != nil {
		return Candidate{}, fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}

	c, err := decodeCandidate(raw)
	if err != nil {
		return Candidate{}, err
	}
	return p.normalize(text, c), nil
}

func buildPrompt(text string, history []Turn) string {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Earlier turns in this conversation:\n")
		for _, t := range history {
			fields, _ := json.Marshal(t.Parsed)
			fmt.Fprintf(&b, "- user said %q, extracted %s\n", t.Utterance, fields)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Utterance: %q", text)
	return b.String()
}

// decodeCandidate coerces the model output into the fixed schema. Code
// fences are stripped, the first balanced JSON object is extracted, and a
// repair pass is tried before giving up.
func decodeCandidate(raw string) (Candidate, error) {
	cleaned := extractJSONObject(stripCodeFences(raw))
	if cleaned == "" {
		return Candidate{}, fmt.Errorf("%w: no JSON object in output", ErrAIMalformed)
	}

	fields, err := unmarshalSchema(cleaned)
	if err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(cleaned)
		if repairErr != nil {
			return Candidate{}, fmt.Errorf("%w: %v", ErrAIMalformed, err)
		}
		fields, err = unmarshalSchema(repaired)
		if err != nil {
			return Candidate{}, fmt.Errorf("%w: %v", ErrAIMalformed, err)
		}
	}
	return fields, nil
}

// unmarshalSchema is the strict validator: every known key must be a
// string or null. Anything else rejects the whole response rather than
// trusting whatever shape the model produced.
func unmarshalSchema(s string) (Candidate, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return Candidate{}, err
	}

	get := func(key string) (string, error) {
		v, ok := obj[key]
		if !ok || v == nil {
			return "", nil
		}
		str, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("field %q is not a string", key)
		}
		return strings.TrimSpace(str), nil
	}

	var c Candidate
	var err error
	if c.Medicine, err = get("medicine"); err != nil {
		return Candidate{}, err
	}
	if c.Dosage, err = get("dosage"); err != nil {
		return Candidate{}, err
	}
	if c.Time, err = get("time"); err != nil {
		return Candidate{}, err
	}
	if c.Frequency, err = get("frequency"); err != nil {
		return Candidate{}, err
	}
	if c.Date, err = get("date"); err != nil {
		return Candidate{}, err
	}
	if c.DayOfWeek, err = get("day_of_week"); err != nil {
		return Candidate{}, err
	}
	return c, nil
}

// normalize re-derives schedule fields from explicit textual cues. Date
// arithmetic must be deterministic, not model-generated, so any cue in
// the utterance overrides what the model said. A generic medicine value
// is dropped the same way the deterministic extractor drops it.
func (p *AIParser) normalize(text string, c Candidate) Candidate {
	lower := strings.ToLower(text)

	if freq, date, dow := p.extractor.extractSchedule(lower); freq != "" {
		c.Frequency = freq
		c.Date = date
		c.DayOfWeek = dow
	}
	if _, generic := genericTerms[strings.ToLower(c.Medicine)]; generic {
		c.Medicine = ""
	}
	return c
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// extractJSONObject returns the first balanced {...} in s, respecting
// strings and escapes.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
