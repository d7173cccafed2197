package parse

import (
	"context"

	"go.uber.org/zap"

	"github.com/antoniostano/remedi/internal/observability"
)

// Source reports which path produced a parse result.
type Source string

const (
	SourceAI            Source = "ai"
	SourceFallback      Source = "ai_fallback"
	SourceDeterministic Source = "deterministic"
)

// Service is the parsing facade: AI first when configured, deterministic
// extraction otherwise or on any AI failure. The AI path is never the
// sole source of truth.
type Service struct {
	ai        *AIParser
	extractor *Extractor
	metrics   *observability.Metrics
	logger    *zap.Logger
}

func NewService(ai *AIParser, extractor *Extractor, metrics *observability.Metrics, logger *zap.Logger) *Service {
	if extractor == nil {
		extractor = NewExtractor()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ai: ai, extractor: extractor, metrics: metrics, logger: logger}
}

// Parse never fails: AI errors degrade to the deterministic extractor.
func (s *Service) Parse(ctx context.Context, text string, history []Turn) (Candidate, Source) {
	if s.ai == nil {
		s.record(SourceDeterministic)
		return s.extractor.Extract(text), SourceDeterministic
	}

	c, err := s.ai.Parse(ctx, text, history)
	if err != nil {
		s.logger.Warn("ai parse failed, using deterministic extractor",
			zap.Error(err))
		s.record(SourceFallback)
		return s.extractor.Extract(text), SourceFallback
	}
	s.record(SourceAI)
	return c, SourceAI
}

func (s *Service) record(source Source) {
	if s.metrics != nil {
		s.metrics.ParseOutcomes.WithLabelValues(string(source)).Inc()
	}
}

// Extractor exposes the deterministic extractor for direct use.
func (s *Service) Extractor() *Extractor {
	return s.extractor
}
