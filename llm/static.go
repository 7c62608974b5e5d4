package llm

import (
	"context"

	"github.com/kestrelhq/ddrgen/models"
)

// StaticExtractor returns canned envelopes keyed by source. It backs the
// offline scenario checks in `ddrgen validate` and the pipeline tests; no
// network is involved.
type StaticExtractor struct {
	BySource map[models.SourceType]*models.ExtractionEnvelope
	Err      error
}

var _ Extractor = (*StaticExtractor)(nil)

func (s *StaticExtractor) Extract(_ context.Context, _ string, source models.SourceType) (*models.ExtractionEnvelope, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if env, ok := s.BySource[source]; ok {
		return env, nil
	}
	return &models.ExtractionEnvelope{Observations: []models.RawObservation{}}, nil
}

// StaticAnalyzer returns a fixed analysis result.
type StaticAnalyzer struct {
	Result *models.AnalysisResult
	Err    error
}

var _ Analyzer = (*StaticAnalyzer)(nil)

func (s *StaticAnalyzer) Analyze(_ context.Context, _ []models.MergedAreaRecord) (*models.AnalysisResult, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Result, nil
}
