package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"growthquest/internal/storage"
)

// PendingInput is the questionnaire data held until the analysis runs.
type PendingInput struct {
	Method  InputMethod       `json:"method"`
	Answers map[string]string `json:"answers,omitempty"`
	Text    string            `json:"text,omitempty"`
}

func (in PendingInput) validate() (PendingInput, error) {
	if !in.Method.IsValid() {
		return in, ValidationError("input_method", fmt.Sprintf("unknown input method %q", string(in.Method)))
	}
	in.Text = strings.TrimSpace(in.Text)
	switch in.Method {
	case InputQuestionnaire:
		answered := 0
		clean := make(map[string]string, len(in.Answers))
		for q, a := range in.Answers {
			a = strings.TrimSpace(a)
			if a == "" {
				continue
			}
			clean[q] = a
			answered++
		}
		if answered == 0 {
			return in, ValidationError("answers", "at least one answer is required")
		}
		in.Answers = clean
	case InputGPTPaste:
		if in.Text == "" {
			return in, ValidationError("text", "pasted analysis text is required")
		}
	}
	return in, nil
}

// AnalysisResult is the outcome of an initial stat assignment.
type AnalysisResult struct {
	CorrelationID    string
	Stats            StatVector
	Summary          string
	StatExplanations map[StatName]string
	UsedFallback     bool
}

// storedResult is the JSON shape persisted in user_analysis.result.
type storedResult struct {
	Stats        map[StatName]int `json:"stats"`
	TotalPoints  int              `json:"totalPoints"`
	Level        int              `json:"level"`
	UsedFallback bool             `json:"usedFallback"`
}

// SubmitPendingAnalysis stores questionnaire data for a later AnalyzePending call.
// A newer submission replaces an older one.
func (s *Service) SubmitPendingAnalysis(ctx context.Context, userID int64, in PendingInput) error {
	in, err := in.validate()
	if err != nil {
		return err
	}
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal pending input: %w", err)
	}
	now := s.clock()
	err = s.repo.InTx(ctx, func(r storage.Repos) error {
		if _, err := requireUser(ctx, r, userID); err != nil {
			return err
		}
		return r.Pending.Upsert(ctx, storage.PendingAnalysis{
			UserID:      userID,
			InputMethod: string(in.Method),
			InputData:   string(data),
			CreatedAt:   now,
			ExpiresAt:   now.Add(s.pendingTTL),
		})
	})
	if err != nil {
		return persistence("submit analysis", err)
	}
	s.logger.Info().Int64("user_id", userID).Str("method", string(in.Method)).Msg("analysis input stored")
	return nil
}

// AnalyzePending runs the analysis provider over the user's pending input and
// assigns the initial stats. A failed or unusable provider result falls back to
// FallbackAnalysis exactly once; the fallback is flagged on the result.
func (s *Service) AnalyzePending(ctx context.Context, userID int64) (AnalysisResult, error) {
	r := s.repo.Repos()
	if _, err := requireUser(ctx, r, userID); err != nil {
		return AnalysisResult{}, persistence("analyze", err)
	}
	existing, err := r.Stats.Get(ctx, userID)
	if err != nil {
		return AnalysisResult{}, persistence("analyze", err)
	}
	if existing != nil {
		return AnalysisResult{}, ConflictError("analyze", "stats were already assigned")
	}
	p, err := r.Pending.Get(ctx, userID)
	if err != nil {
		return AnalysisResult{}, persistence("analyze", err)
	}
	if p == nil || p.Expired(s.clock()) {
		return AnalysisResult{}, NotFoundError("analyze", "no pending analysis input, submit the questionnaire first")
	}

	var in PendingInput
	if err := json.Unmarshal([]byte(p.InputData), &in); err != nil {
		return AnalysisResult{}, PersistenceError("analyze", fmt.Errorf("decode pending input: %w", err))
	}

	correlationID := uuid.NewString()
	log := s.logger.With().Int64("user_id", userID).Str("correlation_id", correlationID).Logger()

	parsed := s.runAnalyzer(ctx, AnalysisRequest{
		UserID:  userID,
		Method:  in.Method,
		Answers: in.Answers,
		Text:    in.Text,
	}, log)

	res, err := s.assignInitial(ctx, userID, correlationID, parsed, p.InputMethod, p.InputData, true)
	if err != nil {
		return AnalysisResult{}, err
	}
	if parsed.Fallback {
		s.observer.Analysis(AnalysisOutcomeFallback)
	} else {
		s.observer.Analysis(AnalysisOutcomeAI)
	}
	log.Info().Bool("fallback", parsed.Fallback).Int("total", res.Stats.TotalPoints).Msg("initial stats assigned")
	return res, nil
}

func (s *Service) runAnalyzer(ctx context.Context, req AnalysisRequest, log zerolog.Logger) ParsedAnalysis {
	if s.analyzer == nil {
		log.Warn().Msg("no analysis provider configured, using fallback stats")
		return FallbackAnalysis()
	}
	actx, cancel := context.WithTimeout(ctx, s.analysisTimeout)
	defer cancel()

	out, err := s.analyzer.Analyze(actx, req)
	if err != nil {
		log.Warn().Err(err).Msg("analysis provider failed, using fallback stats")
		return FallbackAnalysis()
	}
	parsed, err := ParseAnalysis(out)
	if err != nil {
		log.Warn().Err(err).Msg("analysis output unusable, using fallback stats")
		return FallbackAnalysis()
	}
	return parsed
}

// IngestInitialAnalysis assigns initial stats straight from provider output.
// Unparseable text is rejected; there is no fallback on this path.
func (s *Service) IngestInitialAnalysis(ctx context.Context, userID int64, raw string) (AnalysisResult, error) {
	parsed, err := ParseAnalysis(raw)
	if err != nil {
		s.observer.Analysis(AnalysisOutcomeRejected)
		return AnalysisResult{}, err
	}
	input, err := json.Marshal(map[string]string{"raw": raw})
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("marshal raw analysis: %w", err)
	}
	res, err := s.assignInitial(ctx, userID, uuid.NewString(), parsed, string(InputDirect), string(input), false)
	if err != nil {
		return AnalysisResult{}, err
	}
	s.observer.Analysis(AnalysisOutcomeDirect)
	s.logger.Info().Int64("user_id", userID).Str("correlation_id", res.CorrelationID).
		Int("total", res.Stats.TotalPoints).Msg("initial stats ingested")
	return res, nil
}

func (s *Service) assignInitial(ctx context.Context, userID int64, correlationID string, parsed ParsedAnalysis, method, inputData string, clearPending bool) (AnalysisResult, error) {
	v := ApplyInitialAssignment(parsed, s.policy)

	result, err := json.Marshal(storedResult{
		Stats:        v.Map(),
		TotalPoints:  v.TotalPoints,
		Level:        v.Level,
		UsedFallback: parsed.Fallback,
	})
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("marshal analysis result: %w", err)
	}
	explanations := "{}"
	if len(parsed.StatExplanations) > 0 {
		b, err := json.Marshal(parsed.StatExplanations)
		if err != nil {
			return AnalysisResult{}, fmt.Errorf("marshal stat explanations: %w", err)
		}
		explanations = string(b)
	}

	now := s.clock()
	err = s.repo.InTx(ctx, func(r storage.Repos) error {
		if _, err := requireUser(ctx, r, userID); err != nil {
			return err
		}
		existing, err := r.Stats.Get(ctx, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ConflictError("analyze", "stats were already assigned")
		}
		if err := r.Stats.Insert(ctx, rowFromVector(userID, v, 1, now)); err != nil {
			return err
		}
		if _, err := r.Analyses.Insert(ctx, storage.Analysis{
			CorrelationID:    correlationID,
			UserID:           userID,
			InputMethod:      method,
			InputData:        inputData,
			Result:           string(result),
			Summary:          parsed.Summary,
			StatExplanations: explanations,
			UsedFallback:     parsed.Fallback,
			CreatedAt:        now,
		}); err != nil {
			return err
		}
		if clearPending {
			return r.Pending.Delete(ctx, userID)
		}
		return nil
	})
	if err != nil {
		return AnalysisResult{}, persistence("analyze", err)
	}
	return AnalysisResult{
		CorrelationID:    correlationID,
		Stats:            v,
		Summary:          parsed.Summary,
		StatExplanations: parsed.StatExplanations,
		UsedFallback:     parsed.Fallback,
	}, nil
}
