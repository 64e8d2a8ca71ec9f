// Package feedback scores interview transcripts with a language model and
// stores the result.
package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/logging"
	"github.com/jonathan/interview-coach/internal/metrics"
	"github.com/jonathan/interview-coach/internal/prompts"
	"github.com/jonathan/interview-coach/internal/schemas"
	"github.com/jonathan/interview-coach/internal/transcript"
	"github.com/jonathan/interview-coach/internal/types"
)

// ErrEmptyTranscript is returned when there is nothing to score.
var ErrEmptyTranscript = errors.New("transcript is empty")

// Store persists feedback records.
type Store interface {
	CreateFeedback(ctx context.Context, f *types.Feedback) error
}

// Request is one transcript to score.
type Request struct {
	InterviewID uuid.UUID
	UserID      uuid.UUID
	Transcript  []transcript.Message
}

// Result reports the outcome of Generate. FeedbackID is set only on success.
type Result struct {
	Success    bool
	FeedbackID uuid.UUID
}

// Generator turns transcripts into persisted feedback.
type Generator struct {
	client llm.Client
	store  Store
	schema *llm.Schema
	logger *zap.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

// NewGenerator creates a generator that scores with client and writes to store.
func NewGenerator(client llm.Client, store Store, logger *zap.Logger) (*Generator, error) {
	raw, err := schemas.Load(schemas.Feedback)
	if err != nil {
		return nil, err
	}
	schema, err := llm.ParseSchema(raw)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		store:  store,
		schema: schema,
		logger: logging.OrNop(logger),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.New,
	}, nil
}

// Generate scores req and persists one feedback record. Any failure yields
// Result{Success: false} and writes nothing.
func (g *Generator) Generate(ctx context.Context, req Request) Result {
	log := g.logger.With(
		zap.String("interview_id", req.InterviewID.String()),
		zap.String("user_id", req.UserID.String()))

	fb, err := g.Evaluate(ctx, req)
	if err != nil {
		log.Error("feedback evaluation failed", zap.Error(err))
		metrics.FeedbackGenerated(false)
		return Result{}
	}

	if err := g.store.CreateFeedback(ctx, fb); err != nil {
		log.Error("failed to save feedback", zap.Error(err))
		metrics.FeedbackGenerated(false)
		return Result{}
	}

	log.Info("feedback saved",
		zap.String("feedback_id", fb.ID.String()),
		zap.Int("total_score", fb.TotalScore))
	metrics.FeedbackGenerated(true)
	return Result{Success: true, FeedbackID: fb.ID}
}

// Evaluate asks the model to score req and returns the unsaved record.
func (g *Generator) Evaluate(ctx context.Context, req Request) (*types.Feedback, error) {
	if len(req.Transcript) == 0 {
		return nil, ErrEmptyTranscript
	}

	prompt, err := prompts.Render(prompts.Feedback, map[string]string{
		"Transcript": transcript.Render(req.Transcript),
	})
	if err != nil {
		return nil, err
	}

	started := time.Now()
	raw, err := g.client.GenerateJSON(ctx, llm.Request{System: prompt.System, Prompt: prompt.User, Schema: g.schema}, llm.TierAdvanced)
	metrics.ObserveLLM("feedback", started)
	if err != nil {
		return nil, fmt.Errorf("generate assessment: %w", err)
	}

	assessment, err := ParseAssessment(raw)
	if err != nil {
		return nil, err
	}
	categories, err := assessment.Normalize()
	if err != nil {
		return nil, fmt.Errorf("invalid assessment: %w", err)
	}

	return &types.Feedback{
		ID:                  g.newID(),
		InterviewID:         req.InterviewID,
		UserID:              req.UserID,
		TotalScore:          assessment.TotalScore,
		CategoryScores:      categories,
		Strengths:           nonNil(assessment.Strengths),
		AreasForImprovement: nonNil(assessment.AreasForImprovement),
		FinalAssessment:     assessment.FinalAssessment,
		CreatedAt:           g.now(),
	}, nil
}

// ParseAssessment validates raw model output against the feedback schema and
// decodes it.
func ParseAssessment(raw string) (*types.Assessment, error) {
	if err := schemas.Validate(schemas.Feedback, raw); err != nil {
		return nil, fmt.Errorf("assessment does not match schema: %w", err)
	}
	var a types.Assessment
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, fmt.Errorf("decode assessment: %w", err)
	}
	return &a, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
