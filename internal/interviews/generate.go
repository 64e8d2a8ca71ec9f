package interviews

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/logging"
	"github.com/jonathan/interview-coach/internal/metrics"
	"github.com/jonathan/interview-coach/internal/prompts"
	"github.com/jonathan/interview-coach/internal/schemas"
	"github.com/jonathan/interview-coach/internal/types"
)

// CoverImages are the company logos an interview card may show.
var CoverImages = []string{
	"/covers/adobe.png",
	"/covers/amazon.png",
	"/covers/facebook.png",
	"/covers/hostinger.png",
	"/covers/pinterest.png",
	"/covers/quora.png",
	"/covers/reddit.png",
	"/covers/skype.png",
	"/covers/spotify.png",
	"/covers/telegram.png",
	"/covers/tiktok.png",
	"/covers/yahoo.png",
}

// RandomCover picks one of CoverImages.
func RandomCover() string {
	return CoverImages[rand.IntN(len(CoverImages))]
}

// SanitizeQuestion strips characters that trip up speech synthesis.
func SanitizeQuestion(q string) string {
	q = strings.NewReplacer("/", " ", "*", "").Replace(q)
	return strings.Join(strings.Fields(q), " ")
}

// Generator creates interviews with model-written questions.
type Generator struct {
	client llm.Client
	repo   Repository
	schema *llm.Schema
	logger *zap.Logger

	now   func() time.Time
	cover func() string
}

// NewGenerator creates a Generator.
func NewGenerator(client llm.Client, repo Repository, logger *zap.Logger) (*Generator, error) {
	raw, err := schemas.Load(schemas.Questions)
	if err != nil {
		return nil, err
	}
	schema, err := llm.ParseSchema(raw)
	if err != nil {
		return nil, err
	}
	return &Generator{
		client: client,
		repo:   repo,
		schema: schema,
		logger: logging.OrNop(logger),
		now:    func() time.Time { return time.Now().UTC() },
		cover:  RandomCover,
	}, nil
}

type questionList struct {
	Questions []string `json:"questions"`
}

// Generate asks the model for questions and persists a finalized interview.
func (g *Generator) Generate(ctx context.Context, req *types.GenerateInterviewRequest) (*types.Interview, error) {
	techstack := req.TechstackList()

	prompt, err := prompts.Render(prompts.Questions, map[string]string{
		"Role":      req.Role,
		"Level":     req.Level,
		"Techstack": strings.Join(techstack, ", "),
		"Type":      req.Type,
		"Amount":    strconv.Itoa(int(req.Amount)),
	})
	if err != nil {
		return nil, err
	}

	started := time.Now()
	raw, err := g.client.GenerateJSON(ctx, llm.Request{System: prompt.System, Prompt: prompt.User, Schema: g.schema}, llm.TierLite)
	metrics.ObserveLLM("questions", started)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	questions, err := parseQuestions(raw)
	if err != nil {
		return nil, err
	}

	iv := &types.Interview{
		ID:         uuid.New(),
		UserID:     req.UserID,
		Role:       req.Role,
		Level:      req.Level,
		Type:       req.Type,
		Techstack:  techstack,
		Questions:  questions,
		Finalized:  true,
		CoverImage: g.cover(),
		CreatedAt:  g.now(),
	}
	if iv.Techstack == nil {
		iv.Techstack = []string{}
	}
	if err := g.repo.CreateInterview(ctx, iv); err != nil {
		return nil, fmt.Errorf("save interview: %w", err)
	}

	g.logger.Info("interview generated",
		zap.String("interview_id", iv.ID.String()),
		zap.String("user_id", iv.UserID.String()),
		zap.Int("questions", len(iv.Questions)))
	return iv, nil
}

func parseQuestions(raw string) ([]string, error) {
	if err := schemas.Validate(schemas.Questions, raw); err != nil {
		return nil, fmt.Errorf("questions do not match schema: %w", err)
	}
	var list questionList
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}

	out := make([]string, 0, len(list.Questions))
	for _, q := range list.Questions {
		if q = SanitizeQuestion(q); q != "" {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("model returned no usable questions")
	}
	return out, nil
}
