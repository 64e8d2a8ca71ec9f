package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/transcript"
	"github.com/jonathan/interview-coach/internal/types"
)

type stubLLM struct {
	response string
	err      error
	got      llm.Request
	tier     llm.ModelTier
}

func (s *stubLLM) GenerateJSON(_ context.Context, req llm.Request, tier llm.ModelTier) (string, error) {
	s.got = req
	s.tier = tier
	return s.response, s.err
}
func (s *stubLLM) GetModel(llm.ModelTier) string { return "stub" }
func (s *stubLLM) Close() error                  { return nil }

type memStore struct {
	mu    sync.Mutex
	saved []*types.Feedback
	err   error
}

func (m *memStore) CreateFeedback(_ context.Context, f *types.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, f)
	return nil
}

func assessmentJSON(t *testing.T, mutate func(map[string]any)) string {
	t.Helper()
	// Out of rubric order on purpose.
	names := []string{"Cultural Fit", "Communication Skills", "Problem Solving", "Confidence and Clarity", "Technical Knowledge"}
	scores := make([]map[string]any, 0, len(names))
	for i, n := range names {
		scores = append(scores, map[string]any{"name": n, "score": 50 + i, "comment": "comment " + n})
	}
	doc := map[string]any{
		"totalScore":          64,
		"categoryScores":      scores,
		"strengths":           []string{"Clear communication"},
		"areasForImprovement": []string{"System design depth"},
		"finalAssessment":     "Promising candidate.",
	}
	if mutate != nil {
		mutate(doc)
	}
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(b)
}

func sampleTranscript() []transcript.Message {
	return []transcript.Message{
		{Role: transcript.RoleUser, Content: "I know React"},
		{Role: transcript.RoleAssistant, Content: "Tell me more"},
	}
}

func newTestGenerator(t *testing.T, client llm.Client, store Store) *Generator {
	t.Helper()
	g, err := NewGenerator(client, store, nil)
	require.NoError(t, err)
	return g
}

func TestGenerate_PersistsNormalizedFeedback(t *testing.T) {
	client := &stubLLM{response: "```json\n" + assessmentJSON(t, nil) + "\n```"}
	store := &memStore{}
	g := newTestGenerator(t, client, store)

	req := Request{InterviewID: uuid.New(), UserID: uuid.New(), Transcript: sampleTranscript()}
	finishedAt := time.Now().UTC()
	res := g.Generate(context.Background(), req)

	require.True(t, res.Success)
	require.Len(t, store.saved, 1)
	fb := store.saved[0]
	assert.Equal(t, res.FeedbackID, fb.ID)
	assert.Equal(t, req.InterviewID, fb.InterviewID)
	assert.Equal(t, req.UserID, fb.UserID)
	assert.False(t, fb.CreatedAt.Before(finishedAt))
	assert.Equal(t, 64, fb.TotalScore)

	require.Len(t, fb.CategoryScores, types.RubricCategoryCount)
	for i, name := range types.RubricCategories() {
		assert.Equal(t, name, fb.CategoryScores[i].Name)
		assert.GreaterOrEqual(t, fb.CategoryScores[i].Score, types.MinScore)
		assert.LessOrEqual(t, fb.CategoryScores[i].Score, types.MaxScore)
	}

	assert.Contains(t, client.got.Prompt, "- user: I know React\n- assistant: Tell me more")
	assert.Contains(t, client.got.System, "skipped")
	require.NotNil(t, client.got.Schema)
	assert.Equal(t, "object", client.got.Schema.Type)
	assert.Equal(t, llm.TierAdvanced, client.tier)
}

func TestGenerate_FailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name     string
		response string
		llmErr   error
		storeErr error
	}{
		{name: "model error", llmErr: errors.New("quota exceeded")},
		{name: "not json", response: "I am unable to evaluate this."},
		{name: "missing category", response: assessmentJSON(t, func(doc map[string]any) {
			doc["categoryScores"] = doc["categoryScores"].([]map[string]any)[:4]
		})},
		{name: "score out of range", response: assessmentJSON(t, func(doc map[string]any) {
			doc["categoryScores"].([]map[string]any)[1]["score"] = 140
		})},
		{name: "total out of range", response: assessmentJSON(t, func(doc map[string]any) { doc["totalScore"] = -3 })},
		{name: "store error", response: assessmentJSON(t, nil), storeErr: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{err: tt.storeErr}
			g := newTestGenerator(t, &stubLLM{response: tt.response, err: tt.llmErr}, store)

			res := g.Generate(context.Background(), Request{
				InterviewID: uuid.New(), UserID: uuid.New(), Transcript: sampleTranscript(),
			})
			assert.False(t, res.Success)
			assert.Equal(t, uuid.Nil, res.FeedbackID)
			assert.Empty(t, store.saved)
		})
	}
}

func TestEvaluate_IgnoresExtraCategories(t *testing.T) {
	raw := assessmentJSON(t, func(doc map[string]any) {
		doc["categoryScores"] = append(doc["categoryScores"].([]map[string]any),
			map[string]any{"name": "Leadership", "score": 99, "comment": "extra"})
	})
	g := newTestGenerator(t, &stubLLM{response: raw}, &memStore{})

	fb, err := g.Evaluate(context.Background(), Request{InterviewID: uuid.New(), UserID: uuid.New(), Transcript: sampleTranscript()})
	require.NoError(t, err)
	require.Len(t, fb.CategoryScores, types.RubricCategoryCount)
	for _, cs := range fb.CategoryScores {
		assert.NotEqual(t, "Leadership", cs.Name)
	}
}

func TestEvaluate_EmptyTranscript(t *testing.T) {
	client := &stubLLM{}
	g := newTestGenerator(t, client, &memStore{})

	_, err := g.Evaluate(context.Background(), Request{InterviewID: uuid.New(), UserID: uuid.New()})
	assert.ErrorIs(t, err, ErrEmptyTranscript)
	assert.Empty(t, client.got.Prompt)
}

func TestParseAssessment_DuplicateCategoryKeepsFirst(t *testing.T) {
	raw := assessmentJSON(t, func(doc map[string]any) {
		scores := doc["categoryScores"].([]map[string]any)
		doc["categoryScores"] = append(scores, map[string]any{"name": "Cultural Fit", "score": 1, "comment": "dup"})
	})

	a, err := ParseAssessment(raw)
	require.NoError(t, err)
	cats, err := a.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 50, cats[3].Score)
}
