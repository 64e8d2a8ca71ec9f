package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/call"
	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/types"
)

func seedInterview(t *testing.T, env *testEnv, owner uuid.UUID, role string, finalized bool, at time.Time) *types.Interview {
	t.Helper()
	iv := &types.Interview{
		ID:        uuid.New(),
		UserID:    owner,
		Role:      role,
		Level:     "Mid",
		Type:      "mixed",
		Techstack: []string{"Go"},
		Questions: []string{"Why Go?", "Explain goroutines."},
		Finalized: finalized,
		CreatedAt: at,
	}
	require.NoError(t, env.store.CreateInterview(context.Background(), iv))
	return iv
}

func TestInterviewEndpoints(t *testing.T) {
	env := newTestEnv(t)
	me, token := env.signedIn("Ada Lovelace", "ada@example.com")
	other, _ := env.signedIn("Alan Turing", "alan@example.com")

	base := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	mine := seedInterview(t, env, me.ID, "Backend", true, base)
	theirs := seedInterview(t, env, other.ID, "Frontend", true, base.Add(time.Hour))
	seedInterview(t, env, other.ID, "Draft", false, base.Add(2*time.Hour))

	w := env.do(http.MethodGet, "/interviews", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[interviewList](t, w)
	require.Len(t, list.Interviews, 1)
	assert.Equal(t, mine.ID, list.Interviews[0].ID)

	w = env.do(http.MethodGet, "/interviews/latest?limit=5", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	latest := decode[interviewList](t, w)
	require.Len(t, latest.Interviews, 1)
	assert.Equal(t, theirs.ID, latest.Interviews[0].ID)

	w = env.do(http.MethodGet, "/interviews/"+theirs.ID.String(), nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Frontend", decode[types.Interview](t, w).Role)

	w = env.do(http.MethodGet, "/interviews/"+uuid.NewString(), nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/interviews/not-a-uuid", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/interviews/"+mine.ID.String()+"/feedback", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, env.store.CreateFeedback(context.Background(), &types.Feedback{
		ID: uuid.New(), InterviewID: mine.ID, UserID: me.ID, TotalScore: 81, CreatedAt: base,
	}))
	w = env.do(http.MethodGet, "/interviews/"+mine.ID.String()+"/feedback", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 81, decode[types.Feedback](t, w).TotalScore)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	me, token := env.signedIn("Ada Lovelace", "ada@example.com")
	other, _ := env.signedIn("Alan Turing", "alan@example.com")
	now := time.Now().UTC()
	seedInterview(t, env, me.ID, "Backend", true, now)
	seedInterview(t, env, other.ID, "Frontend", true, now)

	w := env.do(http.MethodGet, "/dashboard", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	d := decode[dashboard](t, w)
	require.NotNil(t, d.User)
	assert.Equal(t, me.ID, d.User.ID)
	assert.Len(t, d.Interviews, 1)
	assert.Len(t, d.Latest, 1)
}

func TestGenerateInterviewHook(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	body := map[string]any{
		"role": "Backend Engineer", "type": "technical", "level": "Senior",
		"techstack": "Go,Postgres", "amount": "5", "userid": userID.String(),
	}
	w := env.do(http.MethodPost, "/vapi/generate", body, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	require.NotNil(t, env.generator.got)
	assert.Equal(t, types.FlexInt(5), env.generator.got.Amount)

	w = env.do(http.MethodPost, "/vapi/generate", map[string]any{"role": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	env.generator.err = errors.New("model unavailable")
	w = env.do(http.MethodPost, "/vapi/generate", body, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func startCall(t *testing.T, env *testEnv, token string, body map[string]any) callView {
	t.Helper()
	w := env.do(http.MethodPost, "/calls", body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[callView](t, w)
}

func waitForRedirect(t *testing.T, env *testEnv, token string, id uuid.UUID) call.State {
	t.Helper()
	var st call.State
	require.Eventually(t, func() bool {
		w := env.do(http.MethodGet, "/calls/"+id.String(), nil, token)
		var view callView
		if w.Code != http.StatusOK || json.Unmarshal(w.Body.Bytes(), &view) != nil {
			return false
		}
		st = view.State
		return st.Redirect != ""
	}, 5*time.Second, 10*time.Millisecond)
	return st
}

func TestCall_InterviewModePersistsFeedback(t *testing.T) {
	env := newTestEnv(t)
	me, token := env.signedIn("Ada Lovelace", "ada@example.com")
	iv := seedInterview(t, env, uuid.New(), "Backend", true, time.Now().UTC())

	view := startCall(t, env, token, map[string]any{"mode": "interview", "interviewId": iv.ID})
	assert.Equal(t, call.ModeInterview, view.Mode)
	assert.NotEmpty(t, view.JoinURL)

	session, req := env.opener.last()
	assert.Equal(t, "asst-1", req.AssistantID)
	assert.Equal(t, "- Why Go?\n- Explain goroutines.", req.Variables["questions"])

	session.events <- voiceCallStart()
	session.say("user", "I know React")
	session.say("assistant", "Tell me more")
	session.hangUp()

	st := waitForRedirect(t, env, token, view.ID)
	assert.Equal(t, call.FeedbackPath(iv.ID), st.Redirect)
	assert.Equal(t, call.StatusFinished, st.Status)
	assert.Equal(t, 1, env.store.FeedbackCount())

	w := env.do(http.MethodGet, "/interviews/"+iv.ID.String()+"/feedback", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	fb := decode[types.Feedback](t, w)
	assert.Equal(t, me.ID, fb.UserID)
	assert.Len(t, fb.CategoryScores, types.RubricCategoryCount)
}

func TestCall_GenerateModeGoesHome(t *testing.T) {
	env := newTestEnv(t)
	me, token := env.signedIn("Ada Lovelace", "ada@example.com")

	view := startCall(t, env, token, map[string]any{"mode": "generate"})
	_, req := env.opener.last()
	assert.Equal(t, "wf-1", req.WorkflowID)
	assert.Equal(t, "Ada Lovelace", req.Variables["username"])
	assert.Equal(t, me.ID.String(), req.Variables["userid"])

	w := env.do(http.MethodPost, "/calls/"+view.ID.String()+"/stop", nil, token)
	require.Equal(t, http.StatusAccepted, w.Code)

	st := waitForRedirect(t, env, token, view.ID)
	assert.Equal(t, call.HomePath, st.Redirect)
	assert.Zero(t, env.store.FeedbackCount())

	w = env.do(http.MethodPost, "/calls/"+view.ID.String()+"/stop", nil, token)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCall_FailedModelCallGoesHome(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signedIn("Ada Lovelace", "ada@example.com")
	iv := seedInterview(t, env, uuid.New(), "Backend", true, time.Now().UTC())
	env.llm.err = errors.New("quota exceeded")

	view := startCall(t, env, token, map[string]any{"mode": "interview", "interviewId": iv.ID})
	session, _ := env.opener.last()
	session.say("user", "Hello")
	session.hangUp()

	st := waitForRedirect(t, env, token, view.ID)
	assert.Equal(t, call.HomePath, st.Redirect)
	assert.Zero(t, env.store.FeedbackCount())
}

func TestCall_Errors(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signedIn("Ada Lovelace", "ada@example.com")
	_, otherToken := env.signedIn("Alan Turing", "alan@example.com")

	w := env.do(http.MethodPost, "/calls", map[string]any{"mode": "karaoke"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/calls", map[string]any{"mode": "interview", "interviewId": uuid.New()}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	view := startCall(t, env, token, map[string]any{"mode": "generate"})
	w = env.do(http.MethodGet, "/calls/"+view.ID.String(), nil, otherToken)
	assert.Equal(t, http.StatusNotFound, w.Code, "calls are private to their owner")

	env.opener.err = errors.New("provider down")
	w = env.do(http.MethodPost, "/calls", map[string]any{"mode": "generate"}, token)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCall_RejectsInterviewWithoutQuestions(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signedIn("Ada Lovelace", "ada@example.com")

	draft := seedInterview(t, env, uuid.New(), "Draft", false, time.Now().UTC())
	empty := &types.Interview{ID: uuid.New(), UserID: uuid.New(), Role: "Empty", Finalized: true, CreatedAt: time.Now().UTC()}
	require.NoError(t, env.store.CreateInterview(context.Background(), empty))

	for _, id := range []uuid.UUID{draft.ID, empty.ID} {
		w := env.do(http.MethodPost, "/calls", map[string]any{"mode": "interview", "interviewId": id}, token)
		assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	}

	env.opener.mu.Lock()
	defer env.opener.mu.Unlock()
	assert.Empty(t, env.opener.sessions, "no voice session is opened")
}

func TestCallEvents_StreamsUntilRedirect(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signedIn("Ada Lovelace", "ada@example.com")
	view := startCall(t, env, token, map[string]any{"mode": "generate"})
	session, _ := env.opener.last()

	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/calls/"+view.ID.String()+"/events", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: config.SessionCookieName, Value: token})
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	session.events <- voiceCallStart()
	session.hangUp()

	var events []string
	var redirect string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			events = append(events, name)
		}
		if data, ok := strings.CutPrefix(line, "data: "); ok && len(events) > 0 && events[len(events)-1] == "redirect" {
			var body map[string]string
			require.NoError(t, json.Unmarshal([]byte(data), &body))
			redirect = body["location"]
		}
	}

	require.NotEmpty(t, events)
	assert.Equal(t, "state", events[0])
	assert.Equal(t, "redirect", events[len(events)-1])
	assert.Equal(t, call.HomePath, redirect)
}

func TestCreateFeedback(t *testing.T) {
	env := newTestEnv(t)
	me, token := env.signedIn("Ada Lovelace", "ada@example.com")
	iv := seedInterview(t, env, me.ID, "Backend", true, time.Now().UTC())

	body := types.CreateFeedbackRequest{
		InterviewID: iv.ID,
		Transcript: []types.TranscriptMessage{
			{Role: "user", Content: "I know React"},
			{Role: "assistant", Content: "Tell me more"},
		},
	}
	w := env.do(http.MethodPost, "/feedback", body, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[types.CreateFeedbackResponse](t, w)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.FeedbackID)

	body.InterviewID = uuid.New()
	w = env.do(http.MethodPost, "/feedback", body, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPost, "/feedback", types.CreateFeedbackRequest{InterviewID: iv.ID}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.llm.response = `{"totalScore": 400}`
	body.InterviewID = iv.ID
	w = env.do(http.MethodPost, "/feedback", body, token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, decode[types.CreateFeedbackResponse](t, w).Success)
	assert.Equal(t, 1, env.store.FeedbackCount())
}
