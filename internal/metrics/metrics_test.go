package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_LabelsByPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /interviews/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := Middleware(mux)

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "GET /interviews/{id}", "404"))

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/interviews/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "GET /interviews/{id}", "404"))
	assert.Equal(t, 2.0, after-before)
}

func TestDomainCounters(t *testing.T) {
	started := testutil.ToFloat64(callsStarted.WithLabelValues("interview"))
	CallStarted("interview")
	assert.Equal(t, started+1, testutil.ToFloat64(callsStarted.WithLabelValues("interview")))

	finished := testutil.ToFloat64(callsFinished.WithLabelValues("generate", "home"))
	CallFinished("generate", "home")
	assert.Equal(t, finished+1, testutil.ToFloat64(callsFinished.WithLabelValues("generate", "home")))

	failures := testutil.ToFloat64(feedbackResults.WithLabelValues("failure"))
	FeedbackGenerated(false)
	assert.Equal(t, failures+1, testutil.ToFloat64(feedbackResults.WithLabelValues("failure")))

	ObserveLLM("feedback", time.Now())
}

func TestHandler_ExposesMetrics(t *testing.T) {
	CallStarted("generate")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "interview_coach_calls_started_total"))
}
