package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/cognate/models"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_ObserveResult(t *testing.T) {
	m := NewMetrics()

	m.ObserveResult("openai", models.SuccessOutcome("hi", 1500, models.TokenUsage{PromptTokens: 10, CompletionTokens: 4}))
	m.ObserveResult("google", models.ErrorOutcome("boom"))
	m.ObserveRound()

	body := scrape(t, m)
	assert.Contains(t, body, `cognate_provider_calls_total{provider="openai",status="success"} 1`)
	assert.Contains(t, body, `cognate_provider_calls_total{provider="google",status="error"} 1`)
	assert.Contains(t, body, `cognate_provider_tokens_total{kind="prompt",provider="openai"} 10`)
	assert.Contains(t, body, `cognate_provider_tokens_total{kind="completion",provider="openai"} 4`)
	assert.Contains(t, body, `cognate_provider_call_duration_seconds_count{provider="openai"} 1`)
	assert.NotContains(t, body, `cognate_provider_call_duration_seconds_count{provider="google"}`)
	assert.Contains(t, body, "cognate_rounds_total 1")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveResult("openai", models.ErrorOutcome("x"))
		m.ObserveRound()
	})
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.ObserveRound()
	assert.Contains(t, scrape(t, a), "cognate_rounds_total 1")
	assert.Contains(t, scrape(t, b), "cognate_rounds_total 0")
}
