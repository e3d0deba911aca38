package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/psychometric/internal/analysis"
	"github.com/abhisek/psychometric/internal/assessment"
	"github.com/abhisek/psychometric/internal/llm"
	"github.com/abhisek/psychometric/internal/metrics"
	"github.com/abhisek/psychometric/internal/persist"
	"github.com/abhisek/psychometric/internal/questiongen"
	"github.com/abhisek/psychometric/internal/session"
	"github.com/abhisek/psychometric/internal/speech"
	"github.com/abhisek/psychometric/internal/store"
)

const reportBody = `{
	"summary": "Measured and curious.",
	"traits": [
		{"trait": "Openness", "score": 80, "description": "Curious"},
		{"trait": "Conscientiousness", "score": 70, "description": "Planful"},
		{"trait": "Extraversion", "score": 30, "description": "Reserved"}
	],
	"psychologicalArchetype": "The Sage",
	"strengths": ["Focus"],
	"weaknesses": ["Stubborn"],
	"relationshipStyle": "Steady",
	"careerFit": "Research",
	"visualCorrelation": "Calm expression"
}`

const generatedBody = `{"questions":[{"text":"How do you plan a weekend?","options":{"A":"Detailed schedule","B":"Loose list","C":"Go with the flow","D":"Ask friends","E":"Stay home"}}]}`

const profileBody = `{"name":"Ana","birthDate":"1990-01-01","gender":"Female","nationality":"Brazilian"}`

type testEnv struct {
	server   *Server
	metrics  *metrics.Metrics
	analyzer *llm.MockProvider
	voice    *llm.MockProvider
	gen      *llm.MockProvider
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	env := &testEnv{
		metrics:  metrics.New(),
		analyzer: llm.NewMockProvider(),
		voice:    llm.NewMockProvider(),
		gen:      llm.NewMockProvider(),
	}
	synth, err := speech.NewSynthesizer(llm.NewMockSpeechProvider(), 8, speech.WithCacheObserver(env.metrics))
	require.NoError(t, err)

	bank := persist.NewBank(st.KV())
	registry, err := session.NewRegistry(session.Deps{
		KV:          st.KV(),
		Bank:        bank,
		Generator:   questiongen.New(env.gen, questiongen.DefaultConfig()),
		Speaker:     synth,
		Interpreter: speech.NewInterpreter(env.voice),
		Analyzer:    analysis.New(env.analyzer, analysis.DefaultConfig()),
		Events:      st.EventRepo(),
		Observer:    env.metrics,
		Rand:        rand.New(rand.NewPCG(7, 8)),
		Clock:       func() time.Time { return time.UnixMilli(1700000000000) },
	})
	require.NoError(t, err)

	opts.Sessions = registry
	opts.Bank = bank
	opts.Metrics = env.metrics
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	env.server = New(opts)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func (e *testEnv) json(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var b []byte
	if body != "" {
		b = []byte(body)
	}
	return e.do(t, method, path, "application/json", b)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (e *testEnv) createSession(t *testing.T) session.Snapshot {
	t.Helper()
	w := e.json(t, http.MethodPost, "/api/sessions", profileBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[session.Snapshot](t, w)
}

func TestHealthAndCatalog(t *testing.T) {
	env := newTestEnv(t, Options{})

	w := env.json(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.json(t, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	cats := decode[[]categoryResponse](t, w)
	require.Len(t, cats, len(assessment.AllCategories))
	assert.Equal(t, "Behavioral Characteristics", cats[0].Label)

	w = env.json(t, http.MethodGet, "/api/voices", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"default":"Puck"`)
}

func TestQuestionBank(t *testing.T) {
	env := newTestEnv(t, Options{})
	seeds := len(assessment.SeedQuestions())

	w := env.json(t, http.MethodGet, "/api/questions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]assessment.Question](t, w), seeds)

	w = env.json(t, http.MethodPost, "/api/questions",
		`{"category":"Profession","text":"Your ideal workspace is:","options":{"A":"Open office","B":"Quiet room","C":"Cafe","D":"Home"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	added := decode[assessment.Question](t, w)
	assert.True(t, strings.HasPrefix(added.ID, "custom-"))

	w = env.json(t, http.MethodGet, "/api/questions", "")
	assert.Len(t, decode[[]assessment.Question](t, w), seeds+1)

	w = env.json(t, http.MethodPost, "/api/questions", `{"category":"Profession","options":{"A":"a"}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "validation_failed", resp.Error)
	assert.NotEmpty(t, resp.Fields)

	w = env.json(t, http.MethodPost, "/api/questions", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateSession_InvalidProfile(t *testing.T) {
	env := newTestEnv(t, Options{})

	w := env.json(t, http.MethodPost, "/api/sessions", `{"birthDate":"1990-01-01","gender":"Female","nationality":"Brazilian"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "validation_failed", resp.Error)
	require.NotEmpty(t, resp.Fields)
	assert.Equal(t, "name", resp.Fields[0].Field)
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, Options{})
	snap := env.createSession(t)
	base := "/api/sessions/" + snap.ID

	assert.Equal(t, session.ViewQuestionnaire, snap.View)
	assert.Equal(t, assessment.DefaultQueueSize, snap.Total)
	require.NotNil(t, snap.Current)

	w := env.json(t, http.MethodPost, base+"/answers", `{"option":"Z"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.json(t, http.MethodPost, base+"/answers", `{"option":"A","questionId":"not-current"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "stale", decode[ErrorResponse](t, w).Error)

	w = env.json(t, http.MethodGet, base+"/report", "")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not_complete", decode[ErrorResponse](t, w).Error)

	env.analyzer.AddResponse(llm.MockResponse{Content: json.RawMessage(reportBody)})
	for i := 0; i < assessment.DefaultQueueSize; i++ {
		w = env.json(t, http.MethodGet, base, "")
		require.Equal(t, http.StatusOK, w.Code)
		cur := decode[session.Snapshot](t, w).Current
		require.NotNil(t, cur, "question %d", i)

		w = env.json(t, http.MethodPost, base+"/answers", `{"option":"b","questionId":"`+cur.ID+`"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	final := decode[session.Snapshot](t, w)
	assert.Equal(t, session.ViewReport, final.View)
	assert.Equal(t, assessment.DefaultQueueSize, final.Answered)
	assert.InDelta(t, 100, final.Progress, 0.001)
	assert.Equal(t, 1, env.analyzer.CallCount())

	w = env.json(t, http.MethodGet, base+"/report", "")
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[reportResponse](t, w)
	assert.Equal(t, "The Sage", report.Report.PsychologicalArchetype)
	assert.True(t, report.Radar.Sufficient)
	require.Len(t, report.Radar.Axes, 3)
	assert.InDelta(t, 150, report.Radar.Axes[0].End.X, 1e-9)
	assert.InDelta(t, 40, report.Radar.Axes[0].End.Y, 1e-9)

	w = env.json(t, http.MethodGet, base+"/report/radar.svg", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<svg")
	assert.Contains(t, w.Body.String(), "Openness")

	w = env.json(t, http.MethodPost, base+"/answers", `{"option":"A"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "complete", decode[ErrorResponse](t, w).Error)

	// Finish is idempotent once a report exists.
	w = env.json(t, http.MethodPost, base+"/finish", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.analyzer.CallCount())
}

func TestFinish_RetryAfterAnalysisFailure(t *testing.T) {
	env := newTestEnv(t, Options{})
	base := "/api/sessions/" + env.createSession(t).ID

	w := env.json(t, http.MethodPost, base+"/finish", "")
	require.Equal(t, http.StatusConflict, w.Code)

	env.analyzer.AddResponse(llm.MockResponse{Err: errors.New("unreachable")})
	for i := 0; i < assessment.DefaultQueueSize; i++ {
		w = env.json(t, http.MethodPost, base+"/answers", `{"option":"C"}`)
	}
	// The final answer is accepted even though its analysis failed.
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decode[session.Snapshot](t, w)
	assert.Equal(t, assessment.DefaultQueueSize, snap.Answered)
	assert.True(t, snap.Complete)
	assert.Nil(t, snap.Report)
	assert.NotEmpty(t, snap.AnalysisError)

	w = env.json(t, http.MethodPost, base+"/answers", `{"option":"C"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "complete", decode[ErrorResponse](t, w).Error)

	env.analyzer.AddResponse(llm.MockResponse{Content: json.RawMessage(reportBody)})
	w = env.json(t, http.MethodPost, base+"/finish", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[reportResponse](t, w).Report.Traits, 3)

	w = env.json(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[session.Snapshot](t, w).AnalysisError)
}

func TestSkipReplaceInsert(t *testing.T) {
	env := newTestEnv(t, Options{})
	snap := env.createSession(t)
	base := "/api/sessions/" + snap.ID
	first := snap.Current.ID

	w := env.json(t, http.MethodPost, base+"/skip", "")
	require.Equal(t, http.StatusOK, w.Code)
	snap = decode[session.Snapshot](t, w)
	assert.NotEqual(t, first, snap.Current.ID)

	w = env.json(t, http.MethodPost, base+"/replace", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	replaced := decode[replaceResponse](t, w)
	assert.NotEqual(t, snap.Current.ID, replaced.Question.ID)
	assert.Equal(t, replaced.Question.ID, replaced.Session.Current.ID)
	assert.Equal(t, 0, env.gen.CallCount(), "unused pool questions are used first")

	w = env.json(t, http.MethodPost, base+"/questions", `{"category":"Astrology"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.gen.AddResponse(llm.MockResponse{Content: json.RawMessage(generatedBody)})
	w = env.json(t, http.MethodPost, base+"/questions", `{"category":"DailyRoutine"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inserted := decode[replaceResponse](t, w)
	assert.Equal(t, assessment.CategoryDailyRoutine, inserted.Question.Category)
	assert.Equal(t, assessment.DefaultQueueSize+1, inserted.Session.Total)

	env.gen.AddResponse(llm.MockResponse{Err: errors.New("quota")})
	w = env.json(t, http.MethodPost, base+"/questions", `{"category":"Behavioral"}`)
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "generation_failed", decode[ErrorResponse](t, w).Error)
}

func TestSpeech(t *testing.T) {
	env := newTestEnv(t, Options{})
	base := "/api/sessions/" + env.createSession(t).ID

	w := env.json(t, http.MethodPost, base+"/speech", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "audio/wav", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("RIFF")))

	w = env.json(t, http.MethodPost, base+"/speech", `{"voice":"Kore"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.json(t, http.MethodPost, base+"/speech", `{"voice":"Alto"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "voice", decode[ErrorResponse](t, w).Fields[0].Field)
}

func TestVoiceAnswer(t *testing.T) {
	env := newTestEnv(t, Options{MaxAudioBytes: 64})
	base := "/api/sessions/" + env.createSession(t).ID
	clip := []byte("opus-frames")

	env.voice.AddResponse(llm.MockResponse{Content: json.RawMessage(`{"selection":"UNKNOWN"}`)})
	w := env.do(t, http.MethodPost, base+"/voice", "audio/webm", clip)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "not_understood", decode[ErrorResponse](t, w).Error)

	w = env.do(t, http.MethodPost, base+"/voice", "audio/webm", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, http.MethodPost, base+"/voice", "audio/webm", bytes.Repeat([]byte{1}, 65))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	env.voice.AddResponse(llm.MockResponse{Content: json.RawMessage(`{"selection":"B"}`)})
	w = env.do(t, http.MethodPost, base+"/voice", "audio/webm", clip)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[voiceResponse](t, w)
	assert.Equal(t, assessment.LabelB, resp.Selection)
	assert.Equal(t, 1, resp.Session.Answered)

	env.voice.AddResponse(llm.MockResponse{Err: errors.New("network")})
	w = env.do(t, http.MethodPost, base+"/voice", "audio/webm", clip)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestResetAndUnknownSession(t *testing.T) {
	env := newTestEnv(t, Options{})
	base := "/api/sessions/" + env.createSession(t).ID

	w := env.json(t, http.MethodDelete, base, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.json(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, w).Error)

	w = env.json(t, http.MethodDelete, "/api/sessions/never-existed", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRecovery(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.server.engine.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := env.json(t, http.MethodGet, "/boom", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "reset", resp.Action)
	assert.Equal(t, "internal", resp.Error)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.createSession(t)

	w := env.json(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `psychometric_http_requests_total{method="POST",route="/api/sessions",status="201"} 1`)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, Options{CORSOrigins: []string{"http://app.test"}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://app.test")
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)
	assert.Equal(t, "http://app.test", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{assessment.NewValidationError("x", "bad"), http.StatusBadRequest},
		{&assessment.DeviceAccessError{Err: errors.New("denied")}, http.StatusForbidden},
		{session.ErrNotFound, http.StatusNotFound},
		{session.ErrBusy, http.StatusConflict},
		{session.ErrNotUnderstood, http.StatusUnprocessableEntity},
		{&assessment.SynthesisError{Err: errors.New("x")}, http.StatusBadGateway},
		{&assessment.InterpretationError{Err: errors.New("x")}, http.StatusBadGateway},
		{errors.New("mystery"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, _ := classify(tt.err)
		assert.Equal(t, tt.status, got, tt.err.Error())
	}
}
