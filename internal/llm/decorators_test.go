package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/psychometric/internal/store"
)

type recordingRepo struct {
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return r.err
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
	errs  []error
}

func (o *recordingObserver) ObserveAICall(purpose, model string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, purpose+"/"+model)
	o.errs = append(o.errs, err)
}

func TestLoggingProvider_RecordsEvent(t *testing.T) {
	repo := &recordingRepo{}
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"selection":"C"}`),
		Usage:   Usage{InputTokens: 12, OutputTokens: 3},
	})
	p := WithLogging(mock, repo)

	ctx := WithPurpose(context.Background(), PurposeInterpretation)
	_, err := p.Generate(ctx, Request{
		System: "classify",
		Messages: []Message{{
			Role:        RoleUser,
			Content:     "Which option?",
			Attachments: []Attachment{{MIMEType: "audio/webm", Data: make([]byte, 42)}},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	ev := repo.events[0]
	if ev.Purpose != PurposeInterpretation {
		t.Errorf("purpose = %q, want %q", ev.Purpose, PurposeInterpretation)
	}
	if !ev.Success || ev.InputTokens != 12 || ev.OutputTokens != 3 {
		t.Errorf("unexpected event: %+v", ev)
	}
	if !strings.Contains(ev.RequestBody, "[attachment audio/webm, 42 bytes]") {
		t.Errorf("attachment not summarized in request body: %q", ev.RequestBody)
	}
}

func TestLoggingProvider_EventLogFailureDoesNotFailRequest(t *testing.T) {
	repo := &recordingRepo{err: errors.New("disk full")}
	p := WithLogging(NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)}), repo)

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoggingProvider_RecordsFailure(t *testing.T) {
	repo := &recordingRepo{}
	p := WithLogging(NewMockProvider(), repo)

	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error from empty mock")
	}
	if len(repo.events) != 1 || repo.events[0].Success || repo.events[0].ErrorMessage == "" {
		t.Fatalf("expected a failed event, got %+v", repo.events)
	}
}

func TestSpeechLogging_RecordsEvent(t *testing.T) {
	repo := &recordingRepo{}
	p := WithSpeechLogging(NewMockSpeechProvider(), repo)

	resp, err := p.Synthesize(context.Background(), SpeechRequest{Text: "Hello", Voice: "Kore"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.MIMEType != MockPCMType {
		t.Fatalf("unexpected mime type %q", resp.MIMEType)
	}
	if len(repo.events) != 1 || repo.events[0].Purpose != PurposeSpeech {
		t.Fatalf("expected one speech event, got %+v", repo.events)
	}
	if !strings.Contains(repo.events[0].RequestBody, "[voice: Kore]") {
		t.Errorf("voice missing from request body: %q", repo.events[0].RequestBody)
	}
}

func TestMetricsDecorators(t *testing.T) {
	obs := &recordingObserver{}

	p := WithMetrics(NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)}), obs)
	ctx := WithPurpose(context.Background(), PurposeAnalysis)
	if _, err := p.Generate(ctx, Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Generate(ctx, Request{}); err == nil {
		t.Fatal("expected error from drained mock")
	}

	sp := NewMockSpeechProvider()
	sp.Err = &ErrNoAudio{Model: "mock-tts"}
	if _, err := WithSpeechMetrics(sp, obs).Synthesize(context.Background(), SpeechRequest{Text: "x"}); err == nil {
		t.Fatal("expected speech error")
	}

	want := []string{"analysis/mock", "analysis/mock", "speech/mock-tts"}
	if strings.Join(obs.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", obs.calls, want)
	}
	if obs.errs[0] != nil || obs.errs[1] == nil || obs.errs[2] == nil {
		t.Fatalf("unexpected error pattern: %v", obs.errs)
	}
}

func TestMockSpeechProvider_LengthScalesWithText(t *testing.T) {
	sp := NewMockSpeechProvider()
	short, _ := sp.Synthesize(context.Background(), SpeechRequest{Text: "Hi"})
	long, _ := sp.Synthesize(context.Background(), SpeechRequest{Text: "Hello there"})
	if len(long.Audio) <= len(short.Audio) {
		t.Fatalf("expected longer audio for longer text: %d <= %d", len(long.Audio), len(short.Audio))
	}
	if len(short.Audio)%2 != 0 {
		t.Fatal("16-bit PCM must have an even byte count")
	}
	if sp.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", sp.CallCount())
	}
}

func TestConfig_SupportsSpeech(t *testing.T) {
	for provider, want := range map[string]bool{"gemini": true, "mock": true, "openai": false, "anthropic": false} {
		if got := (Config{Provider: provider}).SupportsSpeech(); got != want {
			t.Errorf("SupportsSpeech(%s) = %v, want %v", provider, got, want)
		}
	}
}
