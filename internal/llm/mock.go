package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider is a deterministic Provider for testing.
// It returns canned responses in FIFO order and records all requests.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate returns the next canned response or ErrProviderUnavailable if
// the queue is empty.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		return nil, &ErrProviderUnavailable{Err: nil}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	if resp.Err != nil {
		return nil, resp.Err
	}

	return &Response{
		Content:    resp.Content,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockPCMType is the MIME type of audio returned by MockSpeechProvider.
// It matches what the Gemini speech models return.
const MockPCMType = "audio/L16;codec=pcm;rate=24000"

// MockSpeechProvider synthesizes silence. Each call yields 16-bit mono
// PCM whose length grows with the text, unless Err is set.
type MockSpeechProvider struct {
	mu    sync.Mutex
	Err   error
	Calls []SpeechRequest
}

// NewMockSpeechProvider creates a MockSpeechProvider.
func NewMockSpeechProvider() *MockSpeechProvider {
	return &MockSpeechProvider{}
}

func (m *MockSpeechProvider) Synthesize(_ context.Context, req SpeechRequest) (*SpeechResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, m.Err
	}

	// Roughly 60ms of audio per character at 24kHz.
	samples := len(req.Text) * 1440
	return &SpeechResponse{
		Audio:    make([]byte, samples*2),
		MIMEType: MockPCMType,
		Model:    "mock-tts",
	}, nil
}

// ModelID returns "mock-tts".
func (m *MockSpeechProvider) ModelID() string {
	return "mock-tts"
}

// CallCount returns the number of Synthesize calls made.
func (m *MockSpeechProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
