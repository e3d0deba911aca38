package llm

import (
	"context"
	"time"
)

// Observer receives the outcome of every AI call.
type Observer interface {
	ObserveAICall(purpose, model string, latency time.Duration, err error)
}

type metricsProvider struct {
	inner Provider
	obs   Observer
}

// WithMetrics reports each Generate call to obs.
func WithMetrics(p Provider, obs Observer) Provider {
	return &metricsProvider{inner: p, obs: obs}
}

func (m *metricsProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := m.inner.Generate(ctx, req)
	model := m.inner.ModelID()
	if resp != nil && resp.Model != "" {
		model = resp.Model
	}
	m.obs.ObserveAICall(PurposeFrom(ctx), model, time.Since(start), err)
	return resp, err
}

func (m *metricsProvider) ModelID() string { return m.inner.ModelID() }

type metricsSpeechProvider struct {
	inner SpeechProvider
	obs   Observer
}

// WithSpeechMetrics reports each Synthesize call to obs.
func WithSpeechMetrics(p SpeechProvider, obs Observer) SpeechProvider {
	return &metricsSpeechProvider{inner: p, obs: obs}
}

func (m *metricsSpeechProvider) Synthesize(ctx context.Context, req SpeechRequest) (*SpeechResponse, error) {
	start := time.Now()
	resp, err := m.inner.Synthesize(ctx, req)
	m.obs.ObserveAICall(PurposeSpeech, m.inner.ModelID(), time.Since(start), err)
	return resp, err
}

func (m *metricsSpeechProvider) ModelID() string { return m.inner.ModelID() }
