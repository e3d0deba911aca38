// Package speech reads questions aloud and interprets spoken answers.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/abhisek/psychometric/internal/assessment"
	"github.com/abhisek/psychometric/internal/llm"
)

// DefaultCacheSize is the number of synthesized clips kept in memory.
const DefaultCacheSize = 64

// Audio is a playable clip.
type Audio struct {
	Data     []byte
	MIMEType string
}

// CacheObserver is told about every cache lookup.
type CacheObserver interface {
	ObserveSpeechCache(hit bool)
}

type cacheKey struct {
	voice assessment.Voice
	text  string
}

// Synthesizer turns question text into speech. Identical (voice, text)
// pairs are served from an LRU cache.
type Synthesizer struct {
	provider llm.SpeechProvider
	cache    *lru.Cache[cacheKey, Audio]
	obs      CacheObserver
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithCacheObserver reports cache hits and misses to obs.
func WithCacheObserver(obs CacheObserver) SynthesizerOption {
	return func(s *Synthesizer) { s.obs = obs }
}

// NewSynthesizer returns a Synthesizer caching up to cacheSize clips.
// A cacheSize below 1 disables caching.
func NewSynthesizer(provider llm.SpeechProvider, cacheSize int, opts ...SynthesizerOption) (*Synthesizer, error) {
	s := &Synthesizer{provider: provider}
	if cacheSize > 0 {
		cache, err := lru.New[cacheKey, Audio](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create speech cache: %w", err)
		}
		s.cache = cache
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ReadAloudText is what gets spoken for q: the question followed by every
// present option.
func ReadAloudText(q assessment.Question) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(q.Text, " "))
	b.WriteString(".")
	for _, l := range q.Options.Labels() {
		text, _ := q.Options.Get(l)
		fmt.Fprintf(&b, " Option %s: %s.", l, text)
	}
	return b.String()
}

// Speak synthesizes the read-aloud text of q.
func (s *Synthesizer) Speak(ctx context.Context, q assessment.Question, voice assessment.Voice) (Audio, error) {
	return s.Synthesize(ctx, ReadAloudText(q), voice)
}

// Synthesize returns text spoken in voice. Failures, including a response
// without audio, are reported as *assessment.SynthesisError and are not
// retried.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, voice assessment.Voice) (Audio, error) {
	if s.provider == nil {
		return Audio{}, &assessment.SynthesisError{Err: errors.New("speech synthesis is not configured")}
	}
	if voice == "" {
		voice = assessment.DefaultVoice
	}
	key := cacheKey{voice: voice, text: text}
	if s.cache != nil {
		audio, ok := s.cache.Get(key)
		if s.obs != nil {
			s.obs.ObserveSpeechCache(ok)
		}
		if ok {
			return audio, nil
		}
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeSpeech)
	resp, err := s.provider.Synthesize(ctx, llm.SpeechRequest{Text: text, Voice: string(voice)})
	if err != nil {
		return Audio{}, &assessment.SynthesisError{Err: err}
	}
	if len(resp.Audio) == 0 {
		return Audio{}, &assessment.SynthesisError{Err: &llm.ErrNoAudio{Model: resp.Model}}
	}

	data, mimeType, err := toPlayable(resp.Audio, resp.MIMEType)
	if err != nil {
		return Audio{}, &assessment.SynthesisError{Err: err}
	}
	audio := Audio{Data: data, MIMEType: mimeType}
	if s.cache != nil {
		s.cache.Add(key, audio)
	}
	return audio, nil
}
