// Package synth produces speech audio with word-level timestamps for
// one paragraph at a time.
package synth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// one word-level timestamp in the call's own local timeline
type WordEvent struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

// result of a single synthesis call
type Result struct {
	Audio    []byte
	Events   []WordEvent
	Duration time.Duration
}

// interface for text-to-speech synthesis
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (*Result, error)
}

// speech service provider
type Provider string

const (
	ProviderEdge   Provider = "edge"
	ProviderOpenAI Provider = "openai"
)

// synthesis options
type Options struct {
	Rate   string // e.g. "+10%"
	Volume string // e.g. "+0%"
	Pitch  string // e.g. "+0Hz"
	Model  string // provider-specific model name
}

var ErrEmptyAudio = errors.New("synthesizer returned no audio")

// creates a synthesizer based on provider
func Factory(provider Provider, apiKey string, opts Options) (Synthesizer, error) {
	switch provider {
	case ProviderEdge:
		return NewEdgeSynthesizer(opts), nil
	case ProviderOpenAI:
		return NewOpenAISynthesizer(apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// checkResult enforces the adapter contract: audio present and a
// positive total duration. Anything else is a segment-level failure.
func checkResult(r *Result) error {
	if len(r.Audio) == 0 {
		return ErrEmptyAudio
	}
	if r.Duration <= 0 {
		return fmt.Errorf("synthesizer returned zero-duration audio")
	}
	return nil
}
