// Package engine turns role-tagged source text into one continuous
// speech track plus a per-token timestamp map for caption rendering.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/narrokit/narro/internal/logging"
	"github.com/narrokit/narro/internal/script"
	"github.com/narrokit/narro/internal/synth"
	"github.com/narrokit/narro/internal/textnorm"
)

// engine configuration
type Config struct {
	Synthesizer synth.Synthesizer
	Voices      script.VoiceMap
	Concurrency int           // parallel synthesis calls, default 3
	Gap         time.Duration // silence inserted between segments
	GapAudio    []byte        // silence bytes playing for exactly Gap
	Logger      *logging.Logger
	Day         func() int // day-of-month source for narration voice
}

type Engine struct {
	cfg Config
}

// final output of a run
type Track struct {
	Audio      []byte
	Events     []synth.WordEvent // merged-timeline word events
	Tokens     []AlignedToken
	Paragraphs []script.Paragraph
	Segments   []SegmentResult
	Mismatches int
}

func New(cfg Config) (*Engine, error) {
	if cfg.Synthesizer == nil {
		return nil, fmt.Errorf("synthesizer is required")
	}
	if cfg.Gap > 0 && len(cfg.GapAudio) == 0 {
		// shifting offsets without inserting silence would desync
		// every caption after the first segment
		return nil, fmt.Errorf("gap requires gap audio of the same duration")
	}
	if cfg.Voices == nil {
		cfg.Voices = script.DefaultVoices()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Day == nil {
		cfg.Day = func() int { return time.Now().Day() }
	}
	return &Engine{cfg: cfg}, nil
}

// Run executes the full pipeline: normalize, segment by role,
// synthesize each paragraph concurrently, stitch in paragraph order,
// and align the merged word events against the source tokens. Any
// segment failure aborts the run with no partial output.
func (e *Engine) Run(ctx context.Context, source string) (*Track, error) {
	text := textnorm.Normalize(source)

	paragraphs := script.Segment(text)
	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("no paragraphs in source text")
	}
	tokens := script.Tokens(paragraphs)

	e.cfg.Logger.Infow("synthesizing segments",
		"paragraphs", len(paragraphs),
		"tokens", len(tokens),
		"concurrency", e.cfg.Concurrency,
	)

	segments, err := e.synthesizeAll(ctx, paragraphs)
	if err != nil {
		return nil, err
	}

	audio, events := Stitch(segments, e.cfg.Gap, e.cfg.GapAudio)
	aligned, mismatches := Align(tokens, events)
	if mismatches > 0 {
		e.cfg.Logger.Warnw("alignment mismatches recovered",
			"count", mismatches,
			"tokens", len(tokens),
		)
	}

	return &Track{
		Audio:      audio,
		Events:     events,
		Tokens:     aligned,
		Paragraphs: paragraphs,
		Segments:   segments,
		Mismatches: mismatches,
	}, nil
}

type segmentOutcome struct {
	Result SegmentResult
	Error  error
}

// synthesizeAll fans paragraphs out to a bounded worker pool and
// collects results keyed by paragraph index. The first failure cancels
// everything in flight.
func (e *Engine) synthesizeAll(
	ctx context.Context,
	paragraphs []script.Paragraph,
) ([]SegmentResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	day := e.cfg.Day()
	workChan := make(chan script.Paragraph)
	resultChan := make(chan segmentOutcome, len(paragraphs))

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case p, ok := <-workChan:
					if !ok {
						return
					}
					if ctx.Err() != nil {
						return
					}

					// the synthesizer speaks the same marker-free text
					// the caption tokens are built from
					voice := e.cfg.Voices.Voice(p.Role, day)
					spoken := textnorm.StripMarkers(p.Text)
					result, err := e.cfg.Synthesizer.Synthesize(ctx, spoken, voice)
					if err != nil {
						cancel()
						resultChan <- segmentOutcome{
							Result: SegmentResult{Index: p.Index, Paragraph: p},
							Error:  err,
						}
						continue
					}
					resultChan <- segmentOutcome{Result: SegmentResult{
						Index:     p.Index,
						Paragraph: p,
						Audio:     result.Audio,
						Events:    result.Events,
						Duration:  result.Duration,
					}}
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for _, p := range paragraphs {
			select {
			case <-ctx.Done():
				return
			case workChan <- p:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]SegmentResult, 0, len(paragraphs))
	var firstErr error
	for outcome := range resultChan {
		if outcome.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf(
					"segment %d synthesis failed: %w",
					outcome.Result.Index,
					outcome.Error,
				)
			}
			continue
		}
		results = append(results, outcome.Result)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if len(results) != len(paragraphs) {
		// cancellation raced a worker shutdown before every paragraph
		// was attempted
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf(
			"synthesized %d of %d segments",
			len(results), len(paragraphs),
		)
	}

	// stitch order is paragraph order regardless of completion order
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	return results, nil
}
