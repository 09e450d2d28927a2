package engine

import (
	"bytes"
	"testing"
	"time"

	"github.com/narrokit/narro/internal/synth"
)

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func TestStitchShiftsSecondSegmentByDurationPlusGap(t *testing.T) {
	segments := []SegmentResult{
		{
			Index:    0,
			Audio:    []byte("aaaa"),
			Events:   []synth.WordEvent{{Text: "one", Start: 0, End: ms(500)}},
			Duration: ms(1200),
		},
		{
			Index:    1,
			Audio:    []byte("bb"),
			Events:   []synth.WordEvent{{Text: "two", Start: ms(100), End: ms(400)}},
			Duration: ms(900),
		},
	}

	audio, events := Stitch(segments, ms(100), []byte("SS"))

	if !bytes.Equal(audio, []byte("aaaaSSbb")) {
		t.Errorf("audio missing gap between segments: %q", audio)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[1].Start != ms(1400) || events[1].End != ms(1700) {
		t.Errorf("second segment offset wrong: start=%v end=%v", events[1].Start, events[1].End)
	}
}

func TestStitchGapAudioOnlyBetweenSegments(t *testing.T) {
	segments := []SegmentResult{
		{Index: 0, Audio: []byte("a"), Duration: ms(100)},
		{Index: 1, Audio: []byte("b"), Duration: ms(100)},
		{Index: 2, Audio: []byte("c"), Duration: ms(100)},
	}

	audio, _ := Stitch(segments, ms(50), []byte("_"))

	if !bytes.Equal(audio, []byte("a_b_c")) {
		t.Errorf("gap audio misplaced: %q", audio)
	}
}

func TestStitchWithoutGapInsertsNothing(t *testing.T) {
	segments := []SegmentResult{
		{Index: 0, Audio: []byte("aa"), Duration: ms(100)},
		{Index: 1, Audio: []byte("bb"), Duration: ms(100)},
	}

	audio, events := Stitch(segments, 0, nil)

	if !bytes.Equal(audio, []byte("aabb")) {
		t.Errorf("unexpected audio: %q", audio)
	}
	if events != nil {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestStitchPreservesEventCountAndOrder(t *testing.T) {
	segments := []SegmentResult{
		{Index: 0, Events: []synth.WordEvent{
			{Text: "a", Start: 0, End: ms(100)},
			{Text: "b", Start: ms(100), End: ms(200)},
		}, Duration: ms(300)},
		{Index: 1, Events: []synth.WordEvent{
			{Text: "c", Start: 0, End: ms(100)},
		}, Duration: ms(100)},
		{Index: 2, Events: []synth.WordEvent{
			{Text: "d", Start: 0, End: ms(50)},
		}, Duration: ms(50)},
	}

	_, events := Stitch(segments, 0, nil)

	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	want := []string{"a", "b", "c", "d"}
	var prev time.Duration
	for i, ev := range events {
		if ev.Text != want[i] {
			t.Errorf("event %d: expected %q, got %q", i, want[i], ev.Text)
		}
		if ev.Start < prev {
			t.Errorf("event %d starts before previous end: %v < %v", i, ev.Start, prev)
		}
		prev = ev.End
	}
}

func TestStitchFallsBackToLastBoundaryWithoutDuration(t *testing.T) {
	segments := []SegmentResult{
		{Index: 0, Events: []synth.WordEvent{{Text: "a", Start: 0, End: ms(750)}}},
		{Index: 1, Events: []synth.WordEvent{{Text: "b", Start: 0, End: ms(100)}}},
	}

	_, events := Stitch(segments, 0, nil)

	if events[1].Start != ms(750) {
		t.Errorf("expected fallback offset 750ms, got %v", events[1].Start)
	}
}

func TestStitchEmptyInput(t *testing.T) {
	audio, events := Stitch(nil, ms(100), []byte("_"))
	if len(audio) != 0 || len(events) != 0 {
		t.Errorf("expected empty output, got %d bytes, %d events", len(audio), len(events))
	}
}
