package engine

import (
	"time"

	"github.com/narrokit/narro/internal/script"
	"github.com/narrokit/narro/internal/synth"
)

// one paragraph's synthesis output, keyed by paragraph index
type SegmentResult struct {
	Index     int
	Paragraph script.Paragraph
	Audio     []byte
	Events    []synth.WordEvent
	Duration  time.Duration
}

// Stitch concatenates segment audio in paragraph order and shifts each
// segment's word events into the merged track's timeline. Each
// segment's offset is the sum of the durations (audio plus gap) of all
// segments before it; the gap itself is attributed to no event.
// gapAudio carries the silence bytes inserted between segments and
// must play for exactly gap, so the shifted offsets stay in step with
// the emitted audio. Event count and order are preserved.
func Stitch(segments []SegmentResult, gap time.Duration, gapAudio []byte) ([]byte, []synth.WordEvent) {
	var audio []byte
	var events []synth.WordEvent
	var offset time.Duration

	for i, seg := range segments {
		if i > 0 {
			offset += gap
			audio = append(audio, gapAudio...)
		}

		audio = append(audio, seg.Audio...)
		for _, ev := range seg.Events {
			events = append(events, synth.WordEvent{
				Text:  ev.Text,
				Start: ev.Start + offset,
				End:   ev.End + offset,
			})
		}

		duration := seg.Duration
		if duration == 0 && len(seg.Events) > 0 {
			// no measured duration; fall back to the last word boundary
			duration = seg.Events[len(seg.Events)-1].End
		}
		offset += duration
	}

	return audio, events
}
