package engine

import (
	"strings"
	"time"
	"unicode"

	"github.com/narrokit/narro/internal/script"
	"github.com/narrokit/narro/internal/synth"
)

// a source token with its timing in the merged track
type AlignedToken struct {
	Token script.Token
	Start time.Duration
	End   time.Duration
}

// how many extra word events may be fused into one source token
const mergeLookahead = 5

// Align reconciles the synthesizer's word segmentation against the
// source token sequence. The two walk in lock-step; when they disagree
// the aligner first tries to fuse up to mergeLookahead following events
// into the current token (a source compound the synthesizer split),
// and otherwise assigns the token the current event's timing alone,
// keeping the event for re-comparison against the next token so a
// single mismatch cannot cascade. Trailing events with no tokens left
// are discarded. Returns one aligned token per source token plus the
// number of unresolved mismatches, and is a pure function of its
// inputs.
func Align(tokens []script.Token, events []synth.WordEvent) ([]AlignedToken, int) {
	aligned := make([]AlignedToken, 0, len(tokens))
	mismatches := 0

	var lastEnd time.Duration
	j := 0

	for _, tok := range tokens {
		key := foldWord(tok.Text)

		// tokens that are pure punctuation carry no speech; pin them
		// zero-width to the current position
		if key == "" {
			aligned = append(aligned, AlignedToken{Token: tok, Start: lastEnd, End: lastEnd})
			continue
		}

		if j >= len(events) {
			// synthesizer produced fewer events than the source has
			// tokens; best effort at the track's tail
			aligned = append(aligned, AlignedToken{Token: tok, Start: lastEnd, End: lastEnd})
			mismatches++
			continue
		}

		if key == foldWord(events[j].Text) {
			aligned = append(aligned, AlignedToken{Token: tok, Start: events[j].Start, End: events[j].End})
			lastEnd = events[j].End
			j++
			continue
		}

		if merged, consumed := tryMerge(key, events, j); consumed > 0 {
			aligned = append(aligned, merged.withToken(tok))
			lastEnd = merged.End
			j += consumed
			continue
		}

		// unresolved: take the current event's timing but leave the
		// event in place for the next token
		aligned = append(aligned, AlignedToken{Token: tok, Start: events[j].Start, End: events[j].End})
		lastEnd = events[j].End
		mismatches++
	}

	return aligned, mismatches
}

// tryMerge fuses events[j..j+k] while their concatenated folded text
// can still prefix key; consumed is the number of events fused, 0 when
// no bounded merge matches.
func tryMerge(key string, events []synth.WordEvent, j int) (AlignedToken, int) {
	acc := foldWord(events[j].Text)
	for k := 1; k <= mergeLookahead && j+k < len(events); k++ {
		acc += foldWord(events[j+k].Text)
		if acc == key {
			return AlignedToken{Start: events[j].Start, End: events[j+k].End}, k + 1
		}
		if len(acc) > len(key) {
			break
		}
	}
	return AlignedToken{}, 0
}

func (a AlignedToken) withToken(tok script.Token) AlignedToken {
	a.Token = tok
	return a
}

// foldWord normalizes a word for comparison: lower case, punctuation
// stripped
func foldWord(w string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(w) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
