// Package caption renders aligned tokens into the formats the
// downstream player consumes: the word-timestamp JSON and SRT.
package caption

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/narrokit/narro/internal/engine"
	"github.com/narrokit/narro/internal/script"
)

// punctuation split off a word for display, so "month," renders as
// "month ," and the bare word still matches the vocabulary table
const trailingPunct = ".,!?;:\"'"

// one word-level entry in the timestamp JSON, times in seconds
type Entry struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Index int     `json:"index"`
}

// Entries converts aligned tokens to timestamp entries, detaching
// trailing punctuation with a separating space.
func Entries(tokens []engine.AlignedToken) []Entry {
	entries := make([]Entry, 0, len(tokens))
	for i, tok := range tokens {
		entries = append(entries, Entry{
			Start: tok.Start.Seconds(),
			End:   tok.End.Seconds(),
			Text:  detachPunct(tok.Token.Text),
			Index: i,
		})
	}
	return entries
}

func detachPunct(word string) string {
	trimmed := strings.TrimRight(word, trailingPunct)
	if trimmed == word || trimmed == "" {
		return word
	}
	return trimmed + " " + word[len(trimmed):]
}

// WriteJSON writes the timestamp entries for the aligned tokens
func WriteJSON(tokens []engine.AlignedToken, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(Entries(tokens), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal timestamps: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timestamp file: %w", err)
	}
	return nil
}

// WriteSRT writes one cue per paragraph, spanning that paragraph's
// first and last aligned token
func WriteSRT(
	paragraphs []script.Paragraph,
	tokens []engine.AlignedToken,
	path string,
) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	var sb strings.Builder
	cue := 1
	for _, p := range paragraphs {
		var words []string
		var start, end time.Duration
		for _, tok := range tokens {
			if tok.Token.Paragraph != p.Index {
				continue
			}
			if len(words) == 0 {
				start = tok.Start
			}
			end = tok.End
			words = append(words, tok.Token.Text)
		}
		if len(words) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("%d\n", cue))
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatSRTTime(start),
			formatSRTTime(end)))
		sb.WriteString(strings.Join(words, " "))
		sb.WriteString("\n\n")
		cue++
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write SRT file: %w", err)
	}
	return nil
}

// formats duration as 00:00:00,000
func formatSRTTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
