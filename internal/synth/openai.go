package synth

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/narrokit/narro/internal/audio"
)

// implements Synthesizer using the OpenAI speech API. The API returns
// no word boundaries, so word events are estimated by distributing the
// measured audio duration across words proportional to their length;
// timing is best-effort compared to the edge provider.
type OpenAISynthesizer struct {
	client  openai.Client
	model   string
	options Options
}

// edge voice names mapped onto the nearest OpenAI voice, so a role ->
// voice table built for one provider still works on the other
var openaiVoiceAliases = map[string]string{
	"en-US-ChristopherNeural": "onyx",
	"en-US-JennyNeural":       "nova",
	"en-US-GuyNeural":         "echo",
	"en-US-AnaNeural":         "shimmer",
}

func NewOpenAISynthesizer(apiKey string, opts Options) (*OpenAISynthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	model := opts.Model
	if model == "" {
		model = "tts-1"
	}

	return &OpenAISynthesizer{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		options: opts,
	}, nil
}

func (s *OpenAISynthesizer) Synthesize(
	ctx context.Context,
	text, voice string,
) (*Result, error) {
	if alias, ok := openaiVoiceAliases[voice]; ok {
		voice = alias
	}

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}

	duration, err := s.measureDuration(data)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Audio:    data,
		Events:   estimateEvents(text, duration),
		Duration: duration,
	}
	if err := checkResult(result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *OpenAISynthesizer) measureDuration(data []byte) (time.Duration, error) {
	tmpDir, err := os.MkdirTemp("", "narro-openai-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "speech.mp3")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, fmt.Errorf("failed to write audio: %w", err)
	}

	duration, err := audio.Duration(path)
	if err != nil {
		return 0, fmt.Errorf("failed to measure audio duration: %w", err)
	}
	return duration, nil
}

// estimateEvents spreads duration across the words of text in
// proportion to their rune length
func estimateEvents(text string, duration time.Duration) []WordEvent {
	words := strings.Fields(text)
	if len(words) == 0 || duration <= 0 {
		return nil
	}

	total := 0
	for _, w := range words {
		total += utf8.RuneCountInString(w)
	}
	if total == 0 {
		return nil
	}

	events := make([]WordEvent, 0, len(words))
	var cursor time.Duration
	remaining := total
	for _, w := range words {
		share := time.Duration(int64(duration-cursor) * int64(utf8.RuneCountInString(w)) / int64(remaining))
		remaining -= utf8.RuneCountInString(w)

		end := cursor + share
		if remaining == 0 {
			end = duration
		}
		events = append(events, WordEvent{Text: w, Start: cursor, End: end})
		cursor = end
	}
	return events
}
