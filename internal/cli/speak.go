package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/narrokit/narro/internal/audio"
	"github.com/narrokit/narro/internal/caption"
	"github.com/narrokit/narro/internal/engine"
	"github.com/narrokit/narro/internal/synth"
)

var speakCmd = &cobra.Command{
	Use:   "speak [text_file]",
	Short: "Synthesize a narrated track with word timestamps",
	Long: `Synthesize the given text file into one mp3 plus a word-level
timestamp JSON usable for caption rendering.

Lines consisting solely of a role marker ([m], [f], [男], [female], ...)
switch the voice for the paragraphs that follow. Paragraphs are
synthesized in parallel and stitched in source order.

Examples:
  narro speak story.txt
  narro speak story.txt --srt --gap-ms 150
  narro speak story.txt --provider openai -k YOUR_KEY
  narro speak story.txt --rate +10% --concurrency 5`,
	Args: cobra.ExactArgs(1),
	RunE: runSpeak,
}

func init() {
	rootCmd.AddCommand(speakCmd)

	speakCmd.Flags().
		String("provider", "edge", "Speech provider (edge, openai)")
	speakCmd.Flags().
		StringP("api-key", "k", "", "Provider API key (or set OPENAI_API_KEY env var)")
	speakCmd.Flags().
		Int("concurrency", 3, "Number of parallel synthesis calls")
	speakCmd.Flags().
		Int("gap-ms", 0, "Silence budget between paragraphs in milliseconds")
	speakCmd.Flags().
		String("rate", "", "Speaking rate adjustment (e.g. +10%)")
	speakCmd.Flags().
		String("volume", "", "Volume adjustment (e.g. -5%)")
	speakCmd.Flags().
		String("model", "", "Provider model name (openai only)")
	speakCmd.Flags().
		Bool("srt", false, "Also write a per-paragraph SRT file")
}

func runSpeak(cmd *cobra.Command, args []string) error {
	textPath := args[0]
	ctx := context.Background()

	content, err := os.ReadFile(textPath)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	providerStr, _ := cmd.Flags().GetString("provider")
	apiKey, _ := cmd.Flags().GetString("api-key")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	gapMs, _ := cmd.Flags().GetInt("gap-ms")
	rate, _ := cmd.Flags().GetString("rate")
	volume, _ := cmd.Flags().GetString("volume")
	model, _ := cmd.Flags().GetString("model")
	writeSRT, _ := cmd.Flags().GetBool("srt")
	outputPath, _ := cmd.Flags().GetString("output")

	provider := synth.Provider(strings.ToLower(providerStr))
	if provider == synth.ProviderOpenAI && apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	synthesizer, err := synth.Factory(provider, apiKey, synth.Options{
		Rate:   rate,
		Volume: volume,
		Model:  model,
	})
	if err != nil {
		return err
	}

	gap := time.Duration(gapMs) * time.Millisecond
	var gapAudio []byte
	if gap > 0 {
		gapAudio, err = audio.Silence(gap)
		if err != nil {
			return fmt.Errorf("failed to render segment gap: %w", err)
		}
	}

	eng, err := engine.New(engine.Config{
		Synthesizer: synthesizer,
		Concurrency: concurrency,
		Gap:         gap,
		GapAudio:    gapAudio,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = strings.TrimSuffix(textPath, filepath.Ext(textPath)) + ".mp3"
	}
	stem := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))

	logger.Infow("Starting synthesis",
		"input", textPath,
		"output", outputPath,
		"provider", providerStr,
		"concurrency", concurrency,
	)

	start := time.Now()
	track, err := eng.Run(ctx, string(content))
	if err != nil {
		return err
	}

	if err := writeTrackAudio(track, gapAudio, outputPath); err != nil {
		return err
	}
	if err := caption.WriteJSON(track.Tokens, stem+".json"); err != nil {
		return err
	}
	if writeSRT {
		if err := caption.WriteSRT(track.Paragraphs, track.Tokens, stem+".srt"); err != nil {
			return err
		}
	}

	logger.Infow("Synthesis complete",
		"paragraphs", len(track.Paragraphs),
		"words", len(track.Tokens),
		"mismatches", track.Mismatches,
		"elapsed", time.Since(start).Round(100*time.Millisecond),
	)
	return nil
}

// writeTrackAudio writes each segment to a temp file and joins them
// with the concat demuxer, which keeps mp3 container timestamps sane
// across voice switches. gapAudio, when present, is interleaved
// between segments so the file matches the track's shifted offsets.
func writeTrackAudio(track *engine.Track, gapAudio []byte, outputPath string) error {
	tempDir, err := os.MkdirTemp("", "narro-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	gapPath := ""
	if len(gapAudio) > 0 {
		gapPath = filepath.Join(tempDir, "gap.mp3")
		if err := os.WriteFile(gapPath, gapAudio, 0644); err != nil {
			return fmt.Errorf("failed to write gap audio: %w", err)
		}
	}

	paths := make([]string, 0, len(track.Segments))
	for i, seg := range track.Segments {
		if i > 0 && gapPath != "" {
			paths = append(paths, gapPath)
		}
		p := filepath.Join(tempDir, fmt.Sprintf("seg_%03d.mp3", seg.Index))
		if err := os.WriteFile(p, seg.Audio, 0644); err != nil {
			return fmt.Errorf("failed to write segment audio: %w", err)
		}
		paths = append(paths, p)
	}

	if err := audio.ConcatFiles(paths, outputPath); err != nil {
		return fmt.Errorf("failed to merge segments: %w", err)
	}
	return nil
}
