package cli

import (
	"github.com/narrokit/narro/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "narro",
	Short: "Multi-role text-to-speech with word-level caption timing",
	Long: `Narro synthesizes annotated text into a single narrated audio
track and a per-word timestamp map for caption rendering.

Paragraphs can be tagged with speaker roles using [marker] lines, and
each role is voiced differently. The word timestamps are aligned back
to the source text, so compounds and punctuation quirks in the source
still map to the right moment in the audio.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringP("output", "o", "", "Output audio file path")
}
