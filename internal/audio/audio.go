// Package audio shells out to ffmpeg/ffprobe for the file-based
// concerns the in-memory engine does not own: measuring durations and
// concatenating per-segment mp3 files.
package audio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// JSON output from ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// duration of an audio file, via ffprobe on PATH
func Duration(filePath string) (time.Duration, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return 0, fmt.Errorf("file not found: %s", filePath)
	}

	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		filePath,
	)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(out.Bytes(), &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var seconds float64
	if _, err := fmt.Sscanf(probe.Format.Duration, "%f", &seconds); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

// Silence renders d of silence as mp3 bytes in the same format the
// speech service emits (24kHz mono, 48kbit), for insertion between
// stitched segments.
func Silence(d time.Duration) ([]byte, error) {
	if d <= 0 {
		return nil, fmt.Errorf("silence duration must be positive, got %v", d)
	}

	tmpDir, err := os.MkdirTemp("", "narro-silence-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outPath := filepath.Join(tmpDir, "silence.mp3")
	err = ffmpeg.Input("anullsrc=r=24000:cl=mono", ffmpeg.KwArgs{"f": "lavfi"}).
		Output(outPath, ffmpeg.KwArgs{
			"t":   fmt.Sprintf("%.3f", d.Seconds()),
			"c:a": "libmp3lame",
			"b:a": "48k",
			"ar":  24000,
		}).
		OverWriteOutput().
		Silent(true).
		Run()
	if err != nil {
		return nil, fmt.Errorf("failed to render silence: %w", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read silence: %w", err)
	}
	return data, nil
}

// ConcatFiles joins the given audio files in order into outputPath
// using the concat demuxer with stream copy. A single input is copied
// as-is.
func ConcatFiles(paths []string, outputPath string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no input files to concatenate")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if len(paths) == 1 {
		data, err := os.ReadFile(paths[0])
		if err != nil {
			return fmt.Errorf("failed to read segment: %w", err)
		}
		return os.WriteFile(outputPath, data, 0644)
	}

	var list strings.Builder
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve segment path: %w", err)
		}
		fmt.Fprintf(&list, "file '%s'\n", abs)
	}

	listPath := outputPath + "_concat_list.txt"
	if err := os.WriteFile(listPath, []byte(list.String()), 0644); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}
	defer os.Remove(listPath)

	err := ffmpeg.Input(listPath, ffmpeg.KwArgs{"f": "concat", "safe": "0"}).
		Output(outputPath, ffmpeg.KwArgs{"c": "copy"}).
		OverWriteOutput().
		Silent(true).
		Run()
	if err != nil {
		return fmt.Errorf("concat failed: %w", err)
	}

	return nil
}
