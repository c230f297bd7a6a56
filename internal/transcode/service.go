package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Executable and I/O constants
const (
	FFmpegCommand       = "ffmpeg"
	FFprobeCommand      = "ffprobe"
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"

	// Flag that drops any video stream so the output is audio-only
	NoVideoFlag = "-vn"

	// How much trailing ffmpeg stderr to keep in error messages
	StderrTailBytes = 512
)

// Service invokes the ffmpeg binary to convert audio files. The output
// container/codec is inferred by ffmpeg from the target extension.
type Service struct {
	binary string
}

// NewService creates a new transcoding service using ffmpeg from PATH.
func NewService() *Service {
	return &Service{binary: FFmpegCommand}
}

// BuildArgs builds the ffmpeg command arguments for an audio conversion.
func (s *Service) BuildArgs(inputPath, outputPath string) []string {
	return []string{
		"-y",            // Overwrite output file
		"-i", inputPath, // Input file
		NoVideoFlag, // Audio only
		outputPath,  // Output file
	}
}

// Transcode converts inputPath into outputPath. A non-zero ffmpeg exit is
// returned as an error carrying the tail of stderr; a partial output file
// is removed so a failed conversion never looks like a finished one.
func (s *Service) Transcode(ctx context.Context, inputPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, s.binary, s.BuildArgs(inputPath, outputPath)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(outputPath)
		if tail := stderrTail(stderr.Bytes()); tail != "" {
			return fmt.Errorf("ffmpeg failed: %w: %s", err, tail)
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	return nil
}

// ProbeDuration returns the duration of a media file in seconds using
// ffprobe.
func (s *Service) ProbeDuration(filePath string) (float64, error) {
	cmd := exec.Command(FFprobeCommand, "-v", FFprobeLogLevel, "-show_entries", FFprobeShowEntries, "-of", FFprobeOutputFormat, filePath)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return duration, nil
}

// stderrTail collapses ffmpeg stderr to its last StderrTailBytes bytes on a
// single line.
func stderrTail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > StderrTailBytes {
		s = s[len(s)-StderrTailBytes:]
	}
	return strings.Join(strings.Fields(s), " ")
}
