package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/ytget/ytsongs/internal/model"
	"github.com/ytget/ytsongs/internal/platform"
	"github.com/ytget/ytsongs/internal/transcode"
)

// Stream mime prefixes and source-native extensions
const (
	AudioMimePrefix = "audio/"

	MimeAudioMP4  = "audio/mp4"
	MimeAudioWebM = "audio/webm"

	ExtM4A  = "m4a"
	ExtWebM = "webm"

	// What the copy loop reads per iteration
	CopyBufferSize = 32 * 1024
)

// Service fetches the audio track of single videos. Safe to invoke from
// multiple workers against the same destination directory; target
// filenames differ per video and the filesystem is the only shared state.
type Service struct {
	client     StreamSource
	transcoder transcode.Transcoder
}

// NewService creates a new fetch service using the given transcoder.
func NewService(transcoder transcode.Transcoder) *Service {
	return &Service{client: &youtube.Client{}, transcoder: transcoder}
}

// Fetch resolves the video's title, skips it when the target file already
// exists, and otherwise downloads the best audio-only stream and converts
// it into dir. Every failure is folded into the returned Outcome; the
// temporary download file is removed on all exit paths.
func (s *Service) Fetch(ctx context.Context, video model.VideoRef, format, dir string) model.Outcome {
	title := video.Title
	var resolved *youtube.Video

	if title == "" {
		v, err := s.client.GetVideoContext(ctx, video.URL)
		if err != nil {
			return model.Failed(video.URL, fmt.Errorf("failed to resolve video: %w", err))
		}
		resolved = v
		title = v.Title
	}

	baseName := platform.SanitizeFilename(title)
	target := filepath.Join(dir, baseName+"."+format)

	// The target's existence is the sole resume signal across runs.
	if _, err := os.Stat(target); err == nil {
		return model.Skipped(title)
	}

	if resolved == nil {
		v, err := s.client.GetVideoContext(ctx, video.URL)
		if err != nil {
			return model.Failed(video.URL, fmt.Errorf("failed to resolve video: %w", err))
		}
		resolved = v
	}

	audioFormat, err := pickAudioFormat(resolved.Formats)
	if err != nil {
		return model.Failed(video.URL, err)
	}

	tempPath := platform.TempPath(dir, baseName, mimeToExt(audioFormat.MimeType))
	if err := s.downloadStream(ctx, resolved, audioFormat, tempPath); err != nil {
		return model.Failed(video.URL, err)
	}
	defer os.Remove(tempPath)

	if err := s.transcoder.Transcode(ctx, tempPath, target); err != nil {
		return model.Failed(video.URL, err)
	}

	if prober, ok := s.transcoder.(transcode.DurationProber); ok {
		if duration, err := prober.ProbeDuration(target); err == nil {
			slog.Debug("converted audio track", "target", target, "duration_sec", duration)
		}
	}

	return model.Downloaded(title)
}

// downloadStream streams the chosen format into tempPath. A partial file
// never survives an error.
func (s *Service) downloadStream(ctx context.Context, video *youtube.Video, format *youtube.Format, tempPath string) error {
	stream, _, err := s.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}
	defer stream.Close()

	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := copyWithContext(ctx, file, stream); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to finish temp file: %w", err)
	}
	return nil
}

// pickAudioFormat selects the audio-only format with the highest bitrate.
func pickAudioFormat(formats []youtube.Format) (*youtube.Format, error) {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if !strings.HasPrefix(f.MimeType, AudioMimePrefix) {
			continue
		}
		if best == nil || bitrateForFormat(f) > bitrateForFormat(best) {
			best = f
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no audio-only formats available")
	}
	return best, nil
}

func bitrateForFormat(f *youtube.Format) int {
	if f.Bitrate > 0 {
		return f.Bitrate
	}
	return f.AverageBitrate
}

// mimeToExt maps a stream mime type to its source-native file extension.
func mimeToExt(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, MimeAudioWebM):
		return ExtWebM
	case strings.HasPrefix(mimeType, MimeAudioMP4):
		return ExtM4A
	default:
		return ExtM4A
	}
}

// copyWithContext copies src to dst, checking for cancellation between
// reads.
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, CopyBufferSize)
	var total int64

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
			nr, err := src.Read(buf)
			if nr > 0 {
				nw, werr := dst.Write(buf[:nr])
				total += int64(nw)
				if werr != nil {
					return total, werr
				}
				if nw != nr {
					return total, io.ErrShortWrite
				}
			}
			if err != nil {
				if err == io.EOF {
					return total, nil
				}
				return total, err
			}
		}
	}
}
