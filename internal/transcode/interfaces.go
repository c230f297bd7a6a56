package transcode

import "context"

// Transcoder converts a downloaded source file into the requested output
// format. Implementations must be safe for concurrent use.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string) error
}

// DurationProber reports the playing time of a finished media file. A
// Transcoder may additionally implement it; callers discover it by type
// assertion.
type DurationProber interface {
	ProbeDuration(filePath string) (float64, error)
}
