package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Supported output formats (everything else is rejected, never defaulted)
const (
	FormatMP3  = "mp3"
	FormatWAV  = "wav"
	FormatM4A  = "m4a"
	FormatOpus = "opus"
)

var validate = validator.New()

// JobSpec describes one playlist download run. It is immutable for the
// duration of the run.
type JobSpec struct {
	PlaylistURL string `validate:"required,url"`
	Format      string `validate:"required,oneof=mp3 wav m4a opus"`
	Dir         string `validate:"required"`
	Workers     int    `validate:"min=1"`
}

// Validate checks the spec before any work is dispatched.
func (s JobSpec) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid job spec: %w", err)
	}
	return nil
}

// Summary is emitted exactly once at the end of a run. The zero value
// signals that the run failed before any video was dispatched.
type Summary struct {
	PlaylistTitle string
	Total         int
}

// Failed reports whether the run ended without resolving a playlist.
func (s Summary) Failed() bool {
	return s.PlaylistTitle == "" && s.Total == 0
}
