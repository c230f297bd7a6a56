package model

import "fmt"

// OutcomeKind represents the result class of one per-video fetch
type OutcomeKind string

const (
	// OutcomeSkipped means the target file already existed on disk
	OutcomeSkipped OutcomeKind = "skipped"

	// OutcomeDownloaded means the audio was downloaded and converted
	OutcomeDownloaded OutcomeKind = "downloaded"

	// OutcomeFailed means the fetch errored; the run continues without it
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome is the result of fetching a single video. Exactly one Outcome is
// produced per resolved video; failures are data, never propagated errors.
type Outcome struct {
	Kind  OutcomeKind
	Title string
	URL   string
	Err   string
}

// Skipped builds the outcome for a target file that already exists.
func Skipped(title string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Title: title}
}

// Downloaded builds the outcome for a successfully converted video.
func Downloaded(title string) Outcome {
	return Outcome{Kind: OutcomeDownloaded, Title: title}
}

// Failed builds the outcome for a fetch error, keyed by the video URL since
// the title may never have been resolved.
func Failed(url string, err error) Outcome {
	o := Outcome{Kind: OutcomeFailed, URL: url}
	if err != nil {
		o.Err = err.Error()
	}
	return o
}

// IsFailure returns true if the fetch did not produce a usable file.
func (o Outcome) IsFailure() bool {
	return o.Kind == OutcomeFailed
}

// LogLine renders the single human-readable line reported for this outcome.
func (o Outcome) LogLine() string {
	switch o.Kind {
	case OutcomeSkipped:
		return fmt.Sprintf("Skipped %s", o.Title)
	case OutcomeDownloaded:
		return fmt.Sprintf("Downloaded %s", o.Title)
	default:
		return fmt.Sprintf("Error processing %s: %s", o.URL, o.Err)
	}
}
