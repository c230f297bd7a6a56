package fetch

// Package fetch downloads the best available audio-only stream for a single
// video and converts it to the requested format. It is the unit of
// concurrent work: every call produces exactly one Outcome and errors never
// cross the boundary as panics or returned errors.
