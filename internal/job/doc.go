package job

// Package job implements the end-to-end playlist download run: destination
// preparation, playlist resolution, bounded fan-out of per-video fetches,
// and serialized progress reporting back to the caller.
