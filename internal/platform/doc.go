package platform

// Package platform contains local filesystem glue: filename sanitation,
// destination directory management, and cleanup of temporary files left
// behind by interrupted runs.
