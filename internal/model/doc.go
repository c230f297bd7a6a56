package model

// Package model defines domain data structures shared across the app:
// playlist entities, job specifications, per-video outcomes, and the final
// run summary. Types are plain data; behavior lives in the services.
