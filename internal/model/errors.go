package model

import "errors"

var (
	// ErrNotFound covers both "entry does not exist" and "entry exists under a
	// different owner". Callers must not be able to tell the two apart.
	ErrNotFound = errors.New("not found")

	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")

	// ErrDuplicateID is returned by Index.Insert when the id is already present.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrIndexInconsistency signals that the record store and the vector index
	// diverged. Retryable; the reindex worker repairs it from the record store.
	ErrIndexInconsistency = errors.New("index inconsistency")

	// ErrUpstreamUnavailable wraps embedding/transcription/summarization
	// provider failures. Safe to retry.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
