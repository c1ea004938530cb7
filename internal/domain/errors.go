package domain

import "errors"

// Error taxonomy shared across the core. Components wrap these sentinels
// with fmt.Errorf("...: %w", ...) and callers branch with errors.Is.
var (
	// ErrUnauthorized means the caller presented no usable identity.
	// Surfaced before any remote work starts.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound means the requested chatbot scope does not exist.
	ErrNotFound = errors.New("chatbot not found")

	// ErrInvalidInput covers malformed boundary input: empty uploads,
	// histories with unknown roles, inquiries without an email.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageUnavailable means a vector index upsert failed during
	// ingestion. The document stays un-indexed; retry is a user action.
	ErrStorageUnavailable = errors.New("vector index unavailable")

	// ErrGenerationFailed means the generation backend timed out, errored
	// or produced a malformed completion. Fatal to the turn: there is no
	// meaningful fallback reply without the model.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrEscalationFailed means an inquiry could not be recorded. The
	// escalation form stays open so the user can retry.
	ErrEscalationFailed = errors.New("escalation failed")
)
