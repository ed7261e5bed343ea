package domain

import "errors"

// Error taxonomy shared by the content store, the access layer, and the
// generation pipeline. Callers match with errors.Is; wrapping adds context.
var (
	// ErrNotFound means the requested path does not exist upstream.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a write presented a stale version token, or a
	// create targeted an existing path.
	ErrConflict = errors.New("version conflict")

	// ErrInvalidPath rejects malformed content paths before any remote call.
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidRequest covers malformed input rejected by this core or by
	// the remote API with a non-conflict 4xx status.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrTransient marks remote unavailability or rate limiting; safe for
	// the caller to retry, never retried internally.
	ErrTransient = errors.New("remote service unavailable")

	// ErrModelParse means the completion service returned output the
	// caller could not extract a structured block from.
	ErrModelParse = errors.New("unparseable model output")

	// ErrForbidden means the acting identity lacks the required role.
	ErrForbidden = errors.New("forbidden")
)
