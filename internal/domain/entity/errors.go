package entity

import "errors"

// Domain errors shared by services and repositories. Handlers translate
// them into HTTP statuses; nothing below is transport-aware.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already taken")

	ErrDiaryNotFound   = errors.New("diary not found")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrCommentNotFound = errors.New("comment not found")

	// Like toggles are guarded, not silently idempotent: applying a like
	// twice (or removing one that is not there) is reported to the caller.
	ErrAlreadyLiked = errors.New("already liked")
	ErrNotLiked     = errors.New("not liked")

	// ErrVersionConflict signals a stale optimistic write on the diary
	// aggregate; the service retries a bounded number of times.
	ErrVersionConflict = errors.New("diary version conflict")
)
