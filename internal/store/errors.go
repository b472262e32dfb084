package store

import "errors"

var (
	// ErrRecordNotFound covers both a genuinely missing row and a logically
	// expired token: read paths must not distinguish the two.
	ErrRecordNotFound = errors.New("record not found")

	// ErrCorruptRecord marks stored data that cannot be used (missing token
	// value or expiry). Read paths treat it as not-found; callers log it.
	ErrCorruptRecord = errors.New("corrupt token record")

	// ErrStorage wraps backing-persistence failures so callers can decide
	// whether to retry without matching on driver-specific errors.
	ErrStorage = errors.New("storage failure")
)
