// Package errs holds the sentinel errors returned by the dictionary codec
// core. Call sites wrap a sentinel with fmt.Errorf("%w: ...", ...) to attach
// context; callers compare with errors.Is.
package errs

import "errors"

var (
	// ErrInputUnavailable is returned when the input path cannot be opened
	// or read.
	ErrInputUnavailable = errors.New("input unavailable")

	// ErrDictionaryFull is returned when an insert would exceed the
	// configured capacity ceiling.
	ErrDictionaryFull = errors.New("dictionary full")

	// ErrPersistenceCorrupt is returned when a persisted image fails
	// structural validation: identifier out of range, truncated record,
	// decompression failure, or a checksum mismatch.
	ErrPersistenceCorrupt = errors.New("persistence image corrupt")

	// ErrInvalidConfig is returned when a functional option receives an
	// out-of-range or otherwise invalid value.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrWorkerFailed is returned when a Builder worker task fails; the
	// build as a whole is unusable afterwards.
	ErrWorkerFailed = errors.New("worker task failed")

	// ErrUnsupported is returned by operations that require state the
	// caller opted out of, such as baseline search without retained
	// originals.
	ErrUnsupported = errors.New("unsupported without required configuration")

	// ErrClosed identifies a Builder that has already failed or been
	// discarded. No function in this module returns it; build.Build reports
	// its failures through the other sentinels.
	ErrClosed = errors.New("builder discarded after failure")
)
