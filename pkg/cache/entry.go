package cache

import (
	"time"
)

// Status is the fetch state of a query entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is the cached state of one query. Entries returned by the cache are
// copies; only QueryCache mutates the stored ones.
type Entry struct {
	Key    Key
	Status Status

	// Value is the last successful result. It survives later failures.
	Value any

	// Err is the error of the latest failed fetch.
	Err error

	// FetchedAt is when Value was stored
	FetchedAt time.Time

	// Stale is set by an invalidation and cleared by the next current write
	Stale bool

	invalidatedAt uint64
	settledAt     uint64
	hasValue      bool
}

// HasValue reports whether a successful result was ever stored.
func (e Entry) HasValue() bool {
	return e.hasValue
}

// IsFresh reports whether the entry holds a value that was not invalidated.
func (e Entry) IsFresh() bool {
	return e.hasValue && !e.Stale
}

// Age returns the time since the value was fetched.
// Returns 0 if no value was ever stored.
func (e Entry) Age() time.Duration {
	if !e.hasValue {
		return 0
	}
	return time.Since(e.FetchedAt)
}
