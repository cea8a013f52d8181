package shared

import (
	"context"
	"fmt"
)

// KeyValueStore is the durable string-keyed store behind snapshot repositories.
type KeyValueStore interface {
	// Get returns the payload stored under key and whether it existed
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set replaces the payload stored under key
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}

// WriteOutcome tells the caller how far a mutating repository call got
type WriteOutcome string

const (
	// WriteFailed means nothing changed
	WriteFailed WriteOutcome = "failed"
	// WriteInMemory means the in-memory collection changed but the durable write failed
	WriteInMemory WriteOutcome = "in_memory"
	// WriteDurable means both the in-memory collection and the durable store changed
	WriteDurable WriteOutcome = "durable"
)

// WriteResult is returned by every mutating repository call
type WriteResult struct {
	Outcome WriteOutcome
	Err     error
}

// Durable reports whether the write reached the durable store
func (r WriteResult) Durable() bool {
	return r.Outcome == WriteDurable
}

// Committed reports whether the in-memory collection was changed
func (r WriteResult) Committed() bool {
	return r.Outcome == WriteDurable || r.Outcome == WriteInMemory
}

// String implements fmt.Stringer
func (r WriteResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %v", r.Outcome, r.Err)
	}
	return string(r.Outcome)
}

// Durable builds a successful WriteResult
func Durable() WriteResult {
	return WriteResult{Outcome: WriteDurable}
}

// InMemory builds a WriteResult for a write that could not be persisted
func InMemory(err error) WriteResult {
	return WriteResult{Outcome: WriteInMemory, Err: err}
}

// Failed builds a WriteResult for a rejected write
func Failed(err error) WriteResult {
	return WriteResult{Outcome: WriteFailed, Err: err}
}
