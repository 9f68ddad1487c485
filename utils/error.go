package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// Engine error taxonomy. Wrap with fmt.Errorf("...: %w", Err...) so callers
// can branch with errors.Is without string matching.
var (
	// ErrStorageUnavailable means the local durable store cannot be read or
	// written (quota, corruption, locked file). Non-fatal: mutations still
	// apply in memory, durability degrades to session-only.
	ErrStorageUnavailable = errors.New("local storage unavailable")

	// ErrRemoteWriteFailed is any transport, schema or validation failure on a
	// remote write. Triggers queueing, never a user-facing failure.
	ErrRemoteWriteFailed = errors.New("remote write failed")

	// ErrRemoteReadFailed is the read-side counterpart; triggers cache fallback.
	ErrRemoteReadFailed = errors.New("remote read failed")

	// ErrSchemaUnresolved means every candidate backing schema failed probing.
	// Surfaced when a real operation runs against the defaulted schema, not at
	// probe time.
	ErrSchemaUnresolved = errors.New("backing schema unresolved")
)

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
