// Package errkind defines the recoverable failure categories shared across
// the device, mapping, video, and persistence layers. None of these are
// fatal: the affected subsystem stays inactive and the process keeps running.
package errkind

import (
	"github.com/Southclaws/fault/ftag"
)

const (
	// PermissionDenied means microphone or MIDI access was refused.
	// Retry by re-invoking the corresponding initialize operation.
	PermissionDenied ftag.Kind = "permission_denied"

	// UnsupportedCapability means the platform lacks the audio or MIDI API.
	// The feature stays inactive for the session.
	UnsupportedCapability ftag.Kind = "unsupported_capability"

	// UnsupportedFormat rejects a single add-video call whose container or
	// codec is outside the supported set.
	UnsupportedFormat ftag.Kind = "unsupported_format"

	// MetadataLoadFailure rejects a single add-video call for a corrupt or
	// partial file.
	MetadataLoadFailure ftag.Kind = "metadata_load_failure"

	// PersistenceFailure marks a serialize/deserialize error on save, load,
	// or import. In-memory state is left unchanged.
	PersistenceFailure ftag.Kind = "persistence_failure"
)

// Is reports whether err carries the given kind.
func Is(err error, kind ftag.Kind) bool {
	if err == nil {
		return false
	}
	return ftag.Get(err) == kind
}

// IsRecoverable reports whether err is one of the known non-fatal kinds.
func IsRecoverable(err error) bool {
	switch ftag.Get(err) {
	case PermissionDenied, UnsupportedCapability, UnsupportedFormat,
		MetadataLoadFailure, PersistenceFailure:
		return true
	}
	return false
}
