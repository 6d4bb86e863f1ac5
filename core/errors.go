package translation

import (
	"errors"

	"github.com/voxlate/voxlate-go/core/transport"
)

var (
	// ErrMicrophoneAccess means local audio capture was denied or
	// unavailable. Terminal for that Connect call.
	ErrMicrophoneAccess = errors.New("microphone access failed")
	// ErrAlreadyConnected means Connect was called while a session is
	// active.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrDisconnected rejects in-flight configuration requests when the
	// session is torn down before their acknowledgement arrives.
	ErrDisconnected = errors.New("disconnected")
)

// Handshake failures originate in the transport; re-exported here so
// callers have the full taxonomy in one place.
var (
	ErrMissingCredentials = transport.ErrMissingCredentials
	ErrAuthentication     = transport.ErrAuthentication
	ErrAccessDenied       = transport.ErrAccessDenied
	ErrServerRejected     = transport.ErrServerRejected
)

// userMessage maps an error to the stable, user-presentable message
// published on the error event channel.
func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrMicrophoneAccess):
		return "Microphone access was denied or is unavailable."
	case errors.Is(err, ErrMissingCredentials):
		return "No API key or access token is configured."
	case errors.Is(err, ErrAuthentication):
		return "Authentication failed. Check your credentials."
	case errors.Is(err, ErrAccessDenied):
		return "Access to the translation service was denied."
	case errors.Is(err, ErrServerRejected):
		return "The translation service rejected the session request."
	case errors.Is(err, ErrAlreadyConnected):
		return "A session is already active."
	case errors.Is(err, ErrDisconnected):
		return "The session was disconnected."
	}
	return "The connection to the translation service failed."
}
