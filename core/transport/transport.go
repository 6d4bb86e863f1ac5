// Package transport defines the contract between the session client and
// a concrete control/audio transport. The client only needs to send and
// receive string control messages, observe the connection lifecycle, and
// receive an opaque handle for the remote audio stream; everything else
// (SDP, sockets, codecs) stays inside the implementation.
package transport

import (
	"context"
	"errors"
)

type State string

const (
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
)

// Handshake failures surfaced by implementations. The session client
// re-exports these for its callers.
var (
	ErrMissingCredentials = errors.New("no API key or bearer token configured")
	ErrAuthentication     = errors.New("authentication failed")
	ErrAccessDenied       = errors.New("access denied")
	ErrServerRejected     = errors.New("server rejected the session request")
)

// RemoteAudio is an opaque handle for the remote audio stream. Its
// concrete type depends on the transport: a *webrtc.TrackRemote for the
// WebRTC transport, an *AudioStream for the WebSocket one.
type RemoteAudio any

// Callbacks are invoked from the transport's internal goroutines. All of
// them are optional.
type Callbacks struct {
	// OnMessage delivers one inbound control message.
	OnMessage func(payload []byte)
	// OnWritable fires once the control channel accepts outbound
	// messages.
	OnWritable func()
	// OnStateChange reports connection lifecycle transitions.
	OnStateChange func(state State)
	// OnRemoteAudio delivers the remote audio handle once available.
	OnRemoteAudio func(audio RemoteAudio)
}

// SessionInfo describes the established session.
type SessionInfo struct {
	SessionID string
}

type Transport interface {
	// Connect performs the session handshake and starts delivering
	// callbacks. It returns once the handshake exchange completed; the
	// connected state is reported through OnStateChange.
	Connect(ctx context.Context, callbacks Callbacks) (SessionInfo, error)
	// Send transmits one control message. Implementations must be safe
	// for concurrent use.
	Send(payload []byte) error
	Close() error
}

// AudioSender is implemented by transports that accept raw captured
// audio from the client (the WebSocket transport); WebRTC transports
// carry audio on the media track instead.
type AudioSender interface {
	SendAudio(audio []byte) error
}
