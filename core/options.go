package translation

import (
	"github.com/voxlate/voxlate-go/core/audio"
	"github.com/voxlate/voxlate-go/core/transport"
)

type Option func(*Client)

// WithTransport wires the transport that carries the control channel
// and the audio session.
func WithTransport(t transport.Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithAudioCapture supplies a caller-owned microphone source. The
// client starts and stops it around the session but never closes it.
func WithAudioCapture(capture audio.Capture) Option {
	return func(c *Client) {
		c.capture = capture
		c.captureOwned = false
	}
}

// WithAudioCaptureSource lets the client acquire its own microphone
// source on Connect and release it on Disconnect. Acquisition failure
// surfaces as ErrMicrophoneAccess.
func WithAudioCaptureSource(source func() (audio.Capture, error)) Option {
	return func(c *Client) {
		c.captureSource = source
	}
}

// SessionOptions configure one translation session. They map onto the
// outbound reset message.
type SessionOptions struct {
	LangIn          string
	LangOut         string
	VoiceID         string
	Glossary        []string
	ClearHistory    bool
	CanLangSwap     bool
	DetectLanguages []string
}
