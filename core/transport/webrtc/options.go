package webrtc

import (
	"net/http"

	pion "github.com/pion/webrtc/v4"
	"github.com/voxlate/voxlate-go/core/audio"
)

type Option func(*Transport)

// WithEndpoint sets the session handshake URL.
func WithEndpoint(endpoint string) Option {
	return func(t *Transport) {
		t.endpoint = endpoint
	}
}

// WithAPIKey authenticates the handshake with an API key header.
func WithAPIKey(apiKey string) Option {
	return func(t *Transport) {
		t.apiKey = apiKey
	}
}

// WithBearerToken authenticates the handshake with a bearer token.
func WithBearerToken(token string) Option {
	return func(t *Transport) {
		t.bearerToken = token
	}
}

// WithConversationID pins the conversation identifier instead of
// generating one.
func WithConversationID(id string) Option {
	return func(t *Transport) {
		t.conversationID = id
	}
}

// WithName labels the session on the server side.
func WithName(name string) Option {
	return func(t *Transport) {
		t.name = name
	}
}

// WithLocalTrack attaches a caller-prepared local audio track to the
// peer connection.
func WithLocalTrack(track pion.TrackLocal) Option {
	return func(t *Transport) {
		t.localTrack = track
	}
}

// WithICEServers overrides the default ICE server list.
func WithICEServers(servers []pion.ICEServer) Option {
	return func(t *Transport) {
		t.iceServers = servers
	}
}

// WithEncoding declares the capture/playback sample rates announced in
// the handshake.
func WithEncoding(input, output audio.EncodingInfo) Option {
	return func(t *Transport) {
		t.inputEncoding = input
		t.outputEncoding = output
	}
}

// WithHTTPClient overrides the handshake HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) {
		t.httpClient = client
	}
}
