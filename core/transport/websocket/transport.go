// Package websocket carries the translation session over a single
// socket: text frames for control messages, binary frames for audio in
// both directions.
package websocket

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/voxlate/voxlate-go/core/audio"
	"github.com/voxlate/voxlate-go/core/transport"
)

// AudioStream is the remote audio handle for this transport: the
// decoded server audio arrives as binary frames on Frames.
type AudioStream struct {
	frames chan []byte
}

func (s *AudioStream) Frames() <-chan []byte {
	return s.frames
}

type Transport struct {
	endpoint       string
	apiKey         string
	bearerToken    string
	conversationID string
	name           string
	inputEncoding  audio.EncodingInfo
	outputEncoding audio.EncodingInfo

	conn   *websocket.Conn
	connMu sync.Mutex
}

type Option func(*Transport)

func WithEndpoint(endpoint string) Option {
	return func(t *Transport) { t.endpoint = endpoint }
}

func WithAPIKey(apiKey string) Option {
	return func(t *Transport) { t.apiKey = apiKey }
}

func WithBearerToken(token string) Option {
	return func(t *Transport) { t.bearerToken = token }
}

func WithConversationID(id string) Option {
	return func(t *Transport) { t.conversationID = id }
}

func WithName(name string) Option {
	return func(t *Transport) { t.name = name }
}

func WithEncoding(input, output audio.EncodingInfo) Option {
	return func(t *Transport) {
		t.inputEncoding = input
		t.outputEncoding = output
	}
}

func New(opts ...Option) *Transport {
	t := &Transport{
		inputEncoding:  audio.GetDefaultEncodingInfo(),
		outputEncoding: audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.apiKey == "" && t.bearerToken == "" {
		if apiKey, ok := os.LookupEnv("VOXLATE_API_KEY"); ok {
			t.apiKey = apiKey
		}
	}
	return t
}

func (t *Transport) Connect(ctx context.Context, callbacks transport.Callbacks) (transport.SessionInfo, error) {
	if t.apiKey == "" && t.bearerToken == "" {
		return transport.SessionInfo{}, transport.ErrMissingCredentials
	}

	sessionURL, err := url.Parse(t.endpoint)
	if err != nil {
		return transport.SessionInfo{}, fmt.Errorf("invalid endpoint: %w", err)
	}

	conversationID := t.conversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	query := sessionURL.Query()
	query.Set("input_sample_rate", strconv.Itoa(t.inputEncoding.SampleRate))
	query.Set("output_sample_rate", strconv.Itoa(t.outputEncoding.SampleRate))
	query.Set("conversation_id", conversationID)
	if t.name != "" {
		query.Set("name", t.name)
	}
	sessionURL.RawQuery = query.Encode()

	header := http.Header{}
	if t.apiKey != "" {
		header.Set("X-API-Key", t.apiKey)
	} else {
		header.Set("Authorization", "Bearer "+t.bearerToken)
	}

	conn, response, err := websocket.DefaultDialer.DialContext(ctx, sessionURL.String(), header)
	if err != nil {
		if response != nil {
			switch response.StatusCode {
			case http.StatusUnauthorized:
				return transport.SessionInfo{}, transport.ErrAuthentication
			case http.StatusForbidden:
				return transport.SessionInfo{}, transport.ErrAccessDenied
			}
			return transport.SessionInfo{}, fmt.Errorf("%w: status %d", transport.ErrServerRejected, response.StatusCode)
		}
		return transport.SessionInfo{}, fmt.Errorf("failed to open socket connection: %w", err)
	}

	t.connMu.Lock()
	t.conn = conn
	t.connMu.Unlock()

	if callbacks.OnStateChange != nil {
		callbacks.OnStateChange(transport.StateConnected)
	}
	if callbacks.OnWritable != nil {
		callbacks.OnWritable()
	}

	go t.readAndProcessMessages(conn, callbacks)

	return transport.SessionInfo{SessionID: conversationID}, nil
}

func (t *Transport) readAndProcessMessages(conn *websocket.Conn, callbacks transport.Callbacks) {
	var stream *AudioStream

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Println("Failed to read websocket message", "error", err)
			}

			t.connMu.Lock()
			if t.conn == conn {
				t.conn = nil
			}
			t.connMu.Unlock()
			conn.Close()

			if stream != nil {
				close(stream.frames)
			}
			if callbacks.OnStateChange != nil {
				callbacks.OnStateChange(transport.StateDisconnected)
			}
			return
		}

		switch msgType {
		case websocket.TextMessage:
			if callbacks.OnMessage != nil {
				callbacks.OnMessage(msg)
			}
		case websocket.BinaryMessage:
			if stream == nil {
				stream = &AudioStream{frames: make(chan []byte, 64)}
				if callbacks.OnRemoteAudio != nil {
					callbacks.OnRemoteAudio(stream)
				}
			}
			select {
			case stream.frames <- msg:
			default:
				// Slow consumers drop frames rather than stall the
				// control channel.
			}
		}
	}
}

func (t *Transport) Send(payload []byte) error {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	if t.conn == nil {
		return fmt.Errorf("connection is not open")
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("failed to write control message: %w", err)
	}
	return nil
}

func (t *Transport) SendAudio(frame []byte) error {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	if t.conn == nil {
		return fmt.Errorf("connection is not open")
	}
	if err := t.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("failed to write audio frame: %w", err)
	}
	return nil
}

func (t *Transport) Close() error {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	if t.conn == nil {
		return nil
	}
	err := t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if closeErr := t.conn.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	t.conn = nil
	return err
}
