package translation

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/voxlate/voxlate-go/core/audio"
	"github.com/voxlate/voxlate-go/core/transport"
	"github.com/voxlate/voxlate-go/core/wire"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
)

// UtteranceChange is one per-utterance display update.
type UtteranceChange struct {
	ArrayIndex int
	Display    UtteranceDisplay
}

// Client owns the lifecycle of one translation session: it establishes
// the transport, correlates configuration requests to their ready
// acknowledgements, queues outbound messages until the control channel
// is writable, and routes every inbound message into its Engine.
type Client struct {
	mu sync.Mutex

	engine    *Engine
	transport transport.Transport

	capture       audio.Capture
	captureSource func() (audio.Capture, error)
	captureOwned  bool

	status       ConnectionStatus
	sessionID    string
	lastError    string
	audioEnabled bool
	closing      bool

	remoteAudio transport.RemoteAudio

	queue    [][]byte
	writable bool

	pending        map[string]chan error
	requestCounter atomic.Int64

	statusListeners    listenerSet[ConnectionStatus]
	errorListeners     listenerSet[string]
	utteranceListeners listenerSet[UtteranceChange]
	languageListeners  listenerSet[[]wire.Language]
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		status:       StatusDisconnected,
		audioEnabled: true,
		pending:      map[string]chan error{},
	}
	c.engine = c.newEngine()

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// newEngine builds a session-scoped engine fanning its notifications
// out to the client's subscribers. Boundary scheduling stays off until
// a remote audio stream provides a usable playback clock.
func (c *Client) newEngine() *Engine {
	return NewEngine(
		WithoutBoundaryScheduling(),
		WithEngineCallbacks(EngineCallbacks{
			OnUtterance: func(arrayIndex int, display UtteranceDisplay) {
				c.utteranceListeners.emit(UtteranceChange{ArrayIndex: arrayIndex, Display: display})
			},
			OnLanguages: func(languages []wire.Language) {
				c.languageListeners.emit(languages)
			},
		}),
	)
}

// Connect establishes the session and resolves once both the remote
// audio handle was received and the transport reports connected.
func (c *Client) Connect(ctx context.Context) (transport.RemoteAudio, error) {
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	c.mu.Lock()
	if c.sessionID != "" || c.status != StatusDisconnected {
		c.mu.Unlock()
		return nil, ErrAlreadyConnected
	}
	if c.transport == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("no transport configured")
	}
	c.status = StatusConnecting
	tr := c.transport
	c.mu.Unlock()
	c.statusListeners.emit(StatusConnecting)

	if err := c.acquireCapture(); err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrMicrophoneAccess, err)
		c.failConnect(span, wrapped)
		return nil, wrapped
	}

	connected := make(chan struct{})
	dropped := make(chan struct{})
	remote := make(chan transport.RemoteAudio, 1)
	var connectedOnce, droppedOnce sync.Once

	info, err := tr.Connect(ctx, transport.Callbacks{
		OnMessage:  c.handleMessage,
		OnWritable: c.handleWritable,
		OnStateChange: func(state transport.State) {
			switch state {
			case transport.StateConnected:
				connectedOnce.Do(func() { close(connected) })
			case transport.StateDisconnected:
				droppedOnce.Do(func() { close(dropped) })
			}
			c.handleTransportState(state)
		},
		OnRemoteAudio: func(a transport.RemoteAudio) {
			select {
			case remote <- a:
			default:
			}
			c.handleRemoteAudio(a)
		},
	})
	if err != nil {
		c.failConnect(span, err)
		return nil, err
	}

	c.mu.Lock()
	c.sessionID = info.SessionID
	c.mu.Unlock()

	select {
	case <-connected:
	case <-dropped:
		err = fmt.Errorf("%w: transport failed during connect", ErrDisconnected)
	case <-ctx.Done():
		err = ctx.Err()
	}

	var audioHandle transport.RemoteAudio
	if err == nil {
		select {
		case audioHandle = <-remote:
		case <-dropped:
			err = fmt.Errorf("%w: transport failed during connect", ErrDisconnected)
		case <-ctx.Done():
			err = ctx.Err()
		}
	}

	if err != nil {
		c.failConnect(span, err)
		return nil, err
	}

	return audioHandle, nil
}

// failConnect reverts a failed Connect attempt: releases acquired
// resources, records the error once, and restores disconnected status.
func (c *Client) failConnect(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	c.teardown()
	c.recordError(err)
	c.setStatus(StatusDisconnected)
}

// Disconnect is idempotent. It rejects every pending configuration
// request, releases the transport and any self-acquired capture, clears
// the outbound queue and tears down the engine.
func (c *Client) Disconnect() {
	c.mu.Lock()
	pending := c.pending
	c.pending = map[string]chan error{}
	c.queue = nil
	c.writable = false
	c.sessionID = ""
	c.remoteAudio = nil
	c.closing = true
	tr := c.transport
	capture, owned := c.capture, c.captureOwned
	if owned {
		c.capture = nil
		c.captureOwned = false
	}
	engine := c.engine
	c.engine = c.newEngine()
	c.mu.Unlock()

	for _, waiter := range pending {
		waiter <- ErrDisconnected
	}
	if capture != nil {
		_ = capture.Stop()
		if owned {
			_ = capture.Close()
		}
	}
	if tr != nil {
		if err := tr.Close(); err != nil {
			logger.Warn("failed to close transport", "error", err)
		}
	}
	engine.Close()

	c.setStatus(StatusDisconnected)
	c.mu.Lock()
	c.closing = false
	c.mu.Unlock()
}

// ConfigureSession sends a configuration request and blocks until the
// matching ready acknowledgement arrives, the session is disconnected,
// or the context ends. Concurrent calls are tracked independently and
// resolve in the order their acknowledgements arrive.
func (c *Client) ConfigureSession(ctx context.Context, opts SessionOptions) error {
	id := strconv.FormatInt(c.requestCounter.Add(1), 10)
	payload, err := wire.Encode(wire.Reset{
		ID:              id,
		LangIn:          opts.LangIn,
		LangOut:         opts.LangOut,
		VoiceID:         opts.VoiceID,
		Glossary:        opts.Glossary,
		ClearHistory:    opts.ClearHistory,
		CanLangSwap:     opts.CanLangSwap,
		DetectLanguages: opts.DetectLanguages,
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	engine := c.engine
	waiter := make(chan error, 1)
	c.pending[id] = waiter
	sendErr := c.sendLocked(payload)
	c.mu.Unlock()

	if opts.ClearHistory {
		engine.Clear()
	}
	if sendErr != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return sendErr
	}

	select {
	case err := <-waiter:
		return err
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return ctx.Err()
	}
}

// sendLocked transmits immediately once the control channel is
// writable; before that, messages queue up and drain exactly once, in
// order, when it opens.
func (c *Client) sendLocked(payload []byte) error {
	if c.writable && c.transport != nil {
		return c.transport.Send(payload)
	}
	c.queue = append(c.queue, payload)
	return nil
}

func (c *Client) handleWritable() {
	c.mu.Lock()
	c.writable = true
	queued := c.queue
	c.queue = nil
	tr := c.transport
	c.mu.Unlock()

	for _, payload := range queued {
		if err := tr.Send(payload); err != nil {
			logger.Warn("failed to send queued message", "error", err)
		}
	}
}

// handleMessage routes one inbound control message. Parse failures are
// logged and swallowed so one malformed message cannot affect the next.
func (c *Client) handleMessage(data []byte) {
	msg, err := wire.Decode(data)
	if err != nil {
		logger.Warn("failed to parse inbound message", "error", err)
		return
	}
	if msg.Kind() == wire.KindUnknown {
		return
	}

	if ready, ok := msg.(wire.Ready); ok && ready.ID != nil {
		c.mu.Lock()
		if waiter, pending := c.pending[*ready.ID]; pending {
			delete(c.pending, *ready.ID)
			waiter <- nil
		}
		c.mu.Unlock()
	}

	c.currentEngine().Apply(msg)
}

func (c *Client) handleTransportState(state transport.State) {
	switch state {
	case transport.StateConnecting:
		c.setStatus(StatusConnecting)
	case transport.StateConnected:
		c.setStatus(StatusConnected)
	case transport.StateDisconnected:
		c.handleTransportFailure()
	}
}

// handleTransportFailure reports an asynchronous transport drop. There
// is no synchronous caller to reject at that point, so it surfaces only
// through the error and status channels, and pending configuration
// requests resolve with ErrDisconnected.
func (c *Client) handleTransportFailure() {
	c.mu.Lock()
	intentional := c.closing || c.status == StatusDisconnected
	pending := c.pending
	c.pending = map[string]chan error{}
	c.sessionID = ""
	c.writable = false
	c.mu.Unlock()

	for _, waiter := range pending {
		waiter <- ErrDisconnected
	}

	if !intentional {
		c.recordError(fmt.Errorf("%w: transport connection lost", ErrDisconnected))
	}
	c.setStatus(StatusDisconnected)
}

func (c *Client) handleRemoteAudio(a transport.RemoteAudio) {
	c.mu.Lock()
	c.remoteAudio = a
	engine := c.engine
	c.mu.Unlock()

	// The remote stream provides the playback clock that speech
	// delimiters are anchored to.
	engine.setBoundaryScheduling(true)
}

func (c *Client) acquireCapture() error {
	c.mu.Lock()
	capture := c.capture
	source := c.captureSource
	enabled := c.audioEnabled
	c.mu.Unlock()

	if capture == nil && source != nil {
		created, err := source()
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.capture = created
		c.captureOwned = true
		c.mu.Unlock()
		capture = created
	}
	if capture == nil || !enabled {
		return nil
	}

	return capture.Start(c.forwardAudio)
}

// forwardAudio pushes captured frames into transports that accept raw
// audio; media-track transports carry audio themselves.
func (c *Client) forwardAudio(frame []byte) {
	c.mu.Lock()
	tr := c.transport
	c.mu.Unlock()

	if sender, ok := tr.(transport.AudioSender); ok {
		if err := sender.SendAudio(frame); err != nil {
			logger.Warn("failed to forward captured audio", "error", err)
		}
	}
}

// teardown releases connection-scoped resources without emitting the
// disconnect notifications; callers decide how to report.
func (c *Client) teardown() {
	c.mu.Lock()
	c.closing = true
	tr := c.transport
	capture, owned := c.capture, c.captureOwned
	if owned {
		c.capture = nil
		c.captureOwned = false
	}
	c.sessionID = ""
	c.remoteAudio = nil
	c.writable = false
	c.queue = nil
	c.mu.Unlock()

	if capture != nil {
		_ = capture.Stop()
		if owned {
			_ = capture.Close()
		}
	}
	if tr != nil {
		_ = tr.Close()
	}

	c.mu.Lock()
	c.closing = false
	c.mu.Unlock()
}

func (c *Client) setStatus(status ConnectionStatus) {
	c.mu.Lock()
	if c.status == status {
		c.mu.Unlock()
		return
	}
	c.status = status
	c.mu.Unlock()

	c.statusListeners.emit(status)
}

func (c *Client) recordError(err error) {
	message := userMessage(err)

	c.mu.Lock()
	c.lastError = message
	c.mu.Unlock()

	c.errorListeners.emit(message)
}

func (c *Client) currentEngine() *Engine {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.engine
}

// Status returns the current connection status.
func (c *Client) Status() ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

// SessionID returns the server-assigned session identifier, empty when
// no session is established.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sessionID
}

// LastError returns the most recent user-presentable error message.
func (c *Client) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastError
}

// RemoteAudio returns the remote audio handle, nil before one arrived.
func (c *Client) RemoteAudio() transport.RemoteAudio {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.remoteAudio
}

// AudioEnabled reports whether microphone capture is active.
func (c *Client) AudioEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.audioEnabled
}

// SetAudioEnabled toggles microphone capture without ending the
// session.
func (c *Client) SetAudioEnabled(enabled bool) error {
	c.mu.Lock()
	c.audioEnabled = enabled
	capture := c.capture
	c.mu.Unlock()

	if capture == nil {
		return nil
	}
	if enabled {
		return capture.Start(c.forwardAudio)
	}
	return capture.Stop()
}

// CurrentState returns the full display snapshot.
func (c *Client) CurrentState() State {
	return c.currentEngine().State()
}

// OnUtteranceChanged subscribes to per-utterance display updates and
// returns the unsubscribe handle.
func (c *Client) OnUtteranceChanged(listener func(UtteranceChange)) func() {
	return c.utteranceListeners.add(listener)
}

// OnLanguagesChanged subscribes to identified-language updates.
func (c *Client) OnLanguagesChanged(listener func([]wire.Language)) func() {
	return c.languageListeners.add(listener)
}

// OnStatusChanged subscribes to connection status transitions. Each
// transition notifies exactly once.
func (c *Client) OnStatusChanged(listener func(ConnectionStatus)) func() {
	return c.statusListeners.add(listener)
}

// OnError subscribes to user-presentable error messages.
func (c *Client) OnError(listener func(string)) func() {
	return c.errorListeners.add(listener)
}
