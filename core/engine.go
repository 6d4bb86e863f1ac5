package translation

import (
	"sync"
	"time"

	"github.com/voxlate/voxlate-go/core/wire"
)

// EngineCallbacks push display changes out of the engine. All of them
// are optional and fire outside the engine's lock, after the state
// change that produced them is fully applied.
type EngineCallbacks struct {
	// OnUtterance reports that the display for one array position was
	// recomputed.
	OnUtterance func(arrayIndex int, display UtteranceDisplay)
	// OnLanguages reports a replaced identified-language list.
	OnLanguages func(languages []wire.Language)
	// OnReady reports a ready acknowledgement; id is nil for
	// server-initiated readiness.
	OnReady func(id *string)
}

// Engine ingests control messages for one translation session and
// maintains the canonical utterance ledgers and speech boundaries. It
// reconciles three timelines into one monotonically refined view:
// control messages, text fragments, and the audio playback clock that
// speech delimiters are anchored to.
type Engine struct {
	mu sync.Mutex

	transcription ledger
	translation   ledger

	// Boundary utterance coordinates are transcription array positions;
	// wire targets are mapped on application.
	transcriptionBoundary Position
	translationBoundary   Position

	identifiedLanguages []wire.Language

	// epochStart anchors speech-delimiter times; it restarts on every
	// ready acknowledgement.
	epochStart time.Time
	now        func() time.Time

	scheduling bool
	pending    map[*boundaryTask]struct{}

	readyListeners []func(id *string)

	callbacks EngineCallbacks
	closed    bool
}

type EngineOption func(*Engine)

// WithEngineCallbacks wires change notifications.
func WithEngineCallbacks(callbacks EngineCallbacks) EngineOption {
	return func(e *Engine) {
		e.callbacks = callbacks
	}
}

// WithoutBoundaryScheduling makes speech delimiters apply immediately
// instead of waiting for their audio-clock deadline. Used when no
// playback clock is available.
func WithoutBoundaryScheduling() EngineOption {
	return func(e *Engine) {
		e.scheduling = false
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		now:        time.Now,
		scheduling: true,
		pending:    map[*boundaryTask]struct{}{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.epochStart = e.now()
	return e
}

// Apply ingests one inbound message and emits the change notifications
// it produced. Unknown and outbound kinds are ignored.
func (e *Engine) Apply(msg wire.Message) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	notify := e.applyLocked(msg)
	e.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
}

func (e *Engine) applyLocked(msg wire.Message) []func() {
	switch m := msg.(type) {
	case wire.Transcription:
		return e.applyTranscriptionLocked(m)
	case wire.Translation:
		return e.applyTranslationLocked(m)
	case wire.SpeechDelimiter:
		return e.scheduleBoundaryLocked(m)
	case wire.Ready:
		return e.applyReadyLocked(m)
	case wire.Languages:
		return e.applyLanguagesLocked(m)
	}
	return nil
}

func (e *Engine) applyTranscriptionLocked(m wire.Transcription) []func() {
	arrayIndex := e.transcription.merge(m.UtteranceIndex, m.Complete, m.Partial)
	return e.utteranceNotificationLocked(arrayIndex)
}

func (e *Engine) applyTranslationLocked(m wire.Translation) []func() {
	// Partial-only translation fragments produce no visible or stored
	// effect.
	if len(m.Complete) == 0 {
		return nil
	}

	e.translation.merge(m.UtteranceIndex, m.Complete, m.Partial)

	arrayIndex, ok := e.transcription.positionOf(m.UtteranceIndex)
	if !ok {
		// No transcription entry for this index yet; the raw index
		// stands in as the array position for notification purposes.
		arrayIndex = m.UtteranceIndex
	}
	return e.utteranceNotificationLocked(arrayIndex)
}

func (e *Engine) applyReadyLocked(m wire.Ready) []func() {
	// A new epoch: delimiters scheduled against the previous audio
	// clock origin must not fire into the new one. Ledgers, boundaries
	// and identified languages survive; only Clear discards them.
	e.epochStart = e.now()
	e.cancelScheduledLocked()

	listeners := e.readyListeners
	e.readyListeners = nil

	onReady := e.callbacks.OnReady
	return []func(){func() {
		if onReady != nil {
			onReady(m.ID)
		}
		for _, listener := range listeners {
			listener(m.ID)
		}
	}}
}

func (e *Engine) applyLanguagesLocked(m wire.Languages) []func() {
	e.identifiedLanguages = append([]wire.Language(nil), m.Languages...)

	if e.callbacks.OnLanguages == nil {
		return nil
	}
	onLanguages := e.callbacks.OnLanguages
	languages := append([]wire.Language(nil), e.identifiedLanguages...)
	return []func(){func() { onLanguages(languages) }}
}

func (e *Engine) utteranceNotificationLocked(arrayIndex int) []func() {
	if e.callbacks.OnUtterance == nil {
		return nil
	}
	onUtterance := e.callbacks.OnUtterance
	display := e.displayLocked(arrayIndex)
	return []func(){func() { onUtterance(arrayIndex, display) }}
}

// OnNextReady registers a one-shot listener for the next ready
// acknowledgement. It is deregistered automatically after firing.
func (e *Engine) OnNextReady(listener func(id *string)) {
	if listener == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.readyListeners = append(e.readyListeners, listener)
}

// IdentifiedLanguages returns a copy of the current identified-language
// list.
func (e *Engine) IdentifiedLanguages() []wire.Language {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]wire.Language(nil), e.identifiedLanguages...)
}

// Clear performs an explicit session reset: ledgers emptied, boundaries
// reset to the origin, identified languages dropped, scheduled boundary
// work cancelled and the epoch restarted.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	e.transcription.clear()
	e.translation.clear()
	e.transcriptionBoundary = Position{}
	e.translationBoundary = Position{}
	e.identifiedLanguages = nil
	e.cancelScheduledLocked()
	e.epochStart = e.now()
}

// Close tears the engine down, cancelling all scheduled boundary work
// and dropping one-shot listeners. Applying messages afterwards is a
// no-op.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	e.closed = true
	e.cancelScheduledLocked()
	e.readyListeners = nil
}

func (e *Engine) setBoundaryScheduling(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.scheduling = enabled
}
