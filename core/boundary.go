package translation

import (
	"time"

	"github.com/voxlate/voxlate-go/core/wire"
)

// boundaryTask is one deferred speech-delimiter application. Membership
// in Engine.pending decides whether a fired timer may still apply;
// cancellation removes the task and stops its timer.
type boundaryTask struct {
	timer *time.Timer
}

// scheduleBoundaryLocked defers the delimiter to its audio-clock
// deadline (epoch start plus the delimiter's time). A deadline already
// passed, or an engine without a playback clock, applies immediately.
func (e *Engine) scheduleBoundaryLocked(m wire.SpeechDelimiter) []func() {
	deadline := e.epochStart.Add(time.Duration(m.Time * float64(time.Second)))
	delay := deadline.Sub(e.now())
	if !e.scheduling || delay <= 0 {
		return e.applyBoundaryLocked(m)
	}

	task := &boundaryTask{}
	task.timer = time.AfterFunc(delay, func() {
		e.finishBoundaryTask(task, m)
	})
	e.pending[task] = struct{}{}
	return nil
}

func (e *Engine) finishBoundaryTask(task *boundaryTask, m wire.SpeechDelimiter) {
	e.mu.Lock()
	if _, ok := e.pending[task]; !ok || e.closed {
		e.mu.Unlock()
		return
	}
	delete(e.pending, task)
	notify := e.applyBoundaryLocked(m)
	e.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
}

func (e *Engine) cancelScheduledLocked() {
	for task := range e.pending {
		task.timer.Stop()
	}
	clear(e.pending)
}

// applyBoundaryLocked atomically replaces both boundaries and recomputes
// the display for every array position between the lowest and highest
// utterance coordinate involved. That conservatively covers every
// utterance whose spoken/unspoken split could have changed, including
// ones the boundary jumped over entirely.
func (e *Engine) applyBoundaryLocked(m wire.SpeechDelimiter) []func() {
	oldTranscription := e.transcriptionBoundary
	oldTranslation := e.translationBoundary

	newTranscription := e.resolveTargetLocked(m.Transcription)
	newTranslation := e.resolveTargetLocked(m.Translation)

	// A late-firing delimiter must never move displayed text backwards.
	if newTranscription.Less(oldTranscription) {
		newTranscription = oldTranscription
	}
	if newTranslation.Less(oldTranslation) {
		newTranslation = oldTranslation
	}

	e.transcriptionBoundary = newTranscription
	e.translationBoundary = newTranslation

	if e.callbacks.OnUtterance == nil {
		return nil
	}

	lo := min(oldTranscription.Utterance, newTranscription.Utterance,
		oldTranslation.Utterance, newTranslation.Utterance)
	hi := max(oldTranscription.Utterance, newTranscription.Utterance,
		oldTranslation.Utterance, newTranslation.Utterance)

	onUtterance := e.callbacks.OnUtterance
	notify := make([]func(), 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		arrayIndex := i
		display := e.displayLocked(arrayIndex)
		notify = append(notify, func() { onUtterance(arrayIndex, display) })
	}
	return notify
}

// resolveTargetLocked converts a wire boundary target (server-assigned
// utterance index) into array-position coordinates. An index the
// transcription ledger does not hold yet degrades to the raw index.
func (e *Engine) resolveTargetLocked(target wire.BoundaryTarget) Position {
	arrayIndex, ok := e.transcription.positionOf(target.UtteranceIndex)
	if !ok {
		arrayIndex = target.UtteranceIndex
	}
	return Position{Utterance: arrayIndex, Word: target.WordIndex, Char: target.CharIndex}
}
