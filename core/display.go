package translation

import (
	"strings"

	"github.com/jinzhu/copier"
	"github.com/voxlate/voxlate-go/core/wire"
)

// SideDisplay is the render-ready view of one side (transcription or
// translation) of an utterance: the text split at the speech boundary
// plus copies of the underlying word lists.
type SideDisplay struct {
	SpokenText   string
	UnspokenText string
	Complete     []wire.Word
	Partial      []wire.Word
}

// UtteranceDisplay pairs both sides of one utterance.
type UtteranceDisplay struct {
	Transcription SideDisplay
	Translation   SideDisplay
}

// State is the full recomputable display snapshot: one display per
// transcription-ledger position plus the identified-language list.
type State struct {
	Utterances []UtteranceDisplay
	Languages  []wire.Language
}

// UtteranceDisplayAt recomputes the display for one array position. An
// index with no data yields empty strings and empty word lists.
func (e *Engine) UtteranceDisplayAt(arrayIndex int) UtteranceDisplay {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.displayLocked(arrayIndex)
}

// State recomputes the full display snapshot. Callers receive copies,
// never references into the live ledgers.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := State{
		Utterances: make([]UtteranceDisplay, e.transcription.len()),
		Languages:  append([]wire.Language(nil), e.identifiedLanguages...),
	}
	for i := range state.Utterances {
		state.Utterances[i] = e.displayLocked(i)
	}
	return state
}

func (e *Engine) displayLocked(arrayIndex int) UtteranceDisplay {
	display := UtteranceDisplay{
		Transcription: emptySideDisplay(),
		Translation:   emptySideDisplay(),
	}

	// Translation entries correlate to transcription entries by server
	// index, never by shared array position; the two ledgers populate
	// independently. Before the transcription entry exists the array
	// index itself stands in for the server index.
	matchIndex := arrayIndex
	if entry, ok := e.transcription.at(arrayIndex); ok {
		matchIndex = entry.serverIndex
		display.Transcription = sideDisplay(entry, arrayIndex, e.transcriptionBoundary)
	}
	if entry, ok := e.translation.lookup(matchIndex); ok {
		display.Translation = sideDisplay(entry, arrayIndex, e.translationBoundary)
	}

	return display
}

// sideDisplay walks every character of the entry's words (complete then
// partial) and splits them into spoken and unspoken text around the
// boundary. The boundary's utterance coordinate is in transcription
// array positions, as is arrayIndex.
func sideDisplay(entry *utterance, arrayIndex int, boundary Position) SideDisplay {
	var spoken, unspoken strings.Builder

	wordIndex := 0
	split := func(words []wire.Word) {
		for _, word := range words {
			for charIndex, char := range []rune(word.Text) {
				position := Position{Utterance: arrayIndex, Word: wordIndex, Char: charIndex}
				if position.Less(boundary) {
					spoken.WriteRune(char)
				} else {
					unspoken.WriteRune(char)
				}
			}
			wordIndex++
		}
	}
	split(entry.complete)
	split(entry.partial)

	display := SideDisplay{
		SpokenText:   spoken.String(),
		UnspokenText: unspoken.String(),
		Complete:     []wire.Word{},
		Partial:      []wire.Word{},
	}
	_ = copier.Copy(&display.Complete, &entry.complete)
	_ = copier.Copy(&display.Partial, &entry.partial)
	return display
}

func emptySideDisplay() SideDisplay {
	return SideDisplay{Complete: []wire.Word{}, Partial: []wire.Word{}}
}
