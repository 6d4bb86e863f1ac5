package translation

import (
	"testing"
	"time"

	"github.com/voxlate/voxlate-go/core/wire"
)

func strPtr(s string) *string { return &s }

func newImmediateEngine(opts ...EngineOption) *Engine {
	return NewEngine(append([]EngineOption{WithoutBoundaryScheduling()}, opts...)...)
}

func TestEngineConcatenatesCompleteWordsForOneUtterance(t *testing.T) {
	engine := newImmediateEngine()

	engine.Apply(wire.Transcription{Complete: words("hello"), UtteranceIndex: 0})
	engine.Apply(wire.Transcription{Complete: words("world"), UtteranceIndex: 0})

	state := engine.State()
	if len(state.Utterances) != 1 {
		t.Fatalf("expected one utterance, got %d", len(state.Utterances))
	}
	complete := state.Utterances[0].Transcription.Complete
	if len(complete) != 2 || complete[0].Text != "hello" || complete[1].Text != "world" {
		t.Fatalf("expected complete words [hello world], got %+v", complete)
	}
}

func TestEnginePartialWordsAreReplacedByEachFragment(t *testing.T) {
	engine := newImmediateEngine()

	engine.Apply(wire.Transcription{Partial: words("he"), UtteranceIndex: 0})
	engine.Apply(wire.Transcription{Partial: words("hello", "wo"), UtteranceIndex: 0})

	display := engine.UtteranceDisplayAt(0)
	partial := display.Transcription.Partial
	if len(partial) != 2 || partial[0].Text != "hello" || partial[1].Text != "wo" {
		t.Fatalf("expected partial words from the last fragment only, got %+v", partial)
	}
}

func TestEngineTranscriptionPartialOnlyFragmentCreatesEntry(t *testing.T) {
	engine := newImmediateEngine()

	engine.Apply(wire.Transcription{Partial: words("he"), UtteranceIndex: 0})

	if got := len(engine.State().Utterances); got != 1 {
		t.Fatalf("expected a partial-only transcription to materialize an entry, got %d entries", got)
	}
}

func TestEngineTranslationPartialOnlyFragmentIsDropped(t *testing.T) {
	notified := 0
	engine := newImmediateEngine(WithEngineCallbacks(EngineCallbacks{
		OnUtterance: func(int, UtteranceDisplay) { notified++ },
	}))

	engine.Apply(wire.Translation{Partial: words("hal"), UtteranceIndex: 0})

	engine.mu.Lock()
	entries := engine.translation.len()
	engine.mu.Unlock()
	if entries != 0 {
		t.Fatalf("expected no translation ledger entry, got %d", entries)
	}
	if notified != 0 {
		t.Fatalf("expected no change notification, got %d", notified)
	}
}

func TestEngineTranslationMatchesTranscriptionByServerIndex(t *testing.T) {
	engine := newImmediateEngine()

	engine.Apply(wire.Transcription{Complete: words("hello"), UtteranceIndex: 0})
	engine.Apply(wire.Transcription{Complete: words("world"), UtteranceIndex: 2})
	engine.Apply(wire.Translation{Complete: words("hallo"), UtteranceIndex: 0})
	engine.Apply(wire.Translation{Complete: words("welt"), UtteranceIndex: 2})

	state := engine.State()
	if len(state.Utterances) != 2 {
		t.Fatalf("expected exactly 2 utterances, got %d", len(state.Utterances))
	}
	if got := state.Utterances[0].Translation.Complete; len(got) != 1 || got[0].Text != "hallo" {
		t.Fatalf("expected translation %q at position 0, got %+v", "hallo", got)
	}
	if got := state.Utterances[1].Translation.Complete; len(got) != 1 || got[0].Text != "welt" {
		t.Fatalf("expected translation %q at position 1, got %+v", "welt", got)
	}
}

func TestEngineTranslationBeforeTranscriptionFallsBackToRawIndex(t *testing.T) {
	var notifiedIndex int
	engine := newImmediateEngine(WithEngineCallbacks(EngineCallbacks{
		OnUtterance: func(arrayIndex int, _ UtteranceDisplay) { notifiedIndex = arrayIndex },
	}))

	engine.Apply(wire.Translation{Complete: words("hallo"), UtteranceIndex: 3})

	if notifiedIndex != 3 {
		t.Fatalf("expected notification for raw index 3, got %d", notifiedIndex)
	}
}

func TestEngineBoundarySplitsWordAcrossIndexGap(t *testing.T) {
	engine := newImmediateEngine()

	engine.Apply(wire.Transcription{Complete: words("hello"), UtteranceIndex: 0})
	engine.Apply(wire.Transcription{Complete: words("world"), UtteranceIndex: 2})
	engine.Apply(wire.SpeechDelimiter{
		Transcription: wire.BoundaryTarget{UtteranceIndex: 2, WordIndex: 0, CharIndex: 3},
	})

	first := engine.UtteranceDisplayAt(0)
	if first.Transcription.SpokenText != "hello" || first.Transcription.UnspokenText != "" {
		t.Fatalf("expected the whole first utterance spoken, got spoken=%q unspoken=%q",
			first.Transcription.SpokenText, first.Transcription.UnspokenText)
	}

	second := engine.UtteranceDisplayAt(1)
	if second.Transcription.SpokenText != "wor" || second.Transcription.UnspokenText != "ld" {
		t.Fatalf("expected %q/%q split, got spoken=%q unspoken=%q",
			"wor", "ld", second.Transcription.SpokenText, second.Transcription.UnspokenText)
	}
}

func TestEngineBoundaryCountsWordsAcrossCompleteAndPartial(t *testing.T) {
	engine := newImmediateEngine()

	engine.Apply(wire.Transcription{Complete: words("hello"), Partial: words("world"), UtteranceIndex: 0})
	engine.Apply(wire.SpeechDelimiter{
		Transcription: wire.BoundaryTarget{UtteranceIndex: 0, WordIndex: 1, CharIndex: 2},
	})

	display := engine.UtteranceDisplayAt(0)
	if display.Transcription.SpokenText != "hellowo" {
		t.Fatalf("expected partial words to continue the word numbering, got spoken=%q",
			display.Transcription.SpokenText)
	}
	if display.Transcription.UnspokenText != "rld" {
		t.Fatalf("expected remaining partial text unspoken, got %q", display.Transcription.UnspokenText)
	}
}

func TestEngineDisplayOnEmptyIndexIsEmpty(t *testing.T) {
	engine := newImmediateEngine()

	display := engine.UtteranceDisplayAt(7)

	for name, side := range map[string]SideDisplay{
		"transcription": display.Transcription,
		"translation":   display.Translation,
	} {
		if side.SpokenText != "" || side.UnspokenText != "" {
			t.Fatalf("expected empty %s text, got spoken=%q unspoken=%q", name, side.SpokenText, side.UnspokenText)
		}
		if side.Complete == nil || len(side.Complete) != 0 {
			t.Fatalf("expected empty %s complete list, got %+v", name, side.Complete)
		}
		if side.Partial == nil || len(side.Partial) != 0 {
			t.Fatalf("expected empty %s partial list, got %+v", name, side.Partial)
		}
	}
}

func TestEngineBoundaryNotifiesEveryIndexBetweenOldAndNew(t *testing.T) {
	var notified []int
	engine := newImmediateEngine(WithEngineCallbacks(EngineCallbacks{
		OnUtterance: func(arrayIndex int, _ UtteranceDisplay) { notified = append(notified, arrayIndex) },
	}))

	engine.Apply(wire.Transcription{Complete: words("one"), UtteranceIndex: 0})
	engine.Apply(wire.Transcription{Complete: words("two"), UtteranceIndex: 1})
	engine.Apply(wire.Transcription{Complete: words("three"), UtteranceIndex: 2})
	notified = nil

	engine.Apply(wire.SpeechDelimiter{
		Transcription: wire.BoundaryTarget{UtteranceIndex: 2, WordIndex: 0, CharIndex: 1},
		Translation:   wire.BoundaryTarget{UtteranceIndex: 0},
	})

	if len(notified) != 3 || notified[0] != 0 || notified[1] != 1 || notified[2] != 2 {
		t.Fatalf("expected notifications for positions [0 1 2], got %v", notified)
	}
}

func TestEngineBoundaryNeverMovesBackwards(t *testing.T) {
	engine := newImmediateEngine()

	engine.Apply(wire.Transcription{Complete: words("hello"), UtteranceIndex: 0})
	engine.Apply(wire.SpeechDelimiter{
		Transcription: wire.BoundaryTarget{UtteranceIndex: 0, WordIndex: 0, CharIndex: 4},
	})
	engine.Apply(wire.SpeechDelimiter{
		Transcription: wire.BoundaryTarget{UtteranceIndex: 0, WordIndex: 0, CharIndex: 2},
	})

	display := engine.UtteranceDisplayAt(0)
	if display.Transcription.SpokenText != "hell" {
		t.Fatalf("expected the boundary to hold at char 4, got spoken=%q", display.Transcription.SpokenText)
	}
}

func TestEngineOutOfRangeBoundaryDegradesGracefully(t *testing.T) {
	engine := newImmediateEngine()

	engine.Apply(wire.Transcription{Complete: words("hello"), UtteranceIndex: 0})
	engine.Apply(wire.SpeechDelimiter{
		Transcription: wire.BoundaryTarget{UtteranceIndex: 99, WordIndex: 99, CharIndex: 99},
	})

	display := engine.UtteranceDisplayAt(0)
	if display.Transcription.SpokenText != "hello" {
		t.Fatalf("expected the utterance fully spoken under a far boundary, got %q",
			display.Transcription.SpokenText)
	}
}

func TestEngineSchedulesBoundaryAgainstEpochClock(t *testing.T) {
	engine := NewEngine()
	now := time.Now()
	engine.mu.Lock()
	engine.now = func() time.Time { return now }
	engine.epochStart = now
	engine.mu.Unlock()

	engine.Apply(wire.SpeechDelimiter{
		Time:          60,
		Transcription: wire.BoundaryTarget{UtteranceIndex: 1},
	})

	engine.mu.Lock()
	pending := len(engine.pending)
	boundary := engine.transcriptionBoundary
	engine.mu.Unlock()
	if pending != 1 {
		t.Fatalf("expected one scheduled boundary update, got %d", pending)
	}
	if boundary != (Position{}) {
		t.Fatalf("expected the boundary untouched until the deadline, got %+v", boundary)
	}
}

func TestEnginePastDeadlineBoundaryAppliesImmediately(t *testing.T) {
	engine := NewEngine()
	engine.mu.Lock()
	engine.epochStart = time.Now().Add(-time.Minute)
	engine.mu.Unlock()

	engine.Apply(wire.Transcription{Complete: words("hello"), UtteranceIndex: 0})
	engine.Apply(wire.SpeechDelimiter{
		Time:          1,
		Transcription: wire.BoundaryTarget{UtteranceIndex: 0, WordIndex: 0, CharIndex: 2},
	})

	display := engine.UtteranceDisplayAt(0)
	if display.Transcription.SpokenText != "he" {
		t.Fatalf("expected an already-due boundary to apply synchronously, got spoken=%q",
			display.Transcription.SpokenText)
	}
}

func TestEngineReadyPreservesLedgersAndCancelsScheduledWork(t *testing.T) {
	engine := NewEngine()
	now := time.Now()
	engine.mu.Lock()
	engine.now = func() time.Time { return now }
	engine.epochStart = now
	engine.mu.Unlock()

	engine.Apply(wire.Transcription{Complete: words("hello"), UtteranceIndex: 0})
	engine.Apply(wire.Languages{Languages: []wire.Language{{ShortCode: "en", Name: "English", Probability: 0.9}}})
	engine.Apply(wire.SpeechDelimiter{
		Time:          60,
		Transcription: wire.BoundaryTarget{UtteranceIndex: 0, WordIndex: 0, CharIndex: 3},
	})

	engine.Apply(wire.Ready{ID: strPtr("r1")})

	state := engine.State()
	if len(state.Utterances) != 1 {
		t.Fatalf("expected ready to preserve the ledger, got %d utterances", len(state.Utterances))
	}
	if len(state.Languages) != 1 {
		t.Fatalf("expected ready to preserve identified languages, got %d", len(state.Languages))
	}
	engine.mu.Lock()
	pending := len(engine.pending)
	engine.mu.Unlock()
	if pending != 0 {
		t.Fatalf("expected ready to cancel scheduled boundary updates, got %d pending", pending)
	}
}

func TestEngineOneShotReadyListenerFiresExactlyOnce(t *testing.T) {
	engine := newImmediateEngine()

	var got []string
	engine.OnNextReady(func(id *string) {
		if id != nil {
			got = append(got, *id)
		}
	})

	engine.Apply(wire.Ready{ID: strPtr("r1")})
	engine.Apply(wire.Ready{ID: strPtr("r2")})

	if len(got) != 1 || got[0] != "r1" {
		t.Fatalf("expected the listener to fire once with %q, got %v", "r1", got)
	}
}

func TestEngineClearEmptiesEverything(t *testing.T) {
	engine := newImmediateEngine()

	engine.Apply(wire.Transcription{Complete: words("hello"), UtteranceIndex: 0})
	engine.Apply(wire.Translation{Complete: words("hallo"), UtteranceIndex: 0})
	engine.Apply(wire.Languages{Languages: []wire.Language{{ShortCode: "en"}}})
	engine.Apply(wire.SpeechDelimiter{
		Transcription: wire.BoundaryTarget{UtteranceIndex: 0, WordIndex: 0, CharIndex: 3},
	})

	engine.Clear()

	state := engine.State()
	if len(state.Utterances) != 0 {
		t.Fatalf("expected empty ledgers after clear, got %d utterances", len(state.Utterances))
	}
	if len(state.Languages) != 0 {
		t.Fatalf("expected no identified languages after clear, got %d", len(state.Languages))
	}
	engine.mu.Lock()
	boundary := engine.transcriptionBoundary
	engine.mu.Unlock()
	if boundary != (Position{}) {
		t.Fatalf("expected the boundary back at the origin, got %+v", boundary)
	}
}

func TestEngineLanguagesReplaceWholesale(t *testing.T) {
	var notified [][]wire.Language
	engine := newImmediateEngine(WithEngineCallbacks(EngineCallbacks{
		OnLanguages: func(languages []wire.Language) { notified = append(notified, languages) },
	}))

	engine.Apply(wire.Languages{Languages: []wire.Language{{ShortCode: "en"}, {ShortCode: "de"}}})
	engine.Apply(wire.Languages{Languages: []wire.Language{{ShortCode: "fr"}}})

	languages := engine.IdentifiedLanguages()
	if len(languages) != 1 || languages[0].ShortCode != "fr" {
		t.Fatalf("expected the last list to replace the previous one, got %+v", languages)
	}
	if len(notified) != 2 {
		t.Fatalf("expected two language notifications, got %d", len(notified))
	}
}

func TestEngineIgnoresMessagesAfterClose(t *testing.T) {
	engine := newImmediateEngine()
	engine.Close()

	engine.Apply(wire.Transcription{Complete: words("hello"), UtteranceIndex: 0})

	if got := len(engine.State().Utterances); got != 0 {
		t.Fatalf("expected a closed engine to ignore messages, got %d utterances", got)
	}
}
