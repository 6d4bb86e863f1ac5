package translation

import "github.com/voxlate/voxlate-go/core/wire"

// utterance is one ledger entry. complete only ever grows; partial is
// replaced wholesale by every fragment.
type utterance struct {
	serverIndex int
	complete    []wire.Word
	partial     []wire.Word
}

// ledger stores utterances in arrival order. Server indices are strictly
// increasing along the sequence but may have gaps, so positions are
// found by lookup rather than used as array indices.
type ledger struct {
	entries []*utterance
}

// merge folds a fragment into the ledger and returns the array position
// it landed on. The server sends entries in non-decreasing index order,
// so a fragment either continues the last entry or opens a new one.
func (l *ledger) merge(serverIndex int, complete, partial []wire.Word) int {
	if n := len(l.entries); n > 0 && l.entries[n-1].serverIndex == serverIndex {
		entry := l.entries[n-1]
		entry.complete = append(entry.complete, complete...)
		entry.partial = append([]wire.Word(nil), partial...)
		return n - 1
	}

	l.entries = append(l.entries, &utterance{
		serverIndex: serverIndex,
		complete:    append([]wire.Word(nil), complete...),
		partial:     append([]wire.Word(nil), partial...),
	})
	return len(l.entries) - 1
}

func (l *ledger) at(arrayIndex int) (*utterance, bool) {
	if arrayIndex < 0 || arrayIndex >= len(l.entries) {
		return nil, false
	}
	return l.entries[arrayIndex], true
}

// positionOf finds the array position holding the given server index.
func (l *ledger) positionOf(serverIndex int) (int, bool) {
	for i, entry := range l.entries {
		if entry.serverIndex == serverIndex {
			return i, true
		}
	}
	return 0, false
}

// lookup finds the entry carrying the given server index.
func (l *ledger) lookup(serverIndex int) (*utterance, bool) {
	if i, ok := l.positionOf(serverIndex); ok {
		return l.entries[i], true
	}
	return nil, false
}

func (l *ledger) len() int {
	return len(l.entries)
}

func (l *ledger) clear() {
	l.entries = nil
}
