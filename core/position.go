package translation

// Position addresses one character inside a ledger: the utterance array
// position, the word index into the concatenation of complete then
// partial words, and the character index within that word. Positions
// are totally ordered lexicographically.
type Position struct {
	Utterance int
	Word      int
	Char      int
}

func (p Position) Less(other Position) bool {
	if p.Utterance != other.Utterance {
		return p.Utterance < other.Utterance
	}
	if p.Word != other.Word {
		return p.Word < other.Word
	}
	return p.Char < other.Char
}
