package wire

type Kind string

const (
	KindReset           Kind = "reset"
	KindTranscription   Kind = "transcription"
	KindTranslation     Kind = "translation"
	KindSpeechDelimiter Kind = "speech_delimiter"
	KindLanguages       Kind = "languages"
	KindReady           Kind = "ready"
	KindUnknown         Kind = "unknown"
)

type Message interface {
	Kind() Kind
}

// Word is one recognized or translated word with its source-defined
// timing markers.
type Word struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Reset requests a (re)configuration of the translation session. The
// server acknowledges it with a Ready message carrying the same ID.
type Reset struct {
	ID              string   `json:"id"`
	LangIn          string   `json:"lang_in"`
	LangOut         string   `json:"lang_out"`
	VoiceID         string   `json:"voice_id,omitempty"`
	Glossary        []string `json:"glossary,omitempty"`
	ClearHistory    bool     `json:"clear_history,omitempty"`
	CanLangSwap     bool     `json:"can_lang_swap,omitempty"`
	DetectLanguages []string `json:"detect_languages,omitempty"`
}

func (Reset) Kind() Kind { return KindReset }

// Transcription carries newly finalized and currently tentative words
// for one source-language utterance.
type Transcription struct {
	Complete       []Word `json:"complete"`
	Partial        []Word `json:"partial"`
	UtteranceIndex int    `json:"utterance_idx"`
	Language       string `json:"lang,omitempty"`
}

func (Transcription) Kind() Kind { return KindTranscription }

// Translation carries newly finalized and currently tentative words for
// one target-language utterance.
type Translation struct {
	Complete       []Word `json:"complete"`
	Partial        []Word `json:"partial"`
	UtteranceIndex int    `json:"utterance_idx"`
}

func (Translation) Kind() Kind { return KindTranslation }

// BoundaryTarget addresses a character inside one utterance. The
// utterance index is the server-assigned one, not an array position.
type BoundaryTarget struct {
	UtteranceIndex int `json:"utterance_idx"`
	WordIndex      int `json:"word_idx"`
	CharIndex      int `json:"char_idx"`
}

// SpeechDelimiter marks how far playback has acoustically progressed at
// the given session-relative audio time, for both sides at once.
type SpeechDelimiter struct {
	Time          float64        `json:"time"`
	Transcription BoundaryTarget `json:"transcription"`
	Translation   BoundaryTarget `json:"translation"`
}

func (SpeechDelimiter) Kind() Kind { return KindSpeechDelimiter }

// Language is one identified source language candidate.
type Language struct {
	ShortCode   string  `json:"short_code"`
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
}

// Languages replaces the identified-language list wholesale.
type Languages struct {
	Languages []Language `json:"languages"`
}

func (Languages) Kind() Kind { return KindLanguages }

// Ready acknowledges a Reset request. ID is nil when the readiness was
// not triggered by a client request.
type Ready struct {
	ID *string `json:"id"`
}

func (Ready) Kind() Kind { return KindReady }

// Unknown preserves a message of a kind this client does not understand
// so the router can skip it without failing the read loop.
type Unknown struct {
	Type string
}

func (Unknown) Kind() Kind { return KindUnknown }
