// Package wire defines the typed control-channel message contract.
//
// Every message travels as a JSON object with a top-level "type"
// discriminator and the payload nested under a key of the same name:
//
//	{"type": "transcription", "transcription": {...}}
//
// Message kinds:
//
//   - reset (outbound): session configuration request, correlated to a
//     later ready acknowledgement by id.
//   - transcription (inbound): incremental source-language fragment for
//     one utterance; complete words are append-only, partial words are
//     replaced wholesale on every update.
//   - translation (inbound): same shape for the target language.
//   - speech_delimiter (inbound): playback progress marker carrying the
//     audio time and the utterance/word/char targets for both sides.
//   - languages (inbound): identified-language snapshot, replacing the
//     previous list.
//   - ready (inbound): acknowledgement of a reset request; id may be
//     null for server-initiated readiness.
//
// Word timing markers (start/end) are source-defined and are never
// interpreted beyond ordering.
package wire
