// Package translation is the client core for a real-time
// speech-to-speech translation service.
//
// Two components cooperate:
//
//   - Client owns the session lifecycle: transport establishment,
//     configuration requests correlated to ready acknowledgements,
//     the outbound queue, and the three-state connection status.
//   - Engine reconstructs the display model from the stream of
//     incremental, partially-ordered control messages: per-utterance
//     transcription and translation ledgers, the moving speech
//     boundaries, and the identified-language list.
//
// The engine's view is monotonically refined: complete words only ever
// append, partial words replace, and the speech boundary never moves
// backwards within a session generation, so displayed text never
// flickers. Snapshots are recomputed from the ledgers and boundaries on
// demand and handed out as copies.
package translation
