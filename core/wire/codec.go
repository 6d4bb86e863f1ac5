package wire

import (
	"encoding/json"
	"fmt"
)

// Encode wraps a message into its envelope form: the kind as the
// top-level "type" value and the payload nested under the kind's name.
func Encode(msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", msg.Kind(), err)
	}

	kind, err := json.Marshal(string(msg.Kind()))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s discriminator: %w", msg.Kind(), err)
	}

	return json.Marshal(map[string]json.RawMessage{
		"type":             kind,
		string(msg.Kind()): payload,
	})
}

// Decode parses an envelope into its typed message. Messages of a kind
// this client does not know decode into Unknown rather than an error so
// that one unexpected message cannot stall the read loop.
func Decode(data []byte) (Message, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse message envelope: %w", err)
	}

	rawKind, ok := envelope["type"]
	if !ok {
		return nil, fmt.Errorf("message envelope is missing the type discriminator")
	}

	var kind string
	if err := json.Unmarshal(rawKind, &kind); err != nil {
		return nil, fmt.Errorf("failed to parse message type: %w", err)
	}

	payload, ok := envelope[kind]
	if !ok {
		payload = json.RawMessage("{}")
	}

	switch Kind(kind) {
	case KindReset:
		var msg Reset
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse reset payload: %w", err)
		}
		return msg, nil
	case KindTranscription:
		var msg Transcription
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse transcription payload: %w", err)
		}
		return msg, nil
	case KindTranslation:
		var msg Translation
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse translation payload: %w", err)
		}
		return msg, nil
	case KindSpeechDelimiter:
		var msg SpeechDelimiter
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse speech_delimiter payload: %w", err)
		}
		return msg, nil
	case KindLanguages:
		var msg Languages
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse languages payload: %w", err)
		}
		return msg, nil
	case KindReady:
		var msg Ready
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, fmt.Errorf("failed to parse ready payload: %w", err)
		}
		return msg, nil
	}

	return Unknown{Type: kind}, nil
}
