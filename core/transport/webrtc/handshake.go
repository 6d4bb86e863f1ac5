package webrtc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/voxlate/voxlate-go/core/transport"
)

type offerRequest struct {
	SDP              string `json:"sdp"`
	InputSampleRate  int    `json:"input_sample_rate"`
	OutputSampleRate int    `json:"output_sample_rate"`
	ConversationID   string `json:"conversation_id,omitempty"`
	Name             string `json:"name,omitempty"`
}

type offerResponse struct {
	SDP       string `json:"sdp"`
	SessionID string `json:"session_id"`
}

// handshake POSTs the local offer and returns the server's answer.
// Status codes map onto the shared handshake error taxonomy.
func (t *Transport) handshake(ctx context.Context, sdp string) (offerResponse, error) {
	conversationID := t.conversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	body, err := json.Marshal(offerRequest{
		SDP:              sdp,
		InputSampleRate:  t.inputEncoding.SampleRate,
		OutputSampleRate: t.outputEncoding.SampleRate,
		ConversationID:   conversationID,
		Name:             t.name,
	})
	if err != nil {
		return offerResponse{}, fmt.Errorf("failed to marshal offer request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return offerResponse{}, fmt.Errorf("failed to build offer request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		request.Header.Set("X-API-Key", t.apiKey)
	} else {
		request.Header.Set("Authorization", "Bearer "+t.bearerToken)
	}

	response, err := t.httpClient.Do(request)
	if err != nil {
		return offerResponse{}, fmt.Errorf("offer exchange failed: %w", err)
	}
	defer response.Body.Close()

	switch {
	case response.StatusCode == http.StatusUnauthorized:
		return offerResponse{}, transport.ErrAuthentication
	case response.StatusCode == http.StatusForbidden:
		return offerResponse{}, transport.ErrAccessDenied
	case response.StatusCode < 200 || response.StatusCode >= 300:
		return offerResponse{}, fmt.Errorf("%w: status %d", transport.ErrServerRejected, response.StatusCode)
	}

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return offerResponse{}, fmt.Errorf("failed to read offer response: %w", err)
	}

	var answer offerResponse
	if err := json.Unmarshal(payload, &answer); err != nil {
		return offerResponse{}, fmt.Errorf("failed to parse offer response: %w", err)
	}
	if answer.SDP == "" {
		return offerResponse{}, fmt.Errorf("%w: response carried no answer", transport.ErrServerRejected)
	}

	return answer, nil
}
