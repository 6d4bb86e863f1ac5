// Package webrtc carries the translation session over a WebRTC peer
// connection: audio on media tracks, control messages on a data
// channel, with an HTTP offer/answer handshake.
package webrtc

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	pion "github.com/pion/webrtc/v4"
	"github.com/voxlate/voxlate-go/core/audio"
	"github.com/voxlate/voxlate-go/core/transport"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const controlChannelLabel = "control"

type Transport struct {
	endpoint       string
	apiKey         string
	bearerToken    string
	conversationID string
	name           string
	inputEncoding  audio.EncodingInfo
	outputEncoding audio.EncodingInfo
	iceServers     []pion.ICEServer
	localTrack     pion.TrackLocal
	httpClient     *http.Client

	mu sync.Mutex
	pc *pion.PeerConnection
	dc *pion.DataChannel
}

func New(opts ...Option) *Transport {
	t := &Transport{
		inputEncoding:  audio.GetDefaultEncodingInfo(),
		outputEncoding: audio.GetDefaultEncodingInfo(),
		iceServers: []pion.ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		},
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.apiKey == "" && t.bearerToken == "" {
		if apiKey, ok := os.LookupEnv("VOXLATE_API_KEY"); ok {
			t.apiKey = apiKey
		}
	}
	if t.httpClient == nil {
		t.httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	return t
}

// Connect builds the peer connection, performs the offer/answer
// handshake, and starts delivering callbacks. Ownership of the
// connection stays with the transport.
func (t *Transport) Connect(ctx context.Context, callbacks transport.Callbacks) (transport.SessionInfo, error) {
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	if t.apiKey == "" && t.bearerToken == "" {
		return transport.SessionInfo{}, transport.ErrMissingCredentials
	}

	pc, err := pion.NewPeerConnection(pion.Configuration{ICEServers: t.iceServers})
	if err != nil {
		return transport.SessionInfo{}, fmt.Errorf("failed to create peer connection: %w", err)
	}

	if t.localTrack != nil {
		if _, err := pc.AddTrack(t.localTrack); err != nil {
			_ = pc.Close()
			return transport.SessionInfo{}, fmt.Errorf("failed to attach local track: %w", err)
		}
	} else {
		if _, err := pc.AddTransceiverFromKind(pion.RTPCodecTypeAudio, pion.RTPTransceiverInit{
			Direction: pion.RTPTransceiverDirectionRecvonly,
		}); err != nil {
			_ = pc.Close()
			return transport.SessionInfo{}, fmt.Errorf("failed to add audio transceiver: %w", err)
		}
	}

	dc, err := pc.CreateDataChannel(controlChannelLabel, nil)
	if err != nil {
		_ = pc.Close()
		return transport.SessionInfo{}, fmt.Errorf("failed to create control channel: %w", err)
	}

	dc.OnOpen(func() {
		if callbacks.OnWritable != nil {
			callbacks.OnWritable()
		}
	})
	dc.OnMessage(func(msg pion.DataChannelMessage) {
		if msg.IsString && callbacks.OnMessage != nil {
			callbacks.OnMessage(msg.Data)
		}
	})

	pc.OnTrack(func(track *pion.TrackRemote, _ *pion.RTPReceiver) {
		if track.Kind() != pion.RTPCodecTypeAudio {
			return
		}
		if callbacks.OnRemoteAudio != nil {
			callbacks.OnRemoteAudio(track)
		}
	})

	pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		if callbacks.OnStateChange == nil {
			return
		}
		switch state {
		case pion.PeerConnectionStateConnecting:
			callbacks.OnStateChange(transport.StateConnecting)
		case pion.PeerConnectionStateConnected:
			callbacks.OnStateChange(transport.StateConnected)
		case pion.PeerConnectionStateFailed, pion.PeerConnectionStateDisconnected,
			pion.PeerConnectionStateClosed:
			callbacks.OnStateChange(transport.StateDisconnected)
		}
	})

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		_ = pc.Close()
		return transport.SessionInfo{}, fmt.Errorf("failed to create offer: %w", err)
	}

	// Wait for ICE gathering so the offer carries all candidates; the
	// handshake is a single round trip without trickle.
	gatherComplete := pion.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		_ = pc.Close()
		return transport.SessionInfo{}, fmt.Errorf("failed to set local description: %w", err)
	}
	select {
	case <-gatherComplete:
	case <-ctx.Done():
		_ = pc.Close()
		return transport.SessionInfo{}, ctx.Err()
	}

	answer, err := t.handshake(ctx, pc.LocalDescription().SDP)
	if err != nil {
		_ = pc.Close()
		return transport.SessionInfo{}, err
	}

	if err := pc.SetRemoteDescription(pion.SessionDescription{
		Type: pion.SDPTypeAnswer,
		SDP:  answer.SDP,
	}); err != nil {
		_ = pc.Close()
		return transport.SessionInfo{}, fmt.Errorf("failed to set remote description: %w", err)
	}

	t.mu.Lock()
	t.pc = pc
	t.dc = dc
	t.mu.Unlock()

	return transport.SessionInfo{SessionID: answer.SessionID}, nil
}

func (t *Transport) Send(payload []byte) error {
	t.mu.Lock()
	dc := t.dc
	t.mu.Unlock()

	if dc == nil {
		return fmt.Errorf("control channel is not open")
	}
	if err := dc.SendText(string(payload)); err != nil {
		return fmt.Errorf("failed to send control message: %w", err)
	}
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	pc := t.pc
	t.pc = nil
	t.dc = nil
	t.mu.Unlock()

	if pc == nil {
		return nil
	}
	if err := pc.Close(); err != nil {
		return fmt.Errorf("failed to close peer connection: %w", err)
	}
	return nil
}
