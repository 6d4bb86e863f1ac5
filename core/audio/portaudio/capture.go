// Package portaudio provides a portaudio-backed microphone capture
// client, as an alternative to the miniaudio one.
package portaudio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/voxlate/voxlate-go/core/audio"
)

type Capture struct {
	bufferSize int
	stream     *portaudio.Stream
	in         []int16

	mu      sync.Mutex
	onAudio func(audio []byte)
	started bool
	done    chan struct{}
}

func NewCapture(encodingInfo audio.EncodingInfo, bufferSize int) (*Capture, error) {
	if encodingInfo.IsZero() {
		encodingInfo = audio.GetDefaultEncodingInfo()
	}
	if bufferSize <= 0 {
		bufferSize = 512
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	c := &Capture{
		bufferSize: bufferSize,
		in:         make([]int16, bufferSize),
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(encodingInfo.SampleRate), bufferSize, c.in)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}
	c.stream = stream

	return c, nil
}

func (c *Capture) Start(onAudio func(audio []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return fmt.Errorf("stream not initialized")
	} else if c.started {
		return nil
	}

	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	c.onAudio = onAudio
	c.started = true
	c.done = make(chan struct{})
	go c.readLoop(c.done)

	return nil
}

func (c *Capture) readLoop(done chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		if err := c.stream.Read(); err != nil {
			return
		}

		buffer := bytes.Buffer{}
		if err := binary.Write(&buffer, binary.LittleEndian, c.in); err != nil {
			continue
		}

		c.mu.Lock()
		onAudio := c.onAudio
		c.mu.Unlock()
		if onAudio != nil {
			onAudio(buffer.Bytes())
		}
	}
}

func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return nil
	}

	close(c.done)
	c.started = false
	c.onAudio = nil
	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop portaudio stream: %w", err)
	}

	return nil
}

func (c *Capture) Close() error {
	_ = c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		_ = c.stream.Close()
		c.stream = nil
	}
	return portaudio.Terminate()
}
