// Package audio holds the capture contract and encoding descriptions
// shared by the concrete microphone backends.
package audio

// Capture is a local microphone source. Start may be called again after
// Stop; Close releases the device for good.
type Capture interface {
	Start(onAudio func(audio []byte)) error
	Stop() error
	Close() error
}
