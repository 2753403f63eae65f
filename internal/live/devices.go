package live

import (
	"context"
	"time"
)

// StreamConstraints mirror what the session asks of the platform media
// layer when acquiring the combined stream.
type StreamConstraints struct {
	Audio            bool
	Video            bool
	EchoCancellation bool
	NoiseSuppression bool
	SampleRateHz     int
}

// DefaultConstraints is the combined acquisition used at start time.
var DefaultConstraints = StreamConstraints{
	Audio:            true,
	Video:            true,
	EchoCancellation: true,
	NoiseSuppression: true,
	SampleRateHz:     16000,
}

// MediaDevices abstracts the platform media APIs. Probes must acquire and
// immediately release the device: a successful probe never holds the
// camera or microphone open.
type MediaDevices interface {
	ProbeCamera(ctx context.Context) error
	ProbeMicrophone(ctx context.Context) error
	AcquireStream(ctx context.Context, c StreamConstraints) (MediaStream, error)
}

// MediaStream is the combined audio+video capture owned exclusively by one
// controller for the session's lifetime.
type MediaStream interface {
	Tracks() []Track
	Recorder(interval time.Duration) (Recorder, error)
	Levels() (LevelSource, error)
	// Close stops every track; the camera and microphone lights must go off.
	Close() error
}

type Track interface {
	Kind() string // "audio" | "video"
	Stop()
	Ended() bool
}

// Recorder emits encoded media chunks at a fixed cadence. The channel
// closes after Stop.
type Recorder interface {
	Chunks() <-chan []byte
	Stop() error
}

// LevelSource exposes frequency-domain energy from the stream's audio,
// polled by the speaking sampler while the session is active.
type LevelSource interface {
	Level() float64 // average amplitude, 0..1
	Close() error
}

// AudioSink plays out-of-band audio payloads (base64-encoded), fire and
// forget; failures are the sink's to log.
type AudioSink interface {
	Play(base64Data string)
}

// Navigator is the completion destination hand-off. The controller does
// not return a value at the end of a session; it navigates away.
type Navigator interface {
	NavigateToCompletion(sessionID string)
}

// SpeakingThreshold is the average-amplitude level above which the
// candidate counts as speaking.
const SpeakingThreshold = 0.08

// ChunkInterval is the media-chunk emission cadence.
const ChunkInterval = time.Second
