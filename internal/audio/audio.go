// Package audio wraps the platform's playback and capture primitives
// behind small adapters. Each playback is a single-shot resource: the
// synthesized or recorded audio is fetched, played and discarded; no
// caching across sentences.
package audio

import "context"

// Player speaks a reference sentence aloud
type Player interface {
	// PlayReference synthesizes text and plays it, blocking until
	// playback finishes or ctx is cancelled.
	PlayReference(ctx context.Context, text string) error
}

// Recorder captures microphone audio. The recorder owns the microphone
// exclusively while armed; Stop always releases it, whoever initiated
// the stop.
type Recorder interface {
	// Start begins capturing. It fails if a capture is already running.
	Start(ctx context.Context) error
	// Stop ends the capture and returns the recorded bytes.
	Stop() ([]byte, error)
}

// Replayer plays back a previously recorded buffer
type Replayer interface {
	Replay(ctx context.Context, audio []byte) error
}
