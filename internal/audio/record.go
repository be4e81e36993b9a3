package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// recorderCandidates lists known capture tools in preference order,
// each invoked to write 16kHz mono WAV to a file.
var recorderCandidates = []struct {
	cmd  string
	args func(path string) []string
}{
	{cmd: "arecord", args: func(path string) []string {
		return []string{"-q", "-f", "S16_LE", "-r", "16000", "-c", "1", path}
	}},
	{cmd: "rec", args: func(path string) []string {
		return []string{"-q", "-r", "16000", "-c", "1", path}
	}},
	{cmd: "ffmpeg", args: func(path string) []string {
		return []string{"-loglevel", "quiet", "-f", "pulse", "-i", "default", "-ar", "16000", "-ac", "1", "-y", path}
	}},
}

// MicRecorder captures microphone audio by running a local capture
// tool. One capture at a time; Stop releases the process and the temp
// file unconditionally.
type MicRecorder struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	cmdName string
	argsFor func(path string) []string
	path    string
}

// NewMicRecorder finds a local capture tool and returns a recorder
// using it
func NewMicRecorder() (*MicRecorder, error) {
	for _, candidate := range recorderCandidates {
		if _, err := exec.LookPath(candidate.cmd); err == nil {
			return &MicRecorder{cmdName: candidate.cmd, argsFor: candidate.args}, nil
		}
	}
	return nil, errors.New("no audio capture tool found (tried arecord, rec, ffmpeg)")
}

// Start begins capturing to a temp file
func (r *MicRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd != nil {
		return errors.New("recording already in progress")
	}

	tmp, err := os.CreateTemp("", "pronounce-rec-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()

	cmd := exec.CommandContext(ctx, r.cmdName, r.argsFor(path)...)
	if err := cmd.Start(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to start capture: %w", err)
	}

	r.cmd = cmd
	r.path = path
	return nil
}

// Stop ends the capture and returns the recorded bytes. The capture
// process and temp file are always released, even on error.
func (r *MicRecorder) Stop() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd == nil {
		return nil, errors.New("no recording in progress")
	}

	cmd, path := r.cmd, r.path
	r.cmd = nil
	r.path = ""
	defer os.Remove(path)

	// Interrupt lets the tool finalize the WAV header; kill if it
	// ignores the signal.
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		cmd.Process.Kill()
	}

	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		cmd.Process.Kill()
		<-done
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}
	return data, nil
}

// BufferReplayer plays back a recorded buffer with the same local
// player used for reference audio
type BufferReplayer struct {
	playerCmd  string
	playerArgs []string
}

// NewBufferReplayer finds a local audio player for replaying recordings
func NewBufferReplayer() (*BufferReplayer, error) {
	player, err := NewReferencePlayer()
	if err != nil {
		return nil, err
	}
	return &BufferReplayer{playerCmd: player.playerCmd, playerArgs: player.playerArgs}, nil
}

// Replay plays the recorded bytes once and discards the temp file
func (b *BufferReplayer) Replay(ctx context.Context, audio []byte) error {
	if len(audio) == 0 {
		return errors.New("nothing to replay")
	}

	tmp, err := os.CreateTemp("", "pronounce-replay-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write recording: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write recording: %w", err)
	}

	return playFile(ctx, b.playerCmd, b.playerArgs, tmp.Name())
}
