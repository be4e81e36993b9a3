package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"time"
)

const ttsRequestTimeout = 10 * time.Second

// ReferencePlayer speaks reference sentences by fetching synthesized
// MP3 from the Google Translate TTS endpoint (free, no API key needed)
// and playing it with a local audio player.
type ReferencePlayer struct {
	playerCmd  string
	playerArgs []string
	httpClient *http.Client
}

// playerCandidates lists known MP3-capable players in preference order.
// The extra args keep ffplay/mpv from opening a window or blocking on a
// console.
var playerCandidates = []struct {
	cmd  string
	args []string
}{
	{cmd: "afplay"},
	{cmd: "mpg123", args: []string{"-q"}},
	{cmd: "ffplay", args: []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}},
	{cmd: "mpv", args: []string{"--no-video", "--really-quiet"}},
}

// NewReferencePlayer finds a local audio player and returns a
// ReferencePlayer using it. It fails when no player is installed.
func NewReferencePlayer() (*ReferencePlayer, error) {
	for _, candidate := range playerCandidates {
		if _, err := exec.LookPath(candidate.cmd); err == nil {
			return &ReferencePlayer{
				playerCmd:  candidate.cmd,
				playerArgs: candidate.args,
				httpClient: &http.Client{Timeout: ttsRequestTimeout},
			}, nil
		}
	}
	return nil, fmt.Errorf("no audio player found (tried afplay, mpg123, ffplay, mpv)")
}

// PlayReference synthesizes text and plays it. The MP3 lives in a temp
// file only for the duration of the playback.
func (p *ReferencePlayer) PlayReference(ctx context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("nothing to play")
	}

	tmp, err := os.CreateTemp("", "pronounce-ref-*.mp3")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := p.fetchTTS(ctx, text, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	return playFile(ctx, p.playerCmd, p.playerArgs, tmp.Name())
}

// fetchTTS downloads synthesized speech for text into w
func (p *ReferencePlayer) fetchTTS(ctx context.Context, text string, w io.Writer) error {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", text)
	params.Set("tl", "en")
	params.Set("client", "tw-ob")
	params.Set("textlen", fmt.Sprintf("%d", len(text)))

	fullURL := "https://translate.google.com/translate_tts?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	// User agent is required by the endpoint
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	return nil
}

// playFile runs the player command on path and waits for it to finish
func playFile(ctx context.Context, cmd string, args []string, path string) error {
	playCmd := exec.CommandContext(ctx, cmd, append(append([]string{}, args...), path)...)
	if err := playCmd.Run(); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}
