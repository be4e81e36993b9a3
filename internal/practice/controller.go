// Package practice owns the client-side session/feedback state
// machine. A single Controller holds all mutable UI state; every
// mutation goes through a named transition method, and rendering layers
// only read snapshots.
package practice

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"pronounce/internal/curriculum"
	"pronounce/internal/models"
)

// Phase is the top-level application phase
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseGeneratingSession
	PhasePracticing
	PhaseAnalyzing
	PhaseSessionComplete
)

// String returns the phase name for logs and tests
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseGeneratingSession:
		return "GeneratingSession"
	case PhasePracticing:
		return "Practicing"
	case PhaseAnalyzing:
		return "Analyzing"
	case PhaseSessionComplete:
		return "SessionComplete"
	}
	return "Unknown"
}

// AudioState is the mutually exclusive audio sub-state while practicing
type AudioState int

const (
	AudioIdle AudioState = iota
	AudioRecording
	AudioPlayingReference
)

var (
	// ErrBusy means a generation or analysis request is already in
	// flight; the single-flight guard refused a second one
	ErrBusy = errors.New("another request is already in flight")

	// ErrOffline means the reachability probe failed and no generation
	// was attempted
	ErrOffline = errors.New("backend is not reachable")

	// ErrAudioBusy means recording and reference playback tried to
	// overlap
	ErrAudioBusy = errors.New("recording and playback cannot overlap")

	// ErrNoRecording means there is no buffer to replay
	ErrNoRecording = errors.New("no recording to replay")
)

// analyzingTips is shown one-at-a-time while an analysis is in flight,
// purely to occupy the wait
var analyzingTips = []string{
	"💡 Focus on word stress - it's key to natural English!",
	"💡 Practice linking words together smoothly",
	"💡 Listen to native speakers daily for better accent",
	"💡 Record yourself to track improvement over time",
	"💡 Shadowing technique: repeat right after native audio",
	"💡 Stress the important words in each sentence",
	"💡 Don't rush - clear pronunciation > speed",
}

// SessionAPI is the backend surface the controller drives
type SessionAPI interface {
	Probe(ctx context.Context) bool
	GenerateSession(ctx context.Context, topic string, difficulty models.Difficulty) (*models.PracticeSession, error)
	AnalyzePronunciation(ctx context.Context, audio []byte, targetText string) (*models.PronunciationFeedback, error)
}

// State is a read-only snapshot of the controller for rendering
type State struct {
	Phase        Phase
	AudioState   AudioState
	Session      *models.PracticeSession
	Index        int
	Feedback     *models.PronunciationFeedback
	HasRecording bool
	ErrMsg       string
	Offline      bool
	Tip          string
	ActiveLesson string
	Replaying    bool
}

// Controller is the single owner of all client session state
type Controller struct {
	mu  sync.Mutex
	api SessionAPI

	phase        Phase
	audioState   AudioState
	session      *models.PracticeSession
	index        int
	feedback     *models.PronunciationFeedback
	recording    []byte
	errMsg       string
	offline      bool
	tip          string
	activeLesson string
	replaying    bool
	busy         bool
}

// NewController creates a controller in the Idle phase
func NewController(api SessionAPI) *Controller {
	return &Controller{api: api}
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Phase:        c.phase,
		AudioState:   c.audioState,
		Session:      c.session,
		Index:        c.index,
		Feedback:     c.feedback,
		HasRecording: len(c.recording) > 0,
		ErrMsg:       c.errMsg,
		Offline:      c.offline,
		Tip:          c.tip,
		ActiveLesson: c.activeLesson,
		Replaying:    c.replaying,
	}
}

// StartTopic starts a session for a free-text topic
func (c *Controller) StartTopic(ctx context.Context, topic string, difficulty models.Difficulty) error {
	return c.startSession(ctx, topic, difficulty, "")
}

// StartLesson starts a session for a curriculum lesson. Structured
// lessons default to the Intermediate level.
func (c *Controller) StartLesson(ctx context.Context, lessonID string) error {
	lesson, ok := curriculum.FindLesson(lessonID)
	if !ok {
		return errors.New("unknown lesson: " + lessonID)
	}
	return c.startSession(ctx, lesson.QueryTopic, models.Intermediate, lesson.ID)
}

// startSession probes the backend, then generates a session. Blocking;
// callers run it off the render loop.
func (c *Controller) startSession(ctx context.Context, topic string, difficulty models.Difficulty, lessonID string) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	c.mu.Unlock()

	if !c.api.Probe(ctx) {
		c.mu.Lock()
		c.offline = true
		c.busy = false
		c.mu.Unlock()
		return ErrOffline
	}

	c.mu.Lock()
	c.offline = false
	c.errMsg = ""
	c.phase = PhaseGeneratingSession
	c.activeLesson = lessonID
	c.mu.Unlock()

	session, err := c.api.GenerateSession(ctx, topic, difficulty)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false

	if err == nil && (session == nil || len(session.Sentences) == 0) {
		err = errors.New("invalid session data received, please try again")
	}
	if err != nil {
		// Back to the landing screen; the message stays visible there
		c.phase = PhaseIdle
		c.errMsg = err.Error()
		return err
	}

	c.session = session
	c.index = 0
	c.feedback = nil
	c.recording = nil
	c.phase = PhasePracticing
	return nil
}

// StartRecording arms the recorder state. It refuses to start while the
// reference audio is playing.
func (c *Controller) StartRecording() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhasePracticing {
		return errors.New("can only record while practicing")
	}
	if c.audioState != AudioIdle {
		return ErrAudioBusy
	}
	c.audioState = AudioRecording
	return nil
}

// CancelRecording disarms the recorder without submitting anything
func (c *Controller) CancelRecording() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.audioState == AudioRecording {
		c.audioState = AudioIdle
	}
}

// SubmitRecording sends a finished recording for analysis. The phase
// always returns to Practicing: with feedback on success, with an error
// message on failure.
func (c *Controller) SubmitRecording(ctx context.Context, audio []byte) error {
	c.mu.Lock()
	if c.phase != PhasePracticing || c.session == nil {
		c.mu.Unlock()
		return errors.New("no sentence to analyze")
	}
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	c.audioState = AudioIdle
	c.recording = audio
	c.errMsg = ""
	c.tip = analyzingTips[rand.Intn(len(analyzingTips))]
	c.phase = PhaseAnalyzing
	target := c.session.Sentences[c.index].Text
	c.mu.Unlock()

	feedback, err := c.api.AnalyzePronunciation(ctx, audio, target)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.phase = PhasePracticing

	if err != nil {
		c.errMsg = err.Error()
		return err
	}
	c.feedback = feedback
	return nil
}

// StartReferencePlayback marks the reference audio as playing. The
// record control is disabled for the duration.
func (c *Controller) StartReferencePlayback() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.audioState != AudioIdle {
		return ErrAudioBusy
	}
	c.audioState = AudioPlayingReference
	return nil
}

// FinishReferencePlayback returns the audio sub-state to idle,
// whether playback ended naturally or failed
func (c *Controller) FinishReferencePlayback() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.audioState == AudioPlayingReference {
		c.audioState = AudioIdle
	}
}

// StartReplay begins playback of the learner's own recording. Replays
// are serialized: a second replay cannot start while one is playing.
func (c *Controller) StartReplay() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.recording) == 0 {
		return nil, ErrNoRecording
	}
	if c.replaying {
		return nil, ErrAudioBusy
	}
	c.replaying = true
	return c.recording, nil
}

// FinishReplay clears the replaying flag on completion or error
func (c *Controller) FinishReplay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaying = false
}

// Next advances to the following sentence, or completes the session
// when the current sentence is the last one
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhasePracticing || c.session == nil {
		return
	}
	if c.index < len(c.session.Sentences)-1 {
		c.index++
		c.feedback = nil
		c.recording = nil
	} else {
		c.phase = PhaseSessionComplete
	}
}

// Retry clears the feedback and recording for another attempt at the
// same sentence
func (c *Controller) Retry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feedback = nil
	c.recording = nil
}

// Finish abandons the session and returns to the landing screen
func (c *Controller) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = PhaseIdle
	c.session = nil
	c.feedback = nil
	c.recording = nil
	c.activeLesson = ""
	c.audioState = AudioIdle
}

// NextLessonAvailable reports whether the just-completed lesson has a
// successor in its category
func (c *Controller) NextLessonAvailable() (models.Lesson, bool) {
	c.mu.Lock()
	lessonID := c.activeLesson
	c.mu.Unlock()
	if lessonID == "" {
		return models.Lesson{}, false
	}
	return curriculum.NextLesson(lessonID)
}

// StartNextLesson moves on to the next lesson in the same category, or
// falls back to the landing screen when the category is finished
func (c *Controller) StartNextLesson(ctx context.Context) error {
	next, ok := c.NextLessonAvailable()
	if !ok {
		c.Finish()
		return nil
	}
	return c.StartLesson(ctx, next.ID)
}

// DismissOffline clears the offline banner
func (c *Controller) DismissOffline() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offline = false
}

// DismissError clears the inline error message
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = ""
}
