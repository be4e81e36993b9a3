package practice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"pronounce/internal/models"
)

// fakeAPI is a scriptable SessionAPI that records every call
type fakeAPI struct {
	mu sync.Mutex

	probeResult bool
	session     *models.PracticeSession
	sessionErr  error
	feedback    *models.PronunciationFeedback
	analyzeErr  error

	generateCalls []string // topics, in order
	analyzeCalls  []string // target texts, in order
	analyzedAudio [][]byte

	// blockGenerate, when set, holds GenerateSession until released
	blockGenerate chan struct{}
}

func (f *fakeAPI) Probe(ctx context.Context) bool { return f.probeResult }

func (f *fakeAPI) GenerateSession(ctx context.Context, topic string, difficulty models.Difficulty) (*models.PracticeSession, error) {
	f.mu.Lock()
	f.generateCalls = append(f.generateCalls, topic)
	block := f.blockGenerate
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.session, nil
}

func (f *fakeAPI) AnalyzePronunciation(ctx context.Context, audio []byte, targetText string) (*models.PronunciationFeedback, error) {
	f.mu.Lock()
	f.analyzeCalls = append(f.analyzeCalls, targetText)
	f.analyzedAudio = append(f.analyzedAudio, audio)
	f.mu.Unlock()
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return f.feedback, nil
}

func sessionWith(n int) *models.PracticeSession {
	s := &models.PracticeSession{Topic: "Ordering coffee", Difficulty: models.Beginner}
	for i := 0; i < n; i++ {
		s.Sentences = append(s.Sentences, models.Sentence{
			ID:          string(rune('1' + i)),
			Text:        "Sentence " + string(rune('1'+i)),
			IPA:         "ipa",
			Translation: "dịch",
			Note:        "note",
		})
	}
	return s
}

func TestStartTopic(t *testing.T) {
	api := &fakeAPI{probeResult: true, session: sessionWith(3)}
	c := NewController(api)

	if err := c.StartTopic(context.Background(), "Ordering coffee", models.Beginner); err != nil {
		t.Fatalf("StartTopic() error = %v", err)
	}

	st := c.Snapshot()
	if st.Phase != PhasePracticing {
		t.Errorf("phase = %v, want Practicing", st.Phase)
	}
	if st.Index != 0 || st.Feedback != nil || st.HasRecording {
		t.Errorf("fresh session state = %+v", st)
	}
	if st.ActiveLesson != "" {
		t.Errorf("custom topic set activeLesson = %q", st.ActiveLesson)
	}
}

func TestStartTopicOfflineSkipsGeneration(t *testing.T) {
	api := &fakeAPI{probeResult: false}
	c := NewController(api)

	err := c.StartTopic(context.Background(), "anything", models.Beginner)
	if !errors.Is(err, ErrOffline) {
		t.Fatalf("error = %v, want ErrOffline", err)
	}

	st := c.Snapshot()
	if !st.Offline {
		t.Error("offline flag not set")
	}
	if st.Phase != PhaseIdle {
		t.Errorf("phase = %v, want Idle", st.Phase)
	}
	if len(api.generateCalls) != 0 {
		t.Errorf("GenerateSession called %d times, want 0", len(api.generateCalls))
	}
}

func TestStartTopicFailures(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeAPI
	}{
		{name: "backend error", api: &fakeAPI{probeResult: true, sessionErr: errors.New("model exploded")}},
		{name: "empty session", api: &fakeAPI{probeResult: true, session: &models.PracticeSession{Topic: "t"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(tt.api)
			if err := c.StartTopic(context.Background(), "topic", models.Beginner); err == nil {
				t.Fatal("StartTopic() succeeded, want error")
			}
			st := c.Snapshot()
			if st.Phase != PhaseIdle {
				t.Errorf("phase = %v, want Idle", st.Phase)
			}
			if st.ErrMsg == "" {
				t.Error("error message not surfaced")
			}
		})
	}
}

func TestStartTopicSingleFlight(t *testing.T) {
	block := make(chan struct{})
	api := &fakeAPI{probeResult: true, session: sessionWith(1), blockGenerate: block}
	c := NewController(api)

	done := make(chan error, 1)
	go func() { done <- c.StartTopic(context.Background(), "first", models.Beginner) }()

	// Wait for the first request to reach the backend
	for {
		api.mu.Lock()
		n := len(api.generateCalls)
		api.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if err := c.StartTopic(context.Background(), "second", models.Beginner); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent StartTopic() error = %v, want ErrBusy", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first StartTopic() error = %v", err)
	}
	if len(api.generateCalls) != 1 {
		t.Errorf("GenerateSession called %d times, want 1", len(api.generateCalls))
	}
}

func TestSubmitRecording(t *testing.T) {
	api := &fakeAPI{
		probeResult: true,
		session:     sessionWith(2),
		feedback:    &models.PronunciationFeedback{Score: 85, Transcription: "sentence 1"},
	}
	c := NewController(api)
	if err := c.StartTopic(context.Background(), "topic", models.Beginner); err != nil {
		t.Fatal(err)
	}

	audio := []byte{1, 2, 3}
	if err := c.SubmitRecording(context.Background(), audio); err != nil {
		t.Fatalf("SubmitRecording() error = %v", err)
	}

	st := c.Snapshot()
	if st.Phase != PhasePracticing {
		t.Errorf("phase = %v, want Practicing", st.Phase)
	}
	if st.Feedback == nil || st.Feedback.Score != 85 {
		t.Errorf("feedback = %+v", st.Feedback)
	}
	if !st.HasRecording {
		t.Error("recording buffer not kept for replay")
	}
	if api.analyzeCalls[0] != "Sentence 1" {
		t.Errorf("analyzed target = %q, want current sentence", api.analyzeCalls[0])
	}
	if string(api.analyzedAudio[0]) != string(audio) {
		t.Error("audio bytes not forwarded")
	}
}

func TestSubmitRecordingPicksTipFromPool(t *testing.T) {
	api := &fakeAPI{probeResult: true, session: sessionWith(1), feedback: &models.PronunciationFeedback{Score: 70}}
	c := NewController(api)
	if err := c.StartTopic(context.Background(), "topic", models.Beginner); err != nil {
		t.Fatal(err)
	}
	if err := c.SubmitRecording(context.Background(), []byte{1}); err != nil {
		t.Fatal(err)
	}

	tip := c.Snapshot().Tip
	found := false
	for _, known := range analyzingTips {
		if tip == known {
			found = true
		}
	}
	if !found {
		t.Errorf("tip %q not from the fixed pool", tip)
	}
}

func TestSubmitRecordingAnalysisError(t *testing.T) {
	api := &fakeAPI{probeResult: true, session: sessionWith(2), analyzeErr: errors.New("analysis blew up")}
	c := NewController(api)
	if err := c.StartTopic(context.Background(), "topic", models.Beginner); err != nil {
		t.Fatal(err)
	}

	if err := c.SubmitRecording(context.Background(), []byte{1}); err == nil {
		t.Fatal("SubmitRecording() succeeded, want error")
	}

	st := c.Snapshot()
	if st.Phase != PhasePracticing {
		t.Errorf("phase = %v, want Practicing after failed analysis", st.Phase)
	}
	if st.Feedback != nil {
		t.Error("feedback set despite analysis error")
	}
	if !strings.Contains(st.ErrMsg, "analysis blew up") {
		t.Errorf("error message = %q", st.ErrMsg)
	}
}

func TestNextAdvancesAndCompletes(t *testing.T) {
	api := &fakeAPI{probeResult: true, session: sessionWith(3), feedback: &models.PronunciationFeedback{Score: 90}}
	c := NewController(api)
	if err := c.StartTopic(context.Background(), "topic", models.Beginner); err != nil {
		t.Fatal(err)
	}
	if err := c.SubmitRecording(context.Background(), []byte{1}); err != nil {
		t.Fatal(err)
	}

	c.Next()
	st := c.Snapshot()
	if st.Index != 1 {
		t.Errorf("index = %d, want 1", st.Index)
	}
	if st.Feedback != nil || st.HasRecording {
		t.Error("feedback/recording not cleared on advance")
	}

	c.Next()
	if got := c.Snapshot().Index; got != 2 {
		t.Errorf("index = %d, want 2", got)
	}

	// Advancing past the last sentence completes the session
	c.Next()
	if got := c.Snapshot().Phase; got != PhaseSessionComplete {
		t.Errorf("phase = %v, want SessionComplete", got)
	}

	// Further Next calls are no-ops outside Practicing
	c.Next()
	if got := c.Snapshot().Phase; got != PhaseSessionComplete {
		t.Errorf("phase after extra Next = %v", got)
	}
}

func TestRetryClearsOnlyFeedbackAndRecording(t *testing.T) {
	api := &fakeAPI{probeResult: true, session: sessionWith(3), feedback: &models.PronunciationFeedback{Score: 60}}
	c := NewController(api)
	if err := c.StartTopic(context.Background(), "topic", models.Beginner); err != nil {
		t.Fatal(err)
	}
	if err := c.SubmitRecording(context.Background(), []byte{1}); err != nil {
		t.Fatal(err)
	}
	c.Next()
	if err := c.SubmitRecording(context.Background(), []byte{2}); err != nil {
		t.Fatal(err)
	}

	before := c.Snapshot()
	c.Retry()
	after := c.Snapshot()

	if after.Feedback != nil || after.HasRecording {
		t.Error("Retry did not clear feedback and recording")
	}
	if after.Phase != before.Phase || after.Index != before.Index || after.Session != before.Session {
		t.Error("Retry changed more than feedback and recording")
	}
}

func TestRecordingPlaybackMutualExclusion(t *testing.T) {
	api := &fakeAPI{probeResult: true, session: sessionWith(1)}
	c := NewController(api)
	if err := c.StartTopic(context.Background(), "topic", models.Beginner); err != nil {
		t.Fatal(err)
	}

	if err := c.StartReferencePlayback(); err != nil {
		t.Fatalf("StartReferencePlayback() error = %v", err)
	}
	if err := c.StartRecording(); !errors.Is(err, ErrAudioBusy) {
		t.Errorf("StartRecording() during playback error = %v, want ErrAudioBusy", err)
	}
	c.FinishReferencePlayback()

	if err := c.StartRecording(); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}
	if err := c.StartReferencePlayback(); !errors.Is(err, ErrAudioBusy) {
		t.Errorf("StartReferencePlayback() while recording error = %v, want ErrAudioBusy", err)
	}
	c.CancelRecording()

	if got := c.Snapshot().AudioState; got != AudioIdle {
		t.Errorf("audio state = %v, want AudioIdle", got)
	}
}

func TestReplaySerialized(t *testing.T) {
	api := &fakeAPI{probeResult: true, session: sessionWith(1), feedback: &models.PronunciationFeedback{Score: 70}}
	c := NewController(api)
	if err := c.StartTopic(context.Background(), "topic", models.Beginner); err != nil {
		t.Fatal(err)
	}

	if _, err := c.StartReplay(); !errors.Is(err, ErrNoRecording) {
		t.Errorf("StartReplay() without recording error = %v, want ErrNoRecording", err)
	}

	if err := c.SubmitRecording(context.Background(), []byte{9, 9}); err != nil {
		t.Fatal(err)
	}

	buf, err := c.StartReplay()
	if err != nil {
		t.Fatalf("StartReplay() error = %v", err)
	}
	if string(buf) != string([]byte{9, 9}) {
		t.Error("replay buffer differs from recording")
	}
	if _, err := c.StartReplay(); !errors.Is(err, ErrAudioBusy) {
		t.Errorf("overlapping StartReplay() error = %v, want ErrAudioBusy", err)
	}
	c.FinishReplay()
	if _, err := c.StartReplay(); err != nil {
		t.Errorf("StartReplay() after FinishReplay error = %v", err)
	}
}

func TestFinish(t *testing.T) {
	api := &fakeAPI{probeResult: true, session: sessionWith(1), feedback: &models.PronunciationFeedback{Score: 70}}
	c := NewController(api)
	if err := c.StartLesson(context.Background(), "dl_1"); err != nil {
		t.Fatal(err)
	}
	if err := c.SubmitRecording(context.Background(), []byte{1}); err != nil {
		t.Fatal(err)
	}

	c.Finish()
	st := c.Snapshot()
	if st.Phase != PhaseIdle || st.Session != nil || st.Feedback != nil || st.HasRecording || st.ActiveLesson != "" {
		t.Errorf("state after Finish = %+v", st)
	}
}

func TestStartLessonTracksCurriculum(t *testing.T) {
	api := &fakeAPI{probeResult: true, session: sessionWith(1)}
	c := NewController(api)

	if err := c.StartLesson(context.Background(), "dl_1"); err != nil {
		t.Fatalf("StartLesson() error = %v", err)
	}
	if got := c.Snapshot().ActiveLesson; got != "dl_1" {
		t.Errorf("activeLesson = %q, want dl_1", got)
	}
	if api.generateCalls[0] != "Self-introduction and greeting a new friend" {
		t.Errorf("generated topic = %q, want the lesson query topic", api.generateCalls[0])
	}

	if err := c.StartLesson(context.Background(), "nope"); err == nil {
		t.Error("StartLesson() with unknown id succeeded")
	}
}

func TestStartNextLesson(t *testing.T) {
	api := &fakeAPI{probeResult: true, session: sessionWith(1)}
	c := NewController(api)
	if err := c.StartLesson(context.Background(), "dl_1"); err != nil {
		t.Fatal(err)
	}
	c.Next() // single sentence, completes immediately

	if _, ok := c.NextLessonAvailable(); !ok {
		t.Fatal("NextLessonAvailable() = false for dl_1")
	}
	if err := c.StartNextLesson(context.Background()); err != nil {
		t.Fatalf("StartNextLesson() error = %v", err)
	}

	st := c.Snapshot()
	if st.ActiveLesson != "dl_2" {
		t.Errorf("activeLesson = %q, want dl_2", st.ActiveLesson)
	}
	if api.generateCalls[1] != "Ordering coffee and paying at a cafe" {
		t.Errorf("generated topic = %q", api.generateCalls[1])
	}
}

func TestStartNextLessonAtCategoryEnd(t *testing.T) {
	api := &fakeAPI{probeResult: true, session: sessionWith(1)}
	c := NewController(api)
	if err := c.StartLesson(context.Background(), "dl_4"); err != nil {
		t.Fatal(err)
	}
	c.Next()

	if _, ok := c.NextLessonAvailable(); ok {
		t.Error("NextLessonAvailable() = true at end of category")
	}
	if err := c.StartNextLesson(context.Background()); err != nil {
		t.Fatalf("StartNextLesson() error = %v", err)
	}
	st := c.Snapshot()
	if st.Phase != PhaseIdle || st.ActiveLesson != "" {
		t.Errorf("state at category end = %+v, want return to landing", st)
	}
	if len(api.generateCalls) != 1 {
		t.Errorf("GenerateSession called %d times, want 1", len(api.generateCalls))
	}
}

// TestFullSessionFlow walks a five-sentence session end to end
func TestFullSessionFlow(t *testing.T) {
	api := &fakeAPI{
		probeResult: true,
		session:     sessionWith(5),
		feedback: &models.PronunciationFeedback{
			Score:         85,
			Transcription: "could I get a latte",
			Mistakes: []models.Mistake{
				{Word: "latte", Suggestion: "ˈlɑteɪ"},
				{Word: "could", Suggestion: "kʊd"},
			},
		},
	}
	c := NewController(api)

	if err := c.StartTopic(context.Background(), "Ordering coffee", models.Beginner); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		if got := c.Snapshot().Index; got != i {
			t.Fatalf("index = %d, want %d", got, i)
		}
		if err := c.StartRecording(); err != nil {
			t.Fatalf("sentence %d: StartRecording() error = %v", i, err)
		}
		if err := c.SubmitRecording(context.Background(), []byte{byte(i + 1)}); err != nil {
			t.Fatalf("sentence %d: SubmitRecording() error = %v", i, err)
		}
		st := c.Snapshot()
		if st.Feedback.Score != 85 || len(st.Feedback.Mistakes) != 2 {
			t.Fatalf("sentence %d: feedback = %+v", i, st.Feedback)
		}
		c.Next()
	}

	if got := c.Snapshot().Phase; got != PhaseSessionComplete {
		t.Errorf("phase = %v, want SessionComplete", got)
	}
	if len(api.analyzeCalls) != 5 {
		t.Errorf("analyses = %d, want 5", len(api.analyzeCalls))
	}
}
