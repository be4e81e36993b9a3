package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"pronounce/internal/extract"
	"pronounce/internal/models"
)

// ModelClient is the slice of the generative model the service needs
type ModelClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateWithAudio(ctx context.Context, prompt string, audio []byte, mimeType string) (string, error)
}

// SessionService builds prompts, invokes the model and normalizes its
// output into typed results
type SessionService struct {
	model ModelClient
}

// NewSessionService creates a new session service
func NewSessionService(model ModelClient) *SessionService {
	return &SessionService{model: model}
}

// difficultyGuide maps each level to vocabulary/length/focus hints that
// are embedded verbatim in the generation prompt
var difficultyGuide = map[models.Difficulty]string{
	models.Beginner:     "Simple vocabulary, short sentences (5-8 words), focus on basic sentence stress.",
	models.Intermediate: "Moderate vocabulary, compound sentences, focus on linking sounds and intonation.",
	models.Advanced:     "Advanced vocabulary, idioms, complex grammar, focus on natural native-like flow and nuance.",
}

// notEvaluated is substituted when the model omits feedbackDetails
var notEvaluated = models.FeedbackDetails{
	Accuracy: "Chưa có đánh giá",
	Prosody:  "Chưa có đánh giá",
	Linking:  "Chưa có đánh giá",
}

// defaultScore replaces a missing or non-numeric score
const defaultScore = 70

// GenerateSession asks the model for a practice session on the given
// topic. The returned session always carries the caller's topic and
// difficulty; the model's echo of those two fields is not trusted.
func (s *SessionService) GenerateSession(ctx context.Context, topic string, difficulty models.Difficulty) (*models.PracticeSession, error) {
	if topic == "" {
		return nil, errors.New("topic must not be empty")
	}
	if !difficulty.Valid() {
		return nil, fmt.Errorf("invalid difficulty %q", difficulty)
	}

	text, err := s.model.GenerateText(ctx, sessionPrompt(topic, difficulty))
	if err != nil {
		return nil, fmt.Errorf("failed to generate session: %w", err)
	}

	raw, err := extract.JSON(text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session: invalid JSON response from model: %w", err)
	}

	var session models.PracticeSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to generate session: invalid JSON response from model: %w", err)
	}

	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("failed to generate session: %w", err)
	}

	// Missing per-sentence ids are repairable: assign positional ones
	for i := range session.Sentences {
		if session.Sentences[i].ID == "" {
			session.Sentences[i].ID = strconv.Itoa(i + 1)
		}
	}

	session.Topic = topic
	session.Difficulty = difficulty

	return &session, nil
}

// AnalyzePronunciation sends the recorded audio with its target
// sentence to the model and returns normalized feedback. Partial
// omissions are filled with defaults; only an unparseable or empty
// response is an error.
func (s *SessionService) AnalyzePronunciation(ctx context.Context, audio []byte, mimeType, targetText string) (*models.PronunciationFeedback, error) {
	if targetText == "" {
		return nil, errors.New("target text must not be empty")
	}
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	text, err := s.model.GenerateWithAudio(ctx, analysisPrompt(targetText), audio, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze audio: %w", err)
	}

	raw, err := extract.JSON(text)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze audio: invalid JSON response from model: %w", err)
	}

	// Score is decoded separately so a string or missing value can be
	// told apart from a legitimate zero.
	var payload struct {
		Score           json.RawMessage         `json:"score"`
		Transcription   string                  `json:"transcription"`
		FeedbackDetails *models.FeedbackDetails `json:"feedbackDetails"`
		Mistakes        []models.Mistake        `json:"mistakes"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to analyze audio: invalid JSON response from model: %w", err)
	}

	feedback := &models.PronunciationFeedback{
		Score:         defaultScore,
		Transcription: payload.Transcription,
		Mistakes:      payload.Mistakes,
	}

	if payload.Score != nil {
		var score float64
		if err := json.Unmarshal(payload.Score, &score); err == nil {
			feedback.Score = score
		}
	}
	if payload.FeedbackDetails != nil {
		feedback.FeedbackDetails = *payload.FeedbackDetails
	} else {
		feedback.FeedbackDetails = notEvaluated
	}
	if feedback.Mistakes == nil {
		feedback.Mistakes = []models.Mistake{}
	}
	if feedback.Transcription == "" {
		feedback.Transcription = targetText
	}

	return feedback, nil
}

// sessionPrompt builds the generation instruction for a topic and level
func sessionPrompt(topic string, difficulty models.Difficulty) string {
	return fmt.Sprintf(`You are a JSON API. Create a spoken English practice session.

Topic: %q
Level: %s (%s)
User: Vietnamese learner practicing natural speaking

Generate exactly 5 sentences that flow naturally in a realistic scenario.

For EACH sentence provide:
- id: sequential number as string ("1", "2", etc.)
- text: the English sentence
- ipa: IPA phonetic transcription (use proper IPA symbols)
- translation: Vietnamese translation
- note: performance instruction (emotion, tone, stress)

Return ONLY a valid JSON object with this structure:
{
  "topic": %q,
  "scenario": "One sentence describing the situation",
  "sentences": [
    {
      "id": "1",
      "text": "English sentence",
      "ipa": "IPA transcription",
      "translation": "Bản dịch tiếng Việt",
      "note": "Performance note"
    }
  ]
}

Output the JSON only. No markdown, no code blocks, no extra text.`, topic, difficulty, difficultyGuide[difficulty], topic)
}

// analysisPrompt builds the pronunciation assessment instruction
func analysisPrompt(targetText string) string {
	return fmt.Sprintf(`Pronunciation analysis API. Target: %q

Analyze audio and output ONLY this JSON:
{
  "score": 85,
  "transcription": "what you heard",
  "feedbackDetails": {
    "accuracy": "Phát âm tổng thể: [tốt/khá/cần cải thiện]",
    "prosody": "Ngữ điệu: [tự nhiên/hơi cứng/cần luyện]",
    "linking": "Liên kết âm: [tốt/còn rời rạc]"
  },
  "mistakes": [{"word": "từ_sai", "suggestion": "Cách sửa"}]
}

Keep feedback concise. Vietnamese only. No markdown.`, targetText)
}
