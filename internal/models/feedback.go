package models

// FeedbackDetails holds the three free-text assessment areas
type FeedbackDetails struct {
	Accuracy string `json:"accuracy"`
	Prosody  string `json:"prosody"`
	Linking  string `json:"linking"`
}

// Mistake pairs a mispronounced word with a correction suggestion
type Mistake struct {
	Word       string `json:"word"`
	Suggestion string `json:"suggestion"`
}

// PronunciationFeedback is the structured assessment for one recording.
// Each analysis call produces a fresh value that fully replaces the
// previous one; no history is kept across sentences or sessions.
type PronunciationFeedback struct {
	Score           float64         `json:"score"`
	Transcription   string          `json:"transcription"`
	FeedbackDetails FeedbackDetails `json:"feedbackDetails"`
	Mistakes        []Mistake       `json:"mistakes"`
}
