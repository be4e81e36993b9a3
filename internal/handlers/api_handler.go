package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"pronounce/internal/models"
)

// SessionAPI is the service surface the HTTP layer depends on
type SessionAPI interface {
	GenerateSession(ctx context.Context, topic string, difficulty models.Difficulty) (*models.PracticeSession, error)
	AnalyzePronunciation(ctx context.Context, audio []byte, mimeType, targetText string) (*models.PronunciationFeedback, error)
}

// APIHandler handles the backend's JSON API
type APIHandler struct {
	sessions      SessionAPI
	uploadMaxSize int64
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(sessions SessionAPI, uploadMaxSize int64) *APIHandler {
	return &APIHandler{
		sessions:      sessions,
		uploadMaxSize: uploadMaxSize,
	}
}

// Health responds with a plain-text liveness string
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Pronounce backend is running!"))
}

// GenerateSession handles POST /api/generate-session
func (h *APIHandler) GenerateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic      string            `json:"topic"`
		Difficulty models.Difficulty `json:"difficulty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}
	if req.Topic == "" || req.Difficulty == "" {
		respondWithError(w, http.StatusBadRequest, "Missing topic or difficulty", "", nil)
		return
	}

	log.Printf("[API] Generate session request: topic=%q, difficulty=%q", req.Topic, req.Difficulty)

	session, err := h.sessions.GenerateSession(r.Context(), req.Topic, req.Difficulty)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error(), "Error in /api/generate-session", err)
		return
	}

	log.Printf("[API] Session generated successfully with %d sentences", len(session.Sentences))
	respondWithJSON(w, http.StatusOK, session)
}

// GenerateAudio handles POST /api/generate-audio. Reference speech
// moved to on-device synthesis; the path remains for older clients and
// always returns an empty payload.
func (h *APIHandler) GenerateAudio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}
	if req.Text == "" {
		respondWithError(w, http.StatusBadRequest, "Missing text", "", nil)
		return
	}

	log.Printf("[TTS] Request for text: %q - using client-side TTS", req.Text)
	respondWithJSON(w, http.StatusOK, map[string]string{"audioBase64": ""})
}

// AnalyzePronunciation handles POST /api/analyze-pronunciation. The
// request is multipart: an "audio" file part plus a "targetText" field.
func (h *APIHandler) AnalyzePronunciation(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.uploadMaxSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid multipart request", "", err)
		return
	}

	targetText := r.FormValue("targetText")
	file, header, err := r.FormFile("audio")
	if err != nil || targetText == "" {
		respondWithError(w, http.StatusBadRequest, "Missing audio file or target text", "", err)
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read audio file", "", err)
		return
	}

	mimeType := header.Header.Get("Content-Type")

	feedback, err := h.sessions.AnalyzePronunciation(r.Context(), audio, mimeType, targetText)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error(), "Error in /api/analyze-pronunciation", err)
		return
	}

	log.Printf("[API] Pronunciation analyzed: score=%.0f, mistakes=%d", feedback.Score, len(feedback.Mistakes))
	respondWithJSON(w, http.StatusOK, feedback)
}
