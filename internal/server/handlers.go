package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chinpeerapat/assistant-builder/internal/domain"
)

// maxUploadBytes bounds a single document upload.
const maxUploadBytes = 10 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireAuth checks the opaque bearer token. Authentication itself is an
// external collaborator; this is only the hard stop before remote work.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiToken != "" {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token != s.apiToken {
				writeError(w, http.StatusForbidden, "Unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGetChatbot(w http.ResponseWriter, r *http.Request) {
	bot, err := s.registry.Get(chi.URLParam(r, "chatbotID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Chatbot not found")
		return
	}
	writeJSON(w, http.StatusOK, bot)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	bot, err := s.registry.Get(chi.URLParam(r, "chatbotID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Chatbot not found")
		return
	}

	var req struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := domain.ValidateHistory(req.Messages); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := s.orchestrator.Respond(r.Context(), bot, req.Messages)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("chat turn failed", zap.String("chatbot_id", bot.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": reply})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	bot, err := s.registry.Get(chi.URLParam(r, "chatbotID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Chatbot not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unreadable file")
		return
	}

	receipt, err := s.pipeline.Ingest(r.Context(), bot.ID, header.Filename, string(content))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Error processing file")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "File uploaded and processed successfully",
		"passageId": receipt.PassageID,
		"passages":  receipt.Passages,
		"summary":   receipt.Summary,
	})
}

func (s *Server) handleInquiry(w http.ResponseWriter, r *http.Request) {
	bot, err := s.registry.Get(chi.URLParam(r, "chatbotID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Chatbot not found")
		return
	}

	var req struct {
		ConversationID string `json:"conversationId"`
		Email          string `json:"email"`
		Message        string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	inq, err := s.inquiries.Submit(r.Context(), domain.Inquiry{
		ChatbotID:      bot.ID,
		ConversationID: req.ConversationID,
		Email:          req.Email,
		Message:        req.Message,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to send inquiry")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"inquiry": inq})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
