package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tutoria-backend/internal/middleware"
	"tutoria-backend/internal/repository"
)

// SessionsHandler exposes the chat history surface: listing a user's
// sessions and reading one session's transcript.
type SessionsHandler struct {
	sessionRepo *repository.SessionRepo
	chatRepo    *repository.ChatRepo
}

func NewSessionsHandler(sessionRepo *repository.SessionRepo, chatRepo *repository.ChatRepo) *SessionsHandler {
	return &SessionsHandler{sessionRepo: sessionRepo, chatRepo: chatRepo}
}

func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessions, err := h.sessionRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list sessions", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (h *SessionsHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	session, err := h.sessionRepo.Get(r.Context(), sessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp("SESSION_NOT_FOUND", "Session not found", r))
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load session", r))
		return
	}
	if session.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Session belongs to another user", r))
		return
	}

	turns, err := h.chatRepo.ListBySession(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load transcript", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": session,
		"turns":   turns,
	})
}

func (h *SessionsHandler) End(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	session, err := h.sessionRepo.Get(r.Context(), sessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp("SESSION_NOT_FOUND", "Session not found", r))
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load session", r))
		return
	}
	if session.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Session belongs to another user", r))
		return
	}

	if err := h.sessionRepo.End(r.Context(), sessionID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to end session", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Session ended"})
}

func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	session, err := h.sessionRepo.Get(r.Context(), sessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp("SESSION_NOT_FOUND", "Session not found", r))
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load session", r))
		return
	}
	if session.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Session belongs to another user", r))
		return
	}

	if err := h.sessionRepo.SoftDelete(r.Context(), sessionID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete session", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Session deleted"})
}
