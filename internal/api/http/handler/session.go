package handler

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/townerr/flashmind/internal/logger"
	"github.com/townerr/flashmind/internal/model"
	"github.com/townerr/flashmind/internal/service"
)

// Session exposes study-session CRUD, public browsing and deck copying.
type Session struct {
	sessionService *service.Session
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewSession(sessionService *service.Session, contextManager model.ContextManager, logger *logger.Logger) *Session {
	return &Session{
		sessionService: sessionService,
		contextManager: contextManager,
		logger:         logger,
	}
}

type createSessionRequest struct {
	Topic          string            `json:"topic"`
	TotalCards     int               `json:"totalCards"`
	Cards          []model.Flashcard `json:"cards"`
	CompletedCards int               `json:"completedCards"`
	CorrectAnswers int               `json:"correctAnswers"`
	IsPublic       bool              `json:"isPublic"`
}

func (h *Session) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrNotAuthenticated)
		return
	}

	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.sessionService.CreateSession(r.Context(), userID, model.StudySession{
		Topic:          req.Topic,
		TotalCards:     req.TotalCards,
		Cards:          req.Cards,
		CompletedCards: req.CompletedCards,
		CorrectAnswers: req.CorrectAnswers,
		IsPublic:       req.IsPublic,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

func (h *Session) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrNotAuthenticated)
		return
	}

	sessions, err := h.sessionService.GetSessions(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	if sessions == nil {
		sessions = []model.StudySession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *Session) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrNotAuthenticated)
		return
	}

	sessionID, err := sessionIDFromRequest(r)
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	var update model.SessionUpdate
	if err := decodeJSON(r, &update); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.sessionService.UpdateSession(r.Context(), userID, sessionID, update); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Session) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrNotAuthenticated)
		return
	}

	sessionID, err := sessionIDFromRequest(r)
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	if err := h.sessionService.DeleteSession(r.Context(), userID, sessionID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPublic requires no authentication.
func (h *Session) ListPublic(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessionService.GetPublicSessions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	if sessions == nil {
		sessions = []model.PublicSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *Session) Copy(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrNotAuthenticated)
		return
	}

	sessionID, err := sessionIDFromRequest(r)
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	copied, err := h.sessionService.CopyPublicSession(r.Context(), userID, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, copied)
}

func (h *Session) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrNotAuthenticated)
		return
	}

	sessionID, err := sessionIDFromRequest(r)
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	reader, err := h.sessionService.ExportSession(r.Context(), userID, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=session-"+sessionID.String()+".json")
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error("Session handler: failed to stream export",
			"session_id", sessionID,
			"error", err)
	}
}

func sessionIDFromRequest(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["sessionID"])
}
