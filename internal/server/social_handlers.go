package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"smartmusic/pkg/models"
)

// handleGetLikes returns the ids of songs the current user has liked.
func (ms *MusicServer) handleGetLikes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, ok := ms.requireSession(w, r)
	if !ok {
		return
	}

	ids, err := ms.store.GetLikedSongIDs(session.UserID)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving likes", err)
		return
	}
	if ids == nil {
		ids = []int{}
	}
	ms.respondJSON(w, ids)
}

// handleToggleLike flips the like state for (current user, song) and returns
// the new state.
func (ms *MusicServer) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, ok := ms.requireSession(w, r)
	if !ok {
		return
	}

	var payload struct {
		SongID int `json:"songId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if payload.SongID <= 0 {
		ms.respondWithValidationError(w, r, []ValidationError{{
			Field:   "songId",
			Message: "Song ID must be positive",
			Code:    "INVALID_SONG_ID_VALUE",
		}})
		return
	}

	liked, err := ms.store.ToggleLike(session.UserID, payload.SongID)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error toggling like", err)
		return
	}

	ms.respondJSON(w, map[string]bool{"liked": liked})
}

// handleSendMessage appends a direct message from the current user.
func (ms *MusicServer) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, ok := ms.requireSession(w, r)
	if !ok {
		return
	}

	var payload struct {
		ToID    string `json:"toId"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	payload.Content = sanitizeInput(payload.Content)
	var errs []ValidationError
	if payload.ToID == "" {
		errs = append(errs, ValidationError{
			Field:   "toId",
			Message: "Recipient is required",
			Code:    "MISSING_RECIPIENT",
		})
	}
	if payload.Content == "" {
		errs = append(errs, ValidationError{
			Field:   "content",
			Message: "Message content is required",
			Code:    "MISSING_CONTENT",
		})
	}
	if len(errs) > 0 {
		ms.respondWithValidationError(w, r, errs)
		return
	}

	msg, err := ms.store.SendMessage(session.UserID, payload.ToID, payload.Content)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error sending message", err)
		return
	}

	ms.respondJSON(w, msg)
}

// handleConversations lists the current user's chat counterparties.
func (ms *MusicServer) handleConversations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, ok := ms.requireSession(w, r)
	if !ok {
		return
	}

	contacts, err := ms.store.GetUserConversations(session.UserID)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving conversations", err)
		return
	}
	if contacts == nil {
		contacts = []models.User{}
	}
	ms.respondJSON(w, contacts)
}

// handleConversationByID routes GET /api/conversations/{otherId} (history)
// and POST /api/conversations/{otherId}/read (mark read).
func (ms *MusicServer) handleConversationByID(w http.ResponseWriter, r *http.Request) {
	session, ok := ms.requireSession(w, r)
	if !ok {
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// ["api", "conversations", "{otherId}"] or ["api", "conversations", "{otherId}", "read"]
	if len(pathParts) < 3 || pathParts[2] == "" {
		http.Error(w, "Invalid conversation path", http.StatusBadRequest)
		return
	}
	otherID := pathParts[2]

	if len(pathParts) >= 4 && pathParts[3] == "read" {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := ms.store.MarkConversationRead(session.UserID, otherID); err != nil {
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error marking conversation read", err)
			return
		}
		ms.respondJSON(w, map[string]string{"status": "success"})
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	history, err := ms.store.GetChatHistory(session.UserID, otherID)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving chat history", err)
		return
	}
	if history == nil {
		history = []models.Message{}
	}
	ms.respondJSON(w, history)
}
