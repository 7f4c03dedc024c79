package server

import (
	"encoding/json"
	"net/http"
	"path/filepath"

	"smartmusic/internal/store"
)

// handleHome serves the main SPA / index file from the configured static dir.
func (ms *MusicServer) handleHome(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(ms.config.Server.StaticDir, "index.html"))
}

// handleSignup registers a new account and opens a session for it.
func (ms *MusicServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !ms.config.Auth.AllowSignup {
		ms.respondWithError(w, r, http.StatusForbidden, "Signup is disabled", nil)
		return
	}

	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	payload.Username = sanitizeInput(payload.Username)
	payload.Email = sanitizeInput(payload.Email)

	errs := ms.validateCredentials(payload.Email, payload.Password)
	if payload.Username == "" {
		errs = append(errs, ValidationError{
			Field:   "username",
			Message: "Username is required",
			Code:    "MISSING_USERNAME",
		})
	}
	if len(errs) > 0 {
		ms.respondWithValidationError(w, r, errs)
		return
	}

	user, err := ms.store.Signup(payload.Username, payload.Email, payload.Password)
	if err != nil {
		ms.respondWithStoreError(w, r, err)
		return
	}

	session := ms.sessions.CreateSession(user.ID, user.Role)
	ms.sessions.SetSessionCookie(w, session)

	ms.logger.WithField("username", user.Username).Info("User signed up and logged in")
	ms.respondJSON(w, user)
}

// handleLogin authenticates by email and password.
func (ms *MusicServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if errs := ms.validateCredentials(credentials.Email, credentials.Password); len(errs) > 0 {
		ms.respondWithValidationError(w, r, errs)
		return
	}

	user, err := ms.store.Login(credentials.Email, credentials.Password)
	if err != nil {
		ms.logger.WithError(err).WithField("email", credentials.Email).Warn("Failed login attempt")
		ms.respondWithStoreError(w, r, err)
		return
	}

	session := ms.sessions.CreateSession(user.ID, user.Role)
	ms.sessions.SetSessionCookie(w, session)

	ms.logger.WithField("username", user.Username).Info("User logged in successfully")
	ms.respondJSON(w, user)
}

// handleLogout invalidates the current session.
func (ms *MusicServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if session, ok := sessionFromRequest(r); ok {
		ms.sessions.DeleteSession(session.ID)
		ms.logger.WithField("user_id", session.UserID).Info("User logged out")
	}

	ms.sessions.ClearSessionCookie(w)
	ms.respondJSON(w, map[string]string{"status": "success"})
}

// handleCurrentUser returns the account attached to the current session.
func (ms *MusicServer) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, ok := ms.requireSession(w, r)
	if !ok {
		return
	}

	user, err := ms.store.GetUserByID(session.UserID)
	if err != nil {
		ms.respondWithStoreError(w, r, err)
		return
	}
	if user == nil {
		// Account deleted out from under an open session.
		ms.sessions.DeleteSession(session.ID)
		ms.sessions.ClearSessionCookie(w)
		ms.respondWithError(w, r, http.StatusUnauthorized, "Session no longer valid", nil)
		return
	}

	ms.respondJSON(w, user)
}

// handleUpdateProfile applies partial profile changes to the current user.
func (ms *MusicServer) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, ok := ms.requireSession(w, r)
	if !ok {
		return
	}

	var payload struct {
		Username *string `json:"username"`
		Avatar   *string `json:"avatar"`
		Bio      *string `json:"bio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if payload.Username != nil {
		trimmed := sanitizeInput(*payload.Username)
		if trimmed == "" {
			ms.respondWithValidationError(w, r, []ValidationError{{
				Field:   "username",
				Message: "Username cannot be empty",
				Code:    "EMPTY_USERNAME",
			}})
			return
		}
		payload.Username = &trimmed
	}

	user, err := ms.store.UpdateProfile(session.UserID, store.ProfileUpdate{
		Username: payload.Username,
		Avatar:   payload.Avatar,
		Bio:      payload.Bio,
	})
	if err != nil {
		ms.respondWithStoreError(w, r, err)
		return
	}

	ms.respondJSON(w, user)
}
