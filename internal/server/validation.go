package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"smartmusic/internal/store"
)

// ValidationError represents a validation error with details
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationResult contains validation results
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// respondJSON writes v as the JSON response body.
func (ms *MusicServer) respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ms.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// respondWithValidationError sends a structured validation error response
func (ms *MusicServer) respondWithValidationError(w http.ResponseWriter, r *http.Request, errors []ValidationError) {
	ms.logger.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"errors": errors,
	}).Warn("Validation failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)

	result := ValidationResult{
		Valid:  false,
		Errors: errors,
	}

	json.NewEncoder(w).Encode(result)
}

// respondWithError sends a structured error response
func (ms *MusicServer) respondWithError(w http.ResponseWriter, r *http.Request, statusCode int, message string, err error) {
	logEntry := ms.logger.WithFields(logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"status_code": statusCode,
		"message":     message,
	})

	if err != nil {
		logEntry = logEntry.WithError(err)
	}

	if statusCode >= 500 {
		logEntry.Error("Server error")
	} else {
		logEntry.Warn("Client error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]interface{}{
		"error":   message,
		"code":    statusCode,
		"success": false,
	}

	json.NewEncoder(w).Encode(response)
}

// respondWithStoreError maps store sentinels onto HTTP status codes.
func (ms *MusicServer) respondWithStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrDuplicateEmail):
		ms.respondWithError(w, r, http.StatusConflict, "Email already registered", err)
	case errors.Is(err, store.ErrInvalidCredentials):
		ms.respondWithError(w, r, http.StatusUnauthorized, "Invalid credentials", err)
	case errors.Is(err, store.ErrAccountBlocked):
		ms.respondWithError(w, r, http.StatusUnauthorized, "Account is blocked", err)
	case errors.Is(err, store.ErrUserNotFound):
		ms.respondWithError(w, r, http.StatusNotFound, "User not found", err)
	default:
		ms.respondWithError(w, r, http.StatusInternalServerError, "Internal server error", err)
	}
}

// validateSongID validates and parses a song ID from a URL path segment.
func (ms *MusicServer) validateSongID(raw string) (int, *ValidationError) {
	if raw == "" {
		return 0, &ValidationError{
			Field:   "song_id",
			Message: "Song ID is required",
			Code:    "MISSING_SONG_ID",
		}
	}

	songID, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{
			Field:   "song_id",
			Message: "Song ID must be a valid integer",
			Code:    "INVALID_SONG_ID_FORMAT",
		}
	}

	if songID <= 0 {
		return 0, &ValidationError{
			Field:   "song_id",
			Message: "Song ID must be positive",
			Code:    "INVALID_SONG_ID_VALUE",
		}
	}

	return songID, nil
}

// validateSearchQuery validates search query parameters
func (ms *MusicServer) validateSearchQuery(query string) *ValidationError {
	if len(query) > 1000 {
		return &ValidationError{
			Field:   "search",
			Message: "Search query too long (max 1000 characters)",
			Code:    "SEARCH_QUERY_TOO_LONG",
		}
	}

	if strings.Contains(query, "\x00") {
		return &ValidationError{
			Field:   "search",
			Message: "Search query contains invalid characters",
			Code:    "INVALID_SEARCH_CHARACTERS",
		}
	}

	return nil
}

// validatePlaylistName validates playlist name
func (ms *MusicServer) validatePlaylistName(name string) *ValidationError {
	if name == "" {
		return &ValidationError{
			Field:   "name",
			Message: "Playlist name is required",
			Code:    "MISSING_PLAYLIST_NAME",
		}
	}

	if len(name) > 255 {
		return &ValidationError{
			Field:   "name",
			Message: "Playlist name too long (max 255 characters)",
			Code:    "PLAYLIST_NAME_TOO_LONG",
		}
	}

	if strings.Contains(name, "\x00") || strings.Contains(name, "\n") || strings.Contains(name, "\r") {
		return &ValidationError{
			Field:   "name",
			Message: "Playlist name contains invalid characters",
			Code:    "INVALID_PLAYLIST_NAME_CHARACTERS",
		}
	}

	return nil
}

// validateCredentials validates signup/login payload fields.
func (ms *MusicServer) validateCredentials(email, password string) []ValidationError {
	var errs []ValidationError

	if email == "" {
		errs = append(errs, ValidationError{
			Field:   "email",
			Message: "Email is required",
			Code:    "MISSING_EMAIL",
		})
	} else if !strings.Contains(email, "@") {
		errs = append(errs, ValidationError{
			Field:   "email",
			Message: "Email format is invalid",
			Code:    "INVALID_EMAIL_FORMAT",
		})
	}

	if password == "" {
		errs = append(errs, ValidationError{
			Field:   "password",
			Message: "Password is required",
			Code:    "MISSING_PASSWORD",
		})
	} else if len(password) < 4 {
		errs = append(errs, ValidationError{
			Field:   "password",
			Message: "Password too short (min 4 characters)",
			Code:    "PASSWORD_TOO_SHORT",
		})
	}

	return errs
}

// sanitizeInput sanitizes user input to prevent injection attacks
func sanitizeInput(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Trim whitespace
	input = strings.TrimSpace(input)

	return input
}
