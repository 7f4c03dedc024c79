package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"smartmusic/pkg/models"
)

// handleSongs serves the catalog. GET returns every song, optionally filtered
// by a search= query over title, artist and album. POST creates or edits a
// record (premium and admin only) and returns the updated catalog.
func (ms *MusicServer) handleSongs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ms.handleGetSongs(w, r)
	case http.MethodPost:
		ms.handleSaveSong(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (ms *MusicServer) handleGetSongs(w http.ResponseWriter, r *http.Request) {
	searchQuery := r.URL.Query().Get("search")
	if vErr := ms.validateSearchQuery(searchQuery); vErr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*vErr})
		return
	}

	songs, err := ms.store.GetAllSongs()
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving songs", err)
		return
	}

	if searchQuery != "" {
		query := strings.ToLower(searchQuery)
		filtered := make([]models.Song, 0, len(songs))
		for _, song := range songs {
			if strings.Contains(strings.ToLower(song.Title), query) ||
				strings.Contains(strings.ToLower(song.Artist), query) ||
				strings.Contains(strings.ToLower(song.Album), query) {
				filtered = append(filtered, song)
			}
		}
		songs = filtered
	}

	ms.respondJSON(w, songs)
}

func (ms *MusicServer) handleSaveSong(w http.ResponseWriter, r *http.Request) {
	session, ok := ms.requireRole(w, r, models.RolePremium, models.RoleAdmin)
	if !ok {
		return
	}

	var song models.Song
	if err := json.NewDecoder(r.Body).Decode(&song); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if song.Title == "" {
		ms.respondWithValidationError(w, r, []ValidationError{{
			Field:   "title",
			Message: "Title is required",
			Code:    "MISSING_TITLE",
		}})
		return
	}

	catalog, err := ms.store.SaveSong(song, session.UserID)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error saving song", err)
		return
	}

	ms.respondJSON(w, catalog)
}

// handleSongByID routes /api/songs/{id} (DELETE) and
// /api/songs/{id}/likers (GET).
func (ms *MusicServer) handleSongByID(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// ["api", "songs", "{id}"] or ["api", "songs", "{id}", "likers"]
	if len(pathParts) < 3 {
		http.Error(w, "Invalid song path", http.StatusBadRequest)
		return
	}

	songID, vErr := ms.validateSongID(pathParts[2])
	if vErr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*vErr})
		return
	}

	if len(pathParts) >= 4 && pathParts[3] == "likers" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ms.handleSongLikers(w, r, songID)
		return
	}

	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ms.handleDeleteSong(w, r, songID)
}

func (ms *MusicServer) handleSongLikers(w http.ResponseWriter, r *http.Request, songID int) {
	users, err := ms.store.GetSongLikers(songID)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving likers", err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	ms.respondJSON(w, users)
}

// handleDeleteSong removes a catalog entry. Admins may delete anything,
// premium users only their own uploads. The store cascades likes and
// playlist references.
func (ms *MusicServer) handleDeleteSong(w http.ResponseWriter, r *http.Request, songID int) {
	session, ok := ms.requireSession(w, r)
	if !ok {
		return
	}

	if session.Role != models.RoleAdmin {
		uploads, err := ms.store.GetSongsUploadedBy(session.UserID)
		if err != nil {
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error checking ownership", err)
			return
		}
		owned := false
		for _, song := range uploads {
			if song.ID == songID {
				owned = true
				break
			}
		}
		if !owned {
			ms.respondWithError(w, r, http.StatusForbidden, "Insufficient permissions", nil)
			return
		}
	}

	if err := ms.store.DeleteSong(songID); err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error deleting song", err)
		return
	}

	ms.respondJSON(w, map[string]string{"status": "success"})
}
