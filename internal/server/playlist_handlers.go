package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"smartmusic/pkg/models"
)

// handlePlaylists serves GET (current user's playlists) and POST (create).
func (ms *MusicServer) handlePlaylists(w http.ResponseWriter, r *http.Request) {
	session, ok := ms.requireSession(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		playlists, err := ms.store.GetUserPlaylists(session.UserID)
		if err != nil {
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving playlists", err)
			return
		}
		if playlists == nil {
			playlists = []models.Playlist{}
		}
		ms.respondJSON(w, playlists)

	case http.MethodPost:
		var payload struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
			return
		}

		payload.Name = sanitizeInput(payload.Name)
		if vErr := ms.validatePlaylistName(payload.Name); vErr != nil {
			ms.respondWithValidationError(w, r, []ValidationError{*vErr})
			return
		}

		playlist, err := ms.store.CreatePlaylist(session.UserID, payload.Name)
		if err != nil {
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error creating playlist", err)
			return
		}
		ms.respondJSON(w, playlist)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handlePlaylistByID routes DELETE /api/playlists/{id} and
// POST/DELETE /api/playlists/{id}/songs/{songId}.
func (ms *MusicServer) handlePlaylistByID(w http.ResponseWriter, r *http.Request) {
	session, ok := ms.requireSession(w, r)
	if !ok {
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// ["api", "playlists", "{id}"] or ["api", "playlists", "{id}", "songs", "{songId}"]
	if len(pathParts) < 3 {
		http.Error(w, "Invalid playlist path", http.StatusBadRequest)
		return
	}
	playlistID := pathParts[2]

	owned, err := ms.userOwnsPlaylist(session.UserID, playlistID)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error checking playlist ownership", err)
		return
	}
	if !owned {
		ms.respondWithError(w, r, http.StatusNotFound, "Playlist not found", nil)
		return
	}

	if len(pathParts) >= 5 && pathParts[3] == "songs" {
		songID, vErr := ms.validateSongID(pathParts[4])
		if vErr != nil {
			ms.respondWithValidationError(w, r, []ValidationError{*vErr})
			return
		}

		switch r.Method {
		case http.MethodPost:
			err = ms.store.AddToPlaylist(playlistID, songID)
		case http.MethodDelete:
			err = ms.store.RemoveFromPlaylist(playlistID, songID)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err != nil {
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error updating playlist", err)
			return
		}
		ms.respondJSON(w, map[string]string{"status": "success"})
		return
	}

	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := ms.store.DeletePlaylist(playlistID); err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error deleting playlist", err)
		return
	}
	ms.respondJSON(w, map[string]string{"status": "success"})
}

// userOwnsPlaylist reports whether the playlist exists and belongs to userID.
func (ms *MusicServer) userOwnsPlaylist(userID, playlistID string) (bool, error) {
	playlists, err := ms.store.GetUserPlaylists(userID)
	if err != nil {
		return false, err
	}
	for _, p := range playlists {
		if p.ID == playlistID {
			return true, nil
		}
	}
	return false, nil
}

// handleSuggestPlaylistName asks the insight client for a creative name for
// the given song set. Always answers 200 with a usable name.
func (ms *MusicServer) handleSuggestPlaylistName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, ok := ms.requireSession(w, r); !ok {
		return
	}

	var payload struct {
		SongIDs []int `json:"songIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	catalog, err := ms.store.GetAllSongs()
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving songs", err)
		return
	}

	byID := make(map[int]models.Song, len(catalog))
	for _, song := range catalog {
		byID[song.ID] = song
	}

	var songs []models.Song
	for _, id := range payload.SongIDs {
		if song, exists := byID[id]; exists {
			songs = append(songs, song)
		}
	}

	name := ms.insight.SuggestPlaylistName(r.Context(), songs)
	ms.respondJSON(w, map[string]string{"name": name})
}
