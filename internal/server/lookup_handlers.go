package server

import (
	"net/http"
	"strings"
	"time"
)

// handleArtwork resolves cover art for an artist/title pair. This endpoint
// never fails; on any lookup problem the caller gets a placeholder URL.
func (ms *MusicServer) handleArtwork(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	artist := sanitizeInput(r.URL.Query().Get("artist"))
	title := sanitizeInput(r.URL.Query().Get("title"))
	if artist == "" && title == "" {
		ms.respondWithValidationError(w, r, []ValidationError{{
			Field:   "artist",
			Message: "artist or title is required",
			Code:    "MISSING_LOOKUP_TERMS",
		}})
		return
	}

	url := ms.artwork.Lookup(r.Context(), artist, title)
	ms.respondJSON(w, map[string]string{"url": url})
}

// handleInsight returns flavor text for GET /api/insight/{songId}. Always a
// 200 with usable text; generation failures fall back to canned copy.
func (ms *MusicServer) handleInsight(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// ["api", "insight", "{songId}"]
	if len(pathParts) < 3 {
		http.Error(w, "Invalid insight path", http.StatusBadRequest)
		return
	}

	songID, vErr := ms.validateSongID(pathParts[2])
	if vErr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*vErr})
		return
	}

	songs, err := ms.store.GetAllSongs()
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving songs", err)
		return
	}

	for _, song := range songs {
		if song.ID == songID {
			text := ms.insight.SongInsight(r.Context(), song)
			ms.respondJSON(w, map[string]string{"insight": text})
			return
		}
	}

	ms.respondWithError(w, r, http.StatusNotFound, "Song not found", nil)
}

// handleHealthCheck reports basic liveness plus catalog size.
func (ms *MusicServer) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	songs, err := ms.store.GetAllSongs()
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Store unavailable", err)
		return
	}

	ms.respondJSON(w, map[string]interface{}{
		"status":    "ok",
		"songs":     len(songs),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
