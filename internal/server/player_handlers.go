package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"smartmusic/internal/player"
	"smartmusic/pkg/models"
)

// handlePlayerState returns a snapshot of the shared transport state.
func (ms *MusicServer) handlePlayerState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ms.respondJSON(w, ms.controller.Snapshot())
}

// handlePlayerLoad selects a song by queue position, optionally replacing the
// queue with the given song ids first.
func (ms *MusicServer) handlePlayerLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, ok := ms.requireSession(w, r); !ok {
		return
	}

	var payload struct {
		Index   int   `json:"index"`
		SongIDs []int `json:"songIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	var queue []models.Song
	if payload.SongIDs != nil {
		catalog, err := ms.store.GetAllSongs()
		if err != nil {
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving songs", err)
			return
		}
		byID := make(map[int]models.Song, len(catalog))
		for _, song := range catalog {
			byID[song.ID] = song
		}

		queue = make([]models.Song, 0, len(payload.SongIDs))
		for _, id := range payload.SongIDs {
			if song, exists := byID[id]; exists {
				queue = append(queue, song)
			}
		}
	}

	if err := ms.controller.LoadAndPlay(payload.Index, queue); err != nil {
		if errors.Is(err, player.ErrIndexOutOfRange) {
			ms.respondWithValidationError(w, r, []ValidationError{{
				Field:   "index",
				Message: "Index outside the queue",
				Code:    "INDEX_OUT_OF_RANGE",
			}})
			return
		}
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error loading song", err)
		return
	}

	ms.respondJSON(w, ms.controller.Snapshot())
}

func (ms *MusicServer) handlePlayerNext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := ms.requireSession(w, r); !ok {
		return
	}
	ms.controller.PlayNext()
	ms.respondJSON(w, ms.controller.Snapshot())
}

func (ms *MusicServer) handlePlayerPrev(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := ms.requireSession(w, r); !ok {
		return
	}
	ms.controller.PlayPrev()
	ms.respondJSON(w, ms.controller.Snapshot())
}

func (ms *MusicServer) handlePlayerToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := ms.requireSession(w, r); !ok {
		return
	}
	ms.controller.TogglePlayPause()
	ms.respondJSON(w, ms.controller.Snapshot())
}

func (ms *MusicServer) handlePlayerSeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := ms.requireSession(w, r); !ok {
		return
	}

	var payload struct {
		Seconds float64 `json:"seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	ms.controller.Seek(payload.Seconds)
	ms.respondJSON(w, ms.controller.Snapshot())
}

func (ms *MusicServer) handlePlayerVolume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := ms.requireSession(w, r); !ok {
		return
	}

	var payload struct {
		Volume *float64 `json:"volume"`
		Muted  *bool    `json:"muted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if payload.Volume != nil {
		ms.controller.SetVolume(*payload.Volume)
	}
	if payload.Muted != nil {
		ms.controller.SetMuted(*payload.Muted)
	}
	ms.respondJSON(w, ms.controller.Snapshot())
}

// handlePlayerMode sets an explicit transport mode. This is the only path to
// LOOP_ONE, which the cycle button skips.
func (ms *MusicServer) handlePlayerMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := ms.requireSession(w, r); !ok {
		return
	}

	var payload struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if err := ms.controller.SetMode(player.Mode(payload.Mode)); err != nil {
		ms.respondWithValidationError(w, r, []ValidationError{{
			Field:   "mode",
			Message: "Unknown playback mode",
			Code:    "INVALID_MODE",
		}})
		return
	}
	ms.respondJSON(w, ms.controller.Snapshot())
}

func (ms *MusicServer) handlePlayerModeCycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := ms.requireSession(w, r); !ok {
		return
	}
	ms.controller.CycleMode()
	ms.respondJSON(w, ms.controller.Snapshot())
}

// handlePlayerEvent receives feedback from the rendering client: periodic
// time updates, the natural end of a song and play failures (e.g. the
// browser's gesture policy blocked autoplay).
func (ms *MusicServer) handlePlayerEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		Type        string  `json:"type"` // timeupdate, ended, playfailure
		CurrentTime float64 `json:"currentTime"`
		Duration    float64 `json:"duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	switch payload.Type {
	case "timeupdate":
		ms.controller.HandleTimeUpdate(payload.CurrentTime, payload.Duration)
	case "ended":
		ms.controller.HandleEnded()
	case "playfailure":
		ms.controller.HandlePlayFailure()
	default:
		ms.respondWithValidationError(w, r, []ValidationError{{
			Field:   "type",
			Message: "Unknown player event type",
			Code:    "INVALID_EVENT_TYPE",
		}})
		return
	}

	ms.respondJSON(w, ms.controller.Snapshot())
}

// handlePlayerCommands hands the rendering client every transport command it
// has not yet applied, by sequence number.
func (ms *MusicServer) handlePlayerCommands(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	since := uint64(0)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			ms.respondWithValidationError(w, r, []ValidationError{{
				Field:   "since",
				Message: "since must be a non-negative integer",
				Code:    "INVALID_SINCE",
			}})
			return
		}
		since = parsed
	}

	commands := ms.relay.Since(since)
	if commands == nil {
		commands = []player.Command{}
	}

	ms.respondJSON(w, map[string]interface{}{
		"commands": commands,
		"lastSeq":  ms.relay.LastSeq(),
	})
}
