package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"smartmusic/pkg/models"
)

// handleAdminUsers lists every account. Admin only.
func (ms *MusicServer) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, ok := ms.requireRole(w, r, models.RoleAdmin); !ok {
		return
	}

	users, err := ms.store.GetAllUsers()
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving users", err)
		return
	}
	ms.respondJSON(w, users)
}

// handleAdminUserByID routes the per-user admin actions:
// PUT /api/admin/users/{id}/role, POST /api/admin/users/{id}/block,
// POST /api/admin/users/{id}/password.
func (ms *MusicServer) handleAdminUserByID(w http.ResponseWriter, r *http.Request) {
	if _, ok := ms.requireRole(w, r, models.RoleAdmin); !ok {
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// ["api", "admin", "users", "{id}", action]
	if len(pathParts) < 5 || pathParts[3] == "" {
		http.Error(w, "Invalid admin path", http.StatusBadRequest)
		return
	}
	targetID := pathParts[3]
	action := pathParts[4]

	switch action {
	case "role":
		if r.Method != http.MethodPut {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ms.handleAdminSetRole(w, r, targetID)
	case "block":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ms.handleAdminToggleBlock(w, r, targetID)
	case "password":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ms.handleAdminResetPassword(w, r, targetID)
	default:
		http.Error(w, "Unknown admin action", http.StatusNotFound)
	}
}

func (ms *MusicServer) handleAdminSetRole(w http.ResponseWriter, r *http.Request, targetID string) {
	var payload struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if err := ms.store.UpdateUserRole(targetID, payload.Role); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid role", err)
		return
	}

	ms.respondJSON(w, map[string]string{"status": "success"})
}

func (ms *MusicServer) handleAdminToggleBlock(w http.ResponseWriter, r *http.Request, targetID string) {
	users, err := ms.store.ToggleUserBlock(targetID)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error toggling block", err)
		return
	}

	// A freshly blocked account loses its sessions immediately.
	for _, u := range users {
		if u.ID == targetID && u.IsBlocked {
			ms.sessions.DeleteUserSessions(targetID)
			break
		}
	}

	ms.respondJSON(w, users)
}

func (ms *MusicServer) handleAdminResetPassword(w http.ResponseWriter, r *http.Request, targetID string) {
	var payload struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if len(payload.Password) < 4 {
		ms.respondWithValidationError(w, r, []ValidationError{{
			Field:   "password",
			Message: "Password too short (min 4 characters)",
			Code:    "PASSWORD_TOO_SHORT",
		}})
		return
	}

	if err := ms.store.AdminResetPassword(targetID, payload.Password); err != nil {
		ms.respondWithStoreError(w, r, err)
		return
	}

	ms.respondJSON(w, map[string]string{"status": "success"})
}
