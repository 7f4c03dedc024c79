package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"smartmusic/pkg/models"
)

// handleUpload ingests an audio file: the media lands in the configured
// directory and a catalog record is minted from its embedded metadata.
// Premium and admin users only.
func (ms *MusicServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, ok := ms.requireRole(w, r, models.RolePremium, models.RoleAdmin)
	if !ok {
		return
	}

	maxBytes := int64(ms.config.Media.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Upload too large or malformed", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Missing file field", err)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !ms.config.IsFormatSupported(ext) {
		ms.respondWithValidationError(w, r, []ValidationError{{
			Field:   "file",
			Message: fmt.Sprintf("Unsupported file type: %s", ext),
			Code:    "UNSUPPORTED_FILE_TYPE",
		}})
		return
	}

	if err := os.MkdirAll(ms.config.Media.Dir, 0755); err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error preparing media directory", err)
		return
	}

	// Stored under a fresh name so uploads can never collide or escape the
	// media directory.
	storedName := uuid.NewString() + ext
	destPath := filepath.Join(ms.config.Media.Dir, storedName)

	dest, err := os.Create(destPath)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error storing upload", err)
		return
	}
	if _, err := io.Copy(dest, file); err != nil {
		dest.Close()
		os.Remove(destPath)
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error storing upload", err)
		return
	}
	dest.Close()

	song, err := ms.extractor.ExtractFromFile(destPath)
	if err != nil {
		ms.logger.WithError(err).WithField("file_path", destPath).Warn("Failed to extract metadata from uploaded file")
		song = models.Song{
			Title:  strings.TrimSuffix(header.Filename, ext),
			Artist: "Unknown Artist",
			Album:  "Unknown Album",
		}
	}
	song.File = storedName
	song.Art = ms.artwork.Lookup(r.Context(), song.Artist, song.Title)

	catalog, err := ms.store.SaveSong(song, session.UserID)
	if err != nil {
		os.Remove(destPath)
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error saving song record", err)
		return
	}

	ms.logger.WithFields(logrus.Fields{
		"file":     storedName,
		"title":    song.Title,
		"artist":   song.Artist,
		"uploader": session.UserID,
	}).Info("Uploaded new song")

	ms.respondJSON(w, catalog)
}
