package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// handleStreamSong streams an individual song by ID with Range support.
// Songs whose file reference is an absolute URL are redirected instead of
// proxied.
func (ms *MusicServer) handleStreamSong(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// ["stream", "{id}"]
	if len(pathParts) < 2 {
		http.Error(w, "Invalid song ID", http.StatusBadRequest)
		return
	}

	songID, vErr := ms.validateSongID(pathParts[1])
	if vErr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*vErr})
		return
	}

	songs, err := ms.store.GetAllSongs()
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving songs", err)
		return
	}

	var filename string
	found := false
	for _, song := range songs {
		if song.ID == songID {
			filename = song.File
			found = true
			break
		}
	}
	if !found {
		http.Error(w, "Song not found", http.StatusNotFound)
		return
	}

	if strings.HasPrefix(filename, "http://") || strings.HasPrefix(filename, "https://") {
		http.Redirect(w, r, filename, http.StatusFound)
		return
	}

	filePath := filepath.Join(ms.config.Media.Dir, filepath.Base(filename))

	file, err := os.Open(filePath)
	if err != nil {
		ms.logger.WithError(err).WithField("file_path", filePath).Warn("Media file missing for catalog entry")
		http.Error(w, "Media file not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error reading file info", err)
		return
	}

	w.Header().Set("Content-Type", ms.extractor.GetContentType(filePath))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", stat.Size()))
	w.Header().Set("Accept-Ranges", "bytes")

	// Handle range requests for seeking support
	rangeHeader := r.Header.Get("Range")
	if rangeHeader != "" {
		ms.handleRangeRequest(w, file, stat.Size(), rangeHeader)
		return
	}

	if _, err := io.Copy(w, file); err != nil {
		ms.logger.WithError(err).Debug("Error streaming file")
	}
}

// handleRangeRequest implements simple single-range byte serving for seeking.
func (ms *MusicServer) handleRangeRequest(w http.ResponseWriter, file *os.File, fileSize int64, rangeHeader string) {
	// Parse range header (e.g., "bytes=0-1023")
	ranges := strings.TrimPrefix(rangeHeader, "bytes=")
	rangeParts := strings.Split(ranges, "-")

	start, err := strconv.ParseInt(rangeParts[0], 10, 64)
	if err != nil {
		start = 0
	}

	var end int64
	if len(rangeParts) > 1 && rangeParts[1] != "" {
		end, err = strconv.ParseInt(rangeParts[1], 10, 64)
		if err != nil {
			end = fileSize - 1
		}
	} else {
		end = fileSize - 1
	}

	// Validate range
	if start < 0 || end >= fileSize || start > end {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", fileSize))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	contentLength := end - start + 1
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", contentLength))
	w.WriteHeader(http.StatusPartialContent)

	file.Seek(start, io.SeekStart)
	io.CopyN(w, file, contentLength)
}
