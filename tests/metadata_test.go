package tests

import (
	"testing"

	"github.com/sirupsen/logrus"

	"smartmusic/internal/metadata"
)

func newTestExtractor() *metadata.Extractor {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return metadata.NewExtractor([]string{".mp3", ".flac", ".wav", ".m4a"}, logger)
}

func TestIsAudioFile(t *testing.T) {
	extractor := newTestExtractor()

	cases := []struct {
		path string
		want bool
	}{
		{"song.mp3", true},
		{"SONG.MP3", true},
		{"album/track.flac", true},
		{"take.wav", true},
		{"voice.m4a", true},
		{"cover.jpg", false},
		{"notes.txt", false},
		{"noextension", false},
	}

	for _, tc := range cases {
		if got := extractor.IsAudioFile(tc.path); got != tc.want {
			t.Errorf("IsAudioFile(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestGetContentType(t *testing.T) {
	extractor := newTestExtractor()

	cases := []struct {
		path string
		want string
	}{
		{"song.mp3", "audio/mpeg"},
		{"song.flac", "audio/flac"},
		{"song.wav", "audio/wav"},
		{"song.m4a", "audio/mp4"},
		{"song.xyz", "application/octet-stream"},
	}

	for _, tc := range cases {
		if got := extractor.GetContentType(tc.path); got != tc.want {
			t.Errorf("GetContentType(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
