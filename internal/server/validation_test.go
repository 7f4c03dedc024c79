package server

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func newValidationServer() *MusicServer {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	return &MusicServer{logger: logger}
}

func TestValidateSongID(t *testing.T) {
	ms := newValidationServer()

	cases := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{"Valid", "42", 42, false},
		{"Empty", "", 0, true},
		{"NotANumber", "abc", 0, true},
		{"Zero", "0", 0, true},
		{"Negative", "-3", 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, vErr := ms.validateSongID(tc.raw)
			if tc.wantErr && vErr == nil {
				t.Errorf("Expected validation error for %q", tc.raw)
			}
			if !tc.wantErr {
				if vErr != nil {
					t.Errorf("Unexpected validation error for %q: %+v", tc.raw, vErr)
				}
				if got != tc.want {
					t.Errorf("Expected %d, got %d", tc.want, got)
				}
			}
		})
	}
}

func TestValidateSearchQuery(t *testing.T) {
	ms := newValidationServer()

	if vErr := ms.validateSearchQuery("daft punk"); vErr != nil {
		t.Errorf("Expected ordinary query to pass, got %+v", vErr)
	}
	if vErr := ms.validateSearchQuery(strings.Repeat("a", 1001)); vErr == nil {
		t.Error("Expected over-long query to fail")
	}
	if vErr := ms.validateSearchQuery("bad\x00query"); vErr == nil {
		t.Error("Expected query with null byte to fail")
	}
}

func TestValidatePlaylistName(t *testing.T) {
	ms := newValidationServer()

	if vErr := ms.validatePlaylistName("Road Trip"); vErr != nil {
		t.Errorf("Expected valid name to pass, got %+v", vErr)
	}
	if vErr := ms.validatePlaylistName(""); vErr == nil {
		t.Error("Expected empty name to fail")
	}
	if vErr := ms.validatePlaylistName(strings.Repeat("x", 256)); vErr == nil {
		t.Error("Expected over-long name to fail")
	}
	if vErr := ms.validatePlaylistName("line\nbreak"); vErr == nil {
		t.Error("Expected name with newline to fail")
	}
}

func TestValidateCredentials(t *testing.T) {
	ms := newValidationServer()

	if errs := ms.validateCredentials("a@b.c", "password"); len(errs) != 0 {
		t.Errorf("Expected valid credentials to pass, got %+v", errs)
	}
	if errs := ms.validateCredentials("", "password"); len(errs) == 0 {
		t.Error("Expected missing email to fail")
	}
	if errs := ms.validateCredentials("not-an-email", "password"); len(errs) == 0 {
		t.Error("Expected malformed email to fail")
	}
	if errs := ms.validateCredentials("a@b.c", ""); len(errs) == 0 {
		t.Error("Expected missing password to fail")
	}
	if errs := ms.validateCredentials("a@b.c", "abc"); len(errs) == 0 {
		t.Error("Expected short password to fail")
	}
	if errs := ms.validateCredentials("", ""); len(errs) != 2 {
		t.Errorf("Expected two errors for empty credentials, got %d", len(errs))
	}
}

func TestSanitizeInput(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  hello  ", "hello"},
		{"with\x00null", "withnull"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := sanitizeInput(tc.in); got != tc.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "0B"},
		{512, "< 1KB"},
		{2048, "2KB"},
		{3 * 1024 * 1024, "3MB"},
	}

	for _, tc := range cases {
		if got := formatBytes(tc.in); got != tc.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
