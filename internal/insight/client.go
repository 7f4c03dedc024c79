package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"smartmusic/internal/config"
	"smartmusic/pkg/models"
)

// Fallback copy returned when the generative API is disabled, unreachable or
// unconfigured. Callers always receive usable text.
const (
	insightFallback      = "Enjoy the music! (AI unavailable)"
	playlistNameFallback = "My Awesome Mix"
	playlistNameEmpty    = "My Playlist"
)

// Client generates short flavor text through the Gemini REST API. The key is
// read from the GEMINI_API_KEY environment variable at startup.
type Client struct {
	config *config.InsightConfig
	apiKey string
	client *http.Client
	logger *logrus.Logger
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// NewClient creates an insight client. A missing API key is not an error;
// every call falls back to canned text.
func NewClient(cfg *config.InsightConfig, logger *logrus.Logger) *Client {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" && cfg.Enabled {
		logger.Warn("GEMINI_API_KEY not set, song insights will use fallback text")
	}

	return &Client{
		config: cfg,
		apiKey: apiKey,
		client: &http.Client{Timeout: 20 * time.Second},
		logger: logger,
	}
}

// Available reports whether generated text can actually be requested.
func (c *Client) Available() bool {
	return c.config.Enabled && c.apiKey != ""
}

// SongInsight returns one or two sentences of fun trivia about a song.
func (c *Client) SongInsight(ctx context.Context, song models.Song) string {
	prompt := fmt.Sprintf(
		"Tell me a fun, short (max 2 sentences) piece of trivia or a vibe description for the song \"%s\" by %s.",
		song.Title, song.Artist,
	)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		c.logger.WithError(err).WithField("song_id", song.ID).Debug("Song insight generation failed")
		return insightFallback
	}
	return text
}

// SuggestPlaylistName proposes a creative name for a playlist holding the
// given songs.
func (c *Client) SuggestPlaylistName(ctx context.Context, songs []models.Song) string {
	if len(songs) == 0 {
		return playlistNameEmpty
	}

	titles := make([]string, 0, len(songs))
	for _, song := range songs {
		titles = append(titles, fmt.Sprintf("%s by %s", song.Title, song.Artist))
	}

	prompt := fmt.Sprintf(
		"Suggest a creative, short playlist name (max 4 words, no quotes) for a playlist containing: %s.",
		strings.Join(titles, ", "),
	)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		c.logger.WithError(err).Debug("Playlist name suggestion failed")
		return playlistNameFallback
	}
	return strings.Trim(text, "\"' ")
}

// generate performs one generateContent call and returns the first candidate.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("insight client not configured")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode insight request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(c.config.Endpoint, "/"), c.config.Model, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build insight request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("insight request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("insight API returned status %d", resp.StatusCode)
	}

	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode insight response: %w", err)
	}

	if len(payload.Candidates) == 0 || len(payload.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("insight API returned no candidates")
	}

	text := strings.TrimSpace(payload.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("insight API returned empty text")
	}
	return text, nil
}
