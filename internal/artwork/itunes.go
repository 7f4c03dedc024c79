package artwork

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"smartmusic/internal/cache"
	"smartmusic/internal/config"
)

// Resolver looks up cover art for a song on the iTunes Search API. Lookups
// never fail: when the API is unreachable, disabled, or has no match, a
// deterministic placeholder URL is returned instead.
type Resolver struct {
	config *config.ArtworkConfig
	client *http.Client
	cache  *cache.StringCache
	logger *logrus.Logger
}

// searchResponse mirrors the subset of the iTunes search payload we read.
type searchResponse struct {
	ResultCount int `json:"resultCount"`
	Results     []struct {
		ArtworkURL100 string `json:"artworkUrl100"`
	} `json:"results"`
}

// NewResolver creates an artwork resolver backed by an in-memory URL cache.
func NewResolver(cfg *config.ArtworkConfig, logger *logrus.Logger) *Resolver {
	return &Resolver{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		cache:  cache.NewStringCache(time.Duration(cfg.CacheTTLMinutes) * time.Minute),
		logger: logger,
	}
}

// Lookup resolves an artwork URL for the given artist and title, upgrading
// the thumbnail the API returns to a 400x400 rendition.
func (r *Resolver) Lookup(ctx context.Context, artist, title string) string {
	key := strings.ToLower(artist + "|" + title)
	if cached, ok := r.cache.GetString(key); ok {
		return cached
	}

	resolved := r.placeholder(artist, title)
	if r.config.Enabled {
		if found, err := r.search(ctx, artist, title); err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"artist": artist,
				"title":  title,
			}).Debug("Artwork lookup failed, using placeholder")
		} else if found != "" {
			resolved = found
		}
	}

	r.cache.SetString(key, resolved)
	return resolved
}

func (r *Resolver) search(ctx context.Context, artist, title string) (string, error) {
	params := url.Values{}
	params.Set("term", strings.TrimSpace(artist+" "+title))
	params.Set("media", "music")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.config.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build artwork request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("artwork request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("artwork API returned status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode artwork response: %w", err)
	}

	if payload.ResultCount == 0 || len(payload.Results) == 0 {
		return "", nil
	}

	// The API hands back a 100x100 thumbnail; the larger rendition lives at
	// the same path.
	return strings.Replace(payload.Results[0].ArtworkURL100, "100x100", "400x400", 1), nil
}

// placeholder builds a stable per-song fallback image URL.
func (r *Resolver) placeholder(artist, title string) string {
	seed := url.PathEscape(strings.ToLower(artist + "-" + title))
	if seed == "" {
		seed = "cover"
	}
	return fmt.Sprintf("%s/seed/%s/400/400", strings.TrimRight(r.config.Placeholder, "/"), seed)
}
