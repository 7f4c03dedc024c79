package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"smartmusic/internal/artwork"
	"smartmusic/internal/auth"
	"smartmusic/internal/config"
	"smartmusic/internal/insight"
	"smartmusic/internal/metadata"
	"smartmusic/internal/player"
	"smartmusic/internal/store"
	"smartmusic/internal/tunnel"
)

// MusicServer wires the store, session manager, playback controller and the
// lookup services behind the HTTP API.
type MusicServer struct {
	config     *config.Config
	store      *store.Store
	sessions   *auth.SessionManager
	controller *player.Controller
	relay      *player.Relay
	artwork    *artwork.Resolver
	insight    *insight.Client
	extractor  *metadata.Extractor
	tunnelSvc  *tunnel.Service
	logger     *logrus.Logger

	mux        *http.ServeMux
	httpServer *http.Server
}

// NewMusicServer creates a new music server instance
func NewMusicServer(cfg *config.Config, st *store.Store, logger *logrus.Logger) (*MusicServer, error) {
	sessionDuration, err := time.ParseDuration(cfg.Auth.SessionDuration)
	if err != nil {
		return nil, fmt.Errorf("invalid session duration %q: %w", cfg.Auth.SessionDuration, err)
	}

	tunnelSvc, err := tunnel.NewService(&cfg.Tunnel)
	if err != nil {
		logger.WithError(err).Warn("Tunnel service not available")
		tunnelSvc = nil
	}

	relay := player.NewRelay()

	ms := &MusicServer{
		config:     cfg,
		store:      st,
		sessions:   auth.NewSessionManager(sessionDuration, cfg.Auth.SecureCookies),
		controller: player.NewController(relay),
		relay:      relay,
		artwork:    artwork.NewResolver(&cfg.Artwork, logger),
		insight:    insight.NewClient(&cfg.Insight, logger),
		extractor:  metadata.NewExtractor(cfg.Media.SupportedFormats, logger),
		tunnelSvc:  tunnelSvc,
		logger:     logger,
		mux:        http.NewServeMux(),
	}

	ms.setupRoutes()
	return ms, nil
}

func (ms *MusicServer) setupRoutes() {
	ms.mux.HandleFunc("/", ms.handleHome)
	ms.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(ms.config.Server.StaticDir))))
	ms.mux.HandleFunc("/health", ms.handleHealthCheck)

	// Auth routes
	ms.mux.HandleFunc("/api/auth/signup", ms.handleSignup)
	ms.mux.HandleFunc("/api/auth/login", ms.handleLogin)
	ms.mux.HandleFunc("/api/auth/logout", ms.handleLogout)
	ms.mux.HandleFunc("/api/auth/me", ms.handleCurrentUser)
	ms.mux.HandleFunc("/api/profile", ms.handleUpdateProfile)

	// Catalog routes
	ms.mux.HandleFunc("/api/songs", ms.handleSongs)
	ms.mux.HandleFunc("/api/songs/", ms.handleSongByID)
	ms.mux.HandleFunc("/api/upload", ms.handleUpload)
	ms.mux.HandleFunc("/stream/", ms.handleStreamSong)

	// Playlist routes
	ms.mux.HandleFunc("/api/playlists", ms.handlePlaylists)
	ms.mux.HandleFunc("/api/playlists/suggest-name", ms.handleSuggestPlaylistName)
	ms.mux.HandleFunc("/api/playlists/", ms.handlePlaylistByID)

	// Like routes
	ms.mux.HandleFunc("/api/likes", ms.handleGetLikes)
	ms.mux.HandleFunc("/api/likes/toggle", ms.handleToggleLike)

	// Messaging routes
	ms.mux.HandleFunc("/api/messages", ms.handleSendMessage)
	ms.mux.HandleFunc("/api/conversations", ms.handleConversations)
	ms.mux.HandleFunc("/api/conversations/", ms.handleConversationByID)

	// Admin routes
	ms.mux.HandleFunc("/api/admin/users", ms.handleAdminUsers)
	ms.mux.HandleFunc("/api/admin/users/", ms.handleAdminUserByID)

	// Player routes
	ms.mux.HandleFunc("/api/player/state", ms.handlePlayerState)
	ms.mux.HandleFunc("/api/player/load", ms.handlePlayerLoad)
	ms.mux.HandleFunc("/api/player/next", ms.handlePlayerNext)
	ms.mux.HandleFunc("/api/player/prev", ms.handlePlayerPrev)
	ms.mux.HandleFunc("/api/player/toggle", ms.handlePlayerToggle)
	ms.mux.HandleFunc("/api/player/seek", ms.handlePlayerSeek)
	ms.mux.HandleFunc("/api/player/volume", ms.handlePlayerVolume)
	ms.mux.HandleFunc("/api/player/mode", ms.handlePlayerMode)
	ms.mux.HandleFunc("/api/player/mode/cycle", ms.handlePlayerModeCycle)
	ms.mux.HandleFunc("/api/player/event", ms.handlePlayerEvent)
	ms.mux.HandleFunc("/api/player/commands", ms.handlePlayerCommands)

	// Lookup routes
	ms.mux.HandleFunc("/api/artwork", ms.handleArtwork)
	ms.mux.HandleFunc("/api/insight/", ms.handleInsight)
}

// Handler returns the full middleware chain, outermost first: panic
// recovery, CORS, request logging, then session resolution.
func (ms *MusicServer) Handler() http.Handler {
	var handler http.Handler = ms.mux
	handler = ms.sessionMiddleware(handler)
	handler = ms.requestLoggingMiddleware(handler)
	handler = ms.corsMiddleware(handler)
	handler = ms.panicRecoveryMiddleware(handler)
	return handler
}

// Start runs the HTTP server until ListenAndServe returns.
func (ms *MusicServer) Start() error {
	localAddress := fmt.Sprintf("http://%s", ms.config.GetAddress())

	ms.logger.WithFields(logrus.Fields{
		"address": ms.config.GetAddress(),
	}).Info("Smart Music server starting")
	ms.logger.Infof("Local access: %s", localAddress)

	if ms.tunnelSvc != nil {
		if err := ms.tunnelSvc.Start(context.Background(), localAddress); err != nil {
			ms.logger.WithError(err).Warn("Could not start tunnel")
		}
	}

	ms.httpServer = &http.Server{
		Addr:        ms.config.GetAddress(),
		Handler:     ms.Handler(),
		ReadTimeout: time.Duration(ms.config.Server.ReadTimeout) * time.Second,
	}

	if err := ms.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server and the tunnel.
func (ms *MusicServer) Shutdown(ctx context.Context) error {
	ms.logger.Info("Shutting down music server...")

	if ms.tunnelSvc != nil {
		if err := ms.tunnelSvc.Stop(); err != nil {
			ms.logger.WithError(err).Warn("Error stopping tunnel")
		}
	}

	if ms.httpServer != nil {
		return ms.httpServer.Shutdown(ctx)
	}
	return nil
}
