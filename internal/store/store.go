package store

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"smartmusic/internal/auth"
	"smartmusic/internal/kv"
	"smartmusic/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// documentKey is the storage key for the persisted document. The schema
// version is baked into the key: a schema change bumps the suffix and starts
// from a fresh document, orphaning (not migrating) the old blob.
const documentKey = "smart_music_db_v3"

// document is the single source of truth persisted as one JSON blob.
type document struct {
	Users     []models.User     `json:"users"`
	Playlists []models.Playlist `json:"playlists"`
	Likes     []models.Like     `json:"likes"`
	Songs     []models.Song     `json:"songs"`
	Messages  []models.Message  `json:"messages"`
}

// Store owns the persisted document and exposes its CRUD contract. Every
// mutating operation reads, modifies and re-persists the whole document while
// holding the mutex, so callers always observe a consistent sequence of
// states and two sequential mutations are never reordered. Raw document
// access is deliberately not exported; invariants (song id uniqueness,
// cascade deletes, playlist de-duplication) cannot be bypassed.
type Store struct {
	kv     *kv.Store
	logger *logrus.Logger
	mu     sync.Mutex
	rng    *rand.Rand
}

// Open wraps a key/value store as the application store, seeding the initial
// document (default admin plus the bundled catalog) when none exists yet.
func Open(kvs *kv.Store, adminEmail string, logger *logrus.Logger) (*Store, error) {
	s := &Store{
		kv:     kvs,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	_, found, err := kvs.Get(documentKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if !found {
		if err := s.seed(adminEmail); err != nil {
			return nil, fmt.Errorf("failed to seed document: %w", err)
		}
	}

	return s, nil
}

// load reads and decodes the current document.
func (s *Store) load() (*document, error) {
	blob, found, err := s.kv.Get(documentKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("document %q missing", documentKey)
	}

	var doc document
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

// save encodes and persists the document as a single atomic write.
func (s *Store) save(doc *document) error {
	blob, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return s.kv.Put(documentKey, blob)
}

// --- AUTH ---

// Signup registers a new account. The email must not already be registered
// (case-sensitive exact match). The returned user has the credential field
// stripped.
func (s *Store) Signup(username, email, password string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.User{}, err
	}

	for _, u := range doc.Users {
		if u.Email == email {
			return models.User{}, ErrDuplicateEmail
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    email,
		Password: hash,
		Role:     models.RoleUser,
		Avatar:   fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=random", username),
		Bio:      "Music lover",
	}
	doc.Users = append(doc.Users, user)

	if err := s.save(doc); err != nil {
		return models.User{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": username,
	}).Info("User signed up")

	return user.Sanitized(), nil
}

// Login authenticates by email and password. It fails with
// ErrInvalidCredentials when no account matches and with ErrAccountBlocked
// when the matched account is blocked. The credential field is never
// returned.
func (s *Store) Login(email, password string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.User{}, err
	}

	for _, u := range doc.Users {
		if u.Email != email {
			continue
		}
		if !auth.CheckPassword(u.Password, password) {
			return models.User{}, ErrInvalidCredentials
		}
		if u.IsBlocked {
			return models.User{}, ErrAccountBlocked
		}
		return u.Sanitized(), nil
	}

	return models.User{}, ErrInvalidCredentials
}

// ProfileUpdate carries optional profile fields for UpdateProfile. Nil
// pointers leave the existing value untouched.
type ProfileUpdate struct {
	Username *string
	Avatar   *string
	Bio      *string
}

// UpdateProfile applies profile changes to an existing user, failing with
// ErrUserNotFound when the id is unknown.
func (s *Store) UpdateProfile(userID string, updates ProfileUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.User{}, err
	}

	for i := range doc.Users {
		if doc.Users[i].ID != userID {
			continue
		}
		if updates.Username != nil {
			doc.Users[i].Username = *updates.Username
		}
		if updates.Avatar != nil {
			doc.Users[i].Avatar = *updates.Avatar
		}
		if updates.Bio != nil {
			doc.Users[i].Bio = *updates.Bio
		}
		if err := s.save(doc); err != nil {
			return models.User{}, err
		}
		return doc.Users[i].Sanitized(), nil
	}

	return models.User{}, ErrUserNotFound
}

// GetUserByID returns the user with the given id, or nil if absent. A
// missing id is a normal outcome, not an error.
func (s *Store) GetUserByID(userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, u := range doc.Users {
		if u.ID == userID {
			safe := u.Sanitized()
			return &safe, nil
		}
	}
	return nil, nil
}

// GetAllUsers returns every account with credentials stripped.
func (s *Store) GetAllUsers() ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(doc.Users))
	for _, u := range doc.Users {
		users = append(users, u.Sanitized())
	}
	return users, nil
}

// --- ADMIN / ROLES ---

// UpdateUserRole sets the role of the target user. Unknown ids are a no-op.
func (s *Store) UpdateUserRole(targetUserID, newRole string) error {
	if newRole != models.RoleUser && newRole != models.RolePremium && newRole != models.RoleAdmin {
		return fmt.Errorf("unknown role: %s", newRole)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	for i := range doc.Users {
		if doc.Users[i].ID == targetUserID {
			doc.Users[i].Role = newRole
			return s.save(doc)
		}
	}
	return nil
}

// ToggleUserBlock flips the blocked flag on the target user and returns the
// updated user list. Admin accounts cannot be blocked.
func (s *Store) ToggleUserBlock(targetUserID string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	for i := range doc.Users {
		if doc.Users[i].ID == targetUserID && doc.Users[i].Role != models.RoleAdmin {
			doc.Users[i].IsBlocked = !doc.Users[i].IsBlocked
			if err := s.save(doc); err != nil {
				return nil, err
			}
			break
		}
	}

	users := make([]models.User, 0, len(doc.Users))
	for _, u := range doc.Users {
		users = append(users, u.Sanitized())
	}
	return users, nil
}

// AdminResetPassword replaces the target user's password, failing with
// ErrUserNotFound when the id is unknown.
func (s *Store) AdminResetPassword(targetUserID, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	for i := range doc.Users {
		if doc.Users[i].ID == targetUserID {
			doc.Users[i].Password = hash
			return s.save(doc)
		}
	}
	return ErrUserNotFound
}

// --- SONGS ---

// GetAllSongs returns the full catalog.
func (s *Store) GetAllSongs() ([]models.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Songs, nil
}

// SaveSong creates or edits a catalog entry and returns the updated catalog.
// When song.ID matches an existing record its fields are overwritten but the
// original uploader attribution is preserved. Otherwise a new id of
// max(existing ids, 0)+1 is minted and uploadedBy stamped.
func (s *Store) SaveSong(song models.Song, uploadedBy string) ([]models.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	updated := false
	for i := range doc.Songs {
		if doc.Songs[i].ID == song.ID {
			original := doc.Songs[i].UploadedBy
			doc.Songs[i] = song
			if original != "" {
				doc.Songs[i].UploadedBy = original
			} else {
				doc.Songs[i].UploadedBy = uploadedBy
			}
			updated = true
			break
		}
	}

	if !updated {
		maxID := 0
		for _, existing := range doc.Songs {
			if existing.ID > maxID {
				maxID = existing.ID
			}
		}
		song.ID = maxID + 1
		song.UploadedBy = uploadedBy
		doc.Songs = append(doc.Songs, song)
	}

	if err := s.save(doc); err != nil {
		return nil, err
	}
	return doc.Songs, nil
}

// DeleteSong removes the song and cascades: its likes are pruned and its id
// is stripped from every playlist. All three effects land in one document
// write, so readers never observe a partial delete.
func (s *Store) DeleteSong(songID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	songs := doc.Songs[:0]
	for _, song := range doc.Songs {
		if song.ID != songID {
			songs = append(songs, song)
		}
	}
	doc.Songs = songs

	likes := doc.Likes[:0]
	for _, like := range doc.Likes {
		if like.SongID != songID {
			likes = append(likes, like)
		}
	}
	doc.Likes = likes

	for i := range doc.Playlists {
		ids := doc.Playlists[i].Songs[:0]
		for _, id := range doc.Playlists[i].Songs {
			if id != songID {
				ids = append(ids, id)
			}
		}
		doc.Playlists[i].Songs = ids
	}

	if err := s.save(doc); err != nil {
		return err
	}

	s.logger.WithField("song_id", songID).Info("Deleted song with cascades")
	return nil
}

// GetSongsUploadedBy returns catalog entries attributed to the given user.
func (s *Store) GetSongsUploadedBy(userID string) ([]models.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	var songs []models.Song
	for _, song := range doc.Songs {
		if song.UploadedBy == userID {
			songs = append(songs, song)
		}
	}
	return songs, nil
}

// --- PLAYLISTS ---

// CreatePlaylist always creates a new record; names are not de-duplicated.
// The id combines a millisecond timestamp with a random suffix to avoid
// collision within the same millisecond.
func (s *Store) CreatePlaylist(userID, name string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Playlist{}, err
	}

	now := time.Now().UnixMilli()
	playlist := models.Playlist{
		ID:        fmt.Sprintf("%d%03d", now, s.rng.Intn(1000)),
		UserID:    userID,
		Name:      name,
		Songs:     []int{},
		CreatedAt: now,
	}
	doc.Playlists = append(doc.Playlists, playlist)

	if err := s.save(doc); err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}

// GetUserPlaylists returns the playlists owned by the given user.
func (s *Store) GetUserPlaylists(userID string) ([]models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	var playlists []models.Playlist
	for _, p := range doc.Playlists {
		if p.UserID == userID {
			playlists = append(playlists, p)
		}
	}
	return playlists, nil
}

// AddToPlaylist appends a song id to the playlist. Adding an id already
// present is a no-op, preserving the no-duplicate invariant. Unknown
// playlist ids are also a no-op.
func (s *Store) AddToPlaylist(playlistID string, songID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	for i := range doc.Playlists {
		if doc.Playlists[i].ID != playlistID {
			continue
		}
		for _, id := range doc.Playlists[i].Songs {
			if id == songID {
				return nil
			}
		}
		doc.Playlists[i].Songs = append(doc.Playlists[i].Songs, songID)
		return s.save(doc)
	}
	return nil
}

// RemoveFromPlaylist strips a song id from the playlist (no-op if absent).
func (s *Store) RemoveFromPlaylist(playlistID string, songID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	for i := range doc.Playlists {
		if doc.Playlists[i].ID != playlistID {
			continue
		}
		ids := doc.Playlists[i].Songs[:0]
		for _, id := range doc.Playlists[i].Songs {
			if id != songID {
				ids = append(ids, id)
			}
		}
		doc.Playlists[i].Songs = ids
		return s.save(doc)
	}
	return nil
}

// DeletePlaylist removes the playlist record (no-op if absent).
func (s *Store) DeletePlaylist(playlistID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	playlists := doc.Playlists[:0]
	for _, p := range doc.Playlists {
		if p.ID != playlistID {
			playlists = append(playlists, p)
		}
	}
	doc.Playlists = playlists
	return s.save(doc)
}

// --- LIKES ---

// ToggleLike inserts or removes the (user, song) pair and returns the
// resulting liked state: true means the song is now liked. Calling it twice
// returns to the original state.
func (s *Store) ToggleLike(userID string, songID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return false, err
	}

	for i, like := range doc.Likes {
		if like.UserID == userID && like.SongID == songID {
			doc.Likes = append(doc.Likes[:i], doc.Likes[i+1:]...)
			if err := s.save(doc); err != nil {
				return false, err
			}
			return false, nil
		}
	}

	doc.Likes = append(doc.Likes, models.Like{UserID: userID, SongID: songID})
	if err := s.save(doc); err != nil {
		return false, err
	}
	return true, nil
}

// GetLikedSongIDs returns the ids of songs the user has liked.
func (s *Store) GetLikedSongIDs(userID string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	var ids []int
	for _, like := range doc.Likes {
		if like.UserID == userID {
			ids = append(ids, like.SongID)
		}
	}
	return ids, nil
}

// GetSongLikers returns the users who have liked the given song.
func (s *Store) GetSongLikers(songID int) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	liked := make(map[string]bool)
	for _, like := range doc.Likes {
		if like.SongID == songID {
			liked[like.UserID] = true
		}
	}

	var users []models.User
	for _, u := range doc.Users {
		if liked[u.ID] {
			users = append(users, u.Sanitized())
		}
	}
	return users, nil
}

// --- MESSAGING ---

// SendMessage appends a direct message to the log.
func (s *Store) SendMessage(fromID, toID, content string) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.Message{}, err
	}

	msg := models.Message{
		ID:        uuid.NewString(),
		FromID:    fromID,
		ToID:      toID,
		Content:   content,
		Read:      false,
		Timestamp: time.Now().UnixMilli(),
	}
	doc.Messages = append(doc.Messages, msg)

	if err := s.save(doc); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// GetUserConversations derives the distinct counterparties from all messages
// involving the user, in first-seen order from the unsorted log.
func (s *Store) GetUserConversations(userID string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var contactIDs []string
	for _, m := range doc.Messages {
		var other string
		switch {
		case m.FromID == userID:
			other = m.ToID
		case m.ToID == userID:
			other = m.FromID
		default:
			continue
		}
		if !seen[other] {
			seen[other] = true
			contactIDs = append(contactIDs, other)
		}
	}

	byID := make(map[string]models.User, len(doc.Users))
	for _, u := range doc.Users {
		byID[u.ID] = u
	}

	var contacts []models.User
	for _, id := range contactIDs {
		if u, ok := byID[id]; ok {
			contacts = append(contacts, u.Sanitized())
		}
	}
	return contacts, nil
}

// GetChatHistory returns both directions of the conversation sorted
// ascending by timestamp.
func (s *Store) GetChatHistory(userID, otherID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	var history []models.Message
	for _, m := range doc.Messages {
		if (m.FromID == userID && m.ToID == otherID) || (m.FromID == otherID && m.ToID == userID) {
			history = append(history, m)
		}
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp < history[j].Timestamp
	})
	return history, nil
}

// MarkConversationRead flags every message sent to userID by otherID as read.
func (s *Store) MarkConversationRead(userID, otherID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	changed := false
	for i := range doc.Messages {
		if doc.Messages[i].ToID == userID && doc.Messages[i].FromID == otherID && !doc.Messages[i].Read {
			doc.Messages[i].Read = true
			changed = true
		}
	}

	if !changed {
		return nil
	}
	return s.save(doc)
}
