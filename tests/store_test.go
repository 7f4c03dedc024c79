package tests

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"smartmusic/internal/kv"
	"smartmusic/internal/store"
	"smartmusic/pkg/models"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests

	kvStore, err := kv.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("Failed to open kv store: %v", err)
	}
	t.Cleanup(func() { kvStore.Close() })

	st, err := store.Open(kvStore, "admin@test.local", logger)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	return st
}

func signupTestUser(t *testing.T, st *store.Store, name string) models.User {
	t.Helper()

	user, err := st.Signup(name, name+"@test.local", "password123")
	if err != nil {
		t.Fatalf("Failed to sign up %s: %v", name, err)
	}
	return user
}

func TestSeededDocument(t *testing.T) {
	st := newTestStore(t)

	songs, err := st.GetAllSongs()
	if err != nil {
		t.Fatalf("Failed to get songs: %v", err)
	}
	if len(songs) == 0 {
		t.Fatal("Expected seeded catalog to be non-empty")
	}

	seen := make(map[int]bool)
	for _, song := range songs {
		if song.ID <= 0 {
			t.Errorf("Expected positive song ID, got %d", song.ID)
		}
		if seen[song.ID] {
			t.Errorf("Duplicate song ID %d in seeded catalog", song.ID)
		}
		seen[song.ID] = true
		if song.Title == "" {
			t.Error("Seeded song has empty title")
		}
	}

	users, err := st.GetAllUsers()
	if err != nil {
		t.Fatalf("Failed to get users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("Expected exactly the admin account, got %d users", len(users))
	}
	if users[0].Role != models.RoleAdmin {
		t.Errorf("Expected seeded account to be admin, got %s", users[0].Role)
	}
	if users[0].Password != "" {
		t.Error("Expected password to be stripped from returned user")
	}
}

func TestSignupAndLogin(t *testing.T) {
	st := newTestStore(t)

	t.Run("DuplicateEmail", func(t *testing.T) {
		first, err := st.Signup("alice", "alice@test.local", "secretone")
		if err != nil {
			t.Fatalf("Failed to sign up: %v", err)
		}

		_, err = st.Signup("alice2", "alice@test.local", "secrettwo")
		if err != store.ErrDuplicateEmail {
			t.Fatalf("Expected ErrDuplicateEmail, got %v", err)
		}

		// The first registration still works
		user, err := st.Login("alice@test.local", "secretone")
		if err != nil {
			t.Fatalf("Failed to log in as first registrant: %v", err)
		}
		if user.ID != first.ID {
			t.Errorf("Expected login to return first registrant %s, got %s", first.ID, user.ID)
		}
	})

	t.Run("InvalidCredentials", func(t *testing.T) {
		if _, err := st.Login("alice@test.local", "wrongpassword"); err != store.ErrInvalidCredentials {
			t.Errorf("Expected ErrInvalidCredentials for wrong password, got %v", err)
		}
		if _, err := st.Login("nobody@test.local", "secretone"); err != store.ErrInvalidCredentials {
			t.Errorf("Expected ErrInvalidCredentials for unknown email, got %v", err)
		}
	})

	t.Run("BlockedAccount", func(t *testing.T) {
		user := signupTestUser(t, st, "blocked")
		if _, err := st.ToggleUserBlock(user.ID); err != nil {
			t.Fatalf("Failed to block user: %v", err)
		}
		if _, err := st.Login("blocked@test.local", "password123"); err != store.ErrAccountBlocked {
			t.Errorf("Expected ErrAccountBlocked, got %v", err)
		}

		// Unblock restores access
		if _, err := st.ToggleUserBlock(user.ID); err != nil {
			t.Fatalf("Failed to unblock user: %v", err)
		}
		if _, err := st.Login("blocked@test.local", "password123"); err != nil {
			t.Errorf("Expected login to succeed after unblock, got %v", err)
		}
	})

	t.Run("SanitizedOutput", func(t *testing.T) {
		user := signupTestUser(t, st, "carol")
		if user.Password != "" {
			t.Error("Expected signup to strip the password field")
		}
		loaded, err := st.GetUserByID(user.ID)
		if err != nil {
			t.Fatalf("Failed to load user: %v", err)
		}
		if loaded == nil || loaded.Password != "" {
			t.Error("Expected loaded user with stripped password")
		}
	})
}

func TestUpdateProfile(t *testing.T) {
	st := newTestStore(t)
	user := signupTestUser(t, st, "dave")

	newName := "david"
	newBio := "Bassist"
	updated, err := st.UpdateProfile(user.ID, store.ProfileUpdate{Username: &newName, Bio: &newBio})
	if err != nil {
		t.Fatalf("Failed to update profile: %v", err)
	}
	if updated.Username != "david" || updated.Bio != "Bassist" {
		t.Errorf("Unexpected profile after update: %+v", updated)
	}
	if updated.Avatar == "" {
		t.Error("Expected untouched avatar to survive the update")
	}

	if _, err := st.UpdateProfile("missing-id", store.ProfileUpdate{Username: &newName}); err != store.ErrUserNotFound {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestSaveSong(t *testing.T) {
	st := newTestStore(t)
	uploader := signupTestUser(t, st, "erin")

	initial, err := st.GetAllSongs()
	if err != nil {
		t.Fatalf("Failed to get songs: %v", err)
	}
	maxID := 0
	for _, song := range initial {
		if song.ID > maxID {
			maxID = song.ID
		}
	}

	t.Run("CreateMintsMaxPlusOne", func(t *testing.T) {
		catalog, err := st.SaveSong(models.Song{Title: "New Tune", Artist: "Erin"}, uploader.ID)
		if err != nil {
			t.Fatalf("Failed to save song: %v", err)
		}
		created := catalog[len(catalog)-1]
		if created.ID != maxID+1 {
			t.Errorf("Expected new song ID %d, got %d", maxID+1, created.ID)
		}
		if created.UploadedBy != uploader.ID {
			t.Errorf("Expected uploader %s, got %s", uploader.ID, created.UploadedBy)
		}
	})

	t.Run("EditPreservesUploader", func(t *testing.T) {
		editor := signupTestUser(t, st, "frank")

		catalog, err := st.SaveSong(models.Song{ID: maxID + 1, Title: "New Tune (remaster)", Artist: "Erin"}, editor.ID)
		if err != nil {
			t.Fatalf("Failed to edit song: %v", err)
		}

		var edited models.Song
		for _, song := range catalog {
			if song.ID == maxID+1 {
				edited = song
			}
		}
		if edited.Title != "New Tune (remaster)" {
			t.Errorf("Expected edited title, got %q", edited.Title)
		}
		if edited.UploadedBy != uploader.ID {
			t.Errorf("Expected original uploader %s to survive edit, got %s", uploader.ID, edited.UploadedBy)
		}
	})

	t.Run("GetSongsUploadedBy", func(t *testing.T) {
		uploads, err := st.GetSongsUploadedBy(uploader.ID)
		if err != nil {
			t.Fatalf("Failed to get uploads: %v", err)
		}
		if len(uploads) != 1 {
			t.Fatalf("Expected 1 upload, got %d", len(uploads))
		}
	})
}

func TestDeleteSongCascades(t *testing.T) {
	st := newTestStore(t)
	user := signupTestUser(t, st, "grace")

	songs, err := st.GetAllSongs()
	if err != nil {
		t.Fatalf("Failed to get songs: %v", err)
	}
	target := songs[0].ID
	other := songs[1].ID

	if _, err := st.ToggleLike(user.ID, target); err != nil {
		t.Fatalf("Failed to like song: %v", err)
	}
	if _, err := st.ToggleLike(user.ID, other); err != nil {
		t.Fatalf("Failed to like song: %v", err)
	}

	playlist, err := st.CreatePlaylist(user.ID, "Mix")
	if err != nil {
		t.Fatalf("Failed to create playlist: %v", err)
	}
	if err := st.AddToPlaylist(playlist.ID, target); err != nil {
		t.Fatalf("Failed to add to playlist: %v", err)
	}
	if err := st.AddToPlaylist(playlist.ID, other); err != nil {
		t.Fatalf("Failed to add to playlist: %v", err)
	}

	if err := st.DeleteSong(target); err != nil {
		t.Fatalf("Failed to delete song: %v", err)
	}

	remaining, err := st.GetAllSongs()
	if err != nil {
		t.Fatalf("Failed to get songs: %v", err)
	}
	for _, song := range remaining {
		if song.ID == target {
			t.Error("Deleted song still present in catalog")
		}
	}

	liked, err := st.GetLikedSongIDs(user.ID)
	if err != nil {
		t.Fatalf("Failed to get likes: %v", err)
	}
	if len(liked) != 1 || liked[0] != other {
		t.Errorf("Expected only like for %d to survive, got %v", other, liked)
	}

	playlists, err := st.GetUserPlaylists(user.ID)
	if err != nil {
		t.Fatalf("Failed to get playlists: %v", err)
	}
	if len(playlists) != 1 {
		t.Fatalf("Expected 1 playlist, got %d", len(playlists))
	}
	for _, id := range playlists[0].Songs {
		if id == target {
			t.Error("Deleted song still referenced by playlist")
		}
	}
}

func TestPlaylists(t *testing.T) {
	st := newTestStore(t)
	user := signupTestUser(t, st, "heidi")

	t.Run("DuplicateNamesAllowed", func(t *testing.T) {
		first, err := st.CreatePlaylist(user.ID, "Workout")
		if err != nil {
			t.Fatalf("Failed to create playlist: %v", err)
		}
		second, err := st.CreatePlaylist(user.ID, "Workout")
		if err != nil {
			t.Fatalf("Failed to create playlist: %v", err)
		}
		if first.ID == second.ID {
			t.Error("Expected distinct IDs for same-named playlists")
		}
		if first.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be stamped")
		}
	})

	t.Run("AddIsIdempotent", func(t *testing.T) {
		playlist, err := st.CreatePlaylist(user.ID, "Idempotent")
		if err != nil {
			t.Fatalf("Failed to create playlist: %v", err)
		}

		for i := 0; i < 3; i++ {
			if err := st.AddToPlaylist(playlist.ID, 1); err != nil {
				t.Fatalf("Failed to add to playlist: %v", err)
			}
		}

		playlists, err := st.GetUserPlaylists(user.ID)
		if err != nil {
			t.Fatalf("Failed to get playlists: %v", err)
		}
		for _, p := range playlists {
			if p.ID == playlist.ID && len(p.Songs) != 1 {
				t.Errorf("Expected 1 entry after repeated adds, got %d", len(p.Songs))
			}
		}
	})

	t.Run("RemoveAndDelete", func(t *testing.T) {
		playlist, err := st.CreatePlaylist(user.ID, "Doomed")
		if err != nil {
			t.Fatalf("Failed to create playlist: %v", err)
		}
		if err := st.AddToPlaylist(playlist.ID, 2); err != nil {
			t.Fatalf("Failed to add to playlist: %v", err)
		}
		if err := st.RemoveFromPlaylist(playlist.ID, 2); err != nil {
			t.Fatalf("Failed to remove from playlist: %v", err)
		}
		if err := st.DeletePlaylist(playlist.ID); err != nil {
			t.Fatalf("Failed to delete playlist: %v", err)
		}

		playlists, err := st.GetUserPlaylists(user.ID)
		if err != nil {
			t.Fatalf("Failed to get playlists: %v", err)
		}
		for _, p := range playlists {
			if p.ID == playlist.ID {
				t.Error("Deleted playlist still present")
			}
		}
	})
}

func TestToggleLikeParity(t *testing.T) {
	st := newTestStore(t)
	user := signupTestUser(t, st, "ivan")

	liked, err := st.ToggleLike(user.ID, 1)
	if err != nil {
		t.Fatalf("Failed to toggle like: %v", err)
	}
	if !liked {
		t.Error("Expected first toggle to like the song")
	}

	liked, err = st.ToggleLike(user.ID, 1)
	if err != nil {
		t.Fatalf("Failed to toggle like: %v", err)
	}
	if liked {
		t.Error("Expected second toggle to unlike the song")
	}

	ids, err := st.GetLikedSongIDs(user.ID)
	if err != nil {
		t.Fatalf("Failed to get likes: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Expected no likes after even number of toggles, got %v", ids)
	}
}

func TestSongLikers(t *testing.T) {
	st := newTestStore(t)
	a := signupTestUser(t, st, "judy")
	b := signupTestUser(t, st, "karl")

	if _, err := st.ToggleLike(a.ID, 3); err != nil {
		t.Fatalf("Failed to toggle like: %v", err)
	}
	if _, err := st.ToggleLike(b.ID, 3); err != nil {
		t.Fatalf("Failed to toggle like: %v", err)
	}

	likers, err := st.GetSongLikers(3)
	if err != nil {
		t.Fatalf("Failed to get likers: %v", err)
	}
	if len(likers) != 2 {
		t.Fatalf("Expected 2 likers, got %d", len(likers))
	}
	for _, u := range likers {
		if u.Password != "" {
			t.Error("Expected likers with stripped passwords")
		}
	}
}

func TestMessaging(t *testing.T) {
	st := newTestStore(t)
	a := signupTestUser(t, st, "liam")
	b := signupTestUser(t, st, "mona")
	c := signupTestUser(t, st, "nils")

	if _, err := st.SendMessage(a.ID, b.ID, "hey"); err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}
	if _, err := st.SendMessage(b.ID, a.ID, "hi back"); err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}
	if _, err := st.SendMessage(c.ID, a.ID, "unrelated"); err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}

	t.Run("Conversations", func(t *testing.T) {
		contacts, err := st.GetUserConversations(a.ID)
		if err != nil {
			t.Fatalf("Failed to get conversations: %v", err)
		}
		if len(contacts) != 2 {
			t.Fatalf("Expected 2 conversations, got %d", len(contacts))
		}
		// First-seen order from the message log
		if contacts[0].ID != b.ID || contacts[1].ID != c.ID {
			t.Errorf("Unexpected conversation order: %s, %s", contacts[0].ID, contacts[1].ID)
		}
	})

	t.Run("ChatHistory", func(t *testing.T) {
		history, err := st.GetChatHistory(a.ID, b.ID)
		if err != nil {
			t.Fatalf("Failed to get chat history: %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("Expected 2 messages, got %d", len(history))
		}
		if history[0].Timestamp > history[1].Timestamp {
			t.Error("Expected chat history sorted ascending by timestamp")
		}
		if history[0].Content != "hey" {
			t.Errorf("Expected oldest message first, got %q", history[0].Content)
		}
	})

	t.Run("MarkConversationRead", func(t *testing.T) {
		if err := st.MarkConversationRead(b.ID, a.ID); err != nil {
			t.Fatalf("Failed to mark conversation read: %v", err)
		}

		history, err := st.GetChatHistory(a.ID, b.ID)
		if err != nil {
			t.Fatalf("Failed to get chat history: %v", err)
		}
		for _, m := range history {
			if m.ToID == b.ID && !m.Read {
				t.Error("Expected messages to b to be read")
			}
			if m.ToID == a.ID && m.Read {
				t.Error("Expected messages to a to stay unread")
			}
		}
	})
}

func TestAdminOperations(t *testing.T) {
	st := newTestStore(t)
	user := signupTestUser(t, st, "oscar")

	t.Run("UpdateUserRole", func(t *testing.T) {
		if err := st.UpdateUserRole(user.ID, models.RolePremium); err != nil {
			t.Fatalf("Failed to update role: %v", err)
		}
		loaded, err := st.GetUserByID(user.ID)
		if err != nil {
			t.Fatalf("Failed to load user: %v", err)
		}
		if loaded.Role != models.RolePremium {
			t.Errorf("Expected premium role, got %s", loaded.Role)
		}

		if err := st.UpdateUserRole(user.ID, "SUPERUSER"); err == nil {
			t.Error("Expected error for unknown role")
		}
	})

	t.Run("AdminCannotBeBlocked", func(t *testing.T) {
		users, err := st.GetAllUsers()
		if err != nil {
			t.Fatalf("Failed to get users: %v", err)
		}
		var adminID string
		for _, u := range users {
			if u.Role == models.RoleAdmin {
				adminID = u.ID
			}
		}

		after, err := st.ToggleUserBlock(adminID)
		if err != nil {
			t.Fatalf("Failed to toggle block: %v", err)
		}
		for _, u := range after {
			if u.ID == adminID && u.IsBlocked {
				t.Error("Admin account must not be blockable")
			}
		}
	})

	t.Run("AdminResetPassword", func(t *testing.T) {
		if err := st.AdminResetPassword(user.ID, "freshpass"); err != nil {
			t.Fatalf("Failed to reset password: %v", err)
		}
		if _, err := st.Login("oscar@test.local", "freshpass"); err != nil {
			t.Errorf("Expected login with new password, got %v", err)
		}
		if _, err := st.Login("oscar@test.local", "password123"); err != store.ErrInvalidCredentials {
			t.Errorf("Expected old password to be rejected, got %v", err)
		}

		if err := st.AdminResetPassword("missing-id", "whatever"); err != store.ErrUserNotFound {
			t.Errorf("Expected ErrUserNotFound, got %v", err)
		}
	})
}
