package tests

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smartmusic/internal/auth"
	"smartmusic/pkg/models"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("Expected hash to differ from plaintext")
	}

	if !auth.CheckPassword(hash, "correct horse") {
		t.Error("Expected matching password to verify")
	}
	if auth.CheckPassword(hash, "battery staple") {
		t.Error("Expected wrong password to fail")
	}
}

func TestGenerateRandomPassword(t *testing.T) {
	a, err := auth.GenerateRandomPassword(12)
	if err != nil {
		t.Fatalf("Failed to generate password: %v", err)
	}
	b, err := auth.GenerateRandomPassword(12)
	if err != nil {
		t.Fatalf("Failed to generate password: %v", err)
	}

	if len(a) != 12 {
		t.Errorf("Expected 12 characters, got %d", len(a))
	}
	if a == b {
		t.Error("Expected two generated passwords to differ")
	}
}

func TestSessionManager(t *testing.T) {
	sm := auth.NewSessionManager(time.Hour, false)

	t.Run("CreateAndGet", func(t *testing.T) {
		session := sm.CreateSession("user-1", models.RoleUser)
		if session.ID == "" {
			t.Fatal("Expected a session ID")
		}

		loaded, valid := sm.GetSession(session.ID)
		if !valid {
			t.Fatal("Expected session to be valid")
		}
		if loaded.UserID != "user-1" || loaded.Role != models.RoleUser {
			t.Errorf("Unexpected session contents: %+v", loaded)
		}
	})

	t.Run("Expiry", func(t *testing.T) {
		short := auth.NewSessionManager(time.Millisecond, false)
		session := short.CreateSession("user-2", models.RoleUser)

		time.Sleep(5 * time.Millisecond)

		if _, valid := short.GetSession(session.ID); valid {
			t.Error("Expected expired session to be invalid")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		session := sm.CreateSession("user-3", models.RoleUser)
		sm.DeleteSession(session.ID)
		if _, valid := sm.GetSession(session.ID); valid {
			t.Error("Expected deleted session to be invalid")
		}
	})

	t.Run("DeleteUserSessions", func(t *testing.T) {
		first := sm.CreateSession("user-4", models.RoleUser)
		second := sm.CreateSession("user-4", models.RoleUser)
		other := sm.CreateSession("user-5", models.RoleUser)

		sm.DeleteUserSessions("user-4")

		if _, valid := sm.GetSession(first.ID); valid {
			t.Error("Expected first session to be gone")
		}
		if _, valid := sm.GetSession(second.ID); valid {
			t.Error("Expected second session to be gone")
		}
		if _, valid := sm.GetSession(other.ID); !valid {
			t.Error("Expected other user's session to survive")
		}
	})

	t.Run("CookieRoundTrip", func(t *testing.T) {
		session := sm.CreateSession("user-6", models.RoleAdmin)

		recorder := httptest.NewRecorder()
		sm.SetSessionCookie(recorder, session)

		cookies := recorder.Result().Cookies()
		if len(cookies) != 1 {
			t.Fatalf("Expected 1 cookie, got %d", len(cookies))
		}
		cookie := cookies[0]
		if !cookie.HttpOnly {
			t.Error("Expected HttpOnly cookie")
		}
		if cookie.SameSite != http.SameSiteStrictMode {
			t.Error("Expected SameSite=Strict cookie")
		}

		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.AddCookie(cookie)

		loaded, valid := sm.GetSessionFromRequest(request)
		if !valid || loaded.UserID != "user-6" {
			t.Error("Expected session to round-trip through the cookie")
		}
	})
}
