package models

// Role values a user account can hold. Roles gate feature access in the
// HTTP layer; the store treats them as opaque attributes.
const (
	RoleUser    = "user"
	RolePremium = "premium"
	RoleAdmin   = "admin"
)

// Song represents a catalog entry. File is the playable-content locator,
// either a remote URL or a path to an uploaded media file served via /stream.
type Song struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	File       string `json:"file"`
	Art        string `json:"art"`
	Duration   int    `json:"duration,omitempty"` // in seconds, known for uploads
	UploadedBy string `json:"uploadedBy,omitempty"`
}

// User represents a user account. Password holds the bcrypt hash inside the
// persisted document and is blanked on every value the store returns.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
	Role      string `json:"role"`
	IsBlocked bool   `json:"isBlocked,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

// Sanitized returns a copy of the user with the credential field stripped.
func (u User) Sanitized() User {
	u.Password = ""
	return u
}

// Playlist represents a user-created playlist. Songs holds song IDs in
// insertion order; an ID appears at most once.
type Playlist struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Songs     []int  `json:"songs"`
	CreatedAt int64  `json:"createdAt"` // unix milliseconds
}

// Like marks a song as liked by a user. Existence is the toggle; there is
// no counter.
type Like struct {
	UserID string `json:"userId"`
	SongID int    `json:"songId"`
}

// Message is a direct message between two users.
type Message struct {
	ID        string `json:"id"`
	FromID    string `json:"fromId"`
	ToID      string `json:"toId"`
	Content   string `json:"content"`
	Read      bool   `json:"read"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}
