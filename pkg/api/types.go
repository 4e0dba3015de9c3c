package api

import "time"

// User is the public projection of a user record. It never carries the
// password hash; storage-facing types live in pkg/social.
type User struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	Link       string    `json:"link,omitempty"`
	ProfileImg string    `json:"profile_img,omitempty"`
	CoverImg   string    `json:"cover_img,omitempty"`
	Followers  []string  `json:"followers"`
	Following  []string  `json:"following"`
	LikedPosts []string  `json:"liked_posts,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Post is a post with its author and comment authors populated.
type Post struct {
	ID        string    `json:"id"`
	User      *User     `json:"user"`
	Text      string    `json:"text,omitempty"`
	Image     string    `json:"image,omitempty"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment is a single comment on a post with its author populated.
type Comment struct {
	ID        string    `json:"id"`
	User      *User     `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationType discriminates notification events.
type NotificationType string

const (
	NotificationFollow NotificationType = "follow"
	NotificationLike   NotificationType = "like"
)

// Notification is an event delivered to a user. From carries only the
// sender's public profile.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	From      *User            `json:"from"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreatePostRequest is the body of POST /api/posts/create. A post needs
// text, an image reference, or both.
type CreatePostRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// CommentRequest is the body of POST /api/posts/comment/{id}.
type CommentRequest struct {
	Text string `json:"text"`
}

// UpdateProfileRequest is the body of POST /api/users/update. Empty fields
// keep their current values. Changing the password requires both
// CurrentPassword and NewPassword.
type UpdateProfileRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	Bio             string `json:"bio"`
	Link            string `json:"link"`
	ProfileImg      string `json:"profile_img"`
	CoverImg        string `json:"cover_img"`
}

// MessageResponse is the generic `{"message": ...}` success body used by
// operations that return no resource.
type MessageResponse struct {
	Message string `json:"message"`
}
