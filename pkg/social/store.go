package social

import (
	"context"
	"time"

	"github.com/flock-social/flock/pkg/api"
)

// User is the storage-facing user record. Unlike api.User it carries the
// password hash and must never be serialized to a client.
type User struct {
	ID           string
	Username     string
	FullName     string
	Email        string
	PasswordHash string
	Bio          string
	Link         string
	ProfileImg   string
	CoverImg     string
	Followers    []string // user IDs following this user
	Following    []string // user IDs this user follows
	LikedPosts   []string // post IDs this user has liked
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Post is the storage-facing post record. Author and comment authors are
// referenced by ID; population happens in the services.
type Post struct {
	ID        string
	UserID    string
	Text      string
	Image     string
	Likes     []string // user IDs that liked this post
	Comments  []Comment
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment is a single comment attached to a post.
type Comment struct {
	ID        string
	UserID    string
	Text      string
	CreatedAt time.Time
}

// Notification is an event delivered to a user.
type Notification struct {
	ID        string
	Type      api.NotificationType
	FromID    string
	ToID      string
	Read      bool
	CreatedAt time.Time
}

// UserStore handles persistence of user records and follow relationships.
// Implementations return storage.ErrNotFound for missing records and
// storage.ErrDuplicate for username or email collisions.
type UserStore interface {
	// CreateUser persists a new user. Username and email are unique.
	CreateUser(ctx context.Context, u *User) error

	// UserByID retrieves a user by ID with follower, following, and
	// liked-post sets loaded.
	UserByID(ctx context.Context, id string) (*User, error)

	// UserByUsername retrieves a user by exact username.
	UserByUsername(ctx context.Context, username string) (*User, error)

	// UserByEmail retrieves a user by exact email.
	UserByEmail(ctx context.Context, email string) (*User, error)

	// UsersByID retrieves multiple users at once, keyed by ID. Missing
	// IDs are absent from the result rather than an error.
	UsersByID(ctx context.Context, ids []string) (map[string]*User, error)

	// UpdateUser persists profile fields and the password hash. Follow
	// and like sets are managed by SetFollow and SetLike.
	UpdateUser(ctx context.Context, u *User) error

	// SetFollow records (follow=true) or removes (follow=false) a follow
	// edge from follower to followee. Setting an existing state is a no-op.
	SetFollow(ctx context.Context, followerID, followeeID string, follow bool) error

	// RandomUsers returns up to limit users excluding the given ID, in
	// random order.
	RandomUsers(ctx context.Context, excludeID string, limit int) ([]*User, error)
}

// PostStore handles persistence of posts, comments, and likes.
type PostStore interface {
	// CreatePost persists a new post.
	CreatePost(ctx context.Context, p *Post) error

	// PostByID retrieves a post with likes and comments loaded.
	PostByID(ctx context.Context, id string) (*Post, error)

	// DeletePost removes a post and its comments and likes.
	DeletePost(ctx context.Context, id string) error

	// AddComment appends a comment to a post.
	AddComment(ctx context.Context, postID string, c *Comment) error

	// SetLike records (liked=true) or removes (liked=false) a like edge.
	// The edge backs both post.Likes and user.LikedPosts.
	SetLike(ctx context.Context, postID, userID string, liked bool) error

	// AllPosts returns every post, newest first.
	AllPosts(ctx context.Context) ([]*Post, error)

	// PostsByUser returns the posts authored by one user, newest first.
	PostsByUser(ctx context.Context, userID string) ([]*Post, error)

	// PostsByUsers returns the posts authored by any of the given users,
	// newest first. Used for the following feed.
	PostsByUsers(ctx context.Context, userIDs []string) ([]*Post, error)

	// PostsByID returns the posts with the given IDs, newest first.
	// Missing IDs are skipped.
	PostsByID(ctx context.Context, ids []string) ([]*Post, error)
}

// NotificationStore handles persistence of notifications.
type NotificationStore interface {
	// CreateNotification persists a new notification.
	CreateNotification(ctx context.Context, n *Notification) error

	// NotificationsTo returns all notifications addressed to a user,
	// newest first.
	NotificationsTo(ctx context.Context, userID string) ([]*Notification, error)

	// MarkNotificationsRead marks every notification addressed to the
	// user as read.
	MarkNotificationsRead(ctx context.Context, userID string) error

	// DeleteNotificationsTo removes every notification addressed to the user.
	DeleteNotificationsTo(ctx context.Context, userID string) error
}

// Store aggregates the per-entity stores plus lifecycle operations.
// Both storage adapters implement it.
type Store interface {
	UserStore
	PostStore
	NotificationStore

	// HealthCheck verifies the store connection is functional.
	HealthCheck(ctx context.Context) error

	// Close releases database connections and resources.
	Close() error
}
