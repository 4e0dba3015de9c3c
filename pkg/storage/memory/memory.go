// Package memory provides an in-memory implementation of social.Store for
// testing and lightweight deployments. Data is lost when the process
// restarts.
package memory

import (
	"context"
	"math/rand/v2"
	"slices"
	"sort"
	"sync"

	"github.com/flock-social/flock/pkg/social"
	"github.com/flock-social/flock/pkg/storage"
)

// Store is an in-memory social.Store.
type Store struct {
	mu            sync.RWMutex
	users         map[string]*social.User
	byUsername    map[string]string // username -> user ID
	byEmail       map[string]string // email -> user ID
	posts         map[string]*social.Post
	notifications []*social.Notification
}

// Ensure Store implements social.Store at compile time.
var _ social.Store = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		users:      make(map[string]*social.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		posts:      make(map[string]*social.Post),
	}
}

// CreateUser persists a new user, enforcing username and email uniqueness.
func (s *Store) CreateUser(_ context.Context, u *social.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.ID]; exists {
		return storage.ErrDuplicate
	}
	if _, exists := s.byUsername[u.Username]; exists {
		return storage.ErrDuplicate
	}
	if _, exists := s.byEmail[u.Email]; exists {
		return storage.ErrDuplicate
	}

	cp := cloneUser(u)
	s.users[cp.ID] = cp
	s.byUsername[cp.Username] = cp.ID
	s.byEmail[cp.Email] = cp.ID
	return nil
}

// UserByID retrieves a user by ID.
func (s *Store) UserByID(_ context.Context, id string) (*social.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneUser(u), nil
}

// UserByUsername retrieves a user by username.
func (s *Store) UserByUsername(_ context.Context, username string) (*social.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneUser(s.users[id]), nil
}

// UserByEmail retrieves a user by email.
func (s *Store) UserByEmail(_ context.Context, email string) (*social.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneUser(s.users[id]), nil
}

// UsersByID retrieves multiple users at once; missing IDs are skipped.
func (s *Store) UsersByID(_ context.Context, ids []string) (map[string]*social.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*social.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = cloneUser(u)
		}
	}
	return out, nil
}

// UpdateUser persists profile fields and the password hash.
func (s *Store) UpdateUser(_ context.Context, u *social.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[u.ID]
	if !ok {
		return storage.ErrNotFound
	}

	// Uniqueness checks for renamed username/email.
	if u.Username != cur.Username {
		if _, taken := s.byUsername[u.Username]; taken {
			return storage.ErrDuplicate
		}
	}
	if u.Email != cur.Email {
		if _, taken := s.byEmail[u.Email]; taken {
			return storage.ErrDuplicate
		}
	}

	cp := cloneUser(u)
	// Follow and like sets are owned by SetFollow/SetLike; keep current.
	cp.Followers = cur.Followers
	cp.Following = cur.Following
	cp.LikedPosts = cur.LikedPosts

	delete(s.byUsername, cur.Username)
	delete(s.byEmail, cur.Email)
	s.users[cp.ID] = cp
	s.byUsername[cp.Username] = cp.ID
	s.byEmail[cp.Email] = cp.ID
	return nil
}

// SetFollow records or removes a follow edge.
func (s *Store) SetFollow(_ context.Context, followerID, followeeID string, follow bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	follower, ok := s.users[followerID]
	if !ok {
		return storage.ErrNotFound
	}
	followee, ok := s.users[followeeID]
	if !ok {
		return storage.ErrNotFound
	}

	if follow {
		follower.Following = appendUnique(follower.Following, followeeID)
		followee.Followers = appendUnique(followee.Followers, followerID)
	} else {
		follower.Following = remove(follower.Following, followeeID)
		followee.Followers = remove(followee.Followers, followerID)
	}
	return nil
}

// RandomUsers returns up to limit users excluding the given ID, shuffled.
func (s *Store) RandomUsers(_ context.Context, excludeID string, limit int) ([]*social.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]*social.User, 0, len(s.users))
	for id, u := range s.users {
		if id == excludeID {
			continue
		}
		candidates = append(candidates, u)
	}

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]*social.User, len(candidates))
	for i, u := range candidates {
		out[i] = cloneUser(u)
	}
	return out, nil
}

// CreatePost persists a new post.
func (s *Store) CreatePost(_ context.Context, p *social.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.posts[p.ID]; exists {
		return storage.ErrDuplicate
	}
	s.posts[p.ID] = clonePost(p)
	return nil
}

// PostByID retrieves a post with likes and comments.
func (s *Store) PostByID(_ context.Context, id string) (*social.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clonePost(p), nil
}

// DeletePost removes a post and drops it from every liked-post set.
func (s *Store) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.posts, id)

	for _, u := range s.users {
		u.LikedPosts = remove(u.LikedPosts, id)
	}
	return nil
}

// AddComment appends a comment to a post.
func (s *Store) AddComment(_ context.Context, postID string, c *social.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return storage.ErrNotFound
	}
	p.Comments = append(p.Comments, *c)
	return nil
}

// SetLike records or removes a like edge, keeping post.Likes and
// user.LikedPosts consistent.
func (s *Store) SetLike(_ context.Context, postID, userID string, liked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return storage.ErrNotFound
	}
	u, ok := s.users[userID]
	if !ok {
		return storage.ErrNotFound
	}

	if liked {
		p.Likes = appendUnique(p.Likes, userID)
		u.LikedPosts = appendUnique(u.LikedPosts, postID)
	} else {
		p.Likes = remove(p.Likes, userID)
		u.LikedPosts = remove(u.LikedPosts, postID)
	}
	return nil
}

// AllPosts returns every post, newest first.
func (s *Store) AllPosts(_ context.Context) ([]*social.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*social.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, clonePost(p))
	}
	sortNewestFirst(out)
	return out, nil
}

// PostsByUser returns the posts authored by one user, newest first.
func (s *Store) PostsByUser(_ context.Context, userID string) ([]*social.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*social.Post
	for _, p := range s.posts {
		if p.UserID == userID {
			out = append(out, clonePost(p))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// PostsByUsers returns the posts authored by any of the given users.
func (s *Store) PostsByUsers(_ context.Context, userIDs []string) ([]*social.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*social.Post
	for _, p := range s.posts {
		if slices.Contains(userIDs, p.UserID) {
			out = append(out, clonePost(p))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// PostsByID returns the posts with the given IDs; missing IDs are skipped.
func (s *Store) PostsByID(_ context.Context, ids []string) ([]*social.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*social.Post
	for _, id := range ids {
		if p, ok := s.posts[id]; ok {
			out = append(out, clonePost(p))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// CreateNotification persists a new notification.
func (s *Store) CreateNotification(_ context.Context, n *social.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *n
	s.notifications = append(s.notifications, &cp)
	return nil
}

// NotificationsTo returns the notifications addressed to a user, newest first.
func (s *Store) NotificationsTo(_ context.Context, userID string) ([]*social.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*social.Notification
	for _, n := range s.notifications {
		if n.ToID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// MarkNotificationsRead marks every notification to the user as read.
func (s *Store) MarkNotificationsRead(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.ToID == userID {
			n.Read = true
		}
	}
	return nil
}

// DeleteNotificationsTo removes every notification addressed to the user.
func (s *Store) DeleteNotificationsTo(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if n.ToID != userID {
			kept = append(kept, n)
		}
	}
	s.notifications = kept
	return nil
}

// HealthCheck always succeeds for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

func cloneUser(u *social.User) *social.User {
	cp := *u
	cp.Followers = slices.Clone(u.Followers)
	cp.Following = slices.Clone(u.Following)
	cp.LikedPosts = slices.Clone(u.LikedPosts)
	return &cp
}

func clonePost(p *social.Post) *social.Post {
	cp := *p
	cp.Likes = slices.Clone(p.Likes)
	cp.Comments = slices.Clone(p.Comments)
	return &cp
}

func appendUnique(s []string, v string) []string {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}

func remove(s []string, v string) []string {
	out := s[:0]
	for _, e := range s {
		if e != v {
			out = append(out, e)
		}
	}
	return out
}

func sortNewestFirst(posts []*social.Post) {
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
