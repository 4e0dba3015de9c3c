package social

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/flock-social/flock/pkg/api"
	"github.com/flock-social/flock/pkg/observability"
	"github.com/flock-social/flock/pkg/storage"
)

// Posts implements post creation, deletion, comments, like toggling, and
// the four feed views.
type Posts struct {
	users         UserStore
	posts         PostStore
	notifications NotificationStore
	limits        api.ValidationConfig
}

// NewPosts creates a Posts service.
func NewPosts(users UserStore, posts PostStore, notifications NotificationStore) *Posts {
	return &Posts{
		users:         users,
		posts:         posts,
		notifications: notifications,
		limits:        api.DefaultValidationConfig(),
	}
}

// Create validates and persists a new post for the given author.
func (s *Posts) Create(ctx context.Context, userID string, req *api.CreatePostRequest) (*api.Post, error) {
	if apiErr := api.ValidateCreatePost(req, s.limits); apiErr != nil {
		return nil, apiErr
	}

	now := time.Now().UTC()
	p := &Post{
		ID:        api.NewPostID(),
		UserID:    userID,
		Text:      req.Text,
		Image:     req.Image,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.posts.CreatePost(ctx, p); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	observability.PostsCreatedTotal.Inc()

	populated, err := populatePosts(ctx, s.users, []*Post{p})
	if err != nil {
		return nil, err
	}
	if len(populated) == 0 {
		return nil, api.NewNotFoundError("User not found")
	}
	return populated[0], nil
}

// Delete removes a post. Only the author may delete it.
func (s *Posts) Delete(ctx context.Context, actorID, postID string) (*api.MessageResponse, error) {
	p, err := s.posts.PostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError("Post not found")
		}
		return nil, fmt.Errorf("looking up post: %w", err)
	}

	if p.UserID != actorID {
		return nil, api.NewForbiddenError("You are not authorized to delete this post")
	}

	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return nil, fmt.Errorf("deleting post: %w", err)
	}

	return &api.MessageResponse{Message: "Post deleted successfully"}, nil
}

// Comment appends a comment to a post and returns the updated post.
func (s *Posts) Comment(ctx context.Context, actorID, postID string, req *api.CommentRequest) (*api.Post, error) {
	if apiErr := api.ValidateComment(req, s.limits); apiErr != nil {
		return nil, apiErr
	}

	if _, err := s.posts.PostByID(ctx, postID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError("Post not found")
		}
		return nil, fmt.Errorf("looking up post: %w", err)
	}

	c := &Comment{
		ID:        api.NewCommentID(),
		UserID:    actorID,
		Text:      req.Text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.posts.AddComment(ctx, postID, c); err != nil {
		return nil, fmt.Errorf("adding comment: %w", err)
	}

	p, err := s.posts.PostByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("reloading post: %w", err)
	}

	populated, err := populatePosts(ctx, s.users, []*Post{p})
	if err != nil {
		return nil, err
	}
	if len(populated) == 0 {
		return nil, api.NewNotFoundError("Post not found")
	}
	return populated[0], nil
}

// LikeToggle likes the post if the actor has not liked it yet and removes
// the like otherwise. Both post.Likes and the actor's liked-post set stay
// consistent; a new like notifies the post's author.
func (s *Posts) LikeToggle(ctx context.Context, actorID, postID string) ([]string, error) {
	p, err := s.posts.PostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError("Post not found")
		}
		return nil, fmt.Errorf("looking up post: %w", err)
	}

	if slices.Contains(p.Likes, actorID) {
		if err := s.posts.SetLike(ctx, postID, actorID, false); err != nil {
			return nil, fmt.Errorf("removing like: %w", err)
		}
		likes := make([]string, 0, len(p.Likes))
		for _, id := range p.Likes {
			if id != actorID {
				likes = append(likes, id)
			}
		}
		return likes, nil
	}

	if err := s.posts.SetLike(ctx, postID, actorID, true); err != nil {
		return nil, fmt.Errorf("recording like: %w", err)
	}

	n := &Notification{
		ID:        api.NewNotificationID(),
		Type:      api.NotificationLike,
		FromID:    actorID,
		ToID:      p.UserID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("creating like notification: %w", err)
	}
	observability.NotificationsTotal.WithLabelValues(string(api.NotificationLike)).Inc()

	return append(p.Likes, actorID), nil
}

// All returns every post, newest first, with authors populated.
func (s *Posts) All(ctx context.Context) ([]*api.Post, error) {
	posts, err := s.posts.AllPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return populatePosts(ctx, s.users, posts)
}

// Following returns the posts authored by users the caller follows.
func (s *Posts) Following(ctx context.Context, userID string) ([]*api.Post, error) {
	me, err := s.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError("User not found")
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	posts, err := s.posts.PostsByUsers(ctx, me.Following)
	if err != nil {
		return nil, fmt.Errorf("listing following feed: %w", err)
	}
	return populatePosts(ctx, s.users, posts)
}

// Liked returns the posts the given user has liked.
func (s *Posts) Liked(ctx context.Context, userID string) ([]*api.Post, error) {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError("User not found")
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	posts, err := s.posts.PostsByID(ctx, u.LikedPosts)
	if err != nil {
		return nil, fmt.Errorf("listing liked posts: %w", err)
	}
	return populatePosts(ctx, s.users, posts)
}

// ByUser returns the posts authored by the user with the given username.
func (s *Posts) ByUser(ctx context.Context, username string) ([]*api.Post, error) {
	u, err := s.users.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError("User not found")
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	posts, err := s.posts.PostsByUser(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("listing user posts: %w", err)
	}
	return populatePosts(ctx, s.users, posts)
}
