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

// suggestedSampleSize is how many candidates the store samples before the
// already-followed are filtered out.
const suggestedSampleSize = 10

// suggestedLimit caps the suggestions returned to the client.
const suggestedLimit = 4

// Users implements profile lookup, follow toggling, and suggestions.
type Users struct {
	users         UserStore
	notifications NotificationStore
}

// NewUsers creates a Users service.
func NewUsers(users UserStore, notifications NotificationStore) *Users {
	return &Users{users: users, notifications: notifications}
}

// Profile returns the public profile for a username.
func (s *Users) Profile(ctx context.Context, username string) (*api.User, error) {
	u, err := s.users.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError("User not found")
		}
		return nil, fmt.Errorf("looking up profile: %w", err)
	}
	return publicUser(u), nil
}

// FollowToggle follows targetID if the actor does not follow them yet and
// unfollows otherwise. Following creates a notification for the target;
// unfollowing creates none.
func (s *Users) FollowToggle(ctx context.Context, actorID, targetID string) (*api.MessageResponse, error) {
	if actorID == targetID {
		return nil, api.NewInvalidRequestError("id", "You can't follow/unfollow yourself")
	}

	target, err := s.users.UserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError("User not found")
		}
		return nil, fmt.Errorf("looking up target user: %w", err)
	}

	actor, err := s.users.UserByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError("User not found")
		}
		return nil, fmt.Errorf("looking up actor: %w", err)
	}

	if slices.Contains(actor.Following, target.ID) {
		if err := s.users.SetFollow(ctx, actor.ID, target.ID, false); err != nil {
			return nil, fmt.Errorf("removing follow: %w", err)
		}
		return &api.MessageResponse{Message: "User unfollowed successfully"}, nil
	}

	if err := s.users.SetFollow(ctx, actor.ID, target.ID, true); err != nil {
		return nil, fmt.Errorf("recording follow: %w", err)
	}

	n := &Notification{
		ID:        api.NewNotificationID(),
		Type:      api.NotificationFollow,
		FromID:    actor.ID,
		ToID:      target.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("creating follow notification: %w", err)
	}
	observability.NotificationsTotal.WithLabelValues(string(api.NotificationFollow)).Inc()

	return &api.MessageResponse{Message: "User followed successfully"}, nil
}

// Suggested returns up to four users the caller does not follow yet,
// sampled randomly and excluding the caller.
func (s *Users) Suggested(ctx context.Context, userID string) ([]*api.User, error) {
	me, err := s.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError("User not found")
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	candidates, err := s.users.RandomUsers(ctx, me.ID, suggestedSampleSize)
	if err != nil {
		return nil, fmt.Errorf("sampling users: %w", err)
	}

	suggested := make([]*api.User, 0, suggestedLimit)
	for _, c := range candidates {
		if slices.Contains(me.Following, c.ID) {
			continue
		}
		suggested = append(suggested, compactUser(c))
		if len(suggested) == suggestedLimit {
			break
		}
	}

	return suggested, nil
}
