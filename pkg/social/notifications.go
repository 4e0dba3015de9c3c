package social

import (
	"context"
	"fmt"

	"github.com/flock-social/flock/pkg/api"
)

// Notifications implements the notification inbox: listing marks
// everything read, clearing deletes.
type Notifications struct {
	users         UserStore
	notifications NotificationStore
}

// NewNotifications creates a Notifications service.
func NewNotifications(users UserStore, notifications NotificationStore) *Notifications {
	return &Notifications{users: users, notifications: notifications}
}

// List returns the caller's notifications, newest first, with senders
// populated, and then marks them all read. Notifications whose sender has
// been deleted are skipped.
func (s *Notifications) List(ctx context.Context, userID string) ([]*api.Notification, error) {
	ns, err := s.notifications.NotificationsTo(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	ids := make([]string, 0, len(ns))
	for _, n := range ns {
		ids = append(ids, n.FromID)
	}
	senders, err := s.users.UsersByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving notification senders: %w", err)
	}

	out := make([]*api.Notification, 0, len(ns))
	for _, n := range ns {
		from, ok := senders[n.FromID]
		if !ok {
			continue
		}
		out = append(out, &api.Notification{
			ID:        n.ID,
			Type:      n.Type,
			From:      compactUser(from),
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}

	if err := s.notifications.MarkNotificationsRead(ctx, userID); err != nil {
		return nil, fmt.Errorf("marking notifications read: %w", err)
	}

	return out, nil
}

// Clear deletes every notification addressed to the caller.
func (s *Notifications) Clear(ctx context.Context, userID string) (*api.MessageResponse, error) {
	if err := s.notifications.DeleteNotificationsTo(ctx, userID); err != nil {
		return nil, fmt.Errorf("deleting notifications: %w", err)
	}
	return &api.MessageResponse{Message: "Notifications deleted successfully"}, nil
}
