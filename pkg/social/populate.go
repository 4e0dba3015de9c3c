package social

import (
	"context"
	"fmt"

	"github.com/flock-social/flock/pkg/api"
)

// publicUser converts a stored user to its public projection. The password
// hash is dropped here and nowhere regains visibility.
func publicUser(u *User) *api.User {
	return &api.User{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		Email:      u.Email,
		Bio:        u.Bio,
		Link:       u.Link,
		ProfileImg: u.ProfileImg,
		CoverImg:   u.CoverImg,
		Followers:  emptyIfNil(u.Followers),
		Following:  emptyIfNil(u.Following),
		LikedPosts: u.LikedPosts,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// compactUser is the minimal sender projection used inside notifications:
// enough to render "who", nothing more.
func compactUser(u *User) *api.User {
	return &api.User{
		ID:         u.ID,
		Username:   u.Username,
		ProfileImg: u.ProfileImg,
		Followers:  []string{},
		Following:  []string{},
	}
}

// populatePosts converts stored posts to API posts with authors and
// comment authors resolved in a single batched lookup. Posts whose author
// has been deleted are skipped rather than rendered half-empty.
func populatePosts(ctx context.Context, users UserStore, posts []*Post) ([]*api.Post, error) {
	idSet := make(map[string]struct{})
	for _, p := range posts {
		idSet[p.UserID] = struct{}{}
		for _, c := range p.Comments {
			idSet[c.UserID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	authors, err := users.UsersByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving post authors: %w", err)
	}

	out := make([]*api.Post, 0, len(posts))
	for _, p := range posts {
		author, ok := authors[p.UserID]
		if !ok {
			continue
		}

		ap := &api.Post{
			ID:        p.ID,
			User:      compactUser(author),
			Text:      p.Text,
			Image:     p.Image,
			Likes:     emptyIfNil(p.Likes),
			Comments:  make([]api.Comment, 0, len(p.Comments)),
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		}

		for _, c := range p.Comments {
			cAuthor, ok := authors[c.UserID]
			if !ok {
				continue
			}
			ap.Comments = append(ap.Comments, api.Comment{
				ID:        c.ID,
				User:      compactUser(cAuthor),
				Text:      c.Text,
				CreatedAt: c.CreatedAt,
			})
		}

		out = append(out, ap)
	}

	return out, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
