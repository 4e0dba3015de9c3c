// Package postgres provides a PostgreSQL implementation of social.Store.
// It uses pgx/v5 for connection pooling; follow and like edges live in
// join tables and are folded back into the domain records on read.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flock-social/flock/pkg/api"
	"github.com/flock-social/flock/pkg/social"
	"github.com/flock-social/flock/pkg/storage"
)

// Store is a PostgreSQL-backed social.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements social.Store at compile time.
var _ social.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

const userColumns = `id, username, full_name, email, password_hash,
       bio, link, profile_img, cover_img, created_at, updated_at`

// CreateUser persists a new user, enforcing username and email uniqueness.
func (s *Store) CreateUser(ctx context.Context, u *social.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (
			id, username, full_name, email, password_hash,
			bio, link, profile_img, cover_img, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		u.ID, u.Username, u.FullName, u.Email, u.PasswordHash,
		u.Bio, u.Link, u.ProfileImg, u.CoverImg, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// UserByID retrieves a user by ID with follow and like edges loaded.
func (s *Store) UserByID(ctx context.Context, id string) (*social.User, error) {
	return s.getUser(ctx, "id", id)
}

// UserByUsername retrieves a user by exact username.
func (s *Store) UserByUsername(ctx context.Context, username string) (*social.User, error) {
	return s.getUser(ctx, "username", username)
}

// UserByEmail retrieves a user by exact email.
func (s *Store) UserByEmail(ctx context.Context, email string) (*social.User, error) {
	return s.getUser(ctx, "email", email)
}

// getUser is the internal retrieval implementation. column must be one of
// the fixed identifiers above, never user input.
func (s *Store) getUser(ctx context.Context, column, value string) (*social.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE %s = $1", userColumns, column)

	u, err := scanUser(s.pool.QueryRow(ctx, query, value))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if err := s.attachUserEdges(ctx, map[string]*social.User{u.ID: u}); err != nil {
		return nil, err
	}
	return u, nil
}

// UsersByID retrieves multiple users at once; missing IDs are skipped.
func (s *Store) UsersByID(ctx context.Context, ids []string) (map[string]*social.User, error) {
	out := make(map[string]*social.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx,
		fmt.Sprintf("SELECT %s FROM users WHERE id = ANY($1)", userColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		out[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	if err := s.attachUserEdges(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateUser persists profile fields and the password hash.
func (s *Store) UpdateUser(ctx context.Context, u *social.User) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE users SET
			username = $2, full_name = $3, email = $4, password_hash = $5,
			bio = $6, link = $7, profile_img = $8, cover_img = $9, updated_at = $10
		WHERE id = $1
	`,
		u.ID, u.Username, u.FullName, u.Email, u.PasswordHash,
		u.Bio, u.Link, u.ProfileImg, u.CoverImg, u.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("updating user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SetFollow records or removes a follow edge. Re-setting the current state
// is a no-op.
func (s *Store) SetFollow(ctx context.Context, followerID, followeeID string, follow bool) error {
	var err error
	if follow {
		_, err = s.pool.Exec(ctx, `
			INSERT INTO follows (follower_id, followee_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING
		`, followerID, followeeID)
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
	} else {
		_, err = s.pool.Exec(ctx,
			"DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2",
			followerID, followeeID)
	}
	if err != nil {
		return fmt.Errorf("setting follow: %w", err)
	}
	return nil
}

// RandomUsers returns up to limit users excluding the given ID, in random order.
func (s *Store) RandomUsers(ctx context.Context, excludeID string, limit int) ([]*social.User, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM users WHERE id <> $1 ORDER BY random() LIMIT $2
	`, userColumns), excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*social.User)
	var out []*social.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		byID[u.ID] = u
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	if err := s.attachUserEdges(ctx, byID); err != nil {
		return nil, err
	}
	return out, nil
}

// attachUserEdges loads follower, following, and liked-post sets for every
// user in the map with three batch queries.
func (s *Store) attachUserEdges(ctx context.Context, users map[string]*social.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}

	edges := []struct {
		query  string
		append func(owner *social.User, other string)
	}{
		{
			"SELECT followee_id, follower_id FROM follows WHERE followee_id = ANY($1)",
			func(u *social.User, other string) { u.Followers = append(u.Followers, other) },
		},
		{
			"SELECT follower_id, followee_id FROM follows WHERE follower_id = ANY($1)",
			func(u *social.User, other string) { u.Following = append(u.Following, other) },
		},
		{
			"SELECT user_id, post_id FROM post_likes WHERE user_id = ANY($1) ORDER BY created_at",
			func(u *social.User, other string) { u.LikedPosts = append(u.LikedPosts, other) },
		},
	}

	for _, e := range edges {
		rows, err := s.pool.Query(ctx, e.query, ids)
		if err != nil {
			return fmt.Errorf("querying user edges: %w", err)
		}
		for rows.Next() {
			var owner, other string
			if err := rows.Scan(&owner, &other); err != nil {
				rows.Close()
				return fmt.Errorf("scanning user edge: %w", err)
			}
			if u, ok := users[owner]; ok {
				e.append(u, other)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterating user edges: %w", err)
		}
	}
	return nil
}

// CreatePost persists a new post.
func (s *Store) CreatePost(ctx context.Context, p *social.Post) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO posts (id, user_id, text, img, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.UserID, p.Text, p.Image, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("inserting post: %w", err)
	}
	return nil
}

// PostByID retrieves a post with likes and comments loaded.
func (s *Store) PostByID(ctx context.Context, id string) (*social.Post, error) {
	var p social.Post
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, text, img, created_at, updated_at
		FROM posts WHERE id = $1
	`, id).Scan(&p.ID, &p.UserID, &p.Text, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying post: %w", err)
	}

	if err := s.attachPostEdges(ctx, []*social.Post{&p}); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePost removes a post; comments and likes cascade.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AddComment appends a comment to a post.
func (s *Store) AddComment(ctx context.Context, postID string, c *social.Comment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO comments (id, post_id, user_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, postID, c.UserID, c.Text, c.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("inserting comment: %w", err)
	}
	return nil
}

// SetLike records or removes a like edge.
func (s *Store) SetLike(ctx context.Context, postID, userID string, liked bool) error {
	var err error
	if liked {
		_, err = s.pool.Exec(ctx, `
			INSERT INTO post_likes (post_id, user_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING
		`, postID, userID)
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
	} else {
		_, err = s.pool.Exec(ctx,
			"DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2",
			postID, userID)
	}
	if err != nil {
		return fmt.Errorf("setting like: %w", err)
	}
	return nil
}

// AllPosts returns every post, newest first.
func (s *Store) AllPosts(ctx context.Context) ([]*social.Post, error) {
	return s.queryPosts(ctx, `
		SELECT id, user_id, text, img, created_at, updated_at
		FROM posts ORDER BY created_at DESC
	`)
}

// PostsByUser returns the posts authored by one user, newest first.
func (s *Store) PostsByUser(ctx context.Context, userID string) ([]*social.Post, error) {
	return s.queryPosts(ctx, `
		SELECT id, user_id, text, img, created_at, updated_at
		FROM posts WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
}

// PostsByUsers returns the posts authored by any of the given users, newest first.
func (s *Store) PostsByUsers(ctx context.Context, userIDs []string) ([]*social.Post, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	return s.queryPosts(ctx, `
		SELECT id, user_id, text, img, created_at, updated_at
		FROM posts WHERE user_id = ANY($1) ORDER BY created_at DESC
	`, userIDs)
}

// PostsByID returns the posts with the given IDs, newest first.
func (s *Store) PostsByID(ctx context.Context, ids []string) ([]*social.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.queryPosts(ctx, `
		SELECT id, user_id, text, img, created_at, updated_at
		FROM posts WHERE id = ANY($1) ORDER BY created_at DESC
	`, ids)
}

// queryPosts runs a post query and attaches likes and comments.
func (s *Store) queryPosts(ctx context.Context, query string, args ...any) ([]*social.Post, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var posts []*social.Post
	for rows.Next() {
		var p social.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Text, &p.Image, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}

	if err := s.attachPostEdges(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// attachPostEdges loads like and comment sets for every post with two
// batch queries.
func (s *Store) attachPostEdges(ctx context.Context, posts []*social.Post) error {
	if len(posts) == 0 {
		return nil
	}
	byID := make(map[string]*social.Post, len(posts))
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := s.pool.Query(ctx,
		"SELECT post_id, user_id FROM post_likes WHERE post_id = ANY($1) ORDER BY created_at", ids)
	if err != nil {
		return fmt.Errorf("querying likes: %w", err)
	}
	for rows.Next() {
		var postID, userID string
		if err := rows.Scan(&postID, &userID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning like: %w", err)
		}
		if p, ok := byID[postID]; ok {
			p.Likes = append(p.Likes, userID)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating likes: %w", err)
	}

	rows, err = s.pool.Query(ctx, `
		SELECT id, post_id, user_id, text, created_at
		FROM comments WHERE post_id = ANY($1) ORDER BY created_at
	`, ids)
	if err != nil {
		return fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c social.Comment
		var postID string
		if err := rows.Scan(&c.ID, &postID, &c.UserID, &c.Text, &c.CreatedAt); err != nil {
			return fmt.Errorf("scanning comment: %w", err)
		}
		if p, ok := byID[postID]; ok {
			p.Comments = append(p.Comments, c)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating comments: %w", err)
	}
	return nil
}

// CreateNotification persists a new notification.
func (s *Store) CreateNotification(ctx context.Context, n *social.Notification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, from_id, to_id, type, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.ID, n.FromID, n.ToID, string(n.Type), n.Read, n.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

// NotificationsTo returns the notifications addressed to a user, newest first.
func (s *Store) NotificationsTo(ctx context.Context, userID string) ([]*social.Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, from_id, to_id, type, read, created_at
		FROM notifications WHERE to_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var out []*social.Notification
	for rows.Next() {
		var n social.Notification
		var typ string
		if err := rows.Scan(&n.ID, &n.FromID, &n.ToID, &typ, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		n.Type = api.NotificationType(typ)
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}
	return out, nil
}

// MarkNotificationsRead marks every notification to the user as read.
func (s *Store) MarkNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		"UPDATE notifications SET read = TRUE WHERE to_id = $1 AND read = FALSE", userID)
	if err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}

// DeleteNotificationsTo removes every notification addressed to the user.
func (s *Store) DeleteNotificationsTo(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM notifications WHERE to_id = $1", userID)
	if err != nil {
		return fmt.Errorf("deleting notifications: %w", err)
	}
	return nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// scanUser scans a user row selected with userColumns.
func scanUser(row pgx.Row) (*social.User, error) {
	var u social.User
	err := row.Scan(
		&u.ID, &u.Username, &u.FullName, &u.Email, &u.PasswordHash,
		&u.Bio, &u.Link, &u.ProfileImg, &u.CoverImg, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	return pgErrCode(err) == "23505"
}

// isForeignKeyViolation checks if the error is a PostgreSQL foreign key
// violation (23503), which means a referenced record is gone.
func isForeignKeyViolation(err error) bool {
	return pgErrCode(err) == "23503"
}

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
