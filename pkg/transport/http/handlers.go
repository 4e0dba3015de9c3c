// Package http serves the flock API over HTTP. It routes requests,
// decodes bodies, and delegates to the services in pkg/social; session
// issuance and verification live in pkg/auth.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/flock-social/flock/pkg/api"
	"github.com/flock-social/flock/pkg/auth"
	"github.com/flock-social/flock/pkg/auth/session"
	"github.com/flock-social/flock/pkg/observability"
	"github.com/flock-social/flock/pkg/social"
	"github.com/flock-social/flock/pkg/transport"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// API routes the flock HTTP endpoints to the underlying services.
type API struct {
	accounts      *social.Accounts
	users         *social.Users
	posts         *social.Posts
	notifications *social.Notifications
	store         social.Store

	sessions     *session.Issuer
	loginLimiter *auth.LoginLimiter

	mux    *http.ServeMux
	config Config
}

// Config holds configuration for the HTTP API.
type Config struct {
	Addr        string
	MaxBodySize int64

	// SecureCookies marks the session cookie Secure so browsers only send
	// it over HTTPS. Disable for plain-HTTP development only.
	SecureCookies bool

	// MetricsEnabled exposes Prometheus metrics on GET /metrics.
	MetricsEnabled bool

	ShutdownTimeout int // seconds
}

// DefaultConfig returns the default API configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		MaxBodySize:     1 << 20, // 1 MB
		SecureCookies:   true,
		MetricsEnabled:  true,
		ShutdownTimeout: 30,
	}
}

// NewAPI creates the HTTP API over the given store. The session issuer may
// be nil when no signing secret is configured; every authenticated route
// then fails with a server error rather than accepting unverified tokens.
func NewAPI(store social.Store, sessions *session.Issuer, loginLimiter *auth.LoginLimiter, cfg Config) *API {
	a := &API{
		accounts:      social.NewAccounts(store),
		users:         social.NewUsers(store, store),
		posts:         social.NewPosts(store, store, store),
		notifications: social.NewNotifications(store, store),
		store:         store,
		sessions:      sessions,
		loginLimiter:  loginLimiter,
		mux:           http.NewServeMux(),
		config:        cfg,
	}
	a.routes()
	return a
}

func (a *API) routes() {
	requireSession := auth.RequireSession(a.sessions, a.accounts)
	protected := func(h http.HandlerFunc) http.Handler {
		return requireSession(h)
	}

	// Auth.
	a.mux.HandleFunc("POST /api/auth/signup", a.handleSignup)
	a.mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	a.mux.HandleFunc("POST /api/auth/logout", a.handleLogout)
	a.mux.Handle("GET /api/auth/me", protected(a.handleMe))

	// Users.
	a.mux.Handle("GET /api/users/profile/{username}", protected(a.handleProfile))
	a.mux.Handle("GET /api/users/suggested", protected(a.handleSuggested))
	a.mux.Handle("POST /api/users/follow/{id}", protected(a.handleFollow))
	a.mux.Handle("POST /api/users/update", protected(a.handleUpdateProfile))

	// Posts.
	a.mux.Handle("GET /api/posts/all", protected(a.handleAllPosts))
	a.mux.Handle("GET /api/posts/following", protected(a.handleFollowingPosts))
	a.mux.Handle("GET /api/posts/likes/{id}", protected(a.handleLikedPosts))
	a.mux.Handle("GET /api/posts/user/{username}", protected(a.handleUserPosts))
	a.mux.Handle("POST /api/posts/create", protected(a.handleCreatePost))
	a.mux.Handle("POST /api/posts/like/{id}", protected(a.handleLikePost))
	a.mux.Handle("POST /api/posts/comment/{id}", protected(a.handleCommentPost))
	a.mux.Handle("DELETE /api/posts/{id}", protected(a.handleDeletePost))

	// Notifications.
	a.mux.Handle("GET /api/notifications", protected(a.handleListNotifications))
	a.mux.Handle("DELETE /api/notifications", protected(a.handleClearNotifications))

	// Operational endpoints.
	a.mux.HandleFunc("GET /healthz", a.handleHealth)
	if a.config.MetricsEnabled {
		a.mux.Handle("GET /metrics", promhttp.Handler())
	}
}

// Handler returns the http.Handler for the API with the standard
// middleware applied. Use this to integrate with an http.Server or to
// test with httptest.
func (a *API) Handler() http.Handler {
	return transport.Chain(
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(nil),
		observability.MetricsMiddleware,
	)(a.mux)
}

// decode reads a JSON request body into v, enforcing the Content-Type and
// the configured body size limit.
func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) *api.APIError {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" {
		return api.NewInvalidRequestError("content_type", "Content-Type must be application/json")
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return api.NewInvalidRequestError("body",
				fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize))
		}
		return api.NewInvalidRequestError("body", "invalid JSON: "+err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// identity returns the authenticated identity. The session middleware
// guarantees it is present on protected routes.
func identity(r *http.Request) *auth.Identity {
	return auth.IdentityFromContext(r.Context())
}

// handleSignup handles POST /api/auth/signup. A successful signup logs
// the new user in immediately by setting the session cookie.
func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req api.SignupRequest
	if apiErr := a.decode(w, r, &req); apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	u, err := a.accounts.Signup(r.Context(), &req)
	if err != nil {
		transport.WriteError(w, err)
		return
	}

	if err := a.issueSession(w, u.ID); err != nil {
		transport.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, u)
}

// handleLogin handles POST /api/auth/login.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if apiErr := a.decode(w, r, &req); apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	if a.loginLimiter != nil && req.Username != "" {
		if err := a.loginLimiter.Allow(req.Username); err != nil {
			transport.WriteAPIError(w, api.NewTooManyRequestsError("Too many login attempts, try again later"))
			return
		}
	}

	u, err := a.accounts.Login(r.Context(), &req)
	if err != nil {
		transport.WriteError(w, err)
		return
	}

	if err := a.issueSession(w, u.ID); err != nil {
		transport.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// handleLogout handles POST /api/auth/logout. Logout clears the cookie on
// the client; an already-issued token stays valid until its natural expiry.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	session.ClearCookie(w, a.config.SecureCookies)
	writeJSON(w, http.StatusOK, api.MessageResponse{Message: "Logged out successfully"})
}

// issueSession mints a token for the user and sets the session cookie.
func (a *API) issueSession(w http.ResponseWriter, userID string) error {
	if a.sessions == nil {
		return session.ErrNoSecret
	}
	token, err := a.sessions.Issue(userID)
	if err != nil {
		return fmt.Errorf("issuing session: %w", err)
	}
	session.SetCookie(w, token, a.config.SecureCookies)
	return nil
}

// handleMe handles GET /api/auth/me.
func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := a.accounts.Me(r.Context(), identity(r).UserID)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// handleProfile handles GET /api/users/profile/{username}.
func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, err := a.users.Profile(r.Context(), r.PathValue("username"))
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// handleSuggested handles GET /api/users/suggested.
func (a *API) handleSuggested(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.Suggested(r.Context(), identity(r).UserID)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleFollow handles POST /api/users/follow/{id}.
func (a *API) handleFollow(w http.ResponseWriter, r *http.Request) {
	targetID := r.PathValue("id")
	if !api.ValidateUserID(targetID) {
		transport.WriteAPIError(w, api.NewInvalidRequestError("id", "malformed user ID"))
		return
	}

	msg, err := a.users.FollowToggle(r.Context(), identity(r).UserID, targetID)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// handleUpdateProfile handles POST /api/users/update.
func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateProfileRequest
	if apiErr := a.decode(w, r, &req); apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	u, err := a.accounts.UpdateProfile(r.Context(), identity(r).UserID, &req)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// handleAllPosts handles GET /api/posts/all.
func (a *API) handleAllPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := a.posts.All(r.Context())
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// handleFollowingPosts handles GET /api/posts/following.
func (a *API) handleFollowingPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := a.posts.Following(r.Context(), identity(r).UserID)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// handleLikedPosts handles GET /api/posts/likes/{id}, where {id} is a
// user ID.
func (a *API) handleLikedPosts(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if !api.ValidateUserID(userID) {
		transport.WriteAPIError(w, api.NewInvalidRequestError("id", "malformed user ID"))
		return
	}

	posts, err := a.posts.Liked(r.Context(), userID)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// handleUserPosts handles GET /api/posts/user/{username}.
func (a *API) handleUserPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := a.posts.ByUser(r.Context(), r.PathValue("username"))
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// handleCreatePost handles POST /api/posts/create.
func (a *API) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req api.CreatePostRequest
	if apiErr := a.decode(w, r, &req); apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	p, err := a.posts.Create(r.Context(), identity(r).UserID, &req)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// handleLikePost handles POST /api/posts/like/{id}. The response is the
// post's updated like list so clients can render without a refetch.
func (a *API) handleLikePost(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("id")
	if !api.ValidatePostID(postID) {
		transport.WriteAPIError(w, api.NewInvalidRequestError("id", "malformed post ID"))
		return
	}

	likes, err := a.posts.LikeToggle(r.Context(), identity(r).UserID, postID)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	if likes == nil {
		likes = []string{}
	}
	writeJSON(w, http.StatusOK, likes)
}

// handleCommentPost handles POST /api/posts/comment/{id}.
func (a *API) handleCommentPost(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("id")
	if !api.ValidatePostID(postID) {
		transport.WriteAPIError(w, api.NewInvalidRequestError("id", "malformed post ID"))
		return
	}

	var req api.CommentRequest
	if apiErr := a.decode(w, r, &req); apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	p, err := a.posts.Comment(r.Context(), identity(r).UserID, postID, &req)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleDeletePost handles DELETE /api/posts/{id}.
func (a *API) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("id")
	if !api.ValidatePostID(postID) {
		transport.WriteAPIError(w, api.NewInvalidRequestError("id", "malformed post ID"))
		return
	}

	msg, err := a.posts.Delete(r.Context(), identity(r).UserID, postID)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// handleListNotifications handles GET /api/notifications. Listing marks
// every returned notification read.
func (a *API) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	ns, err := a.notifications.List(r.Context(), identity(r).UserID)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

// handleClearNotifications handles DELETE /api/notifications.
func (a *API) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	msg, err := a.notifications.Clear(r.Context(), identity(r).UserID)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// handleHealth handles GET /healthz, checking store connectivity.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.store.HealthCheck(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
