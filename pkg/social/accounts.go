package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flock-social/flock/pkg/api"
	"github.com/flock-social/flock/pkg/auth"
	"github.com/flock-social/flock/pkg/auth/password"
	"github.com/flock-social/flock/pkg/observability"
	"github.com/flock-social/flock/pkg/storage"
)

// Accounts implements signup, login, and profile self-management. It is
// the credential-store boundary: the only service that ever touches
// password hashes.
type Accounts struct {
	users  UserStore
	limits api.ValidationConfig
}

// NewAccounts creates an Accounts service over the given user store.
func NewAccounts(users UserStore) *Accounts {
	return &Accounts{
		users:  users,
		limits: api.DefaultValidationConfig(),
	}
}

// Signup validates the request, checks username and email for collisions,
// hashes the password, and creates the user. The returned projection never
// carries the plaintext or the hash.
func (a *Accounts) Signup(ctx context.Context, req *api.SignupRequest) (*api.User, error) {
	if apiErr := api.ValidateSignup(req); apiErr != nil {
		return nil, apiErr
	}

	// Pre-check both unique fields for a friendlier error than the raw
	// duplicate-key failure. The store constraint still backs the race.
	if _, err := a.users.UserByUsername(ctx, req.Username); err == nil {
		return nil, api.NewConflictError("username", "Username is already taken")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("checking username: %w", err)
	}

	if _, err := a.users.UserByEmail(ctx, req.Email); err == nil {
		return nil, api.NewConflictError("email", "Email is already taken")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	u := &User{
		ID:           api.NewUserID(),
		Username:     req.Username,
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := a.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, api.NewConflictError("username", "Username or email is already taken")
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	observability.SignupsTotal.Inc()
	return publicUser(u), nil
}

// Login checks the credentials and returns the user on success. Unknown
// usernames and wrong passwords produce the same error so the endpoint
// does not confirm which usernames exist.
func (a *Accounts) Login(ctx context.Context, req *api.LoginRequest) (*api.User, error) {
	if apiErr := api.ValidateLogin(req); apiErr != nil {
		return nil, apiErr
	}

	u, err := a.users.UserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			observability.LoginsTotal.WithLabelValues("failure").Inc()
			return nil, api.NewInvalidRequestError("", "Invalid username or password")
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if !password.Compare(req.Password, u.PasswordHash) {
		observability.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, api.NewInvalidRequestError("", "Invalid username or password")
	}

	observability.LoginsTotal.WithLabelValues("success").Inc()
	return publicUser(u), nil
}

// Me returns the caller's own profile.
func (a *Accounts) Me(ctx context.Context, userID string) (*api.User, error) {
	u, err := a.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError("User not found")
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	return publicUser(u), nil
}

// UpdateProfile merges the non-empty request fields into the caller's
// record. Changing the password requires the current password to match;
// the new one is hashed before it is stored.
func (a *Accounts) UpdateProfile(ctx context.Context, userID string, req *api.UpdateProfileRequest) (*api.User, error) {
	if apiErr := api.ValidateUpdateProfile(req, a.limits); apiErr != nil {
		return nil, apiErr
	}

	u, err := a.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError("User not found")
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if req.NewPassword != "" {
		if !password.Compare(req.CurrentPassword, u.PasswordHash) {
			return nil, api.NewInvalidRequestError("current_password", "Current password is incorrect")
		}
		hash, err := password.Hash(req.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		u.PasswordHash = hash
	}

	if req.FullName != "" {
		u.FullName = req.FullName
	}
	if req.Email != "" {
		u.Email = req.Email
	}
	if req.Username != "" {
		u.Username = req.Username
	}
	if req.Bio != "" {
		u.Bio = req.Bio
	}
	if req.Link != "" {
		u.Link = req.Link
	}
	if req.ProfileImg != "" {
		u.ProfileImg = req.ProfileImg
	}
	if req.CoverImg != "" {
		u.CoverImg = req.CoverImg
	}
	u.UpdatedAt = time.Now().UTC()

	if err := a.users.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, api.NewConflictError("username", "Username or email is already taken")
		}
		return nil, fmt.Errorf("updating user: %w", err)
	}

	return publicUser(u), nil
}

// ResolveUser implements auth.UserResolver for the session middleware.
// The lookup excludes credential material from the returned identity.
func (a *Accounts) ResolveUser(ctx context.Context, userID string) (*auth.Identity, error) {
	u, err := a.users.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &auth.Identity{UserID: u.ID, Username: u.Username}, nil
}
