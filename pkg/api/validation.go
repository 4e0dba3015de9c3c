package api

import (
	"fmt"
	"regexp"
)

// emailPattern is deliberately loose: one @, no whitespace, a dot in the
// domain part. Real validation happens when mail is actually delivered.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// usernamePattern restricts usernames to URL-safe characters since they
// appear in profile and feed routes.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// ValidationConfig holds configurable limits for request validation.
type ValidationConfig struct {
	MaxPostTextSize    int
	MaxCommentTextSize int
	MaxBioSize         int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxPostTextSize:    4096,
		MaxCommentTextSize: 1024,
		MaxBioSize:         512,
	}
}

// ValidateSignup checks a SignupRequest. It returns an *APIError describing
// the first validation failure, or nil if the request is valid.
func ValidateSignup(req *SignupRequest) *APIError {
	if !usernamePattern.MatchString(req.Username) {
		return NewInvalidRequestError("username",
			"username must be 3-30 characters of letters, digits, or underscore")
	}

	if req.FullName == "" {
		return NewInvalidRequestError("full_name", "full name is required")
	}

	if !emailPattern.MatchString(req.Email) {
		return NewInvalidRequestError("email", "Invalid email format")
	}

	if len(req.Password) < MinPasswordLength {
		return NewInvalidRequestError("password",
			fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength))
	}

	return nil
}

// ValidateLogin checks a LoginRequest for structural validity.
func ValidateLogin(req *LoginRequest) *APIError {
	if req.Username == "" {
		return NewInvalidRequestError("username", "username is required")
	}
	if req.Password == "" {
		return NewInvalidRequestError("password", "password is required")
	}
	return nil
}

// ValidateCreatePost checks a CreatePostRequest. A post must carry text,
// an image reference, or both.
func ValidateCreatePost(req *CreatePostRequest, cfg ValidationConfig) *APIError {
	if req.Text == "" && req.Image == "" {
		return NewInvalidRequestError("text", "Post must have text or image")
	}

	if cfg.MaxPostTextSize > 0 && len(req.Text) > cfg.MaxPostTextSize {
		return NewInvalidRequestError("text",
			fmt.Sprintf("post text exceeds maximum of %d bytes", cfg.MaxPostTextSize))
	}

	return nil
}

// ValidateComment checks a CommentRequest.
func ValidateComment(req *CommentRequest, cfg ValidationConfig) *APIError {
	if req.Text == "" {
		return NewInvalidRequestError("text", "Text field is required")
	}

	if cfg.MaxCommentTextSize > 0 && len(req.Text) > cfg.MaxCommentTextSize {
		return NewInvalidRequestError("text",
			fmt.Sprintf("comment text exceeds maximum of %d bytes", cfg.MaxCommentTextSize))
	}

	return nil
}

// ValidateUpdateProfile checks an UpdateProfileRequest. A password change
// requires both the current and the new password; supplying only one is
// rejected.
func ValidateUpdateProfile(req *UpdateProfileRequest, cfg ValidationConfig) *APIError {
	if (req.NewPassword == "") != (req.CurrentPassword == "") {
		return NewInvalidRequestError("password",
			"Please provide both current password and new password")
	}

	if req.NewPassword != "" && len(req.NewPassword) < MinPasswordLength {
		return NewInvalidRequestError("new_password",
			fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength))
	}

	if req.Username != "" && !usernamePattern.MatchString(req.Username) {
		return NewInvalidRequestError("username",
			"username must be 3-30 characters of letters, digits, or underscore")
	}

	if req.Email != "" && !emailPattern.MatchString(req.Email) {
		return NewInvalidRequestError("email", "Invalid email format")
	}

	if cfg.MaxBioSize > 0 && len(req.Bio) > cfg.MaxBioSize {
		return NewInvalidRequestError("bio",
			fmt.Sprintf("bio exceeds maximum of %d bytes", cfg.MaxBioSize))
	}

	return nil
}
