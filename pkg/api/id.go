package api

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	idLength = 24
	charset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	userIDPrefix         = "usr_"
	postIDPrefix         = "post_"
	commentIDPrefix      = "cmt_"
	notificationIDPrefix = "ntf_"
)

var (
	userIDPattern         = regexp.MustCompile(`^usr_[a-zA-Z0-9]{24}$`)
	postIDPattern         = regexp.MustCompile(`^post_[a-zA-Z0-9]{24}$`)
	notificationIDPattern = regexp.MustCompile(`^ntf_[a-zA-Z0-9]{24}$`)
)

// NewUserID generates a new user ID with the "usr_" prefix followed by
// 24 cryptographically random alphanumeric characters.
func NewUserID() string {
	return userIDPrefix + randomAlphanumeric(idLength)
}

// NewPostID generates a new post ID with the "post_" prefix.
func NewPostID() string {
	return postIDPrefix + randomAlphanumeric(idLength)
}

// NewCommentID generates a new comment ID with the "cmt_" prefix.
func NewCommentID() string {
	return commentIDPrefix + randomAlphanumeric(idLength)
}

// NewNotificationID generates a new notification ID with the "ntf_" prefix.
func NewNotificationID() string {
	return notificationIDPrefix + randomAlphanumeric(idLength)
}

// ValidateUserID checks whether the given string is a valid user ID.
func ValidateUserID(id string) bool {
	return userIDPattern.MatchString(id)
}

// ValidatePostID checks whether the given string is a valid post ID.
func ValidatePostID(id string) bool {
	return postIDPattern.MatchString(id)
}

// ValidateNotificationID checks whether the given string is a valid
// notification ID.
func ValidateNotificationID(id string) bool {
	return notificationIDPattern.MatchString(id)
}

func randomAlphanumeric(n int) string {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b)
}
