// Package password wraps bcrypt hashing for user credentials.
//
// The contract with the rest of the codebase: plaintext passwords are never
// stored, logged, or compared with ==. Hashing salts internally; comparison
// goes through bcrypt's constant-time check.
package password

import "golang.org/x/crypto/bcrypt"

// Cost is the bcrypt work factor. Fixed so hashes stay comparable across
// deployments.
const Cost = 10

// Hash produces a salted bcrypt digest of the plaintext.
func Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare reports whether the plaintext matches the digest.
func Compare(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
