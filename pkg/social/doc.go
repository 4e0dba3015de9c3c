// Package social implements the flock domain: accounts, profiles and
// follow relationships, posts with likes and comments, and notifications.
//
// Services operate on the store interfaces from store.go and return
// api-package projections; they never expose password hashes. Transport
// handlers stay thin: decode, call a service, encode.
package social
