// Package api defines the wire types for the flock JSON API: public
// projections of users, posts, and notifications, request bodies, the
// structured error taxonomy, and request validation.
//
// Types in this package are serialization-facing. Domain logic lives in
// pkg/social; this package must stay free of storage and transport
// dependencies.
package api
