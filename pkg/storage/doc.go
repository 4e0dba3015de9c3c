// Package storage provides utilities shared across storage adapter
// implementations, currently the sentinel errors.
//
// Storage adapters (memory, postgres) implement the store interfaces
// defined in pkg/social/store.go. This package contains only shared
// types, not the interfaces themselves.
package storage
