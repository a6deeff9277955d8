// Package storage persists the small amount of client-local state the chat
// client keeps between runs. Today that is exactly one value: the raw
// session credential, stored under CredentialKey.
package storage

import "context"

// Repository is a key/value view over the local_state table.
// Get returns (nil, nil) for a missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Swap(ctx context.Context, key string, value []byte) (old []byte, err error)
	Delete(ctx context.Context, key string) error
}
