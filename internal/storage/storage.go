package storage

import (
	"context"
)

// KeyPrefix namespaces every persisted cart record.
const KeyPrefix = "ecommerce-cart:"

// Key returns the fixed storage key for a device.
func Key(deviceID string) string {
	return KeyPrefix + deviceID
}

// Storage is the durable store behind device carts.
type Storage interface {
	// Load returns the raw record under key, or an ErrNotFound AppError when
	// nothing is stored.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save overwrites the record under key.
	Save(ctx context.Context, key string, data []byte) error

	// Delete removes the record under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
