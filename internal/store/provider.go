package store

import (
	"context"
	"errors"
)

// Provider is the synchronous key-value persistence used for meter and theme preferences.
type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// ErrNotFound signals that a key has never been written.
var ErrNotFound = errors.New("key not found")
