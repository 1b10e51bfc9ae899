// Package media abstracts the external image storage provider.
package media

import "context"

// Storage uploads and removes user-supplied images, returning stable URLs
type Storage interface {
	Upload(ctx context.Context, data []byte) (string, error)
	// Replace uploads data and deletes oldURL when it is non-empty
	Replace(ctx context.Context, data []byte, oldURL string) (string, error)
	Delete(ctx context.Context, url string) error
}

// Noop is used when no media provider is configured; uploads resolve to
// empty URLs and deletes succeed silently
type Noop struct{}

func (Noop) Upload(ctx context.Context, data []byte) (string, error) {
	return "", nil
}

func (Noop) Replace(ctx context.Context, data []byte, oldURL string) (string, error) {
	return "", nil
}

func (Noop) Delete(ctx context.Context, url string) error {
	return nil
}
