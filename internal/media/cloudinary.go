package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloudinary stores images in a Cloudinary folder
type Cloudinary struct {
	client *cloudinary.Cloudinary
	folder string
}

// NewCloudinary creates a Cloudinary storage from a CLOUDINARY_URL-style URL
func NewCloudinary(url, folder string) (*Cloudinary, error) {
	client, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to init cloudinary: %w", err)
	}
	return &Cloudinary{client: client, folder: folder}, nil
}

// Upload stores the image and returns its secure URL
func (c *Cloudinary) Upload(ctx context.Context, data []byte) (string, error) {
	result, err := c.client.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder: c.folder,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return result.SecureURL, nil
}

// Replace uploads the new image after removing the old one
func (c *Cloudinary) Replace(ctx context.Context, data []byte, oldURL string) (string, error) {
	if oldURL != "" {
		if err := c.Delete(ctx, oldURL); err != nil {
			return "", err
		}
	}
	return c.Upload(ctx, data)
}

// Delete removes the image referenced by url. The public id is the URL
// tail without its extension.
func (c *Cloudinary) Delete(ctx context.Context, url string) error {
	publicID := publicIDFromURL(url)
	slog.Info("deleting stored image", "public_id", publicID)

	_, err := c.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

func publicIDFromURL(url string) string {
	name := url
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[:i]
	}
	return name
}
