// Package gcs implements the raw-byte retrieval collaborator against
// Google Cloud Storage. It assumes Application Default Credentials.
package gcs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// Client fetches batch file bytes from GCS. It holds one shared storage
// client; Close releases it.
type Client struct {
	client *storage.Client
}

// NewClient creates a storage-backed client.
func NewClient(ctx context.Context) (*Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewClient: create storage client: %w", err)
	}
	return &Client{client: client}, nil
}

// Close releases the underlying storage client.
func (c *Client) Close() error {
	return c.client.Close()
}

// FetchObject downloads the object bytes for a gs:// URI. The reader is
// released on every exit path.
func (c *Client) FetchObject(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := SplitURI(uri)
	if err != nil {
		return nil, fmt.Errorf("FetchObject: %w", err)
	}

	rc, err := c.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchObject: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("FetchObject: reading bytes: %w", err)
	}

	return data, nil
}

// SplitURI splits "gs://bucket/path/to/file" into bucket and object path.
func SplitURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
