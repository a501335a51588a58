package assets

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// Bucket fetches recordings from the club's footage bucket into a local
// cache so the upload pipeline can stream them from disk.
type Bucket struct {
	client   *storage.Client
	bucket   string
	cacheDir string
}

func NewBucket(ctx context.Context, bucket, cacheDir string) (*Bucket, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &Bucket{
		client:   client,
		bucket:   bucket,
		cacheDir: cacheDir,
	}, nil
}

func (b *Bucket) Close() error {
	return b.client.Close()
}

// List returns the object names under prefix that look like recordings.
func (b *Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	it := b.client.Bucket(b.bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var clips []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		if clipExtensions[strings.ToLower(filepath.Ext(attrs.Name))] {
			clips = append(clips, attrs.Name)
		}
	}

	return clips, nil
}

// Fetch downloads an object into the cache and returns the local path. An
// already cached copy is reused.
func (b *Bucket) Fetch(ctx context.Context, object string) (string, error) {
	localPath := filepath.Join(b.cacheDir, filepath.Base(object))
	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	if err := os.MkdirAll(b.cacheDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	r, err := b.client.Bucket(b.bucket).Object(object).NewReader(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to open gs://%s/%s: %w", b.bucket, object, err)
	}
	defer func() { _ = r.Close() }()

	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(localPath)
		return "", fmt.Errorf("failed to download recording: %w", err)
	}

	return localPath, nil
}
