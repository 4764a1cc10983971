// Package gcs implements the object store on Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Options configures the storage client.
type Options struct {
	// Project selects the billing project for bucket access (requester pays).
	Project string
	// Endpoint overrides the API endpoint, e.g. for fake-gcs-server.
	Endpoint string
	// CredentialsFile is a service account or authorized user JSON file.
	CredentialsFile string
	// AccessToken is a pre-issued OAuth2 bearer token.
	AccessToken string
	// Anonymous disables authentication entirely.
	Anonymous bool
}

// Store is an ObjectStore bound to one GCS bucket.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	owned  bool
}

// New creates a storage client and binds it to bucket. No request is made
// until the first operation.
func New(ctx context.Context, bucket string, opts Options) (*Store, error) {
	client, err := storage.NewClient(ctx, clientOptions(opts)...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	s := NewWithClient(client, bucket, opts.Project)
	s.owned = true
	return s, nil
}

// NewWithClient binds an existing client to bucket. Close does not close it.
func NewWithClient(client *storage.Client, bucket, project string) *Store {
	bh := client.Bucket(bucket)
	if project != "" {
		bh = bh.UserProject(project)
	}
	return &Store{client: client, bucket: bh}
}

func clientOptions(opts Options) []option.ClientOption {
	var out []option.ClientOption
	if opts.Endpoint != "" {
		out = append(out, option.WithEndpoint(opts.Endpoint))
	}
	switch {
	case opts.Anonymous:
		out = append(out, option.WithoutAuthentication())
	case opts.AccessToken != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.AccessToken, TokenType: "Bearer"})
		out = append(out, option.WithTokenSource(ts))
	case opts.CredentialsFile != "":
		out = append(out, option.WithCredentialsFile(opts.CredentialsFile))
	}
	return out
}

// Get downloads the object at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("gcs read %s: %w", key, err)
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, false, fmt.Errorf("gcs read %s: %w", key, err)
	}
	return body, true, nil
}

// Put uploads body to key, replacing any existing object.
func (s *Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs write %s: %w", key, err)
	}
	return nil
}

// List returns the names of all objects under prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	var keys []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs list %s: %w", prefix, err)
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

// Delete removes the object at key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("gcs delete %s: %w", key, err)
	}
	return nil
}

// Close closes the client if the store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
