// Package store defines the object store contract the response cache is built on.
package store

import "context"

// ContentTypeJSON is the content type written for cache entries.
const ContentTypeJSON = "application/json"

// ObjectStore is a flat key/object namespace inside a single bucket.
//
// Get reports a missing object as (nil, false, nil). Any other failure is an
// error. Put overwrites unconditionally. List returns the keys of every object
// whose name starts with prefix, in lexical order.
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, body []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}
