// Package memory provides an in-process ObjectStore used for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Object is a stored body with its content type.
type Object struct {
	Body        []byte
	ContentType string
}

// Store is a map-backed ObjectStore. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// New creates an empty Store.
func New() *Store {
	return &Store{objects: make(map[string]Object)}
}

// Get returns a copy of the object body at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), obj.Body...), true, nil
}

// Put stores body at key, replacing any existing object.
func (s *Store) Put(_ context.Context, key string, body []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = Object{Body: append([]byte(nil), body...), ContentType: contentType}
	return nil
}

// List returns the sorted keys under prefix.
func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes the object at key. Deleting a missing key is an error, as it
// is for the remote stores.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return fmt.Errorf("delete %s: object not found", key)
	}
	delete(s.objects, key)
	return nil
}

// Object returns the raw stored object, for inspection in tests.
func (s *Store) Object(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
