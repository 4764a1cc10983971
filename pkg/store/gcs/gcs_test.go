package gcs

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/fsouza/fake-gcs-server/fakestorage"
)

const testBucket = "llmcache-test"

func newTestStore(t *testing.T, objects ...fakestorage.Object) (*Store, *fakestorage.Server) {
	t.Helper()
	server := fakestorage.NewServer(objects)
	t.Cleanup(server.Stop)
	server.CreateBucketWithOpts(fakestorage.CreateBucketOpts{Name: testBucket})
	return NewWithClient(server.Client(), testBucket, ""), server
}

func TestGetMissing(t *testing.T) {
	s, _ := newTestStore(t)
	_, ok, err := s.Get(context.Background(), "langchain_cache/none.json")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected miss")
	}
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s, server := newTestStore(t)

	if err := s.Put(ctx, "langchain_cache/a.json", []byte(`{"response":["x"]}`), "application/json"); err != nil {
		t.Fatal(err)
	}

	body, ok, err := s.Get(ctx, "langchain_cache/a.json")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || string(body) != `{"response":["x"]}` {
		t.Errorf("unexpected read: ok=%v body=%s", ok, body)
	}

	obj, err := server.GetObject(testBucket, "langchain_cache/a.json")
	if err != nil {
		t.Fatal(err)
	}
	if obj.ContentType != "application/json" {
		t.Errorf("content type = %q, want application/json", obj.ContentType)
	}
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	for _, k := range []string{"langchain_cache/1.json", "langchain_cache/2.json", "other/3.json"} {
		if err := s.Put(ctx, k, []byte("{}"), "application/json"); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := s.List(ctx, "langchain_cache/")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %v", keys)
	}

	for _, k := range keys {
		if err := s.Delete(ctx, k); err != nil {
			t.Fatal(err)
		}
	}
	keys, _ = s.List(ctx, "langchain_cache/")
	if len(keys) != 0 {
		t.Errorf("expected empty prefix after delete, got %v", keys)
	}

	err = s.Delete(ctx, "langchain_cache/1.json")
	if !errors.Is(err, storage.ErrObjectNotExist) {
		t.Errorf("expected ErrObjectNotExist, got %v", err)
	}
}

func TestClientOptions(t *testing.T) {
	if n := len(clientOptions(Options{})); n != 0 {
		t.Errorf("expected no options, got %d", n)
	}
	if n := len(clientOptions(Options{Endpoint: "http://localhost:4443/storage/v1/", Anonymous: true})); n != 2 {
		t.Errorf("expected 2 options, got %d", n)
	}
	if n := len(clientOptions(Options{AccessToken: "tok", CredentialsFile: "ignored.json"})); n != 1 {
		t.Errorf("access token should take precedence over credentials file, got %d options", n)
	}
}
