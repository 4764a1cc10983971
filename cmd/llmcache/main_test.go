package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chengyuehsha/langchain-cache-gcs/pkg/config"
	"github.com/chengyuehsha/langchain-cache-gcs/pkg/models"
)

func TestLoadConfigMissingDefault(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "llmcache.yaml"), false)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Prefix != models.DefaultPrefix {
		t.Errorf("prefix = %q, want %q", cfg.Store.Prefix, models.DefaultPrefix)
	}
}

func TestLoadConfigMissingExplicit(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"), true)
	if err == nil {
		t.Fatal("expected error for explicit missing config")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llmcache.yaml")
	data := "store:\n  backend: memory\n  prefix: runs\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Backend != "memory" || cfg.Store.Prefix != "runs" {
		t.Errorf("unexpected store config: %+v", cfg.Store)
	}
}

func TestKeyCommandWithoutBucket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llmcache.yaml")
	if err := os.WriteFile(path, []byte("store:\n  prefix: cache/\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	root := newRootCmd(&app{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"key", "-c", path, "-p", "hi", "-l", "model-x"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}

	want := "cache/c36addb2e651f238ae1be7b82f776f9fb7be5c3f3435fbcda4ae8c93942da904.json\n"
	if out.String() != want {
		t.Errorf("key output = %q, want %q", out.String(), want)
	}
}

func TestOpenCacheMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "memory"
	cfg.Store.Prefix = "runs"
	a := &app{cfg: cfg}

	c, closeFn, err := a.openCache(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = closeFn() }()

	if c.Prefix() != "runs/" {
		t.Errorf("prefix = %q, want runs/", c.Prefix())
	}
	ctx := context.Background()
	if err := c.Update(ctx, "p", "m", []any{"r"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Lookup(ctx, "p", "m"); !ok {
		t.Error("expected hit after update")
	}
}

func TestOpenCacheSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "sqlite"
	cfg.Store.Bucket = "local"
	cfg.Store.SQLite.Path = filepath.Join(t.TempDir(), "cache.db")
	a := &app{cfg: cfg}

	c, closeFn, err := a.openCache(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = closeFn() }()

	ctx := context.Background()
	if err := c.Update(ctx, "p", "m", []any{"r"}); err != nil {
		t.Fatal(err)
	}
	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 {
		t.Errorf("entries = %d, want 1", stats.Entries)
	}
}

func TestOpenCacheRequiresBucket(t *testing.T) {
	a := &app{cfg: config.Default()}
	if _, _, err := a.openCache(context.Background()); err == nil {
		t.Fatal("expected error for gcs backend without bucket")
	}
}

func TestModelParams(t *testing.T) {
	temp := 0.0
	params := modelParams(config.ModelConfig{Temperature: &temp})
	if v, ok := params["temperature"]; !ok || v != 0.0 {
		t.Errorf("temperature param = %v, %v", v, ok)
	}
	if _, ok := params["max_tokens"]; ok {
		t.Error("max_tokens should be absent when unset")
	}
}
