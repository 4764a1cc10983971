package main

import (
	"context"
	"fmt"

	"github.com/chengyuehsha/langchain-cache-gcs/pkg/cache"
	"github.com/chengyuehsha/langchain-cache-gcs/pkg/config"
	"github.com/chengyuehsha/langchain-cache-gcs/pkg/store"
	"github.com/chengyuehsha/langchain-cache-gcs/pkg/store/gcs"
	"github.com/chengyuehsha/langchain-cache-gcs/pkg/store/memory"
	"github.com/chengyuehsha/langchain-cache-gcs/pkg/store/s3"
	"github.com/chengyuehsha/langchain-cache-gcs/pkg/store/sqlite"
)

// openStore builds the object store selected by cfg.Backend. The returned
// close function is never nil.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.ObjectStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "gcs":
		st, err := gcs.New(ctx, cfg.Bucket, gcs.Options{
			Project:         cfg.Project,
			Endpoint:        cfg.GCS.Endpoint,
			CredentialsFile: cfg.GCS.CredentialsFile,
			AccessToken:     cfg.GCS.AccessToken,
			Anonymous:       cfg.GCS.Anonymous,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("init gcs store: %w", err)
		}
		return st, st.Close, nil
	case "s3":
		st, err := s3.New(ctx, cfg.Bucket, s3.Options{
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
			ExpectedOwner:   cfg.Project,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("init s3 store: %w", err)
		}
		return st, noop, nil
	case "sqlite":
		st, err := sqlite.New(cfg.SQLite.Path, cfg.Bucket)
		if err != nil {
			return nil, noop, fmt.Errorf("init sqlite store: %w", err)
		}
		return st, st.Close, nil
	case "memory":
		return memory.New(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// openCache validates the store section and returns a cache over it.
func (a *app) openCache(ctx context.Context) (*cache.ResponseCache, func() error, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, nil, err
	}
	st, closeFn, err := openStore(ctx, a.cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	c := cache.New(st,
		cache.WithPrefix(a.cfg.Store.Prefix),
		cache.WithLogger(a.log),
		cache.WithMetrics(a.metrics),
		cache.WithClearConcurrency(a.cfg.Store.ClearConcurrency),
	)
	a.log.Debug().
		Str("backend", a.cfg.Store.Backend).
		Str("bucket", a.cfg.Store.Bucket).
		Str("prefix", c.Prefix()).
		Msg("cache opened")
	return c, closeFn, nil
}
