package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store is an ObjectStore backed by a local SQLite table. Several buckets may
// share one database file.
type Store struct {
	db     *sql.DB
	bucket string
}

const createObjectsTable = `
CREATE TABLE IF NOT EXISTS objects (
	bucket TEXT NOT NULL,
	key TEXT NOT NULL,
	body BLOB NOT NULL,
	content_type TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (bucket, key)
);
`

// New opens (or creates) the database at dbPath and binds the store to bucket.
func New(dbPath, bucket string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open object db: %w", err)
	}

	if _, err := db.Exec(createObjectsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate object db: %w", err)
	}

	return &Store{db: db, bucket: bucket}, nil
}

// Get returns the object body stored at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM objects WHERE bucket = ? AND key = ?`,
		s.bucket, key,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("object get: %w", err)
	}
	return body, true, nil
}

// Put stores body at key, replacing any existing object.
func (s *Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO objects (bucket, key, body, content_type, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		s.bucket, key, body, contentType, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("object put: %w", err)
	}
	return nil
}

// List returns the keys under prefix in lexical order.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM objects WHERE bucket = ? AND instr(key, ?) = 1 ORDER BY key`,
		s.bucket, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("object list: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan object key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Delete removes the object at key. A missing object is an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM objects WHERE bucket = ? AND key = ?`, s.bucket, key)
	if err != nil {
		return fmt.Errorf("object delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("object delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("object delete %s: not found", key)
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
