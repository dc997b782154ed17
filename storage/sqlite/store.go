// Package sqlite stores collections as rows of a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/cyp0633/openinvite/storage"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS collections (
    name TEXT PRIMARY KEY,
    data BLOB NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

const upsertSQL = `
INSERT INTO collections (name, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP;`

func init() {
	storage.Register("sqlite", func(u *url.URL) (storage.Persister, error) {
		return Open(storage.Path(u))
	})
}

// Store implements storage.Persister on top of database/sql.
type Store struct {
	db *sql.DB
}

// Open opens the database file and creates the table if it doesn't exist.
func Open(dataSourceName string) (*Store, error) {
	if dataSourceName == "" {
		return nil, &storage.Error{Type: storage.ErrInvalidInput, Message: "sqlite store needs a file path"}
	}
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, storage.Backend("failed to open database", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, storage.Backend("failed to ping database", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, storage.Backend("failed to create collections table", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Load(ctx context.Context) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, data FROM collections`)
	if err != nil {
		return nil, storage.Backend("query collections", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var (
			name string
			data []byte
		)
		if err := rows.Scan(&name, &data); err != nil {
			return nil, storage.Backend("scan collection", err)
		}
		out[name] = data
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Backend("iterate collections", err)
	}
	return out, nil
}

func (s *Store) Save(ctx context.Context, collection string, data []byte) error {
	if err := storage.ValidateCollection(collection); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, upsertSQL, collection, data); err != nil {
		return storage.Backend(fmt.Sprintf("save collection %s", collection), err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
