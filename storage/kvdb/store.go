package kvdb

import (
	"bytes"
	"context"
	"net/url"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cyp0633/openinvite/storage"
)

const bucketCollections = "collections"

var tracer = otel.GetTracerProvider().Tracer("github.com/cyp0633/openinvite/storage/kvdb")

func init() {
	storage.Register("kvdb", func(u *url.URL) (storage.Persister, error) {
		return Open(storage.Path(u))
	})
}

// Open opens (or creates) a bbolt file and wraps it in a Store.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, &storage.Error{Type: storage.ErrInvalidInput, Message: "kvdb store needs a file path"}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, storage.Backend("open "+path, err)
	}
	s, err := NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewStore uses an already open database. Close leaves such a database
// open for its owner.
func NewStore(db *bolt.DB) (*Store, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketCollections))
		return err
	})
	if err != nil {
		return nil, storage.Backend("create bucket", err)
	}
	return &Store{db: db}, nil
}

// Store keeps one key per collection in a single bucket.
type Store struct {
	db    *bolt.DB
	owned bool
}

func (s *Store) Load(ctx context.Context) (map[string][]byte, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "Load")
	defer span.End()

	span.AddEvent("View bucket")
	out := make(map[string][]byte)
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketCollections))
		return bucket.ForEach(func(k, v []byte) error {
			// values are only valid for the lifetime of the transaction
			out[string(k)] = bytes.Clone(v)
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storage.Backend("read collections", err)
	}
	return out, nil
}

func (s *Store) Save(ctx context.Context, collection string, data []byte) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "Save")
	defer span.End()

	span.AddEvent("update collection", trace.WithAttributes(
		attribute.String("collection", collection),
		attribute.Int("bytes", len(data)),
	))
	if err := storage.ValidateCollection(collection); err != nil {
		span.RecordError(err)
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketCollections))
		return bucket.Put([]byte(collection), data)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return storage.Backend("update collection "+collection, err)
	}
	return nil
}

func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
