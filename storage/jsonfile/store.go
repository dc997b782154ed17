// Package jsonfile keeps each collection in its own JSON file inside one
// directory.
package jsonfile

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cyp0633/openinvite/storage"
)

const ext = ".json"

var tracer = otel.GetTracerProvider().Tracer("github.com/cyp0633/openinvite/storage/jsonfile")

func init() {
	storage.Register("json", func(u *url.URL) (storage.Persister, error) {
		return New(storage.Path(u))
	})
}

// Store writes <dir>/<collection>.json.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New creates dir if needed and returns a store over it.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, &storage.Error{Type: storage.ErrInvalidInput, Message: "json store needs a directory"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storage.Backend("create data directory", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Load(ctx context.Context) (map[string][]byte, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "Load")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storage.Backend("read data directory", err)
	}

	out := make(map[string][]byte)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		if storage.ValidateCollection(name) != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, storage.Backend("read "+e.Name(), err)
		}
		out[name] = data
	}
	span.AddEvent("loaded", trace.WithAttributes(attribute.Int("collections", len(out))))
	return out, nil
}

// Save writes to a temporary file and renames it over the old one, so a
// crash mid-write leaves the previous contents in place.
func (s *Store) Save(ctx context.Context, collection string, data []byte) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "Save")
	defer span.End()
	span.SetAttributes(attribute.String("collection", collection), attribute.Int("bytes", len(data)))

	if err := storage.ValidateCollection(collection); err != nil {
		span.RecordError(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, collection+"-*.tmp")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return storage.Backend("create temp file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return storage.Backend("write "+collection, err)
	}
	if err := tmp.Close(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return storage.Backend("write "+collection, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, collection+ext)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return storage.Backend("replace "+collection, err)
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}
