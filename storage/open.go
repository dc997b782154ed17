package storage

import (
	"fmt"
	"net/url"
	"slices"
	"sync"
)

// Factory opens a persister for a parsed connection URL.
type Factory func(u *url.URL) (Persister, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register makes a backend available under a URL scheme. Backend packages
// call it from init, so importing a backend for its side effect is enough
// to make its scheme usable with Open.
func Register(scheme string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	if f == nil {
		panic("storage: Register factory is nil")
	}
	if _, dup := factories[scheme]; dup {
		panic("storage: Register called twice for scheme " + scheme)
	}
	factories[scheme] = f
}

// Schemes lists the registered URL schemes in sorted order.
func Schemes() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	out := make([]string, 0, len(factories))
	for s := range factories {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Open selects a backend by the scheme of rawURL, e.g. "memory://",
// "json://data", "kvdb://testdata/openinvite.db" or "sqlite://openinvite.db".
func Open(rawURL string) (Persister, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &Error{Type: ErrInvalidInput, Message: "unable to parse db connection string", Err: err}
	}

	factoriesMu.RLock()
	f, ok := factories[u.Scheme]
	factoriesMu.RUnlock()
	if !ok {
		return nil, &Error{
			Type:    ErrUnsupported,
			Message: fmt.Sprintf("unknown storage backend %q (registered: %v)", u.Scheme, Schemes()),
		}
	}
	return f(u)
}

// Path returns the filesystem location encoded in u. Both "kvdb://dir/x.db"
// and "kvdb:///abs/x.db" are accepted.
func Path(u *url.URL) string {
	return u.Host + u.Path
}
