package store

import (
	"context"
	"sync"
	"time"

	"github.com/vikstrous/dataloadgen"

	"github.com/hanpama/refgraph/internal/entity"
)

type loadersKey struct{}

// Loaders batches identifier lookups per collection for the lifetime of one
// request. Lookups issued concurrently within the wait window are served by a
// single GetMany call; results are cached until the Loaders is discarded.
type Loaders struct {
	store *Store
	wait  time.Duration

	mu      sync.Mutex
	loaders map[string]*dataloadgen.Loader[int, entity.Entity]
}

// LoaderOption configures Loaders.
type LoaderOption func(*Loaders)

// WithWait sets how long a loader collects keys before fetching.
func WithWait(d time.Duration) LoaderOption { return func(l *Loaders) { l.wait = d } }

func NewLoaders(s *Store, opts ...LoaderOption) *Loaders {
	l := &Loaders{
		store:   s,
		wait:    time.Millisecond,
		loaders: make(map[string]*dataloadgen.Loader[int, entity.Entity]),
	}
	for _, f := range opts {
		f(l)
	}
	return l
}

// Load returns the entity with the given id from the named collection.
func (l *Loaders) Load(ctx context.Context, collection string, id int) (entity.Entity, error) {
	loader, err := l.loaderFor(collection)
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx, id)
}

func (l *Loaders) loaderFor(collection string) (*dataloadgen.Loader[int, entity.Entity], error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if loader, ok := l.loaders[collection]; ok {
		return loader, nil
	}
	c, err := l.store.Collection(collection)
	if err != nil {
		return nil, err
	}
	loader := dataloadgen.NewLoader(func(ctx context.Context, ids []int) ([]entity.Entity, []error) {
		return c.GetMany(ids)
	}, dataloadgen.WithWait(l.wait))
	l.loaders[collection] = loader
	return loader, nil
}

// WithLoaders attaches l to ctx.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey{}, l)
}

// LoadersFromContext returns the Loaders attached to ctx, if any.
func LoadersFromContext(ctx context.Context) (*Loaders, bool) {
	l, ok := ctx.Value(loadersKey{}).(*Loaders)
	return l, ok && l != nil
}

// Load reads through the request's Loaders when present and falls back to a
// direct collection lookup otherwise.
func (s *Store) Load(ctx context.Context, collection string, id int) (entity.Entity, error) {
	if l, ok := LoadersFromContext(ctx); ok && l.store == s {
		return l.Load(ctx, collection, id)
	}
	c, err := s.Collection(collection)
	if err != nil {
		return nil, err
	}
	return c.Get(id)
}
