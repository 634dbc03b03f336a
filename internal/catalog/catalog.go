// Package catalog is a small product, review and people graph served from an
// in-memory store. It is what the refgraph command executes against.
package catalog

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/hanpama/refgraph/internal/entity"
	"github.com/hanpama/refgraph/internal/executor"
	"github.com/hanpama/refgraph/internal/introspection"
	"github.com/hanpama/refgraph/internal/resolver"
	"github.com/hanpama/refgraph/internal/schema"
	"github.com/hanpama/refgraph/internal/store"
)

//go:embed schema.graphql
var SDL string

// Collection names.
const (
	Products = "products"
	Reviews  = "reviews"
	People   = "people"
)

// Seed returns a store holding the initial catalog.
func Seed() (*store.Store, error) {
	products, err := store.NewCollection(Products,
		entity.Entity{"id": 1, "name": "Avengers - End game"},
	)
	if err != nil {
		return nil, err
	}
	reviews, err := store.NewCollection(Reviews,
		entity.Entity{"id": 1, "title": "Best movie", "grade": 5, "product": 1},
	)
	if err != nil {
		return nil, err
	}
	people, err := store.NewCollection(People,
		entity.Entity{"id": 1, "name": "Jen", "friend": 2, "friends": []int{2}},
		entity.Entity{"id": 2, "name": "Chris", "friend": 1, "friends": []int{1}},
	)
	if err != nil {
		return nil, err
	}

	s := store.New()
	for _, c := range []*store.Collection{products, reviews, people} {
		if err := s.Add(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Catalog resolves the catalog schema against a store.
type Catalog struct {
	store *store.Store
}

func New(s *store.Store) *Catalog {
	return &Catalog{store: s}
}

func (c *Catalog) Store() *store.Store { return c.store }

// Schema builds the catalog registry.
func (c *Catalog) Schema() (*schema.Registry, error) {
	return schema.BuildFromSDL(SDL)
}

// Executor returns an executor serving the catalog, with introspection
// installed.
func (c *Catalog) Executor(opts ...executor.Option) (*executor.Executor, error) {
	r, err := c.Schema()
	if err != nil {
		return nil, fmt.Errorf("catalog schema: %w", err)
	}
	tbl := resolver.NewTable()
	tbl.Load(c.Resolvers())
	for typeName, fn := range c.Loaders() {
		tbl.RegisterLoader(typeName, fn)
	}
	if err := introspection.Install(r, tbl); err != nil {
		return nil, err
	}
	return executor.New(r, tbl, opts...)
}

// WithLoaders attaches request scoped batching loaders for queries.
// Mutations read the collections directly so they observe the writes of the
// fields before them.
func (c *Catalog) WithLoaders(ctx context.Context, op executor.Operation) context.Context {
	if op == executor.Mutation {
		return ctx
	}
	return store.WithLoaders(ctx, store.NewLoaders(c.store))
}

// Loaders returns the reference loaders for Product and Person. References
// are stored as bare identifiers and dereferenced by the executor when a
// query selects them.
func (c *Catalog) Loaders() map[string]resolver.LoadFunc {
	return map[string]resolver.LoadFunc{
		"Product": c.loader(Products),
		"Person":  c.loader(People),
	}
}

func (c *Catalog) loader(collection string) resolver.LoadFunc {
	return func(ctx context.Context, id any) (any, error) {
		n, ok := entity.AsID(id)
		if !ok {
			return nil, fmt.Errorf("invalid %s id %v", collection, id)
		}
		return c.store.Load(ctx, collection, n)
	}
}
