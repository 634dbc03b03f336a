package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/refgraph/internal/entity"
	"github.com/hanpama/refgraph/internal/eventbus"
	"github.com/hanpama/refgraph/internal/events"
	"github.com/hanpama/refgraph/internal/resolver"
)

const productSDL = `
type Query { products: [Product!]! }
type Mutation { createProduct(product: ProductInput!): Product! }
type Product { id: ID! name: String }
input ProductInput { name: String! description: String }
`

// catalog is a minimal product collection guarded by a mutex.
type catalog struct {
	mu       sync.Mutex
	products []entity.Entity
}

func (c *catalog) resolvers(delay func(name string) time.Duration) resolver.Map {
	return resolver.Map{
		"Query": {
			"products": func(ctx context.Context, source any, args map[string]any) (any, error) {
				c.mu.Lock()
				defer c.mu.Unlock()
				return append([]entity.Entity(nil), c.products...), nil
			},
		},
		"Mutation": {
			"createProduct": func(ctx context.Context, source any, args map[string]any) (any, error) {
				input := args["product"].(map[string]any)
				name := input["name"].(string)
				return resolver.Go(ctx, func(ctx context.Context) (any, error) {
					time.Sleep(delay(name))
					c.mu.Lock()
					defer c.mu.Unlock()
					rec := entity.Entity{"id": len(c.products) + 1, "name": name}
					c.products = append(c.products, rec)
					return rec, nil
				}), nil
			},
		},
	}
}

func TestMutation_CreateProductScenario(t *testing.T) {
	c := &catalog{products: []entity.Entity{{"id": 1, "name": "Avengers - End game"}}}
	e := newTestExecutor(t, productSDL, c.resolvers(func(string) time.Duration { return 0 }), nil)

	got := e.Execute(context.Background(), &Request{
		Operation: Mutation,
		Selection: []*Selection{
			Field("createProduct", Field("id"), Field("name")).WithArgs(map[string]any{
				"product": map[string]any{"name": "example"},
			}),
		},
	})
	assertResponse(t, &Response{
		Data: map[string]any{"createProduct": map[string]any{"id": 2, "name": "example"}},
	}, got)
	require.Len(t, c.products, 2)

	got = e.Execute(context.Background(), &Request{
		Selection: []*Selection{Field("products", Field("id"))},
	})
	assertResponse(t, &Response{
		Data: map[string]any{"products": []any{map[string]any{"id": 1}, map[string]any{"id": 2}}},
	}, got)
}

func TestMutation_SerialInDocumentOrder(t *testing.T) {
	c := &catalog{}
	// Earlier fields take longer; only a serial barrier keeps document order.
	delays := map[string]time.Duration{"a": 30 * time.Millisecond, "b": 15 * time.Millisecond, "c": 0}
	e := newTestExecutor(t, productSDL, c.resolvers(func(name string) time.Duration { return delays[name] }), nil,
		WithParallelism(4))

	create := func(alias, name string) *Selection {
		return Field("createProduct", Field("id"), Field("name")).
			WithArgs(map[string]any{"product": map[string]any{"name": name}}).
			As(alias)
	}
	got := e.Execute(context.Background(), &Request{
		Operation: Mutation,
		Selection: []*Selection{create("first", "a"), create("second", "b"), create("third", "c")},
	})

	assertResponse(t, &Response{
		Data: map[string]any{
			"first":  map[string]any{"id": 1, "name": "a"},
			"second": map[string]any{"id": 2, "name": "b"},
			"third":  map[string]any{"id": 3, "name": "c"},
		},
	}, got)
}

func TestMutation_MissingInputArgument(t *testing.T) {
	c := &catalog{}
	e := newTestExecutor(t, productSDL, c.resolvers(func(string) time.Duration { return 0 }), nil)

	got := e.Execute(context.Background(), &Request{
		Operation: Mutation,
		Selection: []*Selection{Field("createProduct", Field("id"))},
	})

	assertResponse(t, &Response{
		Errors: []GraphQLError{located(CodeMissingArgument,
			"argument 'product' of required type ProductInput! was not provided to Mutation.createProduct", "createProduct")},
	}, got)
	require.Empty(t, c.products)
}

func TestParallelism_SiblingsRunConcurrently(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(3)
	rendezvous := func(ctx context.Context, source any, args map[string]any) (any, error) {
		wg.Done()
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
			return "met", nil
		case <-time.After(2 * time.Second):
			return nil, errors.New("siblings did not run concurrently")
		}
	}
	e := newTestExecutor(t, `type Query { a: String b: String c: String }`, resolver.Map{"Query": {
		"a": rendezvous, "b": rendezvous, "c": rendezvous,
	}}, nil, WithParallelism(3))

	got := e.Execute(context.Background(), &Request{Selection: []*Selection{Field("a"), Field("b"), Field("c")}})

	assertResponse(t, &Response{Data: map[string]any{"a": "met", "b": "met", "c": "met"}}, got)
}

func TestCancellation_FailsWholeRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	defer close(release)

	e := newTestExecutor(t, `type Query { fast: String slow: String after: String }`, resolver.Map{"Query": {
		"fast": resolver.Value("ok"),
		"slow": func(ctx context.Context, source any, args map[string]any) (any, error) {
			time.AfterFunc(10*time.Millisecond, cancel)
			return resolver.Go(context.Background(), func(context.Context) (any, error) {
				<-release
				return "too late", nil
			}), nil
		},
		"after": resolver.Value("never"),
	}}, nil)

	got := e.Execute(ctx, &Request{Selection: []*Selection{Field("fast"), Field("slow"), Field("after")}})

	assertResponse(t, &Response{
		Errors: []GraphQLError{located(CodeRequestCancelled, "context canceled")},
	}, got)

	got = e.Execute(ctx, &Request{Selection: []*Selection{Field("fast")}})
	assertResponse(t, &Response{
		Errors: []GraphQLError{located(CodeRequestCancelled, "context canceled")},
	}, got)
}

func TestEvents_ResolverCalls(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	var (
		mu      sync.Mutex
		started []string
		failed  []string
	)
	eventbus.Subscribe(func(ctx context.Context, e events.ResolverStart) {
		mu.Lock()
		defer mu.Unlock()
		started = append(started, e.TypeName+"."+e.FieldName+"@"+e.Path)
	})
	eventbus.Subscribe(func(ctx context.Context, e events.ResolverFinish) {
		if e.Err != nil {
			mu.Lock()
			defer mu.Unlock()
			failed = append(failed, e.Path)
		}
	})

	e := newTestExecutor(t, peopleSDL, peopleResolvers(), peopleLoaders())
	e.Execute(context.Background(), &Request{
		Selection: []*Selection{
			Field("people", Field("name")).WithArgs(map[string]any{"limit": 2}),
			Field("person", Field("name")).WithArgs(map[string]any{"id": "x"}),
		},
	})

	require.Equal(t, []string{
		"Query.people@people",
		"Person.name@people[0].name",
		"Person.name@people[1].name",
		"Query.person@person",
	}, started)
	require.Equal(t, []string{"person"}, failed)
}
